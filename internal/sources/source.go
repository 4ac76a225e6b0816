// Package sources provides adapters that pull recent raw items from
// external content stores. Each adapter owns the quirks of its backing
// format and emits uniform RawItems for the ingest pipeline.
package sources

import (
	"context"
	"time"

	"github.com/fentz26/sift/internal/models"
)

// Adapter fetches recent raw items from one external source. FetchRecent
// returns items newer than the lookback window; it does not consult the
// processed-source ledger, that is the orchestrator's job.
type Adapter interface {
	Name() string
	Type() models.SourceType
	FetchRecent(ctx context.Context, lookback time.Duration) ([]models.RawItem, error)
}
