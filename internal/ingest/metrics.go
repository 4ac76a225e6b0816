package ingest

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	globalMetrics *Metrics
	metricsOnce   sync.Once
)

// Metrics holds the Prometheus counters for the ingest pipeline.
type Metrics struct {
	ItemsProcessed     *prometheus.CounterVec
	SuggestionsCreated *prometheus.CounterVec
	FilterRejections   *prometheus.CounterVec
	SyncRuns           *prometheus.CounterVec
}

// NewMetrics registers the pipeline metrics once per process; repeated calls
// return the same set, avoiding duplicate-collector panics.
func NewMetrics() *Metrics {
	metricsOnce.Do(func() {
		globalMetrics = &Metrics{
			ItemsProcessed: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "sift_items_processed_total",
					Help: "Raw items processed by the ingest pipeline",
				},
				[]string{"source"},
			),
			SuggestionsCreated: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "sift_suggestions_created_total",
					Help: "Suggestions persisted by the ingest pipeline",
				},
				[]string{"source"},
			),
			FilterRejections: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "sift_filter_rejections_total",
					Help: "Candidates rejected by the actionability filter",
				},
				[]string{"reason"},
			),
			SyncRuns: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "sift_sync_runs_total",
					Help: "Completed sync runs by outcome",
				},
				[]string{"status"},
			),
		}
	})
	return globalMetrics
}
