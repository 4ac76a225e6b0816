// Package ingest runs the suggestion pipeline: it pulls recent raw items
// from the source adapters, extracts candidate actions, filters them for
// actionability and persists survivors as suggestions. The processed-source
// ledger makes the whole pipeline idempotent across overlapping runs.
package ingest

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/fentz26/sift/internal/extract"
	"github.com/fentz26/sift/internal/filter"
	"github.com/fentz26/sift/internal/models"
	"github.com/fentz26/sift/internal/normalize"
	"github.com/fentz26/sift/internal/sources"
	"github.com/fentz26/sift/internal/store"
)

const maxTitleLength = 150

// Config tunes one Orchestrator.
type Config struct {
	// Policy selects the extraction order: "heuristic-first" runs the cheap
	// pattern pass and only consults the oracle when it comes up empty;
	// "oracle-always" asks the oracle first and falls back to patterns.
	Policy string

	// Lookback is how far back adapters scan for new content.
	Lookback time.Duration

	// OracleMaxItems caps candidates per item from the oracle.
	OracleMaxItems int
}

// Orchestrator coordinates one or more source adapters against the store.
type Orchestrator struct {
	store    *store.Store
	oracle   extract.Oracle
	adapters []sources.Adapter
	cfg      Config
	status   *StatusTracker
	metrics  *Metrics
	log      zerolog.Logger
}

// New creates an Orchestrator. The status tracker may be nil.
func New(st *store.Store, oracle extract.Oracle, adapters []sources.Adapter, cfg Config, status *StatusTracker, log zerolog.Logger) *Orchestrator {
	if cfg.Policy == "" {
		cfg.Policy = "heuristic-first"
	}
	if cfg.Lookback <= 0 {
		cfg.Lookback = 24 * time.Hour
	}
	if cfg.OracleMaxItems <= 0 {
		cfg.OracleMaxItems = 5
	}
	if oracle == nil {
		oracle = extract.Disabled()
	}
	return &Orchestrator{
		store:    st,
		oracle:   oracle,
		adapters: adapters,
		cfg:      cfg,
		status:   status,
		metrics:  NewMetrics(),
		log:      log.With().Str("component", "ingest").Logger(),
	}
}

// Sync runs the full pipeline across all adapters. Adapter and per-item
// failures are recorded and skipped; the run itself only fails on store
// errors around the run record or on context cancellation, and in the
// latter case the run record is still completed with the totals so far.
// An item that fails mid-processing is not marked in the ledger, so the
// next run retries it.
func (o *Orchestrator) Sync(ctx context.Context, syncType string) (*models.SyncStats, error) {
	run, err := o.store.StartSyncRun(syncType)
	if err != nil {
		return nil, fmt.Errorf("start sync run: %w", err)
	}

	stats := &models.SyncStats{
		RunID:     run.ID,
		PerSource: map[string]models.SourceStats{},
	}

	cancelled := false
	for _, adapter := range o.adapters {
		name := adapter.Name()
		items, err := adapter.FetchRecent(ctx, o.cfg.Lookback)
		if err != nil {
			o.log.Error().Err(err).Str("source", name).Msg("source fetch failed")
			stats.Errors = append(stats.Errors, fmt.Sprintf("%s: %v", name, err))
			continue
		}
		o.log.Info().Str("source", name).Int("items", len(items)).Msg("fetched raw items")

		src := stats.PerSource[name]
		for _, item := range items {
			if err := ctx.Err(); err != nil {
				stats.Errors = append(stats.Errors, fmt.Sprintf("sync cancelled: %v", err))
				cancelled = true
				break
			}

			seen, err := o.store.IsProcessed(item.SourceType, item.SourceID)
			if err != nil {
				stats.Errors = append(stats.Errors, fmt.Sprintf("%s %s: %v", name, item.SourceID, err))
				continue
			}
			if seen {
				continue
			}

			created, err := o.processItem(ctx, item)
			if err != nil {
				o.log.Error().Err(err).Str("source", name).Str("source_id", item.SourceID).Msg("item failed")
				stats.Errors = append(stats.Errors, fmt.Sprintf("%s %s: %v", name, item.SourceID, err))
				continue
			}

			src.Processed++
			src.Extracted += created
			o.metrics.ItemsProcessed.WithLabelValues(name).Inc()
			o.metrics.SuggestionsCreated.WithLabelValues(name).Add(float64(created))
		}
		stats.PerSource[name] = src
		stats.ItemsProcessed += src.Processed
		stats.ItemsExtracted += src.Extracted
		if cancelled {
			break
		}
	}

	// The run record always completes, even on cancellation, so sync_runs
	// never accumulates rows with a missing end time.
	if err := o.store.CompleteSyncRun(run.ID, stats.ItemsProcessed, stats.ItemsExtracted, stats.Errors); err != nil {
		return nil, fmt.Errorf("complete sync run: %w", err)
	}

	status := "success"
	if len(stats.Errors) > 0 {
		status = "error"
	}
	o.metrics.SyncRuns.WithLabelValues(status).Inc()
	if o.status != nil {
		o.status.Record(syncType, stats)
	}

	if cancelled {
		o.log.Warn().Str("run_id", run.ID).Msg("sync cancelled")
		return stats, ctx.Err()
	}

	o.log.Info().
		Str("run_id", run.ID).
		Int("processed", stats.ItemsProcessed).
		Int("extracted", stats.ItemsExtracted).
		Int("errors", len(stats.Errors)).
		Msg("sync complete")

	return stats, nil
}

// processItem turns one raw item into zero or more suggestions and marks it
// in the ledger. An item whose candidates are all filtered away is still
// marked processed; only real failures leave it unmarked for retry.
func (o *Orchestrator) processItem(ctx context.Context, item models.RawItem) (int, error) {
	text := normalize.Text(item.Content)
	candidates := o.extractCandidates(ctx, text, item.SourceType)

	if len(candidates) == 0 {
		candidates = o.fallbackCandidate(item, text)
	}

	created := 0
	for _, c := range candidates {
		title := truncateRunes(cleanText(c.Title), maxTitleLength)

		ok, reason := filter.IsActionable(title, c.Description)
		if !ok {
			o.metrics.FilterRejections.WithLabelValues(reason).Inc()
			o.log.Debug().Str("reason", reason).Str("title", title).Msg("candidate rejected")
			continue
		}

		params := store.CreateParams{
			Title:         title,
			Description:   c.Description,
			SourceType:    item.SourceType,
			SourceID:      item.SourceID,
			SourceContext: item.ContextLabel,
			SourceURL:     item.OriginURL,
			IsSuggestion:  true,
		}
		if c.Confidence > 0 {
			conf := c.Confidence
			params.ExtractionConfidence = &conf
		}

		if _, err := o.store.CreateTodo(params); err != nil {
			return created, fmt.Errorf("create suggestion: %w", err)
		}
		created++
	}

	if err := o.store.MarkProcessed(item.SourceType, item.SourceID); err != nil {
		return created, err
	}
	return created, nil
}

// extractCandidates applies the configured extraction policy.
func (o *Orchestrator) extractCandidates(ctx context.Context, text string, sourceType models.SourceType) []models.CandidateAction {
	heuristic := func() []models.CandidateAction {
		var out []models.CandidateAction
		for _, line := range extract.Heuristic(text) {
			out = append(out, models.CandidateAction{Title: line})
		}
		return out
	}

	if o.cfg.Policy == "oracle-always" && o.oracle.Available() {
		if c := o.oracle.Extract(ctx, text, sourceType, o.cfg.OracleMaxItems); len(c) > 0 {
			return c
		}
		return heuristic()
	}

	if c := heuristic(); len(c) > 0 {
		return c
	}
	if o.oracle.Available() {
		return o.oracle.Extract(ctx, text, sourceType, o.cfg.OracleMaxItems)
	}
	return nil
}

// fallbackCandidate builds the single "review this item" suggestion for
// items that yielded no candidates. It still goes through the filter, so
// mentions that are plainly non-actionable stay out of the inbox.
func (o *Orchestrator) fallbackCandidate(item models.RawItem, text string) []models.CandidateAction {
	switch item.SourceType {
	case models.SourceMeeting:
		label := item.ContextLabel
		if label == "" {
			label = "Untitled Meeting"
		}
		return []models.CandidateAction{{Title: "Review meeting: " + cleanText(label)}}
	case models.SourceChat:
		snippet := truncateRunes(cleanText(text), 100)
		if snippet == "" {
			return nil
		}
		return []models.CandidateAction{{Title: "Review mention: " + snippet, Description: item.ContextLabel}}
	default:
		return nil
	}
}

// cleanText flattens whitespace so titles stay single-line.
func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// truncateRunes clamps s to n runes, never splitting a multi-byte rune.
func truncateRunes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
