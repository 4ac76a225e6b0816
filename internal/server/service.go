package server

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/fentz26/sift/internal/digest"
	"github.com/fentz26/sift/internal/ingest"
	"github.com/fentz26/sift/internal/models"
	"github.com/fentz26/sift/internal/store"
)

// Service bundles the operations the HTTP surface exposes. It owns the
// shortcut vocabulary for scheduling and the digest composition flow.
type Service struct {
	store  *store.Store
	orch   *ingest.Orchestrator
	pusher *digest.Pusher
	status *ingest.StatusTracker
	log    zerolog.Logger
}

// NewService creates a Service. Orchestrator, pusher and status tracker may
// be nil when the corresponding feature is disabled.
func NewService(st *store.Store, orch *ingest.Orchestrator, pusher *digest.Pusher, status *ingest.StatusTracker, log zerolog.Logger) *Service {
	return &Service{store: st, orch: orch, pusher: pusher, status: status, log: log}
}

// ResolveSchedule turns a scheduling request into a concrete timeline
// assignment. Shortcuts name a slot relative to now: today, tomorrow,
// this_week, this_month, backlog. Without a shortcut the explicit timeline
// type and value pass through to the store's own validation.
func ResolveSchedule(shortcut string, tt models.TimelineType, value string, now time.Time) (models.TimelineType, string, error) {
	now = now.UTC()
	switch shortcut {
	case "":
		return tt, value, nil
	case "today":
		return models.TimelineDate, now.Format("2006-01-02"), nil
	case "tomorrow":
		return models.TimelineDate, now.AddDate(0, 0, 1).Format("2006-01-02"), nil
	case "this_week":
		y, w := now.ISOWeek()
		return models.TimelineWeek, fmt.Sprintf("%d-W%02d", y, w), nil
	case "this_month":
		return models.TimelineMonth, now.Format("2006-01"), nil
	case "backlog":
		return models.TimelineBacklog, "", nil
	default:
		return "", "", fmt.Errorf("%w: unknown shortcut %q", store.ErrInvalidInput, shortcut)
	}
}

// Toggle flips a todo between pending and completed.
func (s *Service) Toggle(id int64) (*models.Todo, error) {
	t, err := s.store.GetTodo(id)
	if err != nil {
		return nil, err
	}
	if t.Status == models.StatusCompleted {
		return s.store.Uncomplete(id)
	}
	return s.store.Complete(id)
}

// Sync runs the ingest pipeline once, or reports that ingestion is not
// configured.
func (s *Service) Sync(ctx context.Context, syncType string) (*models.SyncStats, error) {
	if s.orch == nil {
		return nil, fmt.Errorf("no sources configured")
	}
	if syncType == "" {
		syncType = "manual"
	}
	return s.orch.Sync(ctx, syncType)
}

// Digest composes the daily briefing and, when push is set and a webhook is
// configured, delivers it. The composed text is returned either way.
func (s *Service) Digest(ctx context.Context, now time.Time, push bool) (string, bool, error) {
	view, err := s.store.TodayView(now)
	if err != nil {
		return "", false, err
	}
	suggestions, err := s.store.Suggestions()
	if err != nil {
		return "", false, err
	}

	text := digest.Compose(now, view, suggestions)

	if push && s.pusher != nil && s.pusher.Configured() {
		if err := s.pusher.Push(ctx, text); err != nil {
			return text, false, err
		}
		return text, true, nil
	}
	return text, false, nil
}

// Status returns the latest sync status snapshot.
func (s *Service) Status() ingest.Status {
	if s.status == nil {
		return ingest.Status{}
	}
	return s.status.Snapshot()
}
