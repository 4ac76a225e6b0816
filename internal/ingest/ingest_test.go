package ingest

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/fentz26/sift/internal/extract"
	"github.com/fentz26/sift/internal/models"
	"github.com/fentz26/sift/internal/sources"
	"github.com/fentz26/sift/internal/store"
)

type fakeAdapter struct {
	name  string
	typ   models.SourceType
	items []models.RawItem
	err   error
}

func (f *fakeAdapter) Name() string            { return f.name }
func (f *fakeAdapter) Type() models.SourceType { return f.typ }
func (f *fakeAdapter) FetchRecent(ctx context.Context, lookback time.Duration) ([]models.RawItem, error) {
	return f.items, f.err
}

type fakeOracle struct {
	items []models.CandidateAction
	calls int
}

var _ extract.Oracle = (*fakeOracle)(nil)

func (f *fakeOracle) Available() bool { return true }
func (f *fakeOracle) Extract(ctx context.Context, content string, sourceType models.SourceType, maxItems int) []models.CandidateAction {
	f.calls++
	return f.items
}

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func meetingItem(id, title, content string) models.RawItem {
	return models.RawItem{
		SourceType:   models.SourceMeeting,
		SourceID:     id,
		Content:      content,
		OccurredAt:   time.Now(),
		ContextLabel: title,
	}
}

func TestSyncCreatesSuggestions(t *testing.T) {
	s := newTestStore(t)
	adapter := &fakeAdapter{name: "meetingcache", typ: models.SourceMeeting, items: []models.RawItem{
		meetingItem("doc_1", "Design review", "Summary\n- Send the proposal to the design team\n- Schedule a follow-up with the vendor team\n"),
	}}

	o := New(s, nil, []sources.Adapter{adapter}, Config{}, nil, zerolog.Nop())
	stats, err := o.Sync(context.Background(), "manual")
	if err != nil {
		t.Fatalf("Sync failed: %v", err)
	}

	if stats.ItemsProcessed != 1 {
		t.Errorf("Expected 1 item processed, got %d", stats.ItemsProcessed)
	}
	if stats.ItemsExtracted != 2 {
		t.Errorf("Expected 2 suggestions, got %d", stats.ItemsExtracted)
	}

	sugs, _ := s.Suggestions()
	if len(sugs) != 2 {
		t.Fatalf("Expected 2 suggestions in store, got %d", len(sugs))
	}
	for _, sug := range sugs {
		if !sug.IsSuggestion {
			t.Error("Created rows should be suggestions")
		}
		if sug.SourceID != "doc_1" || sug.SourceContext != "Design review" {
			t.Errorf("Provenance missing: %+v", sug)
		}
	}

	runs, _ := s.ListSyncRuns(1)
	if len(runs) != 1 || runs[0].CompletedAt == nil {
		t.Error("Sync run should be recorded and completed")
	}
}

func TestSyncIsIdempotent(t *testing.T) {
	s := newTestStore(t)
	adapter := &fakeAdapter{name: "meetingcache", typ: models.SourceMeeting, items: []models.RawItem{
		meetingItem("doc_1", "Standup", "- Send the status report to leadership today\n"),
	}}

	o := New(s, nil, []sources.Adapter{adapter}, Config{}, nil, zerolog.Nop())
	if _, err := o.Sync(context.Background(), "manual"); err != nil {
		t.Fatalf("First sync failed: %v", err)
	}

	// Second run sees the same raw items but the ledger blocks re-processing.
	stats, err := o.Sync(context.Background(), "manual")
	if err != nil {
		t.Fatalf("Second sync failed: %v", err)
	}
	if stats.ItemsProcessed != 0 || stats.ItemsExtracted != 0 {
		t.Errorf("Second run should be a no-op, got processed=%d extracted=%d", stats.ItemsProcessed, stats.ItemsExtracted)
	}

	sugs, _ := s.Suggestions()
	if len(sugs) != 1 {
		t.Errorf("Expected 1 suggestion total, got %d", len(sugs))
	}
}

func TestSyncFallbackSuggestion(t *testing.T) {
	s := newTestStore(t)
	adapter := &fakeAdapter{name: "meetingcache", typ: models.SourceMeeting, items: []models.RawItem{
		meetingItem("doc_1", "Quarterly planning", "Attendees\nGeneral discussion, nothing concrete.\n"),
	}}

	o := New(s, nil, []sources.Adapter{adapter}, Config{}, nil, zerolog.Nop())
	if _, err := o.Sync(context.Background(), "manual"); err != nil {
		t.Fatalf("Sync failed: %v", err)
	}

	sugs, _ := s.Suggestions()
	if len(sugs) != 1 {
		t.Fatalf("Expected 1 fallback suggestion, got %d", len(sugs))
	}
	if sugs[0].Title != "Review meeting: Quarterly planning" {
		t.Errorf("Unexpected fallback title: %q", sugs[0].Title)
	}
}

func TestSyncRejectedItemStillMarked(t *testing.T) {
	s := newTestStore(t)
	adapter := &fakeAdapter{name: "chatlog", typ: models.SourceChat, items: []models.RawItem{
		{
			SourceType:   models.SourceChat,
			SourceID:     "general_1",
			Content:      "Taking leave tomorrow, back Monday",
			OccurredAt:   time.Now(),
			ContextLabel: "#general from @priya",
		},
	}}

	o := New(s, nil, []sources.Adapter{adapter}, Config{}, nil, zerolog.Nop())
	if _, err := o.Sync(context.Background(), "manual"); err != nil {
		t.Fatalf("Sync failed: %v", err)
	}

	// The status-update fallback is filtered, so nothing lands in the inbox,
	// but the item is not retried either.
	sugs, _ := s.Suggestions()
	if len(sugs) != 0 {
		t.Errorf("Status updates should be filtered out, got %d suggestions", len(sugs))
	}
	seen, _ := s.IsProcessed(models.SourceChat, "general_1")
	if !seen {
		t.Error("Filtered items should still be marked processed")
	}
}

func TestSyncAdapterFailureIsolation(t *testing.T) {
	s := newTestStore(t)
	broken := &fakeAdapter{name: "archive", typ: models.SourceMeeting, err: context.DeadlineExceeded}
	working := &fakeAdapter{name: "meetingcache", typ: models.SourceMeeting, items: []models.RawItem{
		meetingItem("doc_1", "Sync", "- Review the deployment checklist together\n"),
	}}

	o := New(s, nil, []sources.Adapter{broken, working}, Config{}, nil, zerolog.Nop())
	stats, err := o.Sync(context.Background(), "manual")
	if err != nil {
		t.Fatalf("Sync failed: %v", err)
	}

	if len(stats.Errors) != 1 {
		t.Errorf("Expected 1 recorded error, got %v", stats.Errors)
	}
	if stats.ItemsProcessed != 1 {
		t.Errorf("Working adapter should still be processed, got %d", stats.ItemsProcessed)
	}
}

func TestSyncOracleFallback(t *testing.T) {
	s := newTestStore(t)
	oracle := &fakeOracle{items: []models.CandidateAction{
		{Title: "Coordinate the launch announcement with marketing", Confidence: 0.7},
	}}
	// Content with no heuristic matches forces the oracle under
	// heuristic-first policy.
	adapter := &fakeAdapter{name: "meetingcache", typ: models.SourceMeeting, items: []models.RawItem{
		meetingItem("doc_1", "Launch planning", "A long rambling paragraph about various things without clear verbs leading any line here.\n"),
	}}

	o := New(s, oracle, []sources.Adapter{adapter}, Config{Policy: "heuristic-first"}, nil, zerolog.Nop())
	if _, err := o.Sync(context.Background(), "manual"); err != nil {
		t.Fatalf("Sync failed: %v", err)
	}

	if oracle.calls != 1 {
		t.Errorf("Expected 1 oracle call, got %d", oracle.calls)
	}
	sugs, _ := s.Suggestions()
	if len(sugs) != 1 {
		t.Fatalf("Expected 1 suggestion, got %d", len(sugs))
	}
	if sugs[0].ExtractionConfidence == nil || *sugs[0].ExtractionConfidence != 0.7 {
		t.Error("Oracle confidence should persist")
	}
}

func TestSyncRecordsStatus(t *testing.T) {
	s := newTestStore(t)
	statusPath := filepath.Join(t.TempDir(), "status.json")
	tracker := NewStatusTracker(statusPath)

	adapter := &fakeAdapter{name: "meetingcache", typ: models.SourceMeeting, items: []models.RawItem{
		meetingItem("doc_1", "Sync", "- Update the onboarding document this week\n"),
	}}

	o := New(s, nil, []sources.Adapter{adapter}, Config{}, tracker, zerolog.Nop())
	if _, err := o.Sync(context.Background(), "scheduled"); err != nil {
		t.Fatalf("Sync failed: %v", err)
	}

	snap := tracker.Snapshot()
	if snap.LastSync == nil || snap.LastSyncStatus != "success" {
		t.Errorf("Status not recorded: %+v", snap)
	}
	if snap.LastSyncCount != 1 {
		t.Errorf("Expected count 1, got %d", snap.LastSyncCount)
	}
	if len(snap.History) != 1 || snap.History[0].SyncType != "scheduled" {
		t.Errorf("History not recorded: %+v", snap.History)
	}

	// A fresh tracker reloads history from disk.
	reloaded := NewStatusTracker(statusPath)
	if len(reloaded.Snapshot().History) != 1 {
		t.Error("Status file should seed a new tracker")
	}
}

func TestSyncCancelledRunStillCompletes(t *testing.T) {
	s := newTestStore(t)
	adapter := &fakeAdapter{name: "meetingcache", typ: models.SourceMeeting, items: []models.RawItem{
		meetingItem("doc_1", "Planning", "- Fix the login page redirect bug before Friday\n"),
	}}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	o := New(s, nil, []sources.Adapter{adapter}, Config{}, nil, zerolog.Nop())
	stats, err := o.Sync(ctx, "manual")
	if err == nil {
		t.Fatal("Expected an error from a cancelled sync")
	}
	if stats == nil {
		t.Fatal("Cancelled sync should still return its stats")
	}

	runs, err := s.ListSyncRuns(1)
	if err != nil {
		t.Fatalf("ListSyncRuns failed: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("Expected 1 sync run, got %d", len(runs))
	}
	if runs[0].CompletedAt == nil {
		t.Error("Cancelled run should still record a completion time")
	}
	if !strings.Contains(runs[0].Errors, "cancelled") {
		t.Errorf("Run errors should mention the cancellation, got %q", runs[0].Errors)
	}
}

func TestSyncTruncatesTitlesOnRuneBoundary(t *testing.T) {
	s := newTestStore(t)
	long := "Prepare the " + strings.Repeat("ü", 200) + " report"
	oracle := &fakeOracle{items: []models.CandidateAction{{Title: long, Confidence: 0.9}}}
	adapter := &fakeAdapter{name: "meetingcache", typ: models.SourceMeeting, items: []models.RawItem{
		meetingItem("doc_1", "Reporting", "A long rambling paragraph about various things without clear verbs leading any line here.\n"),
	}}

	o := New(s, oracle, []sources.Adapter{adapter}, Config{Policy: "heuristic-first"}, nil, zerolog.Nop())
	if _, err := o.Sync(context.Background(), "manual"); err != nil {
		t.Fatalf("Sync failed: %v", err)
	}

	sugs, _ := s.Suggestions()
	if len(sugs) != 1 {
		t.Fatalf("Expected 1 suggestion, got %d", len(sugs))
	}
	if !utf8.ValidString(sugs[0].Title) {
		t.Error("Truncated title must remain valid UTF-8")
	}
	if n := utf8.RuneCountInString(sugs[0].Title); n != 150 {
		t.Errorf("Expected a 150-rune title, got %d runes", n)
	}
}
