package store

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fentz26/sift/internal/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	return s
}

func TestNew(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")

	s, err := New(dbPath)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	defer s.Close()

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("Database file was not created")
	}
}

func TestTodoCRUD(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()

	todo, err := s.CreateTodo(CreateParams{
		Title:       "Write quarterly report",
		Description: "Q3 numbers",
		Tags:        []string{"work", "reports"},
	})
	if err != nil {
		t.Fatalf("CreateTodo failed: %v", err)
	}
	if todo.ID == 0 {
		t.Error("Todo ID should not be zero")
	}
	if todo.Status != models.StatusPending {
		t.Errorf("Expected status pending, got %s", todo.Status)
	}
	if todo.TimelineType != models.TimelineBacklog {
		t.Errorf("Expected backlog timeline, got %s", todo.TimelineType)
	}
	if todo.SourceType != models.SourceManual {
		t.Errorf("Expected manual source, got %s", todo.SourceType)
	}

	got, err := s.GetTodo(todo.ID)
	if err != nil {
		t.Fatalf("GetTodo failed: %v", err)
	}
	if got.Title != "Write quarterly report" {
		t.Errorf("Expected title 'Write quarterly report', got %s", got.Title)
	}
	if len(got.Tags) != 2 || got.Tags[0] != "work" {
		t.Errorf("Tags did not round-trip: %v", got.Tags)
	}

	todos, err := s.ListTodos("")
	if err != nil {
		t.Fatalf("ListTodos failed: %v", err)
	}
	if len(todos) != 1 {
		t.Errorf("Expected 1 todo, got %d", len(todos))
	}

	newTitle := "Write and send quarterly report"
	updated, err := s.UpdateTodo(todo.ID, UpdateParams{Title: &newTitle})
	if err != nil {
		t.Fatalf("UpdateTodo failed: %v", err)
	}
	if updated.Title != newTitle {
		t.Errorf("Expected updated title, got %s", updated.Title)
	}
	if updated.Description != "Q3 numbers" {
		t.Errorf("Description should be unchanged, got %s", updated.Description)
	}

	if err := s.DeleteTodo(todo.ID); err != nil {
		t.Fatalf("DeleteTodo failed: %v", err)
	}
	if _, err := s.GetTodo(todo.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound after delete, got %v", err)
	}
}

func TestGetTodoNotFound(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()

	if _, err := s.GetTodo(999); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestCompleteAndUncomplete(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()

	yesterday := time.Now().UTC().AddDate(0, 0, -1).Format("2006-01-02")
	todo, err := s.CreateTodo(CreateParams{
		Title:        "Pay the electricity bill",
		TimelineType: models.TimelineDate,
		DueValue:     yesterday,
	})
	if err != nil {
		t.Fatalf("CreateTodo failed: %v", err)
	}
	if !todo.IsOverdue || todo.DaysOverdue != 1 {
		t.Errorf("Expected overdue by 1 day, got overdue=%v days=%d", todo.IsOverdue, todo.DaysOverdue)
	}

	done, err := s.Complete(todo.ID)
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if done.Status != models.StatusCompleted {
		t.Errorf("Expected completed, got %s", done.Status)
	}
	if done.CompletedAt == nil {
		t.Error("completed_at should be set")
	}
	if done.IsOverdue || done.DaysOverdue != 0 {
		t.Error("Complete should clear overdue fields")
	}

	back, err := s.Uncomplete(todo.ID)
	if err != nil {
		t.Fatalf("Uncomplete failed: %v", err)
	}
	if back.Status != models.StatusPending {
		t.Errorf("Expected pending, got %s", back.Status)
	}
	if back.CompletedAt != nil {
		t.Error("completed_at should be cleared")
	}
	if !back.IsOverdue || back.DaysOverdue != 1 {
		t.Errorf("Uncomplete should recompute overdue, got overdue=%v days=%d", back.IsOverdue, back.DaysOverdue)
	}
}

func TestReassignRoundTrip(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()

	todo, err := s.CreateTodo(CreateParams{
		Title:        "Plan the offsite agenda",
		TimelineType: models.TimelineDate,
		DueValue:     "2026-02-10",
	})
	if err != nil {
		t.Fatalf("CreateTodo failed: %v", err)
	}

	moved, err := s.Reassign(todo.ID, models.TimelineWeek, "2026-W05")
	if err != nil {
		t.Fatalf("Reassign failed: %v", err)
	}
	if moved.TimelineType != models.TimelineWeek {
		t.Errorf("Expected week timeline, got %s", moved.TimelineType)
	}
	if moved.DueWeek != "2026-W05" {
		t.Errorf("Expected due_week 2026-W05, got %q", moved.DueWeek)
	}
	if moved.DueDate != "" || moved.DueMonth != "" {
		t.Errorf("Other scheduling fields should be cleared, got date=%q month=%q", moved.DueDate, moved.DueMonth)
	}
	if moved.IsOverdue || moved.DaysOverdue != 0 {
		t.Error("Week-scheduled todos are never overdue")
	}

	// Back to backlog clears everything.
	back, err := s.Reassign(todo.ID, models.TimelineBacklog, "")
	if err != nil {
		t.Fatalf("Reassign to backlog failed: %v", err)
	}
	if back.DueDate != "" || back.DueWeek != "" || back.DueMonth != "" {
		t.Error("Backlog should have no scheduling fields")
	}
}

func TestReassignValidation(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()

	todo, _ := s.CreateTodo(CreateParams{Title: "Check the backup rotation"})

	if _, err := s.Reassign(todo.ID, models.TimelineDate, "next tuesday"); err == nil {
		t.Error("Expected error for malformed date")
	}
	if _, err := s.Reassign(todo.ID, models.TimelineWeek, "2026-05"); err == nil {
		t.Error("Expected error for malformed week")
	}
	if _, err := s.Reassign(todo.ID, "sometime", "x"); err == nil {
		t.Error("Expected error for unknown timeline type")
	}
}

func TestSuggestionLifecycle(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()

	sug, err := s.CreateTodo(CreateParams{
		Title:         "Send the proposal to the design team",
		SourceType:    models.SourceMeeting,
		SourceID:      "doc_123",
		SourceContext: "Design review",
		IsSuggestion:  true,
	})
	if err != nil {
		t.Fatalf("CreateTodo failed: %v", err)
	}

	sugs, err := s.Suggestions()
	if err != nil {
		t.Fatalf("Suggestions failed: %v", err)
	}
	if len(sugs) != 1 {
		t.Fatalf("Expected 1 suggestion, got %d", len(sugs))
	}

	// Suggestions are excluded from the todo list.
	todos, _ := s.ListTodos("")
	if len(todos) != 0 {
		t.Errorf("Suggestions should not appear in ListTodos, got %d", len(todos))
	}

	today := time.Now().UTC().Format("2006-01-02")
	accepted, err := s.AcceptSuggestion(sug.ID, models.TimelineDate, today)
	if err != nil {
		t.Fatalf("AcceptSuggestion failed: %v", err)
	}
	if accepted.IsSuggestion {
		t.Error("Accepted suggestion should no longer be a suggestion")
	}
	if accepted.DueDate != today {
		t.Errorf("Expected due_date %s, got %s", today, accepted.DueDate)
	}
	if accepted.SourceID != "doc_123" {
		t.Error("Provenance should survive acceptance")
	}

	// Accepting twice fails and leaves the row unmodified.
	if _, err := s.AcceptSuggestion(sug.ID, models.TimelineBacklog, ""); !errors.Is(err, ErrNotASuggestion) {
		t.Errorf("Expected ErrNotASuggestion, got %v", err)
	}
	got, _ := s.GetTodo(sug.ID)
	if got.TimelineType != models.TimelineDate {
		t.Error("Failed accept should not modify the row")
	}
}

func TestDiscardSuggestion(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()

	sug, _ := s.CreateTodo(CreateParams{Title: "Review meeting: Standup", IsSuggestion: true})
	plain, _ := s.CreateTodo(CreateParams{Title: "Water the office plants"})

	discarded, err := s.DiscardSuggestion(sug.ID)
	if err != nil {
		t.Fatalf("DiscardSuggestion failed: %v", err)
	}
	if discarded.Status != models.StatusDiscarded {
		t.Errorf("Expected discarded, got %s", discarded.Status)
	}

	sugs, _ := s.Suggestions()
	if len(sugs) != 0 {
		t.Errorf("Discarded suggestions should leave the inbox, got %d", len(sugs))
	}

	if _, err := s.DiscardSuggestion(plain.ID); !errors.Is(err, ErrNotASuggestion) {
		t.Errorf("Expected ErrNotASuggestion on a plain todo, got %v", err)
	}

	if _, err := s.Reassign(sug.ID, models.TimelineBacklog, ""); err == nil {
		t.Error("Reassigning a discarded row should fail")
	}
}

func TestTodayView(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()

	now := time.Now().UTC()
	yesterday := now.AddDate(0, 0, -1).Format("2006-01-02")
	today := now.Format("2006-01-02")

	overdue, _ := s.CreateTodo(CreateParams{
		Title:        "Reply to the vendor contract email",
		TimelineType: models.TimelineDate,
		DueValue:     yesterday,
	})
	due, _ := s.CreateTodo(CreateParams{
		Title:        "Submit the expense report",
		TimelineType: models.TimelineDate,
		DueValue:     today,
	})
	weekly, _ := s.CreateTodo(CreateParams{
		Title:        "Prepare slides for the review",
		TimelineType: models.TimelineWeek,
		DueValue:     isoWeek(now),
	})
	doneToday, _ := s.CreateTodo(CreateParams{Title: "Book the travel tickets"})
	s.Complete(doneToday.ID)
	s.CreateTodo(CreateParams{Title: "Triage me later please", IsSuggestion: true})

	view, err := s.TodayView(now)
	if err != nil {
		t.Fatalf("TodayView failed: %v", err)
	}

	if len(view.Overdue) != 1 || view.Overdue[0].ID != overdue.ID {
		t.Fatalf("Expected 1 overdue row, got %d", len(view.Overdue))
	}
	if view.Overdue[0].DaysOverdue != 1 {
		t.Errorf("Expected days_overdue=1, got %d", view.Overdue[0].DaysOverdue)
	}
	if len(view.Today) != 1 || view.Today[0].ID != due.ID {
		t.Errorf("Expected 1 row due today, got %d", len(view.Today))
	}
	if len(view.ThisWeek) != 1 || view.ThisWeek[0].ID != weekly.ID {
		t.Errorf("Expected 1 row this week, got %d", len(view.ThisWeek))
	}
	if len(view.Completed) != 1 || view.Completed[0].ID != doneToday.ID {
		t.Errorf("Expected 1 completed row, got %d", len(view.Completed))
	}
}

func TestTodayViewRecomputesOverdue(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()

	now := time.Now().UTC()
	todo, _ := s.CreateTodo(CreateParams{
		Title:        "File the insurance claim",
		TimelineType: models.TimelineDate,
		DueValue:     now.Format("2006-01-02"),
	})
	if todo.IsOverdue {
		t.Fatal("Due today should not be overdue yet")
	}

	// Three days later the same row surfaces as overdue without any mutation.
	view, err := s.TodayView(now.AddDate(0, 0, 3))
	if err != nil {
		t.Fatalf("TodayView failed: %v", err)
	}
	if len(view.Overdue) != 1 {
		t.Fatalf("Expected 1 overdue row, got %d", len(view.Overdue))
	}
	if view.Overdue[0].DaysOverdue != 3 {
		t.Errorf("Expected days_overdue=3, got %d", view.Overdue[0].DaysOverdue)
	}
}

func TestCalendarView(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()

	s.CreateTodo(CreateParams{Title: "Renew the domain registration", TimelineType: models.TimelineDate, DueValue: "2026-03-05"})
	s.CreateTodo(CreateParams{Title: "Rotate the API credentials", TimelineType: models.TimelineDate, DueValue: "2026-03-05"})
	s.CreateTodo(CreateParams{Title: "Audit the access logs", TimelineType: models.TimelineDate, DueValue: "2026-04-01"})
	s.CreateTodo(CreateParams{Title: "Draft the hiring plan", TimelineType: models.TimelineWeek, DueValue: "2026-W12"})
	s.CreateTodo(CreateParams{Title: "Clean up stale branches", TimelineType: models.TimelineMonth, DueValue: "2026-03"})
	s.CreateTodo(CreateParams{Title: "Read that systems paper"})

	view, err := s.CalendarView(2026, time.March)
	if err != nil {
		t.Fatalf("CalendarView failed: %v", err)
	}

	if len(view.ByDate["2026-03-05"]) != 2 {
		t.Errorf("Expected 2 rows on 2026-03-05, got %d", len(view.ByDate["2026-03-05"]))
	}
	if len(view.ByDate) != 1 {
		t.Errorf("April row should not appear in the March page, got %d dates", len(view.ByDate))
	}
	if len(view.Weekly) != 1 {
		t.Errorf("Expected 1 weekly row, got %d", len(view.Weekly))
	}
	if len(view.Monthly) != 1 {
		t.Errorf("Expected 1 monthly row, got %d", len(view.Monthly))
	}
	if len(view.Backlog) != 1 {
		t.Errorf("Expected 1 backlog row, got %d", len(view.Backlog))
	}
}

func TestProcessedLedger(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()

	seen, err := s.IsProcessed(models.SourceMeeting, "doc_1")
	if err != nil {
		t.Fatalf("IsProcessed failed: %v", err)
	}
	if seen {
		t.Error("Fresh item should not be processed")
	}

	if err := s.MarkProcessed(models.SourceMeeting, "doc_1"); err != nil {
		t.Fatalf("MarkProcessed failed: %v", err)
	}
	// Marking again is a no-op, not an error.
	if err := s.MarkProcessed(models.SourceMeeting, "doc_1"); err != nil {
		t.Fatalf("MarkProcessed repeat failed: %v", err)
	}

	seen, _ = s.IsProcessed(models.SourceMeeting, "doc_1")
	if !seen {
		t.Error("Marked item should be processed")
	}

	// Same ID under a different source type is a distinct item.
	seen, _ = s.IsProcessed(models.SourceChat, "doc_1")
	if seen {
		t.Error("Ledger entries are scoped to the source type")
	}
}

func TestSyncRuns(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()

	run, err := s.StartSyncRun("scheduled")
	if err != nil {
		t.Fatalf("StartSyncRun failed: %v", err)
	}
	if run.ID == "" {
		t.Error("Run ID should not be empty")
	}

	if err := s.CompleteSyncRun(run.ID, 5, 2, []string{"chat: timeout"}); err != nil {
		t.Fatalf("CompleteSyncRun failed: %v", err)
	}

	runs, err := s.ListSyncRuns(10)
	if err != nil {
		t.Fatalf("ListSyncRuns failed: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("Expected 1 run, got %d", len(runs))
	}
	if runs[0].CompletedAt == nil {
		t.Error("completed_at should be set")
	}
	if runs[0].ItemsProcessed != 5 || runs[0].ItemsExtracted != 2 {
		t.Errorf("Counters did not persist: %+v", runs[0])
	}
	if runs[0].Errors != "chat: timeout" {
		t.Errorf("Expected error string, got %q", runs[0].Errors)
	}
}

func TestIsoWeek(t *testing.T) {
	// Jan 1 2027 falls in ISO week 53 of 2026.
	d := time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC)
	if got := isoWeek(d); got != "2026-W53" {
		t.Errorf("Expected 2026-W53, got %s", got)
	}
	d = time.Date(2026, 2, 2, 0, 0, 0, 0, time.UTC)
	if got := isoWeek(d); got != "2026-W06" {
		t.Errorf("Expected 2026-W06, got %s", got)
	}
}
