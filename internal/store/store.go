// Package store provides SQLite-backed persistence for sift.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fentz26/sift/internal/models"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// ErrNotFound indicates the requested todo does not exist.
var ErrNotFound = fmt.Errorf("todo not found")

// ErrNotASuggestion indicates accept/discard was invoked on a row that is
// not a suggestion.
var ErrNotASuggestion = fmt.Errorf("todo is not a suggestion")

// ErrInvalidInput wraps caller mistakes: bad scheduling values, missing
// titles, unknown timeline types.
var ErrInvalidInput = fmt.Errorf("invalid input")

// Store provides access to the sift SQLite database.
type Store struct {
	db *sql.DB
}

// New creates a new Store and runs migrations.
func New(dbPath string) (*Store, error) {
	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	// Open with WAL mode for better concurrency
	// _time_format=sqlite keeps stored timestamps parseable by SQLite's
	// own date functions, which the completed-today grouping relies on.
	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL&_time_format=sqlite")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	// SQLite only supports one writer at a time
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the database connection is alive.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// migrate runs idempotent schema migrations.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS todos (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		title TEXT NOT NULL,
		description TEXT,
		tags TEXT,
		source_type TEXT NOT NULL DEFAULT 'manual',
		source_id TEXT,
		source_context TEXT,
		source_url TEXT,
		timeline_type TEXT NOT NULL DEFAULT 'backlog',
		due_date TEXT,
		due_week TEXT,
		due_month TEXT,
		status TEXT NOT NULL DEFAULT 'pending',
		is_overdue INTEGER NOT NULL DEFAULT 0,
		days_overdue INTEGER NOT NULL DEFAULT 0,
		is_suggestion INTEGER NOT NULL DEFAULT 0,
		extraction_confidence REAL,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL,
		completed_at DATETIME
	);

	CREATE TABLE IF NOT EXISTS processed_sources (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		source_type TEXT NOT NULL,
		source_id TEXT NOT NULL,
		processed_at DATETIME NOT NULL,
		UNIQUE(source_type, source_id)
	);

	CREATE TABLE IF NOT EXISTS sync_runs (
		id TEXT PRIMARY KEY,
		sync_type TEXT NOT NULL,
		started_at DATETIME NOT NULL,
		completed_at DATETIME,
		items_processed INTEGER NOT NULL DEFAULT 0,
		items_extracted INTEGER NOT NULL DEFAULT 0,
		errors TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_todos_status ON todos(status);
	CREATE INDEX IF NOT EXISTS idx_todos_due_date ON todos(due_date);
	CREATE INDEX IF NOT EXISTS idx_todos_is_suggestion ON todos(is_suggestion);
	CREATE INDEX IF NOT EXISTS idx_sync_runs_started_at ON sync_runs(started_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

const todoColumns = `id, title, description, tags, source_type, source_id, source_context, source_url,
	timeline_type, due_date, due_week, due_month, status, is_overdue, days_overdue,
	is_suggestion, extraction_confidence, created_at, updated_at, completed_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTodo(row rowScanner) (*models.Todo, error) {
	var t models.Todo
	var description, tags, sourceID, sourceContext, sourceURL sql.NullString
	var dueDate, dueWeek, dueMonth sql.NullString
	var confidence sql.NullFloat64
	var completedAt sql.NullTime

	err := row.Scan(
		&t.ID, &t.Title, &description, &tags, &t.SourceType, &sourceID, &sourceContext, &sourceURL,
		&t.TimelineType, &dueDate, &dueWeek, &dueMonth, &t.Status, &t.IsOverdue, &t.DaysOverdue,
		&t.IsSuggestion, &confidence, &t.CreatedAt, &t.UpdatedAt, &completedAt,
	)
	if err != nil {
		return nil, err
	}

	t.Description = description.String
	t.SourceID = sourceID.String
	t.SourceContext = sourceContext.String
	t.SourceURL = sourceURL.String
	t.DueDate = dueDate.String
	t.DueWeek = dueWeek.String
	t.DueMonth = dueMonth.String
	if tags.Valid && tags.String != "" {
		if err := json.Unmarshal([]byte(tags.String), &t.Tags); err != nil {
			return nil, fmt.Errorf("decode tags: %w", err)
		}
	}
	if confidence.Valid {
		t.ExtractionConfidence = &confidence.Float64
	}
	if completedAt.Valid {
		t.CompletedAt = &completedAt.Time
	}
	return &t, nil
}

func encodeTags(tags []string) (any, error) {
	if len(tags) == 0 {
		return nil, nil
	}
	b, err := json.Marshal(tags)
	if err != nil {
		return nil, fmt.Errorf("encode tags: %w", err)
	}
	return string(b), nil
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// schedule resolves a (timeline_type, value) pair into the three scheduling
// columns, exactly one of which is set for scheduled types and none for
// backlog.
func schedule(tt models.TimelineType, value string) (dueDate, dueWeek, dueMonth string, err error) {
	switch tt {
	case models.TimelineDate:
		if _, err := time.Parse("2006-01-02", value); err != nil {
			return "", "", "", fmt.Errorf("%w: due date %q, want YYYY-MM-DD", ErrInvalidInput, value)
		}
		return value, "", "", nil
	case models.TimelineWeek:
		if !weekPattern(value) {
			return "", "", "", fmt.Errorf("%w: due week %q, want YYYY-Www", ErrInvalidInput, value)
		}
		return "", value, "", nil
	case models.TimelineMonth:
		if _, err := time.Parse("2006-01", value); err != nil {
			return "", "", "", fmt.Errorf("%w: due month %q, want YYYY-MM", ErrInvalidInput, value)
		}
		return "", "", value, nil
	case models.TimelineBacklog:
		return "", "", "", nil
	default:
		return "", "", "", fmt.Errorf("%w: timeline type %q", ErrInvalidInput, tt)
	}
}

func weekPattern(v string) bool {
	// YYYY-Www, e.g. 2026-W05
	if len(v) != 8 || v[4] != '-' || v[5] != 'W' {
		return false
	}
	for _, i := range []int{0, 1, 2, 3, 6, 7} {
		if v[i] < '0' || v[i] > '9' {
			return false
		}
	}
	return true
}

// computeOverdue derives the overdue fields for a single row. Only pending
// date-scheduled rows with a due date before today qualify.
func computeOverdue(tt models.TimelineType, status models.TodoStatus, dueDate string, now time.Time) (bool, int) {
	if tt != models.TimelineDate || status != models.StatusPending || dueDate == "" {
		return false, 0
	}
	due, err := time.Parse("2006-01-02", dueDate)
	if err != nil {
		return false, 0
	}
	now = now.UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if !due.Before(today) {
		return false, 0
	}
	return true, int(today.Sub(due).Hours() / 24)
}

// isoWeek formats t's ISO 8601 week as YYYY-Www.
func isoWeek(t time.Time) string {
	y, w := t.ISOWeek()
	return fmt.Sprintf("%d-W%02d", y, w)
}

// --- Todo Operations ---

// CreateParams holds the fields for a new todo. Zero values mean "unset";
// TimelineType defaults to backlog and SourceType to manual.
type CreateParams struct {
	Title                string
	Description          string
	Tags                 []string
	SourceType           models.SourceType
	SourceID             string
	SourceContext        string
	SourceURL            string
	TimelineType         models.TimelineType
	DueValue             string
	IsSuggestion         bool
	ExtractionConfidence *float64
}

// CreateTodo inserts a new todo or suggestion row.
func (s *Store) CreateTodo(p CreateParams) (*models.Todo, error) {
	if strings.TrimSpace(p.Title) == "" {
		return nil, fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	if p.SourceType == "" {
		p.SourceType = models.SourceManual
	}
	if p.TimelineType == "" {
		p.TimelineType = models.TimelineBacklog
	}

	dueDate, dueWeek, dueMonth, err := schedule(p.TimelineType, p.DueValue)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	overdue, days := computeOverdue(p.TimelineType, models.StatusPending, dueDate, now)

	tags, err := encodeTags(p.Tags)
	if err != nil {
		return nil, err
	}

	var confidence any
	if p.ExtractionConfidence != nil {
		confidence = *p.ExtractionConfidence
	}

	res, err := s.db.Exec(
		`INSERT INTO todos (title, description, tags, source_type, source_id, source_context, source_url,
			timeline_type, due_date, due_week, due_month, status, is_overdue, days_overdue,
			is_suggestion, extraction_confidence, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		strings.TrimSpace(p.Title), nullIfEmpty(p.Description), tags,
		p.SourceType, nullIfEmpty(p.SourceID), nullIfEmpty(p.SourceContext), nullIfEmpty(p.SourceURL),
		p.TimelineType, nullIfEmpty(dueDate), nullIfEmpty(dueWeek), nullIfEmpty(dueMonth),
		models.StatusPending, overdue, days, p.IsSuggestion, confidence, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert todo: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetTodo(id)
}

// GetTodo retrieves a todo by ID.
func (s *Store) GetTodo(id int64) (*models.Todo, error) {
	row := s.db.QueryRow(`SELECT ` + todoColumns + ` FROM todos WHERE id = ?`, id)
	t, err := scanTodo(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query todo: %w", err)
	}
	return t, nil
}

// ListTodos returns non-suggestion todos, optionally filtered by status.
func (s *Store) ListTodos(status models.TodoStatus) ([]models.Todo, error) {
	query := `SELECT ` + todoColumns + ` FROM todos WHERE is_suggestion = 0`
	var args []any

	if status != "" {
		query += ` AND status = ?`
		args = append(args, status)
	}
	query += ` ORDER BY created_at DESC`

	return s.queryTodos(query, args...)
}

// Suggestions returns all pending suggestions, newest first.
func (s *Store) Suggestions() ([]models.Todo, error) {
	return s.queryTodos(
		`SELECT ` + todoColumns + ` FROM todos WHERE is_suggestion = 1 AND status = 'pending' ORDER BY created_at DESC`,
	)
}

func (s *Store) queryTodos(query string, args ...any) ([]models.Todo, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query todos: %w", err)
	}
	defer rows.Close()

	var todos []models.Todo
	for rows.Next() {
		t, err := scanTodo(rows)
		if err != nil {
			return nil, fmt.Errorf("scan todo: %w", err)
		}
		todos = append(todos, *t)
	}
	return todos, rows.Err()
}

// UpdateParams holds optional field updates; nil means "leave unchanged".
type UpdateParams struct {
	Title       *string
	Description *string
	Tags        *[]string
}

// UpdateTodo applies partial field updates to a todo.
func (s *Store) UpdateTodo(id int64, p UpdateParams) (*models.Todo, error) {
	sets := []string{"updated_at = ?"}
	args := []any{time.Now().UTC()}

	if p.Title != nil {
		if strings.TrimSpace(*p.Title) == "" {
			return nil, fmt.Errorf("%w: title is required", ErrInvalidInput)
		}
		sets = append(sets, "title = ?")
		args = append(args, strings.TrimSpace(*p.Title))
	}
	if p.Description != nil {
		sets = append(sets, "description = ?")
		args = append(args, nullIfEmpty(*p.Description))
	}
	if p.Tags != nil {
		tags, err := encodeTags(*p.Tags)
		if err != nil {
			return nil, err
		}
		sets = append(sets, "tags = ?")
		args = append(args, tags)
	}

	args = append(args, id)
	res, err := s.db.Exec(`UPDATE todos SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return nil, fmt.Errorf("update todo: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, ErrNotFound
	}
	return s.GetTodo(id)
}

// DeleteTodo removes a todo permanently.
func (s *Store) DeleteTodo(id int64) error {
	res, err := s.db.Exec(`DELETE FROM todos WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete todo: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// Complete marks a todo completed, stamping completed_at and clearing the
// overdue fields regardless of prior state.
func (s *Store) Complete(id int64) (*models.Todo, error) {
	now := time.Now().UTC()
	res, err := s.db.Exec(
		`UPDATE todos SET status = ?, completed_at = ?, is_overdue = 0, days_overdue = 0, updated_at = ? WHERE id = ?`,
		models.StatusCompleted, now, now, id,
	)
	if err != nil {
		return nil, fmt.Errorf("complete todo: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, ErrNotFound
	}
	return s.GetTodo(id)
}

// Uncomplete returns a completed todo to pending, clearing completed_at and
// recomputing overdue status.
func (s *Store) Uncomplete(id int64) (*models.Todo, error) {
	t, err := s.GetTodo(id)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	overdue, days := computeOverdue(t.TimelineType, models.StatusPending, t.DueDate, now)

	_, err = s.db.Exec(
		`UPDATE todos SET status = ?, completed_at = NULL, is_overdue = ?, days_overdue = ?, updated_at = ? WHERE id = ?`,
		models.StatusPending, overdue, days, now, id,
	)
	if err != nil {
		return nil, fmt.Errorf("uncomplete todo: %w", err)
	}
	return s.GetTodo(id)
}

// Reassign moves a todo to a new timeline slot. All three scheduling fields
// are reset and exactly the one matching the timeline type is set.
func (s *Store) Reassign(id int64, tt models.TimelineType, value string) (*models.Todo, error) {
	dueDate, dueWeek, dueMonth, err := schedule(tt, value)
	if err != nil {
		return nil, err
	}

	t, err := s.GetTodo(id)
	if err != nil {
		return nil, err
	}
	if t.Status == models.StatusDiscarded {
		return nil, fmt.Errorf("%w: cannot reassign a discarded todo", ErrInvalidInput)
	}

	now := time.Now().UTC()
	overdue, days := computeOverdue(tt, t.Status, dueDate, now)

	_, err = s.db.Exec(
		`UPDATE todos SET timeline_type = ?, due_date = ?, due_week = ?, due_month = ?,
			is_overdue = ?, days_overdue = ?, updated_at = ? WHERE id = ?`,
		tt, nullIfEmpty(dueDate), nullIfEmpty(dueWeek), nullIfEmpty(dueMonth), overdue, days, now, id,
	)
	if err != nil {
		return nil, fmt.Errorf("reassign todo: %w", err)
	}
	return s.GetTodo(id)
}

// AcceptSuggestion promotes a suggestion to a scheduled todo. Fails with
// ErrNotASuggestion on non-suggestion rows, leaving them unmodified.
func (s *Store) AcceptSuggestion(id int64, tt models.TimelineType, value string) (*models.Todo, error) {
	dueDate, dueWeek, dueMonth, err := schedule(tt, value)
	if err != nil {
		return nil, err
	}

	t, err := s.GetTodo(id)
	if err != nil {
		return nil, err
	}
	if !t.IsSuggestion {
		return nil, ErrNotASuggestion
	}

	now := time.Now().UTC()
	overdue, days := computeOverdue(tt, models.StatusPending, dueDate, now)

	_, err = s.db.Exec(
		`UPDATE todos SET is_suggestion = 0, timeline_type = ?, due_date = ?, due_week = ?, due_month = ?,
			is_overdue = ?, days_overdue = ?, updated_at = ? WHERE id = ?`,
		tt, nullIfEmpty(dueDate), nullIfEmpty(dueWeek), nullIfEmpty(dueMonth), overdue, days, now, id,
	)
	if err != nil {
		return nil, fmt.Errorf("accept suggestion: %w", err)
	}
	return s.GetTodo(id)
}

// DiscardSuggestion marks a suggestion discarded. Discarded is terminal.
func (s *Store) DiscardSuggestion(id int64) (*models.Todo, error) {
	t, err := s.GetTodo(id)
	if err != nil {
		return nil, err
	}
	if !t.IsSuggestion {
		return nil, ErrNotASuggestion
	}

	now := time.Now().UTC()
	_, err = s.db.Exec(
		`UPDATE todos SET status = ?, is_overdue = 0, days_overdue = 0, updated_at = ? WHERE id = ?`,
		models.StatusDiscarded, now, id,
	)
	if err != nil {
		return nil, fmt.Errorf("discard suggestion: %w", err)
	}
	return s.GetTodo(id)
}

// --- Views ---

// RecomputeOverdue bulk-refreshes the derived overdue columns against the
// given day. Applied whenever the today view is materialized, since "today"
// advances independent of any mutation.
func (s *Store) RecomputeOverdue(now time.Time) error {
	today := now.UTC().Format("2006-01-02")
	_, err := s.db.Exec(
		`UPDATE todos SET
			is_overdue = CASE
				WHEN timeline_type = 'date' AND status = 'pending' AND due_date < ? THEN 1
				ELSE 0 END,
			days_overdue = CASE
				WHEN timeline_type = 'date' AND status = 'pending' AND due_date < ?
				THEN CAST(julianday(?) - julianday(due_date) AS INTEGER)
				ELSE 0 END`,
		today, today, today,
	)
	if err != nil {
		return fmt.Errorf("recompute overdue: %w", err)
	}
	return nil
}

// TodayView returns the overdue/today/this-week/completed groupings for the
// given day. Suggestions never appear in any group.
func (s *Store) TodayView(now time.Time) (*models.TodayView, error) {
	if err := s.RecomputeOverdue(now); err != nil {
		return nil, err
	}

	today := now.UTC().Format("2006-01-02")
	week := isoWeek(now.UTC())

	view := &models.TodayView{}
	var err error

	view.Overdue, err = s.queryTodos(
		`SELECT ` + todoColumns + ` FROM todos
		 WHERE is_suggestion = 0 AND status = 'pending' AND is_overdue = 1
		 ORDER BY due_date ASC, created_at DESC`,
	)
	if err != nil {
		return nil, err
	}

	view.Today, err = s.queryTodos(
		`SELECT ` + todoColumns + ` FROM todos
		 WHERE is_suggestion = 0 AND status = 'pending' AND timeline_type = 'date' AND due_date = ?
		 ORDER BY created_at DESC`,
		today,
	)
	if err != nil {
		return nil, err
	}

	view.ThisWeek, err = s.queryTodos(
		`SELECT ` + todoColumns + ` FROM todos
		 WHERE is_suggestion = 0 AND status = 'pending' AND timeline_type = 'week' AND due_week = ?
		 ORDER BY created_at DESC`,
		week,
	)
	if err != nil {
		return nil, err
	}

	view.Completed, err = s.queryTodos(
		`SELECT ` + todoColumns + ` FROM todos
		 WHERE is_suggestion = 0 AND status = 'completed' AND date(completed_at) = ?
		 ORDER BY completed_at DESC`,
		today,
	)
	if err != nil {
		return nil, err
	}

	return view, nil
}

// CalendarView returns date-grouped, week-bucketed, month-bucketed and
// backlog todos for one year-month page.
func (s *Store) CalendarView(year int, month time.Month) (*models.CalendarView, error) {
	prefix := fmt.Sprintf("%04d-%02d", year, month)

	view := &models.CalendarView{ByDate: map[string][]models.Todo{}}

	dated, err := s.queryTodos(
		`SELECT ` + todoColumns + ` FROM todos
		 WHERE is_suggestion = 0 AND status != 'discarded' AND timeline_type = 'date' AND due_date LIKE ?
		 ORDER BY due_date ASC, created_at DESC`,
		prefix+"-%",
	)
	if err != nil {
		return nil, err
	}
	for _, t := range dated {
		view.ByDate[t.DueDate] = append(view.ByDate[t.DueDate], t)
	}

	view.Weekly, err = s.queryTodos(
		`SELECT ` + todoColumns + ` FROM todos
		 WHERE is_suggestion = 0 AND status != 'discarded' AND timeline_type = 'week'
		 ORDER BY due_week ASC, created_at DESC`,
	)
	if err != nil {
		return nil, err
	}

	view.Monthly, err = s.queryTodos(
		`SELECT ` + todoColumns + ` FROM todos
		 WHERE is_suggestion = 0 AND status != 'discarded' AND timeline_type = 'month'
		 ORDER BY due_month ASC, created_at DESC`,
	)
	if err != nil {
		return nil, err
	}

	view.Backlog, err = s.queryTodos(
		`SELECT ` + todoColumns + ` FROM todos
		 WHERE is_suggestion = 0 AND status = 'pending' AND timeline_type = 'backlog'
		 ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, err
	}

	return view, nil
}

// --- Processed-Source Ledger ---

// IsProcessed reports whether a raw item was already ingested.
func (s *Store) IsProcessed(sourceType models.SourceType, sourceID string) (bool, error) {
	var n int
	err := s.db.QueryRow(
		`SELECT COUNT(1) FROM processed_sources WHERE source_type = ? AND source_id = ?`,
		sourceType, sourceID,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("query ledger: %w", err)
	}
	return n > 0, nil
}

// MarkProcessed records a raw item in the ledger. Safe to call repeatedly
// for the same item.
func (s *Store) MarkProcessed(sourceType models.SourceType, sourceID string) error {
	_, err := s.db.Exec(
		`INSERT OR IGNORE INTO processed_sources (source_type, source_id, processed_at) VALUES (?, ?, ?)`,
		sourceType, sourceID, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("mark processed: %w", err)
	}
	return nil
}

// --- Sync Runs ---

// StartSyncRun records the beginning of an orchestrator run.
func (s *Store) StartSyncRun(syncType string) (*models.SyncRun, error) {
	run := &models.SyncRun{
		ID:        uuid.New().String(),
		SyncType:  syncType,
		StartedAt: time.Now().UTC(),
	}
	_, err := s.db.Exec(
		`INSERT INTO sync_runs (id, sync_type, started_at) VALUES (?, ?, ?)`,
		run.ID, run.SyncType, run.StartedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert sync run: %w", err)
	}
	return run, nil
}

// CompleteSyncRun finalizes a run with its counters and any error messages.
func (s *Store) CompleteSyncRun(id string, processed, extracted int, errs []string) error {
	_, err := s.db.Exec(
		`UPDATE sync_runs SET completed_at = ?, items_processed = ?, items_extracted = ?, errors = ? WHERE id = ?`,
		time.Now().UTC(), processed, extracted, nullIfEmpty(strings.Join(errs, "; ")), id,
	)
	if err != nil {
		return fmt.Errorf("complete sync run: %w", err)
	}
	return nil
}

// ListSyncRuns returns the most recent runs, newest first.
func (s *Store) ListSyncRuns(limit int) ([]models.SyncRun, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(
		`SELECT id, sync_type, started_at, completed_at, items_processed, items_extracted, errors
		 FROM sync_runs ORDER BY started_at DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query sync runs: %w", err)
	}
	defer rows.Close()

	var runs []models.SyncRun
	for rows.Next() {
		var run models.SyncRun
		var completedAt sql.NullTime
		var errs sql.NullString
		if err := rows.Scan(&run.ID, &run.SyncType, &run.StartedAt, &completedAt, &run.ItemsProcessed, &run.ItemsExtracted, &errs); err != nil {
			return nil, fmt.Errorf("scan sync run: %w", err)
		}
		if completedAt.Valid {
			run.CompletedAt = &completedAt.Time
		}
		run.Errors = errs.String
		runs = append(runs, run)
	}
	return runs, rows.Err()
}
