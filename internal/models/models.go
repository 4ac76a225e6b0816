// Package models defines the core domain types for sift.
package models

import "time"

// SourceType identifies where a raw item or todo came from.
type SourceType string

const (
	SourceMeeting SourceType = "meeting"
	SourceChat    SourceType = "chat"
	SourceManual  SourceType = "manual"
)

// TimelineType is the scheduling granularity of a todo.
type TimelineType string

const (
	TimelineDate    TimelineType = "date"
	TimelineWeek    TimelineType = "week"
	TimelineMonth   TimelineType = "month"
	TimelineBacklog TimelineType = "backlog"
)

// TodoStatus represents the lifecycle state of a todo.
type TodoStatus string

const (
	StatusPending   TodoStatus = "pending"
	StatusCompleted TodoStatus = "completed"
	StatusDiscarded TodoStatus = "discarded"
)

// RawItem is a single unprocessed item produced by a source adapter.
// Content is either a plain/HTML string or a decoded block tree
// (maps and slices); the normalizer accepts both. Immutable once produced.
type RawItem struct {
	SourceType   SourceType `json:"source_type"`
	SourceID     string     `json:"source_id"`
	Content      any        `json:"content"`
	OccurredAt   time.Time  `json:"occurred_at"`
	ContextLabel string     `json:"context_label"`
	OriginURL    string     `json:"origin_url,omitempty"`
}

// CandidateAction is a transient extraction result. Only candidates that
// survive the actionability filter become todo rows.
type CandidateAction struct {
	Title       string  `json:"title"`
	Description string  `json:"description,omitempty"`
	Confidence  float64 `json:"confidence"`
	OwnerHint   string  `json:"owner_hint,omitempty"`
	DueHint     string  `json:"due_hint,omitempty"`
}

// Todo is the single persisted entity. A suggestion is a Todo with
// IsSuggestion set; it lives in the triage inbox until accepted or discarded.
type Todo struct {
	ID          int64    `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Tags        []string `json:"tags,omitempty"`

	SourceType    SourceType `json:"source_type"`
	SourceID      string     `json:"source_id,omitempty"`
	SourceContext string     `json:"source_context,omitempty"`
	SourceURL     string     `json:"source_url,omitempty"`

	TimelineType TimelineType `json:"timeline_type"`
	DueDate      string       `json:"due_date,omitempty"`  // YYYY-MM-DD
	DueWeek      string       `json:"due_week,omitempty"`  // YYYY-Www
	DueMonth     string       `json:"due_month,omitempty"` // YYYY-MM

	Status      TodoStatus `json:"status"`
	IsOverdue   bool       `json:"is_overdue"`
	DaysOverdue int        `json:"days_overdue"`

	IsSuggestion bool `json:"is_suggestion"`

	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
	CompletedAt          *time.Time `json:"completed_at,omitempty"`
	ExtractionConfidence *float64   `json:"extraction_confidence,omitempty"`
}

// SyncRun records one orchestrator invocation. Created when the run starts,
// completed exactly once at the end, never mutated afterward.
type SyncRun struct {
	ID             string     `json:"id"`
	SyncType       string     `json:"sync_type"`
	StartedAt      time.Time  `json:"started_at"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
	ItemsProcessed int        `json:"items_processed"`
	ItemsExtracted int        `json:"items_extracted"`
	Errors         string     `json:"errors,omitempty"`
}

// TodayView groups pending work for the today dashboard. Suggestions never
// appear in any of these groups.
type TodayView struct {
	Overdue   []Todo `json:"overdue"`
	Today     []Todo `json:"today"`
	ThisWeek  []Todo `json:"this_week"`
	Completed []Todo `json:"completed"`
}

// CalendarView groups todos for a year-month calendar page.
type CalendarView struct {
	ByDate  map[string][]Todo `json:"by_date"`
	Weekly  []Todo            `json:"weekly"`
	Monthly []Todo            `json:"monthly"`
	Backlog []Todo            `json:"backlog"`
}

// SyncStats aggregates counts across one orchestrator run.
type SyncStats struct {
	RunID          string                 `json:"run_id"`
	ItemsProcessed int                    `json:"items_processed"`
	ItemsExtracted int                    `json:"items_extracted"`
	Errors         []string               `json:"errors,omitempty"`
	PerSource      map[string]SourceStats `json:"per_source,omitempty"`
}

// SourceStats holds per-adapter counts within a sync run.
type SourceStats struct {
	Processed int `json:"processed"`
	Extracted int `json:"extracted"`
}
