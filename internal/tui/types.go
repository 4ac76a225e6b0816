package tui

// SuggestionItem is a suggestion row in the triage inbox.
type SuggestionItem struct {
	ID         int64  `json:"id"`
	Title      string `json:"title"`
	SourceType string `json:"source_type"`
	Context    string `json:"source_context"`
	CreatedAt  string `json:"created_at"`
}

// TodoItem is a todo row in the today view.
type TodoItem struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Status      string `json:"status"`
	DueDate     string `json:"due_date"`
	DaysOverdue int    `json:"days_overdue"`
	Context     string `json:"source_context"`
}

// TodayGroups mirrors the /api/today response.
type TodayGroups struct {
	Overdue   []TodoItem `json:"overdue"`
	Today     []TodoItem `json:"today"`
	ThisWeek  []TodoItem `json:"this_week"`
	Completed []TodoItem `json:"completed"`
}
