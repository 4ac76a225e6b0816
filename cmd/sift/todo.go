package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/fentz26/sift/internal/models"
	"github.com/spf13/cobra"
)

var todoCmd = &cobra.Command{
	Use:   "todo",
	Short: "Manage todos",
}

var todoAddCmd = &cobra.Command{
	Use:   "add [title]",
	Short: "Add a new todo",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runTodoAdd,
}

var todoListCmd = &cobra.Command{
	Use:   "list",
	Short: "List todos",
	RunE:  runTodoList,
}

var todoShowCmd = &cobra.Command{
	Use:   "show [todo-id]",
	Short: "Show todo details",
	Args:  cobra.ExactArgs(1),
	RunE:  runTodoShow,
}

var todoDoneCmd = &cobra.Command{
	Use:   "done [todo-id]",
	Short: "Toggle a todo between pending and completed",
	Args:  cobra.ExactArgs(1),
	RunE:  runTodoDone,
}

var todoRmCmd = &cobra.Command{
	Use:   "rm [todo-id]",
	Short: "Delete a todo",
	Args:  cobra.ExactArgs(1),
	RunE:  runTodoRm,
}

var todoReassignCmd = &cobra.Command{
	Use:   "reassign [todo-id] [when]",
	Short: "Move a todo to a new slot (today, tomorrow, this_week, this_month, backlog, or a date)",
	Args:  cobra.ExactArgs(2),
	RunE:  runTodoReassign,
}

var todayCmd = &cobra.Command{
	Use:   "today",
	Short: "Show the today view",
	RunE:  runToday,
}

var (
	todoDesc   string
	todoTags   []string
	todoWhen   string
	listStatus string
)

func init() {
	todoCmd.AddCommand(todoAddCmd, todoListCmd, todoShowCmd, todoDoneCmd, todoRmCmd, todoReassignCmd)

	todoAddCmd.Flags().StringVar(&todoDesc, "desc", "", "Todo description")
	todoAddCmd.Flags().StringSliceVar(&todoTags, "tag", nil, "Tags (repeatable)")
	todoAddCmd.Flags().StringVar(&todoWhen, "when", "", "Schedule: today, tomorrow, this_week, this_month, backlog, or YYYY-MM-DD")

	todoListCmd.Flags().StringVar(&listStatus, "status", "", "Filter by status (pending, completed, discarded)")
}

// scheduleBody builds the schedule part of a request body from a --when style
// value. Shortcuts pass through as-is; a YYYY-MM-DD value becomes an explicit
// date assignment.
func scheduleBody(when string) map[string]interface{} {
	body := map[string]interface{}{}
	if when == "" {
		return body
	}
	switch when {
	case "today", "tomorrow", "this_week", "this_month", "backlog":
		body["shortcut"] = when
	default:
		body["timeline_type"] = "date"
		body["value"] = when
	}
	return body
}

func runTodoAdd(cmd *cobra.Command, args []string) error {
	body := scheduleBody(todoWhen)
	body["title"] = strings.Join(args, " ")
	body["description"] = todoDesc
	if len(todoTags) > 0 {
		body["tags"] = todoTags
	}

	resp, err := apiPost("/api/todos", body)
	if err != nil {
		return err
	}

	var todo models.Todo
	if err := json.Unmarshal(resp, &todo); err != nil {
		return err
	}

	fmt.Printf("Created todo #%d: %s (%s)\n", todo.ID, todo.Title, describeSlot(todo))
	return nil
}

func runTodoList(cmd *cobra.Command, args []string) error {
	url := "/api/todos"
	if listStatus != "" {
		url += "?status=" + listStatus
	}

	resp, err := apiGet(url)
	if err != nil {
		return err
	}

	var todos []models.Todo
	if err := json.Unmarshal(resp, &todos); err != nil {
		return err
	}

	if len(todos) == 0 {
		fmt.Println("No todos found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tSTATUS\tDUE")
	for _, t := range todos {
		due := describeSlot(t)
		if t.IsOverdue {
			due += fmt.Sprintf(" (%dd late)", t.DaysOverdue)
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", t.ID, truncate(t.Title, 50), t.Status, due)
	}
	w.Flush()
	return nil
}

func runTodoShow(cmd *cobra.Command, args []string) error {
	resp, err := apiGet("/api/todos/" + args[0])
	if err != nil {
		return err
	}

	var todo models.Todo
	if err := json.Unmarshal(resp, &todo); err != nil {
		return err
	}

	fmt.Printf("ID:          %d\n", todo.ID)
	fmt.Printf("Title:       %s\n", todo.Title)
	if todo.Description != "" {
		fmt.Printf("Description: %s\n", todo.Description)
	}
	if len(todo.Tags) > 0 {
		fmt.Printf("Tags:        %s\n", strings.Join(todo.Tags, ", "))
	}
	fmt.Printf("Status:      %s\n", todo.Status)
	fmt.Printf("Due:         %s\n", describeSlot(todo))
	if todo.IsOverdue {
		fmt.Printf("Overdue:     %d days\n", todo.DaysOverdue)
	}
	if todo.SourceType != "" && todo.SourceType != models.SourceManual {
		fmt.Printf("Source:      %s", todo.SourceType)
		if todo.SourceContext != "" {
			fmt.Printf(" (%s)", todo.SourceContext)
		}
		fmt.Println()
	}
	fmt.Printf("Created:     %s\n", todo.CreatedAt.Format("2006-01-02 15:04"))
	if todo.CompletedAt != nil {
		fmt.Printf("Completed:   %s\n", todo.CompletedAt.Format("2006-01-02 15:04"))
	}
	return nil
}

func runTodoDone(cmd *cobra.Command, args []string) error {
	resp, err := apiPost("/api/todos/"+args[0]+"/toggle", nil)
	if err != nil {
		return err
	}

	var todo models.Todo
	if err := json.Unmarshal(resp, &todo); err != nil {
		return err
	}

	if todo.Status == models.StatusCompleted {
		fmt.Printf("Completed: %s\n", todo.Title)
	} else {
		fmt.Printf("Reopened: %s\n", todo.Title)
	}
	return nil
}

func runTodoRm(cmd *cobra.Command, args []string) error {
	if _, err := apiDo("DELETE", "/api/todos/"+args[0], nil); err != nil {
		return err
	}
	fmt.Printf("Deleted todo %s\n", args[0])
	return nil
}

func runTodoReassign(cmd *cobra.Command, args []string) error {
	resp, err := apiPost("/api/todos/"+args[0]+"/reassign", scheduleBody(args[1]))
	if err != nil {
		return err
	}

	var todo models.Todo
	if err := json.Unmarshal(resp, &todo); err != nil {
		return err
	}

	fmt.Printf("Moved #%d to %s\n", todo.ID, describeSlot(todo))
	return nil
}

func runToday(cmd *cobra.Command, args []string) error {
	resp, err := apiGet("/api/today")
	if err != nil {
		return err
	}

	var view models.TodayView
	if err := json.Unmarshal(resp, &view); err != nil {
		return err
	}

	empty := true
	printSection := func(name string, todos []models.Todo, suffix func(models.Todo) string) {
		if len(todos) == 0 {
			return
		}
		empty = false
		fmt.Println(name)
		for _, t := range todos {
			fmt.Printf("  [%d] %s%s\n", t.ID, t.Title, suffix(t))
		}
		fmt.Println()
	}

	printSection("OVERDUE", view.Overdue, func(t models.Todo) string {
		return fmt.Sprintf(" (%dd late)", t.DaysOverdue)
	})
	printSection("TODAY", view.Today, func(models.Todo) string { return "" })
	printSection("THIS WEEK", view.ThisWeek, func(models.Todo) string { return "" })
	printSection("DONE TODAY", view.Completed, func(models.Todo) string { return " ✓" })

	if empty {
		fmt.Println("All clear! No pending tasks.")
	}
	return nil
}

// --- Helpers ---

func describeSlot(t models.Todo) string {
	switch t.TimelineType {
	case models.TimelineDate:
		return t.DueDate
	case models.TimelineWeek:
		return "week " + t.DueWeek
	case models.TimelineMonth:
		return "month " + t.DueMonth
	default:
		return "backlog"
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
