package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/fentz26/sift/internal/models"
	"github.com/spf13/cobra"
)

var suggestCmd = &cobra.Command{
	Use:   "suggest",
	Short: "Triage suggestions from synced sources",
}

var suggestListCmd = &cobra.Command{
	Use:   "list",
	Short: "List pending suggestions",
	RunE:  runSuggestList,
}

var suggestAcceptCmd = &cobra.Command{
	Use:   "accept [suggestion-id]",
	Short: "Accept a suggestion as a todo",
	Args:  cobra.ExactArgs(1),
	RunE:  runSuggestAccept,
}

var suggestDiscardCmd = &cobra.Command{
	Use:   "discard [suggestion-id]",
	Short: "Discard a suggestion",
	Args:  cobra.ExactArgs(1),
	RunE:  runSuggestDiscard,
}

var acceptWhen string

func init() {
	suggestCmd.AddCommand(suggestListCmd, suggestAcceptCmd, suggestDiscardCmd)

	suggestAcceptCmd.Flags().StringVar(&acceptWhen, "when", "backlog", "Schedule: today, tomorrow, this_week, this_month, backlog, or YYYY-MM-DD")
}

func runSuggestList(cmd *cobra.Command, args []string) error {
	resp, err := apiGet("/api/suggestions")
	if err != nil {
		return err
	}

	var sugs []models.Todo
	if err := json.Unmarshal(resp, &sugs); err != nil {
		return err
	}

	if len(sugs) == 0 {
		fmt.Println("Inbox zero. Nothing to triage.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tSOURCE\tCONTEXT")
	for _, s := range sugs {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", s.ID, truncate(s.Title, 50), s.SourceType, truncate(s.SourceContext, 30))
	}
	w.Flush()
	return nil
}

func runSuggestAccept(cmd *cobra.Command, args []string) error {
	resp, err := apiPost("/api/suggestions/"+args[0]+"/accept", scheduleBody(acceptWhen))
	if err != nil {
		return err
	}

	var todo models.Todo
	if err := json.Unmarshal(resp, &todo); err != nil {
		return err
	}

	fmt.Printf("Accepted #%d: %s (%s)\n", todo.ID, todo.Title, describeSlot(todo))
	return nil
}

func runSuggestDiscard(cmd *cobra.Command, args []string) error {
	resp, err := apiPost("/api/suggestions/"+args[0]+"/discard", nil)
	if err != nil {
		return err
	}

	var todo models.Todo
	if err := json.Unmarshal(resp, &todo); err != nil {
		return err
	}

	fmt.Printf("Discarded: %s\n", todo.Title)
	return nil
}
