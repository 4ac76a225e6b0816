package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/fentz26/sift/internal/ingest"
	"github.com/fentz26/sift/internal/models"
	"github.com/spf13/cobra"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Run a source sync now",
	RunE:  runSync,
}

var syncHistoryCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent sync runs",
	RunE:  runSyncHistory,
}

var syncStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show sync status per source",
	RunE:  runSyncStatus,
}

func init() {
	syncCmd.AddCommand(syncHistoryCmd, syncStatusCmd)
}

func runSync(cmd *cobra.Command, args []string) error {
	fmt.Println("Syncing sources...")

	resp, err := apiPost("/api/sync", map[string]string{"type": "manual"})
	if err != nil {
		return err
	}

	var stats models.SyncStats
	if err := json.Unmarshal(resp, &stats); err != nil {
		return err
	}

	fmt.Printf("Processed %d items, %d new suggestions\n", stats.ItemsProcessed, stats.ItemsExtracted)
	for name, src := range stats.PerSource {
		fmt.Printf("  %s: %d processed, %d extracted\n", name, src.Processed, src.Extracted)
	}
	if len(stats.Errors) > 0 {
		fmt.Println("Errors:")
		for _, e := range stats.Errors {
			fmt.Printf("  %s\n", e)
		}
	}
	return nil
}

func runSyncHistory(cmd *cobra.Command, args []string) error {
	resp, err := apiGet("/api/syncs")
	if err != nil {
		return err
	}

	var runs []models.SyncRun
	if err := json.Unmarshal(resp, &runs); err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("No sync runs recorded")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STARTED\tTYPE\tPROCESSED\tEXTRACTED\tERRORS")
	for _, r := range runs {
		errs := ""
		if r.Errors != "" {
			errs = truncate(r.Errors, 40)
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%s\n",
			r.StartedAt.Local().Format("2006-01-02 15:04"), r.SyncType, r.ItemsProcessed, r.ItemsExtracted, errs)
	}
	w.Flush()
	return nil
}

func runSyncStatus(cmd *cobra.Command, args []string) error {
	resp, err := apiGet("/api/status")
	if err != nil {
		return err
	}

	var status ingest.Status
	if err := json.Unmarshal(resp, &status); err != nil {
		return err
	}

	if status.LastSync == nil {
		fmt.Println("No sync has run yet")
		return nil
	}

	fmt.Printf("Last sync: %s (%s)\n", status.LastSync.Local().Format("2006-01-02 15:04"), status.LastSyncStatus)
	fmt.Printf("Suggestions created: %d\n", status.LastSyncCount)
	if len(status.Sources) > 0 {
		fmt.Printf("Sources: %s\n", strings.Join(status.Sources, ", "))
	}
	return nil
}
