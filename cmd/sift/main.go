package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "sift",
	Short: "Sift - personal task aggregation",
	Long:  `Sift collects action items from your meeting notes and chat mentions, filters out the noise, and keeps them in a single todo list you triage from the terminal.`,
	// No RunE - defaults to showing help when no subcommand is provided
}

var (
	apiAddr    string
	configPath string
)

func init() {
	rootCmd.PersistentFlags().StringVar(&apiAddr, "api", "http://127.0.0.1:7433", "API server address")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file (default ~/.config/sift/config.yaml)")

	// Add subcommands
	rootCmd.AddCommand(daemonCmd)
	rootCmd.AddCommand(todoCmd)
	rootCmd.AddCommand(suggestCmd)
	rootCmd.AddCommand(todayCmd)
	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(digestCmd)
	rootCmd.AddCommand(tuiCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
