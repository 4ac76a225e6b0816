package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var digestCmd = &cobra.Command{
	Use:   "digest",
	Short: "Compose the daily briefing",
	RunE:  runDigest,
}

var digestPush bool

func init() {
	digestCmd.Flags().BoolVar(&digestPush, "push", false, "Also push the briefing to the configured webhook")
}

func runDigest(cmd *cobra.Command, args []string) error {
	resp, err := apiPost("/api/digest", map[string]bool{"push": digestPush})
	if err != nil {
		return err
	}

	var result struct {
		Text   string `json:"text"`
		Pushed bool   `json:"pushed"`
	}
	if err := json.Unmarshal(resp, &result); err != nil {
		return err
	}

	fmt.Println(result.Text)
	if digestPush {
		if result.Pushed {
			fmt.Println("\nPushed to webhook.")
		} else {
			fmt.Println("\nNot pushed (no webhook configured).")
		}
	}
	return nil
}
