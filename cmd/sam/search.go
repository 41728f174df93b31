// ABOUTME: Search command for finding records by meaning.
// ABOUTME: Falls back to local text matching when the language service is unavailable.

package main

import (
	"fmt"
	"strings"

	"github.com/harper/sam/internal/ui"
	"github.com/spf13/cobra"
)

var searchCmd = &cobra.Command{
	Use:   "search <query...>",
	Short: "Search records",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		limitFlag, _ := cmd.Flags().GetInt("limit")

		query := strings.Join(args, " ")
		found := samApp.Search(cmd.Context(), query)
		if len(found) == 0 {
			fmt.Println("No records found.")
			return nil
		}
		if limitFlag > 0 && len(found) > limitFlag {
			found = found[:limitFlag]
		}
		for _, rec := range found {
			fmt.Print(ui.FormatRecordListItem(rec))
		}
		return nil
	},
}

func init() {
	searchCmd.Flags().IntP("limit", "n", 20, "maximum results")
	rootCmd.AddCommand(searchCmd)
}
