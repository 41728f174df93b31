// ABOUTME: Show command for displaying a single record.
// ABOUTME: Renders the record body and checklist as markdown with glamour.

package main

import (
	"fmt"

	"github.com/harper/sam/internal/ui"
	"github.com/spf13/cobra"
)

var showCmd = &cobra.Command{
	Use:   "show <id-prefix>",
	Short: "Show a record",
	Long:  `Display a record's full content with rendered markdown.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rec, err := samApp.Store.Resolve(args[0])
		if err != nil {
			return fmt.Errorf("failed to get record: %w", err)
		}

		fmt.Print(ui.FormatRecordHeader(rec))

		content, _ := ui.FormatMarkdown(ui.RecordMarkdown(rec))
		fmt.Print(content)

		if rec.IsActionable() && len(rec.Items) > 0 {
			fmt.Print(ui.Separator())
			fmt.Print(ui.FormatItems(rec.Items))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(showCmd)
}
