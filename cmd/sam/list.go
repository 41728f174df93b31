// ABOUTME: List command for displaying records newest first.
// ABOUTME: Supports filtering by kind, importance, and tag, with a show-more prompt.

package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/harper/sam/internal/models"
	"github.com/harper/sam/internal/store"
	"github.com/harper/sam/internal/ui"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List records",
	Long:    `List notes and tasks, newest first, optionally filtered by type, importance, or tag.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		tagFlag, _ := cmd.Flags().GetString("tag")
		limitFlag, _ := cmd.Flags().GetInt("limit")
		importantFlag, _ := cmd.Flags().GetBool("important")
		todoFlag, _ := cmd.Flags().GetBool("todo")
		notesFlag, _ := cmd.Flags().GetBool("notes")

		if todoFlag && notesFlag {
			return fmt.Errorf("--todo and --notes are mutually exclusive")
		}

		f := store.Filter{Tag: tagFlag, Important: importantFlag}
		switch {
		case todoFlag:
			f.Kind = models.KindActionable
		case notesFlag:
			f.Kind = models.KindNote
		}

		recs := samApp.Store.List(f)
		if len(recs) == 0 {
			fmt.Println("No records found.")
			return nil
		}

		shown := recs
		if limitFlag > 0 && len(recs) > limitFlag {
			shown = recs[:limitFlag]
		}
		for _, rec := range shown {
			fmt.Print(ui.FormatRecordListItem(rec))
		}

		remaining := len(recs) - len(shown)
		if remaining == 0 || !isatty.IsTerminal(os.Stdin.Fd()) {
			return nil
		}

		fmt.Print(ui.FormatShowMorePrompt(remaining))
		reader := bufio.NewReader(os.Stdin)
		response, err := reader.ReadString('\n')
		if err != nil {
			return nil //nolint:nilerr // Intentional: silently exit on stdin issues
		}

		response = strings.TrimSpace(strings.ToLower(response))
		if response == "y" || response == "yes" {
			fmt.Println()
			for _, rec := range recs[len(shown):] {
				fmt.Print(ui.FormatRecordListItem(rec))
			}
		}
		return nil
	},
}

func init() {
	listCmd.Flags().StringP("tag", "t", "", "filter by tag")
	listCmd.Flags().IntP("limit", "n", 10, "number of results before prompting for more")
	listCmd.Flags().BoolP("important", "i", false, "only starred records")
	listCmd.Flags().Bool("todo", false, "only tasks")
	listCmd.Flags().Bool("notes", false, "only notes")
	rootCmd.AddCommand(listCmd)
}
