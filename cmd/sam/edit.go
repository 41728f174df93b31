// ABOUTME: Edit command for modifying existing records.
// ABOUTME: Opens the body in $EDITOR, or sets fields directly via flags.

package main

import (
	"fmt"
	"strings"

	"github.com/harper/sam/internal/models"
	"github.com/harper/sam/internal/store"
	"github.com/harper/sam/internal/ui"
	"github.com/spf13/cobra"
)

var editCmd = &cobra.Command{
	Use:   "edit <id-prefix>",
	Short: "Edit a record",
	Long: `Open a record's body in $EDITOR, or change fields directly with --title,
--summary, --type, or --add-item.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rec, err := samApp.Store.Resolve(args[0])
		if err != nil {
			return fmt.Errorf("failed to get record: %w", err)
		}

		var p store.Patch
		changed := false

		if cmd.Flags().Changed("title") {
			title, _ := cmd.Flags().GetString("title")
			if strings.TrimSpace(title) == "" {
				return fmt.Errorf("title cannot be empty")
			}
			p.Title = &title
			changed = true
		}
		if cmd.Flags().Changed("summary") {
			summary, _ := cmd.Flags().GetString("summary")
			p.Summary = &summary
			changed = true
		}
		if cmd.Flags().Changed("type") {
			typ, _ := cmd.Flags().GetString("type")
			kind := models.Kind(typ)
			if !kind.Valid() {
				return fmt.Errorf("type must be %q or %q", models.KindNote, models.KindActionable)
			}
			p.Kind = &kind
			changed = true
		}
		if cmd.Flags().Changed("add-item") {
			texts, _ := cmd.Flags().GetStringArray("add-item")
			items := append([]models.Item(nil), rec.Items...)
			for _, t := range texts {
				items = append(items, models.Item{Text: t})
			}
			p.Items = &items
			changed = true
		}

		if !changed {
			body, err := openEditor(rec.Body)
			if err != nil {
				return fmt.Errorf("failed to open editor: %w", err)
			}
			if body == rec.Body {
				fmt.Println("No changes made.")
				return nil
			}
			p.Body = &body
		}

		if _, err := samApp.Store.Update(rec.ID, p); err != nil {
			return fmt.Errorf("failed to update record: %w", err)
		}

		fmt.Println(ui.Success(fmt.Sprintf("Updated record %s", ui.ShortID(rec.ID))))
		return nil
	},
}

func init() {
	editCmd.Flags().String("title", "", "set the title")
	editCmd.Flags().String("summary", "", "set the summary")
	editCmd.Flags().String("type", "", "set the type (note|todo)")
	editCmd.Flags().StringArray("add-item", nil, "append a checklist item (repeatable)")
	rootCmd.AddCommand(editCmd)
}
