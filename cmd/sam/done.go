// ABOUTME: Done and star commands for quick record toggles.
// ABOUTME: Flips a checklist item's done flag or a record's importance.

package main

import (
	"fmt"
	"strconv"

	"github.com/harper/sam/internal/ui"
	"github.com/spf13/cobra"
)

var doneCmd = &cobra.Command{
	Use:   "done <id-prefix> <item-index>",
	Short: "Toggle a checklist item",
	Long:  `Toggle the done state of a task's checklist item. Indexes start at 0, as shown by "sam show".`,
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		index, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid item index %q", args[1])
		}

		id, err := resolve(args[0])
		if err != nil {
			return err
		}
		rec, err := samApp.Store.ToggleItem(id, index)
		if err != nil {
			return fmt.Errorf("failed to toggle item: %w", err)
		}

		fmt.Print(ui.FormatItems(rec.Items))
		return nil
	},
}

var starCmd = &cobra.Command{
	Use:   "star <id-prefix>",
	Short: "Toggle a record's importance",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := resolve(args[0])
		if err != nil {
			return err
		}
		rec, err := samApp.Store.ToggleImportant(id)
		if err != nil {
			return fmt.Errorf("failed to toggle importance: %w", err)
		}

		state := "Unstarred"
		if rec.Important {
			state = "Starred"
		}
		fmt.Println(ui.Success(fmt.Sprintf("%s record %s", state, ui.ShortID(rec.ID))))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(doneCmd)
	rootCmd.AddCommand(starCmd)
}
