// ABOUTME: Tag command for managing record tags.
// ABOUTME: Provides add, rm, and list subcommands.

package main

import (
	"fmt"

	"github.com/harper/sam/internal/models"
	"github.com/harper/sam/internal/store"
	"github.com/harper/sam/internal/ui"
	"github.com/spf13/cobra"
)

var tagCmd = &cobra.Command{
	Use:   "tag",
	Short: "Manage tags",
	Long:  `Add, remove, or list tags on records.`,
}

var tagAddCmd = &cobra.Command{
	Use:   "add <id-prefix> <tag>",
	Short: "Add a tag to a record",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		rec, err := samApp.Store.Resolve(args[0])
		if err != nil {
			return fmt.Errorf("failed to get record: %w", err)
		}

		tags := append(rec.Tags, args[1])
		if _, err := samApp.Store.Update(rec.ID, store.Patch{Tags: &tags}); err != nil {
			return fmt.Errorf("failed to add tag: %w", err)
		}

		fmt.Println(ui.Success(fmt.Sprintf("Added tag %q to record %s", models.NewTag(args[1]).Name, ui.ShortID(rec.ID))))
		return nil
	},
}

var tagRmCmd = &cobra.Command{
	Use:   "rm <id-prefix> <tag>",
	Short: "Remove a tag from a record",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		rec, err := samApp.Store.Resolve(args[0])
		if err != nil {
			return fmt.Errorf("failed to get record: %w", err)
		}

		drop := models.NewTag(args[1]).Name
		tags := make([]string, 0, len(rec.Tags))
		for _, t := range rec.Tags {
			if t != drop {
				tags = append(tags, t)
			}
		}
		if len(tags) == len(rec.Tags) {
			return fmt.Errorf("record %s has no tag %q", ui.ShortID(rec.ID), drop)
		}
		if _, err := samApp.Store.Update(rec.ID, store.Patch{Tags: &tags}); err != nil {
			return fmt.Errorf("failed to remove tag: %w", err)
		}

		fmt.Println(ui.Success(fmt.Sprintf("Removed tag %q from record %s", drop, ui.ShortID(rec.ID))))
		return nil
	},
}

var tagListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all tags",
	RunE: func(cmd *cobra.Command, args []string) error {
		tags := samApp.Store.Tags()
		if len(tags) == 0 {
			fmt.Println("No tags found.")
			return nil
		}
		fmt.Print(ui.FormatTagList(tags))
		return nil
	},
}

func init() {
	tagCmd.AddCommand(tagAddCmd)
	tagCmd.AddCommand(tagRmCmd)
	tagCmd.AddCommand(tagListCmd)
	rootCmd.AddCommand(tagCmd)
}
