// ABOUTME: Remind command for scheduling and clearing record reminders.
// ABOUTME: Accepts an absolute time or a duration from now.

package main

import (
	"fmt"
	"time"

	"github.com/harper/sam/internal/ui"
	"github.com/spf13/cobra"
)

// reminderLayouts are tried in order for --at; all but RFC 3339 are local time.
var reminderLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04",
	"2006-01-02T15:04",
	"15:04",
}

func parseReminderTime(s string, now time.Time) (time.Time, error) {
	for _, layout := range reminderLayouts {
		t, err := time.ParseInLocation(layout, s, now.Location())
		if err != nil {
			continue
		}
		if layout == "15:04" {
			t = time.Date(now.Year(), now.Month(), now.Day(), t.Hour(), t.Minute(), 0, 0, now.Location())
			if !t.After(now) {
				t = t.AddDate(0, 0, 1)
			}
		}
		return t, nil
	}
	return time.Time{}, fmt.Errorf("unrecognized time %q (try 2006-01-02 15:04 or 15:04)", s)
}

var remindCmd = &cobra.Command{
	Use:   "remind <id-prefix>",
	Short: "Set or clear a reminder",
	Long: `Schedule a reminder on a record with --at or --in, or remove it with --clear.
Setting a new time re-arms a reminder that has already fired.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		atFlag, _ := cmd.Flags().GetString("at")
		inFlag, _ := cmd.Flags().GetDuration("in")
		clearFlag, _ := cmd.Flags().GetBool("clear")

		id, err := resolve(args[0])
		if err != nil {
			return err
		}

		if clearFlag {
			if _, err := samApp.Store.ClearReminder(id); err != nil {
				return fmt.Errorf("failed to clear reminder: %w", err)
			}
			fmt.Println(ui.Success(fmt.Sprintf("Cleared reminder for %s", ui.ShortID(id))))
			return nil
		}

		now := time.Now()
		var fireAt time.Time
		switch {
		case atFlag != "":
			fireAt, err = parseReminderTime(atFlag, now)
			if err != nil {
				return err
			}
		case inFlag > 0:
			fireAt = now.Add(inFlag)
		default:
			return fmt.Errorf("one of --at, --in, or --clear is required")
		}

		if _, err := samApp.Store.SetReminder(id, fireAt); err != nil {
			return fmt.Errorf("failed to set reminder: %w", err)
		}
		fmt.Println(ui.Success(fmt.Sprintf("Reminder for %s set for %s (%s)",
			ui.ShortID(id), fireAt.Format("2006-01-02 15:04"), ui.FormatRelative(fireAt, now))))
		if fireAt.Before(now.Add(-cfg.Reminders.Window)) {
			fmt.Println(ui.Warning("That time is already past the firing window; it will not fire."))
		}
		return nil
	},
}

var remindersCmd = &cobra.Command{
	Use:   "reminders",
	Short: "List pending reminders",
	RunE: func(cmd *cobra.Command, args []string) error {
		pending := samApp.Store.Pending()
		if len(pending) == 0 {
			fmt.Println("No pending reminders.")
			return nil
		}
		for _, rec := range pending {
			fmt.Print(ui.FormatRecordListItem(rec))
		}
		return nil
	},
}

func init() {
	remindCmd.Flags().String("at", "", "fire at this time (RFC 3339, \"2006-01-02 15:04\", or \"15:04\")")
	remindCmd.Flags().Duration("in", 0, "fire after this duration, e.g. 2h or 30m")
	remindCmd.Flags().Bool("clear", false, "remove the reminder")
	rootCmd.AddCommand(remindCmd)
	rootCmd.AddCommand(remindersCmd)
}
