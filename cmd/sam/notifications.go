// ABOUTME: Notifications command for the fired-reminder history.
// ABOUTME: Lists entries and marks them read or clears them.

package main

import (
	"fmt"

	"github.com/harper/sam/internal/ui"
	"github.com/spf13/cobra"
)

var notificationsCmd = &cobra.Command{
	Use:     "notifications",
	Aliases: []string{"inbox"},
	Short:   "Show fired reminders",
	RunE: func(cmd *cobra.Command, args []string) error {
		unreadFlag, _ := cmd.Flags().GetBool("unread")

		h := samApp.Dispatcher.History()
		fmt.Println(ui.FormatUnreadCount(h.UnreadCount()))

		for _, it := range h.Items() {
			if unreadFlag && it.Read {
				continue
			}
			fmt.Print(ui.FormatHistoryItem(it))
		}
		return nil
	},
}

var notificationsReadCmd = &cobra.Command{
	Use:   "read [notification-id]",
	Short: "Mark a notification read, or all of them with no argument",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			samApp.Dispatcher.MarkAllRead()
			fmt.Println(ui.Success("Marked all notifications read"))
			return nil
		}

		id := args[0]
		for _, it := range samApp.Dispatcher.History().Items() {
			if len(id) >= 6 && len(it.ID) >= len(id) && it.ID[:len(id)] == id {
				id = it.ID
				break
			}
		}
		if err := samApp.Dispatcher.MarkRead(id); err != nil {
			return fmt.Errorf("failed to mark read: %w", err)
		}
		fmt.Println(ui.Success(fmt.Sprintf("Marked %s read", ui.ShortID(id))))
		return nil
	},
}

var notificationsClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete the notification history",
	RunE: func(cmd *cobra.Command, args []string) error {
		samApp.Dispatcher.Clear()
		fmt.Println(ui.Success("Cleared notification history"))
		return nil
	},
}

func init() {
	notificationsCmd.Flags().BoolP("unread", "u", false, "only unread notifications")
	notificationsCmd.AddCommand(notificationsReadCmd)
	notificationsCmd.AddCommand(notificationsClearCmd)
	rootCmd.AddCommand(notificationsCmd)
}
