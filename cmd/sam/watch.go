// ABOUTME: Watch command that runs the reminder scheduler in the foreground.
// ABOUTME: Prints banners and terminal notifications as reminders fire.

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/harper/sam/internal/notify"
	"github.com/harper/sam/internal/ui"
	"github.com/spf13/cobra"
)

// bannerPrinter renders live dispatcher events to a terminal.
type bannerPrinter struct {
	mu sync.Mutex
	w  io.Writer
}

func (p *bannerPrinter) Broadcast(ev notify.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch ev.Type {
	case notify.EventFired:
		if ev.Banner != nil {
			fmt.Fprint(p.w, ui.FormatBanner(ev.Banner))
		}
		fmt.Fprintln(p.w, "  "+ui.FormatUnreadCount(ev.Unread))
	case notify.EventHistoryChanged:
		fmt.Fprintln(p.w, "  "+ui.FormatUnreadCount(ev.Unread))
	}
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch for due reminders",
	Long: `Check reminders on an interval and fire them as they come due, with a bell,
a banner, and a history entry. Runs until interrupted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		requestNotifications(cmd.Context(), samApp, logger)

		samApp.Dispatcher.SetBroadcaster(&bannerPrinter{w: os.Stdout})
		defer samApp.Dispatcher.SetBroadcaster(nil)

		fmt.Println(ui.Success(fmt.Sprintf("Watching %d pending reminders (every %s)",
			len(samApp.Store.Pending()), cfg.Reminders.Interval)))

		err := samApp.Scheduler.Run(cmd.Context())
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
