// ABOUTME: Serve command running the HTTP API, websocket hub, and reminder scheduler.
// ABOUTME: All three stop together on interrupt.

package main

import (
	"context"
	"errors"

	"github.com/harper/sam/internal/server"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP and websocket server",
	Long: `Serve the JSON API and live notification websocket, and fire reminders
while running.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		requestNotifications(cmd.Context(), samApp, logger)

		addr, _ := cmd.Flags().GetString("addr")
		if addr == "" {
			addr = cfg.Server.Addr
		}

		srv := server.New(samApp, logger.WithPrefix("http"))

		g, ctx := errgroup.WithContext(cmd.Context())
		g.Go(func() error {
			return srv.Hub().Run(ctx)
		})
		g.Go(func() error {
			return srv.Run(ctx, addr)
		})
		g.Go(func() error {
			err := samApp.Scheduler.Run(ctx)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})

		return g.Wait()
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (default from config)")
	rootCmd.AddCommand(serveCmd)
}
