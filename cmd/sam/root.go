// ABOUTME: Root command wiring config, logging, and the shared app container.
// ABOUTME: Every subcommand except version runs against samApp.

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/harper/sam/internal/app"
	"github.com/harper/sam/internal/config"
	"github.com/harper/sam/internal/logging"
	"github.com/harper/sam/internal/notify"
	"github.com/harper/sam/internal/ui"
	"github.com/spf13/cobra"
)

var (
	cfgPath  string
	logLevel string

	cfg      *config.Config
	logger   *log.Logger
	notifier *notify.TerminalNotifier
	samApp   *app.App
)

var rootCmd = &cobra.Command{
	Use:   "sam",
	Short: "Speak a thought, get a structured note or task",
	Long: `sam turns raw thoughts into structured notes and checklists, keeps them
in a local store, and fires reminders when they come due.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Annotations["skipApp"] == "true" {
			return nil
		}

		var err error
		cfg, err = config.Load(cfgPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if logLevel != "" {
			cfg.Log.Level = logLevel
		}
		logger = logging.New(cfg.Log.Level, os.Stderr)

		notifier = notify.NewTerminalNotifier(os.Stderr)
		samApp, err = app.New(cmd.Context(), cfg, logger, app.Options{
			Notifier: notifier,
			Chime:    notify.BellChime{W: os.Stderr},
		})
		if err != nil {
			return fmt.Errorf("failed to start: %w", err)
		}
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if samApp == nil {
			return nil
		}
		return samApp.Close()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "config file (default "+config.ConfigPath()+")")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug|info|warn|error)")
}

// Execute runs the root command until it finishes or the process is interrupted.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd.Version = version
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, ui.Error(err.Error()))
		return err
	}
	return nil
}

// resolve looks up a record by id or 6+ character prefix.
func resolve(idOrPrefix string) (string, error) {
	rec, err := samApp.Store.Resolve(idOrPrefix)
	if err != nil {
		return "", fmt.Errorf("failed to get record: %w", err)
	}
	return rec.ID, nil
}

// requestNotifications asks the OS notifier for permission before a
// long-running command starts firing reminders.
func requestNotifications(ctx context.Context, a *app.App, l *log.Logger) notify.Permission {
	perm := a.Dispatcher.RequestPermission(ctx)
	l.Debug("notification permission", "state", perm)
	return perm
}
