// ABOUTME: Wiring container shared by the CLI, HTTP server, and MCP server.
// ABOUTME: Builds the KV backend, record store, inference client, dispatcher, and scheduler.

package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/harper/sam/internal/charm"
	"github.com/harper/sam/internal/config"
	"github.com/harper/sam/internal/inference"
	"github.com/harper/sam/internal/models"
	"github.com/harper/sam/internal/notify"
	"github.com/harper/sam/internal/reminder"
	"github.com/harper/sam/internal/store"
)

type App struct {
	Config     *config.Config
	Log        *log.Logger
	KV         store.KV
	Store      *store.Store
	Inference  *inference.Client
	Dispatcher *notify.Dispatcher
	Scheduler  *reminder.Scheduler

	closer io.Closer
}

// Options overrides pieces of the wiring. Zero fields use the defaults.
type Options struct {
	KV       store.KV
	Notifier notify.OSNotifier
	Chime    notify.Chime
	Focuser  notify.Focuser
}

// OpenKV opens the configured storage backend.
func OpenKV(ctx context.Context, cfg config.StorageConfig, logger *log.Logger) (store.KV, error) {
	switch cfg.Backend {
	case "memory":
		return store.NewMemoryKV(), nil
	case "sqlite", "":
		path := cfg.Path
		if path == "" {
			path = config.DefaultDBPath()
		}
		return store.OpenSQLite(path)
	case "couch":
		return store.OpenCouch(ctx, cfg.CouchURL, cfg.CouchDB)
	case "charm":
		return charm.NewClient(charm.Config{
			Host:           cfg.CharmHost,
			AutoSync:       cfg.AutoSync,
			StaleThreshold: cfg.StaleThreshold,
		}, charm.WithLogger(logger))
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}

func New(ctx context.Context, cfg *config.Config, logger *log.Logger, opts Options) (*App, error) {
	if logger == nil {
		logger = log.Default()
	}

	kv := opts.KV
	if kv == nil {
		var err error
		kv, err = OpenKV(ctx, cfg.Storage, logger)
		if err != nil {
			return nil, fmt.Errorf("open %s storage: %w", cfg.Storage.Backend, err)
		}
	}

	a := &App{Config: cfg, Log: logger, KV: kv}
	if c, ok := kv.(io.Closer); ok {
		a.closer = c
	}

	a.Store = store.New(kv, logger.WithPrefix("store"))
	if err := a.Store.Load(); err != nil {
		logger.Error("could not load records, starting empty", "err", err)
	}

	ic := cfg.Inference
	a.Inference = inference.NewClient(ic.APIKey,
		inference.WithBaseURL(ic.BaseURL),
		inference.WithModel(ic.Model),
		inference.WithRetry(ic.MaxAttempts, ic.Backoff),
		inference.WithSearchContext(ic.SearchContextLimit, ic.SearchBodyPrefix),
		inference.WithHTTPClient(&http.Client{Timeout: ic.Timeout}),
		inference.WithLogger(logger.WithPrefix("inference")),
	)

	nc := cfg.Notifications
	history := notify.NewHistory(kv, nc.HistoryCap, logger.WithPrefix("history"))
	if err := history.Load(); err != nil {
		logger.Error("could not load notification history, starting empty", "err", err)
	}
	dopts := []notify.Option{notify.WithLogger(logger.WithPrefix("notify"))}
	if nc.Sound && opts.Chime != nil {
		dopts = append(dopts, notify.WithChime(opts.Chime))
	}
	if nc.Desktop && opts.Notifier != nil {
		dopts = append(dopts, notify.WithNotifier(opts.Notifier))
	}
	if opts.Focuser != nil {
		dopts = append(dopts, notify.WithFocuser(opts.Focuser))
	}
	a.Dispatcher = notify.NewDispatcher(history, notify.NewBanners(nc.BannerDuration), dopts...)

	a.Scheduler = reminder.New(a.Store, a.Dispatcher,
		reminder.WithInterval(cfg.Reminders.Interval),
		reminder.WithWindow(cfg.Reminders.Window),
		reminder.WithLogger(logger.WithPrefix("reminders")),
	)
	return a, nil
}

// Capture structures text and stores the result. It always yields a record.
func (a *App) Capture(ctx context.Context, text string) *models.Record {
	rec := a.Inference.Structure(ctx, text)
	return a.Store.Add(rec)
}

// Search runs a search over every record and returns the matches in ranked order.
func (a *App) Search(ctx context.Context, query string) []*models.Record {
	all := a.Store.List(store.Filter{})
	ids := a.Inference.Search(ctx, query, all)

	byID := make(map[string]*models.Record, len(all))
	for _, r := range all {
		byID[r.ID] = r
	}
	out := make([]*models.Record, 0, len(ids))
	for _, id := range ids {
		if r, ok := byID[id]; ok {
			out = append(out, r)
		}
	}
	return out
}

// Charm returns the charm client when that backend is in use.
func (a *App) Charm() (*charm.Client, bool) {
	c, ok := a.KV.(*charm.Client)
	return c, ok
}

func (a *App) Close() error {
	var errs []error
	if a.Dispatcher != nil {
		a.Dispatcher.Close()
	}
	if a.closer != nil {
		errs = append(errs, a.closer.Close())
	}
	return errors.Join(errs...)
}
