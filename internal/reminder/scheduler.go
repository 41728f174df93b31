// ABOUTME: Reminder scheduler: polls the record store and fires due reminders.
// ABOUTME: Claims each reminder atomically before dispatch so it fires at most once.

package reminder

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/harper/sam/internal/models"
)

const (
	DefaultInterval = 30 * time.Second
	// DefaultWindow is how far either side of fireAt a reminder counts as due.
	// Reminders found further overdue than this are skipped, never fired.
	DefaultWindow = time.Minute
)

// Store is the part of the record store the scheduler needs.
type Store interface {
	Pending() []*models.Record
	ClaimReminder(id string, fireAt time.Time) (*models.Record, bool)
}

// Dispatcher delivers a fired reminder.
type Dispatcher interface {
	Fire(rec *models.Record)
}

type Scheduler struct {
	store      Store
	dispatcher Dispatcher
	interval   time.Duration
	window     time.Duration
	now        func() time.Time
	log        *log.Logger

	// mu serializes ticks.
	mu sync.Mutex
}

type Option func(*Scheduler)

func WithInterval(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.interval = d
		}
	}
}

func WithWindow(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.window = d
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) { s.now = now }
}

func WithLogger(l *log.Logger) Option {
	return func(s *Scheduler) { s.log = l }
}

func New(store Store, dispatcher Dispatcher, opts ...Option) *Scheduler {
	s := &Scheduler{
		store:      store,
		dispatcher: dispatcher,
		interval:   DefaultInterval,
		window:     DefaultWindow,
		now:        time.Now,
		log:        log.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run ticks once immediately and then every interval until ctx is done.
func (s *Scheduler) Run(ctx context.Context) error {
	s.log.Debug("reminder scheduler started", "interval", s.interval, "window", s.window)
	s.Tick(s.now())

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			s.log.Debug("reminder scheduler stopped")
			return ctx.Err()
		case <-ticker.C:
			s.Tick(s.now())
		}
	}
}

// Due reports whether a reminder at fireAt fires at now: -window < fireAt-now <= window.
func (s *Scheduler) Due(fireAt, now time.Time) bool {
	delta := fireAt.Sub(now)
	return delta > -s.window && delta <= s.window
}

// Tick fires every due, unclaimed reminder and returns how many fired.
func (s *Scheduler) Tick(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	fired := 0
	for _, rec := range s.store.Pending() {
		fireAt := rec.Reminder.FireAt
		if !s.Due(fireAt, now) {
			continue
		}
		claimed, ok := s.store.ClaimReminder(rec.ID, fireAt)
		if !ok {
			continue
		}
		s.log.Info("reminder fired", "id", claimed.ID, "title", claimed.Title, "fire_at", fireAt.Format(time.RFC3339))
		s.dispatcher.Fire(claimed)
		fired++
	}
	return fired
}
