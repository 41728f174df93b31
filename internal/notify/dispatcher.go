// ABOUTME: Notification dispatcher: fans a fired reminder out to every channel.
// ABOUTME: Chime, history, banner, OS notification, and live broadcast fail independently.

package notify

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/harper/sam/internal/models"
)

const osBodyPrefix = 100

// Event is pushed to live subscribers when channels change.
type Event struct {
	Type   string              `json:"type"`
	Item   *models.HistoryItem `json:"item,omitempty"`
	Banner *models.Banner      `json:"banner,omitempty"`
	ID     string              `json:"id,omitempty"`
	Unread int                 `json:"unread"`
}

const (
	EventFired          = "reminder.fired"
	EventBannerRemoved  = "banner.removed"
	EventHistoryChanged = "history.changed"
)

// Broadcaster pushes events to connected clients.
type Broadcaster interface {
	Broadcast(ev Event)
}

type Dispatcher struct {
	history  *History
	banners  *Banners
	chime    Chime
	notifier OSNotifier
	focuser  Focuser
	now      func() time.Time
	log      *log.Logger

	mu          sync.Mutex
	broadcaster Broadcaster

	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

type Option func(*Dispatcher)

func WithChime(c Chime) Option {
	return func(d *Dispatcher) { d.chime = c }
}

func WithNotifier(n OSNotifier) Option {
	return func(d *Dispatcher) { d.notifier = n }
}

func WithFocuser(f Focuser) Option {
	return func(d *Dispatcher) { d.focuser = f }
}

func WithClock(now func() time.Time) Option {
	return func(d *Dispatcher) { d.now = now }
}

func WithLogger(l *log.Logger) Option {
	return func(d *Dispatcher) { d.log = l }
}

func NewDispatcher(history *History, banners *Banners, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		history: history,
		banners: banners,
		now:     time.Now,
		log:     log.Default(),
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(d)
	}
	banners.OnRemove(func(id string) {
		d.broadcast(Event{Type: EventBannerRemoved, ID: id, Unread: d.history.UnreadCount()})
	})
	return d
}

func (d *Dispatcher) History() *History { return d.history }

func (d *Dispatcher) Banners() *Banners { return d.banners }

// SetBroadcaster attaches a live event sink; nil detaches it.
func (d *Dispatcher) SetBroadcaster(b Broadcaster) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.broadcaster = b
}

// RequestPermission asks the OS notifier for permission if it is still undecided.
func (d *Dispatcher) RequestPermission(ctx context.Context) Permission {
	if d.notifier == nil {
		return PermissionUnavailable
	}
	perm := d.notifier.Permission()
	if perm != PermissionDefault {
		return perm
	}
	perm, err := d.notifier.RequestPermission(ctx)
	if err != nil {
		d.log.Warn("notification permission request failed", "err", err)
	}
	return perm
}

// Fire delivers rec on every channel. Timing is the scheduler's job: the OS
// notification is shown immediately.
func (d *Dispatcher) Fire(rec *models.Record) {
	now := d.now()

	d.channel("chime", func() error {
		if d.chime == nil {
			return nil
		}
		return d.chime.Play()
	})

	var item *models.HistoryItem
	d.channel("history", func() error {
		item = d.history.Append(rec, now)
		return nil
	})

	var banner *models.Banner
	d.channel("banner", func() error {
		banner = d.banners.Show(rec, now)
		return nil
	})

	d.channel("os", func() error {
		return d.emitOS(rec)
	})

	d.channel("broadcast", func() error {
		d.broadcast(Event{Type: EventFired, Item: item, Banner: banner, Unread: d.history.UnreadCount()})
		return nil
	})
}

// channel runs one delivery step, containing its errors and panics.
func (d *Dispatcher) channel(name string, fn func() error) {
	defer func() {
		if r := recover(); r != nil {
			d.log.Error("notification channel panicked", "channel", name, "panic", r)
		}
	}()
	if err := fn(); err != nil {
		d.log.Warn("notification channel failed", "channel", name, "err", err)
	}
}

func (d *Dispatcher) emitOS(rec *models.Record) error {
	if d.notifier == nil || d.notifier.Permission() != PermissionGranted {
		return nil
	}
	body := rec.Summary
	if body == "" {
		body = truncate(rec.Body, osBodyPrefix)
	}
	h, err := d.notifier.Emit(Notification{
		Title:              rec.Title,
		Body:               body,
		Tag:                rec.ID,
		RequireInteraction: true,
	})
	if err != nil {
		return fmt.Errorf("emit os notification: %w", err)
	}

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		select {
		case <-h.Clicked():
			if d.focuser != nil {
				if err := d.focuser.Focus(); err != nil {
					d.log.Warn("focus failed", "err", err)
				}
			}
			_ = h.Close()
		case <-d.done:
		}
	}()
	return nil
}

func (d *Dispatcher) broadcast(ev Event) {
	d.mu.Lock()
	b := d.broadcaster
	d.mu.Unlock()
	if b != nil {
		b.Broadcast(ev)
	}
}

// MarkRead, MarkAllRead and Clear mutate history and notify live subscribers.
func (d *Dispatcher) MarkRead(id string) error {
	if err := d.history.MarkRead(id); err != nil {
		return err
	}
	d.broadcast(Event{Type: EventHistoryChanged, ID: id, Unread: d.history.UnreadCount()})
	return nil
}

func (d *Dispatcher) MarkAllRead() {
	d.history.MarkAllRead()
	d.broadcast(Event{Type: EventHistoryChanged, Unread: 0})
}

func (d *Dispatcher) Clear() {
	d.history.Clear()
	d.broadcast(Event{Type: EventHistoryChanged, Unread: 0})
}

// Close stops click listeners and pending banner timers.
func (d *Dispatcher) Close() {
	d.closeOnce.Do(func() {
		close(d.done)
		d.banners.Close()
	})
	d.wg.Wait()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
