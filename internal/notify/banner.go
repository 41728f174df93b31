package notify

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/harper/sam/internal/models"
)

const DefaultBannerDuration = 5 * time.Second

type stopper interface {
	Stop() bool
}

// Banners holds the transient in-app banners. Each removes itself after the
// display duration unless dismissed first. Nothing here is persisted.
type Banners struct {
	mu        sync.Mutex
	duration  time.Duration
	items     []*models.Banner
	timers    map[string]stopper
	afterFunc func(d time.Duration, f func()) stopper
	onRemove  func(id string)
}

func NewBanners(duration time.Duration) *Banners {
	if duration <= 0 {
		duration = DefaultBannerDuration
	}
	return &Banners{
		duration: duration,
		timers:   make(map[string]stopper),
		afterFunc: func(d time.Duration, f func()) stopper {
			return time.AfterFunc(d, f)
		},
	}
}

// OnRemove registers a callback run after a banner expires or is dismissed.
func (b *Banners) OnRemove(fn func(id string)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.onRemove = fn
}

func (b *Banners) Show(rec *models.Record, shownAt time.Time) *models.Banner {
	banner := &models.Banner{
		ID:      uuid.NewString(),
		Record:  rec.Clone(),
		ShownAt: shownAt,
	}

	b.mu.Lock()
	b.items = append(b.items, banner)
	id := banner.ID
	b.timers[id] = b.afterFunc(b.duration, func() { b.remove(id) })
	b.mu.Unlock()

	c := *banner
	return &c
}

// Dismiss removes a banner early and cancels its timer.
func (b *Banners) Dismiss(id string) bool {
	b.mu.Lock()
	if t, ok := b.timers[id]; ok {
		t.Stop()
	}
	b.mu.Unlock()
	return b.remove(id)
}

func (b *Banners) remove(id string) bool {
	b.mu.Lock()
	delete(b.timers, id)
	idx := -1
	for i, it := range b.items {
		if it.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		b.mu.Unlock()
		return false
	}
	b.items = append(b.items[:idx], b.items[idx+1:]...)
	cb := b.onRemove
	b.mu.Unlock()

	if cb != nil {
		cb(id)
	}
	return true
}

func (b *Banners) Active() []*models.Banner {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]*models.Banner, len(b.items))
	for i, it := range b.items {
		c := *it
		out[i] = &c
	}
	return out
}

// Close stops every pending timer and drops all banners.
func (b *Banners) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, t := range b.timers {
		t.Stop()
	}
	b.timers = make(map[string]stopper)
	b.items = nil
}
