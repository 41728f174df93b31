package reminder

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/harper/sam/internal/logging"
	"github.com/harper/sam/internal/models"
	"github.com/harper/sam/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

type recordingDispatcher struct {
	mu    sync.Mutex
	fired []string
	delay time.Duration
}

func (d *recordingDispatcher) Fire(rec *models.Record) {
	if d.delay > 0 {
		time.Sleep(d.delay)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.fired = append(d.fired, rec.ID)
}

func (d *recordingDispatcher) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.fired)
}

func newStore(t *testing.T) *store.Store {
	t.Helper()
	s := store.New(store.NewMemoryKV(), logging.Discard())
	require.NoError(t, s.Load())
	return s
}

func addReminder(t *testing.T, s *store.Store, title string, fireAt time.Time) *models.Record {
	t.Helper()
	rec := models.NewRecord(models.KindActionable, title, title)
	rec.Arm(fireAt)
	return s.Add(rec)
}

func TestTickIsIdempotent(t *testing.T) {
	s := newStore(t)
	rec := addReminder(t, s, "dentist", now)
	d := &recordingDispatcher{}
	sched := New(s, d, WithLogger(logging.Discard()))

	assert.Equal(t, 1, sched.Tick(now))
	assert.Equal(t, 0, sched.Tick(now))

	assert.Equal(t, []string{rec.ID}, d.fired)
	got, err := s.Get(rec.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ReminderFired, got.ReminderState())
}

func TestTickWindowBoundaries(t *testing.T) {
	tests := []struct {
		name   string
		offset time.Duration
		fires  bool
	}{
		{"overdue 61s", -61 * time.Second, false},
		{"overdue exactly 60s", -60 * time.Second, false},
		{"overdue 30s", -30 * time.Second, true},
		{"now", 0, true},
		{"in 59s", 59 * time.Second, true},
		{"in exactly 60s", 60 * time.Second, true},
		{"in 61s", 61 * time.Second, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newStore(t)
			addReminder(t, s, tt.name, now.Add(tt.offset))
			d := &recordingDispatcher{}
			sched := New(s, d, WithLogger(logging.Discard()))

			sched.Tick(now)

			if tt.fires {
				assert.Equal(t, 1, d.count())
			} else {
				assert.Equal(t, 0, d.count())
			}
		})
	}
}

func TestOverdueReminderIsNeverFired(t *testing.T) {
	s := newStore(t)
	rec := addReminder(t, s, "stale", now.Add(-61*time.Second))
	d := &recordingDispatcher{}
	sched := New(s, d, WithLogger(logging.Discard()))

	for i := 0; i < 5; i++ {
		sched.Tick(now.Add(time.Duration(i) * 30 * time.Second))
	}

	assert.Equal(t, 0, d.count())
	got, err := s.Get(rec.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ReminderPending, got.ReminderState())
}

func TestFutureReminderFiresOnLaterTick(t *testing.T) {
	s := newStore(t)
	addReminder(t, s, "later", now.Add(90*time.Second))
	d := &recordingDispatcher{}
	sched := New(s, d, WithLogger(logging.Discard()))

	assert.Equal(t, 0, sched.Tick(now))
	assert.Equal(t, 1, sched.Tick(now.Add(30*time.Second)))
	assert.Equal(t, 0, sched.Tick(now.Add(60*time.Second)))
}

func TestOverlappingTicksFireOnce(t *testing.T) {
	s := newStore(t)
	for i := 0; i < 5; i++ {
		addReminder(t, s, "r", now)
	}
	d := &recordingDispatcher{delay: 5 * time.Millisecond}
	sched := New(s, d, WithLogger(logging.Discard()))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sched.Tick(now)
		}()
	}
	wg.Wait()

	assert.Equal(t, 5, d.count())
}

func TestRearmedReminderFiresAgain(t *testing.T) {
	s := newStore(t)
	rec := addReminder(t, s, "again", now)
	d := &recordingDispatcher{}
	sched := New(s, d, WithLogger(logging.Discard()))

	sched.Tick(now)
	_, err := s.SetReminder(rec.ID, now.Add(10*time.Minute))
	require.NoError(t, err)
	sched.Tick(now.Add(10 * time.Minute))

	assert.Equal(t, 2, d.count())
}

func TestRunTicksImmediately(t *testing.T) {
	s := newStore(t)
	addReminder(t, s, "startup", now)
	d := &recordingDispatcher{}
	sched := New(s, d,
		WithLogger(logging.Discard()),
		WithClock(func() time.Time { return now }),
		WithInterval(time.Hour),
	)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- sched.Run(ctx) }()

	require.Eventually(t, func() bool { return d.count() == 1 }, time.Second, 5*time.Millisecond)
	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}

func TestTickFiresReminderSetByAnotherProcess(t *testing.T) {
	kv := store.NewMemoryKV()
	watcher := store.New(kv, logging.Discard())
	require.NoError(t, watcher.Load())
	d := &recordingDispatcher{}
	sched := New(watcher, d, WithLogger(logging.Discard()))
	assert.Equal(t, 0, sched.Tick(now))

	cli := store.New(kv, logging.Discard())
	require.NoError(t, cli.Load())
	rec := addReminder(t, cli, "set while watching", now)

	assert.Equal(t, 1, sched.Tick(now))
	assert.Equal(t, []string{rec.ID}, d.fired)

	got, err := cli.Get(rec.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ReminderFired, got.ReminderState())
}
