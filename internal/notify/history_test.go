package notify

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/harper/sam/internal/logging"
	"github.com/harper/sam/internal/models"
	"github.com/harper/sam/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func newHistory(t *testing.T, kv store.KV) *History {
	t.Helper()
	h := NewHistory(kv, DefaultHistoryCap, logging.Discard())
	require.NoError(t, h.Load())
	return h
}

func TestHistoryCapEvictsOldest(t *testing.T) {
	h := newHistory(t, store.NewMemoryKV())

	for i := 0; i < 60; i++ {
		rec := models.NewRecord(models.KindNote, fmt.Sprintf("r%02d", i), "")
		h.Append(rec, t0.Add(time.Duration(i)*time.Second))
	}

	items := h.Items()
	require.Len(t, items, 50)
	assert.Equal(t, "r59", items[0].Record.Title)
	assert.Equal(t, "r10", items[49].Record.Title)
	for _, it := range items {
		assert.NotContains(t, []string{"r00", "r05", "r09"}, it.Record.Title)
	}
}

func TestHistoryReadState(t *testing.T) {
	h := newHistory(t, store.NewMemoryKV())
	a := h.Append(models.NewRecord(models.KindNote, "a", ""), t0)
	h.Append(models.NewRecord(models.KindNote, "b", ""), t0)
	h.Append(models.NewRecord(models.KindNote, "c", ""), t0)

	assert.Equal(t, 3, h.UnreadCount())

	require.NoError(t, h.MarkRead(a.ID))
	assert.Equal(t, 2, h.UnreadCount())

	assert.ErrorIs(t, h.MarkRead("missing"), ErrHistoryItemNotFound)

	h.MarkAllRead()
	assert.Equal(t, 0, h.UnreadCount())
}

func TestHistoryPersistsAndClears(t *testing.T) {
	kv := store.NewMemoryKV()
	h := newHistory(t, kv)
	rec := models.NewRecord(models.KindActionable, "call mom", "call mom")
	rec.Items = []models.Item{{Text: "call"}}
	rec.Arm(t0)
	item := h.Append(rec, t0)
	require.NoError(t, h.MarkRead(item.ID))

	reloaded := newHistory(t, kv)
	items := reloaded.Items()
	require.Len(t, items, 1)
	assert.Equal(t, item.ID, items[0].ID)
	assert.True(t, items[0].Read)
	assert.Equal(t, "call mom", items[0].Record.Title)
	assert.Equal(t, t0.UnixMilli(), items[0].FiredAt.UnixMilli())

	reloaded.Clear()
	assert.Empty(t, reloaded.Items())
	_, err := kv.Get([]byte(HistoryKey))
	assert.ErrorIs(t, err, store.ErrKeyNotFound)
}

func TestHistorySnapshotIsIndependent(t *testing.T) {
	h := newHistory(t, store.NewMemoryKV())
	rec := models.NewRecord(models.KindNote, "before", "")
	h.Append(rec, t0)

	rec.Title = "after"

	assert.Equal(t, "before", h.Items()[0].Record.Title)
}

type brokenKV struct{ store.KV }

func (brokenKV) Set([]byte, []byte) error { return errors.New("disk full") }

func TestHistoryWriteFailureKeepsMemory(t *testing.T) {
	h := newHistory(t, brokenKV{store.NewMemoryKV()})

	h.Append(models.NewRecord(models.KindNote, "x", ""), t0)

	assert.Len(t, h.Items(), 1)
}

func TestHistoryLoadCorrupt(t *testing.T) {
	kv := store.NewMemoryKV()
	require.NoError(t, kv.Set([]byte(HistoryKey), []byte("{nope")))

	err := NewHistory(kv, 0, logging.Discard()).Load()

	var se *store.StorageError
	assert.ErrorAs(t, err, &se)
}

func TestHistoriesSharingKVKeepEachOthersFirings(t *testing.T) {
	kv := store.NewMemoryKV()
	watcher := newHistory(t, kv)
	server := newHistory(t, kv)

	first := watcher.Append(models.NewRecord(models.KindNote, "from watch", ""), t0)
	server.Append(models.NewRecord(models.KindNote, "from serve", ""), t0.Add(time.Second))
	require.NoError(t, watcher.MarkRead(first.ID))

	fresh := newHistory(t, kv)
	items := fresh.Items()
	require.Len(t, items, 2)
	assert.Equal(t, "from serve", items[0].Record.Title)
	assert.False(t, items[0].Read)
	assert.Equal(t, "from watch", items[1].Record.Title)
	assert.True(t, items[1].Read)
	assert.Equal(t, 1, watcher.UnreadCount())
}
