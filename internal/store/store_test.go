// ABOUTME: Tests for record store operations.
// ABOUTME: Covers CRUD, merge updates, reminder claims, and persistence failures.

package store

import (
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/harper/sam/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*Store, *MemoryKV) {
	t.Helper()
	kv := NewMemoryKV()
	s := New(kv, log.New(io.Discard))
	require.NoError(t, s.Load())
	return s, kv
}

type failingKV struct {
	*MemoryKV
	failWrites bool
}

func (f *failingKV) Set(key, value []byte) error {
	if f.failWrites {
		return errors.New("disk full")
	}
	return f.MemoryKV.Set(key, value)
}

func TestAddGetDelete(t *testing.T) {
	s, _ := newTestStore(t)

	rec := s.Add(models.NewRecord(models.KindNote, "Title", "Body"))

	got, err := s.Get(rec.ID)
	require.NoError(t, err)
	assert.Equal(t, "Title", got.Title)

	require.NoError(t, s.Delete(rec.ID))
	_, err = s.Get(rec.ID)
	assert.ErrorIs(t, err, ErrRecordNotFound)
	assert.ErrorIs(t, s.Delete(rec.ID), ErrRecordNotFound)
}

func TestAddPrependsNewestFirst(t *testing.T) {
	s, _ := newTestStore(t)

	first := s.Add(models.NewRecord(models.KindNote, "first", ""))
	second := s.Add(models.NewRecord(models.KindNote, "second", ""))

	all := s.List(Filter{})
	require.Len(t, all, 2)
	assert.Equal(t, second.ID, all[0].ID)
	assert.Equal(t, first.ID, all[1].ID)
}

func TestPersistsAcrossLoad(t *testing.T) {
	s, kv := newTestStore(t)
	rec := models.NewRecord(models.KindActionable, "Groceries", "buy milk")
	rec.Items = []models.Item{{Text: "milk"}, {Text: "eggs", Done: true}}
	rec.Tags = []string{"errands"}
	rec.Arm(time.UnixMilli(1_700_000_000_000))
	s.Add(rec)

	reloaded := New(kv, log.New(io.Discard))
	require.NoError(t, reloaded.Load())

	got, err := reloaded.Get(rec.ID)
	require.NoError(t, err)
	assert.Equal(t, rec.Items, got.Items)
	assert.Equal(t, rec.Tags, got.Tags)
	assert.True(t, rec.Reminder.FireAt.Equal(got.Reminder.FireAt))
	assert.Equal(t, rec.CreatedAt.UnixMilli(), got.CreatedAt.UnixMilli())
}

func TestLoadCorruptDataReportsStorageError(t *testing.T) {
	kv := NewMemoryKV()
	require.NoError(t, kv.Set([]byte(RecordsKey), []byte("{not json")))

	s := New(kv, log.New(io.Discard))
	err := s.Load()

	var storageErr *StorageError
	require.ErrorAs(t, err, &storageErr)
	assert.Equal(t, "load", storageErr.Op)
	assert.Equal(t, 0, s.Len())
}

func TestWriteFailureKeepsInMemoryState(t *testing.T) {
	kv := &failingKV{MemoryKV: NewMemoryKV(), failWrites: true}
	s := New(kv, log.New(io.Discard))

	rec := s.Add(models.NewRecord(models.KindNote, "kept", ""))

	got, err := s.Get(rec.ID)
	require.NoError(t, err)
	assert.Equal(t, "kept", got.Title)
}

func TestGetByPrefix(t *testing.T) {
	s, _ := newTestStore(t)
	rec := s.Add(models.NewRecord(models.KindNote, "x", ""))

	got, err := s.GetByPrefix(rec.ID[:8])
	require.NoError(t, err)
	assert.Equal(t, rec.ID, got.ID)

	_, err = s.GetByPrefix("abc")
	assert.ErrorIs(t, err, ErrPrefixTooShort)

	_, err = s.GetByPrefix("zzzzzzzz")
	assert.ErrorIs(t, err, ErrRecordNotFound)
}

func TestUpdateIsShallowMerge(t *testing.T) {
	s, _ := newTestStore(t)
	rec := models.NewRecord(models.KindNote, "Old title", "Body stays")
	rec.Tags = []string{"keep"}
	rec = s.Add(rec)

	title := "New title"
	got, err := s.Update(rec.ID, Patch{Title: &title})
	require.NoError(t, err)

	assert.Equal(t, "New title", got.Title)
	assert.Equal(t, "Body stays", got.Body)
	assert.Equal(t, []string{"keep"}, got.Tags)
}

func TestUpdateDoesNotClobberOtherRecords(t *testing.T) {
	s, _ := newTestStore(t)
	a := s.Add(models.NewRecord(models.KindNote, "a", ""))
	b := s.Add(models.NewRecord(models.KindNote, "b", ""))

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, _ = s.ToggleImportant(a.ID)
		}()
		go func() {
			defer wg.Done()
			title := "b-edited"
			_, _ = s.Update(b.ID, Patch{Title: &title})
		}()
	}
	wg.Wait()

	gotA, err := s.Get(a.ID)
	require.NoError(t, err)
	gotB, err := s.Get(b.ID)
	require.NoError(t, err)
	assert.False(t, gotA.Important, "even number of toggles")
	assert.Equal(t, "b-edited", gotB.Title)
	assert.Equal(t, 2, s.Len())
}

func TestUpdateRedefinedReminderRearms(t *testing.T) {
	s, _ := newTestStore(t)
	fireAt := time.UnixMilli(1_700_000_000_000)
	rec := models.NewRecord(models.KindNote, "x", "")
	rec.Arm(fireAt)
	rec = s.Add(rec)

	_, ok := s.ClaimReminder(rec.ID, fireAt)
	require.True(t, ok)

	same, err := s.Update(rec.ID, Patch{Reminder: &models.Reminder{Enabled: true, FireAt: fireAt}})
	require.NoError(t, err)
	assert.True(t, same.Reminder.Notified, "identical reminder stays fired")

	moved, err := s.SetReminder(rec.ID, fireAt.Add(time.Hour))
	require.NoError(t, err)
	assert.False(t, moved.Reminder.Notified)
	assert.Equal(t, models.ReminderPending, moved.ReminderState())
}

func TestClaimReminderAtMostOnce(t *testing.T) {
	s, _ := newTestStore(t)
	fireAt := time.Now().Truncate(time.Millisecond)
	rec := models.NewRecord(models.KindNote, "x", "")
	rec.Arm(fireAt)
	rec = s.Add(rec)

	var wg sync.WaitGroup
	var mu sync.Mutex
	claims := 0
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, ok := s.ClaimReminder(rec.ID, fireAt); ok {
				mu.Lock()
				claims++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, claims)
	assert.Empty(t, s.Pending())
}

func TestClaimReminderRejectsStaleFireAt(t *testing.T) {
	s, _ := newTestStore(t)
	fireAt := time.UnixMilli(1_700_000_000_000)
	rec := models.NewRecord(models.KindNote, "x", "")
	rec.Arm(fireAt)
	rec = s.Add(rec)

	_, err := s.SetReminder(rec.ID, fireAt.Add(time.Hour))
	require.NoError(t, err)

	_, ok := s.ClaimReminder(rec.ID, fireAt)
	assert.False(t, ok)
}

func TestToggleItemKeepsOrder(t *testing.T) {
	s, _ := newTestStore(t)
	rec := models.NewRecord(models.KindActionable, "x", "")
	rec.Items = []models.Item{{Text: "one"}, {Text: "two"}, {Text: "three"}}
	rec = s.Add(rec)

	got, err := s.ToggleItem(rec.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, []models.Item{{Text: "one"}, {Text: "two", Done: true}, {Text: "three"}}, got.Items)

	_, err = s.ToggleItem(rec.ID, 3)
	assert.ErrorIs(t, err, ErrItemOutOfRange)
}

func TestToggleItemOnNote(t *testing.T) {
	s, _ := newTestStore(t)
	rec := s.Add(models.NewRecord(models.KindNote, "x", ""))

	_, err := s.ToggleItem(rec.ID, 0)
	assert.ErrorIs(t, err, ErrNotActionable)
}

func TestListFilters(t *testing.T) {
	s, _ := newTestStore(t)
	note := models.NewRecord(models.KindNote, "note", "")
	note.Tags = []string{"home"}
	todo := models.NewRecord(models.KindActionable, "todo", "")
	todo.Important = true
	s.Add(note)
	s.Add(todo)

	assert.Len(t, s.List(Filter{}), 2)
	assert.Len(t, s.List(Filter{Kind: models.KindActionable}), 1)
	assert.Len(t, s.List(Filter{Important: true}), 1)
	assert.Len(t, s.List(Filter{Tag: "HOME"}), 1)
	assert.Len(t, s.List(Filter{Limit: 1}), 1)
}

func TestTagsCounts(t *testing.T) {
	s, _ := newTestStore(t)
	a := models.NewRecord(models.KindNote, "a", "")
	a.Tags = []string{"work", "ideas"}
	b := models.NewRecord(models.KindNote, "b", "")
	b.Tags = []string{"work"}
	s.Add(a)
	s.Add(b)

	tags := s.Tags()
	require.Len(t, tags, 2)
	assert.Equal(t, "work", tags[0].Name)
	assert.Equal(t, 2, tags[0].Count)
	assert.Equal(t, 1, tags[1].Count)
}

func TestStoresSharingKVKeepEachOthersWrites(t *testing.T) {
	kv := NewMemoryKV()
	watcher := New(kv, log.New(io.Discard))
	require.NoError(t, watcher.Load())
	cli := New(kv, log.New(io.Discard))
	require.NoError(t, cli.Load())

	due := time.Now().Add(-time.Minute)
	rec := models.NewRecord(models.KindNote, "due", "")
	rec.Arm(due)
	rec = watcher.Add(rec)

	added := cli.Add(models.NewRecord(models.KindNote, "added by sam add", ""))
	remind := models.NewRecord(models.KindNote, "remind later", "")
	remind.Arm(due)
	remind = cli.Add(remind)

	pendingIDs := []string{}
	for _, r := range watcher.Pending() {
		pendingIDs = append(pendingIDs, r.ID)
	}
	assert.ElementsMatch(t, []string{rec.ID, remind.ID}, pendingIDs)

	_, ok := watcher.ClaimReminder(rec.ID, due)
	require.True(t, ok)

	fresh := New(kv, log.New(io.Discard))
	require.NoError(t, fresh.Load())
	assert.Equal(t, 3, fresh.Len())
	_, err := fresh.Get(added.ID)
	require.NoError(t, err)
	claimed, err := fresh.Get(rec.ID)
	require.NoError(t, err)
	assert.True(t, claimed.Reminder.Notified)

	// the claim is visible to the other handle, so it cannot fire twice
	_, ok = cli.ClaimReminder(rec.ID, due)
	assert.False(t, ok)
}

func TestFailedSaveIsRetriedWithoutLosingRecords(t *testing.T) {
	kv := &failingKV{MemoryKV: NewMemoryKV(), failWrites: true}
	s := New(kv, log.New(io.Discard))
	require.NoError(t, s.Load())

	first := s.Add(models.NewRecord(models.KindNote, "first", ""))
	kv.failWrites = false
	second := s.Add(models.NewRecord(models.KindNote, "second", ""))

	fresh := New(kv, log.New(io.Discard))
	require.NoError(t, fresh.Load())
	assert.Equal(t, 2, fresh.Len())
	_, err := fresh.Get(first.ID)
	require.NoError(t, err)
	_, err = fresh.Get(second.ID)
	require.NoError(t, err)
}
