// ABOUTME: Persisted notification history: newest first, capped, with read state.
// ABOUTME: Stored as one JSON document under the notification-history key, re-read before each use.

package notify

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/harper/sam/internal/models"
	"github.com/harper/sam/internal/store"
)

const (
	HistoryKey        = "notification-history"
	DefaultHistoryCap = 50
)

// HistoryData is the persisted and wire form of a history item.
type HistoryData struct {
	ID        string            `json:"id"`
	Note      *store.RecordData `json:"note"`
	Timestamp int64             `json:"timestamp"`
	Read      bool              `json:"read"`
}

// History re-reads the persisted list before each operation, so firings
// recorded by another process sharing the KV are not overwritten.
type History struct {
	mu     sync.Mutex
	kv     store.KV
	cap    int
	items  []*models.HistoryItem
	synced []byte
	// unsaved holds off refreshes until a failed save succeeds.
	unsaved bool
	log     *log.Logger
}

func NewHistory(kv store.KV, capacity int, logger *log.Logger) *History {
	if capacity <= 0 {
		capacity = DefaultHistoryCap
	}
	if logger == nil {
		logger = log.Default()
	}
	return &History{kv: kv, cap: capacity, log: logger}
}

// Load reads the persisted history. A missing key is an empty history.
func (h *History) Load() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.items, h.synced, h.unsaved = nil, nil, false
	raw, err := h.readRawLocked()
	if err != nil {
		return err
	}
	items, err := h.decode(raw)
	if err != nil {
		return err
	}
	h.items, h.synced = items, raw
	return nil
}

func (h *History) readRawLocked() ([]byte, error) {
	raw, err := h.kv.Get([]byte(HistoryKey))
	if errors.Is(err, store.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, &store.StorageError{Op: "load history", Err: err}
	}
	return raw, nil
}

func (h *History) decode(raw []byte) ([]*models.HistoryItem, error) {
	if raw == nil {
		return nil, nil
	}
	var data []HistoryData
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, &store.StorageError{Op: "load history", Err: fmt.Errorf("unmarshal: %w", err)}
	}
	var items []*models.HistoryItem
	for _, d := range data {
		if d.Note == nil {
			continue
		}
		items = append(items, &models.HistoryItem{
			ID:      d.ID,
			Record:  d.Note.ToModel(),
			FiredAt: time.UnixMilli(d.Timestamp),
			Read:    d.Read,
		})
	}
	if len(items) > h.cap {
		items = items[:h.cap]
	}
	return items, nil
}

func (h *History) refreshLocked() {
	if h.unsaved {
		return
	}
	raw, err := h.readRawLocked()
	if err == nil && bytes.Equal(raw, h.synced) {
		return
	}
	var items []*models.HistoryItem
	if err == nil {
		items, err = h.decode(raw)
	}
	if err != nil {
		h.log.Warn("failed to refresh notification history, keeping in-memory state", "err", err)
		return
	}
	h.items, h.synced = items, raw
}

func (h *History) saveLocked() {
	data := make([]*HistoryData, len(h.items))
	for i, it := range h.items {
		data[i] = ToHistoryData(it)
	}
	encoded, err := json.Marshal(data)
	if err != nil {
		h.unsaved = true
		h.log.Error("failed to encode notification history", "err", err)
		return
	}
	if err := h.kv.Set([]byte(HistoryKey), encoded); err != nil {
		h.unsaved = true
		h.log.Error("failed to persist notification history", "err", &store.StorageError{Op: "save history", Err: err})
		return
	}
	h.synced, h.unsaved = encoded, false
}

// Append records a firing at the front and evicts the oldest beyond the cap.
func (h *History) Append(rec *models.Record, firedAt time.Time) *models.HistoryItem {
	item := &models.HistoryItem{
		ID:      uuid.NewString(),
		Record:  rec.Clone(),
		FiredAt: time.UnixMilli(firedAt.UnixMilli()),
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.refreshLocked()
	h.items = append([]*models.HistoryItem{item}, h.items...)
	if len(h.items) > h.cap {
		h.items = h.items[:h.cap]
	}
	h.saveLocked()
	return cloneItem(item)
}

// Items returns the history, newest first.
func (h *History) Items() []*models.HistoryItem {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.refreshLocked()
	out := make([]*models.HistoryItem, len(h.items))
	for i, it := range h.items {
		out[i] = cloneItem(it)
	}
	return out
}

func (h *History) MarkRead(id string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.refreshLocked()
	for _, it := range h.items {
		if it.ID == id {
			it.Read = true
			h.saveLocked()
			return nil
		}
	}
	return ErrHistoryItemNotFound
}

func (h *History) MarkAllRead() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.refreshLocked()
	for _, it := range h.items {
		it.Read = true
	}
	h.saveLocked()
}

// Clear wipes the history and its persisted copy.
func (h *History) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.items, h.synced, h.unsaved = nil, nil, false
	if err := h.kv.Delete([]byte(HistoryKey)); err != nil && !errors.Is(err, store.ErrKeyNotFound) {
		h.unsaved = true
		h.log.Error("failed to delete notification history", "err", &store.StorageError{Op: "clear history", Err: err})
	}
}

func (h *History) UnreadCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.refreshLocked()
	n := 0
	for _, it := range h.items {
		if !it.Read {
			n++
		}
	}
	return n
}

func ToHistoryData(it *models.HistoryItem) *HistoryData {
	return &HistoryData{
		ID:        it.ID,
		Note:      store.FromModel(it.Record),
		Timestamp: it.FiredAt.UnixMilli(),
		Read:      it.Read,
	}
}

func cloneItem(it *models.HistoryItem) *models.HistoryItem {
	c := *it
	c.Record = it.Record.Clone()
	return &c
}
