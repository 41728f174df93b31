// ABOUTME: Record store: the ordered, single source of truth for records.
// ABOUTME: Re-reads the persisted set before each operation and merges updates per record.

package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/harper/sam/internal/models"
)

// RecordsKey is the KV key holding the serialized record collection.
const RecordsKey = "sam-ai-notes"

var (
	ErrPrefixTooShort  = errors.New("prefix must be at least 6 characters")
	ErrAmbiguousPrefix = errors.New("prefix matches multiple records")
	ErrRecordNotFound  = errors.New("record not found")
	ErrItemOutOfRange  = errors.New("item index out of range")
	ErrNotActionable   = errors.New("record has no items")
)

// Store holds records newest first. Every operation first re-reads the
// persisted collection, so records written by another process sharing the KV
// are merged in before a mutation is applied and saved. Persistence failures
// are logged and the in-memory state stays authoritative until a save lands.
type Store struct {
	mu      sync.Mutex
	kv      KV
	log     *log.Logger
	records []*models.Record
	// synced is the encoded collection last read from or written to the KV.
	// A refresh only re-decodes when the stored bytes differ from it.
	synced []byte
	// unsaved is set while the last save failed; refreshes are skipped so
	// unpersisted changes are not replaced by older data.
	unsaved bool
}

func New(kv KV, logger *log.Logger) *Store {
	if logger == nil {
		logger = log.Default()
	}
	return &Store{kv: kv, log: logger}
}

// Load replaces the in-memory collection with the persisted one. A missing key
// is an empty store. Unreadable data leaves the store empty and is reported.
func (s *Store) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records, s.synced, s.unsaved = nil, nil, false
	raw, err := s.readRawLocked()
	if err != nil {
		return err
	}
	recs, err := decodeRecords(raw)
	if err != nil {
		return err
	}
	s.records, s.synced = recs, raw
	return nil
}

func (s *Store) readRawLocked() ([]byte, error) {
	raw, err := s.kv.Get([]byte(RecordsKey))
	if errors.Is(err, ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, &StorageError{Op: "load", Err: err}
	}
	return raw, nil
}

func decodeRecords(raw []byte) ([]*models.Record, error) {
	if raw == nil {
		return nil, nil
	}
	var data []*RecordData
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, &StorageError{Op: "load", Err: fmt.Errorf("unmarshal records: %w", err)}
	}
	recs := make([]*models.Record, 0, len(data))
	for _, d := range data {
		if d == nil {
			continue
		}
		rec := d.ToModel()
		rec.Normalize()
		recs = append(recs, rec)
	}
	return recs, nil
}

// refreshLocked picks up writes made through other handles on the same KV,
// such as a second sam process, before the caller reads or mutates.
func (s *Store) refreshLocked() {
	if s.unsaved {
		return
	}
	raw, err := s.readRawLocked()
	if err != nil {
		s.log.Warn("failed to refresh records, keeping in-memory state", "err", err)
		return
	}
	if bytes.Equal(raw, s.synced) {
		return
	}
	recs, err := decodeRecords(raw)
	if err != nil {
		s.log.Warn("failed to refresh records, keeping in-memory state", "err", err)
		return
	}
	s.records, s.synced = recs, raw
}

func (s *Store) saveLocked() {
	data := make([]*RecordData, len(s.records))
	for i, r := range s.records {
		data[i] = FromModel(r)
	}
	encoded, err := json.Marshal(data)
	if err != nil {
		s.unsaved = true
		s.log.Error("failed to encode records", "err", err)
		return
	}
	if err := s.kv.Set([]byte(RecordsKey), encoded); err != nil {
		s.unsaved = true
		s.log.Error("failed to persist records, keeping in-memory state", "err", &StorageError{Op: "save", Err: err})
		return
	}
	s.synced, s.unsaved = encoded, false
}

func (s *Store) indexLocked(id string) int {
	for i, r := range s.records {
		if r.ID == id {
			return i
		}
	}
	return -1
}

// Add inserts a record at the front of the collection.
func (s *Store) Add(rec *models.Record) *models.Record {
	rec = rec.Clone()
	rec.Normalize()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.refreshLocked()
	s.records = append([]*models.Record{rec}, s.records...)
	s.saveLocked()
	return rec.Clone()
}

func (s *Store) Get(id string) (*models.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refreshLocked()
	i := s.indexLocked(id)
	if i < 0 {
		return nil, ErrRecordNotFound
	}
	return s.records[i].Clone(), nil
}

// GetByPrefix finds a record by id prefix (minimum 6 chars).
func (s *Store) GetByPrefix(prefix string) (*models.Record, error) {
	if len(prefix) < 6 {
		return nil, ErrPrefixTooShort
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.refreshLocked()

	var matches []*models.Record
	for _, r := range s.records {
		if strings.HasPrefix(r.ID, prefix) {
			matches = append(matches, r)
		}
	}
	if len(matches) == 0 {
		return nil, ErrRecordNotFound
	}
	if len(matches) > 1 {
		return nil, fmt.Errorf("%w: %d matches", ErrAmbiguousPrefix, len(matches))
	}
	return matches[0].Clone(), nil
}

// Resolve accepts either a full id or a unique prefix.
func (s *Store) Resolve(idOrPrefix string) (*models.Record, error) {
	rec, err := s.Get(idOrPrefix)
	if err == nil {
		return rec, nil
	}
	return s.GetByPrefix(idOrPrefix)
}

// Filter selects records for List. The zero value selects everything.
type Filter struct {
	Kind      models.Kind
	Important bool
	Tag       string
	Limit     int
}

func (f Filter) matches(r *models.Record) bool {
	if f.Kind != "" && r.Kind != f.Kind {
		return false
	}
	if f.Important && !r.Important {
		return false
	}
	if f.Tag != "" {
		want := models.NewTag(f.Tag).Name
		found := false
		for _, t := range r.Tags {
			if t == want {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// List returns matching records in store order.
func (s *Store) List(f Filter) []*models.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refreshLocked()

	var out []*models.Record
	for _, r := range s.records {
		if !f.matches(r) {
			continue
		}
		out = append(out, r.Clone())
		if f.Limit > 0 && len(out) >= f.Limit {
			break
		}
	}
	return out
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refreshLocked()
	return len(s.records)
}

// Patch is a shallow field overwrite; nil fields are left untouched.
type Patch struct {
	Kind          *models.Kind
	Title         *string
	Summary       *string
	Body          *string
	Items         *[]models.Item
	Tags          *[]string
	Important     *bool
	Reminder      *models.Reminder
	ClearReminder bool
	Attachments   *[]*models.Attachment
}

// Update merges p into the record with the given id. A reminder whose time or
// enabled flag changes is redefined and therefore re-armed (notified=false).
func (s *Store) Update(id string, p Patch) (*models.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refreshLocked()

	i := s.indexLocked(id)
	if i < 0 {
		return nil, ErrRecordNotFound
	}
	rec := s.records[i].Clone()

	if p.Kind != nil {
		rec.Kind = *p.Kind
	}
	if p.Title != nil {
		rec.Title = *p.Title
	}
	if p.Summary != nil {
		rec.Summary = *p.Summary
	}
	if p.Body != nil {
		rec.Body = *p.Body
	}
	if p.Items != nil {
		rec.Items = append([]models.Item(nil), (*p.Items)...)
	}
	if p.Tags != nil {
		rec.Tags = append([]string(nil), (*p.Tags)...)
	}
	if p.Important != nil {
		rec.Important = *p.Important
	}
	if p.Attachments != nil {
		rec.Attachments = append([]*models.Attachment(nil), (*p.Attachments)...)
	}
	if p.ClearReminder {
		rec.Disarm()
	} else if p.Reminder != nil {
		rec.Reminder = mergeReminder(rec.Reminder, *p.Reminder)
	}

	rec.Normalize()
	s.records[i] = rec
	s.saveLocked()
	return rec.Clone(), nil
}

func mergeReminder(current *models.Reminder, next models.Reminder) *models.Reminder {
	if current != nil && current.Enabled == next.Enabled && current.FireAt.UnixMilli() == next.FireAt.UnixMilli() {
		next.Notified = current.Notified || next.Notified
		return &next
	}
	next.Notified = false
	return &next
}

func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refreshLocked()

	i := s.indexLocked(id)
	if i < 0 {
		return ErrRecordNotFound
	}
	s.records = append(s.records[:i], s.records[i+1:]...)
	s.saveLocked()
	return nil
}

// ToggleItem flips the done flag of one checklist item; order is unchanged.
func (s *Store) ToggleItem(id string, index int) (*models.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refreshLocked()

	i := s.indexLocked(id)
	if i < 0 {
		return nil, ErrRecordNotFound
	}
	rec := s.records[i]
	if !rec.IsActionable() {
		return nil, ErrNotActionable
	}
	if index < 0 || index >= len(rec.Items) {
		return nil, fmt.Errorf("%w: %d", ErrItemOutOfRange, index)
	}
	rec.Items[index].Done = !rec.Items[index].Done
	s.saveLocked()
	return rec.Clone(), nil
}

func (s *Store) ToggleImportant(id string) (*models.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refreshLocked()

	i := s.indexLocked(id)
	if i < 0 {
		return nil, ErrRecordNotFound
	}
	s.records[i].Important = !s.records[i].Important
	s.saveLocked()
	return s.records[i].Clone(), nil
}

// SetReminder arms (or re-arms) the record's reminder at fireAt.
func (s *Store) SetReminder(id string, fireAt time.Time) (*models.Record, error) {
	return s.Update(id, Patch{Reminder: &models.Reminder{Enabled: true, FireAt: fireAt}})
}

func (s *Store) ClearReminder(id string) (*models.Record, error) {
	return s.Update(id, Patch{ClearReminder: true})
}

// Pending returns snapshots of every record whose reminder is enabled and not yet fired.
func (s *Store) Pending() []*models.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refreshLocked()

	var out []*models.Record
	for _, r := range s.records {
		if r.ReminderState() == models.ReminderPending {
			out = append(out, r.Clone())
		}
	}
	return out
}

// ClaimReminder atomically marks the reminder of id as notified if it is still
// pending at fireAt. It reports false when the reminder was already claimed,
// redefined, disabled, or the record is gone, so a reminder is claimed at most once.
func (s *Store) ClaimReminder(id string, fireAt time.Time) (*models.Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refreshLocked()

	i := s.indexLocked(id)
	if i < 0 {
		return nil, false
	}
	rec := s.records[i]
	// fire times persist at millisecond precision
	if rec.ReminderState() != models.ReminderPending || rec.Reminder.FireAt.UnixMilli() != fireAt.UnixMilli() {
		return nil, false
	}
	rec.Reminder.Notified = true
	s.saveLocked()
	return rec.Clone(), true
}

// Tags returns every tag in use with its record count, in first-seen order.
func (s *Store) Tags() []*models.Tag {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refreshLocked()

	var out []*models.Tag
	index := make(map[string]*models.Tag)
	for _, r := range s.records {
		for _, name := range r.Tags {
			t, ok := index[name]
			if !ok {
				t = models.NewTag(name)
				index[name] = t
				out = append(out, t)
			}
			t.Count++
		}
	}
	return out
}
