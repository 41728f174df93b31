// ABOUTME: Record model for structured notes and actionable items.
// ABOUTME: Includes checklist items, reminder state, and image attachments.

package models

import (
	"time"

	"github.com/google/uuid"
)

type Kind string

const (
	KindNote       Kind = "note"
	KindActionable Kind = "todo"
)

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	return k == KindNote || k == KindActionable
}

type Item struct {
	Text string `json:"text"`
	Done bool   `json:"done"`
}

// ReminderState is the lifecycle position of a record's reminder.
type ReminderState int

const (
	ReminderUnset ReminderState = iota
	ReminderPending
	ReminderFired
)

func (s ReminderState) String() string {
	switch s {
	case ReminderPending:
		return "pending"
	case ReminderFired:
		return "fired"
	default:
		return "unset"
	}
}

// Reminder is an alert scheduled for a record. Notified flips to true once,
// when the scheduler fires it, and only a redefinition resets it.
type Reminder struct {
	Enabled  bool      `json:"enabled"`
	FireAt   time.Time `json:"fire_at"`
	Notified bool      `json:"notified"`
}

type Record struct {
	ID          string        `json:"id"`
	CreatedAt   time.Time     `json:"created_at"`
	Kind        Kind          `json:"kind"`
	Title       string        `json:"title"`
	Summary     string        `json:"summary,omitempty"`
	Body        string        `json:"body"`
	Items       []Item        `json:"items,omitempty"`
	Tags        []string      `json:"tags"`
	Important   bool          `json:"important"`
	Reminder    *Reminder     `json:"reminder,omitempty"`
	Attachments []*Attachment `json:"attachments,omitempty"`

	// AIError carries the inference failure that forced a local fallback.
	AIError string `json:"ai_error,omitempty"`
}

func NewRecord(kind Kind, title, body string) *Record {
	return &Record{
		ID:        uuid.NewString(),
		CreatedAt: time.UnixMilli(time.Now().UnixMilli()),
		Kind:      kind,
		Title:     title,
		Body:      body,
		Tags:      []string{},
	}
}

func (r *Record) IsActionable() bool {
	return r.Kind == KindActionable
}

// ReminderState derives the reminder lifecycle position.
func (r *Record) ReminderState() ReminderState {
	switch {
	case r.Reminder == nil || !r.Reminder.Enabled:
		return ReminderUnset
	case r.Reminder.Notified:
		return ReminderFired
	default:
		return ReminderPending
	}
}

// Arm (re)defines the reminder. A re-armed reminder is pending again.
func (r *Record) Arm(fireAt time.Time) {
	r.Reminder = &Reminder{Enabled: true, FireAt: fireAt}
}

func (r *Record) Disarm() {
	r.Reminder = nil
}

// Normalize enforces kind-dependent fields: items exist only on actionable records.
func (r *Record) Normalize() {
	if !r.IsActionable() {
		r.Items = nil
	}
	r.Tags = NormalizeTags(r.Tags)
}

// Clone returns a deep copy that shares no slices or pointers with r.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	c := *r
	if r.Items != nil {
		c.Items = append([]Item(nil), r.Items...)
	}
	if r.Tags != nil {
		c.Tags = append([]string(nil), r.Tags...)
	}
	if r.Reminder != nil {
		rem := *r.Reminder
		c.Reminder = &rem
	}
	if r.Attachments != nil {
		c.Attachments = make([]*Attachment, len(r.Attachments))
		for i, a := range r.Attachments {
			cp := *a
			cp.Data = append([]byte(nil), a.Data...)
			c.Attachments[i] = &cp
		}
	}
	return &c
}
