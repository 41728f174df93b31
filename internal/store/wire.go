// ABOUTME: Persisted JSON representation of records.
// ABOUTME: Millisecond timestamps and field names shared with exports.

package store

import (
	"slices"
	"time"

	"github.com/harper/sam/internal/models"
)

// RecordData is a record as it is persisted and exported.
type RecordData struct {
	ID          string        `json:"id" yaml:"id"`
	Timestamp   int64         `json:"timestamp" yaml:"timestamp"`
	Type        models.Kind   `json:"type" yaml:"type"`
	Title       string        `json:"title" yaml:"title"`
	Summary     string        `json:"summary,omitempty" yaml:"summary,omitempty"`
	Body        string        `json:"body" yaml:"-"`
	Items       []models.Item `json:"items,omitempty" yaml:"items,omitempty"`
	Tags        []string      `json:"tags" yaml:"tags"`
	IsImportant bool          `json:"isImportant" yaml:"important"`
	Reminder    *ReminderData `json:"reminder,omitempty" yaml:"reminder,omitempty"`
	Images      []string      `json:"images,omitempty" yaml:"-"`
	AIError     string        `json:"aiError,omitempty" yaml:"-"`
}

type ReminderData struct {
	Enabled  bool  `json:"enabled" yaml:"enabled"`
	Time     int64 `json:"time" yaml:"time"`
	Notified bool  `json:"notified,omitempty" yaml:"notified,omitempty"`
}

// FromModel converts a record into its persisted form.
func FromModel(r *models.Record) *RecordData {
	d := &RecordData{
		ID:          r.ID,
		Timestamp:   r.CreatedAt.UnixMilli(),
		Type:        r.Kind,
		Title:       r.Title,
		Summary:     r.Summary,
		Body:        r.Body,
		Items:       slices.Clone(r.Items),
		Tags:        slices.Clone(r.Tags),
		IsImportant: r.Important,
		AIError:     r.AIError,
	}
	if d.Tags == nil {
		d.Tags = []string{}
	}
	if r.Reminder != nil {
		d.Reminder = &ReminderData{
			Enabled:  r.Reminder.Enabled,
			Time:     r.Reminder.FireAt.UnixMilli(),
			Notified: r.Reminder.Notified,
		}
	}
	for _, a := range r.Attachments {
		d.Images = append(d.Images, a.DataURL())
	}
	return d
}

// ToModel converts persisted data back into a record. Images that are not
// base64 data URLs are dropped.
func (d *RecordData) ToModel() *models.Record {
	r := &models.Record{
		ID:        d.ID,
		CreatedAt: time.UnixMilli(d.Timestamp),
		Kind:      d.Type,
		Title:     d.Title,
		Summary:   d.Summary,
		Body:      d.Body,
		Items:     slices.Clone(d.Items),
		Tags:      slices.Clone(d.Tags),
		Important: d.IsImportant,
		AIError:   d.AIError,
	}
	if !r.Kind.Valid() {
		r.Kind = models.KindNote
	}
	if r.Tags == nil {
		r.Tags = []string{}
	}
	if d.Reminder != nil {
		r.Reminder = &models.Reminder{
			Enabled:  d.Reminder.Enabled,
			FireAt:   time.UnixMilli(d.Reminder.Time),
			Notified: d.Reminder.Notified,
		}
	}
	for _, img := range d.Images {
		att, err := models.ParseDataURL(img)
		if err != nil {
			continue
		}
		r.Attachments = append(r.Attachments, att)
	}
	return r
}
