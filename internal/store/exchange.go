// ABOUTME: Export and import of the full record set.
// ABOUTME: Imports always re-key records so they never collide with existing ids.

package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/harper/sam/internal/models"
)

const ExportVersion = "1.0"

var ErrInvalidDocument = errors.New("invalid export document")

type Document struct {
	Notes      []*RecordData `json:"notes"`
	ExportedAt int64         `json:"exportedAt"`
	Version    string        `json:"version"`
}

// Export snapshots every record.
func (s *Store) Export() *Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refreshLocked()

	doc := &Document{
		Notes:      make([]*RecordData, 0, len(s.records)),
		ExportedAt: time.Now().UnixMilli(),
		Version:    ExportVersion,
	}
	for _, r := range s.records {
		doc.Notes = append(doc.Notes, FromModel(r))
	}
	return doc
}

// Import adds every record of doc under a freshly generated id, ahead of the
// existing records and in document order.
func (s *Store) Import(doc *Document) ([]*models.Record, error) {
	if doc == nil || doc.Notes == nil {
		return nil, ErrInvalidDocument
	}

	imported := make([]*models.Record, 0, len(doc.Notes))
	for _, d := range doc.Notes {
		if d == nil {
			continue
		}
		rec := d.ToModel()
		rec.ID = uuid.NewString()
		rec.Normalize()
		imported = append(imported, rec)
	}

	s.mu.Lock()
	s.refreshLocked()
	s.records = append(imported, s.records...)
	s.saveLocked()
	s.mu.Unlock()

	out := make([]*models.Record, len(imported))
	for i, r := range imported {
		out[i] = r.Clone()
	}
	return out, nil
}

func WriteDocument(w io.Writer, doc *Document) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

func ReadDocument(r io.Reader) (*Document, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode export: %w", err)
	}
	if doc.Notes == nil {
		return nil, ErrInvalidDocument
	}
	return &doc, nil
}
