// ABOUTME: Strict schema for the service's structuring and search responses.
// ABOUTME: Decoding rejects unknown fields; validation enforces kinds and reminder times.

package inference

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/harper/sam/internal/models"
)

var validate = validator.New()

type itemPayload struct {
	Text string `json:"text" validate:"required"`
	Done bool   `json:"done"`
}

// epochMillis is a Unix time in milliseconds. Any JSON number form decodes,
// so 1741993200000.0 and 1.7419932e12 read the same as 1741993200000.
type epochMillis int64

func (m *epochMillis) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		return fmt.Errorf("reminder time must be a number, got %s", b)
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	if i, err := n.Int64(); err == nil {
		*m = epochMillis(i)
		return nil
	}
	f, err := n.Float64()
	if err != nil {
		return fmt.Errorf("reminder time %s: %w", n, err)
	}
	if f > math.MaxInt64 || f < math.MinInt64 {
		return fmt.Errorf("reminder time %s out of range", n)
	}
	*m = epochMillis(math.Round(f))
	return nil
}

type reminderPayload struct {
	Enabled bool        `json:"enabled"`
	Time    epochMillis `json:"time" validate:"required_if=Enabled true,gte=0"`
	// Description is the human phrasing ("tomorrow at 3pm"); informational only.
	Description string `json:"description,omitempty"`
}

type structurePayload struct {
	Type        string           `json:"type" validate:"required,oneof=note todo"`
	Title       string           `json:"title" validate:"required"`
	Summary     string           `json:"summary"`
	Body        string           `json:"body"`
	Items       []itemPayload    `json:"items" validate:"dive"`
	Tags        []string         `json:"tags"`
	IsImportant bool             `json:"isImportant"`
	Reminder    *reminderPayload `json:"reminder"`
}

type searchPayload struct {
	Matches []string `json:"matches"`
}

// decodeStrict unmarshals raw into v, refusing unknown fields and trailing data.
func decodeStrict(raw string, v any) error {
	dec := json.NewDecoder(bytes.NewReader([]byte(raw)))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if dec.More() {
		return fmt.Errorf("trailing data after JSON object")
	}
	return nil
}

func parseStructure(raw string) (*structurePayload, error) {
	var p structurePayload
	if err := decodeStrict(raw, &p); err != nil {
		return nil, &PermanentError{Err: err}
	}
	if err := validate.Struct(&p); err != nil {
		return nil, &PermanentError{Err: err}
	}
	return &p, nil
}

func parseSearch(raw string) ([]string, error) {
	var p searchPayload
	if err := decodeStrict(raw, &p); err != nil {
		return nil, &PermanentError{Err: err}
	}
	return p.Matches, nil
}

// toRecord composes a record from a validated payload, adding the id and
// creation time the service does not supply.
func (p *structurePayload) toRecord(now time.Time) *models.Record {
	rec := &models.Record{
		ID:        uuid.NewString(),
		CreatedAt: time.UnixMilli(now.UnixMilli()),
		Kind:      models.Kind(p.Type),
		Title:     p.Title,
		Summary:   p.Summary,
		Body:      p.Body,
		Tags:      append([]string{}, p.Tags...),
		Important: p.IsImportant,
	}
	for _, it := range p.Items {
		rec.Items = append(rec.Items, models.Item{Text: it.Text, Done: it.Done})
	}
	if p.Reminder != nil && p.Reminder.Enabled {
		rec.Arm(time.UnixMilli(int64(p.Reminder.Time)))
	}
	rec.Normalize()
	return rec
}
