// ABOUTME: Attachment model for images attached to records.
// ABOUTME: Converts between raw blobs and base64 data URLs.

package models

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

var ErrInvalidDataURL = errors.New("invalid data url")

type Attachment struct {
	ID        string    `json:"id"`
	MimeType  string    `json:"mime_type"`
	Data      []byte    `json:"data"`
	CreatedAt time.Time `json:"created_at"`
}

func NewAttachment(mimeType string, data []byte) *Attachment {
	return &Attachment{
		ID:        uuid.NewString(),
		MimeType:  mimeType,
		Data:      data,
		CreatedAt: time.Now(),
	}
}

// DataURL encodes the attachment as data:<mime>;base64,<payload>.
func (a *Attachment) DataURL() string {
	return fmt.Sprintf("data:%s;base64,%s", a.MimeType, base64.StdEncoding.EncodeToString(a.Data))
}

// ParseDataURL decodes a base64 data URL into a new attachment.
func ParseDataURL(s string) (*Attachment, error) {
	rest, ok := strings.CutPrefix(s, "data:")
	if !ok {
		return nil, ErrInvalidDataURL
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return nil, ErrInvalidDataURL
	}
	mimeType, ok := strings.CutSuffix(meta, ";base64")
	if !ok {
		return nil, fmt.Errorf("%w: only base64 payloads are supported", ErrInvalidDataURL)
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("decode attachment: %w", err)
	}
	return NewAttachment(mimeType, data), nil
}
