// ABOUTME: Tests for Attachment model.
// ABOUTME: Validates creation and data URL round trips.

package models

import (
	"errors"
	"testing"
)

func TestNewAttachment(t *testing.T) {
	data := []byte("fake png content")

	att := NewAttachment("image/png", data)

	if att.ID == "" {
		t.Error("expected ID to be generated")
	}
	if att.MimeType != "image/png" {
		t.Errorf("expected mimeType %q, got %q", "image/png", att.MimeType)
	}
	if string(att.Data) != string(data) {
		t.Error("expected data to match")
	}
	if att.CreatedAt.IsZero() {
		t.Error("expected CreatedAt to be set")
	}
}

func TestDataURLRoundTrip(t *testing.T) {
	att := NewAttachment("image/jpeg", []byte{0xff, 0xd8, 0xff})

	got, err := ParseDataURL(att.DataURL())
	if err != nil {
		t.Fatalf("failed to parse data url: %v", err)
	}
	if got.MimeType != "image/jpeg" {
		t.Errorf("expected image/jpeg, got %q", got.MimeType)
	}
	if string(got.Data) != string(att.Data) {
		t.Error("expected data to survive round trip")
	}
}

func TestParseDataURLRejectsPlainURLs(t *testing.T) {
	_, err := ParseDataURL("https://example.com/cat.png")
	if !errors.Is(err, ErrInvalidDataURL) {
		t.Errorf("expected ErrInvalidDataURL, got %v", err)
	}
}
