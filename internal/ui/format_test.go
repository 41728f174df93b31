// ABOUTME: Tests for terminal UI formatting functions.
// ABOUTME: Validates record display and markdown rendering.

package ui

import (
	"strings"
	"testing"
	"time"

	"github.com/harper/sam/internal/models"
)

func TestFormatRecordListItem(t *testing.T) {
	rec := models.NewRecord(models.KindActionable, "Test Task", "body")
	rec.Tags = []string{"important", "work"}
	rec.Items = []models.Item{{Text: "a", Done: true}, {Text: "b"}}
	rec.Arm(time.Now().Add(time.Hour))

	output := FormatRecordListItem(rec)

	if !strings.Contains(output, rec.ID[:6]) {
		t.Error("expected output to contain ID prefix")
	}
	if !strings.Contains(output, "Test Task") {
		t.Error("expected output to contain title")
	}
	if !strings.Contains(output, "important") {
		t.Error("expected output to contain tag")
	}
	if !strings.Contains(output, "1/2") {
		t.Error("expected output to contain item progress")
	}
	if !strings.Contains(output, "Reminder:") {
		t.Error("expected output to contain reminder")
	}
}

func TestFormatReminder(t *testing.T) {
	if FormatReminder(nil) != "" {
		t.Error("nil reminder should render empty")
	}
	fired := &models.Reminder{Enabled: true, FireAt: time.Now(), Notified: true}
	if !strings.Contains(FormatReminder(fired), "fired") {
		t.Error("fired reminder should say so")
	}
}

func TestRecordMarkdown(t *testing.T) {
	rec := models.NewRecord(models.KindActionable, "Errands", "Saturday list")
	rec.Summary = "weekend"
	rec.Items = []models.Item{{Text: "bread", Done: true}, {Text: "stamps"}}

	md := RecordMarkdown(rec)

	for _, want := range []string{"# Errands", "> weekend", "Saturday list", "- [x] bread", "- [ ] stamps"} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q:\n%s", want, md)
		}
	}
}

func TestFormatMarkdown(t *testing.T) {
	content := "# Hello\n\nThis is **bold** text."

	output, err := FormatMarkdown(content)
	if err != nil {
		t.Fatalf("failed to format content: %v", err)
	}

	if output == "" {
		t.Error("expected non-empty output")
	}
}

func TestFormatTagList(t *testing.T) {
	tags := []*models.Tag{
		{Name: "work", Count: 5},
		{Name: "personal", Count: 3},
	}

	output := FormatTagList(tags)

	if !strings.Contains(output, "work") {
		t.Error("expected output to contain 'work'")
	}
	if !strings.Contains(output, "5") {
		t.Error("expected output to contain count '5'")
	}
}

func TestFormatHistoryItem(t *testing.T) {
	item := &models.HistoryItem{
		ID:      "abcdef123456",
		Record:  models.NewRecord(models.KindNote, "Dentist", ""),
		FiredAt: time.Now(),
	}

	if !strings.Contains(FormatHistoryItem(item), "Dentist") {
		t.Error("expected output to contain record title")
	}
}

func TestFormatRelative(t *testing.T) {
	now := time.Now()
	if got := FormatRelative(now.Add(2*time.Hour), now); got != "in 2h0m0s" {
		t.Errorf("got %q", got)
	}
	if got := FormatRelative(now.Add(-5*time.Minute), now); got != "5m0s ago" {
		t.Errorf("got %q", got)
	}
}

func TestShortID(t *testing.T) {
	if ShortID("abc") != "abc" || ShortID("abcdefgh") != "abcdef" {
		t.Error("ShortID should cut to 6 characters")
	}
}
