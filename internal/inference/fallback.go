package inference

import (
	"errors"
	"regexp"
	"time"

	"github.com/google/uuid"
	"github.com/harper/sam/internal/models"
)

const (
	TitleActionable = "New Task"
	TitleNote       = "Quick Note"

	TagOffline = "#offline"
	TagDemo    = "#demo"

	summaryPrefix = 50
)

var actionPattern = regexp.MustCompile(`(?i)buy|call|todo|remind|need to`)

// Fallback synthesizes a record locally. A nil or ErrNotConfigured cause marks
// the record as demo output; any other cause marks it offline and is kept as AIError.
func Fallback(text string, cause error, now time.Time) *models.Record {
	kind := models.KindNote
	title := TitleNote
	if actionPattern.MatchString(text) {
		kind = models.KindActionable
		title = TitleActionable
	}

	rec := &models.Record{
		ID:        uuid.NewString(),
		CreatedAt: time.UnixMilli(now.UnixMilli()),
		Kind:      kind,
		Title:     title,
		Summary:   truncate(text, summaryPrefix) + "...",
		Body:      text,
		Tags:      []string{TagDemo},
	}
	if kind == models.KindActionable {
		rec.Items = []models.Item{{Text: text}}
	}
	if cause != nil && !errors.Is(cause, ErrNotConfigured) {
		rec.Tags = []string{TagOffline}
		rec.AIError = cause.Error()
	}
	return rec
}
