// ABOUTME: Terminal UI formatting for sam output.
// ABOUTME: Uses glamour for markdown and fatih/color for styling.

package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/fatih/color"
	"github.com/harper/sam/internal/models"
)

var (
	faint  = color.New(color.Faint).SprintFunc()
	bold   = color.New(color.Bold).SprintFunc()
	cyan   = color.New(color.FgCyan).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
)

const timeLayout = "2006-01-02 15:04"

// ShortID is the 6-character prefix accepted by every id argument.
func ShortID(id string) string {
	if len(id) < 6 {
		return id
	}
	return id[:6]
}

func kindMarker(rec *models.Record) string {
	if rec.IsActionable() {
		return "☐"
	}
	return "•"
}

func FormatRecordListItem(rec *models.Record) string {
	var sb strings.Builder

	star := " "
	if rec.Important {
		star = yellow("★")
	}
	sb.WriteString(fmt.Sprintf("  %s %s %s  %s\n", faint(ShortID(rec.ID)), star, kindMarker(rec), bold(rec.Title)))

	if rec.IsActionable() && len(rec.Items) > 0 {
		done := 0
		for _, it := range rec.Items {
			if it.Done {
				done++
			}
		}
		sb.WriteString(fmt.Sprintf("           %s %d/%d\n", faint("Done:"), done, len(rec.Items)))
	}

	if len(rec.Tags) > 0 {
		sb.WriteString(fmt.Sprintf("           %s %s\n", faint("Tags:"), cyan(strings.Join(rec.Tags, ", "))))
	}

	if line := FormatReminder(rec.Reminder); line != "" {
		sb.WriteString(fmt.Sprintf("           %s %s\n", faint("Reminder:"), line))
	}

	sb.WriteString(fmt.Sprintf("           %s %s\n", faint("Created:"), faint(rec.CreatedAt.Format(timeLayout))))
	return sb.String()
}

// FormatReminder describes a reminder's state, or returns "" when there is none.
func FormatReminder(r *models.Reminder) string {
	if r == nil || !r.Enabled {
		return ""
	}
	when := r.FireAt.Local().Format(timeLayout)
	if r.Notified {
		return faint(when + " (fired)")
	}
	return yellow(when)
}

func FormatRecordHeader(rec *models.Record) string {
	var sb strings.Builder

	title := bold(rec.Title)
	if rec.Important {
		title = yellow("★ ") + title
	}
	sb.WriteString(title + "\n")
	sb.WriteString(fmt.Sprintf("%s %s\n", faint("ID:"), faint(rec.ID)))
	sb.WriteString(fmt.Sprintf("%s %s\n", faint("Type:"), faint(string(rec.Kind))))
	sb.WriteString(fmt.Sprintf("%s %s\n", faint("Created:"), faint(rec.CreatedAt.Format(timeLayout))))

	if len(rec.Tags) > 0 {
		sb.WriteString(fmt.Sprintf("%s %s\n", faint("Tags:"), cyan(strings.Join(rec.Tags, ", "))))
	}
	if line := FormatReminder(rec.Reminder); line != "" {
		sb.WriteString(fmt.Sprintf("%s %s\n", faint("Reminder:"), line))
	}
	if len(rec.Attachments) > 0 {
		sb.WriteString(fmt.Sprintf("%s %d image(s)\n", faint("Images:"), len(rec.Attachments)))
	}
	if rec.AIError != "" {
		sb.WriteString(fmt.Sprintf("%s %s\n", red("Offline:"), faint(rec.AIError)))
	}

	sb.WriteString(Separator())
	return sb.String()
}

// RecordMarkdown renders a record's content as markdown.
func RecordMarkdown(rec *models.Record) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("# %s\n\n", rec.Title))
	if rec.Summary != "" {
		sb.WriteString(fmt.Sprintf("> %s\n\n", rec.Summary))
	}
	if rec.Body != "" {
		sb.WriteString(rec.Body + "\n")
	}
	if len(rec.Items) > 0 {
		sb.WriteString("\n")
		for _, it := range rec.Items {
			box := " "
			if it.Done {
				box = "x"
			}
			sb.WriteString(fmt.Sprintf("- [%s] %s\n", box, it.Text))
		}
	}
	return sb.String()
}

func FormatMarkdown(content string) (string, error) {
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(80),
	)
	if err != nil {
		// Fallback to raw content if renderer fails
		return content, nil //nolint:nilerr // Intentional fallback
	}

	out, err := renderer.Render(content)
	if err != nil {
		return content, nil //nolint:nilerr // Intentional fallback
	}
	return out, nil
}

func FormatItems(items []models.Item) string {
	var sb strings.Builder
	for i, it := range items {
		box := "[ ]"
		text := it.Text
		if it.Done {
			box = "[x]"
			text = faint(text)
		}
		sb.WriteString(fmt.Sprintf("  %d. %s %s\n", i, box, text))
	}
	return sb.String()
}

func FormatTagList(tags []*models.Tag) string {
	var sb strings.Builder
	for _, t := range tags {
		sb.WriteString(fmt.Sprintf("  %s %s\n",
			cyan(t.Name),
			faint(fmt.Sprintf("(%d)", t.Count))))
	}
	return sb.String()
}

func FormatHistoryItem(item *models.HistoryItem) string {
	marker := yellow("●")
	title := bold(item.Record.Title)
	if item.Read {
		marker = faint("○")
		title = item.Record.Title
	}
	return fmt.Sprintf("  %s %s  %s  %s\n",
		marker,
		faint(ShortID(item.ID)),
		title,
		faint(item.FiredAt.Local().Format(timeLayout)))
}

// FormatBanner is the one-line in-terminal banner for a fired reminder.
func FormatBanner(b *models.Banner) string {
	body := b.Record.Summary
	if body == "" {
		body = b.Record.Body
	}
	return fmt.Sprintf("%s %s %s\n", yellow("⏰"), bold(b.Record.Title), faint(body))
}

func FormatUnreadCount(n int) string {
	if n == 0 {
		return faint("No unread notifications")
	}
	return yellow(fmt.Sprintf("%d unread", n))
}

// FormatRelative renders t relative to now ("in 2h0m0s", "5m0s ago").
func FormatRelative(t, now time.Time) string {
	d := t.Sub(now).Round(time.Second)
	if d >= 0 {
		return "in " + d.String()
	}
	return (-d).String() + " ago"
}

func Separator() string {
	return faint(strings.Repeat("─", 50)) + "\n"
}

func Success(msg string) string {
	return color.New(color.FgGreen).Sprint("✓ ") + msg
}

func Error(msg string) string {
	return color.New(color.FgRed).Sprint("✗ ") + msg
}

func Warning(msg string) string {
	return color.New(color.FgYellow).Sprint("! ") + msg
}

func FormatShowMorePrompt(count int) string {
	return faint(fmt.Sprintf("\nShow %d more records? (y/n) ", count))
}
