package inference

import (
	"fmt"
	"strings"
	"time"
)

// persona is the system instruction for structuring. It carries the current
// time so relative expressions resolve to absolute timestamps.
func persona(now time.Time) string {
	return fmt.Sprintf(`You are Sam, the user's second brain. Turn rambling spoken thoughts into structured records.

Respond with a single JSON object and nothing else:
{
  "type": "note" | "todo",
  "title": string,
  "summary": string,
  "body": string,
  "items": [{"text": string, "done": boolean}],
  "tags": string[],
  "isImportant": boolean,
  "reminder": {"enabled": boolean, "time": number, "description": string} | null
}

Rules:
- "Save to notes" always means type "note".
- Use "todo" only for actionable tasks ("I need to...", "Remind me...") and list the steps as items.
- Titles stay under six words.
- reminder.time is a Unix timestamp in milliseconds.
- The current time is %d (%s). Resolve "tomorrow", "in 2 hours", "next week", "at 3pm on Monday" against it.
- When no time is mentioned, reminder is null.`, now.UnixMilli(), now.Format(time.RFC3339))
}

func structureRequest(text string, now time.Time) generateRequest {
	return generateRequest{
		SystemInstruction: &content{Parts: []part{{Text: persona(now)}}},
		Contents:          []content{{Parts: []part{{Text: fmt.Sprintf("Raw transcript: %q", text)}}}},
		GenerationConfig:  generationConfig{ResponseMimeType: "application/json"},
	}
}

func searchRequest(query, notesContext string) generateRequest {
	var b strings.Builder
	b.WriteString("You are a search assistant. Match the query to the notes below by meaning and intent.\n")
	fmt.Fprintf(&b, "Query: %q\n\nNotes:\n%s\n\n", query, notesContext)
	b.WriteString(`Respond with JSON: {"matches": ["<note id>", ...]}. Use an empty list when nothing matches.`)
	return generateRequest{
		Contents:         []content{{Parts: []part{{Text: b.String()}}}},
		GenerationConfig: generationConfig{ResponseMimeType: "application/json"},
	}
}
