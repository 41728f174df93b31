package inference

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/harper/sam/internal/models"
)

// Search returns the ids of records matching query, ranked by the service.
// It never fails: without a service, or on any error, it matches substrings locally.
func (c *Client) Search(ctx context.Context, query string, records []*models.Record) []string {
	if !c.Configured() {
		return LocalMatch(query, records)
	}

	raw, err := c.generate(ctx, searchRequest(query, c.searchContext(records)))
	if errors.Is(err, ErrEmptyResponse) {
		return []string{}
	}
	if err != nil {
		c.log.Warn("search failed, matching locally", "err", err)
		return LocalMatch(query, records)
	}
	matches, err := parseSearch(raw)
	if err != nil {
		c.log.Warn("search response rejected, matching locally", "err", err)
		return LocalMatch(query, records)
	}

	known := make(map[string]bool, len(records))
	for _, r := range records {
		known[r.ID] = true
	}
	out := []string{}
	seen := make(map[string]bool, len(matches))
	for _, id := range matches {
		if known[id] && !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

// searchContext renders the bounded notes listing sent with a query.
func (c *Client) searchContext(records []*models.Record) string {
	if len(records) > c.contextLimit {
		records = records[:c.contextLimit]
	}
	lines := make([]string, 0, len(records))
	for _, r := range records {
		lines = append(lines, fmt.Sprintf("ID: %s | Title: %s | Body: %s", r.ID, r.Title, truncate(r.Body, c.bodyPrefix)))
	}
	return strings.Join(lines, "\n")
}

// LocalMatch is the case-insensitive substring search over title, body, and tags.
func LocalMatch(query string, records []*models.Record) []string {
	q := strings.ToLower(query)
	out := []string{}
	for _, r := range records {
		if matchesRecord(q, r) {
			out = append(out, r.ID)
		}
	}
	return out
}

func matchesRecord(q string, r *models.Record) bool {
	if strings.Contains(strings.ToLower(r.Title), q) || strings.Contains(strings.ToLower(r.Body), q) {
		return true
	}
	for _, t := range r.Tags {
		if strings.Contains(strings.ToLower(t), q) {
			return true
		}
	}
	return false
}
