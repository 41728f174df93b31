// ABOUTME: Tag normalisation for record labels.
// ABOUTME: Lowercases, trims, and de-duplicates while keeping order.

package models

import "strings"

type Tag struct {
	Name  string
	Count int
}

func NewTag(name string) *Tag {
	return &Tag{
		Name: strings.ToLower(strings.TrimSpace(name)),
	}
}

// NormalizeTags returns the normalised, de-duplicated tags in first-seen order.
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]bool, len(tags))
	for _, t := range tags {
		name := NewTag(t).Name
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, name)
	}
	return out
}
