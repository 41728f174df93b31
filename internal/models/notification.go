// ABOUTME: Notification models produced when a reminder fires.
// ABOUTME: HistoryItem is persisted; Banner is transient and in-memory only.

package models

import "time"

type HistoryItem struct {
	ID      string    `json:"id"`
	Record  *Record   `json:"note"`
	FiredAt time.Time `json:"timestamp"`
	Read    bool      `json:"read"`
}

type Banner struct {
	ID      string    `json:"id"`
	Record  *Record   `json:"note"`
	ShownAt time.Time `json:"timestamp"`
}
