package models

import "time"

// Notification is an in-app message for the admin UI
type Notification struct {
	ID        string         `json:"id"`
	Type      string         `json:"type"`
	Title     string         `json:"title"`
	Message   string         `json:"message"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	Read      bool           `json:"read"`
	Timestamp time.Time      `json:"timestamp"`
}
