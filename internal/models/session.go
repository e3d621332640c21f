package models

import "time"

// SessionMetadata is captured from the request that opened a session
type SessionMetadata struct {
	IP        string `json:"ip"`
	UserAgent string `json:"userAgent"`
}

// Session is an in-memory login session
type Session struct {
	ID                string    `json:"id"`
	Username          string    `json:"username"`
	Created           time.Time `json:"created"`
	LastActivity      time.Time `json:"lastActivity"`
	IP                string    `json:"ip"`
	UserAgent         string    `json:"userAgent"`
	TwoFactorPending  bool      `json:"twoFactorPending"`
	TwoFactorVerified bool      `json:"twoFactorVerified"`
}

// IsExpired checks whether the session has been idle longer than idle
func (s *Session) IsExpired(now time.Time, idle time.Duration) bool {
	return now.Sub(s.LastActivity) > idle
}
