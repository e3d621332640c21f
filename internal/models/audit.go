package models

import "time"

// Severity ranks audit events
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// IsHigh reports high or critical severity
func (s Severity) IsHigh() bool {
	return s == SeverityHigh || s == SeverityCritical
}

// AuditEntry is one line of the audit log
type AuditEntry struct {
	ID        string         `json:"id"`
	Timestamp time.Time      `json:"timestamp"`
	Event     string         `json:"event"`
	User      string         `json:"user"`
	IP        string         `json:"ip"`
	Details   map[string]any `json:"details,omitempty"`
	Severity  Severity       `json:"severity"`
}

// AuditStats counts security-relevant events in a period
type AuditStats struct {
	Since        time.Time `json:"since"`
	Total        int       `json:"total"`
	Logins       int       `json:"logins"`
	FailedLogins int       `json:"failedLogins"`
	Lockouts     int       `json:"lockouts"`
	HighSeverity int       `json:"highSeverity"`
}
