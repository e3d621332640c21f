// Package audit records security events as JSON lines and answers filtered reads
package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tillerstead/admin/internal/models"
)

// maxScan bounds how many trailing lines a read inspects
const maxScan = 1000

// DefaultLimit is used when a read asks for a non-positive limit
const DefaultLimit = 100

var severities = map[string]models.Severity{
	"login_success":       models.SeverityLow,
	"login_failed":        models.SeverityMedium,
	"login_locked":        models.SeverityHigh,
	"logout":              models.SeverityLow,
	"file_read":           models.SeverityLow,
	"file_write":          models.SeverityMedium,
	"file_delete":         models.SeverityHigh,
	"config_change":       models.SeverityHigh,
	"user_created":        models.SeverityMedium,
	"user_deleted":        models.SeverityHigh,
	"permission_denied":   models.SeverityMedium,
	"suspicious_activity": models.SeverityHigh,
	"data_breach_attempt": models.SeverityCritical,
}

// SeverityOf returns the fixed severity for an event, medium when unknown
func SeverityOf(event string) models.Severity {
	if s, ok := severities[event]; ok {
		return s
	}
	return models.SeverityMedium
}

// Notifier receives high and critical events
type Notifier interface {
	NotifyHighSeverityEvent(ctx context.Context, entry models.AuditEntry)
}

// Logger appends audit entries to a single file. Writes are best-effort:
// failures go to the zap logger and never reach the caller.
type Logger struct {
	path     string
	log      *zap.Logger
	notifier Notifier
	now      func() time.Time
	mu       sync.Mutex
}

// New creates an audit logger writing to path
func New(path string, log *zap.Logger) *Logger {
	return &Logger{
		path: path,
		log:  log,
		now:  time.Now,
	}
}

// SetNotifier forwards high-severity events to n
func (l *Logger) SetNotifier(n Notifier) {
	l.mu.Lock()
	l.notifier = n
	l.mu.Unlock()
}

// Log records an event and returns the entry that was written
func (l *Logger) Log(ctx context.Context, event, user string, details map[string]any, ip string) models.AuditEntry {
	if user == "" {
		user = "anonymous"
	}

	entry := models.AuditEntry{
		ID:        uuid.NewString(),
		Timestamp: l.now().UTC(),
		Event:     event,
		User:      user,
		IP:        ip,
		Details:   details,
		Severity:  SeverityOf(event),
	}

	l.mu.Lock()
	err := l.append(entry)
	notifier := l.notifier
	l.mu.Unlock()

	if err != nil {
		l.log.Error("failed to write audit log", zap.String("event", event), zap.Error(err))
	}

	if entry.Severity.IsHigh() {
		l.log.Warn("security event",
			zap.String("event", event),
			zap.String("user", user),
			zap.String("ip", ip),
			zap.String("severity", string(entry.Severity)),
		)
		if notifier != nil {
			go notifier.NotifyHighSeverityEvent(context.WithoutCancel(ctx), entry)
		}
	}

	return entry
}

func (l *Logger) append(entry models.AuditEntry) error {
	line, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return err
	}

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = f.Write(append(line, '\n'))
	return err
}

// RecentLogs returns up to limit entries, newest first
func (l *Logger) RecentLogs(limit int) []models.AuditEntry {
	return l.query(limit, func(models.AuditEntry) bool { return true })
}

// LogsByUser returns entries for user, newest first
func (l *Logger) LogsByUser(user string, limit int) []models.AuditEntry {
	return l.query(limit, func(e models.AuditEntry) bool { return e.User == user })
}

// LogsByEvent returns entries for event, newest first
func (l *Logger) LogsByEvent(event string, limit int) []models.AuditEntry {
	return l.query(limit, func(e models.AuditEntry) bool { return e.Event == event })
}

// HighSeverityLogs returns high and critical entries, newest first
func (l *Logger) HighSeverityLogs(limit int) []models.AuditEntry {
	return l.query(limit, func(e models.AuditEntry) bool { return e.Severity.IsHigh() })
}

// Filter serves the named views of the security page: login, file, high or all
func (l *Logger) Filter(kind string, limit int) []models.AuditEntry {
	switch kind {
	case "login":
		return l.query(limit, eventIn("login_success", "login_failed", "login_locked"))
	case "file":
		return l.query(limit, eventIn("file_write", "file_delete"))
	case "high":
		return l.HighSeverityLogs(limit)
	default:
		return l.RecentLogs(limit)
	}
}

// Stats counts security events at or after since
func (l *Logger) Stats(since time.Time) models.AuditStats {
	stats := models.AuditStats{Since: since}
	for _, e := range l.tail() {
		if e.Timestamp.Before(since) {
			continue
		}
		stats.Total++
		switch e.Event {
		case "login_success":
			stats.Logins++
		case "login_failed":
			stats.FailedLogins++
		case "login_locked":
			stats.Lockouts++
		}
		if e.Severity.IsHigh() {
			stats.HighSeverity++
		}
	}
	return stats
}

func eventIn(events ...string) func(models.AuditEntry) bool {
	set := make(map[string]bool, len(events))
	for _, e := range events {
		set[e] = true
	}
	return func(e models.AuditEntry) bool { return set[e.Event] }
}

func (l *Logger) query(limit int, keep func(models.AuditEntry) bool) []models.AuditEntry {
	if limit <= 0 {
		limit = DefaultLimit
	}

	entries := l.tail()
	out := make([]models.AuditEntry, 0, min(limit, len(entries)))
	for _, e := range entries {
		if len(out) == limit {
			break
		}
		if keep(e) {
			out = append(out, e)
		}
	}
	return out
}

// tail parses the last maxScan lines, newest first. Lines that fail to
// parse are skipped whatever their length.
func (l *Logger) tail() []models.AuditEntry {
	l.mu.Lock()
	data, err := os.ReadFile(l.path)
	l.mu.Unlock()

	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			l.log.Error("failed to read audit log", zap.Error(err))
		}
		return nil
	}

	var lines [][]byte
	for _, line := range bytes.Split(data, []byte{'\n'}) {
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		lines = append(lines, line)
	}
	if len(lines) > maxScan {
		lines = lines[len(lines)-maxScan:]
	}

	entries := make([]models.AuditEntry, 0, len(lines))
	for i := len(lines) - 1; i >= 0; i-- {
		var e models.AuditEntry
		if err := json.Unmarshal(lines[i], &e); err != nil {
			continue
		}
		entries = append(entries, e)
	}
	return entries
}
