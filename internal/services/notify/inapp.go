package notify

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tillerstead/admin/internal/models"
)

// Notification types shown by the admin UI
const (
	TypeSuccess = "success"
	TypeWarning = "warning"
	TypeError   = "error"
	TypeInfo    = "info"
)

// DefaultMaxNotifications bounds the in-app feed
const DefaultMaxNotifications = 100

// InAppNotifier keeps the most recent notifications, newest first
type InAppNotifier struct {
	max int
	now func() time.Time

	mu    sync.Mutex
	items []models.Notification
}

// NewInAppNotifier creates a feed holding at most max items
func NewInAppNotifier(max int) *InAppNotifier {
	if max <= 0 {
		max = DefaultMaxNotifications
	}
	return &InAppNotifier{max: max, now: time.Now}
}

// Add prepends a notification and drops the oldest beyond the limit
func (n *InAppNotifier) Add(typ, title, message string, metadata map[string]any) models.Notification {
	item := models.Notification{
		ID:        uuid.NewString(),
		Type:      typ,
		Title:     title,
		Message:   message,
		Metadata:  metadata,
		Timestamp: n.now().UTC(),
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	n.items = append([]models.Notification{item}, n.items...)
	if len(n.items) > n.max {
		n.items = n.items[:n.max]
	}
	return item
}

// GetAll returns a copy of the feed, optionally only unread items
func (n *InAppNotifier) GetAll(unreadOnly bool) []models.Notification {
	n.mu.Lock()
	defer n.mu.Unlock()

	out := make([]models.Notification, 0, len(n.items))
	for _, it := range n.items {
		if unreadOnly && it.Read {
			continue
		}
		out = append(out, it)
	}
	return out
}

// UnreadCount returns how many items are unread
func (n *InAppNotifier) UnreadCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()

	c := 0
	for _, it := range n.items {
		if !it.Read {
			c++
		}
	}
	return c
}

// MarkAsRead flags one item; false when id is unknown
func (n *InAppNotifier) MarkAsRead(id string) bool {
	n.mu.Lock()
	defer n.mu.Unlock()

	for i := range n.items {
		if n.items[i].ID == id {
			n.items[i].Read = true
			return true
		}
	}
	return false
}

// MarkAllAsRead flags every item and returns how many changed
func (n *InAppNotifier) MarkAllAsRead() int {
	n.mu.Lock()
	defer n.mu.Unlock()

	changed := 0
	for i := range n.items {
		if !n.items[i].Read {
			n.items[i].Read = true
			changed++
		}
	}
	return changed
}

// Delete removes one item; false when id is unknown
func (n *InAppNotifier) Delete(id string) bool {
	n.mu.Lock()
	defer n.mu.Unlock()

	for i := range n.items {
		if n.items[i].ID == id {
			n.items = append(n.items[:i], n.items[i+1:]...)
			return true
		}
	}
	return false
}

// Clear empties the feed
func (n *InAppNotifier) Clear() {
	n.mu.Lock()
	n.items = nil
	n.mu.Unlock()
}

// NotifyHighSeverityEvent surfaces a high or critical audit entry in the feed
func (n *InAppNotifier) NotifyHighSeverityEvent(_ context.Context, entry models.AuditEntry) {
	typ := TypeWarning
	if entry.Severity == models.SeverityCritical {
		typ = TypeError
	}
	n.Add(typ, "Security event: "+entry.Event, "User "+entry.User+" from "+entry.IP, map[string]any{
		"auditId":  entry.ID,
		"severity": string(entry.Severity),
	})
}

// HighSeverityNotifier receives high and critical audit entries
type HighSeverityNotifier interface {
	NotifyHighSeverityEvent(ctx context.Context, entry models.AuditEntry)
}

// Fanout forwards each event to every notifier in order
type Fanout []HighSeverityNotifier

// NotifyHighSeverityEvent implements HighSeverityNotifier
func (f Fanout) NotifyHighSeverityEvent(ctx context.Context, entry models.AuditEntry) {
	for _, n := range f {
		n.NotifyHighSeverityEvent(ctx, entry)
	}
}
