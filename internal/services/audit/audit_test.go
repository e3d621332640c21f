package audit

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tillerstead/admin/internal/models"
)

type chanNotifier struct {
	ch chan models.AuditEntry
}

var _ Notifier = (*chanNotifier)(nil)

func (n *chanNotifier) NotifyHighSeverityEvent(_ context.Context, e models.AuditEntry) {
	n.ch <- e
}

func newTestLogger(t *testing.T) (*Logger, *time.Time) {
	t.Helper()
	now := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	l := New(filepath.Join(t.TempDir(), "logs", "audit.log"), zap.NewNop())
	l.now = func() time.Time { return now }
	return l, &now
}

func TestSeverityOf(t *testing.T) {
	tests := []struct {
		event string
		want  models.Severity
	}{
		{"login_success", models.SeverityLow},
		{"login_failed", models.SeverityMedium},
		{"login_locked", models.SeverityHigh},
		{"file_delete", models.SeverityHigh},
		{"user_deleted", models.SeverityHigh},
		{"data_breach_attempt", models.SeverityCritical},
		{"something_new", models.SeverityMedium},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, SeverityOf(tt.event), tt.event)
	}
}

func TestLog_WritesJSONLines(t *testing.T) {
	l, _ := newTestLogger(t)
	ctx := context.Background()

	entry := l.Log(ctx, "login_failed", "", map[string]any{"reason": "wrong_password"}, "10.0.0.1")
	assert.Equal(t, "anonymous", entry.User)
	assert.Equal(t, models.SeverityMedium, entry.Severity)

	l.Log(ctx, "login_success", "admin", nil, "10.0.0.1")

	data, err := os.ReadFile(l.path)
	require.NoError(t, err)
	assert.Equal(t, 2, countLines(data))
	assert.Contains(t, string(data), `"reason":"wrong_password"`)
}

func TestLog_WriteFailureDoesNotPropagate(t *testing.T) {
	dir := t.TempDir()
	// A directory where the file should be makes the append fail
	path := filepath.Join(dir, "audit.log")
	require.NoError(t, os.Mkdir(path, 0o755))

	l := New(path, zap.NewNop())
	entry := l.Log(context.Background(), "logout", "admin", nil, "")
	assert.Equal(t, "logout", entry.Event)
	assert.Empty(t, l.RecentLogs(10))
}

func TestReads_NewestFirstAndFiltered(t *testing.T) {
	l, now := newTestLogger(t)
	ctx := context.Background()

	events := []struct{ event, user string }{
		{"login_success", "admin"},
		{"file_write", "editor1"},
		{"login_failed", "bob"},
		{"file_delete", "admin"},
		{"login_locked", "bob"},
	}
	for _, e := range events {
		l.Log(ctx, e.event, e.user, nil, "1.1.1.1")
		*now = now.Add(time.Minute)
	}

	recent := l.RecentLogs(10)
	require.Len(t, recent, 5)
	assert.Equal(t, "login_locked", recent[0].Event)
	assert.Equal(t, "login_success", recent[4].Event)

	assert.Len(t, l.RecentLogs(2), 2)

	byUser := l.LogsByUser("admin", 10)
	require.Len(t, byUser, 2)
	assert.Equal(t, "file_delete", byUser[0].Event)

	assert.Len(t, l.LogsByEvent("login_failed", 10), 1)

	high := l.HighSeverityLogs(10)
	require.Len(t, high, 2)
	assert.Equal(t, "login_locked", high[0].Event)
	assert.Equal(t, "file_delete", high[1].Event)

	assert.Len(t, l.Filter("login", 10), 3)
	assert.Len(t, l.Filter("file", 10), 2)
	assert.Len(t, l.Filter("high", 10), 2)
	assert.Len(t, l.Filter("all", 10), 5)
}

func TestReads_SkipCorruptLines(t *testing.T) {
	l, _ := newTestLogger(t)
	ctx := context.Background()

	l.Log(ctx, "logout", "admin", nil, "")
	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_WRONLY, 0o600)
	require.NoError(t, err)
	_, err = f.WriteString("{\"timestamp\": broken\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())
	l.Log(ctx, "login_success", "admin", nil, "")

	entries := l.RecentLogs(10)
	require.Len(t, entries, 2)
	assert.Equal(t, "login_success", entries[0].Event)
}

func TestReads_OversizedLineDoesNotHideNewerEntries(t *testing.T) {
	l, _ := newTestLogger(t)
	ctx := context.Background()

	l.Log(ctx, "logout", "admin", nil, "")
	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_WRONLY, 0o600)
	require.NoError(t, err)
	_, err = f.WriteString(`{"details": ` + strings.Repeat("x", 2<<20) + "\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())
	l.Log(ctx, "login_success", "admin", nil, "")

	entries := l.RecentLogs(10)
	require.Len(t, entries, 2)
	assert.Equal(t, "login_success", entries[0].Event)
	assert.Equal(t, "logout", entries[1].Event)
}

func TestReads_BoundedScan(t *testing.T) {
	l, _ := newTestLogger(t)

	var b []byte
	for i := 0; i < maxScan+50; i++ {
		b = append(b, []byte(fmt.Sprintf(`{"timestamp":"2024-01-01T00:00:00Z","event":"login_failed","user":"u%d","severity":"medium"}`+"\n", i))...)
	}
	require.NoError(t, os.MkdirAll(filepath.Dir(l.path), 0o755))
	require.NoError(t, os.WriteFile(l.path, b, 0o600))

	all := l.LogsByEvent("login_failed", 5000)
	assert.Len(t, all, maxScan)
	assert.Equal(t, fmt.Sprintf("u%d", maxScan+49), all[0].User)
	assert.Empty(t, l.LogsByUser("u0", 10), "lines before the scan window are not read")
}

func TestReads_MissingFile(t *testing.T) {
	l, _ := newTestLogger(t)
	assert.Empty(t, l.RecentLogs(10))
}

func TestStats(t *testing.T) {
	l, now := newTestLogger(t)
	ctx := context.Background()

	l.Log(ctx, "login_failed", "bob", nil, "")
	*now = now.Add(2 * time.Hour)
	since := *now
	l.Log(ctx, "login_success", "admin", nil, "")
	l.Log(ctx, "login_failed", "bob", nil, "")
	l.Log(ctx, "login_locked", "bob", nil, "")
	l.Log(ctx, "user_deleted", "admin", nil, "")

	st := l.Stats(since)
	assert.Equal(t, 4, st.Total)
	assert.Equal(t, 1, st.Logins)
	assert.Equal(t, 1, st.FailedLogins)
	assert.Equal(t, 1, st.Lockouts)
	assert.Equal(t, 2, st.HighSeverity)
}

func TestNotifier_ReceivesHighSeverity(t *testing.T) {
	l, _ := newTestLogger(t)
	n := &chanNotifier{ch: make(chan models.AuditEntry, 2)}
	l.SetNotifier(n)

	l.Log(context.Background(), "login_success", "admin", nil, "")
	l.Log(context.Background(), "file_delete", "admin", nil, "")

	select {
	case e := <-n.ch:
		assert.Equal(t, "file_delete", e.Event)
	case <-time.After(2 * time.Second):
		t.Fatal("expected high severity notification")
	}

	select {
	case e := <-n.ch:
		t.Fatalf("unexpected notification for %s", e.Event)
	case <-time.After(50 * time.Millisecond):
	}
}

func countLines(b []byte) int {
	n := 0
	for _, c := range b {
		if c == '\n' {
			n++
		}
	}
	return n
}
