package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/tillerstead/admin/internal/models"
)

type fakeSessions map[string]*models.Session

func (f fakeSessions) Authenticate(cookie string) (*models.Session, error) {
	if s, ok := f[cookie]; ok {
		return s, nil
	}
	return nil, errors.New("session not found")
}

type fakeKeys map[string]*models.APIKey

func (f fakeKeys) ValidateKey(_ context.Context, raw string) (*models.APIKey, error) {
	if k, ok := f[raw]; ok {
		return k, nil
	}
	return nil, nil
}

type fakeRoles map[string][]string

func (f fakeRoles) HasPermission(username, permission string) bool {
	for _, p := range f[username] {
		if p == permission || p == "*" {
			return true
		}
	}
	return false
}

type fakeTwoFactor map[string]bool

func (f fakeTwoFactor) IsEnabled(username string) bool { return f[username] }

type fakeAudit struct {
	mu      sync.Mutex
	entries []models.AuditEntry
}

func (f *fakeAudit) Log(_ context.Context, event, user string, details map[string]any, ip string) models.AuditEntry {
	f.mu.Lock()
	defer f.mu.Unlock()
	e := models.AuditEntry{Event: event, User: user, Details: details, IP: ip}
	f.entries = append(f.entries, e)
	return e
}

type fakeLimiter struct {
	budget   int
	used     map[string]int
	refunded int
}

func (f *fakeLimiter) Allow(key string) (bool, time.Duration) {
	if f.used == nil {
		f.used = map[string]int{}
	}
	if f.used[key] >= f.budget {
		return false, 90 * time.Second
	}
	f.used[key]++
	return true, 0
}

func (f *fakeLimiter) Refund(key string) {
	f.used[key]--
	f.refunded++
}

func (f *fakeLimiter) Message() string { return "Too many requests from this IP, please try again later." }

type fakeRecorder struct {
	endpoints []string
	statuses  []int
}

func (f *fakeRecorder) RecordRequest(_ time.Duration, endpoint string, status int) {
	f.endpoints = append(f.endpoints, endpoint)
	f.statuses = append(f.statuses, status)
}

type fakeIPs map[string]bool

func (f fakeIPs) IsAllowed(ip string) bool { return !f[ip] }

var (
	_ Authenticator     = fakeSessions(nil)
	_ KeyValidator      = fakeKeys(nil)
	_ PermissionChecker = fakeRoles(nil)
	_ TwoFactorChecker  = fakeTwoFactor(nil)
	_ AuditRecorder     = (*fakeAudit)(nil)
	_ Limiter           = (*fakeLimiter)(nil)
	_ RequestRecorder   = (*fakeRecorder)(nil)
	_ IPChecker         = fakeIPs(nil)
)

func status(code int) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(code)
	})
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func newTestAuth(audit AuditRecorder) *Auth {
	sessions := fakeSessions{
		"cookie-admin":   {ID: "s1", Username: "admin"},
		"cookie-viewer":  {ID: "s2", Username: "viewer"},
		"cookie-pending": {ID: "s3", Username: "carol", TwoFactorPending: true},
		"cookie-carol":   {ID: "s4", Username: "carol", TwoFactorVerified: true},
		"cookie-dave":    {ID: "s5", Username: "dave"},
	}
	keys := fakeKeys{
		"ts_reader": {Name: "reporting", Permissions: []string{"calculator:*"}},
	}
	roles := fakeRoles{
		"admin":  {"*"},
		"viewer": {"calculator:read"},
		"carol":  {"*"},
		"dave":   {"*"},
	}
	return NewAuth(sessions, keys, roles, fakeTwoFactor{"carol": true, "dave": true}, audit)
}

func request(method, path, cookie string) *http.Request {
	req := httptest.NewRequest(method, path, nil)
	req.RemoteAddr = "203.0.113.9:52100"
	if cookie != "" {
		req.AddCookie(&http.Cookie{Name: SessionCookie, Value: cookie})
	}
	return req
}

func TestRequireAuth(t *testing.T) {
	a := newTestAuth(nil)

	var seen *Principal
	h := a.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetPrincipal(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, request(http.MethodGet, "/api/users", ""))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Unauthorized", decode(t, rec)["error"])

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, request(http.MethodGet, "/api/users", "forged"))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := request(http.MethodGet, "/api/users", "")
	req.Header.Set(APIKeyHeader, "ts_unknown")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, request(http.MethodGet, "/api/users", "cookie-pending"))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, true, decode(t, rec)["require2FA"])

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, request(http.MethodGet, "/api/users", "cookie-admin"))
	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, seen)
	assert.Equal(t, "admin", seen.Username)
	assert.Equal(t, "s1", seen.SessionID())

	req = request(http.MethodGet, "/api/calculators", "")
	req.Header.Set(APIKeyHeader, "ts_reader")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "apikey:reporting", seen.Username)
	assert.Empty(t, seen.SessionID())
}

func TestAllowPending(t *testing.T) {
	a := newTestAuth(nil)
	h := a.AllowPending(status(http.StatusOK))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, request(http.MethodPost, "/api/auth/2fa/verify", "cookie-pending"))
	assert.Equal(t, http.StatusOK, rec.Code)

	req := request(http.MethodPost, "/api/auth/2fa/verify", "")
	req.Header.Set(APIKeyHeader, "ts_reader")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code, "keys have no session to verify")
}

func TestRequirePermission(t *testing.T) {
	audit := &fakeAudit{}
	a := newTestAuth(audit)
	h := Chain(status(http.StatusOK), a.RequireAuth, a.RequirePermission("users:write"))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, request(http.MethodPost, "/api/users", "cookie-admin"))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, request(http.MethodPost, "/api/users", "cookie-viewer"))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "Permission denied", body["error"])
	assert.Equal(t, "users:write", body["required"])

	require.Len(t, audit.entries, 1)
	assert.Equal(t, "permission_denied", audit.entries[0].Event)
	assert.Equal(t, "viewer", audit.entries[0].User)

	// without RequireAuth in front there is no principal
	rec = httptest.NewRecorder()
	a.RequirePermission("users:write")(status(http.StatusOK)).ServeHTTP(rec, request(http.MethodPost, "/api/users", "cookie-admin"))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Not authenticated", decode(t, rec)["error"])
}

func TestRequireAnyPermission_APIKey(t *testing.T) {
	a := newTestAuth(nil)
	h := Chain(status(http.StatusOK), a.RequireAuth, a.RequireAnyPermission("calculator:read", "calculator:write"))

	req := request(http.MethodPost, "/api/calculators/tile", "")
	req.Header.Set(APIKeyHeader, "ts_reader")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	h = Chain(status(http.StatusOK), a.RequireAuth, a.RequireAnyPermission("users:read", "users:write"))
	req = request(http.MethodGet, "/api/users", "")
	req.Header.Set(APIKeyHeader, "ts_reader")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, []any{"users:read", "users:write"}, decode(t, rec)["required"])
}

func TestRequire2FA(t *testing.T) {
	a := newTestAuth(nil)
	h := Chain(status(http.StatusOK), a.RequireAuth, a.Require2FA)

	tests := []struct {
		name   string
		cookie string
		want   int
	}{
		{"2fa off", "cookie-admin", http.StatusOK},
		{"2fa verified", "cookie-carol", http.StatusOK},
		{"2fa on but session predates it", "cookie-dave", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, request(http.MethodPost, "/api/security/api-keys", tt.cookie))
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestAudit(t *testing.T) {
	audit := &fakeAudit{}
	a := newTestAuth(nil)
	h := Chain(status(http.StatusCreated), Audit(audit), a.OptionalAuth)

	h.ServeHTTP(httptest.NewRecorder(), request(http.MethodPost, "/admin/api/users", "cookie-admin"))
	h.ServeHTTP(httptest.NewRecorder(), request(http.MethodGet, "/api/users", "cookie-admin"))
	h.ServeHTTP(httptest.NewRecorder(), request(http.MethodDelete, "/api/projects/proj_1", ""))

	require.Len(t, audit.entries, 1)
	e := audit.entries[0]
	assert.Equal(t, "post_users", e.Event)
	assert.Equal(t, "admin", e.User)
	assert.Equal(t, "203.0.113.9", e.IP)
	assert.Equal(t, http.StatusCreated, e.Details["status"])
}

func TestAuditEvent(t *testing.T) {
	tests := []struct {
		method, path, want string
	}{
		{"POST", "/api/users", "post_users"},
		{"PUT", "/admin/api/projects/proj_1", "put_projects"},
		{"DELETE", "/api", "delete_request"},
		{"POST", "/api/", "post_request"},
	}
	for _, tt := range tests {
		if got := AuditEvent(tt.method, tt.path); got != tt.want {
			t.Errorf("AuditEvent(%s, %s) = %s, want %s", tt.method, tt.path, got, tt.want)
		}
	}
}

func TestRateLimit(t *testing.T) {
	l := &fakeLimiter{budget: 2}
	h := RateLimit(l)(status(http.StatusOK))

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, request(http.MethodGet, "/api/projects", ""))
		assert.Equal(t, http.StatusOK, rec.Code)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, request(http.MethodGet, "/api/projects", ""))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "90", rec.Header().Get("Retry-After"))
	assert.Equal(t, l.Message(), decode(t, rec)["error"])
}

func TestAuthRateLimit_RefundsSuccess(t *testing.T) {
	l := &fakeLimiter{budget: 1}
	code := http.StatusOK
	h := AuthRateLimit(l)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(code)
	}))

	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, request(http.MethodPost, "/api/auth/login", ""))
		assert.Equal(t, http.StatusOK, rec.Code)
	}
	assert.Equal(t, 3, l.refunded)

	code = http.StatusUnauthorized
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, request(http.MethodPost, "/api/auth/login", ""))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, request(http.MethodPost, "/api/auth/login", ""))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestModifyRateLimit_IgnoresReads(t *testing.T) {
	l := &fakeLimiter{budget: 1}
	h := ModifyRateLimit(l)(status(http.StatusOK))

	for i := 0; i < 5; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, request(http.MethodGet, "/api/projects", ""))
		assert.Equal(t, http.StatusOK, rec.Code)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, request(http.MethodPut, "/api/projects/p", ""))
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, request(http.MethodPut, "/api/projects/p", ""))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestSecurityHeaders(t *testing.T) {
	rec := httptest.NewRecorder()
	SecurityHeaders(status(http.StatusOK)).ServeHTTP(rec, request(http.MethodGet, "/", ""))

	h := rec.Header()
	assert.Contains(t, h.Get("Content-Security-Policy"), "frame-src 'none'")
	assert.Contains(t, h.Get("Content-Security-Policy"), "script-src 'self' 'unsafe-inline' cdnjs.cloudflare.com")
	assert.Equal(t, "max-age=31536000; includeSubDomains; preload", h.Get("Strict-Transport-Security"))
	assert.Equal(t, "DENY", h.Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", h.Get("X-Content-Type-Options"))
	assert.Equal(t, "strict-origin-when-cross-origin", h.Get("Referrer-Policy"))
}

func TestRequestID(t *testing.T) {
	var got string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = GetRequestID(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, request(http.MethodGet, "/", ""))
	assert.Len(t, got, 36)
	assert.Equal(t, got, rec.Header().Get(RequestIDHeader))

	const inbound = "6f1c1f0e-9d2a-4a57-8a3e-1b5c0f7d2e11"
	req := request(http.MethodGet, "/", "")
	req.Header.Set(RequestIDHeader, inbound)
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, inbound, got)

	req = request(http.MethodGet, "/", "")
	req.Header.Set(RequestIDHeader, "<script>")
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.NotEqual(t, "<script>", got)
}

func TestLoggerAndRecover(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	log := zap.New(core)

	h := Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/boom" {
			panic("nil map")
		}
		w.WriteHeader(http.StatusNoContent)
	}), Logger(log), Recover(log))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, request(http.MethodGet, "/ok", ""))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, request(http.MethodGet, "/boom", ""))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "internal server error", decode(t, rec)["error"])

	assert.Equal(t, 1, logs.FilterMessage("panic recovered").Len())
	requests := logs.FilterMessage("request").All()
	require.Len(t, requests, 2)
	assert.Equal(t, zapcore.InfoLevel, requests[0].Level)
	assert.Equal(t, zapcore.ErrorLevel, requests[1].Level)
	assert.Equal(t, int64(http.StatusInternalServerError), requests[1].ContextMap()["status"])
}

func TestIPFilterAndRecordRequests(t *testing.T) {
	rec := &fakeRecorder{}
	h := Chain(status(http.StatusOK), RecordRequests(rec), IPFilter(fakeIPs{"198.51.100.7": true}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, request(http.MethodGet, "/api/health", ""))
	assert.Equal(t, http.StatusOK, w.Code)

	req := request(http.MethodGet, "/api/health", "")
	req.RemoteAddr = "198.51.100.7:4000"
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)

	assert.Equal(t, []string{"GET /api/health", "GET /api/health"}, rec.endpoints)
	assert.Equal(t, []int{http.StatusOK, http.StatusForbidden}, rec.statuses)
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "[2001:db8::1]:443"
	assert.Equal(t, "2001:db8::1", ClientIP(req))

	req.RemoteAddr = "unix"
	assert.Equal(t, "unix", ClientIP(req))
}
