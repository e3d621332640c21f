package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/tillerstead/admin/internal/models"
)

// AuditRecorder writes audit entries
type AuditRecorder interface {
	Log(ctx context.Context, event, user string, details map[string]any, ip string) models.AuditEntry
}

// Audit records one event per mutating request made by a signed-in caller.
// The caller is captured through a slot that the auth middleware fills in
// further down the chain.
func Audit(rec AuditRecorder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !isMutating(r.Method) {
				next.ServeHTTP(w, r)
				return
			}

			slot := &Principal{}
			sr := record(w)
			next.ServeHTTP(sr, r.WithContext(context.WithValue(r.Context(), slotKey, slot)))

			if slot.Username == "" {
				return
			}
			rec.Log(r.Context(), AuditEvent(r.Method, r.URL.Path), slot.Username, map[string]any{
				"method": r.Method,
				"path":   r.URL.Path,
				"status": sr.code(),
			}, ClientIP(r))
		})
	}
}

// AuditEvent names a request as <method>_<resource>, e.g. post_users for
// POST /api/users. The /admin mount prefix is ignored.
func AuditEvent(method, path string) string {
	path = strings.TrimPrefix(path, "/admin")
	resource := "request"
	if parts := strings.Split(path, "/"); len(parts) > 2 && parts[2] != "" {
		resource = parts[2]
	}
	return strings.ToLower(method) + "_" + resource
}
