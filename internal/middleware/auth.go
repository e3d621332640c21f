package middleware

import (
	"context"
	"net/http"

	"github.com/tillerstead/admin/internal/apperr"
	"github.com/tillerstead/admin/internal/models"
	"github.com/tillerstead/admin/internal/services/auth"
)

const (
	// SessionCookie holds the signed session id
	SessionCookie = "tillerstead.sid"
	// APIKeyHeader is the alternate credential for scripts
	APIKeyHeader = "X-API-Key"
)

// Authenticator resolves a session cookie value
type Authenticator interface {
	Authenticate(cookie string) (*models.Session, error)
}

// KeyValidator resolves a raw API key
type KeyValidator interface {
	ValidateKey(ctx context.Context, raw string) (*models.APIKey, error)
}

// PermissionChecker answers role-based permission checks
type PermissionChecker interface {
	HasPermission(username, permission string) bool
}

// TwoFactorChecker reports whether a user has 2FA turned on
type TwoFactorChecker interface {
	IsEnabled(username string) bool
}

// Principal is the caller behind a request: a session user or an API key
type Principal struct {
	Username string
	Session  *models.Session
	APIKey   *models.APIKey
}

// SessionID returns the session id, empty for API keys
func (p *Principal) SessionID() string {
	if p.Session == nil {
		return ""
	}
	return p.Session.ID
}

// Auth builds the authentication and authorization middleware
type Auth struct {
	sessions  Authenticator
	keys      KeyValidator
	roles     PermissionChecker
	twoFactor TwoFactorChecker
	audit     AuditRecorder
}

// NewAuth creates the auth middleware set. audit may be nil.
func NewAuth(sessions Authenticator, keys KeyValidator, roles PermissionChecker, twoFactor TwoFactorChecker, audit AuditRecorder) *Auth {
	return &Auth{
		sessions:  sessions,
		keys:      keys,
		roles:     roles,
		twoFactor: twoFactor,
		audit:     audit,
	}
}

// resolve returns the caller, if any. A session still waiting for its second
// factor is returned with pending set.
func (a *Auth) resolve(r *http.Request) (p *Principal, pending bool) {
	if c, err := r.Cookie(SessionCookie); err == nil && c.Value != "" {
		sess, err := a.sessions.Authenticate(c.Value)
		if err == nil {
			return &Principal{Username: sess.Username, Session: sess}, sess.TwoFactorPending
		}
	}

	if raw := r.Header.Get(APIKeyHeader); raw != "" && a.keys != nil {
		key, err := a.keys.ValidateKey(r.Context(), raw)
		if err == nil && key != nil {
			return &Principal{Username: "apikey:" + key.Name, APIKey: key}, false
		}
	}
	return nil, false
}

func withPrincipal(r *http.Request, p *Principal) *http.Request {
	if slot, ok := r.Context().Value(slotKey).(*Principal); ok {
		*slot = *p
	}
	return r.WithContext(context.WithValue(r.Context(), principalKey, p))
}

// GetPrincipal returns the authenticated caller, or nil
func GetPrincipal(ctx context.Context) *Principal {
	p, _ := ctx.Value(principalKey).(*Principal)
	return p
}

// RequireAuth rejects requests without a fully signed-in caller
func (a *Auth) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, pending := a.resolve(r)
		switch {
		case p == nil:
			apperr.WriteJSON(w, http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
			return
		case pending:
			writeTwoFactorRequired(w)
			return
		}
		next.ServeHTTP(w, withPrincipal(r, p))
	})
}

// AllowPending is RequireAuth that also admits sessions waiting for their
// second factor. Only the verify and logout routes use it.
func (a *Auth) AllowPending(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, _ := a.resolve(r)
		if p == nil || p.Session == nil {
			apperr.WriteJSON(w, http.StatusUnauthorized, map[string]string{"error": "Not authenticated"})
			return
		}
		next.ServeHTTP(w, withPrincipal(r, p))
	})
}

// OptionalAuth attaches the caller when there is one
func (a *Auth) OptionalAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if p, pending := a.resolve(r); p != nil && !pending {
			r = withPrincipal(r, p)
		}
		next.ServeHTTP(w, r)
	})
}

// RequirePermission rejects callers whose role or key lacks permission
func (a *Auth) RequirePermission(permission string) func(http.Handler) http.Handler {
	return a.requireAny([]string{permission}, permission)
}

// RequireAnyPermission passes when any one of permissions is granted
func (a *Auth) RequireAnyPermission(permissions ...string) func(http.Handler) http.Handler {
	return a.requireAny(permissions, permissions)
}

func (a *Auth) requireAny(permissions []string, required any) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p := GetPrincipal(r.Context())
			if p == nil {
				apperr.WriteJSON(w, http.StatusUnauthorized, map[string]string{"error": "Not authenticated"})
				return
			}
			for _, perm := range permissions {
				if a.granted(p, perm) {
					next.ServeHTTP(w, r)
					return
				}
			}
			if a.audit != nil {
				a.audit.Log(r.Context(), "permission_denied", p.Username,
					map[string]any{"path": r.URL.Path, "required": required}, ClientIP(r))
			}
			apperr.WriteJSON(w, http.StatusForbidden, map[string]any{
				"error":    "Permission denied",
				"required": required,
			})
		})
	}
}

func (a *Auth) granted(p *Principal, permission string) bool {
	if p.APIKey == nil {
		return a.roles.HasPermission(p.Username, permission)
	}
	for _, raw := range p.APIKey.Permissions {
		if auth.ParsePermission(raw).Matches(permission) {
			return true
		}
	}
	return false
}

// Require2FA blocks sessions of 2FA users that have not passed the second
// factor. API keys are not subject to it.
func (a *Auth) Require2FA(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p := GetPrincipal(r.Context())
		if p == nil {
			apperr.WriteJSON(w, http.StatusUnauthorized, map[string]string{"error": "Not authenticated"})
			return
		}
		if p.Session != nil && a.twoFactor.IsEnabled(p.Username) && !p.Session.TwoFactorVerified {
			writeTwoFactorRequired(w)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeTwoFactorRequired(w http.ResponseWriter) {
	apperr.WriteJSON(w, http.StatusUnauthorized, map[string]any{
		"error":      "2FA verification required",
		"require2FA": true,
	})
}
