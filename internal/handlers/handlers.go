// Package handlers provides HTTP request handlers
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/tillerstead/admin/internal/apperr"
	"github.com/tillerstead/admin/internal/calculator"
	"github.com/tillerstead/admin/internal/config"
	"github.com/tillerstead/admin/internal/middleware"
	"github.com/tillerstead/admin/internal/models"
	"github.com/tillerstead/admin/internal/project"
	"github.com/tillerstead/admin/internal/services/audit"
	"github.com/tillerstead/admin/internal/services/auth"
	"github.com/tillerstead/admin/internal/services/health"
	"github.com/tillerstead/admin/internal/services/notify"
	"github.com/tillerstead/admin/internal/services/security"
)

// maxBodyBytes bounds JSON request bodies; imports are the largest
const maxBodyBytes = 10 << 20

// Mailer sends the admin notifications triggered from handlers
type Mailer interface {
	NotifyNewUser(ctx context.Context, user models.PublicUser, createdBy string)
	NotifyUserDeleted(ctx context.Context, username, deletedBy string)
	Notify2FAEnabled(ctx context.Context, username string)
	Notify2FADisabled(ctx context.Context, username string)
	NotifyPasswordReset(ctx context.Context, username, link string)
	NotifyAPIKeyCreated(ctx context.Context, name, createdBy string)
	NotifyIPBlacklisted(ctx context.Context, ip, addedBy string)
}

// Handler contains all HTTP handlers and dependencies
type Handler struct {
	cfg        *config.Config
	log        *zap.Logger
	auth       *auth.Service
	users      *auth.UserManager
	sessions   *auth.SessionManager
	twoFactor  *auth.TwoFactorAuth
	roles      *auth.RoleManager
	audit      *audit.Logger
	apiKeys    *security.APIKeyManager
	ipFilter   *security.IPFilter
	bruteForce *security.BruteForce
	calc       *calculator.HybridCalculator
	projects   *project.Store
	inbox      *notify.InAppNotifier
	mail       Mailer
	health     *health.Monitor
}

// Deps groups the collaborators of Handler
type Deps struct {
	Config     *config.Config
	Log        *zap.Logger
	Auth       *auth.Service
	Users      *auth.UserManager
	Sessions   *auth.SessionManager
	TwoFactor  *auth.TwoFactorAuth
	Roles      *auth.RoleManager
	Audit      *audit.Logger
	APIKeys    *security.APIKeyManager
	IPFilter   *security.IPFilter
	BruteForce *security.BruteForce
	Calculator *calculator.HybridCalculator
	Projects   *project.Store
	Inbox      *notify.InAppNotifier
	Mail       Mailer
	Health     *health.Monitor
}

// New creates a new handler with all dependencies
func New(d Deps) *Handler {
	return &Handler{
		cfg:        d.Config,
		log:        d.Log,
		auth:       d.Auth,
		users:      d.Users,
		sessions:   d.Sessions,
		twoFactor:  d.TwoFactor,
		roles:      d.Roles,
		audit:      d.Audit,
		apiKeys:    d.APIKeys,
		ipFilter:   d.IPFilter,
		bruteForce: d.BruteForce,
		calc:       d.Calculator,
		projects:   d.Projects,
		inbox:      d.Inbox,
		mail:       d.Mail,
		health:     d.Health,
	}
}

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	apperr.WriteJSON(w, status, v)
}

// writeOK writes {"success": true}
func (h *Handler) writeOK(w http.ResponseWriter) {
	h.writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// writeError classifies err and writes it. Unexpected errors are logged and,
// in production, redacted.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	err = classify(err)
	if apperr.KindOf(err) == apperr.KindInternal {
		h.log.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("request_id", middleware.GetRequestID(r.Context())),
			zap.Error(err),
		)
	}
	apperr.Write(w, err, h.cfg.IsProduction())
}

var (
	notFound = []error{
		auth.ErrUserNotFound,
		auth.ErrSessionNotFound,
		security.ErrKeyNotFound,
		calculator.ErrUnknownCalculator,
		project.ErrNotFound,
	}
	invalid = []error{
		auth.ErrInvalidUsername,
		auth.ErrInvalidEmail,
		auth.ErrWeakPassword,
		auth.ErrWrongPassword,
		auth.ErrInvalidResetToken,
		auth.ErrInvalidTOTP,
		auth.ErrTwoFactorNotSetup,
		auth.ErrTwoFactorEnabled,
		auth.ErrUnknownRole,
		security.ErrKeyName,
		security.ErrAmbiguousKey,
		calculator.ErrInvalidInput,
		project.ErrInvalidImport,
		project.ErrInvalidCalculation,
	}
	conflict = []error{
		auth.ErrUserExists,
		auth.ErrRoleExists,
	}
)

// classify maps package sentinels onto apperr kinds
func classify(err error) error {
	if _, ok := apperr.As(err); ok {
		return err
	}

	var lock *auth.LockoutError
	if errors.As(err, &lock) {
		return apperr.RateLimited(lock.Error(), lock.RetryAfter)
	}

	switch {
	case isAny(err, notFound):
		return apperr.NotFound(err.Error(), err)
	case isAny(err, invalid):
		return apperr.Validation(err.Error(), err)
	case isAny(err, conflict):
		return apperr.Conflict(err.Error(), err)
	case errors.Is(err, auth.ErrInvalidCredentials), errors.Is(err, auth.ErrAccountDisabled):
		return apperr.Authentication(err.Error(), err)
	case errors.Is(err, auth.ErrProtectedUser):
		return apperr.Authorization(err.Error(), err)
	}
	return apperr.Internal(err)
}

func isAny(err error, targets []error) bool {
	for _, t := range targets {
		if errors.Is(err, t) {
			return true
		}
	}
	return false
}

// decodeJSON reads the request body into v. An empty body leaves v untouched.
func decodeJSON(r *http.Request, v any) error {
	err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(v)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}
	return apperr.Validation("Invalid request body", err)
}

// actor returns the caller name for audit entries
func actor(r *http.Request) string {
	if p := middleware.GetPrincipal(r.Context()); p != nil {
		return p.Username
	}
	return ""
}

// queryInt parses a positive integer query parameter, falling back to def
func queryInt(r *http.Request, key string, def int) int {
	n, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil || n <= 0 {
		return def
	}
	return n
}

// background detaches ctx so notifications outlive the request
func background(r *http.Request) context.Context {
	return context.WithoutCancel(r.Context())
}
