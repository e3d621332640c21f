package handlers

import (
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/tillerstead/admin/internal/apperr"
	"github.com/tillerstead/admin/internal/middleware"
	"github.com/tillerstead/admin/internal/services/auth"
)

const cookiePath = "/admin"

func (h *Handler) setSessionCookie(w http.ResponseWriter, token string, maxAge int) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    token,
		Path:     cookiePath,
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.cfg.IsProduction(),
		SameSite: http.SameSiteStrictMode,
	})
}

// Login checks credentials and opens a session
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		h.writeError(w, r, apperr.Validation("Username and password required", nil))
		return
	}

	res, err := h.auth.Login(r.Context(), auth.LoginInput{
		Username:  req.Username,
		Password:  req.Password,
		IP:        middleware.ClientIP(r),
		UserAgent: r.UserAgent(),
	})
	var lock *auth.LockoutError
	if errors.As(err, &lock) {
		h.writeLocked(w, lock)
		return
	}
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.setSessionCookie(w, res.Token, h.auth.CookieMaxAge())

	body := map[string]any{"success": true, "username": res.User.Username}
	if res.Require2FA {
		body["require2FA"] = true
	}
	h.writeJSON(w, http.StatusOK, body)
}

func (h *Handler) writeLocked(w http.ResponseWriter, lock *auth.LockoutError) {
	minutes := int(math.Ceil(lock.RetryAfter.Minutes()))
	w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(lock.RetryAfter.Seconds()))))
	h.writeJSON(w, http.StatusTooManyRequests, map[string]any{
		"error":         "Account temporarily locked due to too many failed attempts",
		"unlockTime":    lock.UnlockTime,
		"remainingTime": fmt.Sprintf("%d minutes", minutes),
	})
}

// Verify2FA completes a login with a TOTP token or a backup code
func (h *Handler) Verify2FA(w http.ResponseWriter, r *http.Request) {
	p := middleware.GetPrincipal(r.Context())
	sess := p.Session
	if !sess.TwoFactorPending && (sess.TwoFactorVerified || !h.twoFactor.IsEnabled(sess.Username)) {
		h.writeError(w, r, apperr.Validation("2FA verification not required", nil))
		return
	}

	var req struct {
		Token      string `json:"token"`
		BackupCode string `json:"backupCode"`
	}
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	res, err := h.auth.Verify2FA(r.Context(), sess.ID, req.Token, req.BackupCode, middleware.ClientIP(r))
	var lock *auth.LockoutError
	if errors.As(err, &lock) {
		h.writeLocked(w, lock)
		return
	}
	if errors.Is(err, auth.ErrInvalidTOTP) {
		h.writeError(w, r, apperr.Authentication("Invalid 2FA code", err))
		return
	}
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	body := map[string]any{"success": true}
	if res.UsedBackupCode {
		body["remainingCodes"] = res.RemainingCodes
	}
	h.writeJSON(w, http.StatusOK, body)
}

// Logout ends the session and clears the cookie
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	p := middleware.GetPrincipal(r.Context())
	h.auth.Logout(r.Context(), p.SessionID(), middleware.ClientIP(r))
	h.setSessionCookie(w, "", -1)
	h.writeOK(w)
}

// CheckAuth reports whether the caller is signed in
func (h *Handler) CheckAuth(w http.ResponseWriter, r *http.Request) {
	p := middleware.GetPrincipal(r.Context())
	if p == nil {
		h.writeJSON(w, http.StatusUnauthorized, map[string]bool{"authenticated": false})
		return
	}

	body := map[string]any{"authenticated": true, "user": p.Username}
	if role, ok := h.roles.UserRole(p.Username); ok {
		body["role"] = role
	}
	h.writeJSON(w, http.StatusOK, body)
}

// sessionUser returns the signed-in username. API keys cannot manage 2FA
// or passwords.
func (h *Handler) sessionUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	p := middleware.GetPrincipal(r.Context())
	if p == nil || p.Session == nil {
		h.writeError(w, r, apperr.Authorization("Session login required", nil))
		return "", false
	}
	return p.Username, true
}

// Setup2FA starts authenticator enrolment
func (h *Handler) Setup2FA(w http.ResponseWriter, r *http.Request) {
	username, ok := h.sessionUser(w, r)
	if !ok {
		return
	}

	secret, err := h.twoFactor.GenerateSecret(r.Context(), username)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, secret)
}

type tokenRequest struct {
	Token string `json:"token"`
}

// Enable2FA confirms enrolment and returns the backup codes
func (h *Handler) Enable2FA(w http.ResponseWriter, r *http.Request) {
	username, ok := h.sessionUser(w, r)
	if !ok {
		return
	}
	var req tokenRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	codes, err := h.twoFactor.Enable2FA(r.Context(), username, req.Token)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.users.SetTwoFactorEnabled(r.Context(), username, true); err != nil {
		h.writeError(w, r, err)
		return
	}
	// The token just proved the second factor for this session
	h.sessions.MarkTwoFactorVerified(middleware.GetPrincipal(r.Context()).SessionID())

	h.audit.Log(r.Context(), "2fa_enabled", username, nil, middleware.ClientIP(r))
	go h.mail.Notify2FAEnabled(background(r), username)

	h.writeJSON(w, http.StatusOK, map[string]any{"success": true, "backupCodes": codes})
}

// Disable2FA removes 2FA after a valid token
func (h *Handler) Disable2FA(w http.ResponseWriter, r *http.Request) {
	username, ok := h.sessionUser(w, r)
	if !ok {
		return
	}
	var req tokenRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	if err := h.twoFactor.Disable2FA(r.Context(), username, req.Token); err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.users.SetTwoFactorEnabled(r.Context(), username, false); err != nil {
		h.writeError(w, r, err)
		return
	}

	h.audit.Log(r.Context(), "2fa_disabled", username, nil, middleware.ClientIP(r))
	go h.mail.Notify2FADisabled(background(r), username)

	h.writeOK(w)
}

// TwoFactorStatus reports enrolment state
func (h *Handler) TwoFactorStatus(w http.ResponseWriter, r *http.Request) {
	username, ok := h.sessionUser(w, r)
	if !ok {
		return
	}
	h.writeJSON(w, http.StatusOK, h.twoFactor.Status(username))
}

// RegenerateBackupCodes replaces the backup code set
func (h *Handler) RegenerateBackupCodes(w http.ResponseWriter, r *http.Request) {
	username, ok := h.sessionUser(w, r)
	if !ok {
		return
	}
	var req tokenRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	codes, err := h.twoFactor.RegenerateBackupCodes(r.Context(), username, req.Token)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.audit.Log(r.Context(), "backup_codes_regenerated", username, nil, middleware.ClientIP(r))
	h.writeJSON(w, http.StatusOK, map[string]any{"success": true, "backupCodes": codes})
}

// RequestPasswordReset issues a reset token and emails the link. The token
// never appears in the response, and unknown users get the same answer.
func (h *Handler) RequestPasswordReset(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
	}
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	body := map[string]any{
		"success": true,
		"message": "If the account exists, a reset link has been sent",
	}

	token, err := h.users.GenerateResetToken(r.Context(), strings.TrimSpace(req.Username))
	switch {
	case errors.Is(err, auth.ErrUserNotFound):
		h.writeJSON(w, http.StatusOK, body)
		return
	case err != nil:
		h.writeError(w, r, err)
		return
	}

	h.audit.Log(r.Context(), "password_reset_requested", req.Username, nil, middleware.ClientIP(r))
	link := resetLink(r, token)
	if h.cfg.IsDevelopment() {
		h.log.Info("password reset link issued", zap.String("user", req.Username), zap.String("link", link))
	}
	go h.mail.NotifyPasswordReset(background(r), req.Username, link)
	h.writeJSON(w, http.StatusOK, body)
}

func resetLink(r *http.Request, token string) string {
	scheme := "https"
	if r.TLS == nil && !strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https") {
		scheme = "http"
	}
	return fmt.Sprintf("%s://%s%s/reset-password?token=%s", scheme, r.Host, cookiePath, token)
}

// ResetPassword sets a new password from a reset token and ends the user's
// sessions
func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token       string `json:"token"`
		NewPassword string `json:"newPassword"`
	}
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	username, err := h.users.ResetPasswordWithToken(r.Context(), req.Token, req.NewPassword)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	ended := h.sessions.DestroyUserSessions(username, "")

	h.audit.Log(r.Context(), "password_reset", username, map[string]any{"sessionsEnded": ended}, middleware.ClientIP(r))
	h.writeOK(w)
}
