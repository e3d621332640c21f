package handlers

import (
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/tillerstead/admin/internal/apperr"
	"github.com/tillerstead/admin/internal/middleware"
	"github.com/tillerstead/admin/internal/models"
	"github.com/tillerstead/admin/internal/services/auth"
	"github.com/tillerstead/admin/internal/services/security"
)

// SecurityOverview is the dashboard summary for the last 24 hours
type SecurityOverview struct {
	LoginAttempts     int      `json:"loginAttempts"`
	FailedLogins      int      `json:"failedLogins"`
	Lockouts          int      `json:"lockouts"`
	ActiveSessions    int      `json:"activeSessions"`
	APIKeyCount       int      `json:"apiKeyCount"`
	WhitelistCount    int      `json:"whitelistCount"`
	BlacklistCount    int      `json:"blacklistCount"`
	HighSeverity      int      `json:"highSeverity"`
	Suspicious        int      `json:"suspicious"`
	Blocked           int      `json:"blocked"`
	LockedIdentifiers []string `json:"lockedIdentifiers"`
}

// Overview counts recent security activity
func (h *Handler) Overview(w http.ResponseWriter, r *http.Request) {
	since := time.Now().Add(-24 * time.Hour)
	stats := h.audit.Stats(since)

	suspicious := 0
	for _, e := range h.audit.HighSeverityLogs(0) {
		if e.Timestamp.Before(since) {
			continue
		}
		if e.Event == "suspicious_activity" || e.Event == "data_breach_attempt" {
			suspicious++
		}
	}

	lists := h.ipFilter.Lists()
	locked := h.bruteForce.LockedIdentifiers()
	if locked == nil {
		locked = []string{}
	}
	h.writeJSON(w, http.StatusOK, SecurityOverview{
		LoginAttempts:     stats.Logins + stats.FailedLogins,
		FailedLogins:      stats.FailedLogins,
		Lockouts:          stats.Lockouts,
		ActiveSessions:    len(h.sessions.ActiveSessions()),
		APIKeyCount:       h.apiKeys.Count(),
		WhitelistCount:    len(lists.Whitelist),
		BlacklistCount:    len(lists.Blacklist),
		HighSeverity:      stats.HighSeverity,
		Suspicious:        suspicious,
		Blocked:           len(locked),
		LockedIdentifiers: locked,
	})
}

// AuditLogs serves the filtered audit views
func (h *Handler) AuditLogs(w http.ResponseWriter, r *http.Request) {
	filter := r.URL.Query().Get("filter")
	limit := queryInt(r, "limit", 100)
	h.writeJSON(w, http.StatusOK, h.audit.Filter(filter, limit))
}

// ListAPIKeys returns all keys with masked hashes
func (h *Handler) ListAPIKeys(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.apiKeys.ListKeys())
}

// CreateAPIKey issues a key. The raw value is only ever shown here.
func (h *Handler) CreateAPIKey(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name        string   `json:"name"`
		Permissions []string `json:"permissions"`
	}
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	key, err := h.apiKeys.GenerateKey(r.Context(), req.Name, req.Permissions)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	by := actor(r)
	h.audit.Log(r.Context(), "api_key_created", by, map[string]any{"name": req.Name}, middleware.ClientIP(r))
	go h.mail.NotifyAPIKeyCreated(background(r), req.Name, by)

	h.writeJSON(w, http.StatusOK, map[string]any{
		"key":         key,
		"name":        strings.TrimSpace(req.Name),
		"permissions": req.Permissions,
	})
}

// RevokeAPIKey deletes a key by hash or masked hash prefix
func (h *Handler) RevokeAPIKey(w http.ResponseWriter, r *http.Request) {
	hash := strings.TrimSuffix(r.PathValue("hash"), "...")
	ok, err := h.apiKeys.RevokeKey(r.Context(), hash)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if !ok {
		h.writeError(w, r, apperr.NotFound("API key not found", security.ErrKeyNotFound))
		return
	}

	h.audit.Log(r.Context(), "api_key_revoked", actor(r), map[string]any{"hash": hash}, middleware.ClientIP(r))
	h.writeOK(w)
}

// GetIPFilter returns both lists
func (h *Handler) GetIPFilter(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.ipFilter.Lists())
}

func validList(list string) error {
	if list != "whitelist" && list != "blacklist" {
		return apperr.NotFound("Unknown list: "+list, nil)
	}
	return nil
}

// AddIP adds an address to the whitelist or blacklist
func (h *Handler) AddIP(w http.ResponseWriter, r *http.Request) {
	list := r.PathValue("list")
	if err := validList(list); err != nil {
		h.writeError(w, r, err)
		return
	}

	var req struct {
		IP string `json:"ip"`
	}
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	ip := strings.TrimSpace(req.IP)
	if net.ParseIP(ip) == nil {
		h.writeError(w, r, apperr.Validation("Invalid IP address", nil))
		return
	}

	by := actor(r)
	if list == "whitelist" {
		h.ipFilter.AddToWhitelist(ip)
		h.audit.Log(r.Context(), "ip_whitelisted", by, map[string]any{"ip": ip}, middleware.ClientIP(r))
	} else {
		h.ipFilter.AddToBlacklist(ip)
		h.audit.Log(r.Context(), "ip_blacklisted", by, map[string]any{"ip": ip}, middleware.ClientIP(r))
		go h.mail.NotifyIPBlacklisted(background(r), ip, by)
	}
	h.writeOK(w)
}

// RemoveIP removes an address from a list
func (h *Handler) RemoveIP(w http.ResponseWriter, r *http.Request) {
	list := r.PathValue("list")
	if err := validList(list); err != nil {
		h.writeError(w, r, err)
		return
	}
	ip := r.PathValue("ip")

	var removed bool
	if list == "whitelist" {
		removed = h.ipFilter.RemoveFromWhitelist(ip)
	} else {
		removed = h.ipFilter.RemoveFromBlacklist(ip)
	}
	if !removed {
		h.writeError(w, r, apperr.NotFound("IP not in "+list, nil))
		return
	}

	h.audit.Log(r.Context(), "ip_removed_"+list, actor(r), map[string]any{"ip": ip}, middleware.ClientIP(r))
	h.writeOK(w)
}

// ListRoles returns role definitions and current assignments
func (h *Handler) ListRoles(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]any{
		"roles":       h.roles.ListRoles(),
		"assignments": h.roles.ListUserRoles(),
	})
}

// CreateRole defines a custom role
func (h *Handler) CreateRole(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name        string   `json:"name"`
		Permissions []string `json:"permissions"`
		Description string   `json:"description"`
	}
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" || len(req.Permissions) == 0 {
		h.writeError(w, r, apperr.Validation("Role name and permissions are required", nil))
		return
	}

	if err := h.roles.CreateRole(req.Name, req.Permissions, req.Description); err != nil {
		h.writeError(w, r, err)
		return
	}

	h.audit.Log(r.Context(), "role_created", actor(r), map[string]any{
		"role":        req.Name,
		"permissions": req.Permissions,
	}, middleware.ClientIP(r))
	h.writeJSON(w, http.StatusOK, auth.Role{Name: req.Name, Permissions: req.Permissions, Description: req.Description})
}

// AssignRole changes a user's role and persists it on the user record
func (h *Handler) AssignRole(w http.ResponseWriter, r *http.Request) {
	username := r.PathValue("username")

	var req struct {
		Role string `json:"role"`
	}
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.checkRole(req.Role); err != nil || req.Role == "" {
		if err == nil {
			err = apperr.Validation("role is required", nil)
		}
		h.writeError(w, r, err)
		return
	}

	u, err := h.users.UpdateUser(r.Context(), username, auth.UpdateUserInput{Role: &req.Role})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.roles.AssignRole(username, req.Role); err != nil {
		h.writeError(w, r, err)
		return
	}

	h.audit.Log(r.Context(), "role_assigned", actor(r), map[string]any{
		"username": username,
		"role":     req.Role,
	}, middleware.ClientIP(r))
	h.writeJSON(w, http.StatusOK, u)
}

type sessionView struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Created      time.Time `json:"created"`
	LastActivity time.Time `json:"lastActivity"`
	IP           string    `json:"ip"`
	UserAgent    string    `json:"userAgent"`
	Current      bool      `json:"current"`
}

// ListSessions returns all live sessions for users:read holders, otherwise
// only the caller's own. Ids are truncated.
func (h *Handler) ListSessions(w http.ResponseWriter, r *http.Request) {
	p := middleware.GetPrincipal(r.Context())

	var list []models.Session
	if h.roles.HasPermission(p.Username, "users:read") {
		list = h.sessions.ActiveSessions()
	} else {
		list = h.sessions.UserSessions(p.Username)
	}

	out := make([]sessionView, 0, len(list))
	for _, s := range list {
		id := s.ID
		if len(id) > 8 {
			id = id[:8]
		}
		out = append(out, sessionView{
			ID:           id,
			Username:     s.Username,
			Created:      s.Created,
			LastActivity: s.LastActivity,
			IP:           s.IP,
			UserAgent:    s.UserAgent,
			Current:      s.ID == p.SessionID(),
		})
	}
	h.writeJSON(w, http.StatusOK, out)
}
