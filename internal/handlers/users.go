package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/tillerstead/admin/internal/apperr"
	"github.com/tillerstead/admin/internal/middleware"
	"github.com/tillerstead/admin/internal/models"
	"github.com/tillerstead/admin/internal/services/auth"
)

// ListUsers returns every account
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.users.ListUsers())
}

// UserStats summarizes accounts and live sessions
func (h *Handler) UserStats(w http.ResponseWriter, r *http.Request) {
	stats := h.users.Stats()
	h.writeJSON(w, http.StatusOK, struct {
		models.UserStats
		Admins   int `json:"admins"`
		Sessions int `json:"sessions"`
	}{
		UserStats: stats,
		Admins:    stats.ByRole[models.RoleAdmin],
		Sessions:  len(h.sessions.ActiveSessions()),
	})
}

// GetUser returns one account
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	u, ok := h.users.GetUser(r.PathValue("username"))
	if !ok {
		h.writeError(w, r, apperr.NotFound("User not found", auth.ErrUserNotFound))
		return
	}
	h.writeJSON(w, http.StatusOK, u)
}

func (h *Handler) checkRole(role string) error {
	if role != "" && !h.roles.RoleExists(role) {
		return fmt.Errorf("%w: %s", auth.ErrUnknownRole, role)
	}
	return nil
}

// CreateUser adds an account and assigns its role
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var in auth.CreateUserInput
	if err := decodeJSON(r, &in); err != nil {
		h.writeError(w, r, err)
		return
	}
	in.Username = strings.TrimSpace(in.Username)
	if err := h.checkRole(in.Role); err != nil {
		h.writeError(w, r, err)
		return
	}

	u, err := h.users.CreateUser(r.Context(), in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.roles.AssignRole(u.Username, u.Role); err != nil {
		h.writeError(w, r, err)
		return
	}

	by := actor(r)
	h.audit.Log(r.Context(), "user_created", by, map[string]any{
		"username": u.Username,
		"role":     u.Role,
	}, middleware.ClientIP(r))
	go h.mail.NotifyNewUser(background(r), u, by)

	h.writeJSON(w, http.StatusOK, u)
}

// UpdateUser changes email, password or role
func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	username := r.PathValue("username")

	var in auth.UpdateUserInput
	if err := decodeJSON(r, &in); err != nil {
		h.writeError(w, r, err)
		return
	}
	if in.Role != nil {
		if err := h.checkRole(*in.Role); err != nil {
			h.writeError(w, r, err)
			return
		}
	}

	u, err := h.users.UpdateUser(r.Context(), username, in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if in.Role != nil && *in.Role != "" {
		if err := h.roles.AssignRole(u.Username, u.Role); err != nil {
			h.writeError(w, r, err)
			return
		}
	}

	var fields []string
	if in.Email != nil {
		fields = append(fields, "email")
	}
	if in.Password != nil {
		fields = append(fields, "password")
	}
	if in.Role != nil {
		fields = append(fields, "role")
	}
	h.audit.Log(r.Context(), "user_updated", actor(r), map[string]any{
		"username": username,
		"updates":  fields,
	}, middleware.ClientIP(r))

	h.writeJSON(w, http.StatusOK, u)
}

// DeleteUser removes an account and ends its sessions
func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	username := r.PathValue("username")
	if err := h.users.DeleteUser(r.Context(), username); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.roles.RemoveUser(username)
	h.sessions.DestroyUserSessions(username, "")

	by := actor(r)
	h.audit.Log(r.Context(), "user_deleted", by, map[string]any{"username": username}, middleware.ClientIP(r))
	go h.mail.NotifyUserDeleted(background(r), username, by)

	h.writeOK(w)
}

// SetUserStatus activates or deactivates an account. Deactivation ends
// every session of the user.
func (h *Handler) SetUserStatus(w http.ResponseWriter, r *http.Request) {
	username := r.PathValue("username")

	var req struct {
		IsActive *bool `json:"isActive"`
	}
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	if req.IsActive == nil {
		h.writeError(w, r, apperr.Validation("isActive is required", nil))
		return
	}

	u, err := h.users.ToggleUserStatus(r.Context(), username, *req.IsActive)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if !u.IsActive {
		h.sessions.DestroyUserSessions(username, "")
	}

	h.audit.Log(r.Context(), "user_status_changed", actor(r), map[string]any{
		"username": username,
		"isActive": u.IsActive,
	}, middleware.ClientIP(r))

	h.writeJSON(w, http.StatusOK, u)
}

// ChangeUserPassword changes a password given the current one. Users may
// change their own; changing someone else's needs users:write.
func (h *Handler) ChangeUserPassword(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.sessionUser(w, r)
	if !ok {
		return
	}
	username := r.PathValue("username")
	self := caller == username
	if !self && !h.roles.HasPermission(caller, "users:write") {
		h.writeJSON(w, http.StatusForbidden, map[string]string{
			"error":    "Permission denied",
			"required": "users:write",
		})
		return
	}

	var req struct {
		CurrentPassword string `json:"currentPassword"`
		NewPassword     string `json:"newPassword"`
	}
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	keep := ""
	if self {
		keep = middleware.GetPrincipal(r.Context()).SessionID()
	}
	if err := h.auth.ChangePassword(r.Context(), username, req.CurrentPassword, req.NewPassword, keep, middleware.ClientIP(r)); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeOK(w)
}
