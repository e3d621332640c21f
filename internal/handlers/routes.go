package handlers

import (
	"net/http"

	"github.com/tillerstead/admin/internal/middleware"
)

// Mounts lists the prefixes the API is served under
var Mounts = []string{"/admin/api", "/api"}

// Guards are the per-route middleware the API needs
type Guards struct {
	Auth      *middleware.Auth
	AuthLimit middleware.Limiter
}

type mw = func(http.Handler) http.Handler

// Routes builds the API mux
func (h *Handler) Routes(g Guards) *http.ServeMux {
	mux := http.NewServeMux()
	a := g.Auth

	handle := func(method, path string, fn http.HandlerFunc, chain ...mw) {
		hh := middleware.Chain(fn, chain...)
		for _, prefix := range Mounts {
			mux.Handle(method+" "+prefix+path, hh)
		}
	}

	authed := func(perm string, extra ...mw) []mw {
		c := []mw{a.RequireAuth}
		if perm != "" {
			c = append(c, a.RequirePermission(perm))
		}
		return append(c, extra...)
	}
	sensitive := func(perm string) []mw {
		return authed(perm, a.Require2FA)
	}
	calcRead := []mw{a.RequireAuth, a.RequireAnyPermission("calculator:read", "calculator:write")}
	calcWrite := authed("calculator:write")

	limited := middleware.AuthRateLimit(g.AuthLimit)

	// Auth
	handle("POST", "/auth/login", h.Login, limited)
	handle("POST", "/auth/2fa/verify", h.Verify2FA, limited, a.AllowPending)
	handle("POST", "/auth/logout", h.Logout, a.AllowPending)
	handle("GET", "/auth/check", h.CheckAuth, a.OptionalAuth)
	handle("POST", "/auth/reset-request", h.RequestPasswordReset, limited)
	handle("POST", "/auth/reset", h.ResetPassword, limited)

	// 2FA
	handle("POST", "/auth/2fa/setup", h.Setup2FA, a.RequireAuth)
	handle("POST", "/auth/2fa/enable", h.Enable2FA, a.RequireAuth)
	handle("POST", "/auth/2fa/disable", h.Disable2FA, a.RequireAuth, a.Require2FA)
	handle("GET", "/auth/2fa/status", h.TwoFactorStatus, a.RequireAuth)
	handle("POST", "/auth/2fa/regenerate-codes", h.RegenerateBackupCodes, a.RequireAuth, a.Require2FA)

	// Users
	handle("GET", "/users", h.ListUsers, authed("users:read")...)
	handle("GET", "/users/stats", h.UserStats, authed("users:read")...)
	handle("GET", "/users/{username}", h.GetUser, authed("users:read")...)
	handle("POST", "/users", h.CreateUser, sensitive("users:write")...)
	handle("PUT", "/users/{username}", h.UpdateUser, sensitive("users:write")...)
	handle("DELETE", "/users/{username}", h.DeleteUser, sensitive("users:delete")...)
	handle("PUT", "/users/{username}/status", h.SetUserStatus, sensitive("users:write")...)
	handle("POST", "/users/{username}/change-password", h.ChangeUserPassword, a.RequireAuth)

	// Security
	handle("GET", "/security/overview", h.Overview, authed("security:read")...)
	handle("GET", "/security/audit", h.AuditLogs, authed("security:read")...)
	handle("GET", "/security/api-keys", h.ListAPIKeys, authed("security:read")...)
	handle("POST", "/security/api-keys", h.CreateAPIKey, sensitive("security:write")...)
	handle("DELETE", "/security/api-keys/{hash}", h.RevokeAPIKey, sensitive("security:write")...)
	handle("GET", "/security/ip-filter", h.GetIPFilter, authed("security:read")...)
	handle("POST", "/security/ip-filter/{list}", h.AddIP, sensitive("security:write")...)
	handle("DELETE", "/security/ip-filter/{list}/{ip}", h.RemoveIP, sensitive("security:write")...)
	handle("GET", "/security/roles", h.ListRoles, authed("security:read")...)
	handle("POST", "/security/roles", h.CreateRole, sensitive("security:write")...)
	handle("PUT", "/security/roles/{username}", h.AssignRole, sensitive("security:write")...)

	// Sessions
	handle("GET", "/sessions", h.ListSessions, a.RequireAuth)

	// Calculators
	handle("GET", "/calculators", h.ListCalculators, calcRead...)
	handle("POST", "/calculators/{id}", h.RunCalculator, calcRead...)

	// Projects
	handle("GET", "/projects", h.ListProjects, calcRead...)
	handle("POST", "/projects", h.CreateProject, calcWrite...)
	handle("GET", "/projects/export", h.ExportProjects, calcRead...)
	handle("POST", "/projects/import", h.ImportProjects, calcWrite...)
	handle("POST", "/projects/calculations", h.SaveCalculation, calcWrite...)
	handle("GET", "/projects/{id}", h.GetProject, calcRead...)
	handle("PUT", "/projects/{id}", h.UpdateProject, calcWrite...)
	handle("DELETE", "/projects/{id}", h.DeleteProject, calcWrite...)
	handle("POST", "/projects/{id}/duplicate", h.DuplicateProject, calcWrite...)
	handle("GET", "/projects/{id}/shopping-list", h.ShoppingList, calcRead...)
	handle("GET", "/projects/{id}/shopping-list.csv", h.ShoppingListCSV, calcRead...)
	handle("GET", "/projects/{id}/text", h.ProjectText, calcRead...)
	handle("GET", "/settings", h.GetSettings, a.RequireAuth, a.RequireAnyPermission("settings:read", "calculator:read"))
	handle("PUT", "/settings", h.UpdateSettings, calcWrite...)

	// Notifications
	handle("GET", "/notifications", h.ListNotifications, a.RequireAuth)
	handle("POST", "/notifications/{id}/read", h.MarkNotificationRead, a.RequireAuth)
	handle("POST", "/notifications/read-all", h.MarkAllNotificationsRead, a.RequireAuth)
	handle("DELETE", "/notifications/{id}", h.DeleteNotification, a.RequireAuth)
	handle("DELETE", "/notifications", h.ClearNotifications, a.RequireAuth)

	// Health
	handle("GET", "/health", h.Health)
	handle("GET", "/health/detailed", h.HealthDetailed, authed("system:read")...)
	handle("GET", "/health/system", h.HealthSystem, authed("system:read")...)
	handle("GET", "/health/metrics/{type}", h.HealthMetrics, authed("system:read")...)

	return mux
}
