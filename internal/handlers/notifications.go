package handlers

import (
	"net/http"

	"github.com/tillerstead/admin/internal/apperr"
)

// ListNotifications returns the in-app feed; ?unread=true filters to unread
func (h *Handler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	unread := r.URL.Query().Get("unread") == "true"
	h.writeJSON(w, http.StatusOK, map[string]any{
		"notifications": h.inbox.GetAll(unread),
		"unreadCount":   h.inbox.UnreadCount(),
	})
}

func (h *Handler) MarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	if !h.inbox.MarkAsRead(r.PathValue("id")) {
		h.writeError(w, r, apperr.NotFound("Notification not found", nil))
		return
	}
	h.writeOK(w)
}

func (h *Handler) MarkAllNotificationsRead(w http.ResponseWriter, r *http.Request) {
	n := h.inbox.MarkAllAsRead()
	h.writeJSON(w, http.StatusOK, map[string]any{"success": true, "count": n})
}

func (h *Handler) DeleteNotification(w http.ResponseWriter, r *http.Request) {
	if !h.inbox.Delete(r.PathValue("id")) {
		h.writeError(w, r, apperr.NotFound("Notification not found", nil))
		return
	}
	h.writeOK(w)
}

// ClearNotifications empties the feed
func (h *Handler) ClearNotifications(w http.ResponseWriter, r *http.Request) {
	h.inbox.Clear()
	h.writeOK(w)
}
