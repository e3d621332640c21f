package handlers

import (
	"net/http"
	"time"

	"github.com/tillerstead/admin/internal/apperr"
)

// Health is the public liveness probe
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"uptime":    h.health.Uptime().Seconds(),
		"timestamp": time.Now().UTC(),
	})
}

// HealthDetailed returns system info, current metrics, performance and grade
func (h *Handler) HealthDetailed(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.health.Report())
}

// HealthSystem returns static host information
func (h *Handler) HealthSystem(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.health.SystemInfo())
}

// HealthMetrics returns one sample history: memory, disk, requests or errors
func (h *Handler) HealthMetrics(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 60)

	var v any
	switch typ := r.PathValue("type"); typ {
	case "memory":
		v = h.health.MemoryHistory(limit)
	case "disk":
		v = h.health.DiskHistory(limit)
	case "requests":
		v = h.health.RequestHistory(limit)
	case "errors":
		v = h.health.ErrorHistory(limit)
	default:
		h.writeError(w, r, apperr.NotFound("Unknown metric type: "+typ, nil))
		return
	}
	h.writeJSON(w, http.StatusOK, v)
}
