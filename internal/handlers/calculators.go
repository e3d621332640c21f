package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/tillerstead/admin/internal/apperr"
)

// ListCalculators describes every available calculator
func (h *Handler) ListCalculators(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.calc.Registry().List())
}

// RunCalculator computes a result for the posted inputs, remotely when the
// toolkit API knows the calculator and locally otherwise
func (h *Handler) RunCalculator(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		h.writeError(w, r, apperr.Validation("Invalid request body", err))
		return
	}
	if len(raw) > 0 && !json.Valid(raw) {
		h.writeError(w, r, apperr.Validation("Invalid request body", nil))
		return
	}

	out, err := h.calc.Calculate(r.Context(), r.PathValue("id"), raw)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, out)
}
