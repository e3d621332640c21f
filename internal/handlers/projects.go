package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/tillerstead/admin/internal/apperr"
	"github.com/tillerstead/admin/internal/project"
)

// ListProjects returns all projects, or the most recently touched ones when
// ?recent=N is given
func (h *Handler) ListProjects(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Has("recent") {
		h.writeJSON(w, http.StatusOK, h.projects.Recent(queryInt(r, "recent", 0)))
		return
	}
	h.writeJSON(w, http.StatusOK, h.projects.List())
}

// CreateProject starts an empty project
func (h *Handler) CreateProject(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	p, err := h.projects.Create(req.Name)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, p)
}

// GetProject returns one project
func (h *Handler) GetProject(w http.ResponseWriter, r *http.Request) {
	p, err := h.projects.Get(r.PathValue("id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, p)
}

// UpdateProject changes name, notes, area or rooms
func (h *Handler) UpdateProject(w http.ResponseWriter, r *http.Request) {
	var u project.Update
	if err := decodeJSON(r, &u); err != nil {
		h.writeError(w, r, err)
		return
	}
	if u.TotalArea != nil && *u.TotalArea < 0 {
		h.writeError(w, r, apperr.Validation("totalArea must not be negative", nil))
		return
	}

	p, err := h.projects.Update(r.PathValue("id"), u)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, p)
}

// DeleteProject removes a project
func (h *Handler) DeleteProject(w http.ResponseWriter, r *http.Request) {
	if err := h.projects.Delete(r.PathValue("id")); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeOK(w)
}

// DuplicateProject copies a project under a new id
func (h *Handler) DuplicateProject(w http.ResponseWriter, r *http.Request) {
	p, err := h.projects.Duplicate(r.PathValue("id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, p)
}

// SaveCalculation stores a calculator run on a project. Without results the
// calculator is run on the inputs first; without a project id a new project
// is created.
func (h *Handler) SaveCalculation(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ProjectID    string          `json:"projectId"`
		CalculatorID string          `json:"calculatorId"`
		Inputs       json.RawMessage `json:"inputs"`
		Results      json.RawMessage `json:"results"`
	}
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	results := req.Results
	if len(results) == 0 || string(results) == "null" {
		out, err := h.calc.Calculate(r.Context(), req.CalculatorID, req.Inputs)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		results, err = json.Marshal(out.Result)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
	}

	p, err := h.projects.SaveCalculation(req.ProjectID, req.CalculatorID, req.Inputs, results)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, p)
}

// ShoppingList derives the material list of a project
func (h *Handler) ShoppingList(w http.ResponseWriter, r *http.Request) {
	list, err := h.projects.ShoppingList(r.PathValue("id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, list)
}

// ShoppingListCSV serves the material list as a CSV download
func (h *Handler) ShoppingListCSV(w http.ResponseWriter, r *http.Request) {
	list, err := h.projects.ShoppingList(r.PathValue("id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="shopping-list-%s.csv"`, list.ProjectID))
	if err := project.WriteCSV(w, *list); err != nil {
		h.log.Warn("failed to write shopping list", zap.Error(err))
	}
}

// ProjectText renders a plain-text summary for sharing
func (h *Handler) ProjectText(w http.ResponseWriter, r *http.Request) {
	p, err := h.projects.Get(r.PathValue("id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	io.WriteString(w, project.FormatText(*p))
}

// ExportProjects downloads all projects and settings as a backup file
func (h *Handler) ExportProjects(w http.ResponseWriter, r *http.Request) {
	data, err := h.projects.Export()
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	name := "tillerpro-backup-" + time.Now().Format("2006-01-02") + ".json"
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	w.Write(data)
}

// ImportProjects replaces all projects from a backup file
func (h *Handler) ImportProjects(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		h.writeError(w, r, apperr.Validation("Invalid request body", err))
		return
	}

	n, err := h.projects.Import(data)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"success": true, "imported": n})
}

// GetSettings returns the app settings
func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.projects.Settings())
}

// UpdateSettings merges the posted fields over the current settings
func (h *Handler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	settings := h.projects.Settings()
	if err := decodeJSON(r, &settings); err != nil {
		h.writeError(w, r, err)
		return
	}
	if settings.Units != "imperial" && settings.Units != "metric" {
		h.writeError(w, r, apperr.Validation("units must be imperial or metric", nil))
		return
	}

	if err := h.projects.UpdateSettings(settings); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, settings)
}
