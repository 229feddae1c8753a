package handler

import (
	"net/http"
	"strconv"

	"github.com/msomdec/strikkeguide/internal/domain"
	"github.com/msomdec/strikkeguide/internal/service"
)

// ProgressHandler serves rendered steps, the progress cursor and counters.
type ProgressHandler struct {
	progress *service.ProgressService
}

// NewProgressHandler creates a new ProgressHandler.
func NewProgressHandler(progress *service.ProgressService) *ProgressHandler {
	return &ProgressHandler{progress: progress}
}

// HandleStep returns one step resolved for a size.
// GET /api/projects/{id}/steps/{index}?size=M
// Response: {"step": {"index", "title", "text", "size", "unresolved"}}
func (h *ProgressHandler) HandleStep(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid project ID.")
		return
	}
	index, err := strconv.Atoi(r.PathValue("index"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid step index.")
		return
	}
	step, err := h.progress.RenderStep(r.Context(), viewerID(r), id, index, r.URL.Query().Get("size"))
	if err != nil {
		writeServiceError(w, "render step", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"step": step})
}

// HandleSetProgress stores the selected size and current step.
// PUT /api/projects/{id}/progress
// Request: {"selectedSize": "M", "currentStep": 2}
func (h *ProgressHandler) HandleSetProgress(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid project ID.")
		return
	}
	var req struct {
		SelectedSize string `json:"selectedSize"`
		CurrentStep  int    `json:"currentStep"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}
	p, err := h.progress.SetProgress(r.Context(), user.ID, id, req.SelectedSize, req.CurrentStep)
	if err != nil {
		writeServiceError(w, "set progress", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"selectedSize": p.SelectedSize, "currentStep": p.CurrentStep, "status": p.Status})
}

// HandleSetStatus records how far the owner has come with a project.
// PUT /api/projects/{id}/status
// Request: {"status": "Ferdig"}
func (h *ProgressHandler) HandleSetStatus(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid project ID.")
		return
	}
	var req struct {
		Status domain.ProjectStatus `json:"status"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}
	p, err := h.progress.SetStatus(r.Context(), user.ID, id, req.Status)
	if err != nil {
		writeServiceError(w, "set status", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": p.Status})
}

// HandleAddCounter attaches a counter to a step.
// POST /api/projects/{id}/counters
// Request: {"stepIndex": 1, "name": "Rader"}
func (h *ProgressHandler) HandleAddCounter(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid project ID.")
		return
	}
	var req struct {
		StepIndex int    `json:"stepIndex"`
		Name      string `json:"name"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}
	c, err := h.progress.AddCounter(r.Context(), user.ID, id, req.StepIndex, req.Name)
	if err != nil {
		writeServiceError(w, "add counter", err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"counter": toCounterDTO(*c)})
}

// HandleIncrement returns a handler that moves a counter by delta.
// POST /api/counters/{id}/increment and /decrement
func (h *ProgressHandler) HandleIncrement(delta int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := UserFromContext(r.Context())
		id, ok := pathID(r, "id")
		if !ok {
			writeError(w, http.StatusBadRequest, "Invalid counter ID.")
			return
		}
		c, err := h.progress.Increment(r.Context(), user.ID, id, delta)
		if err != nil {
			writeServiceError(w, "update counter", err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"counter": toCounterDTO(*c)})
	}
}

// HandleDeleteCounter removes a counter.
// DELETE /api/counters/{id}
func (h *ProgressHandler) HandleDeleteCounter(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid counter ID.")
		return
	}
	if err := h.progress.DeleteCounter(r.Context(), user.ID, id); err != nil {
		writeServiceError(w, "delete counter", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
