package handler

import (
	"fmt"
	"mime"
	"net/http"

	"github.com/msomdec/strikkeguide/internal/domain"
	"github.com/msomdec/strikkeguide/internal/service"
)

// ProjectHandler serves project CRUD, publishing and copying.
type ProjectHandler struct {
	projects *service.ProjectService
}

// NewProjectHandler creates a new ProjectHandler.
func NewProjectHandler(projects *service.ProjectService) *ProjectHandler {
	return &ProjectHandler{projects: projects}
}

// HandleCreate stores a hand-authored document.
// POST /api/projects
// Request:  PatternDocument
// Response: 201 {"project": {...}}
func (h *ProjectHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	var doc domain.PatternDocument
	if err := readJSON(r, &doc); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}
	p, err := h.projects.Create(r.Context(), user.ID, &doc)
	if err != nil {
		writeServiceError(w, "create project", err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"project": toProjectDTO(p, user.ID)})
}

// HandleList returns the signed-in user's projects.
// GET /api/projects
func (h *ProjectHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	projects, err := h.projects.ListByUser(r.Context(), user.ID)
	if err != nil {
		writeServiceError(w, "list projects", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"projects": toProjectSummaries(projects)})
}

// HandleListPublished returns the published pattern catalogue.
// GET /api/patterns
func (h *ProjectHandler) HandleListPublished(w http.ResponseWriter, r *http.Request) {
	projects, err := h.projects.ListPublished(r.Context())
	if err != nil {
		writeServiceError(w, "list published", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"patterns": toProjectSummaries(projects)})
}

// HandleGet returns an owned or published project.
// GET /api/projects/{id}
func (h *ProjectHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid project ID.")
		return
	}
	viewer := viewerID(r)
	p, err := h.projects.Get(r.Context(), viewer, id)
	if err != nil {
		writeServiceError(w, "get project", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"project": toProjectDTO(p, viewer)})
}

// HandleUpdate replaces the document and published flag.
// PUT /api/projects/{id}
// Request: {"document": {...}, "published": bool}
func (h *ProjectHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid project ID.")
		return
	}
	var req struct {
		Document  *domain.PatternDocument `json:"document"`
		Published bool                    `json:"published"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}
	p, err := h.projects.Update(r.Context(), user.ID, id, req.Document, req.Published)
	if err != nil {
		writeServiceError(w, "update project", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"project": toProjectDTO(p, user.ID)})
}

// HandleDelete removes an owned project.
// DELETE /api/projects/{id}
func (h *ProjectHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid project ID.")
		return
	}
	if err := h.projects.Delete(r.Context(), user.ID, id); err != nil {
		writeServiceError(w, "delete project", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleCopy copies a published or owned pattern into a new private project.
// POST /api/projects/{id}/copy
func (h *ProjectHandler) HandleCopy(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid project ID.")
		return
	}
	p, err := h.projects.Copy(r.Context(), user.ID, id)
	if err != nil {
		writeServiceError(w, "copy project", err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"project": toProjectDTO(p, user.ID)})
}

// HandleOriginal streams the uploaded file back to its owner.
// GET /api/projects/{id}/original
func (h *ProjectHandler) HandleOriginal(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid project ID.")
		return
	}
	data, orig, err := h.projects.Original(r.Context(), user.ID, id)
	if err != nil {
		writeServiceError(w, "get original", err)
		return
	}
	w.Header().Set("Content-Type", orig.ContentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": orig.Filename}))
	w.Header().Set("Content-Length", fmt.Sprint(len(data)))
	w.Write(data)
}
