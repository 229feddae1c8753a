package handler

import (
	"log/slog"
	"net/http"

	"github.com/msomdec/strikkeguide/internal/domain"
	"github.com/msomdec/strikkeguide/internal/service"
	"github.com/msomdec/strikkeguide/internal/view"
)

// HomeHandler renders the landing page.
type HomeHandler struct {
	projects *service.ProjectService
}

// NewHomeHandler creates a new HomeHandler.
func NewHomeHandler(projects *service.ProjectService) *HomeHandler {
	return &HomeHandler{projects: projects}
}

// HandleHome lists published patterns and the visitor's own projects.
func (h *HomeHandler) HandleHome(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	published, err := h.projects.ListPublished(r.Context())
	if err != nil {
		slog.Error("list published", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	displayName := ""
	var own []domain.Project
	if user := UserFromContext(r.Context()); user != nil {
		displayName = user.DisplayName
		if own, err = h.projects.ListByUser(r.Context(), user.ID); err != nil {
			slog.Error("list own projects", "error", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
	}

	if err := view.HomePage(displayName, published, own).Render(r.Context(), w); err != nil {
		slog.Error("render home", "error", err)
	}
}
