package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/msomdec/strikkeguide/internal/domain"
	"github.com/msomdec/strikkeguide/internal/service"
	"github.com/msomdec/strikkeguide/internal/view"
	"github.com/starfederation/datastar-go/datastar"
)

// GuideHandler serves the interactive knitting guide and its exports.
type GuideHandler struct {
	projects *service.ProjectService
	progress *service.ProgressService
}

// NewGuideHandler creates a new GuideHandler.
func NewGuideHandler(projects *service.ProjectService, progress *service.ProgressService) *GuideHandler {
	return &GuideHandler{projects: projects, progress: progress}
}

// guideSignals are the Datastar signals the guide page keeps in the browser.
type guideSignals struct {
	Size string `json:"size"`
	Step int    `json:"step"`
}

// HandlePage renders the full guide page.
// GET /projects/{id}?size=M
func (h *GuideHandler) HandlePage(w http.ResponseWriter, r *http.Request) {
	p, ok := h.load(w, r)
	if !ok {
		return
	}
	size, step := p.Document.EffectiveSizes()[0], 0
	if p.UserID == viewerID(r) {
		size, step = p.SelectedSize, p.CurrentStep
	}
	if q := r.URL.Query().Get("size"); q != "" {
		size = q
	}

	var rendered service.RenderedStep
	if step < len(p.Document.Steps) {
		rendered = service.ResolveStep(p.Document.Steps[step], size)
		rendered.Index = step
	} else {
		rendered = service.RenderedStep{Size: size}
	}

	displayName := ""
	if u := UserFromContext(r.Context()); u != nil {
		displayName = u.DisplayName
	}
	if err := view.GuidePage(displayName, p, rendered).Render(r.Context(), w); err != nil {
		slog.Error("render guide page", "error", err)
	}
}

// HandleFragment patches the current step over SSE. The owner's size and
// step are saved as progress; other viewers only browse.
// GET /projects/{id}/guide
func (h *GuideHandler) HandleFragment(w http.ResponseWriter, r *http.Request) {
	p, ok := h.load(w, r)
	if !ok {
		return
	}
	var signals guideSignals
	if err := datastar.ReadSignals(r, &signals); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid signals.")
		return
	}
	viewer := viewerID(r)
	if signals.Size == "" {
		signals.Size = defaultSize(p, viewer)
	}
	if p.UserID == viewer {
		saved, err := h.progress.SetProgress(r.Context(), viewer, p.ID, signals.Size, signals.Step)
		switch {
		case err == nil:
			signals.Step = saved.CurrentStep
		case errors.Is(err, domain.ErrInvalidInput):
			// Unknown size: render with visible tokens, keep stored progress.
		default:
			writeServiceError(w, "save guide progress", err)
			return
		}
	}

	total := len(p.Document.Steps)
	signals.Step = min(max(signals.Step, 0), max(total-1, 0))

	sse := datastar.NewSSE(w, r)
	if total == 0 {
		sse.PatchElementTempl(view.GuideStep(service.RenderedStep{Size: signals.Size}, 0), datastar.WithSelectorID(view.GuideStepID))
		return
	}
	rendered := service.ResolveStep(p.Document.Steps[signals.Step], signals.Size)
	rendered.Index = signals.Step
	sse.PatchElementTempl(view.GuideStep(rendered, total), datastar.WithSelectorID(view.GuideStepID))
	sse.MarshalAndPatchSignals(signals)
}

// HandleSizeChart downloads the per-size value chart.
// GET /projects/{id}/sizes.xlsx
func (h *GuideHandler) HandleSizeChart(w http.ResponseWriter, r *http.Request) {
	p, ok := h.load(w, r)
	if !ok {
		return
	}
	data, err := service.SizeChart(&p.Document)
	if err != nil {
		writeServiceError(w, "size chart", err)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="storrelser-`+strconv.FormatInt(p.ID, 10)+`.xlsx"`)
	w.Write(data)
}

// HandlePrint renders a printable page resolved for one size.
// GET /projects/{id}/print?size=M
func (h *GuideHandler) HandlePrint(w http.ResponseWriter, r *http.Request) {
	p, ok := h.load(w, r)
	if !ok {
		return
	}
	size := r.URL.Query().Get("size")
	if size == "" {
		size = defaultSize(p, viewerID(r))
	}
	data, err := service.PrintHTML(&p.Document, size)
	if err != nil {
		writeServiceError(w, "print pattern", err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(data)
}

func (h *GuideHandler) load(w http.ResponseWriter, r *http.Request) (*domain.Project, bool) {
	id, ok := pathID(r, "id")
	if !ok {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return nil, false
	}
	p, err := h.projects.Get(r.Context(), viewerID(r), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			http.Error(w, "Not Found", http.StatusNotFound)
			return nil, false
		}
		slog.Error("load project", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return nil, false
	}
	return p, true
}

// defaultSize is the owner's selected size, or the first size for others.
func defaultSize(p *domain.Project, viewer int64) string {
	if p.UserID == viewer && p.SelectedSize != "" {
		return p.SelectedSize
	}
	return p.Document.EffectiveSizes()[0]
}
