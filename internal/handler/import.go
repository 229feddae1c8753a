package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/msomdec/strikkeguide/internal/acquire"
	"github.com/msomdec/strikkeguide/internal/domain"
	"github.com/msomdec/strikkeguide/internal/service"
)

// ImportHandler turns uploaded files and pasted text into pattern documents.
type ImportHandler struct {
	imports *service.ImportService
}

// NewImportHandler creates a new ImportHandler.
func NewImportHandler(imports *service.ImportService) *ImportHandler {
	return &ImportHandler{imports: imports}
}

// HandleImport acquires, extracts and stores an uploaded pattern file.
// POST /api/projects/import (multipart: "file", optional "language")
// Response: 201 {"project": {...}}
func (h *ImportHandler) HandleImport(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, service.MaxUploadSize+1<<20)
	if err := r.ParseMultipartForm(8 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "File too large.")
			return
		}
		writeError(w, http.StatusBadRequest, "Invalid upload.")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "No file provided.")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		slog.Error("read upload", "error", err)
		writeError(w, http.StatusInternalServerError, msgInternal)
		return
	}

	src := acquire.Source{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
		Language:    r.FormValue("language"),
	}
	p, err := h.imports.Import(r.Context(), user.ID, src)
	if err != nil {
		if errors.Is(err, domain.ErrRateLimited) {
			if secs := h.imports.RetryAfter(user.ID); secs > 0 {
				w.Header().Set("Retry-After", strconv.Itoa(secs))
			}
		}
		writeServiceError(w, "import pattern", err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"project": toProjectDTO(p, user.ID)})
}

// HandleExtract previews the document extracted from pasted text.
// POST /api/extract
// Request:  {"text": "..."}
// Response: {"document": {...}}
func (h *ImportHandler) HandleExtract(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text string `json:"text"`
	}
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}
	doc, err := h.imports.Preview(r.Context(), req.Text)
	if err != nil {
		writeServiceError(w, "extract preview", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"document": doc})
}
