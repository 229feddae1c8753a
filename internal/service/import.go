package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/google/uuid"
	"github.com/msomdec/strikkeguide/internal/acquire"
	"github.com/msomdec/strikkeguide/internal/domain"
)

// MaxUploadSize is the largest pattern file accepted for import.
const MaxUploadSize = 20 << 20

// ExtractMode selects how pattern text becomes a document.
type ExtractMode string

const (
	// ModeAuto uses the model when configured and falls back to the
	// deterministic pipeline when the model cannot be reached.
	ModeAuto          ExtractMode = "auto"
	ModeDeterministic ExtractMode = "deterministic"
	ModeLLM           ExtractMode = "llm"
)

// Valid reports whether m is a known mode.
func (m ExtractMode) Valid() bool {
	switch m {
	case ModeAuto, ModeDeterministic, ModeLLM:
		return true
	}
	return false
}

// TextExtractor turns pattern text into a document. Both the deterministic
// pipeline and the model-backed extractor satisfy it.
type TextExtractor interface {
	Extract(ctx context.Context, text string) (*domain.PatternDocument, error)
}

// ExtractionService acquires text from files and extracts documents from it.
type ExtractionService struct {
	acquirer acquire.Acquirer
	pipeline TextExtractor
	model    TextExtractor
	mode     ExtractMode
	logger   *slog.Logger
}

// NewExtractionService creates an ExtractionService. model may be nil when
// no remote model is configured; ModeLLM then fails every extraction.
func NewExtractionService(acquirer acquire.Acquirer, pipeline, model TextExtractor, mode ExtractMode, logger *slog.Logger) *ExtractionService {
	if logger == nil {
		logger = slog.Default()
	}
	if !mode.Valid() {
		mode = ModeAuto
	}
	return &ExtractionService{acquirer: acquirer, pipeline: pipeline, model: model, mode: mode, logger: logger}
}

// Mode returns the configured extraction mode.
func (s *ExtractionService) Mode() ExtractMode { return s.mode }

// ExtractText extracts a document from already acquired text. Failures other
// than invalid input and schema violations are reported as
// *domain.ExtractionError.
func (s *ExtractionService) ExtractText(ctx context.Context, text string) (*domain.PatternDocument, error) {
	switch s.mode {
	case ModeDeterministic:
		return s.extractPipeline(ctx, text)
	case ModeLLM:
		if s.model == nil {
			return nil, &domain.ExtractionError{Reason: "no language model configured"}
		}
		doc, err := s.model.Extract(ctx, text)
		if err != nil {
			return nil, extractionFailure("language model", err)
		}
		return doc, nil
	}

	if s.model == nil {
		return s.extractPipeline(ctx, text)
	}
	doc, err := s.model.Extract(ctx, text)
	switch {
	case err == nil:
		return doc, nil
	case errors.Is(err, domain.ErrSchemaViolation), errors.Is(err, domain.ErrInvalidInput):
		return nil, err
	case ctx.Err() != nil:
		return nil, extractionFailure("language model", ctx.Err())
	}
	s.logger.Warn("extract.llm_fallback", "error", err)
	return s.extractPipeline(ctx, text)
}

func (s *ExtractionService) extractPipeline(ctx context.Context, text string) (*domain.PatternDocument, error) {
	doc, err := s.pipeline.Extract(ctx, text)
	if err != nil {
		return nil, extractionFailure("pipeline", err)
	}
	return doc, nil
}

// extractionFailure passes caller-facing errors through and wraps the rest.
func extractionFailure(stage string, err error) error {
	if errors.Is(err, domain.ErrSchemaViolation) || errors.Is(err, domain.ErrInvalidInput) {
		return err
	}
	return &domain.ExtractionError{Reason: stage + " failed", Err: err}
}

// ExtractFile acquires the text of src and extracts a document from it.
func (s *ExtractionService) ExtractFile(ctx context.Context, src acquire.Source) (*domain.PatternDocument, acquire.Result, error) {
	res, err := s.acquirer.Acquire(ctx, src)
	if err != nil {
		return nil, res, err
	}
	doc, err := s.ExtractText(ctx, res.Text)
	if err != nil {
		return nil, res, err
	}
	return doc, res, nil
}

// ImportService turns an uploaded pattern file into a stored project.
type ImportService struct {
	extraction *ExtractionService
	projects   *ProjectService
	files      domain.FileStore
	limiter    *TokenBucket
	logger     *slog.Logger
}

// NewImportService creates an ImportService. limiter may be nil to disable
// per-user rate limiting.
func NewImportService(extraction *ExtractionService, projects *ProjectService, files domain.FileStore, limiter *TokenBucket, logger *slog.Logger) *ImportService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ImportService{extraction: extraction, projects: projects, files: files, limiter: limiter, logger: logger}
}

// Preview extracts a document from pasted text without storing anything.
func (s *ImportService) Preview(ctx context.Context, text string) (*domain.PatternDocument, error) {
	return s.extraction.ExtractText(ctx, text)
}

// Import acquires, extracts and stores a pattern file as a new project
// owned by userID. The original bytes are kept in the file store. Nothing
// is stored when any stage fails.
func (s *ImportService) Import(ctx context.Context, userID int64, src acquire.Source) (*domain.Project, error) {
	if len(src.Data) > MaxUploadSize {
		return nil, fmt.Errorf("%w: file exceeds %d MB", domain.ErrInvalidInput, MaxUploadSize>>20)
	}
	if s.limiter != nil && !s.limiter.Allow(limiterKey(userID)) {
		return nil, domain.ErrRateLimited
	}

	log := s.logger.With("user_id", userID, "filename", src.Filename)
	doc, res, err := s.extraction.ExtractFile(ctx, src)
	if err != nil {
		log.Warn("import.failed", "error", err)
		return nil, err
	}

	key := "originals/" + uuid.NewString()
	if err := s.files.Save(ctx, key, src.Data); err != nil {
		return nil, fmt.Errorf("save original: %w", err)
	}
	original := &domain.OriginalFile{
		Filename:    src.Filename,
		ContentType: contentTypeFor(src, res.Format),
		StorageKey:  key,
	}

	p, err := s.projects.CreateImported(ctx, userID, doc, original)
	if err != nil {
		if delErr := s.files.Delete(ctx, key); delErr != nil {
			log.Error("import.cleanup_failed", "key", key, "error", delErr)
		}
		return nil, err
	}
	log.Info("import.done", "project_id", p.ID, "method", res.Method, "pages", res.Pages, "steps", len(p.Document.Steps))
	return p, nil
}

// RetryAfter reports how long userID must wait before the next import.
func (s *ImportService) RetryAfter(userID int64) int {
	if s.limiter == nil {
		return 0
	}
	return int(s.limiter.RetryAfter(limiterKey(userID)).Seconds())
}

func limiterKey(userID int64) string {
	return "import:" + strconv.FormatInt(userID, 10)
}

func contentTypeFor(src acquire.Source, f acquire.Format) string {
	switch f {
	case acquire.FormatPDF:
		return "application/pdf"
	case acquire.FormatText:
		return "text/plain; charset=utf-8"
	case acquire.FormatHEIC:
		return "image/heic"
	}
	if src.ContentType != "" {
		return src.ContentType
	}
	return "application/octet-stream"
}
