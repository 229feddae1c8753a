// Package acquire turns uploaded pattern files into plain text. PDFs are read
// from their embedded text layer when it has content and are rasterised and
// OCRed otherwise; photographed pages go straight to OCR.
package acquire

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"

	"github.com/msomdec/strikkeguide/internal/domain"
)

// Format is the detected kind of an uploaded file.
type Format string

const (
	FormatPDF     Format = "pdf"
	FormatImage   Format = "image"
	FormatHEIC    Format = "heic"
	FormatText    Format = "text"
	FormatUnknown Format = "unknown"
)

// Methods recorded in Result.Method.
const (
	MethodText     = "text"
	MethodPDFText  = "pdf-text"
	MethodPDFOCR   = "pdf-ocr"
	MethodImageOCR = "image-ocr"
)

// Source is one file to acquire text from.
type Source struct {
	Filename    string
	ContentType string
	Data        []byte
	// Language is an OCR language hint such as "nor"; empty uses the
	// configured default.
	Language string
}

// Result is the text acquired from a Source.
type Result struct {
	Text     string
	Pages    int
	Format   Format
	Method   string
	Language string
	Duration time.Duration
	Warnings []string
}

// Acquirer converts a file to text. Implementations return a
// *domain.AcquisitionError on failure.
type Acquirer interface {
	Acquire(ctx context.Context, src Source) (Result, error)
}

type Config struct {
	Pdftoppm  string // binary name or absolute path; empty -> "pdftoppm"
	Tesseract string // binary name or absolute path; empty -> "tesseract"

	TesseractLang string // default "nor"
	DPI           int    // rasterisation DPI for scanned PDFs, default 300
	MaxPages      int    // 0 = no limit

	// HeicConverter is one of heif-convert, magick or sips. Empty disables
	// HEIC support.
	HeicConverter string

	// MinTextLayerChars is the amount of non-space text a PDF text layer
	// needs before OCR is skipped. Default 20.
	MinTextLayerChars int

	// Timeout bounds a whole acquisition. 0 = no limit.
	Timeout time.Duration
}

// Service is the default Acquirer backed by the PDF text layer, pdftoppm and
// tesseract.
type Service struct {
	cfg    Config
	runner Runner
	logger *slog.Logger
}

func New(cfg Config, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Pdftoppm == "" {
		cfg.Pdftoppm = "pdftoppm"
	}
	if cfg.Tesseract == "" {
		cfg.Tesseract = "tesseract"
	}
	if cfg.TesseractLang == "" {
		cfg.TesseractLang = "nor"
	}
	if cfg.DPI <= 0 {
		cfg.DPI = 300
	}
	if cfg.MinTextLayerChars <= 0 {
		cfg.MinTextLayerChars = 20
	}
	return &Service{cfg: cfg, runner: execRunner{logger: logger}, logger: logger}
}

// WithRunner replaces the command runner, for tests.
func (s *Service) WithRunner(r Runner) *Service {
	s.runner = r
	return s
}

// Acquire returns the plain text of src. It blocks until the text is ready,
// ctx is cancelled, or the configured timeout expires; expiry is reported as
// a *domain.AcquisitionError wrapping context.DeadlineExceeded.
func (s *Service) Acquire(ctx context.Context, src Source) (Result, error) {
	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}

	reqID := uuid.NewString()
	start := time.Now()
	format := DetectFormat(src)
	lang := src.Language
	if lang == "" {
		lang = s.cfg.TesseractLang
	}
	log := s.logger.With("req_id", reqID, "file", src.Filename, "format", format)
	log.Debug("acquire.start", "bytes", len(src.Data))

	if len(src.Data) == 0 {
		return Result{}, s.fail(ctx, src, "file is empty", nil)
	}

	var (
		res Result
		err error
	)
	switch format {
	case FormatText:
		res, err = s.acquireText(src)
	case FormatPDF:
		res, err = s.acquirePDF(ctx, src, lang, log)
	case FormatImage:
		res, err = s.acquireImage(ctx, src, lang, false)
	case FormatHEIC:
		res, err = s.acquireImage(ctx, src, lang, true)
	default:
		return Result{}, s.fail(ctx, src, "unsupported file type", nil)
	}
	if err != nil {
		log.Error("acquire.failed", "elapsed_ms", time.Since(start).Milliseconds(), "error", err)
		return Result{}, s.fail(ctx, src, "text extraction failed", err)
	}

	res.Text = norm.NFC.String(res.Text)
	res.Format = format
	res.Language = lang
	res.Duration = time.Since(start)
	if strings.TrimSpace(res.Text) == "" {
		return Result{}, s.fail(ctx, src, "no text found", nil)
	}

	log.Info("acquire.done",
		"method", res.Method,
		"pages", res.Pages,
		"chars", utf8.RuneCountInString(res.Text),
		"warnings", len(res.Warnings),
		"elapsed_ms", res.Duration.Milliseconds(),
	)
	return res, nil
}

// fail builds the typed error. A context error takes precedence over the
// cause so callers can match context.DeadlineExceeded.
func (s *Service) fail(ctx context.Context, src Source, reason string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		reason = "timed out"
		if errors.Is(ctxErr, context.Canceled) {
			reason = "cancelled"
		}
		err = ctxErr
	}
	return &domain.AcquisitionError{Source: src.Filename, Reason: reason, Err: err}
}

func (s *Service) acquireText(src Source) (Result, error) {
	if !utf8.Valid(src.Data) {
		return Result{}, errors.New("text file is not valid UTF-8")
	}
	return Result{Text: string(src.Data), Pages: 1, Method: MethodText}, nil
}

// DetectFormat classifies a source by content sniffing, falling back to the
// declared content type and then the file extension.
func DetectFormat(src Source) Format {
	if bytes.HasPrefix(src.Data, []byte("%PDF-")) {
		return FormatPDF
	}
	if isHEIC(src.Data) {
		return FormatHEIC
	}
	sniffed := http.DetectContentType(src.Data)
	if f := formatForMIME(sniffed); f != FormatUnknown && f != FormatText {
		return f
	}
	if f := formatForMIME(src.ContentType); f != FormatUnknown {
		return f
	}
	switch strings.ToLower(filepath.Ext(src.Filename)) {
	case ".pdf":
		return FormatPDF
	case ".png", ".jpg", ".jpeg", ".tif", ".tiff", ".webp", ".bmp", ".gif":
		return FormatImage
	case ".heic", ".heif":
		return FormatHEIC
	case ".txt", ".md":
		return FormatText
	}
	if strings.HasPrefix(sniffed, "text/plain") {
		return FormatText
	}
	return FormatUnknown
}

func formatForMIME(ct string) Format {
	ct = strings.ToLower(strings.TrimSpace(ct))
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	switch {
	case ct == "application/pdf":
		return FormatPDF
	case ct == "image/heic" || ct == "image/heif":
		return FormatHEIC
	case strings.HasPrefix(ct, "image/"):
		return FormatImage
	case ct == "text/plain" || ct == "text/markdown":
		return FormatText
	}
	return FormatUnknown
}

// isHEIC looks for an ftyp box with a HEIF brand.
func isHEIC(data []byte) bool {
	if len(data) < 12 || string(data[4:8]) != "ftyp" {
		return false
	}
	switch string(data[8:12]) {
	case "heic", "heix", "hevc", "hevx", "mif1", "msf1":
		return true
	}
	return false
}

func (f Format) String() string { return string(f) }

func pageWarning(page int, err error) string {
	return fmt.Sprintf("page %d: %v", page, err)
}
