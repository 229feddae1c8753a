package acquire

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/ledongthuc/pdf"
)

func (s *Service) acquirePDF(ctx context.Context, src Source, lang string, log *slog.Logger) (Result, error) {
	text, pages, warns, err := pdfTextLayer(src.Data, s.cfg.MaxPages)
	if err != nil {
		log.Warn("acquire.pdf_text_failed", "error", err)
		warns = append(warns, "text layer: "+err.Error())
	}
	if err == nil && nonSpaceLen(text) >= s.cfg.MinTextLayerChars {
		return Result{Text: text, Pages: pages, Method: MethodPDFText, Warnings: warns}, nil
	}

	log.Debug("acquire.pdf_ocr_fallback", "text_layer_chars", nonSpaceLen(text))
	res, err := s.pdfOCR(ctx, src.Data, lang)
	res.Warnings = append(warns, res.Warnings...)
	return res, err
}

// pdfTextLayer reads the embedded text of every page. Pages that fail to
// decode are skipped with a warning.
func pdfTextLayer(data []byte, maxPages int) (text string, pages int, warnings []string, err error) {
	defer func() {
		// The PDF parser panics on some malformed files.
		if r := recover(); r != nil {
			err = fmt.Errorf("malformed pdf: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", 0, nil, fmt.Errorf("open pdf: %w", err)
	}

	pages = reader.NumPage()
	if maxPages > 0 && pages > maxPages {
		warnings = append(warnings, fmt.Sprintf("only the first %d of %d pages were read", maxPages, pages))
		pages = maxPages
	}

	var b strings.Builder
	for i := 1; i <= pages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		t, err := page.GetPlainText(nil)
		if err != nil {
			warnings = append(warnings, pageWarning(i, err))
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(t)
	}
	return b.String(), pages, warnings, nil
}

// pdfOCR rasterises the document with pdftoppm and OCRs each page image.
func (s *Service) pdfOCR(ctx context.Context, data []byte, lang string) (Result, error) {
	tmpDir, err := os.MkdirTemp("", "strikkeguide-pdf-*")
	if err != nil {
		return Result{}, err
	}
	defer os.RemoveAll(tmpDir)

	in := filepath.Join(tmpDir, "in.pdf")
	if err := os.WriteFile(in, data, 0o600); err != nil {
		return Result{}, err
	}

	prefix := filepath.Join(tmpDir, "page")
	args := []string{"-r", strconv.Itoa(s.cfg.DPI), "-png"}
	if s.cfg.MaxPages > 0 {
		args = append(args, "-l", strconv.Itoa(s.cfg.MaxPages))
	}
	args = append(args, in, prefix)
	// pdftoppm -r 300 -png [-l N] in.pdf tmp/page
	if _, errb, err := s.runner.Run(ctx, s.cfg.Pdftoppm, args...); err != nil {
		return Result{Warnings: []string{string(errb)}}, fmt.Errorf("pdftoppm: %w", err)
	}

	matches, _ := filepath.Glob(prefix + "-*.png")
	sort.Strings(matches)
	if len(matches) == 0 {
		return Result{}, fmt.Errorf("pdftoppm produced no page images")
	}

	var (
		b     strings.Builder
		warns []string
	)
	for i, img := range matches {
		txt, err := s.tesseract(ctx, img, lang)
		if err != nil {
			if ctx.Err() != nil {
				return Result{}, ctx.Err()
			}
			warns = append(warns, pageWarning(i+1, err))
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(txt)
	}
	return Result{Text: b.String(), Pages: len(matches), Method: MethodPDFOCR, Warnings: warns}, nil
}

func nonSpaceLen(s string) int {
	n := 0
	for _, r := range s {
		if r != ' ' && r != '\n' && r != '\t' && r != '\r' && r != '\f' {
			n++
		}
	}
	return n
}
