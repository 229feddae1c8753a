package acquire

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func (s *Service) acquireImage(ctx context.Context, src Source, lang string, heic bool) (Result, error) {
	tmpDir, err := os.MkdirTemp("", "strikkeguide-img-*")
	if err != nil {
		return Result{}, err
	}
	defer os.RemoveAll(tmpDir)

	ext := strings.ToLower(filepath.Ext(src.Filename))
	if ext == "" {
		ext = ".img"
	}
	path := filepath.Join(tmpDir, "in"+ext)
	if err := os.WriteFile(path, src.Data, 0o600); err != nil {
		return Result{}, err
	}

	var warns []string
	if heic {
		out, w, err := convertHEIC(ctx, s.runner, s.cfg.HeicConverter, path, tmpDir)
		warns = append(warns, w...)
		if err != nil {
			return Result{Warnings: warns}, err
		}
		path = out
	}

	txt, err := s.tesseract(ctx, path, lang)
	if err != nil {
		return Result{Warnings: warns}, err
	}
	return Result{Text: txt, Pages: 1, Method: MethodImageOCR, Warnings: warns}, nil
}

// tesseract runs `tesseract <file> stdout -l <lang>`.
func (s *Service) tesseract(ctx context.Context, path, lang string) (string, error) {
	out, errb, err := s.runner.Run(ctx, s.cfg.Tesseract, path, "stdout", "-l", lang)
	if err != nil {
		return "", fmt.Errorf("tesseract: %w: %s", err, truncate(strings.TrimSpace(string(errb)), 512))
	}
	// Tesseract ends each page with a form feed.
	return strings.TrimRight(string(out), "\f\n "), nil
}

// convertHEIC converts a HEIC/HEIF photo to PNG with the configured tool:
// heif-convert, magick or sips.
func convertHEIC(ctx context.Context, r Runner, converter, in, dir string) (string, []string, error) {
	out := filepath.Join(dir, "page.png")

	var args []string
	switch converter {
	case "heif-convert", "magick":
		args = []string{in, out}
	case "sips":
		args = []string{"-s", "format", "png", in, "--out", out}
	default:
		return "", nil, fmt.Errorf("HEIC not supported: set HEIC_CONVERTER to one of heif-convert, magick, sips")
	}
	if _, errb, err := r.Run(ctx, converter, args...); err != nil {
		return "", []string{string(errb)}, fmt.Errorf("%s: %w", converter, err)
	}
	if _, err := os.Stat(out); err != nil {
		return "", nil, fmt.Errorf("HEIC conversion produced no output: %w", err)
	}
	return out, nil, nil
}
