package acquire

import (
	"context"
	"errors"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/msomdec/strikkeguide/internal/domain"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

type fakeRunner struct {
	mu    sync.Mutex
	calls [][]string
	fn    func(ctx context.Context, name string, args []string) ([]byte, []byte, error)
}

func (f *fakeRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	f.mu.Lock()
	f.calls = append(f.calls, append([]string{name}, args...))
	f.mu.Unlock()
	return f.fn(ctx, name, args)
}

func newService(cfg Config, fn func(ctx context.Context, name string, args []string) ([]byte, []byte, error)) (*Service, *fakeRunner) {
	r := &fakeRunner{fn: fn}
	return New(cfg, nil).WithRunner(r), r
}

func TestAcquire_PlainText(t *testing.T) {
	s, r := newService(Config{}, nil)
	res, err := s.Acquire(context.Background(), Source{Filename: "genser.txt", Data: []byte("Størrelser: S, M\nLegg opp 40 (44) masker")})
	require.NoError(t, err)

	assert.Equal(t, MethodText, res.Method)
	assert.Equal(t, FormatText, res.Format)
	assert.Contains(t, res.Text, "Legg opp 40 (44) masker")
	assert.Empty(t, r.calls)
}

func TestAcquire_ImageOCR(t *testing.T) {
	s, r := newService(Config{}, func(_ context.Context, name string, args []string) ([]byte, []byte, error) {
		return []byte("Legg opp 40 masker\n\f"), nil, nil
	})
	res, err := s.Acquire(context.Background(), Source{Filename: "side.png", Data: pngHeader})
	require.NoError(t, err)

	assert.Equal(t, "Legg opp 40 masker", res.Text)
	assert.Equal(t, MethodImageOCR, res.Method)
	assert.Equal(t, "nor", res.Language)
	require.Len(t, r.calls, 1)
	assert.Equal(t, "tesseract", r.calls[0][0])
	assert.Equal(t, []string{"stdout", "-l", "nor"}, r.calls[0][2:])
}

func TestAcquire_LanguageHint(t *testing.T) {
	s, r := newService(Config{TesseractLang: "nor"}, func(context.Context, string, []string) ([]byte, []byte, error) {
		return []byte("Cast on 40 stitches"), nil, nil
	})
	_, err := s.Acquire(context.Background(), Source{Filename: "page.jpg", ContentType: "image/jpeg", Data: []byte{0xFF, 0xD8, 0xFF, 0xE0}, Language: "eng"})
	require.NoError(t, err)
	assert.Equal(t, "eng", r.calls[0][len(r.calls[0])-1])
}

func TestAcquire_BrokenPDFFallsBackToOCR(t *testing.T) {
	s, r := newService(Config{}, func(_ context.Context, name string, args []string) ([]byte, []byte, error) {
		switch name {
		case "pdftoppm":
			prefix := args[len(args)-1]
			for _, p := range []string{"-1.png", "-2.png"} {
				if err := os.WriteFile(prefix+p, pngHeader, 0o600); err != nil {
					return nil, nil, err
				}
			}
			return nil, nil, nil
		case "tesseract":
			if strings.HasSuffix(args[0], "-1.png") {
				return []byte("Side en"), nil, nil
			}
			return []byte("Side to"), nil, nil
		}
		return nil, nil, errors.New("unexpected command " + name)
	})

	res, err := s.Acquire(context.Background(), Source{Filename: "oppskrift.pdf", Data: []byte("%PDF-1.4\nnot really a pdf")})
	require.NoError(t, err)

	assert.Equal(t, MethodPDFOCR, res.Method)
	assert.Equal(t, 2, res.Pages)
	assert.Equal(t, "Side en\n\nSide to", res.Text)
	assert.NotEmpty(t, res.Warnings)
	assert.Equal(t, "pdftoppm", r.calls[0][0])
}

func TestAcquire_Timeout(t *testing.T) {
	s, _ := newService(Config{Timeout: 20 * time.Millisecond}, func(ctx context.Context, _ string, _ []string) ([]byte, []byte, error) {
		<-ctx.Done()
		return nil, nil, ctx.Err()
	})

	_, err := s.Acquire(context.Background(), Source{Filename: "side.png", Data: pngHeader})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrAcquisition)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	var acqErr *domain.AcquisitionError
	require.ErrorAs(t, err, &acqErr)
	assert.Equal(t, "timed out", acqErr.Reason)
}

func TestAcquire_Failures(t *testing.T) {
	blank := func(context.Context, string, []string) ([]byte, []byte, error) { return []byte(" \n"), nil, nil }
	tests := []struct {
		name   string
		cfg    Config
		src    Source
		reason string
	}{
		{"empty", Config{}, Source{Filename: "tom.pdf"}, "file is empty"},
		{"unsupported", Config{}, Source{Filename: "data.bin", Data: []byte{0x00, 0x01, 0x02, 0x03}}, "unsupported file type"},
		{"no text", Config{}, Source{Filename: "blank.png", Data: pngHeader}, "no text found"},
		{"heic without converter", Config{}, Source{Filename: "bilde.heic", Data: []byte("\x00\x00\x00\x18ftypheic\x00\x00\x00\x00")}, "text extraction failed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newService(tt.cfg, blank)
			_, err := s.Acquire(context.Background(), tt.src)

			var acqErr *domain.AcquisitionError
			require.ErrorAs(t, err, &acqErr)
			assert.Equal(t, tt.reason, acqErr.Reason)
			assert.Equal(t, tt.src.Filename, acqErr.Source)
			assert.ErrorIs(t, err, domain.ErrAcquisition)
		})
	}
}

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		src  Source
		want Format
	}{
		{Source{Data: []byte("%PDF-1.7")}, FormatPDF},
		{Source{Data: pngHeader}, FormatImage},
		{Source{Data: []byte("\x00\x00\x00\x18ftypheic")}, FormatHEIC},
		{Source{Filename: "x.txt", Data: []byte("hei")}, FormatText},
		{Source{ContentType: "application/pdf", Data: []byte{0x01}}, FormatPDF},
		{Source{ContentType: "image/heic; charset=binary", Data: []byte{0x01}}, FormatHEIC},
		{Source{Filename: "SCAN.JPEG", Data: []byte{0x01}}, FormatImage},
		{Source{Data: []byte("bare tekst")}, FormatText},
		{Source{Filename: "x.zip", Data: []byte{0x50, 0x4B, 0x03, 0x04}}, FormatUnknown},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, DetectFormat(tt.src), "%+v", tt.src)
	}
}
