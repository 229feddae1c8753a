package extract

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/msomdec/strikkeguide/internal/domain"
)

// Pipeline is the deterministic text-to-document extractor.
type Pipeline struct {
	opts   Options
	logger *slog.Logger
}

// NewPipeline returns a pipeline using opts. A nil logger uses slog.Default.
func NewPipeline(opts Options, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{opts: opts, logger: logger}
}

// Options returns the vocabulary the pipeline was built with.
func (p *Pipeline) Options() Options { return p.opts }

// Extract assembles a PatternDocument from pattern text: sizes, auxiliary
// fields, then one step per section with its own placeholder numbering.
// Missing sizes are not an error; the document is then size-insensitive and
// keeps every number literal.
func (p *Pipeline) Extract(ctx context.Context, text string) (*domain.PatternDocument, error) {
	text = NormalizeText(text)
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: no pattern text", domain.ErrInvalidInput)
	}

	sizes := ExtractSizes(text, p.opts)
	fields := ScanFields(text, sizes, p.opts)

	doc := &domain.PatternDocument{
		Title:        fields.Title,
		Description:  fields.Description,
		Difficulty:   fields.Difficulty,
		Sizes:        sizes,
		Gauge:        fields.Gauge,
		Needles:      fields.Needles,
		Yarn:         fields.Yarn,
		YarnAmounts:  fields.YarnAmounts,
		Techniques:   fields.Techniques,
		Measurements: fields.Measurements,
	}

	var placeholders, underfilled int
	for _, sec := range Segment(text, p.opts) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		res := ExtractValues(sec.Body, sizes)
		placeholders += len(res.Values)
		underfilled += res.Underfilled
		doc.Steps = append(doc.Steps, domain.Step{
			Title:              sec.Title,
			Description:        res.Text,
			SizeSpecificValues: res.Values,
		})
	}

	Normalize(doc)

	p.logger.Debug("extract.done",
		"title", doc.Title,
		"sizes", len(doc.Sizes),
		"steps", len(doc.Steps),
		"placeholders", placeholders,
		"underfilled", underfilled,
	)
	if len(sizes) == 0 {
		p.logger.Info("extract.sizes_missing", "title", doc.Title)
	}
	return doc, nil
}
