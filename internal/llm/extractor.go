// Package llm delegates segmentation and value extraction to a hosted
// language model and checks the reply against the PatternDocument schema.
package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/msomdec/strikkeguide/internal/domain"
	"github.com/msomdec/strikkeguide/internal/extract"
)

// MaxInputChars caps the pattern text sent to the model.
const MaxInputChars = 6000

// Extractor turns pattern text into a PatternDocument through a Completer.
type Extractor struct {
	completer Completer
	timeout   time.Duration
	logger    *slog.Logger
}

// NewExtractor returns an extractor. timeout bounds each model call; 0 means
// only ctx bounds it.
func NewExtractor(c Completer, timeout time.Duration, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{completer: c, timeout: timeout, logger: logger}
}

// Extract asks the model for the document structure. Transport failures are
// returned as they are; a reply that is not JSON or does not match the schema
// is a *domain.SchemaViolationError.
func (e *Extractor) Extract(ctx context.Context, text string) (*domain.PatternDocument, error) {
	text = extract.NormalizeText(text)
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: no pattern text", domain.ErrInvalidInput)
	}

	reqID := uuid.NewString()
	log := e.logger.With("req_id", reqID)
	input, truncated := truncateRunes(text, MaxInputChars)
	if truncated {
		log.Info("llm.input_truncated", "chars", utf8.RuneCountInString(text), "max", MaxInputChars)
	}

	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	start := time.Now()
	reply, err := e.completer.Complete(ctx, Prompt{System: systemPrompt, User: input})
	if err != nil {
		log.Error("llm.request_failed", "elapsed_ms", time.Since(start).Milliseconds(), "error", err)
		return nil, fmt.Errorf("llm request: %w", err)
	}
	log.Debug("llm.reply", "elapsed_ms", time.Since(start).Milliseconds(), "bytes", len(reply))

	doc, err := decodeReply(reply)
	if err != nil {
		log.Warn("llm.schema_violation", "error", err)
		return nil, err
	}
	log.Info("llm.done", "title", doc.Title, "steps", len(doc.Steps), "sizes", len(doc.Sizes))
	return doc, nil
}

// decodeReply validates and decodes a model reply into a normalized
// document.
func decodeReply(reply string) (*domain.PatternDocument, error) {
	data := []byte(stripCodeFence(reply))

	problems, err := validateDocumentJSON(data)
	if err != nil {
		return nil, &domain.SchemaViolationError{Err: err}
	}
	if len(problems) > 0 {
		return nil, &domain.SchemaViolationError{Problems: problems}
	}

	var doc domain.PatternDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, &domain.SchemaViolationError{Err: err}
	}
	extract.Normalize(&doc)
	if problems := extract.Validate(&doc); len(problems) > 0 {
		return nil, &domain.SchemaViolationError{Problems: problems}
	}
	return &doc, nil
}

// stripCodeFence removes a surrounding ```json fence some models add even in
// JSON mode.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func truncateRunes(s string, max int) (string, bool) {
	if utf8.RuneCountInString(s) <= max {
		return s, false
	}
	n := 0
	for i := range s {
		if n == max {
			return s[:i], true
		}
		n++
	}
	return s, false
}
