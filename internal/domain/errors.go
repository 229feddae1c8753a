package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound       = errors.New("not found")
	ErrDuplicateEmail = errors.New("email already exists")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrInvalidInput   = errors.New("invalid input")
	ErrRateLimited    = errors.New("too many requests")

	// ErrAcquisition marks failures to turn an uploaded file into text.
	ErrAcquisition = errors.New("could not read the file")
	// ErrSchemaViolation marks structured extraction output that does not
	// match the PatternDocument shape.
	ErrSchemaViolation = errors.New("could not understand the pattern's structure")
	// ErrExtraction marks failures of the extractor itself, such as an
	// unreachable or missing language model.
	ErrExtraction = errors.New("could not extract the pattern")
)

// AcquisitionError reports that a source file could not be converted to text.
// It matches ErrAcquisition and unwraps to the underlying cause, so a timeout
// is detectable with errors.Is(err, context.DeadlineExceeded).
type AcquisitionError struct {
	Source string
	Reason string
	Err    error
}

func (e *AcquisitionError) Error() string {
	msg := "acquire " + e.Source + ": " + e.Reason
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *AcquisitionError) Unwrap() error { return e.Err }

func (e *AcquisitionError) Is(target error) bool { return target == ErrAcquisition }

// SchemaViolationError reports structured extraction output that is not
// valid JSON or does not conform to the document shape.
type SchemaViolationError struct {
	Problems []string
	Err      error
}

func (e *SchemaViolationError) Error() string {
	var b strings.Builder
	b.WriteString("schema violation")
	if len(e.Problems) > 0 {
		fmt.Fprintf(&b, ": %s", strings.Join(e.Problems, "; "))
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *SchemaViolationError) Unwrap() error { return e.Err }

func (e *SchemaViolationError) Is(target error) bool { return target == ErrSchemaViolation }

// ExtractionError reports that acquired text could not be turned into a
// document for reasons other than malformed output. It matches ErrExtraction
// and unwraps to the cause.
type ExtractionError struct {
	Reason string
	Err    error
}

func (e *ExtractionError) Error() string {
	msg := "extract: " + e.Reason
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ExtractionError) Unwrap() error { return e.Err }

func (e *ExtractionError) Is(target error) bool { return target == ErrExtraction }
