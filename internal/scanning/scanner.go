package scanning

import (
	"context"
	"fmt"
	"image"
	"strings"
)

// Fragment is one piece of text recognized by an OCR backend.
type Fragment struct {
	Text       string          `json:"text"`
	Bounds     image.Rectangle `json:"-"`
	Confidence float64         `json:"confidence"`
}

// Scanner defines the interface for OCR backends
type Scanner interface {
	// Name identifies the backend in logs and stored extractions
	Name() string
	// ScanText recognizes the text fragments of a PNG image in reading order
	ScanText(ctx context.Context, pngData []byte) ([]Fragment, error)
	// Close closes the scanner and releases resources
	Close() error
}

// RawText joins fragment texts with single spaces, in encounter order, and
// uppercases the result.
func RawText(fragments []Fragment) string {
	parts := make([]string, 0, len(fragments))
	for _, f := range fragments {
		parts = append(parts, f.Text)
	}
	return strings.ToUpper(strings.Join(parts, " "))
}

// ScanError reports a failure inside an OCR backend.
type ScanError struct {
	// Backend is the Scanner name, e.g. "tesseract"
	Backend string
	// Op is the step that failed
	Op  string
	Err error
}

func (e *ScanError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Backend, e.Op, e.Err)
}

func (e *ScanError) Unwrap() error {
	return e.Err
}

func scanError(backend, op string, err error) error {
	return &ScanError{Backend: backend, Op: op, Err: err}
}
