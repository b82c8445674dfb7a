// Package tesseract provides a local OCR backend on top of the Tesseract
// library through gosseract.
package tesseract

import (
	"context"
	"fmt"
	"strings"

	"github.com/otiai10/gosseract/v2"
	"github.com/zombor/label-dates/internal/scanning"
)

// Engine implements scanning.Scanner with one long-lived gosseract client,
// loaded once at startup. The client is not safe for concurrent use: wrap the
// Engine with scanning.Serialized before sharing it between requests.
type Engine struct {
	client    *gosseract.Client
	languages []string
}

// New loads the trained data for languages (default "eng").
func New(languages ...string) (*Engine, error) {
	if len(languages) == 0 {
		languages = []string{"eng"}
	}

	client := gosseract.NewClient()
	if err := client.SetLanguage(languages...); err != nil {
		client.Close()
		return nil, fmt.Errorf("setting tesseract languages: %w", err)
	}
	// Labels are sparse text scattered over packaging.
	if err := client.SetPageSegMode(gosseract.PSM_SPARSE_TEXT); err != nil {
		client.Close()
		return nil, fmt.Errorf("setting tesseract page segmentation: %w", err)
	}

	return &Engine{client: client, languages: languages}, nil
}

// Name returns the backend name
func (e *Engine) Name() string {
	return "tesseract"
}

// ScanText recognizes the text lines of the image.
func (e *Engine) ScanText(ctx context.Context, pngData []byte) ([]scanning.Fragment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := e.client.SetImageFromBytes(pngData); err != nil {
		return nil, &scanning.ScanError{Backend: e.Name(), Op: "setting image", Err: err}
	}

	boxes, err := e.client.GetBoundingBoxes(gosseract.RIL_TEXTLINE)
	if err != nil {
		return nil, &scanning.ScanError{Backend: e.Name(), Op: "recognizing text", Err: err}
	}

	fragments := make([]scanning.Fragment, 0, len(boxes))
	for _, b := range boxes {
		text := strings.TrimSpace(b.Word)
		if text == "" {
			continue
		}
		fragments = append(fragments, scanning.Fragment{
			Text:       text,
			Bounds:     b.Box,
			Confidence: b.Confidence / 100.0,
		})
	}
	return fragments, nil
}

// Close releases the Tesseract client
func (e *Engine) Close() error {
	return e.client.Close()
}
