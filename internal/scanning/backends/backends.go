// Package backends builds the configured OCR backend for the binaries.
package backends

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/zombor/label-dates/internal/scanning"
	"github.com/zombor/label-dates/internal/scanning/tesseract"
)

// Names lists the accepted values for Config.Scanner
var Names = []string{"tesseract", "vision", "gemini", "ollama"}

// Config selects and configures one OCR backend
type Config struct {
	Scanner string

	TesseractLanguages []string

	VisionCredentials string

	GeminiKey   string
	GeminiModel string

	OllamaURL   string
	OllamaModel string

	// Serialize forces one scan at a time even for backends that are safe
	// for concurrent use. Tesseract is always serialized.
	Serialize bool
}

// New constructs the backend named by cfg.Scanner
func New(ctx context.Context, cfg Config) (scanning.Scanner, error) {
	var (
		scanner scanning.Scanner
		err     error
	)

	switch cfg.Scanner {
	case "", "tesseract":
		slog.Info("Initializing Tesseract scanner...", "languages", cfg.TesseractLanguages)
		var engine *tesseract.Engine
		engine, err = tesseract.New(cfg.TesseractLanguages...)
		if err != nil {
			return nil, fmt.Errorf("initializing tesseract: %w", err)
		}
		return scanning.Serialized(engine), nil
	case "vision":
		slog.Info("Initializing Google Vision scanner...")
		scanner, err = scanning.NewVision(ctx, cfg.VisionCredentials)
	case "gemini":
		apiKey := cfg.GeminiKey
		if apiKey == "" {
			apiKey = os.Getenv("GEMINI_API_KEY")
		}
		if apiKey == "" {
			return nil, fmt.Errorf("gemini API key is required: set --gemini-key or GEMINI_API_KEY")
		}
		slog.Info("Initializing Gemini scanner...", "model", cfg.GeminiModel)
		scanner, err = scanning.NewGemini(apiKey, cfg.GeminiModel)
	case "ollama":
		slog.Info("Initializing Ollama scanner...", "url", cfg.OllamaURL, "model", cfg.OllamaModel)
		scanner, err = scanning.NewOllama(cfg.OllamaURL, cfg.OllamaModel)
	default:
		return nil, fmt.Errorf("invalid scanner type %q: valid types are %v", cfg.Scanner, Names)
	}
	if err != nil {
		return nil, fmt.Errorf("initializing %s: %w", cfg.Scanner, err)
	}

	if cfg.Serialize {
		return scanning.Serialized(scanner), nil
	}
	return scanner, nil
}
