package main

import (
	"context"
	"fmt"
	"log/slog"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/zombor/label-dates/internal/dates"
	"github.com/zombor/label-dates/internal/scanning"
	"github.com/zombor/label-dates/internal/scanning/backends"
)

func newImageCmd() *cobra.Command {
	var (
		cfg         backends.Config
		langs       string
		contentType string
		timeout     time.Duration
		showText    bool
	)

	cmd := &cobra.Command{
		Use:   "image [file]",
		Short: "Read a label photo and resolve its dates",
		Example: `  label-scan image milk.jpg
  label-scan image --scanner vision --vision-credentials sa.json milk.heic`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("reading image: %w", err)
			}

			if contentType == "" {
				contentType = mime.TypeByExtension(strings.ToLower(filepath.Ext(path)))
			}
			if contentType == "" && strings.EqualFold(filepath.Ext(path), ".heic") {
				contentType = "image/heic"
			}

			pngData, _, err := scanning.PrepareImage(data, contentType)
			if err != nil {
				return fmt.Errorf("preparing %s: %w", path, err)
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			if timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, timeout)
				defer cancel()
			}

			cfg.TesseractLanguages = strings.Split(langs, ",")
			scanner, err := backends.New(ctx, cfg)
			if err != nil {
				return err
			}
			defer scanner.Close()

			fragments, err := scanner.ScanText(ctx, pngData)
			if err != nil {
				return fmt.Errorf("scanning %s: %w", path, err)
			}

			text := scanning.RawText(fragments)
			slog.Debug("Extracted text", "file", path, "scanner", scanner.Name(), "text", text)
			if showText {
				fmt.Fprintln(cmd.ErrOrStderr(), text)
			}

			return writeResult(cmd.OutOrStdout(), filepath.Base(path), dates.Resolve(text))
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&cfg.Scanner, "scanner", "tesseract", "Scanner type: "+strings.Join(backends.Names, ", "))
	flags.StringVar(&langs, "tesseract-langs", "eng", "Comma separated Tesseract languages")
	flags.StringVar(&cfg.VisionCredentials, "vision-credentials", "", "Google Cloud credentials file for the vision scanner")
	flags.StringVar(&cfg.GeminiKey, "gemini-key", "", "Google Gemini API key (or set GEMINI_API_KEY env var)")
	flags.StringVar(&cfg.GeminiModel, "gemini-model", "gemini-2.5-pro", "Google Gemini model name")
	flags.StringVar(&cfg.OllamaURL, "ollama-url", "http://localhost:11434", "Ollama API base URL")
	flags.StringVar(&cfg.OllamaModel, "ollama-model", "llava", "Ollama model name")
	flags.StringVar(&contentType, "content-type", "", "Override the content type guessed from the file extension")
	flags.DurationVar(&timeout, "timeout", 2*time.Minute, "Maximum time for the OCR call")
	flags.BoolVar(&showText, "show-text", false, "Print the OCR text to stderr")
	return cmd
}
