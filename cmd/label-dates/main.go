package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"

	"github.com/zombor/label-dates/internal/label"
	"github.com/zombor/label-dates/internal/scanning/backends"
	"github.com/zombor/label-dates/internal/version"
)

// loadDotEnv loads .env style files, treating a missing file as empty
func loadDotEnv(filenames ...string) error {
	if err := godotenv.Load(filenames...); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func main() {
	// Check for version flag before parsing other flags
	for _, arg := range os.Args[1:] {
		if arg == "--version" || arg == "-version" || arg == "-v" {
			fmt.Println(version.Version)
			os.Exit(0)
		}
	}

	if err := loadDotEnv(); err != nil {
		slog.Warn("Failed to load .env file", "error", err)
	}

	fs := ff.NewFlagSet("label-dates")
	var (
		port           = fs.IntLong("port", 8000, "HTTP server port")
		dbPath         = fs.StringLong("db", "label-dates.db", "Database file path")
		storagePath    = fs.StringLong("storage", "./labels", "Storage directory path")
		scannerType    = fs.StringLong("scanner", "tesseract", "Scanner type: "+strings.Join(backends.Names, ", "))
		tesseractLangs = fs.StringLong("tesseract-langs", "eng", "Comma separated Tesseract languages")
		visionCreds    = fs.StringLong("vision-credentials", "", "Google Cloud credentials file for the vision scanner (default: application default credentials)")
		geminiKey      = fs.StringLong("gemini-key", "", "Google Gemini API key (or set GEMINI_API_KEY env var)")
		geminiModel    = fs.StringLong("gemini-model", "gemini-2.5-pro", "Google Gemini model name")
		ollamaURL      = fs.StringLong("ollama-url", "http://localhost:11434", "Ollama API base URL")
		ollamaModel    = fs.StringLong("ollama-model", "llava", "Ollama model name (e.g., llava, qwen2-vl)")
		serialize      = fs.BoolLong("serialize-scanner", "Run one scan at a time even for remote scanners")
		scanTimeout    = fs.DurationLong("scan-timeout", 60*time.Second, "Maximum time for one OCR call (0 disables)")
		rateLimit      = fs.Float64Long("rate-limit", 0, "Uploads per second allowed (0 disables)")
		rateBurst      = fs.IntLong("rate-burst", 5, "Upload burst size when rate limiting")
		maxUpload      = fs.IntLong("max-upload", 50<<20, "Maximum upload size in bytes")
		authUser       = fs.StringLong("auth-user", "", "Basic auth username (optional)")
		authPass       = fs.StringLong("auth-pass", "", "Basic auth password (optional)")
		logLevel       = fs.StringLong("log-level", "info", "Log level: debug, info, warn, error")
		showVersion    = fs.BoolLong("version", "Show version information")
	)

	if err := ff.Parse(fs, os.Args[1:],
		ff.WithEnvVarPrefix("LABEL_DATES"),
	); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Flags(fs))
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	// Check version flag after parsing
	if *showVersion {
		fmt.Println(version.Version)
		os.Exit(0)
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(*logLevel)); err != nil {
		fmt.Fprintf(os.Stderr, "error: invalid log level %q\n", *logLevel)
		os.Exit(1)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	// Initialize database
	slog.Info("Initializing database...")
	db, err := label.NewBoltDB(*dbPath)
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Initialize scanner based on type
	scanner, err := backends.New(context.Background(), backends.Config{
		Scanner:            *scannerType,
		TesseractLanguages: strings.Split(*tesseractLangs, ","),
		VisionCredentials:  *visionCreds,
		GeminiKey:          *geminiKey,
		GeminiModel:        *geminiModel,
		OllamaURL:          *ollamaURL,
		OllamaModel:        *ollamaModel,
		Serialize:          *serialize,
	})
	if err != nil {
		slog.Error("Failed to initialize scanner", "type", *scannerType, "error", err)
		os.Exit(1)
	}
	defer scanner.Close()

	// Initialize storage
	slog.Info("Initializing storage...")
	store, err := label.NewLocalStorage(*storagePath)
	if err != nil {
		slog.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}

	labelService := label.NewService(db, scanner, store)

	server := label.NewServer(labelService, label.Config{
		BasicAuth: label.BasicAuth{
			Username: *authUser,
			Password: *authPass,
		},
		Version:       version.Version,
		ScanTimeout:   *scanTimeout,
		RateLimit:     *rateLimit,
		RateBurst:     *rateBurst,
		MaxUploadSize: int64(*maxUpload),
	})

	// Start server in goroutine
	addr := fmt.Sprintf(":%d", *port)
	go func() {
		if err := server.Start(addr); err != nil {
			slog.Error("Server error", "error", err)
			os.Exit(1)
		}
	}()

	slog.Info("Server started", "address", fmt.Sprintf("http://localhost%s", addr), "scanner", scanner.Name())
	if *authUser != "" || *authPass != "" {
		slog.Info("Basic auth enabled", "user", *authUser)
	}

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	slog.Info("Shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		slog.Error("Shutdown error", "error", err)
	}
}
