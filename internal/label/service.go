package label

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/zombor/label-dates/internal/dates"
	"github.com/zombor/label-dates/internal/scanning"
)

// IDGenerator generates unique IDs for extractions
type IDGenerator interface {
	Generate() string
}

// TimeSource provides the current time
type TimeSource interface {
	Now() time.Time
}

// defaultIDGenerator generates random UUIDs
type defaultIDGenerator struct{}

func (g *defaultIDGenerator) Generate() string {
	return uuid.NewString()
}

// defaultTimeSource provides the current time
type defaultTimeSource struct{}

func (t *defaultTimeSource) Now() time.Time {
	return time.Now()
}

// Service runs label images through OCR and the date engine and keeps a history of the results
type Service struct {
	db          DB
	scanner     scanning.Scanner
	storage     Storage
	resolver    *dates.Resolver
	metrics     *Metrics
	idGenerator IDGenerator
	timeSource  TimeSource
}

// NewService creates a new Service with default ID generator and time source
func NewService(db DB, scanner scanning.Scanner, storage Storage) *Service {
	return NewServiceWithDeps(db, scanner, storage, &defaultIDGenerator{}, &defaultTimeSource{})
}

// NewServiceWithDeps creates a new Service with custom dependencies for testing
func NewServiceWithDeps(db DB, scanner scanning.Scanner, storage Storage, idGen IDGenerator, timeSrc TimeSource) *Service {
	return &Service{
		db:          db,
		scanner:     scanner,
		storage:     storage,
		resolver:    dates.NewResolver(dates.DefaultVocabulary()),
		metrics:     NewMetrics(),
		idGenerator: idGen,
		timeSource:  timeSrc,
	}
}

// Metrics returns the collectors updated by the service
func (s *Service) Metrics() *Metrics {
	return s.metrics
}

var (
	unsafeFilenameChars = regexp.MustCompile(`[^a-zA-Z0-9\s\-_]`)
	repeatedSpaces      = regexp.MustCompile(`\s+`)
)

// sanitizeFilename cleans up a filename by removing special characters and truncating length
func sanitizeFilename(filename string) string {
	filename = filepath.Base(filename)
	if filename == "." || filename == string(filepath.Separator) {
		filename = ""
	}
	ext := filepath.Ext(filename)
	base := strings.TrimSuffix(filename, ext)
	if ext = unsafeFilenameChars.ReplaceAllString(strings.TrimPrefix(ext, "."), ""); ext != "" {
		ext = "." + ext
	}

	base = unsafeFilenameChars.ReplaceAllString(base, "")
	base = repeatedSpaces.ReplaceAllString(base, " ")
	base = strings.TrimSpace(base)

	// Phone cameras produce very long names
	if len(base) > 50 {
		base = base[:50]
	}

	if base == "" {
		base = "label"
	}

	return base + ext
}

// ProcessLabel decodes an uploaded image, reads its text, resolves the
// manufacturing and expiry dates and records the extraction.
//
// Errors from image preparation wrap scanning.ErrNotImage or
// scanning.ErrUndecodable so callers can tell bad input from failures.
func (s *Service) ProcessLabel(ctx context.Context, filename string, data []byte, contentType string) (*Extraction, error) {
	pngData, converted, err := scanning.PrepareImage(data, contentType)
	if err != nil {
		s.metrics.observeUpload(outcomeRejected)
		return nil, fmt.Errorf("preparing image: %w", err)
	}
	if converted {
		slog.Debug("Converted upload to PNG", "filename", filename, "content_type", contentType)
	}

	// The stored file is served back under the type its bytes decoded as
	storedType := scanning.DetectImageType(data)
	if storedType == "" {
		storedType = "application/octet-stream"
	}

	start := time.Now()
	fragments, err := s.scanner.ScanText(ctx, pngData)
	s.metrics.observeScan(s.scanner.Name(), time.Since(start))
	if err != nil {
		slog.Error("Failed to scan label",
			"filename", filename,
			"content_type", contentType,
			"file_size", len(data),
			"scanner", s.scanner.Name(),
			"error", err,
		)
		s.metrics.observeUpload(outcomeFailed)
		return nil, fmt.Errorf("scanning label: %w", err)
	}

	text := scanning.RawText(fragments)
	slog.Debug("Extracted text", "filename", filename, "fragments", len(fragments), "text", text)

	roles := s.resolver.Resolve(text)
	s.metrics.observeRoles(roles)

	id := s.idGenerator.Generate()
	now := s.timeSource.Now()

	savedPath, err := s.storage.Save(fmt.Sprintf("%s_%s", id, sanitizeFilename(filename)), data)
	if err != nil {
		s.metrics.observeUpload(outcomeFailed)
		return nil, fmt.Errorf("saving file: %w", err)
	}

	extraction := &Extraction{
		ID:          id,
		Filename:    filename,
		File:        savedPath,
		ContentType: storedType,
		Scanner:     s.scanner.Name(),
		Text:        text,
		Dates:       roles,
		Status:      len(roles) > 0,
		CreatedAt:   now,
	}

	if err := s.db.SaveExtraction(extraction); err != nil {
		if delErr := s.storage.Delete(savedPath); delErr != nil {
			slog.Warn("Failed to clean up file", "file", savedPath, "error", delErr)
		}
		s.metrics.observeUpload(outcomeFailed)
		return nil, fmt.Errorf("saving extraction to database: %w", err)
	}

	s.metrics.observeUpload(outcomeOK)
	return extraction, nil
}

// GetExtraction retrieves an extraction by ID
func (s *Service) GetExtraction(id string) (*Extraction, error) {
	extraction, err := s.db.GetExtraction(id)
	if err != nil {
		return nil, fmt.Errorf("getting extraction: %w", err)
	}
	return extraction, nil
}

// ListExtractions returns all extractions, newest first
func (s *Service) ListExtractions() ([]*Extraction, error) {
	extractions, err := s.db.ListExtractions()
	if err != nil {
		return nil, fmt.Errorf("listing extractions: %w", err)
	}
	slices.SortStableFunc(extractions, func(a, b *Extraction) int {
		return cmp.Compare(b.CreatedAt.UnixNano(), a.CreatedAt.UnixNano())
	})
	return extractions, nil
}

// DeleteExtraction removes an extraction and its file
func (s *Service) DeleteExtraction(id string) error {
	extraction, err := s.db.GetExtraction(id)
	if err != nil {
		return fmt.Errorf("getting extraction for deletion: %w", err)
	}

	if err := s.storage.Delete(extraction.File); err != nil {
		// The record still goes
		slog.Warn("Failed to delete file", "file", extraction.File, "error", err)
	}

	if err := s.db.DeleteExtraction(id); err != nil {
		return fmt.Errorf("deleting extraction from database: %w", err)
	}
	return nil
}

// GetExtractionFile retrieves the uploaded image for an extraction
func (s *Service) GetExtractionFile(id string) ([]byte, string, error) {
	extraction, err := s.db.GetExtraction(id)
	if err != nil {
		return nil, "", fmt.Errorf("getting extraction: %w", err)
	}

	data, err := s.storage.Get(extraction.File)
	if err != nil {
		return nil, "", fmt.Errorf("getting extraction file: %w", err)
	}

	return data, extraction.ContentType, nil
}
