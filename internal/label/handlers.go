package label

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/zombor/label-dates/internal/scanning"
)

// writeJSON writes v with the given status code
func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

// writeError writes a JSON error body
func writeError(w http.ResponseWriter, message string, code int) {
	writeJSON(w, code, map[string]string{"error": message})
}

// handleIndex returns static service metadata
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "OCR Date Extraction API",
		"version": s.config.Version,
		"endpoints": map[string]string{
			"/upload":               "POST - Upload an image to extract dates",
			"/api/extractions":      "GET - List past extractions",
			"/api/extractions/{id}": "GET, DELETE - Inspect or remove an extraction",
			"/healthz":              "GET - Liveness probe",
			"/metrics":              "GET - Prometheus metrics",
		},
	})
}

// handleHealth reports liveness
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	io.WriteString(w, "ok")
}

// extensionContentTypes covers formats mime.TypeByExtension may not know
var extensionContentTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".heic": "image/heic",
	".heif": "image/heif",
	".webp": "image/webp",
	".tif":  "image/tiff",
	".tiff": "image/tiff",
	".bmp":  "image/bmp",
}

// uploadContentType returns the declared content type of a part, falling
// back to the file extension when the client sent none or a generic one.
func uploadContentType(declared, filename string) string {
	contentType := scanning.NormalizeContentType(declared)
	if contentType != "" && contentType != "application/octet-stream" {
		return contentType
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if known, ok := extensionContentTypes[ext]; ok {
		return known
	}
	if guessed := mime.TypeByExtension(ext); guessed != "" {
		return scanning.NormalizeContentType(guessed)
	}
	return contentType
}

// handleUpload extracts dates from an uploaded label image
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.config.MaxUploadSize)
	if err := r.ParseMultipartForm(s.config.MaxUploadSize); err != nil {
		slog.Error("Error parsing multipart form", "error", err)
		errorMsg := "Error parsing form"
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			errorMsg = "File is too large. Please compress or resize your image."
		}
		writeError(w, errorMsg, http.StatusBadRequest)
		return
	}

	f, header, err := r.FormFile("file")
	if err != nil {
		slog.Error("Error getting file from form", "error", err)
		errorMsg := "No file provided"
		if errors.Is(err, http.ErrMissingFile) {
			errorMsg = "No file was selected. Please choose a file to upload."
		}
		writeError(w, errorMsg, http.StatusBadRequest)
		return
	}
	defer f.Close()

	contentType := uploadContentType(header.Header.Get("Content-Type"), header.Filename)
	if !scanning.IsImageContentType(contentType) {
		s.service.metrics.observeUpload(outcomeRejected)
		writeError(w, "File must be an image", http.StatusBadRequest)
		return
	}

	data, err := io.ReadAll(f)
	if err != nil {
		slog.Error("Error reading file data", "error", err, "filename", header.Filename)
		writeError(w, "Error processing image: "+err.Error(), http.StatusInternalServerError)
		return
	}

	ctx := r.Context()
	if s.config.ScanTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.ScanTimeout)
		defer cancel()
	}

	extraction, err := s.service.ProcessLabel(ctx, header.Filename, data, contentType)
	switch {
	case errors.Is(err, scanning.ErrNotImage):
		writeError(w, "File must be an image", http.StatusBadRequest)
		return
	case errors.Is(err, scanning.ErrUndecodable):
		writeError(w, "Could not decode image. Please ensure the file is a valid image.", http.StatusBadRequest)
		return
	case err != nil:
		slog.Error("Error processing label", "filename", header.Filename, "error", err)
		writeError(w, "Error processing image: "+err.Error(), http.StatusInternalServerError)
		return
	}

	slog.Info("Processed label",
		"id", extraction.ID,
		"filename", header.Filename,
		"status", extraction.Status,
		"dates", extraction.Dates,
	)
	writeJSON(w, http.StatusOK, extraction.Response())
}

// handleListExtractions returns every stored extraction
func (s *Server) handleListExtractions(w http.ResponseWriter, r *http.Request) {
	extractions, err := s.service.ListExtractions()
	if err != nil {
		slog.Error("Error listing extractions", "error", err)
		writeError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	// Ensure we always return an array, not nil
	if extractions == nil {
		extractions = []*Extraction{}
	}
	writeJSON(w, http.StatusOK, extractions)
}

// handleGetExtraction returns a single extraction
func (s *Server) handleGetExtraction(w http.ResponseWriter, r *http.Request) {
	extraction, err := s.service.GetExtraction(r.PathValue("id"))
	if err != nil {
		writeError(w, "Extraction not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, extraction)
}

// handleGetExtractionFile returns the uploaded image of an extraction
func (s *Server) handleGetExtractionFile(w http.ResponseWriter, r *http.Request) {
	data, contentType, err := s.service.GetExtractionFile(r.PathValue("id"))
	if err != nil {
		writeError(w, "File not found", http.StatusNotFound)
		return
	}

	// Records written before type detection may carry a declared type
	if !scanning.IsRasterContentType(contentType) {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Write(data)
}

// handleDeleteExtraction deletes an extraction and its file
func (s *Server) handleDeleteExtraction(w http.ResponseWriter, r *http.Request) {
	if err := s.service.DeleteExtraction(r.PathValue("id")); err != nil {
		if errors.Is(err, ErrNotFound) {
			writeError(w, "Extraction not found", http.StatusNotFound)
			return
		}
		slog.Error("Error deleting extraction", "error", err)
		writeError(w, "Error deleting extraction", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
