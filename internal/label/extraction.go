package label

import (
	"time"

	"github.com/zombor/label-dates/internal/dates"
)

// Extraction is the stored result of scanning one uploaded label image
type Extraction struct {
	ID          string      `json:"id"`
	Filename    string      `json:"filename"` // Name of the file as uploaded
	File        string      `json:"file"`     // Path of the stored copy, relative to the storage root
	ContentType string      `json:"content_type"`
	Scanner     string      `json:"scanner"`
	Text        string      `json:"text"` // Uppercased OCR text the dates were resolved from
	Dates       dates.Roles `json:"dates"`
	Status      bool        `json:"status"` // True when at least one role was assigned
	CreatedAt   time.Time   `json:"created_at"`
}

// UploadResponse is the body returned by POST /upload
type UploadResponse struct {
	Filename string      `json:"filename"`
	Status   bool        `json:"status"`
	Dates    dates.Roles `json:"dates"`
}

// Response converts the extraction into the upload response body.
// Dates is always a JSON object, never null.
func (e *Extraction) Response() UploadResponse {
	roles := e.Dates
	if roles == nil {
		roles = dates.Roles{}
	}
	return UploadResponse{
		Filename: e.Filename,
		Status:   len(roles) > 0,
		Dates:    roles,
	}
}
