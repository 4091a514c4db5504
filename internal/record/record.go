package record

import (
	"time"

	"github.com/zombor/invoice-extract/internal/extract"
)

// Document is one processed input image together with its extracted fields
type Document struct {
	ID          string         `json:"id"`
	Fields      extract.Record `json:"fields"`
	RawTextPath string         `json:"raw_text_path,omitempty"` // stored primary inference text, for debugging
	ContentType string         `json:"content_type"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}
