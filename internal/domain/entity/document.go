package entity

import "time"

// Document is a persisted record of one ingestion attempt. Documents are
// immutable apart from ExtractedData, which a user may correct after the fact;
// retrying an upload always creates a new Document.
type Document struct {
	ID            int64     `json:"id"`
	PropertyID    int64     `json:"property_id"`
	Filename      string    `json:"filename"`
	FileURL       string    `json:"file_url"`
	ExtractedText string    `json:"extracted_text"`
	ExtractedData string    `json:"extracted_data"` // raw structuring-provider JSON
	Status        string    `json:"status"`
	Type          string    `json:"type"`
	CreatedAt     time.Time `json:"created_at"`
}
