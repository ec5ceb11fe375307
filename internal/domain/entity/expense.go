package entity

import "time"

// Expense is one ledger row. Rows created by ingestion carry the owning
// document id and are deleted when the document is deleted.
type Expense struct {
	ID          int64     `json:"id"`
	PropertyID  int64     `json:"property_id"`
	Category    string    `json:"category"`
	Amount      *float64  `json:"amount"` // nil means unspecified (e.g. vacant unit)
	Description string    `json:"description"`
	Date        string    `json:"date"` // YYYY-MM-DD
	ReceiptURL  string    `json:"receipt_url"`
	DocumentID  *int64    `json:"document_id"`
	RoomNo      string    `json:"room_no"`
	TenantName  string    `json:"tenant_name"`
	CreatedAt   time.Time `json:"created_at"`
}
