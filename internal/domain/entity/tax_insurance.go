package entity

import "time"

// TaxInsurance is a tax or insurance payment record with a due date.
type TaxInsurance struct {
	ID         int64     `json:"id"`
	PropertyID int64     `json:"property_id"`
	Type       string    `json:"type"` // 固定資産税, 火災保険, etc.
	Name       string    `json:"name"`
	Amount     float64   `json:"amount"`
	DueDate    string    `json:"due_date"` // YYYY-MM-DD
	Paid       bool      `json:"paid"`
	Memo       string    `json:"memo"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
