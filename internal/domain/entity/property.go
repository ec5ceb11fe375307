package entity

import "time"

// Property represents a managed real-estate property.
type Property struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name"`
	Type          string    `json:"type"`
	Units         int       `json:"units"`
	OccupiedUnits int       `json:"occupied_units"`
	MonthlyIncome float64   `json:"monthly_income"`
	YearlyIncome  float64   `json:"yearly_income"`
	Expenses      float64   `json:"expenses"`
	NetIncome     float64   `json:"net_income"`
	YieldRate     float64   `json:"yield_rate"`
	Location      string    `json:"location"`
	Address       string    `json:"address"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// NewPlaceholderProperty returns a property pre-filled with the documented
// placeholder defaults, used when ingestion encounters an unknown property name.
func NewPlaceholderProperty(name string) *Property {
	return &Property{
		Name:     name,
		Type:     PlaceholderPropertyType,
		Units:    PlaceholderUnits,
		Location: PlaceholderLocation,
		Address:  PlaceholderAddress,
	}
}
