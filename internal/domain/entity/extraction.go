package entity

import (
	"regexp"
	"strings"
	"time"
)

// StructuredExtraction is the structuring provider's parsed output for one
// rent statement. It is transient: the raw JSON is stored verbatim on the
// Document and each valid contract line becomes an Expense row.
type StructuredExtraction struct {
	PropertyName string         `json:"propertyName"`
	Contracts    []ContractLine `json:"contracts"`
}

// ContractLine is one tenant's rent-due line item.
type ContractLine struct {
	RoomNo     string   `json:"room_no"`
	TenantName string   `json:"tenant_name"`
	Amount     *float64 `json:"amount"` // nil for vacant or unspecified units
	Date       string   `json:"date"`   // YYYY-MM or YYYY-MM-DD, may be empty
}

var (
	yearMonthRe    = regexp.MustCompile(`^\d{4}-\d{2}$`)
	yearMonthDayRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
)

// Valid reports whether the line carries the mandatory identification fields.
// Lines failing this are skipped during persistence, not surfaced as errors.
func (c ContractLine) Valid() bool {
	return strings.TrimSpace(c.RoomNo) != "" && strings.TrimSpace(c.TenantName) != ""
}

// NormalizedDate returns the line's date at day granularity. Month-granular
// dates are pinned to the first of the month; missing or unrecognized dates
// fall back to the given time.
func (c ContractLine) NormalizedDate(fallback time.Time) string {
	d := strings.TrimSpace(c.Date)
	switch {
	case yearMonthDayRe.MatchString(d):
		return d
	case yearMonthRe.MatchString(d):
		return d + "-01"
	default:
		return fallback.Format("2006-01-02")
	}
}

// ValidLines returns the contract lines eligible for persistence along with
// the number of lines that were dropped.
func (s *StructuredExtraction) ValidLines() (valid []ContractLine, skipped int) {
	for _, line := range s.Contracts {
		if line.Valid() {
			valid = append(valid, line)
		} else {
			skipped++
		}
	}
	return valid, skipped
}
