// Package report renders ledger data into downloadable workbooks.
package report

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/ryoma-android/takahashi01-sub000/internal/domain/entity"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// ErrInvalidMonth is returned when the requested month is not YYYY-MM.
var ErrInvalidMonth = errors.New("invalid month, expected YYYY-MM")

var monthRe = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])$`)

// ExpenseSource lists the expenses belonging to one YYYY-MM month.
type ExpenseSource interface {
	ListByMonth(ctx context.Context, month string) ([]*entity.Expense, error)
}

// PropertySource lists all properties, used to label rows by property name.
type PropertySource interface {
	List(ctx context.Context) ([]*entity.Property, error)
}

// LedgerExporter writes a monthly rent ledger as an Excel workbook.
type LedgerExporter struct {
	expenses   ExpenseSource
	properties PropertySource
	logger     *zap.Logger
}

// NewLedgerExporter creates a new LedgerExporter.
func NewLedgerExporter(expenses ExpenseSource, properties PropertySource, logger *zap.Logger) *LedgerExporter {
	return &LedgerExporter{
		expenses:   expenses,
		properties: properties,
		logger:     logger,
	}
}

const ledgerSheet = "家賃台帳"

// Export builds the rent ledger workbook for one YYYY-MM month. The workbook
// has one row per ledger entry and a totals row; rows with a null amount show
// an empty amount cell and are excluded from the total.
func (e *LedgerExporter) Export(ctx context.Context, month string) (*excelize.File, error) {
	if !monthRe.MatchString(month) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidMonth, month)
	}

	rows, err := e.expenses.ListByMonth(ctx, month)
	if err != nil {
		return nil, fmt.Errorf("failed to load ledger rows: %w", err)
	}

	properties, err := e.properties.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load properties: %w", err)
	}
	names := make(map[int64]string, len(properties))
	for _, p := range properties {
		names[p.ID] = p.Name
	}

	f := excelize.NewFile()
	index, err := f.NewSheet(ledgerSheet)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		e.logger.Warn("Failed to remove default sheet", zap.Error(err))
	}

	e.setCell(f, "A1", fmt.Sprintf("家賃台帳 %s", month))

	headers := []string{"物件名", "部屋番号", "入居者名", "金額", "日付", "摘要"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 2)
		e.setCell(f, cell, h)
	}

	var total float64
	row := 3
	for _, expense := range rows {
		name := names[expense.PropertyID]
		if name == "" {
			name = fmt.Sprintf("物件 #%d", expense.PropertyID)
		}

		e.setCell(f, fmt.Sprintf("A%d", row), name)
		e.setCell(f, fmt.Sprintf("B%d", row), expense.RoomNo)
		e.setCell(f, fmt.Sprintf("C%d", row), expense.TenantName)
		if expense.Amount != nil {
			e.setCell(f, fmt.Sprintf("D%d", row), *expense.Amount)
			total += *expense.Amount
		}
		e.setCell(f, fmt.Sprintf("E%d", row), expense.Date)
		e.setCell(f, fmt.Sprintf("F%d", row), expense.Description)
		row++
	}

	e.setCell(f, fmt.Sprintf("C%d", row), "合計")
	e.setCell(f, fmt.Sprintf("D%d", row), total)

	e.logger.Info("Rent ledger exported",
		zap.String("month", month),
		zap.Int("rows", len(rows)),
		zap.Float64("total", total))

	return f, nil
}

// setCell sets a cell value, logging failures instead of aborting the export
func (e *LedgerExporter) setCell(f *excelize.File, cell string, value interface{}) {
	if err := f.SetCellValue(ledgerSheet, cell, value); err != nil {
		e.logger.Warn("Failed to set cell value",
			zap.String("cell", cell),
			zap.Error(err))
	}
}
