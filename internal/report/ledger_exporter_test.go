package report

import (
	"context"
	"testing"

	"github.com/ryoma-android/takahashi01-sub000/internal/domain/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeExpenseSource struct {
	rows []*entity.Expense
}

func (f *fakeExpenseSource) ListByMonth(ctx context.Context, month string) ([]*entity.Expense, error) {
	return f.rows, nil
}

type fakePropertySource struct {
	properties []*entity.Property
}

func (f *fakePropertySource) List(ctx context.Context) ([]*entity.Property, error) {
	return f.properties, nil
}

func ptr(v float64) *float64 { return &v }

func TestExportWritesRowsAndTotal(t *testing.T) {
	expenses := &fakeExpenseSource{rows: []*entity.Expense{
		{PropertyID: 1, RoomNo: "101", TenantName: "田中太郎", Amount: ptr(50000), Date: "2025-06-01", Description: "101 田中太郎"},
		{PropertyID: 1, RoomNo: "102", TenantName: "空室", Amount: nil, Date: "2025-06-01", Description: "102 空室"},
		{PropertyID: 2, RoomNo: "201", TenantName: "佐藤花子", Amount: ptr(48000), Date: "2025-06-01", Description: "201 佐藤花子"},
	}}
	properties := &fakePropertySource{properties: []*entity.Property{
		{ID: 1, Name: "サンプル荘"},
		{ID: 2, Name: "花堂マンション"},
	}}

	exporter := NewLedgerExporter(expenses, properties, zap.NewNop())
	f, err := exporter.Export(context.Background(), "2025-06")
	require.NoError(t, err)
	defer f.Close()

	title, err := f.GetCellValue(ledgerSheet, "A1")
	require.NoError(t, err)
	assert.Equal(t, "家賃台帳 2025-06", title)

	name, _ := f.GetCellValue(ledgerSheet, "A3")
	assert.Equal(t, "サンプル荘", name)
	amount, _ := f.GetCellValue(ledgerSheet, "D3")
	assert.Equal(t, "50000", amount)

	vacant, _ := f.GetCellValue(ledgerSheet, "D4")
	assert.Empty(t, vacant, "null amounts leave the cell empty")

	label, _ := f.GetCellValue(ledgerSheet, "C6")
	assert.Equal(t, "合計", label)
	total, _ := f.GetCellValue(ledgerSheet, "D6")
	assert.Equal(t, "98000", total, "total must skip null amounts")
}

func TestExportUnknownPropertyGetsFallbackLabel(t *testing.T) {
	expenses := &fakeExpenseSource{rows: []*entity.Expense{
		{PropertyID: 9, RoomNo: "101", TenantName: "田中太郎", Amount: ptr(50000), Date: "2025-06-01"},
	}}

	exporter := NewLedgerExporter(expenses, &fakePropertySource{}, zap.NewNop())
	f, err := exporter.Export(context.Background(), "2025-06")
	require.NoError(t, err)
	defer f.Close()

	name, _ := f.GetCellValue(ledgerSheet, "A3")
	assert.Equal(t, "物件 #9", name)
}

func TestExportRejectsMalformedMonth(t *testing.T) {
	exporter := NewLedgerExporter(&fakeExpenseSource{}, &fakePropertySource{}, zap.NewNop())

	for _, month := range []string{"", "2025", "2025-13", "2025-6", "2025-06-01", "june"} {
		_, err := exporter.Export(context.Background(), month)
		assert.Error(t, err, "month %q should be rejected", month)
	}
}
