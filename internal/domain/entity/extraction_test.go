package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestContractLineValid(t *testing.T) {
	tests := []struct {
		name  string
		line  ContractLine
		valid bool
	}{
		{"both fields present", ContractLine{RoomNo: "101", TenantName: "田中太郎"}, true},
		{"alphanumeric room", ContractLine{RoomNo: "A-2", TenantName: "佐藤花子"}, true},
		{"missing room", ContractLine{TenantName: "田中太郎"}, false},
		{"missing tenant", ContractLine{RoomNo: "101"}, false},
		{"whitespace only", ContractLine{RoomNo: "  ", TenantName: "\t"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.valid, tt.line.Valid())
		})
	}
}

func TestContractLineNormalizedDate(t *testing.T) {
	fallback := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		date     string
		expected string
	}{
		{"month granularity pinned to first", "2025-06", "2025-06-01"},
		{"day granularity untouched", "2025-06-20", "2025-06-20"},
		{"empty falls back to ingestion date", "", "2025-06-15"},
		{"garbage falls back", "6月分", "2025-06-15"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			line := ContractLine{Date: tt.date}
			assert.Equal(t, tt.expected, line.NormalizedDate(fallback))
		})
	}
}

func TestValidLines(t *testing.T) {
	amount := 50000.0
	extraction := &StructuredExtraction{
		PropertyName: "サンプル荘",
		Contracts: []ContractLine{
			{RoomNo: "101", TenantName: "田中太郎", Amount: &amount, Date: "2025-06"},
			{RoomNo: "", TenantName: "名無し"},
			{RoomNo: "103", TenantName: ""},
			{RoomNo: "104", TenantName: "空室", Amount: nil},
		},
	}

	valid, skipped := extraction.ValidLines()
	assert.Len(t, valid, 2)
	assert.Equal(t, 2, skipped)
	assert.Equal(t, "101", valid[0].RoomNo)
	assert.Equal(t, "104", valid[1].RoomNo)
}
