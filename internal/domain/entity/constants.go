package entity

// Status constants for Document
const (
	DocumentStatusProcessed = "processed"
	DocumentStatusError     = "error"
)

// Type constants for Document
const (
	DocumentTypeReceipt = "receipt"
)

// Category constants for Expense. Rows derived from rent statements are
// always tagged as rent; the remaining categories are used by manual entry.
const (
	CategoryRent        = "家賃"
	CategoryRepair      = "修繕費"
	CategoryCleaning    = "清掃費"
	CategoryMaintenance = "保守点検"
	CategoryInsurance   = "保険料"
	CategoryTax         = "税金"
	CategoryManagement  = "管理費"
	CategoryUtilities   = "光熱費"
	CategoryOther       = "その他"
)

// Placeholder defaults for properties auto-created during ingestion when no
// existing property matches the extracted name.
const (
	PlaceholderPropertyType = "apartment"
	PlaceholderUnits        = 1
	PlaceholderLocation     = "未設定"
	PlaceholderAddress      = "未設定"
)
