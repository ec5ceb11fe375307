package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/ryoma-android/takahashi01-sub000/internal/domain/entity"
	"github.com/ryoma-android/takahashi01-sub000/internal/ingest"
	"github.com/ryoma-android/takahashi01-sub000/internal/report"
)

// Ingestor runs the document-ingestion pipeline.
type Ingestor interface {
	Ingest(ctx context.Context, in ingest.Input) (*ingest.Result, error)
}

// DocumentStore is the document repository surface the handlers need.
type DocumentStore interface {
	GetByID(ctx context.Context, id int64) (*entity.Document, error)
	List(ctx context.Context) ([]*entity.Document, error)
	UpdateExtractedData(ctx context.Context, id int64, extractedData string) error
	Delete(ctx context.Context, id int64) error
}

// PropertyStore is the property repository surface the handlers need.
type PropertyStore interface {
	Create(ctx context.Context, p *entity.Property) error
	GetByID(ctx context.Context, id int64) (*entity.Property, error)
	List(ctx context.Context) ([]*entity.Property, error)
	Update(ctx context.Context, p *entity.Property) error
	Delete(ctx context.Context, id int64) error
}

// ExpenseStore is the expense repository surface the handlers need.
type ExpenseStore interface {
	Create(ctx context.Context, e *entity.Expense) error
	GetByID(ctx context.Context, id int64) (*entity.Expense, error)
	List(ctx context.Context) ([]*entity.Expense, error)
	ListByMonth(ctx context.Context, month string) ([]*entity.Expense, error)
	Update(ctx context.Context, e *entity.Expense) error
	Delete(ctx context.Context, id int64) error
	DeleteByDocumentID(ctx context.Context, documentID int64) (int64, error)
}

// TaxInsuranceStore is the tax/insurance repository surface the handlers need.
type TaxInsuranceStore interface {
	Create(ctx context.Context, ti *entity.TaxInsurance) error
	GetByID(ctx context.Context, id int64) (*entity.TaxInsurance, error)
	List(ctx context.Context) ([]*entity.TaxInsurance, error)
	Update(ctx context.Context, ti *entity.TaxInsurance) error
	Delete(ctx context.Context, id int64) error
}

// LedgerExporter renders the monthly rent ledger workbook.
type LedgerExporter interface {
	Export(ctx context.Context, month string) (*excelize.File, error)
}

// Handlers contains all HTTP request handlers
type Handlers struct {
	pipeline     Ingestor
	documents    DocumentStore
	properties   PropertyStore
	expenses     ExpenseStore
	taxInsurance TaxInsuranceStore
	exporter     LedgerExporter
	logger       *zap.Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(
	pipeline Ingestor,
	documents DocumentStore,
	properties PropertyStore,
	expenses ExpenseStore,
	taxInsurance TaxInsuranceStore,
	exporter LedgerExporter,
	logger *zap.Logger,
) *Handlers {
	return &Handlers{
		pipeline:     pipeline,
		documents:    documents,
		properties:   properties,
		expenses:     expenses,
		taxInsurance: taxInsurance,
		exporter:     exporter,
		logger:       logger,
	}
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// IngestDocument handles POST /api/documents/ingest. The upload arrives as
// multipart field "file"; "property_name" optionally names the property when
// the document itself does not.
func (h *Handlers) IngestDocument(c *gin.Context) {
	in := ingest.Input{PropertyHint: c.PostForm("property_name")}

	file, header, err := c.Request.FormFile("file")
	if err == nil {
		defer file.Close()

		content, readErr := io.ReadAll(file)
		if readErr != nil {
			h.logger.Error("Failed to read upload", zap.Error(readErr))
			c.JSON(http.StatusBadRequest, gin.H{"error": "ファイルの読み込みに失敗しました"})
			return
		}

		in.Filename = header.Filename
		in.MimeType = header.Header.Get("Content-Type")
		in.Size = header.Size
		in.Content = content
	}
	// A missing file leaves Content empty; the pipeline rejects it with the
	// localized message, keeping all validation in one place.

	result, err := h.pipeline.Ingest(c.Request.Context(), in)
	if err != nil {
		h.ingestError(c, err)
		return
	}

	c.JSON(http.StatusCreated, result)
}

func (h *Handlers) ingestError(c *gin.Context, err error) {
	if pe, ok := ingest.AsError(err); ok {
		c.JSON(pe.HTTPStatus(), gin.H{"error": pe.Message})
		return
	}

	h.logger.Error("Unclassified ingestion error", zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": "予期しないエラーが発生しました"})
}

// ListDocuments handles GET /api/documents
func (h *Handlers) ListDocuments(c *gin.Context) {
	documents, err := h.documents.List(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to list documents", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "書類の取得に失敗しました"})
		return
	}
	if documents == nil {
		documents = []*entity.Document{}
	}

	c.JSON(http.StatusOK, documents)
}

type updateDocumentRequest struct {
	ExtractedData string `json:"extracted_data" binding:"required"`
}

// UpdateDocumentData handles PATCH /api/documents/:id. Only the stored
// structured data may be corrected; everything else on a document is immutable.
func (h *Handlers) UpdateDocumentData(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	var req updateDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "extracted_dataが必要です"})
		return
	}
	if !json.Valid([]byte(req.ExtractedData)) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "extracted_dataが不正なJSONです"})
		return
	}

	doc, err := h.documents.GetByID(c.Request.Context(), id)
	if err != nil {
		h.logger.Error("Failed to load document", zap.Int64("id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "書類の取得に失敗しました"})
		return
	}
	if doc == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "書類が見つかりません"})
		return
	}

	if err := h.documents.UpdateExtractedData(c.Request.Context(), id, req.ExtractedData); err != nil {
		h.logger.Error("Failed to update document data", zap.Int64("id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "書類の更新に失敗しました"})
		return
	}

	doc.ExtractedData = req.ExtractedData
	c.JSON(http.StatusOK, doc)
}

// DeleteDocument handles DELETE /api/documents/:id. Derived expenses are
// removed first; a cleanup failure is logged and the document delete proceeds
// regardless, so the document never outlives a delete request.
func (h *Handlers) DeleteDocument(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	doc, err := h.documents.GetByID(c.Request.Context(), id)
	if err != nil {
		h.logger.Error("Failed to load document", zap.Int64("id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "書類の取得に失敗しました"})
		return
	}
	if doc == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "書類が見つかりません"})
		return
	}

	removed, err := h.expenses.DeleteByDocumentID(c.Request.Context(), id)
	if err != nil {
		h.logger.Warn("Expense cleanup failed, deleting document anyway",
			zap.Int64("document_id", id),
			zap.Error(err))
	}

	if err := h.documents.Delete(c.Request.Context(), id); err != nil {
		h.logger.Error("Failed to delete document", zap.Int64("id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "書類の削除に失敗しました"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "deleted_expenses": removed})
}

// ListProperties handles GET /api/properties
func (h *Handlers) ListProperties(c *gin.Context) {
	properties, err := h.properties.List(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to list properties", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "物件の取得に失敗しました"})
		return
	}
	if properties == nil {
		properties = []*entity.Property{}
	}

	c.JSON(http.StatusOK, properties)
}

// CreateProperty handles POST /api/properties
func (h *Handlers) CreateProperty(c *gin.Context) {
	var p entity.Property
	if err := c.ShouldBindJSON(&p); err != nil || p.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "物件名が必要です"})
		return
	}

	if err := h.properties.Create(c.Request.Context(), &p); err != nil {
		h.logger.Error("Failed to create property", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "物件の作成に失敗しました"})
		return
	}

	c.JSON(http.StatusCreated, &p)
}

// GetProperty handles GET /api/properties/:id
func (h *Handlers) GetProperty(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	p, err := h.properties.GetByID(c.Request.Context(), id)
	if err != nil {
		h.logger.Error("Failed to get property", zap.Int64("id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "物件の取得に失敗しました"})
		return
	}
	if p == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "物件が見つかりません"})
		return
	}

	c.JSON(http.StatusOK, p)
}

// UpdateProperty handles PUT /api/properties/:id
func (h *Handlers) UpdateProperty(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	var p entity.Property
	if err := c.ShouldBindJSON(&p); err != nil || p.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "物件名が必要です"})
		return
	}
	p.ID = id

	if err := h.properties.Update(c.Request.Context(), &p); err != nil {
		h.logger.Error("Failed to update property", zap.Int64("id", id), zap.Error(err))
		c.JSON(http.StatusNotFound, gin.H{"error": "物件の更新に失敗しました"})
		return
	}

	c.JSON(http.StatusOK, &p)
}

// DeleteProperty handles DELETE /api/properties/:id
func (h *Handlers) DeleteProperty(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	if err := h.properties.Delete(c.Request.Context(), id); err != nil {
		h.logger.Error("Failed to delete property", zap.Int64("id", id), zap.Error(err))
		c.JSON(http.StatusNotFound, gin.H{"error": "物件の削除に失敗しました"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// ListExpenses handles GET /api/expenses. An optional ?month=YYYY-MM query
// narrows the result to one month.
func (h *Handlers) ListExpenses(c *gin.Context) {
	var (
		expenses []*entity.Expense
		err      error
	)

	if month := c.Query("month"); month != "" {
		expenses, err = h.expenses.ListByMonth(c.Request.Context(), month)
	} else {
		expenses, err = h.expenses.List(c.Request.Context())
	}
	if err != nil {
		h.logger.Error("Failed to list expenses", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "収支の取得に失敗しました"})
		return
	}
	if expenses == nil {
		expenses = []*entity.Expense{}
	}

	c.JSON(http.StatusOK, expenses)
}

// CreateExpense handles POST /api/expenses
func (h *Handlers) CreateExpense(c *gin.Context) {
	var e entity.Expense
	if err := c.ShouldBindJSON(&e); err != nil || e.PropertyID == 0 || e.Category == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "物件IDとカテゴリが必要です"})
		return
	}

	if err := h.expenses.Create(c.Request.Context(), &e); err != nil {
		h.logger.Error("Failed to create expense", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "収支の作成に失敗しました"})
		return
	}

	c.JSON(http.StatusCreated, &e)
}

// GetExpense handles GET /api/expenses/:id
func (h *Handlers) GetExpense(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	e, err := h.expenses.GetByID(c.Request.Context(), id)
	if err != nil {
		h.logger.Error("Failed to get expense", zap.Int64("id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "収支の取得に失敗しました"})
		return
	}
	if e == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "収支が見つかりません"})
		return
	}

	c.JSON(http.StatusOK, e)
}

// UpdateExpense handles PUT /api/expenses/:id
func (h *Handlers) UpdateExpense(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	var e entity.Expense
	if err := c.ShouldBindJSON(&e); err != nil || e.PropertyID == 0 || e.Category == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "物件IDとカテゴリが必要です"})
		return
	}
	e.ID = id

	if err := h.expenses.Update(c.Request.Context(), &e); err != nil {
		h.logger.Error("Failed to update expense", zap.Int64("id", id), zap.Error(err))
		c.JSON(http.StatusNotFound, gin.H{"error": "収支の更新に失敗しました"})
		return
	}

	c.JSON(http.StatusOK, &e)
}

// DeleteExpense handles DELETE /api/expenses/:id
func (h *Handlers) DeleteExpense(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	if err := h.expenses.Delete(c.Request.Context(), id); err != nil {
		h.logger.Error("Failed to delete expense", zap.Int64("id", id), zap.Error(err))
		c.JSON(http.StatusNotFound, gin.H{"error": "収支の削除に失敗しました"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// ListTaxInsurance handles GET /api/tax-insurance
func (h *Handlers) ListTaxInsurance(c *gin.Context) {
	records, err := h.taxInsurance.List(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to list tax/insurance records", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "税金・保険の取得に失敗しました"})
		return
	}
	if records == nil {
		records = []*entity.TaxInsurance{}
	}

	c.JSON(http.StatusOK, records)
}

// CreateTaxInsurance handles POST /api/tax-insurance
func (h *Handlers) CreateTaxInsurance(c *gin.Context) {
	var ti entity.TaxInsurance
	if err := c.ShouldBindJSON(&ti); err != nil || ti.PropertyID == 0 || ti.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "物件IDと名称が必要です"})
		return
	}

	if err := h.taxInsurance.Create(c.Request.Context(), &ti); err != nil {
		h.logger.Error("Failed to create tax/insurance record", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "税金・保険の作成に失敗しました"})
		return
	}

	c.JSON(http.StatusCreated, &ti)
}

// GetTaxInsurance handles GET /api/tax-insurance/:id
func (h *Handlers) GetTaxInsurance(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	ti, err := h.taxInsurance.GetByID(c.Request.Context(), id)
	if err != nil {
		h.logger.Error("Failed to get tax/insurance record", zap.Int64("id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "税金・保険の取得に失敗しました"})
		return
	}
	if ti == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "税金・保険が見つかりません"})
		return
	}

	c.JSON(http.StatusOK, ti)
}

// UpdateTaxInsurance handles PUT /api/tax-insurance/:id
func (h *Handlers) UpdateTaxInsurance(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	var ti entity.TaxInsurance
	if err := c.ShouldBindJSON(&ti); err != nil || ti.PropertyID == 0 || ti.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "物件IDと名称が必要です"})
		return
	}
	ti.ID = id

	if err := h.taxInsurance.Update(c.Request.Context(), &ti); err != nil {
		h.logger.Error("Failed to update tax/insurance record", zap.Int64("id", id), zap.Error(err))
		c.JSON(http.StatusNotFound, gin.H{"error": "税金・保険の更新に失敗しました"})
		return
	}

	c.JSON(http.StatusOK, &ti)
}

// DeleteTaxInsurance handles DELETE /api/tax-insurance/:id
func (h *Handlers) DeleteTaxInsurance(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	if err := h.taxInsurance.Delete(c.Request.Context(), id); err != nil {
		h.logger.Error("Failed to delete tax/insurance record", zap.Int64("id", id), zap.Error(err))
		c.JSON(http.StatusNotFound, gin.H{"error": "税金・保険の削除に失敗しました"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ExportRentLedger handles GET /api/reports/rent-ledger?month=YYYY-MM
func (h *Handlers) ExportRentLedger(c *gin.Context) {
	month := c.Query("month")
	if month == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "monthパラメータが必要です（YYYY-MM）"})
		return
	}

	f, err := h.exporter.Export(c.Request.Context(), month)
	if err != nil {
		if errors.Is(err, report.ErrInvalidMonth) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "monthの形式が不正です（YYYY-MM）"})
			return
		}
		h.logger.Error("Failed to export rent ledger", zap.String("month", month), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "帳票の作成に失敗しました"})
		return
	}
	defer f.Close()

	buf, err := f.WriteToBuffer()
	if err != nil {
		h.logger.Error("Failed to serialize workbook", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "帳票の作成に失敗しました"})
		return
	}

	c.Header("Content-Disposition", `attachment; filename="rent-ledger-`+month+`.xlsx"`)
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

// pathID parses the :id path parameter, responding 400 on garbage.
func (h *Handlers) pathID(c *gin.Context) (int64, bool) {
	idStr := c.Param("id")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "IDが不正です"})
		return 0, false
	}
	return id, true
}
