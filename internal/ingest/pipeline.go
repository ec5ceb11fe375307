// Package ingest orchestrates the document-ingestion pipeline: upload, OCR,
// LLM structuring, property resolution, and ledger persistence. The stages
// run strictly in sequence; any failure short-circuits the request. There is
// no retry anywhere in the pipeline; a retried upload is a new ingestion and
// creates a brand-new Document.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ryoma-android/takahashi01-sub000/internal/domain/entity"
	"github.com/ryoma-android/takahashi01-sub000/internal/property"
	"github.com/ryoma-android/takahashi01-sub000/pkg/utils"
	"go.uber.org/zap"
)

// UploadStore persists raw upload bytes and returns a stored path + public URL.
type UploadStore interface {
	Save(originalName string, content []byte) (storedPath string, publicURL string, err error)
}

// TextExtractor runs OCR over file content.
type TextExtractor interface {
	ExtractText(ctx context.Context, content []byte, mimeType string) (string, error)
}

// TextStructurer turns OCR text into the structured rent-statement schema.
type TextStructurer interface {
	Structure(ctx context.Context, ocrText string) (*entity.StructuredExtraction, string, error)
}

// PropertyResolver maps an extracted property name to a property id, creating
// one when nothing matches.
type PropertyResolver interface {
	Resolve(ctx context.Context, name string) (id int64, created bool, err error)
}

// DocumentWriter persists documents.
type DocumentWriter interface {
	Create(ctx context.Context, d *entity.Document) error
}

// ExpenseWriter persists ledger rows.
type ExpenseWriter interface {
	Create(ctx context.Context, e *entity.Expense) error
}

// TransactionManager wraps the persist stage in one transaction so a failed
// expense insert cannot leave a document without its ledger rows.
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// Config holds pipeline limits.
type Config struct {
	MaxUploadSize int64
}

// Pipeline runs the ingestion stages.
type Pipeline struct {
	cfg        Config
	uploads    UploadStore
	extractor  TextExtractor
	structurer TextStructurer
	resolver   PropertyResolver
	documents  DocumentWriter
	expenses   ExpenseWriter
	tx         TransactionManager
	logger     *zap.Logger
}

// NewPipeline creates a new ingestion pipeline.
func NewPipeline(
	cfg Config,
	uploads UploadStore,
	extractor TextExtractor,
	structurer TextStructurer,
	resolver PropertyResolver,
	documents DocumentWriter,
	expenses ExpenseWriter,
	tx TransactionManager,
	logger *zap.Logger,
) *Pipeline {
	return &Pipeline{
		cfg:        cfg,
		uploads:    uploads,
		extractor:  extractor,
		structurer: structurer,
		resolver:   resolver,
		documents:  documents,
		expenses:   expenses,
		tx:         tx,
		logger:     logger,
	}
}

// Input is one uploaded file.
type Input struct {
	Filename     string
	MimeType     string
	Size         int64
	Content      []byte
	PropertyHint string // optional caller-supplied property name
}

// Result is a successful ingestion.
type Result struct {
	Document        *entity.Document             `json:"document"`
	Expenses        []*entity.Expense            `json:"expenses"`
	Structured      *entity.StructuredExtraction `json:"structuredData"`
	PropertyCreated bool                         `json:"propertyCreated"`
	SkippedLines    int                          `json:"skippedLines"`
}

// Ingest runs the pipeline over one uploaded file.
func (p *Pipeline) Ingest(ctx context.Context, in Input) (*Result, error) {
	// Stage 1: validate. Must fail before any storage or provider call.
	if err := p.validate(in); err != nil {
		return nil, err
	}

	// Stage 2: store the raw upload. The eventual ledger rows need a stable
	// retrieval URL, so the pipeline cannot proceed without it.
	storedPath, publicURL, err := p.uploads.Save(in.Filename, in.Content)
	if err != nil {
		p.logger.Error("Upload storage failed",
			zap.String("stage", "upload"),
			zap.String("filename", in.Filename),
			zap.Error(err))
		return nil, persistenceError("upload", msgUploadFailed, err)
	}

	p.logger.Info("Upload stored",
		zap.String("filename", in.Filename),
		zap.String("stored_path", storedPath))

	// Stage 3: OCR.
	ocrText, err := p.extractor.ExtractText(ctx, in.Content, in.MimeType)
	if err != nil {
		p.logger.Error("OCR extraction failed",
			zap.String("stage", "extract"),
			zap.String("filename", in.Filename),
			zap.Error(err))
		return nil, providerError("extract", msgOCRFailed, err)
	}

	// Stage 4: LLM structuring.
	extraction, rawJSON, err := p.structurer.Structure(ctx, ocrText)
	if err != nil {
		p.logger.Error("Structuring failed",
			zap.String("stage", "structure"),
			zap.String("filename", in.Filename),
			zap.String("ocr_text_head", truncate(ocrText, 200)),
			zap.Error(err))
		p.recordFailedAttempt(ctx, in, publicURL, ocrText)
		return nil, providerError("structure", msgStructureFailed, err)
	}

	// Stage 5: resolve the property.
	candidate := extraction.PropertyName
	if candidate == "" {
		candidate = in.PropertyHint
	}
	propertyID, created, err := p.resolver.Resolve(ctx, candidate)
	if err != nil {
		p.logger.Error("Property resolution failed",
			zap.String("stage", "resolve"),
			zap.String("property_name", candidate),
			zap.Error(err))
		if errors.Is(err, property.ErrEmptyPropertyName) {
			return nil, clientError("resolve", msgNoPropertyName, 400, err)
		}
		return nil, persistenceError("resolve", msgPersistFailed, err)
	}

	// Stage 6: persist document + ledger rows in one transaction. A single
	// expense insert failure aborts and rolls back the whole stage; missing
	// required fields on a line only skip that line.
	doc := &entity.Document{
		PropertyID:    propertyID,
		Filename:      utils.SanitizeString(in.Filename),
		FileURL:       publicURL,
		ExtractedText: ocrText,
		ExtractedData: rawJSON,
		Status:        entity.DocumentStatusProcessed,
		Type:          entity.DocumentTypeReceipt,
	}

	validLines, skipped := extraction.ValidLines()
	if skipped > 0 {
		p.logger.Warn("Skipping contract lines with missing required fields",
			zap.Int("skipped", skipped),
			zap.Int("total", len(extraction.Contracts)))
	}

	var inserted []*entity.Expense
	now := time.Now()

	err = p.tx.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := p.documents.Create(txCtx, doc); err != nil {
			return fmt.Errorf("document insert failed: %w", err)
		}

		for _, line := range validLines {
			expense := &entity.Expense{
				PropertyID:  propertyID,
				Category:    entity.CategoryRent,
				Amount:      line.Amount,
				Description: fmt.Sprintf("%s %s", line.RoomNo, line.TenantName),
				Date:        line.NormalizedDate(now),
				ReceiptURL:  publicURL,
				DocumentID:  &doc.ID,
				RoomNo:      line.RoomNo,
				TenantName:  line.TenantName,
			}
			if err := p.expenses.Create(txCtx, expense); err != nil {
				return fmt.Errorf("expense insert failed (room %s): %w", line.RoomNo, err)
			}
			inserted = append(inserted, expense)
		}

		return nil
	})
	if err != nil {
		p.logger.Error("Persist stage failed",
			zap.String("stage", "persist"),
			zap.Int64("property_id", propertyID),
			zap.Error(err))
		return nil, persistenceError("persist", msgPersistFailed, err)
	}

	p.logger.Info("Ingestion completed",
		zap.Int64("document_id", doc.ID),
		zap.Int64("property_id", propertyID),
		zap.Int("expense_count", len(inserted)),
		zap.Int("skipped_lines", skipped),
		zap.Bool("property_created", created))

	// Stage 7: respond.
	return &Result{
		Document:        doc,
		Expenses:        inserted,
		Structured:      extraction,
		PropertyCreated: created,
		SkippedLines:    skipped,
	}, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// validate is stage 1. Rejections here must leave no side effects.
func (p *Pipeline) validate(in Input) error {
	if len(in.Content) == 0 {
		return clientError("validate", msgNoFile, 400, nil)
	}
	if in.Size > p.cfg.MaxUploadSize || int64(len(in.Content)) > p.cfg.MaxUploadSize {
		return clientError("validate", msgFileTooLarge, 413, nil)
	}
	if err := utils.ValidateMimeType(in.MimeType); err != nil {
		return clientError("validate", msgUnsupportedType, 400, err)
	}
	return nil
}

// recordFailedAttempt writes a best-effort error Document when structuring
// fails but a caller-supplied property hint identifies the property. Failures
// here are logged only; the provider error remains the surfaced failure.
func (p *Pipeline) recordFailedAttempt(ctx context.Context, in Input, publicURL, ocrText string) {
	if in.PropertyHint == "" {
		return
	}

	propertyID, _, err := p.resolver.Resolve(ctx, in.PropertyHint)
	if err != nil {
		p.logger.Warn("Could not resolve property for failed attempt",
			zap.String("hint", in.PropertyHint),
			zap.Error(err))
		return
	}

	doc := &entity.Document{
		PropertyID:    propertyID,
		Filename:      utils.SanitizeString(in.Filename),
		FileURL:       publicURL,
		ExtractedText: ocrText,
		Status:        entity.DocumentStatusError,
		Type:          entity.DocumentTypeReceipt,
	}
	if err := p.documents.Create(ctx, doc); err != nil {
		p.logger.Warn("Failed to record error document", zap.Error(err))
	}
}
