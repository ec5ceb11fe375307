package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ryoma-android/takahashi01-sub000/internal/domain/entity"
	"github.com/ryoma-android/takahashi01-sub000/pkg/database"
	"go.uber.org/zap"
)

// DocumentRepository persists ingestion documents
type DocumentRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewDocumentRepository creates a new document repository
func NewDocumentRepository(db *sql.DB, logger *zap.Logger) *DocumentRepository {
	return &DocumentRepository{
		db:     db,
		logger: logger,
	}
}

const documentColumns = `id, property_id, filename, file_url, extracted_text, extracted_data, status, type, created_at`

// Create inserts a new document record
func (r *DocumentRepository) Create(ctx context.Context, d *entity.Document) error {
	query := `
		INSERT INTO documents (
			property_id, filename, file_url, extracted_text, extracted_data, status, type, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	now := time.Now()
	if d.Type == "" {
		d.Type = entity.DocumentTypeReceipt
	}

	result, err := database.ExecutorFrom(ctx, r.db).ExecContext(ctx, query,
		d.PropertyID,
		d.Filename,
		d.FileURL,
		d.ExtractedText,
		d.ExtractedData,
		d.Status,
		d.Type,
		now,
	)
	if err != nil {
		r.logger.Error("Failed to create document", zap.Error(err))
		return fmt.Errorf("failed to create document: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	d.ID = id
	d.CreatedAt = now
	return nil
}

// GetByID retrieves a document by ID. Returns nil when not found.
func (r *DocumentRepository) GetByID(ctx context.Context, id int64) (*entity.Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents WHERE id = ?`

	var d entity.Document
	err := database.ExecutorFrom(ctx, r.db).QueryRowContext(ctx, query, id).Scan(
		&d.ID, &d.PropertyID, &d.Filename, &d.FileURL,
		&d.ExtractedText, &d.ExtractedData, &d.Status, &d.Type, &d.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get document by ID", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get document: %w", err)
	}

	return &d, nil
}

// List returns all documents, newest first
func (r *DocumentRepository) List(ctx context.Context) ([]*entity.Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents ORDER BY created_at DESC, id DESC`

	rows, err := database.ExecutorFrom(ctx, r.db).QueryContext(ctx, query)
	if err != nil {
		r.logger.Error("Failed to list documents", zap.Error(err))
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	defer rows.Close()

	var documents []*entity.Document
	for rows.Next() {
		var d entity.Document
		if err := rows.Scan(
			&d.ID, &d.PropertyID, &d.Filename, &d.FileURL,
			&d.ExtractedText, &d.ExtractedData, &d.Status, &d.Type, &d.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		documents = append(documents, &d)
	}

	return documents, rows.Err()
}

// UpdateExtractedData replaces a document's stored structured data
func (r *DocumentRepository) UpdateExtractedData(ctx context.Context, id int64, extractedData string) error {
	result, err := database.ExecutorFrom(ctx, r.db).ExecContext(ctx,
		`UPDATE documents SET extracted_data = ? WHERE id = ?`, extractedData, id)
	if err != nil {
		r.logger.Error("Failed to update document data", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("failed to update document: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("document not found: %d", id)
	}

	return nil
}

// Delete removes a document by ID
func (r *DocumentRepository) Delete(ctx context.Context, id int64) error {
	result, err := database.ExecutorFrom(ctx, r.db).ExecContext(ctx,
		`DELETE FROM documents WHERE id = ?`, id)
	if err != nil {
		r.logger.Error("Failed to delete document", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("failed to delete document: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("document not found: %d", id)
	}

	return nil
}
