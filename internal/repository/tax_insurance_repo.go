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

// TaxInsuranceRepository persists tax and insurance records
type TaxInsuranceRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewTaxInsuranceRepository creates a new tax/insurance repository
func NewTaxInsuranceRepository(db *sql.DB, logger *zap.Logger) *TaxInsuranceRepository {
	return &TaxInsuranceRepository{
		db:     db,
		logger: logger,
	}
}

const taxInsuranceColumns = `id, property_id, type, name, amount, due_date, paid, memo, created_at, updated_at`

// Create inserts a new tax/insurance record
func (r *TaxInsuranceRepository) Create(ctx context.Context, ti *entity.TaxInsurance) error {
	query := `
		INSERT INTO tax_insurance (
			property_id, type, name, amount, due_date, paid, memo, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	now := time.Now()
	result, err := database.ExecutorFrom(ctx, r.db).ExecContext(ctx, query,
		ti.PropertyID, ti.Type, ti.Name, ti.Amount, ti.DueDate, ti.Paid, ti.Memo, now, now,
	)
	if err != nil {
		r.logger.Error("Failed to create tax/insurance record", zap.Error(err))
		return fmt.Errorf("failed to create tax/insurance record: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	ti.ID = id
	ti.CreatedAt = now
	ti.UpdatedAt = now
	return nil
}

// GetByID retrieves a record by ID. Returns nil when not found.
func (r *TaxInsuranceRepository) GetByID(ctx context.Context, id int64) (*entity.TaxInsurance, error) {
	query := `SELECT ` + taxInsuranceColumns + ` FROM tax_insurance WHERE id = ?`

	var ti entity.TaxInsurance
	err := database.ExecutorFrom(ctx, r.db).QueryRowContext(ctx, query, id).Scan(
		&ti.ID, &ti.PropertyID, &ti.Type, &ti.Name, &ti.Amount,
		&ti.DueDate, &ti.Paid, &ti.Memo, &ti.CreatedAt, &ti.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get tax/insurance record", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get tax/insurance record: %w", err)
	}

	return &ti, nil
}

// List returns all records ordered by due date
func (r *TaxInsuranceRepository) List(ctx context.Context) ([]*entity.TaxInsurance, error) {
	query := `SELECT ` + taxInsuranceColumns + ` FROM tax_insurance ORDER BY due_date ASC, id ASC`

	rows, err := database.ExecutorFrom(ctx, r.db).QueryContext(ctx, query)
	if err != nil {
		r.logger.Error("Failed to list tax/insurance records", zap.Error(err))
		return nil, fmt.Errorf("failed to list tax/insurance records: %w", err)
	}
	defer rows.Close()

	var records []*entity.TaxInsurance
	for rows.Next() {
		var ti entity.TaxInsurance
		if err := rows.Scan(
			&ti.ID, &ti.PropertyID, &ti.Type, &ti.Name, &ti.Amount,
			&ti.DueDate, &ti.Paid, &ti.Memo, &ti.CreatedAt, &ti.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan tax/insurance record: %w", err)
		}
		records = append(records, &ti)
	}

	return records, rows.Err()
}

// Update updates an existing record
func (r *TaxInsuranceRepository) Update(ctx context.Context, ti *entity.TaxInsurance) error {
	query := `
		UPDATE tax_insurance
		SET property_id = ?, type = ?, name = ?, amount = ?, due_date = ?, paid = ?, memo = ?, updated_at = ?
		WHERE id = ?
	`

	now := time.Now()
	result, err := database.ExecutorFrom(ctx, r.db).ExecContext(ctx, query,
		ti.PropertyID, ti.Type, ti.Name, ti.Amount, ti.DueDate, ti.Paid, ti.Memo, now, ti.ID,
	)
	if err != nil {
		r.logger.Error("Failed to update tax/insurance record", zap.Int64("id", ti.ID), zap.Error(err))
		return fmt.Errorf("failed to update tax/insurance record: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("tax/insurance record not found: %d", ti.ID)
	}

	ti.UpdatedAt = now
	return nil
}

// Delete removes a record by ID
func (r *TaxInsuranceRepository) Delete(ctx context.Context, id int64) error {
	result, err := database.ExecutorFrom(ctx, r.db).ExecContext(ctx,
		`DELETE FROM tax_insurance WHERE id = ?`, id)
	if err != nil {
		r.logger.Error("Failed to delete tax/insurance record", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("failed to delete tax/insurance record: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("tax/insurance record not found: %d", id)
	}

	return nil
}
