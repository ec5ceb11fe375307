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

// ExpenseRepository persists ledger rows
type ExpenseRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewExpenseRepository creates a new expense repository
func NewExpenseRepository(db *sql.DB, logger *zap.Logger) *ExpenseRepository {
	return &ExpenseRepository{
		db:     db,
		logger: logger,
	}
}

const expenseColumns = `id, property_id, category, amount, description, date, receipt_url, document_id, room_no, tenant_name, created_at`

// Create inserts a new expense row
func (r *ExpenseRepository) Create(ctx context.Context, e *entity.Expense) error {
	query := `
		INSERT INTO expenses (
			property_id, category, amount, description, date, receipt_url,
			document_id, room_no, tenant_name, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	now := time.Now()
	result, err := database.ExecutorFrom(ctx, r.db).ExecContext(ctx, query,
		e.PropertyID,
		e.Category,
		e.Amount,
		e.Description,
		e.Date,
		e.ReceiptURL,
		e.DocumentID,
		e.RoomNo,
		e.TenantName,
		now,
	)
	if err != nil {
		r.logger.Error("Failed to create expense", zap.Error(err))
		return fmt.Errorf("failed to create expense: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	e.ID = id
	e.CreatedAt = now
	return nil
}

func scanExpense(rows *sql.Rows) (*entity.Expense, error) {
	var e entity.Expense
	var amount sql.NullFloat64
	var documentID sql.NullInt64

	if err := rows.Scan(
		&e.ID, &e.PropertyID, &e.Category, &amount, &e.Description,
		&e.Date, &e.ReceiptURL, &documentID, &e.RoomNo, &e.TenantName, &e.CreatedAt,
	); err != nil {
		return nil, fmt.Errorf("failed to scan expense: %w", err)
	}

	if amount.Valid {
		e.Amount = &amount.Float64
	}
	if documentID.Valid {
		e.DocumentID = &documentID.Int64
	}
	return &e, nil
}

// GetByID retrieves an expense by ID. Returns nil when not found.
func (r *ExpenseRepository) GetByID(ctx context.Context, id int64) (*entity.Expense, error) {
	query := `SELECT ` + expenseColumns + ` FROM expenses WHERE id = ?`

	rows, err := database.ExecutorFrom(ctx, r.db).QueryContext(ctx, query, id)
	if err != nil {
		r.logger.Error("Failed to get expense by ID", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get expense: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	return scanExpense(rows)
}

// List returns all expenses, newest date first
func (r *ExpenseRepository) List(ctx context.Context) ([]*entity.Expense, error) {
	query := `SELECT ` + expenseColumns + ` FROM expenses ORDER BY date DESC, id DESC`
	return r.queryExpenses(ctx, query)
}

// ListByDocumentID returns the expenses derived from a document
func (r *ExpenseRepository) ListByDocumentID(ctx context.Context, documentID int64) ([]*entity.Expense, error) {
	query := `SELECT ` + expenseColumns + ` FROM expenses WHERE document_id = ? ORDER BY id ASC`
	return r.queryExpenses(ctx, query, documentID)
}

// ListByMonth returns the expenses dated within a YYYY-MM month
func (r *ExpenseRepository) ListByMonth(ctx context.Context, month string) ([]*entity.Expense, error) {
	query := `SELECT ` + expenseColumns + ` FROM expenses WHERE date LIKE ? ORDER BY property_id ASC, room_no ASC`
	return r.queryExpenses(ctx, query, month+"%")
}

func (r *ExpenseRepository) queryExpenses(ctx context.Context, query string, args ...interface{}) ([]*entity.Expense, error) {
	rows, err := database.ExecutorFrom(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to query expenses", zap.Error(err))
		return nil, fmt.Errorf("failed to query expenses: %w", err)
	}
	defer rows.Close()

	var expenses []*entity.Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, err
		}
		expenses = append(expenses, e)
	}

	return expenses, rows.Err()
}

// Update updates an existing expense
func (r *ExpenseRepository) Update(ctx context.Context, e *entity.Expense) error {
	query := `
		UPDATE expenses
		SET property_id = ?, category = ?, amount = ?, description = ?, date = ?,
			receipt_url = ?, room_no = ?, tenant_name = ?
		WHERE id = ?
	`

	result, err := database.ExecutorFrom(ctx, r.db).ExecContext(ctx, query,
		e.PropertyID, e.Category, e.Amount, e.Description, e.Date,
		e.ReceiptURL, e.RoomNo, e.TenantName, e.ID,
	)
	if err != nil {
		r.logger.Error("Failed to update expense", zap.Int64("id", e.ID), zap.Error(err))
		return fmt.Errorf("failed to update expense: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("expense not found: %d", e.ID)
	}

	return nil
}

// Delete removes an expense by ID
func (r *ExpenseRepository) Delete(ctx context.Context, id int64) error {
	result, err := database.ExecutorFrom(ctx, r.db).ExecContext(ctx,
		`DELETE FROM expenses WHERE id = ?`, id)
	if err != nil {
		r.logger.Error("Failed to delete expense", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("failed to delete expense: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("expense not found: %d", id)
	}

	return nil
}

// DeleteByDocumentID removes all expenses derived from a document. It returns
// the number of rows removed.
func (r *ExpenseRepository) DeleteByDocumentID(ctx context.Context, documentID int64) (int64, error) {
	result, err := database.ExecutorFrom(ctx, r.db).ExecContext(ctx,
		`DELETE FROM expenses WHERE document_id = ?`, documentID)
	if err != nil {
		r.logger.Error("Failed to delete expenses for document",
			zap.Int64("document_id", documentID),
			zap.Error(err))
		return 0, fmt.Errorf("failed to delete expenses for document: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return affected, nil
}
