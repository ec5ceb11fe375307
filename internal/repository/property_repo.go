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

// PropertyRepository persists properties
type PropertyRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewPropertyRepository creates a new property repository
func NewPropertyRepository(db *sql.DB, logger *zap.Logger) *PropertyRepository {
	return &PropertyRepository{
		db:     db,
		logger: logger,
	}
}

const propertyColumns = `id, name, type, units, occupied_units, monthly_income, yearly_income,
	expenses, net_income, yield_rate, location, address, created_at, updated_at`

// Create inserts a new property record
func (r *PropertyRepository) Create(ctx context.Context, p *entity.Property) error {
	query := `
		INSERT INTO properties (
			name, type, units, occupied_units, monthly_income, yearly_income,
			expenses, net_income, yield_rate, location, address, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	now := time.Now()
	result, err := database.ExecutorFrom(ctx, r.db).ExecContext(ctx, query,
		p.Name,
		p.Type,
		p.Units,
		p.OccupiedUnits,
		p.MonthlyIncome,
		p.YearlyIncome,
		p.Expenses,
		p.NetIncome,
		p.YieldRate,
		p.Location,
		p.Address,
		now,
		now,
	)
	if err != nil {
		r.logger.Error("Failed to create property", zap.Error(err))
		return fmt.Errorf("failed to create property: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	p.ID = id
	p.CreatedAt = now
	p.UpdatedAt = now
	return nil
}

// GetByID retrieves a property by ID. Returns nil when not found.
func (r *PropertyRepository) GetByID(ctx context.Context, id int64) (*entity.Property, error) {
	query := `SELECT ` + propertyColumns + ` FROM properties WHERE id = ?`

	var p entity.Property
	err := database.ExecutorFrom(ctx, r.db).QueryRowContext(ctx, query, id).Scan(
		&p.ID, &p.Name, &p.Type, &p.Units, &p.OccupiedUnits,
		&p.MonthlyIncome, &p.YearlyIncome, &p.Expenses, &p.NetIncome,
		&p.YieldRate, &p.Location, &p.Address, &p.CreatedAt, &p.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get property by ID", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get property: %w", err)
	}

	return &p, nil
}

// List returns all properties in ascending id order
func (r *PropertyRepository) List(ctx context.Context) ([]*entity.Property, error) {
	query := `SELECT ` + propertyColumns + ` FROM properties ORDER BY id ASC`

	rows, err := database.ExecutorFrom(ctx, r.db).QueryContext(ctx, query)
	if err != nil {
		r.logger.Error("Failed to list properties", zap.Error(err))
		return nil, fmt.Errorf("failed to list properties: %w", err)
	}
	defer rows.Close()

	var properties []*entity.Property
	for rows.Next() {
		var p entity.Property
		if err := rows.Scan(
			&p.ID, &p.Name, &p.Type, &p.Units, &p.OccupiedUnits,
			&p.MonthlyIncome, &p.YearlyIncome, &p.Expenses, &p.NetIncome,
			&p.YieldRate, &p.Location, &p.Address, &p.CreatedAt, &p.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan property: %w", err)
		}
		properties = append(properties, &p)
	}

	return properties, rows.Err()
}

// Update updates an existing property
func (r *PropertyRepository) Update(ctx context.Context, p *entity.Property) error {
	query := `
		UPDATE properties
		SET name = ?, type = ?, units = ?, occupied_units = ?, monthly_income = ?,
			yearly_income = ?, expenses = ?, net_income = ?, yield_rate = ?,
			location = ?, address = ?, updated_at = ?
		WHERE id = ?
	`

	now := time.Now()
	result, err := database.ExecutorFrom(ctx, r.db).ExecContext(ctx, query,
		p.Name, p.Type, p.Units, p.OccupiedUnits, p.MonthlyIncome,
		p.YearlyIncome, p.Expenses, p.NetIncome, p.YieldRate,
		p.Location, p.Address, now, p.ID,
	)
	if err != nil {
		r.logger.Error("Failed to update property", zap.Int64("id", p.ID), zap.Error(err))
		return fmt.Errorf("failed to update property: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("property not found: %d", p.ID)
	}

	p.UpdatedAt = now
	return nil
}

// Delete removes a property by ID
func (r *PropertyRepository) Delete(ctx context.Context, id int64) error {
	result, err := database.ExecutorFrom(ctx, r.db).ExecContext(ctx,
		`DELETE FROM properties WHERE id = ?`, id)
	if err != nil {
		r.logger.Error("Failed to delete property", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("failed to delete property: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("property not found: %d", id)
	}

	return nil
}
