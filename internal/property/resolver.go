// Package property resolves OCR-extracted property names to property records.
package property

import (
	"context"
	"errors"
	"strings"

	"github.com/ryoma-android/takahashi01-sub000/internal/domain/entity"
	"go.uber.org/zap"
)

// ErrEmptyPropertyName is returned when the extracted property name is blank.
// A document whose property cannot be identified is not actionable.
var ErrEmptyPropertyName = errors.New("property name is empty")

// Store is the subset of the property repository the resolver needs.
type Store interface {
	List(ctx context.Context) ([]*entity.Property, error)
	Create(ctx context.Context, p *entity.Property) error
}

// Resolver matches candidate property names against existing properties.
// Matching is deliberately loose (case-insensitive containment) to tolerate
// OCR noise such as extra whitespace or partial legal-entity suffixes.
type Resolver struct {
	store  Store
	logger *zap.Logger
}

// NewResolver creates a new Resolver.
func NewResolver(store Store, logger *zap.Logger) *Resolver {
	return &Resolver{
		store:  store,
		logger: logger,
	}
}

// Resolve returns the id of the property matching name, creating a new
// property with placeholder defaults when no match exists. The returned bool
// reports whether a property was created.
func (r *Resolver) Resolve(ctx context.Context, name string) (int64, bool, error) {
	candidate := strings.TrimSpace(name)
	if candidate == "" {
		return 0, false, ErrEmptyPropertyName
	}

	if id, ok, err := r.match(ctx, candidate); err != nil {
		return 0, false, err
	} else if ok {
		return id, false, nil
	}

	created := entity.NewPlaceholderProperty(candidate)
	if err := r.store.Create(ctx, created); err != nil {
		return 0, false, err
	}

	r.logger.Info("Created property for unmatched name",
		zap.String("name", candidate),
		zap.Int64("property_id", created.ID))

	return created.ID, true, nil
}

// ResolveOrDefault returns the matching property id, or fallbackID when the
// name is blank or nothing matches. It never creates a property.
func (r *Resolver) ResolveOrDefault(ctx context.Context, name string, fallbackID int64) (int64, error) {
	candidate := strings.TrimSpace(name)
	if candidate == "" {
		return fallbackID, nil
	}

	id, ok, err := r.match(ctx, candidate)
	if err != nil {
		return 0, err
	}
	if !ok {
		return fallbackID, nil
	}
	return id, nil
}

// match scans existing properties in id order. An exact case-insensitive
// match wins over containment; otherwise the first property whose name
// contains, or is contained in, the candidate is taken.
func (r *Resolver) match(ctx context.Context, candidate string) (int64, bool, error) {
	properties, err := r.store.List(ctx)
	if err != nil {
		return 0, false, err
	}

	lowered := strings.ToLower(candidate)

	for _, p := range properties {
		if strings.ToLower(strings.TrimSpace(p.Name)) == lowered {
			return p.ID, true, nil
		}
	}

	for _, p := range properties {
		existing := strings.ToLower(strings.TrimSpace(p.Name))
		if existing == "" {
			continue
		}
		if strings.Contains(lowered, existing) || strings.Contains(existing, lowered) {
			r.logger.Debug("Property matched by containment",
				zap.String("candidate", candidate),
				zap.String("matched", p.Name))
			return p.ID, true, nil
		}
	}

	return 0, false, nil
}
