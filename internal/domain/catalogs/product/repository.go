package product

import (
	"context"

	"minimarket/internal/core/id"
)

// Repository defines catalog store operations the sale engine needs.
type Repository interface {
	// GetByID retrieves a product by ID
	GetByID(ctx context.Context, productID id.ID) (*Product, error)

	// FindByIDs fetches products in one batch. Missing ids are simply
	// absent from the result; callers compare counts.
	FindByIDs(ctx context.Context, ids []id.ID) ([]*Product, error)

	// DebitStock decrements stock by qty and stamps updated_at.
	// Fails with InsufficientStock if the row would go negative, so the
	// database is the last line of defense even if validation raced.
	DebitStock(ctx context.Context, productID id.ID, qty int64) error

	// CreditStock increments stock by qty unconditionally.
	// Used by sale cancellation to restore inventory.
	CreditStock(ctx context.Context, productID id.ID, qty int64) error
}
