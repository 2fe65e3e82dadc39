// Package inventory guards product stock around sale commits.
// Only the guard's debit/credit paths mutate Product.stock, and always
// inside a transaction that also writes the sale record.
package inventory

import (
	"context"
	"fmt"

	"minimarket/internal/core/apperror"
	"minimarket/internal/core/id"
	"minimarket/internal/domain/catalogs/product"
	"minimarket/pkg/logger"
)

// Demand is one product requirement from a cart.
type Demand struct {
	ProductID id.ID
	Quantity  int64
}

// Guard validates product availability and applies stock deltas.
type Guard struct {
	products product.Repository
}

// NewGuard creates a guard over the catalog store.
func NewGuard(products product.Repository) *Guard {
	return &Guard{products: products}
}

// Validate fetches all referenced products in one batch and checks
// existence, active status and sufficient stock. It runs before the write
// transaction to fail fast; the conditional debit inside the transaction
// re-checks stock so a late conflicting writer cannot push it negative.
func (g *Guard) Validate(ctx context.Context, demands []Demand) ([]*product.Product, error) {
	ids := make([]id.ID, 0, len(demands))
	seen := make(map[id.ID]struct{}, len(demands))
	for _, d := range demands {
		if _, dup := seen[d.ProductID]; dup {
			return nil, apperror.NewValidation("duplicate product in cart").
				WithDetail("product_id", d.ProductID.String())
		}
		seen[d.ProductID] = struct{}{}
		ids = append(ids, d.ProductID)
	}

	found, err := g.products.FindByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("fetch products: %w", err)
	}

	byID := make(map[id.ID]*product.Product, len(found))
	for _, p := range found {
		byID[p.ID] = p
	}

	if len(found) != len(ids) {
		var missing []string
		for _, pid := range ids {
			if _, ok := byID[pid]; !ok {
				missing = append(missing, pid.String())
			}
		}
		return nil, apperror.NewNotFound("product", missing)
	}

	for _, d := range demands {
		p := byID[d.ProductID]
		if !p.IsActive {
			return nil, apperror.NewBusinessRule(apperror.CodeProductInactive, "product is not sellable").
				WithDetail("product_id", p.ID.String()).
				WithDetail("product_name", p.Name)
		}
		if d.Quantity > p.Stock {
			return nil, apperror.NewInsufficientStock(p.ID.String(), d.Quantity, p.Stock)
		}
	}

	return found, nil
}

// Debit decrements stock for every demand. Assumes Validate already passed
// in this request; the repository still refuses to go negative.
// Must run inside the same transaction as the sale insert.
func (g *Guard) Debit(ctx context.Context, demands []Demand) error {
	for _, d := range demands {
		if err := g.products.DebitStock(ctx, d.ProductID, d.Quantity); err != nil {
			return err
		}
	}
	return nil
}

// Credit restores stock by the original quantities, unconditionally.
// Stock can only be restored by this path, never pushed negative.
func (g *Guard) Credit(ctx context.Context, demands []Demand) error {
	for _, d := range demands {
		if err := g.products.CreditStock(ctx, d.ProductID, d.Quantity); err != nil {
			return err
		}
	}
	logger.Info(ctx, "restored stock", "lines", len(demands))
	return nil
}
