// Package catalog_repo provides PostgreSQL implementations for catalog repositories.
package catalog_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"minimarket/internal/core/apperror"
	"minimarket/internal/core/id"
	"minimarket/internal/domain/catalogs/product"
	"minimarket/internal/infrastructure/storage/postgres"
)

const productTable = "cat_products"

var productColumns = []string{
	"id", "code", "name", "barcode", "sale_price", "stock",
	"is_active", "created_at", "updated_at",
}

// ProductRepo implements product.Repository.
type ProductRepo struct {
	txManager *postgres.TxManager
}

// NewProductRepo creates a new product repository.
func NewProductRepo(txManager *postgres.TxManager) *ProductRepo {
	return &ProductRepo{txManager: txManager}
}

func (r *ProductRepo) builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

func (r *ProductRepo) baseSelect() squirrel.SelectBuilder {
	return r.builder().
		Select(productColumns...).
		From(productTable)
}

// GetByID retrieves a product by ID.
func (r *ProductRepo) GetByID(ctx context.Context, productID id.ID) (*product.Product, error) {
	q := r.baseSelect().
		Where(squirrel.Eq{"id": productID}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var p product.Product
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &p, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound(productTable, productID.String())
		}
		return nil, fmt.Errorf("get product by id: %w", err)
	}

	return &p, nil
}

// FindByIDs fetches products in one batch. Missing ids are absent from
// the result.
func (r *ProductRepo) FindByIDs(ctx context.Context, ids []id.ID) ([]*product.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	q := r.baseSelect().
		Where(squirrel.Eq{"id": ids})

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var items []*product.Product
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &items, sql, args...); err != nil {
		return nil, fmt.Errorf("find products by ids: %w", err)
	}

	return items, nil
}

// DebitStock decrements stock atomically. The WHERE guard keeps stock
// non-negative even when two transactions raced past validation.
func (r *ProductRepo) DebitStock(ctx context.Context, productID id.ID, qty int64) error {
	q := r.builder().
		Update(productTable).
		Set("stock", squirrel.Expr("stock - ?", qty)).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": productID}).
		Where(squirrel.GtOrEq{"stock": qty})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build debit stock: %w", err)
	}

	result, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("debit stock %s: %w", productID, err)
	}

	if result.RowsAffected() == 0 {
		// Either the product vanished or the guard blocked a negative
		// balance. Re-read to tell the two apart.
		p, getErr := r.GetByID(ctx, productID)
		if getErr != nil {
			return getErr
		}
		return apperror.NewInsufficientStock(p.ID.String(), qty, p.Stock)
	}

	return nil
}

// CreditStock increments stock unconditionally.
func (r *ProductRepo) CreditStock(ctx context.Context, productID id.ID, qty int64) error {
	q := r.builder().
		Update(productTable).
		Set("stock", squirrel.Expr("stock + ?", qty)).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": productID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build credit stock: %w", err)
	}

	result, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("credit stock %s: %w", productID, err)
	}

	if result.RowsAffected() == 0 {
		return apperror.NewNotFound(productTable, productID.String())
	}

	return nil
}
