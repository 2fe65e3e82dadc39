package catalog_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"minimarket/internal/core/apperror"
	"minimarket/internal/core/id"
	"minimarket/internal/domain/catalogs/customer"
	"minimarket/internal/infrastructure/storage/postgres"
)

const customerTable = "cat_customers"

var customerColumns = []string{
	"id", "name", "tax_id", "email", "phone", "created_at", "updated_at",
}

// CustomerRepo implements customer.Repository.
type CustomerRepo struct {
	txManager *postgres.TxManager
}

// NewCustomerRepo creates a new customer repository.
func NewCustomerRepo(txManager *postgres.TxManager) *CustomerRepo {
	return &CustomerRepo{txManager: txManager}
}

// GetByID retrieves a customer by ID.
func (r *CustomerRepo) GetByID(ctx context.Context, customerID id.ID) (*customer.Customer, error) {
	q := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar).
		Select(customerColumns...).
		From(customerTable).
		Where(squirrel.Eq{"id": customerID}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var c customer.Customer
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &c, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound(customerTable, customerID.String())
		}
		return nil, fmt.Errorf("get customer by id: %w", err)
	}

	return &c, nil
}
