package inventory

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"minimarket/internal/core/apperror"
	"minimarket/internal/core/id"
	"minimarket/internal/core/types"
	"minimarket/internal/domain/catalogs/product"
)

// fakeProductRepo is an in-memory product.Repository.
type fakeProductRepo struct {
	mu       sync.Mutex
	products map[id.ID]*product.Product
}

func newFakeProductRepo(products ...*product.Product) *fakeProductRepo {
	r := &fakeProductRepo{products: make(map[id.ID]*product.Product)}
	for _, p := range products {
		r.products[p.ID] = p
	}
	return r
}

func (r *fakeProductRepo) GetByID(_ context.Context, productID id.ID) (*product.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[productID]
	if !ok {
		return nil, apperror.NewNotFound("product", productID.String())
	}
	clone := *p
	return &clone, nil
}

func (r *fakeProductRepo) FindByIDs(_ context.Context, ids []id.ID) ([]*product.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*product.Product
	for _, pid := range ids {
		if p, ok := r.products[pid]; ok {
			clone := *p
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (r *fakeProductRepo) DebitStock(_ context.Context, productID id.ID, qty int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[productID]
	if !ok {
		return apperror.NewNotFound("product", productID.String())
	}
	if p.Stock < qty {
		return apperror.NewInsufficientStock(productID.String(), qty, p.Stock)
	}
	p.Stock -= qty
	return nil
}

func (r *fakeProductRepo) CreditStock(_ context.Context, productID id.ID, qty int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[productID]
	if !ok {
		return apperror.NewNotFound("product", productID.String())
	}
	p.Stock += qty
	return nil
}

func (r *fakeProductRepo) stockOf(productID id.ID) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.products[productID].Stock
}

func testProduct(stock int64, active bool) *product.Product {
	return &product.Product{
		ID:        id.New(),
		Code:      "P-001",
		Name:      "Arroz Costeño 1kg",
		SalePrice: types.MustMoney("4.50"),
		Stock:     stock,
		IsActive:  active,
	}
}

func TestValidate_OK(t *testing.T) {
	p := testProduct(10, true)
	guard := NewGuard(newFakeProductRepo(p))

	found, err := guard.Validate(context.Background(), []Demand{{ProductID: p.ID, Quantity: 10}})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, p.ID, found[0].ID)
}

func TestValidate_DuplicateProduct(t *testing.T) {
	p := testProduct(10, true)
	guard := NewGuard(newFakeProductRepo(p))

	_, err := guard.Validate(context.Background(), []Demand{
		{ProductID: p.ID, Quantity: 1},
		{ProductID: p.ID, Quantity: 2},
	})
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))
}

func TestValidate_MissingProduct(t *testing.T) {
	guard := NewGuard(newFakeProductRepo())

	_, err := guard.Validate(context.Background(), []Demand{{ProductID: id.New(), Quantity: 1}})
	assert.True(t, apperror.IsNotFound(err))
}

func TestValidate_InactiveProduct(t *testing.T) {
	p := testProduct(10, false)
	guard := NewGuard(newFakeProductRepo(p))

	_, err := guard.Validate(context.Background(), []Demand{{ProductID: p.ID, Quantity: 1}})
	assert.True(t, apperror.IsCode(err, apperror.CodeProductInactive))
}

func TestValidate_InsufficientStock(t *testing.T) {
	p := testProduct(3, true)
	guard := NewGuard(newFakeProductRepo(p))

	_, err := guard.Validate(context.Background(), []Demand{{ProductID: p.ID, Quantity: 4}})
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeInsufficientStock))

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, int64(4), appErr.Details["requested"])
	assert.Equal(t, int64(3), appErr.Details["available"])
}

func TestDebitCredit_RoundTrip(t *testing.T) {
	p := testProduct(10, true)
	repo := newFakeProductRepo(p)
	guard := NewGuard(repo)
	demands := []Demand{{ProductID: p.ID, Quantity: 4}}

	require.NoError(t, guard.Debit(context.Background(), demands))
	assert.Equal(t, int64(6), repo.stockOf(p.ID))

	require.NoError(t, guard.Credit(context.Background(), demands))
	assert.Equal(t, int64(10), repo.stockOf(p.ID))
}
