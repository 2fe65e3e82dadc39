package sales

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"minimarket/internal/core/apperror"
	"minimarket/internal/core/id"
	"minimarket/internal/core/types"
)

func TestDocumentKindPrefix(t *testing.T) {
	assert.Equal(t, "B001", KindBoleta.Prefix())
	assert.Equal(t, "F001", KindFactura.Prefix())
}

func TestNewSale(t *testing.T) {
	productID := id.New()
	totals := Totals{
		Subtotal: types.MustMoney("50.00"),
		Discount: types.Zero(),
		Tax:      types.MustMoney("9.00"),
		Total:    types.MustMoney("59.00"),
	}
	items := []CartItem{
		{ProductID: productID, Quantity: 2, UnitPrice: types.MustMoney("10.00")},
		{ProductID: id.New(), Quantity: 3, UnitPrice: types.MustMoney("10.00")},
	}

	sale := NewSale(KindBoleta, nil, PaymentCash, items, totals, types.MustMoney("100.00"), types.MustMoney("41.00"))

	assert.False(t, id.IsNil(sale.ID))
	assert.Equal(t, StatusPaid, sale.Status)
	assert.Equal(t, 1, sale.Version)
	require.Len(t, sale.Lines, 2)
	assert.Equal(t, 1, sale.Lines[0].LineNo)
	assert.Equal(t, 2, sale.Lines[1].LineNo)
	assert.Equal(t, "20.00", sale.Lines[0].LineSubtotal.StringFixed(2))
	assert.Equal(t, "30.00", sale.Lines[1].LineSubtotal.StringFixed(2))
}

func TestSaleValidate(t *testing.T) {
	ctx := context.Background()
	valid := func() *Sale {
		return NewSale(KindBoleta, nil, PaymentCash,
			[]CartItem{{ProductID: id.New(), Quantity: 1, UnitPrice: types.MustMoney("5.00")}},
			Totals{}, types.MustMoney("10.00"), types.Zero())
	}

	require.NoError(t, valid().Validate(ctx))

	s := valid()
	s.DocumentKind = "ticket"
	assert.True(t, apperror.IsCode(s.Validate(ctx), apperror.CodeValidation))

	s = valid()
	s.PaymentMethod = "cheque"
	assert.True(t, apperror.IsCode(s.Validate(ctx), apperror.CodeValidation))

	s = valid()
	s.Lines = nil
	assert.True(t, apperror.IsCode(s.Validate(ctx), apperror.CodeEmptyCart))

	s = valid()
	s.Lines[0].Quantity = 0
	assert.True(t, apperror.IsCode(s.Validate(ctx), apperror.CodeValidation))

	s = valid()
	s.Lines[0].UnitPrice = types.MustMoney("-1.00")
	assert.True(t, apperror.IsCode(s.Validate(ctx), apperror.CodeValidation))
}

func TestCanVoid(t *testing.T) {
	s := &Sale{ID: id.New(), Status: StatusPaid}
	require.NoError(t, s.CanVoid())

	s.MarkVoided("wrong items")
	err := s.CanVoid()
	assert.True(t, apperror.IsCode(err, apperror.CodeSaleAlreadyVoided))
	require.NotNil(t, s.VoidReason)
	assert.Equal(t, "wrong items", *s.VoidReason)

	pending := &Sale{ID: id.New(), Status: StatusPending}
	assert.True(t, apperror.IsCode(pending.CanVoid(), apperror.CodeBusinessRule))
}

func TestMarkCashClosed_Idempotent(t *testing.T) {
	s := &Sale{ID: id.New(), Status: StatusPaid}
	first := time.Date(2025, 3, 1, 23, 0, 0, 0, time.UTC)
	second := first.Add(24 * time.Hour)

	s.MarkCashClosed(first)
	s.MarkCashClosed(second)

	assert.True(t, s.CashClosed)
	require.NotNil(t, s.CashClosedAt)
	assert.Equal(t, first, *s.CashClosedAt)
}
