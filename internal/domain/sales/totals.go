package sales

import (
	"minimarket/internal/core/apperror"
	"minimarket/internal/core/types"

	"github.com/shopspring/decimal"
)

// DefaultTaxRate is the sales tax (IGV) applied after discount.
const DefaultTaxRate = 0.18

// Totals holds the monetary breakdown of a sale.
// Invariant: Total = round(round(Subtotal - Discount) + Tax).
type Totals struct {
	Subtotal      types.Money
	Discount      types.Money
	AfterDiscount types.Money
	Tax           types.Money
	Total         types.Money
}

// Calculator derives sale totals with a fixed rounding policy:
// every amount is rounded to 2 decimals, half away from zero, including
// per-line subtotals, so the sum of lines never drifts from the total.
type Calculator struct {
	taxRate decimal.Decimal
}

// NewCalculator creates a calculator with the given tax rate (0.18 = 18%).
func NewCalculator(taxRate float64) *Calculator {
	return &Calculator{taxRate: decimal.NewFromFloat(taxRate)}
}

// Compute produces the totals for a cart with the given discount.
func (c *Calculator) Compute(items []CartItem, discount types.Money) (Totals, error) {
	subtotal := types.Zero()
	for _, item := range items {
		subtotal = subtotal.Add(types.MulRounded(item.Quantity, item.UnitPrice))
	}
	subtotal = types.RoundCents(subtotal)

	if discount.IsNegative() || discount.GreaterThan(subtotal) {
		return Totals{}, apperror.NewBusinessRule(apperror.CodeInvalidDiscount, "discount must be between zero and the subtotal").
			WithDetail("discount", discount.String()).
			WithDetail("subtotal", subtotal.String())
	}

	afterDiscount := types.RoundCents(subtotal.Sub(discount))
	if afterDiscount.IsNegative() {
		// Unreachable given the discount bound, kept as a guard.
		return Totals{}, apperror.NewBusinessRule(apperror.CodeInvalidDiscount, "discount exceeds subtotal").
			WithDetail("afterDiscount", afterDiscount.String())
	}

	tax := types.RoundCents(afterDiscount.Mul(c.taxRate))
	total := types.RoundCents(afterDiscount.Add(tax))

	return Totals{
		Subtotal:      subtotal,
		Discount:      discount,
		AfterDiscount: afterDiscount,
		Tax:           tax,
		Total:         total,
	}, nil
}

// Change computes the cash change for a payment.
func (c *Calculator) Change(amountPaid, total types.Money) (types.Money, error) {
	change := types.RoundCents(amountPaid.Sub(total))
	if change.IsNegative() {
		return types.Zero(), apperror.NewBusinessRule(apperror.CodeInsufficientPayment, "amount paid does not cover the total").
			WithDetail("amount_paid", amountPaid.String()).
			WithDetail("total", total.String())
	}
	return change, nil
}
