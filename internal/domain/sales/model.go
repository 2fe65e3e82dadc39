// Package sales provides the sale transaction engine: the document that
// turns a point-of-sale cart into a numbered, tax-correct financial record
// while protecting inventory, and the compensating cancellation.
package sales

import (
	"context"
	"time"

	"minimarket/internal/core/apperror"
	"minimarket/internal/core/id"
	"minimarket/internal/core/types"
)

// DocumentKind identifies which receipt type a sale produces. It drives the
// numbering prefix and the customer requirement.
type DocumentKind string

const (
	// KindBoleta is the simplified receipt; walk-in customers allowed.
	KindBoleta DocumentKind = "boleta"
	// KindFactura is the tax invoice; requires a customer with valid RUC.
	KindFactura DocumentKind = "factura"
)

// Prefix returns the document numbering series for the kind.
func (k DocumentKind) Prefix() string {
	switch k {
	case KindFactura:
		return "F001"
	default:
		return "B001"
	}
}

// Valid reports whether the kind is known.
func (k DocumentKind) Valid() bool {
	return k == KindBoleta || k == KindFactura
}

// PaymentMethod identifies how the sale was settled.
type PaymentMethod string

const (
	PaymentCash     PaymentMethod = "cash"
	PaymentWallet   PaymentMethod = "wallet"
	PaymentTransfer PaymentMethod = "transfer"
)

// Valid reports whether the method is known.
func (m PaymentMethod) Valid() bool {
	return m == PaymentCash || m == PaymentWallet || m == PaymentTransfer
}

// Status is the sale lifecycle state. Every payment method currently
// settles at creation, so sales insert directly as Paid; Pending stays in
// the enum for asynchronous payment methods.
type Status string

const (
	StatusPending Status = "pending"
	StatusPaid    Status = "paid"
	StatusVoided  Status = "voided"
)

// Sale is one committed commercial transaction. Never deleted; cancellation
// flips it to Voided and restores stock.
type Sale struct {
	ID id.ID `db:"id" json:"id"`

	// DocumentNumber is globally unique: {PREFIX}-{8-digit sequence}
	DocumentNumber string       `db:"document_number" json:"documentNumber"`
	DocumentKind   DocumentKind `db:"document_kind" json:"documentKind"`

	// CustomerID is mandatory for factura, optional for boleta (walk-in)
	CustomerID *id.ID `db:"customer_id" json:"customerId,omitempty"`

	Subtotal   types.Money `db:"subtotal" json:"subtotal"`
	Discount   types.Money `db:"discount" json:"discount"`
	Tax        types.Money `db:"tax" json:"tax"`
	Total      types.Money `db:"total" json:"total"`
	AmountPaid types.Money `db:"amount_paid" json:"amountPaid"`
	Change     types.Money `db:"change" json:"change"`

	PaymentMethod PaymentMethod `db:"payment_method" json:"paymentMethod"`

	Status     Status  `db:"status" json:"status"`
	VoidReason *string `db:"void_reason" json:"voidReason,omitempty"`

	// Cash closure sweep flag. Append-only: once set it is never cleared.
	CashClosed   bool       `db:"cash_closed" json:"cashClosed"`
	CashClosedAt *time.Time `db:"cash_closed_at" json:"cashClosedAt,omitempty"`

	// Version for optimistic locking on status transitions
	Version int `db:"version" json:"version"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`

	// Line items, immutable once created
	Lines []Line `db:"-" json:"lines"`
}

// Line is one product position within a sale. Product reference is weak:
// the product may later become inactive without invalidating history.
type Line struct {
	LineID id.ID `db:"line_id" json:"lineId"`
	LineNo int   `db:"line_no" json:"lineNo"`

	ProductID id.ID `db:"product_id" json:"productId"`

	Quantity     int64       `db:"quantity" json:"quantity"`
	UnitPrice    types.Money `db:"unit_price" json:"unitPrice"`
	LineSubtotal types.Money `db:"line_subtotal" json:"lineSubtotal"`
}

// CartItem is a requested position before it becomes a persisted line.
type CartItem struct {
	ProductID id.ID
	Quantity  int64
	UnitPrice types.Money
}

// NewSale assembles an unsaved sale from its cart and computed totals.
func NewSale(kind DocumentKind, customerID *id.ID, method PaymentMethod, items []CartItem, totals Totals, amountPaid, change types.Money) *Sale {
	now := time.Now().UTC()
	s := &Sale{
		ID:            id.New(),
		DocumentKind:  kind,
		CustomerID:    customerID,
		Subtotal:      totals.Subtotal,
		Discount:      totals.Discount,
		Tax:           totals.Tax,
		Total:         totals.Total,
		AmountPaid:    amountPaid,
		Change:        change,
		PaymentMethod: method,
		Status:        StatusPaid,
		Version:       1,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	for i, item := range items {
		s.Lines = append(s.Lines, Line{
			LineID:       id.New(),
			LineNo:       i + 1,
			ProductID:    item.ProductID,
			Quantity:     item.Quantity,
			UnitPrice:    item.UnitPrice,
			LineSubtotal: types.MulRounded(item.Quantity, item.UnitPrice),
		})
	}
	return s
}

// Validate checks internal invariants (no database access).
func (s *Sale) Validate(ctx context.Context) error {
	if !s.DocumentKind.Valid() {
		return apperror.NewValidation("unknown document kind").WithDetail("field", "documentKind")
	}
	if !s.PaymentMethod.Valid() {
		return apperror.NewValidation("unknown payment method").WithDetail("field", "paymentMethod")
	}
	if len(s.Lines) == 0 {
		return apperror.NewBusinessRule(apperror.CodeEmptyCart, "cart must contain at least one item")
	}
	for i, line := range s.Lines {
		if id.IsNil(line.ProductID) {
			return apperror.NewValidation("product is required").
				WithDetail("field", "lines").WithDetail("lineNo", i+1)
		}
		if line.Quantity <= 0 {
			return apperror.NewValidation("quantity must be positive").
				WithDetail("field", "lines").WithDetail("lineNo", i+1)
		}
		if line.UnitPrice.IsNegative() {
			return apperror.NewValidation("unit price cannot be negative").
				WithDetail("field", "lines").WithDetail("lineNo", i+1)
		}
	}
	return nil
}

// CanVoid checks the cancellation precondition. A second cancellation is an
// error, not a no-op: the reason may differ and callers must know.
func (s *Sale) CanVoid() error {
	switch s.Status {
	case StatusVoided:
		return apperror.NewBusinessRule(apperror.CodeSaleAlreadyVoided, "sale is already voided").
			WithDetail("sale_id", s.ID.String())
	case StatusPaid:
		return nil
	default:
		return apperror.NewBusinessRule(apperror.CodeBusinessRule, "only paid sales can be voided").
			WithDetail("status", string(s.Status))
	}
}

// MarkVoided flips the sale into its terminal state.
func (s *Sale) MarkVoided(reason string) {
	s.Status = StatusVoided
	s.VoidReason = &reason
	s.UpdatedAt = time.Now().UTC()
}

// MarkCashClosed stamps the cash-closure sweep. Idempotent once set.
func (s *Sale) MarkCashClosed(at time.Time) {
	if s.CashClosed {
		return
	}
	s.CashClosed = true
	s.CashClosedAt = &at
}
