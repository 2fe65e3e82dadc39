// Package customer provides the Customer catalog.
// Invoices require a customer with a valid RUC; simplified receipts may be
// issued to a walk-in customer (no record at all).
package customer

import (
	"context"
	"regexp"
	"time"

	"minimarket/internal/core/id"
)

// rucRE matches the fixed-length numeric business tax identifier.
var rucRE = regexp.MustCompile(`^\d{11}$`)

// Customer represents a registered buyer.
type Customer struct {
	ID id.ID `db:"id" json:"id"`

	Name string `db:"name" json:"name"`

	// TaxID is the RUC, required for invoice sales
	TaxID *string `db:"tax_id" json:"taxId,omitempty"`

	// Email receives receipt copies when present
	Email *string `db:"email" json:"email,omitempty"`

	Phone *string `db:"phone" json:"phone,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// HasValidTaxID reports whether the customer can be billed with an invoice.
func (c *Customer) HasValidTaxID() bool {
	return c.TaxID != nil && rucRE.MatchString(*c.TaxID)
}

// HasEmail reports whether the customer can receive receipt emails.
func (c *Customer) HasEmail() bool {
	return c.Email != nil && *c.Email != ""
}

// Repository defines customer store operations the sale engine needs.
type Repository interface {
	GetByID(ctx context.Context, customerID id.ID) (*Customer, error)
}
