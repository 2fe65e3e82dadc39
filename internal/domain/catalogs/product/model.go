// Package product provides the Product catalog.
// The sale engine treats products as shared mutable state: it reads
// price/activity and adjusts stock as a side effect of sales.
package product

import (
	"time"

	"minimarket/internal/core/id"
	"minimarket/internal/core/types"
)

// Product represents a sellable catalog item.
type Product struct {
	ID id.ID `db:"id" json:"id"`

	// Code is the internal SKU (unique)
	Code string `db:"code" json:"code"`

	Name string `db:"name" json:"name"`

	// Barcode is the scanned code (EAN-13, etc.)
	Barcode *string `db:"barcode" json:"barcode,omitempty"`

	// SalePrice is the current unit sale price
	SalePrice types.Money `db:"sale_price" json:"salePrice"`

	// Stock is the on-hand quantity. Never negative.
	Stock int64 `db:"stock" json:"stock"`

	// IsActive gates saleability; inactive products stay in history
	IsActive bool `db:"is_active" json:"isActive"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}
