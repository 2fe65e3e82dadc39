package dto

import (
	"time"

	"minimarket/internal/core/apperror"
	"minimarket/internal/core/id"
	"minimarket/internal/core/types"
	"minimarket/internal/domain/sales"
)

// --- Request DTOs ---

type CreateSaleRequest struct {
	DocumentKind  string            `json:"documentKind" binding:"required"`
	CustomerID    string            `json:"customerId,omitempty"`
	PaymentMethod string            `json:"paymentMethod" binding:"required"`
	AmountPaid    string            `json:"amountPaid" binding:"required"`
	Discount      string            `json:"discount,omitempty"`
	Items         []SaleItemRequest `json:"items" binding:"required,min=1,dive"`
}

type SaleItemRequest struct {
	ProductID string `json:"productId" binding:"required"`
	Quantity  int64  `json:"quantity" binding:"required,gt=0"`
	UnitPrice string `json:"unitPrice,omitempty"`
}

// ToInput converts the request into a service input. Amounts arrive as
// decimal strings so no float precision is lost on the wire. Items
// without an explicit unitPrice are priced from the catalog by the
// service.
func (r *CreateSaleRequest) ToInput() (sales.CreateSaleInput, error) {
	input := sales.CreateSaleInput{
		DocumentKind:  sales.DocumentKind(r.DocumentKind),
		PaymentMethod: sales.PaymentMethod(r.PaymentMethod),
	}

	if r.CustomerID != "" {
		customerID, err := id.Parse(r.CustomerID)
		if err != nil {
			return input, apperror.NewValidation("invalid customerId").WithDetail("customerId", r.CustomerID)
		}
		input.CustomerID = &customerID
	}

	amountPaid, err := types.NewMoneyFromString(r.AmountPaid)
	if err != nil {
		return input, apperror.NewValidation("invalid amountPaid").WithDetail("amountPaid", r.AmountPaid)
	}
	input.AmountPaid = amountPaid

	input.Discount = types.Zero()
	if r.Discount != "" {
		discount, err := types.NewMoneyFromString(r.Discount)
		if err != nil {
			return input, apperror.NewValidation("invalid discount").WithDetail("discount", r.Discount)
		}
		input.Discount = discount
	}

	input.Items = make([]sales.CartItem, 0, len(r.Items))
	for _, item := range r.Items {
		productID, err := id.Parse(item.ProductID)
		if err != nil {
			return input, apperror.NewValidation("invalid productId").WithDetail("productId", item.ProductID)
		}

		cartItem := sales.CartItem{
			ProductID: productID,
			Quantity:  item.Quantity,
		}
		if item.UnitPrice != "" {
			price, err := types.NewMoneyFromString(item.UnitPrice)
			if err != nil {
				return input, apperror.NewValidation("invalid unitPrice").WithDetail("unitPrice", item.UnitPrice)
			}
			cartItem.UnitPrice = price
		}
		input.Items = append(input.Items, cartItem)
	}

	return input, nil
}

type CancelSaleRequest struct {
	Reason string `json:"reason" binding:"required"`
}

type ResendReceiptRequest struct {
	Email string `json:"email,omitempty"`
}

type CashClosureRequest struct {
	UpTo *time.Time `json:"upTo,omitempty"`
}

// --- Response DTOs ---

type SaleResponse struct {
	ID             string             `json:"id"`
	DocumentNumber string             `json:"documentNumber"`
	DocumentKind   string             `json:"documentKind"`
	CustomerID     string             `json:"customerId,omitempty"`
	Subtotal       string             `json:"subtotal"`
	Discount       string             `json:"discount"`
	Tax            string             `json:"tax"`
	Total          string             `json:"total"`
	AmountPaid     string             `json:"amountPaid"`
	Change         string             `json:"change"`
	PaymentMethod  string             `json:"paymentMethod"`
	Status         string             `json:"status"`
	VoidReason     string             `json:"voidReason,omitempty"`
	CashClosed     bool               `json:"cashClosed"`
	CashClosedAt   *time.Time         `json:"cashClosedAt,omitempty"`
	Lines          []SaleLineResponse `json:"lines,omitempty"`
	CreatedAt      time.Time          `json:"createdAt"`
	UpdatedAt      time.Time          `json:"updatedAt"`
}

type SaleLineResponse struct {
	LineID       string `json:"lineId"`
	LineNo       int    `json:"lineNo"`
	ProductID    string `json:"productId"`
	Quantity     int64  `json:"quantity"`
	UnitPrice    string `json:"unitPrice"`
	LineSubtotal string `json:"lineSubtotal"`
}

func FromSale(sale *sales.Sale) *SaleResponse {
	resp := &SaleResponse{
		ID:             sale.ID.String(),
		DocumentNumber: sale.DocumentNumber,
		DocumentKind:   string(sale.DocumentKind),
		Subtotal:       sale.Subtotal.StringFixed(2),
		Discount:       sale.Discount.StringFixed(2),
		Tax:            sale.Tax.StringFixed(2),
		Total:          sale.Total.StringFixed(2),
		AmountPaid:     sale.AmountPaid.StringFixed(2),
		Change:         sale.Change.StringFixed(2),
		PaymentMethod:  string(sale.PaymentMethod),
		Status:         string(sale.Status),
		CashClosed:     sale.CashClosed,
		CashClosedAt:   sale.CashClosedAt,
		CreatedAt:      sale.CreatedAt,
		UpdatedAt:      sale.UpdatedAt,
	}
	if sale.CustomerID != nil {
		resp.CustomerID = sale.CustomerID.String()
	}
	if sale.VoidReason != nil {
		resp.VoidReason = *sale.VoidReason
	}

	resp.Lines = make([]SaleLineResponse, len(sale.Lines))
	for i, line := range sale.Lines {
		resp.Lines[i] = SaleLineResponse{
			LineID:       line.LineID.String(),
			LineNo:       line.LineNo,
			ProductID:    line.ProductID.String(),
			Quantity:     line.Quantity,
			UnitPrice:    line.UnitPrice.StringFixed(2),
			LineSubtotal: line.LineSubtotal.StringFixed(2),
		}
	}

	return resp
}

type SaleListResponse struct {
	Items      []*SaleResponse `json:"items"`
	TotalCount int64           `json:"totalCount"`
	Limit      int             `json:"limit"`
	Offset     int             `json:"offset"`
}

type ResendReceiptResponse struct {
	Delivered bool `json:"delivered"`
}

type CashClosureResponse struct {
	ClosedCount int64     `json:"closedCount"`
	UpTo        time.Time `json:"upTo"`
}
