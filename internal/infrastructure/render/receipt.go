// Package render generates receipt documents as self-contained HTML.
package render

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"time"

	"minimarket/internal/domain/catalogs/customer"
	"minimarket/internal/domain/receipts"
	"minimarket/internal/domain/sales"
)

// Renderer implements receipts.Renderer with an HTML template. The
// output is a printable document attached to the receipt email.
type Renderer struct {
	tpl       *template.Template
	storeName string
}

// NewRenderer creates a receipt renderer.
func NewRenderer(storeName string) (*Renderer, error) {
	tpl, err := template.New("receipt").Parse(receiptTemplate)
	if err != nil {
		return nil, fmt.Errorf("parse receipt template: %w", err)
	}
	return &Renderer{tpl: tpl, storeName: storeName}, nil
}

type lineView struct {
	LineNo       int
	ProductID    string
	Quantity     int64
	UnitPrice    string
	LineSubtotal string
}

type receiptView struct {
	StoreName      string
	Title          string
	DocumentNumber string
	IssuedAt       string
	CustomerName   string
	CustomerTaxID  string
	Lines          []lineView
	Subtotal       string
	Discount       string
	HasDiscount    bool
	Tax            string
	Total          string
	AmountPaid     string
	Change         string
	PaymentMethod  string
}

// GenerateDocument renders the sale into an HTML receipt.
func (r *Renderer) GenerateDocument(ctx context.Context, sale *sales.Sale, cust *customer.Customer) (receipts.Document, error) {
	view := receiptView{
		StoreName:      r.storeName,
		Title:          titleFor(sale.DocumentKind),
		DocumentNumber: sale.DocumentNumber,
		IssuedAt:       sale.CreatedAt.Format(time.RFC3339),
		CustomerName:   "Cliente varios",
		Subtotal:       sale.Subtotal.StringFixed(2),
		Discount:       sale.Discount.StringFixed(2),
		HasDiscount:    sale.Discount.IsPositive(),
		Tax:            sale.Tax.StringFixed(2),
		Total:          sale.Total.StringFixed(2),
		AmountPaid:     sale.AmountPaid.StringFixed(2),
		Change:         sale.Change.StringFixed(2),
		PaymentMethod:  string(sale.PaymentMethod),
	}
	if cust != nil {
		view.CustomerName = cust.Name
		if cust.TaxID != nil {
			view.CustomerTaxID = *cust.TaxID
		}
	}
	for _, line := range sale.Lines {
		view.Lines = append(view.Lines, lineView{
			LineNo:       line.LineNo,
			ProductID:    line.ProductID.String(),
			Quantity:     line.Quantity,
			UnitPrice:    line.UnitPrice.StringFixed(2),
			LineSubtotal: line.LineSubtotal.StringFixed(2),
		})
	}

	var buf bytes.Buffer
	if err := r.tpl.Execute(&buf, view); err != nil {
		return receipts.Document{}, fmt.Errorf("render receipt %s: %w", sale.DocumentNumber, err)
	}

	return receipts.Document{
		Name:        sale.DocumentNumber + ".html",
		ContentType: "text/html; charset=utf-8",
		Data:        buf.Bytes(),
	}, nil
}

func titleFor(kind sales.DocumentKind) string {
	if kind == sales.KindFactura {
		return "FACTURA ELECTRÓNICA"
	}
	return "BOLETA DE VENTA ELECTRÓNICA"
}

const receiptTemplate = `<!DOCTYPE html>
<html lang="es">
<head><meta charset="utf-8"><title>{{.Title}} {{.DocumentNumber}}</title></head>
<body style="font-family: monospace; max-width: 420px;">
  <h2 style="text-align: center;">{{.StoreName}}</h2>
  <p style="text-align: center;">{{.Title}}<br>{{.DocumentNumber}}<br>{{.IssuedAt}}</p>
  <p>Cliente: {{.CustomerName}}{{if .CustomerTaxID}}<br>RUC: {{.CustomerTaxID}}{{end}}</p>
  <table width="100%" cellspacing="0">
    <tr><th align="left">Cant</th><th align="right">P.Unit</th><th align="right">Importe</th></tr>
    {{range .Lines}}
    <tr><td>{{.Quantity}}</td><td align="right">{{.UnitPrice}}</td><td align="right">{{.LineSubtotal}}</td></tr>
    {{end}}
  </table>
  <hr>
  <table width="100%">
    <tr><td>Subtotal</td><td align="right">{{.Subtotal}}</td></tr>
    {{if .HasDiscount}}<tr><td>Descuento</td><td align="right">-{{.Discount}}</td></tr>{{end}}
    <tr><td>IGV (18%)</td><td align="right">{{.Tax}}</td></tr>
    <tr><td><b>Total</b></td><td align="right"><b>{{.Total}}</b></td></tr>
    <tr><td>Pagado ({{.PaymentMethod}})</td><td align="right">{{.AmountPaid}}</td></tr>
    <tr><td>Vuelto</td><td align="right">{{.Change}}</td></tr>
  </table>
  <p style="text-align: center;">¡Gracias por su compra!</p>
</body>
</html>`
