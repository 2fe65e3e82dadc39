// Package receipts holds the receipt dispatch collaborator: best-effort PDF
// generation and email delivery after a committed sale. Everything here is
// post-commit and asynchronous; a failure is logged, counted, and swallowed,
// never surfaced to the sale caller.
package receipts

import (
	"context"
	"time"

	"minimarket/internal/core/apperror"
	"minimarket/internal/core/id"
	"minimarket/internal/domain/catalogs/customer"
	"minimarket/internal/domain/sales"
	"minimarket/pkg/logger"
)

// Document is a rendered receipt artifact.
type Document struct {
	Name        string
	ContentType string
	Data        []byte
}

// Renderer generates the receipt document for a sale.
// The real implementation is an external rendering service.
type Renderer interface {
	GenerateDocument(ctx context.Context, sale *sales.Sale, cust *customer.Customer) (Document, error)
}

// Sender delivers a receipt document by email.
type Sender interface {
	SendReceiptEmail(ctx context.Context, address, customerName, subject, documentNumber string, doc Document) (bool, error)
}

// Template is the delivery configuration for a document kind.
type Template struct {
	Kind     sales.DocumentKind `db:"kind" json:"kind"`
	Subject  string             `db:"subject" json:"subject"`
	IsActive bool               `db:"is_active" json:"isActive"`
}

// TemplateStore reads document template configuration.
type TemplateStore interface {
	GetByKind(ctx context.Context, kind sales.DocumentKind) (*Template, error)
}

// Metrics observes dispatch outcomes. Implemented by the prometheus
// collectors; a no-op implementation is fine for tests.
type Metrics interface {
	ReceiptDispatched(kind string)
	ReceiptFailed(kind, reason string)
}

// Config tunes the dispatcher.
type Config struct {
	// Timeout bounds a single dispatch attempt, independent of the
	// request lifecycle.
	Timeout time.Duration
}

// DefaultConfig returns the standard dispatch bounds.
func DefaultConfig() Config {
	return Config{Timeout: 30 * time.Second}
}

// Dispatcher renders and delivers receipts. It implements the narrow
// sales.ReceiptDispatcher interface consumed by the orchestrator's
// resend operation, and serves as the outbox relay handler in the worker.
type Dispatcher struct {
	saleStore     sales.Repository
	customerStore customer.Repository
	renderer      Renderer
	sender        Sender
	templates     TemplateStore
	metrics       Metrics
	cfg           Config
}

// NewDispatcher wires the dispatch collaborators.
func NewDispatcher(
	saleStore sales.Repository,
	customerStore customer.Repository,
	renderer Renderer,
	sender Sender,
	templates TemplateStore,
	metrics Metrics,
	cfg Config,
) *Dispatcher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultConfig().Timeout
	}
	return &Dispatcher{
		saleStore:     saleStore,
		customerStore: customerStore,
		renderer:      renderer,
		sender:        sender,
		templates:     templates,
		metrics:       metrics,
		cfg:           cfg,
	}
}

// Dispatch generates the receipt for a sale and, when an address is known
// and the kind's template is active, attempts delivery. emailOverride
// replaces the customer's address when non-empty.
//
// Returns whether the email was delivered. The returned error is always a
// DependencyFailure; callers in the sale path must log and swallow it.
func (d *Dispatcher) Dispatch(ctx context.Context, saleID id.ID, emailOverride string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, d.cfg.Timeout)
	defer cancel()

	sale, err := d.saleStore.GetByID(ctx, saleID)
	if err != nil {
		return false, d.fail(ctx, "sale lookup", "", err)
	}
	kind := string(sale.DocumentKind)

	var cust *customer.Customer
	if sale.CustomerID != nil {
		cust, err = d.customerStore.GetByID(ctx, *sale.CustomerID)
		if err != nil {
			return false, d.fail(ctx, "customer lookup", kind, err)
		}
	}

	doc, err := d.renderer.GenerateDocument(ctx, sale, cust)
	if err != nil {
		return false, d.fail(ctx, "receipt rendering", kind, err)
	}
	d.metrics.ReceiptDispatched(kind)

	address := emailOverride
	name := "Cliente"
	if cust != nil {
		name = cust.Name
		if address == "" && cust.HasEmail() {
			address = *cust.Email
		}
	}
	if address == "" {
		// Nothing to deliver; rendering alone counts as success.
		return false, nil
	}

	tpl, err := d.templates.GetByKind(ctx, sale.DocumentKind)
	if err != nil {
		return false, d.fail(ctx, "template lookup", kind, err)
	}
	if !tpl.IsActive {
		logger.Info(ctx, "receipt email skipped, template inactive",
			"document_number", sale.DocumentNumber,
			"kind", kind,
		)
		return false, nil
	}

	subject := tpl.Subject + " " + sale.DocumentNumber
	delivered, err := d.sender.SendReceiptEmail(ctx, address, name, subject, sale.DocumentNumber, doc)
	if err != nil {
		return false, d.fail(ctx, "receipt email", kind, err)
	}

	logger.Info(ctx, "receipt dispatched",
		"document_number", sale.DocumentNumber,
		"delivered", delivered,
	)
	return delivered, nil
}

func (d *Dispatcher) fail(ctx context.Context, dependency, kind string, err error) error {
	d.metrics.ReceiptFailed(kind, dependency)
	logger.Error(ctx, "receipt dispatch failed",
		"dependency", dependency,
		"error", err,
	)
	return apperror.NewDependencyFailure(dependency, err)
}

// NopMetrics is a Metrics implementation that records nothing.
type NopMetrics struct{}

func (NopMetrics) ReceiptDispatched(string)     {}
func (NopMetrics) ReceiptFailed(string, string) {}
