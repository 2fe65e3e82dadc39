package sales

import (
	"context"
	"fmt"
	"time"

	"minimarket/internal/core/apperror"
	"minimarket/internal/core/id"
	"minimarket/internal/core/tx"
	"minimarket/internal/core/types"
	"minimarket/internal/domain/catalogs/customer"
	"minimarket/internal/domain/inventory"
	"minimarket/pkg/logger"
)

// EventPublisher hands the receipt-dispatch message to the transactional
// outbox. Must be called inside the sale's write transaction so the message
// commits or rolls back with the sale.
type EventPublisher interface {
	PublishSaleCommitted(ctx context.Context, sale *Sale) error
}

// ReceiptDispatcher is the synchronous view of the receipt collaborator,
// used by the resend operation. The implementation lives in domain/receipts.
type ReceiptDispatcher interface {
	Dispatch(ctx context.Context, saleID id.ID, emailOverride string) (bool, error)
}

// Metrics observes sale outcomes.
type Metrics interface {
	SaleCreated(kind string)
	SaleVoided(kind string)
}

// NopMetrics records nothing.
type NopMetrics struct{}

func (NopMetrics) SaleCreated(string) {}
func (NopMetrics) SaleVoided(string)  {}

// CreateSaleInput is the wire-level shape of a sale request.
type CreateSaleInput struct {
	DocumentKind  DocumentKind
	CustomerID    *id.ID
	PaymentMethod PaymentMethod
	AmountPaid    types.Money
	Discount      types.Money
	Items         []CartItem
}

// Service is the sale transaction orchestrator. It coordinates validation,
// totals, numbering, persistence and inventory mutation as one atomic unit,
// and compensates committed sales on cancellation.
type Service struct {
	repo       Repository
	customers  customer.Repository
	guard      *inventory.Guard
	allocator  *Allocator
	calculator *Calculator
	txManager  tx.ReadOnlyManager
	publisher  EventPublisher
	dispatcher ReceiptDispatcher
	metrics    Metrics
}

// NewService wires the orchestrator.
func NewService(
	repo Repository,
	customers customer.Repository,
	guard *inventory.Guard,
	allocator *Allocator,
	calculator *Calculator,
	txManager tx.ReadOnlyManager,
	publisher EventPublisher,
	dispatcher ReceiptDispatcher,
	metrics Metrics,
) *Service {
	if metrics == nil {
		metrics = NopMetrics{}
	}
	return &Service{
		repo:       repo,
		customers:  customers,
		guard:      guard,
		allocator:  allocator,
		calculator: calculator,
		txManager:  txManager,
		publisher:  publisher,
		dispatcher: dispatcher,
		metrics:    metrics,
	}
}

// CreateSale turns a cart into a committed, numbered, tax-correct sale.
//
// Validation and totals run before the write transaction to fail fast
// without holding locks. The write block (allocate number, debit stock,
// insert sale and lines, queue the receipt message) runs inside ONE
// retryable serializable transaction: either all of it becomes visible or
// none of it does, and a serialization conflict re-runs the whole block,
// allocation included.
func (s *Service) CreateSale(ctx context.Context, input CreateSaleInput) (*Sale, error) {
	if len(input.Items) == 0 {
		return nil, apperror.NewBusinessRule(apperror.CodeEmptyCart, "cart must contain at least one item")
	}
	if !input.DocumentKind.Valid() {
		return nil, apperror.NewValidation("unknown document kind").WithDetail("field", "documentKind")
	}
	if !input.PaymentMethod.Valid() {
		return nil, apperror.NewValidation("unknown payment method").WithDetail("field", "paymentMethod")
	}

	demands := make([]inventory.Demand, len(input.Items))
	for i, item := range input.Items {
		if item.Quantity <= 0 {
			return nil, apperror.NewValidation("quantity must be positive").
				WithDetail("product_id", item.ProductID.String())
		}
		demands[i] = inventory.Demand{ProductID: item.ProductID, Quantity: item.Quantity}
	}

	products, err := s.guard.Validate(ctx, demands)
	if err != nil {
		return nil, err
	}

	// Items without an explicit price take the current catalog price.
	priceByID := make(map[id.ID]types.Money, len(products))
	for _, p := range products {
		priceByID[p.ID] = p.SalePrice
	}
	for i := range input.Items {
		if input.Items[i].UnitPrice.IsZero() {
			input.Items[i].UnitPrice = priceByID[input.Items[i].ProductID]
		}
	}

	totals, err := s.calculator.Compute(input.Items, input.Discount)
	if err != nil {
		return nil, err
	}
	change, err := s.calculator.Change(input.AmountPaid, totals.Total)
	if err != nil {
		return nil, err
	}

	if err := s.checkCustomerRule(ctx, input.DocumentKind, input.CustomerID); err != nil {
		return nil, err
	}

	var sale *Sale
	err = s.txManager.RunInRetryableTransaction(ctx, func(ctx context.Context) error {
		// Rebuilt on every attempt: a retried transaction must re-derive
		// the number and re-create the rows, not reuse stale ones.
		number, err := s.allocator.Allocate(ctx, input.DocumentKind)
		if err != nil {
			return err
		}

		sale = NewSale(input.DocumentKind, input.CustomerID, input.PaymentMethod, input.Items, totals, input.AmountPaid, change)
		sale.DocumentNumber = number
		if err := sale.Validate(ctx); err != nil {
			return err
		}

		if err := s.guard.Debit(ctx, demands); err != nil {
			return err
		}
		if err := s.repo.Insert(ctx, sale); err != nil {
			return fmt.Errorf("insert sale: %w", err)
		}
		return s.publisher.PublishSaleCommitted(ctx, sale)
	})
	if err != nil {
		return nil, err
	}

	s.metrics.SaleCreated(string(sale.DocumentKind))
	logger.Info(ctx, "sale committed",
		"sale_id", sale.ID,
		"document_number", sale.DocumentNumber,
		"total", sale.Total.String(),
	)
	return sale, nil
}

// checkCustomerRule enforces the document-kind customer requirements:
// factura needs a customer with a valid RUC; boleta allows walk-ins but
// still verifies a referenced customer exists.
func (s *Service) checkCustomerRule(ctx context.Context, kind DocumentKind, customerID *id.ID) error {
	if customerID == nil {
		if kind == KindFactura {
			return apperror.NewBusinessRule(apperror.CodeInvalidTaxID, "invoice requires a customer with a valid tax id")
		}
		return nil
	}

	cust, err := s.customers.GetByID(ctx, *customerID)
	if err != nil {
		return err
	}
	if kind == KindFactura && !cust.HasValidTaxID() {
		return apperror.NewBusinessRule(apperror.CodeInvalidTaxID, "invoice requires a customer with a valid tax id").
			WithDetail("customer_id", cust.ID.String())
	}
	return nil
}

// CancelSale reverses a committed sale: restores stock by the ORIGINAL line
// quantities and flips the sale to Voided. The sale record is kept, never
// deleted. A second cancellation is rejected, so stock is never restored
// twice.
func (s *Service) CancelSale(ctx context.Context, saleID id.ID, reason string) error {
	if reason == "" {
		return apperror.NewValidation("void reason is required").WithDetail("field", "reason")
	}

	var voided *Sale
	err := s.txManager.RunInRetryableTransaction(ctx, func(ctx context.Context) error {
		sale, err := s.repo.GetForUpdate(ctx, saleID)
		if err != nil {
			return err
		}
		if err := sale.CanVoid(); err != nil {
			return err
		}

		lines, err := s.repo.GetLines(ctx, saleID)
		if err != nil {
			return fmt.Errorf("load lines: %w", err)
		}

		demands := make([]inventory.Demand, len(lines))
		for i, line := range lines {
			demands[i] = inventory.Demand{ProductID: line.ProductID, Quantity: line.Quantity}
		}
		if err := s.guard.Credit(ctx, demands); err != nil {
			return err
		}

		sale.MarkVoided(reason)
		if err := s.repo.UpdateStatus(ctx, sale); err != nil {
			return err
		}
		voided = sale
		return nil
	})
	if err != nil {
		return err
	}

	s.metrics.SaleVoided(string(voided.DocumentKind))
	logger.Info(ctx, "sale voided",
		"sale_id", voided.ID,
		"document_number", voided.DocumentNumber,
		"reason", reason,
	)
	return nil
}

// ResendReceipt regenerates the receipt document for a committed sale and
// attempts delivery to the given address (or the customer's address when
// empty). Unlike the post-commit dispatch this is caller-initiated, so
// dispatch failures do surface.
func (s *Service) ResendReceipt(ctx context.Context, saleID id.ID, emailAddress string) (bool, error) {
	sale, err := s.repo.GetByID(ctx, saleID)
	if err != nil {
		return false, err
	}
	if sale.Status == StatusVoided {
		return false, apperror.NewBusinessRule(apperror.CodeSaleAlreadyVoided, "cannot send a receipt for a voided sale")
	}
	return s.dispatcher.Dispatch(ctx, saleID, emailAddress)
}

// CloseCashPeriod sweeps every un-closed paid sale created up to the cutoff
// into a closed cash-register period. The flag is append-only; already
// closed sales are untouched.
func (s *Service) CloseCashPeriod(ctx context.Context, upTo time.Time) (int64, error) {
	var swept int64
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		swept, err = s.repo.MarkCashClosed(ctx, upTo, time.Now().UTC())
		return err
	})
	if err != nil {
		return 0, err
	}

	logger.Info(ctx, "cash closure sweep", "swept", swept, "up_to", upTo)
	return swept, nil
}

// GetByID retrieves a sale with its lines. Header and lines are two reads,
// so they run in one read-only transaction for a consistent snapshot.
func (s *Service) GetByID(ctx context.Context, saleID id.ID) (*Sale, error) {
	var sale *Sale
	err := s.txManager.ReadOnly(ctx, func(ctx context.Context) error {
		var err error
		sale, err = s.repo.GetByID(ctx, saleID)
		return err
	})
	return sale, err
}

// List retrieves sales ordered by document number descending. Count and page
// run in one read-only transaction so the total matches the returned items.
func (s *Service) List(ctx context.Context, filter ListFilter) (ListResult, error) {
	var result ListResult
	err := s.txManager.ReadOnly(ctx, func(ctx context.Context) error {
		var err error
		result, err = s.repo.List(ctx, filter)
		return err
	})
	return result, err
}
