package events

import (
	"context"

	"minimarket/internal/domain/sales"
	"minimarket/internal/infrastructure/storage/postgres"
)

// EventTypeSaleCommitted is raised when a sale transaction commits.
const EventTypeSaleCommitted = "SaleCommitted"

// SaleCommittedPayload is the outbox payload for a committed sale.
type SaleCommittedPayload struct {
	SaleID         string `json:"sale_id"`
	DocumentNumber string `json:"document_number"`
	DocumentKind   string `json:"document_kind"`
	Total          string `json:"total"`
}

// SalePublisher implements sales.EventPublisher on top of the
// transactional outbox.
type SalePublisher struct {
	outbox *postgres.OutboxPublisher
}

func NewSalePublisher(outbox *postgres.OutboxPublisher) *SalePublisher {
	return &SalePublisher{outbox: outbox}
}

func (p *SalePublisher) PublishSaleCommitted(ctx context.Context, sale *sales.Sale) error {
	return p.outbox.Publish(ctx, postgres.DomainEvent{
		AggregateType: "Sale",
		AggregateID:   sale.ID,
		EventType:     EventTypeSaleCommitted,
		Payload: SaleCommittedPayload{
			SaleID:         sale.ID.String(),
			DocumentNumber: sale.DocumentNumber,
			DocumentKind:   string(sale.DocumentKind),
			Total:          sale.Total.StringFixed(2),
		},
	})
}
