package events

import (
	"context"
	"encoding/json"
	"fmt"

	"minimarket/internal/core/id"
	"minimarket/internal/domain/sales"
	"minimarket/internal/infrastructure/storage/postgres"
	"minimarket/pkg/logger"
)

// ReceiptHandler relays committed-sale events to the receipt dispatcher.
// It is driven by the outbox relay in the background worker.
type ReceiptHandler struct {
	dispatcher sales.ReceiptDispatcher
}

func NewReceiptHandler(dispatcher sales.ReceiptDispatcher) *ReceiptHandler {
	return &ReceiptHandler{dispatcher: dispatcher}
}

func (h *ReceiptHandler) Handle(ctx context.Context, msg *postgres.OutboxMessage) error {
	if msg.EventType != EventTypeSaleCommitted {
		// Unknown event types are acked, not retried forever.
		logger.Warn(ctx, "skipping unknown outbox event", "event_type", msg.EventType)
		return nil
	}

	var payload SaleCommittedPayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		return fmt.Errorf("unmarshal sale committed payload: %w", err)
	}

	saleID, err := id.Parse(payload.SaleID)
	if err != nil {
		return fmt.Errorf("parse sale id %q: %w", payload.SaleID, err)
	}

	sent, err := h.dispatcher.Dispatch(ctx, saleID, "")
	if err != nil {
		return err
	}
	if !sent {
		logger.Debug(ctx, "receipt not sent, no address on file",
			"sale_id", payload.SaleID,
			"document_number", payload.DocumentNumber,
		)
	}
	return nil
}
