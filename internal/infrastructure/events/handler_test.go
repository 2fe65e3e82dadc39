package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"minimarket/internal/core/id"
	"minimarket/internal/infrastructure/storage/postgres"
)

type fakeDispatcher struct {
	saleIDs []id.ID
	err     error
}

func (d *fakeDispatcher) Dispatch(_ context.Context, saleID id.ID, _ string) (bool, error) {
	if d.err != nil {
		return false, d.err
	}
	d.saleIDs = append(d.saleIDs, saleID)
	return true, nil
}

func committedMessage(t *testing.T, saleID id.ID) *postgres.OutboxMessage {
	t.Helper()
	payload, err := json.Marshal(SaleCommittedPayload{
		SaleID:         saleID.String(),
		DocumentNumber: "B001-00000007",
		DocumentKind:   "boleta",
		Total:          "59.00",
	})
	require.NoError(t, err)
	return &postgres.OutboxMessage{
		ID:            id.New(),
		AggregateType: "Sale",
		AggregateID:   saleID,
		EventType:     EventTypeSaleCommitted,
		Payload:       payload,
	}
}

func TestReceiptHandler_DispatchesCommittedSale(t *testing.T) {
	dispatcher := &fakeDispatcher{}
	handler := NewReceiptHandler(dispatcher)
	saleID := id.New()

	err := handler.Handle(context.Background(), committedMessage(t, saleID))
	require.NoError(t, err)
	assert.Equal(t, []id.ID{saleID}, dispatcher.saleIDs)
}

func TestReceiptHandler_AcksUnknownEventType(t *testing.T) {
	dispatcher := &fakeDispatcher{}
	handler := NewReceiptHandler(dispatcher)

	msg := committedMessage(t, id.New())
	msg.EventType = "ProductUpdated"

	// Unknown types are acked without dispatch so they never retry forever.
	require.NoError(t, handler.Handle(context.Background(), msg))
	assert.Empty(t, dispatcher.saleIDs)
}

func TestReceiptHandler_MalformedPayload(t *testing.T) {
	handler := NewReceiptHandler(&fakeDispatcher{})

	msg := committedMessage(t, id.New())
	msg.Payload = []byte("{not json")
	assert.Error(t, handler.Handle(context.Background(), msg))

	msg = committedMessage(t, id.New())
	msg.Payload = []byte(`{"sale_id":"not-a-uuid"}`)
	assert.Error(t, handler.Handle(context.Background(), msg))
}

func TestReceiptHandler_PropagatesDispatchFailure(t *testing.T) {
	dispatcher := &fakeDispatcher{err: errors.New("smtp down")}
	handler := NewReceiptHandler(dispatcher)

	err := handler.Handle(context.Background(), committedMessage(t, id.New()))
	assert.Error(t, err)
}
