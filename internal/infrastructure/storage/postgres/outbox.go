package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"minimarket/internal/core/id"
	"minimarket/pkg/logger"
)

// OutboxStatus represents the state of an outbox message.
type OutboxStatus string

const (
	OutboxStatusPending   OutboxStatus = "pending"
	OutboxStatusPublished OutboxStatus = "published"
	OutboxStatusFailed    OutboxStatus = "failed"
)

// maxOutboxRetries before a message is parked as failed.
const maxOutboxRetries = 5

// OutboxMessage represents a message in the transactional outbox.
// The sale orchestrator writes one per committed sale; the worker relays
// them to the receipt dispatcher with retry and backoff.
type OutboxMessage struct {
	ID            id.ID        `db:"id"`
	AggregateType string       `db:"aggregate_type"` // "Sale"
	AggregateID   id.ID        `db:"aggregate_id"`
	EventType     string       `db:"event_type"` // e.g. "SaleCommitted"
	Payload       []byte       `db:"payload"`
	Status        OutboxStatus `db:"status"`
	RetryCount    int          `db:"retry_count"`
	LastError     *string      `db:"last_error"`
	NextRetryAt   *time.Time   `db:"next_retry_at"`
	CreatedAt     time.Time    `db:"created_at"`
	PublishedAt   *time.Time   `db:"published_at"`
}

// DomainEvent represents an event to be published via outbox.
type DomainEvent struct {
	AggregateType string
	AggregateID   id.ID
	EventType     string
	Payload       any
}

// OutboxPublisher writes events to the outbox table.
type OutboxPublisher struct {
	txManager *TxManager
}

// NewOutboxPublisher creates a new outbox publisher.
func NewOutboxPublisher(txManager *TxManager) *OutboxPublisher {
	return &OutboxPublisher{txManager: txManager}
}

// Publish writes an event to the outbox within the current transaction.
// MUST be called inside a transaction context: the message commits or
// rolls back together with the business rows.
func (p *OutboxPublisher) Publish(ctx context.Context, event DomainEvent) error {
	tx := p.txManager.GetTx(ctx)
	if tx == nil {
		return fmt.Errorf("outbox publish requires transaction context")
	}

	payloadBytes, err := json.Marshal(event.Payload)
	if err != nil {
		return fmt.Errorf("marshal event payload: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO sys_outbox (id, aggregate_type, aggregate_id, event_type, payload, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, id.New(), event.AggregateType, event.AggregateID, event.EventType, payloadBytes, OutboxStatusPending, time.Now().UTC())

	if err != nil {
		return fmt.Errorf("insert outbox message: %w", err)
	}

	return nil
}

// OutboxHandler processes outbox messages.
type OutboxHandler interface {
	// Handle processes a message and returns error if failed
	Handle(ctx context.Context, msg *OutboxMessage) error
}

// OutboxRelay reads and processes messages from the outbox.
// Used by the background worker to drive receipt dispatch.
type OutboxRelay struct {
	pool      *pgxpool.Pool
	batchSize int
	handler   OutboxHandler
}

// NewOutboxRelay creates a new outbox relay.
func NewOutboxRelay(pool *pgxpool.Pool, batchSize int, handler OutboxHandler) *OutboxRelay {
	if batchSize <= 0 {
		batchSize = 50
	}
	return &OutboxRelay{
		pool:      pool,
		batchSize: batchSize,
		handler:   handler,
	}
}

// ProcessBatch fetches and processes pending messages.
// Returns number of successfully processed messages.
//
// The whole batch runs in one transaction so the FOR UPDATE SKIP LOCKED
// locks are held until the status updates commit; a second relay instance
// skips the locked rows instead of double-sending.
func (r *OutboxRelay) ProcessBatch(ctx context.Context) (int, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin outbox batch: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	rows, err := tx.Query(ctx, `
		SELECT id, aggregate_type, aggregate_id, event_type, payload, status,
		       retry_count, last_error, next_retry_at, created_at, published_at
		FROM sys_outbox
		WHERE status = $1
		  AND (next_retry_at IS NULL OR next_retry_at <= NOW())
		ORDER BY created_at
		LIMIT $2
		FOR UPDATE SKIP LOCKED
	`, OutboxStatusPending, r.batchSize)
	if err != nil {
		return 0, fmt.Errorf("fetch outbox messages: %w", err)
	}
	defer rows.Close()

	var messages []*OutboxMessage
	for rows.Next() {
		var msg OutboxMessage
		err := rows.Scan(
			&msg.ID, &msg.AggregateType, &msg.AggregateID, &msg.EventType,
			&msg.Payload, &msg.Status, &msg.RetryCount, &msg.LastError,
			&msg.NextRetryAt, &msg.CreatedAt, &msg.PublishedAt,
		)
		if err != nil {
			return 0, fmt.Errorf("scan outbox message: %w", err)
		}
		messages = append(messages, &msg)
	}

	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("iterate outbox messages: %w", err)
	}

	processed := 0
	for _, msg := range messages {
		if err := r.processMessage(ctx, tx, msg); err != nil {
			logger.Warn(ctx, "outbox message failed",
				"message_id", msg.ID,
				"event_type", msg.EventType,
				"retry_count", msg.RetryCount,
				"error", err,
			)
			continue
		}
		processed++
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit outbox batch: %w", err)
	}

	return processed, nil
}

// processMessage handles a single outbox message.
func (r *OutboxRelay) processMessage(ctx context.Context, tx pgx.Tx, msg *OutboxMessage) error {
	err := r.handler.Handle(ctx, msg)

	if err != nil {
		// Linear backoff per retry; park as failed after the retry budget
		nextRetry := time.Now().Add(time.Duration(msg.RetryCount+1) * time.Minute)
		errStr := err.Error()

		_, updateErr := tx.Exec(ctx, `
			UPDATE sys_outbox
			SET retry_count = retry_count + 1,
			    last_error = $1,
			    next_retry_at = $2,
			    status = CASE WHEN retry_count >= $3 THEN $4 ELSE status END
			WHERE id = $5
		`, errStr, nextRetry, maxOutboxRetries, OutboxStatusFailed, msg.ID)

		if updateErr != nil {
			return fmt.Errorf("update failed message: %w", updateErr)
		}
		return err
	}

	now := time.Now().UTC()
	_, err = tx.Exec(ctx, `
		UPDATE sys_outbox
		SET status = $1, published_at = $2
		WHERE id = $3
	`, OutboxStatusPublished, now, msg.ID)

	return err
}
