package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"minimarket/internal/core/tx"
	"minimarket/pkg/logger"
)

var tracer = otel.Tracer("minimarket/tx")

// Compile-time check that TxManager implements tx.ReadOnlyManager.
var _ tx.ReadOnlyManager = (*TxManager)(nil)

// SQLSTATE codes that indicate the transaction should be re-run.
const (
	serializationFailure = "40001"
	deadlockDetected     = "40P01"
)

// TxOptions configures transaction behavior.
type TxOptions struct {
	// IsolationLevel: pgx.Serializable, pgx.RepeatableRead, pgx.ReadCommitted
	IsolationLevel pgx.TxIsoLevel

	// AccessMode: pgx.ReadWrite, pgx.ReadOnly
	AccessMode pgx.TxAccessMode

	// StatementTimeout protects against long-running queries (default 30s)
	StatementTimeout time.Duration
}

// DefaultTxOptions returns production-safe defaults.
func DefaultTxOptions() TxOptions {
	return TxOptions{
		IsolationLevel:   pgx.ReadCommitted,
		AccessMode:       pgx.ReadWrite,
		StatementTimeout: 30 * time.Second,
	}
}

// SerializableTxOptions for critical operations requiring serializable isolation.
func SerializableTxOptions() TxOptions {
	opts := DefaultTxOptions()
	opts.IsolationLevel = pgx.Serializable
	return opts
}

// RetryConfig bounds serializable transaction re-runs.
type RetryConfig struct {
	Attempts int
	Backoff  time.Duration
}

// DefaultRetryConfig returns the standard retry bounds.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		Attempts: 3,
		Backoff:  25 * time.Millisecond,
	}
}

// TxManager manages database transactions with support for:
// - Nested transaction reuse (tx travels in context)
// - Serializable retry for the sale commit path
// - Statement timeout protection
// - Distributed tracing integration
type TxManager struct {
	pool  *pgxpool.Pool
	retry RetryConfig
}

// NewTxManager creates a new transaction manager.
func NewTxManager(pool *Pool, retry RetryConfig) *TxManager {
	if retry.Attempts <= 0 {
		retry = DefaultRetryConfig()
	}
	return &TxManager{pool: pool.Pool, retry: retry}
}

// NewTxManagerFromRawPool creates a new transaction manager from raw pgxpool.Pool.
func NewTxManagerFromRawPool(pool *pgxpool.Pool) *TxManager {
	return &TxManager{pool: pool, retry: DefaultRetryConfig()}
}

// txKey is the context key for active transaction.
type txKey struct{}

// Tx wraps pgx.Tx with metadata.
type Tx struct {
	pgx.Tx
	nested bool
}

// RunInTransaction executes fn within a transaction.
// If a transaction already exists in ctx, it will be reused.
func (m *TxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return m.RunInTransactionWithOptions(ctx, DefaultTxOptions(), fn)
}

// RunInRetryableTransaction executes fn at serializable isolation and
// re-runs the WHOLE fn when the storage engine reports a serialization
// conflict or deadlock. fn must be safe to re-execute: every read it
// depends on is re-issued inside the fresh attempt.
func (m *TxManager) RunInRetryableTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	// Nested call: the outer transaction already owns retry semantics.
	if existing := m.GetTx(ctx); existing != nil {
		return fn(ctx)
	}

	var err error
	for attempt := 1; attempt <= m.retry.Attempts; attempt++ {
		err = m.RunInTransactionWithOptions(ctx, SerializableTxOptions(), fn)
		if err == nil || !isRetryable(err) {
			return err
		}

		logger.Warn(ctx, "serialization conflict, retrying transaction",
			"attempt", attempt,
			"error", err,
		)

		if m.retry.Backoff > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(attempt) * m.retry.Backoff):
			}
		}
	}
	return fmt.Errorf("transaction retries exhausted: %w", err)
}

// isRetryable reports whether the error is a transient serialization
// conflict worth re-running.
func isRetryable(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == serializationFailure || pgErr.Code == deadlockDetected
	}
	return false
}

// RunInTransactionWithOptions executes fn with custom transaction options.
func (m *TxManager) RunInTransactionWithOptions(ctx context.Context, opts TxOptions, fn func(ctx context.Context) error) error {
	ctx, span := tracer.Start(ctx, "transaction",
		trace.WithAttributes(
			attribute.String("tx.isolation", string(opts.IsolationLevel)),
		))
	defer span.End()

	// Reuse existing transaction from context
	if existing := m.GetTx(ctx); existing != nil {
		return fn(ctx)
	}

	return m.startNewTransaction(ctx, opts, fn)
}

// startNewTransaction begins a new database transaction.
func (m *TxManager) startNewTransaction(ctx context.Context, opts TxOptions, fn func(ctx context.Context) error) error {
	dbTx, err := m.pool.BeginTx(ctx, pgx.TxOptions{
		IsoLevel:   opts.IsolationLevel,
		AccessMode: opts.AccessMode,
	})
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	// Statement timeout protects against runaway queries
	if opts.StatementTimeout > 0 {
		_, err = dbTx.Exec(ctx, fmt.Sprintf("SET LOCAL statement_timeout = '%dms'", opts.StatementTimeout.Milliseconds()))
		if err != nil {
			_ = dbTx.Rollback(ctx)
			return fmt.Errorf("set statement_timeout: %w", err)
		}
	}

	wrappedTx := &Tx{Tx: dbTx, nested: false}
	txCtx := context.WithValue(ctx, txKey{}, wrappedTx)

	if err := m.executeWithRollbackProtection(txCtx, dbTx, fn); err != nil {
		return err
	}

	if err := dbTx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

// executeWithRollbackProtection runs fn and handles rollback on error.
func (m *TxManager) executeWithRollbackProtection(ctx context.Context, dbTx pgx.Tx, fn func(ctx context.Context) error) error {
	err := fn(ctx)
	if err != nil {
		// Use background context for rollback to ensure it completes
		// even if the original context was cancelled
		if rbErr := dbTx.Rollback(context.Background()); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			logger.Error(ctx, "rollback failed", "error", rbErr, "original_error", err)
		}
		return err
	}
	return nil
}

// GetTx returns the current transaction from context, or nil if none.
func (m *TxManager) GetTx(ctx context.Context) *Tx {
	if t, ok := ctx.Value(txKey{}).(*Tx); ok {
		return t
	}
	return nil
}

// Querier is the common query interface of pool and transaction.
// Repositories use GetQuerier so they work both inside and outside
// transactions.
type Querier interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// GetQuerier returns appropriate querier for context.
func (m *TxManager) GetQuerier(ctx context.Context) Querier {
	if t := m.GetTx(ctx); t != nil {
		return t.Tx
	}
	return m.pool
}

// ReadOnly executes fn in a read-only transaction.
func (m *TxManager) ReadOnly(ctx context.Context, fn func(ctx context.Context) error) error {
	opts := DefaultTxOptions()
	opts.AccessMode = pgx.ReadOnly
	return m.RunInTransactionWithOptions(ctx, opts, fn)
}
