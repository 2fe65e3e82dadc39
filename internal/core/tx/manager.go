// Package tx provides transaction management abstractions.
// This package defines interfaces that decouple domain logic from specific
// database implementations.
package tx

import (
	"context"
)

// Manager defines the contract for transaction management.
// Implementations handle BEGIN, COMMIT, ROLLBACK and nested reuse.
//
// Domain services depend on this interface, not concrete implementations.
// The actual implementation lives in infrastructure/storage/postgres.
type Manager interface {
	// RunInTransaction executes fn within a database transaction.
	// If fn returns an error, the transaction is rolled back.
	// If fn succeeds, the transaction is committed.
	//
	// Nested calls reuse the existing transaction from context.
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error

	// RunInRetryableTransaction executes fn in a serializable transaction
	// and re-runs the WHOLE fn when the storage engine reports a
	// serialization conflict. fn must therefore be safe to re-execute:
	// every read it depends on is re-issued inside the new attempt.
	RunInRetryableTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// ReadOnlyManager extends Manager with read-only transaction support.
type ReadOnlyManager interface {
	Manager

	// ReadOnly executes fn in a read-only transaction.
	ReadOnly(ctx context.Context, fn func(ctx context.Context) error) error
}
