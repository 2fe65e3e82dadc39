package sales

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"minimarket/internal/core/apperror"
	"minimarket/pkg/logger"
)

// NumberSource is the storage view the allocator needs.
type NumberSource interface {
	LastDocumentNumber(ctx context.Context, prefix string) (string, error)
	DocumentNumberExists(ctx context.Context, number string) (bool, error)
}

// AllocatorConfig bounds the collision retry loop.
type AllocatorConfig struct {
	// Attempts before giving up. Last-resort guard, not the primary
	// concurrency control: the caller's serializable transaction is.
	Attempts int

	// RetryDelay between attempts, to reduce thrash under contention.
	RetryDelay time.Duration
}

// DefaultAllocatorConfig returns the standard bounds.
func DefaultAllocatorConfig() AllocatorConfig {
	return AllocatorConfig{
		Attempts:   5,
		RetryDelay: 50 * time.Millisecond,
	}
}

// Allocator issues the next sequential, human-readable document number per
// document kind: {PREFIX}-{8-digit sequence}, e.g. B001-00000042.
//
// The sequence is derived from the highest persisted number rather than a
// stored counter, so re-running inside a retried transaction re-derives a
// consistent candidate instead of consuming two numbers for one sale.
type Allocator struct {
	source NumberSource
	cfg    AllocatorConfig
}

// NewAllocator creates an allocator over the given store.
func NewAllocator(source NumberSource, cfg AllocatorConfig) *Allocator {
	if cfg.Attempts <= 0 {
		cfg.Attempts = DefaultAllocatorConfig().Attempts
	}
	return &Allocator{source: source, cfg: cfg}
}

// Allocate returns the next free document number for the kind.
// On a collision (a concurrent allocator won the race between derivation
// and verification) it advances to the next candidate, bounded by
// cfg.Attempts; exhaustion is a fatal server error that aborts the sale.
func (a *Allocator) Allocate(ctx context.Context, kind DocumentKind) (string, error) {
	prefix := kind.Prefix()

	last, err := a.source.LastDocumentNumber(ctx, prefix)
	if err != nil {
		return "", fmt.Errorf("last document number: %w", err)
	}

	seq := int64(1)
	if last != "" {
		parsed := ParseSequence(last)
		if parsed < 0 {
			return "", apperror.NewInternal(fmt.Errorf("malformed document number %q", last))
		}
		seq = parsed + 1
	}

	for attempt := 1; attempt <= a.cfg.Attempts; attempt++ {
		candidate := FormatNumber(prefix, seq)

		taken, err := a.source.DocumentNumberExists(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("check document number: %w", err)
		}
		if !taken {
			return candidate, nil
		}

		logger.Warn(ctx, "document number collision, retrying",
			"candidate", candidate,
			"attempt", attempt,
		)
		seq++

		if a.cfg.RetryDelay > 0 {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(a.cfg.RetryDelay):
			}
		}
	}

	return "", apperror.NewNumberExhausted(prefix, a.cfg.Attempts)
}

// FormatNumber renders a document number for a series and sequence.
func FormatNumber(prefix string, seq int64) string {
	return fmt.Sprintf("%s-%08d", prefix, seq)
}

// ParseSequence extracts the numeric part from a formatted number.
// Returns -1 if parsing fails.
func ParseSequence(formatted string) int64 {
	_, digits, ok := strings.Cut(formatted, "-")
	if !ok {
		return -1
	}
	seq, err := strconv.ParseInt(digits, 10, 64)
	if err != nil || seq < 0 {
		return -1
	}
	return seq
}
