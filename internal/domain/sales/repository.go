package sales

import (
	"context"
	"time"

	"minimarket/internal/core/id"
)

// Repository defines sale store operations.
// Implementations are transaction-context aware: inside a transaction they
// run against that transaction's connection.
type Repository interface {
	// Insert persists the sale header and its lines.
	Insert(ctx context.Context, sale *Sale) error

	// GetByID retrieves a sale with its lines.
	GetByID(ctx context.Context, saleID id.ID) (*Sale, error)

	// GetForUpdate retrieves a sale with a row lock, without lines.
	GetForUpdate(ctx context.Context, saleID id.ID) (*Sale, error)

	// GetLines retrieves the line items of a sale ordered by line_no.
	GetLines(ctx context.Context, saleID id.ID) ([]Line, error)

	// UpdateStatus persists a status transition with optimistic locking.
	UpdateStatus(ctx context.Context, sale *Sale) error

	// List retrieves sales ordered by document_number desc.
	List(ctx context.Context, filter ListFilter) (ListResult, error)

	// LastDocumentNumber returns the highest document number for the
	// prefix, or "" when the series is empty.
	LastDocumentNumber(ctx context.Context, prefix string) (string, error)

	// DocumentNumberExists reports whether a number is already taken.
	DocumentNumberExists(ctx context.Context, number string) (bool, error)

	// MarkCashClosed stamps every un-closed paid sale created up to the
	// cutoff. Returns the number of sales swept.
	MarkCashClosed(ctx context.Context, upTo time.Time, closedAt time.Time) (int64, error)
}

// ListFilter narrows sale listings.
type ListFilter struct {
	Kind     *DocumentKind
	Status   *Status
	DateFrom *time.Time
	DateTo   *time.Time

	Limit  int
	Offset int
}

// DefaultListFilter returns sensible defaults.
func DefaultListFilter() ListFilter {
	return ListFilter{Limit: 50}
}

// ListResult contains paginated sales.
type ListResult struct {
	Items      []*Sale `json:"items"`
	TotalCount int64   `json:"totalCount"`
	Limit      int     `json:"limit"`
	Offset     int     `json:"offset"`
}
