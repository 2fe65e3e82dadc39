// Package sale_repo provides the PostgreSQL implementation of the sale
// document repository.
package sale_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"

	"minimarket/internal/core/apperror"
	"minimarket/internal/core/id"
	"minimarket/internal/domain/sales"
	"minimarket/internal/infrastructure/storage/postgres"
)

const (
	saleTable     = "doc_sales"
	saleLineTable = "doc_sale_lines"
)

var saleColumns = []string{
	"id", "document_number", "document_kind", "customer_id",
	"subtotal", "discount", "tax", "total", "amount_paid", "change",
	"payment_method", "status", "void_reason",
	"cash_closed", "cash_closed_at", "version", "created_at", "updated_at",
}

var saleLineColumns = []string{
	"line_id", "line_no", "product_id", "quantity", "unit_price", "line_subtotal",
}

// SaleRepo implements sales.Repository.
type SaleRepo struct {
	txManager *postgres.TxManager
}

// NewSaleRepo creates a new sale repository.
func NewSaleRepo(txManager *postgres.TxManager) *SaleRepo {
	return &SaleRepo{txManager: txManager}
}

func (r *SaleRepo) builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

func (r *SaleRepo) baseSelect() squirrel.SelectBuilder {
	return r.builder().
		Select(saleColumns...).
		From(saleTable)
}

// Insert persists the sale header and its lines. Callers run it inside a
// transaction so header, lines, stock debit and outbox commit together.
func (r *SaleRepo) Insert(ctx context.Context, sale *sales.Sale) error {
	querier := r.txManager.GetQuerier(ctx)

	headerQ := r.builder().
		Insert(saleTable).
		Columns(saleColumns...).
		Values(
			sale.ID, sale.DocumentNumber, sale.DocumentKind, sale.CustomerID,
			sale.Subtotal, sale.Discount, sale.Tax, sale.Total, sale.AmountPaid, sale.Change,
			sale.PaymentMethod, sale.Status, sale.VoidReason,
			sale.CashClosed, sale.CashClosedAt, sale.Version, sale.CreatedAt, sale.UpdatedAt,
		)

	sql, args, err := headerQ.ToSql()
	if err != nil {
		return fmt.Errorf("build sale insert: %w", err)
	}

	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert sale: %w", err)
	}

	linesQ := r.builder().
		Insert(saleLineTable).
		Columns(append([]string{"sale_id"}, saleLineColumns...)...)
	for _, line := range sale.Lines {
		linesQ = linesQ.Values(
			sale.ID, line.LineID, line.LineNo, line.ProductID,
			line.Quantity, line.UnitPrice, line.LineSubtotal,
		)
	}

	sql, args, err = linesQ.ToSql()
	if err != nil {
		return fmt.Errorf("build sale lines insert: %w", err)
	}

	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert sale lines: %w", err)
	}

	return nil
}

// GetByID retrieves a sale with its lines.
func (r *SaleRepo) GetByID(ctx context.Context, saleID id.ID) (*sales.Sale, error) {
	q := r.baseSelect().
		Where(squirrel.Eq{"id": saleID}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var sale sales.Sale
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &sale, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound(saleTable, saleID.String())
		}
		return nil, fmt.Errorf("get sale by id: %w", err)
	}

	lines, err := r.GetLines(ctx, saleID)
	if err != nil {
		return nil, err
	}
	sale.Lines = lines

	return &sale, nil
}

// GetForUpdate retrieves a sale header with a row lock, without lines.
func (r *SaleRepo) GetForUpdate(ctx context.Context, saleID id.ID) (*sales.Sale, error) {
	q := r.baseSelect().
		Where(squirrel.Eq{"id": saleID}).
		Suffix("FOR UPDATE")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var sale sales.Sale
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &sale, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound(saleTable, saleID.String())
		}
		return nil, fmt.Errorf("get sale for update: %w", err)
	}

	return &sale, nil
}

// GetLines retrieves the line items of a sale ordered by line_no.
func (r *SaleRepo) GetLines(ctx context.Context, saleID id.ID) ([]sales.Line, error) {
	q := r.builder().
		Select(saleLineColumns...).
		From(saleLineTable).
		Where(squirrel.Eq{"sale_id": saleID}).
		OrderBy("line_no")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var lines []sales.Line
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &lines, sql, args...); err != nil {
		return nil, fmt.Errorf("get sale lines: %w", err)
	}

	return lines, nil
}

// UpdateStatus persists a status transition with optimistic locking.
func (r *SaleRepo) UpdateStatus(ctx context.Context, sale *sales.Sale) error {
	q := r.builder().
		Update(saleTable).
		Set("status", sale.Status).
		Set("void_reason", sale.VoidReason).
		Set("updated_at", sale.UpdatedAt).
		Set("version", squirrel.Expr("version + 1")).
		Where(squirrel.Eq{"id": sale.ID}).
		Where(squirrel.Eq{"version": sale.Version})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update status: %w", err)
	}

	result, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update sale status: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperror.NewConcurrentModification(saleTable, sale.ID)
	}

	sale.Version++
	return nil
}

// List retrieves sales ordered by document_number desc.
func (r *SaleRepo) List(ctx context.Context, filter sales.ListFilter) (sales.ListResult, error) {
	result := sales.ListResult{
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}

	q := r.baseSelect()

	if filter.Kind != nil {
		q = q.Where(squirrel.Eq{"document_kind": *filter.Kind})
	}
	if filter.Status != nil {
		q = q.Where(squirrel.Eq{"status": *filter.Status})
	}
	if filter.DateFrom != nil {
		q = q.Where(squirrel.GtOrEq{"created_at": *filter.DateFrom})
	}
	if filter.DateTo != nil {
		q = q.Where(squirrel.Lt{"created_at": *filter.DateTo})
	}

	countQ := r.builder().
		Select("COUNT(*)").
		FromSelect(q, "sub")

	countSQL, countArgs, err := countQ.ToSql()
	if err != nil {
		return result, fmt.Errorf("build count query: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	if err := querier.QueryRow(ctx, countSQL, countArgs...).Scan(&result.TotalCount); err != nil {
		return result, fmt.Errorf("count sales: %w", err)
	}

	q = q.OrderBy("document_number DESC")
	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return result, fmt.Errorf("build query: %w", err)
	}

	if err := pgxscan.Select(ctx, querier, &result.Items, sql, args...); err != nil {
		return result, fmt.Errorf("list sales: %w", err)
	}

	return result, nil
}

// LastDocumentNumber returns the highest document number for the prefix,
// or "" when the series is empty. Fixed-width sequences make the
// lexicographic MAX the numeric max as well.
func (r *SaleRepo) LastDocumentNumber(ctx context.Context, prefix string) (string, error) {
	q := r.builder().
		Select("document_number").
		From(saleTable).
		Where(squirrel.Like{"document_number": prefix + "-%"}).
		OrderBy("document_number DESC").
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return "", fmt.Errorf("build query: %w", err)
	}

	var number string
	querier := r.txManager.GetQuerier(ctx)
	err = querier.QueryRow(ctx, sql, args...).Scan(&number)
	if err == pgx.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("last document number: %w", err)
	}

	return number, nil
}

// DocumentNumberExists reports whether a number is already taken.
func (r *SaleRepo) DocumentNumberExists(ctx context.Context, number string) (bool, error) {
	q := r.builder().
		Select("1").
		From(saleTable).
		Where(squirrel.Eq{"document_number": number}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return false, fmt.Errorf("build query: %w", err)
	}

	var exists int
	querier := r.txManager.GetQuerier(ctx)
	err = querier.QueryRow(ctx, sql, args...).Scan(&exists)
	if err == pgx.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("document number exists: %w", err)
	}

	return true, nil
}

// MarkCashClosed stamps every un-closed paid sale created up to the
// cutoff. Returns the number of sales swept.
func (r *SaleRepo) MarkCashClosed(ctx context.Context, upTo time.Time, closedAt time.Time) (int64, error) {
	q := r.builder().
		Update(saleTable).
		Set("cash_closed", true).
		Set("cash_closed_at", closedAt).
		Set("updated_at", closedAt).
		Where(squirrel.Eq{"cash_closed": false}).
		Where(squirrel.Eq{"status": sales.StatusPaid}).
		Where(squirrel.LtOrEq{"created_at": upTo})

	sql, args, err := q.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build cash close: %w", err)
	}

	result, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return 0, fmt.Errorf("mark cash closed: %w", err)
	}

	return result.RowsAffected(), nil
}
