// Package settings_repo provides PostgreSQL storage for document
// delivery settings.
package settings_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"minimarket/internal/core/apperror"
	"minimarket/internal/domain/receipts"
	"minimarket/internal/domain/sales"
	"minimarket/internal/infrastructure/storage/postgres"
)

const templateTable = "set_document_templates"

// TemplateRepo implements receipts.TemplateStore.
type TemplateRepo struct {
	txManager *postgres.TxManager
}

// NewTemplateRepo creates a new template repository.
func NewTemplateRepo(txManager *postgres.TxManager) *TemplateRepo {
	return &TemplateRepo{txManager: txManager}
}

// GetByKind retrieves the delivery template for a document kind.
func (r *TemplateRepo) GetByKind(ctx context.Context, kind sales.DocumentKind) (*receipts.Template, error) {
	q := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar).
		Select("kind", "subject", "is_active").
		From(templateTable).
		Where(squirrel.Eq{"kind": kind}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var tpl receipts.Template
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &tpl, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound(templateTable, string(kind))
		}
		return nil, fmt.Errorf("get template by kind: %w", err)
	}

	return &tpl, nil
}
