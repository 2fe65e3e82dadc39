package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"minimarket/internal/domain/receipts"
	"minimarket/internal/domain/sales"
)

type countingStore struct {
	calls int
	err   error
}

func (s *countingStore) GetByKind(_ context.Context, kind sales.DocumentKind) (*receipts.Template, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return &receipts.Template{Kind: kind, Subject: "Su comprobante", IsActive: true}, nil
}

func TestTemplateCache_ReadThrough(t *testing.T) {
	store := &countingStore{}
	cache := NewTemplateCache(store, time.Minute)

	for i := 0; i < 3; i++ {
		tpl, err := cache.GetByKind(context.Background(), sales.KindBoleta)
		require.NoError(t, err)
		assert.Equal(t, sales.KindBoleta, tpl.Kind)
	}
	assert.Equal(t, 1, store.calls)

	// Distinct kinds fill distinct entries.
	_, err := cache.GetByKind(context.Background(), sales.KindFactura)
	require.NoError(t, err)
	assert.Equal(t, 2, store.calls)
}

func TestTemplateCache_ErrorsNotCached(t *testing.T) {
	store := &countingStore{err: errors.New("connection refused")}
	cache := NewTemplateCache(store, time.Minute)

	_, err := cache.GetByKind(context.Background(), sales.KindBoleta)
	require.Error(t, err)
	assert.Equal(t, 1, store.calls)

	store.err = nil
	tpl, err := cache.GetByKind(context.Background(), sales.KindBoleta)
	require.NoError(t, err)
	assert.True(t, tpl.IsActive)
	assert.Equal(t, 2, store.calls)
}

func TestTemplateCache_Invalidate(t *testing.T) {
	store := &countingStore{}
	cache := NewTemplateCache(store, time.Minute)

	_, err := cache.GetByKind(context.Background(), sales.KindBoleta)
	require.NoError(t, err)
	cache.Invalidate(sales.KindBoleta)

	_, err = cache.GetByKind(context.Background(), sales.KindBoleta)
	require.NoError(t, err)
	assert.Equal(t, 2, store.calls)
}

func TestTemplateCache_Expiry(t *testing.T) {
	store := &countingStore{}
	cache := NewTemplateCache(store, time.Millisecond)

	_, err := cache.GetByKind(context.Background(), sales.KindBoleta)
	require.NoError(t, err)

	time.Sleep(5 * time.Millisecond)

	_, err = cache.GetByKind(context.Background(), sales.KindBoleta)
	require.NoError(t, err)
	assert.Equal(t, 2, store.calls)
}
