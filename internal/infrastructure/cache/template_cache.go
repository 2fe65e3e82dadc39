// Package cache provides caching infrastructure.
package cache

import (
	"context"
	"sync"
	"time"

	"minimarket/internal/domain/receipts"
	"minimarket/internal/domain/sales"
)

// DefaultTemplateTTL bounds how stale a cached template may be. Template
// edits are rare and a short window of staleness on receipt subjects is
// acceptable.
const DefaultTemplateTTL = 5 * time.Minute

type cachedTemplate struct {
	tpl       *receipts.Template
	fetchedAt time.Time
}

// TemplateCache is a read-through cache in front of a TemplateStore.
// The dispatcher hits the store once per sale; with only two document
// kinds the working set is tiny and lives comfortably in memory.
type TemplateCache struct {
	store receipts.TemplateStore
	ttl   time.Duration

	mu      sync.RWMutex
	entries map[sales.DocumentKind]cachedTemplate
}

// NewTemplateCache wraps a template store with caching.
func NewTemplateCache(store receipts.TemplateStore, ttl time.Duration) *TemplateCache {
	if ttl <= 0 {
		ttl = DefaultTemplateTTL
	}
	return &TemplateCache{
		store:   store,
		ttl:     ttl,
		entries: make(map[sales.DocumentKind]cachedTemplate),
	}
}

// GetByKind returns the cached template or fetches it from the store.
// Errors are never cached; a failing store is retried on the next call.
func (c *TemplateCache) GetByKind(ctx context.Context, kind sales.DocumentKind) (*receipts.Template, error) {
	c.mu.RLock()
	entry, ok := c.entries[kind]
	c.mu.RUnlock()

	if ok && time.Since(entry.fetchedAt) < c.ttl {
		return entry.tpl, nil
	}

	tpl, err := c.store.GetByKind(ctx, kind)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.entries[kind] = cachedTemplate{tpl: tpl, fetchedAt: time.Now()}
	c.mu.Unlock()

	return tpl, nil
}

// Invalidate drops the cached entry for a kind.
func (c *TemplateCache) Invalidate(kind sales.DocumentKind) {
	c.mu.Lock()
	delete(c.entries, kind)
	c.mu.Unlock()
}
