// Package appctx carries request-scoped values through context.
package appctx

import (
	"context"
)

// TraceInfo holds request tracing identifiers.
type TraceInfo struct {
	TraceID   string
	RequestID string
}

type traceKey struct{}

// WithTrace adds trace info to context.
func WithTrace(ctx context.Context, trace *TraceInfo) context.Context {
	return context.WithValue(ctx, traceKey{}, trace)
}

// GetTrace returns trace info from context, or nil.
func GetTrace(ctx context.Context) *TraceInfo {
	if t, ok := ctx.Value(traceKey{}).(*TraceInfo); ok {
		return t
	}
	return nil
}
