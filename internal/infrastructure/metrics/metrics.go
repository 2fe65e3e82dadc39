// Package metrics exposes Prometheus collectors for sale and receipt
// outcomes.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Collectors implements the sales and receipts metrics interfaces.
type Collectors struct {
	salesCreated       *prometheus.CounterVec
	salesVoided        *prometheus.CounterVec
	receiptsDispatched *prometheus.CounterVec
	receiptsFailed     *prometheus.CounterVec

	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

// New creates and registers the collectors on the given registerer.
func New(reg prometheus.Registerer) *Collectors {
	c := &Collectors{
		salesCreated: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sales_created_total",
				Help: "Sales committed, by document kind",
			},
			[]string{"kind"},
		),
		salesVoided: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sales_voided_total",
				Help: "Sales voided, by document kind",
			},
			[]string{"kind"},
		),
		receiptsDispatched: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "receipts_dispatched_total",
				Help: "Receipt documents rendered, by document kind",
			},
			[]string{"kind"},
		),
		receiptsFailed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "receipts_failed_total",
				Help: "Receipt dispatch failures, by kind and failing dependency",
			},
			[]string{"kind", "reason"},
		),
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"path"},
		),
	}

	reg.MustRegister(
		c.salesCreated,
		c.salesVoided,
		c.receiptsDispatched,
		c.receiptsFailed,
		c.HTTPRequestsTotal,
		c.HTTPRequestDuration,
	)
	return c
}

func (c *Collectors) SaleCreated(kind string) {
	c.salesCreated.WithLabelValues(kind).Inc()
}

func (c *Collectors) SaleVoided(kind string) {
	c.salesVoided.WithLabelValues(kind).Inc()
}

func (c *Collectors) ReceiptDispatched(kind string) {
	c.receiptsDispatched.WithLabelValues(kind).Inc()
}

func (c *Collectors) ReceiptFailed(kind, reason string) {
	c.receiptsFailed.WithLabelValues(kind, reason).Inc()
}
