package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// UpstreamMetrics records calls made to the commerce platform.
type UpstreamMetrics struct {
	duration *prometheus.HistogramVec
	calls    *prometheus.CounterVec
}

// NewUpstreamMetrics registers the platform call metrics on the provided registerer.
func NewUpstreamMetrics(reg prometheus.Registerer) *UpstreamMetrics {
	if reg == nil {
		return &UpstreamMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "commerce_request_duration_seconds",
		Help:    "Duration of commerce platform calls in seconds.",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 15, 30},
	}, []string{"operation"})
	calls := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "commerce_requests_total",
		Help: "Commerce platform calls by outcome.",
	}, []string{"operation", "outcome"})
	reg.MustRegister(duration, calls)
	return &UpstreamMetrics{duration: duration, calls: calls}
}

// Observe records one finished call.
func (u *UpstreamMetrics) Observe(operation, outcome string, duration time.Duration) {
	if u == nil || u.duration == nil {
		return
	}
	op := normalizeLabel(operation)
	u.duration.WithLabelValues(op).Observe(duration.Seconds())
	u.calls.WithLabelValues(op, normalizeLabel(outcome)).Inc()
}

// OwnershipMetrics counts how product owners were resolved.
type OwnershipMetrics struct {
	resolved   *prometheus.CounterVec
	unresolved prometheus.Counter
	tierErrors *prometheus.CounterVec
}

// NewOwnershipMetrics registers the ownership resolution metrics.
func NewOwnershipMetrics(reg prometheus.Registerer) *OwnershipMetrics {
	if reg == nil {
		return &OwnershipMetrics{}
	}
	resolved := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ownership_resolved_total",
		Help: "Product owners resolved, by tier.",
	}, []string{"tier"})
	unresolved := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ownership_unresolved_total",
		Help: "Products left without an owner after every tier ran.",
	})
	tierErrors := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ownership_tier_errors_total",
		Help: "Failed ownership tier batches.",
	}, []string{"tier"})
	reg.MustRegister(resolved, unresolved, tierErrors)
	return &OwnershipMetrics{resolved: resolved, unresolved: unresolved, tierErrors: tierErrors}
}

// AddResolved adds n resolutions for tier.
func (o *OwnershipMetrics) AddResolved(tier string, n int) {
	if o == nil || o.resolved == nil || n <= 0 {
		return
	}
	o.resolved.WithLabelValues(normalizeLabel(tier)).Add(float64(n))
}

// AddUnresolved adds n products nobody could attribute.
func (o *OwnershipMetrics) AddUnresolved(n int) {
	if o == nil || o.unresolved == nil || n <= 0 {
		return
	}
	o.unresolved.Add(float64(n))
}

// IncTierError counts one failed batch.
func (o *OwnershipMetrics) IncTierError(tier string) {
	if o == nil || o.tierErrors == nil {
		return
	}
	o.tierErrors.WithLabelValues(normalizeLabel(tier)).Inc()
}

// StockMetrics counts stock adjustments made outside the platform's own flow.
type StockMetrics struct {
	adjustments *prometheus.CounterVec
	failures    *prometheus.CounterVec
}

// NewStockMetrics registers the stock adjustment metrics.
func NewStockMetrics(reg prometheus.Registerer) *StockMetrics {
	if reg == nil {
		return &StockMetrics{}
	}
	adjustments := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "stock_adjustments_total",
		Help: "Manual stock adjustments, by operation.",
	}, []string{"operation"})
	failures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "stock_adjustment_failures_total",
		Help: "Manual stock adjustments that failed, by operation.",
	}, []string{"operation"})
	reg.MustRegister(adjustments, failures)
	return &StockMetrics{adjustments: adjustments, failures: failures}
}

// IncAdjustment counts a successful adjustment.
func (s *StockMetrics) IncAdjustment(operation string) {
	if s == nil || s.adjustments == nil {
		return
	}
	s.adjustments.WithLabelValues(normalizeLabel(operation)).Inc()
}

// IncFailure counts a failed adjustment.
func (s *StockMetrics) IncFailure(operation string) {
	if s == nil || s.failures == nil {
		return
	}
	s.failures.WithLabelValues(normalizeLabel(operation)).Inc()
}
