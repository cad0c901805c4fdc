package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func TestHTTPMetricsObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewHTTPMetrics(reg)
	m.Observe("/api/v1/cart", http.MethodGet, http.StatusOK, 20*time.Millisecond)
	m.Observe("/api/v1/cart", http.MethodGet, http.StatusOK, 5*time.Millisecond)
	m.Observe("", http.MethodGet, http.StatusNotFound, time.Millisecond)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	mf := findMetricFamily(mfs, "http_requests_total")
	if mf == nil {
		t.Fatalf("http_requests_total not exported")
	}
	if got := counterWithLabels(mf, map[string]string{"route": "/api/v1/cart", "method": "GET", "status": "200"}); got != 2 {
		t.Fatalf("expected 2 cart requests, got %f", got)
	}
	if got := counterWithLabels(mf, map[string]string{"route": "unmatched", "method": "GET", "status": "404"}); got != 1 {
		t.Fatalf("expected 1 unmatched request, got %f", got)
	}
}

func TestHTTPMetricsNilSafe(t *testing.T) {
	var m *HTTPMetrics
	m.Observe("/x", http.MethodGet, http.StatusOK, time.Millisecond)
	NewHTTPMetrics(nil).Observe("/x", http.MethodGet, http.StatusOK, time.Millisecond)
}

func TestHandlerServesRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewStockMetrics(reg).IncAdjustment("decrease")

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), "stock_adjustments_total") {
		t.Fatalf("expected stock metric in output:\n%s", body)
	}
}
