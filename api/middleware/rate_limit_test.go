package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

type counterStore struct {
	counts map[string]int64
}

func (c *counterStore) IncrWithTTL(_ context.Context, key string, _ time.Duration) (int64, error) {
	c.counts[key]++
	return c.counts[key], nil
}

func (c *counterStore) RateLimitKey(scope string) string { return "sf:rate_limit:" + scope }

func serveCart(h http.Handler, token, ip string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", nil)
	req.RemoteAddr = ip + ":5555"
	if token != "" {
		req.Header.Set("Cart-Token", token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRateLimitPerCartToken(t *testing.T) {
	store := &counterStore{counts: map[string]int64{}}
	policy := NewRateLimitPolicy("cart", time.Minute, 0, 2)
	h := CartToken(nil)(RateLimit(policy, store, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})))

	for i := 0; i < 2; i++ {
		if rec := serveCart(h, "tok-a", "10.0.0.1"); rec.Code != http.StatusNoContent {
			t.Fatalf("request %d: expected 204 got %d", i, rec.Code)
		}
	}
	rec := serveCart(h, "tok-a", "10.0.0.1")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 got %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") != "60" {
		t.Fatalf("expected Retry-After 60, got %q", rec.Header().Get("Retry-After"))
	}
	if rec := serveCart(h, "tok-b", "10.0.0.1"); rec.Code != http.StatusNoContent {
		t.Fatalf("other cart should not be limited, got %d", rec.Code)
	}
	// requests without a cart token only count against the ip budget
	for i := 0; i < 5; i++ {
		if rec := serveCart(h, "", "10.0.0.1"); rec.Code != http.StatusNoContent {
			t.Fatalf("tokenless request %d limited", i)
		}
	}
	for key := range store.counts {
		if len(key) > 0 && key[len(key)-5:] == "tok-a" {
			t.Fatalf("raw token leaked into key %s", key)
		}
	}
}

func TestRateLimitPerIP(t *testing.T) {
	store := &counterStore{counts: map[string]int64{}}
	policy := NewRateLimitPolicy("cart", time.Minute, 1, 0)
	h := RateLimit(policy, store, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	if rec := serveCart(h, "", "10.0.0.2"); rec.Code != http.StatusOK {
		t.Fatalf("expected first request allowed, got %d", rec.Code)
	}
	if rec := serveCart(h, "", "10.0.0.2"); rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 got %d", rec.Code)
	}
	if rec := serveCart(h, "", "10.0.0.3"); rec.Code != http.StatusOK {
		t.Fatalf("expected other ip allowed, got %d", rec.Code)
	}
}

func TestRateLimitDisabledPassesThrough(t *testing.T) {
	called := false
	h := RateLimit(NewRateLimitPolicy("cart", 0, 1, 1), &counterStore{counts: map[string]int64{}}, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	serveCart(h, "tok", "10.0.0.4")
	if !called {
		t.Fatalf("expected handler to run")
	}
}
