package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	pkgerrors "github.com/abelkene001/mini-biz/pkg/errors"
)

type fakeLimiter struct {
	counts map[string]int64
	err    error
}

func newFakeLimiter() *fakeLimiter {
	return &fakeLimiter{counts: map[string]int64{}}
}

func (f *fakeLimiter) FixedWindowAllow(_ context.Context, scope string, limit int64, _ time.Duration) (bool, int64, error) {
	if f.err != nil {
		return false, 0, f.err
	}
	f.counts[scope]++
	count := f.counts[scope]
	return count <= limit, count, nil
}

func orderRequest(ip string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/orders", nil)
	req.Header.Set("X-Forwarded-For", ip)
	return req
}

func TestRateLimitAllowsUnderLimit(t *testing.T) {
	limiter := newFakeLimiter()
	handler := RateLimit(NewRateLimitPolicy("orders", time.Minute, 2), limiter, nil)(okHandler())

	for i := 0; i < 2; i++ {
		resp := httptest.NewRecorder()
		handler.ServeHTTP(resp, orderRequest("203.0.113.9"))
		if resp.Code != http.StatusOK {
			t.Fatalf("attempt %d: expected 200 got %d", i+1, resp.Code)
		}
	}
	if limiter.counts["ip:orders:203.0.113.9"] != 2 {
		t.Fatalf("expected scoped counter, got %v", limiter.counts)
	}
}

func TestRateLimitBlocksOverLimit(t *testing.T) {
	limiter := newFakeLimiter()
	handler := RateLimit(NewRateLimitPolicy("orders", time.Minute, 1), limiter, nil)(okHandler())

	handler.ServeHTTP(httptest.NewRecorder(), orderRequest("203.0.113.9"))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, orderRequest("203.0.113.9"))

	if resp.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 got %d", resp.Code)
	}
	if resp.Header().Get("Retry-After") != "60" {
		t.Fatalf("expected Retry-After 60 got %q", resp.Header().Get("Retry-After"))
	}
	var payload struct {
		Code string `json:"code"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload.Code != string(pkgerrors.CodeRateLimit) {
		t.Fatalf("expected %s got %s", pkgerrors.CodeRateLimit, payload.Code)
	}

	other := httptest.NewRecorder()
	handler.ServeHTTP(other, orderRequest("198.51.100.4"))
	if other.Code != http.StatusOK {
		t.Fatalf("other clients should not be throttled, got %d", other.Code)
	}
}

func TestRateLimitDisabledPolicyPassesThrough(t *testing.T) {
	limiter := newFakeLimiter()
	handler := RateLimit(NewRateLimitPolicy("orders", 0, 0), limiter, nil)(okHandler())

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, orderRequest("203.0.113.9"))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if len(limiter.counts) != 0 {
		t.Fatalf("limiter should not be consulted")
	}
}

func TestRateLimitLimiterFailure(t *testing.T) {
	limiter := newFakeLimiter()
	limiter.err = errors.New("redis unavailable")
	handler := RateLimit(NewRateLimitPolicy("orders", time.Minute, 5), limiter, nil)(okHandler())

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, orderRequest("203.0.113.9"))
	if resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 got %d", resp.Code)
	}
}

func TestClientIPPrefersForwardedHeader(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.1.1.1:5555"
	if got := clientIP(req); got != "10.1.1.1" {
		t.Fatalf("expected remote host got %q", got)
	}
	req.Header.Set("X-Real-IP", "192.0.2.8")
	if got := clientIP(req); got != "192.0.2.8" {
		t.Fatalf("expected real ip got %q", got)
	}
	req.Header.Set("X-Forwarded-For", " 198.51.100.1 , 10.0.0.1")
	if got := clientIP(req); got != "198.51.100.1" {
		t.Fatalf("expected first forwarded ip got %q", got)
	}
}
