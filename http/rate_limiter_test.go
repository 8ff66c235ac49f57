package http

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestTokenBucket(t *testing.T) {
	now := time.Unix(0, 0)
	b := newTokenBucket(2, 1, func() time.Time { return now })

	tests := []struct {
		name    string
		advance time.Duration
		want    bool
	}{
		{"first token", 0, true},
		{"second token", 0, true},
		{"empty bucket", 0, false},
		{"half refilled", 500 * time.Millisecond, false},
		{"refilled", 500 * time.Millisecond, true},
		{"capped at max", 10 * time.Second, true},
	}
	for _, tt := range tests {
		now = now.Add(tt.advance)
		if got := b.Allow(); got != tt.want {
			t.Errorf("%s: Allow() = %v, want %v", tt.name, got, tt.want)
		}
	}
	if got := b.Tokens(); got != 1 {
		t.Errorf("Tokens() = %v, want 1", got)
	}
}

func TestRateLimiter_Middleware(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{RequestsPerSecond: 0.001, BurstSize: 2})
	defer rl.Close()

	handler := rl.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	send := func(addr string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/v1/documents", nil)
		req.RemoteAddr = addr
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		return w
	}

	for i := 0; i < 2; i++ {
		if w := send("10.0.0.1"); w.Code != http.StatusOK {
			t.Fatalf("request %d status = %d, want 200", i, w.Code)
		}
	}
	w := send("10.0.0.1")
	if w.Code != http.StatusTooManyRequests {
		t.Errorf("status = %d, want 429", w.Code)
	}
	if w.Header().Get("Retry-After") == "" {
		t.Error("Retry-After not set")
	}
	if w := send("10.0.0.2"); w.Code != http.StatusOK {
		t.Errorf("other client status = %d, want 200", w.Code)
	}
}
