package postings

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/cobrun/geoprefix/errors"
)

func fastRetry(retries int) RetryConfig {
	return RetryConfig{
		MaxRetries:   retries,
		InitialDelay: time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
		Multiplier:   2.0,
	}
}

func TestRetry_SuccessAfterRetries(t *testing.T) {
	attempts := 0
	err := Retry(context.Background(), fastRetry(3), func() error {
		attempts++
		if attempts < 3 {
			return fmt.Errorf("dial tcp: connection refused")
		}
		return nil
	})
	if err != nil {
		t.Errorf("Retry() error = %v", err)
	}
	if attempts != 3 {
		t.Errorf("attempts = %d, want 3", attempts)
	}
}

func TestRetry_Exhausted(t *testing.T) {
	attempts := 0
	transient := fmt.Errorf("i/o timeout")
	err := Retry(context.Background(), fastRetry(2), func() error {
		attempts++
		return transient
	})
	if !errors.Is(err, transient) {
		t.Errorf("Retry() error = %v, want wrapping %v", err, transient)
	}
	if attempts != 3 {
		t.Errorf("attempts = %d, want 3", attempts)
	}
}

func TestRetry_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	cfg := fastRetry(5)
	cfg.InitialDelay = time.Second
	cfg.MaxDelay = time.Second

	err := Retry(ctx, cfg, func() error {
		return fmt.Errorf("connection reset")
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Retry() error = %v, want context.Canceled", err)
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"canceled", context.Canceled, false},
		{"deadline", fmt.Errorf("op: %w", context.DeadlineExceeded), false},
		{"redis nil", redis.Nil, false},
		{"not found", errors.NotFound("document"), false},
		{"unavailable", errors.Unavailable("redis down"), true},
		{"refused", fmt.Errorf("dial tcp 127.0.0.1:6379: connection refused"), true},
		{"loading", fmt.Errorf("LOADING Redis is loading the dataset in memory"), true},
		{"wrong type", fmt.Errorf("WRONGTYPE Operation against a key holding the wrong kind of value"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isRetryable(tt.err); got != tt.want {
				t.Errorf("isRetryable(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestRedisStore_Keys(t *testing.T) {
	s := NewRedisStore(nil, "geoprefix:", "location", nil)
	tests := []struct {
		got, want string
	}{
		{s.termKey("CC+"), "geoprefix:location:t:CC+"},
		{s.termsKey(), "geoprefix:location:terms"},
		{s.docKey("doc-1"), "geoprefix:location:d:doc-1"},
		{s.genKey(), "geoprefix:location:gen"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("key = %q, want %q", tt.got, tt.want)
		}
	}
}
