package http

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/cobrun/geoprefix/errors"
)

// RateLimiterConfig holds rate limiter configuration.
type RateLimiterConfig struct {
	// RequestsPerSecond is the sustained rate per client.
	RequestsPerSecond float64
	// BurstSize is the bucket capacity.
	BurstSize int
	// KeyFunc extracts the client key; RemoteAddr by default.
	KeyFunc func(r *http.Request) string
	// CleanupInterval is how often idle buckets are dropped.
	CleanupInterval time.Duration
}

// DefaultRateLimiterConfig returns defaults for indexing traffic.
func DefaultRateLimiterConfig() RateLimiterConfig {
	return RateLimiterConfig{
		RequestsPerSecond: 50,
		BurstSize:         100,
		KeyFunc:           RemoteAddrKey,
		CleanupInterval:   time.Minute,
	}
}

// RemoteAddrKey keys clients by RemoteAddr, which chi's RealIP middleware
// rewrites from proxy headers.
func RemoteAddrKey(r *http.Request) string {
	return r.RemoteAddr
}

// TokenBucket implements the token bucket algorithm.
type TokenBucket struct {
	mu         sync.Mutex
	tokens     float64
	maxTokens  float64
	refillRate float64 // tokens per second
	lastRefill time.Time
	now        func() time.Time
}

// NewTokenBucket creates a full bucket.
func NewTokenBucket(maxTokens, refillRate float64) *TokenBucket {
	return newTokenBucket(maxTokens, refillRate, time.Now)
}

func newTokenBucket(maxTokens, refillRate float64, now func() time.Time) *TokenBucket {
	return &TokenBucket{
		tokens:     maxTokens,
		maxTokens:  maxTokens,
		refillRate: refillRate,
		lastRefill: now(),
		now:        now,
	}
}

// refill must be called with mu held.
func (b *TokenBucket) refill() {
	now := b.now()
	b.tokens = min(b.maxTokens, b.tokens+now.Sub(b.lastRefill).Seconds()*b.refillRate)
	b.lastRefill = now
}

// Allow consumes a token if one is available.
func (b *TokenBucket) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.refill()
	if b.tokens >= 1 {
		b.tokens--
		return true
	}
	return false
}

// Tokens returns the available tokens.
func (b *TokenBucket) Tokens() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.refill()
	return b.tokens
}

// RateLimiter limits requests per client with token buckets.
type RateLimiter struct {
	config  RateLimiterConfig
	buckets sync.Map // client key -> *TokenBucket
	cancel  context.CancelFunc
}

// NewRateLimiter creates a rate limiter. Close stops its cleanup loop.
func NewRateLimiter(config RateLimiterConfig) *RateLimiter {
	if config.KeyFunc == nil {
		config.KeyFunc = RemoteAddrKey
	}
	ctx, cancel := context.WithCancel(context.Background())
	rl := &RateLimiter{config: config, cancel: cancel}
	if config.CleanupInterval > 0 {
		go rl.cleanupLoop(ctx)
	}
	return rl
}

func (rl *RateLimiter) bucket(key string) *TokenBucket {
	if b, ok := rl.buckets.Load(key); ok {
		return b.(*TokenBucket)
	}
	b, _ := rl.buckets.LoadOrStore(key, NewTokenBucket(float64(rl.config.BurstSize), rl.config.RequestsPerSecond))
	return b.(*TokenBucket)
}

func (rl *RateLimiter) cleanupLoop(ctx context.Context) {
	ticker := time.NewTicker(rl.config.CleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rl.buckets.Range(func(key, value any) bool {
				// A full bucket has been idle.
				if value.(*TokenBucket).Tokens() >= float64(rl.config.BurstSize) {
					rl.buckets.Delete(key)
				}
				return true
			})
		}
	}
}

// Close stops the rate limiter.
func (rl *RateLimiter) Close() {
	rl.cancel()
}

// Middleware rejects requests over the limit with 429.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b := rl.bucket(rl.config.KeyFunc(r))
		allowed := b.Allow()
		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(rl.config.BurstSize))
		w.Header().Set("X-RateLimit-Remaining", strconv.FormatFloat(b.Tokens(), 'f', 0, 64))
		if !allowed {
			w.Header().Set("Retry-After", "1")
			errors.WriteErrorWithStatus(w, http.StatusTooManyRequests, errors.CodeRateLimited, "Too many requests")
			return
		}
		next.ServeHTTP(w, r)
	})
}
