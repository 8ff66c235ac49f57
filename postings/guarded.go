package postings

import (
	"context"

	"github.com/cobrun/geoprefix/resilience"
)

// GuardedStore routes every call except Ping through a circuit breaker, so
// an unreachable backend fails fast with SERVICE_UNAVAILABLE instead of
// holding requests until their deadline. Ping bypasses the breaker so
// readiness checks still see the backend recover.
type GuardedStore struct {
	store   Store
	breaker *resilience.CircuitBreaker
}

// NewGuardedStore wraps store with breaker.
func NewGuardedStore(store Store, breaker *resilience.CircuitBreaker) *GuardedStore {
	return &GuardedStore{store: store, breaker: breaker}
}

// Breaker returns the circuit breaker guarding the store.
func (g *GuardedStore) Breaker() *resilience.CircuitBreaker {
	return g.breaker
}

// Add implements Store.
func (g *GuardedStore) Add(ctx context.Context, docID string, terms []string) error {
	return g.breaker.Execute(ctx, func(ctx context.Context) error {
		return g.store.Add(ctx, docID, terms)
	})
}

// Delete implements Store.
func (g *GuardedStore) Delete(ctx context.Context, docID string) error {
	return g.breaker.Execute(ctx, func(ctx context.Context) error {
		return g.store.Delete(ctx, docID)
	})
}

// Docs implements Store.
func (g *GuardedStore) Docs(ctx context.Context, terms []string) ([]string, error) {
	var docs []string
	err := g.breaker.Execute(ctx, func(ctx context.Context) error {
		var err error
		docs, err = g.store.Docs(ctx, terms)
		return err
	})
	return docs, err
}

// SegmentID implements Store.
func (g *GuardedStore) SegmentID(ctx context.Context) (string, error) {
	var id string
	err := g.breaker.Execute(ctx, func(ctx context.Context) error {
		var err error
		id, err = g.store.SegmentID(ctx)
		return err
	})
	return id, err
}

// ForEachTerm implements Store. Errors returned by fn count as failures only
// when they are SERVICE_UNAVAILABLE errors.
func (g *GuardedStore) ForEachTerm(ctx context.Context, fn func(term []byte, docIDs []string) error) error {
	return g.breaker.Execute(ctx, func(ctx context.Context) error {
		return g.store.ForEachTerm(ctx, fn)
	})
}

// Ping implements Store.
func (g *GuardedStore) Ping(ctx context.Context) error {
	return g.store.Ping(ctx)
}
