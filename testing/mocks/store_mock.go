// Package mocks provides mock implementations for testing.
package mocks

import (
	"context"
	"sync"

	"github.com/cobrun/geoprefix/postings"
)

// MockStore wraps a postings.MemoryStore and lets tests inject failures.
type MockStore struct {
	*postings.MemoryStore

	mu      sync.Mutex
	errs    map[string]error
	calls   map[string]int
	pingErr error
}

// NewMockStore creates an empty mock store.
func NewMockStore() *MockStore {
	return &MockStore{
		MemoryStore: postings.NewMemoryStore(nil),
		errs:        make(map[string]error),
		calls:       make(map[string]int),
	}
}

// FailOn makes op ("add", "delete", "docs", "segment", "terms") return err.
// A nil err clears the failure.
func (m *MockStore) FailOn(op string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.errs, op)
		return
	}
	m.errs[op] = err
}

// SetPingError sets the error returned by Ping.
func (m *MockStore) SetPingError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pingErr = err
}

// Calls returns how often op was invoked.
func (m *MockStore) Calls(op string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[op]
}

func (m *MockStore) enter(op string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls[op]++
	return m.errs[op]
}

// Add implements postings.Store.
func (m *MockStore) Add(ctx context.Context, docID string, terms []string) error {
	if err := m.enter("add"); err != nil {
		return err
	}
	return m.MemoryStore.Add(ctx, docID, terms)
}

// Delete implements postings.Store.
func (m *MockStore) Delete(ctx context.Context, docID string) error {
	if err := m.enter("delete"); err != nil {
		return err
	}
	return m.MemoryStore.Delete(ctx, docID)
}

// Docs implements postings.Store.
func (m *MockStore) Docs(ctx context.Context, terms []string) ([]string, error) {
	if err := m.enter("docs"); err != nil {
		return nil, err
	}
	return m.MemoryStore.Docs(ctx, terms)
}

// SegmentID implements postings.Store.
func (m *MockStore) SegmentID(ctx context.Context) (string, error) {
	if err := m.enter("segment"); err != nil {
		return "", err
	}
	return m.MemoryStore.SegmentID(ctx)
}

// ForEachTerm implements postings.Store.
func (m *MockStore) ForEachTerm(ctx context.Context, fn func(term []byte, docIDs []string) error) error {
	if err := m.enter("terms"); err != nil {
		return err
	}
	return m.MemoryStore.ForEachTerm(ctx, fn)
}

// Ping implements postings.Store.
func (m *MockStore) Ping(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls["ping"]++
	return m.pingErr
}

var _ postings.Store = (*MockStore)(nil)
