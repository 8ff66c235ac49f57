package postings

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/cobrun/geoprefix/errors"
	"github.com/cobrun/geoprefix/telemetry"
)

// MemoryStore is an in-process Store.
type MemoryStore struct {
	mu       sync.RWMutex
	postings map[string]map[string]struct{} // term -> docs
	docs     map[string][]string            // doc -> terms
	gen      uint64
	metrics  *telemetry.IndexMetrics
}

// NewMemoryStore creates an empty store. metrics may be nil.
func NewMemoryStore(metrics *telemetry.IndexMetrics) *MemoryStore {
	return &MemoryStore{
		postings: make(map[string]map[string]struct{}),
		docs:     make(map[string][]string),
		metrics:  metrics,
	}
}

func (s *MemoryStore) record(ctx context.Context, op string, start time.Time, err error) {
	s.metrics.RecordStoreOperation(ctx, "memory", op, time.Since(start), err)
}

// Add implements Store.
func (s *MemoryStore) Add(ctx context.Context, docID string, terms []string) error {
	start := time.Now()
	if docID == "" {
		err := errors.BadRequest("document id is required")
		s.record(ctx, "add", start, err)
		return err
	}
	terms = uniqueTerms(terms)

	s.mu.Lock()
	s.unpost(docID)
	for _, term := range terms {
		docs := s.postings[term]
		if docs == nil {
			docs = make(map[string]struct{})
			s.postings[term] = docs
		}
		docs[docID] = struct{}{}
	}
	if len(terms) > 0 {
		s.docs[docID] = terms
	}
	s.gen++
	s.mu.Unlock()

	s.record(ctx, "add", start, nil)
	return nil
}

// unpost removes docID from its postings. Caller holds mu.
func (s *MemoryStore) unpost(docID string) bool {
	terms, ok := s.docs[docID]
	if !ok {
		return false
	}
	for _, term := range terms {
		docs := s.postings[term]
		delete(docs, docID)
		if len(docs) == 0 {
			delete(s.postings, term)
		}
	}
	delete(s.docs, docID)
	return true
}

// Delete implements Store.
func (s *MemoryStore) Delete(ctx context.Context, docID string) error {
	start := time.Now()
	s.mu.Lock()
	found := s.unpost(docID)
	if found {
		s.gen++
	}
	s.mu.Unlock()

	var err error
	if !found {
		err = errors.NotFound("document")
	}
	s.record(ctx, "delete", start, err)
	return err
}

// Docs implements Store.
func (s *MemoryStore) Docs(ctx context.Context, terms []string) ([]string, error) {
	start := time.Now()
	set := make(map[string]struct{})
	s.mu.RLock()
	for _, term := range terms {
		for id := range s.postings[term] {
			set[id] = struct{}{}
		}
	}
	s.mu.RUnlock()
	s.record(ctx, "docs", start, nil)
	return sortedSet(set), nil
}

// Terms returns the terms posted for docID.
func (s *MemoryStore) Terms(docID string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.docs[docID]...)
}

// SegmentID implements Store.
func (s *MemoryStore) SegmentID(context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return "mem-" + strconv.FormatUint(s.gen, 10), nil
}

// ForEachTerm implements Store. fn runs on a snapshot, so it may call back
// into the store.
func (s *MemoryStore) ForEachTerm(ctx context.Context, fn func(term []byte, docIDs []string) error) error {
	start := time.Now()
	s.mu.RLock()
	snapshot := make(map[string][]string, len(s.postings))
	for term, docs := range s.postings {
		snapshot[term] = sortedSet(docs)
	}
	s.mu.RUnlock()

	terms := make(map[string]struct{}, len(snapshot))
	for term := range snapshot {
		terms[term] = struct{}{}
	}
	var err error
	for _, term := range sortedSet(terms) {
		if err = ctx.Err(); err != nil {
			break
		}
		if err = fn([]byte(term), snapshot[term]); err != nil {
			break
		}
	}
	s.record(ctx, "terms", start, err)
	return err
}

// Ping implements Store.
func (s *MemoryStore) Ping(context.Context) error {
	return nil
}
