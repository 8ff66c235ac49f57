// Package postings keeps term to document postings for one indexed field.
// Stores are the term dictionary the strategy's point cache walks and the
// lookup behind intersection search.
package postings

import (
	"context"
	"sort"
)

// Store maps index terms to the documents that carry them.
type Store interface {
	// Add posts docID under each term, replacing any terms the document
	// carried before. A document left with no terms is not kept, so a later
	// Delete reports NOT_FOUND.
	Add(ctx context.Context, docID string, terms []string) error
	// Delete removes every posting of docID. Unknown documents yield a
	// NOT_FOUND error.
	Delete(ctx context.Context, docID string) error
	// Docs returns the sorted union of the documents posted under terms.
	Docs(ctx context.Context, terms []string) ([]string, error)
	// SegmentID identifies the current contents; it changes on every write.
	SegmentID(ctx context.Context) (string, error)
	// ForEachTerm calls fn for every term with postings, in term order.
	ForEachTerm(ctx context.Context, fn func(term []byte, docIDs []string) error) error
	// Ping checks the backend.
	Ping(ctx context.Context) error
}

func sortedSet(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func uniqueTerms(terms []string) []string {
	set := make(map[string]struct{}, len(terms))
	for _, t := range terms {
		if t != "" {
			set[t] = struct{}{}
		}
	}
	return sortedSet(set)
}
