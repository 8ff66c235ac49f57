package strategy

import (
	"context"
	"math"
	"sort"

	"github.com/cobrun/geoprefix/spatial"
)

// DistanceValueSource scores documents by the distance from a fixed point to
// their indexed points. It can be reused across segments.
type DistanceValueSource struct {
	provider *PointFieldCacheProvider
	from     spatial.Point
	calc     spatial.DistanceCalculator
}

// From returns the query point.
func (s *DistanceValueSource) From() spatial.Point {
	return s.from
}

// Values binds the source to src's current segment.
func (s *DistanceValueSource) Values(ctx context.Context, src TermSource) (*DistanceValues, error) {
	cache, err := s.provider.Cache(ctx, src)
	if err != nil {
		return nil, err
	}
	return &DistanceValues{source: s, cache: cache}, nil
}

// DistanceValues holds per-document distances for one segment.
type DistanceValues struct {
	source *DistanceValueSource
	cache  *ShapeFieldCache
}

// Distance returns the smallest distance from the query point to any point
// of docID. It reports false when the document has no indexed point.
func (v *DistanceValues) Distance(docID string) (float64, bool) {
	points := v.cache.Shapes(docID)
	if len(points) == 0 {
		return 0, false
	}
	best := math.Inf(1)
	for _, p := range points {
		if d := v.source.calc.Distance(v.source.from, p); d < best {
			best = d
		}
	}
	return best, true
}

// DocIDs returns the documents that have at least one point.
func (v *DistanceValues) DocIDs() []string {
	return v.cache.DocIDs()
}

// ScoredDoc is a document with its distance to the query point.
type ScoredDoc struct {
	DocID    string
	Distance float64
}

// Rank returns docIDs that have points ordered by ascending distance, ties
// broken by document ID. Documents without points are omitted.
func (v *DistanceValues) Rank(docIDs []string) []ScoredDoc {
	out := make([]ScoredDoc, 0, len(docIDs))
	for _, id := range docIDs {
		if d, ok := v.Distance(id); ok {
			out = append(out, ScoredDoc{DocID: id, Distance: d})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Distance != out[j].Distance {
			return out[i].Distance < out[j].Distance
		}
		return out[i].DocID < out[j].DocID
	})
	return out
}
