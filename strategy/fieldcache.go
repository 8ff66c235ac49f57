package strategy

import (
	"context"
	"sort"
	"sync"

	"github.com/cobrun/geoprefix/logging"
	"github.com/cobrun/geoprefix/prefixtree"
	"github.com/cobrun/geoprefix/spatial"
	"github.com/cobrun/geoprefix/telemetry"
)

// TermSource exposes the term dictionary of one index segment with the
// documents posted under each term.
type TermSource interface {
	// SegmentID changes whenever the segment's terms change.
	SegmentID(ctx context.Context) (string, error)
	ForEachTerm(ctx context.Context, fn func(term []byte, docIDs []string) error) error
}

// ShapeFieldCache maps documents to the points indexed for them.
type ShapeFieldCache struct {
	defaultLen int
	docs       map[string][]spatial.Point
}

// NewShapeFieldCache creates an empty cache reserving defaultLen points per
// document.
func NewShapeFieldCache(defaultLen int) *ShapeFieldCache {
	return &ShapeFieldCache{
		defaultLen: defaultLen,
		docs:       make(map[string][]spatial.Point),
	}
}

// Add records p for docID. A point already recorded for the document is
// ignored.
func (c *ShapeFieldCache) Add(docID string, p spatial.Point) {
	points, ok := c.docs[docID]
	if !ok {
		points = make([]spatial.Point, 0, c.defaultLen)
	}
	for _, q := range points {
		if q == p {
			return
		}
	}
	c.docs[docID] = append(points, p)
}

// Shapes returns the points of docID, or nil.
func (c *ShapeFieldCache) Shapes(docID string) []spatial.Point {
	return c.docs[docID]
}

// DocIDs returns the cached documents in ascending order.
func (c *ShapeFieldCache) DocIDs() []string {
	ids := make([]string, 0, len(c.docs))
	for id := range c.docs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Len returns the number of documents with at least one point.
func (c *ShapeFieldCache) Len() int {
	return len(c.docs)
}

type segmentCache struct {
	id    string
	cache *ShapeFieldCache
}

// PointFieldCacheProvider builds ShapeFieldCaches for one field by decoding
// the finest-level terms of a segment back to cell centers.
type PointFieldCacheProvider struct {
	field      string
	grid       prefixtree.Grid
	defaultLen int
	logger     *logging.Logger
	metrics    *telemetry.IndexMetrics

	mu      sync.Mutex
	current *segmentCache
}

func newPointFieldCacheProvider(field string, grid prefixtree.Grid, defaultLen int, logger *logging.Logger, metrics *telemetry.IndexMetrics) *PointFieldCacheProvider {
	return &PointFieldCacheProvider{
		field:      field,
		grid:       grid,
		defaultLen: defaultLen,
		logger:     logger,
		metrics:    metrics,
	}
}

// Field returns the field the provider serves.
func (p *PointFieldCacheProvider) Field() string {
	return p.field
}

// ReadShape returns the center of the cell encoded by term when the cell is
// a leaf at the grid's finest level. Any other term yields no point.
func (p *PointFieldCacheProvider) ReadShape(term []byte) (spatial.Point, bool) {
	return readPoint(p.grid.WorldCell(), p.grid.MaxLevels(), term)
}

func readPoint(scratch *prefixtree.Cell, maxLevels int, term []byte) (spatial.Point, bool) {
	if err := scratch.Reset(term); err != nil {
		return spatial.Point{}, false
	}
	if scratch.Level() != maxLevels || !scratch.IsLeaf() {
		return spatial.Point{}, false
	}
	return scratch.Center(), true
}

// Cache returns the point cache of src's current segment, building it on
// first use. Only the most recent segment is kept; a failed build is not
// cached.
func (p *PointFieldCacheProvider) Cache(ctx context.Context, src TermSource) (*ShapeFieldCache, error) {
	id, err := src.SegmentID(ctx)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current != nil && p.current.id == id {
		return p.current.cache, nil
	}

	cache := NewShapeFieldCache(p.defaultLen)
	scratch := p.grid.WorldCell()
	maxLevels := p.grid.MaxLevels()
	err = src.ForEachTerm(ctx, func(term []byte, docIDs []string) error {
		point, ok := readPoint(scratch, maxLevels, term)
		if !ok {
			return nil
		}
		for _, doc := range docIDs {
			cache.Add(doc, point)
		}
		return nil
	})
	if err != nil {
		p.logger.Warn("point cache build failed", "segment", id, "error", err)
		return nil, err
	}

	p.current = &segmentCache{id: id, cache: cache}
	p.metrics.RecordFieldCacheBuild(ctx, p.field)
	p.logger.Debug("point cache built", "segment", id, "docs", cache.Len())
	return cache, nil
}
