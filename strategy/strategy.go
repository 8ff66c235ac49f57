// Package strategy bridges shapes and grid-cell index terms. A Strategy turns
// a shape into the tokens stored for a document, turns a query shape into the
// terms to probe, and serves per-field point caches for distance scoring.
package strategy

import (
	"context"
	"sync"
	"time"

	"github.com/cobrun/geoprefix/errors"
	"github.com/cobrun/geoprefix/logging"
	"github.com/cobrun/geoprefix/prefixtree"
	"github.com/cobrun/geoprefix/spatial"
	"github.com/cobrun/geoprefix/telemetry"
)

const (
	// DefaultDistErrPct is the default fraction of a shape's size tolerated
	// as indexing error.
	DefaultDistErrPct = 0.025
	// MaxDistErrPct bounds the configurable error fraction.
	MaxDistErrPct = 0.5
	// DefaultFieldValuesArrayLen is the initial number of points reserved
	// per document in a ShapeFieldCache.
	DefaultFieldValuesArrayLen = 2
)

// Strategy indexes shapes of one field on one grid. It is safe for
// concurrent use.
type Strategy struct {
	fieldName      string
	grid           prefixtree.Grid
	distErrPct     float64
	simplify       bool
	valuesArrayLen int
	calc           spatial.DistanceCalculator
	logger         *logging.Logger
	metrics        *telemetry.IndexMetrics

	// field name -> func() *PointFieldCacheProvider
	providers sync.Map
}

// Option configures a Strategy.
type Option func(*Strategy)

// WithDistErrPct sets the fraction of a shape's size tolerated as error.
func WithDistErrPct(pct float64) Option {
	return func(s *Strategy) {
		s.distErrPct = pct
	}
}

// WithSimplify enables coalescing of fully covered cells at the detail level.
func WithSimplify(simplify bool) Option {
	return func(s *Strategy) {
		s.simplify = simplify
	}
}

// WithLogger sets the logger.
func WithLogger(logger *logging.Logger) Option {
	return func(s *Strategy) {
		s.logger = logger
	}
}

// WithMetrics sets the instruments to record into.
func WithMetrics(m *telemetry.IndexMetrics) Option {
	return func(s *Strategy) {
		s.metrics = m
	}
}

// WithDistanceCalculator overrides the distance used for scoring. The
// default is geodesic kilometers on geographic grids and cartesian units
// otherwise.
func WithDistanceCalculator(calc spatial.DistanceCalculator) Option {
	return func(s *Strategy) {
		s.calc = calc
	}
}

// WithFieldValuesArrayLen sets the initial per-document capacity of point
// caches.
func WithFieldValuesArrayLen(n int) Option {
	return func(s *Strategy) {
		s.valuesArrayLen = n
	}
}

// New creates a strategy for fieldName on grid.
func New(fieldName string, grid prefixtree.Grid, opts ...Option) (*Strategy, error) {
	if fieldName == "" {
		return nil, errors.InvalidConfig("field name is required")
	}
	if grid == nil {
		return nil, errors.InvalidConfig("grid is required")
	}
	s := &Strategy{
		fieldName:      fieldName,
		grid:           grid,
		distErrPct:     DefaultDistErrPct,
		valuesArrayLen: DefaultFieldValuesArrayLen,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.distErrPct < 0 || s.distErrPct > MaxDistErrPct {
		return nil, errors.InvalidConfig("distErrPct %v outside [0, %v]", s.distErrPct, MaxDistErrPct)
	}
	if s.valuesArrayLen < 1 {
		return nil, errors.InvalidConfig("field values array length must be positive, got %d", s.valuesArrayLen)
	}
	if s.calc == nil {
		if grid.WorldBounds() == prefixtree.GeoWorldBounds {
			s.calc = spatial.GeodesicDistance{}
		} else {
			s.calc = spatial.CartesianDistance{}
		}
	}
	if s.logger == nil {
		s.logger = logging.Nop()
	}
	s.logger = s.logger.WithField(fieldName).WithGrid(grid.Name(), grid.MaxLevels())
	return s, nil
}

// FieldName returns the indexed field.
func (s *Strategy) FieldName() string {
	return s.fieldName
}

// Grid returns the grid.
func (s *Strategy) Grid() prefixtree.Grid {
	return s.grid
}

// DistErrPct returns the configured error fraction.
func (s *Strategy) DistErrPct() float64 {
	return s.distErrPct
}

// DistanceCalculator returns the calculator used for scoring.
func (s *Strategy) DistanceCalculator() spatial.DistanceCalculator {
	return s.calc
}

// DetailLevel returns the grid level a shape is decomposed to. Points always
// use the finest level.
func (s *Strategy) DetailLevel(shape spatial.Shape) int {
	return s.grid.LevelForDistance(spatial.DistanceFromErrPct(shape, s.distErrPct))
}

// CreateIndexableFields decomposes shape into the field stored for a
// document.
func (s *Strategy) CreateIndexableFields(shape spatial.Shape) ([]Field, error) {
	if shape == nil {
		return nil, errors.InvalidShape("shape is nil")
	}
	start := time.Now()
	detail := s.DetailLevel(shape)
	cells, err := s.grid.Cells(shape, detail, true, s.simplify)
	if err != nil {
		return nil, err
	}
	stream := NewTokenStream(cells)

	s.metrics.RecordDecomposition(context.Background(), s.grid.Name(), "index", len(cells), stream.Len(), time.Since(start))
	s.logger.Debug("indexed shape decomposed",
		"shape", shape,
		"detail_level", detail,
		"cells", len(cells),
	)
	return []Field{{Name: s.fieldName, Tokens: stream}}, nil
}

// QueryCells decomposes a query shape without intermediate cells. Each cell
// carries its relation to the shape.
func (s *Strategy) QueryCells(shape spatial.Shape) ([]*prefixtree.Cell, error) {
	if shape == nil {
		return nil, errors.InvalidShape("shape is nil")
	}
	start := time.Now()
	detail := s.DetailLevel(shape)
	cells, err := s.grid.Cells(shape, detail, false, false)
	if err != nil {
		return nil, err
	}
	s.metrics.RecordDecomposition(context.Background(), s.grid.Name(), "query", len(cells), len(cells), time.Since(start))
	return cells, nil
}

// QueryTerms returns the terms that match every document whose indexed
// cells intersect shape: the bare token of each query cell, which indexed
// descendants and equal cells carry, and the leaf-marked token of each
// ancestor, which coarser indexed leaves carry. The result is sorted and
// unique.
func (s *Strategy) QueryTerms(shape spatial.Shape) ([]string, error) {
	cells, err := s.QueryCells(shape)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{}, len(cells)*2)
	for _, c := range cells {
		token := c.Token()
		seen[token] = struct{}{}
		for n := 1; n < len(token); n++ {
			seen[token[:n]+string(prefixtree.LeafMarker)] = struct{}{}
		}
	}
	return sortedKeys(seen), nil
}

// FieldCacheProvider returns the point cache provider of this strategy's
// field. Exactly one provider is ever built per field.
func (s *Strategy) FieldCacheProvider() *PointFieldCacheProvider {
	build := sync.OnceValue(func() *PointFieldCacheProvider {
		return newPointFieldCacheProvider(s.fieldName, s.grid, s.valuesArrayLen, s.logger, s.metrics)
	})
	v, _ := s.providers.LoadOrStore(s.fieldName, build)
	return v.(func() *PointFieldCacheProvider)()
}

// MakeDistanceValueSource returns a scorer measuring the distance from
// point to each document's indexed points.
func (s *Strategy) MakeDistanceValueSource(point spatial.Point) *DistanceValueSource {
	return &DistanceValueSource{
		provider: s.FieldCacheProvider(),
		from:     point,
		calc:     s.calc,
	}
}
