// Package geoindex ties a strategy to a postings store: documents are added
// as grid-cell terms and searched by shape intersection or distance.
package geoindex

import (
	"context"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/cobrun/geoprefix/errors"
	"github.com/cobrun/geoprefix/logging"
	"github.com/cobrun/geoprefix/postings"
	"github.com/cobrun/geoprefix/spatial"
	"github.com/cobrun/geoprefix/strategy"
	"github.com/cobrun/geoprefix/telemetry"
)

const tracerName = "github.com/cobrun/geoprefix/geoindex"

// Index is a spatial index over one field. It is safe for concurrent use.
type Index struct {
	strategy *strategy.Strategy
	store    postings.Store
	tracer   trace.Tracer
	logger   *logging.Logger
	attrs    []attribute.KeyValue
}

// Option configures an Index.
type Option func(*Index)

// WithTracer sets the tracer. The global provider is used by default.
func WithTracer(tracer trace.Tracer) Option {
	return func(ix *Index) {
		ix.tracer = tracer
	}
}

// WithLogger sets the logger.
func WithLogger(logger *logging.Logger) Option {
	return func(ix *Index) {
		ix.logger = logger
	}
}

// New creates an index.
func New(s *strategy.Strategy, store postings.Store, opts ...Option) *Index {
	ix := &Index{
		strategy: s,
		store:    store,
	}
	for _, opt := range opts {
		opt(ix)
	}
	if ix.tracer == nil {
		ix.tracer = otel.Tracer(tracerName)
	}
	if ix.logger == nil {
		ix.logger = logging.Nop()
	}
	grid := s.Grid()
	ix.attrs = telemetry.IndexAttributes(s.FieldName(), grid.Name(), grid.MaxLevels())
	return ix
}

// Strategy returns the index strategy.
func (ix *Index) Strategy() *strategy.Strategy {
	return ix.strategy
}

// Store returns the postings store.
func (ix *Index) Store() postings.Store {
	return ix.store
}

func (ix *Index) start(ctx context.Context, name string) (context.Context, trace.Span) {
	return ix.tracer.Start(ctx, name, trace.WithAttributes(ix.attrs...))
}

func finish(span trace.Span, err error) {
	if err != nil {
		telemetry.SetSpanError(span, err)
	}
	span.End()
}

// Terms returns the index terms of shape.
func (ix *Index) Terms(shape spatial.Shape) ([]string, error) {
	fields, err := ix.strategy.CreateIndexableFields(shape)
	if err != nil {
		return nil, err
	}
	var terms []string
	for _, f := range fields {
		terms = append(terms, f.Tokens.Terms()...)
	}
	return terms, nil
}

// Add indexes shape under docID, replacing the document's previous shape.
// An empty docID gets a generated one. The document ID is returned. A shape
// that yields no cells, one outside the grid world, is rejected with
// INVALID_SHAPE.
func (ix *Index) Add(ctx context.Context, docID string, shape spatial.Shape) (id string, err error) {
	ctx, span := ix.start(ctx, "geoindex.Add")
	defer func() { finish(span, err) }()

	if docID == "" {
		docID = uuid.NewString()
	}
	span.SetAttributes(attribute.String("geoprefix.doc_id", docID))

	terms, err := ix.Terms(shape)
	if err != nil {
		return "", err
	}
	span.SetAttributes(attribute.Int("geoprefix.terms", len(terms)))
	if len(terms) == 0 {
		return "", errors.InvalidShape("shape lies outside the grid world %v", ix.strategy.Grid().WorldBounds())
	}
	if err := ix.store.Add(ctx, docID, terms); err != nil {
		return "", err
	}
	ix.logger.Debug("document indexed", "doc_id", docID, "terms", len(terms))
	return docID, nil
}

// Delete removes a document.
func (ix *Index) Delete(ctx context.Context, docID string) (err error) {
	ctx, span := ix.start(ctx, "geoindex.Delete")
	defer func() { finish(span, err) }()
	span.SetAttributes(attribute.String("geoprefix.doc_id", docID))

	return ix.store.Delete(ctx, docID)
}

// Intersects returns the sorted IDs of documents whose indexed cells
// intersect shape. Matching is at cell granularity, so documents near the
// shape's boundary may be included.
func (ix *Index) Intersects(ctx context.Context, shape spatial.Shape) (docs []string, err error) {
	ctx, span := ix.start(ctx, "geoindex.Intersects")
	defer func() { finish(span, err) }()

	terms, err := ix.strategy.QueryTerms(shape)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Int("geoprefix.terms", len(terms)))
	docs, err = ix.store.Docs(ctx, terms)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Int("geoprefix.hits", len(docs)))
	return docs, nil
}

// Nearest ranks documents by distance from point to their indexed points.
// With a non-nil filter only documents intersecting it are ranked. Documents
// indexed without a finest-level cell have no point and are skipped. A zero
// limit returns every ranked document.
func (ix *Index) Nearest(ctx context.Context, point spatial.Point, filter spatial.Shape, limit int) (ranked []strategy.ScoredDoc, err error) {
	ctx, span := ix.start(ctx, "geoindex.Nearest")
	defer func() { finish(span, err) }()

	if limit < 0 {
		return nil, errors.InvalidArgument("limit %d is negative", limit)
	}

	values, err := ix.strategy.MakeDistanceValueSource(point).Values(ctx, ix.store)
	if err != nil {
		return nil, err
	}

	var candidates []string
	if filter != nil {
		candidates, err = ix.Intersects(ctx, filter)
		if err != nil {
			return nil, err
		}
	} else {
		candidates = values.DocIDs()
	}

	ranked = values.Rank(candidates)
	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	span.SetAttributes(attribute.Int("geoprefix.hits", len(ranked)))
	return ranked, nil
}
