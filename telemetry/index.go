package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// IndexMetrics instruments shape decomposition, the point cache and the
// postings store. A nil *IndexMetrics records nothing.
type IndexMetrics struct {
	cellsTotal        metric.Int64Counter
	tokensTotal       metric.Int64Counter
	decomposeDuration metric.Float64Histogram
	fieldCacheBuilds  metric.Int64Counter
	storeOperations   metric.Int64Counter
	storeDuration     metric.Float64Histogram
}

// NewIndexMetrics creates the index instruments.
func NewIndexMetrics(meter metric.Meter) (*IndexMetrics, error) {
	cellsTotal, err := meter.Int64Counter(
		"geoprefix_cells_total",
		metric.WithDescription("Grid cells produced by shape decomposition"),
		metric.WithUnit("{cells}"),
	)
	if err != nil {
		return nil, err
	}

	tokensTotal, err := meter.Int64Counter(
		"geoprefix_tokens_total",
		metric.WithDescription("Index tokens emitted, leaf-marked tokens included"),
		metric.WithUnit("{tokens}"),
	)
	if err != nil {
		return nil, err
	}

	decomposeDuration, err := meter.Float64Histogram(
		"geoprefix_decompose_duration_seconds",
		metric.WithDescription("Shape decomposition duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.00001, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1),
	)
	if err != nil {
		return nil, err
	}

	fieldCacheBuilds, err := meter.Int64Counter(
		"geoprefix_field_cache_builds_total",
		metric.WithDescription("Point field caches built from stored terms"),
		metric.WithUnit("{builds}"),
	)
	if err != nil {
		return nil, err
	}

	storeOperations, err := meter.Int64Counter(
		"geoprefix_store_operations_total",
		metric.WithDescription("Postings store operations"),
		metric.WithUnit("{operations}"),
	)
	if err != nil {
		return nil, err
	}

	storeDuration, err := meter.Float64Histogram(
		"geoprefix_store_operation_duration_seconds",
		metric.WithDescription("Postings store operation duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.0001, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1),
	)
	if err != nil {
		return nil, err
	}

	return &IndexMetrics{
		cellsTotal:        cellsTotal,
		tokensTotal:       tokensTotal,
		decomposeDuration: decomposeDuration,
		fieldCacheBuilds:  fieldCacheBuilds,
		storeOperations:   storeOperations,
		storeDuration:     storeDuration,
	}, nil
}

// RecordDecomposition records one shape decomposition. purpose is "index" or
// "query".
func (m *IndexMetrics) RecordDecomposition(ctx context.Context, grid, purpose string, cells, tokens int, duration time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("grid", grid),
		attribute.String("purpose", purpose),
	)
	m.cellsTotal.Add(ctx, int64(cells), attrs)
	m.tokensTotal.Add(ctx, int64(tokens), attrs)
	m.decomposeDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordFieldCacheBuild records a point cache build for a field.
func (m *IndexMetrics) RecordFieldCacheBuild(ctx context.Context, field string) {
	if m == nil {
		return
	}
	m.fieldCacheBuilds.Add(ctx, 1, metric.WithAttributes(attribute.String("field", field)))
}

// RecordStoreOperation records a postings store call.
func (m *IndexMetrics) RecordStoreOperation(ctx context.Context, store, operation string, duration time.Duration, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	attrs := metric.WithAttributes(
		attribute.String("store", store),
		attribute.String("operation", operation),
		attribute.String("status", status),
	)
	m.storeOperations.Add(ctx, 1, attrs)
	m.storeDuration.Record(ctx, duration.Seconds(), attrs)
}
