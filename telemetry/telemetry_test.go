package telemetry

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Aggregation {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect() error = %v", err)
	}
	out := make(map[string]metricdata.Aggregation)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m.Data
		}
	}
	return out
}

func sumOf(t *testing.T, data metricdata.Aggregation) int64 {
	t.Helper()
	sum, ok := data.(metricdata.Sum[int64])
	if !ok {
		t.Fatalf("aggregation %T is not an int64 sum", data)
	}
	var total int64
	for _, dp := range sum.DataPoints {
		total += dp.Value
	}
	return total
}

func TestIndexMetrics(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	m, err := NewIndexMetrics(provider.Meter("test"))
	if err != nil {
		t.Fatalf("NewIndexMetrics() error = %v", err)
	}

	ctx := context.Background()
	m.RecordDecomposition(ctx, "quad", "index", 4, 5, time.Millisecond)
	m.RecordDecomposition(ctx, "quad", "query", 2, 3, time.Millisecond)
	m.RecordFieldCacheBuild(ctx, "location")
	m.RecordStoreOperation(ctx, "memory", "add", time.Millisecond, nil)
	m.RecordStoreOperation(ctx, "memory", "docs", time.Millisecond, errors.New("boom"))

	got := collect(t, reader)
	tests := []struct {
		name string
		want int64
	}{
		{"geoprefix_cells_total", 6},
		{"geoprefix_tokens_total", 8},
		{"geoprefix_field_cache_builds_total", 1},
		{"geoprefix_store_operations_total", 2},
	}
	for _, tt := range tests {
		data, ok := got[tt.name]
		if !ok {
			t.Errorf("metric %s not recorded", tt.name)
			continue
		}
		if v := sumOf(t, data); v != tt.want {
			t.Errorf("%s = %d, want %d", tt.name, v, tt.want)
		}
	}
	if _, ok := got["geoprefix_decompose_duration_seconds"]; !ok {
		t.Error("decompose histogram not recorded")
	}
}

func TestIndexMetrics_Nil(t *testing.T) {
	var m *IndexMetrics
	ctx := context.Background()
	m.RecordDecomposition(ctx, "quad", "index", 1, 1, time.Millisecond)
	m.RecordFieldCacheBuild(ctx, "location")
	m.RecordStoreOperation(ctx, "memory", "add", time.Millisecond, nil)
}

func TestMetricsMiddleware(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	m, err := NewHTTPMetrics(provider.Meter("test"))
	if err != nil {
		t.Fatalf("NewHTTPMetrics() error = %v", err)
	}

	route := func(*http.Request) string { return "/v1/cells/{token}" }
	handler := MetricsMiddleware(m, route)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/v1/cells/zz", nil))

	got := collect(t, reader)
	sum, ok := got["http_requests_total"].(metricdata.Sum[int64])
	if !ok || len(sum.DataPoints) != 1 {
		t.Fatalf("http_requests_total = %+v, want one data point", got["http_requests_total"])
	}
	attrs := sum.DataPoints[0].Attributes
	if v, _ := attrs.Value(attribute.Key("route")); v.AsString() != "/v1/cells/{token}" {
		t.Errorf("route = %q, want pattern", v.AsString())
	}
	if v, _ := attrs.Value(attribute.Key("status_class")); v.AsString() != "4xx" {
		t.Errorf("status_class = %q, want 4xx", v.AsString())
	}
}

func TestStatusClass(t *testing.T) {
	tests := []struct {
		status int
		want   string
	}{
		{200, "2xx"},
		{304, "3xx"},
		{429, "4xx"},
		{503, "5xx"},
		{101, "unknown"},
	}
	for _, tt := range tests {
		if got := statusClass(tt.status); got != tt.want {
			t.Errorf("statusClass(%d) = %s, want %s", tt.status, got, tt.want)
		}
	}
}

func TestTracingMiddleware(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	var traceID string
	handler := TracingMiddleware(provider.Tracer("test"))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceID = TraceID(r.Context())
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/v1/search/nearest", nil))

	spans := recorder.Ended()
	if len(spans) != 1 {
		t.Fatalf("ended spans = %d, want 1", len(spans))
	}
	if spans[0].Name() != "POST /v1/search/nearest" {
		t.Errorf("span name = %q", spans[0].Name())
	}
	if spans[0].Status().Code != codes.Error {
		t.Errorf("span status = %v, want Error", spans[0].Status().Code)
	}
	if traceID == "" || traceID != spans[0].SpanContext().TraceID().String() {
		t.Errorf("TraceID() = %q, want span trace ID", traceID)
	}
	if TraceID(context.Background()) != "" {
		t.Error("TraceID() without span is not empty")
	}
}

func TestSetSpanError(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	_, span := provider.Tracer("test").Start(context.Background(), "op")
	SetSpanError(span, errors.New("boom"))
	span.End()

	got := recorder.Ended()[0]
	if got.Status().Code != codes.Error || got.Status().Description != "boom" {
		t.Errorf("status = %+v, want Error boom", got.Status())
	}
	if len(got.Events()) != 1 {
		t.Errorf("events = %d, want 1 recorded error", len(got.Events()))
	}
}

func TestIndexAttributes(t *testing.T) {
	attrs := IndexAttributes("location", "geohash", 9)
	set := attribute.NewSet(attrs...)
	if v, _ := set.Value("geoprefix.grid"); v.AsString() != "geohash" {
		t.Errorf("geoprefix.grid = %q, want geohash", v.AsString())
	}
	if v, _ := set.Value("geoprefix.max_levels"); v.AsInt64() != 9 {
		t.Errorf("geoprefix.max_levels = %d, want 9", v.AsInt64())
	}
}
