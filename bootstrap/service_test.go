package bootstrap

import (
	"context"
	"net/http"
	"testing"
	"time"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/cobrun/geoprefix/config"
	"github.com/cobrun/geoprefix/errors"
	apihttp "github.com/cobrun/geoprefix/http"
	"github.com/cobrun/geoprefix/prefixtree"
	pkgtesting "github.com/cobrun/geoprefix/testing"
	"github.com/cobrun/geoprefix/testing/fixtures"
)

func testConfig() *config.Config {
	world := prefixtree.GeoWorldBounds
	return &config.Config{
		ServiceName:          "geoprefix-test",
		Environment:          "development",
		Version:              "test",
		Port:                 18080,
		ReadTimeout:          time.Second,
		WriteTimeout:         time.Second,
		IdleTimeout:          time.Second,
		LogLevel:             "error",
		GridType:             prefixtree.TypeGeohash,
		GridMaxLevels:        6,
		GridMaxDistErrKm:     prefixtree.DefaultMaxDistErrKm,
		GridMinX:             world.MinX,
		GridMaxX:             world.MaxX,
		GridMinY:             world.MinY,
		GridMaxY:             world.MaxY,
		IndexField:           "location",
		DistErrPct:           0.025,
		SimplifyIndexedCells: true,
		OTelSampleRate:       1,
		MetricsEnabled:       true,
		WriteRateLimit:       100,
	}
}

func metricNames(t *testing.T, reader *sdkmetric.ManualReader) map[string]bool {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect() error = %v", err)
	}
	names := make(map[string]bool)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			names[m.Name] = true
		}
	}
	return names
}

func TestInitialize_InMemory(t *testing.T) {
	ctx := pkgtesting.TestContext(t)
	recorder := tracetest.NewSpanRecorder()
	reader := sdkmetric.NewManualReader()

	svc, err := Initialize(ctx, testConfig(), Options{
		SpanProcessors: []sdktrace.SpanProcessor{recorder},
		MetricReaders:  []sdkmetric.Reader{reader},
	})
	if err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	defer svc.Close(context.Background())

	if got := svc.Grid.Name(); got != prefixtree.TypeGeohash {
		t.Errorf("grid = %s, want geohash", got)
	}
	if svc.Grid.MaxLevels() != 6 {
		t.Errorf("max levels = %d, want 6", svc.Grid.MaxLevels())
	}
	if svc.RateLimiter == nil {
		t.Error("rate limiter not configured")
	}
	if svc.Server.Addr() != ":18080" {
		t.Errorf("server addr = %s, want :18080", svc.Server.Addr())
	}

	pkgtesting.ExecuteRequest(t, svc.Handler,
		pkgtesting.NewHTTPTestRequest(http.MethodPut, "/v1/documents/berlin").
			WithBody(apihttp.GeometryRequest{Geometry: fixtures.BerlinPoint}).
			Build(t)).
		AssertOK()

	var found apihttp.IntersectsResponse
	pkgtesting.ExecuteRequest(t, svc.Handler,
		pkgtesting.NewHTTPTestRequest(http.MethodPost, "/v1/search/intersects").
			WithBody(apihttp.GeometryRequest{Geometry: fixtures.BrandenburgBox}).
			Build(t)).
		AssertOK().
		DecodeData(&found)
	if len(found.Documents) != 1 || found.Documents[0] != "berlin" {
		t.Errorf("documents = %v, want [berlin]", found.Documents)
	}

	pkgtesting.ExecuteRequest(t, svc.Handler,
		pkgtesting.NewHTTPTestRequest(http.MethodGet, "/health/ready").Build(t)).
		AssertOK()

	names := metricNames(t, reader)
	for _, want := range []string{
		"http_requests_total",
		"geoprefix_tokens_total",
		"geoprefix_store_operations_total",
	} {
		if !names[want] {
			t.Errorf("metric %s not recorded; got %v", want, names)
		}
	}

	spans := make(map[string]bool)
	for _, s := range recorder.Ended() {
		spans[s.Name()] = true
	}
	for _, want := range []string{"geoindex.Add", "geoindex.Intersects"} {
		if !spans[want] {
			t.Errorf("span %s not recorded; got %v", want, spans)
		}
	}
}

func TestInitialize_InvalidConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"grid type", func(c *config.Config) { c.GridType = "hex" }},
		{"no field", func(c *config.Config) { c.IndexField = "" }},
		{"dist err pct", func(c *config.Config) { c.DistErrPct = 0.75 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			tt.mutate(cfg)
			svc, err := Initialize(context.Background(), cfg, Options{})
			if !errors.IsValidation(err) {
				t.Errorf("Initialize() error = %v, want VALIDATION_ERROR", err)
			}
			if svc != nil {
				t.Error("Initialize() returned a service on error")
			}
		})
	}
}
