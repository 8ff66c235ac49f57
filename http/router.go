package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel/trace"

	"github.com/cobrun/geoprefix/geoindex"
	"github.com/cobrun/geoprefix/health"
	"github.com/cobrun/geoprefix/logging"
	"github.com/cobrun/geoprefix/telemetry"
)

// DefaultMaxBodyBytes bounds request bodies; large polygons fit comfortably.
const DefaultMaxBodyBytes = 4 << 20

// RouterConfig holds the router dependencies. Index, Checker and Logger are
// required; the rest are optional.
type RouterConfig struct {
	Index          *geoindex.Index
	Checker        *health.Checker
	Logger         *logging.Logger
	Tracer         trace.Tracer
	HTTPMetrics    *telemetry.HTTPMetrics
	RateLimiter    *RateLimiter
	RequestTimeout time.Duration
	MaxBodyBytes   int64
}

// RoutePattern returns the chi route pattern matched by r.
func RoutePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		return rctx.RoutePattern()
	}
	return ""
}

// NewRouter builds the API router.
func NewRouter(cfg RouterConfig) http.Handler {
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 30 * time.Second
	}
	h := NewHandler(cfg.Index)

	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(RequestID(cfg.Logger))
	if cfg.Tracer != nil {
		r.Use(telemetry.TracingMiddleware(cfg.Tracer))
	}
	r.Use(Logger)
	r.Use(Recoverer)
	r.Use(SecurityHeaders)
	if cfg.HTTPMetrics != nil {
		r.Use(telemetry.MetricsMiddleware(cfg.HTTPMetrics, RoutePattern))
	}

	r.Get("/health/live", cfg.Checker.LivenessHandler())
	r.Get("/health/ready", cfg.Checker.ReadinessHandler())

	r.Route("/v1", func(r chi.Router) {
		r.Use(middleware.Timeout(cfg.RequestTimeout))
		r.Use(BodyLimit(cfg.MaxBodyBytes))

		r.Get("/cells/{token}", h.GetCell)
		r.Post("/tokens", h.Tokens)
		r.Post("/search/intersects", h.Intersects)
		r.Post("/search/nearest", h.Nearest)

		r.Group(func(r chi.Router) {
			if cfg.RateLimiter != nil {
				r.Use(cfg.RateLimiter.Middleware)
			}
			r.Post("/documents", h.CreateDocument)
			r.Put("/documents/{id}", h.PutDocument)
			r.Delete("/documents/{id}", h.DeleteDocument)
		})
	})

	return r
}
