// Package bootstrap wires configuration, telemetry, the index and the HTTP
// API into a runnable service.
package bootstrap

import (
	"context"
	stdhttp "net/http"
	"time"

	"github.com/redis/go-redis/v9"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/cobrun/geoprefix/config"
	"github.com/cobrun/geoprefix/errors"
	"github.com/cobrun/geoprefix/geoindex"
	"github.com/cobrun/geoprefix/health"
	apihttp "github.com/cobrun/geoprefix/http"
	"github.com/cobrun/geoprefix/logging"
	"github.com/cobrun/geoprefix/postings"
	"github.com/cobrun/geoprefix/prefixtree"
	"github.com/cobrun/geoprefix/resilience"
	"github.com/cobrun/geoprefix/strategy"
	"github.com/cobrun/geoprefix/telemetry"
)

// Service holds all initialized components of the geoprefix service.
type Service struct {
	Config      *config.Config
	Logger      *logging.Logger
	Tracing     *telemetry.TracingProvider
	Metrics     *telemetry.MetricsProvider
	Grid        prefixtree.Grid
	Strategy    *strategy.Strategy
	Store       postings.Store
	Index       *geoindex.Index
	Checker     *health.Checker
	RateLimiter *apihttp.RateLimiter
	Handler     stdhttp.Handler
	Server      *apihttp.Server

	redis redis.UniversalClient
}

// Options configures telemetry sinks. Tests pass in-memory readers and
// recorders.
type Options struct {
	SpanProcessors []sdktrace.SpanProcessor
	MetricReaders  []sdkmetric.Reader
}

// Initialize builds the service from cfg. Close releases what it opened,
// including on partial failure.
func Initialize(ctx context.Context, cfg *config.Config, opts Options) (_ *Service, err error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	svc := &Service{
		Config: cfg,
		Logger: logging.NewLogger(cfg.LogLevel).WithService(cfg.ServiceName),
	}
	defer func() {
		if err != nil {
			svc.Close(context.Background())
		}
	}()

	svc.Logger.Info("starting service",
		"environment", cfg.Environment,
		"version", cfg.Version,
	)

	svc.Tracing, err = telemetry.NewTracingProvider(ctx, telemetry.TracingConfig{
		ServiceName:    cfg.ServiceName,
		ServiceVersion: cfg.Version,
		Environment:    cfg.Environment,
		Endpoint:       cfg.OTelEndpoint,
		SampleRate:     cfg.OTelSampleRate,
		Insecure:       cfg.IsDevelopment(),
	}, opts.SpanProcessors...)
	if err != nil {
		return nil, errors.InternalWrap(err, "failed to initialize tracing")
	}

	var indexMetrics *telemetry.IndexMetrics
	var httpMetrics *telemetry.HTTPMetrics
	if cfg.MetricsEnabled {
		svc.Metrics, err = telemetry.NewMetricsProvider(ctx, telemetry.MetricsConfig{
			ServiceName:    cfg.ServiceName,
			ServiceVersion: cfg.Version,
			Environment:    cfg.Environment,
			Endpoint:       cfg.OTelEndpoint,
			Insecure:       cfg.IsDevelopment(),
		}, opts.MetricReaders...)
		if err != nil {
			return nil, errors.InternalWrap(err, "failed to initialize metrics")
		}
		if indexMetrics, err = telemetry.NewIndexMetrics(svc.Metrics.Meter()); err != nil {
			return nil, errors.InternalWrap(err, "failed to create index metrics")
		}
		if httpMetrics, err = telemetry.NewHTTPMetrics(svc.Metrics.Meter()); err != nil {
			return nil, errors.InternalWrap(err, "failed to create HTTP metrics")
		}
	}

	if svc.Grid, err = prefixtree.NewGridFromConfig(cfg.GridConfig()); err != nil {
		return nil, err
	}
	svc.Logger.Info("grid ready", "type", svc.Grid.Name(), "max_levels", svc.Grid.MaxLevels())

	svc.Strategy, err = strategy.New(cfg.IndexField, svc.Grid,
		strategy.WithDistErrPct(cfg.DistErrPct),
		strategy.WithSimplify(cfg.SimplifyIndexedCells),
		strategy.WithLogger(svc.Logger),
		strategy.WithMetrics(indexMetrics),
	)
	if err != nil {
		return nil, err
	}

	if cfg.UsesRedis() {
		rc := postings.DefaultRedisConfig()
		rc.Addrs = cfg.RedisAddrs
		rc.Password = cfg.RedisPassword
		rc.DB = cfg.RedisDB
		if svc.redis, err = postings.NewRedisClient(ctx, rc); err != nil {
			return nil, err
		}
		bc := resilience.DefaultCircuitBreakerConfig("postings-redis")
		bc.OnStateChange = func(name string, from, to resilience.CircuitState) {
			svc.Logger.Warn("circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
		}
		svc.Store = postings.NewGuardedStore(
			postings.NewRedisStore(svc.redis, cfg.RedisKeyPrefix, cfg.IndexField, indexMetrics),
			resilience.NewCircuitBreaker(bc),
		)
		svc.Logger.Info("postings in redis", "addrs", cfg.RedisAddrs, "db", cfg.RedisDB)
	} else {
		svc.Store = postings.NewMemoryStore(indexMetrics)
		svc.Logger.Info("postings in memory")
	}

	svc.Index = geoindex.New(svc.Strategy, svc.Store, geoindex.WithLogger(svc.Logger))

	svc.Checker = health.NewChecker(cfg.Version)
	svc.Checker.AddCheck("postings", health.StoreCheck(svc.Store, 2*time.Second), true)

	if cfg.WriteRateLimit > 0 {
		svc.RateLimiter = apihttp.NewRateLimiter(apihttp.RateLimiterConfig{
			RequestsPerSecond: cfg.WriteRateLimit,
			BurstSize:         max(1, int(2*cfg.WriteRateLimit)),
			CleanupInterval:   time.Minute,
		})
	}

	svc.Handler = apihttp.NewRouter(apihttp.RouterConfig{
		Index:          svc.Index,
		Checker:        svc.Checker,
		Logger:         svc.Logger,
		Tracer:         svc.Tracing.Tracer(),
		HTTPMetrics:    httpMetrics,
		RateLimiter:    svc.RateLimiter,
		RequestTimeout: cfg.WriteTimeout,
	})

	svc.Server = apihttp.NewServer(apihttp.ServerConfig{
		Port:            cfg.Port,
		ReadTimeout:     cfg.ReadTimeout,
		WriteTimeout:    cfg.WriteTimeout,
		IdleTimeout:     cfg.IdleTimeout,
		ShutdownTimeout: 30 * time.Second,
	}, svc.Handler, svc.Logger)

	return svc, nil
}

// Run serves HTTP until ctx is cancelled.
func (s *Service) Run(ctx context.Context) error {
	return s.Server.Run(ctx)
}

// Close releases all resources. It is safe on a partially built service.
func (s *Service) Close(ctx context.Context) {
	if s.RateLimiter != nil {
		s.RateLimiter.Close()
	}
	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			s.Logger.WithError(err).Warn("failed to close redis client")
		}
	}
	if s.Metrics != nil {
		if err := s.Metrics.Shutdown(ctx); err != nil {
			s.Logger.WithError(err).Warn("failed to shut down metrics")
		}
	}
	if s.Tracing != nil {
		if err := s.Tracing.Shutdown(ctx); err != nil {
			s.Logger.WithError(err).Warn("failed to shut down tracing")
		}
	}
}
