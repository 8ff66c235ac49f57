// Package config loads service configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/cobrun/geoprefix/prefixtree"
	"github.com/cobrun/geoprefix/spatial"
	"github.com/cobrun/geoprefix/validation"
)

// Config holds the geoprefix service configuration.
type Config struct {
	// Service identification
	ServiceName string `json:"service_name" validate:"required"`
	Environment string `json:"environment" validate:"required"`
	Version     string `json:"version"`

	// HTTP server
	Port         int           `json:"port" validate:"gte=1,lte=65535"`
	ReadTimeout  time.Duration `json:"read_timeout" validate:"gt=0"`
	WriteTimeout time.Duration `json:"write_timeout" validate:"gt=0"`
	IdleTimeout  time.Duration `json:"idle_timeout" validate:"gt=0"`

	// Logging
	LogLevel string `json:"log_level" validate:"oneof=debug info warn warning error"`

	// Grid
	GridType         string  `json:"grid_type" validate:"grid_type"`
	GridMaxLevels    int     `json:"grid_max_levels" validate:"gte=0"`
	GridMaxDistErrKm float64 `json:"grid_max_dist_err_km" validate:"gt=0"`
	GridMinX         float64 `json:"grid_min_x"`
	GridMaxX         float64 `json:"grid_max_x" validate:"gtfield=GridMinX"`
	GridMinY         float64 `json:"grid_min_y"`
	GridMaxY         float64 `json:"grid_max_y" validate:"gtfield=GridMinY"`

	// Strategy
	IndexField           string  `json:"index_field" validate:"required"`
	DistErrPct           float64 `json:"dist_err_pct" validate:"gte=0,lte=0.5"`
	SimplifyIndexedCells bool    `json:"simplify_indexed_cells"`

	// Postings; no Redis addresses selects the in-memory store.
	RedisAddrs     []string `json:"redis_addrs" validate:"dive,hostname_port"`
	RedisPassword  string   `json:"-"`
	RedisDB        int      `json:"redis_db" validate:"gte=0"`
	RedisKeyPrefix string   `json:"redis_key_prefix"`

	// Telemetry
	OTelEndpoint   string  `json:"otel_endpoint"`
	OTelSampleRate float64 `json:"otel_sample_rate" validate:"gte=0,lte=1"`
	MetricsEnabled bool    `json:"metrics_enabled"`

	// Write rate limit per client; zero disables it.
	WriteRateLimit float64 `json:"write_rate_limit" validate:"gte=0"`
}

// Load loads configuration from environment variables. A .env file in the
// working directory is read first when present; real environment variables
// win over it.
func Load(serviceName string) (*Config, error) {
	_ = godotenv.Load()

	bounds := prefixtree.GeoWorldBounds
	cfg := &Config{
		ServiceName:          serviceName,
		Environment:          getEnv("ENVIRONMENT", "development"),
		Version:              getEnv("VERSION", "0.0.1"),
		Port:                 getEnvInt("PORT", 8080),
		ReadTimeout:          getEnvDuration("READ_TIMEOUT", 30*time.Second),
		WriteTimeout:         getEnvDuration("WRITE_TIMEOUT", 30*time.Second),
		IdleTimeout:          getEnvDuration("IDLE_TIMEOUT", 60*time.Second),
		LogLevel:             strings.ToLower(getEnv("LOG_LEVEL", "info")),
		GridType:             strings.ToLower(getEnv("GRID_TYPE", prefixtree.TypeGeohash)),
		GridMaxLevels:        getEnvInt("GRID_MAX_LEVELS", 0),
		GridMaxDistErrKm:     getEnvFloat("GRID_MAX_DIST_ERR_KM", prefixtree.DefaultMaxDistErrKm),
		GridMinX:             getEnvFloat("GRID_MIN_X", bounds.MinX),
		GridMaxX:             getEnvFloat("GRID_MAX_X", bounds.MaxX),
		GridMinY:             getEnvFloat("GRID_MIN_Y", bounds.MinY),
		GridMaxY:             getEnvFloat("GRID_MAX_Y", bounds.MaxY),
		IndexField:           getEnv("INDEX_FIELD", "location"),
		DistErrPct:           getEnvFloat("DIST_ERR_PCT", 0.025),
		SimplifyIndexedCells: getEnvBool("SIMPLIFY_INDEXED_CELLS", true),
		RedisAddrs:           getEnvSlice("REDIS_ADDR", nil),
		RedisPassword:        getEnv("REDIS_PASSWORD", ""),
		RedisDB:              getEnvInt("REDIS_DB", 0),
		RedisKeyPrefix:       getEnv("REDIS_KEY_PREFIX", "geoprefix:"),
		OTelEndpoint:         getEnv("OTEL_ENDPOINT", ""),
		OTelSampleRate:       getEnvFloat("OTEL_SAMPLE_RATE", 1.0),
		MetricsEnabled:       getEnvBool("METRICS_ENABLED", true),
		WriteRateLimit:       getEnvFloat("WRITE_RATE_LIMIT", 0),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// MustLoad loads configuration and panics on error.
func MustLoad(serviceName string) *Config {
	cfg, err := Load(serviceName)
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}
	return cfg
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	return validation.ToAppError(validation.Validate(c), "invalid configuration")
}

// GridConfig returns the grid described by the configuration.
func (c *Config) GridConfig() prefixtree.GridConfig {
	return prefixtree.GridConfig{
		Type:         c.GridType,
		MaxLevels:    c.GridMaxLevels,
		MaxDistErrKm: c.GridMaxDistErrKm,
		Bounds: spatial.Rectangle{
			MinX: c.GridMinX,
			MaxX: c.GridMaxX,
			MinY: c.GridMinY,
			MaxY: c.GridMaxY,
		},
	}
}

// UsesRedis reports whether postings live in Redis.
func (c *Config) UsesRedis() bool {
	return len(c.RedisAddrs) > 0
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return strings.ToLower(value) == "true" || value == "1"
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvSlice(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, s := range strings.Split(value, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// GetEnv gets an environment variable with a default value.
func GetEnv(key, defaultValue string) string {
	return getEnv(key, defaultValue)
}

// GetEnvInt gets an environment variable as an integer with a default value.
func GetEnvInt(key string, defaultValue int) int {
	return getEnvInt(key, defaultValue)
}

// GetEnvBool gets an environment variable as a boolean with a default value.
func GetEnvBool(key string, defaultValue bool) bool {
	return getEnvBool(key, defaultValue)
}

// GetEnvDuration gets an environment variable as a duration with a default value.
func GetEnvDuration(key string, defaultValue time.Duration) time.Duration {
	return getEnvDuration(key, defaultValue)
}

// GetEnvFloat gets an environment variable as a float with a default value.
func GetEnvFloat(key string, defaultValue float64) float64 {
	return getEnvFloat(key, defaultValue)
}

// GetEnvSlice gets a comma separated environment variable.
func GetEnvSlice(key string, defaultValue []string) []string {
	return getEnvSlice(key, defaultValue)
}
