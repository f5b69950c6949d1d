package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the path checked for YAML configuration.
const DefaultConfigFile = "promptdesk.yaml"

// DefaultEnvFile is the dotenv file checked after the YAML file.
const DefaultEnvFile = ".env"

// Load returns a Config using the hierarchy: defaults < YAML < .env < ENV.
// Both files are optional; a missing file is not an error.
func Load() (*Config, error) {
	return LoadFiles(DefaultConfigFile, DefaultEnvFile)
}

// LoadFrom loads the given YAML path and the default .env file.
func LoadFrom(yamlPath string) (*Config, error) {
	return LoadFiles(yamlPath, DefaultEnvFile)
}

// LoadFiles returns a Config loaded from the given YAML and dotenv paths
// using the hierarchy: defaults < YAML < .env < ENV.
func LoadFiles(yamlPath, envPath string) (*Config, error) {
	cfg := Defaults()

	if err := loadYAML(&cfg, yamlPath); err != nil {
		return nil, fmt.Errorf("config yaml: %w", err)
	}

	dotenv, err := readDotEnv(envPath)
	if err != nil {
		return nil, fmt.Errorf("config dotenv: %w", err)
	}

	loadEnv(&cfg, envLookup(dotenv))

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validate: %w", err)
	}

	return &cfg, nil
}

// loadYAML reads the YAML file and unmarshals it over cfg.
// Returns nil if the file does not exist.
func loadYAML(cfg *Config, path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path is validated by caller
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	return nil
}

// readDotEnv parses a dotenv file without touching the process environment.
func readDotEnv(path string) (map[string]string, error) {
	if path == "" {
		return nil, nil
	}
	vals, err := godotenv.Read(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return vals, nil
}

// lookupFunc returns the configured value for key, or "".
type lookupFunc func(key string) string

// envLookup prefers the process environment over dotenv values.
func envLookup(dotenv map[string]string) lookupFunc {
	return func(key string) string {
		if v := os.Getenv(key); v != "" {
			return v
		}
		return dotenv[key]
	}
}

// loadEnv overlays environment variables onto cfg.
// Only non-empty values override the current config.
func loadEnv(cfg *Config, get lookupFunc) {
	e := envSetter{get: get}

	e.setString(&cfg.Server.Port, "PROMPTDESK_PORT")
	e.setString(&cfg.Server.CORSOrigin, "PROMPTDESK_CORS_ORIGIN")
	e.setDuration(&cfg.Server.ReadTimeout, "PROMPTDESK_READ_TIMEOUT")
	e.setDuration(&cfg.Server.WriteTimeout, "PROMPTDESK_WRITE_TIMEOUT")
	e.setDuration(&cfg.Server.ShutdownTimeout, "PROMPTDESK_SHUTDOWN_TIMEOUT")
	e.setBool(&cfg.Server.RateLimit.Enabled, "PROMPTDESK_RATE_LIMIT_ENABLED")
	e.setFloat64(&cfg.Server.RateLimit.Rate, "PROMPTDESK_RATE_LIMIT_RATE")
	e.setInt(&cfg.Server.RateLimit.Burst, "PROMPTDESK_RATE_LIMIT_BURST")

	e.setString(&cfg.Postgres.DSN, "DATABASE_URL")
	e.setInt32(&cfg.Postgres.MaxConns, "PROMPTDESK_PG_MAX_CONNS")
	e.setInt32(&cfg.Postgres.MinConns, "PROMPTDESK_PG_MIN_CONNS")
	e.setDuration(&cfg.Postgres.MaxConnLifetime, "PROMPTDESK_PG_MAX_CONN_LIFETIME")
	e.setDuration(&cfg.Postgres.MaxConnIdleTime, "PROMPTDESK_PG_MAX_CONN_IDLE_TIME")
	e.setDuration(&cfg.Postgres.HealthCheck, "PROMPTDESK_PG_HEALTH_CHECK")
	e.setDuration(&cfg.Postgres.RetryMaxElapsed, "PROMPTDESK_PG_RETRY_MAX_ELAPSED")

	e.setString(&cfg.NATS.URL, "NATS_URL")
	e.setBool(&cfg.NATS.Audit, "PROMPTDESK_NATS_AUDIT")

	// Cache
	e.setInt64(&cfg.Cache.L1MaxSizeMB, "PROMPTDESK_CACHE_L1_SIZE_MB")
	e.setDuration(&cfg.Cache.L1TTL, "PROMPTDESK_CACHE_L1_TTL")
	e.setString(&cfg.Cache.L2Bucket, "PROMPTDESK_CACHE_L2_BUCKET")
	e.setDuration(&cfg.Cache.L2TTL, "PROMPTDESK_CACHE_L2_TTL")

	e.setString(&cfg.Idempotency.Bucket, "PROMPTDESK_IDEMPOTENCY_BUCKET")
	e.setDuration(&cfg.Idempotency.TTL, "PROMPTDESK_IDEMPOTENCY_TTL")

	e.setString(&cfg.Logging.Level, "PROMPTDESK_LOG_LEVEL")
	e.setString(&cfg.Logging.Service, "PROMPTDESK_LOG_SERVICE")
	e.setBool(&cfg.Logging.Async, "PROMPTDESK_LOG_ASYNC")
	e.setInt(&cfg.Logging.AsyncBuffer, "PROMPTDESK_LOG_ASYNC_BUFFER")
	e.setInt(&cfg.Logging.AsyncWorkers, "PROMPTDESK_LOG_ASYNC_WORKERS")

	e.setInt(&cfg.Breaker.MaxFailures, "PROMPTDESK_BREAKER_MAX_FAILURES")
	e.setDuration(&cfg.Breaker.Timeout, "PROMPTDESK_BREAKER_TIMEOUT")

	// OpenTelemetry
	e.setBool(&cfg.OTEL.Enabled, "PROMPTDESK_OTEL_ENABLED")
	e.setString(&cfg.OTEL.Endpoint, "OTEL_EXPORTER_OTLP_ENDPOINT")
	e.setString(&cfg.OTEL.ServiceName, "OTEL_SERVICE_NAME")
	e.setBool(&cfg.OTEL.Insecure, "PROMPTDESK_OTEL_INSECURE")
	e.setFloat64(&cfg.OTEL.SampleRate, "PROMPTDESK_OTEL_SAMPLE_RATE")

	e.setInt(&cfg.Template.MinContentLength, "PROMPTDESK_TEMPLATE_MIN_LENGTH")

	e.setBool(&cfg.MCP.Enabled, "PROMPTDESK_MCP_ENABLED")
	e.setString(&cfg.MCP.Path, "PROMPTDESK_MCP_PATH")
}

// validate checks that required fields are set.
func validate(cfg *Config) error {
	if cfg.Server.Port == "" {
		return errors.New("server.port is required")
	}
	if cfg.Postgres.DSN == "" {
		return errors.New("postgres.dsn is required")
	}
	if cfg.Postgres.MaxConns < 1 {
		return errors.New("postgres.max_conns must be >= 1")
	}
	if cfg.Breaker.MaxFailures < 1 {
		return errors.New("breaker.max_failures must be >= 1")
	}
	if cfg.Cache.L1MaxSizeMB < 1 {
		return errors.New("cache.l1_max_size_mb must be >= 1")
	}
	if cfg.Server.RateLimit.Enabled && (cfg.Server.RateLimit.Rate <= 0 || cfg.Server.RateLimit.Burst < 1) {
		return errors.New("server.rate_limit needs rate > 0 and burst >= 1")
	}
	if cfg.Template.MinContentLength < 0 {
		return errors.New("template.min_content_length must be >= 0")
	}
	if cfg.OTEL.SampleRate < 0 || cfg.OTEL.SampleRate > 1 {
		return errors.New("otel.sample_rate must be between 0 and 1")
	}
	if cfg.MCP.Enabled && !strings.HasPrefix(cfg.MCP.Path, "/") {
		return errors.New("mcp.path must start with /")
	}
	return nil
}

type envSetter struct {
	get lookupFunc
}

func (e envSetter) setString(dst *string, key string) {
	if v := e.get(key); v != "" {
		*dst = v
	}
}

func (e envSetter) setInt(dst *int, key string) {
	if v := e.get(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func (e envSetter) setInt32(dst *int32, key string) {
	if v := e.get(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 32); err == nil {
			*dst = int32(n)
		}
	}
}

func (e envSetter) setInt64(dst *int64, key string) {
	if v := e.get(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func (e envSetter) setFloat64(dst *float64, key string) {
	if v := e.get(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func (e envSetter) setBool(dst *bool, key string) {
	if v := e.get(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func (e envSetter) setDuration(dst *time.Duration, key string) {
	if v := e.get(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}
