package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the path checked for YAML configuration.
const DefaultConfigFile = "planforge.yaml"

// Load returns a Config using the hierarchy: defaults < YAML < ENV.
// YAML file is optional; missing file is not an error.
func Load() (*Config, error) {
	return LoadFrom(DefaultConfigFile)
}

// LoadFrom returns a Config loaded from the given YAML path using the
// hierarchy: defaults < YAML < ENV. The YAML file is optional.
func LoadFrom(yamlPath string) (*Config, error) {
	cfg := Defaults()

	if err := loadYAML(&cfg, yamlPath); err != nil {
		return nil, fmt.Errorf("config yaml: %w", err)
	}

	loadEnv(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validate: %w", err)
	}

	return &cfg, nil
}

// loadYAML reads the YAML file and unmarshals it over cfg.
// Returns nil if the file does not exist.
func loadYAML(cfg *Config, path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path is chosen by the operator
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

// loadEnv overlays environment variables onto cfg.
// Only non-empty env values override the current config.
func loadEnv(cfg *Config) {
	setString(&cfg.Logging.Level, "PLANFORGE_LOG_LEVEL")
	setString(&cfg.Logging.Service, "PLANFORGE_LOG_SERVICE")
	setBool(&cfg.Logging.Async, "PLANFORGE_LOG_ASYNC")

	// Execution
	setString(&cfg.Execution.DefaultSolver, "PLANFORGE_DEFAULT_SOLVER")
	setDuration(&cfg.Execution.DefaultTimeout, "PLANFORGE_DEFAULT_TIMEOUT")
	setString(&cfg.Execution.DefaultMode, "PLANFORGE_DEFAULT_MODE")
	setDuration(&cfg.Execution.Grace, "PLANFORGE_GRACE")

	// Staging
	setString(&cfg.Staging.Root, "PLANFORGE_STAGING_ROOT")
	setBool(&cfg.Staging.RemoveDirs, "PLANFORGE_STAGING_REMOVE_DIRS")

	// Cache
	setBool(&cfg.Cache.Enabled, "PLANFORGE_CACHE_ENABLED")
	setInt64(&cfg.Cache.L1MaxSizeMB, "PLANFORGE_CACHE_L1_SIZE_MB")
	setDuration(&cfg.Cache.TTL, "PLANFORGE_CACHE_TTL")
	setString(&cfg.Cache.L2Bucket, "PLANFORGE_CACHE_L2_BUCKET")

	setString(&cfg.NATS.URL, "NATS_URL")

	// Postgres
	setString(&cfg.Postgres.DSN, "DATABASE_URL")
	setInt32(&cfg.Postgres.MaxConns, "PLANFORGE_PG_MAX_CONNS")
	setInt32(&cfg.Postgres.MinConns, "PLANFORGE_PG_MIN_CONNS")
	setDuration(&cfg.Postgres.MaxConnLifetime, "PLANFORGE_PG_MAX_CONN_LIFETIME")
	setDuration(&cfg.Postgres.MaxConnIdleTime, "PLANFORGE_PG_MAX_CONN_IDLE_TIME")
	setDuration(&cfg.Postgres.HealthCheck, "PLANFORGE_PG_HEALTH_CHECK")

	setString(&cfg.Server.Port, "PLANFORGE_PORT")
	setString(&cfg.Server.CORSOrigin, "PLANFORGE_CORS_ORIGIN")

	setString(&cfg.MCP.Addr, "PLANFORGE_MCP_ADDR")
	setString(&cfg.MCP.APIKey, "PLANFORGE_MCP_API_KEY")

	setString(&cfg.OTEL.Endpoint, "OTEL_EXPORTER_OTLP_ENDPOINT")
	setBool(&cfg.OTEL.Insecure, "PLANFORGE_OTEL_INSECURE")
	setString(&cfg.OTEL.ServiceName, "OTEL_SERVICE_NAME")

	setInt(&cfg.Breaker.MaxFailures, "PLANFORGE_BREAKER_MAX_FAILURES")
	setDuration(&cfg.Breaker.Timeout, "PLANFORGE_BREAKER_TIMEOUT")

	setInt(&cfg.Limits.MaxConcurrentRuns, "PLANFORGE_MAX_CONCURRENT_RUNS")
	setInt64(&cfg.Limits.MaxRequestBytes, "PLANFORGE_MAX_REQUEST_BYTES")
	setFloat(&cfg.Limits.SubmitRate, "PLANFORGE_SUBMIT_RATE")
	setInt(&cfg.Limits.SubmitBurst, "PLANFORGE_SUBMIT_BURST")
}

// validate checks that required fields are set.
func validate(cfg *Config) error {
	if cfg.Execution.DefaultSolver == "" {
		return errors.New("execution.default_solver is required")
	}
	if cfg.Execution.DefaultTimeout <= 0 {
		return errors.New("execution.default_timeout must be > 0")
	}
	switch strings.ToLower(cfg.Execution.DefaultMode) {
	case "", "parallel", "sequential":
	default:
		return fmt.Errorf("execution.default_mode %q must be parallel or sequential", cfg.Execution.DefaultMode)
	}
	if cfg.Execution.Grace < 0 {
		return errors.New("execution.grace must be >= 0")
	}
	if cfg.Staging.Root == "" {
		return errors.New("staging.root is required")
	}
	if cfg.Server.Port == "" {
		return errors.New("server.port is required")
	}
	if cfg.Breaker.MaxFailures < 1 {
		return errors.New("breaker.max_failures must be >= 1")
	}
	if cfg.Limits.MaxConcurrentRuns < 1 {
		return errors.New("limits.max_concurrent_runs must be >= 1")
	}
	if cfg.Limits.SubmitRate < 0 {
		return errors.New("limits.submit_rate must be >= 0")
	}
	if cfg.Cache.Enabled && cfg.Cache.L1MaxSizeMB < 1 {
		return errors.New("cache.l1_max_size_mb must be >= 1")
	}
	if cfg.Postgres.DSN != "" && cfg.Postgres.MaxConns < 1 {
		return errors.New("postgres.max_conns must be >= 1")
	}

	seen := make(map[string]struct{}, len(cfg.Solvers.Custom))
	for i, s := range cfg.Solvers.Custom {
		if s.Name == "" {
			return fmt.Errorf("solvers.custom[%d].name is required", i)
		}
		if s.Binary == "" {
			return fmt.Errorf("solvers.custom[%d].binary is required", i)
		}
		if _, dup := seen[s.Name]; dup {
			return fmt.Errorf("solvers.custom: duplicate solver name %q", s.Name)
		}
		seen[s.Name] = struct{}{}
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setInt32(dst *int32, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 32); err == nil {
			*dst = int32(n)
		}
	}
}

func setInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setFloat(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}
