// Package config provides hierarchical configuration loading for planforge.
// Precedence: defaults < YAML file < environment variables.
package config

import (
	"os"
	"path/filepath"
	"time"
)

// Config holds all runtime configuration.
type Config struct {
	Logging   Logging   `yaml:"logging"`
	Execution Execution `yaml:"execution"`
	Staging   Staging   `yaml:"staging"`
	Solvers   Solvers   `yaml:"solvers"`
	Cache     Cache     `yaml:"cache"`
	NATS      NATS      `yaml:"nats"`
	Postgres  Postgres  `yaml:"postgres"`
	Server    Server    `yaml:"server"`
	MCP       MCP       `yaml:"mcp"`
	OTEL      OTEL      `yaml:"otel"`
	Breaker   Breaker   `yaml:"breaker"`
	Limits    Limits    `yaml:"limits"`
}

// Execution holds orchestrator defaults applied to incomplete requests.
type Execution struct {
	DefaultSolver  string        `yaml:"default_solver"`  // Used when a request names no solver (default: "LAMA")
	DefaultTimeout time.Duration `yaml:"default_timeout"` // Per-solver time budget (default: 7s)
	DefaultMode    string        `yaml:"default_mode"`    // "parallel" | "sequential" (default: "parallel")
	Grace          time.Duration `yaml:"grace"`           // Teardown allowance after a timeout (default: 2s)
}

// Staging controls the per-invocation working directories.
type Staging struct {
	Root       string `yaml:"root"`
	RemoveDirs bool   `yaml:"remove_dirs"` // Also remove the emptied directory after each invocation
}

// Solvers configures built-in solver binaries and additional command solvers.
type Solvers struct {
	Paths  map[string]string `yaml:"paths"` // Binary override per built-in solver name
	Custom []CustomSolver    `yaml:"custom"`
}

// CustomSolver declares an external solver by command line.
type CustomSolver struct {
	Name    string   `yaml:"name"`
	Binary  string   `yaml:"binary"`
	Args    []string `yaml:"args"`    // May use {domain} {problem} {output} {dir} {timeout}
	Output  string   `yaml:"output"`  // Base name for {output} (default: "plan")
	Pattern string   `yaml:"pattern"` // Glob for multi-candidate output; empty means single file
}

// Cache holds result cache configuration.
type Cache struct {
	Enabled     bool          `yaml:"enabled"`
	L1MaxSizeMB int64         `yaml:"l1_max_size_mb"`
	TTL         time.Duration `yaml:"ttl"`
	L2Bucket    string        `yaml:"l2_bucket"` // NATS KV bucket, used when NATS is configured
}

// NATS holds NATS JetStream configuration. An empty URL disables NATS.
type NATS struct {
	URL string `yaml:"url"`
}

// Postgres holds PostgreSQL connection configuration. An empty DSN disables history.
type Postgres struct {
	DSN             string        `yaml:"dsn"`
	MaxConns        int32         `yaml:"max_conns"`
	MinConns        int32         `yaml:"min_conns"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime"`
	MaxConnIdleTime time.Duration `yaml:"max_conn_idle_time"`
	HealthCheck     time.Duration `yaml:"health_check"`
}

// Server holds HTTP server configuration.
type Server struct {
	Port       string `yaml:"port"`
	CORSOrigin string `yaml:"cors_origin"`
}

// MCP holds Model Context Protocol server settings.
type MCP struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
	Addr    string `yaml:"addr"`    // Streamable HTTP listen address (default: ":3001")
	APIKey  string `yaml:"api_key"` // Bearer token required over HTTP; empty disables auth
}

// OTEL holds OpenTelemetry exporter configuration. An empty endpoint
// keeps the no-op providers.
type OTEL struct {
	Endpoint    string `yaml:"endpoint"`
	Insecure    bool   `yaml:"insecure"`
	ServiceName string `yaml:"service_name"`
}

// Logging holds structured logging configuration.
type Logging struct {
	Level   string `yaml:"level"`
	Service string `yaml:"service"`
	Async   bool   `yaml:"async"`
}

// Breaker holds circuit breaker configuration for event publishing and persistence.
type Breaker struct {
	MaxFailures int           `yaml:"max_failures"`
	Timeout     time.Duration `yaml:"timeout"`
}

// Limits bounds server-side load.
type Limits struct {
	MaxConcurrentRuns int     `yaml:"max_concurrent_runs"`
	MaxRequestBytes   int64   `yaml:"max_request_bytes"`
	SubmitRate        float64 `yaml:"submit_rate"`  // Run submissions per second per client; 0 disables
	SubmitBurst       int     `yaml:"submit_burst"` // Bucket size for SubmitRate
}

// Defaults returns a Config with sensible default values for local use.
func Defaults() Config {
	return Config{
		Logging: Logging{
			Level:   "info",
			Service: "planforge",
		},
		Execution: Execution{
			DefaultSolver:  "LAMA",
			DefaultTimeout: 7 * time.Second,
			DefaultMode:    "parallel",
			Grace:          2 * time.Second,
		},
		Staging: Staging{
			Root: filepath.Join(os.TempDir(), "planforge"),
		},
		Cache: Cache{
			Enabled:     false,
			L1MaxSizeMB: 64,
			TTL:         time.Hour,
			L2Bucket:    "PLANFORGE_RESULTS",
		},
		Postgres: Postgres{
			MaxConns:        10,
			MinConns:        1,
			MaxConnLifetime: time.Hour,
			MaxConnIdleTime: 10 * time.Minute,
			HealthCheck:     time.Minute,
		},
		Server: Server{
			Port:       "8080",
			CORSOrigin: "http://localhost:3000",
		},
		MCP: MCP{
			Name:    "planforge",
			Version: "0.1.0",
			Addr:    ":3001",
		},
		OTEL: OTEL{
			ServiceName: "planforge",
		},
		Breaker: Breaker{
			MaxFailures: 5,
			Timeout:     30 * time.Second,
		},
		Limits: Limits{
			MaxConcurrentRuns: 4,
			MaxRequestBytes:   4 << 20,
			SubmitRate:        2,
			SubmitBurst:       10,
		},
	}
}
