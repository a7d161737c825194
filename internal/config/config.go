// Package config loads decofer-core settings from the environment.
//
// An optional .env file in the working directory is loaded first; variables
// already present in the environment win.
//
//   - HTTP_ADDR: listen address (default :8081)
//   - LOG_LEVEL: zerolog level (default info)
//   - LOG_FORMAT: json or console (default json)
//   - REFERENCE_BASE_URL: reference-data service base URL (required)
//   - REFERENCE_API_TOKEN: bearer token for the reference-data service
//   - DWH_BASE_URL: data warehouse HTTP API base URL
//   - DWH_API_TOKEN: bearer token for the data warehouse HTTP API
//   - DWH_DATABASE_URL: data warehouse Postgres DSN, used instead of DWH_BASE_URL
//   - UPSTREAM_TIMEOUT: per-request timeout towards upstreams (default 10s)
//   - TRACING_ENABLED: export OpenTelemetry traces (default false)
//   - TRACING_ENDPOINT: OTLP gRPC endpoint (default localhost:4317)
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	HTTPAddr  string `validate:"required"`
	LogLevel  string
	LogFormat string `validate:"oneof=json console"`

	ReferenceBaseURL  string `validate:"required,url"`
	ReferenceAPIToken string

	DWHBaseURL     string `validate:"omitempty,url"`
	DWHAPIToken    string
	DWHDatabaseURL string `validate:"omitempty,url"`

	UpstreamTimeout time.Duration `validate:"gt=0"`

	TracingEnabled  bool
	TracingEndpoint string `validate:"required_if=TracingEnabled true"`
}

// UsesWarehouseDatabase reports whether snapshots are read from Postgres
// rather than through the warehouse HTTP API.
func (c *Config) UsesWarehouseDatabase() bool {
	return c.DWHDatabaseURL != ""
}

func Load() (*Config, error) {
	_ = godotenv.Load()
	return FromEnv()
}

// FromEnv reads and validates the configuration without touching .env files.
func FromEnv() (*Config, error) {
	timeout, err := getEnvDuration("UPSTREAM_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}
	tracing, err := getEnvBool("TRACING_ENABLED", false)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		HTTPAddr:  getEnv("HTTP_ADDR", ":8081"),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),

		ReferenceBaseURL:  getEnv("REFERENCE_BASE_URL", ""),
		ReferenceAPIToken: getEnv("REFERENCE_API_TOKEN", ""),

		DWHBaseURL:     getEnv("DWH_BASE_URL", ""),
		DWHAPIToken:    getEnv("DWH_API_TOKEN", ""),
		DWHDatabaseURL: getEnv("DWH_DATABASE_URL", ""),

		UpstreamTimeout: timeout,

		TracingEnabled:  tracing,
		TracingEndpoint: getEnv("TRACING_ENDPOINT", "localhost:4317"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Field(), fe.Tag()))
			}
			return fmt.Errorf("invalid config: %s", strings.Join(msgs, ", "))
		}
		return fmt.Errorf("invalid config: %w", err)
	}

	switch {
	case c.DWHBaseURL == "" && c.DWHDatabaseURL == "":
		return errors.New("invalid config: one of DWH_BASE_URL or DWH_DATABASE_URL is required")
	case c.DWHBaseURL != "" && c.DWHDatabaseURL != "":
		return errors.New("invalid config: DWH_BASE_URL and DWH_DATABASE_URL are mutually exclusive")
	}
	return nil
}

func getEnv(key, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return v
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := getEnv(key, "")
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid config: %s: %w", key, err)
	}
	return d, nil
}

func getEnvBool(key string, fallback bool) (bool, error) {
	v := getEnv(key, "")
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid config: %s: %w", key, err)
	}
	return b, nil
}
