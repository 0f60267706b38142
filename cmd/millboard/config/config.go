// Package config provides configuration parsing for the millboard dashboard server.
//
// Configuration is read from command-line flags with environment variable
// fallbacks. A .env file in the working directory, if present, is loaded into
// the environment first. The Config struct covers:
//   - HTTP listen address and TLS
//   - Logging (level, format)
//   - Data source adapter and its ADAPTER_* settings
//   - Dataset store (memory or redis) and reload interval
//
// Supported configuration sources (in order of precedence):
//  1. Command-line flags
//  2. Environment variables (including those loaded from .env)
//  3. Default values
//
// Example usage:
//
//	cfg, err := config.ParseFlags(os.Args[1:])
//	if err != nil { ... }
package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/HatiCode/millboard/pkg/tls"
)

// Config holds all dashboard server configuration.
type Config struct {
	Listen    string
	LogFormat string
	LogLevel  string
	TLS       tls.Config

	Dataset       string
	Adapter       string
	AdapterConfig map[string]string
	Interval      time.Duration
	StaleAfter    time.Duration

	Storage       string
	StorageTTL    time.Duration
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// ParseFlags loads .env, then parses args with environment fallbacks and
// validates the result.
func ParseFlags(args []string) (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	fs := flag.NewFlagSet("millboard", flag.ContinueOnError)
	cfg := &Config{}

	fs.StringVar(&cfg.Listen, "listen", getEnv("LISTEN", ":8080"), "HTTP listen address")

	fs.StringVar(&cfg.LogFormat, "log-format", getEnv("LOG_FORMAT", "text"), "Log format: text or json")
	fs.StringVar(&cfg.LogLevel, "log-level", getEnv("LOG_LEVEL", "info"), "Log level: debug, info, warn, error")

	fs.BoolVar(&cfg.TLS.Enabled, "tls-enabled", getEnvBool("TLS_ENABLED", false), "Enable TLS for HTTP server")
	fs.StringVar(&cfg.TLS.CertFile, "tls-cert-file", getEnv("TLS_CERT_FILE", ""), "TLS certificate file")
	fs.StringVar(&cfg.TLS.KeyFile, "tls-key-file", getEnv("TLS_KEY_FILE", ""), "TLS private key file")
	fs.StringVar(&cfg.TLS.CAFile, "tls-ca-file", getEnv("TLS_CA_FILE", ""), "TLS CA file; enables client certificate verification")

	fs.StringVar(&cfg.Dataset, "dataset", getEnv("DATASET", "default"), "Dataset name used as the store key")
	fs.StringVar(&cfg.Adapter, "adapter", getEnv("ADAPTER", "synthetic"), "Data source: synthetic, http, postgres, or kafka")
	fs.DurationVar(&cfg.Interval, "interval", getEnvDuration("INTERVAL", 0), "Reload interval (0 loads once at startup)")
	fs.DurationVar(&cfg.StaleAfter, "stale-after", getEnvDuration("STALE_AFTER", 0), "Mark responses stale when the dataset is older than this (0 disables)")

	fs.StringVar(&cfg.Storage, "storage", getEnv("STORAGE", "memory"), "Dataset store: memory or redis")
	fs.DurationVar(&cfg.StorageTTL, "storage-ttl", getEnvDuration("STORAGE_TTL", 0), "Dataset TTL (0 = none for memory, 24h for redis)")
	fs.StringVar(&cfg.RedisAddr, "redis-addr", getEnv("REDIS_ADDR", "localhost:6379"), "Redis server address")
	fs.StringVar(&cfg.RedisPassword, "redis-password", getEnv("REDIS_PASSWORD", ""), "Redis password")
	fs.IntVar(&cfg.RedisDB, "redis-db", getEnvInt("REDIS_DB", 0), "Redis database number")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	cfg.AdapterConfig = parseAdapterConfig(os.Environ())

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

var datasetNameRegex = regexp.MustCompile(`^[a-zA-Z0-9]([a-zA-Z0-9_-]{0,62}[a-zA-Z0-9])?$`)

// Validate checks option values that flag parsing cannot.
func (c *Config) Validate() error {
	if !datasetNameRegex.MatchString(c.Dataset) {
		return fmt.Errorf("invalid dataset name %q (must be alphanumeric with dash/underscore, 1-64 chars)", c.Dataset)
	}

	switch c.Adapter {
	case "synthetic", "http", "postgres", "kafka":
	default:
		return fmt.Errorf("invalid adapter %q (must be synthetic, http, postgres, or kafka)", c.Adapter)
	}

	switch c.Storage {
	case "memory":
	case "redis":
		if c.RedisAddr == "" {
			return errors.New("redis-addr is required when storage=redis")
		}
	default:
		return fmt.Errorf("invalid storage %q (must be memory or redis)", c.Storage)
	}

	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("invalid log format %q (must be text or json)", c.LogFormat)
	}

	if c.Interval < 0 {
		return errors.New("interval cannot be negative")
	}
	if c.StaleAfter < 0 {
		return errors.New("stale-after cannot be negative")
	}
	if c.StorageTTL < 0 {
		return errors.New("storage-ttl cannot be negative")
	}

	return c.TLS.Validate()
}

// parseAdapterConfig turns ADAPTER_* variables into the adapter config map.
// Names are converted to lowerCamelCase: ADAPTER_RECORDS_PATH -> recordsPath.
func parseAdapterConfig(environ []string) map[string]string {
	config := make(map[string]string)

	for _, env := range environ {
		name, value, ok := strings.Cut(env, "=")
		if !ok || !strings.HasPrefix(name, "ADAPTER_") || len(name) == len("ADAPTER_") {
			continue
		}
		config[toLowerCamelCase(strings.TrimPrefix(name, "ADAPTER_"))] = value
	}

	return config
}

func toLowerCamelCase(s string) string {
	parts := strings.Split(strings.ToLower(s), "_")
	var b strings.Builder
	for i, p := range parts {
		if p == "" {
			continue
		}
		if i > 0 && b.Len() > 0 {
			b.WriteString(strings.ToUpper(p[:1]))
			b.WriteString(p[1:])
			continue
		}
		b.WriteString(p)
	}
	return b.String()
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var i int
		if _, err := fmt.Sscanf(value, "%d", &i); err == nil {
			return i
		}
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

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1"
	}
	return defaultValue
}
