// Package config provides configuration loading for VitaNote.
//
// Values come from built-in defaults, an optional YAML or TOML file, and
// VITANOTE_* environment variables, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"net"
	"time"
)

// Config holds the complete VitaNote configuration.
type Config struct {
	Server        ServerConfig        `koanf:"server"`
	Database      DatabaseConfig      `koanf:"database"`
	Auth          AuthConfig          `koanf:"auth"`
	RateLimit     RateLimitConfig     `koanf:"ratelimit"`
	Events        EventsConfig        `koanf:"events"`
	Offline       OfflineConfig       `koanf:"offline"`
	Logging       LoggingConfig       `koanf:"logging"`
	Observability ObservabilityConfig `koanf:"observability"`
	Thresholds    ThresholdsConfig    `koanf:"thresholds"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"http_port"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	BodyLimit       string        `koanf:"body_limit"`
	CORSOrigins     []string      `koanf:"cors_origins"`
	// TrustedProxies lists the IPs or CIDR ranges whose X-Forwarded-For
	// header is believed. Empty means the peer address is the client.
	TrustedProxies []string `koanf:"trusted_proxies"`
}

// DatabaseConfig holds SQLite settings.
type DatabaseConfig struct {
	Path         string        `koanf:"path"`
	MaxOpenConns int           `koanf:"max_open_conns"`
	BusyTimeout  time.Duration `koanf:"busy_timeout"`
}

// AuthConfig holds token and password hashing settings.
type AuthConfig struct {
	JWTSecret  Secret        `koanf:"jwt_secret"`
	Issuer     string        `koanf:"issuer"`
	Audience   string        `koanf:"audience"`
	TokenTTL   time.Duration `koanf:"token_ttl"`
	BcryptCost int           `koanf:"bcrypt_cost"`
}

// RateLimitConfig throttles the unauthenticated auth endpoints per client IP.
type RateLimitConfig struct {
	Enabled           bool    `koanf:"enabled"`
	RequestsPerSecond float64 `koanf:"requests_per_second"`
	Burst             int     `koanf:"burst"`
}

// EventsConfig configures NATS event publishing. An empty URL disables it.
type EventsConfig struct {
	NATSURL       string `koanf:"nats_url"`
	SubjectPrefix string `koanf:"subject_prefix"`
}

// OfflineConfig points at the bbolt file used by the offline SQL store.
type OfflineConfig struct {
	Path string `koanf:"path"`
}

// LoggingConfig selects log level and encoding.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// ObservabilityConfig holds OpenTelemetry configuration.
type ObservabilityConfig struct {
	EnableTelemetry bool    `koanf:"enable_telemetry"`
	ServiceName     string  `koanf:"service_name"`
	Endpoint        string  `koanf:"endpoint"`
	Protocol        string  `koanf:"protocol"`
	Insecure        bool    `koanf:"insecure"`
	SamplingRate    float64 `koanf:"sampling_rate"`
}

// ThresholdsConfig holds the default alert limits. Glucose is in mmol/L,
// blood pressure in mmHg.
type ThresholdsConfig struct {
	GlucoseLow    float64 `koanf:"glucose_low"`
	GlucoseHigh   float64 `koanf:"glucose_high"`
	SystolicHigh  int     `koanf:"systolic_high"`
	DiastolicHigh int     `koanf:"diastolic_high"`
	SystolicLow   int     `koanf:"systolic_low"`
	DiastolicLow  int     `koanf:"diastolic_low"`
}

// MinSecretLength is the shortest accepted JWT signing secret.
const MinSecretLength = 32

// Default returns the built-in configuration. The JWT secret is left empty
// and must be provided.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            5080,
			ShutdownTimeout: 10 * time.Second,
			BodyLimit:       "1M",
			CORSOrigins:     []string{"http://localhost:5173"},
		},
		Database: DatabaseConfig{
			Path:         "vitanote.db",
			MaxOpenConns: 1,
			BusyTimeout:  5 * time.Second,
		},
		Auth: AuthConfig{
			Issuer:     "vitanote",
			Audience:   "vitanote-clients",
			TokenTTL:   7 * 24 * time.Hour,
			BcryptCost: 10,
		},
		RateLimit: RateLimitConfig{
			Enabled:           true,
			RequestsPerSecond: 1,
			Burst:             5,
		},
		Events: EventsConfig{
			SubjectPrefix: "vitanote",
		},
		Offline: OfflineConfig{
			Path: "vitanote-offline.bolt",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Observability: ObservabilityConfig{
			EnableTelemetry: false,
			ServiceName:     "vitanote",
			Endpoint:        "localhost:4317",
			Protocol:        "grpc",
			Insecure:        true,
			SamplingRate:    1.0,
		},
		Thresholds: ThresholdsConfig{
			GlucoseLow:    3.9,
			GlucoseHigh:   10.0,
			SystolicHigh:  140,
			DiastolicHigh: 90,
			SystolicLow:   90,
			DiastolicLow:  60,
		},
	}
}

// Validate checks the configuration for out-of-range values.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d (must be 1-65535)", c.Server.Port)
	}
	if c.Server.ShutdownTimeout <= 0 {
		return errors.New("shutdown timeout must be positive")
	}

	for _, p := range c.Server.TrustedProxies {
		if net.ParseIP(p) == nil {
			if _, _, err := net.ParseCIDR(p); err != nil {
				return fmt.Errorf("server trusted_proxies: %q is not an IP or CIDR range", p)
			}
		}
	}

	if c.Database.Path == "" {
		return errors.New("database path is required")
	}
	if c.Database.MaxOpenConns < 1 {
		return fmt.Errorf("database max_open_conns must be >= 1, got %d", c.Database.MaxOpenConns)
	}

	if len(c.Auth.JWTSecret.Value()) < MinSecretLength {
		return fmt.Errorf("auth jwt_secret must be at least %d bytes", MinSecretLength)
	}
	if c.Auth.Issuer == "" || c.Auth.Audience == "" {
		return errors.New("auth issuer and audience are required")
	}
	if c.Auth.TokenTTL <= 0 {
		return errors.New("auth token_ttl must be positive")
	}
	if c.Auth.BcryptCost < 4 || c.Auth.BcryptCost > 31 {
		return fmt.Errorf("auth bcrypt_cost must be between 4 and 31, got %d", c.Auth.BcryptCost)
	}

	if c.RateLimit.Enabled && (c.RateLimit.RequestsPerSecond <= 0 || c.RateLimit.Burst < 1) {
		return errors.New("ratelimit requires requests_per_second > 0 and burst >= 1")
	}

	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("logging format must be 'json' or 'console', got %q", c.Logging.Format)
	}

	if c.Observability.EnableTelemetry && c.Observability.ServiceName == "" {
		return errors.New("service name required when telemetry is enabled")
	}
	if c.Observability.SamplingRate < 0 || c.Observability.SamplingRate > 1 {
		return fmt.Errorf("sampling_rate must be between 0 and 1, got %v", c.Observability.SamplingRate)
	}

	t := c.Thresholds
	if t.GlucoseLow <= 0 || t.GlucoseHigh <= t.GlucoseLow {
		return errors.New("thresholds require 0 < glucose_low < glucose_high")
	}
	if t.SystolicLow <= 0 || t.SystolicHigh <= t.SystolicLow || t.DiastolicLow <= 0 || t.DiastolicHigh <= t.DiastolicLow {
		return errors.New("blood pressure thresholds require 0 < low < high")
	}

	return nil
}
