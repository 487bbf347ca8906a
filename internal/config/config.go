// Package config loads the service configuration from the environment and an optional .env file.
package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	RateLimitFailOpen   = "fail_open"
	RateLimitFailClosed = "fail_closed"
)

type Config struct {
	AppEnv   string `mapstructure:"APP_ENV"`
	HTTPAddr string `mapstructure:"HTTP_ADDR"`
	Port     string `mapstructure:"PORT"`

	JWTSecret             string `mapstructure:"JWT_SECRET"`
	JWTIssuer             string `mapstructure:"JWT_ISSUER"`
	JWTAudience           string `mapstructure:"JWT_AUDIENCE"`
	AccessTokenTTLMinutes int    `mapstructure:"ACCESS_TOKEN_TTL_MINUTES"`
	RefreshTTLDays        int    `mapstructure:"REFRESH_TTL_DAYS"`
	BcryptCost            int    `mapstructure:"BCRYPT_COST"`
	PasswordPolicyEnabled bool   `mapstructure:"PASSWORD_POLICY_ENABLED"`

	DatabaseURL   string `mapstructure:"DATABASE_URL"`
	DBAutoMigrate bool   `mapstructure:"DB_AUTO_MIGRATE"`
	RedisURL      string `mapstructure:"REDIS_URL"`

	RateLimitMax          int           `mapstructure:"RATE_LIMIT_MAX"`
	RateLimitWindow       time.Duration `mapstructure:"RATE_LIMIT_WINDOW"`
	LoginRateLimitMax     int           `mapstructure:"LOGIN_RATE_LIMIT_MAX"`
	LoginRateLimitWindow  time.Duration `mapstructure:"LOGIN_RATE_LIMIT_WINDOW"`
	RateLimitFailureMode  string        `mapstructure:"RATE_LIMIT_FAILURE_MODE"`
	ReadinessProbeTimeout time.Duration `mapstructure:"READINESS_PROBE_TIMEOUT"`
	ShutdownTimeout       time.Duration `mapstructure:"SHUTDOWN_TIMEOUT"`

	LogLevel  string `mapstructure:"LOG_LEVEL"`
	LogFormat string `mapstructure:"LOG_FORMAT"`

	OTELServiceName           string        `mapstructure:"OTEL_SERVICE_NAME"`
	OTELEnvironment           string        `mapstructure:"OTEL_ENVIRONMENT"`
	OTELExporterOTLPEndpoint  string        `mapstructure:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	OTELExporterOTLPInsecure  bool          `mapstructure:"OTEL_EXPORTER_OTLP_INSECURE"`
	OTELMetricsEnabled        bool          `mapstructure:"OTEL_METRICS_ENABLED"`
	OTELTracingEnabled        bool          `mapstructure:"OTEL_TRACING_ENABLED"`
	OTELLogsEnabled           bool          `mapstructure:"OTEL_LOGS_ENABLED"`
	OTELMetricsExportInterval time.Duration `mapstructure:"OTEL_METRICS_EXPORT_INTERVAL"`
}

var defaults = map[string]any{
	"APP_ENV":                      "development",
	"HTTP_ADDR":                    ":8080",
	"PORT":                         "",
	"JWT_SECRET":                   "",
	"JWT_ISSUER":                   "session-auth",
	"JWT_AUDIENCE":                 "session-auth-api",
	"ACCESS_TOKEN_TTL_MINUTES":     15,
	"REFRESH_TTL_DAYS":             30,
	"BCRYPT_COST":                  10,
	"PASSWORD_POLICY_ENABLED":      true,
	"DATABASE_URL":                 "sqlite://session-auth.db",
	"DB_AUTO_MIGRATE":              true,
	"REDIS_URL":                    "redis://localhost:6379",
	"RATE_LIMIT_MAX":               300,
	"RATE_LIMIT_WINDOW":            "5m",
	"LOGIN_RATE_LIMIT_MAX":         5,
	"LOGIN_RATE_LIMIT_WINDOW":      "1m",
	"RATE_LIMIT_FAILURE_MODE":      RateLimitFailOpen,
	"READINESS_PROBE_TIMEOUT":      "2s",
	"SHUTDOWN_TIMEOUT":             "15s",
	"LOG_LEVEL":                    "info",
	"LOG_FORMAT":                   "json",
	"OTEL_SERVICE_NAME":            "session-auth-service",
	"OTEL_ENVIRONMENT":             "development",
	"OTEL_EXPORTER_OTLP_ENDPOINT":  "localhost:4317",
	"OTEL_EXPORTER_OTLP_INSECURE":  true,
	"OTEL_METRICS_ENABLED":         false,
	"OTEL_TRACING_ENABLED":         false,
	"OTEL_LOGS_ENABLED":            false,
	"OTEL_METRICS_EXPORT_INTERVAL": "15s",
}

// LoadEnvFile preloads path into the process environment. Existing variables win and a missing file is ignored.
func LoadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig()
	v.AutomaticEnv()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	return v
}

// LoadDatabaseURL resolves DATABASE_URL from .env, the environment and defaults without validating the rest.
func LoadDatabaseURL() string {
	return strings.TrimSpace(newViper().GetString("DATABASE_URL"))
}

// Load builds the Config from .env (if present) and the environment, then validates it.
func Load() (*Config, error) {
	v := newViper()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		err = fmt.Errorf("parse config: %w", err)
		recordConfigValidationEvent(context.Background(), cfg.AppEnv, "failure", classifyConfigLoadError(err))
		return nil, err
	}
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		err = fmt.Errorf("validate config: %w", err)
		recordConfigValidationEvent(context.Background(), cfg.AppEnv, "failure", classifyConfigLoadError(err))
		return nil, err
	}
	recordConfigValidationEvent(context.Background(), cfg.AppEnv, "success", "none")
	return &cfg, nil
}

func (c *Config) normalize() {
	if strings.TrimSpace(c.Port) != "" {
		c.HTTPAddr = ":" + strings.TrimPrefix(strings.TrimSpace(c.Port), ":")
	}
	c.RateLimitFailureMode = strings.ToLower(strings.TrimSpace(c.RateLimitFailureMode))
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	c.LogFormat = strings.ToLower(strings.TrimSpace(c.LogFormat))
	c.RedisURL = strings.TrimSpace(c.RedisURL)
}

func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.JWTSecret) == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if c.HTTPAddr == "" {
		errs = append(errs, errors.New("HTTP_ADDR must be set"))
	}
	if c.DatabaseURL == "" {
		errs = append(errs, errors.New("DATABASE_URL is required"))
	}
	if c.AccessTokenTTLMinutes <= 0 {
		errs = append(errs, errors.New("ACCESS_TOKEN_TTL_MINUTES must be positive"))
	}
	if c.RefreshTTLDays <= 0 {
		errs = append(errs, errors.New("REFRESH_TTL_DAYS must be positive"))
	}
	if c.BcryptCost < 4 || c.BcryptCost > 31 {
		errs = append(errs, errors.New("BCRYPT_COST must be between 4 and 31"))
	}
	if c.RateLimitMax <= 0 || c.RateLimitWindow <= 0 {
		errs = append(errs, errors.New("RATE_LIMIT_MAX and RATE_LIMIT_WINDOW must be positive"))
	}
	if c.LoginRateLimitMax <= 0 || c.LoginRateLimitWindow <= 0 {
		errs = append(errs, errors.New("LOGIN_RATE_LIMIT_MAX and LOGIN_RATE_LIMIT_WINDOW must be positive"))
	}
	if c.RateLimitFailureMode != RateLimitFailOpen && c.RateLimitFailureMode != RateLimitFailClosed {
		errs = append(errs, fmt.Errorf("RATE_LIMIT_FAILURE_MODE must be %s or %s", RateLimitFailOpen, RateLimitFailClosed))
	}
	return errors.Join(errs...)
}

func (c *Config) AccessTokenTTL() time.Duration {
	return time.Duration(c.AccessTokenTTLMinutes) * time.Minute
}

func (c *Config) RefreshTTL() time.Duration {
	return time.Duration(c.RefreshTTLDays) * 24 * time.Hour
}
