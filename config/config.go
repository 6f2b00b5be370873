// Package config loads apicall settings from the environment.
package config

import (
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/nojima/apicall-go/logging"
	"github.com/nojima/apicall-go/request"
	"github.com/pkg/errors"
)

const Prefix = "APICALL"

// Config holds all application configuration.
type Config struct {
	APIConfig
	AppConfig
	LogConfig
}

// APIConfig describes the remote API and how to reach it.
type APIConfig struct {
	BaseURL             string        `envconfig:"BASE_URL"`
	Path                string        `envconfig:"API_PATH" default:"/api/v1/"`
	Timeout             time.Duration `envconfig:"TIMEOUT" default:"30s"`
	Transport           string        `envconfig:"TRANSPORT" default:"net"`
	CredentialsFile     string        `envconfig:"CREDENTIALS_FILE"`
	TokenExpiredMessage string        `envconfig:"TOKEN_EXPIRED_MESSAGE" default:"Token expired"`
	RequireSuccessFlag  bool          `envconfig:"REQUIRE_SUCCESS_FLAG" default:"true"`
}

// AppConfig overrides the X-App-* identification headers.
type AppConfig struct {
	Platform        string `envconfig:"PLATFORM"`
	PlatformVersion string `envconfig:"PLATFORM_VERSION"`
	AppVersion      string `envconfig:"APP_VERSION"`
	AppBuild        string `envconfig:"APP_BUILD"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	LogLevel       string `envconfig:"LOG_LEVEL" default:"info"`
	LogDevelopment bool   `envconfig:"LOG_DEV" default:"false"`

	// MetricsFile receives the call metrics in Prometheus text format
	// after each run when set.
	MetricsFile string `envconfig:"METRICS_FILE"`
}

// Load loads configuration from APICALL_* environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(Prefix, &cfg); err != nil {
		return nil, errors.Wrap(err, "loading config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		APIConfig: APIConfig{
			Path:                "/api/v1/",
			Timeout:             30 * time.Second,
			Transport:           "net",
			TokenExpiredMessage: "Token expired",
			RequireSuccessFlag:  true,
		},
		LogConfig: LogConfig{
			LogLevel: "info",
		},
	}
}

func (c *Config) Validate() error {
	switch c.Transport {
	case "net", "resty":
	default:
		return errors.Errorf("unknown transport %q (must be net or resty)", c.Transport)
	}
	if c.Timeout < 0 {
		return errors.Errorf("timeout must not be negative: %v", c.Timeout)
	}
	return nil
}

// APIBaseURL joins the base URL and the API path, e.g.
// https://example.com + /api/v1/ -> https://example.com/api/v1/.
// It is empty when no base URL is configured.
func (c *Config) APIBaseURL() string {
	if c.BaseURL == "" {
		return ""
	}
	return strings.TrimSuffix(c.BaseURL, "/") + "/" + strings.TrimPrefix(c.Path, "/")
}

// Identity returns the request identity, falling back to the running
// binary's own identity for unset fields.
func (c *Config) Identity() request.Identity {
	id := request.DefaultIdentity()
	if c.AppConfig.Platform != "" {
		id.Platform = c.AppConfig.Platform
	}
	if c.AppConfig.PlatformVersion != "" {
		id.PlatformVersion = c.AppConfig.PlatformVersion
	}
	if c.AppConfig.AppVersion != "" {
		id.AppVersion = c.AppConfig.AppVersion
	}
	if c.AppConfig.AppBuild != "" {
		id.AppBuild = c.AppConfig.AppBuild
	}
	return id
}

// Logging returns the logger configuration.
func (c *Config) Logging() logging.Config {
	cfg := logging.DefaultConfig()
	if c.LogDevelopment {
		cfg = logging.DevelopmentConfig()
	}
	if c.LogLevel != "" {
		cfg.Level = c.LogLevel
	}
	return cfg
}
