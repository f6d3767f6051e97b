package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	// EnvPrefix is the envconfig prefix shared by every variable below.
	EnvPrefix = "TRADEHUB"

	AppEnvDev  = "development"
	AppEnvProd = "production"

	EnvAppEnv     = "TRADEHUB_APP_ENV"
	EnvAPIBaseURL = "TRADEHUB_API_BASE_URL"
	EnvJWTSecret  = "TRADEHUB_JWT_SECRET"
)

type Config struct {
	App     AppConfig
	API     APIConfig
	Session SessionConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.API.validateBaseURL(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"TRADEHUB_APP_ENV" default:"development"`
	LogLevel     string `envconfig:"TRADEHUB_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"TRADEHUB_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type APIConfig struct {
	BaseURL        string        `envconfig:"TRADEHUB_API_BASE_URL" required:"true"`
	RequestTimeout time.Duration `envconfig:"TRADEHUB_API_REQUEST_TIMEOUT" default:"10s"`
}

func (a *APIConfig) validateBaseURL() error {
	trimmed := strings.TrimSpace(a.BaseURL)
	if trimmed == "" {
		return fmt.Errorf("%s is required", EnvAPIBaseURL)
	}
	parsed, err := url.Parse(trimmed)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", EnvAPIBaseURL, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("%s must be an http(s) URL", EnvAPIBaseURL)
	}
	a.BaseURL = strings.TrimRight(trimmed, "/")
	return nil
}

type SessionConfig struct {
	Token             string `envconfig:"TRADEHUB_SESSION_TOKEN"`
	JWTSecret         string `envconfig:"TRADEHUB_JWT_SECRET"`
	JWTIssuer         string `envconfig:"TRADEHUB_JWT_ISSUER" default:"tradehub"`
	ExpirationMinutes int    `envconfig:"TRADEHUB_JWT_EXPIRATION_MINUTES" default:"60"`
}

// TokenTTL returns the session token TTL configured in minutes.
func (s SessionConfig) TokenTTL() time.Duration {
	if s.ExpirationMinutes <= 0 {
		return 0
	}
	return time.Duration(s.ExpirationMinutes) * time.Minute
}
