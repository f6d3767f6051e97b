package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad_Success(t *testing.T) {
	setMinimalEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}

	if cfg.App.Env != "production" {
		t.Fatalf("expected App.Env to be production, got %q", cfg.App.Env)
	}
	if !cfg.App.IsProd() {
		t.Fatalf("expected IsProd to be true for %q", cfg.App.Env)
	}

	if cfg.API.BaseURL != "https://api.tradehub.test" {
		t.Fatalf("unexpected base URL %q", cfg.API.BaseURL)
	}

	if got := cfg.API.RequestTimeout; got != 10*time.Second {
		t.Fatalf("expected default request timeout 10s, got %v", got)
	}

	if got := cfg.Session.TokenTTL(); got != time.Hour {
		t.Fatalf("expected default token TTL 1h, got %v", got)
	}
}

func TestLoad_MissingRequired(t *testing.T) {
	setMinimalEnv(t)
	if err := os.Unsetenv(EnvAPIBaseURL); err != nil {
		t.Fatalf("failed to unset %s: %v", EnvAPIBaseURL, err)
	}

	if _, err := Load(); err == nil {
		t.Fatal("expected missing required env to return an error")
	}
}

func TestLoad_TrailingSlashTrimmed(t *testing.T) {
	setMinimalEnv(t)
	t.Setenv(EnvAPIBaseURL, "https://api.tradehub.test/")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}
	if cfg.API.BaseURL != "https://api.tradehub.test" {
		t.Fatalf("expected trailing slash trimmed, got %q", cfg.API.BaseURL)
	}
}

func TestLoad_RejectsNonHTTPBaseURL(t *testing.T) {
	setMinimalEnv(t)
	t.Setenv(EnvAPIBaseURL, "ftp://api.tradehub.test")

	if _, err := Load(); err == nil {
		t.Fatal("expected non-http base URL to return an error")
	}
}

func setMinimalEnv(t *testing.T) {
	t.Helper()

	t.Setenv(EnvAppEnv, "production")
	t.Setenv(EnvAPIBaseURL, "https://api.tradehub.test")
	t.Setenv(EnvJWTSecret, "test-secret")
}
