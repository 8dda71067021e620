package config

import (
	"testing"
	"time"
)

func TestFromEnvDefaults(t *testing.T) {
	cfg := FromEnv()
	if cfg.HTTPAddr != ":8080" {
		t.Fatalf("HTTPAddr = %q", cfg.HTTPAddr)
	}
	if cfg.LogLevel != "info" || cfg.LogFormat != "json" {
		t.Fatalf("log defaults = %q/%q", cfg.LogLevel, cfg.LogFormat)
	}
	if cfg.RateLimitRequests != 0 {
		t.Fatalf("rate limiting enabled by default: %d", cfg.RateLimitRequests)
	}
	if cfg.RateLimitWindow() != time.Minute {
		t.Fatalf("window = %v", cfg.RateLimitWindow())
	}
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9999")
	t.Setenv("POSTGRES_DSN", "host=localhost dbname=tierguard")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("ADMIN_API_KEY", "secret")
	t.Setenv("RATE_LIMIT_REQUESTS", "30")
	t.Setenv("RATE_LIMIT_WINDOW_SECONDS", "120")
	t.Setenv("REDIS_ADDR", "localhost:6379")

	cfg := FromEnv()
	if cfg.HTTPAddr != ":9999" || cfg.PostgresDSN == "" {
		t.Fatalf("cfg = %+v", cfg)
	}
	if cfg.LogLevel != "debug" || cfg.AdminAPIKey != "secret" {
		t.Fatalf("cfg = %+v", cfg)
	}
	if cfg.RateLimitRequests != 30 || cfg.RateLimitWindow() != 2*time.Minute {
		t.Fatalf("rate limit cfg = %d/%v", cfg.RateLimitRequests, cfg.RateLimitWindow())
	}
	if cfg.RedisAddr != "localhost:6379" {
		t.Fatalf("redis addr = %q", cfg.RedisAddr)
	}
}

func TestEnvIntDefaultRejectsGarbage(t *testing.T) {
	t.Setenv("RATE_LIMIT_REQUESTS", "not-a-number")
	t.Setenv("RATE_LIMIT_WINDOW_SECONDS", "-5")
	cfg := FromEnv()
	if cfg.RateLimitRequests != 0 {
		t.Fatalf("RateLimitRequests = %d", cfg.RateLimitRequests)
	}
	if cfg.RateLimitWindowSeconds != 60 {
		t.Fatalf("RateLimitWindowSeconds = %d", cfg.RateLimitWindowSeconds)
	}
}
