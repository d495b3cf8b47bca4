package config

import (
	"testing"
	"time"
)

func TestLoadRequiresCore(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("REDIS_URL", "")
	t.Setenv("JWT_SECRET", "")

	if _, err := Load(); err == nil {
		t.Fatal("expected error when DATABASE_URL missing")
	}

	t.Setenv("DATABASE_URL", "postgres://localhost/localpay")
	if _, err := Load(); err == nil {
		t.Fatal("expected error when REDIS_URL missing")
	}

	t.Setenv("REDIS_URL", "redis://localhost:6379")
	if _, err := Load(); err == nil {
		t.Fatal("expected error when JWT_SECRET missing")
	}

	t.Setenv("JWT_SECRET", "test-secret")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.AppName != defaultAppName || cfg.Port != defaultPort {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.PendingMaxAge != defaultPendingMaxAge || cfg.SweepInterval != defaultSweepInterval {
		t.Fatalf("unexpected sweep defaults: %+v", cfg)
	}
	if cfg.PaynowInitiateURL != defaultPaynowInitiateURL {
		t.Fatalf("unexpected paynow endpoint: %s", cfg.PaynowInitiateURL)
	}
}

func TestLoadDurations(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/localpay")
	t.Setenv("REDIS_URL", "redis://localhost:6379")
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("SHUTDOWN_TIMEOUT_SECONDS", "5")
	t.Setenv("IDEMPOTENCY_TTL", "2h")
	t.Setenv("PENDING_MAX_AGE", "48h")
	t.Setenv("ACCESS_TOKEN_TTL", "30m")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ShutdownPeriod != 5*time.Second {
		t.Fatalf("expected 5s shutdown, got %s", cfg.ShutdownPeriod)
	}
	if cfg.IdempotencyTTL != 2*time.Hour {
		t.Fatalf("expected 2h idempotency ttl, got %s", cfg.IdempotencyTTL)
	}
	if cfg.PendingMaxAge != 48*time.Hour {
		t.Fatalf("expected 48h pending max age, got %s", cfg.PendingMaxAge)
	}
	if cfg.AccessTokenTTL != 30*time.Minute {
		t.Fatalf("expected 30m access ttl, got %s", cfg.AccessTokenTTL)
	}

	t.Setenv("SWEEP_INTERVAL", "bogus")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for invalid SWEEP_INTERVAL")
	}
}

func TestAddress(t *testing.T) {
	if got := (Config{Port: "9090"}).Address(); got != ":9090" {
		t.Fatalf("expected :9090, got %s", got)
	}
	if got := (Config{Port: ":9090"}).Address(); got != ":9090" {
		t.Fatalf("expected :9090, got %s", got)
	}
}
