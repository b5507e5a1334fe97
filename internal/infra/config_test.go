package infra

import (
	"testing"
	"time"
)

func TestLoadConfigRequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")

	if _, err := LoadConfig(); err == nil {
		t.Fatal("LoadConfig expected error without DATABASE_URL")
	}
}

func TestLoadConfigWorkerDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://example")
	t.Setenv("WORKER_POLL_INTERVAL_SECONDS", "")
	t.Setenv("WORKER_BATCH_SIZE", "")
	t.Setenv("WORKER_MAX_ATTEMPTS", "")
	t.Setenv("WORKER_CALL_TIMEOUT_SECONDS", "")
	t.Setenv("WORKER_WAKE_ON_NOTIFY", "")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.WorkerPollInterval != 5*time.Second {
		t.Fatalf("WorkerPollInterval = %s, want 5s", cfg.WorkerPollInterval)
	}
	if cfg.WorkerBatchSize != 2 {
		t.Fatalf("WorkerBatchSize = %d, want 2", cfg.WorkerBatchSize)
	}
	if cfg.WorkerMaxAttempts != 0 {
		t.Fatalf("WorkerMaxAttempts = %d, want 0", cfg.WorkerMaxAttempts)
	}
	if cfg.WorkerCallTimeout != 0 {
		t.Fatalf("WorkerCallTimeout = %s, want 0", cfg.WorkerCallTimeout)
	}
	if !cfg.WorkerWakeOnNotify {
		t.Fatal("WorkerWakeOnNotify = false, want true")
	}
}

func TestLoadConfigClampsInvalidWorkerValues(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://example")
	t.Setenv("WORKER_POLL_INTERVAL_SECONDS", "-3")
	t.Setenv("WORKER_BATCH_SIZE", "0")
	t.Setenv("WORKER_CALL_TIMEOUT_SECONDS", "-1")
	t.Setenv("WORKER_WAKE_ON_NOTIFY", "false")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.WorkerPollInterval != 5*time.Second {
		t.Fatalf("WorkerPollInterval = %s, want 5s", cfg.WorkerPollInterval)
	}
	if cfg.WorkerBatchSize != 2 {
		t.Fatalf("WorkerBatchSize = %d, want 2", cfg.WorkerBatchSize)
	}
	if cfg.WorkerCallTimeout != 0 {
		t.Fatalf("WorkerCallTimeout = %s, want 0", cfg.WorkerCallTimeout)
	}
	if cfg.WorkerWakeOnNotify {
		t.Fatal("WorkerWakeOnNotify = true, want false")
	}
}

func TestLoadConfigSplitsCORSOrigins(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://example")
	t.Setenv("CORS_ALLOWED_ORIGINS", " https://app.example.com, ,http://localhost:5173 ")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	expected := []string{"https://app.example.com", "http://localhost:5173"}
	if len(cfg.CORSAllowedOrigins) != len(expected) {
		t.Fatalf("CORSAllowedOrigins mismatch: got %#v want %#v", cfg.CORSAllowedOrigins, expected)
	}
	for i, origin := range expected {
		if cfg.CORSAllowedOrigins[i] != origin {
			t.Fatalf("CORSAllowedOrigins[%d] = %q, want %q", i, cfg.CORSAllowedOrigins[i], origin)
		}
	}
}

func TestRequireAPINeedsJWTSecret(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://example")
	t.Setenv("JWT_SECRET", "")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if err := cfg.RequireAPI(); err == nil {
		t.Fatal("RequireAPI expected error without JWT_SECRET")
	}

	cfg.JWTSecret = "secret"
	if err := cfg.RequireAPI(); err != nil {
		t.Fatalf("RequireAPI returned error: %v", err)
	}
}

func TestLoadConfigDatabaseMaxConns(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://example")
	t.Setenv("DATABASE_MAX_CONNS", "-4")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.DatabaseMaxConns != 10 {
		t.Fatalf("DatabaseMaxConns = %d, want 10", cfg.DatabaseMaxConns)
	}

	t.Setenv("DATABASE_MAX_CONNS", "4")
	cfg, err = LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.DatabaseMaxConns != 4 {
		t.Fatalf("DatabaseMaxConns = %d, want 4", cfg.DatabaseMaxConns)
	}
}
