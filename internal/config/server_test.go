package config

import (
	"testing"
	"time"
)

func TestLoadServerDefaults(t *testing.T) {
	cfg, err := LoadServer()
	if err != nil {
		t.Fatalf("LoadServer() error = %v", err)
	}
	if cfg.HTTPAddr != ":8080" {
		t.Fatalf("HTTPAddr = %q, want :8080", cfg.HTTPAddr)
	}
	if cfg.PostgresDSN != "" {
		t.Fatalf("PostgresDSN = %q, want empty", cfg.PostgresDSN)
	}
	if cfg.EventBufferSize != 500 {
		t.Fatalf("EventBufferSize = %d, want 500", cfg.EventBufferSize)
	}
	if cfg.SpectatorPushEnabled || cfg.SpectatorPushWorkers != 2 || cfg.SpectatorPushRetryMax != 3 {
		t.Fatalf("unexpected push defaults: %+v", cfg)
	}
}

func TestLoadServerParseTypes(t *testing.T) {
	t.Setenv("POSTGRES_DSN", "postgres://localhost:5432/kyoku?sslmode=disable")
	t.Setenv("EVENT_BUFFER_SIZE", "64")
	t.Setenv("MAX_TABLES", "3")

	cfg, err := LoadServer()
	if err != nil {
		t.Fatalf("LoadServer() error = %v", err)
	}
	if cfg.EventBufferSize != 64 || cfg.MaxTables != 3 {
		t.Fatalf("unexpected server config: %+v", cfg)
	}
}

func TestLoadServerRejectsBadNumber(t *testing.T) {
	t.Setenv("EVENT_BUFFER_SIZE", "many")

	if _, err := LoadServer(); err == nil {
		t.Fatal("LoadServer() expected error, got nil")
	}
}

func TestLoadRound(t *testing.T) {
	t.Setenv("POLL_MAX", "250ms")
	t.Setenv("CALL_TIMEOUT", "3s")
	t.Setenv("WALL_SEED", "42")

	cfg, err := LoadRound()
	if err != nil {
		t.Fatalf("LoadRound() error = %v", err)
	}
	if cfg.PollMin != 2*time.Millisecond {
		t.Fatalf("PollMin = %v, want 2ms", cfg.PollMin)
	}
	if cfg.PollMax != 250*time.Millisecond || cfg.CallTimeout != 3*time.Second || cfg.WallSeed != 42 {
		t.Fatalf("unexpected round config: %+v", cfg)
	}
}

func TestLoadApp(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("LOG_LEVEL", "warn")

	cfg, err := LoadApp()
	if err != nil {
		t.Fatalf("LoadApp() error = %v", err)
	}
	if cfg.Server.HTTPAddr != ":9090" || cfg.Log.Level != "warn" || cfg.Round.DiscardTimeout != 20*time.Second {
		t.Fatalf("unexpected app config: %+v", cfg)
	}
}
