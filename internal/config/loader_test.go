package config_test

import (
	"strings"
	"testing"
	"time"

	"github.com/MrWong99/drivegate/internal/config"
)

func TestLoadFromReader_Valid(t *testing.T) {
	t.Parallel()
	yaml := `
server:
  log_level: debug
  transport: streamable-http
  listen_addr: ":8080"
  metrics_addr: ":9090"
backend:
  name: localdir
  root_dir: /srv/drivegate
tools:
  default_mode: full
cache:
  sweep_interval: 90s
`
	cfg, err := config.LoadFromReader(strings.NewReader(yaml))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.LogLevel != config.LogDebug {
		t.Errorf("log_level = %q", cfg.Server.LogLevel)
	}
	if cfg.Server.Transport != config.TransportStreamableHTTP {
		t.Errorf("transport = %q", cfg.Server.Transport)
	}
	if cfg.Backend.RootDir != "/srv/drivegate" {
		t.Errorf("root_dir = %q", cfg.Backend.RootDir)
	}
	if cfg.Tools.DefaultMode != config.ModeFull {
		t.Errorf("default_mode = %q", cfg.Tools.DefaultMode)
	}
	if got := cfg.Cache.EffectiveSweepInterval(); got != 90*time.Second {
		t.Errorf("sweep interval = %v, want 90s", got)
	}
}

func TestLoadFromReader_UnknownField(t *testing.T) {
	t.Parallel()
	yaml := `
backend:
  name: localdir
  root_dir: /srv/drivegate
  root_dri: /typo
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected error for unknown field, got nil")
	}
}

func TestValidate_InvalidLogLevel(t *testing.T) {
	t.Parallel()
	yaml := `
server:
  log_level: verbose
backend:
  name: localdir
  root_dir: /srv/drivegate
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected error for invalid log level, got nil")
	}
	if !strings.Contains(err.Error(), "server.log_level") {
		t.Errorf("error should mention server.log_level, got: %v", err)
	}
}

func TestValidate_InvalidTransport(t *testing.T) {
	t.Parallel()
	yaml := `
server:
  transport: websocket
backend:
  name: localdir
  root_dir: /srv/drivegate
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected error for invalid transport, got nil")
	}
	if !strings.Contains(err.Error(), "server.transport") {
		t.Errorf("error should mention server.transport, got: %v", err)
	}
}

func TestValidate_StreamableHTTPRequiresListenAddr(t *testing.T) {
	t.Parallel()
	yaml := `
server:
  transport: streamable-http
backend:
  name: localdir
  root_dir: /srv/drivegate
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected error for missing listen_addr, got nil")
	}
	if !strings.Contains(err.Error(), "listen_addr") {
		t.Errorf("error should mention listen_addr, got: %v", err)
	}
}

func TestValidate_BackendNameRequired(t *testing.T) {
	t.Parallel()
	yaml := `
server:
  log_level: info
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected error for missing backend name, got nil")
	}
	if !strings.Contains(err.Error(), "backend.name") {
		t.Errorf("error should mention backend.name, got: %v", err)
	}
}

func TestValidate_LocaldirRequiresRootDir(t *testing.T) {
	t.Parallel()
	yaml := `
backend:
  name: localdir
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected error for missing root_dir, got nil")
	}
	if !strings.Contains(err.Error(), "backend.root_dir") {
		t.Errorf("error should mention backend.root_dir, got: %v", err)
	}
}

func TestValidate_InvalidDefaultMode(t *testing.T) {
	t.Parallel()
	yaml := `
backend:
  name: localdir
  root_dir: /srv/drivegate
tools:
  default_mode: everything
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected error for invalid default mode, got nil")
	}
	if !strings.Contains(err.Error(), "tools.default_mode") {
		t.Errorf("error should mention tools.default_mode, got: %v", err)
	}
}

func TestLoadFromReader_Breaker(t *testing.T) {
	t.Parallel()
	yaml := `
backend:
  name: localdir
  root_dir: /srv/drivegate
  breaker:
    enabled: true
    max_failures: 3
    reset_timeout: 1m
`
	cfg, err := config.LoadFromReader(strings.NewReader(yaml))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !cfg.Backend.Breaker.Enabled {
		t.Error("breaker should be enabled")
	}
	if cfg.Backend.Breaker.MaxFailures != 3 {
		t.Errorf("max_failures = %d", cfg.Backend.Breaker.MaxFailures)
	}
	if cfg.Backend.Breaker.ResetTimeout.Std() != time.Minute {
		t.Errorf("reset_timeout = %v", cfg.Backend.Breaker.ResetTimeout.Std())
	}
}

func TestValidate_InvalidDuration(t *testing.T) {
	t.Parallel()
	yaml := `
backend:
  name: localdir
  root_dir: /srv/drivegate
cache:
  sweep_interval: soon
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected error for invalid duration, got nil")
	}
	if !strings.Contains(err.Error(), "invalid duration") {
		t.Errorf("error should mention the invalid duration, got: %v", err)
	}
}

func TestEffectiveSweepInterval_Default(t *testing.T) {
	t.Parallel()
	var c config.CacheConfig
	if got := c.EffectiveSweepInterval(); got != config.DefaultSweepInterval {
		t.Errorf("default sweep interval = %v, want %v", got, config.DefaultSweepInterval)
	}
}
