package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

// ValidBackendNames lists known backend names. Used by [Validate] to warn
// about unrecognised names before the registry lookup fails at startup.
var ValidBackendNames = []string{"localdir", "googleapi"}

// Load reads the YAML configuration file at path and returns a validated [Config].
// It is a convenience wrapper around [LoadFromReader] and [Validate].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r and validates the result.
// Useful in tests where configs are constructed from string literals.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	// Server
	if cfg.Server.LogLevel != "" && !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}
	if cfg.Server.Transport != "" && !cfg.Server.Transport.IsValid() {
		errs = append(errs, fmt.Errorf("server.transport %q is invalid; valid values: stdio, streamable-http", cfg.Server.Transport))
	}
	if cfg.Server.Transport == TransportStreamableHTTP && cfg.Server.ListenAddr == "" {
		errs = append(errs, errors.New("server.listen_addr is required when transport is streamable-http"))
	}

	// Backend
	if cfg.Backend.Name == "" {
		errs = append(errs, errors.New("backend.name is required"))
	} else if !slices.Contains(ValidBackendNames, cfg.Backend.Name) {
		slog.Warn("unknown backend name — may be a typo or third-party backend",
			"name", cfg.Backend.Name,
			"known", ValidBackendNames,
		)
	}
	if cfg.Backend.Name == "localdir" && cfg.Backend.RootDir == "" {
		errs = append(errs, errors.New("backend.root_dir is required for the localdir backend"))
	}
	if cfg.Backend.Breaker.MaxFailures < 0 {
		errs = append(errs, errors.New("backend.breaker.max_failures must not be negative"))
	}
	if cfg.Backend.Breaker.ResetTimeout < 0 {
		errs = append(errs, errors.New("backend.breaker.reset_timeout must not be negative"))
	}

	// Tools
	if cfg.Tools.DefaultMode != "" && !cfg.Tools.DefaultMode.IsValid() {
		errs = append(errs, fmt.Errorf("tools.default_mode %q is invalid; valid values: summary, full", cfg.Tools.DefaultMode))
	}

	// Cache
	if cfg.Cache.SweepInterval < 0 {
		errs = append(errs, fmt.Errorf("cache.sweep_interval must not be negative"))
	}

	return errors.Join(errs...)
}
