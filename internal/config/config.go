// Package config provides the configuration schema, loader, and backend
// registry for the Drivegate server.
package config

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// LogLevel controls log verbosity for the Drivegate server.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is a recognised log level.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	}
	return false
}

// Transport selects how the MCP server is exposed to clients.
type Transport string

const (
	// TransportStdio serves MCP over stdin/stdout. This is the default and
	// the mode most MCP clients launch subprocess servers with.
	TransportStdio Transport = "stdio"

	// TransportStreamableHTTP serves MCP over the streamable HTTP transport.
	TransportStreamableHTTP Transport = "streamable-http"
)

// IsValid reports whether t is a recognised transport.
func (t Transport) IsValid() bool {
	return t == TransportStdio || t == TransportStreamableHTTP
}

// Mode selects how fetch tools shape their default response.
type Mode string

const (
	// ModeSummary responds with resource metadata and URIs instead of the
	// full text, keeping tool responses small.
	ModeSummary Mode = "summary"

	// ModeFull responds with the full (truncated) text.
	ModeFull Mode = "full"
)

// IsValid reports whether m is a recognised response mode.
func (m Mode) IsValid() bool {
	return m == ModeSummary || m == ModeFull
}

// Duration wraps [time.Duration] with YAML unmarshalling from strings like
// "5m" or "90s".
type Duration time.Duration

// UnmarshalYAML implements [yaml.Unmarshaler].
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns d as a [time.Duration].
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Config is the root configuration structure for Drivegate.
// It is typically loaded from a YAML file using [Load] or [LoadFromReader].
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Backend BackendConfig `yaml:"backend"`
	Tools   ToolsConfig   `yaml:"tools"`
	Cache   CacheConfig   `yaml:"cache"`
}

// ServerConfig holds transport, network, and logging settings.
type ServerConfig struct {
	// LogLevel controls verbosity.
	LogLevel LogLevel `yaml:"log_level"`

	// Transport selects how the MCP server is exposed.
	// Empty means stdio.
	Transport Transport `yaml:"transport"`

	// ListenAddr is the TCP address for the streamable-http transport
	// (e.g., ":8080"). Ignored for stdio.
	ListenAddr string `yaml:"listen_addr"`

	// MetricsAddr is the TCP address for the Prometheus /metrics endpoint.
	// Empty disables the metrics listener.
	MetricsAddr string `yaml:"metrics_addr"`
}

// BackendConfig selects and configures the content backend. The Name field
// is used to look up the factory in the [Registry].
type BackendConfig struct {
	// Name selects the registered backend implementation (e.g., "localdir").
	Name string `yaml:"name"`

	// RootDir is the content root for the localdir backend.
	RootDir string `yaml:"root_dir"`

	// Options holds backend-specific configuration values not covered by
	// the standard fields above.
	Options map[string]any `yaml:"options"`

	// Breaker tunes the circuit breaker wrapped around backend fetches.
	Breaker BreakerConfig `yaml:"breaker"`
}

// BreakerConfig configures circuit breaking for backend fetches. When the
// breaker is open, fetch tools fail fast instead of waiting out another
// backend timeout, and the /readyz probe reports the instance as not ready.
type BreakerConfig struct {
	// Enabled turns the breaker on. Off by default; the localdir backend
	// rarely needs one, remote backends usually do.
	Enabled bool `yaml:"enabled"`

	// MaxFailures is the number of consecutive fetch failures before the
	// breaker opens. Zero means the package default (5).
	MaxFailures int `yaml:"max_failures"`

	// ResetTimeout is how long the breaker stays open before probing the
	// backend again. Zero means the package default (30s).
	ResetTimeout Duration `yaml:"reset_timeout"`
}

// ToolsConfig holds settings shared by the fetch tools.
type ToolsConfig struct {
	// DefaultMode selects the response shape when a tool call does not ask
	// for one explicitly. Empty means summary.
	DefaultMode Mode `yaml:"default_mode"`
}

// CacheConfig holds settings for the resource cache.
type CacheConfig struct {
	// SweepInterval is how often expired entries are swept out in the
	// background. Zero means the 5 minute default.
	SweepInterval Duration `yaml:"sweep_interval"`
}

// DefaultSweepInterval is used when cache.sweep_interval is not configured.
const DefaultSweepInterval = 5 * time.Minute

// EffectiveSweepInterval returns the configured sweep interval, or
// [DefaultSweepInterval] when unset.
func (c CacheConfig) EffectiveSweepInterval() time.Duration {
	if c.SweepInterval <= 0 {
		return DefaultSweepInterval
	}
	return c.SweepInterval.Std()
}
