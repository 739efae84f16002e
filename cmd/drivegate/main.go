// Command drivegate is the main entry point for the Drivegate MCP server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MrWong99/drivegate/internal/app"
	"github.com/MrWong99/drivegate/internal/config"
	"github.com/MrWong99/drivegate/internal/drive"
	"github.com/MrWong99/drivegate/internal/drive/localdir"
	"github.com/MrWong99/drivegate/internal/observe"
)

// version is overridden at build time via -ldflags.
var version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "drivegate: config file %q not found\n", *configPath)
		} else {
			fmt.Fprintf(os.Stderr, "drivegate: %v\n", err)
		}
		return 1
	}

	// The logger must write to stderr: with the stdio transport, stdout
	// belongs to the MCP protocol stream.
	logger := newLogger(cfg.Server.LogLevel)
	slog.SetDefault(logger)

	slog.Info("drivegate starting",
		"version", version,
		"config", *configPath,
		"transport", cfg.Server.Transport,
		"backend", cfg.Backend.Name,
		"log_level", cfg.Server.LogLevel,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Telemetry providers, with the Prometheus bridge behind /metrics.
	otelShutdown, err := observe.InitProvider(ctx, observe.ProviderConfig{
		ServiceName:    "drivegate",
		ServiceVersion: version,
	})
	if err != nil {
		slog.Error("failed to initialise telemetry", "err", err)
		return 1
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := otelShutdown(shutdownCtx); err != nil {
			slog.Warn("telemetry shutdown error", "err", err)
		}
	}()

	reg := config.NewRegistry()
	registerBuiltinBackends(reg)

	application, err := app.New(ctx, cfg, reg, version)
	if err != nil {
		slog.Error("failed to initialise application", "err", err)
		return 1
	}
	defer application.Shutdown()

	slog.Info("server ready")

	if err := application.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("run error", "err", err)
		return 1
	}

	slog.Info("shutdown signal received, stopping")
	return 0
}

// registerBuiltinBackends wires the backend factories that ship with
// Drivegate into reg.
func registerBuiltinBackends(reg *config.Registry) {
	reg.RegisterBackend("localdir", func(cfg config.BackendConfig) (drive.Service, error) {
		return localdir.New(cfg.RootDir)
	})
}

func newLogger(level config.LogLevel) *slog.Logger {
	var lvl slog.Level
	switch level {
	case config.LogDebug:
		lvl = slog.LevelDebug
	case config.LogWarn:
		lvl = slog.LevelWarn
	case config.LogError:
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
