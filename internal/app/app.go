// Package app wires the Drivegate subsystems into a running application.
//
// The App struct owns the full lifecycle: New wires the backend, cache,
// and MCP server together, Run executes the serving loops, and Shutdown
// tears everything down in order.
//
// For testing, inject doubles via functional options (WithBackend,
// WithCache, WithMetrics). When an option is not provided, New creates
// real implementations from the config.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/MrWong99/drivegate/internal/config"
	"github.com/MrWong99/drivegate/internal/drive"
	"github.com/MrWong99/drivegate/internal/health"
	"github.com/MrWong99/drivegate/internal/observe"
	"github.com/MrWong99/drivegate/internal/rescache"
	"github.com/MrWong99/drivegate/internal/resilience"
	"github.com/MrWong99/drivegate/internal/server"
)

// App owns all subsystem lifetimes for the Drivegate server.
type App struct {
	cfg     *config.Config
	version string

	backend drive.Service
	cache   *rescache.Cache
	metrics *observe.Metrics
	srv     *server.Server

	// guard is non-nil when backend.breaker.enabled wraps the backend in a
	// circuit breaker.
	guard *resilience.Guard

	// checks feed the /readyz probe on the metrics listener.
	checks []health.Checker

	// closers are called in order during Shutdown.
	closers []func() error

	// stopOnce guards the Shutdown path.
	stopOnce sync.Once
}

// Option is a functional option for New. Use these to inject test doubles.
type Option func(*App)

// WithBackend injects a backend instead of creating one from the registry.
func WithBackend(s drive.Service) Option {
	return func(a *App) { a.backend = s }
}

// WithCache injects a cache instead of creating a fresh one.
func WithCache(c *rescache.Cache) Option {
	return func(a *App) { a.cache = c }
}

// WithMetrics injects a metrics instance instead of the package default.
func WithMetrics(m *observe.Metrics) Option {
	return func(a *App) { a.metrics = m }
}

// New creates an App by wiring all subsystems together. The registry maps
// backend.name to a factory; main.go registers the built-in backends
// before calling New.
func New(ctx context.Context, cfg *config.Config, registry *config.Registry, version string, opts ...Option) (*App, error) {
	a := &App{cfg: cfg, version: version}
	for _, o := range opts {
		o(a)
	}

	if a.backend == nil {
		backend, err := registry.CreateBackend(cfg.Backend)
		if err != nil {
			return nil, fmt.Errorf("app: create backend: %w", err)
		}
		a.backend = backend
	}
	if a.cache == nil {
		a.cache = rescache.New()
	}
	if a.metrics == nil {
		a.metrics = observe.DefaultMetrics()
	}

	// Register the closer and readiness probe before wrapping so both
	// reach the real backend.
	if closer, ok := a.backend.(interface{ Close() error }); ok {
		a.closers = append(a.closers, closer.Close)
	}
	if pinger, ok := a.backend.(interface{ Ping(context.Context) error }); ok {
		a.checks = append(a.checks, health.Checker{Name: "backend", Check: pinger.Ping})
	}

	if cfg.Backend.Breaker.Enabled {
		a.guard = resilience.Wrap(a.backend, resilience.NewBreaker(resilience.BreakerConfig{
			Name:         cfg.Backend.Name,
			MaxFailures:  cfg.Backend.Breaker.MaxFailures,
			ResetTimeout: cfg.Backend.Breaker.ResetTimeout.Std(),
		}))
		a.backend = a.guard
		a.checks = append(a.checks, health.Checker{Name: "circuit", Check: func(context.Context) error {
			if a.guard.Breaker().State() == resilience.StateOpen {
				return resilience.ErrCircuitOpen
			}
			return nil
		}})
	}

	a.srv = server.New(server.Options{
		Version:     version,
		Backend:     a.backend,
		BackendName: cfg.Backend.Name,
		Cache:       a.cache,
		Metrics:     a.metrics,
		DefaultMode: cfg.Tools.DefaultMode,
	})

	return a, nil
}

// Run starts the serving loops and blocks until ctx is cancelled or a loop
// fails: the MCP server on its configured transport, the Prometheus
// metrics listener when server.metrics_addr is set, and the periodic
// cache sweep.
func (a *App) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return a.srv.Run(ctx, a.cfg.Server)
	})

	if addr := a.cfg.Server.MetricsAddr; addr != "" {
		g.Go(func() error {
			return a.runMetricsServer(ctx, addr)
		})
	}

	g.Go(func() error {
		a.runSweeper(ctx)
		return nil
	})

	slog.Info("app running",
		"transport", a.cfg.Server.Transport,
		"backend", a.cfg.Backend.Name,
	)
	return g.Wait()
}

// runMetricsServer serves /metrics and the health probes until ctx is
// cancelled.
func (a *App) runMetricsServer(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	health.New(a.version, a.checks...).Register(mux)

	srv := &http.Server{Addr: addr, Handler: mux}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		return ctx.Err()
	case err := <-errCh:
		return fmt.Errorf("app: metrics listener on %q: %w", addr, err)
	}
}

// runSweeper periodically removes expired cache entries so resources that
// are never read again cannot accumulate for the life of the process.
func (a *App) runSweeper(ctx context.Context) {
	interval := a.cfg.Cache.EffectiveSweepInterval()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed := a.cache.Cleanup()
			a.metrics.RecordEvictions(ctx, removed)
			if removed > 0 {
				slog.Debug("swept expired cache entries", "removed", removed)
			}
		}
	}
}

// Shutdown tears down all subsystems in order. Safe to call more than
// once; only the first call has effect.
func (a *App) Shutdown() {
	a.stopOnce.Do(func() {
		for _, closeFn := range a.closers {
			if err := closeFn(); err != nil {
				slog.Error("shutdown error", "err", err)
			}
		}
		slog.Info("app stopped")
	})
}
