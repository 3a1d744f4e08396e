package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/okian/stagerank/internal/adapters/backend"
	"github.com/okian/stagerank/internal/adapters/http/api"
	"github.com/okian/stagerank/internal/adapters/http/swagger"
	"github.com/okian/stagerank/internal/adapters/repository"
	app "github.com/okian/stagerank/internal/app"
	"github.com/okian/stagerank/internal/config"
	"github.com/okian/stagerank/internal/session"
	"github.com/okian/stagerank/pkg/logger"
	"github.com/okian/stagerank/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
)

// HTTP server timeout constants.
const (
	readTimeout            = 10 * time.Second
	writeTimeout           = 30 * time.Second
	idleTimeout            = 60 * time.Second
	readHeaderTimeout      = 5 * time.Second
	shutdownTimeout        = 30 * time.Second
	serviceMetricsInterval = 5 * time.Second
)

var cfgFile string

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "stagerank",
		Short:         "Live performer leaderboards for open-mic venues",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&cfgFile, "config", "", "YAML config file (default: $STAGERANK_CONFIG)")

	root.AddCommand(serveCmd())
	root.AddCommand(twinCmd())
	root.AddCommand(leaderboardCmd())
	root.AddCommand(scoutCmd())
	root.AddCommand(loadCmd())

	return root
}

// setup loads configuration and applies its logging settings.
func setup(ctx context.Context) (*config.Config, error) {
	if err := logger.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize logging: %w", err)
	}
	path := cfgFile
	if path == "" {
		path = os.Getenv("STAGERANK_CONFIG")
	}
	cfg, err := config.LoadFrom(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := logger.Init(logger.WithFormat(cfg.LogFormat)); err != nil {
		return nil, fmt.Errorf("failed to initialize logging: %w", err)
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		logger.Get().Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}
	return cfg, nil
}

// newService builds the service from configuration. Snapshots and sessions
// share one SQLite database when snapshot_db is set and live in memory
// otherwise.
func newService(cfg *config.Config, log logger.Logger) (*app.Service, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	client := backend.New(cfg.BackendURL,
		backend.WithTimeout(cfg.BackendTimeout()),
		backend.WithRateLimit(cfg.BackendRPS, cfg.BackendBurst),
		backend.WithLogger(log.Named("backend")),
	)
	opts := []app.Option{
		app.WithLogger(log),
		app.WithWorkerCount(cfg.WorkerCount),
		app.WithQueueSize(cfg.QueueSize),
		app.WithDedupeSize(cfg.DedupeSize),
		app.WithMaxLeaderboardLimit(cfg.MaxLeaderboardLimit),
		app.WithTrendEpsilon(cfg.TrendEpsilon),
		app.WithXPWindow(cfg.XPCheckpointAge()),
		app.WithLevelsTTL(cfg.LevelsTTL()),
		app.WithLocation(loc),
	}
	if cfg.SnapshotDB != "" {
		store, err := repository.OpenSQLite(cfg.SnapshotDB)
		if err != nil {
			return nil, err
		}
		sessions, err := session.NewSQLiteStore(store.DB())
		if err != nil {
			_ = store.Close()
			return nil, err
		}
		opts = append(opts, app.WithSnapshotStore(store), app.WithSessionStore(sessions))
	}
	return app.New(client, opts...), nil
}

func serveCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			cfg, err := setup(ctx)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Addr = addr
			}
			return runServe(ctx, cfg)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default: from config)")
	return cmd
}

func runServe(ctx context.Context, cfg *config.Config) error {
	log := logger.Get()
	defer func() {
		if err := logger.Sync(); err != nil {
			log.Error(ctx, "failed to sync logger", logger.Error(err))
		}
	}()

	registerRuntimeCollectors()

	svc, err := newService(cfg, log)
	if err != nil {
		return fmt.Errorf("failed to create service: %w", err)
	}
	if err := svc.Start(ctx); err != nil {
		return fmt.Errorf("failed to start service: %w", err)
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := svc.Stop(stopCtx); err != nil {
			log.Error(stopCtx, "service shutdown failed", logger.Error(err))
		}
	}()

	go startServiceMetricsUpdater(ctx, svc)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           newMux(ctx, svc, cfg.MaxLeaderboardLimit),
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}
	return serveUntilDone(ctx, srv, log)
}

func newMux(ctx context.Context, svc *app.Service, maxLimit int) *http.ServeMux {
	mux := http.NewServeMux()
	swagger.Register(ctx, mux)
	api.NewServer(svc, svc, maxLimit).Register(ctx, mux)
	return mux
}

// serveUntilDone runs srv until ctx ends, then shuts it down gracefully.
func serveUntilDone(ctx context.Context, srv *http.Server, log logger.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("HTTP server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
		return err
	}
	log.Info(ctx, "server stopped")
	return nil
}

// registerRuntimeCollectors adds Go runtime and process metrics to the
// service registry. Repeated calls are harmless.
func registerRuntimeCollectors() {
	for _, c := range []prometheus.Collector{
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	} {
		var already prometheus.AlreadyRegisteredError
		if err := metrics.GetRegistry().Register(c); err != nil && !errors.As(err, &already) {
			logger.Get().Warn(context.Background(), "failed to register runtime collector", logger.Error(err))
		}
	}
}

// startServiceMetricsUpdater refreshes service gauges until ctx ends.
func startServiceMetricsUpdater(ctx context.Context, svc *app.Service) {
	ticker := time.NewTicker(serviceMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateServiceMetrics(svc)
		}
	}
}

func updateServiceMetrics(svc *app.Service) {
	stats := svc.GetStats()
	if queueLen, ok := stats["queueLength"].(int); ok {
		metrics.UpdateQueueSize(queueLen)
	}
	if workerCount, ok := stats["workerCount"].(int); ok {
		metrics.UpdateWorkerCount(workerCount)
	}
}
