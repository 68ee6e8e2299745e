package commands

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/trace"

	"github.com/numpex/exa-di-g5k-dashboard/internal/cache"
	"github.com/numpex/exa-di-g5k-dashboard/internal/config"
	"github.com/numpex/exa-di-g5k-dashboard/internal/history"
	"github.com/numpex/exa-di-g5k-dashboard/internal/observability"
	"github.com/numpex/exa-di-g5k-dashboard/internal/results"
)

// serveShutdownTimeout bounds the drain of in-flight requests on SIGINT or
// SIGTERM.
const serveShutdownTimeout = 10 * time.Second

// historySnapshotName is the basename of the persisted history cache.
const historySnapshotName = "history"

// Server holds the serve-mode state: the wired data pipeline, the query
// caches in front of it, and the telemetry collaborators.
type Server struct {
	cfg    *config.Config
	logger *slog.Logger

	apps      applicationLister
	records   resultLoader
	histories historyReconstructor

	appsCache    *cache.Cache[[]string]
	resultsCache *cache.Cache[[]results.Record]
	historyCache *cache.Cache[history.History]

	tracer         trace.Tracer
	metrics        *observability.REDMetrics
	metricsHandler http.Handler
}

// newServer wires a [Server] from an assembled pipeline. tracer, metrics and
// metricsHandler may be nil; the routes degrade to plain handlers.
func newServer(pl *pipeline, tracer trace.Tracer, metrics *observability.REDMetrics, metricsHandler http.Handler) *Server {
	return &Server{
		cfg:            pl.cfg,
		logger:         pl.logger,
		apps:           pl.apps,
		records:        pl.records,
		histories:      pl.histories,
		appsCache:      cache.New[[]string](),
		resultsCache:   cache.New[[]results.Record](),
		historyCache:   cache.New[history.History](),
		tracer:         tracer,
		metrics:        metrics,
		metricsHandler: metricsHandler,
	}
}

// ServeCommand holds configuration and dependencies for the serve command.
type ServeCommand struct {
	host string
	port int
}

// NewServeCommand creates the serve command.
func NewServeCommand() *cobra.Command {
	sc := &ServeCommand{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve results over HTTP",
		Long: "Run the dashboard as an HTTP service: a JSON API over applications, results,\n" +
			"histories and step trends, HTML chart pages, and health and metrics endpoints.",
		Args: cobra.NoArgs,
		RunE: sc.run,
	}

	cmd.Flags().StringVar(&sc.host, "host", "", "listen host (overrides config)")
	cmd.Flags().IntVarP(&sc.port, "port", "p", 0, "listen port (overrides config)")

	return cmd
}

func (sc *ServeCommand) run(cmd *cobra.Command, _ []string) error {
	cfg, err := config.LoadConfig(stringFlag(cmd, "config"))
	if err != nil {
		return err
	}

	if sc.host != "" {
		cfg.Serve.Host = sc.host
	}

	if sc.port != 0 {
		cfg.Serve.Port = sc.port
	}

	providers, err := observability.Init(observabilityConfig(cfg, observability.ModeServe))
	if err != nil {
		return fmt.Errorf("observability init: %w", err)
	}

	defer func() {
		shutdownErr := providers.Shutdown(context.Background())
		if shutdownErr != nil {
			providers.Logger.Warn("observability shutdown failed", "error", shutdownErr)
		}
	}()

	promProvider, metricsHandler, err := observability.PrometheusProvider()
	if err != nil {
		return fmt.Errorf("prometheus provider: %w", err)
	}

	defer func() {
		promErr := promProvider.Shutdown(context.Background())
		if promErr != nil {
			providers.Logger.Warn("prometheus provider shutdown failed", "error", promErr)
		}
	}()

	red, err := observability.NewREDMetrics(promProvider.Meter("g5kdash"))
	if err != nil {
		return fmt.Errorf("red metrics: %w", err)
	}

	pl := pipelineFromConfig(cfg, providers.Logger)
	srv := newServer(pl, providers.Tracer, red, metricsHandler)
	srv.loadSnapshot()

	return srv.listen(cmd.Context())
}

// listen runs the HTTP server until the context is cancelled or a signal
// arrives, then drains in-flight requests and persists the cache snapshot.
func (s *Server) listen(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	addr := net.JoinHostPort(s.cfg.Serve.Host, strconv.Itoa(s.cfg.Serve.Port))

	server := &http.Server{
		Addr:         addr,
		Handler:      s.routes(),
		ReadTimeout:  s.cfg.Serve.ReadTimeout,
		WriteTimeout: s.cfg.Serve.WriteTimeout,
		IdleTimeout:  s.cfg.Serve.IdleTimeout,
	}

	errCh := make(chan error, 1)

	go func() {
		errCh <- server.ListenAndServe()
	}()

	s.logger.Info("dashboard server started", "addr", addr)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}

		return nil
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), serveShutdownTimeout)
	defer cancel()

	shutdownErr := server.Shutdown(shutdownCtx)

	s.saveSnapshot()

	if shutdownErr != nil {
		return fmt.Errorf("server shutdown: %w", shutdownErr)
	}

	return nil
}

// loadSnapshot restores the history cache persisted by a previous run.
// A missing snapshot is the normal first-run state.
func (s *Server) loadSnapshot() {
	if !s.snapshotEnabled() {
		return
	}

	var snap map[string]history.History

	err := cache.LoadState(s.cfg.Cache.Dir, historySnapshotName, cache.NewLZ4Codec(), &snap)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			s.logger.Debug("no history snapshot to restore", "dir", s.cfg.Cache.Dir)
		} else {
			s.logger.Warn("history snapshot restore failed", "dir", s.cfg.Cache.Dir, "error", err)
		}

		return
	}

	s.historyCache.Restore(snap)
	s.logger.Info("history snapshot restored", "entries", s.historyCache.Len())
}

func (s *Server) saveSnapshot() {
	if !s.snapshotEnabled() {
		return
	}

	codec := cache.NewLZ4Codec()

	err := cache.SaveState(s.cfg.Cache.Dir, historySnapshotName, codec, s.historyCache.Snapshot())
	if err != nil {
		s.logger.Warn("history snapshot save failed", "dir", s.cfg.Cache.Dir, "error", err)

		return
	}

	s.logger.Info("history snapshot saved",
		"entries", s.historyCache.Len(), "size", snapshotSize(s.cfg.Cache.Dir, codec))
}

func (s *Server) snapshotEnabled() bool {
	return s.cfg.Cache.Snapshot && s.cfg.Cache.Dir != ""
}

func snapshotSize(dir string, codec cache.Codec) string {
	info, err := os.Stat(filepath.Join(dir, historySnapshotName+codec.Extension()))
	if err != nil {
		return "unknown"
	}

	return humanize.Bytes(uint64(info.Size()))
}
