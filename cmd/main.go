package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/matrank/matrank/internal/adapters/report"
	"github.com/matrank/matrank/internal/adapters/repository"
	"github.com/matrank/matrank/internal/app"
	"github.com/matrank/matrank/internal/config"
	"github.com/matrank/matrank/pkg/logger"
	"github.com/matrank/matrank/pkg/metrics"
)

// Metrics listener timeout constants.
const (
	readTimeout       = 10 * time.Second
	writeTimeout      = 10 * time.Second
	readHeaderTimeout = 5 * time.Second
)

func main() {
	os.Exit(run())
}

func run() int {
	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return 1
	}
	defer func() { _ = logger.Sync() }()

	log := logger.Get()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		return 1
	}

	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info",
			logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	// Optional Prometheus listener for long-lived or repeated runs.
	if cfg.MetricsAddr != "" {
		go serveMetrics(ctx, log, cfg.MetricsAddr)
	}

	store, err := repository.Open(cfg.DBPath)
	if err != nil {
		log.Error(ctx, "failed to open database", logger.String("path", cfg.DBPath), logger.Error(err))
		return 1
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Warn(ctx, "failed to close database", logger.Error(err))
		}
	}()

	svc := app.New(store, cfg, app.WithLogger(log.Named("app")))

	out, err := svc.Run(ctx)
	if err != nil {
		// Empty pipeline stages are outcomes, not failures.
		if isEmptyOutcome(err) {
			log.Info(ctx, err.Error())
			return 0
		}
		log.Error(ctx, "rating run failed", logger.Error(err))
		return 1
	}

	params := report.Params{
		Tau:           out.Tau,
		MatchCount:    out.MatchCount,
		PeriodCount:   out.PeriodCount,
		GradYear:      out.GradYear,
		Overrides:     out.Overrides,
		Info:          out.Info,
		WeightClasses: out.WeightClasses,
		Board:         out.Board,
	}

	if cfg.JSONOut != "" {
		if err := report.Write(cfg.JSONOut, report.NewPayload(params)); err != nil {
			log.Error(ctx, "failed to write leaderboard JSON", logger.Error(err))
			return 1
		}
		log.Info(ctx, "wrote leaderboard JSON", logger.String("path", cfg.JSONOut))
		return 0
	}

	report.Render(os.Stdout, params)
	return 0
}

func isEmptyOutcome(err error) bool {
	return errors.Is(err, app.ErrNoSeasons) ||
		errors.Is(err, app.ErrNoPeriods) ||
		errors.Is(err, app.ErrNoActiveWrestlers) ||
		errors.Is(err, app.ErrNoMatches) ||
		errors.Is(err, app.ErrAllFiltered)
}

// serveMetrics exposes the custom registry until the context ends.
func serveMetrics(ctx context.Context, log logger.Logger, addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}))

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Info(ctx, "serving metrics", logger.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Warn(ctx, "metrics listener failed", logger.Error(err))
	}
}
