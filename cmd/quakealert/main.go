package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/rajasatyajit/QuakeAlert/config"
	"github.com/rajasatyajit/QuakeAlert/internal/api"
	"github.com/rajasatyajit/QuakeAlert/internal/classifier"
	"github.com/rajasatyajit/QuakeAlert/internal/enricher"
	"github.com/rajasatyajit/QuakeAlert/internal/feed"
	"github.com/rajasatyajit/QuakeAlert/internal/geocoder"
	"github.com/rajasatyajit/QuakeAlert/internal/logger"
	"github.com/rajasatyajit/QuakeAlert/internal/metrics"
	middlewares "github.com/rajasatyajit/QuakeAlert/internal/middleware"
	"github.com/rajasatyajit/QuakeAlert/internal/pipeline"
	"github.com/rajasatyajit/QuakeAlert/internal/store"
	"github.com/rajasatyajit/QuakeAlert/internal/telegram"
	"github.com/rajasatyajit/QuakeAlert/internal/translate"
)

// Version information (set by build)
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger.Init(cfg.Logging.Level, cfg.Logging.Format)
	logger.Info("Starting QuakeAlert application",
		"version", Version,
		"build_time", BuildTime,
		"git_commit", GitCommit,
	)

	// Initialize metrics
	collector := metrics.New(cfg.Metrics.Enabled)
	if cfg.Metrics.Enabled {
		logger.Info("Metrics enabled", "port", cfg.Metrics.Port)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize the processed-id store
	seenStore, err := store.New(cfg.Store.Path)
	if err != nil {
		logger.Fatal("Failed to initialize store", "error", err)
	}
	defer seenStore.Close()

	// Initialize the offline geocoder
	geo, err := geocoder.New()
	if err != nil {
		logger.Fatal("Failed to initialize geocoder", "error", err)
	}

	// Initialize the Telegram sender
	sender, err := telegram.NewClient(cfg.Telegram)
	if err != nil {
		logger.Fatal("Failed to initialize Telegram client", "error", err)
	}

	// Assemble the pipeline
	source := feed.New(cfg.Feed)
	quakeEnricher := enricher.New(geo, translate.New(cfg.Translate))
	alertPipeline := pipeline.New(source, quakeEnricher, classifier.New(), sender, seenStore, collector, cfg.Pipeline, cfg.Filter)

	// Setup HTTP server
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middlewares.Logging)
	r.Use(middlewares.Metrics(collector))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(cfg.Server.ReadTimeout))
	r.Use(middlewares.Security)

	// Initialize API handlers
	apiHandler := api.NewHandler(seenStore, alertPipeline, Version, BuildTime, GitCommit)
	apiHandler.RegisterRoutes(r)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	g, ctx := errgroup.WithContext(ctx)

	// Poll loop
	g.Go(func() error {
		return alertPipeline.Run(ctx)
	})

	// Operational HTTP server
	g.Go(func() error {
		logger.Info("Starting HTTP server", "address", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.GracefulShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	// Metrics endpoint on its own listener
	if cfg.Metrics.Enabled {
		metricsSrv := newMetricsServer(cfg.Metrics.Port, cfg.Metrics.Path, collector)
		g.Go(func() error {
			logger.Info("Starting metrics server", "address", metricsSrv.Addr, "path", cfg.Metrics.Path)
			if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.GracefulShutdownTimeout)
			defer cancel()
			return metricsSrv.Shutdown(shutdownCtx)
		})
	}

	if err := g.Wait(); err != nil {
		logger.Error("Shutdown with error", "error", err)
	}

	logger.Info("Server exited")
}

func newMetricsServer(port int, path string, collector metrics.Collector) *http.Server {
	mux := http.NewServeMux()
	mux.Handle(path, collector.Handler())

	return &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: mux,
	}
}
