package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"dialectical-topology/internal/fixture"
	"dialectical-topology/internal/platform/config"
	"dialectical-topology/internal/platform/logger"
	"dialectical-topology/internal/platform/metrics"
	"dialectical-topology/internal/topology"

	"github.com/go-chi/chi/v5"
	"github.com/jonboulle/clockwork"
	"github.com/spf13/afero"
)

const shutdownTimeout = 10 * time.Second

func main() {
	_ = config.Load()
	cfg := config.FromEnv()

	log := logger.New(cfg.LogLevel, cfg.LogFormat)
	met := metrics.New()

	var src fixture.Source
	if cfg.DataURL != "" {
		src = fixture.NewHTTPSource(cfg.DataURL, &http.Client{Timeout: 30 * time.Second})
	} else {
		src = fixture.NewFSSource(afero.NewOsFs(), cfg.DataDir)
	}
	loader, err := fixture.NewLoader(src, cfg.FixtureCacheSize, log, met)
	if err != nil {
		log.Error("fixture loader", "error", err)
		os.Exit(1)
	}

	repo := topology.NewInMemoryRepository()
	svc := topology.NewService(repo, loader, topology.Options{
		Clock:        clockwork.NewRealClock(),
		TickInterval: cfg.TickInterval,
		Logger:       log,
		Metrics:      met,
	})
	h := topology.NewHandler(svc, topology.NewChartRenderer(svc, cfg.ChartsAssetsHost), log, met)

	r := chi.NewRouter()
	r.Use(logger.RequestLogger(log))
	r.Use(metrics.RequestMiddleware(met))
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		met.Handler(func() { met.SetActiveViews(repo.ActiveViewCount()) }).ServeHTTP(w, r)
	})
	if cfg.BasePath == "" {
		h.Routes(r)
	} else {
		r.Route(cfg.BasePath, h.Routes)
	}

	addr := ":" + cfg.Port
	srv := &http.Server{Addr: addr, Handler: r, ReadHeaderTimeout: 10 * time.Second}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	source := cfg.DataDir
	if cfg.DataURL != "" {
		source = cfg.DataURL
	}
	log.Info("server starting",
		"port", cfg.Port,
		"base_path", cfg.BasePath,
		"data_source", source,
		slog.Duration("tick_interval", cfg.TickInterval),
		"log_level", cfg.LogLevel,
	)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Info("shutdown signal received, draining connections")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("shutdown error", "error", err)
		os.Exit(1)
	}
	svc.Shutdown()

	log.Info("server stopped")
}
