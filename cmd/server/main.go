package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Adnankhaledd/lingo-staking-dashboard/internal/cache"
	"github.com/Adnankhaledd/lingo-staking-dashboard/internal/config"
	"github.com/Adnankhaledd/lingo-staking-dashboard/internal/dune"
	"github.com/Adnankhaledd/lingo-staking-dashboard/internal/handler"
	"github.com/Adnankhaledd/lingo-staking-dashboard/internal/middleware"
	"github.com/Adnankhaledd/lingo-staking-dashboard/internal/mixpanel"
	"github.com/Adnankhaledd/lingo-staking-dashboard/internal/refresh"
	"github.com/Adnankhaledd/lingo-staking-dashboard/internal/store"
	"github.com/Adnankhaledd/lingo-staking-dashboard/internal/ws"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	cfg := config.Load()

	if cfg.DatabaseURL == "" {
		logger.Error("DATABASE_URL is required")
		os.Exit(1)
	}
	if cfg.DuneAPIKey == "" {
		logger.Warn("DUNE_API_KEY not set, query endpoints will fail")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Database
	db, err := store.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		logger.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}
	logger.Info("database connected and migrated")

	// Redis cache (retry up to 30s for ExternalSecret to sync)
	var c *cache.Cache
	for i := 0; i < 6; i++ {
		c, err = cache.New(cfg.RedisURL, cfg.RedisPassword)
		if err == nil {
			break
		}
		logger.Warn("redis not ready, retrying...", "attempt", i+1, "error", err)
		time.Sleep(5 * time.Second)
	}
	if err != nil {
		logger.Error("failed to connect to redis after retries", "error", err)
		os.Exit(1)
	}
	defer c.Close()
	logger.Info("redis connected for query cache")

	// Upstream clients
	duneClient := dune.NewClient(cfg.DuneBaseURL, cfg.DuneAPIKey, c, logger)
	mixClient := mixpanel.NewClient(cfg.MixpanelBaseURL, cfg.MixpanelSecret,
		cfg.MixpanelProjectID, cfg.MixpanelReportID, logger)
	agg := mixpanel.NewAggregator(mixClient, c)

	// Refresh broadcast hub
	hub := ws.NewHub(logger)
	defer hub.Close()

	// Optional built-in refresh scheduler
	if sched := refresh.New(duneClient, db, hub, cfg.RefreshInterval, logger); sched != nil {
		go sched.Run(ctx)
	}

	// HTTP routes
	r := chi.NewRouter()
	r.Use(middleware.Recover(logger))
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Metrics())
	r.Use(middleware.CORS(cfg.FrontendOrigin))

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", handler.Health())
	r.Get("/readyz", handler.Ready(db))
	r.Get("/ws", hub.ServeHTTP)

	r.Route("/api", func(r chi.Router) {
		r.Get("/dashboard", handler.Dashboard(duneClient, agg, logger))
		r.Get("/mixpanel", handler.Mixpanel(mixClient, agg))
		r.Post("/refresh-dune", handler.RefreshDune(duneClient, db, hub, cfg.CronSecret, logger))
		r.Get("/refresh-dune/history", handler.RefreshHistory(db))
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("server starting", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down gracefully")
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	_ = srv.Shutdown(shutdownCtx)
}
