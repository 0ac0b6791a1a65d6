package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	arenahttp "github.com/promptarena/promptarena/internal/adapter/http"
	"github.com/promptarena/promptarena/internal/adapter/llm"
	"github.com/promptarena/promptarena/internal/adapter/memstore"
	arenanats "github.com/promptarena/promptarena/internal/adapter/nats"
	"github.com/promptarena/promptarena/internal/adapter/otel"
	"github.com/promptarena/promptarena/internal/adapter/ws"
	"github.com/promptarena/promptarena/internal/config"
	"github.com/promptarena/promptarena/internal/logger"
	"github.com/promptarena/promptarena/internal/middleware"
	"github.com/promptarena/promptarena/internal/port/broadcast"
	"github.com/promptarena/promptarena/internal/port/provider"
	"github.com/promptarena/promptarena/internal/resilience"
	"github.com/promptarena/promptarena/internal/service"
)

const version = "0.1.0"

func main() {
	if err := run(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	log, logCloser := logger.New(cfg.Logging)
	defer logCloser.Close()
	slog.SetDefault(log)

	slog.Info("config loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Logging.Level,
		"variant_count", cfg.Arena.VariantCount,
		"max_runs", cfg.Store.MaxRuns,
	)

	ctx := context.Background()

	// --- Telemetry ---
	shutdownTelemetry, err := otel.Init(ctx, cfg.Telemetry.Endpoint, cfg.Logging.Service, version, cfg.Telemetry.Insecure)
	if err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTelemetry(shutdownCtx); err != nil {
			slog.Error("telemetry shutdown failed", "error", err)
		}
	}()

	metrics, err := otel.NewMetrics()
	if err != nil {
		return fmt.Errorf("metrics: %w", err)
	}

	// --- Provider ---
	client := llm.NewClient(cfg.Provider.URL, cfg.Provider.APIKey, cfg.Provider.Model)
	client.SetBreaker(resilience.NewBreaker(cfg.Breaker.MaxFailures, cfg.Breaker.Timeout))

	var completer provider.Completer = client
	if cfg.Provider.Cache.Enabled {
		cached, err := llm.NewCachedCompleter(client, cfg.Provider.Cache.MaxSizeMB, cfg.Provider.Cache.TTL)
		if err != nil {
			return fmt.Errorf("completion cache: %w", err)
		}
		defer cached.Close()
		completer = cached
	}

	// --- Broadcasters ---
	hub := ws.NewHub()
	broadcasters := broadcast.Multi{hub}

	if cfg.NATS.URL != "" {
		publisher, err := arenanats.Connect(ctx, cfg.NATS.URL, cfg.NATS.SubjectPrefix)
		if err != nil {
			return fmt.Errorf("nats: %w", err)
		}
		defer func() { _ = publisher.Close() }()
		broadcasters = append(broadcasters, publisher)
	}

	// --- Services ---
	store := memstore.New(cfg.Store.MaxRuns)
	runner := service.NewRunner(completer, cfg.Task.Labels, cfg.Arena.PerVariantTimeout)
	runSvc := service.NewRunService(*cfg, store, runner, broadcasters, metrics, log)

	// --- HTTP ---
	rateLimiter := middleware.NewRateLimiter(10, 30)
	stopCleanup := rateLimiter.StartCleanup(time.Minute, 10*time.Minute)
	defer stopCleanup()

	r := chi.NewRouter()
	r.Use(arenahttp.CORS(cfg.Server.CORSOrigin))
	r.Use(middleware.RequestID)
	r.Use(arenahttp.Logger)
	r.Use(arenahttp.SecurityHeaders)
	r.Use(otel.HTTPMiddleware(cfg.Logging.Service))
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(rateLimiter.Handler)

	r.Get("/ws", hub.HandleWS)
	arenahttp.MountRoutes(r, arenahttp.NewHandlers(runSvc))

	addr := ":" + cfg.Server.Port
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		// Generous enough for a full run streamed over SSE.
		WriteTimeout: 2 * cfg.Arena.RunTimeout,
		IdleTimeout:  120 * time.Second,
	}

	signalCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(signalCtx)
	g.Go(func() error {
		slog.Info("starting server", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
