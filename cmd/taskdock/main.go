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

	"github.com/taskdock/taskdock/internal/adapter/chromium"
	"github.com/taskdock/taskdock/internal/adapter/hostopen"
	tdhttp "github.com/taskdock/taskdock/internal/adapter/http"
	tdnats "github.com/taskdock/taskdock/internal/adapter/nats"
	"github.com/taskdock/taskdock/internal/adapter/natskv"
	"github.com/taskdock/taskdock/internal/adapter/otel"
	"github.com/taskdock/taskdock/internal/adapter/postgres"
	"github.com/taskdock/taskdock/internal/adapter/ristretto"
	"github.com/taskdock/taskdock/internal/adapter/tiered"
	"github.com/taskdock/taskdock/internal/adapter/ws"
	"github.com/taskdock/taskdock/internal/config"
	"github.com/taskdock/taskdock/internal/logger"
	"github.com/taskdock/taskdock/internal/middleware"
	"github.com/taskdock/taskdock/internal/port/broadcast"
	"github.com/taskdock/taskdock/internal/port/cache"
	"github.com/taskdock/taskdock/internal/sandbox"
	"github.com/taskdock/taskdock/internal/service"
)

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
	slog.SetDefault(log)
	defer logCloser.Close()

	slog.Info("config loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Logging.Level,
		"sandbox_roots", cfg.Sandbox.Roots(),
	)

	ctx := context.Background()

	// --- Telemetry ---
	shutdownOtel, err := otel.Init(ctx, cfg.Telemetry, cfg.Logging.Service)
	if err != nil {
		return fmt.Errorf("otel: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownOtel(shutdownCtx)
	}()

	metrics, err := otel.NewMetrics()
	if err != nil {
		return fmt.Errorf("metrics: %w", err)
	}

	// --- Infrastructure ---

	// PostgreSQL
	pool, err := postgres.NewPool(ctx, cfg.Postgres)
	if err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	defer pool.Close()
	slog.Info("postgres connected")

	if err := postgres.RunMigrations(ctx, cfg.Postgres.DSN); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	slog.Info("migrations applied")

	// Sandbox roots, ~-expanded against the daemon's home.
	home, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("resolve home dir: %w", err)
	}
	sb := sandbox.New(home, cfg.Sandbox.Roots()...)
	if sb.Misconfigured() {
		slog.Warn("no usable sandbox roots, all file access will be rejected")
	}

	// Probe cache, in-process.
	local, err := ristretto.New(cfg.Cache.MaxSizeMB << 20)
	if err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	defer local.Close()
	probeCache := cache.Cache(local)

	// WebSocket hub and optional NATS sink. When NATS is configured the
	// probe cache also gains a shared KV tier.
	hub := ws.NewHub()
	sinks := []broadcast.Broadcaster{hub}
	var eventSink tdhttp.EventSink
	if cfg.NATS.URL != "" {
		bus, err := tdnats.Connect(ctx, cfg.NATS.URL)
		if err != nil {
			return fmt.Errorf("nats: %w", err)
		}
		defer bus.Close()
		sinks = append(sinks, bus)
		eventSink = bus

		kv, err := bus.KeyValue(ctx, "taskdock-probe", cfg.Cache.ProbeTTL)
		if err != nil {
			return fmt.Errorf("nats kv: %w", err)
		}
		probeCache = tiered.New(local, natskv.New(kv), cfg.Cache.ProbeTTL)
	}
	events := service.NewEventBus(sinks...)

	// --- Services ---
	store := postgres.NewStore(pool)
	renderer := chromium.New(cfg.Render, sb)
	taskSvc := service.NewTaskService(store, events)
	deliverableSvc := service.NewDeliverableService(store, sb, renderer, events, metrics)
	previewSvc := service.NewPreviewService(sb, probeCache, cfg.Cache.ProbeTTL)

	// --- HTTP ---
	handlers := &tdhttp.Handlers{
		Tasks:        taskSvc,
		Deliverables: deliverableSvc,
		Preview:      previewSvc,
		Reveal:       hostopen.New(),
		Metrics:      metrics,
		DB:           pool,
		Events:       eventSink,
		Viewers:      hub,
	}

	r := chi.NewRouter()

	r.Use(tdhttp.CORS(cfg.Server.CORSOrigin))
	r.Use(middleware.RequestID)
	r.Use(tdhttp.Logger)
	r.Use(tdhttp.SecurityHeaders)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	if cfg.Telemetry.Enabled {
		r.Use(otel.HTTPMiddleware(cfg.Logging.Service))
	}

	// WebSocket endpoint (outside the timeout middleware below)
	r.Get("/ws", hub.HandleWS)

	r.Group(func(r chi.Router) {
		r.Use(chimw.Timeout(2 * cfg.Render.Timeout))
		tdhttp.MountRoutes(r, handlers)
	})

	addr := ":" + cfg.Server.Port

	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      2*cfg.Render.Timeout + 30*time.Second,
		IdleTimeout:       120 * time.Second,
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		slog.Info("starting server", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server failed", "error", err)
		}
	}()

	<-done
	slog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}
