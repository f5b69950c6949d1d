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
	"github.com/jackc/pgx/v5/pgxpool"

	cfhttp "github.com/Strob0t/PromptDesk/internal/adapter/http"
	pdmcp "github.com/Strob0t/PromptDesk/internal/adapter/mcp"
	cfnats "github.com/Strob0t/PromptDesk/internal/adapter/nats"
	"github.com/Strob0t/PromptDesk/internal/adapter/natskv"
	cfotel "github.com/Strob0t/PromptDesk/internal/adapter/otel"
	"github.com/Strob0t/PromptDesk/internal/adapter/postgres"
	"github.com/Strob0t/PromptDesk/internal/adapter/ristretto"
	"github.com/Strob0t/PromptDesk/internal/adapter/tiered"
	"github.com/Strob0t/PromptDesk/internal/config"
	"github.com/Strob0t/PromptDesk/internal/logger"
	"github.com/Strob0t/PromptDesk/internal/middleware"
	"github.com/Strob0t/PromptDesk/internal/port/cache"
	"github.com/Strob0t/PromptDesk/internal/resilience"
	"github.com/Strob0t/PromptDesk/internal/service"
)

// ServeCmd runs the HTTP API and the MCP prompt server. Flags left empty
// fall through to the environment, .env and YAML layers.
type ServeCmd struct {
	Port     string `help:"HTTP listen port" short:"p"`
	LogLevel string `help:"log level (debug, info, warn, error)"`
	DSN      string `help:"PostgreSQL connection string" name:"dsn"`
	NatsURL  string `help:"NATS server URL" name:"nats-url"`
}

func (c *ServeCmd) Run(ctx context.Context, g *Globals) error {
	flags := g.configFlags()
	flags.Port = optional(c.Port)
	flags.LogLevel = optional(c.LogLevel)
	flags.DSN = optional(c.DSN)
	flags.NatsURL = optional(c.NatsURL)

	cfg, yamlPath, err := config.LoadWithCLI(flags)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	holder := config.NewHolder(cfg, yamlPath)

	log, logCloser := logger.New(cfg.Logging)
	defer logCloser.Close()
	slog.SetDefault(log)

	slog.Info("config loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Logging.Level,
		"pg_max_conns", cfg.Postgres.MaxConns,
		"nats", cfg.NATS.URL != "",
		"version", g.Version,
	)

	// --- Observability ---

	otelShutdown, err := cfotel.Setup(ctx, cfg.OTEL)
	if err != nil {
		return fmt.Errorf("otel: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := otelShutdown(shutdownCtx); err != nil {
			slog.Error("otel shutdown", "error", err)
		}
	}()

	metrics, err := cfotel.NewMetrics()
	if err != nil {
		return fmt.Errorf("otel metrics: %w", err)
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

	store := postgres.NewStore(pool).WithRetryBudget(cfg.Postgres.RetryMaxElapsed)

	// L1 cache
	l1, err := ristretto.New(cfg.Cache.L1MaxSizeMB << 20)
	if err != nil {
		return fmt.Errorf("ristretto: %w", err)
	}
	defer l1.Close()
	var tenantCache cache.Cache = l1

	// NATS (optional): events, L2 cache, idempotency replay store
	var (
		queue       *cfnats.Queue
		events      *service.EventPublisher
		idempotency func(http.Handler) http.Handler
	)
	if cfg.NATS.URL != "" {
		queue, err = cfnats.Connect(ctx, cfg.NATS.URL)
		if err != nil {
			return fmt.Errorf("nats: %w", err)
		}
		defer func() { _ = queue.Close() }()

		breaker := resilience.NewBreaker("nats-events", cfg.Breaker.MaxFailures, cfg.Breaker.Timeout)
		events = service.NewEventPublisher(queue, breaker)

		l2kv, err := queue.KeyValue(ctx, cfg.Cache.L2Bucket, cfg.Cache.L2TTL)
		if err != nil {
			return fmt.Errorf("nats kv %s: %w", cfg.Cache.L2Bucket, err)
		}
		tenantCache = tiered.New(l1, natskv.New(l2kv), cfg.Cache.L1TTL)

		idemKV, err := queue.KeyValue(ctx, cfg.Idempotency.Bucket, cfg.Idempotency.TTL)
		if err != nil {
			return fmt.Errorf("nats kv %s: %w", cfg.Idempotency.Bucket, err)
		}
		idempotency = middleware.Idempotency(natskv.New(idemKV), cfg.Idempotency.TTL)

		if cfg.NATS.Audit {
			stopAudit, err := service.NewAuditTrail(log).Start(ctx, queue)
			if err != nil {
				return err
			}
			defer stopAudit()
		}
	} else {
		slog.Warn("nats disabled: no events, L2 cache or idempotency replay")
	}

	// --- Services ---

	directory := service.NewDirectoryService(store)
	directory.SetCache(tenantCache, cfg.Cache.L1TTL)
	directory.SetEvents(events)
	directory.SetMetrics(metrics)

	content := service.NewContentService(store, holder.MinContentLength)
	content.SetEvents(events)
	content.SetMetrics(metrics)

	// --- HTTP ---

	handlers := &cfhttp.Handlers{
		Directory: directory,
		Content:   content,
		Ready:     readiness(pool, queue),
	}

	opts := cfhttp.RouteOptions{Idempotency: idempotency}

	serverCtx, stopServer := context.WithCancel(ctx)
	defer stopServer()

	if rl := cfg.Server.RateLimit; rl.Enabled {
		limiter := middleware.NewRateLimiter(rl.Rate, rl.Burst)
		limiter.StartCleanup(serverCtx, time.Minute, 10*time.Minute)
		opts.RateLimiter = limiter
	}
	if cfg.MCP.Enabled {
		opts.MCP = pdmcp.NewServer(
			pdmcp.ServerConfig{Name: "promptdesk", Version: g.Version},
			pdmcp.ServerDeps{Content: content},
		)
		opts.MCPPath = cfg.MCP.Path
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(cfotel.HTTPMiddleware(cfg.OTEL.ServiceName))
	r.Use(cfhttp.SecurityHeaders)
	r.Use(cfhttp.CORS(cfg.Server.CORSOrigin))
	r.Use(cfhttp.Logger)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)

	cfhttp.MountRoutes(r, handlers, opts)

	addr := ":" + cfg.Server.Port
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("starting server", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)

	for {
		select {
		case err := <-errCh:
			return fmt.Errorf("server: %w", err)
		case sig := <-sigCh:
			if sig == syscall.SIGHUP {
				if err := holder.Reload(); err != nil {
					slog.Error("config reload failed", "error", err)
					continue
				}
				slog.Info("config reloaded", "min_content_length", holder.MinContentLength())
				continue
			}

			slog.Info("shutting down server", "signal", sig.String())
			stopServer()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		}
	}
}

// readiness checks Postgres and, when configured, the NATS connection.
func readiness(pool *pgxpool.Pool, queue *cfnats.Queue) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		if err := pool.Ping(ctx); err != nil {
			return fmt.Errorf("postgres: %w", err)
		}
		if queue != nil && !queue.IsConnected() {
			return errors.New("nats: not connected")
		}
		return nil
	}
}
