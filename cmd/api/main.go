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

	"github.com/geocoder89/authhub/internal/auth"
	"github.com/geocoder89/authhub/internal/config"
	"github.com/geocoder89/authhub/internal/db"
	httpx "github.com/geocoder89/authhub/internal/http"
	"github.com/geocoder89/authhub/internal/http/middlewares"
	"github.com/geocoder89/authhub/internal/observability"
	"github.com/geocoder89/authhub/internal/redisclient"
	"github.com/geocoder89/authhub/internal/repo/memory"
	"github.com/geocoder89/authhub/internal/repo/postgres"
	"github.com/geocoder89/authhub/internal/security"
	"github.com/geocoder89/authhub/internal/service"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func main() {
	// Load the config set up
	cfg := config.Load()

	// start up the observability logger
	log := observability.NewLogger(cfg.Env)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	err := run(ctx, cfg, log)
	stop()

	if err != nil {
		log.Error("server exited", "err", err)
		os.Exit(1)
	}
}

// run owns every resource it opens and releases them before returning,
// so main is the only place that exits the process.
func run(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	if err := cfg.Validate(log); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	tokens, err := auth.NewManager(cfg.JWTSecret, cfg.JWTTTL())
	if err != nil {
		return fmt.Errorf("token manager init: %w", err)
	}

	shutdownTracer, err := observability.InitTracer(ctx, "authhub", cfg.OTELEndpoint)
	if err != nil {
		return fmt.Errorf("tracer init: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	prom := observability.NewProm(reg)

	// credential store
	var (
		users service.UserStore
		ready func(ctx context.Context) error
	)

	switch cfg.StoreDriver {
	case "memory":
		repo := memory.NewUsersRepo()
		users, ready = repo, repo.Ping
		log.Warn("using in-memory credential store, data is lost on restart")

	default:
		pool, err := db.NewPool(cfg.DBURL)
		if err != nil {
			return fmt.Errorf("database connection: %w", err)
		}
		defer pool.Close()

		mctx, cancel := context.WithTimeout(ctx, 30*time.Second)
		err = db.Migrate(mctx, pool)
		cancel()

		if err != nil {
			return fmt.Errorf("database migration: %w", err)
		}

		users, ready = postgres.NewUsersRepo(pool, prom), pool.Ping
	}

	authService := service.NewAuthService(users, security.NewBcryptHasher(cfg.BcryptCost), tokens, log, prom)

	// rate limiting: shared across instances when redis is configured
	var limiter middlewares.LimitStore = middlewares.NewMemoryLimitStore()

	if cfg.RedisAddr != "" {
		rdb := redisclient.New(redisclient.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer rdb.Close()

		pctx, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := rdb.Ping(pctx); err != nil {
			log.Warn("redis unreachable at startup, rate limiter will fail open", "addr", cfg.RedisAddr, "err", err)
		}
		cancel()

		limiter = rdb
	}

	// set up routers with the log
	router := httpx.NewRouter(log, httpx.Dependencies{
		Config:   cfg,
		Auth:     authService,
		Tokens:   tokens,
		Ready:    ready,
		Prom:     prom,
		Gatherer: reg,
		Limiter:  limiter,
	})

	// server set up
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	// start server using a concurrent go-routine driven anonymous function.

	serverErr := make(chan error, 1)

	go func() {
		log.Info("Server starting", "port", cfg.Port, "env", cfg.Env, "store", cfg.StoreDriver)
		err := srv.ListenAndServe()

		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	// Graceful shutdown

	var runErr error

	select {
	case <-ctx.Done():
		log.Info("server shutting down")
	case err, ok := <-serverErr:
		if ok {
			runErr = fmt.Errorf("server failed: %w", err)
		}
	}

	shutdownCh := make(chan struct{})

	go func() {
		defer close(shutdownCh)

		sctx, cancel := config.WithTimeout(10 * time.Second)
		defer cancel()

		if err := srv.Shutdown(sctx); err != nil {
			log.Error("graceful shutdown failed", "err", err)
		}

		if err := shutdownTracer(sctx); err != nil {
			log.Error("tracer shutdown failed", "err", err)
		}
	}()

	select {
	case <-shutdownCh:
		log.Info("shutdown complete")

	case <-time.After(12 * time.Second):
		log.Error("shutdown timed out")
	}

	return runErr
}
