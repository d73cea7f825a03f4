package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"catalogservice/internal/app"
	"catalogservice/internal/book"
	"catalogservice/internal/config"
	"catalogservice/internal/httpx"
	"catalogservice/internal/platform/logger"
	"catalogservice/internal/platform/metrics"
	"catalogservice/internal/platform/telemetry"
	"catalogservice/internal/seed"
	"catalogservice/internal/server"

	"go.uber.org/zap"
)

func main() {
	config.LoadEnvFiles()

	cfg, err := config.Load()
	if err != nil {
		logger.MustNew("catalog-service", "info").Fatal("invalid configuration", zap.Error(err))
	}

	log := logger.MustNew(cfg.ServiceName, cfg.LogLevel)
	defer func() { _ = log.Sync() }()

	if err := run(cfg, log); err != nil {
		log.Fatal("server error", zap.Error(err))
	}
}

func run(cfg config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Setup(ctx, cfg.ServiceName, cfg.OTLPEndpoint)
	if err != nil {
		return err
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			log.Warn("flush traces", zap.Error(err))
		}
	}()

	store, err := app.OpenStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()
	log.Info("store ready", zap.String("driver", cfg.StoreDriver))

	publisher, closePublisher := app.OpenPublisher(cfg, log)
	defer closePublisher()

	m, err := metrics.New()
	if err != nil {
		return err
	}

	svc := book.NewService(store.Repo, book.WithPublisher(publisher), book.WithLogger(log))

	limiter := httpx.NewRateLimitMiddleware(cfg.RateLimitRPS, cfg.RateLimitBurst)
	defer limiter.Stop()

	handler := server.NewRouter(server.Deps{
		Books:        book.NewHTTPHandler(svc, log),
		JWTSecret:    cfg.JWTSecret,
		Logger:       log,
		Metrics:      m,
		RateLimiter:  limiter,
		MaxBodyBytes: cfg.MaxBodyBytes,
		EnableHSTS:   cfg.EnableHSTS,
		Ready:        store.Ready,
	})

	if cfg.Faker.Enabled {
		seeder := seed.New(svc, store.Repo, cfg.Faker, seed.WithRecorder(m), seed.WithLogger(log))
		seeder.Start(ctx)
		defer seeder.Stop()
		log.Info("data seeder started",
			zap.Int("amount", cfg.Faker.Amount),
			zap.Duration("frequency", cfg.Faker.Frequency),
			zap.Bool("reset", cfg.Faker.Reset),
		)
	}

	httpServer := &http.Server{
		Addr:         cfg.Addr,
		Handler:      handler,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting server", zap.String("addr", cfg.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}
