package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"catalogservice/internal/app"
	"catalogservice/internal/book"
	"catalogservice/internal/config"
	"catalogservice/internal/platform/logger"
	"catalogservice/internal/seed"

	"go.uber.org/zap"
)

func main() {
	config.LoadEnvFiles()

	cfg, err := config.Load()
	if err != nil {
		logger.MustNew("catalog-seed", "info").Fatal("invalid configuration", zap.Error(err))
	}

	amount := flag.Int("amount", cfg.Faker.Amount, "Number of books to generate")
	reset := flag.Bool("reset", cfg.Faker.Reset, "Delete every book before seeding")
	flag.Parse()

	cfg.Faker.Amount = *amount
	cfg.Faker.Reset = *reset

	log := logger.MustNew(cfg.ServiceName+"-seed", cfg.LogLevel)
	defer func() { _ = log.Sync() }()

	if err := cfg.Validate(); err != nil {
		log.Fatal("invalid seeder flags", zap.Error(err))
	}

	if err := run(cfg, log); err != nil {
		log.Fatal("seeding failed", zap.Error(err))
	}
}

func run(cfg config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := app.OpenStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	publisher, closePublisher := app.OpenPublisher(cfg, log)
	defer closePublisher()

	svc := book.NewService(store.Repo, book.WithPublisher(publisher), book.WithLogger(log))
	res, err := seed.New(svc, store.Repo, cfg.Faker, seed.WithLogger(log)).Run(ctx)
	if err != nil {
		return fmt.Errorf("after %d books: %w", res.Added, err)
	}
	log.Info("seeding finished", zap.Int("added", res.Added), zap.Int("skipped", res.Skipped))
	return nil
}
