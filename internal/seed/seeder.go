// Package seed fills the catalog with generated books for demos and load
// tests. It goes through the catalog service like any other client, so the
// ISBN uniqueness rules apply to generated data too.
package seed

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"catalogservice/internal/book"
	"catalogservice/internal/config"

	"github.com/brianvoe/gofakeit/v7"
	"go.uber.org/zap"
)

// Catalog is the part of book.Service the seeder drives.
type Catalog interface {
	AddBookToCatalog(ctx context.Context, b book.Book) (book.Book, error)
}

// Resetter wipes the store before the first run when reset is enabled.
type Resetter interface {
	DeleteAll(ctx context.Context) error
}

// Recorder counts seeding outcomes.
type Recorder interface {
	BookSeeded(outcome string)
}

// Result summarizes one seeding pass.
type Result struct {
	Added   int
	Skipped int
}

type Seeder struct {
	catalog  Catalog
	resetter Resetter
	recorder Recorder
	cfg      config.FakerConfig
	faker    *gofakeit.Faker
	log      *zap.Logger

	// mu serializes passes; lifecycle guards cancel and done.
	mu        sync.Mutex
	resetOK   bool
	lifecycle sync.Mutex
	cancel    context.CancelFunc
	done      chan struct{}
}

type Option func(*Seeder)

func WithRecorder(r Recorder) Option {
	return func(s *Seeder) { s.recorder = r }
}

func WithLogger(log *zap.Logger) Option {
	return func(s *Seeder) { s.log = log }
}

// WithFaker fixes the generator, mainly to make tests deterministic.
func WithFaker(f *gofakeit.Faker) Option {
	return func(s *Seeder) { s.faker = f }
}

func New(catalog Catalog, resetter Resetter, cfg config.FakerConfig, opts ...Option) *Seeder {
	s := &Seeder{
		catalog:  catalog,
		resetter: resetter,
		cfg:      cfg,
		faker:    gofakeit.New(0),
		log:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// FakeBook generates one valid, not yet persisted book.
func (s *Seeder) FakeBook() book.Book {
	isbn := s.faker.DigitN(10)
	if s.faker.Bool() {
		isbn = s.faker.DigitN(13)
	}
	return book.New(
		isbn,
		s.faker.BookTitle(),
		s.faker.BookAuthor(),
		s.faker.Company(),
		float64(s.faker.IntRange(s.cfg.MinPrice, s.cfg.MaxPrice)),
	)
}

// Run performs one seeding pass of cfg.Amount books. Generated ISBNs that
// are already catalogued are skipped, any other failure aborts the pass.
func (s *Seeder) Run(ctx context.Context) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var res Result
	if s.cfg.Reset && !s.resetOK {
		if err := s.resetter.DeleteAll(ctx); err != nil {
			return res, fmt.Errorf("reset catalog: %w", err)
		}
		s.resetOK = true
		s.log.Info("catalog reset before seeding")
	}

	for i := 0; i < s.cfg.Amount; i++ {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		_, err := s.catalog.AddBookToCatalog(ctx, s.FakeBook())
		switch {
		case err == nil:
			res.Added++
			s.record("added")
		case errors.Is(err, book.ErrAlreadyExists):
			res.Skipped++
			s.record("skipped")
		default:
			return res, fmt.Errorf("seed book %d: %w", i+1, err)
		}
	}

	s.log.Info("catalog seeded", zap.Int("added", res.Added), zap.Int("skipped", res.Skipped))
	return res, nil
}

func (s *Seeder) record(outcome string) {
	if s.recorder != nil {
		s.recorder.BookSeeded(outcome)
	}
}

// Start runs the seeder in the background: once when Frequency is zero,
// otherwise immediately and then on every tick until Stop.
func (s *Seeder) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	s.lifecycle.Lock()
	s.cancel = cancel
	s.done = done
	s.lifecycle.Unlock()

	go func() {
		defer close(done)
		s.runLogged(ctx)
		if s.cfg.Frequency <= 0 {
			return
		}

		ticker := time.NewTicker(s.cfg.Frequency)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.runLogged(ctx)
			}
		}
	}()
}

func (s *Seeder) runLogged(ctx context.Context) {
	if _, err := s.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		s.log.Error("seeding failed", zap.Error(err))
	}
}

// Stop cancels the background task and waits for the current pass to end.
func (s *Seeder) Stop() {
	s.lifecycle.Lock()
	cancel, done := s.cancel, s.done
	s.cancel = nil
	s.lifecycle.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}
