package book

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Service enforces the catalog rules on top of a Repository. It holds no
// locks: ISBN uniqueness under concurrent adds is backed by the store's
// unique constraint.
type Service struct {
	repo      Repository
	publisher EventPublisher
	log       *zap.Logger
	tracer    trace.Tracer
}

// Option configures a Service.
type Option func(*Service)

// WithPublisher sets the publisher notified after committed writes.
func WithPublisher(p EventPublisher) Option {
	return func(s *Service) {
		if p != nil {
			s.publisher = p
		}
	}
}

// WithLogger sets the service logger.
func WithLogger(log *zap.Logger) Option {
	return func(s *Service) { s.log = log }
}

// NewService creates a new catalog service.
func NewService(repo Repository, opts ...Option) *Service {
	s := &Service{
		repo:      repo,
		publisher: nopPublisher{},
		log:       zap.NewNop(),
		tracer:    otel.Tracer("catalogservice/book"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ViewBookList returns every book in the catalog.
func (s *Service) ViewBookList(ctx context.Context) (_ []Book, err error) {
	ctx, span := s.tracer.Start(ctx, "catalog.view_book_list")
	defer func() { endSpan(span, err) }()

	return s.repo.FindAll(ctx)
}

// ViewBookDetails returns the book with the given ISBN or a *NotFoundError.
func (s *Service) ViewBookDetails(ctx context.Context, isbn string) (_ Book, err error) {
	ctx, span := s.tracer.Start(ctx, "catalog.view_book_details",
		trace.WithAttributes(attribute.String("book.isbn", isbn)))
	defer func() { endSpan(span, err) }()

	b, ok, err := s.repo.FindByISBN(ctx, isbn)
	if err != nil {
		return Book{}, err
	}
	if !ok {
		return Book{}, &NotFoundError{ISBN: isbn}
	}
	return b, nil
}

// AddBookToCatalog stores b unless its ISBN is already taken, in which case
// nothing is written and an *AlreadyExistsError is returned.
func (s *Service) AddBookToCatalog(ctx context.Context, b Book) (_ Book, err error) {
	ctx, span := s.tracer.Start(ctx, "catalog.add_book",
		trace.WithAttributes(attribute.String("book.isbn", b.ISBN)))
	defer func() { endSpan(span, err) }()

	_, ok, err := s.repo.FindByISBN(ctx, b.ISBN)
	if err != nil {
		return Book{}, err
	}
	if ok {
		return Book{}, &AlreadyExistsError{ISBN: b.ISBN}
	}

	// Callers never pick the identity or audit fields of a new record.
	saved, err := s.repo.Save(ctx, New(b.ISBN, b.Title, b.Author, b.Publisher, b.Price))
	if err != nil {
		return Book{}, err
	}

	s.log.Info("book added", zap.String("isbn", saved.ISBN), zap.Int64("id", saved.ID))
	if err := s.publisher.PublishBookCreated(ctx, saved); err != nil {
		s.log.Warn("publish book created", zap.String("isbn", saved.ISBN), zap.Error(err))
	}
	return saved, nil
}

// RemoveBookFromCatalog deletes the book with the given ISBN. Removing an
// unknown ISBN succeeds.
func (s *Service) RemoveBookFromCatalog(ctx context.Context, isbn string) (err error) {
	ctx, span := s.tracer.Start(ctx, "catalog.remove_book",
		trace.WithAttributes(attribute.String("book.isbn", isbn)))
	defer func() { endSpan(span, err) }()

	if err := s.repo.DeleteByISBN(ctx, isbn); err != nil {
		return err
	}

	s.log.Info("book removed", zap.String("isbn", isbn))
	if err := s.publisher.PublishBookDeleted(ctx, isbn); err != nil {
		s.log.Warn("publish book deleted", zap.String("isbn", isbn), zap.Error(err))
	}
	return nil
}

// EditBookDetails replaces title, author, publisher and price of the book
// stored under isbn. When no book is stored under isbn, next is added under
// that ISBN instead.
func (s *Service) EditBookDetails(ctx context.Context, isbn string, next Book) (_ Book, err error) {
	ctx, span := s.tracer.Start(ctx, "catalog.edit_book",
		trace.WithAttributes(attribute.String("book.isbn", isbn)))
	defer func() { endSpan(span, err) }()

	prev, ok, err := s.repo.FindByISBN(ctx, isbn)
	if err != nil {
		return Book{}, err
	}

	if !ok {
		saved, err := s.repo.Save(ctx, New(isbn, next.Title, next.Author, next.Publisher, next.Price))
		if err != nil {
			return Book{}, err
		}
		s.log.Info("book added on edit", zap.String("isbn", saved.ISBN), zap.Int64("id", saved.ID))
		if err := s.publisher.PublishBookCreated(ctx, saved); err != nil {
			s.log.Warn("publish book created", zap.String("isbn", saved.ISBN), zap.Error(err))
		}
		return saved, nil
	}

	saved, err := s.repo.Save(ctx, withDetails(prev, next))
	if err != nil {
		return Book{}, err
	}

	s.log.Info("book edited", zap.String("isbn", saved.ISBN), zap.Int("version", saved.Version))
	if err := s.publisher.PublishBookUpdated(ctx, saved); err != nil {
		s.log.Warn("publish book updated", zap.String("isbn", saved.ISBN), zap.Error(err))
	}
	return saved, nil
}

func endSpan(span trace.Span, err error) {
	if err != nil && !errors.Is(err, ErrNotFound) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

type nopPublisher struct{}

func (nopPublisher) PublishBookCreated(context.Context, Book) error { return nil }
func (nopPublisher) PublishBookUpdated(context.Context, Book) error { return nil }
func (nopPublisher) PublishBookDeleted(context.Context, string) error { return nil }
