package book

import (
	"context"
)

//go:generate mockgen -source=ports.go -destination=mock_ports.go -package=book

// Repository defines the contract for book storage.
type Repository interface {
	FindAll(ctx context.Context) ([]Book, error)
	// FindByISBN reports absence with ok == false, never with an error.
	FindByISBN(ctx context.Context, isbn string) (b Book, ok bool, err error)
	ExistsByISBN(ctx context.Context, isbn string) (bool, error)
	// DeleteByISBN is a no-op for an unknown ISBN.
	DeleteByISBN(ctx context.Context, isbn string) error
	// Save inserts when b.ID is zero and otherwise updates the row if its
	// version still equals b.Version.
	Save(ctx context.Context, b Book) (Book, error)
	DeleteAll(ctx context.Context) error
}

// EventPublisher receives catalog changes after they are committed.
type EventPublisher interface {
	PublishBookCreated(ctx context.Context, b Book) error
	PublishBookUpdated(ctx context.Context, b Book) error
	PublishBookDeleted(ctx context.Context, isbn string) error
}
