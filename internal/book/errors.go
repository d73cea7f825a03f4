package book

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound matches any *NotFoundError.
	ErrNotFound = errors.New("book not found")

	// ErrAlreadyExists matches any *AlreadyExistsError.
	ErrAlreadyExists = errors.New("book already exists")

	// ErrVersionConflict is returned by Save when the stored version no longer
	// matches the one the update was based on.
	ErrVersionConflict = errors.New("book was modified concurrently")

	// ErrStorageUnavailable is returned by stores when the medium cannot be
	// reached. It is never retried inside the store.
	ErrStorageUnavailable = errors.New("book storage unavailable")
)

// NotFoundError reports that no book carries ISBN.
type NotFoundError struct {
	ISBN string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("The book with ISBN %s was not found.", e.ISBN)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// AlreadyExistsError reports a second book for an ISBN already in the catalog.
type AlreadyExistsError struct {
	ISBN string
}

func (e *AlreadyExistsError) Error() string {
	return fmt.Sprintf("A book with ISBN %s already exists.", e.ISBN)
}

func (e *AlreadyExistsError) Is(target error) bool {
	return target == ErrAlreadyExists
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrStorageUnavailable, err)
}
