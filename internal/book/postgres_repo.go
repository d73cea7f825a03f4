package book

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"catalogservice/internal/audit"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const uniqueViolation = "23505"

const bookColumns = `id, isbn, title, author, publisher, price,
	created_at, last_modified_at, version,
	COALESCE(created_by, ''), COALESCE(last_modified_by, '')`

// PostgresRepo is the pgx-backed Repository.
type PostgresRepo struct {
	db      *pgxpool.Pool
	timeout time.Duration
}

func NewPostgresRepo(db *pgxpool.Pool, timeout time.Duration) *PostgresRepo {
	return &PostgresRepo{db: db, timeout: timeout}
}

func (r *PostgresRepo) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, r.timeout)
}

func (r *PostgresRepo) FindAll(ctx context.Context) ([]Book, error) {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()

	rows, err := r.db.Query(timeoutCtx, `SELECT `+bookColumns+` FROM books ORDER BY id`)
	if err != nil {
		return nil, classify("find all books", err)
	}
	defer rows.Close()

	out := make([]Book, 0)
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, classify("scan book", err)
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("find all books", err)
	}
	return out, nil
}

func (r *PostgresRepo) FindByISBN(ctx context.Context, isbn string) (Book, bool, error) {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()

	b, err := scanBook(r.db.QueryRow(timeoutCtx, `SELECT `+bookColumns+` FROM books WHERE isbn = $1`, isbn))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Book{}, false, nil
		}
		return Book{}, false, classify("find book by isbn", err)
	}
	return b, true, nil
}

func (r *PostgresRepo) ExistsByISBN(ctx context.Context, isbn string) (bool, error) {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()

	var exists bool
	if err := r.db.QueryRow(timeoutCtx, `SELECT EXISTS(SELECT 1 FROM books WHERE isbn = $1)`, isbn).Scan(&exists); err != nil {
		return false, classify("check book existence", err)
	}
	return exists, nil
}

func (r *PostgresRepo) DeleteByISBN(ctx context.Context, isbn string) error {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()

	err := pgx.BeginFunc(timeoutCtx, r.db, func(tx pgx.Tx) error {
		_, err := tx.Exec(timeoutCtx, `DELETE FROM books WHERE isbn = $1`, isbn)
		return err
	})
	return classify("delete book", err)
}

func (r *PostgresRepo) DeleteAll(ctx context.Context) error {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()

	err := pgx.BeginFunc(timeoutCtx, r.db, func(tx pgx.Tx) error {
		_, err := tx.Exec(timeoutCtx, `DELETE FROM books`)
		return err
	})
	return classify("delete all books", err)
}

func (r *PostgresRepo) Save(ctx context.Context, b Book) (Book, error) {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()

	principal := audit.Principal(ctx)

	var saved Book
	err := pgx.BeginFunc(timeoutCtx, r.db, func(tx pgx.Tx) error {
		var err error
		if b.IsNew() {
			saved, err = scanBook(tx.QueryRow(timeoutCtx, `
				INSERT INTO books (isbn, title, author, publisher, price,
				                   created_at, last_modified_at, version, created_by, last_modified_by)
				VALUES ($1, $2, $3, $4, $5, now(), now(), 1, NULLIF($6, ''), NULLIF($6, ''))
				RETURNING `+bookColumns,
				b.ISBN, b.Title, b.Author, b.Publisher, b.Price, principal))
			return err
		}

		saved, err = scanBook(tx.QueryRow(timeoutCtx, `
			UPDATE books
			SET title = $1, author = $2, publisher = $3, price = $4,
			    last_modified_at = now(), last_modified_by = NULLIF($5, ''),
			    version = version + 1
			WHERE id = $6 AND version = $7
			RETURNING `+bookColumns,
			b.Title, b.Author, b.Publisher, b.Price, principal, b.ID, b.Version))
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrVersionConflict
		}
		return err
	})
	if err != nil {
		var pgErr *pgconn.PgError
		switch {
		case errors.Is(err, ErrVersionConflict):
			return Book{}, err
		case errors.As(err, &pgErr) && pgErr.Code == uniqueViolation:
			return Book{}, &AlreadyExistsError{ISBN: b.ISBN}
		}
		return Book{}, classify("save book", err)
	}
	return saved, nil
}

func scanBook(row pgx.Row) (Book, error) {
	var b Book
	err := row.Scan(
		&b.ID, &b.ISBN, &b.Title, &b.Author, &b.Publisher, &b.Price,
		&b.CreatedAt, &b.LastModifiedAt, &b.Version,
		&b.CreatedBy, &b.LastModifiedBy,
	)
	return b, err
}

// classify marks connection-level failures as ErrStorageUnavailable and
// wraps everything else unchanged.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	var (
		connErr *pgconn.ConnectError
		netErr  net.Error
	)
	switch {
	case errors.Is(err, context.DeadlineExceeded),
		pgconn.Timeout(err),
		errors.As(err, &connErr),
		errors.As(err, &netErr):
		return unavailable(op, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
