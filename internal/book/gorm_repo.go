package book

import (
	"context"
	"errors"
	"strings"
	"time"

	"catalogservice/internal/audit"

	"gorm.io/gorm"
)

// bookRecord is the gorm row model for the books table.
type bookRecord struct {
	ID             int64     `gorm:"primaryKey;autoIncrement"`
	ISBN           string    `gorm:"type:varchar(13);not null;uniqueIndex:books_isbn_key"`
	Title          string    `gorm:"not null"`
	Author         string    `gorm:"not null"`
	Publisher      string    `gorm:"not null"`
	Price          float64   `gorm:"type:numeric(10,2);not null"`
	CreatedAt      time.Time `gorm:"not null"`
	LastModifiedAt time.Time `gorm:"not null"`
	Version        int       `gorm:"not null;default:1"`
	CreatedBy      *string
	LastModifiedBy *string
}

func (bookRecord) TableName() string {
	return "books"
}

func (r bookRecord) toBook() Book {
	return Book{
		ID:             r.ID,
		ISBN:           r.ISBN,
		Title:          r.Title,
		Author:         r.Author,
		Publisher:      r.Publisher,
		Price:          r.Price,
		CreatedAt:      r.CreatedAt,
		LastModifiedAt: r.LastModifiedAt,
		Version:        r.Version,
		CreatedBy:      deref(r.CreatedBy),
		LastModifiedBy: deref(r.LastModifiedBy),
	}
}

// GormRepo is a Repository on gorm, used with sqlite for local runs and
// tests, or with postgres as an alternative to PostgresRepo.
type GormRepo struct {
	db *gorm.DB
}

func NewGormRepo(db *gorm.DB) *GormRepo {
	return &GormRepo{db: db}
}

// AutoMigrate creates or updates the books table.
func (r *GormRepo) AutoMigrate() error {
	return r.db.AutoMigrate(&bookRecord{})
}

func (r *GormRepo) FindAll(ctx context.Context) ([]Book, error) {
	var recs []bookRecord
	if err := r.db.WithContext(ctx).Order("id").Find(&recs).Error; err != nil {
		return nil, classify("find all books", err)
	}
	out := make([]Book, 0, len(recs))
	for _, rec := range recs {
		out = append(out, rec.toBook())
	}
	return out, nil
}

func (r *GormRepo) FindByISBN(ctx context.Context, isbn string) (Book, bool, error) {
	var rec bookRecord
	err := r.db.WithContext(ctx).Where("isbn = ?", isbn).Take(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Book{}, false, nil
		}
		return Book{}, false, classify("find book by isbn", err)
	}
	return rec.toBook(), true, nil
}

func (r *GormRepo) ExistsByISBN(ctx context.Context, isbn string) (bool, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&bookRecord{}).Where("isbn = ?", isbn).Count(&n).Error; err != nil {
		return false, classify("check book existence", err)
	}
	return n > 0, nil
}

func (r *GormRepo) DeleteByISBN(ctx context.Context, isbn string) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Where("isbn = ?", isbn).Delete(&bookRecord{}).Error
	})
	return classify("delete book", err)
}

func (r *GormRepo) DeleteAll(ctx context.Context) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&bookRecord{}).Error
	})
	return classify("delete all books", err)
}

func (r *GormRepo) Save(ctx context.Context, b Book) (Book, error) {
	principal := optional(audit.Principal(ctx))
	now := time.Now().UTC()

	var rec bookRecord
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if b.IsNew() {
			rec = bookRecord{
				ISBN:           b.ISBN,
				Title:          b.Title,
				Author:         b.Author,
				Publisher:      b.Publisher,
				Price:          b.Price,
				CreatedAt:      now,
				LastModifiedAt: now,
				Version:        1,
				CreatedBy:      principal,
				LastModifiedBy: principal,
			}
			return tx.Create(&rec).Error
		}

		res := tx.Model(&bookRecord{}).
			Where("id = ? AND version = ?", b.ID, b.Version).
			Updates(map[string]any{
				"title":            b.Title,
				"author":           b.Author,
				"publisher":        b.Publisher,
				"price":            b.Price,
				"last_modified_at": now,
				"last_modified_by": principal,
				"version":          gorm.Expr("version + 1"),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrVersionConflict
		}
		return tx.Take(&rec, b.ID).Error
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrVersionConflict):
			return Book{}, err
		case isDuplicateKey(err):
			return Book{}, &AlreadyExistsError{ISBN: b.ISBN}
		}
		return Book{}, classify("save book", err)
	}
	return rec.toBook(), nil
}

func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "duplicate key")
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
