package book

import (
	"regexp"
	"time"
)

// ISBNPattern is the accepted catalog key format: 10 or 13 digits.
var ISBNPattern = regexp.MustCompile(`^([0-9]{10}|[0-9]{13})$`)

// Book represents a book in the catalog.
type Book struct {
	ID             int64     `json:"id,omitempty"`
	ISBN           string    `json:"isbn"`
	Title          string    `json:"title"`
	Author         string    `json:"author"`
	Publisher      string    `json:"publisher"`
	Price          float64   `json:"price"`
	CreatedAt      time.Time `json:"created_at"`
	LastModifiedAt time.Time `json:"last_modified_at"`
	Version        int       `json:"version"`
	CreatedBy      string    `json:"created_by,omitempty"`
	LastModifiedBy string    `json:"last_modified_by,omitempty"`
}

// New returns a not yet persisted book carrying only caller-supplied fields.
func New(isbn, title, author, publisher string, price float64) Book {
	return Book{
		ISBN:      isbn,
		Title:     title,
		Author:    author,
		Publisher: publisher,
		Price:     price,
	}
}

// IsNew reports whether the store has not assigned an id yet.
func (b Book) IsNew() bool {
	return b.ID == 0
}

// withDetails returns prev with the editable fields taken from next. Identity,
// creation audit and version stay with prev.
func withDetails(prev, next Book) Book {
	merged := prev
	merged.Title = next.Title
	merged.Author = next.Author
	merged.Publisher = next.Publisher
	merged.Price = next.Price
	return merged
}
