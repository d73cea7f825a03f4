package book

import (
	"catalogservice/internal/httpx"

	"github.com/go-playground/validator/v10"
)

func init() {
	httpx.RegisterValidation("book_isbn", func(fl validator.FieldLevel) bool {
		return ISBNPattern.MatchString(fl.Field().String())
	})
}

// Request is the body accepted by POST /books and PUT /books/{isbn}.
// Server-managed attributes sent by clients are ignored.
type Request struct {
	ISBN      string   `json:"isbn" validate:"nonblank,book_isbn"`
	Title     string   `json:"title" validate:"nonblank"`
	Author    string   `json:"author" validate:"nonblank"`
	Publisher string   `json:"publisher" validate:"nonblank"`
	Price     *float64 `json:"price" validate:"required,gt=0"`
}

func (Request) ValidationMessages() map[string]string {
	return map[string]string{
		"isbn.nonblank":      "The book ISBN must be defined.",
		"isbn.book_isbn":     "The ISBN format must be valid.",
		"title.nonblank":     "The book title must be defined.",
		"author.nonblank":    "The book author must be defined.",
		"publisher.nonblank": "The publisher must be defined.",
		"price.required":     "The book price must be defined.",
		"price.gt":           "The book price must be greater than zero.",
	}
}

// Book converts a validated request into a domain value.
func (r Request) Book() Book {
	var price float64
	if r.Price != nil {
		price = *r.Price
	}
	return New(r.ISBN, r.Title, r.Author, r.Publisher, price)
}
