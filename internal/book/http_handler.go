package book

import (
	"errors"
	"net/http"

	"catalogservice/internal/httpx"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type HTTPHandler struct {
	service *Service
	log     *zap.Logger
}

func NewHTTPHandler(service *Service, log *zap.Logger) *HTTPHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &HTTPHandler{service: service, log: log}
}

// Routes mounts the catalog endpoints. Writes are wrapped by protect, which
// is expected to enforce authentication and role checks.
func (h *HTTPHandler) Routes(r chi.Router, protect func(http.Handler) http.Handler) {
	r.Get("/books", h.List)
	r.Get("/books/{isbn}", h.Get)
	r.Group(func(r chi.Router) {
		r.Use(protect)
		r.Post("/books", h.Create)
		r.Put("/books/{isbn}", h.Update)
		r.Delete("/books/{isbn}", h.Delete)
	})
}

// List handles GET /books
func (h *HTTPHandler) List(w http.ResponseWriter, r *http.Request) {
	books, err := h.service.ViewBookList(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if books == nil {
		books = []Book{}
	}
	httpx.JSONSuccess(w, r, books)
}

// Get handles GET /books/{isbn}
func (h *HTTPHandler) Get(w http.ResponseWriter, r *http.Request) {
	b, err := h.service.ViewBookDetails(r.Context(), chi.URLParam(r, "isbn"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.JSONSuccess(w, r, b)
}

// Create handles POST /books
func (h *HTTPHandler) Create(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decode(w, r)
	if !ok {
		return
	}

	b, err := h.service.AddBookToCatalog(r.Context(), req.Book())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	w.Header().Set("Location", "/books/"+b.ISBN)
	httpx.JSONCreated(w, r, b)
}

// Update handles PUT /books/{isbn}. A missing book is created under the
// path ISBN.
func (h *HTTPHandler) Update(w http.ResponseWriter, r *http.Request) {
	isbn := chi.URLParam(r, "isbn")
	if !ISBNPattern.MatchString(isbn) {
		httpx.JSONError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request",
			map[string]string{"isbn": Request{}.ValidationMessages()["isbn.book_isbn"]})
		return
	}

	req, ok := h.decode(w, r)
	if !ok {
		return
	}

	b, err := h.service.EditBookDetails(r.Context(), isbn, req.Book())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.JSONSuccess(w, r, b)
}

// Delete handles DELETE /books/{isbn}
func (h *HTTPHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.RemoveBookFromCatalog(r.Context(), chi.URLParam(r, "isbn")); err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.JSONNoContent(w)
}

func (h *HTTPHandler) decode(w http.ResponseWriter, r *http.Request) (Request, bool) {
	var req Request
	if err := httpx.DecodeJSON(r, &req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			httpx.JSONError(w, r, http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", "Request body too large", nil)
			return req, false
		}
		httpx.JSONError(w, r, http.StatusBadRequest, "INVALID_JSON", "Request body is not valid JSON", nil)
		return req, false
	}
	if fields := httpx.ValidateStruct(req); fields != nil {
		httpx.JSONError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request", fields)
		return req, false
	}
	return req, true
}

func (h *HTTPHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		notFound *NotFoundError
		exists   *AlreadyExistsError
	)
	switch {
	case errors.As(err, &notFound):
		httpx.JSONError(w, r, http.StatusNotFound, "BOOK_NOT_FOUND", notFound.Error(), nil)
	case errors.As(err, &exists):
		httpx.JSONError(w, r, http.StatusUnprocessableEntity, "BOOK_ALREADY_EXISTS", exists.Error(), nil)
	case errors.Is(err, ErrVersionConflict):
		httpx.JSONError(w, r, http.StatusConflict, "VERSION_CONFLICT", "The book was modified by another request, retry the update", nil)
	case errors.Is(err, ErrStorageUnavailable):
		h.log.Warn("storage unavailable", zap.String("request_id", httpx.RequestIDFrom(r)), zap.Error(err))
		httpx.JSONError(w, r, http.StatusServiceUnavailable, "STORAGE_UNAVAILABLE", "The catalog is temporarily unavailable", nil)
	default:
		h.log.Error("request failed", zap.String("request_id", httpx.RequestIDFrom(r)), zap.Error(err))
		httpx.JSONError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", nil)
	}
}
