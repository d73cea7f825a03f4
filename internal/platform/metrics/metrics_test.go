package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddleware_RecordsRoutePattern(t *testing.T) {
	m, err := New()
	require.NoError(t, err)

	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/books/{isbn}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	for _, isbn := range []string{"1234567890", "1234567891"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/books/"+isbn, nil))
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(m.requests.WithLabelValues("GET", "/books/{isbn}", "404")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.requestDuration))
}

func TestBookSeeded(t *testing.T) {
	m, err := New()
	require.NoError(t, err)

	m.BookSeeded("added")
	m.BookSeeded("added")
	m.BookSeeded("skipped")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.seededBooks.WithLabelValues("added")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.seededBooks.WithLabelValues("skipped")))
}

func TestHandler_ExposesCollectors(t *testing.T) {
	m, err := New()
	require.NoError(t, err)
	m.BookSeeded("added")

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.True(t, strings.Contains(body, `catalog_seeded_books_total{outcome="added"} 1`))
	assert.Contains(t, body, "go_goroutines")
}
