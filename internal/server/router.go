// Package server assembles the HTTP surface of the catalog service.
package server

import (
	"context"
	"net/http"
	"time"

	"catalogservice/internal/book"
	"catalogservice/internal/httpx"
	"catalogservice/internal/platform/metrics"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// EmployeeRole is required for every catalog write.
const EmployeeRole = "employee"

// Deps are the collaborators of the router. Metrics, RateLimiter and Ready
// are optional.
type Deps struct {
	Books        *book.HTTPHandler
	JWTSecret    string
	Logger       *zap.Logger
	Metrics      *metrics.Metrics
	RateLimiter  *httpx.RateLimitMiddleware
	MaxBodyBytes int64
	EnableHSTS   bool
	Ready        func(ctx context.Context) error
}

func NewRouter(d Deps) http.Handler {
	log := d.Logger
	if log == nil {
		log = zap.NewNop()
	}

	r := chi.NewRouter()
	r.Use(httpx.RequestIDMiddleware)
	r.Use(httpx.RecoveryMiddleware(log))
	r.Use(httpx.AccessLogMiddleware(log))
	r.Use(httpx.SecurityHeadersMiddleware(d.EnableHSTS))
	if d.Metrics != nil {
		r.Use(d.Metrics.Middleware)
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if d.Ready != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 500*time.Millisecond)
			defer cancel()
			if err := d.Ready(ctx); err != nil {
				log.Warn("readiness check failed", zap.Error(err))
				http.Error(w, "not ready", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})
	if d.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", d.Metrics.Handler())
	}

	r.Group(func(r chi.Router) {
		if d.RateLimiter != nil {
			r.Use(d.RateLimiter.Middleware)
		}
		if d.MaxBodyBytes > 0 {
			r.Use(httpx.RequestSizeLimitMiddleware(d.MaxBodyBytes))
		}

		protect := func(next http.Handler) http.Handler {
			return httpx.Authenticate(d.JWTSecret)(httpx.RequireRole(EmployeeRole)(next))
		}
		d.Books.Routes(r, protect)
	})

	return r
}
