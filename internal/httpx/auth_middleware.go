package httpx

import (
	"net/http"
	"strings"

	"catalogservice/internal/audit"
	"catalogservice/internal/platform/crypto"
)

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	w.WriteHeader(http.StatusUnauthorized)
}

// Authenticate verifies the bearer token and places its claims and the
// audit principal in the request context. Requests without a valid token
// are rejected with 401 and an empty body.
func Authenticate(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if !strings.HasPrefix(authHeader, "Bearer ") {
				unauthorized(w)
				return
			}
			token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))

			claims, err := crypto.ParseToken(secret, token)
			if err != nil {
				unauthorized(w)
				return
			}

			ctx := ContextWithClaims(r.Context(), claims)
			ctx = audit.WithPrincipal(ctx, claims.Principal())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole must run after Authenticate. Authenticated callers lacking
// role get 403 with an empty body.
func RequireRole(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := ClaimsFrom(r)
			if claims == nil {
				unauthorized(w)
				return
			}
			if !claims.HasRole(role) {
				w.WriteHeader(http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
