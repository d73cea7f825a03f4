package httpx

import (
	"context"
	"net/http"

	"catalogservice/internal/platform/crypto"
)

type contextKey string

const (
	claimsKey    contextKey = "claims"
	requestIDKey contextKey = "requestID"
)

// ClaimsFrom returns the verified token claims, or nil for anonymous requests.
func ClaimsFrom(r *http.Request) *crypto.Claims {
	if v, ok := r.Context().Value(claimsKey).(*crypto.Claims); ok {
		return v
	}
	return nil
}

// PrincipalFrom returns the authenticated principal name, or "".
func PrincipalFrom(r *http.Request) string {
	if c := ClaimsFrom(r); c != nil {
		return c.Principal()
	}
	return ""
}

func ContextWithClaims(ctx context.Context, claims *crypto.Claims) context.Context {
	return context.WithValue(ctx, claimsKey, claims)
}

func RequestIDFrom(r *http.Request) string {
	if v, ok := r.Context().Value(requestIDKey).(string); ok {
		return v
	}
	return ""
}

func ContextWithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}
