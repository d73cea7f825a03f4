// Package audit carries the identity of the acting principal from the
// transport boundary down to the stores that stamp created_by and
// last_modified_by.
package audit

import "context"

type principalKey struct{}

// WithPrincipal returns a copy of ctx carrying name as the acting principal.
// An empty name leaves ctx unchanged.
func WithPrincipal(ctx context.Context, name string) context.Context {
	if name == "" {
		return ctx
	}
	return context.WithValue(ctx, principalKey{}, name)
}

// Principal returns the acting principal, or "" for unauthenticated work
// such as the data seeder.
func Principal(ctx context.Context) string {
	if v, ok := ctx.Value(principalKey{}).(string); ok {
		return v
	}
	return ""
}
