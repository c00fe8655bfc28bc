// Package ctxkeys holds the typed context keys shared by the api packages.
// It is a leaf package so middleware and handlers can both import it.
package ctxkeys

import "context"

// Key is the named type for all API context keys. context.Value compares
// both type and value, so string keys from other packages never collide.
type Key string

const (
	// Subject is the authenticated caller, injected by the auth middleware
	// from the JWT subject claim.
	Subject Key = "subject"
)

// WithValue adds a ctxkeys.Key value to the context.
func WithValue(ctx context.Context, key Key, value string) context.Context {
	return context.WithValue(ctx, key, value)
}

// SubjectFrom returns the authenticated subject, if any.
func SubjectFrom(ctx context.Context) (string, bool) {
	s, ok := ctx.Value(Subject).(string)
	return s, ok && s != ""
}
