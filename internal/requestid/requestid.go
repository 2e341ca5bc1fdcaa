// Package requestid carries the per-request correlation id through context.Context
// so every outbound downstream call can forward it.
package requestid

import (
	"context"

	"github.com/google/uuid"
)

// Header is the header name used to receive and propagate correlation ids.
const Header = "X-Request-ID"

type ctxKey struct{}

// NewContext returns a copy of ctx carrying id.
func NewContext(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// FromContext returns the id stored in ctx, or "" when absent.
func FromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}

// Ensure returns ctx and its id, generating and attaching a new UUID when ctx carries none.
func Ensure(ctx context.Context) (context.Context, string) {
	if id := FromContext(ctx); id != "" {
		return ctx, id
	}
	id := uuid.NewString()
	return NewContext(ctx, id), id
}
