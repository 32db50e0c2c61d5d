package auth

import (
	"context"

	"github.com/inkwell/inkwell/internal/model"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const callerContextKey contextKey = "caller"

// ContextWithCaller stores the request caller in ctx. Only the HTTP layer
// uses this; services receive the caller as an explicit argument.
func ContextWithCaller(ctx context.Context, caller model.Caller) context.Context {
	return context.WithValue(ctx, callerContextKey, caller)
}

// CallerFromContext returns the request caller, or Anonymous when none was set.
func CallerFromContext(ctx context.Context) model.Caller {
	caller, ok := ctx.Value(callerContextKey).(model.Caller)
	if !ok {
		return model.Anonymous()
	}
	return caller
}
