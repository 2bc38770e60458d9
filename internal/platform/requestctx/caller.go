// Package requestctx carries per-request caller identity through context.
package requestctx

import "context"

// Caller identifies the authenticated caller of an operation.
type Caller struct {
	Username    string
	DisplayName string
	Source      string
}

// callerContextKey is the context key for caller identity.
type callerContextKey struct{}

// WithCaller stores caller identity in context.
func WithCaller(ctx context.Context, caller Caller) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, callerContextKey{}, caller)
}

// CallerFromContext returns the caller identity stored in context.
func CallerFromContext(ctx context.Context) Caller {
	if ctx == nil {
		return Caller{}
	}
	value, _ := ctx.Value(callerContextKey{}).(Caller)
	return value
}
