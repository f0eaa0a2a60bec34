package auth

import "context"

type identityCtxKey struct{}

// IntoContext attaches a verified identity to ctx.
func IntoContext(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityCtxKey{}, id)
}

// FromContext returns the identity attached by IntoContext, if any.
func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityCtxKey{}).(Identity)
	return id, ok
}
