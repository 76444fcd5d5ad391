package principal

import "context"

type contextKey struct{}

// WithContext attaches the principal to the request context so protected
// handlers never re-derive identity themselves.
func WithContext(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, contextKey{}, p)
}

// FromContext retrieves the principal stored by the gateway middleware.
func FromContext(ctx context.Context) (Principal, bool) {
	if ctx == nil {
		return Principal{}, false
	}
	p, ok := ctx.Value(contextKey{}).(Principal)
	return p, ok
}
