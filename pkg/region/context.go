package region

import "context"

type contextKey struct{}

// WithContext stores the resolved region decision in the context.
func WithContext(ctx context.Context, d Decision) context.Context {
	return context.WithValue(ctx, contextKey{}, d)
}

// FromContext retrieves the resolved region decision from the context.
func FromContext(ctx context.Context) (Decision, bool) {
	d, ok := ctx.Value(contextKey{}).(Decision)
	return d, ok
}
