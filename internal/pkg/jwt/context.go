package jwt

import "context"

type authContextKey struct{}

// SetAuth stores verified claims on the context for handlers.
func SetAuth(ctx context.Context, clm Claims) context.Context {
	return context.WithValue(ctx, authContextKey{}, clm)
}

// GetAuth returns the claims stored by SetAuth, nil when absent.
func GetAuth(ctx context.Context) *Claims {
	clm, ok := ctx.Value(authContextKey{}).(Claims)
	if !ok {
		return nil
	}
	return &clm
}
