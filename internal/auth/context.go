package auth

import "context"

type contextKey string

const (
	clientIDKey contextKey = "clientID"
	claimsKey   contextKey = "authClaims"
)

// WithClientID stores the authenticated client id on the context.
func WithClientID(ctx context.Context, clientID string) context.Context {
	return context.WithValue(ctx, clientIDKey, clientID)
}

// ClientIDFromContext returns the authenticated client id, if any.
func ClientIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(clientIDKey).(string)
	if !ok || id == "" {
		return "", false
	}
	return id, true
}

// ClaimsFromContext returns the validated token claims, if any.
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(claimsKey).(*Claims)
	return claims, ok
}
