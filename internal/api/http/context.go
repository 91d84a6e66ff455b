package http

import (
	"context"

	"velorent-backend/internal/security"
)

type contextKey string

const claimsContextKey contextKey = "admin-claims"

func withClaims(ctx context.Context, claims *security.AdminClaims) context.Context {
	return context.WithValue(ctx, claimsContextKey, claims)
}

// ClaimsFromContext returns the authenticated admin, if the request carried a valid token.
func ClaimsFromContext(ctx context.Context) (*security.AdminClaims, bool) {
	claims, ok := ctx.Value(claimsContextKey).(*security.AdminClaims)
	return claims, ok
}
