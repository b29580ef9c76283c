package middleware

import "context"

// WithTestUserID injects a cookie-authenticated user ID into the context.
// It is meant for handler tests that bypass the auth middleware.
func WithTestUserID(ctx context.Context, userID string) context.Context {
	return withIdentity(ctx, userID, MethodCookie)
}
