package middleware

import (
	"context"
	"net/http"
	"strings"
)

type contextKey string

const (
	userIDKey     contextKey = "userID"
	authMethodKey contextKey = "authMethod"
	csrfTokenKey  contextKey = "csrfToken"
)

// SessionCookieName is the cookie that carries the session token.
const SessionCookieName = "session"

// Auth methods recorded in the request context.
const (
	MethodCookie = "cookie"
	MethodBearer = "bearer"
)

// SessionValidator resolves a session token to a user ID.
type SessionValidator interface {
	ValidateSession(ctx context.Context, token string) (string, error)
}

// AdminChecker reports whether a user has the admin role.
type AdminChecker interface {
	IsAdmin(ctx context.Context, userID string) (bool, error)
}

// OptionalAuth populates the user context when a valid session exists but
// lets anonymous requests through. Public pages use it to vary content by
// sign-in state.
func OptionalAuth(sessions SessionValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token, method := extractToken(r); token != "" {
				if userID, err := sessions.ValidateSession(r.Context(), token); err == nil {
					r = r.WithContext(withIdentity(r.Context(), userID, method))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Auth requires a valid session cookie or bearer token.
func Auth(sessions SessionValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, method := extractToken(r)
			if token == "" {
				writeJSONError(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			userID, err := sessions.ValidateSession(r.Context(), token)
			if err != nil {
				writeJSONError(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			next.ServeHTTP(w, r.WithContext(withIdentity(r.Context(), userID, method)))
		})
	}
}

// RequireAdmin rejects requests whose user is not an admin. It must run
// after Auth.
func RequireAdmin(users AdminChecker) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			userID := UserIDFromContext(r.Context())
			if userID == "" {
				writeJSONError(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			ok, err := users.IsAdmin(r.Context(), userID)
			if err != nil {
				writeJSONError(w, http.StatusInternalServerError, "internal error")
				return
			}
			if !ok {
				writeJSONError(w, http.StatusForbidden, "admin role required")
				return
			}
			next(w, r)
		}
	}
}

// UserIDFromContext extracts the authenticated user ID from the context.
func UserIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(userIDKey).(string); ok {
		return v
	}
	return ""
}

// AuthMethodFromContext returns MethodCookie, MethodBearer or "".
func AuthMethodFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(authMethodKey).(string); ok {
		return v
	}
	return ""
}

func withIdentity(ctx context.Context, userID, method string) context.Context {
	ctx = context.WithValue(ctx, userIDKey, userID)
	return context.WithValue(ctx, authMethodKey, method)
}

func extractToken(r *http.Request) (string, string) {
	if cookie, err := r.Cookie(SessionCookieName); err == nil && cookie.Value != "" {
		return cookie.Value, MethodCookie
	}
	if token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok && token != "" {
		return token, MethodBearer
	}
	return "", ""
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(`{"error":"` + msg + `"}` + "\n"))
}
