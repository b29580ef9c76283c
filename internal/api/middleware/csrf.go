package middleware

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"net/http"
)

const csrfTokenHeader = "X-CSRF-Token" //nolint:gosec // G101: not a credential, this is an HTTP header name
const csrfCookieName = "csrf_token"

// CSRF implements double-submit cookie protection. Safe requests get a
// token cookie; unsafe requests authenticated by the session cookie must
// echo it in the X-CSRF-Token header or a csrf_token form field. Bearer and
// anonymous requests carry no ambient credentials and pass through.
type CSRF struct {
	secure bool
}

// NewCSRF creates a CSRF middleware. secure marks the cookie Secure and
// should be true when the site is served over TLS.
func NewCSRF(secure bool) *CSRF {
	return &CSRF{secure: secure}
}

// Middleware validates tokens on unsafe methods. It must run after
// OptionalAuth or Auth so the auth method is known.
func (c *CSRF) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			token := c.ensureToken(w, r)
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), csrfTokenKey, token)))
			return
		}

		if AuthMethodFromContext(r.Context()) != MethodCookie {
			next.ServeHTTP(w, r)
			return
		}

		cookie, err := r.Cookie(csrfCookieName)
		if err != nil || cookie.Value == "" {
			writeJSONError(w, http.StatusForbidden, "invalid CSRF token")
			return
		}
		token := r.Header.Get(csrfTokenHeader)
		if token == "" {
			token = r.FormValue("csrf_token")
		}
		if subtle.ConstantTimeCompare([]byte(token), []byte(cookie.Value)) != 1 {
			writeJSONError(w, http.StatusForbidden, "invalid CSRF token")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// CSRFTokenFromContext returns the token set for this request, for
// embedding in rendered forms.
func CSRFTokenFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(csrfTokenKey).(string); ok {
		return v
	}
	return ""
}

func (c *CSRF) ensureToken(w http.ResponseWriter, r *http.Request) string {
	if cookie, err := r.Cookie(csrfCookieName); err == nil && len(cookie.Value) == 64 {
		return cookie.Value
	}

	token := generateCSRFToken()
	http.SetCookie(w, &http.Cookie{
		Name:     csrfCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: false, // JS reads it to set the header
		SameSite: http.SameSiteStrictMode,
		Secure:   c.secure,
	})
	return token
}

func generateCSRFToken() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		panic("crypto/rand failed: " + err.Error())
	}
	return hex.EncodeToString(b)
}
