package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/sydlexius/sprout/internal/api/middleware"
	"github.com/sydlexius/sprout/internal/auth"
	"github.com/sydlexius/sprout/internal/user"
	"github.com/sydlexius/sprout/internal/version"
)

const sessionMaxAge = 86400

func (r *Router) handleHealth(w http.ResponseWriter, req *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": version.Version,
		"commit":  version.Commit,
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"` //nolint:gosec // G117: request field, not a hardcoded secret
}

func (r *Router) handleLogin(w http.ResponseWriter, req *http.Request) {
	var body credentials
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	token, err := r.authService.Login(req.Context(), body.Username, body.Password)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	if err != nil {
		r.logger.Error("login failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    token,
		Path:     r.cookiePath(),
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
		Secure:   r.secureCookies,
		MaxAge:   sessionMaxAge,
	})
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (r *Router) handleLogout(w http.ResponseWriter, req *http.Request) {
	if cookie, err := req.Cookie(middleware.SessionCookieName); err == nil {
		if err := r.authService.Logout(req.Context(), cookie.Value); err != nil {
			r.logger.Warn("failed to delete session", "error", err)
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     r.cookiePath(),
		HttpOnly: true,
		MaxAge:   -1,
	})
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (r *Router) handleMe(w http.ResponseWriter, req *http.Request) {
	u, ok := r.currentUser(w, req)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (r *Router) handleSetup(w http.ResponseWriter, req *http.Request) {
	hasUsers, err := r.authService.HasUsers(req.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if hasUsers {
		writeError(w, http.StatusConflict, "admin account already exists")
		return
	}

	var body credentials
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	created, err := r.authService.Setup(req.Context(), body.Username, body.Password)
	switch {
	case errors.Is(err, user.ErrInvalidUsername):
		writeError(w, http.StatusBadRequest, user.ErrInvalidUsername.Error())
		return
	case errors.Is(err, user.ErrWeakPassword):
		writeError(w, http.StatusBadRequest, user.ErrWeakPassword.Error())
		return
	case err != nil:
		r.logger.Error("failed to create admin account", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	case !created:
		writeError(w, http.StatusConflict, "admin account already exists")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"status": "admin account created"})
}

func (r *Router) handleRegisterEditor(w http.ResponseWriter, req *http.Request) {
	u, ok := r.currentUser(w, req)
	if !ok {
		return
	}
	if err := r.userService.RegisterAsEditor(req.Context(), u.ID); err != nil {
		r.logger.Error("registering editor", "user_id", u.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	u, err := r.userService.GetByID(req.Context(), u.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, u)
}

// currentUser loads the authenticated user, writing an error response and
// returning false when there is none.
func (r *Router) currentUser(w http.ResponseWriter, req *http.Request) (*user.User, bool) {
	userID := middleware.UserIDFromContext(req.Context())
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return nil, false
	}
	u, err := r.userService.GetByID(req.Context(), userID)
	if errors.Is(err, user.ErrNotFound) {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return nil, false
	}
	if err != nil {
		r.logger.Error("loading current user", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return nil, false
	}
	return u, true
}

func (r *Router) cookiePath() string {
	if r.basePath == "" {
		return "/"
	}
	return r.basePath + "/"
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, "encode error", http.StatusInternalServerError)
	}
}
