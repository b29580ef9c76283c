package api

import (
	"errors"
	"net/http"

	"github.com/sydlexius/sprout/internal/api/middleware"
	"github.com/sydlexius/sprout/internal/user"
)

func (r *Router) handleListUsers(w http.ResponseWriter, req *http.Request) {
	users, err := r.userService.List(req.Context())
	if err != nil {
		r.logger.Error("listing users", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if users == nil {
		users = []user.User{}
	}
	writeJSON(w, http.StatusOK, users)
}

// handleDeleteUser removes an account and its sessions. Admins cannot
// delete themselves, so at least one admin always remains reachable.
func (r *Router) handleDeleteUser(w http.ResponseWriter, req *http.Request) {
	id := req.PathValue("id")
	if id == middleware.UserIDFromContext(req.Context()) {
		writeError(w, http.StatusBadRequest, "cannot delete your own account")
		return
	}
	err := r.userService.Delete(req.Context(), id)
	if errors.Is(err, user.ErrNotFound) {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}
	if err != nil {
		r.logger.Error("deleting user", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	r.logger.Info("user deleted", "id", id)
	w.WriteHeader(http.StatusNoContent)
}
