package api

import (
	"errors"
	"net/http"

	"github.com/sydlexius/sprout/internal/backup"
)

func (r *Router) handleListBackups(w http.ResponseWriter, req *http.Request) {
	if r.backupService == nil {
		writeError(w, http.StatusServiceUnavailable, "backups not configured")
		return
	}
	backups, err := r.backupService.List()
	if err != nil {
		r.logger.Error("listing backups", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if backups == nil {
		backups = []backup.Info{}
	}
	writeJSON(w, http.StatusOK, backups)
}

func (r *Router) handleCreateBackup(w http.ResponseWriter, req *http.Request) {
	if r.backupService == nil {
		writeError(w, http.StatusServiceUnavailable, "backups not configured")
		return
	}
	info, err := r.backupService.Create(req.Context())
	if err != nil {
		r.logger.Error("creating backup", "error", err)
		writeError(w, http.StatusInternalServerError, "backup failed")
		return
	}
	if _, err := r.backupService.Prune(); err != nil {
		r.logger.Warn("pruning backups", "error", err)
	}
	writeJSON(w, http.StatusCreated, info)
}

func (r *Router) handleDeleteBackup(w http.ResponseWriter, req *http.Request) {
	if r.backupService == nil {
		writeError(w, http.StatusServiceUnavailable, "backups not configured")
		return
	}
	err := r.backupService.Delete(req.PathValue("filename"))
	switch {
	case errors.Is(err, backup.ErrInvalidFilename):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, backup.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case err != nil:
		r.logger.Error("deleting backup", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	default:
		w.WriteHeader(http.StatusNoContent)
	}
}
