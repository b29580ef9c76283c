package api

import (
	"context"
	"net/http"
	"time"
)

func (r *Router) handleMaintenanceStatus(w http.ResponseWriter, req *http.Request) {
	if r.maintenanceService == nil {
		writeError(w, http.StatusServiceUnavailable, "maintenance service not available")
		return
	}
	status, err := r.maintenanceService.Status(req.Context())
	if err != nil {
		r.logger.Error("getting maintenance status", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func (r *Router) handleMaintenanceRun(w http.ResponseWriter, req *http.Request) {
	r.runMaintenance(w, req, "run", func(ctx context.Context) error {
		return r.maintenanceService.Run(ctx)
	})
}

func (r *Router) handleMaintenanceVacuum(w http.ResponseWriter, req *http.Request) {
	r.runMaintenance(w, req, "vacuum", func(ctx context.Context) error {
		return r.maintenanceService.Vacuum(ctx)
	})
}

func (r *Router) runMaintenance(w http.ResponseWriter, req *http.Request, op string, fn func(context.Context) error) {
	if r.maintenanceService == nil {
		writeError(w, http.StatusServiceUnavailable, "maintenance service not available")
		return
	}
	ctx, cancel := context.WithTimeout(req.Context(), 60*time.Second)
	defer cancel()

	if err := fn(ctx); err != nil {
		r.logger.Error("maintenance failed", "op", op, "error", err)
		writeError(w, http.StatusInternalServerError, op+" failed")
		return
	}
	r.handleMaintenanceStatus(w, req)
}
