package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"sort"

	"github.com/sydlexius/sprout/internal/configprop"
)

func (r *Router) handleGetConfig(w http.ResponseWriter, req *http.Request) {
	values, err := r.configStore.Snapshot(req.Context())
	if err != nil {
		r.logger.Error("reading config", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, values)
}

// handleUpdateConfig sets properties from a {"name": "raw value"} object.
// Every name is checked before anything is written.
func (r *Router) handleUpdateConfig(w http.ResponseWriter, req *http.Request) {
	var body map[string]string
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(body) == 0 {
		writeError(w, http.StatusBadRequest, "no properties given")
		return
	}

	names := make([]string, 0, len(body))
	for name := range body {
		if _, ok := r.configStore.Registry().Lookup(name); !ok {
			writeError(w, http.StatusBadRequest, "unknown config property: "+name)
			return
		}
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		err := r.configStore.Set(req.Context(), name, body[name])
		if errors.Is(err, configprop.ErrInvalidValue) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if err != nil {
			r.logger.Error("setting config", "name", name, "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
	}
	r.logger.Info("config updated", "names", names)
	r.handleGetConfig(w, req)
}

func (r *Router) handleResetConfig(w http.ResponseWriter, req *http.Request) {
	name := req.PathValue("name")
	err := r.configStore.Reset(req.Context(), name)
	if errors.Is(err, configprop.ErrUnknownProperty) {
		writeError(w, http.StatusNotFound, "unknown config property: "+name)
		return
	}
	if err != nil {
		r.logger.Error("resetting config", "name", name, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
