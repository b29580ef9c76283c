package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/sydlexius/sprout/internal/exploration"
)

func (r *Router) handleListExplorations(w http.ResponseWriter, req *http.Request) {
	exps, err := r.explorationService.List(req.Context())
	if err != nil {
		r.logger.Error("listing explorations", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if exps == nil {
		exps = []exploration.Exploration{}
	}
	writeJSON(w, http.StatusOK, exps)
}

func (r *Router) handleGetExploration(w http.ResponseWriter, req *http.Request) {
	e, err := r.explorationService.GetByID(req.Context(), req.PathValue("id"))
	if errors.Is(err, exploration.ErrNotFound) {
		writeError(w, http.StatusNotFound, "exploration not found")
		return
	}
	if err != nil {
		r.logger.Error("getting exploration", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (r *Router) handleReloadDemo(w http.ResponseWriter, req *http.Request) {
	id := req.PathValue("id")
	if !exploration.IsDemoID(id) {
		writeError(w, http.StatusNotFound, "unknown demo")
		return
	}
	ctx := req.Context()
	if err := r.explorationService.DeleteDemo(ctx, id); err != nil {
		r.logger.Error("deleting demo", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if err := r.explorationService.LoadDemo(ctx, id); err != nil {
		r.logger.Error("loading demo", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	e, err := r.explorationService.GetByID(ctx, id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	r.logger.Info("demo reloaded", "id", id)
	writeJSON(w, http.StatusOK, e)
}

// explorationInput is the editable part of an exploration.
type explorationInput struct {
	Title        string `json:"title"`
	Category     string `json:"category"`
	Objective    string `json:"objective"`
	LanguageCode string `json:"language_code"`
	Content      string `json:"content"`
}

func (in explorationInput) apply(e *exploration.Exploration) {
	e.Title = in.Title
	e.Category = in.Category
	e.Objective = in.Objective
	e.LanguageCode = in.LanguageCode
	e.Content = in.Content
}

// handleCreateExploration stores a new exploration. Authoring content
// registers the author as an editor.
func (r *Router) handleCreateExploration(w http.ResponseWriter, req *http.Request) {
	u, ok := r.currentUser(w, req)
	if !ok {
		return
	}
	var in explorationInput
	if err := json.NewDecoder(req.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	e := &exploration.Exploration{}
	in.apply(e)

	err := r.explorationService.Create(req.Context(), e)
	if errors.Is(err, exploration.ErrTitleMissing) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		r.logger.Error("creating exploration", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	r.markEditor(req, u.ID)
	writeJSON(w, http.StatusCreated, e)
}

func (r *Router) handleUpdateExploration(w http.ResponseWriter, req *http.Request) {
	u, ok := r.currentUser(w, req)
	if !ok {
		return
	}
	var in explorationInput
	if err := json.NewDecoder(req.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	e := &exploration.Exploration{ID: req.PathValue("id")}
	in.apply(e)

	err := r.explorationService.Update(req.Context(), e)
	switch {
	case errors.Is(err, exploration.ErrTitleMissing):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, exploration.ErrNotFound):
		writeError(w, http.StatusNotFound, "exploration not found")
		return
	case err != nil:
		r.logger.Error("updating exploration", "id", e.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	r.markEditor(req, u.ID)

	updated, err := r.explorationService.GetByID(req.Context(), e.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (r *Router) handleDeleteExploration(w http.ResponseWriter, req *http.Request) {
	id := req.PathValue("id")
	err := r.explorationService.Delete(req.Context(), id)
	if errors.Is(err, exploration.ErrNotFound) {
		writeError(w, http.StatusNotFound, "exploration not found")
		return
	}
	if err != nil {
		r.logger.Error("deleting exploration", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	r.logger.Info("exploration deleted", "id", id)
	w.WriteHeader(http.StatusNoContent)
}

// markEditor registers userID as an editor. Failure is logged only; the
// content change has already been stored.
func (r *Router) markEditor(req *http.Request, userID string) {
	if err := r.userService.RegisterAsEditor(req.Context(), userID); err != nil {
		r.logger.Warn("registering editor after edit", "user_id", userID, "error", err)
	}
}
