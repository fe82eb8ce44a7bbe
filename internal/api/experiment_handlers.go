package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/soaringjerry/devlevel/internal/services"
)

func (rt *Router) handleListExperiments(w http.ResponseWriter, r *http.Request) {
	items, err := rt.experiments.List(r.Context(), userID(r))
	if err != nil {
		writeError(w, r, rt.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"experiments": items})
}

func (rt *Router) handleCreateExperiment(w http.ResponseWriter, r *http.Request) {
	var in services.ExperimentInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, rt.logger, err)
		return
	}
	exp, err := rt.experiments.Create(r.Context(), userID(r), in)
	if err != nil {
		writeError(w, r, rt.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"experiment": exp})
}

func (rt *Router) handleGetExperiment(w http.ResponseWriter, r *http.Request) {
	exp, err := rt.experiments.Get(r.Context(), userID(r), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, rt.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"experiment": exp})
}

func (rt *Router) handleUpdateExperiment(w http.ResponseWriter, r *http.Request) {
	var patch services.ExperimentPatch
	if err := decodeJSON(r, &patch); err != nil {
		writeError(w, r, rt.logger, err)
		return
	}
	exp, err := rt.experiments.Update(r.Context(), userID(r), chi.URLParam(r, "id"), patch)
	if err != nil {
		writeError(w, r, rt.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"experiment": exp})
}

func (rt *Router) handleDeleteExperiment(w http.ResponseWriter, r *http.Request) {
	if err := rt.experiments.Delete(r.Context(), userID(r), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, rt.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (rt *Router) handleLogCompliance(w http.ResponseWriter, r *http.Request) {
	var in services.ComplianceInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, rt.logger, err)
		return
	}
	exp, err := rt.experiments.LogCompliance(r.Context(), userID(r), chi.URLParam(r, "id"), in)
	if err != nil {
		writeError(w, r, rt.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"experiment": exp})
}

func (rt *Router) handleCorrelation(w http.ResponseWriter, r *http.Request) {
	c, err := rt.experiments.Correlation(r.Context(), userID(r), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, rt.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}
