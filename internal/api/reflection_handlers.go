package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/soaringjerry/devlevel/internal/services"
)

func (rt *Router) handleListReflections(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, r, rt.logger, services.NewInvalidError("invalid limit"))
			return
		}
		limit = n
	}
	items, err := rt.reflections.List(r.Context(), userID(r), limit)
	if err != nil {
		writeError(w, r, rt.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"reflections": items})
}

func (rt *Router) handleCreateReflection(w http.ResponseWriter, r *http.Request) {
	var in services.ReflectionInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, rt.logger, err)
		return
	}
	ref, err := rt.reflections.Create(r.Context(), userID(r), in)
	if err != nil {
		writeError(w, r, rt.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"reflection": ref})
}

// GET /api/reflections/{weekStart}; any day of the week resolves to its Monday.
func (rt *Router) handleGetReflection(w http.ResponseWriter, r *http.Request) {
	ref, err := rt.reflections.GetByWeek(r.Context(), userID(r), chi.URLParam(r, "weekStart"))
	if err != nil {
		writeError(w, r, rt.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"reflection": ref})
}

func (rt *Router) handleUpdateReflection(w http.ResponseWriter, r *http.Request) {
	var patch services.ReflectionPatch
	if err := decodeJSON(r, &patch); err != nil {
		writeError(w, r, rt.logger, err)
		return
	}
	ref, err := rt.reflections.Update(r.Context(), userID(r), chi.URLParam(r, "weekStart"), patch)
	if err != nil {
		writeError(w, r, rt.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"reflection": ref})
}
