package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/soaringjerry/devlevel/internal/services"
)

// entryView adds the derived points to an entry.
type entryView struct {
	*services.Entry
	Points int `json:"points"`
}

func (rt *Router) viewEntry(e *services.Entry) entryView {
	return entryView{Entry: e, Points: rt.opts.Rules.Score(*e)}
}

// GET /api/entries?from=&to=&limit=
func (rt *Router) handleListEntries(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	opts := services.EntryListOptions{From: q.Get("from"), To: q.Get("to")}
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, r, rt.logger, services.NewInvalidError("invalid limit"))
			return
		}
		opts.Limit = n
	}
	entries, err := rt.entries.List(r.Context(), userID(r), opts)
	if err != nil {
		writeError(w, r, rt.logger, err)
		return
	}
	out := make([]entryView, 0, len(entries))
	for _, e := range entries {
		out = append(out, rt.viewEntry(e))
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": out})
}

func (rt *Router) handleCreateEntry(w http.ResponseWriter, r *http.Request) {
	var in services.EntryInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, rt.logger, err)
		return
	}
	e, err := rt.entries.Create(r.Context(), userID(r), in)
	if err != nil {
		writeError(w, r, rt.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"entry": rt.viewEntry(e)})
}

func (rt *Router) handleGetEntry(w http.ResponseWriter, r *http.Request) {
	e, err := rt.entries.Get(r.Context(), userID(r), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, rt.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"entry": rt.viewEntry(e)})
}

func (rt *Router) handleUpdateEntry(w http.ResponseWriter, r *http.Request) {
	var patch services.EntryPatch
	if err := decodeJSON(r, &patch); err != nil {
		writeError(w, r, rt.logger, err)
		return
	}
	e, err := rt.entries.Update(r.Context(), userID(r), chi.URLParam(r, "id"), patch)
	if err != nil {
		writeError(w, r, rt.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"entry": rt.viewEntry(e)})
}

func (rt *Router) handleDeleteEntry(w http.ResponseWriter, r *http.Request) {
	if err := rt.entries.Delete(r.Context(), userID(r), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, rt.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}
