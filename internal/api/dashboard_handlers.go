package api

import (
	"net/http"

	"github.com/soaringjerry/devlevel/internal/middleware"
	"github.com/soaringjerry/devlevel/internal/services"
	"github.com/soaringjerry/devlevel/internal/utils"
)

func (rt *Router) handleDashboard(w http.ResponseWriter, r *http.Request) {
	d, err := rt.dashboard.Dashboard(r.Context(), userID(r))
	if err != nil {
		writeError(w, r, rt.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (rt *Router) handleGamification(w http.ResponseWriter, r *http.Request) {
	g, err := rt.dashboard.Gamification(r.Context(), userID(r))
	if err != nil {
		writeError(w, r, rt.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, g)
}

// handleLegend translates the legend labels for the request locale.
func (rt *Router) handleLegend(w http.ResponseWriter, r *http.Request) {
	locale := middleware.LocaleFromContext(r.Context())
	items := rt.dashboard.Legend()
	out := make([]services.LegendItem, 0, len(items))
	for _, it := range items {
		it.Label = utils.T(locale, it.Label)
		out = append(out, it)
	}
	writeJSON(w, http.StatusOK, map[string]any{"legend": out})
}
