package insightshttp

import "github.com/go-chi/chi/v5"

// MountUnitRoutes registers routes relative to /api/units/{unitID}.
func (h *Handler) MountUnitRoutes(r chi.Router) {
	if h == nil {
		return
	}
	r.Get("/insights", h.handleInsights)
}

// MountRoutes registers unit-independent routes relative to /api.
func (h *Handler) MountRoutes(r chi.Router) {
	if h == nil {
		return
	}
	r.Post("/items/suggestions", h.handleSuggestion)
}
