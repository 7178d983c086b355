package purchasing

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/pantry/internal/platform/httpx"
)

// Handler serves purchase recommendations.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountUnitRoutes registers routes relative to /api/units/{unitID}.
func (h *Handler) MountUnitRoutes(r chi.Router) {
	r.Get("/purchase-recommendations", h.current)
	r.Get("/purchase-reports", h.history)
}

func (h *Handler) current(w http.ResponseWriter, r *http.Request) {
	unitID := chi.URLParam(r, "unitID")
	report, err := h.service.Current(r.Context(), unitID)
	if err != nil {
		h.logger.Warn("purchase recommendation", slog.String("unit_id", unitID), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if r.URL.Query().Get("format") == "text" {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(report.Text()))
		return
	}
	httpx.JSON(w, http.StatusOK, report)
}

func (h *Handler) history(w http.ResponseWriter, r *http.Request) {
	unitID := chi.URLParam(r, "unitID")
	reports, err := h.service.History(r.Context(), unitID)
	if err != nil {
		h.logger.Warn("purchase reports", slog.String("unit_id", unitID), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"reports": reports})
}
