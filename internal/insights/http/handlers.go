package insightshttp

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/odyssey-erp/pantry/internal/insights"
	"github.com/odyssey-erp/pantry/internal/inventory"
	"github.com/odyssey-erp/pantry/internal/platform/httpx"
)

const requestTimeout = 45 * time.Second

// Advisor exposes the model-backed operations required by the handler.
type Advisor interface {
	SuggestItemDetails(ctx context.Context, name string) *insights.ItemSuggestion
	InventoryInsights(ctx context.Context, unitID string, items []inventory.Item) string
}

// ItemSource yields the unit's current items.
type ItemSource interface {
	Snapshot(ctx context.Context, unitID string) ([]inventory.Item, error)
}

// Handler serves AI insights and item suggestions.
type Handler struct {
	logger    *slog.Logger
	advisor   Advisor
	items     ItemSource
	validator *validator.Validate
	now       func() time.Time
}

// NewHandler builds a Handler.
func NewHandler(logger *slog.Logger, advisor Advisor, items ItemSource) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		logger:    logger,
		advisor:   advisor,
		items:     items,
		validator: validator.New(),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

type suggestionRequest struct {
	Name string `json:"name" validate:"required,max=200"`
}

func (h *Handler) handleInsights(w http.ResponseWriter, r *http.Request) {
	unitID := chi.URLParam(r, "unitID")
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	items, err := h.items.Snapshot(ctx, unitID)
	if err != nil {
		h.logger.Warn("load items for insights", slog.String("unit_id", unitID), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"unitId":      unitID,
		"insights":    h.advisor.InventoryInsights(ctx, unitID, items),
		"generatedAt": h.now(),
	})
}

func (h *Handler) handleSuggestion(w http.ResponseWriter, r *http.Request) {
	var req suggestionRequest
	if err := httpx.DecodeValid(r, h.validator, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	httpx.JSON(w, http.StatusOK, map[string]any{"suggestion": h.advisor.SuggestItemDetails(ctx, req.Name)})
}
