package requests

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/odyssey-erp/pantry/internal/platform/httpx"
)

// Handler exposes the material-request workflow.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountUnitRoutes registers routes relative to /api/units/{unitID}.
func (h *Handler) MountUnitRoutes(r chi.Router) {
	r.Get("/requests", h.list)
	r.Post("/requests", h.create)
	r.Post("/requests/bulk", h.createBulk)
	r.Post("/requests/{requestID}/approve", h.approve)
	r.Post("/requests/{requestID}/reject", h.reject)
}

type createRequest struct {
	ItemID        string  `json:"itemId" validate:"required"`
	Quantity      float64 `json:"quantity" validate:"gt=0"`
	Sector        Sector  `json:"sector" validate:"required,oneof=KITCHEN BAR DINING_ROOM ADMIN"`
	RequesterName string  `json:"requesterName" validate:"max=120"`
}

type bulkLine struct {
	ItemID   string  `json:"itemId" validate:"required"`
	Quantity float64 `json:"quantity"`
}

type bulkRequest struct {
	Sector        Sector     `json:"sector" validate:"required,oneof=KITCHEN BAR DINING_ROOM ADMIN"`
	RequesterName string     `json:"requesterName" validate:"max=120"`
	Lines         []bulkLine `json:"lines" validate:"required,min=1,dive"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	reqs, err := h.service.List(r.Context(), chi.URLParam(r, "unitID"), Status(r.URL.Query().Get("status")))
	if err != nil {
		h.fail(w, r, "list requests", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"requests": reqs})
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := httpx.DecodeValid(r, h.validator, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	created, err := h.service.Create(r.Context(), chi.URLParam(r, "unitID"), CreateInput{
		ItemID:        req.ItemID,
		Quantity:      req.Quantity,
		Sector:        req.Sector,
		RequesterName: req.RequesterName,
	})
	if err != nil {
		h.fail(w, r, "create request", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, created)
}

func (h *Handler) createBulk(w http.ResponseWriter, r *http.Request) {
	var req bulkRequest
	if err := httpx.DecodeValid(r, h.validator, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	lines := make([]Line, len(req.Lines))
	for i, l := range req.Lines {
		lines[i] = Line{ItemID: l.ItemID, Quantity: l.Quantity}
	}
	result, err := h.service.CreateBulk(r.Context(), chi.URLParam(r, "unitID"), BulkInput{
		Sector:        req.Sector,
		RequesterName: req.RequesterName,
		Lines:         lines,
	})
	if err != nil {
		h.fail(w, r, "create bulk requests", err)
		return
	}
	if result.Requests == nil {
		result.Requests = []MaterialRequest{}
	}
	httpx.JSON(w, http.StatusCreated, result)
}

func (h *Handler) approve(w http.ResponseWriter, r *http.Request) {
	approved, tx, err := h.service.Approve(r.Context(), chi.URLParam(r, "unitID"), chi.URLParam(r, "requestID"))
	if err != nil {
		h.fail(w, r, "approve request", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"request": approved, "transaction": tx})
}

func (h *Handler) reject(w http.ResponseWriter, r *http.Request) {
	rejected, err := h.service.Reject(r.Context(), chi.URLParam(r, "unitID"), chi.URLParam(r, "requestID"))
	if err != nil {
		h.fail(w, r, "reject request", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"request": rejected})
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	h.logger.Warn(op, slog.String("unit_id", chi.URLParam(r, "unitID")), slog.Any("error", err))
	httpx.RespondError(w, err)
}
