package inventory

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/odyssey-erp/pantry/internal/platform/httpx"
)

// IdempotencyHeader carries the client's replay key for batch endpoints.
const IdempotencyHeader = "Idempotency-Key"

// CountReporter derives the follow-up report shown after a stock count.
type CountReporter interface {
	FromItems(items []Item) any
}

// Handler wires HTTP endpoints for items, movements and the ledger.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	reporter  CountReporter
	validator *validator.Validate
}

// NewHandler constructs a Handler instance. reporter may be nil.
func NewHandler(logger *slog.Logger, service *Service, reporter CountReporter) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		reporter:  reporter,
		validator: validator.New(),
	}
}

// MountUnitRoutes registers routes relative to /api/units/{unitID}.
func (h *Handler) MountUnitRoutes(r chi.Router) {
	r.Get("/items", h.listItems)
	r.Post("/items", h.createItem)
	r.Get("/items/{itemID}", h.getItem)
	r.Patch("/items/{itemID}", h.updateItem)
	r.Delete("/items/{itemID}", h.deleteItem)
	r.Post("/items/{itemID}/movements", h.postMovement)
	r.Post("/movements/bulk", h.postBulk)
	r.Post("/stock-counts", h.postCount)
	r.Get("/transactions", h.listTransactions)
	r.Get("/summary", h.summary)
}

// ListUnits serves the known restaurant units.
func (h *Handler) ListUnits(w http.ResponseWriter, r *http.Request) {
	httpx.JSON(w, http.StatusOK, map[string]any{"units": h.service.Units()})
}

type itemRequest struct {
	Name        string  `json:"name" validate:"required,max=200"`
	Category    string  `json:"category" validate:"max=100"`
	Quantity    float64 `json:"quantity" validate:"gte=0"`
	Unit        string  `json:"unit" validate:"required,max=20"`
	Price       float64 `json:"price" validate:"gte=0"`
	MinStock    float64 `json:"minStock" validate:"gte=0"`
	Description string  `json:"description" validate:"max=1000"`
}

type itemPatchRequest struct {
	Name        *string  `json:"name" validate:"omitempty,min=1,max=200"`
	Category    *string  `json:"category" validate:"omitempty,max=100"`
	Unit        *string  `json:"unit" validate:"omitempty,min=1,max=20"`
	Price       *float64 `json:"price" validate:"omitempty,gte=0"`
	MinStock    *float64 `json:"minStock" validate:"omitempty,gte=0"`
	Description *string  `json:"description" validate:"omitempty,max=1000"`
}

type movementRequest struct {
	Type     MovementType `json:"type" validate:"required,oneof=ENTRY_PURCHASE EXIT_PRODUCTION EXIT_LOSS"`
	Quantity float64      `json:"quantity" validate:"gt=0"`
	Reason   string       `json:"reason" validate:"max=500"`
	Cost     *float64     `json:"cost" validate:"omitempty,gte=0"`
}

type bulkLineRequest struct {
	ItemID          string   `json:"itemId" validate:"required"`
	Quantity        float64  `json:"quantity"`
	Cost            *float64 `json:"cost" validate:"omitempty,gte=0"`
	KeepMasterPrice bool     `json:"keepMasterPrice"`
}

type bulkRequest struct {
	Type   MovementType      `json:"type" validate:"required,oneof=ENTRY_PURCHASE EXIT_PRODUCTION EXIT_LOSS"`
	Reason string            `json:"reason" validate:"max=500"`
	Lines  []bulkLineRequest `json:"lines" validate:"required,min=1,dive"`
}

type countLineRequest struct {
	ItemID  string   `json:"itemId" validate:"required"`
	Counted *float64 `json:"counted"`
}

type countRequest struct {
	Counts []countLineRequest `json:"counts" validate:"required,min=1,dive"`
}

func (h *Handler) listItems(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.ListItems(r.Context(), unitParam(r), r.URL.Query().Get("q"))
	if err != nil {
		h.fail(w, r, "list items", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": items})
}

func (h *Handler) createItem(w http.ResponseWriter, r *http.Request) {
	var req itemRequest
	if err := httpx.DecodeValid(r, h.validator, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	item, err := h.service.CreateItem(r.Context(), unitParam(r), ItemInput{
		Name:        req.Name,
		Category:    req.Category,
		Quantity:    req.Quantity,
		Unit:        req.Unit,
		Price:       req.Price,
		MinStock:    req.MinStock,
		Description: req.Description,
	})
	if err != nil {
		h.fail(w, r, "create item", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, item)
}

func (h *Handler) getItem(w http.ResponseWriter, r *http.Request) {
	item, err := h.service.GetItem(r.Context(), unitParam(r), chi.URLParam(r, "itemID"))
	if err != nil {
		h.fail(w, r, "get item", err)
		return
	}
	httpx.JSON(w, http.StatusOK, item)
}

func (h *Handler) updateItem(w http.ResponseWriter, r *http.Request) {
	var req itemPatchRequest
	if err := httpx.DecodeValid(r, h.validator, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	item, err := h.service.UpdateItem(r.Context(), unitParam(r), chi.URLParam(r, "itemID"), ItemPatch{
		Name:        req.Name,
		Category:    req.Category,
		Unit:        req.Unit,
		Price:       req.Price,
		MinStock:    req.MinStock,
		Description: req.Description,
	})
	if err != nil {
		h.fail(w, r, "update item", err)
		return
	}
	httpx.JSON(w, http.StatusOK, item)
}

func (h *Handler) deleteItem(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteItem(r.Context(), unitParam(r), chi.URLParam(r, "itemID")); err != nil {
		h.fail(w, r, "delete item", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) postMovement(w http.ResponseWriter, r *http.Request) {
	var req movementRequest
	if err := httpx.DecodeValid(r, h.validator, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	item, tx, err := h.service.RegisterMovement(r.Context(), unitParam(r), SingleMovement{
		ItemID:   chi.URLParam(r, "itemID"),
		Type:     req.Type,
		Quantity: req.Quantity,
		Reason:   req.Reason,
		NewCost:  req.Cost,
	})
	if err != nil {
		h.fail(w, r, "post movement", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]any{"item": item, "transaction": tx})
}

func (h *Handler) postBulk(w http.ResponseWriter, r *http.Request) {
	var req bulkRequest
	if err := httpx.DecodeValid(r, h.validator, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	lines := make([]BulkLine, len(req.Lines))
	for i, l := range req.Lines {
		lines[i] = BulkLine{ItemID: l.ItemID, Quantity: l.Quantity, Cost: l.Cost, KeepMasterPrice: l.KeepMasterPrice}
	}
	result, err := h.service.RegisterBulkMovement(r.Context(), unitParam(r), BulkInput{
		Type:           req.Type,
		Reason:         req.Reason,
		Lines:          lines,
		IdempotencyKey: r.Header.Get(IdempotencyHeader),
	})
	if err != nil {
		h.fail(w, r, "bulk movement", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, batchResponse(result))
}

func (h *Handler) postCount(w http.ResponseWriter, r *http.Request) {
	var req countRequest
	if err := httpx.DecodeValid(r, h.validator, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	counts := make([]Count, len(req.Counts))
	for i, c := range req.Counts {
		counts[i] = Count{ItemID: c.ItemID}
		if c.Counted != nil {
			counts[i].Counted = *c.Counted
		}
	}
	result, err := h.service.FinalizeStockCount(r.Context(), unitParam(r), CountInput{
		Counts:         counts,
		IdempotencyKey: r.Header.Get(IdempotencyHeader),
	})
	if err != nil {
		h.fail(w, r, "stock count", err)
		return
	}
	body := batchResponse(result)
	if h.reporter != nil && result.Items != nil {
		body["purchaseRecommendation"] = h.reporter.FromItems(result.Items)
	}
	httpx.JSON(w, http.StatusCreated, body)
}

func (h *Handler) listTransactions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	perPage, _ := strconv.Atoi(q.Get("per_page"))
	txs, pagination, err := h.service.ListTransactions(r.Context(), unitParam(r), TransactionFilter{
		Type:    MovementType(q.Get("type")),
		ItemID:  q.Get("item_id"),
		Page:    page,
		PerPage: perPage,
	})
	if err != nil {
		h.fail(w, r, "list transactions", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"transactions": txs, "pagination": pagination})
}

func (h *Handler) summary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.Summary(r.Context(), unitParam(r))
	if err != nil {
		h.fail(w, r, "summary", err)
		return
	}
	httpx.JSON(w, http.StatusOK, summary)
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	h.logger.Warn(op, slog.String("unit_id", unitParam(r)), slog.Any("error", err))
	httpx.RespondError(w, err)
}

func batchResponse(result BatchResult) map[string]any {
	txs := result.Transactions
	if txs == nil {
		txs = []StockTransaction{}
	}
	skipped := result.Skipped
	if skipped == nil {
		skipped = []SkippedEntry{}
	}
	return map[string]any{"transactions": txs, "skipped": skipped}
}

func unitParam(r *http.Request) string {
	return chi.URLParam(r, "unitID")
}
