package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	insightshttp "github.com/odyssey-erp/pantry/internal/insights/http"
	"github.com/odyssey-erp/pantry/internal/inventory"
	"github.com/odyssey-erp/pantry/internal/observability"
	"github.com/odyssey-erp/pantry/internal/platform/httpx"
	"github.com/odyssey-erp/pantry/internal/purchasing"
	"github.com/odyssey-erp/pantry/internal/requests"
	"github.com/odyssey-erp/pantry/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger            *slog.Logger
	Config            *Config
	InventoryHandler  *inventory.Handler
	RequestsHandler   *requests.Handler
	PurchasingHandler *purchasing.Handler
	InsightsHandler   *insightshttp.Handler
	JobHandler        *jobs.Handler
	Metrics           *observability.Metrics
}

// NewRouter constructs the chi.Router with pantry defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httpx.Problem(w, http.StatusNotFound, http.StatusText(http.StatusNotFound), "no route for "+r.URL.Path)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		httpx.Problem(w, http.StatusMethodNotAllowed, http.StatusText(http.StatusMethodNotAllowed), r.Method+" not allowed")
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		if params.InventoryHandler != nil {
			r.Get("/units", params.InventoryHandler.ListUnits)
		}
		if params.InsightsHandler != nil {
			params.InsightsHandler.MountRoutes(r)
		}
		r.Route("/units/{unitID}", func(r chi.Router) {
			if params.InventoryHandler != nil {
				params.InventoryHandler.MountUnitRoutes(r)
			}
			if params.RequestsHandler != nil {
				params.RequestsHandler.MountUnitRoutes(r)
			}
			if params.PurchasingHandler != nil {
				params.PurchasingHandler.MountUnitRoutes(r)
			}
			if params.InsightsHandler != nil {
				params.InsightsHandler.MountUnitRoutes(r)
			}
		})
	})

	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}
	return r
}

// NewHandlers builds every HTTP handler over services.
func NewHandlers(logger *slog.Logger, services *Services) RouterParams {
	return RouterParams{
		Logger:            logger,
		InventoryHandler:  inventory.NewHandler(logger, services.Inventory, services.Reporter),
		RequestsHandler:   requests.NewHandler(logger, services.Requests),
		PurchasingHandler: purchasing.NewHandler(logger, services.Purchasing),
		InsightsHandler:   insightshttp.NewHandler(logger, services.Advisor, services.Inventory),
	}
}
