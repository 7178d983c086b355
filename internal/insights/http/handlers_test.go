package insightshttp

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/pantry/internal/insights"
	"github.com/odyssey-erp/pantry/internal/inventory"
)

type stubAdvisor struct{ lastUnit string }

func (s *stubAdvisor) SuggestItemDetails(_ context.Context, name string) *insights.ItemSuggestion {
	if name != "Arroz" {
		return nil
	}
	return &insights.ItemSuggestion{Category: "Mercearia", UnitSuggestion: "kg"}
}

func (s *stubAdvisor) InventoryInsights(_ context.Context, unitID string, items []inventory.Item) string {
	s.lastUnit = unitID
	return "tudo certo"
}

type stubItems struct{}

func (stubItems) Snapshot(_ context.Context, unitID string) ([]inventory.Item, error) {
	if !inventory.KnownUnit(unitID) {
		return nil, inventory.ErrUnknownUnit
	}
	return nil, nil
}

func newRouter(advisor *stubAdvisor) http.Handler {
	h := NewHandler(slog.New(slog.NewTextHandler(io.Discard, nil)), advisor, stubItems{})
	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		h.MountRoutes(r)
		r.Route("/units/{unitID}", h.MountUnitRoutes)
	})
	return r
}

func TestHandleInsights(t *testing.T) {
	advisor := &stubAdvisor{}
	r := newRouter(advisor)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/units/P10/insights", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"insights":"tudo certo"`)
	require.Equal(t, "P10", advisor.lastUnit)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/units/X/insights", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleSuggestion(t *testing.T) {
	r := newRouter(&stubAdvisor{})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/items/suggestions", strings.NewReader(`{"name":"Arroz"}`)))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"category":"Mercearia"`)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/items/suggestions", strings.NewReader(`{"name":"Zzz"}`)))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"suggestion":null`)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/items/suggestions", strings.NewReader(`{}`)))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}
