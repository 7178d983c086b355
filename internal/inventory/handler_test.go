package inventory

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
)

type lowStockReporter struct{}

func (lowStockReporter) FromItems(items []Item) any {
	var names []string
	for _, item := range items {
		if item.BelowMinimum() {
			names = append(names, item.ID)
		}
	}
	return names
}

func newTestServer(t *testing.T) (*httptest.Server, fixture) {
	t.Helper()
	f := newFixture(t)
	h := NewHandler(slog.New(slog.NewTextHandler(io.Discard, nil)), f.svc, lowStockReporter{})
	r := chi.NewRouter()
	r.Get("/api/units", h.ListUnits)
	r.Route("/api/units/{unitID}", h.MountUnitRoutes)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, f
}

func do(t *testing.T, method, url, body string, headers ...string) (*http.Response, map[string]any) {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	var out map[string]any
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	}
	return resp, out
}

func TestHandlerItemAndMovementFlow(t *testing.T) {
	srv, _ := newTestServer(t)
	base := srv.URL + "/api/units/P10"

	resp, body := do(t, http.MethodPost, base+"/items", `{"name":"Arroz","category":"Mercearia","unit":"kg","price":5,"quantity":10,"minStock":2}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	id := body["id"].(string)
	require.Equal(t, "P10", body["unitId"])

	resp, body = do(t, http.MethodPost, base+"/items/"+id+"/movements", `{"type":"ENTRY_PURCHASE","quantity":5,"cost":6}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	item := body["item"].(map[string]any)
	require.InDelta(t, 15, item["quantity"], 1e-9)
	require.InDelta(t, 6, item["price"], 1e-9)

	resp, _ = do(t, http.MethodPost, base+"/items/"+id+"/movements", `{"type":"ENTRY_ADJUSTMENT","quantity":5}`)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = do(t, http.MethodPost, base+"/items/missing/movements", `{"type":"EXIT_LOSS","quantity":1}`)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, body = do(t, http.MethodPatch, base+"/items/"+id, `{"minStock":20}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.InDelta(t, 20, body["minStock"], 1e-9)

	resp, _ = do(t, http.MethodPatch, base+"/items/"+id, `{"quantity":99}`)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode, "quantity is not patchable")

	resp, body = do(t, http.MethodGet, base+"/items?q=arr", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, body["items"], 1)

	resp, body = do(t, http.MethodGet, base+"/summary", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.InDelta(t, 1, body["lowStockCount"], 1e-9)

	resp, body = do(t, http.MethodGet, base+"/transactions?type=ENTRY_PURCHASE&per_page=5", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, body["transactions"], 1)

	resp, _ = do(t, http.MethodDelete, base+"/items/"+id, "")
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestHandlerBulkAndCount(t *testing.T) {
	srv, f := newTestServer(t)
	f.seed(t, "P10", sampleItem("a", 10, 1, 5), sampleItem("b", 3, 1, 5))
	base := srv.URL + "/api/units/P10"

	resp, body := do(t, http.MethodPost, base+"/movements/bulk",
		`{"type":"EXIT_PRODUCTION","lines":[{"itemId":"a","quantity":2},{"itemId":"b","quantity":0}]}`,
		IdempotencyHeader, "bulk-1")
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	require.Len(t, body["transactions"], 1)
	require.Len(t, body["skipped"], 1)

	resp, _ = do(t, http.MethodPost, base+"/movements/bulk",
		`{"type":"EXIT_PRODUCTION","lines":[{"itemId":"a","quantity":2}]}`,
		IdempotencyHeader, "bulk-1")
	require.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, _ = do(t, http.MethodPost, base+"/movements/bulk", `{"type":"EXIT_PRODUCTION","lines":[]}`)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body = do(t, http.MethodPost, base+"/stock-counts", `{"counts":[{"itemId":"a","counted":4},{"itemId":"b"}]}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	require.Len(t, body["transactions"], 2)
	require.ElementsMatch(t, []any{"a", "b"}, body["purchaseRecommendation"])
}

func TestHandlerUnknownUnit(t *testing.T) {
	srv, _ := newTestServer(t)
	resp, _ := do(t, http.MethodGet, srv.URL+"/api/units/NOPE/items", "")
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, body := do(t, http.MethodGet, srv.URL+"/api/units", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, body["units"], len(Units))
}
