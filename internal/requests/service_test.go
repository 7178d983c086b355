package requests

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/pantry/internal/inventory"
	"github.com/odyssey-erp/pantry/internal/shared"
	"github.com/odyssey-erp/pantry/internal/store"
)

type fixture struct {
	svc       *Service
	inv       *inventory.Service
	docs      *store.Memory
	approvals *shared.ApprovalRecorder
}

func newFixture(t *testing.T, items ...inventory.Item) fixture {
	t.Helper()
	docs := store.NewMemory()
	require.NoError(t, docs.SaveAll(context.Background(), inventory.ItemsDocument("P14", items)))
	locks := shared.NewUnitLocks()
	approvals := shared.NewApprovalRecorder(nil, nil)
	clock := func() time.Time { return testNow }
	return fixture{
		svc:       NewService(NewRepository(docs), approvals, ServiceConfig{Locks: locks, Now: clock}),
		inv:       inventory.NewService(inventory.NewRepository(docs), nil, nil, inventory.ServiceConfig{Locks: locks, Now: clock}),
		docs:      docs,
		approvals: approvals,
	}
}

func TestServiceApprovalFlow(t *testing.T) {
	f := newFixture(t, stockItem("a", 3))
	ctx := shared.ContextWithActor(context.Background(), "gerente")

	req, err := f.svc.Create(ctx, "P14", CreateInput{ItemID: "a", Quantity: 4, Sector: SectorKitchen})
	require.NoError(t, err)
	require.Equal(t, "gerente", req.RequesterName)

	_, _, err = f.svc.Approve(ctx, "P14", req.ID)
	var stockErr *InsufficientStockError
	require.True(t, errors.As(err, &stockErr))

	item, err := f.inv.GetItem(ctx, "P14", "a")
	require.NoError(t, err)
	require.InDelta(t, 3, item.Quantity, 1e-9, "failed approval leaves stock untouched")

	_, _, err = f.inv.RegisterMovement(ctx, "P14", inventory.SingleMovement{ItemID: "a", Type: inventory.MovementEntryPurchase, Quantity: 2})
	require.NoError(t, err)

	approved, tx, err := f.svc.Approve(ctx, "P14", req.ID)
	require.NoError(t, err)
	require.Equal(t, StatusApproved, approved.Status)
	require.Equal(t, "gerente", approved.DecidedBy)
	require.Equal(t, "gerente", tx.User)

	item, err = f.inv.GetItem(ctx, "P14", "a")
	require.NoError(t, err)
	require.InDelta(t, 1, item.Quantity, 1e-9)

	_, _, err = f.svc.Approve(ctx, "P14", req.ID)
	require.ErrorIs(t, err, ErrInvalidState)
	item, err = f.inv.GetItem(ctx, "P14", "a")
	require.NoError(t, err)
	require.InDelta(t, 1, item.Quantity, 1e-9, "no double decrement")

	ledger, _, err := f.inv.ListTransactions(ctx, "P14", inventory.TransactionFilter{})
	require.NoError(t, err)
	require.Len(t, ledger, 2)
	require.Equal(t, "Request approved: KITCHEN", ledger[0].Reason)

	ref, err := uuid.Parse(req.ID)
	require.NoError(t, err)
	logs, err := f.approvals.List(ctx, approvalModule, ref)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	require.Equal(t, shared.ApprovalSubmit, logs[0].Action)
	require.Equal(t, shared.ApprovalApprove, logs[1].Action)
}

func TestServiceRejectAndList(t *testing.T) {
	f := newFixture(t, stockItem("a", 3), stockItem("b", 8))
	ctx := context.Background()

	res, err := f.svc.CreateBulk(ctx, "P14", BulkInput{Sector: SectorBar, Lines: []Line{
		{ItemID: "a", Quantity: 1},
		{ItemID: "b", Quantity: 2},
		{ItemID: "b", Quantity: -1},
	}})
	require.NoError(t, err)
	require.Len(t, res.Requests, 2)
	require.Len(t, res.Skipped, 1)

	rejected, err := f.svc.Reject(ctx, "P14", res.Requests[0].ID)
	require.NoError(t, err)
	require.Equal(t, StatusRejected, rejected.Status)
	_, err = f.svc.Reject(ctx, "P14", res.Requests[0].ID)
	require.ErrorIs(t, err, ErrInvalidState)

	item, err := f.inv.GetItem(ctx, "P14", "a")
	require.NoError(t, err)
	require.InDelta(t, 3, item.Quantity, 1e-9)

	all, err := f.svc.List(ctx, "P14", "")
	require.NoError(t, err)
	require.Len(t, all, 2)
	require.Equal(t, res.Requests[1].ID, all[0].ID, "newest first, ties in reverse insertion")

	pending, err := f.svc.List(ctx, "P14", StatusPending)
	require.NoError(t, err)
	require.Len(t, pending, 1)

	_, err = f.svc.List(ctx, "P14", "DONE")
	require.ErrorIs(t, err, shared.ErrInvalidInput)
	_, err = f.svc.Reject(ctx, "P14", "nope")
	require.ErrorIs(t, err, ErrRequestNotFound)
	_, err = f.svc.Create(ctx, "P14", CreateInput{ItemID: "zz", Quantity: 1, Sector: SectorBar})
	require.ErrorIs(t, err, inventory.ErrItemNotFound)
	_, err = f.svc.Create(ctx, "P14", CreateInput{ItemID: "a", Quantity: 1, Sector: "GARDEN"})
	require.ErrorIs(t, err, ErrInvalidSector)
	_, err = f.svc.Create(ctx, "AMS2", CreateInput{ItemID: "a", Quantity: 1, Sector: SectorBar})
	require.ErrorIs(t, err, inventory.ErrUnknownUnit)
}

func TestServiceConcurrentApprovalsDecrementOnce(t *testing.T) {
	f := newFixture(t, stockItem("a", 10))
	ctx := context.Background()
	req, err := f.svc.Create(ctx, "P14", CreateInput{ItemID: "a", Quantity: 4, Sector: SectorKitchen})
	require.NoError(t, err)

	var wg sync.WaitGroup
	var mu sync.Mutex
	successes := 0
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := f.svc.Approve(ctx, "P14", req.ID)
			if err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
				return
			}
			assert.ErrorIs(t, err, ErrInvalidState)
		}()
	}
	wg.Wait()
	require.Equal(t, 1, successes)

	item, err := f.inv.GetItem(ctx, "P14", "a")
	require.NoError(t, err)
	require.InDelta(t, 6, item.Quantity, 1e-9)
}

func TestHandlerInsufficientStockBody(t *testing.T) {
	f := newFixture(t, stockItem("a", 3))
	h := NewHandler(slog.New(slog.NewTextHandler(io.Discard, nil)), f.svc)
	r := chi.NewRouter()
	r.Route("/api/units/{unitID}", h.MountUnitRoutes)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/units/P14/requests",
		strings.NewReader(`{"itemId":"a","quantity":5,"sector":"BAR"}`)))
	require.Equal(t, http.StatusCreated, rec.Code)
	var created MaterialRequest
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/units/P14/requests/"+created.ID+"/approve", nil))
	require.Equal(t, http.StatusConflict, rec.Code)
	var problem map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem))
	require.InDelta(t, 3, problem["available"], 1e-9)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/units/P14/requests",
		strings.NewReader(`{"itemId":"a","quantity":1,"sector":"GARDEN"}`)))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/units/P14/requests/"+created.ID+"/reject", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/units/P14/requests/"+created.ID+"/approve", nil))
	require.Equal(t, http.StatusConflict, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/units/P14/requests/bulk",
		strings.NewReader(`{"sector":"ADMIN","lines":[{"itemId":"a","quantity":1},{"itemId":"x","quantity":1}]}`)))
	require.Equal(t, http.StatusCreated, rec.Code)
	var bulk BulkResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &bulk))
	require.Len(t, bulk.Requests, 1)
	require.Len(t, bulk.Skipped, 1)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/units/P14/requests?status=PENDING", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"sector":"ADMIN"`)
}
