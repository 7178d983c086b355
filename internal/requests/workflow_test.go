package requests

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/pantry/internal/inventory"
	"github.com/odyssey-erp/pantry/internal/shared"
)

var testNow = time.Date(2025, 5, 2, 14, 0, 0, 0, time.UTC)

func testStamp() inventory.Stamp {
	n := 0
	return inventory.Stamp{At: testNow, Actor: "chef", NewID: func() string {
		n++
		return fmt.Sprintf("r-%d", n)
	}}
}

func stockItem(id string, qty float64) inventory.Item {
	return inventory.Item{ID: id, UnitID: "P14", Name: "Item " + id, Unit: "kg", Quantity: qty, Price: 3}
}

func TestCreateRequestSnapshotsItem(t *testing.T) {
	req := CreateRequest(stockItem("a", 5), 2, SectorBar, "", testStamp())
	require.Equal(t, StatusPending, req.Status)
	require.Equal(t, "P14", req.UnitID)
	require.Equal(t, "Item a", req.ItemName)
	require.Equal(t, "kg", req.Unit)
	require.Equal(t, "chef", req.RequesterName)
	require.Equal(t, testNow, req.RequestedAt)
}

func TestCreateBulkRequestsSkips(t *testing.T) {
	items := []inventory.Item{stockItem("a", 5), stockItem("b", 1)}
	reqs, report := CreateBulkRequests(items, []Line{
		{ItemID: "a", Quantity: 1},
		{ItemID: "b", Quantity: 0},
		{ItemID: "ghost", Quantity: 2},
		{ItemID: "b", Quantity: 4},
	}, SectorKitchen, "Ana", testStamp())
	require.Len(t, reqs, 2)
	require.Equal(t, reqs[0].RequestedAt, reqs[1].RequestedAt)
	require.Equal(t, 2, report.Len())
	require.Equal(t, inventory.SkipInvalidQuantity, report.Entries[0].Reason)
	require.Equal(t, inventory.SkipUnknownItem, report.Entries[1].Reason)
}

func TestApproveInsufficientThenSufficient(t *testing.T) {
	items := []inventory.Item{stockItem("a", 3)}
	req := CreateRequest(items[0], 4, SectorKitchen, "Ana", testStamp())

	out, _, same, err := Approve(items, req, testStamp())
	var stockErr *InsufficientStockError
	require.True(t, errors.As(err, &stockErr))
	require.InDelta(t, 3, stockErr.Available, 1e-9)
	require.ErrorIs(t, err, shared.ErrConflict)
	require.Equal(t, items, out)
	require.Equal(t, StatusPending, same.Status)

	items[0].Quantity = 5
	out, tx, approved, err := Approve(items, req, testStamp())
	require.NoError(t, err)
	require.InDelta(t, 1, out[0].Quantity, 1e-9)
	require.Equal(t, StatusApproved, approved.Status)
	require.Equal(t, inventory.MovementExitProduction, tx.Type)
	require.Equal(t, "Request approved: KITCHEN", tx.Reason)
	require.Equal(t, req.ItemName, tx.ItemName)
	require.Equal(t, "P14", tx.UnitID)
	require.InDelta(t, 4, tx.Quantity, 1e-9)

	_, _, _, err = Approve(out, approved, testStamp())
	require.ErrorIs(t, err, ErrInvalidState)
}

func TestApproveMissingItem(t *testing.T) {
	req := CreateRequest(stockItem("a", 3), 1, SectorAdmin, "", testStamp())
	_, _, _, err := Approve(nil, req, testStamp())
	require.ErrorIs(t, err, inventory.ErrItemNotFound)
}

func TestRejectOnlyPending(t *testing.T) {
	req := CreateRequest(stockItem("a", 3), 1, SectorDiningRoom, "", testStamp())
	rejected, err := Reject(req, testStamp())
	require.NoError(t, err)
	require.Equal(t, StatusRejected, rejected.Status)
	require.NotNil(t, rejected.DecidedAt)

	_, err = Reject(rejected, testStamp())
	require.ErrorIs(t, err, ErrInvalidState)
	_, _, _, err = Approve([]inventory.Item{stockItem("a", 3)}, rejected, testStamp())
	require.ErrorIs(t, err, ErrInvalidState)
}
