package inventory

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)

func testStamp() Stamp {
	n := 0
	return Stamp{
		At:    testNow,
		Actor: "tester",
		NewID: func() string {
			n++
			return fmt.Sprintf("tx-%d", n)
		},
	}
}

func sampleItem(id string, qty, price, min float64) Item {
	return Item{
		ID:           id,
		UnitID:       "P10",
		Name:         "Item " + id,
		Category:     "Mercearia",
		Quantity:     qty,
		Unit:         "kg",
		Price:        price,
		MinStock:     min,
		LastUpdated:  testNow.Add(-24 * time.Hour),
		PriceHistory: []PriceHistoryEntry{{Date: testNow.Add(-24 * time.Hour), Price: price}},
	}
}

func ptr(v float64) *float64 { return &v }

func TestApplySingleMovementPurchaseUpdatesPrice(t *testing.T) {
	items := []Item{sampleItem("a", 10, 5, 0)}

	out, tx, ok := ApplySingleMovement(items, SingleMovement{
		ItemID:   "a",
		Type:     MovementEntryPurchase,
		Quantity: 5,
		NewCost:  ptr(6),
	}, testStamp())
	require.True(t, ok)

	require.InDelta(t, 15, out[0].Quantity, 1e-9)
	require.InDelta(t, 6, out[0].Price, 1e-9)
	require.Len(t, out[0].PriceHistory, 2)
	require.Equal(t, PriceHistoryEntry{Date: testNow, Price: 6}, out[0].PriceHistory[1])
	require.Equal(t, testNow, out[0].LastUpdated)

	require.Equal(t, MovementEntryPurchase, tx.Type)
	require.Equal(t, "a", tx.ItemID)
	require.Equal(t, "Item a", tx.ItemName)
	require.Equal(t, "P10", tx.UnitID)
	require.InDelta(t, 5, tx.Quantity, 1e-9)
	require.NotNil(t, tx.Cost)
	require.InDelta(t, 6, *tx.Cost, 1e-9)
	require.Equal(t, "tester", tx.User)

	// input snapshot untouched
	require.InDelta(t, 10, items[0].Quantity, 1e-9)
	require.Len(t, items[0].PriceHistory, 1)
}

func TestApplySingleMovementSamePriceKeepsHistory(t *testing.T) {
	items := []Item{sampleItem("a", 10, 5, 0)}

	out, _, ok := ApplySingleMovement(items, SingleMovement{
		ItemID: "a", Type: MovementEntryPurchase, Quantity: 1, NewCost: ptr(5),
	}, testStamp())
	require.True(t, ok)
	require.Len(t, out[0].PriceHistory, 1)
}

func TestApplySingleMovementExitClampsAtZero(t *testing.T) {
	items := []Item{sampleItem("a", 3, 5, 0)}

	out, tx, ok := ApplySingleMovement(items, SingleMovement{
		ItemID: "a", Type: MovementExitLoss, Quantity: 7, NewCost: ptr(9),
	}, testStamp())
	require.True(t, ok)
	require.Zero(t, out[0].Quantity)
	require.InDelta(t, 5, out[0].Price, 1e-9, "exits never touch price")
	require.InDelta(t, 7, tx.Quantity, 1e-9, "transaction keeps requested magnitude")
}

func TestApplySingleMovementRejectsBadInput(t *testing.T) {
	items := []Item{sampleItem("a", 3, 5, 0)}
	cases := map[string]SingleMovement{
		"unknown item":  {ItemID: "zz", Type: MovementEntryPurchase, Quantity: 1},
		"zero quantity": {ItemID: "a", Type: MovementEntryPurchase, Quantity: 0},
		"negative":      {ItemID: "a", Type: MovementExitLoss, Quantity: -2},
		"bad type":      {ItemID: "a", Type: "TRANSFER", Quantity: 1},
	}
	for name, mv := range cases {
		t.Run(name, func(t *testing.T) {
			out, _, ok := ApplySingleMovement(items, mv, testStamp())
			require.False(t, ok)
			require.Equal(t, items, out)
		})
	}
}

func TestApplyBulkMovementLossSharesTimestamp(t *testing.T) {
	items := []Item{
		sampleItem("a", 10, 1, 0),
		sampleItem("b", 4, 2, 0),
		sampleItem("c", 1, 3, 0),
	}
	lines := []BulkLine{
		{ItemID: "a", Quantity: 2},
		{ItemID: "b", Quantity: 1},
		{ItemID: "c", Quantity: 5},
	}

	out, txs, report := ApplyBulkMovement(items, lines, MovementExitLoss, "", testStamp())
	require.Zero(t, report.Len())
	require.Len(t, txs, 3)
	for _, tx := range txs {
		require.Equal(t, testNow, tx.Date)
		require.Equal(t, MovementExitLoss, tx.Type)
		require.Equal(t, DefaultBulkReason, tx.Reason)
	}
	require.InDelta(t, 8, out[0].Quantity, 1e-9)
	require.InDelta(t, 3, out[1].Quantity, 1e-9)
	require.Zero(t, out[2].Quantity)
}

func TestApplyBulkMovementSkipsAndReports(t *testing.T) {
	items := []Item{sampleItem("a", 10, 1, 0)}
	lines := []BulkLine{
		{ItemID: "ghost", Quantity: 2},
		{ItemID: "a", Quantity: 0},
		{ItemID: "a", Quantity: 3, Cost: ptr(2)},
	}

	out, txs, report := ApplyBulkMovement(items, lines, MovementEntryPurchase, "restock", testStamp())
	require.Len(t, txs, 1)
	require.Equal(t, "restock", txs[0].Reason)
	require.InDelta(t, 13, out[0].Quantity, 1e-9)
	require.InDelta(t, 2, out[0].Price, 1e-9)
	require.Equal(t, []SkippedEntry{
		{Index: 0, ItemID: "ghost", Reason: SkipUnknownItem},
		{Index: 1, ItemID: "a", Reason: SkipInvalidQuantity},
	}, report.Entries)
}

func TestApplyBulkMovementKeepMasterPrice(t *testing.T) {
	items := []Item{sampleItem("a", 10, 1, 0)}

	out, txs, _ := ApplyBulkMovement(items, []BulkLine{
		{ItemID: "a", Quantity: 1, Cost: ptr(4), KeepMasterPrice: true},
	}, MovementEntryPurchase, "", testStamp())
	require.InDelta(t, 1, out[0].Price, 1e-9)
	require.Len(t, out[0].PriceHistory, 1)
	require.NotNil(t, txs[0].Cost)
	require.InDelta(t, 4, *txs[0].Cost, 1e-9)
}

func TestApplyBulkMovementFirstLinePerItemWins(t *testing.T) {
	items := []Item{sampleItem("a", 10, 1, 0)}

	out, txs, report := ApplyBulkMovement(items, []BulkLine{
		{ItemID: "a", Quantity: 2, Cost: ptr(2)},
		{ItemID: "a", Quantity: 3, Cost: ptr(3)},
	}, MovementEntryPurchase, "", testStamp())
	require.Len(t, txs, 1)
	require.InDelta(t, 2, txs[0].Quantity, 1e-9)
	require.InDelta(t, 12, out[0].Quantity, 1e-9)
	require.InDelta(t, 2, out[0].Price, 1e-9)
	require.Len(t, out[0].PriceHistory, 2, "one new history entry for the first line only")
	require.Equal(t, []SkippedEntry{{Index: 1, ItemID: "a", Reason: SkipDuplicateItem}}, report.Entries)
}

func TestApplyBulkMovementDuplicateAfterInvalidFirstLine(t *testing.T) {
	items := []Item{sampleItem("a", 10, 1, 0)}

	out, txs, report := ApplyBulkMovement(items, []BulkLine{
		{ItemID: "a", Quantity: 0},
		{ItemID: "a", Quantity: 3},
	}, MovementExitProduction, "", testStamp())
	require.Empty(t, txs)
	require.InDelta(t, 10, out[0].Quantity, 1e-9)
	require.Equal(t, []SkippedEntry{
		{Index: 0, ItemID: "a", Reason: SkipInvalidQuantity},
		{Index: 1, ItemID: "a", Reason: SkipDuplicateItem},
	}, report.Entries)
}

func TestApplyBulkMovementInvalidTypeSkipsAll(t *testing.T) {
	items := []Item{sampleItem("a", 10, 1, 0)}

	out, txs, report := ApplyBulkMovement(items, []BulkLine{{ItemID: "a", Quantity: 1}}, "NOPE", "", testStamp())
	require.Empty(t, txs)
	require.Equal(t, items, out)
	require.Equal(t, SkipInvalidType, report.Entries[0].Reason)
}

func TestReconcileStockCount(t *testing.T) {
	items := []Item{
		sampleItem("a", 20, 5, 0),
		sampleItem("b", 4, 2, 0),
		sampleItem("c", 7, 1, 0),
		sampleItem("d", 1, 1, 0),
	}
	counts := []Count{
		{ItemID: "a", Counted: 18},
		{ItemID: "b", Counted: 6.5},
		{ItemID: "c", Counted: 7},
		{ItemID: "ghost", Counted: 1},
		{ItemID: "d", Counted: -1},
	}

	out, txs, report := ReconcileStockCount(items, counts, testStamp())
	require.Len(t, txs, 2)

	assert.Equal(t, MovementExitAdjustment, txs[0].Type)
	assert.InDelta(t, 2, txs[0].Quantity, 1e-9)
	require.NotNil(t, txs[0].Cost)
	assert.InDelta(t, 5, *txs[0].Cost, 1e-9)
	assert.Equal(t, StockCountReason, txs[0].Reason)

	assert.Equal(t, MovementEntryAdjustment, txs[1].Type)
	assert.InDelta(t, 2.5, txs[1].Quantity, 1e-9)

	assert.InDelta(t, 18, out[0].Quantity, 1e-9)
	assert.InDelta(t, 6.5, out[1].Quantity, 1e-9)
	assert.Equal(t, items[2], out[2], "zero diff leaves the item untouched")
	assert.Equal(t, items[3], out[3])

	require.Equal(t, 2, report.Len())
	assert.Equal(t, SkipUnknownItem, report.Entries[0].Reason)
	assert.Equal(t, SkipInvalidQuantity, report.Entries[1].Reason)
}

func TestReconcileStockCountFirstCountWins(t *testing.T) {
	items := []Item{sampleItem("a", 20, 5, 0)}

	out, txs, report := ReconcileStockCount(items, []Count{
		{ItemID: "a", Counted: 18},
		{ItemID: "a", Counted: 20},
	}, testStamp())
	require.Len(t, txs, 1)
	require.Equal(t, MovementExitAdjustment, txs[0].Type)
	require.InDelta(t, 2, txs[0].Quantity, 1e-9)
	require.InDelta(t, 18, out[0].Quantity, 1e-9)
	require.Equal(t, []SkippedEntry{{Index: 1, ItemID: "a", Reason: SkipDuplicateItem}}, report.Entries)
}

func TestTransactionsReconcileQuantity(t *testing.T) {
	items := []Item{sampleItem("a", 10, 5, 0), sampleItem("b", 2, 1, 0)}
	stamp := testStamp()
	var ledger []StockTransaction

	items, tx, _ := ApplySingleMovement(items, SingleMovement{ItemID: "a", Type: MovementEntryPurchase, Quantity: 4}, stamp)
	ledger = append(ledger, tx)
	items, txs, _ := ApplyBulkMovement(items, []BulkLine{{ItemID: "a", Quantity: 1}, {ItemID: "b", Quantity: 1.5}}, MovementExitProduction, "", stamp)
	ledger = append(ledger, txs...)
	items, txs, _ = ReconcileStockCount(items, []Count{{ItemID: "a", Counted: 11}, {ItemID: "b", Counted: 0}}, stamp)
	ledger = append(ledger, txs...)

	start := map[string]float64{"a": 10, "b": 2}
	for _, tx := range ledger {
		start[tx.ItemID] += tx.Type.Sign() * tx.Quantity
	}
	for _, item := range items {
		require.InDelta(t, item.Quantity, start[item.ID], 1e-9, item.ID)
	}
}

func TestMovementTypeRules(t *testing.T) {
	all := []MovementType{
		MovementEntryPurchase,
		MovementExitProduction,
		MovementExitLoss,
		MovementEntryAdjustment,
		MovementExitAdjustment,
	}
	for _, mt := range all {
		require.True(t, mt.Valid())
		require.NotZero(t, mt.Sign())
		_ = mt.UpdatesPrice()
	}
	require.False(t, MovementType("X").Valid())
	require.False(t, MovementEntryAdjustment.Manual())
	require.True(t, MovementExitLoss.Manual())
	require.Panics(t, func() { MovementType("X").Sign() })
}
