package inventory

import (
	"math"
	"time"

	"github.com/google/uuid"
)

const (
	qtyEpsilon = 1e-9

	// DefaultBulkReason is used when a bulk movement carries no reason.
	DefaultBulkReason = "Bulk movement"
	// StockCountReason tags transactions produced by count reconciliation.
	StockCountReason = "Inventory adjustment (count)"
)

// Stamp carries the metadata applied to every item and transaction touched by one operation.
type Stamp struct {
	At    time.Time
	Actor string
	NewID func() string
}

// NextID returns a fresh identifier, using NewID when set.
func (s Stamp) NextID() string {
	if s.NewID != nil {
		return s.NewID()
	}
	return uuid.NewString()
}

// ApplySingleMovement applies one movement and returns the updated items and
// the transaction to append. ok is false when the item is unknown or the
// quantity is not positive; items are then returned unchanged.
func ApplySingleMovement(items []Item, mv SingleMovement, stamp Stamp) ([]Item, StockTransaction, bool) {
	idx := indexOf(items, mv.ItemID)
	if idx < 0 || !(mv.Quantity > 0) || !mv.Type.Valid() {
		return items, StockTransaction{}, false
	}
	out := cloneItems(items)
	updated := applyMovement(out[idx], mv.Type, mv.Quantity, mv.NewCost, true, stamp.At)
	out[idx] = updated
	tx := StockTransaction{
		ID:       stamp.NextID(),
		ItemID:   updated.ID,
		ItemName: items[idx].Name,
		UnitID:   updated.UnitID,
		Type:     mv.Type,
		Quantity: mv.Quantity,
		Cost:     copyFloat(mv.NewCost),
		Reason:   mv.Reason,
		Date:     stamp.At,
		User:     stamp.Actor,
	}
	return out, tx, true
}

// ApplyBulkMovement applies one movement type to many items with a single
// shared timestamp. Only the first line per item counts; later lines for the
// same item, unknown items and non-positive quantities are skipped and reported.
func ApplyBulkMovement(items []Item, lines []BulkLine, mtype MovementType, reason string, stamp Stamp) ([]Item, []StockTransaction, SkipReport) {
	var report SkipReport
	if !mtype.Valid() {
		for i, line := range lines {
			report.add(i, line.ItemID, SkipInvalidType)
		}
		return items, nil, report
	}
	if reason == "" {
		reason = DefaultBulkReason
	}
	out := cloneItems(items)
	txs := make([]StockTransaction, 0, len(lines))
	seen := make(map[string]struct{}, len(lines))
	for i, line := range lines {
		idx := indexOf(out, line.ItemID)
		if idx < 0 {
			report.add(i, line.ItemID, SkipUnknownItem)
			continue
		}
		if _, dup := seen[line.ItemID]; dup {
			report.add(i, line.ItemID, SkipDuplicateItem)
			continue
		}
		seen[line.ItemID] = struct{}{}
		if !(line.Quantity > 0) {
			report.add(i, line.ItemID, SkipInvalidQuantity)
			continue
		}
		name := out[idx].Name
		out[idx] = applyMovement(out[idx], mtype, line.Quantity, line.Cost, !line.KeepMasterPrice, stamp.At)
		txs = append(txs, StockTransaction{
			ID:       stamp.NextID(),
			ItemID:   line.ItemID,
			ItemName: name,
			UnitID:   out[idx].UnitID,
			Type:     mtype,
			Quantity: line.Quantity,
			Cost:     copyFloat(line.Cost),
			Reason:   reason,
			Date:     stamp.At,
			User:     stamp.Actor,
		})
	}
	return out, txs, report
}

// ReconcileStockCount sets counted items to their physical quantity and emits
// one adjustment per non-zero difference, valued at the pre-count price.
// Items whose count matches are left untouched. The first count of an item
// wins; later counts for it are skipped.
func ReconcileStockCount(items []Item, counts []Count, stamp Stamp) ([]Item, []StockTransaction, SkipReport) {
	var report SkipReport
	out := cloneItems(items)
	var txs []StockTransaction
	seen := make(map[string]struct{}, len(counts))
	for i, c := range counts {
		idx := indexOf(out, c.ItemID)
		if idx < 0 {
			report.add(i, c.ItemID, SkipUnknownItem)
			continue
		}
		if _, dup := seen[c.ItemID]; dup {
			report.add(i, c.ItemID, SkipDuplicateItem)
			continue
		}
		seen[c.ItemID] = struct{}{}
		if c.Counted < 0 || math.IsNaN(c.Counted) {
			report.add(i, c.ItemID, SkipInvalidQuantity)
			continue
		}
		item := out[idx]
		diff := c.Counted - item.Quantity
		if math.Abs(diff) < qtyEpsilon {
			continue
		}
		mtype := MovementEntryAdjustment
		if diff < 0 {
			mtype = MovementExitAdjustment
		}
		price := item.Price
		txs = append(txs, StockTransaction{
			ID:       stamp.NextID(),
			ItemID:   item.ID,
			ItemName: item.Name,
			UnitID:   item.UnitID,
			Type:     mtype,
			Quantity: math.Abs(diff),
			Cost:     &price,
			Reason:   StockCountReason,
			Date:     stamp.At,
			User:     stamp.Actor,
		})
		item.Quantity = c.Counted
		item.LastUpdated = stamp.At
		out[idx] = item
	}
	return out, txs, report
}

// applyMovement returns item after a movement of qty. A cost is promoted to
// the master price only for price-updating types and when promote is set.
func applyMovement(item Item, mtype MovementType, qty float64, cost *float64, promote bool, at time.Time) Item {
	item.Quantity = clamp(item.Quantity + mtype.Sign()*qty)
	if mtype.UpdatesPrice() && promote && cost != nil {
		item = withPrice(item, *cost, at)
	}
	item.LastUpdated = at
	return item
}

// withPrice adopts price and appends a history entry when the value changes.
func withPrice(item Item, price float64, at time.Time) Item {
	if price != item.Price {
		history := make([]PriceHistoryEntry, len(item.PriceHistory), len(item.PriceHistory)+1)
		copy(history, item.PriceHistory)
		item.PriceHistory = append(history, PriceHistoryEntry{Date: at, Price: price})
	}
	item.Price = price
	return item
}

func clamp(qty float64) float64 {
	if qty < 0 {
		return 0
	}
	return qty
}

func indexOf(items []Item, id string) int {
	for i := range items {
		if items[i].ID == id {
			return i
		}
	}
	return -1
}

func cloneItems(items []Item) []Item {
	out := make([]Item, len(items))
	copy(out, items)
	return out
}

func copyFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
