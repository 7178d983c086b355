package inventory

import (
	"math"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// NewItem builds an item for unitID. The caller's unit is forced; the ID,
// timestamp and initial price-history entry are assigned here.
func NewItem(input ItemInput, unitID string, stamp Stamp) Item {
	return Item{
		ID:           stamp.NextID(),
		UnitID:       unitID,
		Name:         strings.TrimSpace(input.Name),
		Category:     strings.TrimSpace(input.Category),
		Quantity:     clamp(input.Quantity),
		Unit:         input.Unit,
		Price:        input.Price,
		MinStock:     input.MinStock,
		Description:  input.Description,
		LastUpdated:  stamp.At,
		PriceHistory: []PriceHistoryEntry{{Date: stamp.At, Price: input.Price}},
	}
}

// EditItem merges patch into the item identified by id. A price change
// appends to the price history.
func EditItem(items []Item, id string, patch ItemPatch, stamp Stamp) ([]Item, Item, bool) {
	idx := indexOf(items, id)
	if idx < 0 {
		return items, Item{}, false
	}
	out := cloneItems(items)
	item := out[idx]
	if patch.Name != nil {
		item.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Category != nil {
		item.Category = strings.TrimSpace(*patch.Category)
	}
	if patch.Unit != nil {
		item.Unit = *patch.Unit
	}
	if patch.MinStock != nil {
		item.MinStock = *patch.MinStock
	}
	if patch.Description != nil {
		item.Description = *patch.Description
	}
	if patch.Price != nil {
		item = withPrice(item, *patch.Price, stamp.At)
	}
	item.LastUpdated = stamp.At
	out[idx] = item
	return out, item, true
}

// DeleteItem removes the item from the active collection. Transactions that
// reference it are kept by the caller.
func DeleteItem(items []Item, id string) ([]Item, bool) {
	idx := indexOf(items, id)
	if idx < 0 {
		return items, false
	}
	out := make([]Item, 0, len(items)-1)
	out = append(out, items[:idx]...)
	return append(out, items[idx+1:]...), true
}

// FindItem returns the item with id.
func FindItem(items []Item, id string) (Item, bool) {
	idx := indexOf(items, id)
	if idx < 0 {
		return Item{}, false
	}
	return items[idx], true
}

// Search filters items whose name or category contains query, ignoring case.
func Search(items []Item, query string) []Item {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return items
	}
	out := make([]Item, 0, len(items))
	for _, item := range items {
		if strings.Contains(strings.ToLower(item.Name), q) || strings.Contains(strings.ToLower(item.Category), q) {
			out = append(out, item)
		}
	}
	return out
}

// Summarize computes dashboard figures for one unit's items.
func Summarize(items []Item) Summary {
	total := decimal.Zero
	categories := make(map[string]struct{})
	low := []Item{}
	for _, item := range items {
		total = total.Add(decimal.NewFromFloat(item.Quantity).Mul(decimal.NewFromFloat(item.Price)))
		categories[item.Category] = struct{}{}
		if item.BelowMinimum() {
			low = append(low, item)
		}
	}
	value, _ := total.Round(2).Float64()
	return Summary{
		TotalItems:      len(items),
		TotalValue:      value,
		LowStockCount:   len(low),
		CategoriesCount: len(categories),
		LowStockItems:   low,
	}
}

// FilterTransactions returns the matching transactions newest first. Entries
// sharing a timestamp keep reverse insertion order.
func FilterTransactions(txs []StockTransaction, filter TransactionFilter) []StockTransaction {
	out := make([]StockTransaction, 0, len(txs))
	for i := len(txs) - 1; i >= 0; i-- {
		tx := txs[i]
		if filter.Type != "" && tx.Type != filter.Type {
			continue
		}
		if filter.ItemID != "" && tx.ItemID != filter.ItemID {
			continue
		}
		out = append(out, tx)
	}
	sort.SliceStable(out, func(a, b int) bool {
		return out[a].Date.After(out[b].Date)
	})
	return out
}

// SeedQuantity is the opening quantity for a seeded item: slightly above its minimum.
func SeedQuantity(minStock float64) float64 {
	if minStock <= 0 {
		return 0
	}
	return minStock + math.Ceil(minStock*0.2)
}
