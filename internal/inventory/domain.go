package inventory

import (
	"fmt"
	"time"

	"github.com/odyssey-erp/pantry/internal/shared"
)

// MovementType enumerates supported stock movements.
type MovementType string

const (
	// MovementEntryPurchase increases quantity and may update the price.
	MovementEntryPurchase MovementType = "ENTRY_PURCHASE"
	// MovementExitProduction records consumption by production.
	MovementExitProduction MovementType = "EXIT_PRODUCTION"
	// MovementExitLoss records spoilage, breakage or theft.
	MovementExitLoss MovementType = "EXIT_LOSS"
	// MovementEntryAdjustment is produced by a count above system quantity.
	MovementEntryAdjustment MovementType = "ENTRY_ADJUSTMENT"
	// MovementExitAdjustment is produced by a count below system quantity.
	MovementExitAdjustment MovementType = "EXIT_ADJUSTMENT"
)

// Valid reports whether t is a known movement type.
func (t MovementType) Valid() bool {
	switch t {
	case MovementEntryPurchase, MovementExitProduction, MovementExitLoss, MovementEntryAdjustment, MovementExitAdjustment:
		return true
	}
	return false
}

// Sign returns +1 for entries and -1 for exits.
func (t MovementType) Sign() float64 {
	switch t {
	case MovementEntryPurchase, MovementEntryAdjustment:
		return 1
	case MovementExitProduction, MovementExitLoss, MovementExitAdjustment:
		return -1
	}
	panic("inventory: unhandled movement type " + string(t))
}

// UpdatesPrice reports whether a cost supplied with the movement may become the master price.
func (t MovementType) UpdatesPrice() bool {
	switch t {
	case MovementEntryPurchase:
		return true
	case MovementExitProduction, MovementExitLoss, MovementEntryAdjustment, MovementExitAdjustment:
		return false
	}
	panic("inventory: unhandled movement type " + string(t))
}

// Manual reports whether callers may post the type directly. Adjustments come
// only from stock-count reconciliation.
func (t MovementType) Manual() bool {
	switch t {
	case MovementEntryPurchase, MovementExitProduction, MovementExitLoss:
		return true
	case MovementEntryAdjustment, MovementExitAdjustment:
		return false
	}
	return false
}

// PriceHistoryEntry records one effective price change.
type PriceHistoryEntry struct {
	Date  time.Time `json:"date"`
	Price float64   `json:"price"`
}

// Item is a stock-keeping unit scoped to one restaurant unit.
type Item struct {
	ID           string              `json:"id"`
	UnitID       string              `json:"unitId"`
	Name         string              `json:"name"`
	Category     string              `json:"category"`
	Quantity     float64             `json:"quantity"`
	Unit         string              `json:"unit"`
	Price        float64             `json:"price"`
	MinStock     float64             `json:"minStock"`
	Description  string              `json:"description"`
	LastUpdated  time.Time           `json:"lastUpdated"`
	PriceHistory []PriceHistoryEntry `json:"priceHistory"`
}

// BelowMinimum reports whether the item sits under its minimum-stock threshold.
func (i Item) BelowMinimum() bool {
	return i.Quantity < i.MinStock
}

// StockTransaction is the immutable audit record of one quantity change.
type StockTransaction struct {
	ID       string       `json:"id"`
	ItemID   string       `json:"itemId"`
	ItemName string       `json:"itemName"`
	UnitID   string       `json:"unitId"`
	Type     MovementType `json:"type"`
	Quantity float64      `json:"quantity"`
	Cost     *float64     `json:"cost,omitempty"`
	Reason   string       `json:"reason,omitempty"`
	Date     time.Time    `json:"date"`
	User     string       `json:"user"`
}

// ItemInput carries caller-supplied attributes for a new item.
type ItemInput struct {
	Name        string
	Category    string
	Quantity    float64
	Unit        string
	Price       float64
	MinStock    float64
	Description string
}

// ItemPatch merges supplied fields into an existing item. Quantity is not
// patchable; it changes only through movements and counts.
type ItemPatch struct {
	Name        *string
	Category    *string
	Unit        *string
	Price       *float64
	MinStock    *float64
	Description *string
}

// SingleMovement describes one movement against one item.
type SingleMovement struct {
	ItemID   string
	Type     MovementType
	Quantity float64
	Reason   string
	NewCost  *float64
}

// BulkLine is one entry of a bulk movement.
type BulkLine struct {
	ItemID   string
	Quantity float64
	Cost     *float64
	// KeepMasterPrice records Cost on the transaction only, leaving the item price untouched.
	KeepMasterPrice bool
}

// Count is one physical count of an item.
type Count struct {
	ItemID  string
	Counted float64
}

// SkipReason explains why a batch entry was ignored.
type SkipReason string

const (
	SkipUnknownItem     SkipReason = "unknown_item"
	SkipInvalidQuantity SkipReason = "invalid_quantity"
	SkipInvalidType     SkipReason = "invalid_type"
	SkipDuplicateItem   SkipReason = "duplicate_item"
)

// SkippedEntry describes a batch entry the engine ignored.
type SkippedEntry struct {
	Index  int        `json:"index"`
	ItemID string     `json:"itemId"`
	Reason SkipReason `json:"reason"`
}

// SkipReport collects ignored batch entries.
type SkipReport struct {
	Entries []SkippedEntry
}

// Len returns the number of skipped entries.
func (r SkipReport) Len() int {
	return len(r.Entries)
}

func (r *SkipReport) add(index int, itemID string, reason SkipReason) {
	r.Entries = append(r.Entries, SkippedEntry{Index: index, ItemID: itemID, Reason: reason})
}

// Summary aggregates dashboard figures for one unit.
type Summary struct {
	TotalItems      int     `json:"totalItems"`
	TotalValue      float64 `json:"totalValue"`
	LowStockCount   int     `json:"lowStockCount"`
	CategoriesCount int     `json:"categoriesCount"`
	LowStockItems   []Item  `json:"lowStockItems"`
}

// TransactionFilter narrows ledger listings.
type TransactionFilter struct {
	Type    MovementType
	ItemID  string
	Page    int
	PerPage int
}

var (
	// ErrItemNotFound indicates the referenced item is not in the unit's collection.
	ErrItemNotFound = fmt.Errorf("inventory: item %w", shared.ErrNotFound)
	// ErrInvalidQuantity indicates a non-positive movement quantity.
	ErrInvalidQuantity = fmt.Errorf("inventory: quantity must be greater than zero: %w", shared.ErrInvalidInput)
	// ErrInvalidMovementType indicates an unknown or non-manual movement type.
	ErrInvalidMovementType = fmt.Errorf("inventory: movement type: %w", shared.ErrInvalidInput)
	// ErrInvalidItem indicates missing or negative item attributes.
	ErrInvalidItem = fmt.Errorf("inventory: item attributes: %w", shared.ErrInvalidInput)
	// ErrUnknownUnit indicates an unregistered restaurant unit.
	ErrUnknownUnit = fmt.Errorf("inventory: unit %w", shared.ErrNotFound)
)
