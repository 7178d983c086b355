package inventory

import (
	"context"
	"fmt"

	"github.com/odyssey-erp/pantry/internal/store"
)

// Repository maps inventory collections onto the document store.
type Repository struct {
	docs store.DocumentStore
}

// NewRepository constructs a Repository.
func NewRepository(docs store.DocumentStore) *Repository {
	return &Repository{docs: docs}
}

// Items loads the unit's active items. A unit never written has none.
func (r *Repository) Items(ctx context.Context, unitID string) ([]Item, error) {
	items := []Item{}
	if err := store.LoadOrEmpty(ctx, r.docs, store.CollectionItems, unitID, &items); err != nil {
		return nil, fmt.Errorf("inventory: load items: %w", err)
	}
	return items, nil
}

// Transactions loads the unit's ledger in insertion order.
func (r *Repository) Transactions(ctx context.Context, unitID string) ([]StockTransaction, error) {
	txs := []StockTransaction{}
	if err := store.LoadOrEmpty(ctx, r.docs, store.CollectionTransactions, unitID, &txs); err != nil {
		return nil, fmt.Errorf("inventory: load transactions: %w", err)
	}
	return txs, nil
}

// Save writes the items and, when non-nil, the full ledger in one store write.
func (r *Repository) Save(ctx context.Context, unitID string, items []Item, ledger []StockTransaction) error {
	docs := []store.Document{ItemsDocument(unitID, items)}
	if ledger != nil {
		docs = append(docs, TransactionsDocument(unitID, ledger))
	}
	if err := r.docs.SaveAll(ctx, docs...); err != nil {
		return fmt.Errorf("inventory: save: %w", err)
	}
	return nil
}

// ItemsDocument wraps a full item collection for SaveAll.
func ItemsDocument(unitID string, items []Item) store.Document {
	if items == nil {
		items = []Item{}
	}
	return store.Document{Collection: store.CollectionItems, UnitID: unitID, Value: items}
}

// TransactionsDocument wraps a full ledger for SaveAll.
func TransactionsDocument(unitID string, ledger []StockTransaction) store.Document {
	return store.Document{Collection: store.CollectionTransactions, UnitID: unitID, Value: ledger}
}
