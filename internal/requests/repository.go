package requests

import (
	"context"
	"fmt"

	"github.com/odyssey-erp/pantry/internal/inventory"
	"github.com/odyssey-erp/pantry/internal/store"
)

// Repository maps requests, and the inventory collections approvals touch,
// onto the document store.
type Repository struct {
	docs  store.DocumentStore
	items *inventory.Repository
}

// NewRepository constructs a Repository.
func NewRepository(docs store.DocumentStore) *Repository {
	return &Repository{docs: docs, items: inventory.NewRepository(docs)}
}

// Requests loads the unit's requests in creation order.
func (r *Repository) Requests(ctx context.Context, unitID string) ([]MaterialRequest, error) {
	reqs := []MaterialRequest{}
	if err := store.LoadOrEmpty(ctx, r.docs, store.CollectionRequests, unitID, &reqs); err != nil {
		return nil, fmt.Errorf("requests: load: %w", err)
	}
	return reqs, nil
}

// Items loads the unit's items.
func (r *Repository) Items(ctx context.Context, unitID string) ([]inventory.Item, error) {
	return r.items.Items(ctx, unitID)
}

// Transactions loads the unit's ledger.
func (r *Repository) Transactions(ctx context.Context, unitID string) ([]inventory.StockTransaction, error) {
	return r.items.Transactions(ctx, unitID)
}

// SaveRequests writes the full request collection.
func (r *Repository) SaveRequests(ctx context.Context, unitID string, reqs []MaterialRequest) error {
	if err := r.docs.SaveAll(ctx, requestsDocument(unitID, reqs)); err != nil {
		return fmt.Errorf("requests: save: %w", err)
	}
	return nil
}

// SaveApproval writes items, ledger and requests in one store write.
func (r *Repository) SaveApproval(ctx context.Context, unitID string, items []inventory.Item, ledger []inventory.StockTransaction, reqs []MaterialRequest) error {
	err := r.docs.SaveAll(ctx,
		inventory.ItemsDocument(unitID, items),
		inventory.TransactionsDocument(unitID, ledger),
		requestsDocument(unitID, reqs),
	)
	if err != nil {
		return fmt.Errorf("requests: save approval: %w", err)
	}
	return nil
}

func requestsDocument(unitID string, reqs []MaterialRequest) store.Document {
	if reqs == nil {
		reqs = []MaterialRequest{}
	}
	return store.Document{Collection: store.CollectionRequests, UnitID: unitID, Value: reqs}
}
