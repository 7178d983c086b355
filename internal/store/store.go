// Package store persists whole per-unit collections as JSON documents.
//
// Callers load a collection snapshot, compute the next state and write every
// touched collection back in a single SaveAll call. Deltas are never written.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/odyssey-erp/pantry/internal/shared"
)

// Collection names one document family.
type Collection string

const (
	CollectionItems           Collection = "items"
	CollectionTransactions    Collection = "transactions"
	CollectionRequests        Collection = "requests"
	CollectionPurchaseReports Collection = "purchase_reports"
)

// ErrMissing indicates the collection has never been written for the unit.
var ErrMissing = fmt.Errorf("store: collection missing: %w", shared.ErrNotFound)

// Document is one collection snapshot to be written.
type Document struct {
	Collection Collection
	UnitID     string
	Value      any
}

// DocumentStore loads and replaces whole collections.
type DocumentStore interface {
	// Load decodes the stored collection into dest. It returns ErrMissing when
	// nothing was stored yet; dest is left untouched in that case.
	Load(ctx context.Context, collection Collection, unitID string, dest any) error
	// SaveAll writes every document atomically.
	SaveAll(ctx context.Context, docs ...Document) error
}

// LoadOrEmpty behaves like Load but treats a missing collection as empty.
func LoadOrEmpty(ctx context.Context, s DocumentStore, collection Collection, unitID string, dest any) error {
	err := s.Load(ctx, collection, unitID, dest)
	if errors.Is(err, ErrMissing) {
		return nil
	}
	return err
}

func encode(docs []Document) ([][]byte, error) {
	out := make([][]byte, len(docs))
	for i, doc := range docs {
		if doc.Collection == "" || doc.UnitID == "" {
			return nil, errors.New("store: document requires collection and unit")
		}
		raw, err := json.Marshal(doc.Value)
		if err != nil {
			return nil, fmt.Errorf("store: encode %s/%s: %w", doc.Collection, doc.UnitID, err)
		}
		out[i] = raw
	}
	return out, nil
}

func decode(collection Collection, unitID string, raw []byte, dest any) error {
	if err := json.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("store: decode %s/%s: %w", collection, unitID, err)
	}
	return nil
}
