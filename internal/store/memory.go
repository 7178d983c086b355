package store

import (
	"context"
	"sync"
)

// Memory keeps documents in process memory. Values are stored encoded so
// callers never share slices with the store.
type Memory struct {
	mu   sync.RWMutex
	docs map[string][]byte
}

// NewMemory constructs an empty memory store.
func NewMemory() *Memory {
	return &Memory{docs: make(map[string][]byte)}
}

// Load implements DocumentStore.
func (m *Memory) Load(_ context.Context, collection Collection, unitID string, dest any) error {
	m.mu.RLock()
	raw, ok := m.docs[memKey(collection, unitID)]
	m.mu.RUnlock()
	if !ok {
		return ErrMissing
	}
	return decode(collection, unitID, raw, dest)
}

// SaveAll implements DocumentStore.
func (m *Memory) SaveAll(_ context.Context, docs ...Document) error {
	encoded, err := encode(docs)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, doc := range docs {
		m.docs[memKey(doc.Collection, doc.UnitID)] = encoded[i]
	}
	return nil
}

func memKey(collection Collection, unitID string) string {
	return string(collection) + "/" + unitID
}
