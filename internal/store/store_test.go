package store

import (
	"context"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

type row struct {
	ID  string  `json:"id"`
	Qty float64 `json:"qty"`
}

func newRedisStore(t *testing.T) (*Redis, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedis(client, ""), mr
}

func exerciseStore(t *testing.T, s DocumentStore) {
	ctx := context.Background()

	var rows []row
	require.ErrorIs(t, s.Load(ctx, CollectionItems, "P10", &rows), ErrMissing)
	require.NoError(t, LoadOrEmpty(ctx, s, CollectionItems, "P10", &rows))
	require.Empty(t, rows)

	items := []row{{ID: "a", Qty: 1}}
	txs := []row{{ID: "t1", Qty: 1}}
	require.NoError(t, s.SaveAll(ctx,
		Document{Collection: CollectionItems, UnitID: "P10", Value: items},
		Document{Collection: CollectionTransactions, UnitID: "P10", Value: txs},
	))

	items[0].Qty = 99
	require.NoError(t, s.Load(ctx, CollectionItems, "P10", &rows))
	require.Equal(t, []row{{ID: "a", Qty: 1}}, rows)

	var other []row
	require.NoError(t, LoadOrEmpty(ctx, s, CollectionItems, "P14", &other))
	require.Empty(t, other, "units are isolated")

	require.NoError(t, s.SaveAll(ctx, Document{Collection: CollectionItems, UnitID: "P10", Value: []row{}}))
	rows = nil
	require.NoError(t, s.Load(ctx, CollectionItems, "P10", &rows))
	require.Empty(t, rows)

	require.Error(t, s.SaveAll(ctx, Document{Collection: CollectionItems, Value: rows}))
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemory())
}

func TestRedisStore(t *testing.T) {
	s, mr := newRedisStore(t)
	exerciseStore(t, s)
	require.True(t, mr.Exists("pantry:transactions:P10"))
}
