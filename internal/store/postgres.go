package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odyssey-erp/pantry/internal/platform/db"
)

// Postgres stores collections as JSONB rows keyed by (collection, unit_id).
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres constructs a postgres-backed store.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

// Load implements DocumentStore.
func (p *Postgres) Load(ctx context.Context, collection Collection, unitID string, dest any) error {
	var raw []byte
	err := p.pool.QueryRow(ctx, `SELECT body FROM collections WHERE collection=$1 AND unit_id=$2`, string(collection), unitID).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrMissing
	}
	if err != nil {
		return fmt.Errorf("store: postgres load: %w", err)
	}
	return decode(collection, unitID, raw, dest)
}

// SaveAll implements DocumentStore in one transaction holding the advisory
// lock of every unit it writes.
func (p *Postgres) SaveAll(ctx context.Context, docs ...Document) error {
	encoded, err := encode(docs)
	if err != nil {
		return err
	}
	keys := make([]string, 0, len(docs))
	for _, doc := range docs {
		keys = append(keys, "pantry:unit:"+doc.UnitID)
	}
	return db.WithTx(ctx, p.pool, db.TxOptions{LockKeys: keys}, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for i, doc := range docs {
			batch.Queue(`INSERT INTO collections (collection, unit_id, body, updated_at)
VALUES ($1, $2, $3, NOW())
ON CONFLICT (collection, unit_id) DO UPDATE SET body = EXCLUDED.body, updated_at = EXCLUDED.updated_at`,
				string(doc.Collection), doc.UnitID, encoded[i])
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("store: postgres save: %w", err)
		}
		return nil
	})
}
