package db

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const defaultTxAttempts = 3

// Beginner starts transactions. *pgxpool.Pool satisfies it.
type Beginner interface {
	BeginTx(ctx context.Context, opts pgx.TxOptions) (pgx.Tx, error)
}

// TxOptions tunes WithTx.
type TxOptions struct {
	// LockKeys are taken as transaction-scoped advisory locks before fn runs,
	// so writers of the same key serialise across processes.
	LockKeys []string
	// Attempts bounds how often a serialization failure is retried. Zero means 3.
	Attempts int
}

// WithTx runs fn in a RepeatableRead transaction. fn may run more than once:
// serialization failures and deadlocks roll back and start over.
func WithTx(ctx context.Context, pool Beginner, opts TxOptions, fn func(pgx.Tx) error) error {
	attempts := opts.Attempts
	if attempts <= 0 {
		attempts = defaultTxAttempts
	}
	keys := slices.Clone(opts.LockKeys)
	slices.Sort(keys)
	keys = slices.Compact(keys)

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		err = runTx(ctx, pool, keys, fn)
		if err == nil || !retryable(err) || ctx.Err() != nil {
			return err
		}
	}
	return fmt.Errorf("platform/db: gave up after %d attempts: %w", attempts, err)
}

func runTx(ctx context.Context, pool Beginner, keys []string, fn func(pgx.Tx) error) error {
	tx, err := pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead})
	if err != nil {
		return fmt.Errorf("platform/db: begin tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	for _, key := range keys {
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`, key); err != nil {
			return fmt.Errorf("platform/db: lock %s: %w", key, err)
		}
	}
	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("platform/db: commit tx: %w", err)
	}
	return nil
}

// retryable reports serialization failures and deadlocks.
func retryable(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == "40001" || pgErr.Code == "40P01"
}
