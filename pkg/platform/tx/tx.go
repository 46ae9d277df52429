// Package tx propagates an open transaction through context so stores can
// enlist their writes in a caller-owned transaction. The KYC review service
// uses it to commit a submission transition and the account kyc_status mirror
// as one unit.
package tx

import (
	"context"
	"fmt"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type pgxTxKey struct{}

// WithPgx injects an open pgx transaction into the context.
func WithPgx(ctx context.Context, tx pgx.Tx) context.Context {
	return context.WithValue(ctx, pgxTxKey{}, tx)
}

// Pgx retrieves the enlisted pgx transaction, if any.
func Pgx(ctx context.Context) (pgx.Tx, bool) {
	tx, ok := ctx.Value(pgxTxKey{}).(pgx.Tx)
	return tx, ok
}

// Runner executes a function atomically with respect to other runs. Stores
// that honor the context transaction see either all of fn's writes or none.
type Runner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// PgxRunner wraps fn in a database transaction on the shared pool.
type PgxRunner struct {
	pool *pgxpool.Pool
}

func NewPgxRunner(pool *pgxpool.Pool) *PgxRunner {
	return &PgxRunner{pool: pool}
}

func (r *PgxRunner) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		// No-op once committed.
		_ = tx.Rollback(ctx)
	}()

	if err := fn(WithPgx(ctx, tx)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// SerialRunner is the in-memory counterpart: it cannot roll back, so it
// serializes runs instead, which gives the same no-interleaving guarantee for
// the mutex-guarded stores used in tests and dev runs.
type SerialRunner struct {
	mu sync.Mutex
}

func NewSerialRunner() *SerialRunner {
	return &SerialRunner{}
}

func (r *SerialRunner) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return fn(ctx)
}
