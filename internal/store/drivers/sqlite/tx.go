package sqlite

import (
	"context"
	"database/sql"

	"github.com/itas-team/itas/internal/store"
)

type txStore struct {
	tx *sql.Tx
}

func newTxStore(tx *sql.Tx) *txStore {
	return &txStore{tx: tx}
}

func (t *txStore) Close() error { return nil } // caller owns the outer DB

// Ping is a no-op for transactions. The connection is already established
// when the transaction is created.
func (t *txStore) Ping(ctx context.Context) error { return nil }

func (t *txStore) WithTx(ctx context.Context, fn func(store.Store) error) error {
	// Nested tx not supported; could emulate with SAVEPOINT if needed
	return sql.ErrTxDone
}

func (t *txStore) Users() store.UserRepo         { return &usersRepo{q: t.tx} }
func (t *txStore) Tasks() store.TaskRepo         { return &tasksRepo{q: t.tx} }
func (t *txStore) DailyLogs() store.DailyLogRepo { return &dailyLogsRepo{q: t.tx} }
