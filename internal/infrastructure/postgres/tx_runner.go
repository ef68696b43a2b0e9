package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/inventario-mrp/internal/application/ledger"
	"github.com/jhoicas/inventario-mrp/internal/domain/repository"
)

var _ ledger.TxRunner = (*TxRunner)(nil)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL.
type TxRunner struct {
	db DB
}

// NewTxRunner construye el runner con el pool.
func NewTxRunner(db DB) *TxRunner {
	return &TxRunner{db: db}
}

// Run inicia una transacción, ejecuta fn con los repos del kardex atados a la tx y hace
// Commit o Rollback. Los advisory locks tomados dentro se liberan al terminar.
func (r *TxRunner) Run(ctx context.Context, fn func(
	ledgers repository.StockLedgerRepository,
	postings repository.StockPostingRepository,
) error) error {
	return withTx(ctx, r.db, func(tx pgx.Tx) error {
		return fn(NewLedgerRepository(tx), NewPostingRepository(tx))
	})
}

// withTx abre la transacción, ejecuta fn y clasifica los errores reintentables.
func withTx(ctx context.Context, db DB, fn func(tx pgx.Tx) error) error {
	tx, err := db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(tx); err != nil {
		return classify(err)
	}
	if err := tx.Commit(ctx); err != nil {
		return classify(fmt.Errorf("commit transaction: %w", err))
	}
	return nil
}
