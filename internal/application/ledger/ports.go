package ledger

import (
	"context"

	"github.com/jhoicas/inventario-mrp/internal/domain/repository"
)

// TxRunner ejecuta fn dentro de una transacción con repositorios atados a ella.
// Los bloqueos tomados con GetForUpdate/LockTenant se liberan al terminar Run.
// Un choque con otra transacción se reporta envolviendo repository.ErrTxConflict.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		ledgers repository.StockLedgerRepository,
		postings repository.StockPostingRepository,
	) error) error
}
