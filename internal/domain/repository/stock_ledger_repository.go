package repository

import (
	"context"
	"errors"

	"github.com/jhoicas/inventario-mrp/internal/domain/entity"
)

// ErrTxConflict lo devuelven los adaptadores cuando la transacción chocó con otra
// (serialización, deadlock, inserción concurrente). El caso de uso reintenta.
var ErrTxConflict = errors.New("conflicto transaccional")

// LedgerFilter filtros de ListStatus. TenantID es obligatorio; el resto opcional.
type LedgerFilter struct {
	TenantID  string
	Warehouse string
	Material  string
}

// StockLedgerRepository puerto del kardex materializado.
// Las escrituras solo son válidas dentro de TxRunner.Run, después de GetForUpdate.
type StockLedgerRepository interface {
	// GetForUpdate bloquea la clave hasta el fin de la transacción (aunque aún no exista
	// el agregado) y devuelve el agregado o nil.
	GetForUpdate(ctx context.Context, key entity.LedgerKey) (*entity.StockLedger, error)
	Insert(ctx context.Context, ledger *entity.StockLedger) error
	Update(ctx context.Context, ledger *entity.StockLedger) error
	// List devuelve los agregados ordenados por (bodega, material).
	List(ctx context.Context, filter LedgerFilter) ([]*entity.StockLedger, error)
	// LockTenant bloqueo exclusivo de todo el tenant (reconstrucción).
	LockTenant(ctx context.Context, tenantID string) error
	// ReplaceAll sustituye todos los agregados del tenant.
	ReplaceAll(ctx context.Context, tenantID string, ledgers []*entity.StockLedger) error
}
