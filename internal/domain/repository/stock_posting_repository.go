package repository

import (
	"context"

	"github.com/jhoicas/inventario-mrp/internal/domain/entity"
)

// StockPostingRepository puerto de las colecciones append-only de entradas y salidas.
type StockPostingRepository interface {
	// Append persiste el posteo y le asigna Seq.
	Append(ctx context.Context, posting *entity.StockPosting) error
	// ListByKey historial de una clave, más reciente primero.
	ListByKey(ctx context.Context, key entity.LedgerKey, limit, offset int) ([]*entity.StockPosting, error)
	// ListByTenant todos los posteos del tenant en orden de Seq (para replay).
	ListByTenant(ctx context.Context, tenantID string) ([]entity.StockPosting, error)
}
