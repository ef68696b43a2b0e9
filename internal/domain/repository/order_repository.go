package repository

import (
	"context"

	"github.com/jhoicas/inventario-mrp/internal/domain/entity"
)

// OrderRepository puerto de solo lectura hacia el módulo de ventas.
type OrderRepository interface {
	// ListOpenLines líneas de órdenes no canceladas con cantidad positiva.
	ListOpenLines(ctx context.Context, tenantID string) ([]entity.OrderLine, error)
}
