package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/inventario-mrp/internal/domain/entity"
	"github.com/jhoicas/inventario-mrp/internal/domain/repository"
)

var _ repository.OrderRepository = (*OrderRepo)(nil)

// OrderRepo lectura de las órdenes de venta abiertas (tablas del módulo de ventas).
type OrderRepo struct {
	q Querier
}

func NewOrderRepository(q Querier) *OrderRepo {
	return &OrderRepo{q: q}
}

func (r *OrderRepo) ListOpenLines(ctx context.Context, tenantID string) ([]entity.OrderLine, error) {
	query := `
		SELECT so.id, so.tenant_id, sol.product, sol.sku, sol.quantity
		FROM sales_order_lines sol
		JOIN sales_orders so ON so.id = sol.order_id
		WHERE so.tenant_id = $1 AND so.status <> 'cancelled' AND sol.quantity > 0
		ORDER BY so.created_at, so.id, sol.line_no`
	rows, err := r.q.Query(ctx, query, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list open order lines: %w", err)
	}
	defer rows.Close()

	out := make([]entity.OrderLine, 0)
	for rows.Next() {
		var l entity.OrderLine
		if err := rows.Scan(&l.OrderID, &l.TenantID, &l.Product, &l.SKU, &l.Quantity); err != nil {
			return nil, fmt.Errorf("scan order line: %w", err)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}
