package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/inventario-mrp/internal/domain/entity"
	"github.com/jhoicas/inventario-mrp/internal/domain/repository"
)

var _ repository.StockPostingRepository = (*PostingRepo)(nil)

// postingsUnion entradas y salidas con las mismas columnas; el seq sale de una secuencia común.
const postingsUnion = `
	SELECT id, seq, tenant_id, 'entry' AS kind, material, warehouse, quantity, unit,
	       critical_level, employee_id, date, created_at
	FROM stock_entries
	UNION ALL
	SELECT id, seq, tenant_id, 'output' AS kind, material, warehouse, quantity, unit,
	       NULL::numeric AS critical_level, employee_id, date, created_at
	FROM stock_outputs`

// PostingRepo colecciones append-only stock_entries y stock_outputs.
type PostingRepo struct {
	q Querier
}

// NewPostingRepository construye el adaptador. Pasar pool o tx (Querier).
func NewPostingRepository(q Querier) *PostingRepo {
	return &PostingRepo{q: q}
}

// Append inserta el posteo en su tabla y asigna Seq.
func (r *PostingRepo) Append(ctx context.Context, p *entity.StockPosting) error {
	var err error
	switch p.Kind {
	case entity.PostingEntry:
		err = r.q.QueryRow(ctx, `
			INSERT INTO stock_entries (id, tenant_id, material, warehouse, quantity, unit, critical_level, employee_id, date, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			RETURNING seq`,
			p.ID, p.TenantID, p.Material, p.Warehouse, p.Quantity, p.Unit, p.CriticalLevel, p.EmployeeID, p.Date, p.CreatedAt,
		).Scan(&p.Seq)
	case entity.PostingOutput:
		err = r.q.QueryRow(ctx, `
			INSERT INTO stock_outputs (id, tenant_id, material, warehouse, quantity, unit, employee_id, date, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			RETURNING seq`,
			p.ID, p.TenantID, p.Material, p.Warehouse, p.Quantity, p.Unit, p.EmployeeID, p.Date, p.CreatedAt,
		).Scan(&p.Seq)
	default:
		return fmt.Errorf("append posting: tipo desconocido %q", p.Kind)
	}
	if err != nil {
		return fmt.Errorf("append %s: %w", p.Kind, err)
	}
	return nil
}

func scanPostings(rows pgx.Rows) ([]entity.StockPosting, error) {
	defer rows.Close()
	out := make([]entity.StockPosting, 0)
	for rows.Next() {
		var p entity.StockPosting
		if err := rows.Scan(
			&p.ID, &p.Seq, &p.TenantID, &p.Kind, &p.Material, &p.Warehouse, &p.Quantity, &p.Unit,
			&p.CriticalLevel, &p.EmployeeID, &p.Date, &p.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan posting: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// ListByKey historial de la clave, más reciente primero.
func (r *PostingRepo) ListByKey(ctx context.Context, key entity.LedgerKey, limit, offset int) ([]*entity.StockPosting, error) {
	query := `SELECT * FROM (` + postingsUnion + `) p
		WHERE tenant_id = $1 AND material = $2 AND warehouse = $3
		ORDER BY seq DESC
		LIMIT $4 OFFSET $5`
	rows, err := r.q.Query(ctx, query, key.TenantID, key.Material, key.Warehouse, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list postings: %w", err)
	}
	list, err := scanPostings(rows)
	if err != nil {
		return nil, err
	}
	out := make([]*entity.StockPosting, len(list))
	for i := range list {
		out[i] = &list[i]
	}
	return out, nil
}

// ListByTenant todos los posteos del tenant en orden de Seq.
func (r *PostingRepo) ListByTenant(ctx context.Context, tenantID string) ([]entity.StockPosting, error) {
	query := `SELECT * FROM (` + postingsUnion + `) p WHERE tenant_id = $1 ORDER BY seq`
	rows, err := r.q.Query(ctx, query, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list tenant postings: %w", err)
	}
	return scanPostings(rows)
}
