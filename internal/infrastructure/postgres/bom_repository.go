package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/inventario-mrp/internal/domain"
	"github.com/jhoicas/inventario-mrp/internal/domain/entity"
	"github.com/jhoicas/inventario-mrp/internal/domain/repository"
)

var _ repository.BOMRepository = (*BOMRepo)(nil)

// BOMRepo recetas y sus líneas.
type BOMRepo struct {
	db DB
}

func NewBOMRepository(db DB) *BOMRepo {
	return &BOMRepo{db: db}
}

// Save hace upsert de la cabecera (tenant, producto, versión) y reemplaza las líneas en una tx.
func (r *BOMRepo) Save(ctx context.Context, bom *entity.BOM) error {
	return withTx(ctx, r.db, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			INSERT INTO boms (id, tenant_id, product, sku, version, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (tenant_id, product, version)
			DO UPDATE SET sku = EXCLUDED.sku, updated_at = EXCLUDED.updated_at
			RETURNING id, created_at`,
			bom.ID, bom.TenantID, bom.Product, bom.SKU, bom.Version, bom.CreatedAt, bom.UpdatedAt,
		).Scan(&bom.ID, &bom.CreatedAt)
		if err != nil {
			return fmt.Errorf("upsert bom: %w", err)
		}
		if _, err := tx.Exec(ctx, `DELETE FROM bom_lines WHERE tenant_id = $1 AND bom_id = $2`, bom.TenantID, bom.ID); err != nil {
			return fmt.Errorf("delete bom lines: %w", err)
		}
		if len(bom.Lines) == 0 {
			return nil
		}
		batch := &pgx.Batch{}
		for i, l := range bom.Lines {
			batch.Queue(`
				INSERT INTO bom_lines (bom_id, tenant_id, line_no, material, quantity_per_unit, unit, kind, unit_cost)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
				bom.ID, bom.TenantID, i+1, l.Material, l.QuantityPerUnit, l.Unit, string(l.Kind), l.UnitCost,
			)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("insert bom lines: %w", err)
		}
		return nil
	})
}

func (r *BOMRepo) Get(ctx context.Context, tenantID, product, version string) (*entity.BOM, error) {
	var b entity.BOM
	err := r.db.QueryRow(ctx, `
		SELECT id, tenant_id, product, sku, version, created_at, updated_at
		FROM boms WHERE tenant_id = $1 AND product = $2 AND version = $3`,
		tenantID, product, version,
	).Scan(&b.ID, &b.TenantID, &b.Product, &b.SKU, &b.Version, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get bom: %w", err)
	}
	lines, err := r.lines(ctx, `WHERE l.tenant_id = $1 AND l.bom_id = $2`, tenantID, b.ID)
	if err != nil {
		return nil, err
	}
	b.Lines = lines[b.ID]
	return &b, nil
}

// ListByTenant cabeceras y líneas en dos consultas.
func (r *BOMRepo) ListByTenant(ctx context.Context, tenantID string) ([]*entity.BOM, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, tenant_id, product, sku, version, created_at, updated_at
		FROM boms WHERE tenant_id = $1
		ORDER BY product, version`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list boms: %w", err)
	}
	defer rows.Close()

	list := make([]*entity.BOM, 0)
	for rows.Next() {
		var b entity.BOM
		if err := rows.Scan(&b.ID, &b.TenantID, &b.Product, &b.SKU, &b.Version, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan bom: %w", err)
		}
		list = append(list, &b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	lines, err := r.lines(ctx, `WHERE l.tenant_id = $1`, tenantID)
	if err != nil {
		return nil, err
	}
	for _, b := range list {
		b.Lines = lines[b.ID]
	}
	return list, nil
}

func (r *BOMRepo) lines(ctx context.Context, where string, args ...any) (map[string][]entity.BOMLine, error) {
	rows, err := r.db.Query(ctx, `
		SELECT l.bom_id, l.material, l.quantity_per_unit, l.unit, l.kind, l.unit_cost
		FROM bom_lines l `+where+`
		ORDER BY l.bom_id, l.line_no`, args...)
	if err != nil {
		return nil, fmt.Errorf("list bom lines: %w", err)
	}
	defer rows.Close()

	out := make(map[string][]entity.BOMLine)
	for rows.Next() {
		var bomID, kind string
		var l entity.BOMLine
		if err := rows.Scan(&bomID, &l.Material, &l.QuantityPerUnit, &l.Unit, &kind, &l.UnitCost); err != nil {
			return nil, fmt.Errorf("scan bom line: %w", err)
		}
		l.Kind = entity.ComponentKind(kind)
		out[bomID] = append(out[bomID], l)
	}
	return out, rows.Err()
}
