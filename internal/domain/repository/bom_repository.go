package repository

import (
	"context"

	"github.com/jhoicas/inventario-mrp/internal/domain/entity"
)

// BOMRepository puerto del catálogo de recetas.
type BOMRepository interface {
	// Save inserta o reemplaza la BOM (tenant, producto, versión) con sus líneas.
	Save(ctx context.Context, bom *entity.BOM) error
	Get(ctx context.Context, tenantID, product, version string) (*entity.BOM, error)
	ListByTenant(ctx context.Context, tenantID string) ([]*entity.BOM, error)
}
