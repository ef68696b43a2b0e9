// Package catalog administra las recetas (BOM) que consume el MRP.
package catalog

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jhoicas/inventario-mrp/internal/domain"
	"github.com/jhoicas/inventario-mrp/internal/domain/entity"
	"github.com/jhoicas/inventario-mrp/internal/domain/repository"
)

// UseCase alta y consulta de BOM por tenant.
type UseCase struct {
	boms repository.BOMRepository
	log  zerolog.Logger
	now  func() time.Time
}

func NewUseCase(boms repository.BOMRepository, log zerolog.Logger) *UseCase {
	return &UseCase{
		boms: boms,
		log:  log.With().Str("component", "catalog").Logger(),
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// SaveBOM crea o reemplaza la receta (tenant, producto, versión). Si solo viene SKU,
// el SKU se usa también como nombre de producto.
func (uc *UseCase) SaveBOM(ctx context.Context, bom *entity.BOM) (*entity.BOM, error) {
	if strings.TrimSpace(bom.TenantID) == "" {
		return nil, domain.ErrMissingTenant
	}
	bom.Product = strings.TrimSpace(bom.Product)
	bom.SKU = strings.TrimSpace(bom.SKU)
	if bom.Product == "" {
		bom.Product = bom.SKU
	}
	if err := bom.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	for i, l := range bom.Lines {
		if err := domain.CheckScale(fmt.Sprintf("lines[%d].quantity_per_unit", i), l.QuantityPerUnit); err != nil {
			return nil, err
		}
		if l.UnitCost.Valid {
			if err := domain.CheckScale(fmt.Sprintf("lines[%d].unit_cost", i), l.UnitCost.Decimal); err != nil {
				return nil, err
			}
		}
	}

	now := uc.now()
	if bom.ID == "" {
		bom.ID = uuid.New().String()
	}
	if bom.CreatedAt.IsZero() {
		bom.CreatedAt = now
	}
	bom.UpdatedAt = now
	if err := uc.boms.Save(ctx, bom); err != nil {
		return nil, err
	}
	uc.log.Debug().Str("tenant_id", bom.TenantID).Str("product", bom.Product).Str("version", bom.Version).
		Int("lines", len(bom.Lines)).Msg("bom guardada")
	return bom, nil
}

// GetBOM devuelve domain.ErrNotFound si no existe.
func (uc *UseCase) GetBOM(ctx context.Context, tenantID, product, version string) (*entity.BOM, error) {
	if strings.TrimSpace(tenantID) == "" {
		return nil, domain.ErrMissingTenant
	}
	return uc.boms.Get(ctx, tenantID, product, version)
}

func (uc *UseCase) ListBOMs(ctx context.Context, tenantID string) ([]*entity.BOM, error) {
	if strings.TrimSpace(tenantID) == "" {
		return nil, domain.ErrMissingTenant
	}
	return uc.boms.ListByTenant(ctx, tenantID)
}
