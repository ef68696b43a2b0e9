package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-mrp/internal/domain/entity"
)

// BOMLineRequest componente de una receta.
type BOMLineRequest struct {
	Material        string           `json:"material" validate:"required"`
	QuantityPerUnit decimal.Decimal  `json:"quantity_per_unit" validate:"gt=0"`
	Unit            string           `json:"unit" validate:"required"`
	Kind            string           `json:"kind" validate:"required,oneof=raw semi labor"`
	UnitCost        *decimal.Decimal `json:"unit_cost,omitempty"`
}

// SaveBOMRequest body para POST /api/catalog/boms (crea o reemplaza producto+versión).
type SaveBOMRequest struct {
	Product string           `json:"product" validate:"required_without=SKU"`
	SKU     string           `json:"sku"`
	Version string           `json:"version"`
	Lines   []BOMLineRequest `json:"lines" validate:"required,min=1,dive"`
}

// ToEntity convierte el request a la entidad del tenant indicado.
func (r SaveBOMRequest) ToEntity(tenantID string) *entity.BOM {
	bom := &entity.BOM{
		TenantID: tenantID,
		Product:  r.Product,
		SKU:      r.SKU,
		Version:  r.Version,
		Lines:    make([]entity.BOMLine, 0, len(r.Lines)),
	}
	for _, l := range r.Lines {
		line := entity.BOMLine{
			Material:        l.Material,
			QuantityPerUnit: l.QuantityPerUnit,
			Unit:            l.Unit,
			Kind:            entity.ComponentKind(l.Kind),
		}
		if l.UnitCost != nil {
			line.UnitCost = decimal.NewNullDecimal(*l.UnitCost)
		}
		bom.Lines = append(bom.Lines, line)
	}
	return bom
}

// BOMLineResponse componente en respuestas.
type BOMLineResponse struct {
	Material        string           `json:"material"`
	QuantityPerUnit decimal.Decimal  `json:"quantity_per_unit"`
	Unit            string           `json:"unit"`
	Kind            string           `json:"kind"`
	UnitCost        *decimal.Decimal `json:"unit_cost,omitempty"`
}

// BOMResponse receta guardada.
type BOMResponse struct {
	ID        string            `json:"id"`
	Product   string            `json:"product"`
	SKU       string            `json:"sku,omitempty"`
	Version   string            `json:"version,omitempty"`
	Lines     []BOMLineResponse `json:"lines"`
	UpdatedAt time.Time         `json:"updated_at"`
}

func ToBOMResponse(b *entity.BOM) BOMResponse {
	out := BOMResponse{
		ID:        b.ID,
		Product:   b.Product,
		SKU:       b.SKU,
		Version:   b.Version,
		Lines:     make([]BOMLineResponse, 0, len(b.Lines)),
		UpdatedAt: b.UpdatedAt,
	}
	for _, l := range b.Lines {
		line := BOMLineResponse{Material: l.Material, QuantityPerUnit: l.QuantityPerUnit, Unit: l.Unit, Kind: string(l.Kind)}
		if l.UnitCost.Valid {
			c := l.UnitCost.Decimal
			line.UnitCost = &c
		}
		out.Lines = append(out.Lines, line)
	}
	return out
}
