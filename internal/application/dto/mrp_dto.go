package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-mrp/internal/domain/entity"
)

// OrderLineRequest línea de orden para simular una corrida sin leer las órdenes abiertas.
type OrderLineRequest struct {
	OrderID  string          `json:"order_id"`
	Product  string          `json:"product" validate:"required"`
	SKU      string          `json:"sku"`
	Quantity decimal.Decimal `json:"quantity" validate:"gt=0"`
}

// RunMRPRequest body opcional para POST /api/mrp/run. Sin orders se usan las órdenes abiertas.
type RunMRPRequest struct {
	Orders []OrderLineRequest `json:"orders,omitempty" validate:"omitempty,dive"`
}

// OrderLines devuelve nil cuando no se enviaron órdenes.
func (r RunMRPRequest) OrderLines() []entity.OrderLine {
	if len(r.Orders) == 0 {
		return nil
	}
	out := make([]entity.OrderLine, 0, len(r.Orders))
	for _, o := range r.Orders {
		out = append(out, entity.OrderLine{OrderID: o.OrderID, Product: o.Product, SKU: o.SKU, Quantity: o.Quantity})
	}
	return out
}

// ShortageRowDTO faltante de un componente. También es la entrada de los documentos de compra.
type ShortageRowDTO struct {
	Material      string           `json:"material" validate:"required"`
	Unit          string           `json:"unit"`
	Kind          string           `json:"kind,omitempty"`
	Required      decimal.Decimal  `json:"required"`
	Available     decimal.Decimal  `json:"available"`
	Deficit       decimal.Decimal  `json:"deficit" validate:"gt=0"`
	Product       string           `json:"product,omitempty"`
	OrderID       string           `json:"order_id,omitempty"`
	UnitCost      *decimal.Decimal `json:"unit_cost,omitempty"`
	EstimatedCost *decimal.Decimal `json:"estimated_cost,omitempty"`
}

// MRPResponse resultado de la corrida.
type MRPResponse struct {
	GeneratedAt    time.Time        `json:"generated_at"`
	Rows           []ShortageRowDTO `json:"rows"`
	SkippedLines   int              `json:"skipped_lines"`
	ExplodedLines  int              `json:"exploded_lines"`
	EstimatedTotal decimal.Decimal  `json:"estimated_total"`
}

func ToShortageRowDTO(r entity.ShortageRow) ShortageRowDTO {
	out := ShortageRowDTO{
		Material:  r.Material,
		Unit:      r.Unit,
		Kind:      string(r.Kind),
		Required:  r.Required,
		Available: r.Available,
		Deficit:   r.Deficit,
		Product:   r.Product,
		OrderID:   r.OrderID,
	}
	if r.UnitCost.Valid {
		c := r.UnitCost.Decimal
		est := r.Deficit.Mul(c)
		out.UnitCost = &c
		out.EstimatedCost = &est
	}
	return out
}

// ToShortageRows convierte las filas recibidas en un request de compras.
func ToShortageRows(in []ShortageRowDTO) []entity.ShortageRow {
	out := make([]entity.ShortageRow, 0, len(in))
	for _, r := range in {
		row := entity.ShortageRow{
			Material:  r.Material,
			Unit:      r.Unit,
			Kind:      entity.ComponentKind(r.Kind),
			Required:  r.Required,
			Available: r.Available,
			Deficit:   r.Deficit,
			Product:   r.Product,
			OrderID:   r.OrderID,
		}
		if r.UnitCost != nil {
			row.UnitCost = decimal.NewNullDecimal(*r.UnitCost)
		}
		out = append(out, row)
	}
	return out
}
