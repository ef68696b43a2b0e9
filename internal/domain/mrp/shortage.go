// Package mrp calcula faltantes de componentes explotando órdenes abiertas a través de sus BOM.
package mrp

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-mrp/internal/domain/entity"
)

type stockKey struct {
	material string
	unit     string
}

// Snapshot disponibilidad global por (material, unidad), sumando todas las bodegas.
// Es una foto puntual del kardex; puede estar desactualizada por clave.
type Snapshot struct {
	available map[stockKey]decimal.Decimal
}

// NewSnapshot construye la foto desde los kardex de un tenant.
func NewSnapshot(ledgers []*entity.StockLedger) Snapshot {
	s := Snapshot{available: make(map[stockKey]decimal.Decimal, len(ledgers))}
	for _, l := range ledgers {
		k := stockKey{material: l.Material, unit: l.Unit}
		s.available[k] = s.available[k].Add(l.CurrentQuantity)
	}
	return s
}

// Available cantidad disponible; cero si el material no tiene kardex.
func (s Snapshot) Available(material, unit string) decimal.Decimal {
	return s.available[stockKey{material: material, unit: unit}]
}

// Result salida de una corrida.
type Result struct {
	Rows []entity.ShortageRow
	// SkippedLines líneas de orden sin BOM (producto no fabricado o catálogo incompleto).
	SkippedLines int
	// ExplodedLines líneas de orden que sí tenían BOM.
	ExplodedLines int
}

// bomIndex resuelve BOM por nombre de producto y por SKU.
type bomIndex struct {
	byProduct map[string]*entity.BOM
	bySKU     map[string]*entity.BOM
}

func newBOMIndex(boms []*entity.BOM) bomIndex {
	idx := bomIndex{
		byProduct: make(map[string]*entity.BOM, len(boms)),
		bySKU:     make(map[string]*entity.BOM, len(boms)),
	}
	put := func(m map[string]*entity.BOM, key string, b *entity.BOM) {
		if key == "" {
			return
		}
		// con varias versiones gana la actualizada más recientemente
		if prev, ok := m[key]; ok && !b.UpdatedAt.After(prev.UpdatedAt) {
			return
		}
		m[key] = b
	}
	for _, b := range boms {
		put(idx.byProduct, b.Product, b)
		put(idx.bySKU, b.SKU, b)
	}
	return idx
}

func (idx bomIndex) resolve(line entity.OrderLine) *entity.BOM {
	if b, ok := idx.byProduct[line.Product]; ok {
		return b
	}
	if line.SKU != "" {
		if b, ok := idx.bySKU[line.SKU]; ok {
			return b
		}
	}
	// el campo producto de la orden a veces trae el SKU
	return idx.bySKU[line.Product]
}

// ComputeShortages explota cada línea no cancelada por su BOM (un solo nivel) y emite una
// fila por (línea de orden, línea de BOM) con déficit > 0, ordenadas por déficit descendente.
// No fusiona filas de distintas líneas de orden aunque sea el mismo material.
// Es una función pura; las cantidades <= 0 deben filtrarse antes.
func ComputeShortages(orders []entity.OrderLine, boms []*entity.BOM, snapshot Snapshot) Result {
	idx := newBOMIndex(boms)
	var res Result

	for _, line := range orders {
		if line.Cancelled {
			continue
		}
		bom := idx.resolve(line)
		if bom == nil {
			res.SkippedLines++
			continue
		}
		res.ExplodedLines++

		for _, bl := range bom.Lines {
			required := bl.QuantityPerUnit.Mul(line.Quantity)
			available := snapshot.Available(bl.Material, bl.Unit)
			deficit := required.Sub(available)
			if !deficit.IsPositive() {
				continue
			}
			res.Rows = append(res.Rows, entity.ShortageRow{
				Material:  bl.Material,
				Unit:      bl.Unit,
				Kind:      bl.Kind,
				Required:  required,
				Available: available,
				Deficit:   deficit,
				Product:   line.Product,
				OrderID:   line.OrderID,
				UnitCost:  bl.UnitCost,
			})
		}
	}

	sort.SliceStable(res.Rows, func(i, j int) bool {
		return res.Rows[i].Deficit.GreaterThan(res.Rows[j].Deficit)
	})
	return res
}

// EstimatedCost costo estimado de cubrir el déficit con el costo unitario de la BOM.
// Devuelve Valid=false si la línea de BOM no tenía costo.
func EstimatedCost(row entity.ShortageRow) decimal.NullDecimal {
	if !row.UnitCost.Valid {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(row.Deficit.Mul(row.UnitCost.Decimal))
}
