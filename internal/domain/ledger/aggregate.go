// Package ledger contiene la lógica pura del kardex: aplicar posteos y derivar el estado.
// No toca persistencia ni bloqueos; eso lo hace application/ledger.
package ledger

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-mrp/internal/domain"
	"github.com/jhoicas/inventario-mrp/internal/domain/entity"
)

// DefaultCriticalRatio nivel crítico por defecto: 20% de la primera entrada.
var DefaultCriticalRatio = decimal.RequireFromString("0.2")

var orangeFactor = decimal.RequireFromString("1.5")

// DeriveStatus semáforo del kardex:
// red si actual <= 0 o actual <= crítico; orange si actual <= crítico*1.5; si no green.
func DeriveStatus(current, critical decimal.Decimal) entity.LedgerStatus {
	if !current.IsPositive() || current.LessThanOrEqual(critical) {
		return entity.LedgerStatusRed
	}
	if current.LessThanOrEqual(critical.Mul(orangeFactor)) {
		return entity.LedgerStatusOrange
	}
	return entity.LedgerStatusGreen
}

// ApplyEntry aplica una entrada y devuelve el nuevo agregado. current puede ser nil
// (primera entrada de la clave). current nunca se modifica.
//
// Al crear el agregado cualquier nivel registrado en el posteo (incluido cero) es el nivel
// inicial; sin él se usa cantidad*criticalRatio redondeado a domain.MaxDecimalPlaces.
// Después solo un override positivo reemplaza el nivel.
func ApplyEntry(current *entity.StockLedger, p entity.StockPosting, criticalRatio decimal.Decimal) (*entity.StockLedger, error) {
	if !p.Quantity.IsPositive() {
		return nil, domain.Invalid("quantity", "debe ser positiva")
	}
	override := p.CriticalLevel.Valid && p.CriticalLevel.Decimal.IsPositive()

	if current == nil {
		critical := p.Quantity.Mul(criticalRatio).Round(domain.MaxDecimalPlaces)
		if p.CriticalLevel.Valid && !p.CriticalLevel.Decimal.IsNegative() {
			critical = p.CriticalLevel.Decimal
		}
		l := &entity.StockLedger{
			LedgerKey:       p.Key(),
			Unit:            p.Unit,
			TotalEntered:    p.Quantity,
			TotalIssued:     decimal.Zero,
			CurrentQuantity: p.Quantity,
			CriticalLevel:   critical,
			Version:         1,
			CreatedAt:       p.CreatedAt,
			UpdatedAt:       p.CreatedAt,
		}
		l.Status = DeriveStatus(l.CurrentQuantity, l.CriticalLevel)
		return l, nil
	}

	if current.Unit != p.Unit {
		return nil, fmt.Errorf("%w: kardex %s en %q, entrada en %q", domain.ErrUnitMismatch, current.LedgerKey, current.Unit, p.Unit)
	}
	next := current.Clone()
	next.TotalEntered = next.TotalEntered.Add(p.Quantity)
	next.CurrentQuantity = next.TotalEntered.Sub(next.TotalIssued)
	// nunca se resetea a cero: solo un override positivo reemplaza el nivel crítico
	if override {
		next.CriticalLevel = p.CriticalLevel.Decimal
	}
	next.Status = DeriveStatus(next.CurrentQuantity, next.CriticalLevel)
	next.Version++
	next.UpdatedAt = p.CreatedAt
	return next, nil
}

// ApplyOutput aplica una salida. Falla con *domain.AggregateNotFoundError si no hay kardex
// y con *domain.InsufficientStockError si el disponible no alcanza; en ambos casos current
// queda intacto.
func ApplyOutput(current *entity.StockLedger, p entity.StockPosting) (*entity.StockLedger, error) {
	if !p.Quantity.IsPositive() {
		return nil, domain.Invalid("quantity", "debe ser positiva")
	}
	if current == nil {
		return nil, &domain.AggregateNotFoundError{TenantID: p.TenantID, Material: p.Material, Warehouse: p.Warehouse}
	}
	if p.Unit != "" && p.Unit != current.Unit {
		return nil, fmt.Errorf("%w: kardex %s en %q, salida en %q", domain.ErrUnitMismatch, current.LedgerKey, current.Unit, p.Unit)
	}
	if current.CurrentQuantity.LessThan(p.Quantity) {
		return nil, &domain.InsufficientStockError{
			Material:  current.Material,
			Warehouse: current.Warehouse,
			Requested: p.Quantity,
			Available: current.CurrentQuantity,
		}
	}
	next := current.Clone()
	next.TotalIssued = next.TotalIssued.Add(p.Quantity)
	next.CurrentQuantity = next.TotalEntered.Sub(next.TotalIssued)
	next.Status = DeriveStatus(next.CurrentQuantity, next.CriticalLevel)
	next.Version++
	next.UpdatedAt = p.CreatedAt
	return next, nil
}

// Apply despacha según el tipo de posteo.
func Apply(current *entity.StockLedger, p entity.StockPosting, criticalRatio decimal.Decimal) (*entity.StockLedger, error) {
	switch p.Kind {
	case entity.PostingEntry:
		return ApplyEntry(current, p, criticalRatio)
	case entity.PostingOutput:
		return ApplyOutput(current, p)
	}
	return nil, domain.Invalid("kind", fmt.Sprintf("tipo de posteo desconocido %q", p.Kind))
}

// Replay reconstruye los agregados desde cero reproduciendo los posteos en orden de Seq.
// Los posteos que crean un agregado llevan su nivel crítico efectivo, así que el resultado
// no depende de criticalRatio salvo para posteos antiguos sin nivel registrado.
func Replay(postings []entity.StockPosting, criticalRatio decimal.Decimal) ([]*entity.StockLedger, error) {
	ordered := make([]entity.StockPosting, len(postings))
	copy(ordered, postings)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Seq < ordered[j].Seq })

	byKey := make(map[entity.LedgerKey]*entity.StockLedger)
	for _, p := range ordered {
		next, err := Apply(byKey[p.Key()], p, criticalRatio)
		if err != nil {
			return nil, fmt.Errorf("replay posteo %s (seq %d): %w", p.ID, p.Seq, err)
		}
		byKey[p.Key()] = next
	}

	out := make([]*entity.StockLedger, 0, len(byKey))
	for _, l := range byKey {
		out = append(out, l)
	}
	SortByWarehouseMaterial(out)
	return out, nil
}

// SortByWarehouseMaterial ordena por (bodega, material) ascendente; orden determinista
// para el MRP y los listados.
func SortByWarehouseMaterial(list []*entity.StockLedger) {
	sort.SliceStable(list, func(i, j int) bool {
		if list[i].Warehouse != list[j].Warehouse {
			return list[i].Warehouse < list[j].Warehouse
		}
		return list[i].Material < list[j].Material
	})
}
