// Package mrp orquesta una corrida de MRP: carga órdenes abiertas, recetas y la foto
// del kardex del tenant y calcula los faltantes.
package mrp

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-mrp/internal/domain"
	"github.com/jhoicas/inventario-mrp/internal/domain/entity"
	domainmrp "github.com/jhoicas/inventario-mrp/internal/domain/mrp"
	"github.com/jhoicas/inventario-mrp/internal/domain/repository"
)

// UseCase corrida de MRP de un solo nivel.
type UseCase struct {
	orders  repository.OrderRepository
	boms    repository.BOMRepository
	ledgers repository.StockLedgerRepository
	log     zerolog.Logger
	now     func() time.Time
}

func NewUseCase(
	orders repository.OrderRepository,
	boms repository.BOMRepository,
	ledgers repository.StockLedgerRepository,
	log zerolog.Logger,
) *UseCase {
	return &UseCase{
		orders:  orders,
		boms:    boms,
		ledgers: ledgers,
		log:     log.With().Str("component", "mrp").Logger(),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Report resultado de una corrida.
type Report struct {
	TenantID      string
	GeneratedAt   time.Time
	Rows          []entity.ShortageRow
	SkippedLines  int
	ExplodedLines int
	// EstimatedTotal suma de los costos estimados de las filas que tienen costo unitario.
	EstimatedTotal decimal.Decimal
}

// Run calcula los faltantes del tenant. Si orders es nil se leen las órdenes abiertas
// del repositorio; si no, se usan las recibidas (simulaciones).
func (uc *UseCase) Run(ctx context.Context, tenantID string, orders []entity.OrderLine) (*Report, error) {
	if strings.TrimSpace(tenantID) == "" {
		return nil, domain.ErrMissingTenant
	}

	// 1. Órdenes
	if orders == nil {
		var err error
		orders, err = uc.orders.ListOpenLines(ctx, tenantID)
		if err != nil {
			return nil, err
		}
	} else {
		// copia: las líneas del llamador no se modifican
		explicit := make([]entity.OrderLine, len(orders))
		for i, l := range orders {
			if !l.Quantity.IsPositive() {
				return nil, domain.Invalid("orders", "cantidad no positiva en la línea "+l.OrderID)
			}
			l.TenantID = tenantID
			explicit[i] = l
		}
		orders = explicit
	}

	// 2. Recetas
	boms, err := uc.boms.ListByTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	// 3. Foto del kardex (puede quedar desactualizada por clave; aceptable para planeación)
	ledgers, err := uc.ledgers.List(ctx, repository.LedgerFilter{TenantID: tenantID})
	if err != nil {
		return nil, err
	}

	res := domainmrp.ComputeShortages(orders, boms, domainmrp.NewSnapshot(ledgers))

	total := decimal.Zero
	for _, row := range res.Rows {
		if c := domainmrp.EstimatedCost(row); c.Valid {
			total = total.Add(c.Decimal)
		}
	}

	if res.SkippedLines > 0 {
		uc.log.Debug().Str("tenant_id", tenantID).Int("skipped", res.SkippedLines).Msg("líneas de orden sin BOM omitidas")
	}
	uc.log.Info().Str("tenant_id", tenantID).Int("orders", len(orders)).Int("rows", len(res.Rows)).Msg("corrida MRP")

	rows := res.Rows
	if rows == nil {
		rows = []entity.ShortageRow{}
	}
	return &Report{
		TenantID:       tenantID,
		GeneratedAt:    uc.now(),
		Rows:           rows,
		SkippedLines:   res.SkippedLines,
		ExplodedLines:  res.ExplodedLines,
		EstimatedTotal: total,
	}, nil
}
