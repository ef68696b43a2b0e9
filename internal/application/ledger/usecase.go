package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-mrp/internal/domain"
	"github.com/jhoicas/inventario-mrp/internal/domain/entity"
	domainledger "github.com/jhoicas/inventario-mrp/internal/domain/ledger"
	"github.com/jhoicas/inventario-mrp/internal/domain/repository"
)

// Config parámetros del motor de kardex.
type Config struct {
	// MaxRetries reintentos ante conflicto transaccional (además del primer intento).
	MaxRetries int
	// RetryBackoff espera base entre intentos; crece linealmente.
	RetryBackoff time.Duration
	// CriticalRatio fracción de la primera entrada usada como nivel crítico por defecto.
	CriticalRatio decimal.Decimal
}

// DefaultConfig valores por defecto.
func DefaultConfig() Config {
	return Config{
		MaxRetries:    5,
		RetryBackoff:  10 * time.Millisecond,
		CriticalRatio: domainledger.DefaultCriticalRatio,
	}
}

// UseCase registra entradas y salidas sobre el kardex materializado. Cada posteo bloquea
// solo su clave (tenant, material, bodega); posteos de claves distintas corren en paralelo.
type UseCase struct {
	tx       TxRunner
	ledgers  repository.StockLedgerRepository
	postings repository.StockPostingRepository
	cfg      Config
	log      zerolog.Logger
	now      func() time.Time
}

// NewUseCase construye el caso de uso. ledgers y postings son los repos de lectura
// fuera de transacción. Un CriticalRatio cero (Config sin inicializar) toma el valor por defecto;
// pkg/config no admite cero.
func NewUseCase(
	tx TxRunner,
	ledgers repository.StockLedgerRepository,
	postings repository.StockPostingRepository,
	cfg Config,
	log zerolog.Logger,
) *UseCase {
	if cfg.CriticalRatio.IsZero() {
		cfg.CriticalRatio = domainledger.DefaultCriticalRatio
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	return &UseCase{
		tx:       tx,
		ledgers:  ledgers,
		postings: postings,
		cfg:      cfg,
		log:      log.With().Str("component", "ledger").Logger(),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// EntryInput entrada de material a una bodega.
type EntryInput struct {
	TenantID   string
	Material   string
	Warehouse  string
	Unit       string
	Quantity   decimal.Decimal
	EmployeeID string
	Date       time.Time
	// CriticalLevel override opcional; solo un valor positivo reemplaza el nivel vigente.
	CriticalLevel *decimal.Decimal
}

// OutputInput salida de material. Unit es opcional; si viene debe coincidir con el kardex.
type OutputInput struct {
	TenantID   string
	Material   string
	Warehouse  string
	Unit       string
	Quantity   decimal.Decimal
	EmployeeID string
	Date       time.Time
}

// PostEntry persiste la entrada y actualiza el agregado en la misma transacción.
// El primer posteo de una clave crea el agregado.
func (uc *UseCase) PostEntry(ctx context.Context, in EntryInput) (*entity.StockLedger, error) {
	if err := validateCommon(in.TenantID, in.Material, in.Quantity); err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.Unit) == "" {
		return nil, domain.Invalid("unit", "es obligatoria")
	}
	if in.CriticalLevel != nil {
		if in.CriticalLevel.IsNegative() {
			return nil, domain.Invalid("critical_level", "no puede ser negativo")
		}
		if err := domain.CheckScale("critical_level", *in.CriticalLevel); err != nil {
			return nil, err
		}
	}

	posting := uc.newPosting(entity.PostingEntry, in.TenantID, in.Material, in.Warehouse, in.Unit, in.EmployeeID, in.Quantity, in.Date)
	if in.CriticalLevel != nil {
		posting.CriticalLevel = decimal.NewNullDecimal(*in.CriticalLevel)
	}

	result, err := uc.post(ctx, posting)
	if err != nil {
		return nil, err
	}
	uc.log.Debug().
		Str("tenant_id", in.TenantID).
		Str("key", posting.Key().String()).
		Str("quantity", in.Quantity.String()).
		Str("current", result.CurrentQuantity.String()).
		Str("status", string(result.Status)).
		Msg("entrada registrada")
	return result, nil
}

// PostOutput persiste la salida. Sin kardex devuelve *domain.AggregateNotFoundError;
// con disponible menor a la cantidad, *domain.InsufficientStockError. En ambos casos
// no se persiste nada.
func (uc *UseCase) PostOutput(ctx context.Context, in OutputInput) (*entity.StockLedger, error) {
	if err := validateCommon(in.TenantID, in.Material, in.Quantity); err != nil {
		return nil, err
	}

	posting := uc.newPosting(entity.PostingOutput, in.TenantID, in.Material, in.Warehouse, in.Unit, in.EmployeeID, in.Quantity, in.Date)

	result, err := uc.post(ctx, posting)
	if err != nil {
		if errors.Is(err, domain.ErrInsufficientStock) || errors.Is(err, domain.ErrAggregateNotFound) {
			uc.log.Info().Err(err).Str("key", posting.Key().String()).Msg("salida rechazada")
		}
		return nil, err
	}
	uc.log.Debug().
		Str("tenant_id", in.TenantID).
		Str("key", posting.Key().String()).
		Str("quantity", in.Quantity.String()).
		Str("current", result.CurrentQuantity.String()).
		Str("status", string(result.Status)).
		Msg("salida registrada")
	return result, nil
}

// post aplica el posteo bajo bloqueo de su clave; reintenta si la transacción choca.
func (uc *UseCase) post(ctx context.Context, posting entity.StockPosting) (*entity.StockLedger, error) {
	var result *entity.StockLedger
	err := uc.withRetry(ctx, posting.Key().String(), func(
		ledgers repository.StockLedgerRepository,
		postings repository.StockPostingRepository,
	) error {
		current, err := ledgers.GetForUpdate(ctx, posting.Key())
		if err != nil {
			return err
		}
		if posting.Kind == entity.PostingOutput && posting.Unit == "" && current != nil {
			posting.Unit = current.Unit
		}
		next, err := domainledger.Apply(current, posting, uc.cfg.CriticalRatio)
		if err != nil {
			return err
		}
		// copia por intento: Append asigna Seq
		p := posting
		if current == nil && p.Kind == entity.PostingEntry {
			// el nivel efectivo queda en el posteo para que Rebuild no dependa del ratio vigente
			p.CriticalLevel = decimal.NewNullDecimal(next.CriticalLevel)
		}
		if err := postings.Append(ctx, &p); err != nil {
			return err
		}
		if current == nil {
			err = ledgers.Insert(ctx, next)
		} else {
			err = ledgers.Update(ctx, next)
		}
		if err != nil {
			return err
		}
		result = next
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// withRetry ejecuta fn en una transacción; ante repository.ErrTxConflict reintenta hasta
// MaxRetries veces y luego devuelve domain.ErrConcurrencyConflict.
func (uc *UseCase) withRetry(ctx context.Context, scope string, fn func(
	ledgers repository.StockLedgerRepository,
	postings repository.StockPostingRepository,
) error) error {
	attempts := uc.cfg.MaxRetries + 1
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		lastErr = uc.tx.Run(ctx, fn)
		if lastErr == nil || !errors.Is(lastErr, repository.ErrTxConflict) {
			return lastErr
		}
		uc.log.Warn().Err(lastErr).Str("scope", scope).Int("attempt", attempt).Msg("conflicto transaccional, reintentando")
		if attempt == attempts {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(uc.cfg.RetryBackoff * time.Duration(attempt)):
		}
	}
	uc.log.Error().Err(lastErr).Str("scope", scope).Int("attempts", attempts).Msg("reintentos agotados")
	return fmt.Errorf("%w: %s tras %d intentos: %v", domain.ErrConcurrencyConflict, scope, attempts, lastErr)
}

// ListStatus lista el estado de los kardex del tenant ordenados por (bodega, material).
// warehouse y material son filtros opcionales.
func (uc *UseCase) ListStatus(ctx context.Context, tenantID, warehouse, material string) ([]*entity.StockLedger, error) {
	if strings.TrimSpace(tenantID) == "" {
		return nil, domain.ErrMissingTenant
	}
	list, err := uc.ledgers.List(ctx, repository.LedgerFilter{TenantID: tenantID, Warehouse: warehouse, Material: material})
	if err != nil {
		return nil, err
	}
	domainledger.SortByWarehouseMaterial(list)
	return list, nil
}

// ListPostings historial de entradas y salidas de una clave, más reciente primero.
func (uc *UseCase) ListPostings(ctx context.Context, key entity.LedgerKey, limit, offset int) ([]*entity.StockPosting, error) {
	if strings.TrimSpace(key.TenantID) == "" {
		return nil, domain.ErrMissingTenant
	}
	if strings.TrimSpace(key.Material) == "" {
		return nil, domain.Invalid("material", "es obligatorio")
	}
	if limit <= 0 {
		limit = 50
	}
	if limit > 500 {
		limit = 500
	}
	if offset < 0 {
		offset = 0
	}
	return uc.postings.ListByKey(ctx, key, limit, offset)
}

// Rebuild reconstruye todos los kardex del tenant reproduciendo sus posteos. Toma un bloqueo
// exclusivo del tenant, así que los posteos concurrentes esperan. Devuelve cuántos kardex quedaron.
func (uc *UseCase) Rebuild(ctx context.Context, tenantID string) (int, error) {
	if strings.TrimSpace(tenantID) == "" {
		return 0, domain.ErrMissingTenant
	}
	var count int
	err := uc.withRetry(ctx, "rebuild "+tenantID, func(
		ledgers repository.StockLedgerRepository,
		postings repository.StockPostingRepository,
	) error {
		if err := ledgers.LockTenant(ctx, tenantID); err != nil {
			return err
		}
		all, err := postings.ListByTenant(ctx, tenantID)
		if err != nil {
			return err
		}
		rebuilt, err := domainledger.Replay(all, uc.cfg.CriticalRatio)
		if err != nil {
			return err
		}
		if err := ledgers.ReplaceAll(ctx, tenantID, rebuilt); err != nil {
			return err
		}
		count = len(rebuilt)
		return nil
	})
	if err != nil {
		return 0, err
	}
	uc.log.Info().Str("tenant_id", tenantID).Int("ledgers", count).Msg("kardex reconstruido")
	return count, nil
}

func (uc *UseCase) newPosting(kind, tenantID, material, warehouse, unit, employeeID string, qty decimal.Decimal, date time.Time) entity.StockPosting {
	now := uc.now()
	if date.IsZero() {
		date = now
	}
	return entity.StockPosting{
		ID:         uuid.New().String(),
		TenantID:   tenantID,
		Kind:       kind,
		Material:   strings.TrimSpace(material),
		Warehouse:  strings.TrimSpace(warehouse),
		Quantity:   qty,
		Unit:       strings.TrimSpace(unit),
		EmployeeID: employeeID,
		Date:       date,
		CreatedAt:  now,
	}
}

func validateCommon(tenantID, material string, qty decimal.Decimal) error {
	if strings.TrimSpace(tenantID) == "" {
		return domain.ErrMissingTenant
	}
	if strings.TrimSpace(material) == "" {
		return domain.Invalid("material", "es obligatorio")
	}
	if !qty.IsPositive() {
		return domain.Invalid("quantity", "debe ser positiva")
	}
	return domain.CheckScale("quantity", qty)
}
