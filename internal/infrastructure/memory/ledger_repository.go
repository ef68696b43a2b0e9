package memory

import (
	"context"
	"fmt"

	"github.com/jhoicas/inventario-mrp/internal/domain/entity"
	"github.com/jhoicas/inventario-mrp/internal/domain/ledger"
	"github.com/jhoicas/inventario-mrp/internal/domain/repository"
)

var _ repository.StockLedgerRepository = (*LedgerRepository)(nil)

// LedgerRepository kardex en memoria. Sin tx solo admite lecturas.
type LedgerRepository struct {
	store *Store
	tx    *tx
}

// NewLedgerRepository repositorio de lectura fuera de transacción.
func NewLedgerRepository(store *Store) *LedgerRepository {
	return &LedgerRepository{store: store}
}

func (r *LedgerRepository) GetForUpdate(ctx context.Context, key entity.LedgerKey) (*entity.StockLedger, error) {
	if r.tx == nil {
		return nil, errNoTx
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.tx.lockKey(key)
	if l, ok := r.tx.staged[key]; ok {
		return l.Clone(), nil
	}
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	if l, ok := r.store.ledgers[key]; ok {
		return l.Clone(), nil
	}
	return nil, nil
}

func (r *LedgerRepository) Insert(ctx context.Context, l *entity.StockLedger) error {
	if r.tx == nil || !r.tx.locked[l.LedgerKey] {
		return errNoTx
	}
	r.store.mu.RLock()
	_, exists := r.store.ledgers[l.LedgerKey]
	r.store.mu.RUnlock()
	if exists || r.tx.inserted[l.LedgerKey] {
		return fmt.Errorf("%w: kardex %s ya existe", repository.ErrTxConflict, l.LedgerKey)
	}
	r.tx.inserted[l.LedgerKey] = true
	r.tx.staged[l.LedgerKey] = l.Clone()
	return nil
}

func (r *LedgerRepository) Update(ctx context.Context, l *entity.StockLedger) error {
	if r.tx == nil || !r.tx.locked[l.LedgerKey] {
		return errNoTx
	}
	r.tx.staged[l.LedgerKey] = l.Clone()
	return nil
}

func (r *LedgerRepository) List(ctx context.Context, filter repository.LedgerFilter) ([]*entity.StockLedger, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	out := make([]*entity.StockLedger, 0)
	for k, l := range r.store.ledgers {
		if k.TenantID != filter.TenantID {
			continue
		}
		if filter.Warehouse != "" && k.Warehouse != filter.Warehouse {
			continue
		}
		if filter.Material != "" && k.Material != filter.Material {
			continue
		}
		out = append(out, l.Clone())
	}
	ledger.SortByWarehouseMaterial(out)
	return out, nil
}

func (r *LedgerRepository) LockTenant(ctx context.Context, tenantID string) error {
	if r.tx == nil {
		return errNoTx
	}
	return r.tx.lockTenant(tenantID)
}

func (r *LedgerRepository) ReplaceAll(ctx context.Context, tenantID string, ledgers []*entity.StockLedger) error {
	if r.tx == nil || !r.tx.exclusive[tenantID] {
		return errNoTx
	}
	list := make([]*entity.StockLedger, 0, len(ledgers))
	for _, l := range ledgers {
		if l.TenantID != tenantID {
			return fmt.Errorf("memory: kardex %s no pertenece al tenant %s", l.LedgerKey, tenantID)
		}
		list = append(list, l.Clone())
	}
	r.tx.replaced[tenantID] = list
	return nil
}
