package memory

import (
	"context"
	"sort"

	"github.com/jhoicas/inventario-mrp/internal/domain"
	"github.com/jhoicas/inventario-mrp/internal/domain/entity"
	"github.com/jhoicas/inventario-mrp/internal/domain/repository"
)

var (
	_ repository.BOMRepository   = (*BOMRepository)(nil)
	_ repository.OrderRepository = (*OrderRepository)(nil)
)

// BOMRepository catálogo de recetas en memoria.
type BOMRepository struct {
	store *Store
}

func NewBOMRepository(store *Store) *BOMRepository {
	return &BOMRepository{store: store}
}

func cloneBOM(b *entity.BOM) *entity.BOM {
	cp := *b
	cp.Lines = append([]entity.BOMLine(nil), b.Lines...)
	return &cp
}

func (r *BOMRepository) Save(ctx context.Context, bom *entity.BOM) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	k := bomKey{tenantID: bom.TenantID, product: bom.Product, version: bom.Version}
	if prev, ok := r.store.boms[k]; ok {
		bom.ID = prev.ID
		bom.CreatedAt = prev.CreatedAt
	}
	r.store.boms[k] = cloneBOM(bom)
	return nil
}

func (r *BOMRepository) Get(ctx context.Context, tenantID, product, version string) (*entity.BOM, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	b, ok := r.store.boms[bomKey{tenantID: tenantID, product: product, version: version}]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return cloneBOM(b), nil
}

func (r *BOMRepository) ListByTenant(ctx context.Context, tenantID string) ([]*entity.BOM, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	out := make([]*entity.BOM, 0)
	for k, b := range r.store.boms {
		if k.tenantID == tenantID {
			out = append(out, cloneBOM(b))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Product != out[j].Product {
			return out[i].Product < out[j].Product
		}
		return out[i].Version < out[j].Version
	})
	return out, nil
}

// OrderRepository órdenes de venta en memoria; en producción las escribe el módulo de ventas.
type OrderRepository struct {
	store *Store
}

func NewOrderRepository(store *Store) *OrderRepository {
	return &OrderRepository{store: store}
}

// AddLines carga líneas de orden (seed local y tests).
func (r *OrderRepository) AddLines(tenantID string, lines ...entity.OrderLine) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, l := range lines {
		l.TenantID = tenantID
		r.store.orders[tenantID] = append(r.store.orders[tenantID], l)
	}
}

func (r *OrderRepository) ListOpenLines(ctx context.Context, tenantID string) ([]entity.OrderLine, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	out := make([]entity.OrderLine, 0)
	for _, l := range r.store.orders[tenantID] {
		if l.Cancelled || !l.Quantity.IsPositive() {
			continue
		}
		out = append(out, l)
	}
	return out, nil
}
