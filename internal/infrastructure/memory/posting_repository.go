package memory

import (
	"context"

	"github.com/jhoicas/inventario-mrp/internal/domain/entity"
	"github.com/jhoicas/inventario-mrp/internal/domain/repository"
)

var _ repository.StockPostingRepository = (*PostingRepository)(nil)

// PostingRepository entradas y salidas en memoria; el Seq se asigna al confirmar la tx.
type PostingRepository struct {
	store *Store
	tx    *tx
}

// NewPostingRepository repositorio de lectura fuera de transacción.
func NewPostingRepository(store *Store) *PostingRepository {
	return &PostingRepository{store: store}
}

func (r *PostingRepository) Append(ctx context.Context, p *entity.StockPosting) error {
	if r.tx == nil {
		return errNoTx
	}
	r.tx.postings = append(r.tx.postings, p)
	return nil
}

func (r *PostingRepository) ListByKey(ctx context.Context, key entity.LedgerKey, limit, offset int) ([]*entity.StockPosting, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	out := make([]*entity.StockPosting, 0, limit)
	skipped := 0
	for i := len(r.store.postings) - 1; i >= 0 && len(out) < limit; i-- {
		p := r.store.postings[i]
		if p.Key() != key {
			continue
		}
		if skipped < offset {
			skipped++
			continue
		}
		cp := p
		out = append(out, &cp)
	}
	return out, nil
}

func (r *PostingRepository) ListByTenant(ctx context.Context, tenantID string) ([]entity.StockPosting, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	out := make([]entity.StockPosting, 0)
	for _, p := range r.store.postings {
		if p.TenantID == tenantID {
			out = append(out, p)
		}
	}
	return out, nil
}
