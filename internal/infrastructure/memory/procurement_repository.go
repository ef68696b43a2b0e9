package memory

import (
	"context"
	"fmt"

	"github.com/jhoicas/inventario-mrp/internal/domain"
	"github.com/jhoicas/inventario-mrp/internal/domain/entity"
	"github.com/jhoicas/inventario-mrp/internal/domain/repository"
)

var (
	_ repository.ProcurementRepository = (*ProcurementRepository)(nil)
	_ repository.DocumentNumberer      = (*Numberer)(nil)
)

// ProcurementRepository documentos de abastecimiento en memoria.
type ProcurementRepository struct {
	store *Store
}

func NewProcurementRepository(store *Store) *ProcurementRepository {
	return &ProcurementRepository{store: store}
}

func copyLines(lines []entity.DocumentLine) []entity.DocumentLine {
	return append([]entity.DocumentLine(nil), lines...)
}

func (r *ProcurementRepository) track(kind entity.DocumentKind, h entity.DocumentHeader) error {
	k := docKey{kind: kind, id: h.ID}
	if _, ok := r.store.statuses[k]; ok {
		return fmt.Errorf("memory: documento %s %s duplicado", kind, h.ID)
	}
	r.store.statuses[k] = docStatus{tenantID: h.TenantID, status: h.Status}
	return nil
}

func (r *ProcurementRepository) CreateRequisition(ctx context.Context, doc *entity.Requisition) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if err := r.track(entity.DocumentRequisition, doc.DocumentHeader); err != nil {
		return err
	}
	cp := *doc
	cp.Lines = copyLines(doc.Lines)
	r.store.requisitions[doc.ID] = &cp
	return nil
}

func (r *ProcurementRepository) CreateRFQ(ctx context.Context, doc *entity.RFQ) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if err := r.track(entity.DocumentRFQ, doc.DocumentHeader); err != nil {
		return err
	}
	cp := *doc
	cp.Lines = copyLines(doc.Lines)
	cp.Suppliers = append([]string(nil), doc.Suppliers...)
	r.store.rfqs[doc.ID] = &cp
	return nil
}

func (r *ProcurementRepository) CreatePurchaseOrder(ctx context.Context, doc *entity.PurchaseOrder) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if err := r.track(entity.DocumentPurchaseOrder, doc.DocumentHeader); err != nil {
		return err
	}
	cp := *doc
	cp.Lines = copyLines(doc.Lines)
	r.store.purchaseOrders[doc.ID] = &cp
	return nil
}

func (r *ProcurementRepository) CreateGoodsReceipt(ctx context.Context, doc *entity.GoodsReceipt) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if err := r.track(entity.DocumentGoodsReceipt, doc.DocumentHeader); err != nil {
		return err
	}
	cp := *doc
	r.store.receipts[doc.ID] = &cp
	return nil
}

func (r *ProcurementRepository) GetPurchaseOrder(ctx context.Context, tenantID, id string) (*entity.PurchaseOrder, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	po, ok := r.store.purchaseOrders[id]
	if !ok || po.TenantID != tenantID {
		return nil, domain.ErrNotFound
	}
	cp := *po
	cp.Lines = copyLines(po.Lines)
	cp.Status = r.store.statuses[docKey{kind: entity.DocumentPurchaseOrder, id: id}].status
	return &cp, nil
}

func (r *ProcurementRepository) GetStatus(ctx context.Context, tenantID string, kind entity.DocumentKind, id string) (entity.DocumentStatus, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	st, ok := r.store.statuses[docKey{kind: kind, id: id}]
	if !ok || st.tenantID != tenantID {
		return "", domain.ErrNotFound
	}
	return st.status, nil
}

func (r *ProcurementRepository) UpdateStatus(ctx context.Context, tenantID string, kind entity.DocumentKind, id string, from, to entity.DocumentStatus) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	k := docKey{kind: kind, id: id}
	st, ok := r.store.statuses[k]
	if !ok || st.tenantID != tenantID {
		return domain.ErrNotFound
	}
	if st.status != from {
		return fmt.Errorf("%w: %s %s está en %s, se esperaba %s", repository.ErrTxConflict, kind, id, st.status, from)
	}
	st.status = to
	r.store.statuses[k] = st
	return nil
}

// Numberer consecutivos por (tenant, tipo) en memoria.
type Numberer struct {
	store *Store
}

func NewNumberer(store *Store) *Numberer {
	return &Numberer{store: store}
}

func (n *Numberer) Next(ctx context.Context, tenantID string, kind entity.DocumentKind) (string, error) {
	n.store.mu.Lock()
	defer n.store.mu.Unlock()
	k := tenantID + ":" + string(kind)
	n.store.counters[k]++
	return kind.Number(n.store.counters[k]), nil
}
