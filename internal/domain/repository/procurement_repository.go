package repository

import (
	"context"

	"github.com/jhoicas/inventario-mrp/internal/domain/entity"
)

// ProcurementRepository puerto de los documentos de abastecimiento.
// Cada Create persiste cabecera y líneas de forma atómica e independiente.
type ProcurementRepository interface {
	CreateRequisition(ctx context.Context, doc *entity.Requisition) error
	CreateRFQ(ctx context.Context, doc *entity.RFQ) error
	CreatePurchaseOrder(ctx context.Context, doc *entity.PurchaseOrder) error
	CreateGoodsReceipt(ctx context.Context, doc *entity.GoodsReceipt) error
	GetPurchaseOrder(ctx context.Context, tenantID, id string) (*entity.PurchaseOrder, error)
	// GetStatus devuelve domain.ErrNotFound si el documento no existe en el tenant.
	GetStatus(ctx context.Context, tenantID string, kind entity.DocumentKind, id string) (entity.DocumentStatus, error)
	// UpdateStatus compare-and-set: solo actualiza si el estado actual es from.
	// Devuelve ErrTxConflict si otro caller cambió el estado en medio.
	UpdateStatus(ctx context.Context, tenantID string, kind entity.DocumentKind, id string, from, to entity.DocumentStatus) error
}

// DocumentNumberer asigna números consecutivos por tenant y tipo de documento.
type DocumentNumberer interface {
	Next(ctx context.Context, tenantID string, kind entity.DocumentKind) (string, error)
}
