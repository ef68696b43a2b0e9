package dto

import "github.com/shopspring/decimal"

// SuppliersRequest asignación material -> proveedor y proveedor por defecto.
type SuppliersRequest struct {
	Assignment      map[string]string `json:"assignment,omitempty"`
	DefaultSupplier string            `json:"default_supplier,omitempty"`
}

// CreateRequisitionRequest body para POST /api/procurement/requisitions.
type CreateRequisitionRequest struct {
	Rows []ShortageRowDTO `json:"rows" validate:"required,min=1,dive"`
}

// CreateRFQRequest body para POST /api/procurement/rfqs.
type CreateRFQRequest struct {
	Rows      []ShortageRowDTO `json:"rows" validate:"required,min=1,dive"`
	Suppliers SuppliersRequest `json:"suppliers"`
	// DueInDays ausente usa el plazo configurado; 0 vence hoy.
	DueInDays *int `json:"due_in_days,omitempty" validate:"omitempty,min=0,max=365"`
}

// CreatePurchaseOrdersRequest body para POST /api/procurement/purchase-orders.
type CreatePurchaseOrdersRequest struct {
	Rows      []ShortageRowDTO           `json:"rows" validate:"required,min=1,dive"`
	Suppliers SuppliersRequest           `json:"suppliers"`
	Prices    map[string]decimal.Decimal `json:"prices,omitempty"`
}

// CreateGoodsReceiptRequest body para POST /api/procurement/goods-receipts.
type CreateGoodsReceiptRequest struct {
	PurchaseOrderID string `json:"purchase_order_id" validate:"required"`
}

// UpdateStatusRequest body para PATCH /api/procurement/{kind}/{id}/status.
type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// DocumentCreatedResponse documento creado.
type DocumentCreatedResponse struct {
	ID string `json:"id"`
}

// PurchaseOrderBatchResponse resultado del lote; Failed solo aparece con 207.
type PurchaseOrderBatchResponse struct {
	DocumentIDs         []string          `json:"document_ids"`
	UnassignedMaterials []string          `json:"unassigned_materials,omitempty"`
	Failed              map[string]string `json:"failed,omitempty"`
}
