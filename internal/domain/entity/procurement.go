package entity

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// DocumentKind tipo de documento de abastecimiento.
type DocumentKind string

const (
	DocumentRequisition   DocumentKind = "requisition"
	DocumentRFQ           DocumentKind = "rfq"
	DocumentPurchaseOrder DocumentKind = "purchase_order"
	DocumentGoodsReceipt  DocumentKind = "goods_receipt"
)

// Prefix prefijo del número de documento (REQ-000001, PO-000001...).
func (k DocumentKind) Prefix() string {
	switch k {
	case DocumentRequisition:
		return "REQ"
	case DocumentRFQ:
		return "RFQ"
	case DocumentPurchaseOrder:
		return "PO"
	case DocumentGoodsReceipt:
		return "GR"
	}
	return "DOC"
}

// Number formatea el consecutivo n del tipo (PO-000042).
func (k DocumentKind) Number(n int64) string {
	return fmt.Sprintf("%s-%06d", k.Prefix(), n)
}

// DocumentStatus estado de un documento. Las transiciones las dispara el caller.
type DocumentStatus string

const (
	StatusDraft    DocumentStatus = "draft"
	StatusApproved DocumentStatus = "approved"
	StatusRejected DocumentStatus = "rejected"

	StatusOpen DocumentStatus = "open" // RFQ

	StatusPending  DocumentStatus = "pending"
	StatusIssued   DocumentStatus = "issued"
	StatusReceived DocumentStatus = "received"
	StatusBilled   DocumentStatus = "billed"
	StatusClosed   DocumentStatus = "closed"

	StatusAccepted DocumentStatus = "accepted"
)

// transitions estados destino permitidos por tipo y estado origen.
var transitions = map[DocumentKind]map[DocumentStatus][]DocumentStatus{
	DocumentRequisition: {
		StatusDraft: {StatusApproved, StatusRejected},
	},
	DocumentPurchaseOrder: {
		StatusPending:  {StatusIssued},
		StatusIssued:   {StatusReceived},
		StatusReceived: {StatusBilled},
		StatusBilled:   {StatusClosed},
	},
	DocumentGoodsReceipt: {
		StatusPending: {StatusAccepted, StatusRejected},
	},
}

// CanTransition indica si el documento puede pasar de from a to.
// Los RFQ no tienen transiciones.
func CanTransition(kind DocumentKind, from, to DocumentStatus) bool {
	for _, s := range transitions[kind][from] {
		if s == to {
			return true
		}
	}
	return false
}

// DocumentLine línea copiada de un ShortageRow.
type DocumentLine struct {
	Material  string
	Unit      string
	Quantity  decimal.Decimal
	UnitPrice decimal.Decimal
	Amount    decimal.Decimal // Quantity * UnitPrice
	Product   string
	OrderID   string
}

// DocumentHeader campos comunes a todos los documentos.
type DocumentHeader struct {
	ID        string
	TenantID  string
	Number    string
	Date      time.Time
	Status    DocumentStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Requisition solicitud de compra interna.
type Requisition struct {
	DocumentHeader
	Lines []DocumentLine
}

// RFQ solicitud de cotización dirigida a uno o varios proveedores.
type RFQ struct {
	DocumentHeader
	Suppliers []string
	DueDate   time.Time
	Lines     []DocumentLine
}

// PurchaseOrder orden de compra a un único proveedor.
type PurchaseOrder struct {
	DocumentHeader
	Supplier string
	Total    decimal.Decimal
	Lines    []DocumentLine
}

// RecomputeTotal recalcula el importe de cada línea y el total de la orden.
func (po *PurchaseOrder) RecomputeTotal() {
	total := decimal.Zero
	for i := range po.Lines {
		po.Lines[i].Amount = po.Lines[i].Quantity.Mul(po.Lines[i].UnitPrice)
		total = total.Add(po.Lines[i].Amount)
	}
	po.Total = total
}

// GoodsReceipt recepción de mercancía contra una orden de compra.
type GoodsReceipt struct {
	DocumentHeader
	PurchaseOrderID string
}
