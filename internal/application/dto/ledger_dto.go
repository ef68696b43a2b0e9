package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-mrp/internal/domain/entity"
)

// PostEntryRequest body para POST /api/ledger/entries.
type PostEntryRequest struct {
	Material      string           `json:"material" validate:"required"`
	Warehouse     string           `json:"warehouse"`
	Unit          string           `json:"unit" validate:"required"`
	Quantity      decimal.Decimal  `json:"quantity" validate:"gt=0"`
	Date          *time.Time       `json:"date,omitempty"`
	CriticalLevel *decimal.Decimal `json:"critical_level,omitempty"`
}

// PostOutputRequest body para POST /api/ledger/outputs. Unit vacío = unidad del kardex.
type PostOutputRequest struct {
	Material  string          `json:"material" validate:"required"`
	Warehouse string          `json:"warehouse"`
	Unit      string          `json:"unit"`
	Quantity  decimal.Decimal `json:"quantity" validate:"gt=0"`
	Date      *time.Time      `json:"date,omitempty"`
}

// LedgerResponse estado de un kardex.
type LedgerResponse struct {
	Material        string          `json:"material"`
	Warehouse       string          `json:"warehouse"`
	Unit            string          `json:"unit"`
	TotalEntered    decimal.Decimal `json:"total_entered"`
	TotalIssued     decimal.Decimal `json:"total_issued"`
	CurrentQuantity decimal.Decimal `json:"current_quantity"`
	CriticalLevel   decimal.Decimal `json:"critical_level"`
	Status          string          `json:"status"`
	Version         int64           `json:"version"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// LedgerListResponse listado de kardex.
type LedgerListResponse struct {
	Items []LedgerResponse `json:"items"`
	Total int              `json:"total"`
}

// PostingResponse movimiento del histórico.
type PostingResponse struct {
	ID            string           `json:"id"`
	Seq           int64            `json:"seq"`
	Kind          string           `json:"kind"`
	Unit          string           `json:"unit"`
	Quantity      decimal.Decimal  `json:"quantity"`
	EmployeeID    string           `json:"employee_id,omitempty"`
	Date          time.Time        `json:"date"`
	CriticalLevel *decimal.Decimal `json:"critical_level,omitempty"`
}

// PostingListResponse página del histórico de un kardex.
type PostingListResponse struct {
	Items []PostingResponse `json:"items"`
	Page  PageResponse      `json:"page"`
}

// RebuildResponse resultado de la reconstrucción.
type RebuildResponse struct {
	Ledgers int `json:"ledgers"`
}

func ToLedgerResponse(l *entity.StockLedger) LedgerResponse {
	return LedgerResponse{
		Material:        l.Material,
		Warehouse:       l.Warehouse,
		Unit:            l.Unit,
		TotalEntered:    l.TotalEntered,
		TotalIssued:     l.TotalIssued,
		CurrentQuantity: l.CurrentQuantity,
		CriticalLevel:   l.CriticalLevel,
		Status:          string(l.Status),
		Version:         l.Version,
		UpdatedAt:       l.UpdatedAt,
	}
}

func ToPostingResponse(p *entity.StockPosting) PostingResponse {
	out := PostingResponse{
		ID:         p.ID,
		Seq:        p.Seq,
		Kind:       p.Kind,
		Unit:       p.Unit,
		Quantity:   p.Quantity,
		EmployeeID: p.EmployeeID,
		Date:       p.Date,
	}
	if p.CriticalLevel.Valid {
		cl := p.CriticalLevel.Decimal
		out.CriticalLevel = &cl
	}
	return out
}
