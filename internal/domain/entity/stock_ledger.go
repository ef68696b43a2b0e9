package entity

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// LedgerStatus semáforo derivado del kardex.
type LedgerStatus string

const (
	LedgerStatusGreen  LedgerStatus = "green"
	LedgerStatusOrange LedgerStatus = "orange"
	LedgerStatusRed    LedgerStatus = "red"
)

// LedgerKey identifica un kardex: tenant, material y bodega (la bodega puede ser vacía).
type LedgerKey struct {
	TenantID  string
	Material  string
	Warehouse string
}

func (k LedgerKey) String() string {
	return fmt.Sprintf("%s/%s/%s", k.TenantID, k.Material, k.Warehouse)
}

// StockLedger agregado materializado de todas las entradas y salidas de una clave.
// Invariante: CurrentQuantity == TotalEntered - TotalIssued.
type StockLedger struct {
	LedgerKey
	Unit            string
	TotalEntered    decimal.Decimal
	TotalIssued     decimal.Decimal
	CurrentQuantity decimal.Decimal
	CriticalLevel   decimal.Decimal
	Status          LedgerStatus
	Version         int64 // se incrementa en cada escritura
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Clone devuelve una copia independiente (decimal es inmutable, basta copiar el struct).
func (l *StockLedger) Clone() *StockLedger {
	if l == nil {
		return nil
	}
	c := *l
	return &c
}
