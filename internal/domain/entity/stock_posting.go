package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tipos de posteo.
const (
	PostingEntry  = "entry"  // entrada
	PostingOutput = "output" // salida
)

// StockPosting evento inmutable de movimiento de stock. Es la fuente de verdad;
// el StockLedger se reconstruye reproduciendo los posteos en orden de Seq.
type StockPosting struct {
	ID            string
	Seq           int64 // orden global de posteo, asignado por el repositorio
	TenantID      string
	Kind          string
	Material      string
	Warehouse     string
	Quantity      decimal.Decimal // siempre positiva
	Unit          string
	CriticalLevel decimal.NullDecimal // solo entradas: override explícito del nivel crítico
	EmployeeID    string
	Date          time.Time
	CreatedAt     time.Time
}

// Key devuelve la clave de kardex a la que aplica el posteo.
func (p StockPosting) Key() LedgerKey {
	return LedgerKey{TenantID: p.TenantID, Material: p.Material, Warehouse: p.Warehouse}
}
