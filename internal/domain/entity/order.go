package entity

import "github.com/shopspring/decimal"

// OrderLine línea de una orden de venta abierta (colaborador externo, solo lectura).
type OrderLine struct {
	OrderID   string
	TenantID  string
	Product   string
	SKU       string
	Quantity  decimal.Decimal
	Cancelled bool
}
