package entity

import "github.com/shopspring/decimal"

// ShortageRow faltante de un componente para una línea de orden. Se calcula en cada
// corrida de MRP y no se persiste salvo que se convierta en documento de compra.
type ShortageRow struct {
	Material  string
	Unit      string
	Kind      ComponentKind
	Required  decimal.Decimal
	Available decimal.Decimal
	Deficit   decimal.Decimal // max(0, Required - Available)
	Product   string          // producto de origen (trazabilidad)
	OrderID   string
	UnitCost  decimal.NullDecimal
}
