package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// MaxDecimalPlaces escala de las columnas NUMERIC(20,6) de cantidades y niveles.
const MaxDecimalPlaces = 6

// CheckScale rechaza valores con más decimales de los que la base guarda sin redondear.
func CheckScale(field string, v decimal.Decimal) error {
	if v.Exponent() < -MaxDecimalPlaces && !v.Equal(v.Truncate(MaxDecimalPlaces)) {
		return Invalid(field, fmt.Sprintf("máximo %d decimales", MaxDecimalPlaces))
	}
	return nil
}
