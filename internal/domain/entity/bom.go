package entity

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// ComponentKind tipo de componente de una línea de BOM.
type ComponentKind string

const (
	ComponentRaw   ComponentKind = "raw"   // materia prima
	ComponentSemi  ComponentKind = "semi"  // semielaborado
	ComponentLabor ComponentKind = "labor" // mano de obra
)

// Valid indica si el tipo es conocido.
func (k ComponentKind) Valid() bool {
	switch k {
	case ComponentRaw, ComponentSemi, ComponentLabor:
		return true
	}
	return false
}

// BOMLine componente necesario para producir una unidad del producto padre.
type BOMLine struct {
	Material        string
	QuantityPerUnit decimal.Decimal
	Unit            string
	Kind            ComponentKind
	UnitCost        decimal.NullDecimal
}

// BOM receta de un producto (por nombre o SKU, con versión opcional).
// La explosión es de un solo nivel: un componente que sea a su vez producto no se expande.
type BOM struct {
	ID        string
	TenantID  string
	Product   string
	SKU       string
	Version   string
	Lines     []BOMLine
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Validate verifica la receta antes de persistirla.
func (b *BOM) Validate() error {
	if b.Product == "" && b.SKU == "" {
		return fmt.Errorf("bom: product o sku requerido")
	}
	for i, l := range b.Lines {
		if l.Material == "" {
			return fmt.Errorf("bom: línea %d sin material", i+1)
		}
		if l.Unit == "" {
			return fmt.Errorf("bom: línea %d sin unidad", i+1)
		}
		if !l.QuantityPerUnit.IsPositive() {
			return fmt.Errorf("bom: línea %d con cantidad por unidad %s, debe ser positiva", i+1, l.QuantityPerUnit.String())
		}
		if !l.Kind.Valid() {
			return fmt.Errorf("bom: línea %d con tipo desconocido %q", i+1, l.Kind)
		}
	}
	return nil
}
