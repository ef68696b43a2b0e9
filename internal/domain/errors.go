package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// Errores de dominio. Los errores tipados de abajo los envuelven para que errors.Is funcione.
var (
	ErrNotFound            = errors.New("recurso no encontrado")
	ErrInvalidInput        = errors.New("entrada inválida")
	ErrMissingTenant       = errors.New("tenant requerido")
	ErrUnitMismatch        = errors.New("unidad distinta a la del kardex")
	ErrInsufficientStock   = errors.New("stock insuficiente")
	ErrAggregateNotFound   = errors.New("no existe kardex para la clave")
	ErrNoSupplierSpecified = errors.New("no se especificó proveedor")
	ErrBatchFailed         = errors.New("no se creó ningún documento del lote")
	ErrConcurrencyConflict = errors.New("conflicto de concurrencia")
	ErrInvalidTransition   = errors.New("transición de estado inválida")
)

// ValidationError indica un campo inválido; se reporta tal cual al caller.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrInvalidInput }

// Invalid construye un ValidationError.
func Invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// AggregateNotFoundError lleva la clave exacta intentada, para diagnosticar
// errores de digitación en material o bodega.
type AggregateNotFoundError struct {
	TenantID  string
	Material  string
	Warehouse string
}

func (e *AggregateNotFoundError) Error() string {
	return fmt.Sprintf("no existe kardex para material %q en bodega %q (tenant %s)", e.Material, e.Warehouse, e.TenantID)
}

func (e *AggregateNotFoundError) Unwrap() error { return ErrAggregateNotFound }

// InsufficientStockError rechazo de negocio de una salida.
type InsufficientStockError struct {
	Material  string
	Warehouse string
	Requested decimal.Decimal
	Available decimal.Decimal
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("stock insuficiente de %q en bodega %q: solicitado %s, disponible %s",
		e.Material, e.Warehouse, e.Requested.String(), e.Available.String())
}

func (e *InsufficientStockError) Unwrap() error { return ErrInsufficientStock }

// PartialBatchError resultado de un lote de órdenes de compra en el que fallaron
// uno o más proveedores. Si no se creó ninguna también envuelve ErrBatchFailed.
type PartialBatchError struct {
	Created []string         // IDs creados
	Failed  map[string]error // proveedor -> error
}

func (e *PartialBatchError) Error() string {
	suppliers := make([]string, 0, len(e.Failed))
	for s := range e.Failed {
		suppliers = append(suppliers, s)
	}
	sort.Strings(suppliers)
	parts := make([]string, 0, len(suppliers))
	for _, s := range suppliers {
		parts = append(parts, fmt.Sprintf("%s: %v", s, e.Failed[s]))
	}
	return fmt.Sprintf("lote de órdenes de compra: %d creadas, %d fallidas (%s)",
		len(e.Created), len(e.Failed), strings.Join(parts, "; "))
}

func (e *PartialBatchError) Unwrap() []error {
	errs := make([]error, 0, len(e.Failed)+1)
	if len(e.Created) == 0 {
		errs = append(errs, ErrBatchFailed)
	}
	for _, err := range e.Failed {
		errs = append(errs, err)
	}
	return errs
}
