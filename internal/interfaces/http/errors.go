package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/inventario-mrp/internal/application/dto"
	"github.com/jhoicas/inventario-mrp/internal/domain"
)

// errorMapping sentinel -> status y código. El orden importa: los errores que envuelven
// varios sentinels toman el primero que coincida.
var errorMapping = []struct {
	err    error
	status int
	code   string
}{
	{domain.ErrBatchFailed, fiber.StatusInternalServerError, "BATCH_FAILED"},
	{domain.ErrMissingTenant, fiber.StatusBadRequest, "MISSING_TENANT"},
	{domain.ErrUnitMismatch, fiber.StatusBadRequest, "UNIT_MISMATCH"},
	{domain.ErrInvalidInput, fiber.StatusBadRequest, "VALIDATION"},
	{domain.ErrAggregateNotFound, fiber.StatusNotFound, "AGGREGATE_NOT_FOUND"},
	{domain.ErrNotFound, fiber.StatusNotFound, "NOT_FOUND"},
	{domain.ErrInsufficientStock, fiber.StatusConflict, "INSUFFICIENT_STOCK"},
	{domain.ErrInvalidTransition, fiber.StatusConflict, "INVALID_TRANSITION"},
	{domain.ErrNoSupplierSpecified, fiber.StatusUnprocessableEntity, "NO_SUPPLIER"},
	{domain.ErrConcurrencyConflict, fiber.StatusServiceUnavailable, "CONCURRENCY_CONFLICT"},
}

// writeError traduce un error de dominio a dto.ErrorResponse.
func writeError(c *fiber.Ctx, err error) error {
	for _, m := range errorMapping {
		if errors.Is(err, m.err) {
			return c.Status(m.status).JSON(dto.ErrorResponse{Code: m.code, Message: err.Error()})
		}
	}
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
}

func unauthorized(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
}
