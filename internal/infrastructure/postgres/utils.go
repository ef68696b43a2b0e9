package postgres

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/jhoicas/inventario-mrp/internal/domain/repository"
)

// Códigos SQLSTATE que justifican reintentar la transacción.
const (
	codeUniqueViolation      = "23505"
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
)

// isUniqueViolation verifica si un error es una violación de constraint único (23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == codeUniqueViolation
	}
	return strings.Contains(err.Error(), codeUniqueViolation)
}

// isRetryable serialización, deadlock o inserción concurrente.
func isRetryable(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	switch pgErr.Code {
	case codeUniqueViolation, codeSerializationFailure, codeDeadlockDetected:
		return true
	}
	return false
}

// classify envuelve con repository.ErrTxConflict los errores reintentables.
func classify(err error) error {
	if err == nil || errors.Is(err, repository.ErrTxConflict) {
		return err
	}
	if isRetryable(err) {
		return fmt.Errorf("%w: %v", repository.ErrTxConflict, err)
	}
	return err
}
