package postgres

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/jhoicas/Inventario-lotes/internal/domain"
)

// isUniqueViolation verifica si un error es una violación de constraint único (23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" // unique_violation
	}
	return strings.Contains(err.Error(), "23505")
}

// isLockTimeout 55P03: lock_not_available (vence SET LOCAL lock_timeout).
func isLockTimeout(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "55P03"
}

// isCheckViolation 23514: un CHECK de la tabla rechazó la fila (cantidad negativa o descuadre).
func isCheckViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23514"
}

// translate convierte errores de PostgreSQL en errores de dominio con contexto.
func translate(err error, ref domain.Ref, op string) error {
	switch {
	case err == nil:
		return nil
	case isLockTimeout(err):
		return domain.NewError(domain.ErrBusy, ref, "%s: fila bloqueada por otra operación", op)
	case isUniqueViolation(err):
		return domain.NewError(domain.ErrConflict, ref, "%s: registro duplicado", op)
	case isCheckViolation(err):
		return domain.NewError(domain.ErrInvariantViolation, ref, "%s: %v", op, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
