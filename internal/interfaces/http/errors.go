package http

import (
	"encoding/json"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Inventario-lotes/internal/application/dto"
	"github.com/jhoicas/Inventario-lotes/internal/domain"
)

// statusByKind traduce el tipo de error de dominio a código HTTP.
var statusByKind = map[domain.Kind]int{
	domain.KindNotFound:                  fiber.StatusNotFound,
	domain.KindInvalidInput:              fiber.StatusBadRequest,
	domain.KindInvalidQuantity:           fiber.StatusBadRequest,
	domain.KindMissingCorrelation:        fiber.StatusBadRequest,
	domain.KindInsufficientStock:         fiber.StatusBadRequest,
	domain.KindInsufficientReservedStock: fiber.StatusBadRequest,
	domain.KindConflict:                  fiber.StatusConflict,
	domain.KindBusy:                      fiber.StatusServiceUnavailable,
	domain.KindInvariantViolation:        fiber.StatusInternalServerError,
	domain.KindUnauthorized:              fiber.StatusUnauthorized,
	domain.KindForbidden:                 fiber.StatusForbidden,
}

// StatusFor devuelve el código HTTP de un error; 500 si no es de dominio.
func StatusFor(err error) int {
	if status, ok := statusByKind[domain.KindOf(err)]; ok {
		return status
	}
	return fiber.StatusInternalServerError
}

// respondError escribe el cuerpo de error con los identificadores afectados.
func respondError(c *fiber.Ctx, err error) error {
	kind := domain.KindOf(err)
	ref := domain.RefOf(err)
	msg := err.Error()
	var de *domain.Error
	if errors.As(err, &de) {
		msg = de.Message
	}
	if kind == domain.KindInternal {
		msg = "error interno"
	}
	if kind == domain.KindBusy {
		c.Set(fiber.HeaderRetryAfter, "1")
	}
	return c.Status(StatusFor(err)).JSON(dto.ErrorResponse{
		Code:        string(kind),
		Message:     msg,
		StockID:     ref.StockID,
		BatchNumber: ref.BatchNumber,
		OrderID:     ref.OrderID,
		Retryable:   domain.IsRetryable(err),
	})
}

// badBody responde INVALID_QUANTITY si lo ilegible es quantity; cualquier otro fallo de parseo es INVALID_BODY.
func badBody(c *fiber.Ctx) error {
	if raw, ok := malformedQuantity(c.Body()); ok {
		ref := domain.Ref{StockID: c.Params("id"), BatchNumber: c.Params("batch")}
		return respondError(c, domain.NewError(domain.ErrInvalidQuantity, ref, "cantidad ilegible: %s", raw))
	}
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
}

// malformedQuantity indica si el campo quantity del body existe y no es un decimal.
func malformedQuantity(body []byte) (string, bool) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return "", false
	}
	raw, ok := fields["quantity"]
	if !ok {
		return "", false
	}
	var q decimal.Decimal
	if err := q.UnmarshalJSON(raw); err != nil {
		return string(raw), true
	}
	return "", false
}
