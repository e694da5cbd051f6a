package domain

import (
	"errors"
	"fmt"
)

// Errores de dominio (sin dependencias externas).
// Cada sentinel corresponde a un tipo (Kind) que la capa HTTP traduce a un código de estado.
var (
	ErrNotFound                  = errors.New("recurso no encontrado")
	ErrInvalidInput              = errors.New("entrada inválida")
	ErrInvalidQuantity           = errors.New("cantidad inválida")
	ErrInsufficientStock         = errors.New("stock insuficiente")
	ErrInsufficientReservedStock = errors.New("stock reservado insuficiente")
	ErrMissingCorrelation        = errors.New("orden de referencia requerida")
	ErrBusy                      = errors.New("stock ocupado, reintente")
	ErrInvariantViolation        = errors.New("violación de invariante")
	ErrConflict                  = errors.New("conflicto con el estado actual")
	ErrUnauthorized              = errors.New("no autorizado")
	ErrForbidden                 = errors.New("acceso denegado")
)

// Kind clasifica un error de dominio; es lo que ve el llamador.
type Kind string

const (
	KindNotFound                  Kind = "NOT_FOUND"
	KindInvalidInput              Kind = "INVALID_INPUT"
	KindInvalidQuantity           Kind = "INVALID_QUANTITY"
	KindInsufficientStock         Kind = "INSUFFICIENT_STOCK"
	KindInsufficientReservedStock Kind = "INSUFFICIENT_RESERVED_STOCK"
	KindMissingCorrelation        Kind = "MISSING_CORRELATION"
	KindBusy                      Kind = "BUSY"
	KindInvariantViolation        Kind = "INVARIANT_VIOLATION"
	KindConflict                  Kind = "CONFLICT"
	KindUnauthorized              Kind = "UNAUTHORIZED"
	KindForbidden                 Kind = "FORBIDDEN"
	KindInternal                  Kind = "INTERNAL"
)

var kindBySentinel = map[error]Kind{
	ErrNotFound:                  KindNotFound,
	ErrInvalidInput:              KindInvalidInput,
	ErrInvalidQuantity:           KindInvalidQuantity,
	ErrInsufficientStock:         KindInsufficientStock,
	ErrInsufficientReservedStock: KindInsufficientReservedStock,
	ErrMissingCorrelation:        KindMissingCorrelation,
	ErrBusy:                      KindBusy,
	ErrInvariantViolation:        KindInvariantViolation,
	ErrConflict:                  KindConflict,
	ErrUnauthorized:              KindUnauthorized,
	ErrForbidden:                 KindForbidden,
}

// Ref identifica los recursos afectados por un error.
type Ref struct {
	StockID     string
	BatchNumber string
	OrderID     string
}

// Error es el error estructurado que cruza la frontera del motor: tipo + mensaje + identificadores.
type Error struct {
	Kind    Kind
	Message string
	Ref     Ref
	cause   error
}

// NewError construye un *Error a partir de un sentinel. El Kind se deriva del sentinel.
func NewError(sentinel error, ref Ref, format string, args ...any) *Error {
	kind, ok := kindBySentinel[sentinel]
	if !ok {
		kind = KindInternal
	}
	return &Error{
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
		Ref:     ref,
		cause:   sentinel,
	}
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap permite errors.Is(err, domain.ErrNotFound), etc.
func (e *Error) Unwrap() error { return e.cause }

// KindOf devuelve el Kind de cualquier error: *Error, sentinel envuelto, o INTERNAL.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	for sentinel, kind := range kindBySentinel {
		if errors.Is(err, sentinel) {
			return kind
		}
	}
	return KindInternal
}

// RefOf devuelve los identificadores afectados, vacío si el error no los trae.
func RefOf(err error) Ref {
	var de *Error
	if errors.As(err, &de) {
		return de.Ref
	}
	return Ref{}
}

// IsRetryable indica si el llamador puede reintentar (con backoff). Solo Busy lo es.
func IsRetryable(err error) bool {
	return KindOf(err) == KindBusy
}
