package entity

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// MovementType tipo de movimiento del libro (conjunto cerrado).
type MovementType string

const (
	MovementTypeInbound    MovementType = "INBOUND"
	MovementTypeReserved   MovementType = "RESERVED"
	MovementTypeConsumed   MovementType = "CONSUMED"
	MovementTypeReleased   MovementType = "RELEASED"
	MovementTypeAdjustment MovementType = "ADJUSTMENT"
	MovementTypeExpire     MovementType = "EXPIRE"
	MovementTypeTransfer   MovementType = "TRANSFER" // entre stocks, sin operación en este motor
)

// ParseMovementType valida un tipo recibido desde fuera (query string, BD).
func ParseMovementType(s string) (MovementType, error) {
	switch t := MovementType(s); t {
	case MovementTypeInbound, MovementTypeReserved, MovementTypeConsumed, MovementTypeReleased,
		MovementTypeAdjustment, MovementTypeExpire, MovementTypeTransfer:
		return t, nil
	}
	return "", fmt.Errorf("tipo de movimiento desconocido: %q", s)
}

// QuantitySign signo con el que el movimiento afecta Batch.Quantity al reconstruir desde el libro.
// RESERVED/RELEASED solo mueven entre disponible y reservado.
func (t MovementType) QuantitySign() int {
	switch t {
	case MovementTypeInbound:
		return 1
	case MovementTypeConsumed, MovementTypeExpire:
		return -1
	}
	return 0
}

// MovementRecord entrada inmutable del libro de movimientos. Solo se agrega, nunca se edita.
type MovementRecord struct {
	ID          string
	Sequence    int64 // monotónico, asignado al confirmar
	StockID     string
	BatchNumber string
	Type        MovementType
	Quantity    decimal.Decimal // magnitud positiva del cambio
	OrderID     string
	Reason      string
	CreatedAt   time.Time
	CreatedBy   string
}

// SignedQuantity cantidad con signo para reconstruir Batch.Quantity.
func (m *MovementRecord) SignedQuantity() decimal.Decimal {
	switch m.Type.QuantitySign() {
	case 1:
		return m.Quantity
	case -1:
		return m.Quantity.Neg()
	}
	return decimal.Zero
}
