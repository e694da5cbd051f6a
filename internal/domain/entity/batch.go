package entity

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// BatchStatus estado de un lote. Conjunto cerrado: usar las constantes.
type BatchStatus string

const (
	BatchStatusAvailable    BatchStatus = "AVAILABLE"
	BatchStatusExpiringSoon BatchStatus = "EXPIRING_SOON"
	BatchStatusExpired      BatchStatus = "EXPIRED"
	BatchStatusDepleted     BatchStatus = "DEPLETED"
)

// Valid reporta si s es uno de los estados conocidos.
func (s BatchStatus) Valid() bool {
	switch s {
	case BatchStatusAvailable, BatchStatusExpiringSoon, BatchStatusExpired, BatchStatusDepleted:
		return true
	}
	return false
}

// ParseBatchStatus convierte el valor persistido al tipo cerrado.
func ParseBatchStatus(s string) (BatchStatus, error) {
	st := BatchStatus(s)
	if !st.Valid() {
		return "", fmt.Errorf("estado de lote desconocido: %q", s)
	}
	return st, nil
}

// Batch representa un lote de producción de un producto, perteneciente a un único StockRecord.
//
// Invariante: Quantity = AvailableQuantity + ReservedQuantity, todos >= 0.
// Status persistido solo toma AVAILABLE, EXPIRED (tras baja explícita) o DEPLETED;
// EXPIRING_SOON se calcula al leer (ver inventory.EffectiveStatus).
type Batch struct {
	BatchNumber       string
	StockID           string
	ProductCode       string
	Quantity          decimal.Decimal
	AvailableQuantity decimal.Decimal
	ReservedQuantity  decimal.Decimal
	ProductionDate    time.Time
	ExpirationDate    *time.Time
	Supplier          string
	Cost              decimal.Decimal
	Location          string
	Status            BatchStatus
	Metadata          map[string]string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Clone devuelve una copia profunda (fecha de vencimiento y metadata incluidas).
func (b *Batch) Clone() *Batch {
	c := *b
	if b.ExpirationDate != nil {
		exp := *b.ExpirationDate
		c.ExpirationDate = &exp
	}
	if b.Metadata != nil {
		c.Metadata = make(map[string]string, len(b.Metadata))
		for k, v := range b.Metadata {
			c.Metadata[k] = v
		}
	}
	return &c
}

// IsDepleted indica que el lote ya no tiene cantidad.
func (b *Batch) IsDepleted() bool {
	return b.Status == BatchStatusDepleted || b.Quantity.IsZero()
}
