package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// StockRecord representa el inventario total de un producto en una ubicación.
// Clave natural: (ProductID, LocationID). Es dueño exclusivo de sus lotes.
//
// Invariante: TotalQuantity = AvailableQuantity + ReservedQuantity, y cada campo
// coincide con la suma del campo homónimo de sus lotes.
type StockRecord struct {
	ID                string
	ProductID         string
	ProductCode       string
	LocationID        string
	LocationName      string
	TotalQuantity     decimal.Decimal
	AvailableQuantity decimal.Decimal
	ReservedQuantity  decimal.Decimal
	MinimumLevel      decimal.Decimal
	MaximumLevel      decimal.Decimal
	ReorderPoint      decimal.Decimal
	IsActive          bool
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// BelowReorderPoint indica si el disponible cayó al punto de reorden o por debajo.
func (s *StockRecord) BelowReorderPoint() bool {
	return s.ReorderPoint.GreaterThan(decimal.Zero) && s.AvailableQuantity.LessThanOrEqual(s.ReorderPoint)
}

// Clone devuelve una copia independiente.
func (s *StockRecord) Clone() *StockRecord {
	c := *s
	return &c
}
