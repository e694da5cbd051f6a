package inventory

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Inventario-lotes/internal/domain/entity"
)

// QuantityScale decimales admitidos en cantidades, niveles y costos (NUMERIC(18,4) en Postgres).
const QuantityScale = 4

// FitsScale indica si q se representa sin redondeo con QuantityScale decimales.
func FitsScale(q decimal.Decimal) bool {
	return q.Equal(q.Truncate(QuantityScale))
}

// CheckBatch verifica quantity = available + reserved y no negatividad.
func CheckBatch(b *entity.Batch) error {
	if b.AvailableQuantity.IsNegative() || b.ReservedQuantity.IsNegative() || b.Quantity.IsNegative() {
		return fmt.Errorf("lote %s con cantidad negativa (total=%s disp=%s res=%s)",
			b.BatchNumber, b.Quantity, b.AvailableQuantity, b.ReservedQuantity)
	}
	if !b.Quantity.Equal(b.AvailableQuantity.Add(b.ReservedQuantity)) {
		return fmt.Errorf("lote %s descuadrado: total=%s disp=%s res=%s",
			b.BatchNumber, b.Quantity, b.AvailableQuantity, b.ReservedQuantity)
	}
	return nil
}

// CheckStock verifica la conservación entre el stock y la suma de sus lotes.
func CheckStock(s *entity.StockRecord, batches []*entity.Batch) error {
	if s.AvailableQuantity.IsNegative() || s.ReservedQuantity.IsNegative() || s.TotalQuantity.IsNegative() {
		return fmt.Errorf("stock %s con cantidad negativa (total=%s disp=%s res=%s)",
			s.ID, s.TotalQuantity, s.AvailableQuantity, s.ReservedQuantity)
	}
	if !s.TotalQuantity.Equal(s.AvailableQuantity.Add(s.ReservedQuantity)) {
		return fmt.Errorf("stock %s descuadrado: total=%s disp=%s res=%s",
			s.ID, s.TotalQuantity, s.AvailableQuantity, s.ReservedQuantity)
	}
	total, avail, res := decimal.Zero, decimal.Zero, decimal.Zero
	for _, b := range batches {
		if err := CheckBatch(b); err != nil {
			return err
		}
		total = total.Add(b.Quantity)
		avail = avail.Add(b.AvailableQuantity)
		res = res.Add(b.ReservedQuantity)
	}
	if !total.Equal(s.TotalQuantity) || !avail.Equal(s.AvailableQuantity) || !res.Equal(s.ReservedQuantity) {
		return fmt.Errorf("stock %s no coincide con sus lotes: stock(%s/%s/%s) lotes(%s/%s/%s)",
			s.ID, s.TotalQuantity, s.AvailableQuantity, s.ReservedQuantity, total, avail, res)
	}
	return nil
}

// ReplayQuantity reconstruye Batch.Quantity sumando los movimientos con signo.
func ReplayQuantity(movements []*entity.MovementRecord) decimal.Decimal {
	q := decimal.Zero
	for _, m := range movements {
		q = q.Add(m.SignedQuantity())
	}
	return q
}
