package dto

import (
	"time"

	"github.com/jhoicas/Inventario-lotes/internal/domain/entity"
	domaininv "github.com/jhoicas/Inventario-lotes/internal/domain/inventory"
)

// StockToDTO convierte la entidad a su forma de respuesta.
func StockToDTO(s *entity.StockRecord) StockDTO {
	if s == nil {
		return StockDTO{}
	}
	return StockDTO{
		ID:                s.ID,
		ProductID:         s.ProductID,
		ProductCode:       s.ProductCode,
		LocationID:        s.LocationID,
		LocationName:      s.LocationName,
		TotalQuantity:     s.TotalQuantity,
		AvailableQuantity: s.AvailableQuantity,
		ReservedQuantity:  s.ReservedQuantity,
		MinimumLevel:      s.MinimumLevel,
		MaximumLevel:      s.MaximumLevel,
		ReorderPoint:      s.ReorderPoint,
		IsActive:          s.IsActive,
		CreatedAt:         s.CreatedAt,
		UpdatedAt:         s.UpdatedAt,
	}
}

// BatchToDTO incluye estado efectivo y urgencia calculados en now.
func BatchToDTO(b *entity.Batch, now time.Time) BatchDTO {
	if b == nil {
		return BatchDTO{}
	}
	var days *int
	if b.ExpirationDate != nil {
		d := domaininv.DaysUntil(*b.ExpirationDate, now)
		days = &d
	}
	return BatchStateToDTO(b, domaininv.EffectiveStatus(b, now), domaininv.Classify(b.ExpirationDate, now), days)
}

// BatchStateToDTO convierte un lote con estado y urgencia ya calculados.
func BatchStateToDTO(b *entity.Batch, status entity.BatchStatus, urgency domaininv.Urgency, days *int) BatchDTO {
	if b == nil {
		return BatchDTO{}
	}
	return BatchDTO{
		BatchNumber:         b.BatchNumber,
		StockID:             b.StockID,
		ProductCode:         b.ProductCode,
		Quantity:            b.Quantity,
		AvailableQuantity:   b.AvailableQuantity,
		ReservedQuantity:    b.ReservedQuantity,
		ProductionDate:      b.ProductionDate,
		ExpirationDate:      b.ExpirationDate,
		Supplier:            b.Supplier,
		Cost:                b.Cost,
		Location:            b.Location,
		Status:              string(status),
		Urgency:             string(urgency),
		DaysUntilExpiration: days,
		Metadata:            b.Metadata,
		CreatedAt:           b.CreatedAt,
		UpdatedAt:           b.UpdatedAt,
	}
}

// MovementToDTO convierte un movimiento del libro.
func MovementToDTO(m *entity.MovementRecord) MovementDTO {
	if m == nil {
		return MovementDTO{}
	}
	return MovementDTO{
		ID:          m.ID,
		Sequence:    m.Sequence,
		StockID:     m.StockID,
		BatchNumber: m.BatchNumber,
		Type:        string(m.Type),
		Quantity:    m.Quantity,
		OrderID:     m.OrderID,
		Reason:      m.Reason,
		CreatedAt:   m.CreatedAt,
		CreatedBy:   m.CreatedBy,
	}
}

// MovementsToDTO convierte una lista; nunca devuelve nil.
func MovementsToDTO(ms []*entity.MovementRecord) []MovementDTO {
	out := make([]MovementDTO, 0, len(ms))
	for _, m := range ms {
		out = append(out, MovementToDTO(m))
	}
	return out
}

// AllocationsToDTO convierte el plan de asignación.
func AllocationsToDTO(as []domaininv.Allocation) []AllocationDTO {
	out := make([]AllocationDTO, 0, len(as))
	for _, a := range as {
		out = append(out, AllocationDTO{
			BatchNumber:    a.BatchNumber,
			Quantity:       a.Quantity,
			ExpirationDate: a.ExpirationDate,
			Location:       a.Location,
		})
	}
	return out
}
