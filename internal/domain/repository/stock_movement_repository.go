package repository

import (
	"context"

	"github.com/jhoicas/Inventario-lotes/internal/domain/entity"
)

// MovementFilter filtros del historial. Campos vacíos no filtran.
type MovementFilter struct {
	StockID     string
	BatchNumber string
	Type        entity.MovementType
	Limit       int
	Offset      int
}

// MovementRepository puerto del libro de movimientos: solo agregar y leer.
type MovementRepository interface {
	// Append agrega un movimiento; Sequence queda asignado tras el commit.
	Append(ctx context.Context, movement *entity.MovementRecord) error
	// List devuelve los movimientos filtrados, CreatedAt descendente (más reciente primero).
	List(ctx context.Context, filter MovementFilter) ([]*entity.MovementRecord, int, error)
	// ListByBatch devuelve los movimientos del lote en orden de secuencia ascendente.
	ListByBatch(ctx context.Context, batchNumber string) ([]*entity.MovementRecord, error)
	// ListByStock devuelve los movimientos de todos los lotes del stock en orden de secuencia ascendente.
	ListByStock(ctx context.Context, stockID string) ([]*entity.MovementRecord, error)
}
