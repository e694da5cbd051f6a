package repository

import (
	"context"

	"github.com/jhoicas/Inventario-lotes/internal/domain/entity"
)

// BatchRepository puerto de persistencia de lotes. Los lotes nunca se borran.
type BatchRepository interface {
	// Get devuelve (nil, nil) si el lote no existe.
	Get(ctx context.Context, batchNumber string) (*entity.Batch, error)
	ListByStock(ctx context.Context, stockID string) ([]*entity.Batch, error)
	// ListWithExpiration lotes con fecha de vencimiento y cantidad > 0.
	ListWithExpiration(ctx context.Context) ([]*entity.Batch, error)
	Upsert(ctx context.Context, batch *entity.Batch) error
}
