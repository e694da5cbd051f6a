package repository

import (
	"context"

	"github.com/jhoicas/Inventario-lotes/internal/domain/entity"
)

// StockFilter filtros opcionales para listar stocks.
type StockFilter struct {
	ProductID  string
	LocationID string
	ActiveOnly bool
}

// StockRepository define el puerto para consultar/actualizar StockRecord.
// Usado dentro de transacciones para garantizar consistencia.
// Get y GetByKey devuelven (nil, nil) si no existe.
type StockRepository interface {
	Get(ctx context.Context, id string) (*entity.StockRecord, error)
	// GetForUpdate bloquea el registro hasta el fin de la transacción (SELECT FOR UPDATE).
	GetForUpdate(ctx context.Context, id string) (*entity.StockRecord, error)
	GetByKey(ctx context.Context, productID, locationID string) (*entity.StockRecord, error)
	List(ctx context.Context, filter StockFilter) ([]*entity.StockRecord, error)
	Upsert(ctx context.Context, stock *entity.StockRecord) error
}
