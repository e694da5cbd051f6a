package inventory

import (
	"context"

	"github.com/jhoicas/Inventario-lotes/internal/domain/entity"
	"github.com/jhoicas/Inventario-lotes/internal/domain/repository"
)

// TxFunc recibe repositorios atados a una misma transacción.
type TxFunc func(
	stockRepo repository.StockRepository,
	batchRepo repository.BatchRepository,
	movRepo repository.MovementRepository,
) error

// TxRunner ejecuta una función dentro de una transacción, pasando repositorios atados a esa tx.
// Run aplica todo o nada: lotes, totales del stock y movimientos se confirman juntos.
// View ofrece una foto consistente de solo lectura (nunca se observa una mutación a medias).
type TxRunner interface {
	Run(ctx context.Context, fn TxFunc) error
	View(ctx context.Context, fn TxFunc) error
}

// StockLocker garantiza a lo sumo una mutación concurrente por clave (stockID).
// Lock respeta el deadline de ctx y devuelve un error que envuelve domain.ErrBusy al vencer.
type StockLocker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

// MovementPublisher difunde los movimientos ya confirmados (bus de eventos).
// Un fallo al publicar no deshace la operación.
type MovementPublisher interface {
	Publish(ctx context.Context, movements []*entity.MovementRecord) error
}

type noopPublisher struct{}

func (noopPublisher) Publish(context.Context, []*entity.MovementRecord) error { return nil }
