package inventory

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Inventario-lotes/internal/domain"
	"github.com/jhoicas/Inventario-lotes/internal/domain/entity"
)

// ConsumeInput entrada de Consume.
type ConsumeInput struct {
	StockID     string
	BatchNumber string
	Quantity    decimal.Decimal
	OrderID     string
	ConsumedBy  string
}

// BatchOperationResult resultado de una operación sobre un único lote.
type BatchOperationResult struct {
	Batch       *entity.Batch
	Stock       *entity.StockRecord
	Movement    *entity.MovementRecord
	CompletedAt time.Time
}

// Consume descuenta en forma permanente cantidad previamente reservada de un lote.
// Si el lote queda en cero pasa a DEPLETED.
func (e *AllocationEngine) Consume(ctx context.Context, in ConsumeInput) (*BatchOperationResult, error) {
	ref := domain.Ref{StockID: in.StockID, BatchNumber: in.BatchNumber, OrderID: in.OrderID}
	if in.StockID == "" || in.BatchNumber == "" {
		return nil, domain.NewError(domain.ErrInvalidInput, ref, "stock_id y batch_number requeridos")
	}
	if err := validateQuantity(in.Quantity, ref); err != nil {
		return nil, err
	}

	result := &BatchOperationResult{}
	completedAt, movements, err := e.mutate(ctx, "consume", in.StockID, ref, func(ctx context.Context, u *unitOfWork) error {
		stock, err := u.loadStock(ctx, ref, false)
		if err != nil {
			return err
		}
		batch, err := u.loadBatch(ctx, ref)
		if err != nil {
			return err
		}
		if batch.ReservedQuantity.LessThan(in.Quantity) {
			return domain.NewError(domain.ErrInsufficientReservedStock, ref,
				"reservado en lote %s es %s, se pidió consumir %s", batch.BatchNumber, batch.ReservedQuantity, in.Quantity)
		}
		if stock.ReservedQuantity.LessThan(in.Quantity) {
			return domain.NewError(domain.ErrInvariantViolation, ref,
				"reservado del stock %s menor que el del lote", stock.ReservedQuantity)
		}

		batch.ReservedQuantity = batch.ReservedQuantity.Sub(in.Quantity)
		batch.Quantity = batch.Quantity.Sub(in.Quantity)
		if batch.Quantity.IsZero() {
			batch.Status = entity.BatchStatusDepleted
		}
		batch.UpdatedAt = u.now
		if err := u.batches.Upsert(ctx, batch); err != nil {
			return err
		}

		stock.ReservedQuantity = stock.ReservedQuantity.Sub(in.Quantity)
		stock.TotalQuantity = stock.TotalQuantity.Sub(in.Quantity)
		stock.UpdatedAt = u.now
		if err := u.stocks.Upsert(ctx, stock); err != nil {
			return err
		}

		if err := u.record(ctx, &entity.MovementRecord{
			StockID:     stock.ID,
			BatchNumber: batch.BatchNumber,
			Type:        entity.MovementTypeConsumed,
			Quantity:    in.Quantity,
			OrderID:     in.OrderID,
			Reason:      "consumo",
			CreatedBy:   in.ConsumedBy,
		}); err != nil {
			return err
		}
		if err := u.verify(ctx, stock, ref); err != nil {
			return err
		}
		result.Batch, result.Stock = batch, stock
		return nil
	})
	if err != nil {
		return nil, err
	}
	result.Movement = movements[0]
	result.CompletedAt = completedAt
	return result, nil
}
