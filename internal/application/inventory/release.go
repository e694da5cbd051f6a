package inventory

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Inventario-lotes/internal/domain"
	"github.com/jhoicas/Inventario-lotes/internal/domain/entity"
)

// ReleaseInput entrada de Release.
type ReleaseInput struct {
	StockID     string
	BatchNumber string
	Quantity    decimal.Decimal
	OrderID     string
	Reason      string
	ReleasedBy  string
}

// Release devuelve cantidad reservada a disponible en el lote y en el stock.
// Liberar más de lo reservado se rechaza como InvariantViolation sin tocar nada.
func (e *AllocationEngine) Release(ctx context.Context, in ReleaseInput) (*BatchOperationResult, error) {
	ref := domain.Ref{StockID: in.StockID, BatchNumber: in.BatchNumber, OrderID: in.OrderID}
	if in.StockID == "" || in.BatchNumber == "" {
		return nil, domain.NewError(domain.ErrInvalidInput, ref, "stock_id y batch_number requeridos")
	}
	if err := validateQuantity(in.Quantity, ref); err != nil {
		return nil, err
	}
	reason := in.Reason
	if reason == "" {
		reason = "liberación de reserva"
	}

	result := &BatchOperationResult{}
	completedAt, movements, err := e.mutate(ctx, "release", in.StockID, ref, func(ctx context.Context, u *unitOfWork) error {
		stock, err := u.loadStock(ctx, ref, false)
		if err != nil {
			return err
		}
		batch, err := u.loadBatch(ctx, ref)
		if err != nil {
			return err
		}
		if batch.ReservedQuantity.LessThan(in.Quantity) || stock.ReservedQuantity.LessThan(in.Quantity) {
			return domain.NewError(domain.ErrInvariantViolation, ref,
				"liberar %s dejaría reservado negativo (lote %s, stock %s)",
				in.Quantity, batch.ReservedQuantity, stock.ReservedQuantity)
		}

		batch.ReservedQuantity = batch.ReservedQuantity.Sub(in.Quantity)
		batch.AvailableQuantity = batch.AvailableQuantity.Add(in.Quantity)
		batch.UpdatedAt = u.now
		if err := u.batches.Upsert(ctx, batch); err != nil {
			return err
		}

		stock.ReservedQuantity = stock.ReservedQuantity.Sub(in.Quantity)
		stock.AvailableQuantity = stock.AvailableQuantity.Add(in.Quantity)
		stock.UpdatedAt = u.now
		if err := u.stocks.Upsert(ctx, stock); err != nil {
			return err
		}

		if err := u.record(ctx, &entity.MovementRecord{
			StockID:     stock.ID,
			BatchNumber: batch.BatchNumber,
			Type:        entity.MovementTypeReleased,
			Quantity:    in.Quantity,
			OrderID:     in.OrderID,
			Reason:      reason,
			CreatedBy:   in.ReleasedBy,
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
