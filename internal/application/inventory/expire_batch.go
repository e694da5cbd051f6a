package inventory

import (
	"context"

	"github.com/jhoicas/Inventario-lotes/internal/domain"
	"github.com/jhoicas/Inventario-lotes/internal/domain/entity"
	domaininv "github.com/jhoicas/Inventario-lotes/internal/domain/inventory"
)

// ExpireBatchInput entrada de ExpireBatch.
type ExpireBatchInput struct {
	StockID     string
	BatchNumber string
	Reason      string
	CreatedBy   string
}

// ExpireBatch da de baja el disponible de un lote vencido con un movimiento EXPIRE.
// Lo reservado queda intacto para que se consuma o libere.
func (e *AllocationEngine) ExpireBatch(ctx context.Context, in ExpireBatchInput) (*BatchOperationResult, error) {
	ref := domain.Ref{StockID: in.StockID, BatchNumber: in.BatchNumber}
	if in.StockID == "" || in.BatchNumber == "" {
		return nil, domain.NewError(domain.ErrInvalidInput, ref, "stock_id y batch_number requeridos")
	}
	reason := in.Reason
	if reason == "" {
		reason = "baja por vencimiento"
	}

	result := &BatchOperationResult{}
	completedAt, movements, err := e.mutate(ctx, "expire_batch", in.StockID, ref, func(ctx context.Context, u *unitOfWork) error {
		stock, err := u.loadStock(ctx, ref, false)
		if err != nil {
			return err
		}
		batch, err := u.loadBatch(ctx, ref)
		if err != nil {
			return err
		}
		if domaininv.Classify(batch.ExpirationDate, u.now) != domaininv.UrgencyExpired {
			return domain.NewError(domain.ErrConflict, ref, "el lote %s no está vencido", batch.BatchNumber)
		}
		qty := batch.AvailableQuantity
		if !qty.IsPositive() {
			return domain.NewError(domain.ErrConflict, ref, "el lote %s no tiene disponible para dar de baja", batch.BatchNumber)
		}

		batch.AvailableQuantity = batch.AvailableQuantity.Sub(qty)
		batch.Quantity = batch.Quantity.Sub(qty)
		batch.Status = entity.BatchStatusExpired
		if batch.Quantity.IsZero() {
			batch.Status = entity.BatchStatusDepleted
		}
		batch.UpdatedAt = u.now
		if err := u.batches.Upsert(ctx, batch); err != nil {
			return err
		}

		stock.AvailableQuantity = stock.AvailableQuantity.Sub(qty)
		stock.TotalQuantity = stock.TotalQuantity.Sub(qty)
		stock.UpdatedAt = u.now
		if err := u.stocks.Upsert(ctx, stock); err != nil {
			return err
		}

		if err := u.record(ctx, &entity.MovementRecord{
			StockID:     stock.ID,
			BatchNumber: batch.BatchNumber,
			Type:        entity.MovementTypeExpire,
			Quantity:    qty,
			Reason:      reason,
			CreatedBy:   in.CreatedBy,
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
