package inventory

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Inventario-lotes/internal/domain"
	"github.com/jhoicas/Inventario-lotes/internal/domain/entity"
	domaininv "github.com/jhoicas/Inventario-lotes/internal/domain/inventory"
)

// CreateBatchInput entrada de CreateBatch. BatchNumber y ProductionDate son opcionales.
type CreateBatchInput struct {
	StockID        string
	BatchNumber    string
	Quantity       decimal.Decimal
	ProductionDate *time.Time
	ExpirationDate *time.Time
	Supplier       string
	Cost           decimal.Decimal
	Location       string
	Metadata       map[string]string
	CreatedBy      string
}

// CreateBatch registra un lote de entrada: suma al total y al disponible del stock
// y agrega un movimiento INBOUND.
func (e *AllocationEngine) CreateBatch(ctx context.Context, in CreateBatchInput) (*BatchOperationResult, error) {
	ref := domain.Ref{StockID: in.StockID, BatchNumber: in.BatchNumber}
	if in.StockID == "" {
		return nil, domain.NewError(domain.ErrInvalidInput, ref, "stock_id requerido")
	}
	if err := validateQuantity(in.Quantity, ref); err != nil {
		return nil, err
	}
	if in.Cost.IsNegative() {
		return nil, domain.NewError(domain.ErrInvalidInput, ref, "el costo no puede ser negativo")
	}
	if !domaininv.FitsScale(in.Cost) {
		return nil, domain.NewError(domain.ErrInvalidInput, ref,
			"el costo admite hasta %d decimales (recibido %s)", domaininv.QuantityScale, in.Cost)
	}
	if in.ProductionDate != nil && in.ExpirationDate != nil && in.ExpirationDate.Before(*in.ProductionDate) {
		return nil, domain.NewError(domain.ErrInvalidInput, ref, "la fecha de vencimiento es anterior a la de producción")
	}

	result := &BatchOperationResult{}
	completedAt, movements, err := e.mutate(ctx, "create_batch", in.StockID, ref, func(ctx context.Context, u *unitOfWork) error {
		stock, err := u.loadStock(ctx, ref, true)
		if err != nil {
			return err
		}

		number := in.BatchNumber
		if number == "" {
			number = e.newBatchNumber(u.now)
			ref.BatchNumber = number
		}
		existing, err := u.batches.Get(ctx, number)
		if err != nil {
			return err
		}
		if existing != nil {
			return domain.NewError(domain.ErrConflict, ref, "el lote %s ya existe", number)
		}

		produced := u.now
		if in.ProductionDate != nil {
			produced = *in.ProductionDate
		}
		var expires *time.Time
		if in.ExpirationDate != nil {
			exp := *in.ExpirationDate
			expires = &exp
		}
		metadata := make(map[string]string, len(in.Metadata))
		for k, v := range in.Metadata {
			metadata[k] = v
		}

		batch := &entity.Batch{
			BatchNumber:       number,
			StockID:           stock.ID,
			ProductCode:       stock.ProductCode,
			Quantity:          in.Quantity,
			AvailableQuantity: in.Quantity,
			ReservedQuantity:  decimal.Zero,
			ProductionDate:    produced,
			ExpirationDate:    expires,
			Supplier:          in.Supplier,
			Cost:              in.Cost,
			Location:          in.Location,
			Status:            entity.BatchStatusAvailable,
			Metadata:          metadata,
			CreatedAt:         u.now,
			UpdatedAt:         u.now,
		}
		if batch.Location == "" {
			batch.Location = stock.LocationName
		}
		if err := u.batches.Upsert(ctx, batch); err != nil {
			return err
		}

		stock.TotalQuantity = stock.TotalQuantity.Add(in.Quantity)
		stock.AvailableQuantity = stock.AvailableQuantity.Add(in.Quantity)
		stock.UpdatedAt = u.now
		if err := u.stocks.Upsert(ctx, stock); err != nil {
			return err
		}

		if err := u.record(ctx, &entity.MovementRecord{
			StockID:     stock.ID,
			BatchNumber: number,
			Type:        entity.MovementTypeInbound,
			Quantity:    in.Quantity,
			Reason:      "entrada de lote",
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
