package inventory

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Inventario-lotes/internal/domain"
	"github.com/jhoicas/Inventario-lotes/internal/domain/entity"
	domaininv "github.com/jhoicas/Inventario-lotes/internal/domain/inventory"
)

// ReserveInput entrada de Reserve. OrderID es obligatorio.
type ReserveInput struct {
	StockID    string
	Quantity   decimal.Decimal
	OrderID    string
	PreferFEFO bool
	ReservedBy string
}

// ReservationResult plan de asignación confirmado. Allocations mantiene el orden en que se tomaron los lotes.
type ReservationResult struct {
	StockID     string
	OrderID     string
	Policy      domaininv.Policy
	Allocations []domaininv.Allocation
	Stock       *entity.StockRecord
	Movements   []*entity.MovementRecord
	CompletedAt time.Time
}

// validateQuantity exige cantidad estrictamente positiva y a lo sumo QuantityScale decimales.
func validateQuantity(q decimal.Decimal, ref domain.Ref) error {
	if !q.IsPositive() {
		return domain.NewError(domain.ErrInvalidQuantity, ref, "la cantidad debe ser mayor que cero (recibido %s)", q)
	}
	if !domaininv.FitsScale(q) {
		return domain.NewError(domain.ErrInvalidQuantity, ref,
			"la cantidad admite hasta %d decimales (recibido %s)", domaininv.QuantityScale, q)
	}
	return nil
}

// Reserve reserva quantity del stock tomando lotes en orden FEFO o FIFO.
// Todo o nada: si no alcanza, no se modifica ningún lote.
func (e *AllocationEngine) Reserve(ctx context.Context, in ReserveInput) (*ReservationResult, error) {
	ref := domain.Ref{StockID: in.StockID, OrderID: in.OrderID}
	if in.StockID == "" {
		return nil, domain.NewError(domain.ErrInvalidInput, ref, "stock_id requerido")
	}
	if err := validateQuantity(in.Quantity, ref); err != nil {
		return nil, err
	}
	if in.OrderID == "" {
		return nil, domain.NewError(domain.ErrMissingCorrelation, ref, "order_id requerido para reservar")
	}

	policy := domaininv.PolicyFor(in.PreferFEFO)
	result := &ReservationResult{StockID: in.StockID, OrderID: in.OrderID, Policy: policy}

	completedAt, movements, err := e.mutate(ctx, "reserve", in.StockID, ref, func(ctx context.Context, u *unitOfWork) error {
		stock, err := u.loadStock(ctx, ref, true)
		if err != nil {
			return err
		}
		if stock.AvailableQuantity.LessThan(in.Quantity) {
			return domain.NewError(domain.ErrInsufficientStock, ref,
				"disponible %s menor que lo solicitado %s", stock.AvailableQuantity, in.Quantity)
		}

		batches, err := u.batches.ListByStock(ctx, stock.ID)
		if err != nil {
			return err
		}
		candidates := make([]*entity.Batch, 0, len(batches))
		for _, b := range batches {
			if domaininv.Allocatable(b, u.now) {
				candidates = append(candidates, b)
			}
		}
		domaininv.SortForAllocation(candidates, policy)

		plan, remaining := domaininv.PlanAllocation(candidates, in.Quantity)
		if remaining.IsPositive() {
			// El disponible del stock incluye lotes vencidos que no se pueden asignar.
			return domain.NewError(domain.ErrInsufficientStock, ref,
				"lotes asignables insuficientes: faltan %s de %s", remaining, in.Quantity)
		}

		byNumber := make(map[string]*entity.Batch, len(candidates))
		for _, b := range candidates {
			byNumber[b.BatchNumber] = b
		}
		for _, a := range plan {
			b := byNumber[a.BatchNumber]
			b.AvailableQuantity = b.AvailableQuantity.Sub(a.Quantity)
			b.ReservedQuantity = b.ReservedQuantity.Add(a.Quantity)
			b.UpdatedAt = u.now
			if err := u.batches.Upsert(ctx, b); err != nil {
				return err
			}
			if err := u.record(ctx, &entity.MovementRecord{
				StockID:     stock.ID,
				BatchNumber: b.BatchNumber,
				Type:        entity.MovementTypeReserved,
				Quantity:    a.Quantity,
				OrderID:     in.OrderID,
				Reason:      "reserva " + string(policy),
				CreatedBy:   in.ReservedBy,
			}); err != nil {
				return err
			}
		}

		stock.AvailableQuantity = stock.AvailableQuantity.Sub(in.Quantity)
		stock.ReservedQuantity = stock.ReservedQuantity.Add(in.Quantity)
		stock.UpdatedAt = u.now
		if err := u.stocks.Upsert(ctx, stock); err != nil {
			return err
		}
		if err := u.verify(ctx, stock, ref); err != nil {
			return err
		}

		result.Allocations = plan
		result.Stock = stock
		return nil
	})
	if err != nil {
		return nil, err
	}
	result.Movements = movements
	result.CompletedAt = completedAt
	return result, nil
}
