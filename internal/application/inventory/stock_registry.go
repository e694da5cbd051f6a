package inventory

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Inventario-lotes/internal/domain"
	"github.com/jhoicas/Inventario-lotes/internal/domain/entity"
	domaininv "github.com/jhoicas/Inventario-lotes/internal/domain/inventory"
	"github.com/jhoicas/Inventario-lotes/internal/domain/repository"
)

// RegisterStockInput alta de un stock (producto en ubicación).
type RegisterStockInput struct {
	ProductID    string
	ProductCode  string
	LocationID   string
	LocationName string
	MinimumLevel decimal.Decimal
	MaximumLevel decimal.Decimal
	ReorderPoint decimal.Decimal
	CreatedBy    string
}

// StockLevels niveles de control de un stock.
type StockLevels struct {
	MinimumLevel decimal.Decimal
	MaximumLevel decimal.Decimal
	ReorderPoint decimal.Decimal
}

// BatchState lote con su estado efectivo a la hora de la consulta.
type BatchState struct {
	Batch               *entity.Batch
	Status              entity.BatchStatus
	Urgency             domaininv.Urgency
	DaysUntilExpiration *int
	EvaluatedAt         time.Time
}

func validateLevels(l StockLevels, ref domain.Ref) error {
	if l.MinimumLevel.IsNegative() || l.MaximumLevel.IsNegative() || l.ReorderPoint.IsNegative() {
		return domain.NewError(domain.ErrInvalidInput, ref, "los niveles no pueden ser negativos")
	}
	for _, v := range []decimal.Decimal{l.MinimumLevel, l.MaximumLevel, l.ReorderPoint} {
		if !domaininv.FitsScale(v) {
			return domain.NewError(domain.ErrInvalidQuantity, ref,
				"los niveles admiten hasta %d decimales (recibido %s)", domaininv.QuantityScale, v)
		}
	}
	if l.MaximumLevel.IsPositive() && l.MinimumLevel.GreaterThan(l.MaximumLevel) {
		return domain.NewError(domain.ErrInvalidInput, ref, "nivel mínimo %s mayor que el máximo %s", l.MinimumLevel, l.MaximumLevel)
	}
	return nil
}

func stockKeyLock(productID, locationID string) string {
	return "key:" + productID + "|" + locationID
}

// RegisterStock crea un stock activo con cantidades en cero.
// (ProductID, LocationID) es único: un duplicado devuelve Conflict.
func (e *AllocationEngine) RegisterStock(ctx context.Context, in RegisterStockInput) (*entity.StockRecord, error) {
	ref := domain.Ref{}
	if in.ProductID == "" || in.LocationID == "" {
		return nil, domain.NewError(domain.ErrInvalidInput, ref, "product_id y location_id requeridos")
	}
	if err := validateLevels(StockLevels{in.MinimumLevel, in.MaximumLevel, in.ReorderPoint}, ref); err != nil {
		return nil, err
	}

	var created *entity.StockRecord
	_, _, err := e.mutate(ctx, "register_stock", stockKeyLock(in.ProductID, in.LocationID), ref, func(ctx context.Context, u *unitOfWork) error {
		existing, err := u.stocks.GetByKey(ctx, in.ProductID, in.LocationID)
		if err != nil {
			return err
		}
		if existing != nil {
			return domain.NewError(domain.ErrConflict, domain.Ref{StockID: existing.ID},
				"ya existe stock para producto %s en ubicación %s", in.ProductID, in.LocationID)
		}
		code := in.ProductCode
		if code == "" {
			code = in.ProductID
		}
		created = &entity.StockRecord{
			ID:                uuid.NewString(),
			ProductID:         in.ProductID,
			ProductCode:       code,
			LocationID:        in.LocationID,
			LocationName:      in.LocationName,
			TotalQuantity:     decimal.Zero,
			AvailableQuantity: decimal.Zero,
			ReservedQuantity:  decimal.Zero,
			MinimumLevel:      in.MinimumLevel,
			MaximumLevel:      in.MaximumLevel,
			ReorderPoint:      in.ReorderPoint,
			IsActive:          true,
			CreatedAt:         u.now,
			UpdatedAt:         u.now,
		}
		return u.stocks.Upsert(ctx, created)
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// GetStock devuelve el stock o NotFound.
func (e *AllocationEngine) GetStock(ctx context.Context, stockID string) (*entity.StockRecord, error) {
	var stock *entity.StockRecord
	err := e.view(ctx, func(ctx context.Context, u *unitOfWork) error {
		s, err := u.stocks.Get(ctx, stockID)
		if err != nil {
			return err
		}
		if s == nil {
			return domain.NewError(domain.ErrNotFound, domain.Ref{StockID: stockID}, "stock %s no encontrado", stockID)
		}
		stock = s
		return nil
	})
	return stock, err
}

// ListStocks lista stocks con filtros opcionales.
func (e *AllocationEngine) ListStocks(ctx context.Context, filter repository.StockFilter) ([]*entity.StockRecord, error) {
	var out []*entity.StockRecord
	err := e.view(ctx, func(ctx context.Context, u *unitOfWork) error {
		list, err := u.stocks.List(ctx, filter)
		out = list
		return err
	})
	if out == nil {
		out = []*entity.StockRecord{}
	}
	return out, err
}

// UpdateStockLevels cambia mínimo, máximo y punto de reorden.
func (e *AllocationEngine) UpdateStockLevels(ctx context.Context, stockID string, levels StockLevels) (*entity.StockRecord, error) {
	ref := domain.Ref{StockID: stockID}
	if err := validateLevels(levels, ref); err != nil {
		return nil, err
	}
	var updated *entity.StockRecord
	_, _, err := e.mutate(ctx, "update_levels", stockID, ref, func(ctx context.Context, u *unitOfWork) error {
		stock, err := u.loadStock(ctx, ref, false)
		if err != nil {
			return err
		}
		stock.MinimumLevel = levels.MinimumLevel
		stock.MaximumLevel = levels.MaximumLevel
		stock.ReorderPoint = levels.ReorderPoint
		stock.UpdatedAt = u.now
		updated = stock
		return u.stocks.Upsert(ctx, stock)
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeactivateStock baja lógica: deja de aceptar reservas y entradas.
func (e *AllocationEngine) DeactivateStock(ctx context.Context, stockID string) (*entity.StockRecord, error) {
	ref := domain.Ref{StockID: stockID}
	var updated *entity.StockRecord
	_, _, err := e.mutate(ctx, "deactivate_stock", stockID, ref, func(ctx context.Context, u *unitOfWork) error {
		stock, err := u.loadStock(ctx, ref, false)
		if err != nil {
			return err
		}
		stock.IsActive = false
		stock.UpdatedAt = u.now
		updated = stock
		return u.stocks.Upsert(ctx, stock)
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// ListBatches lotes del stock con estado efectivo y urgencia, en orden de alta.
func (e *AllocationEngine) ListBatches(ctx context.Context, stockID string) ([]BatchState, error) {
	ref := domain.Ref{StockID: stockID}
	var out []BatchState
	var at time.Time
	err := e.view(ctx, func(ctx context.Context, u *unitOfWork) error {
		stock, err := u.stocks.Get(ctx, stockID)
		if err != nil {
			return err
		}
		if stock == nil {
			return domain.NewError(domain.ErrNotFound, ref, "stock %s no encontrado", stockID)
		}
		at = u.now
		batches, err := u.batches.ListByStock(ctx, stockID)
		if err != nil {
			return err
		}
		domaininv.SortForAllocation(batches, domaininv.PolicyFIFO)
		out = make([]BatchState, 0, len(batches))
		for _, b := range batches {
			out = append(out, DescribeBatch(b, at))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// DescribeBatch calcula estado efectivo, urgencia y días al vencimiento en now.
func DescribeBatch(b *entity.Batch, now time.Time) BatchState {
	st := BatchState{
		Batch:       b,
		Status:      domaininv.EffectiveStatus(b, now),
		Urgency:     domaininv.Classify(b.ExpirationDate, now),
		EvaluatedAt: now,
	}
	if b.ExpirationDate != nil {
		d := domaininv.DaysUntil(*b.ExpirationDate, now)
		st.DaysUntilExpiration = &d
	}
	return st
}
