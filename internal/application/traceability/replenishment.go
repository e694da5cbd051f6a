package traceability

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Inventario-lotes/internal/application/dto"
	"github.com/jhoicas/Inventario-lotes/internal/domain/entity"
	domaininv "github.com/jhoicas/Inventario-lotes/internal/domain/inventory"
	"github.com/jhoicas/Inventario-lotes/internal/domain/repository"
)

// Replenishment genera la lista de reposición: stocks activos con disponible en o bajo
// su punto de reorden, con la cantidad sugerida de pedido.
// locationID puede ser vacío para considerar todas las ubicaciones.
func (r *Reporter) Replenishment(ctx context.Context, locationID string) ([]dto.ReplenishmentSuggestionDTO, error) {
	now := r.now()
	suggestions := []dto.ReplenishmentSuggestionDTO{}

	err := r.view(ctx, func(stocks repository.StockRepository, batches repository.BatchRepository, _ repository.MovementRepository) error {
		// 1. Stocks por debajo del punto de reorden
		list, err := stocks.List(ctx, repository.StockFilter{LocationID: locationID, ActiveOnly: true})
		if err != nil {
			return err
		}
		factor := decimal.NewFromFloat(1.5)

		for _, s := range list {
			if !s.BelowReorderPoint() {
				continue
			}
			bs, err := batches.ListByStock(ctx, s.ID)
			if err != nil {
				return err
			}

			// 2. Stock ideal: el máximo si está definido, si no ReorderPoint * 1.5
			ideal := s.MaximumLevel
			if !ideal.IsPositive() {
				ideal = s.ReorderPoint.Mul(factor)
			}
			suggested := ideal.Sub(s.AvailableQuantity)
			if suggested.IsNegative() {
				suggested = decimal.Zero
			}

			// 3. Disponible que pronto dejará de ser asignable
			expiring := decimal.Zero
			for _, b := range bs {
				if domaininv.EffectiveStatus(b, now) == entity.BatchStatusExpiringSoon {
					expiring = expiring.Add(b.AvailableQuantity)
				}
			}

			unitCost := domaininv.WeightedAverageCost(bs)
			suggestions = append(suggestions, dto.ReplenishmentSuggestionDTO{
				StockID:            s.ID,
				ProductID:          s.ProductID,
				ProductCode:        s.ProductCode,
				LocationID:         s.LocationID,
				CurrentStock:       s.AvailableQuantity,
				ReorderPoint:       s.ReorderPoint,
				IdealStock:         ideal,
				SuggestedOrderQty:  suggested,
				UnitCost:           unitCost,
				EstimatedOrderCost: suggested.Mul(unitCost).Round(2),
				ExpiringQuantity:   expiring,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// 4. Ordenar por déficit absoluto, desempate por stock
	sort.SliceStable(suggestions, func(i, j int) bool {
		a, b := suggestions[i], suggestions[j]
		defA := a.ReorderPoint.Sub(a.CurrentStock)
		defB := b.ReorderPoint.Sub(b.CurrentStock)
		if !defA.Equal(defB) {
			return defA.GreaterThan(defB)
		}
		return a.StockID < b.StockID
	})

	// 5. Asignar prioridad (1 = más urgente)
	for i := range suggestions {
		suggestions[i].Priority = i + 1
	}
	return suggestions, nil
}
