package traceability

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Inventario-lotes/internal/application/dto"
	"github.com/jhoicas/Inventario-lotes/internal/domain"
	"github.com/jhoicas/Inventario-lotes/internal/domain/entity"
	domaininv "github.com/jhoicas/Inventario-lotes/internal/domain/inventory"
	"github.com/jhoicas/Inventario-lotes/internal/domain/repository"
)

// StockTraceability analítica de un stock: conteo de lotes por estado, costo promedio
// ponderado de lo que queda y utilización por lote.
func (r *Reporter) StockTraceability(ctx context.Context, stockID string) (*dto.StockTraceabilityReport, error) {
	now := r.now()
	var report *dto.StockTraceabilityReport
	err := r.view(ctx, func(stocks repository.StockRepository, batches repository.BatchRepository, movements repository.MovementRepository) error {
		stock, err := stocks.Get(ctx, stockID)
		if err != nil {
			return err
		}
		if stock == nil {
			return domain.NewError(domain.ErrNotFound, domain.Ref{StockID: stockID}, "stock %s no encontrado", stockID)
		}
		list, err := batches.ListByStock(ctx, stockID)
		if err != nil {
			return err
		}
		domaininv.SortForAllocation(list, domaininv.PolicyFIFO)

		report = &dto.StockTraceabilityReport{
			Stock: dto.StockToDTO(stock),
			BatchCountByStatus: map[string]int{
				string(entity.BatchStatusAvailable):    0,
				string(entity.BatchStatusExpiringSoon): 0,
				string(entity.BatchStatusExpired):      0,
				string(entity.BatchStatusDepleted):     0,
			},
			WeightedAverageCost: domaininv.WeightedAverageCost(list),
			BelowReorderPoint:   stock.BelowReorderPoint(),
			Batches:             make([]dto.StockBatchRow, 0, len(list)),
			GeneratedAt:         now,
		}
		ledger, err := movements.ListByStock(ctx, stockID)
		if err != nil {
			return err
		}
		byBatch := make(map[string][]*entity.MovementRecord, len(list))
		for _, m := range ledger {
			byBatch[m.BatchNumber] = append(byBatch[m.BatchNumber], m)
		}

		value := decimal.Zero
		for _, b := range list {
			inbound, outbound := flowTotals(byBatch[b.BatchNumber])
			status := domaininv.EffectiveStatus(b, now)
			report.BatchCountByStatus[string(status)]++
			value = value.Add(b.Quantity.Mul(b.Cost))

			row := dto.StockBatchRow{
				BatchNumber:           b.BatchNumber,
				Status:                string(status),
				Quantity:              b.Quantity,
				UtilizationPercentage: utilization(inbound, outbound),
			}
			if b.ExpirationDate != nil {
				d := domaininv.DaysUntil(*b.ExpirationDate, now)
				row.DaysUntilExpiration = &d
			}
			report.Batches = append(report.Batches, row)
		}
		report.InventoryValue = value.Round(2)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return report, nil
}
