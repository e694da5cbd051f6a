package traceability

import (
	"context"
	"sort"

	"github.com/jhoicas/Inventario-lotes/internal/application/dto"
	"github.com/jhoicas/Inventario-lotes/internal/domain"
	"github.com/jhoicas/Inventario-lotes/internal/domain/entity"
	domaininv "github.com/jhoicas/Inventario-lotes/internal/domain/inventory"
	"github.com/jhoicas/Inventario-lotes/internal/domain/repository"
)

// ExpiringBatches lista los lotes con cantidad que vencen dentro de days días
// (incluye los ya vencidos), de menor a mayor días al vencimiento.
// days = 0 usa la ventana por defecto.
func (r *Reporter) ExpiringBatches(ctx context.Context, days int) (*dto.ExpiringBatchesReport, error) {
	if days < 0 {
		return nil, domain.NewError(domain.ErrInvalidInput, domain.Ref{}, "days no puede ser negativo (recibido %d)", days)
	}
	if days == 0 {
		days = r.expiringDays
	}
	now := r.now()

	report := &dto.ExpiringBatchesReport{
		Days:    days,
		Batches: []dto.ExpiringBatchDTO{},
		Summary: map[string]int{
			string(domaininv.UrgencyExpired):  0,
			string(domaininv.UrgencyCritical): 0,
			string(domaininv.UrgencyWarning):  0,
			string(domaininv.UrgencyNormal):   0,
		},
		GeneratedAt: now,
	}
	err := r.view(ctx, func(_ repository.StockRepository, batches repository.BatchRepository, _ repository.MovementRepository) error {
		list, err := batches.ListWithExpiration(ctx)
		if err != nil {
			return err
		}
		for _, b := range list {
			if b.ExpirationDate == nil || !b.Quantity.IsPositive() || b.Status == entity.BatchStatusDepleted {
				continue
			}
			d := domaininv.DaysUntil(*b.ExpirationDate, now)
			if d > days {
				continue
			}
			u := domaininv.UrgencyForDays(d)
			report.Summary[string(u)]++
			report.Batches = append(report.Batches, dto.ExpiringBatchDTO{
				BatchNumber:         b.BatchNumber,
				StockID:             b.StockID,
				ProductCode:         b.ProductCode,
				Location:            b.Location,
				Quantity:            b.Quantity,
				AvailableQuantity:   b.AvailableQuantity,
				ExpirationDate:      *b.ExpirationDate,
				DaysUntilExpiration: d,
				Urgency:             string(u),
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(report.Batches, func(i, j int) bool {
		a, b := report.Batches[i], report.Batches[j]
		if a.DaysUntilExpiration != b.DaysUntilExpiration {
			return a.DaysUntilExpiration < b.DaysUntilExpiration
		}
		return a.BatchNumber < b.BatchNumber
	})
	return report, nil
}
