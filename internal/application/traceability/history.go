package traceability

import (
	"context"

	"github.com/jhoicas/Inventario-lotes/internal/application/dto"
	"github.com/jhoicas/Inventario-lotes/internal/domain"
	"github.com/jhoicas/Inventario-lotes/internal/domain/entity"
	"github.com/jhoicas/Inventario-lotes/internal/domain/repository"
)

// MovementHistory historial filtrado por stock, lote y/o tipo; más reciente primero.
func (r *Reporter) MovementHistory(ctx context.Context, req dto.MovementHistoryRequest) (*dto.MovementHistoryResponse, error) {
	req.DefaultPage()
	filter := repository.MovementFilter{
		StockID:     req.StockID,
		BatchNumber: req.BatchNumber,
		Limit:       req.Limit,
		Offset:      req.Offset,
	}
	if req.Type != "" {
		t, err := entity.ParseMovementType(req.Type)
		if err != nil {
			return nil, domain.NewError(domain.ErrInvalidInput, domain.Ref{StockID: req.StockID, BatchNumber: req.BatchNumber}, "%s", err.Error())
		}
		filter.Type = t
	}

	var (
		list  []*entity.MovementRecord
		total int
	)
	err := r.view(ctx, func(_ repository.StockRepository, _ repository.BatchRepository, movements repository.MovementRepository) error {
		var err error
		list, total, err = movements.List(ctx, filter)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &dto.MovementHistoryResponse{
		Movements: dto.MovementsToDTO(list),
		Page:      dto.PageResponse{Limit: req.Limit, Offset: req.Offset, Total: total},
	}, nil
}
