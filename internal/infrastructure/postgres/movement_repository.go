package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Inventario-lotes/internal/domain"
	"github.com/jhoicas/Inventario-lotes/internal/domain/entity"
	"github.com/jhoicas/Inventario-lotes/internal/domain/repository"
)

var _ repository.MovementRepository = (*MovementRepo)(nil)

const movementColumns = `sequence, id, stock_id, batch_number, movement_type, quantity,
	COALESCE(order_id, ''), reason, created_at, COALESCE(created_by, '')`

// MovementRepo libro de movimientos sobre PostgreSQL (solo INSERT y SELECT).
type MovementRepo struct {
	q Querier
}

// NewMovementRepository construye el adaptador. Pasar pool o tx (Querier).
func NewMovementRepository(q Querier) *MovementRepo {
	return &MovementRepo{q: q}
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Append persiste un movimiento; sequence lo asigna la base.
func (r *MovementRepo) Append(ctx context.Context, m *entity.MovementRecord) error {
	query := `
		INSERT INTO stock_movements (id, stock_id, batch_number, movement_type, quantity, order_id, reason, created_at, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING sequence`
	err := r.q.QueryRow(ctx, query,
		m.ID, m.StockID, m.BatchNumber, string(m.Type), m.Quantity,
		nullable(m.OrderID), m.Reason, m.CreatedAt, nullable(m.CreatedBy),
	).Scan(&m.Sequence)
	return translate(err, domain.Ref{StockID: m.StockID, BatchNumber: m.BatchNumber, OrderID: m.OrderID}, "append movement")
}

func scanMovements(rows pgx.Rows) ([]*entity.MovementRecord, error) {
	defer rows.Close()
	out := []*entity.MovementRecord{}
	for rows.Next() {
		var (
			m   entity.MovementRecord
			typ string
		)
		if err := rows.Scan(&m.Sequence, &m.ID, &m.StockID, &m.BatchNumber, &typ, &m.Quantity,
			&m.OrderID, &m.Reason, &m.CreatedAt, &m.CreatedBy); err != nil {
			return nil, fmt.Errorf("scan movement: %w", err)
		}
		t, err := entity.ParseMovementType(typ)
		if err != nil {
			return nil, err
		}
		m.Type = t
		out = append(out, &m)
	}
	return out, rows.Err()
}

// List movimientos filtrados, más reciente primero, con el total sin paginar.
func (r *MovementRepo) List(ctx context.Context, f repository.MovementFilter) ([]*entity.MovementRecord, int, error) {
	var (
		conds []string
		args  []any
	)
	if f.StockID != "" {
		args = append(args, f.StockID)
		conds = append(conds, fmt.Sprintf("stock_id = $%d", len(args)))
	}
	if f.BatchNumber != "" {
		args = append(args, f.BatchNumber)
		conds = append(conds, fmt.Sprintf("batch_number = $%d", len(args)))
	}
	if f.Type != "" {
		args = append(args, string(f.Type))
		conds = append(conds, fmt.Sprintf("movement_type = $%d", len(args)))
	}
	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	if err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM stock_movements`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count movements: %w", err)
	}

	query := `SELECT ` + movementColumns + ` FROM stock_movements` + where + ` ORDER BY created_at DESC, sequence DESC`
	if f.Limit > 0 {
		args = append(args, f.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if f.Offset > 0 {
		args = append(args, f.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list movements: %w", err)
	}
	out, err := scanMovements(rows)
	return out, total, err
}

// ListByBatch movimientos del lote en orden de secuencia.
func (r *MovementRepo) ListByBatch(ctx context.Context, batchNumber string) ([]*entity.MovementRecord, error) {
	rows, err := r.q.Query(ctx, `SELECT `+movementColumns+` FROM stock_movements WHERE batch_number = $1 ORDER BY sequence`, batchNumber)
	if err != nil {
		return nil, fmt.Errorf("list movements by batch: %w", err)
	}
	return scanMovements(rows)
}

// ListByStock movimientos de todos los lotes del stock en orden de secuencia.
func (r *MovementRepo) ListByStock(ctx context.Context, stockID string) ([]*entity.MovementRecord, error) {
	rows, err := r.q.Query(ctx, `SELECT `+movementColumns+` FROM stock_movements WHERE stock_id = $1 ORDER BY sequence`, stockID)
	if err != nil {
		return nil, fmt.Errorf("list movements by stock: %w", err)
	}
	return scanMovements(rows)
}
