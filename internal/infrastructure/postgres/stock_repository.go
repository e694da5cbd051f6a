package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Inventario-lotes/internal/domain"
	"github.com/jhoicas/Inventario-lotes/internal/domain/entity"
	"github.com/jhoicas/Inventario-lotes/internal/domain/repository"
)

var _ repository.StockRepository = (*StockRepo)(nil)

var refNone = domain.Ref{}

const stockColumns = `id, product_id, product_code, location_id, location_name,
	total_quantity, available_quantity, reserved_quantity,
	minimum_level, maximum_level, reorder_point, is_active, created_at, updated_at`

// StockRepo implementación de StockRepository sobre PostgreSQL (usable con pool o tx).
type StockRepo struct {
	q Querier
}

// NewStockRepository construye el adaptador de stock. Pasar pool o tx (Querier).
func NewStockRepository(q Querier) *StockRepo {
	return &StockRepo{q: q}
}

func scanStock(row pgx.Row) (*entity.StockRecord, error) {
	var s entity.StockRecord
	err := row.Scan(
		&s.ID, &s.ProductID, &s.ProductCode, &s.LocationID, &s.LocationName,
		&s.TotalQuantity, &s.AvailableQuantity, &s.ReservedQuantity,
		&s.MinimumLevel, &s.MaximumLevel, &s.ReorderPoint, &s.IsActive, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *StockRepo) getOne(ctx context.Context, ref domain.Ref, op, query string, args ...any) (*entity.StockRecord, error) {
	s, err := scanStock(r.q.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, translate(err, ref, op)
	}
	return s, nil
}

// Get obtiene un stock por ID.
func (r *StockRepo) Get(ctx context.Context, id string) (*entity.StockRecord, error) {
	return r.getOne(ctx, domain.Ref{StockID: id}, "get stock", `SELECT `+stockColumns+` FROM stocks WHERE id = $1`, id)
}

// GetForUpdate obtiene el stock y bloquea la fila para update (SELECT FOR UPDATE).
func (r *StockRepo) GetForUpdate(ctx context.Context, id string) (*entity.StockRecord, error) {
	return r.getOne(ctx, domain.Ref{StockID: id}, "get stock for update",
		`SELECT `+stockColumns+` FROM stocks WHERE id = $1 FOR UPDATE`, id)
}

// GetByKey busca por clave natural (producto, ubicación).
func (r *StockRepo) GetByKey(ctx context.Context, productID, locationID string) (*entity.StockRecord, error) {
	return r.getOne(ctx, refNone, "get stock by key",
		`SELECT `+stockColumns+` FROM stocks WHERE product_id = $1 AND location_id = $2`, productID, locationID)
}

// List lista stocks aplicando los filtros presentes.
func (r *StockRepo) List(ctx context.Context, f repository.StockFilter) ([]*entity.StockRecord, error) {
	var (
		conds []string
		args  []any
	)
	if f.ProductID != "" {
		args = append(args, f.ProductID)
		conds = append(conds, fmt.Sprintf("product_id = $%d", len(args)))
	}
	if f.LocationID != "" {
		args = append(args, f.LocationID)
		conds = append(conds, fmt.Sprintf("location_id = $%d", len(args)))
	}
	if f.ActiveOnly {
		conds = append(conds, "is_active")
	}
	query := `SELECT ` + stockColumns + ` FROM stocks`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY created_at, id"

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list stocks: %w", err)
	}
	defer rows.Close()
	out := []*entity.StockRecord{}
	for rows.Next() {
		s, err := scanStock(rows)
		if err != nil {
			return nil, fmt.Errorf("scan stock: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Upsert inserta o actualiza el stock por ID.
func (r *StockRepo) Upsert(ctx context.Context, s *entity.StockRecord) error {
	query := `
		INSERT INTO stocks (` + stockColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (id) DO UPDATE SET
			product_code = EXCLUDED.product_code,
			location_name = EXCLUDED.location_name,
			total_quantity = EXCLUDED.total_quantity,
			available_quantity = EXCLUDED.available_quantity,
			reserved_quantity = EXCLUDED.reserved_quantity,
			minimum_level = EXCLUDED.minimum_level,
			maximum_level = EXCLUDED.maximum_level,
			reorder_point = EXCLUDED.reorder_point,
			is_active = EXCLUDED.is_active,
			updated_at = EXCLUDED.updated_at`
	_, err := r.q.Exec(ctx, query,
		s.ID, s.ProductID, s.ProductCode, s.LocationID, s.LocationName,
		s.TotalQuantity, s.AvailableQuantity, s.ReservedQuantity,
		s.MinimumLevel, s.MaximumLevel, s.ReorderPoint, s.IsActive, s.CreatedAt, s.UpdatedAt,
	)
	return translate(err, domain.Ref{StockID: s.ID}, "upsert stock")
}
