package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Inventario-lotes/internal/domain"
	"github.com/jhoicas/Inventario-lotes/internal/domain/entity"
	"github.com/jhoicas/Inventario-lotes/internal/domain/repository"
)

var _ repository.BatchRepository = (*BatchRepo)(nil)

const batchColumns = `batch_number, stock_id, product_code, quantity, available_quantity, reserved_quantity,
	production_date, expiration_date, supplier, cost, location, status, metadata, created_at, updated_at`

// BatchRepo implementación de BatchRepository sobre PostgreSQL.
type BatchRepo struct {
	q Querier
}

// NewBatchRepository construye el adaptador. Acepta pool o tx (Querier).
func NewBatchRepository(q Querier) *BatchRepo {
	return &BatchRepo{q: q}
}

func scanBatch(row pgx.Row) (*entity.Batch, error) {
	var (
		b      entity.Batch
		status string
	)
	err := row.Scan(
		&b.BatchNumber, &b.StockID, &b.ProductCode, &b.Quantity, &b.AvailableQuantity, &b.ReservedQuantity,
		&b.ProductionDate, &b.ExpirationDate, &b.Supplier, &b.Cost, &b.Location, &status, &b.Metadata,
		&b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if b.Status, err = entity.ParseBatchStatus(status); err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *BatchRepo) list(ctx context.Context, op, query string, args ...any) ([]*entity.Batch, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()
	out := []*entity.Batch{}
	for rows.Next() {
		b, err := scanBatch(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: scan: %w", op, err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// Get obtiene un lote por número.
func (r *BatchRepo) Get(ctx context.Context, batchNumber string) (*entity.Batch, error) {
	b, err := scanBatch(r.q.QueryRow(ctx, `SELECT `+batchColumns+` FROM batches WHERE batch_number = $1`, batchNumber))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get batch: %w", err)
	}
	return b, nil
}

// ListByStock lotes del stock en orden de alta.
func (r *BatchRepo) ListByStock(ctx context.Context, stockID string) ([]*entity.Batch, error) {
	return r.list(ctx, "list batches by stock",
		`SELECT `+batchColumns+` FROM batches WHERE stock_id = $1 ORDER BY created_at, batch_number`, stockID)
}

// ListWithExpiration lotes con vencimiento y cantidad pendiente.
func (r *BatchRepo) ListWithExpiration(ctx context.Context) ([]*entity.Batch, error) {
	return r.list(ctx, "list batches with expiration",
		`SELECT `+batchColumns+` FROM batches
		WHERE expiration_date IS NOT NULL AND quantity > 0
		ORDER BY expiration_date, batch_number`)
}

// Upsert inserta o actualiza el lote. stock_id y fechas de origen no cambian.
func (r *BatchRepo) Upsert(ctx context.Context, b *entity.Batch) error {
	metadata := b.Metadata
	if metadata == nil {
		metadata = map[string]string{}
	}
	query := `
		INSERT INTO batches (` + batchColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT (batch_number) DO UPDATE SET
			quantity = EXCLUDED.quantity,
			available_quantity = EXCLUDED.available_quantity,
			reserved_quantity = EXCLUDED.reserved_quantity,
			location = EXCLUDED.location,
			status = EXCLUDED.status,
			metadata = EXCLUDED.metadata,
			updated_at = EXCLUDED.updated_at
		WHERE batches.stock_id = EXCLUDED.stock_id`
	tag, err := r.q.Exec(ctx, query,
		b.BatchNumber, b.StockID, b.ProductCode, b.Quantity, b.AvailableQuantity, b.ReservedQuantity,
		b.ProductionDate, b.ExpirationDate, b.Supplier, b.Cost, b.Location, string(b.Status), metadata,
		b.CreatedAt, b.UpdatedAt,
	)
	ref := domain.Ref{StockID: b.StockID, BatchNumber: b.BatchNumber}
	if err != nil {
		return translate(err, ref, "upsert batch")
	}
	if tag.RowsAffected() == 0 {
		return domain.NewError(domain.ErrConflict, ref, "el lote %s ya pertenece a otro stock", b.BatchNumber)
	}
	return nil
}
