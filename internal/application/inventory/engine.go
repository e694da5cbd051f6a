package inventory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jhoicas/Inventario-lotes/internal/domain"
	"github.com/jhoicas/Inventario-lotes/internal/domain/entity"
	domaininv "github.com/jhoicas/Inventario-lotes/internal/domain/inventory"
	"github.com/jhoicas/Inventario-lotes/internal/domain/repository"
	"github.com/jhoicas/Inventario-lotes/pkg/logger"
)

// DefaultLockTimeout plazo por defecto para obtener el lock de un stock.
const DefaultLockTimeout = 3 * time.Second

// DefaultPublishTimeout plazo por defecto para publicar los movimientos confirmados.
const DefaultPublishTimeout = 5 * time.Second

const tracerName = "github.com/jhoicas/Inventario-lotes/internal/application/inventory"

// AllocationEngine motor de asignación de lotes: reserva (FIFO/FEFO), consumo, liberación,
// alta de lotes y baja por vencimiento. Toda mutación sobre un stock se serializa con
// StockLocker y se confirma en una sola transacción con TxRunner.
type AllocationEngine struct {
	txRunner       TxRunner
	locker         StockLocker
	publisher      MovementPublisher
	log            *logger.Logger
	tracer         trace.Tracer
	now            func() time.Time
	newBatchNumber func(time.Time) string
	lockTimeout    time.Duration
	publishTimeout time.Duration
}

// Option configura el motor.
type Option func(*AllocationEngine)

// WithClock reemplaza el reloj (tests).
func WithClock(now func() time.Time) Option {
	return func(e *AllocationEngine) { e.now = now }
}

// WithLockTimeout fija el plazo de adquisición del lock.
func WithLockTimeout(d time.Duration) Option {
	return func(e *AllocationEngine) {
		if d > 0 {
			e.lockTimeout = d
		}
	}
}

// WithPublishTimeout acota la publicación de movimientos tras el commit.
func WithPublishTimeout(d time.Duration) Option {
	return func(e *AllocationEngine) {
		if d > 0 {
			e.publishTimeout = d
		}
	}
}

// WithPublisher publica los movimientos confirmados.
func WithPublisher(p MovementPublisher) Option {
	return func(e *AllocationEngine) {
		if p != nil {
			e.publisher = p
		}
	}
}

// WithLogger inyecta el logger.
func WithLogger(l *logger.Logger) Option {
	return func(e *AllocationEngine) {
		if l != nil {
			e.log = l
		}
	}
}

// WithBatchNumberGenerator reemplaza el generador de números de lote.
func WithBatchNumberGenerator(gen func(time.Time) string) Option {
	return func(e *AllocationEngine) {
		if gen != nil {
			e.newBatchNumber = gen
		}
	}
}

// NewAllocationEngine construye el motor.
func NewAllocationEngine(txRunner TxRunner, locker StockLocker, opts ...Option) *AllocationEngine {
	e := &AllocationEngine{
		txRunner:       txRunner,
		locker:         locker,
		publisher:      noopPublisher{},
		log:            logger.Nop(),
		tracer:         otel.Tracer(tracerName),
		now:            time.Now,
		newBatchNumber: NewBatchNumber,
		lockTimeout:    DefaultLockTimeout,
		publishTimeout: DefaultPublishTimeout,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// NewBatchNumber genera un número de lote LOT-AAAAMMDD-XXXXXXXXXXXX.
// El sufijo sale de la parte aleatoria de un UUIDv7, no del reloj.
func NewBatchNumber(now time.Time) string {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	hex := strings.ReplaceAll(id.String(), "-", "")
	return fmt.Sprintf("LOT-%s-%s", now.UTC().Format("20060102"), strings.ToUpper(hex[len(hex)-12:]))
}

// unitOfWork agrupa lo que una operación necesita dentro de su transacción.
type unitOfWork struct {
	stocks    repository.StockRepository
	batches   repository.BatchRepository
	movements repository.MovementRepository
	now       time.Time
	appended  []*entity.MovementRecord
}

func (u *unitOfWork) record(ctx context.Context, m *entity.MovementRecord) error {
	m.ID = uuid.NewString()
	m.CreatedAt = u.now
	if err := u.movements.Append(ctx, m); err != nil {
		return err
	}
	u.appended = append(u.appended, m)
	return nil
}

// loadStock bloquea el stock y exige que exista (y esté activo si se pide).
func (u *unitOfWork) loadStock(ctx context.Context, ref domain.Ref, requireActive bool) (*entity.StockRecord, error) {
	stock, err := u.stocks.GetForUpdate(ctx, ref.StockID)
	if err != nil {
		return nil, err
	}
	if stock == nil {
		return nil, domain.NewError(domain.ErrNotFound, ref, "stock %s no encontrado", ref.StockID)
	}
	if requireActive && !stock.IsActive {
		return nil, domain.NewError(domain.ErrNotFound, ref, "stock %s inactivo", ref.StockID)
	}
	return stock, nil
}

// loadBatch obtiene el lote y verifica que pertenezca al stock.
func (u *unitOfWork) loadBatch(ctx context.Context, ref domain.Ref) (*entity.Batch, error) {
	batch, err := u.batches.Get(ctx, ref.BatchNumber)
	if err != nil {
		return nil, err
	}
	if batch == nil || batch.StockID != ref.StockID {
		return nil, domain.NewError(domain.ErrNotFound, ref, "lote %s no encontrado en stock %s", ref.BatchNumber, ref.StockID)
	}
	return batch, nil
}

// verify comprueba la conservación stock/lotes antes de confirmar. Si falla, la tx se descarta.
func (u *unitOfWork) verify(ctx context.Context, stock *entity.StockRecord, ref domain.Ref) error {
	batches, err := u.batches.ListByStock(ctx, stock.ID)
	if err != nil {
		return err
	}
	if err := domaininv.CheckStock(stock, batches); err != nil {
		return domain.NewError(domain.ErrInvariantViolation, ref, "%s", err.Error())
	}
	return nil
}

// mutate serializa la operación sobre lockKey y la aplica atómicamente.
// Devuelve la hora de la operación y los movimientos confirmados.
// El lock se suelta al confirmar; la publicación corre fuera de la sección crítica
// y los consumidores ordenan por Sequence.
func (e *AllocationEngine) mutate(
	ctx context.Context,
	op, lockKey string,
	ref domain.Ref,
	fn func(ctx context.Context, u *unitOfWork) error,
) (time.Time, []*entity.MovementRecord, error) {
	ctx, span := e.tracer.Start(ctx, "inventory."+op, trace.WithAttributes(
		attribute.String("inventory.operation", op),
		attribute.String("stock.id", ref.StockID),
		attribute.String("batch.number", ref.BatchNumber),
		attribute.String("order.id", ref.OrderID),
	))
	defer span.End()
	log := e.log.Ctx(ctx)

	lockCtx, cancel := context.WithTimeout(ctx, e.lockTimeout)
	unlock, err := e.locker.Lock(lockCtx, lockKey)
	cancel()
	if err != nil {
		if ctx.Err() != nil {
			return time.Time{}, nil, ctx.Err()
		}
		span.SetStatus(codes.Error, "lock")
		log.Warn().Str("op", op).Str("key", lockKey).Dur("timeout", e.lockTimeout).Err(err).Msg("lock no disponible")
		if errors.Is(err, domain.ErrBusy) || errors.Is(err, context.DeadlineExceeded) {
			return time.Time{}, nil, domain.NewError(domain.ErrBusy, ref,
				"no se obtuvo acceso exclusivo a %s en %s", lockKey, e.lockTimeout)
		}
		return time.Time{}, nil, fmt.Errorf("lock %s: %w", lockKey, err)
	}
	released := false
	release := func() {
		if !released {
			released = true
			unlock()
		}
	}
	defer release()

	now := e.now()
	var u *unitOfWork
	err = e.txRunner.Run(ctx, func(
		stockRepo repository.StockRepository,
		batchRepo repository.BatchRepository,
		movRepo repository.MovementRepository,
	) error {
		u = &unitOfWork{stocks: stockRepo, batches: batchRepo, movements: movRepo, now: now}
		return fn(ctx, u)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(domain.KindOf(err)))
		if domain.KindOf(err) == domain.KindInvariantViolation {
			log.Error().Str("op", op).Str("stock_id", ref.StockID).Str("batch_number", ref.BatchNumber).
				Str("order_id", ref.OrderID).Err(err).Msg("invariante violada, operación abortada")
		}
		return time.Time{}, nil, err
	}

	span.SetAttributes(attribute.Int("inventory.movements", len(u.appended)))
	log.Debug().Str("op", op).Str("stock_id", ref.StockID).Int("movements", len(u.appended)).Msg("operación confirmada")

	release()

	if len(u.appended) > 0 {
		pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), e.publishTimeout)
		defer cancel()
		if err := e.publisher.Publish(pubCtx, u.appended); err != nil {
			log.Warn().Str("op", op).Str("stock_id", ref.StockID).Err(err).Msg("no se pudieron publicar movimientos")
		}
	}
	return now, u.appended, nil
}

// view ejecuta una lectura sobre una foto consistente.
func (e *AllocationEngine) view(ctx context.Context, fn func(ctx context.Context, u *unitOfWork) error) error {
	now := e.now()
	return e.txRunner.View(ctx, func(
		stockRepo repository.StockRepository,
		batchRepo repository.BatchRepository,
		movRepo repository.MovementRepository,
	) error {
		return fn(ctx, &unitOfWork{stocks: stockRepo, batches: batchRepo, movements: movRepo, now: now})
	})
}
