package traceability

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Inventario-lotes/internal/application/dto"
	"github.com/jhoicas/Inventario-lotes/internal/application/inventory"
	"github.com/jhoicas/Inventario-lotes/internal/domain"
	"github.com/jhoicas/Inventario-lotes/internal/domain/entity"
	domaininv "github.com/jhoicas/Inventario-lotes/internal/domain/inventory"
	"github.com/jhoicas/Inventario-lotes/internal/domain/repository"
)

// DefaultExpiringDays ventana por defecto del listado de vencimientos.
const DefaultExpiringDays = 30

var hundred = decimal.NewFromInt(100)

// BatchReportRenderer genera el documento (PDF) de la trazabilidad de un lote.
type BatchReportRenderer interface {
	RenderBatchTraceability(report *dto.BatchTraceabilityReport) ([]byte, error)
}

// Reporter agregador de solo lectura sobre lotes, stocks y el libro de movimientos.
// Cada consulta corre sobre una foto consistente (TxRunner.View).
type Reporter struct {
	txRunner     inventory.TxRunner
	renderer     BatchReportRenderer
	now          func() time.Time
	expiringDays int
}

// Option configura el Reporter.
type Option func(*Reporter)

// WithClock reemplaza el reloj.
func WithClock(now func() time.Time) Option {
	return func(r *Reporter) { r.now = now }
}

// WithExpiringDays cambia la ventana por defecto de ExpiringBatches.
func WithExpiringDays(days int) Option {
	return func(r *Reporter) {
		if days > 0 {
			r.expiringDays = days
		}
	}
}

// WithRenderer habilita BatchTraceabilityPDF.
func WithRenderer(renderer BatchReportRenderer) Option {
	return func(r *Reporter) { r.renderer = renderer }
}

// NewReporter construye el Reporter.
func NewReporter(txRunner inventory.TxRunner, opts ...Option) *Reporter {
	r := &Reporter{txRunner: txRunner, now: time.Now, expiringDays: DefaultExpiringDays}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Reporter) view(ctx context.Context, fn inventory.TxFunc) error {
	return r.txRunner.View(ctx, fn)
}

// BatchTraceability une el lote con todos sus movimientos y calcula utilización y rotación.
func (r *Reporter) BatchTraceability(ctx context.Context, batchNumber string) (*dto.BatchTraceabilityReport, error) {
	now := r.now()
	var report *dto.BatchTraceabilityReport
	err := r.view(ctx, func(_ repository.StockRepository, batches repository.BatchRepository, movements repository.MovementRepository) error {
		batch, err := batches.Get(ctx, batchNumber)
		if err != nil {
			return err
		}
		if batch == nil {
			return domain.NewError(domain.ErrNotFound, domain.Ref{BatchNumber: batchNumber}, "lote %s no encontrado", batchNumber)
		}
		ms, err := movements.ListByBatch(ctx, batchNumber)
		if err != nil {
			return err
		}
		report = buildBatchReport(batch, ms, now)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return report, nil
}

func buildBatchReport(batch *entity.Batch, ms []*entity.MovementRecord, now time.Time) *dto.BatchTraceabilityReport {
	inbound, outbound := flowTotals(ms)
	daysInStock := domaininv.DaysSince(batch.CreatedAt, now)

	report := &dto.BatchTraceabilityReport{
		Batch:                 dto.BatchToDTO(batch, now),
		Movements:             dto.MovementsToDTO(ms),
		TotalInbound:          inbound,
		TotalOutbound:         outbound,
		UtilizationPercentage: utilization(inbound, outbound),
		DaysInStock:           daysInStock,
		TurnoverRate:          decimal.Zero,
		GeneratedAt:           now,
	}
	if batch.ExpirationDate != nil {
		d := domaininv.DaysUntil(*batch.ExpirationDate, now)
		report.DaysUntilExpiration = &d
	}
	if daysInStock > 0 {
		report.TurnoverRate = outbound.Div(decimal.NewFromInt(int64(daysInStock))).Round(4)
	}
	return report
}

// flowTotals suma INBOUND como entrada y CONSUMED + RESERVED como salida.
func flowTotals(ms []*entity.MovementRecord) (inbound, outbound decimal.Decimal) {
	inbound, outbound = decimal.Zero, decimal.Zero
	for _, m := range ms {
		switch m.Type {
		case entity.MovementTypeInbound:
			inbound = inbound.Add(m.Quantity)
		case entity.MovementTypeConsumed, entity.MovementTypeReserved:
			outbound = outbound.Add(m.Quantity)
		}
	}
	return inbound, outbound
}

func utilization(inbound, outbound decimal.Decimal) decimal.Decimal {
	if !inbound.IsPositive() {
		return decimal.Zero
	}
	return outbound.Div(inbound).Mul(hundred).Round(2)
}

// BatchTraceabilityPDF devuelve el reporte del lote renderizado.
func (r *Reporter) BatchTraceabilityPDF(ctx context.Context, batchNumber string) ([]byte, error) {
	if r.renderer == nil {
		return nil, domain.NewError(domain.ErrConflict, domain.Ref{BatchNumber: batchNumber}, "generación de PDF no configurada")
	}
	report, err := r.BatchTraceability(ctx, batchNumber)
	if err != nil {
		return nil, err
	}
	return r.renderer.RenderBatchTraceability(report)
}
