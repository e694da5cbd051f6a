// Package pdf genera el reporte de trazabilidad de un lote en PDF.
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: N° de lote + producto  │  Estado + fecha reporte    │
//	│  DATOS: proveedor / ubicación / fechas / costo               │
//	│  MÉTRICAS: entrada / salida / utilización / rotación         │
//	│  TABLA: Seq | Fecha | Tipo | Cantidad | Orden | Motivo       │
//	│  FOOTER: QR con el número de lote                            │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"fmt"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/code"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"

	"github.com/jhoicas/Inventario-lotes/internal/application/dto"
	"github.com/jhoicas/Inventario-lotes/internal/application/traceability"
)

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
	colorAlert   = &props.Color{Red: 180, Green: 30, Blue: 30}
)

const dateLayout = "02/01/2006"

var _ traceability.BatchReportRenderer = (*MarotoBatchReport)(nil)

// MarotoBatchReport renderiza la trazabilidad de lotes con Maroto v2.
type MarotoBatchReport struct {
	author string
}

// NewMarotoBatchReport construye el generador; author aparece en los metadatos del PDF.
func NewMarotoBatchReport(author string) *MarotoBatchReport {
	return &MarotoBatchReport{author: author}
}

// RenderBatchTraceability genera el PDF y devuelve sus bytes.
func (g *MarotoBatchReport) RenderBatchTraceability(report *dto.BatchTraceabilityReport) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle("Trazabilidad de lote "+report.Batch.BatchNumber, true).
		WithAuthor(g.author, true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow(report))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(batchInfoRow(report.Batch))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(metricsRow(report))
	m.AddRows(line.NewRow(3))

	m.AddRows(tableHeaderRow())
	m.AddRows(movementRows(report.Movements)...)

	m.AddRows(line.NewRow(3))
	m.AddRows(footerRow(report.Batch.BatchNumber))

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar documento: %w", err)
	}
	return doc.GetBytes(), nil
}

func headerRow(r *dto.BatchTraceabilityReport) core.Row {
	statusColor := colorPrimary
	if r.Batch.Status == "EXPIRED" || r.Batch.Urgency == "CRITICAL" {
		statusColor = colorAlert
	}
	return row.New(18).Add(
		col.New(7).Add(
			text.New("LOTE "+r.Batch.BatchNumber, props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
			}),
			text.New("Producto: "+r.Batch.ProductCode, props.Text{Size: 9, Top: 9, Color: colorGray}),
		),
		col.New(5).Add(
			text.New("REPORTE DE TRAZABILIDAD", props.Text{
				Style: fontstyle.Bold, Size: 8, Align: align.Right, Color: colorPrimary, Top: 1,
			}),
			text.New(r.Batch.Status+" / "+r.Batch.Urgency, props.Text{
				Style: fontstyle.Bold, Size: 11, Align: align.Right, Top: 6, Color: statusColor,
			}),
			text.New("Generado: "+r.GeneratedAt.Format(dateLayout+" 15:04"), props.Text{
				Size: 8, Align: align.Right, Top: 13, Color: colorGray,
			}),
		),
	)
}

func batchInfoRow(b dto.BatchDTO) core.Row {
	expiration := "sin vencimiento"
	if b.ExpirationDate != nil {
		expiration = b.ExpirationDate.Format(dateLayout)
	}
	return row.New(20).Add(
		col.New(6).Add(
			text.New("Proveedor: "+nonEmpty(b.Supplier, "—"), props.Text{Size: 8, Top: 1}),
			text.New("Ubicación: "+nonEmpty(b.Location, "—"), props.Text{Size: 8, Top: 6}),
			text.New("Costo unitario: "+b.Cost.StringFixed(2), props.Text{Size: 8, Top: 11}),
		),
		col.New(6).Add(
			text.New("Producción: "+b.ProductionDate.Format(dateLayout), props.Text{Size: 8, Top: 1}),
			text.New("Vencimiento: "+expiration, props.Text{Size: 8, Top: 6}),
			text.New(fmt.Sprintf("Cantidad: %s (disp. %s / res. %s)",
				b.Quantity.String(), b.AvailableQuantity.String(), b.ReservedQuantity.String()),
				props.Text{Size: 8, Top: 11}),
		),
	)
}

func metricsRow(r *dto.BatchTraceabilityReport) core.Row {
	metric := func(label, value string) core.Col {
		return col.New(2).Add(
			text.New(label, props.Text{Size: 7, Align: align.Center, Color: colorGray, Top: 1}),
			text.New(value, props.Text{Style: fontstyle.Bold, Size: 10, Align: align.Center, Top: 6}),
		)
	}
	until := "—"
	if r.DaysUntilExpiration != nil {
		until = fmt.Sprintf("%d", *r.DaysUntilExpiration)
	}
	return row.New(14).Add(
		metric("Entrada", r.TotalInbound.String()),
		metric("Salida", r.TotalOutbound.String()),
		metric("Utilización %", r.UtilizationPercentage.StringFixed(2)),
		metric("Días en stock", fmt.Sprintf("%d", r.DaysInStock)),
		metric("Días al venc.", until),
		metric("Rotación/día", r.TurnoverRate.StringFixed(2)),
	)
}

func tableHeaderRow() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: a, Color: colorPrimary, Top: 2, Left: 1, Right: 1,
		}))
	}
	return row.New(8).Add(
		h("Seq", 1, align.Center),
		h("Fecha", 2, align.Left),
		h("Tipo", 2, align.Left),
		h("Cantidad", 2, align.Right),
		h("Orden", 2, align.Left),
		h("Motivo", 3, align.Left),
	)
}

func movementRows(ms []dto.MovementDTO) []core.Row {
	rows := make([]core.Row, 0, len(ms))
	for _, m := range ms {
		cell := func(s string, size int, a align.Type) core.Col {
			return col.New(size).Add(text.New(s, props.Text{Size: 8, Align: a, Top: 1, Left: 1, Right: 1}))
		}
		rows = append(rows, row.New(6).Add(
			cell(fmt.Sprintf("%d", m.Sequence), 1, align.Center),
			cell(m.CreatedAt.Format(dateLayout+" 15:04"), 2, align.Left),
			cell(m.Type, 2, align.Left),
			cell(m.Quantity.String(), 2, align.Right),
			cell(nonEmpty(m.OrderID, "—"), 2, align.Left),
			cell(m.Reason, 3, align.Left),
		))
	}
	if len(rows) == 0 {
		rows = append(rows, row.New(6).Add(col.New(12).Add(
			text.New("Sin movimientos registrados", props.Text{Size: 8, Align: align.Center, Color: colorGray}),
		)))
	}
	return rows
}

// footerRow QR con el número de lote para etiquetas físicas.
func footerRow(batchNumber string) core.Row {
	return row.New(40).Add(
		col.New(3).Add(code.NewQr(batchNumber, props.Rect{Percent: 95, Center: true})),
		col.New(9).Add(
			text.New("Escanee el código para consultar el lote "+batchNumber+".", props.Text{
				Size: 8, Top: 4, Left: 3, Color: colorGray,
			}),
		),
	)
}

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}
