package http

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Inventario-lotes/internal/application/dto"
	"github.com/jhoicas/Inventario-lotes/internal/application/traceability"
	"github.com/jhoicas/Inventario-lotes/internal/domain"
)

// TraceabilityHandler reportes de solo lectura (protegido).
type TraceabilityHandler struct {
	reporter *traceability.Reporter
}

// NewTraceabilityHandler construye el handler.
func NewTraceabilityHandler(reporter *traceability.Reporter) *TraceabilityHandler {
	return &TraceabilityHandler{reporter: reporter}
}

// BatchTraceability godoc
// @Summary      Trazabilidad de un lote
// @Description  Lote, movimientos en orden cronológico, utilización, días en stock y rotación.
// @Tags         traceability
// @Security     Bearer
// @Produce      json
// @Param        batch  path  string  true  "Número de lote"
// @Success      200    {object}  dto.DataResponse{data=dto.BatchTraceabilityReport}
// @Failure      404    {object}  dto.ErrorResponse
// @Router       /api/batches/{batch}/traceability [get]
func (h *TraceabilityHandler) BatchTraceability(c *fiber.Ctx) error {
	report, err := h.reporter.BatchTraceability(c.UserContext(), c.Params("batch"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.DataResponse{Data: report, CompletedAt: report.GeneratedAt})
}

// BatchTraceabilityPDF godoc
// @Summary      Trazabilidad de un lote en PDF
// @Tags         traceability
// @Security     Bearer
// @Produce      application/pdf
// @Param        batch  path  string  true  "Número de lote"
// @Success      200    {file}    binary
// @Failure      404    {object}  dto.ErrorResponse
// @Router       /api/batches/{batch}/traceability.pdf [get]
func (h *TraceabilityHandler) BatchTraceabilityPDF(c *fiber.Ctx) error {
	batchNumber := c.Params("batch")
	pdf, err := h.reporter.BatchTraceabilityPDF(c.UserContext(), batchNumber)
	if err != nil {
		return respondError(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, `inline; filename="trazabilidad-`+batchNumber+`.pdf"`)
	return c.Send(pdf)
}

// ExpiringBatches godoc
// @Summary      Lotes próximos a vencer
// @Description  Incluye los ya vencidos. Orden: días al vencimiento ascendente.
// @Tags         traceability
// @Security     Bearer
// @Produce      json
// @Param        days  query  int  false  "Ventana en días (por defecto 30)"
// @Success      200   {object}  dto.DataResponse{data=dto.ExpiringBatchesReport}
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/batches/expiring [get]
func (h *TraceabilityHandler) ExpiringBatches(c *fiber.Ctx) error {
	days := 0
	if raw := c.Query("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return respondError(c, domain.NewError(domain.ErrInvalidInput, domain.Ref{}, "days inválido: %q", raw))
		}
		days = n
	}
	report, err := h.reporter.ExpiringBatches(c.UserContext(), days)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.DataResponse{Data: report, CompletedAt: report.GeneratedAt})
}

// MovementHistory godoc
// @Summary      Historial de movimientos
// @Tags         traceability
// @Security     Bearer
// @Produce      json
// @Param        stock_id      query  string  false  "Filtrar por stock"
// @Param        batch_number  query  string  false  "Filtrar por lote"
// @Param        type          query  string  false  "INBOUND, RESERVED, CONSUMED, RELEASED, EXPIRE, ADJUSTMENT, TRANSFER"
// @Param        limit         query  int     false  "Tamaño de página (máx. 200)"
// @Param        offset        query  int     false  "Desplazamiento"
// @Success      200  {object}  dto.DataResponse{data=dto.MovementHistoryResponse}
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/movements [get]
func (h *TraceabilityHandler) MovementHistory(c *fiber.Ctx) error {
	var req dto.MovementHistoryRequest
	if err := c.QueryParser(&req); err != nil {
		return respondError(c, domain.NewError(domain.ErrInvalidInput, domain.Ref{}, "parámetros inválidos"))
	}
	out, err := h.reporter.MovementHistory(c.UserContext(), req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.DataResponse{Data: out, CompletedAt: time.Now()})
}

// StockTraceability godoc
// @Summary      Trazabilidad de un stock
// @Description  Lotes por estado, costo promedio ponderado, valor del inventario y utilización por lote.
// @Tags         traceability
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del stock"
// @Success      200  {object}  dto.DataResponse{data=dto.StockTraceabilityReport}
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/stocks/{id}/traceability [get]
func (h *TraceabilityHandler) StockTraceability(c *fiber.Ctx) error {
	report, err := h.reporter.StockTraceability(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.DataResponse{Data: report, CompletedAt: report.GeneratedAt})
}

// Replenishment godoc
// @Summary      Lista de reposición
// @Description  Stocks activos en o bajo su punto de reorden con la cantidad sugerida de pedido,
//
//	ordenados por déficit.
//
// @Tags         traceability
// @Security     Bearer
// @Produce      json
// @Param        location_id  query  string  false  "Filtrar por ubicación. Vacío = todas."
// @Success      200  {object}  dto.DataResponse{data=[]dto.ReplenishmentSuggestionDTO}
// @Router       /api/stocks/replenishment [get]
func (h *TraceabilityHandler) Replenishment(c *fiber.Ctx) error {
	list, err := h.reporter.Replenishment(c.UserContext(), c.Query("location_id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.DataResponse{Data: list, CompletedAt: time.Now()})
}
