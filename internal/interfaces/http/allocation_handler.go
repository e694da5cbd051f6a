package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Inventario-lotes/internal/application/dto"
	"github.com/jhoicas/Inventario-lotes/internal/application/inventory"
)

// AllocationHandler operaciones del motor de asignación sobre lotes (protegido).
type AllocationHandler struct {
	engine *inventory.AllocationEngine
}

// NewAllocationHandler construye el handler.
func NewAllocationHandler(engine *inventory.AllocationEngine) *AllocationHandler {
	return &AllocationHandler{engine: engine}
}

// Reserve godoc
// @Summary      Reservar cantidad de un stock
// @Description  Toma lotes en orden FEFO (prefer_fefo=true) o FIFO. Todo o nada.
// @Tags         allocation
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string              true  "ID del stock"
// @Param        body  body  dto.ReserveRequest  true  "quantity, order_id, prefer_fefo"
// @Success      201   {object}  dto.DataResponse{data=dto.ReservationResponse}
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      503   {object}  dto.ErrorResponse
// @Router       /api/stocks/{id}/reservations [post]
func (h *AllocationHandler) Reserve(c *fiber.Ctx) error {
	var in dto.ReserveRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	res, err := h.engine.Reserve(c.UserContext(), inventory.ReserveInput{
		StockID:    c.Params("id"),
		Quantity:   in.Quantity,
		OrderID:    in.OrderID,
		PreferFEFO: in.PreferFEFO,
		ReservedBy: GetUserID(c),
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.DataResponse{
		Data: dto.ReservationResponse{
			StockID:     res.StockID,
			OrderID:     res.OrderID,
			Policy:      string(res.Policy),
			Allocations: dto.AllocationsToDTO(res.Allocations),
			Stock:       dto.StockToDTO(res.Stock),
			Movements:   dto.MovementsToDTO(res.Movements),
		},
		CompletedAt: res.CompletedAt,
	})
}

// Consume godoc
// @Summary      Consumir cantidad reservada de un lote
// @Tags         allocation
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id     path  string                    true  "ID del stock"
// @Param        batch  path  string                    true  "Número de lote"
// @Param        body   body  dto.BatchQuantityRequest  true  "quantity, order_id"
// @Success      200    {object}  dto.DataResponse{data=dto.BatchOperationResponse}
// @Failure      400    {object}  dto.ErrorResponse
// @Failure      404    {object}  dto.ErrorResponse
// @Failure      503    {object}  dto.ErrorResponse
// @Router       /api/stocks/{id}/batches/{batch}/consume [post]
func (h *AllocationHandler) Consume(c *fiber.Ctx) error {
	var in dto.BatchQuantityRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	res, err := h.engine.Consume(c.UserContext(), inventory.ConsumeInput{
		StockID:     c.Params("id"),
		BatchNumber: c.Params("batch"),
		Quantity:    in.Quantity,
		OrderID:     in.OrderID,
		ConsumedBy:  GetUserID(c),
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(batchOperationResponse(res))
}

// Release godoc
// @Summary      Liberar cantidad reservada de un lote
// @Tags         allocation
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id     path  string                    true  "ID del stock"
// @Param        batch  path  string                    true  "Número de lote"
// @Param        body   body  dto.BatchQuantityRequest  true  "quantity, order_id, reason"
// @Success      200    {object}  dto.DataResponse{data=dto.BatchOperationResponse}
// @Failure      400    {object}  dto.ErrorResponse
// @Failure      404    {object}  dto.ErrorResponse
// @Failure      500    {object}  dto.ErrorResponse
// @Failure      503    {object}  dto.ErrorResponse
// @Router       /api/stocks/{id}/batches/{batch}/release [post]
func (h *AllocationHandler) Release(c *fiber.Ctx) error {
	var in dto.BatchQuantityRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	res, err := h.engine.Release(c.UserContext(), inventory.ReleaseInput{
		StockID:     c.Params("id"),
		BatchNumber: c.Params("batch"),
		Quantity:    in.Quantity,
		OrderID:     in.OrderID,
		Reason:      in.Reason,
		ReleasedBy:  GetUserID(c),
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(batchOperationResponse(res))
}

// Expire godoc
// @Summary      Dar de baja el disponible de un lote vencido
// @Tags         allocation
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id     path  string                  true   "ID del stock"
// @Param        batch  path  string                  true   "Número de lote"
// @Param        body   body  dto.ExpireBatchRequest  false  "reason"
// @Success      200    {object}  dto.DataResponse{data=dto.BatchOperationResponse}
// @Failure      404    {object}  dto.ErrorResponse
// @Failure      409    {object}  dto.ErrorResponse
// @Router       /api/stocks/{id}/batches/{batch}/expire [post]
func (h *AllocationHandler) Expire(c *fiber.Ctx) error {
	var in dto.ExpireBatchRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&in); err != nil {
			return badBody(c)
		}
	}
	res, err := h.engine.ExpireBatch(c.UserContext(), inventory.ExpireBatchInput{
		StockID:     c.Params("id"),
		BatchNumber: c.Params("batch"),
		Reason:      in.Reason,
		CreatedBy:   GetUserID(c),
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(batchOperationResponse(res))
}
