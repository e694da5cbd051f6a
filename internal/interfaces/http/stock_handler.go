package http

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Inventario-lotes/internal/application/dto"
	"github.com/jhoicas/Inventario-lotes/internal/application/inventory"
	"github.com/jhoicas/Inventario-lotes/internal/domain/repository"
)

// StockHandler alta y consulta de stocks y de sus lotes (protegido).
type StockHandler struct {
	engine *inventory.AllocationEngine
}

// NewStockHandler construye el handler.
func NewStockHandler(engine *inventory.AllocationEngine) *StockHandler {
	return &StockHandler{engine: engine}
}

// Register godoc
// @Summary      Registrar stock (producto en ubicación)
// @Tags         stocks
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.RegisterStockRequest  true  "product_id, location_id y niveles"
// @Success      201   {object}  dto.DataResponse{data=dto.StockDTO}
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/stocks [post]
func (h *StockHandler) Register(c *fiber.Ctx) error {
	var in dto.RegisterStockRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	stock, err := h.engine.RegisterStock(c.UserContext(), inventory.RegisterStockInput{
		ProductID:    in.ProductID,
		ProductCode:  in.ProductCode,
		LocationID:   in.LocationID,
		LocationName: in.LocationName,
		MinimumLevel: in.MinimumLevel,
		MaximumLevel: in.MaximumLevel,
		ReorderPoint: in.ReorderPoint,
		CreatedBy:    GetUserID(c),
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.DataResponse{Data: dto.StockToDTO(stock), CompletedAt: stock.CreatedAt})
}

// List godoc
// @Summary      Listar stocks
// @Tags         stocks
// @Security     Bearer
// @Produce      json
// @Param        product_id   query  string  false  "Filtrar por producto"
// @Param        location_id  query  string  false  "Filtrar por ubicación"
// @Param        active_only  query  bool    false  "Solo activos"
// @Success      200  {object}  dto.DataResponse{data=[]dto.StockDTO}
// @Router       /api/stocks [get]
func (h *StockHandler) List(c *fiber.Ctx) error {
	list, err := h.engine.ListStocks(c.UserContext(), repository.StockFilter{
		ProductID:  c.Query("product_id"),
		LocationID: c.Query("location_id"),
		ActiveOnly: c.QueryBool("active_only", false),
	})
	if err != nil {
		return respondError(c, err)
	}
	out := make([]dto.StockDTO, 0, len(list))
	for _, s := range list {
		out = append(out, dto.StockToDTO(s))
	}
	return c.JSON(dto.DataResponse{Data: out, CompletedAt: time.Now()})
}

// GetByID godoc
// @Summary      Obtener stock por ID
// @Tags         stocks
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del stock"
// @Success      200  {object}  dto.DataResponse{data=dto.StockDTO}
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/stocks/{id} [get]
func (h *StockHandler) GetByID(c *fiber.Ctx) error {
	stock, err := h.engine.GetStock(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.DataResponse{Data: dto.StockToDTO(stock), CompletedAt: time.Now()})
}

// UpdateLevels godoc
// @Summary      Actualizar niveles mínimo, máximo y punto de reorden
// @Tags         stocks
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                        true  "ID del stock"
// @Param        body  body  dto.UpdateStockLevelsRequest  true  "Niveles"
// @Success      200   {object}  dto.DataResponse{data=dto.StockDTO}
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      503   {object}  dto.ErrorResponse
// @Router       /api/stocks/{id}/levels [put]
func (h *StockHandler) UpdateLevels(c *fiber.Ctx) error {
	var in dto.UpdateStockLevelsRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	stock, err := h.engine.UpdateStockLevels(c.UserContext(), c.Params("id"), inventory.StockLevels{
		MinimumLevel: in.MinimumLevel,
		MaximumLevel: in.MaximumLevel,
		ReorderPoint: in.ReorderPoint,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.DataResponse{Data: dto.StockToDTO(stock), CompletedAt: stock.UpdatedAt})
}

// Deactivate godoc
// @Summary      Desactivar stock
// @Description  Un stock inactivo no admite reservas ni lotes nuevos; consumo y liberación siguen disponibles.
// @Tags         stocks
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del stock"
// @Success      200  {object}  dto.DataResponse{data=dto.StockDTO}
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/stocks/{id} [delete]
func (h *StockHandler) Deactivate(c *fiber.Ctx) error {
	stock, err := h.engine.DeactivateStock(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.DataResponse{Data: dto.StockToDTO(stock), CompletedAt: stock.UpdatedAt})
}

// ListBatches godoc
// @Summary      Lotes de un stock con estado efectivo
// @Tags         batches
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del stock"
// @Success      200  {object}  dto.DataResponse{data=[]dto.BatchDTO}
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/stocks/{id}/batches [get]
func (h *StockHandler) ListBatches(c *fiber.Ctx) error {
	states, err := h.engine.ListBatches(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	at := time.Now()
	out := make([]dto.BatchDTO, 0, len(states))
	for _, s := range states {
		out = append(out, dto.BatchStateToDTO(s.Batch, s.Status, s.Urgency, s.DaysUntilExpiration))
		at = s.EvaluatedAt
	}
	return c.JSON(dto.DataResponse{Data: out, CompletedAt: at})
}

// CreateBatch godoc
// @Summary      Ingresar un lote
// @Description  Si batch_number viene vacío se genera LOT-AAAAMMDD-XXXXXXXXXXXX. Registra un movimiento INBOUND.
// @Tags         batches
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                  true  "ID del stock"
// @Param        body  body  dto.CreateBatchRequest  true  "Datos del lote"
// @Success      201   {object}  dto.DataResponse{data=dto.BatchOperationResponse}
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      503   {object}  dto.ErrorResponse
// @Router       /api/stocks/{id}/batches [post]
func (h *StockHandler) CreateBatch(c *fiber.Ctx) error {
	var in dto.CreateBatchRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	res, err := h.engine.CreateBatch(c.UserContext(), inventory.CreateBatchInput{
		StockID:        c.Params("id"),
		BatchNumber:    in.BatchNumber,
		Quantity:       in.Quantity,
		ProductionDate: in.ProductionDate,
		ExpirationDate: in.ExpirationDate,
		Supplier:       in.Supplier,
		Cost:           in.Cost,
		Location:       in.Location,
		Metadata:       in.Metadata,
		CreatedBy:      GetUserID(c),
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(batchOperationResponse(res))
}

func batchOperationResponse(res *inventory.BatchOperationResult) dto.DataResponse {
	return dto.DataResponse{
		Data: dto.BatchOperationResponse{
			Batch:    dto.BatchToDTO(res.Batch, res.CompletedAt),
			Stock:    dto.StockToDTO(res.Stock),
			Movement: dto.MovementToDTO(res.Movement),
		},
		CompletedAt: res.CompletedAt,
	}
}
