package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Inventario-lotes/internal/application/inventory"
	"github.com/jhoicas/Inventario-lotes/internal/application/traceability"
	"github.com/jhoicas/Inventario-lotes/pkg/jwt"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Engine    *inventory.AllocationEngine
	Reporter  *traceability.Reporter
	JWTSecret string
}

// Router registra las rutas de la API. Todas requieren Bearer Token.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api", AuthMiddleware(deps.JWTSecret))

	stockHandler := NewStockHandler(deps.Engine)
	allocationHandler := NewAllocationHandler(deps.Engine)
	traceHandler := NewTraceabilityHandler(deps.Reporter)

	admin := RequireRole(jwt.RoleAdmin)
	warehouse := RequireRole(jwt.RoleAdmin, jwt.RoleBodeguero)
	sales := RequireRole(jwt.RoleAdmin, jwt.RoleBodeguero, jwt.RoleVendedor)

	// Stocks
	stocks := api.Group("/stocks")
	stocks.Post("/", admin, stockHandler.Register)
	stocks.Get("/", stockHandler.List)
	stocks.Get("/replenishment", traceHandler.Replenishment)
	stocks.Get("/:id", stockHandler.GetByID)
	stocks.Put("/:id/levels", admin, stockHandler.UpdateLevels)
	stocks.Delete("/:id", admin, stockHandler.Deactivate)
	stocks.Get("/:id/traceability", traceHandler.StockTraceability)

	// Lotes de un stock
	stocks.Get("/:id/batches", stockHandler.ListBatches)
	stocks.Post("/:id/batches", warehouse, stockHandler.CreateBatch)

	// Motor de asignación
	stocks.Post("/:id/reservations", sales, allocationHandler.Reserve)
	stocks.Post("/:id/batches/:batch/consume", warehouse, allocationHandler.Consume)
	stocks.Post("/:id/batches/:batch/release", sales, allocationHandler.Release)
	stocks.Post("/:id/batches/:batch/expire", warehouse, allocationHandler.Expire)

	// Trazabilidad
	batches := api.Group("/batches")
	batches.Get("/expiring", traceHandler.ExpiringBatches)
	batches.Get("/:batch/traceability", traceHandler.BatchTraceability)
	batches.Get("/:batch/traceability.pdf", traceHandler.BatchTraceabilityPDF)

	api.Get("/movements", traceHandler.MovementHistory)
}
