package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/tu-usuario/stock-ledger/internal/application/adjustment"
	"github.com/tu-usuario/stock-ledger/internal/application/count"
	"github.com/tu-usuario/stock-ledger/internal/application/journal"
	"github.com/tu-usuario/stock-ledger/internal/application/lot"
	"github.com/tu-usuario/stock-ledger/internal/application/reorder"
	"github.com/tu-usuario/stock-ledger/internal/application/reservation"
	"github.com/tu-usuario/stock-ledger/internal/application/transfer"
	"github.com/tu-usuario/stock-ledger/internal/application/usecase"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Journal      *journal.Journal
	Reservations *reservation.Manager
	Transfers    *transfer.Orchestrator
	Lots         *lot.Tracker
	Counts       *count.Reconciler
	Adjustments  *adjustment.UseCase
	Reorder      *reorder.Engine
	Products     *usecase.ProductUseCase
	Warehouses   *usecase.WarehouseUseCase
	JWTSecret    string
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	// Todas las rutas requieren Bearer Token
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))

	// Journal de movimientos y stock por celda
	stockHandler := NewStockHandler(deps.Journal)
	movements := protected.Group("/movements")
	movements.Post("/", stockHandler.AppendMovement)
	movements.Get("/", stockHandler.ListMovements)
	movements.Get("/:id", stockHandler.GetMovement)
	movements.Post("/:id/reverse", stockHandler.ReverseMovement)

	stock := protected.Group("/stock")
	stock.Get("/cell", stockHandler.GetCell)
	stock.Get("/available", stockHandler.GetAvailable)
	stock.Get("/products/:id", stockHandler.ListByProduct)
	stock.Get("/warehouses/:id", stockHandler.ListByWarehouse)

	// Reservas
	reservationHandler := NewReservationHandler(deps.Reservations)
	reservations := protected.Group("/reservations")
	reservations.Post("/", reservationHandler.Create)
	reservations.Get("/", reservationHandler.ListOpen)
	reservations.Get("/:id", reservationHandler.Get)
	reservations.Post("/:id/fulfill", reservationHandler.Fulfill)
	reservations.Post("/:id/release", reservationHandler.Release)

	// Transferencias entre bodegas
	transferHandler := NewTransferHandler(deps.Transfers)
	transfers := protected.Group("/transfers")
	transfers.Post("/", transferHandler.Create)
	transfers.Get("/", transferHandler.ListActive)
	transfers.Get("/:id", transferHandler.Get)
	transfers.Post("/:id/submit", transferHandler.Submit)
	transfers.Post("/:id/approve", transferHandler.Approve)
	transfers.Post("/:id/ship", transferHandler.Ship)
	transfers.Post("/:id/receive", transferHandler.Receive)
	transfers.Post("/:id/complete", transferHandler.Complete)
	transfers.Post("/:id/cancel", transferHandler.Cancel)

	// Lotes y seriales
	lotHandler := NewLotHandler(deps.Lots)
	lots := protected.Group("/lots")
	lots.Post("/receive", lotHandler.Receive)
	lots.Post("/allocate", lotHandler.Allocate)
	lots.Get("/products/:id", lotHandler.ListByProduct)
	lots.Get("/:id", lotHandler.Get)
	lots.Post("/:id/quarantine", lotHandler.Quarantine)
	lots.Post("/:id/approve", lotHandler.Approve)
	lots.Post("/:id/reject", lotHandler.Reject)
	lots.Post("/:id/consume", lotHandler.Consume)

	serials := protected.Group("/serials")
	serials.Post("/", lotHandler.RegisterSerial)
	serials.Get("/products/:id", lotHandler.ListSerialsByProduct)
	serials.Post("/:id/transition", lotHandler.TransitionSerial)

	// Conteos físicos
	countHandler := NewCountHandler(deps.Counts)
	counts := protected.Group("/counts")
	counts.Post("/", countHandler.Start)
	counts.Get("/", countHandler.List)
	counts.Get("/:id", countHandler.Get)
	counts.Post("/:id/lines", countHandler.RecordLine)
	counts.Post("/:id/complete", countHandler.Complete)
	counts.Post("/:id/approve", countHandler.Approve)
	counts.Post("/:id/reject", countHandler.Reject)
	counts.Post("/:id/cancel", countHandler.Cancel)
	counts.Post("/:id/process", countHandler.Process)

	// Ajustes de inventario
	adjustmentHandler := NewAdjustmentHandler(deps.Adjustments)
	adjustments := protected.Group("/adjustments")
	adjustments.Post("/", adjustmentHandler.Create)
	adjustments.Get("/", adjustmentHandler.List)
	adjustments.Get("/:id", adjustmentHandler.Get)
	adjustments.Post("/:id/submit", adjustmentHandler.Submit)
	adjustments.Post("/:id/approve", adjustmentHandler.Approve)
	adjustments.Post("/:id/reject", adjustmentHandler.Reject)
	adjustments.Post("/:id/cancel", adjustmentHandler.Cancel)
	adjustments.Post("/:id/process", adjustmentHandler.Process)

	// Catálogo
	productHandler := NewProductHandler(deps.Products)
	products := protected.Group("/products")
	products.Post("/", productHandler.Create)
	products.Get("/", productHandler.List)
	products.Get("/:id", productHandler.GetByID)
	products.Put("/:id", productHandler.Update)
	products.Delete("/:id", productHandler.Delete)

	warehouseHandler := NewWarehouseHandler(deps.Warehouses)
	warehouses := protected.Group("/warehouses")
	warehouses.Post("/", warehouseHandler.Create)
	warehouses.Get("/", warehouseHandler.List)
	warehouses.Get("/:id", warehouseHandler.GetByID)
	warehouses.Put("/:id", warehouseHandler.Update)

	// Reposición
	reorderHandler := NewReorderHandler(deps.Reorder)
	reorderGroup := protected.Group("/reorder")
	reorderGroup.Put("/rules", reorderHandler.SetRule)
	reorderGroup.Get("/rules", reorderHandler.GetRule)
	reorderGroup.Get("/suggestions", reorderHandler.ListSuggestions)
	reorderGroup.Post("/suggestions/:id/approve", reorderHandler.ApproveSuggestion)
	reorderGroup.Post("/suggestions/:id/reject", reorderHandler.RejectSuggestion)
	reorderGroup.Post("/suggestions/:id/cancel", reorderHandler.CancelSuggestion)
	reorderGroup.Post("/suggestions/:id/convert", reorderHandler.ConvertSuggestion)
}
