package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/tu-usuario/stock-ledger/internal/application/inventory"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	StockUC   *inventory.StockUseCase
	ReportsUC *inventory.ReportsUseCase
	JWTSecret string
}

// Roles de la aplicación.
const (
	RoleAdmin     = "admin"
	RoleBodeguero = "bodeguero"
	RoleAuditor   = "auditor"
)

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("/inventory", AuthMiddleware(deps.JWTSecret))

	invHandler := NewInventoryHandler(deps.StockUC)
	reportsHandler := NewReportsHandler(deps.ReportsUC)

	// Mutaciones: solo admin y bodeguero
	mutate := protected.Group("/", RequireRole(RoleAdmin, RoleBodeguero))
	mutate.Post("/movements", invHandler.RegisterMovement)
	mutate.Post("/adjustments", invHandler.Adjust)
	mutate.Post("/transfers", invHandler.Transfer)
	mutate.Post("/reservations", invHandler.Reserve)
	mutate.Post("/reservations/release", invHandler.Release)
	mutate.Post("/shipments", invHandler.ConfirmShipment)
	mutate.Post("/orders/reserve", invHandler.ReserveOrder)
	mutate.Post("/orders/release", invHandler.ReleaseOrder)
	mutate.Post("/orders/ship", invHandler.ShipOrder)

	// Lecturas: cualquier rol autenticado
	protected.Get("/stock/:productId/:warehouseId", reportsHandler.GetStock)
	protected.Get("/movements", reportsHandler.Movements)
	protected.Get("/reports/low-stock", reportsHandler.LowStock)
	protected.Get("/reports/out-of-stock", reportsHandler.OutOfStock)
	protected.Get("/reports/reserved", reportsHandler.Reserved)
	protected.Get("/reports/valuation", reportsHandler.Valuation)
	protected.Get("/reports/movement-totals", reportsHandler.MovementTotals)
	protected.Get("/replenishment-list", reportsHandler.ReplenishmentList)
	protected.Get("/reconciliation/:productId/:warehouseId", reportsHandler.Reconcile)
}
