package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/tu-usuario/stock-ledger/internal/application/dto"
	"github.com/tu-usuario/stock-ledger/internal/application/inventory"
)

// ReportsHandler maneja las consultas de solo lectura del inventario (protegido).
type ReportsHandler struct {
	uc *inventory.ReportsUseCase
}

// NewReportsHandler construye el handler de reportes.
func NewReportsHandler(uc *inventory.ReportsUseCase) *ReportsHandler {
	return &ReportsHandler{uc: uc}
}

// GetStock proyección actual de un par producto+bodega.
// GET /api/inventory/stock/:productId/:warehouseId
func (h *ReportsHandler) GetStock(c *fiber.Ctx) error {
	stock, err := h.uc.GetStock(c.Context(), c.Params("productId"), c.Params("warehouseId"))
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(stock)
}

// LowStock productos con 0 < cantidad <= threshold.
// GET /api/inventory/reports/low-stock?threshold=10&warehouse_id=...
func (h *ReportsHandler) LowStock(c *fiber.Ctx) error {
	threshold := int64(c.QueryInt("threshold", 10))
	list, err := h.uc.ListLowStock(c.Context(), c.Query("warehouse_id"), threshold, pageFromQuery(c))
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(fiber.Map{"total": len(list), "items": list})
}

// OutOfStock productos agotados. GET /api/inventory/reports/out-of-stock
func (h *ReportsHandler) OutOfStock(c *fiber.Ctx) error {
	list, err := h.uc.ListOutOfStock(c.Context(), c.Query("warehouse_id"), pageFromQuery(c))
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(fiber.Map{"total": len(list), "items": list})
}

// Reserved productos con reserva vigente. GET /api/inventory/reports/reserved
func (h *ReportsHandler) Reserved(c *fiber.Ctx) error {
	list, err := h.uc.ListReserved(c.Context(), c.Query("warehouse_id"), pageFromQuery(c))
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(fiber.Map{"total": len(list), "items": list})
}

// Valuation valorización del inventario (cantidad × costo unitario).
// GET /api/inventory/reports/valuation?warehouse_id=...
func (h *ReportsHandler) Valuation(c *fiber.Ctx) error {
	total, err := h.uc.Valuation(c.Context(), c.Query("warehouse_id"))
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(fiber.Map{"valuation": total})
}

// MovementTotals sumas de entradas/salidas en un rango de fechas.
// GET /api/inventory/reports/movement-totals?from=2026-01-01&to=2026-02-01
func (h *ReportsHandler) MovementTotals(c *fiber.Ctx) error {
	from, err := time.Parse("2006-01-02", c.Query("from"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "from inválido (YYYY-MM-DD)"})
	}
	to, err := time.Parse("2006-01-02", c.Query("to"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "to inválido (YYYY-MM-DD)"})
	}
	totals, err := h.uc.MovementTotals(c.Context(), c.Query("warehouse_id"), from, to)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(totals)
}

// Movements historial del libro para un producto.
// GET /api/inventory/movements?product_id=...&from=...&to=...
func (h *ReportsHandler) Movements(c *fiber.Ctx) error {
	var from, to *time.Time
	if s := c.Query("from"); s != "" {
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "from inválido (YYYY-MM-DD)"})
		}
		from = &t
	}
	if s := c.Query("to"); s != "" {
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "to inválido (YYYY-MM-DD)"})
		}
		to = &t
	}
	list, err := h.uc.ListMovementsByProduct(c.Context(), c.Query("product_id"), from, to, pageFromQuery(c))
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(fiber.Map{"total": len(list), "movements": list})
}

// ReplenishmentList SKUs bajo punto de reorden con cantidad sugerida de pedido.
// GET /api/inventory/replenishment-list?warehouse_id=...
func (h *ReportsHandler) ReplenishmentList(c *fiber.Ctx) error {
	list, err := h.uc.GenerateReplenishmentList(c.Context(), c.Query("warehouse_id"))
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(fiber.Map{"total": len(list), "replenishments": list})
}

// Reconcile replay del libro de un par contra su proyección vigente.
// GET /api/inventory/reconciliation/:productId/:warehouseId
func (h *ReportsHandler) Reconcile(c *fiber.Ctx) error {
	result, err := h.uc.Reconcile(c.Context(), c.Params("productId"), c.Params("warehouseId"))
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(result)
}

func pageFromQuery(c *fiber.Ctx) dto.PageRequest {
	page := dto.PageRequest{
		Limit:  c.QueryInt("limit", 20),
		Offset: c.QueryInt("offset", 0),
	}
	page.DefaultPage()
	return page
}
