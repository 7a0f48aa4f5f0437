package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// StockListItem fila cruda para los listados de stock (bajo stock, agotados,
// reservados). Incluye datos denormalizados del producto para el reporte.
type StockListItem struct {
	ProductID        string
	WarehouseID      string
	SKU              string
	ProductName      string
	Quantity         int64
	ReservedQuantity int64
	LastMovementAt   time.Time
}

// MovementTotals sumas de cantidades por clase de dirección en un rango de
// fechas. Insumo del pronóstico de compras.
type MovementTotals struct {
	Inbound  int64
	Outbound int64
}

// ProductMovementSum cantidad saliente acumulada de un producto en el rango.
type ProductMovementSum struct {
	ProductID string
	SKU       string
	Quantity  int64
}

// ReplenishmentItem resultado crudo para un producto bajo punto de reorden.
type ReplenishmentItem struct {
	ProductID    string
	SKU          string
	ProductName  string
	CurrentStock int64
	ReorderPoint int64
	UnitCost     decimal.Decimal
}

// ReportRepository puerto de solo lectura para las agregaciones del inventario.
// Las lecturas no toman el lock exclusivo: un read-then-mutate debe pasar por
// una operación de mutación, no por estas consultas.
type ReportRepository interface {
	// ListLowStock productos con 0 < cantidad <= threshold. warehouseID vacío = todas las bodegas.
	ListLowStock(ctx context.Context, warehouseID string, threshold int64, limit, offset int) ([]StockListItem, error)
	// ListOutOfStock productos con cantidad = 0 (las filas en cero siguen siendo consultables).
	ListOutOfStock(ctx context.Context, warehouseID string, limit, offset int) ([]StockListItem, error)
	// ListReserved productos con reserva vigente (reserved_quantity > 0).
	ListReserved(ctx context.Context, warehouseID string, limit, offset int) ([]StockListItem, error)
	// Valuation suma cantidad × costo unitario. warehouseID vacío = global.
	Valuation(ctx context.Context, warehouseID string) (decimal.Decimal, error)
	// MovementTotals sumas de entradas y salidas en el rango de fechas.
	MovementTotals(ctx context.Context, warehouseID string, from, to time.Time) (MovementTotals, error)
	// OutboundByProduct salidas acumuladas por producto en el rango (mayor volumen primero).
	OutboundByProduct(ctx context.Context, from, to time.Time, limit int) ([]ProductMovementSum, error)
	// GetProductsBelowReorderPoint productos cuyo stock actual es menor que su
	// punto de reorden, mayor déficit primero. warehouseID vacío = stock agregado.
	GetProductsBelowReorderPoint(ctx context.Context, warehouseID string) ([]ReplenishmentItem, error)
}
