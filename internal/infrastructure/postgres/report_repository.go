package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tu-usuario/stock-ledger/internal/domain/repository"
)

var _ repository.ReportRepository = (*ReportRepo)(nil)

// ReportRepo agregaciones de solo lectura sobre stock y stock_movements.
// Ninguna consulta bloquea filas.
type ReportRepo struct {
	q Querier
}

// NewReportRepository construye el adaptador de reportes. Pasar el pool.
func NewReportRepository(q Querier) *ReportRepo {
	return &ReportRepo{q: q}
}

// Clases de dirección por tipo de movimiento, para las sumas por rango.
const (
	inboundTypesSQL  = `('PURCHASE_IN','RETURN_IN','TRANSFER_IN','ADJUST_IN','COUNT_IN')`
	outboundTypesSQL = `('SALES_OUT','RETURN_OUT','TRANSFER_OUT','ADJUST_OUT','COUNT_OUT')`
)

const stockListSelect = `
	SELECT s.product_id, s.warehouse_id, p.sku, p.name,
	       s.quantity, s.reserved_quantity, s.last_movement_at
	FROM stock s
	JOIN products p ON p.id = s.product_id`

// ListLowStock productos con 0 < cantidad <= threshold.
func (r *ReportRepo) ListLowStock(ctx context.Context, warehouseID string, threshold int64, limit, offset int) ([]repository.StockListItem, error) {
	query := stockListSelect + `
	WHERE s.quantity > 0 AND s.quantity <= $1`
	args := []any{threshold}
	pos := 2
	if warehouseID != "" {
		query += fmt.Sprintf(" AND s.warehouse_id = $%d", pos)
		args = append(args, warehouseID)
		pos++
	}
	query += fmt.Sprintf(" ORDER BY s.quantity ASC LIMIT $%d OFFSET $%d", pos, pos+1)
	args = append(args, limit, offset)
	return r.listStock(ctx, query, args...)
}

// ListOutOfStock productos agotados (cantidad = 0). Las filas en cero no se
// borran, por eso siguen siendo listables.
func (r *ReportRepo) ListOutOfStock(ctx context.Context, warehouseID string, limit, offset int) ([]repository.StockListItem, error) {
	query := stockListSelect + `
	WHERE s.quantity = 0`
	args := []any{}
	pos := 1
	if warehouseID != "" {
		query += fmt.Sprintf(" AND s.warehouse_id = $%d", pos)
		args = append(args, warehouseID)
		pos++
	}
	query += fmt.Sprintf(" ORDER BY s.last_movement_at DESC LIMIT $%d OFFSET $%d", pos, pos+1)
	args = append(args, limit, offset)
	return r.listStock(ctx, query, args...)
}

// ListReserved productos con reserva vigente.
func (r *ReportRepo) ListReserved(ctx context.Context, warehouseID string, limit, offset int) ([]repository.StockListItem, error) {
	query := stockListSelect + `
	WHERE s.reserved_quantity > 0`
	args := []any{}
	pos := 1
	if warehouseID != "" {
		query += fmt.Sprintf(" AND s.warehouse_id = $%d", pos)
		args = append(args, warehouseID)
		pos++
	}
	query += fmt.Sprintf(" ORDER BY s.reserved_quantity DESC LIMIT $%d OFFSET $%d", pos, pos+1)
	args = append(args, limit, offset)
	return r.listStock(ctx, query, args...)
}

func (r *ReportRepo) listStock(ctx context.Context, query string, args ...any) ([]repository.StockListItem, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list stock report: %w", err)
	}
	defer rows.Close()
	var items []repository.StockListItem
	for rows.Next() {
		var it repository.StockListItem
		if err := rows.Scan(
			&it.ProductID, &it.WarehouseID, &it.SKU, &it.ProductName,
			&it.Quantity, &it.ReservedQuantity, &it.LastMovementAt,
		); err != nil {
			return nil, fmt.Errorf("scan stock report row: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// Valuation suma cantidad × costo unitario del producto. warehouseID vacío = global.
func (r *ReportRepo) Valuation(ctx context.Context, warehouseID string) (decimal.Decimal, error) {
	query := `
		SELECT COALESCE(SUM(s.quantity * p.cost), 0)
		FROM stock s
		JOIN products p ON p.id = s.product_id`
	args := []any{}
	if warehouseID != "" {
		query += ` WHERE s.warehouse_id = $1`
		args = append(args, warehouseID)
	}
	var total decimal.Decimal
	if err := r.q.QueryRow(ctx, query, args...).Scan(&total); err != nil {
		return decimal.Zero, fmt.Errorf("inventory valuation: %w", err)
	}
	return total, nil
}

// MovementTotals sumas de cantidades entrantes y salientes en el rango.
func (r *ReportRepo) MovementTotals(ctx context.Context, warehouseID string, from, to time.Time) (repository.MovementTotals, error) {
	query := `
		SELECT
			COALESCE(SUM(quantity) FILTER (WHERE movement_type IN ` + inboundTypesSQL + `), 0),
			COALESCE(SUM(quantity) FILTER (WHERE movement_type IN ` + outboundTypesSQL + `), 0)
		FROM stock_movements
		WHERE created_at >= $1 AND created_at <= $2`
	args := []any{from, to}
	if warehouseID != "" {
		query += ` AND warehouse_id = $3`
		args = append(args, warehouseID)
	}
	var totals repository.MovementTotals
	if err := r.q.QueryRow(ctx, query, args...).Scan(&totals.Inbound, &totals.Outbound); err != nil {
		return repository.MovementTotals{}, fmt.Errorf("movement totals: %w", err)
	}
	return totals, nil
}

// OutboundByProduct salidas acumuladas por producto en el rango, mayor volumen
// primero. Insumo de la priorización de reposición.
func (r *ReportRepo) OutboundByProduct(ctx context.Context, from, to time.Time, limit int) ([]repository.ProductMovementSum, error) {
	query := `
		SELECT m.product_id, p.sku, COALESCE(SUM(m.quantity), 0) AS total_out
		FROM stock_movements m
		JOIN products p ON p.id = m.product_id
		WHERE m.movement_type IN ` + outboundTypesSQL + `
		  AND m.created_at >= $1 AND m.created_at <= $2
		GROUP BY m.product_id, p.sku
		ORDER BY total_out DESC
		LIMIT $3`
	rows, err := r.q.Query(ctx, query, from, to, limit)
	if err != nil {
		return nil, fmt.Errorf("outbound by product: %w", err)
	}
	defer rows.Close()
	var sums []repository.ProductMovementSum
	for rows.Next() {
		var s repository.ProductMovementSum
		if err := rows.Scan(&s.ProductID, &s.SKU, &s.Quantity); err != nil {
			return nil, fmt.Errorf("scan outbound sum: %w", err)
		}
		sums = append(sums, s)
	}
	return sums, rows.Err()
}

// GetProductsBelowReorderPoint productos cuyo stock actual (en la bodega
// indicada, o agregado si warehouseID es vacío) es menor que su punto de
// reorden. Ordena por déficit descendente (mayor quiebre primero).
func (r *ReportRepo) GetProductsBelowReorderPoint(ctx context.Context, warehouseID string) ([]repository.ReplenishmentItem, error) {
	var (
		query string
		args  []any
	)

	if warehouseID != "" {
		query = `
			SELECT
				p.id,
				p.sku,
				p.name,
				COALESCE(s.quantity, 0) AS current_stock,
				p.reorder_point,
				p.cost
			FROM products p
			LEFT JOIN stock s ON s.product_id = p.id AND s.warehouse_id = $1
			WHERE p.reorder_point > 0
			  AND COALESCE(s.quantity, 0) < p.reorder_point
			ORDER BY (p.reorder_point - COALESCE(s.quantity, 0)) DESC`
		args = []any{warehouseID}
	} else {
		query = `
			SELECT
				p.id,
				p.sku,
				p.name,
				COALESCE(SUM(s.quantity), 0) AS current_stock,
				p.reorder_point,
				p.cost
			FROM products p
			LEFT JOIN stock s ON s.product_id = p.id
			WHERE p.reorder_point > 0
			GROUP BY p.id, p.sku, p.name, p.reorder_point, p.cost
			HAVING COALESCE(SUM(s.quantity), 0) < p.reorder_point
			ORDER BY (p.reorder_point - COALESCE(SUM(s.quantity), 0)) DESC`
	}

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("get products below reorder point: %w", err)
	}
	defer rows.Close()

	var items []repository.ReplenishmentItem
	for rows.Next() {
		var item repository.ReplenishmentItem
		if err := rows.Scan(
			&item.ProductID, &item.SKU, &item.ProductName,
			&item.CurrentStock, &item.ReorderPoint, &item.UnitCost,
		); err != nil {
			return nil, fmt.Errorf("scan replenishment item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}
