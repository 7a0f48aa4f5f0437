package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/tu-usuario/stock-ledger/internal/domain"
	"github.com/tu-usuario/stock-ledger/internal/domain/entity"
	"github.com/tu-usuario/stock-ledger/internal/domain/repository"
)

var _ repository.StockRepository = (*StockRepo)(nil)

// StockRepo implementación de StockRepository sobre PostgreSQL (usable con
// pool o tx). Las variantes ForUpdate requieren estar dentro de una tx.
type StockRepo struct {
	q Querier
}

// NewStockRepository construye el adaptador de stock. Pasar pool o tx (Querier).
func NewStockRepository(q Querier) *StockRepo {
	return &StockRepo{q: q}
}

const stockColumns = `product_id, warehouse_id, quantity, reserved_quantity, last_movement_at`

// Get obtiene el stock actual de un producto en una bodega, sin bloqueo.
func (r *StockRepo) Get(productID, warehouseID string) (*entity.Stock, error) {
	query := `
		SELECT ` + stockColumns + `
		FROM stock WHERE product_id = $1 AND warehouse_id = $2`
	return r.scanOne(query, productID, warehouseID)
}

// GetForUpdate obtiene el stock y bloquea la fila (SELECT FOR UPDATE) hasta el
// fin de la transacción. Retorna domain.ErrNotFound si el par no tiene fila.
func (r *StockRepo) GetForUpdate(productID, warehouseID string) (*entity.Stock, error) {
	query := `
		SELECT ` + stockColumns + `
		FROM stock WHERE product_id = $1 AND warehouse_id = $2
		FOR UPDATE`
	return r.scanOne(query, productID, warehouseID)
}

// GetOrCreateForUpdate crea la fila en cero si no existe y la retorna
// bloqueada. Dos transacciones compitiendo por el primer movimiento del par
// se resuelven por la violación del constraint único: la perdedora re-lee la
// fila de la ganadora ya bloqueable.
func (r *StockRepo) GetOrCreateForUpdate(productID, warehouseID string) (*entity.Stock, error) {
	stock, err := r.GetForUpdate(productID, warehouseID)
	if err == nil {
		return stock, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	insert := `
		INSERT INTO stock (product_id, warehouse_id, quantity, reserved_quantity, last_movement_at)
		VALUES ($1, $2, 0, 0, now())`
	if _, err := r.q.Exec(context.Background(), insert, productID, warehouseID); err != nil {
		if isUniqueViolation(err) {
			// Otra tx creó la fila primero: re-leer bloqueando.
			return r.GetForUpdate(productID, warehouseID)
		}
		return nil, fmt.Errorf("create stock row: %w", err)
	}
	return r.GetForUpdate(productID, warehouseID)
}

// Update persiste las cantidades de una fila ya bloqueada por esta tx.
func (r *StockRepo) Update(stock *entity.Stock) error {
	query := `
		UPDATE stock
		SET quantity = $3, reserved_quantity = $4, last_movement_at = $5
		WHERE product_id = $1 AND warehouse_id = $2`
	ct, err := r.q.Exec(context.Background(), query,
		stock.ProductID, stock.WarehouseID,
		stock.Quantity, stock.ReservedQuantity, stock.LastMovementAt,
	)
	if err != nil {
		return fmt.Errorf("update stock: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *StockRepo) scanOne(query, productID, warehouseID string) (*entity.Stock, error) {
	var s entity.Stock
	err := r.q.QueryRow(context.Background(), query, productID, warehouseID).Scan(
		&s.ProductID, &s.WarehouseID, &s.Quantity, &s.ReservedQuantity, &s.LastMovementAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get stock: %w", err)
	}
	return &s, nil
}
