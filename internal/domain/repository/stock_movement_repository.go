package repository

import (
	"time"

	"github.com/tu-usuario/stock-ledger/internal/domain/entity"
)

// StockMovementRepository define el puerto de persistencia del libro de
// movimientos. Append-only: no existe Update ni Delete.
type StockMovementRepository interface {
	Create(movement *entity.StockMovement) error
	GetByID(id string) (*entity.StockMovement, error)
	ListByProduct(productID string, from, to *time.Time, limit, offset int) ([]*entity.StockMovement, error)
	ListByWarehouse(warehouseID string, from, to *time.Time, limit, offset int) ([]*entity.StockMovement, error)
	// ListByKey devuelve todos los movimientos de un par producto+bodega en
	// orden de inserción, para conciliación contra la proyección de stock.
	ListByKey(productID, warehouseID string) ([]*entity.StockMovement, error)
}
