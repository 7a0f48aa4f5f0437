package repository

import "github.com/tu-usuario/stock-ledger/internal/domain/entity"

// StockRepository define el puerto para consultar/actualizar stock por
// producto+bodega. Las variantes ForUpdate solo tienen sentido dentro de una
// transacción: bloquean la fila hasta el Commit/Rollback.
type StockRepository interface {
	// Get lectura simple, sin bloqueo. Retorna domain.ErrNotFound si no existe fila.
	Get(productID, warehouseID string) (*entity.Stock, error)

	// GetForUpdate bloquea la fila (SELECT FOR UPDATE) y la retorna.
	// Retorna domain.ErrNotFound si no existe: los paths de salida y reserva
	// asumen fila preexistente.
	GetForUpdate(productID, warehouseID string) (*entity.Stock, error)

	// GetOrCreateForUpdate crea la fila en cero si no existe y la retorna
	// bloqueada. Evita la carrera del primer movimiento de un par
	// producto+bodega; solo los paths de entrada la usan.
	GetOrCreateForUpdate(productID, warehouseID string) (*entity.Stock, error)

	// Update persiste las cantidades de una fila ya bloqueada.
	Update(stock *entity.Stock) error
}
