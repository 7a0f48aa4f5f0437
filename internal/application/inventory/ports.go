package inventory

import (
	"context"

	"github.com/tu-usuario/stock-ledger/internal/domain/entity"
	"github.com/tu-usuario/stock-ledger/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción de BD, pasando
// repositorios atados a esa tx. Garantiza que la actualización del stock y el
// insert en el libro de movimientos commitean como una sola unidad: ambos o
// ninguno. El lock de fila adquirido dentro de fn se libera en Commit/Rollback.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		movRepo repository.StockMovementRepository,
		stockRepo repository.StockRepository,
		productRepo repository.ProductRepository,
	) error) error
}

// MovementPublisher publica el evento de un movimiento ya commiteado.
// Best-effort: la publicación ocurre después del Commit y su falla no
// revierte la transacción.
type MovementPublisher interface {
	PublishMovement(ctx context.Context, movement *entity.StockMovement)
}
