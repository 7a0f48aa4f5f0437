package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/tu-usuario/stock-ledger/internal/application/inventory"
	"github.com/tu-usuario/stock-ledger/internal/domain/entity"
	kafkax "github.com/tu-usuario/stock-ledger/internal/kafka"
)

var _ inventory.MovementPublisher = (*MovementPublisher)(nil)

// MovementPublisher publica cada movimiento commiteado en stock.movement.
// Best-effort: el caso de uso lo invoca después del Commit.
type MovementPublisher struct {
	producer    *kafkax.Producer
	serviceName string
}

// NewMovementPublisher construye el publisher sobre un producer de stock.movement.
func NewMovementPublisher(producer *kafkax.Producer, serviceName string) *MovementPublisher {
	return &MovementPublisher{producer: producer, serviceName: serviceName}
}

// PublishMovement serializa y encola el evento del movimiento.
func (p *MovementPublisher) PublishMovement(_ context.Context, mov *entity.StockMovement) {
	payload, err := json.Marshal(StockMovementPayload{
		MovementID:     mov.ID,
		ProductID:      mov.ProductID,
		WarehouseID:    mov.WarehouseID,
		Type:           string(mov.Type),
		Quantity:       mov.Quantity,
		BeforeQuantity: mov.BeforeQuantity,
		AfterQuantity:  mov.AfterQuantity,
		ReferenceNo:    mov.ReferenceNo,
		CreatedAt:      mov.CreatedAt,
	})
	if err != nil {
		return
	}
	env := Envelope{
		EventID:       uuid.NewString(),
		EventType:     EventStockMovement,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      p.serviceName,
		CorrelationID: mov.ReferenceNo,
		Payload:       payload,
	}
	value, err := json.Marshal(env)
	if err != nil {
		return
	}
	p.producer.Publish(MovementPartitionKey(mov.ProductID, mov.WarehouseID), value)
}
