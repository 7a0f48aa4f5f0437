package events

import (
	"encoding/json"
	"time"
)

// Tipos de evento intercambiados con el subsistema de órdenes.
const (
	EventOrderCreated   = "OrderCreated"
	EventOrderCancelled = "OrderCancelled"
	EventOrderShipped   = "OrderShipped"
	EventStockReserved  = "StockReserved"
	EventStockRejected  = "StockRejected"
	EventStockMovement  = "StockMovement"
)

// Envelope sobre común de todos los eventos.
type Envelope struct {
	EventID       string          `json:"event_id"`   // uuid
	EventType     string          `json:"event_type"` // una de las consts de arriba
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"` // RFC3339
	Producer      string          `json:"producer"`    // e.g., "stock-ledger-api"
	CorrelationID string          `json:"correlation_id,omitempty"` // normalmente order_id
	Payload       json.RawMessage `json:"payload"`
}

// OrderLineItem línea de orden como viaja en los eventos.
type OrderLineItem struct {
	ProductID   string `json:"product_id"`
	WarehouseID string `json:"warehouse_id"`
	Qty         int64  `json:"qty"`
}

// OrderCreatedPayload el subsistema de órdenes pide reservar las líneas.
type OrderCreatedPayload struct {
	OrderID    string          `json:"order_id"`
	OperatorID string          `json:"operator_id,omitempty"`
	Items      []OrderLineItem `json:"items"`
}

// OrderCancelledPayload la orden fue cancelada: liberar las reservas.
type OrderCancelledPayload struct {
	OrderID string          `json:"order_id"`
	Items   []OrderLineItem `json:"items"`
}

// OrderShippedPayload la orden fue despachada: confirmar el despacho.
type OrderShippedPayload struct {
	OrderID    string          `json:"order_id"`
	OperatorID string          `json:"operator_id,omitempty"`
	Items      []OrderLineItem `json:"items"`
}

// StockReservedPayload todas las líneas quedaron reservadas.
type StockReservedPayload struct {
	OrderID string          `json:"order_id"`
	Items   []OrderLineItem `json:"items"`
}

// StockRejectedDetail línea sin disponible suficiente.
type StockRejectedDetail struct {
	ProductID   string `json:"product_id"`
	WarehouseID string `json:"warehouse_id"`
	Required    int64  `json:"required"`
	Available   int64  `json:"available"`
}

// StockRejectedPayload ninguna reserva quedó aplicada (todo-o-nada).
type StockRejectedPayload struct {
	OrderID string                `json:"order_id"`
	Reason  string                `json:"reason"` // e.g., INSUFFICIENT_STOCK
	Details []StockRejectedDetail `json:"details,omitempty"`
}

// StockMovementPayload un movimiento commiteado del libro, para consumidores
// de reporting aguas abajo.
type StockMovementPayload struct {
	MovementID     string    `json:"movement_id"`
	ProductID      string    `json:"product_id"`
	WarehouseID    string    `json:"warehouse_id"`
	Type           string    `json:"type"`
	Quantity       int64     `json:"quantity"`
	BeforeQuantity int64     `json:"before_quantity"`
	AfterQuantity  int64     `json:"after_quantity"`
	ReferenceNo    string    `json:"reference_no,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}
