package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// RegisterMovementRequest body para POST /api/inventory/movements.
type RegisterMovementRequest struct {
	ProductID   string `json:"product_id"`
	WarehouseID string `json:"warehouse_id"`
	Type        string `json:"type"`
	Quantity    int64  `json:"quantity"`
	ReferenceNo string `json:"reference_no,omitempty"`
	Remark      string `json:"remark,omitempty"`
}

// AdjustmentRequest body para POST /api/inventory/adjustments.
// Type solo admite ADJUST_IN o ADJUST_OUT; Reason es obligatorio (2–500 chars).
type AdjustmentRequest struct {
	ProductID   string `json:"product_id"`
	WarehouseID string `json:"warehouse_id"`
	Type        string `json:"type"`
	Quantity    int64  `json:"quantity"`
	Reason      string `json:"reason"`
	ReferenceNo string `json:"reference_no,omitempty"`
}

// TransferRequest body para POST /api/inventory/transfers.
type TransferRequest struct {
	ProductID       string `json:"product_id"`
	FromWarehouseID string `json:"from_warehouse_id"`
	ToWarehouseID   string `json:"to_warehouse_id"`
	Quantity        int64  `json:"quantity"`
	ReferenceNo     string `json:"reference_no,omitempty"`
}

// ReservationRequest body para reservar/liberar/despachar stock de una orden.
type ReservationRequest struct {
	ProductID   string `json:"product_id"`
	WarehouseID string `json:"warehouse_id"`
	Quantity    int64  `json:"quantity"`
	ReferenceNo string `json:"reference_no"` // número de la orden
}

// OrderLineRequest línea de una orden en las operaciones multi-línea.
type OrderLineRequest struct {
	ProductID   string `json:"product_id"`
	WarehouseID string `json:"warehouse_id"`
	Quantity    int64  `json:"quantity"`
}

// OrderReservationRequest body para POST /api/inventory/orders/reserve (y release/ship).
type OrderReservationRequest struct {
	OrderID string             `json:"order_id"`
	Lines   []OrderLineRequest `json:"lines"`
}

// StockDTO proyección actual de un par producto+bodega.
type StockDTO struct {
	ProductID         string    `json:"product_id"`
	WarehouseID       string    `json:"warehouse_id"`
	Quantity          int64     `json:"quantity"`
	ReservedQuantity  int64     `json:"reserved_quantity"`
	AvailableQuantity int64     `json:"available_quantity"`
	LastMovementAt    time.Time `json:"last_movement_at"`
}

// MovementDTO registro del libro en respuestas.
type MovementDTO struct {
	ID             string    `json:"id"`
	ProductID      string    `json:"product_id"`
	WarehouseID    string    `json:"warehouse_id"`
	Type           string    `json:"type"`
	Quantity       int64     `json:"quantity"`
	BeforeQuantity int64     `json:"before_quantity"`
	AfterQuantity  int64     `json:"after_quantity"`
	ReferenceNo    string    `json:"reference_no,omitempty"`
	Remark         string    `json:"remark,omitempty"`
	OperatorID     string    `json:"operator_id,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// StockListItemDTO fila de los listados de stock (bajo stock, agotados, reservados).
type StockListItemDTO struct {
	ProductID        string `json:"product_id"`
	WarehouseID      string `json:"warehouse_id"`
	SKU              string `json:"sku"`
	ProductName      string `json:"product_name"`
	Quantity         int64  `json:"quantity"`
	ReservedQuantity int64  `json:"reserved_quantity"`
}

// MovementTotalsDTO sumas de entradas/salidas en un rango de fechas.
type MovementTotalsDTO struct {
	From     time.Time `json:"from"`
	To       time.Time `json:"to"`
	Inbound  int64     `json:"inbound"`
	Outbound int64     `json:"outbound"`
}

// ReplenishmentSuggestionDTO sugerencia de reposición para un SKU por debajo
// de su punto de reorden.
type ReplenishmentSuggestionDTO struct {
	ProductID          string          `json:"product_id"`
	SKU                string          `json:"sku"`
	ProductName        string          `json:"product_name"`
	CurrentStock       int64           `json:"current_stock"`
	ReorderPoint       int64           `json:"reorder_point"`
	SuggestedOrderQty  int64           `json:"suggested_order_qty"` // reorden*1.5 - actual
	UnitCost           decimal.Decimal `json:"unit_cost"`
	EstimatedOrderCost decimal.Decimal `json:"estimated_order_cost"`
	OutboundLast90Days int64           `json:"outbound_last_90d"`
	Priority           int             `json:"priority"` // 1 = más urgente
}

// ReconciliationDTO resultado de conciliar el libro contra la proyección de
// un par producto+bodega.
type ReconciliationDTO struct {
	ProductID        string `json:"product_id"`
	WarehouseID      string `json:"warehouse_id"`
	LedgerQuantity   int64  `json:"ledger_quantity"`   // replay de movimientos desde cero
	CurrentQuantity  int64  `json:"current_quantity"`  // proyección vigente
	Consistent       bool   `json:"consistent"`        // replay == proyección y cada entry cuadra
	MovementCount    int    `json:"movement_count"`
	BrokenEntryCount int    `json:"broken_entry_count"` // entries con before/after inconsistentes
}
