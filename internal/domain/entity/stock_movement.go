package entity

import (
	"time"
)

// MovementType clasifica un cambio de stock. La dirección (entrada o salida)
// es una propiedad del tipo, no un flag aparte: Sign() la resuelve sin
// branching booleano disperso.
type MovementType string

// Tipos de movimiento de inventario (conjunto cerrado).
const (
	// Entradas (+1)
	MovementPurchaseIn MovementType = "PURCHASE_IN" // recepción de compra
	MovementReturnIn   MovementType = "RETURN_IN"   // devolución de cliente
	MovementTransferIn MovementType = "TRANSFER_IN" // entrada por traslado
	MovementAdjustIn   MovementType = "ADJUST_IN"   // ajuste por sobrante
	MovementCountIn    MovementType = "COUNT_IN"    // conteo físico (sobrante)

	// Salidas (-1)
	MovementSalesOut    MovementType = "SALES_OUT"    // salida por venta
	MovementReturnOut   MovementType = "RETURN_OUT"   // devolución a proveedor
	MovementTransferOut MovementType = "TRANSFER_OUT" // salida por traslado
	MovementAdjustOut   MovementType = "ADJUST_OUT"   // ajuste por faltante
	MovementCountOut    MovementType = "COUNT_OUT"    // conteo físico (faltante)
)

var movementSigns = map[MovementType]int64{
	MovementPurchaseIn:  +1,
	MovementReturnIn:    +1,
	MovementTransferIn:  +1,
	MovementAdjustIn:    +1,
	MovementCountIn:     +1,
	MovementSalesOut:    -1,
	MovementReturnOut:   -1,
	MovementTransferOut: -1,
	MovementAdjustOut:   -1,
	MovementCountOut:    -1,
}

// IsValid indica si el tipo pertenece al conjunto cerrado.
func (t MovementType) IsValid() bool {
	_, ok := movementSigns[t]
	return ok
}

// Sign devuelve +1 para entradas y -1 para salidas. 0 si el tipo no es válido.
func (t MovementType) Sign() int64 {
	return movementSigns[t]
}

// IsInbound indica si el tipo incrementa el stock.
func (t MovementType) IsInbound() bool {
	return movementSigns[t] > 0
}

// StockMovement es un registro del libro de movimientos: inmutable, append-only.
// Captura la cantidad antes y después del cambio para que cada movimiento sea
// reconstruible de forma independiente. No hay path de update ni delete.
type StockMovement struct {
	ID             string
	ProductID      string
	WarehouseID    string
	Type           MovementType
	Quantity       int64 // magnitud, siempre positiva
	BeforeQuantity int64
	AfterQuantity  int64
	ReferenceNo    string // documento de negocio: orden de compra, venta, traslado, ajuste
	Remark         string
	OperatorID     string
	CreatedAt      time.Time
}

// NewStockMovement construye un registro del libro calculando
// AfterQuantity = BeforeQuantity + Quantity × Sign(tipo).
// No toca el registro de stock: el caso de uso compone ambas escrituras en una
// misma transacción.
func NewStockMovement(
	productID, warehouseID string,
	movType MovementType,
	quantity, beforeQuantity int64,
	referenceNo, remark, operatorID string,
	now time.Time,
) *StockMovement {
	return &StockMovement{
		ProductID:      productID,
		WarehouseID:    warehouseID,
		Type:           movType,
		Quantity:       quantity,
		BeforeQuantity: beforeQuantity,
		AfterQuantity:  beforeQuantity + quantity*movType.Sign(),
		ReferenceNo:    referenceNo,
		Remark:         remark,
		OperatorID:     operatorID,
		CreatedAt:      now,
	}
}

// QuantityChange devuelve la cantidad con signo según el tipo.
func (m *StockMovement) QuantityChange() int64 {
	return m.Quantity * m.Type.Sign()
}

// IsQuantityConsistent verifica el invariante AfterQuantity == BeforeQuantity + cambio.
// Utilidad de verificación y conciliación; no se evalúa como gate en escritura.
func (m *StockMovement) IsQuantityConsistent() bool {
	return m.AfterQuantity == m.BeforeQuantity+m.QuantityChange()
}
