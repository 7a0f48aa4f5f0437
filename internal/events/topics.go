package events

// Topics Kafka del contrato con el subsistema de órdenes.
const (
	TopicOrderCreated   = "order.created"
	TopicOrderCancelled = "order.cancelled"
	TopicOrderShipped   = "order.shipped"
	TopicStockReserved  = "stock.reserved"
	TopicStockRejected  = "stock.rejected"
	TopicStockMovement  = "stock.movement"
)

// PartitionKey por order_id: todos los eventos de una orden mantienen orden.
func PartitionKey(orderID string) []byte { return []byte(orderID) }

// MovementPartitionKey por par producto+bodega: los movimientos de una misma
// llave mantienen orden de partición.
func MovementPartitionKey(productID, warehouseID string) []byte {
	return []byte(productID + "/" + warehouseID)
}
