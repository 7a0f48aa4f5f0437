package entity

import (
	"time"

	"github.com/tu-usuario/stock-ledger/internal/domain"
)

// Stock representa el stock actual de un producto en una bodega: cantidad en
// mano y cantidad reservada para órdenes pendientes. Es la proyección
// reemplazable del libro de movimientos; la fila nunca se borra, ni en cero.
//
// Invariante permanente: 0 <= ReservedQuantity <= Quantity.
// Toda mutación debe ejecutarse con la fila bloqueada (coordinador de
// concurrencia); estos métodos asumen acceso exclusivo.
type Stock struct {
	ProductID        string
	WarehouseID      string
	Quantity         int64 // en mano
	ReservedQuantity int64 // apartado para órdenes no despachadas
	LastMovementAt   time.Time
}

// AvailableQuantity devuelve la cantidad vendible: en mano menos reservado.
// Derivada, nunca se persiste.
func (s *Stock) AvailableQuantity() int64 {
	return s.Quantity - s.ReservedQuantity
}

// HasAvailableStock indica si hay disponible suficiente para amount.
func (s *Stock) HasAvailableStock(amount int64) bool {
	return s.AvailableQuantity() >= amount
}

// Reserve aparta amount del disponible. No reduce la cantidad en mano.
func (s *Stock) Reserve(amount int64) error {
	if amount <= 0 {
		return domain.ErrInvalidInput
	}
	if s.AvailableQuantity() < amount {
		return domain.ErrInsufficientStock
	}
	s.ReservedQuantity += amount
	return nil
}

// Release libera una reserva (cancelación de orden).
func (s *Stock) Release(amount int64) error {
	if amount <= 0 {
		return domain.ErrInvalidInput
	}
	if amount > s.ReservedQuantity {
		return domain.ErrInvalidRelease
	}
	s.ReservedQuantity -= amount
	return nil
}

// Increase suma amount a la cantidad en mano.
func (s *Stock) Increase(amount int64, now time.Time) error {
	if amount <= 0 {
		return domain.ErrInvalidInput
	}
	s.Quantity += amount
	s.LastMovementAt = now
	return nil
}

// Decrease resta amount de la cantidad en mano. Nunca aplica parcial.
func (s *Stock) Decrease(amount int64, now time.Time) error {
	if amount <= 0 {
		return domain.ErrInvalidInput
	}
	if s.Quantity < amount {
		return domain.ErrInsufficientStock
	}
	s.Quantity -= amount
	s.LastMovementAt = now
	return nil
}

// ConfirmShipment despacha una reserva: descuenta amount de la cantidad en
// mano y de la reservada en un solo paso. Si en mano o reservado quedaron por
// debajo de amount hay un defecto de integridad previo; se rechaza, no se
// auto-corrige.
func (s *Stock) ConfirmShipment(amount int64, now time.Time) error {
	if amount <= 0 {
		return domain.ErrInvalidInput
	}
	if s.Quantity < amount || s.ReservedQuantity < amount {
		return domain.ErrReservationMismatch
	}
	s.Quantity -= amount
	s.ReservedQuantity -= amount
	s.LastMovementAt = now
	return nil
}
