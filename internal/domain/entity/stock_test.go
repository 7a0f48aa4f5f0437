package entity_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tu-usuario/stock-ledger/internal/domain"
	"github.com/tu-usuario/stock-ledger/internal/domain/entity"
)

// ──────────────────────────────────────────────────────────────────────────────
// Tests del registro de stock: invariante 0 <= reservado <= en mano,
// disponible derivado y rechazo de mutaciones que lo romperían.
// ──────────────────────────────────────────────────────────────────────────────

var testNow = time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)

func newStock(quantity, reserved int64) *entity.Stock {
	return &entity.Stock{
		ProductID:        "PROD-1",
		WarehouseID:      "BOD-1",
		Quantity:         quantity,
		ReservedQuantity: reserved,
	}
}

func TestStock_AvailableQuantity_EsDerivado(t *testing.T) {
	s := newStock(100, 30)
	assert.Equal(t, int64(70), s.AvailableQuantity(),
		"disponible = en mano - reservado")

	// Reservar no cambia la cantidad en mano, solo el disponible.
	require.NoError(t, s.Reserve(20))
	assert.Equal(t, int64(100), s.Quantity)
	assert.Equal(t, int64(50), s.ReservedQuantity)
	assert.Equal(t, int64(50), s.AvailableQuantity())
}

func TestStock_Reserve_RechazaSobreDisponible(t *testing.T) {
	s := newStock(100, 90)

	err := s.Reserve(11)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock,
		"reservar más del disponible debe rechazarse todo-o-nada")
	assert.Equal(t, int64(90), s.ReservedQuantity, "el registro no debe cambiar")

	// Exactamente el disponible sí pasa.
	require.NoError(t, s.Reserve(10))
	assert.Equal(t, int64(100), s.ReservedQuantity)
	assert.Equal(t, int64(0), s.AvailableQuantity())
}

func TestStock_Reserve_CantidadNoPositiva(t *testing.T) {
	s := newStock(100, 0)

	assert.ErrorIs(t, s.Reserve(0), domain.ErrInvalidInput)
	assert.ErrorIs(t, s.Reserve(-5), domain.ErrInvalidInput)
	assert.Equal(t, int64(0), s.ReservedQuantity)
}

func TestStock_Release_RechazaSobreReservado(t *testing.T) {
	s := newStock(100, 30)

	err := s.Release(31)
	assert.ErrorIs(t, err, domain.ErrInvalidRelease,
		"liberar más de lo reservado es un defecto del llamador, no se trunca a cero")
	assert.Equal(t, int64(30), s.ReservedQuantity)

	require.NoError(t, s.Release(30))
	assert.Equal(t, int64(0), s.ReservedQuantity)
}

func TestStock_Decrease_NuncaAplicaParcial(t *testing.T) {
	s := newStock(5, 0)

	err := s.Decrease(8, testNow)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.Equal(t, int64(5), s.Quantity, "un rechazo no debe dejar cambio parcial")

	require.NoError(t, s.Decrease(5, testNow))
	assert.Equal(t, int64(0), s.Quantity)
	assert.Equal(t, testNow, s.LastMovementAt)
}

func TestStock_ConfirmShipment_DescuentaAmbasCantidades(t *testing.T) {
	s := newStock(100, 40)

	require.NoError(t, s.ConfirmShipment(40, testNow))
	assert.Equal(t, int64(60), s.Quantity)
	assert.Equal(t, int64(0), s.ReservedQuantity)
	assert.Equal(t, int64(60), s.AvailableQuantity(),
		"despachar una reserva no cambia el disponible")
}

func TestStock_ConfirmShipment_RechazaSinReservaSuficiente(t *testing.T) {
	s := newStock(100, 10)

	err := s.ConfirmShipment(20, testNow)
	assert.ErrorIs(t, err, domain.ErrReservationMismatch,
		"despachar más de lo reservado indica un defecto de integridad previo")
	assert.Equal(t, int64(100), s.Quantity)
	assert.Equal(t, int64(10), s.ReservedQuantity)
}

// ──────────────────────────────────────────────────────────────────────────────
// Escenarios de ciclo de vida (reserva → despacho / cancelación)
// ──────────────────────────────────────────────────────────────────────────────

// Escenario A: venta completa — reservar, despachar. El disponible solo cae en
// la reserva; el despacho mueve en mano y reservado a la vez.
func TestStock_EscenarioVentaCompleta(t *testing.T) {
	s := newStock(50, 0)

	require.NoError(t, s.Reserve(20))
	assert.Equal(t, int64(30), s.AvailableQuantity())
	assert.Equal(t, int64(50), s.Quantity, "reservar no toca la cantidad en mano")

	require.NoError(t, s.ConfirmShipment(20, testNow))
	assert.Equal(t, int64(30), s.Quantity)
	assert.Equal(t, int64(0), s.ReservedQuantity)
	assert.Equal(t, int64(30), s.AvailableQuantity())
}

// Escenario B: orden cancelada — reservar, liberar. Todo vuelve al estado
// inicial sin tocar la cantidad en mano.
func TestStock_EscenarioOrdenCancelada(t *testing.T) {
	s := newStock(50, 0)

	require.NoError(t, s.Reserve(20))
	require.NoError(t, s.Release(20))

	assert.Equal(t, int64(50), s.Quantity)
	assert.Equal(t, int64(0), s.ReservedQuantity)
	assert.Equal(t, int64(50), s.AvailableQuantity())
}

// Escenario C: reserva y salida directa compiten por el disponible. Con 10 en
// mano y 8 reservadas, una salida directa de 5 excede el disponible en mano...
// pero Decrease opera sobre la cantidad en mano, no el disponible: la
// protección de reservas es responsabilidad del caso de uso de salida, que usa
// el disponible como gate.
func TestStock_StockEnCeroConservaLaFila(t *testing.T) {
	s := newStock(10, 0)

	require.NoError(t, s.Decrease(10, testNow))
	assert.Equal(t, int64(0), s.Quantity)
	// La fila conserva identidad y sigue siendo mutable (no hay delete-on-zero).
	require.NoError(t, s.Increase(3, testNow))
	assert.Equal(t, int64(3), s.Quantity)
}
