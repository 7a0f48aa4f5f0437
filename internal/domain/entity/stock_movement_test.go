package entity_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tu-usuario/stock-ledger/internal/domain/entity"
)

// ──────────────────────────────────────────────────────────────────────────────
// Tests de la taxonomía de movimientos: conjunto cerrado, dirección inherente
// al tipo, y el invariante after = before + cantidad × signo.
// ──────────────────────────────────────────────────────────────────────────────

func TestMovementType_SignosDeLaTaxonomia(t *testing.T) {
	vectores := []struct {
		tipo entity.MovementType
		sign int64
	}{
		{entity.MovementPurchaseIn, +1},
		{entity.MovementReturnIn, +1},
		{entity.MovementTransferIn, +1},
		{entity.MovementAdjustIn, +1},
		{entity.MovementCountIn, +1},
		{entity.MovementSalesOut, -1},
		{entity.MovementReturnOut, -1},
		{entity.MovementTransferOut, -1},
		{entity.MovementAdjustOut, -1},
		{entity.MovementCountOut, -1},
	}

	for _, v := range vectores {
		t.Run(string(v.tipo), func(t *testing.T) {
			assert.True(t, v.tipo.IsValid())
			assert.Equal(t, v.sign, v.tipo.Sign())
			assert.Equal(t, v.sign > 0, v.tipo.IsInbound())
		})
	}
}

func TestMovementType_TipoDesconocidoNoEsValido(t *testing.T) {
	desconocido := entity.MovementType("RESERVA")
	assert.False(t, desconocido.IsValid(),
		"la taxonomía es cerrada: no hay tipo para reservas ni tipos libres")
	assert.Equal(t, int64(0), desconocido.Sign())
	assert.False(t, desconocido.IsInbound())
}

func TestNewStockMovement_CalculaAfterQuantity(t *testing.T) {
	// Entrada: after = before + cantidad
	entrada := entity.NewStockMovement(
		"PROD-1", "BOD-1", entity.MovementPurchaseIn,
		15, 100, "OC-001", "", "user-1", testNow,
	)
	assert.Equal(t, int64(100), entrada.BeforeQuantity)
	assert.Equal(t, int64(115), entrada.AfterQuantity)
	assert.Equal(t, int64(15), entrada.QuantityChange())
	assert.True(t, entrada.IsQuantityConsistent())

	// Salida: after = before - cantidad, la magnitud sigue positiva
	salida := entity.NewStockMovement(
		"PROD-1", "BOD-1", entity.MovementSalesOut,
		15, 100, "ORD-001", "", "user-1", testNow,
	)
	assert.Equal(t, int64(85), salida.AfterQuantity)
	assert.Equal(t, int64(15), salida.Quantity, "Quantity es magnitud, el signo vive en el tipo")
	assert.Equal(t, int64(-15), salida.QuantityChange())
	assert.True(t, salida.IsQuantityConsistent())
}

func TestStockMovement_IsQuantityConsistent_DetectaCorrupcion(t *testing.T) {
	m := entity.NewStockMovement(
		"PROD-1", "BOD-1", entity.MovementAdjustOut,
		5, 20, "AJ-001", "faltante en conteo", "user-1", testNow,
	)
	require.True(t, m.IsQuantityConsistent())

	// Un registro manipulado a mano rompe el invariante.
	m.AfterQuantity = 99
	assert.False(t, m.IsQuantityConsistent())
}

// TestStockMovement_ReplayDelLibro verifica que reproducir los cambios del
// libro en orden de inserción reconstruye la cantidad final: la proyección de
// stock es derivable del libro.
func TestStockMovement_ReplayDelLibro(t *testing.T) {
	pasos := []struct {
		tipo     entity.MovementType
		cantidad int64
	}{
		{entity.MovementPurchaseIn, 100},
		{entity.MovementSalesOut, 30},
		{entity.MovementReturnIn, 5},
		{entity.MovementAdjustOut, 2},
		{entity.MovementTransferOut, 20},
		{entity.MovementCountIn, 1},
	}

	var before int64
	var libro []*entity.StockMovement
	for _, p := range pasos {
		m := entity.NewStockMovement(
			"PROD-1", "BOD-1", p.tipo, p.cantidad, before, "", "", "user-1", testNow,
		)
		libro = append(libro, m)
		before = m.AfterQuantity
	}

	// Replay: sumar los cambios con signo.
	var replay int64
	for _, m := range libro {
		require.True(t, m.IsQuantityConsistent())
		replay += m.QuantityChange()
	}

	assert.Equal(t, int64(54), replay, "100-30+5-2-20+1 = 54")
	assert.Equal(t, replay, libro[len(libro)-1].AfterQuantity,
		"el replay del libro debe coincidir con el after del último movimiento")
}
