package domain

import "errors"

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound          = errors.New("recurso no encontrado")
	ErrInvalidInput      = errors.New("entrada inválida")
	ErrDuplicate         = errors.New("recurso duplicado")
	ErrUnauthorized      = errors.New("no autorizado")
	ErrForbidden         = errors.New("acceso denegado")
	ErrInsufficientStock = errors.New("stock insuficiente")

	// ErrInvalidRelease: se intenta liberar más de lo reservado.
	ErrInvalidRelease = errors.New("liberación mayor que la reserva vigente")

	// ErrReservationMismatch: el despacho encontró en mano o reservado por
	// debajo de lo solicitado. Indica un defecto de integridad previo; el
	// caso de uso lo registra en el log y no lo auto-corrige.
	ErrReservationMismatch = errors.New("reserva inconsistente con el stock en mano")
)
