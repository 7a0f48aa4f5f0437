package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/tu-usuario/stock-ledger/internal/application/dto"
	"github.com/tu-usuario/stock-ledger/internal/application/inventory"
	"github.com/tu-usuario/stock-ledger/internal/domain"
	"github.com/tu-usuario/stock-ledger/internal/domain/entity"
)

// InventoryHandler maneja las peticiones HTTP de mutación del stock (protegido).
type InventoryHandler struct {
	uc *inventory.StockUseCase
}

// NewInventoryHandler construye el handler.
func NewInventoryHandler(uc *inventory.StockUseCase) *InventoryHandler {
	return &InventoryHandler{uc: uc}
}

// errorResponse mapea errores de dominio a status HTTP.
func errorResponse(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "datos inválidos"})
	case errors.Is(err, domain.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "recurso no encontrado"})
	case errors.Is(err, domain.ErrInsufficientStock):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "INSUFFICIENT_STOCK", Message: "stock insuficiente"})
	case errors.Is(err, domain.ErrInvalidRelease):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "INVALID_RELEASE", Message: "liberación mayor que la reserva vigente"})
	case errors.Is(err, domain.ErrReservationMismatch):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "RESERVATION_MISMATCH", Message: "reserva inconsistente con el stock en mano"})
	case errors.Is(err, domain.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "FORBIDDEN", Message: "acceso denegado al recurso"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
}

// RegisterMovement registra una entrada o salida de stock según la dirección
// del tipo. POST /api/inventory/movements
func (h *InventoryHandler) RegisterMovement(c *fiber.Ctx) error {
	operatorID := GetUserID(c)
	if operatorID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	var in dto.RegisterMovementRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	movType := entity.MovementType(in.Type)
	if !movType.IsValid() {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "tipo de movimiento inválido"})
	}

	input := inventory.MovementInput{
		ProductID:   in.ProductID,
		WarehouseID: in.WarehouseID,
		Type:        movType,
		Quantity:    in.Quantity,
		ReferenceNo: in.ReferenceNo,
		Remark:      in.Remark,
		OperatorID:  operatorID,
	}
	var (
		mov *entity.StockMovement
		err error
	)
	if movType.IsInbound() {
		mov, err = h.uc.RegisterInbound(c.Context(), input)
	} else {
		mov, err = h.uc.RegisterOutbound(c.Context(), input)
	}
	if err != nil {
		return errorResponse(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"movement_id": mov.ID, "after_quantity": mov.AfterQuantity})
}

// Adjust registra un ajuste por conteo (sobrante/faltante).
// POST /api/inventory/adjustments
func (h *InventoryHandler) Adjust(c *fiber.Ctx) error {
	operatorID := GetUserID(c)
	if operatorID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	var in dto.AdjustmentRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	mov, err := h.uc.Adjust(c.Context(), inventory.AdjustmentInput{
		ProductID:   in.ProductID,
		WarehouseID: in.WarehouseID,
		Type:        entity.MovementType(in.Type),
		Quantity:    in.Quantity,
		Reason:      in.Reason,
		ReferenceNo: in.ReferenceNo,
		OperatorID:  operatorID,
	})
	if err != nil {
		return errorResponse(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"movement_id": mov.ID, "after_quantity": mov.AfterQuantity})
}

// Transfer traslada stock entre bodegas. POST /api/inventory/transfers
func (h *InventoryHandler) Transfer(c *fiber.Ctx) error {
	operatorID := GetUserID(c)
	if operatorID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	var in dto.TransferRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	err := h.uc.Transfer(c.Context(), inventory.TransferInput{
		ProductID:       in.ProductID,
		FromWarehouseID: in.FromWarehouseID,
		ToWarehouseID:   in.ToWarehouseID,
		Quantity:        in.Quantity,
		ReferenceNo:     in.ReferenceNo,
		OperatorID:      operatorID,
	})
	if err != nil {
		return errorResponse(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "traslado registrado"})
}

// Reserve aparta stock disponible para una orden. POST /api/inventory/reservations
func (h *InventoryHandler) Reserve(c *fiber.Ctx) error {
	return h.reservationOp(c, func(ctx *fiber.Ctx, in inventory.ReservationInput) error {
		return h.uc.Reserve(ctx.Context(), in)
	})
}

// Release libera una reserva vigente. POST /api/inventory/reservations/release
func (h *InventoryHandler) Release(c *fiber.Ctx) error {
	return h.reservationOp(c, func(ctx *fiber.Ctx, in inventory.ReservationInput) error {
		return h.uc.Release(ctx.Context(), in)
	})
}

// ConfirmShipment despacha una reserva. POST /api/inventory/shipments
func (h *InventoryHandler) ConfirmShipment(c *fiber.Ctx) error {
	operatorID := GetUserID(c)
	if operatorID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	var in dto.ReservationRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	mov, err := h.uc.ConfirmShipment(c.Context(), inventory.ReservationInput{
		ProductID:   in.ProductID,
		WarehouseID: in.WarehouseID,
		Quantity:    in.Quantity,
		ReferenceNo: in.ReferenceNo,
		OperatorID:  operatorID,
	})
	if err != nil {
		return errorResponse(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"movement_id": mov.ID, "after_quantity": mov.AfterQuantity})
}

func (h *InventoryHandler) reservationOp(c *fiber.Ctx, op func(*fiber.Ctx, inventory.ReservationInput) error) error {
	operatorID := GetUserID(c)
	if operatorID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	var in dto.ReservationRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if err := op(c, inventory.ReservationInput{
		ProductID:   in.ProductID,
		WarehouseID: in.WarehouseID,
		Quantity:    in.Quantity,
		ReferenceNo: in.ReferenceNo,
		OperatorID:  operatorID,
	}); err != nil {
		return errorResponse(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"message": "ok"})
}

// ReserveOrder reserva todas las líneas de una orden, todo-o-nada.
// POST /api/inventory/orders/reserve
func (h *InventoryHandler) ReserveOrder(c *fiber.Ctx) error {
	var in dto.OrderReservationRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	ok, rejects, err := h.uc.ReserveOrder(c.Context(), in.OrderID, toOrderLines(in.Lines))
	if err != nil {
		return errorResponse(c, err)
	}
	if !ok {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"reserved": false,
			"rejected": rejects,
		})
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"reserved": true})
}

// ReleaseOrder libera las reservas de una orden cancelada.
// POST /api/inventory/orders/release
func (h *InventoryHandler) ReleaseOrder(c *fiber.Ctx) error {
	var in dto.OrderReservationRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if err := h.uc.ReleaseOrder(c.Context(), in.OrderID, toOrderLines(in.Lines)); err != nil {
		return errorResponse(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"released": true})
}

// ShipOrder confirma el despacho de todas las líneas de una orden.
// POST /api/inventory/orders/ship
func (h *InventoryHandler) ShipOrder(c *fiber.Ctx) error {
	operatorID := GetUserID(c)
	var in dto.OrderReservationRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if err := h.uc.ConfirmOrderShipment(c.Context(), in.OrderID, operatorID, toOrderLines(in.Lines)); err != nil {
		return errorResponse(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"shipped": true})
}

func toOrderLines(lines []dto.OrderLineRequest) []inventory.OrderLine {
	out := make([]inventory.OrderLine, 0, len(lines))
	for _, l := range lines {
		out = append(out, inventory.OrderLine{
			ProductID:   l.ProductID,
			WarehouseID: l.WarehouseID,
			Quantity:    l.Quantity,
		})
	}
	return out
}
