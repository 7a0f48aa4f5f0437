package inventory

import (
	"context"
	"time"

	"github.com/tu-usuario/stock-ledger/internal/domain"
	"github.com/tu-usuario/stock-ledger/internal/domain/entity"
	"github.com/tu-usuario/stock-ledger/internal/domain/repository"
	"github.com/tu-usuario/stock-ledger/pkg/logger"
)

// StockUseCase ejecuta las operaciones de mutación del stock de forma
// transaccional: bloqueo de fila (SELECT FOR UPDATE) → validación contra las
// cantidades vigentes → actualización de la proyección → append de un registro
// en el libro de movimientos → Commit o Rollback.
//
// Mutaciones sobre el mismo par producto+bodega quedan linealizadas por el
// lock exclusivo; pares distintos no contienden entre sí.
type StockUseCase struct {
	txRunner      TxRunner
	productRepo   repository.ProductRepository
	warehouseRepo repository.WarehouseRepository
	publisher     MovementPublisher // opcional, puede ser nil
	log           *logger.Logger
}

// NewStockUseCase construye el caso de uso. publisher puede ser nil.
func NewStockUseCase(
	txRunner TxRunner,
	productRepo repository.ProductRepository,
	warehouseRepo repository.WarehouseRepository,
	publisher MovementPublisher,
	log *logger.Logger,
) *StockUseCase {
	return &StockUseCase{
		txRunner:      txRunner,
		productRepo:   productRepo,
		warehouseRepo: warehouseRepo,
		publisher:     publisher,
		log:           log,
	}
}

// MovementInput entrada para una entrada/salida de stock.
// ReferenceNo correlaciona con el documento de negocio que origina el cambio
// (orden de compra, venta, nota de ajuste).
type MovementInput struct {
	ProductID   string
	WarehouseID string
	Type        entity.MovementType
	Quantity    int64
	ReferenceNo string
	Remark      string
	OperatorID  string
}

// ReservationInput entrada para reservar/liberar/despachar stock de una orden.
type ReservationInput struct {
	ProductID   string
	WarehouseID string
	Quantity    int64
	ReferenceNo string // número de la orden
	OperatorID  string
}

// Tipos permitidos por operación. Los ajustes tienen su propio flujo (Adjust)
// y los traslados el suyo (Transfer); aquí se rechazan antes de bloquear.
var inboundTypes = map[entity.MovementType]bool{
	entity.MovementPurchaseIn: true,
	entity.MovementReturnIn:   true,
	entity.MovementCountIn:    true,
}

var outboundTypes = map[entity.MovementType]bool{
	entity.MovementSalesOut:  true,
	entity.MovementReturnOut: true,
	entity.MovementCountOut:  true,
}

// RegisterInbound registra una entrada de stock (PURCHASE_IN, RETURN_IN,
// COUNT_IN). Si el par producto+bodega no tiene fila aún, la crea en cero
// bajo el mismo lock: el primer movimiento de un par siempre es una entrada.
func (uc *StockUseCase) RegisterInbound(ctx context.Context, in MovementInput) (*entity.StockMovement, error) {
	if !inboundTypes[in.Type] {
		return nil, domain.ErrInvalidInput
	}
	if err := uc.validateInput(in.ProductID, in.WarehouseID, in.Quantity); err != nil {
		return nil, err
	}

	now := time.Now()
	var mov *entity.StockMovement
	err := uc.txRunner.Run(ctx, func(
		movRepo repository.StockMovementRepository,
		stockRepo repository.StockRepository,
		_ repository.ProductRepository,
	) error {
		stock, err := stockRepo.GetOrCreateForUpdate(in.ProductID, in.WarehouseID)
		if err != nil {
			return err
		}
		before := stock.Quantity
		if err := stock.Increase(in.Quantity, now); err != nil {
			return err
		}
		if err := stockRepo.Update(stock); err != nil {
			return err
		}
		mov = entity.NewStockMovement(
			in.ProductID, in.WarehouseID, in.Type,
			in.Quantity, before,
			in.ReferenceNo, in.Remark, in.OperatorID, now,
		)
		return movRepo.Create(mov)
	})
	if err != nil {
		return nil, err
	}
	uc.publish(ctx, mov)
	return mov, nil
}

// RegisterOutbound registra una salida de stock (SALES_OUT, RETURN_OUT,
// COUNT_OUT) contra la cantidad en mano. La fila debe existir. Nunca aplica
// una salida parcial.
func (uc *StockUseCase) RegisterOutbound(ctx context.Context, in MovementInput) (*entity.StockMovement, error) {
	if !outboundTypes[in.Type] {
		return nil, domain.ErrInvalidInput
	}
	if err := uc.validateInput(in.ProductID, in.WarehouseID, in.Quantity); err != nil {
		return nil, err
	}

	now := time.Now()
	var mov *entity.StockMovement
	err := uc.txRunner.Run(ctx, func(
		movRepo repository.StockMovementRepository,
		stockRepo repository.StockRepository,
		_ repository.ProductRepository,
	) error {
		stock, err := stockRepo.GetForUpdate(in.ProductID, in.WarehouseID)
		if err != nil {
			return err
		}
		before := stock.Quantity
		if err := stock.Decrease(in.Quantity, now); err != nil {
			return err
		}
		if err := stockRepo.Update(stock); err != nil {
			return err
		}
		mov = entity.NewStockMovement(
			in.ProductID, in.WarehouseID, in.Type,
			in.Quantity, before,
			in.ReferenceNo, in.Remark, in.OperatorID, now,
		)
		return movRepo.Create(mov)
	})
	if err != nil {
		return nil, err
	}
	uc.publish(ctx, mov)
	return mov, nil
}

// Reserve aparta cantidad disponible para una orden pendiente. No cambia la
// cantidad en mano, por lo que no genera registro en el libro.
func (uc *StockUseCase) Reserve(ctx context.Context, in ReservationInput) error {
	if err := uc.validateInput(in.ProductID, in.WarehouseID, in.Quantity); err != nil {
		return err
	}
	return uc.txRunner.Run(ctx, func(
		_ repository.StockMovementRepository,
		stockRepo repository.StockRepository,
		_ repository.ProductRepository,
	) error {
		stock, err := stockRepo.GetForUpdate(in.ProductID, in.WarehouseID)
		if err != nil {
			return err
		}
		if err := stock.Reserve(in.Quantity); err != nil {
			return err
		}
		return stockRepo.Update(stock)
	})
}

// Release libera una reserva vigente (cancelación de orden).
func (uc *StockUseCase) Release(ctx context.Context, in ReservationInput) error {
	if err := uc.validateInput(in.ProductID, in.WarehouseID, in.Quantity); err != nil {
		return err
	}
	return uc.txRunner.Run(ctx, func(
		_ repository.StockMovementRepository,
		stockRepo repository.StockRepository,
		_ repository.ProductRepository,
	) error {
		stock, err := stockRepo.GetForUpdate(in.ProductID, in.WarehouseID)
		if err != nil {
			return err
		}
		if err := stock.Release(in.Quantity); err != nil {
			return err
		}
		return stockRepo.Update(stock)
	})
}

// ConfirmShipment despacha una reserva: descuenta en mano y reservado en un
// solo paso y registra la salida como SALES_OUT. Un ErrReservationMismatch se
// reporta como defecto de integridad previo; no se auto-corrige.
func (uc *StockUseCase) ConfirmShipment(ctx context.Context, in ReservationInput) (*entity.StockMovement, error) {
	if err := uc.validateInput(in.ProductID, in.WarehouseID, in.Quantity); err != nil {
		return nil, err
	}

	now := time.Now()
	var mov *entity.StockMovement
	err := uc.txRunner.Run(ctx, func(
		movRepo repository.StockMovementRepository,
		stockRepo repository.StockRepository,
		_ repository.ProductRepository,
	) error {
		stock, err := stockRepo.GetForUpdate(in.ProductID, in.WarehouseID)
		if err != nil {
			return err
		}
		before := stock.Quantity
		if err := stock.ConfirmShipment(in.Quantity, now); err != nil {
			if err == domain.ErrReservationMismatch && uc.log != nil {
				uc.log.Error().
					Str("product_id", in.ProductID).
					Str("warehouse_id", in.WarehouseID).
					Int64("quantity", in.Quantity).
					Int64("on_hand", stock.Quantity).
					Int64("reserved", stock.ReservedQuantity).
					Str("reference_no", in.ReferenceNo).
					Msg("despacho rechazado: reserva inconsistente con el stock en mano")
			}
			return err
		}
		if err := stockRepo.Update(stock); err != nil {
			return err
		}
		mov = entity.NewStockMovement(
			in.ProductID, in.WarehouseID, entity.MovementSalesOut,
			in.Quantity, before,
			in.ReferenceNo, "", in.OperatorID, now,
		)
		return movRepo.Create(mov)
	})
	if err != nil {
		return nil, err
	}
	uc.publish(ctx, mov)
	return mov, nil
}

// validateInput valida cantidad y existencia de producto y bodega antes de
// tomar cualquier lock.
func (uc *StockUseCase) validateInput(productID, warehouseID string, quantity int64) error {
	if productID == "" || warehouseID == "" || quantity <= 0 {
		return domain.ErrInvalidInput
	}
	product, err := uc.productRepo.GetByID(productID)
	if err != nil {
		return err
	}
	if product == nil {
		return domain.ErrNotFound
	}
	wh, err := uc.warehouseRepo.GetByID(warehouseID)
	if err != nil {
		return err
	}
	if wh == nil {
		return domain.ErrNotFound
	}
	return nil
}

func (uc *StockUseCase) publish(ctx context.Context, mov *entity.StockMovement) {
	if uc.publisher != nil && mov != nil {
		uc.publisher.PublishMovement(ctx, mov)
	}
}
