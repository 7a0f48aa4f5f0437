package inventory

import (
	"context"
	"time"

	"github.com/tu-usuario/stock-ledger/internal/domain"
	"github.com/tu-usuario/stock-ledger/internal/domain/entity"
	"github.com/tu-usuario/stock-ledger/internal/domain/repository"
)

// Límites del motivo de ajuste.
const (
	adjustReasonMin = 2
	adjustReasonMax = 500
)

// AdjustmentInput entrada para un ajuste por conteo (sobrante o faltante).
// Reason es obligatorio y queda como remark del movimiento.
type AdjustmentInput struct {
	ProductID   string
	WarehouseID string
	Type        entity.MovementType // solo ADJUST_IN o ADJUST_OUT
	Quantity    int64
	Reason      string
	ReferenceNo string // opcional: nota de ajuste
	OperatorID  string
}

// Adjust registra un ajuste de inventario: bloquea la fila, toma la cantidad
// vigente como before, aplica el aumento o disminución según el tipo y
// agrega el registro al libro con el motivo. Cualquier tipo distinto de
// ADJUST_IN/ADJUST_OUT se rechaza antes de bloquear.
func (uc *StockUseCase) Adjust(ctx context.Context, in AdjustmentInput) (*entity.StockMovement, error) {
	if in.Type != entity.MovementAdjustIn && in.Type != entity.MovementAdjustOut {
		return nil, domain.ErrInvalidInput
	}
	if len(in.Reason) < adjustReasonMin || len(in.Reason) > adjustReasonMax {
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
		var (
			stock *entity.Stock
			err   error
		)
		if in.Type == entity.MovementAdjustIn {
			// Un sobrante puede ser el primer movimiento del par.
			stock, err = stockRepo.GetOrCreateForUpdate(in.ProductID, in.WarehouseID)
		} else {
			stock, err = stockRepo.GetForUpdate(in.ProductID, in.WarehouseID)
		}
		if err != nil {
			return err
		}
		before := stock.Quantity
		if in.Type == entity.MovementAdjustIn {
			err = stock.Increase(in.Quantity, now)
		} else {
			err = stock.Decrease(in.Quantity, now)
		}
		if err != nil {
			return err
		}
		if err := stockRepo.Update(stock); err != nil {
			return err
		}
		mov = entity.NewStockMovement(
			in.ProductID, in.WarehouseID, in.Type,
			in.Quantity, before,
			in.ReferenceNo, in.Reason, in.OperatorID, now,
		)
		return movRepo.Create(mov)
	})
	if err != nil {
		return nil, err
	}
	uc.publish(ctx, mov)
	return mov, nil
}
