package inventory

import (
	"context"
	"time"

	"github.com/tu-usuario/stock-ledger/internal/domain"
	"github.com/tu-usuario/stock-ledger/internal/domain/entity"
	"github.com/tu-usuario/stock-ledger/internal/domain/repository"
)

// TransferInput entrada para un traslado entre bodegas.
type TransferInput struct {
	ProductID       string
	FromWarehouseID string
	ToWarehouseID   string
	Quantity        int64
	ReferenceNo     string // número del traslado
	OperatorID      string
}

// Transfer mueve stock de una bodega a otra en una sola transacción: resta en
// origen y suma en destino, con un registro TRANSFER_OUT y uno TRANSFER_IN en
// el libro. Los dos locks de fila se adquieren siempre en orden lexicográfico
// de la llave compuesta para que dos traslados cruzados entre las mismas
// bodegas no puedan interbloquearse.
func (uc *StockUseCase) Transfer(ctx context.Context, in TransferInput) error {
	if in.FromWarehouseID == in.ToWarehouseID {
		return domain.ErrInvalidInput
	}
	if err := uc.validateInput(in.ProductID, in.FromWarehouseID, in.Quantity); err != nil {
		return err
	}
	if wh, err := uc.warehouseRepo.GetByID(in.ToWarehouseID); err != nil {
		return err
	} else if wh == nil {
		return domain.ErrNotFound
	}

	now := time.Now()
	var outMov, inMov *entity.StockMovement
	err := uc.txRunner.Run(ctx, func(
		movRepo repository.StockMovementRepository,
		stockRepo repository.StockRepository,
		_ repository.ProductRepository,
	) error {
		origin, dest, err := lockTransferPair(stockRepo, in.ProductID, in.FromWarehouseID, in.ToWarehouseID)
		if err != nil {
			return err
		}

		beforeOrigin := origin.Quantity
		if err := origin.Decrease(in.Quantity, now); err != nil {
			return err
		}
		beforeDest := dest.Quantity
		if err := dest.Increase(in.Quantity, now); err != nil {
			return err
		}
		if err := stockRepo.Update(origin); err != nil {
			return err
		}
		if err := stockRepo.Update(dest); err != nil {
			return err
		}

		outMov = entity.NewStockMovement(
			in.ProductID, in.FromWarehouseID, entity.MovementTransferOut,
			in.Quantity, beforeOrigin,
			in.ReferenceNo, "", in.OperatorID, now,
		)
		if err := movRepo.Create(outMov); err != nil {
			return err
		}
		inMov = entity.NewStockMovement(
			in.ProductID, in.ToWarehouseID, entity.MovementTransferIn,
			in.Quantity, beforeDest,
			in.ReferenceNo, "", in.OperatorID, now,
		)
		return movRepo.Create(inMov)
	})
	if err != nil {
		return err
	}
	uc.publish(ctx, outMov)
	uc.publish(ctx, inMov)
	return nil
}

// lockTransferPair bloquea origen y destino en orden canónico (lexicográfico
// por producto+bodega). El origen debe existir; el destino se crea en cero si
// es su primer movimiento.
func lockTransferPair(
	stockRepo repository.StockRepository,
	productID, fromWarehouseID, toWarehouseID string,
) (origin, dest *entity.Stock, err error) {
	if fromWarehouseID < toWarehouseID {
		origin, err = stockRepo.GetForUpdate(productID, fromWarehouseID)
		if err != nil {
			return nil, nil, err
		}
		dest, err = stockRepo.GetOrCreateForUpdate(productID, toWarehouseID)
		if err != nil {
			return nil, nil, err
		}
		return origin, dest, nil
	}
	dest, err = stockRepo.GetOrCreateForUpdate(productID, toWarehouseID)
	if err != nil {
		return nil, nil, err
	}
	origin, err = stockRepo.GetForUpdate(productID, fromWarehouseID)
	if err != nil {
		return nil, nil, err
	}
	return origin, dest, nil
}
