package inventory

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/tu-usuario/stock-ledger/internal/domain"
	"github.com/tu-usuario/stock-ledger/internal/domain/entity"
	"github.com/tu-usuario/stock-ledger/internal/domain/repository"
)

// OrderLine una línea de orden contra el stock de una bodega.
type OrderLine struct {
	ProductID   string
	WarehouseID string
	Quantity    int64
}

// RejectedLine detalle de una línea que no alcanzó stock disponible.
type RejectedLine struct {
	ProductID   string
	WarehouseID string
	Required    int64
	Available   int64
}

// errLinesRejected señal interna para hacer rollback de la transacción
// multi-línea sin tratarlo como error del caller.
var errLinesRejected = errors.New("líneas rechazadas por stock insuficiente")

// ReserveOrder reserva todas las líneas de una orden en una sola transacción,
// todo-o-nada: si alguna línea no alcanza disponible, ninguna reserva queda
// aplicada y se devuelve el detalle de las líneas rechazadas. Los locks se
// adquieren en orden canónico de la llave producto+bodega para evitar
// interbloqueos entre órdenes concurrentes con líneas cruzadas.
func (uc *StockUseCase) ReserveOrder(ctx context.Context, orderID string, lines []OrderLine) (ok bool, rejects []RejectedLine, err error) {
	if orderID == "" || len(lines) == 0 {
		return false, nil, domain.ErrInvalidInput
	}
	for _, l := range lines {
		if l.ProductID == "" || l.WarehouseID == "" || l.Quantity <= 0 {
			return false, nil, domain.ErrInvalidInput
		}
	}
	sorted := sortedLines(lines)

	err = uc.txRunner.Run(ctx, func(
		_ repository.StockMovementRepository,
		stockRepo repository.StockRepository,
		_ repository.ProductRepository,
	) error {
		for _, l := range sorted {
			stock, err := stockRepo.GetForUpdate(l.ProductID, l.WarehouseID)
			if err != nil {
				if errors.Is(err, domain.ErrNotFound) {
					rejects = append(rejects, RejectedLine{
						ProductID: l.ProductID, WarehouseID: l.WarehouseID,
						Required: l.Quantity, Available: 0,
					})
					continue
				}
				return err
			}
			if err := stock.Reserve(l.Quantity); err != nil {
				if errors.Is(err, domain.ErrInsufficientStock) {
					rejects = append(rejects, RejectedLine{
						ProductID: l.ProductID, WarehouseID: l.WarehouseID,
						Required: l.Quantity, Available: stock.AvailableQuantity(),
					})
					continue
				}
				return err
			}
			if err := stockRepo.Update(stock); err != nil {
				return err
			}
		}
		if len(rejects) > 0 {
			return errLinesRejected // rollback de todas las reservas ya hechas
		}
		return nil
	})
	if errors.Is(err, errLinesRejected) {
		return false, rejects, nil
	}
	if err != nil {
		return false, nil, err
	}
	return true, nil, nil
}

// ReleaseOrder libera las reservas de todas las líneas de una orden cancelada,
// en una sola transacción.
func (uc *StockUseCase) ReleaseOrder(ctx context.Context, orderID string, lines []OrderLine) error {
	if orderID == "" || len(lines) == 0 {
		return domain.ErrInvalidInput
	}
	sorted := sortedLines(lines)

	return uc.txRunner.Run(ctx, func(
		_ repository.StockMovementRepository,
		stockRepo repository.StockRepository,
		_ repository.ProductRepository,
	) error {
		for _, l := range sorted {
			stock, err := stockRepo.GetForUpdate(l.ProductID, l.WarehouseID)
			if err != nil {
				return err
			}
			if err := stock.Release(l.Quantity); err != nil {
				return err
			}
			if err := stockRepo.Update(stock); err != nil {
				return err
			}
		}
		return nil
	})
}

// ConfirmOrderShipment despacha todas las líneas de una orden en una sola
// transacción: cada línea descuenta en mano y reservado y deja su registro
// SALES_OUT en el libro con la orden como referencia.
func (uc *StockUseCase) ConfirmOrderShipment(ctx context.Context, orderID, operatorID string, lines []OrderLine) error {
	if orderID == "" || len(lines) == 0 {
		return domain.ErrInvalidInput
	}
	sorted := sortedLines(lines)
	now := time.Now()

	var movs []*entity.StockMovement
	err := uc.txRunner.Run(ctx, func(
		movRepo repository.StockMovementRepository,
		stockRepo repository.StockRepository,
		_ repository.ProductRepository,
	) error {
		for _, l := range sorted {
			stock, err := stockRepo.GetForUpdate(l.ProductID, l.WarehouseID)
			if err != nil {
				return err
			}
			before := stock.Quantity
			if err := stock.ConfirmShipment(l.Quantity, now); err != nil {
				if err == domain.ErrReservationMismatch && uc.log != nil {
					uc.log.Error().
						Str("order_id", orderID).
						Str("product_id", l.ProductID).
						Str("warehouse_id", l.WarehouseID).
						Int64("quantity", l.Quantity).
						Int64("on_hand", stock.Quantity).
						Int64("reserved", stock.ReservedQuantity).
						Msg("despacho de orden rechazado: reserva inconsistente")
				}
				return err
			}
			if err := stockRepo.Update(stock); err != nil {
				return err
			}
			mov := entity.NewStockMovement(
				l.ProductID, l.WarehouseID, entity.MovementSalesOut,
				l.Quantity, before,
				orderID, "", operatorID, now,
			)
			if err := movRepo.Create(mov); err != nil {
				return err
			}
			movs = append(movs, mov)
		}
		return nil
	})
	if err != nil {
		return err
	}
	for _, mov := range movs {
		uc.publish(ctx, mov)
	}
	return nil
}

// sortedLines devuelve una copia de las líneas en orden canónico de la llave
// compuesta producto+bodega (orden de adquisición de locks).
func sortedLines(lines []OrderLine) []OrderLine {
	sorted := make([]OrderLine, len(lines))
	copy(sorted, lines)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].ProductID != sorted[j].ProductID {
			return sorted[i].ProductID < sorted[j].ProductID
		}
		return sorted[i].WarehouseID < sorted[j].WarehouseID
	})
	return sorted
}
