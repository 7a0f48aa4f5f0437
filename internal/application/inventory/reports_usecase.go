package inventory

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tu-usuario/stock-ledger/internal/application/dto"
	"github.com/tu-usuario/stock-ledger/internal/domain"
	"github.com/tu-usuario/stock-ledger/internal/domain/repository"
)

// ReportsUseCase agrega las consultas de solo lectura del inventario: listados
// de bajo stock/agotados/reservados, valorización, sumas por dirección,
// sugerencias de reposición y conciliación libro vs proyección.
//
// Ninguna consulta toma el lock exclusivo: el resultado es una foto, no una
// base para decidir-y-mutar por fuera de una operación de mutación.
type ReportsUseCase struct {
	reportRepo repository.ReportRepository
	stockRepo  repository.StockRepository
	movRepo    repository.StockMovementRepository
}

// NewReportsUseCase construye el caso de uso de reportes (repos atados al pool).
func NewReportsUseCase(
	reportRepo repository.ReportRepository,
	stockRepo repository.StockRepository,
	movRepo repository.StockMovementRepository,
) *ReportsUseCase {
	return &ReportsUseCase{
		reportRepo: reportRepo,
		stockRepo:  stockRepo,
		movRepo:    movRepo,
	}
}

// GetStock devuelve la proyección actual de un par producto+bodega.
func (uc *ReportsUseCase) GetStock(ctx context.Context, productID, warehouseID string) (*dto.StockDTO, error) {
	if productID == "" || warehouseID == "" {
		return nil, domain.ErrInvalidInput
	}
	stock, err := uc.stockRepo.Get(productID, warehouseID)
	if err != nil {
		return nil, err
	}
	return &dto.StockDTO{
		ProductID:         stock.ProductID,
		WarehouseID:       stock.WarehouseID,
		Quantity:          stock.Quantity,
		ReservedQuantity:  stock.ReservedQuantity,
		AvailableQuantity: stock.AvailableQuantity(),
		LastMovementAt:    stock.LastMovementAt,
	}, nil
}

// ListLowStock productos con 0 < cantidad <= threshold.
func (uc *ReportsUseCase) ListLowStock(ctx context.Context, warehouseID string, threshold int64, page dto.PageRequest) ([]dto.StockListItemDTO, error) {
	if threshold <= 0 {
		return nil, domain.ErrInvalidInput
	}
	page.DefaultPage()
	items, err := uc.reportRepo.ListLowStock(ctx, warehouseID, threshold, page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}
	return toStockListDTOs(items), nil
}

// ListOutOfStock productos con cantidad en cero.
func (uc *ReportsUseCase) ListOutOfStock(ctx context.Context, warehouseID string, page dto.PageRequest) ([]dto.StockListItemDTO, error) {
	page.DefaultPage()
	items, err := uc.reportRepo.ListOutOfStock(ctx, warehouseID, page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}
	return toStockListDTOs(items), nil
}

// ListReserved productos con reserva vigente.
func (uc *ReportsUseCase) ListReserved(ctx context.Context, warehouseID string, page dto.PageRequest) ([]dto.StockListItemDTO, error) {
	page.DefaultPage()
	items, err := uc.reportRepo.ListReserved(ctx, warehouseID, page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}
	return toStockListDTOs(items), nil
}

// Valuation suma cantidad × costo unitario. warehouseID vacío = global.
func (uc *ReportsUseCase) Valuation(ctx context.Context, warehouseID string) (decimal.Decimal, error) {
	return uc.reportRepo.Valuation(ctx, warehouseID)
}

// MovementTotals sumas de entradas y salidas en el rango de fechas.
func (uc *ReportsUseCase) MovementTotals(ctx context.Context, warehouseID string, from, to time.Time) (*dto.MovementTotalsDTO, error) {
	if !to.After(from) {
		return nil, domain.ErrInvalidInput
	}
	totals, err := uc.reportRepo.MovementTotals(ctx, warehouseID, from, to)
	if err != nil {
		return nil, err
	}
	return &dto.MovementTotalsDTO{
		From:     from,
		To:       to,
		Inbound:  totals.Inbound,
		Outbound: totals.Outbound,
	}, nil
}

// ListMovementsByProduct historial del libro para un producto.
func (uc *ReportsUseCase) ListMovementsByProduct(ctx context.Context, productID string, from, to *time.Time, page dto.PageRequest) ([]dto.MovementDTO, error) {
	if productID == "" {
		return nil, domain.ErrInvalidInput
	}
	page.DefaultPage()
	movs, err := uc.movRepo.ListByProduct(productID, from, to, page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}
	out := make([]dto.MovementDTO, 0, len(movs))
	for _, m := range movs {
		out = append(out, dto.MovementDTO{
			ID:             m.ID,
			ProductID:      m.ProductID,
			WarehouseID:    m.WarehouseID,
			Type:           string(m.Type),
			Quantity:       m.Quantity,
			BeforeQuantity: m.BeforeQuantity,
			AfterQuantity:  m.AfterQuantity,
			ReferenceNo:    m.ReferenceNo,
			Remark:         m.Remark,
			OperatorID:     m.OperatorID,
			CreatedAt:      m.CreatedAt,
		})
	}
	return out, nil
}

// GenerateReplenishmentList devuelve los productos bajo punto de reorden con
// la cantidad sugerida de pedido, priorizados por volumen de salidas de los
// últimos 90 días y luego por mayor déficit.
func (uc *ReportsUseCase) GenerateReplenishmentList(ctx context.Context, warehouseID string) ([]dto.ReplenishmentSuggestionDTO, error) {
	rawItems, err := uc.reportRepo.GetProductsBelowReorderPoint(ctx, warehouseID)
	if err != nil {
		return nil, err
	}
	if len(rawItems) == 0 {
		return []dto.ReplenishmentSuggestionDTO{}, nil
	}

	// Salidas de los últimos 90 días por producto, para priorizar.
	end := time.Now()
	start := end.AddDate(0, 0, -90)
	sums, _ := uc.reportRepo.OutboundByProduct(ctx, start, end, 500)
	outboundByID := make(map[string]int64, len(sums))
	for _, s := range sums {
		outboundByID[s.ProductID] = s.Quantity
	}

	suggestions := make([]dto.ReplenishmentSuggestionDTO, 0, len(rawItems))
	for _, item := range rawItems {
		// Stock ideal: 1.5× el punto de reorden.
		idealStock := item.ReorderPoint + item.ReorderPoint/2
		suggestedQty := idealStock - item.CurrentStock
		if suggestedQty < 0 {
			suggestedQty = 0
		}
		suggestions = append(suggestions, dto.ReplenishmentSuggestionDTO{
			ProductID:          item.ProductID,
			SKU:                item.SKU,
			ProductName:        item.ProductName,
			CurrentStock:       item.CurrentStock,
			ReorderPoint:       item.ReorderPoint,
			SuggestedOrderQty:  suggestedQty,
			UnitCost:           item.UnitCost,
			EstimatedOrderCost: item.UnitCost.Mul(decimal.NewFromInt(suggestedQty)),
			OutboundLast90Days: outboundByID[item.ProductID],
		})
	}

	sort.SliceStable(suggestions, func(i, j int) bool {
		a, b := suggestions[i], suggestions[j]
		if a.OutboundLast90Days != b.OutboundLast90Days {
			return a.OutboundLast90Days > b.OutboundLast90Days
		}
		// Tiebreak: mayor déficit absoluto
		return a.ReorderPoint-a.CurrentStock > b.ReorderPoint-b.CurrentStock
	})
	for i := range suggestions {
		suggestions[i].Priority = i + 1
	}
	return suggestions, nil
}

// Reconcile reconstruye la cantidad de un par producto+bodega haciendo replay
// de todo su libro desde cero y la compara con la proyección vigente. También
// verifica que cada registro cuadre (after == before + cambio).
func (uc *ReportsUseCase) Reconcile(ctx context.Context, productID, warehouseID string) (*dto.ReconciliationDTO, error) {
	if productID == "" || warehouseID == "" {
		return nil, domain.ErrInvalidInput
	}
	stock, err := uc.stockRepo.Get(productID, warehouseID)
	if err != nil {
		return nil, err
	}
	movs, err := uc.movRepo.ListByKey(productID, warehouseID)
	if err != nil {
		return nil, err
	}

	var replayed int64
	broken := 0
	for _, m := range movs {
		if !m.IsQuantityConsistent() {
			broken++
		}
		replayed += m.QuantityChange()
	}

	return &dto.ReconciliationDTO{
		ProductID:        productID,
		WarehouseID:      warehouseID,
		LedgerQuantity:   replayed,
		CurrentQuantity:  stock.Quantity,
		Consistent:       broken == 0 && replayed == stock.Quantity,
		MovementCount:    len(movs),
		BrokenEntryCount: broken,
	}, nil
}

func toStockListDTOs(items []repository.StockListItem) []dto.StockListItemDTO {
	out := make([]dto.StockListItemDTO, 0, len(items))
	for _, it := range items {
		out = append(out, dto.StockListItemDTO{
			ProductID:        it.ProductID,
			WarehouseID:      it.WarehouseID,
			SKU:              it.SKU,
			ProductName:      it.ProductName,
			Quantity:         it.Quantity,
			ReservedQuantity: it.ReservedQuantity,
		})
	}
	return out
}
