package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product representa un producto o SKU. Colaborador externo del motor de
// stock: aquí solo interesan su existencia, el costo unitario (valorización)
// y el punto de reorden (sugerencias de compra).
type Product struct {
	ID           string
	SKU          string
	Name         string
	Cost         decimal.Decimal // costo unitario para valorización
	ReorderPoint int64
	UnitMeasure  string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
