package repository

import "github.com/tu-usuario/stock-ledger/internal/domain/entity"

// WarehouseRepository puerto de lectura sobre bodegas (colaborador externo).
type WarehouseRepository interface {
	GetByID(id string) (*entity.Warehouse, error)
	List(limit, offset int) ([]*entity.Warehouse, error)
}
