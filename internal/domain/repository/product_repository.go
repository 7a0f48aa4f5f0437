package repository

import "github.com/tu-usuario/stock-ledger/internal/domain/entity"

// ProductRepository puerto de lectura sobre productos (colaborador externo).
// El motor de stock solo valida existencia y consulta costo/punto de reorden.
type ProductRepository interface {
	GetByID(id string) (*entity.Product, error)
	List(limit, offset int) ([]*entity.Product, error)
}
