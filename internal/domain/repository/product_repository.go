package repository

import (
	"context"

	"github.com/jhoicas/pharma-ledger/internal/domain/entity"
)

// ProductRepository define el puerto de lectura del catálogo (DIP).
type ProductRepository interface {
	Create(ctx context.Context, product *entity.Product) error
	GetByID(ctx context.Context, id string) (*entity.Product, error)
	// Names devuelve product_id → nombre para los ids dados (los inexistentes se omiten).
	Names(ctx context.Context, ids []string) (map[string]string, error)
}
