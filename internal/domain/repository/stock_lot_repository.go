package repository

import (
	"context"

	"github.com/jhoicas/pharma-ledger/internal/domain/entity"
)

// StockLotRepository define el puerto para los lotes de inventario.
// Usado dentro de transacciones para garantizar consistencia.
type StockLotRepository interface {
	Create(ctx context.Context, lot *entity.StockLot) error
	Update(ctx context.Context, lot *entity.StockLot) error
	Delete(ctx context.Context, id string) error
	// ListByProductForUpdate bloquea los lotes con unidades restantes del producto.
	ListByProductForUpdate(ctx context.Context, productID string) ([]*entity.StockLot, error)
	SumAvailable(ctx context.Context, productID string) (int, error)
	GetBySourceItem(ctx context.Context, itemID string) (*entity.StockLot, error)
}
