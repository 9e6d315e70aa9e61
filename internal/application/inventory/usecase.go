package inventory

import (
	"context"
	"fmt"

	"github.com/jhoicas/pharma-ledger/internal/application/dto"
	"github.com/jhoicas/pharma-ledger/internal/domain/repository"
)

// UseCase consultas de inventario.
type UseCase struct {
	lots repository.StockLotRepository
}

// NewUseCase construye el caso de uso.
func NewUseCase(lots repository.StockLotRepository) *UseCase {
	return &UseCase{lots: lots}
}

// Available unidades disponibles de un producto.
func (uc *UseCase) Available(ctx context.Context, productID string) (*dto.StockResponse, error) {
	n, err := uc.lots.SumAvailable(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("inventory: sumar disponible: %w", err)
	}
	return &dto.StockResponse{ProductID: productID, Available: n}, nil
}
