package repository

import (
	"context"

	"github.com/jhoicas/pharma-ledger/internal/domain/entity"
)

// OfferRepository define el puerto de persistencia para Offer.
// Los métodos ForUpdate bloquean las filas (SELECT ... FOR UPDATE) dentro de la transacción.
type OfferRepository interface {
	Create(ctx context.Context, offer *entity.Offer) error
	Update(ctx context.Context, offer *entity.Offer) error
	GetByID(ctx context.Context, id string) (*entity.Offer, error)
	GetForUpdate(ctx context.Context, id string) (*entity.Offer, error)
	ListByProduct(ctx context.Context, productID string) ([]*entity.Offer, error)
	ListByProductForUpdate(ctx context.Context, productID string) ([]*entity.Offer, error)
	ListProductIDs(ctx context.Context) ([]string, error)
}
