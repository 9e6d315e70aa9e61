package cart

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/pharma-ledger/internal/application/dto"
	"github.com/jhoicas/pharma-ledger/internal/application/validation"
	"github.com/jhoicas/pharma-ledger/internal/domain"
	"github.com/jhoicas/pharma-ledger/internal/domain/entity"
	"github.com/jhoicas/pharma-ledger/internal/domain/offer"
	"github.com/jhoicas/pharma-ledger/internal/domain/repository"
)

// UseCase agrega productos al carrito contra la mejor oferta vigente.
type UseCase struct {
	carts  repository.CartItemRepository
	offers repository.OfferRepository
}

// NewUseCase construye el caso de uso.
func NewUseCase(carts repository.CartItemRepository, offers repository.OfferRepository) *UseCase {
	return &UseCase{carts: carts, offers: offers}
}

// Add crea un ítem de carrito ligado a la mejor oferta del producto.
func (uc *UseCase) Add(ctx context.Context, userID string, in dto.AddCartItemRequest) (*dto.CartItemResponse, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	list, err := uc.offers.ListByProduct(ctx, in.ProductID)
	if err != nil {
		return nil, fmt.Errorf("cart: listar ofertas: %w", err)
	}
	best := offer.SelectMax(list)
	if best == nil {
		return nil, fmt.Errorf("%w: el producto %s no tiene ofertas vigentes", domain.ErrConflict, in.ProductID)
	}
	c := &entity.CartItem{
		ID:        uuid.New().String(),
		UserID:    userID,
		ProductID: in.ProductID,
		Quantity:  in.Quantity,
		UpdatedAt: time.Now().UTC(),
	}
	Reprice(c, best)
	if err := uc.carts.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("cart: crear ítem: %w", err)
	}
	return &dto.CartItemResponse{
		ID:        c.ID,
		ProductID: c.ProductID,
		OfferID:   c.OfferID,
		Quantity:  c.Quantity,
		UnitPrice: c.UnitPrice,
		SoldOut:   c.SoldOut,
	}, nil
}
