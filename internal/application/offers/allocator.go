// Package offers mantiene las cantidades restantes de las ofertas y su bandera de mejor oferta.
package offers

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/pharma-ledger/internal/application/events"
	"github.com/jhoicas/pharma-ledger/internal/domain"
	"github.com/jhoicas/pharma-ledger/internal/domain/entity"
	"github.com/jhoicas/pharma-ledger/internal/domain/offer"
	"github.com/jhoicas/pharma-ledger/internal/domain/repository"
)

// Allocator reserva y libera unidades de una oferta dentro de la unidad de trabajo del llamador.
// Bloquea todas las ofertas del producto (por id) antes de modificar ninguna.
type Allocator struct {
	now func() time.Time
}

// NewAllocator construye el asignador.
func NewAllocator() *Allocator {
	return &Allocator{now: func() time.Time { return time.Now().UTC() }}
}

// Allocate descuenta quantity de la oferta. Si se agota recalcula la mejor oferta del producto.
func (a *Allocator) Allocate(ctx context.Context, r repository.Repositories, out *events.Outbox, offerID string, quantity int) (*entity.Offer, error) {
	return a.allocate(ctx, r, out, offerID, quantity, false)
}

// AllocateMax es Allocate para ventas: además exige que la oferta siga siendo la mejor del
// producto una vez bloqueada, o devuelve ErrConflict sin modificar nada.
func (a *Allocator) AllocateMax(ctx context.Context, r repository.Repositories, out *events.Outbox, offerID string, quantity int) (*entity.Offer, error) {
	return a.allocate(ctx, r, out, offerID, quantity, true)
}

func (a *Allocator) allocate(ctx context.Context, r repository.Repositories, out *events.Outbox, offerID string, quantity int, requireMax bool) (*entity.Offer, error) {
	if quantity < 1 {
		return nil, domain.NewValidationError("quantity", "debe ser al menos 1")
	}
	siblings, o, err := a.lockProductOffers(ctx, r, offerID)
	if err != nil {
		return nil, err
	}
	if requireMax && !o.IsMax {
		return nil, fmt.Errorf("%w: la oferta %s ya no es la mejor oferta vigente del producto", domain.ErrConflict, o.ID)
	}
	if quantity > o.RemainingAmount {
		return nil, &domain.InsufficientOfferQuantityError{OfferID: o.ID, Requested: quantity, Remaining: o.RemainingAmount}
	}
	o.RemainingAmount -= quantity
	o.UpdatedAt = a.now()
	if err := r.Offers.Update(ctx, o); err != nil {
		return nil, fmt.Errorf("offers: actualizar oferta: %w", err)
	}
	if o.RemainingAmount == 0 {
		if err := a.recompute(ctx, r, out, o.ProductID, siblings); err != nil {
			return nil, err
		}
	}
	return o, nil
}

// Release devuelve quantity a la oferta sin superar AvailableAmount.
// Si la oferta estaba agotada vuelve a competir por ser la mejor.
func (a *Allocator) Release(ctx context.Context, r repository.Repositories, out *events.Outbox, offerID string, quantity int) (*entity.Offer, error) {
	if quantity < 1 {
		return nil, domain.NewValidationError("quantity", "debe ser al menos 1")
	}
	siblings, o, err := a.lockProductOffers(ctx, r, offerID)
	if err != nil {
		return nil, err
	}
	if o.RemainingAmount+quantity > o.AvailableAmount {
		return nil, fmt.Errorf("%w: liberar %d unidades excede la cantidad publicada de la oferta %s (%d/%d)",
			domain.ErrConflict, quantity, o.ID, o.RemainingAmount, o.AvailableAmount)
	}
	wasSoldOut := o.RemainingAmount == 0
	o.RemainingAmount += quantity
	o.UpdatedAt = a.now()
	if err := r.Offers.Update(ctx, o); err != nil {
		return nil, fmt.Errorf("offers: actualizar oferta: %w", err)
	}
	if wasSoldOut {
		if err := a.recompute(ctx, r, out, o.ProductID, siblings); err != nil {
			return nil, err
		}
	}
	return o, nil
}

// RecomputeMax bloquea las ofertas del producto y vuelve a elegir la mejor.
func (a *Allocator) RecomputeMax(ctx context.Context, r repository.Repositories, out *events.Outbox, productID string) error {
	siblings, err := r.Offers.ListByProductForUpdate(ctx, productID)
	if err != nil {
		return fmt.Errorf("offers: bloquear ofertas: %w", err)
	}
	return a.recompute(ctx, r, out, productID, siblings)
}

func (a *Allocator) recompute(ctx context.Context, r repository.Repositories, out *events.Outbox, productID string, siblings []*entity.Offer) error {
	res := offer.Recompute(siblings)
	now := a.now()
	for _, o := range res.Changed {
		o.UpdatedAt = now
		if err := r.Offers.Update(ctx, o); err != nil {
			return fmt.Errorf("offers: actualizar bandera is_max: %w", err)
		}
	}
	if res.MaxChanged() && out != nil {
		ev := entity.MaxOfferChanged{ProductID: productID, OccurredAt: now}
		if res.Prev != nil {
			ev.PrevOfferID = res.Prev.ID
		}
		if res.Next != nil {
			ev.NewOfferID = res.Next.ID
		}
		out.MaxOfferChanged(ev)
	}
	return nil
}

// lockProductOffers localiza el producto de la oferta y bloquea todas sus hermanas.
// Devuelve la oferta pedida tomada del conjunto bloqueado.
func (a *Allocator) lockProductOffers(ctx context.Context, r repository.Repositories, offerID string) ([]*entity.Offer, *entity.Offer, error) {
	cur, err := r.Offers.GetByID(ctx, offerID)
	if err != nil {
		return nil, nil, fmt.Errorf("offers: obtener oferta: %w", err)
	}
	if cur == nil {
		return nil, nil, fmt.Errorf("%w: oferta %s", domain.ErrNotFound, offerID)
	}
	siblings, err := r.Offers.ListByProductForUpdate(ctx, cur.ProductID)
	if err != nil {
		return nil, nil, fmt.Errorf("offers: bloquear ofertas: %w", err)
	}
	for _, o := range siblings {
		if o.ID == offerID {
			return siblings, o, nil
		}
	}
	return nil, nil, fmt.Errorf("%w: oferta %s", domain.ErrNotFound, offerID)
}
