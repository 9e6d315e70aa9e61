// Package cart consume MaxOfferChanged y ajusta los carritos que apuntan al producto.
package cart

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/pharma-ledger/internal/domain/entity"
	"github.com/jhoicas/pharma-ledger/internal/domain/repository"
	"github.com/jhoicas/pharma-ledger/pkg/logger"
)

// DefaultPageSize tamaño de página cuando no se configura.
const DefaultPageSize = 100

// Repricer reprecia los ítems de carrito contra la nueva mejor oferta o los marca agotados.
// Recorre el carrito por páginas (cursor por id) para no cargarlo completo en memoria.
type Repricer struct {
	carts    repository.CartItemRepository
	offers   repository.OfferRepository
	pageSize int
	log      *logger.Logger
}

// NewRepricer construye el consumidor.
func NewRepricer(carts repository.CartItemRepository, offers repository.OfferRepository, pageSize int, log *logger.Logger) *Repricer {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Repricer{carts: carts, offers: offers, pageSize: pageSize, log: log.WithComponent("cart")}
}

// HandleMaxOfferChanged implementa ports.MaxOfferHandler.
func (rp *Repricer) HandleMaxOfferChanged(ctx context.Context, ev entity.MaxOfferChanged) error {
	var next *entity.Offer
	if ev.NewOfferID != "" {
		o, err := rp.offers.GetByID(ctx, ev.NewOfferID)
		if err != nil {
			return fmt.Errorf("cart: obtener oferta: %w", err)
		}
		if o != nil && o.Live() {
			next = o
		}
	}

	repriced, soldOut := 0, 0
	after := ""
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		page, err := rp.carts.ListByProduct(ctx, ev.ProductID, after, rp.pageSize)
		if err != nil {
			return fmt.Errorf("cart: listar carrito: %w", err)
		}
		for _, c := range page {
			if Reprice(c, next) {
				repriced++
			} else {
				soldOut++
			}
			c.UpdatedAt = time.Now().UTC()
			if err := rp.carts.Update(ctx, c); err != nil {
				return fmt.Errorf("cart: actualizar ítem: %w", err)
			}
		}
		if len(page) < rp.pageSize {
			break
		}
		after = page[len(page)-1].ID
	}

	rp.log.Info().
		Str("product_id", ev.ProductID).
		Str("new_offer_id", ev.NewOfferID).
		Int("repriced", repriced).
		Int("sold_out", soldOut).
		Msg("carritos actualizados")
	return nil
}

// Reprice apunta el ítem a la oferta o lo marca agotado si no hay ninguna o no queda cantidad.
// La cantidad se ajusta al restante y al máximo por factura. Devuelve false si quedó agotado.
func Reprice(c *entity.CartItem, o *entity.Offer) bool {
	if o == nil || !o.Live() {
		c.OfferID = nil
		c.SoldOut = true
		return false
	}
	qty := c.Quantity
	if qty > o.RemainingAmount {
		qty = o.RemainingAmount
	}
	if o.MaxAmountPerInvoice > 0 && qty > o.MaxAmountPerInvoice {
		qty = o.MaxAmountPerInvoice
	}
	if qty < 1 {
		qty = 1
	}
	c.OfferID = entity.StrPtr(o.ID)
	c.Quantity = qty
	c.UnitPrice = o.SellingPrice
	c.SoldOut = false
	return true
}
