package offers

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/pharma-ledger/internal/application/dto"
	"github.com/jhoicas/pharma-ledger/internal/application/events"
	"github.com/jhoicas/pharma-ledger/internal/application/validation"
	"github.com/jhoicas/pharma-ledger/internal/domain"
	"github.com/jhoicas/pharma-ledger/internal/domain/entity"
	"github.com/jhoicas/pharma-ledger/internal/domain/repository"
	"github.com/jhoicas/pharma-ledger/pkg/logger"
)

var hundred = decimal.NewFromInt(100)

// UseCase casos de uso de ofertas: alta, edición y recálculo de la mejor oferta.
type UseCase struct {
	tx         repository.TxRunner
	offers     repository.OfferRepository
	alloc      *Allocator
	dispatcher *events.Dispatcher
	profitPct  decimal.Decimal
	log        *logger.Logger
}

// NewUseCase construye el caso de uso. profitPct es el margen que se resta al descuento de compra
// para obtener el descuento de venta cuando no se indica.
func NewUseCase(tx repository.TxRunner, offers repository.OfferRepository, alloc *Allocator, dispatcher *events.Dispatcher, profitPct decimal.Decimal, log *logger.Logger) *UseCase {
	if log == nil {
		log = logger.Nop()
	}
	return &UseCase{
		tx:         tx,
		offers:     offers,
		alloc:      alloc,
		dispatcher: dispatcher,
		profitPct:  profitPct,
		log:        log.WithComponent("offers"),
	}
}

// CreateOffer publica una oferta del vendedor userID y recalcula la mejor oferta del producto.
func (uc *UseCase) CreateOffer(ctx context.Context, userID string, in dto.CreateOfferRequest) (*dto.OfferResponse, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	if err := checkPercent("purchase_discount_percentage", in.PurchaseDiscountPercentage); err != nil {
		return nil, err
	}
	selling := uc.sellingDiscount(in.PurchaseDiscountPercentage, in.SellingDiscountPercentage)
	if err := checkPercent("selling_discount_percentage", selling); err != nil {
		return nil, err
	}
	if in.MinPurchase.IsNegative() {
		return nil, domain.NewValidationError("min_purchase", "no puede ser negativo")
	}

	var created *entity.Offer
	out := &events.Outbox{}
	err := uc.tx.Run(ctx, func(r repository.Repositories) error {
		product, err := r.Products.GetByID(ctx, in.ProductID)
		if err != nil {
			return fmt.Errorf("offers: obtener producto: %w", err)
		}
		if product == nil {
			return fmt.Errorf("%w: producto %s", domain.ErrNotFound, in.ProductID)
		}
		now := time.Now().UTC()
		created = &entity.Offer{
			ID:                         uuid.New().String(),
			ProductID:                  product.ID,
			UserID:                     userID,
			OperatingNumber:            in.OperatingNumber,
			ProductExpiryDate:          in.ProductExpiryDate,
			AvailableAmount:            in.AvailableAmount,
			RemainingAmount:            in.AvailableAmount,
			MaxAmountPerInvoice:        in.MaxAmountPerInvoice,
			MinPurchase:                in.MinPurchase,
			PurchaseDiscountPercentage: in.PurchaseDiscountPercentage,
			PurchasePrice:              product.PriceAfterDiscount(in.PurchaseDiscountPercentage),
			SellingDiscountPercentage:  selling,
			SellingPrice:               product.PriceAfterDiscount(selling),
			CreatedAt:                  now,
			UpdatedAt:                  now,
		}
		if err := r.Offers.Create(ctx, created); err != nil {
			return fmt.Errorf("offers: crear oferta: %w", err)
		}
		return uc.alloc.RecomputeMax(ctx, r, out, product.ID)
	})
	if err != nil {
		return nil, err
	}
	uc.dispatcher.Flush(ctx, out)
	return uc.GetOffer(ctx, created.ID)
}

// UpdateOffer modifica una oferta del vendedor. La cantidad publicada nunca baja de lo ya asignado.
// userID vacío omite el control de dueño (operador de la plataforma).
func (uc *UseCase) UpdateOffer(ctx context.Context, userID, offerID string, in dto.UpdateOfferRequest) (*dto.OfferResponse, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	out := &events.Outbox{}
	err := uc.tx.Run(ctx, func(r repository.Repositories) error {
		siblings, o, err := uc.alloc.lockProductOffers(ctx, r, offerID)
		if err != nil {
			return err
		}
		if userID != "" && o.UserID != userID {
			return domain.ErrForbidden
		}
		product, err := r.Products.GetByID(ctx, o.ProductID)
		if err != nil {
			return fmt.Errorf("offers: obtener producto: %w", err)
		}
		if product == nil {
			return fmt.Errorf("%w: producto %s", domain.ErrNotFound, o.ProductID)
		}

		if in.AvailableAmount != nil {
			allocated := o.AvailableAmount - o.RemainingAmount
			if *in.AvailableAmount < allocated {
				return domain.NewValidationError("available_amount",
					fmt.Sprintf("no puede ser menor que las %d unidades ya asignadas", allocated))
			}
			o.AvailableAmount = *in.AvailableAmount
			o.RemainingAmount = *in.AvailableAmount - allocated
		}
		if in.MaxAmountPerInvoice != nil {
			o.MaxAmountPerInvoice = *in.MaxAmountPerInvoice
		}
		if in.MinPurchase != nil {
			if in.MinPurchase.IsNegative() {
				return domain.NewValidationError("min_purchase", "no puede ser negativo")
			}
			o.MinPurchase = *in.MinPurchase
		}
		if in.PurchaseDiscountPercentage != nil {
			if err := checkPercent("purchase_discount_percentage", *in.PurchaseDiscountPercentage); err != nil {
				return err
			}
			o.PurchaseDiscountPercentage = *in.PurchaseDiscountPercentage
		}
		// Sin descuento de venta explícito, uno nuevo de compra vuelve a derivarlo con el margen.
		if in.SellingDiscountPercentage != nil {
			if err := checkPercent("selling_discount_percentage", *in.SellingDiscountPercentage); err != nil {
				return err
			}
			o.SellingDiscountPercentage = *in.SellingDiscountPercentage
		} else if in.PurchaseDiscountPercentage != nil {
			o.SellingDiscountPercentage = uc.sellingDiscount(o.PurchaseDiscountPercentage, nil)
		}
		if in.ProductExpiryDate != nil {
			o.ProductExpiryDate = in.ProductExpiryDate
		}
		if in.OperatingNumber != nil {
			o.OperatingNumber = *in.OperatingNumber
		}
		o.PurchasePrice = product.PriceAfterDiscount(o.PurchaseDiscountPercentage)
		o.SellingPrice = product.PriceAfterDiscount(o.SellingDiscountPercentage)
		o.UpdatedAt = time.Now().UTC()
		if err := r.Offers.Update(ctx, o); err != nil {
			return fmt.Errorf("offers: actualizar oferta: %w", err)
		}
		return uc.alloc.recompute(ctx, r, out, o.ProductID, siblings)
	})
	if err != nil {
		return nil, err
	}
	uc.dispatcher.Flush(ctx, out)
	return uc.GetOffer(ctx, offerID)
}

// sellingDiscount devuelve el descuento de venta explícito o el de compra menos el margen, nunca negativo.
func (uc *UseCase) sellingDiscount(purchase decimal.Decimal, explicit *decimal.Decimal) decimal.Decimal {
	selling := purchase.Sub(uc.profitPct)
	if explicit != nil {
		selling = *explicit
	}
	if selling.IsNegative() {
		return decimal.Zero
	}
	return selling
}

// GetOffer obtiene una oferta por ID.
func (uc *UseCase) GetOffer(ctx context.Context, id string) (*dto.OfferResponse, error) {
	o, err := uc.offers.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("offers: obtener oferta: %w", err)
	}
	if o == nil {
		return nil, domain.ErrNotFound
	}
	return ToOfferResponse(o), nil
}

// ListByProduct lista las ofertas de un producto.
func (uc *UseCase) ListByProduct(ctx context.Context, productID string) ([]dto.OfferResponse, error) {
	list, err := uc.offers.ListByProduct(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("offers: listar ofertas: %w", err)
	}
	out := make([]dto.OfferResponse, 0, len(list))
	for _, o := range list {
		out = append(out, *ToOfferResponse(o))
	}
	return out, nil
}

// RecomputeMax recalcula la mejor oferta de un producto en su propia transacción.
func (uc *UseCase) RecomputeMax(ctx context.Context, productID string) error {
	out := &events.Outbox{}
	if err := uc.tx.Run(ctx, func(r repository.Repositories) error {
		return uc.alloc.RecomputeMax(ctx, r, out, productID)
	}); err != nil {
		return err
	}
	uc.dispatcher.Flush(ctx, out)
	return nil
}

// RecomputeAll recalcula la mejor oferta de todos los productos con ofertas. Devuelve cuántos cambiaron.
func (uc *UseCase) RecomputeAll(ctx context.Context) (int, error) {
	ids, err := uc.offers.ListProductIDs(ctx)
	if err != nil {
		return 0, fmt.Errorf("offers: listar productos: %w", err)
	}
	changed := 0
	for _, id := range ids {
		out := &events.Outbox{}
		if err := uc.tx.Run(ctx, func(r repository.Repositories) error {
			return uc.alloc.RecomputeMax(ctx, r, out, id)
		}); err != nil {
			return changed, fmt.Errorf("offers: recalcular producto %s: %w", id, err)
		}
		if n := len(out.MaxOfferEvents()); n > 0 {
			changed += n
			uc.log.Info().Str("product_id", id).Msg("mejor oferta corregida")
		}
		uc.dispatcher.Flush(ctx, out)
	}
	return changed, nil
}

func checkPercent(field string, v decimal.Decimal) error {
	if v.IsNegative() || v.GreaterThan(hundred) {
		return domain.NewValidationError(field, "debe estar entre 0 y 100")
	}
	return nil
}

// ToOfferResponse mapea la entidad a su DTO.
func ToOfferResponse(o *entity.Offer) *dto.OfferResponse {
	return &dto.OfferResponse{
		ID:                         o.ID,
		ProductID:                  o.ProductID,
		UserID:                     o.UserID,
		OperatingNumber:            o.OperatingNumber,
		ProductExpiryDate:          o.ProductExpiryDate,
		AvailableAmount:            o.AvailableAmount,
		RemainingAmount:            o.RemainingAmount,
		MaxAmountPerInvoice:        o.MaxAmountPerInvoice,
		MinPurchase:                o.MinPurchase,
		PurchaseDiscountPercentage: o.PurchaseDiscountPercentage,
		PurchasePrice:              o.PurchasePrice,
		SellingDiscountPercentage:  o.SellingDiscountPercentage,
		SellingPrice:               o.SellingPrice,
		IsMax:                      o.IsMax,
		CreatedAt:                  o.CreatedAt,
		UpdatedAt:                  o.UpdatedAt,
	}
}
