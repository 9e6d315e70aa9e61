package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Offer listado con precio y cantidad limitada de un producto, publicado por un vendedor.
// RemainingAmount nunca es negativo ni supera AvailableAmount.
type Offer struct {
	ID                         string
	ProductID                  string
	UserID                     string // vendedor dueño de la oferta
	OperatingNumber            string
	ProductExpiryDate          *time.Time
	AvailableAmount            int
	RemainingAmount            int
	MaxAmountPerInvoice        int // 0 = sin límite por factura
	MinPurchase                decimal.Decimal
	PurchaseDiscountPercentage decimal.Decimal
	PurchasePrice              decimal.Decimal
	SellingDiscountPercentage  decimal.Decimal
	SellingPrice               decimal.Decimal
	IsMax                      bool // mejor oferta viva del producto
	CreatedAt                  time.Time
	UpdatedAt                  time.Time
}

// Live indica si la oferta todavía tiene unidades.
func (o *Offer) Live() bool { return o.RemainingAmount > 0 }

// MaxOfferChanged evento emitido cuando cambia la mejor oferta de un producto.
// NewOfferID vacío significa que no queda ninguna oferta viva.
type MaxOfferChanged struct {
	ProductID   string    `json:"product_id"`
	PrevOfferID string    `json:"prev_offer_id,omitempty"`
	NewOfferID  string    `json:"new_offer_id,omitempty"`
	OccurredAt  time.Time `json:"occurred_at"`
}
