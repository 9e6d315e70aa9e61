package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product representa un producto del catálogo farmacéutico.
// PublicPrice es el precio al público del que se derivan los precios de compra y venta de cada oferta.
type Product struct {
	ID          string
	Name        string
	PublicPrice decimal.Decimal
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// PriceAfterDiscount aplica un porcentaje de descuento sobre el precio al público (2 decimales).
func (p *Product) PriceAfterDiscount(discountPct decimal.Decimal) decimal.Decimal {
	return PriceAfterDiscount(p.PublicPrice, discountPct)
}

// PriceAfterDiscount price × (1 − pct/100), redondeado a 2 decimales.
func PriceAfterDiscount(price, discountPct decimal.Decimal) decimal.Decimal {
	off := price.Mul(discountPct).Div(decimal.NewFromInt(100))
	return price.Sub(off).Round(2)
}

// LineTotal precio unitario × cantidad, redondeado a 2 decimales.
func LineTotal(unitPrice decimal.Decimal, quantity int) decimal.Decimal {
	return unitPrice.Mul(decimal.NewFromInt(int64(quantity))).Round(2)
}
