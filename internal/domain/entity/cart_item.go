package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// CartItem línea del carrito de una farmacia, ligada a la mejor oferta del producto.
type CartItem struct {
	ID        string
	UserID    string
	ProductID string
	OfferID   *string
	Quantity  int
	UnitPrice decimal.Decimal
	SoldOut   bool
	UpdatedAt time.Time
}
