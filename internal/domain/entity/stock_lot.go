package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// StockLot lote físico de inventario de un producto.
type StockLot struct {
	ID                         string
	ProductID                  string
	SourceItemID               *string // ítem de compra o de devolución que originó el lote
	ProductExpiryDate          *time.Time
	OperatingNumber            string
	PurchaseDiscountPercentage decimal.Decimal
	PurchasePrice              decimal.Decimal
	SellingDiscountPercentage  decimal.Decimal
	SellingPrice               decimal.Decimal
	Quantity                   int
	RemainingQuantity          int
	ReceivedAt                 time.Time
}

// Untouched indica si el lote no ha sido consumido.
func (l *StockLot) Untouched() bool { return l.RemainingQuantity == l.Quantity }
