package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de ítem.
const (
	ItemStatusPlaced      = "PLACED"
	ItemStatusAccepted    = "ACCEPTED"
	ItemStatusRejected    = "REJECTED"
	ItemStatusReceived    = "RECEIVED"
	ItemStatusNotReceived = "NOT_RECEIVED"
)

// InvoiceItem línea de factura.
// En ventas y compras espejo MirrorItemID enlaza el ítem de la otra factura;
// en devoluciones SourceItemID apunta al ítem devuelto.
type InvoiceItem struct {
	ID                         string
	InvoiceID                  string
	ProductID                  string
	OfferID                    *string
	MirrorItemID               *string
	SourceItemID               *string
	ProductExpiryDate          *time.Time
	OperatingNumber            string
	PurchaseDiscountPercentage decimal.Decimal
	PurchasePrice              decimal.Decimal
	SellingDiscountPercentage  decimal.Decimal
	SellingPrice               decimal.Decimal
	Quantity                   int
	RemainingQuantity          int
	StockApplied               int // unidades ya aplicadas al inventario por cierres previos
	SubTotal                   decimal.Decimal
	Status                     string
	CreatedAt                  time.Time
	UpdatedAt                  time.Time
}

// UnitPrice precio unitario que compone el subtotal según el tipo de factura.
func (it *InvoiceItem) UnitPrice(kind InvoiceKind) decimal.Decimal {
	switch kind {
	case InvoiceKindPurchase, InvoiceKindPurchaseReturn:
		return it.PurchasePrice
	}
	return it.SellingPrice
}

// Reprice recalcula el subtotal con la cantidad actual.
func (it *InvoiceItem) Reprice(kind InvoiceKind) {
	it.SubTotal = LineTotal(it.UnitPrice(kind), it.Quantity)
}

// ClearOffer desvincula la oferta (p. ej. tras un rechazo con remove_offer).
func (it *InvoiceItem) ClearOffer() { it.OfferID = nil }

// StrPtr helper para campos opcionales.
func StrPtr(s string) *string { return &s }

// Deref devuelve "" si el puntero es nil.
func Deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
