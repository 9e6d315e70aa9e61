package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentKind tipo de pago.
type PaymentKind string

const (
	PaymentKindPurchase PaymentKind = "purchase" // la plataforma paga al vendedor
	PaymentKindSale     PaymentKind = "sale"     // la farmacia paga a la plataforma
	PaymentKindRefund   PaymentKind = "refund"   // reembolso a la farmacia
)

// Valid indica si el tipo es conocido.
func (k PaymentKind) Valid() bool {
	return k == PaymentKindPurchase || k == PaymentKindSale || k == PaymentKindRefund
}

// DocumentKind documento contable del pago.
func (k PaymentKind) DocumentKind() DocumentKind {
	switch k {
	case PaymentKindPurchase:
		return DocumentPurchasePayment
	case PaymentKindSale:
		return DocumentSalePayment
	case PaymentKindRefund:
		return DocumentRefund
	}
	return ""
}

// Métodos de pago.
const (
	PaymentMethodInstapay = "instapay"
	PaymentMethodCash     = "cash"
	PaymentMethodWallet   = "wallet"
	PaymentMethodProducts = "products"
)

// Payment pago o reembolso registrado contra la cuenta de un usuario.
type Payment struct {
	ID        string
	Kind      PaymentKind
	UserID    string
	Method    string
	Amount    decimal.Decimal
	At        time.Time
	Remarks   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Ref referencia contable del pago.
func (p *Payment) Ref() DocumentRef {
	return DocumentRef{Kind: p.Kind.DocumentKind(), ID: p.ID}
}
