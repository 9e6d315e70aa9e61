package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// InvoiceKind tipo de factura.
type InvoiceKind string

const (
	InvoiceKindPurchase       InvoiceKind = "purchase"        // compra al vendedor dueño de la oferta
	InvoiceKindSale           InvoiceKind = "sale"            // venta a farmacia
	InvoiceKindPurchaseReturn InvoiceKind = "purchase_return" // devolución al vendedor
	InvoiceKindSaleReturn     InvoiceKind = "sale_return"     // devolución de la farmacia
)

// Valid indica si el tipo es conocido.
func (k InvoiceKind) Valid() bool {
	switch k {
	case InvoiceKindPurchase, InvoiceKindSale, InvoiceKindPurchaseReturn, InvoiceKindSaleReturn:
		return true
	}
	return false
}

// IsReturn indica si es una factura de devolución.
func (k InvoiceKind) IsReturn() bool {
	return k == InvoiceKindPurchaseReturn || k == InvoiceKindSaleReturn
}

// SourceKind tipo de factura a la que apunta una devolución.
func (k InvoiceKind) SourceKind() InvoiceKind {
	switch k {
	case InvoiceKindPurchaseReturn:
		return InvoiceKindPurchase
	case InvoiceKindSaleReturn:
		return InvoiceKindSale
	}
	return ""
}

// DocumentKind documento contable asociado al tipo de factura.
func (k InvoiceKind) DocumentKind() DocumentKind {
	switch k {
	case InvoiceKindPurchase:
		return DocumentPurchaseInvoice
	case InvoiceKindSale:
		return DocumentSaleInvoice
	case InvoiceKindPurchaseReturn:
		return DocumentPurchaseReturn
	case InvoiceKindSaleReturn:
		return DocumentSaleReturn
	}
	return ""
}

// Estados de la cabecera.
const (
	InvoiceStatusPlaced = "PLACED"
	InvoiceStatusLocked = "LOCKED" // solo compras: en espera de confirmación del vendedor
	InvoiceStatusClosed = "CLOSED"
)

// Invoice cabecera de una factura de compra, venta o devolución.
// Los totales se derivan siempre de los ítems vivos.
type Invoice struct {
	ID                    string
	Kind                  InvoiceKind
	UserID                string
	SourceInvoiceID       *string // devoluciones: factura origen
	SupplierInvoiceNumber string
	ItemsCount            int
	TotalQuantity         int
	TotalPrice            decimal.Decimal
	Status                string
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// Closed indica si la factura está cerrada.
func (i *Invoice) Closed() bool { return i.Status == InvoiceStatusClosed }

// Ref referencia contable de la factura.
func (i *Invoice) Ref() DocumentRef {
	return DocumentRef{Kind: i.Kind.DocumentKind(), ID: i.ID}
}

// ApplyTotals reemplaza los agregados por los derivados de los ítems.
func (i *Invoice) ApplyTotals(t Totals) {
	i.ItemsCount = t.ItemsCount
	i.TotalQuantity = t.TotalQuantity
	i.TotalPrice = t.TotalPrice
}

// Totals agregados de una factura.
type Totals struct {
	ItemsCount    int
	TotalQuantity int
	TotalPrice    decimal.Decimal
}

// SumItems deriva los agregados de la colección de ítems vivos.
func SumItems(items []*InvoiceItem) Totals {
	t := Totals{TotalPrice: decimal.Zero}
	for _, it := range items {
		t.ItemsCount++
		t.TotalQuantity += it.Quantity
		t.TotalPrice = t.TotalPrice.Add(it.SubTotal)
	}
	return t
}
