package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Acciones registradas en la bitácora de ítems eliminados.
const (
	DeletedActionDeleted         = "deleted"
	DeletedActionQuantityReduced = "quantity_reduced"
)

// DeletedItem copia inmutable del estado de un ítem al eliminarlo o reducir su cantidad.
// Solo se usa para auditoría y reportes.
type DeletedItem struct {
	ID                         string
	InvoiceID                  string
	InvoiceKind                InvoiceKind
	ItemID                     string
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
	SubTotal                   decimal.Decimal
	Status                     string
	Action                     string
	DeletedAt                  time.Time
}

// SnapshotDeleted copia completa del ítem al eliminarlo.
func SnapshotDeleted(it *InvoiceItem, kind InvoiceKind, at time.Time) *DeletedItem {
	d := snapshot(it, kind, at)
	d.Action = DeletedActionDeleted
	return d
}

// SnapshotReduction copia del ítem con la cantidad y el valor del delta reducido.
func SnapshotReduction(it *InvoiceItem, kind InvoiceKind, delta int, at time.Time) *DeletedItem {
	d := snapshot(it, kind, at)
	d.Action = DeletedActionQuantityReduced
	d.Quantity = delta
	d.RemainingQuantity = delta
	d.SubTotal = LineTotal(it.UnitPrice(kind), delta)
	return d
}

func snapshot(it *InvoiceItem, kind InvoiceKind, at time.Time) *DeletedItem {
	return &DeletedItem{
		InvoiceID:                  it.InvoiceID,
		InvoiceKind:                kind,
		ItemID:                     it.ID,
		ProductID:                  it.ProductID,
		OfferID:                    it.OfferID,
		MirrorItemID:               it.MirrorItemID,
		SourceItemID:               it.SourceItemID,
		ProductExpiryDate:          it.ProductExpiryDate,
		OperatingNumber:            it.OperatingNumber,
		PurchaseDiscountPercentage: it.PurchaseDiscountPercentage,
		PurchasePrice:              it.PurchasePrice,
		SellingDiscountPercentage:  it.SellingDiscountPercentage,
		SellingPrice:               it.SellingPrice,
		Quantity:                   it.Quantity,
		RemainingQuantity:          it.RemainingQuantity,
		SubTotal:                   it.SubTotal,
		Status:                     it.Status,
		DeletedAt:                  at,
	}
}
