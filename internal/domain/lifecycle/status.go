// Package lifecycle define las máquinas de estado de facturas e ítems.
package lifecycle

import (
	"fmt"

	"github.com/jhoicas/pharma-ledger/internal/domain"
	"github.com/jhoicas/pharma-ledger/internal/domain/entity"
)

// RequiredCloseStatus estado que todo ítem vivo debe tener para cerrar la factura.
const RequiredCloseStatus = entity.ItemStatusReceived

var (
	forward = map[string][]string{
		entity.ItemStatusPlaced: {
			entity.ItemStatusAccepted, entity.ItemStatusRejected,
			entity.ItemStatusReceived, entity.ItemStatusNotReceived,
		},
		entity.ItemStatusAccepted: {entity.ItemStatusReceived, entity.ItemStatusNotReceived},
		entity.ItemStatusRejected: {entity.ItemStatusReceived, entity.ItemStatusNotReceived},
	}
	backward = map[string][]string{
		entity.ItemStatusAccepted:    {entity.ItemStatusPlaced},
		entity.ItemStatusRejected:    {entity.ItemStatusPlaced},
		entity.ItemStatusReceived:    {entity.ItemStatusAccepted, entity.ItemStatusRejected},
		entity.ItemStatusNotReceived: {entity.ItemStatusAccepted, entity.ItemStatusRejected},
	}
)

// ValidItemStatus indica si el estado es conocido.
func ValidItemStatus(s string) bool {
	switch s {
	case entity.ItemStatusPlaced, entity.ItemStatusAccepted, entity.ItemStatusRejected,
		entity.ItemStatusReceived, entity.ItemStatusNotReceived:
		return true
	}
	return false
}

// AllowedStatusChanges devuelve los estados alcanzables hacia adelante y hacia atrás.
func AllowedStatusChanges(status string) (fwd, back []string) {
	return forward[status], backward[status]
}

// IsBackward indica si la transición retrocede en el flujo.
func IsBackward(from, to string) bool {
	return contains(backward[from], to)
}

// CheckItemTransition valida el cambio de estado de un ítem.
func CheckItemTransition(from, to string) error {
	if !ValidItemStatus(to) {
		return domain.NewValidationError("status", fmt.Sprintf("estado desconocido %q", to))
	}
	if from == to {
		return domain.NewValidationError("status", fmt.Sprintf("el ítem ya está en estado %s", to))
	}
	if contains(forward[from], to) || contains(backward[from], to) {
		return nil
	}
	return domain.NewValidationError("status", fmt.Sprintf("transición no permitida %s → %s", from, to))
}

// PendingItems devuelve los ítems que impiden el cierre. names mapea product_id → nombre.
func PendingItems(items []*entity.InvoiceItem, names map[string]string) []domain.PendingItem {
	var out []domain.PendingItem
	for _, it := range items {
		if it.Status == RequiredCloseStatus {
			continue
		}
		out = append(out, domain.PendingItem{
			ItemID:         it.ID,
			ProductName:    names[it.ProductID],
			CurrentStatus:  it.Status,
			RequiredStatus: RequiredCloseStatus,
		})
	}
	return out
}

// CanMutateItems indica si la factura admite altas, bajas o cambios de ítems.
func CanMutateItems(inv *entity.Invoice) error {
	if inv.Closed() {
		return domain.ErrInvoiceClosed
	}
	if inv.Kind == entity.InvoiceKindSale || inv.Kind.IsReturn() {
		if inv.Status != entity.InvoiceStatusPlaced {
			return fmt.Errorf("%w: la factura %s no está abierta", domain.ErrConflict, inv.ID)
		}
	}
	return nil
}

// CheckClose valida que la factura pueda pasar a CLOSED desde su estado actual.
func CheckClose(inv *entity.Invoice) error {
	switch inv.Status {
	case entity.InvoiceStatusClosed:
		return fmt.Errorf("%w: la factura %s ya está cerrada", domain.ErrConflict, inv.ID)
	case entity.InvoiceStatusPlaced:
		return nil
	case entity.InvoiceStatusLocked:
		if inv.Kind == entity.InvoiceKindPurchase {
			return nil
		}
	}
	return fmt.Errorf("%w: estado %s no admite cierre", domain.ErrConflict, inv.Status)
}

// ReopenStatus estado al que vuelve una factura cerrada al reabrirla.
func ReopenStatus(kind entity.InvoiceKind) string {
	if kind == entity.InvoiceKindPurchase {
		return entity.InvoiceStatusLocked
	}
	return entity.InvoiceStatusPlaced
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
