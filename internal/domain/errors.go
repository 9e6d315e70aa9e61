package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound          = errors.New("recurso no encontrado")
	ErrInvalidInput      = errors.New("entrada inválida")
	ErrDuplicate         = errors.New("recurso duplicado")
	ErrUnauthorized      = errors.New("no autorizado")
	ErrForbidden         = errors.New("acceso denegado")
	ErrConflict          = errors.New("conflicto con el estado actual")
	ErrInsufficientStock = errors.New("stock insuficiente")
	ErrInvoiceClosed     = fmt.Errorf("%w: la factura está cerrada", ErrConflict)
)

// ValidationError entrada mal formada detectada antes de cualquier mutación.
type ValidationError struct {
	Fields map[string]string
}

// NewValidationError construye el error con un único campo.
func NewValidationError(field, msg string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: msg}}
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validación: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error { return ErrInvalidInput }

// InsufficientOfferQuantityError la oferta no tiene cantidad suficiente.
type InsufficientOfferQuantityError struct {
	OfferID   string `json:"offer_id"`
	Requested int    `json:"requested"`
	Remaining int    `json:"remaining"`
}

func (e *InsufficientOfferQuantityError) Error() string {
	return fmt.Sprintf("cantidad insuficiente en la oferta %s: solicitado %d, disponible %d", e.OfferID, e.Requested, e.Remaining)
}

func (e *InsufficientOfferQuantityError) Unwrap() error { return ErrConflict }

// Shortage faltante de inventario para un producto.
type Shortage struct {
	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name"`
	Required    int    `json:"required"`
	Available   int    `json:"available"`
	Shortage    int    `json:"shortage"`
}

// InsufficientInventoryError el inventario no cubre los ítems de la factura.
type InsufficientInventoryError struct {
	Shortages []Shortage `json:"inventory_issues"`
}

func (e *InsufficientInventoryError) Error() string {
	return fmt.Sprintf("inventario insuficiente para cerrar la factura (%d productos)", len(e.Shortages))
}

func (e *InsufficientInventoryError) Unwrap() error { return ErrInsufficientStock }

// InsufficientStockError un descuento de lotes no alcanza la cantidad pedida.
type InsufficientStockError struct {
	ProductID string `json:"product_id"`
	Requested int    `json:"requested"`
	Available int    `json:"available"`
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("stock insuficiente para el producto %s: solicitado %d, disponible %d", e.ProductID, e.Requested, e.Available)
}

func (e *InsufficientStockError) Unwrap() error { return ErrInsufficientStock }

// PendingItem ítem que impide el cierre de la factura.
type PendingItem struct {
	ItemID         string `json:"item_id"`
	ProductName    string `json:"product_name"`
	CurrentStatus  string `json:"current_status"`
	RequiredStatus string `json:"required_status"`
}

// PendingItemsError la factura tiene ítems sin estado terminal.
type PendingItemsError struct {
	Items []PendingItem `json:"pending_items"`
}

func (e *PendingItemsError) Error() string {
	return fmt.Sprintf("no se puede cerrar la factura con %d ítems pendientes", len(e.Items))
}

func (e *PendingItemsError) Unwrap() error { return ErrConflict }

// CounterpartClosedError la factura contraparte del ítem ya está cerrada.
type CounterpartClosedError struct {
	ItemID        string `json:"item_id"`
	CounterpartID string `json:"counterpart_invoice_id"`
}

func (e *CounterpartClosedError) Error() string {
	return fmt.Sprintf("la factura contraparte %s del ítem %s está cerrada", e.CounterpartID, e.ItemID)
}

func (e *CounterpartClosedError) Unwrap() error { return ErrConflict }

// DuplicateTransactionError ya existe una transacción viva para (documento, tipo).
type DuplicateTransactionError struct {
	DocumentKind string `json:"document_kind"`
	DocumentID   string `json:"document_id"`
	Type         string `json:"type"`
}

func (e *DuplicateTransactionError) Error() string {
	return fmt.Sprintf("transacción duplicada para %s/%s (%s)", e.DocumentKind, e.DocumentID, e.Type)
}

func (e *DuplicateTransactionError) Unwrap() error { return ErrDuplicate }

// BatchError resultado por ítem de una actualización masiva fallida.
type BatchError struct {
	Items map[string]error
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("actualización masiva rechazada: %d ítems con error", len(e.Items))
}

func (e *BatchError) Unwrap() error { return ErrInvalidInput }

// BatchItemError error de un ítem del lote para serializar. Detail lleva la carga del
// error estructurado (campos de validación, contraparte cerrada, faltantes) si la hay.
type BatchItemError struct {
	Message string `json:"message"`
	Detail  any    `json:"detail,omitempty"`
}

// Details devuelve el mapa ítem → error serializable.
func (e *BatchError) Details() map[string]BatchItemError {
	out := make(map[string]BatchItemError, len(e.Items))
	for id, err := range e.Items {
		out[id] = BatchItemError{Message: err.Error(), Detail: errorDetail(err)}
	}
	return out
}

func errorDetail(err error) any {
	var (
		verr     *ValidationError
		cpClosed *CounterpartClosedError
		offerQty *InsufficientOfferQuantityError
		pending  *PendingItemsError
		inv      *InsufficientInventoryError
		stock    *InsufficientStockError
		dup      *DuplicateTransactionError
	)
	switch {
	case errors.As(err, &verr):
		return verr.Fields
	case errors.As(err, &cpClosed):
		return cpClosed
	case errors.As(err, &offerQty):
		return offerQty
	case errors.As(err, &pending):
		return pending
	case errors.As(err, &inv):
		return inv
	case errors.As(err, &stock):
		return stock
	case errors.As(err, &dup):
		return dup
	}
	return nil
}
