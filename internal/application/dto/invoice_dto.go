package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateInvoiceRequest body para POST /api/invoices.
// Ventas y compras llevan offer_id por línea; las devoluciones llevan source_invoice_id y source_item_id.
type CreateInvoiceRequest struct {
	Kind            string               `json:"kind" validate:"required,oneof=purchase sale purchase_return sale_return"`
	SourceInvoiceID string               `json:"source_invoice_id,omitempty"`
	Items           []InvoiceItemRequest `json:"items" validate:"required,min=1,dive"`
}

// AddItemsRequest body para POST /api/invoices/:id/items.
type AddItemsRequest struct {
	Items []InvoiceItemRequest `json:"items" validate:"required,min=1,dive"`
}

// InvoiceItemRequest línea solicitada.
type InvoiceItemRequest struct {
	OfferID      string `json:"offer_id,omitempty"`
	SourceItemID string `json:"source_item_id,omitempty"`
	Quantity     int    `json:"quantity" validate:"min=1"`
}

// UpdateItemStateRequest body para PATCH /api/invoice-items/:id/status.
// SkipCounterpart suprime la propagación al ítem espejo.
type UpdateItemStateRequest struct {
	Status          string `json:"status" validate:"required,oneof=PLACED ACCEPTED REJECTED RECEIVED NOT_RECEIVED"`
	RemoveOffer     bool   `json:"remove_offer"`
	SkipCounterpart bool   `json:"skip_counterpart"`
}

// ItemStateChange cambio de estado dentro de un lote.
type ItemStateChange struct {
	ItemID      string `json:"item_id" validate:"required"`
	Status      string `json:"status" validate:"required,oneof=PLACED ACCEPTED REJECTED RECEIVED NOT_RECEIVED"`
	RemoveOffer bool   `json:"remove_offer"`
}

// BatchItemStateRequest body para PATCH /api/invoice-items/status.
type BatchItemStateRequest struct {
	Items []ItemStateChange `json:"items" validate:"required,min=1,dive"`
}

// BatchItemStateResponse ítems actualizados del lote.
type BatchItemStateResponse struct {
	Items []InvoiceItemResponse `json:"items"`
}

// CloseInvoiceRequest body opcional para POST /api/invoices/:id/close.
type CloseInvoiceRequest struct {
	SupplierInvoiceNumber string `json:"supplier_invoice_number,omitempty" validate:"max=100"`
}

// ReduceQuantityRequest body para PATCH /api/invoice-items/:id/quantity.
type ReduceQuantityRequest struct {
	Quantity int `json:"quantity" validate:"min=1"`
}

// InvoiceListRequest filtros de listado.
type InvoiceListRequest struct {
	PageRequest
	Kind   string `query:"kind" validate:"omitempty,oneof=purchase sale purchase_return sale_return"`
	Status string `query:"status" validate:"omitempty,oneof=PLACED LOCKED CLOSED"`
}

// InvoiceResponse factura con sus ítems.
type InvoiceResponse struct {
	ID                    string                `json:"id"`
	Kind                  string                `json:"kind"`
	UserID                string                `json:"user_id"`
	SourceInvoiceID       *string               `json:"source_invoice_id,omitempty"`
	SupplierInvoiceNumber string                `json:"supplier_invoice_number,omitempty"`
	ItemsCount            int                   `json:"items_count"`
	TotalQuantity         int                   `json:"total_quantity"`
	TotalPrice            decimal.Decimal       `json:"total_price"`
	Status                string                `json:"status"`
	CreatedAt             time.Time             `json:"created_at"`
	UpdatedAt             time.Time             `json:"updated_at"`
	Items                 []InvoiceItemResponse `json:"items,omitempty"`
}

// InvoiceListResponse lista paginada de cabeceras.
type InvoiceListResponse struct {
	Items []InvoiceResponse `json:"items"`
	Page  PageResponse      `json:"page"`
}

// InvoiceItemResponse línea en respuestas.
type InvoiceItemResponse struct {
	ID                         string          `json:"id"`
	InvoiceID                  string          `json:"invoice_id"`
	ProductID                  string          `json:"product_id"`
	OfferID                    *string         `json:"offer_id"`
	MirrorItemID               *string         `json:"mirror_item_id,omitempty"`
	SourceItemID               *string         `json:"source_item_id,omitempty"`
	ProductExpiryDate          *time.Time      `json:"product_expiry_date,omitempty"`
	OperatingNumber            string          `json:"operating_number"`
	PurchaseDiscountPercentage decimal.Decimal `json:"purchase_discount_percentage"`
	PurchasePrice              decimal.Decimal `json:"purchase_price"`
	SellingDiscountPercentage  decimal.Decimal `json:"selling_discount_percentage"`
	SellingPrice               decimal.Decimal `json:"selling_price"`
	Quantity                   int             `json:"quantity"`
	RemainingQuantity          int             `json:"remaining_quantity"`
	SubTotal                   decimal.Decimal `json:"sub_total"`
	Status                     string          `json:"status"`
	// Estados a los que puede pasar el ítem; los de retroceso van en BackStatuses.
	NextStatuses []string `json:"next_statuses"`
	BackStatuses []string `json:"back_statuses"`
}

// DeletedItemResponse instantánea de auditoría.
type DeletedItemResponse struct {
	ID                         string          `json:"id"`
	InvoiceID                  string          `json:"invoice_id"`
	InvoiceKind                string          `json:"invoice_kind"`
	ItemID                     string          `json:"item_id"`
	ProductID                  string          `json:"product_id"`
	OfferID                    *string         `json:"offer_id,omitempty"`
	ProductExpiryDate          *time.Time      `json:"product_expiry_date,omitempty"`
	OperatingNumber            string          `json:"operating_number"`
	PurchaseDiscountPercentage decimal.Decimal `json:"purchase_discount_percentage"`
	PurchasePrice              decimal.Decimal `json:"purchase_price"`
	SellingDiscountPercentage  decimal.Decimal `json:"selling_discount_percentage"`
	SellingPrice               decimal.Decimal `json:"selling_price"`
	Quantity                   int             `json:"quantity"`
	RemainingQuantity          int             `json:"remaining_quantity"`
	SubTotal                   decimal.Decimal `json:"sub_total"`
	Status                     string          `json:"status"`
	Action                     string          `json:"action"`
	DeletedAt                  time.Time       `json:"deleted_at"`
}

// DeletedItemQuery filtros de la bitácora.
type DeletedItemQuery struct {
	PageRequest
	InvoiceID string     `query:"invoice_id"`
	From      *time.Time `query:"from"`
	To        *time.Time `query:"to"`
}

// DeletedItemListResponse lista paginada de instantáneas.
type DeletedItemListResponse struct {
	Items []DeletedItemResponse `json:"items"`
	Page  PageResponse          `json:"page"`
}
