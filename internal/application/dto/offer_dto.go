package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateOfferRequest body para POST /api/offers.
// Si SellingDiscountPercentage va vacío se deriva del descuento de compra menos el margen configurado.
type CreateOfferRequest struct {
	ProductID                  string           `json:"product_id" validate:"required"`
	OperatingNumber            string           `json:"operating_number" validate:"max=100"`
	ProductExpiryDate          *time.Time       `json:"product_expiry_date,omitempty"`
	AvailableAmount            int              `json:"available_amount" validate:"min=1"`
	MaxAmountPerInvoice        int              `json:"max_amount_per_invoice" validate:"min=0"`
	MinPurchase                decimal.Decimal  `json:"min_purchase"`
	PurchaseDiscountPercentage decimal.Decimal  `json:"purchase_discount_percentage"`
	SellingDiscountPercentage  *decimal.Decimal `json:"selling_discount_percentage,omitempty"`
}

// UpdateOfferRequest body para PATCH /api/offers/:id (solo los campos presentes).
type UpdateOfferRequest struct {
	AvailableAmount            *int             `json:"available_amount,omitempty" validate:"omitempty,min=0"`
	MaxAmountPerInvoice        *int             `json:"max_amount_per_invoice,omitempty" validate:"omitempty,min=0"`
	MinPurchase                *decimal.Decimal `json:"min_purchase,omitempty"`
	PurchaseDiscountPercentage *decimal.Decimal `json:"purchase_discount_percentage,omitempty"`
	SellingDiscountPercentage  *decimal.Decimal `json:"selling_discount_percentage,omitempty"`
	ProductExpiryDate          *time.Time       `json:"product_expiry_date,omitempty"`
	OperatingNumber            *string          `json:"operating_number,omitempty" validate:"omitempty,max=100"`
}

// OfferResponse oferta en respuestas.
type OfferResponse struct {
	ID                         string          `json:"id"`
	ProductID                  string          `json:"product_id"`
	UserID                     string          `json:"user_id"`
	OperatingNumber            string          `json:"operating_number"`
	ProductExpiryDate          *time.Time      `json:"product_expiry_date,omitempty"`
	AvailableAmount            int             `json:"available_amount"`
	RemainingAmount            int             `json:"remaining_amount"`
	MaxAmountPerInvoice        int             `json:"max_amount_per_invoice"`
	MinPurchase                decimal.Decimal `json:"min_purchase"`
	PurchaseDiscountPercentage decimal.Decimal `json:"purchase_discount_percentage"`
	PurchasePrice              decimal.Decimal `json:"purchase_price"`
	SellingDiscountPercentage  decimal.Decimal `json:"selling_discount_percentage"`
	SellingPrice               decimal.Decimal `json:"selling_price"`
	IsMax                      bool            `json:"is_max"`
	CreatedAt                  time.Time       `json:"created_at"`
	UpdatedAt                  time.Time       `json:"updated_at"`
}
