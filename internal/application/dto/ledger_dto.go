package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreatePaymentRequest body para POST /api/payments.
type CreatePaymentRequest struct {
	Kind    string          `json:"kind" validate:"required,oneof=purchase sale refund"`
	UserID  string          `json:"user_id" validate:"required"`
	Method  string          `json:"method" validate:"required,oneof=instapay cash wallet products"`
	Amount  decimal.Decimal `json:"amount"`
	At      *time.Time      `json:"at,omitempty"`
	Remarks string          `json:"remarks" validate:"max=500"`
}

// UpdatePaymentRequest body para PATCH /api/payments/:id.
type UpdatePaymentRequest struct {
	Method  *string          `json:"method,omitempty" validate:"omitempty,oneof=instapay cash wallet products"`
	Amount  *decimal.Decimal `json:"amount,omitempty"`
	At      *time.Time       `json:"at,omitempty"`
	Remarks *string          `json:"remarks,omitempty" validate:"omitempty,max=500"`
}

// PaymentResponse pago en respuestas.
type PaymentResponse struct {
	ID      string          `json:"id"`
	Kind    string          `json:"kind"`
	UserID  string          `json:"user_id"`
	Method  string          `json:"method"`
	Amount  decimal.Decimal `json:"amount"`
	At      time.Time       `json:"at"`
	Remarks string          `json:"remarks,omitempty"`
}

// PaymentResult pago con su transacción y el saldo resultante.
type PaymentResult struct {
	Payment     *PaymentResponse     `json:"payment,omitempty"`
	Transaction *TransactionResponse `json:"transaction,omitempty"`
	Account     AccountResponse      `json:"account"`
}

// SetCreditLimitRequest body para PUT /api/accounts/:user_id/credit-limit. Null elimina el límite.
type SetCreditLimitRequest struct {
	CreditLimit *decimal.Decimal `json:"credit_limit"`
}

// InitialBalanceRequest body para PUT /api/accounts/:user_id/initial-balance.
type InitialBalanceRequest struct {
	Amount decimal.Decimal `json:"amount"`
	At     *time.Time      `json:"at,omitempty"`
}

// AccountResponse cuenta en respuestas.
type AccountResponse struct {
	ID              string           `json:"id"`
	UserID          string           `json:"user_id"`
	Balance         decimal.Decimal  `json:"balance"`
	CreditLimit     *decimal.Decimal `json:"credit_limit"`
	RemainingCredit *decimal.Decimal `json:"remaining_credit"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

// TransactionResponse asiento en respuestas.
type TransactionResponse struct {
	ID           string          `json:"id"`
	AccountID    string          `json:"account_id"`
	Type         string          `json:"type"`
	Amount       decimal.Decimal `json:"amount"`
	DocumentKind string          `json:"document_kind"`
	DocumentID   string          `json:"document_id"`
	At           time.Time       `json:"at"`
}

// TransactionListResponse lista paginada de asientos.
type TransactionListResponse struct {
	Items []TransactionResponse `json:"items"`
	Page  PageResponse          `json:"page"`
}
