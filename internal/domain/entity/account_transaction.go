package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType tipo de efecto contable.
type TransactionType string

const (
	TxInitialBalance TransactionType = "initial_balance"
	TxInvoice        TransactionType = "invoice"
	TxReturn         TransactionType = "return"
	TxPayment        TransactionType = "payment"
	TxRefund         TransactionType = "refund"
)

// DocumentKind discriminador del documento que causa una transacción.
type DocumentKind string

const (
	DocumentAccount         DocumentKind = "account"
	DocumentPurchaseInvoice DocumentKind = "purchase_invoice"
	DocumentSaleInvoice     DocumentKind = "sale_invoice"
	DocumentPurchaseReturn  DocumentKind = "purchase_return"
	DocumentSaleReturn      DocumentKind = "sale_return"
	DocumentPurchasePayment DocumentKind = "purchase_payment"
	DocumentSalePayment     DocumentKind = "sale_payment"
	DocumentRefund          DocumentKind = "refund"
)

// DocumentRef referencia etiquetada {tipo, id} al documento causante.
type DocumentRef struct {
	Kind DocumentKind
	ID   string
}

func (r DocumentRef) String() string { return string(r.Kind) + ":" + r.ID }

// AccountTransaction asiento con monto sin signo; el signo lo aporta la tabla del ledger.
// Único por (Document, Type).
type AccountTransaction struct {
	ID        string
	AccountID string
	Type      TransactionType
	Amount    decimal.Decimal
	Document  DocumentRef
	At        time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}
