package repository

import "context"

// Repositories agrupa los repositorios atados a una misma transacción.
type Repositories struct {
	Products     ProductRepository
	Offers       OfferRepository
	Invoices     InvoiceRepository
	Items        InvoiceItemRepository
	DeletedItems DeletedItemRepository
	Accounts     AccountRepository
	Transactions TransactionRepository
	Payments     PaymentRepository
	StockLots    StockLotRepository
}

// TxRunner ejecuta fn dentro de una unidad de trabajo atómica: si fn devuelve error todo se revierte.
type TxRunner interface {
	Run(ctx context.Context, fn func(r Repositories) error) error
}
