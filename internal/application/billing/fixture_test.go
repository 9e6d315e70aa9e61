package billing_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/pharma-ledger/internal/app"
	"github.com/jhoicas/pharma-ledger/internal/application/dto"
	"github.com/jhoicas/pharma-ledger/internal/domain/entity"
	"github.com/jhoicas/pharma-ledger/internal/infrastructure/memory"
	"github.com/jhoicas/pharma-ledger/pkg/config"
)

const (
	seller   = "seller-1"
	pharmacy = "pharmacy-1"
)

type fixture struct {
	ctx   context.Context
	store *memory.Store
	c     *app.Container
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	c := app.New(app.MemoryBackend(store), app.Options{
		Ledger: config.LedgerConfig{ProfitPercentage: decimal.NewFromInt(2)},
	})
	return &fixture{ctx: context.Background(), store: store, c: c}
}

// product crea un producto con precio público 100.
func (f *fixture) product(t *testing.T, name string) string {
	t.Helper()
	p, err := f.c.Products.Create(f.ctx, dto.CreateProductRequest{Name: name, PublicPrice: decimal.NewFromInt(100)})
	require.NoError(t, err)
	return p.ID
}

// offer publica una oferta; con margen 2 el descuento de venta queda en discount-2.
func (f *fixture) offer(t *testing.T, owner, productID string, qty int, discount int64) *dto.OfferResponse {
	t.Helper()
	o, err := f.c.Offers.CreateOffer(f.ctx, owner, dto.CreateOfferRequest{
		ProductID:                  productID,
		OperatingNumber:            "L-001",
		AvailableAmount:            qty,
		PurchaseDiscountPercentage: decimal.NewFromInt(discount),
	})
	require.NoError(t, err)
	return o
}

func (f *fixture) sale(t *testing.T, lines ...dto.InvoiceItemRequest) *dto.InvoiceResponse {
	t.Helper()
	inv, err := f.c.Invoices.CreateInvoice(f.ctx, pharmacy, dto.CreateInvoiceRequest{
		Kind:  string(entity.InvoiceKindSale),
		Items: lines,
	})
	require.NoError(t, err)
	return inv
}

func (f *fixture) setStatus(t *testing.T, itemID, status string) {
	t.Helper()
	_, err := f.c.Invoices.UpdateItemState(f.ctx, itemID, dto.UpdateItemStateRequest{Status: status})
	require.NoError(t, err)
}

func (f *fixture) item(t *testing.T, id string) *dto.InvoiceItemResponse {
	t.Helper()
	it, err := f.c.Invoices.GetItem(f.ctx, id)
	require.NoError(t, err)
	return it
}

func (f *fixture) invoice(t *testing.T, id string) *dto.InvoiceResponse {
	t.Helper()
	inv, err := f.c.Invoices.GetInvoice(f.ctx, id)
	require.NoError(t, err)
	return inv
}

func (f *fixture) remaining(t *testing.T, offerID string) int {
	t.Helper()
	o, err := f.c.Offers.GetOffer(f.ctx, offerID)
	require.NoError(t, err)
	return o.RemainingAmount
}

func (f *fixture) stock(t *testing.T, productID string) int {
	t.Helper()
	s, err := f.c.Stock.Available(f.ctx, productID)
	require.NoError(t, err)
	return s.Available
}

func (f *fixture) balance(t *testing.T, userID string) decimal.Decimal {
	t.Helper()
	acc, err := f.c.Accounts.GetAccount(f.ctx, userID)
	require.NoError(t, err)
	return acc.Balance
}

func line(offerID string, qty int) dto.InvoiceItemRequest {
	return dto.InvoiceItemRequest{OfferID: offerID, Quantity: qty}
}

func assertMoney(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.Truef(t, decimal.RequireFromString(want).Equal(got), "esperado %s, obtenido %s", want, got)
}
