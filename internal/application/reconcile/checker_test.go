package reconcile_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/pharma-ledger/internal/app"
	"github.com/jhoicas/pharma-ledger/internal/application/dto"
	"github.com/jhoicas/pharma-ledger/internal/application/reconcile"
	"github.com/jhoicas/pharma-ledger/internal/domain/entity"
	"github.com/jhoicas/pharma-ledger/internal/domain/repository"
	"github.com/jhoicas/pharma-ledger/internal/infrastructure/memory"
	"github.com/jhoicas/pharma-ledger/pkg/config"
)

type scenario struct {
	store   *memory.Store
	sale    *dto.InvoiceResponse
	best    *dto.OfferResponse
	other   *dto.OfferResponse
	checker *reconcile.Checker
}

func newScenario(t *testing.T) *scenario {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore()
	c := app.New(app.MemoryBackend(store), app.Options{
		Ledger: config.LedgerConfig{ProfitPercentage: decimal.NewFromInt(2)},
	})

	p, err := c.Products.Create(ctx, dto.CreateProductRequest{Name: "Losartán", PublicPrice: decimal.NewFromInt(100)})
	require.NoError(t, err)
	best, err := c.Offers.CreateOffer(ctx, "seller-1", dto.CreateOfferRequest{
		ProductID: p.ID, AvailableAmount: 10, PurchaseDiscountPercentage: decimal.NewFromInt(15),
	})
	require.NoError(t, err)
	other, err := c.Offers.CreateOffer(ctx, "seller-2", dto.CreateOfferRequest{
		ProductID: p.ID, AvailableAmount: 10, PurchaseDiscountPercentage: decimal.NewFromInt(5),
	})
	require.NoError(t, err)
	sale, err := c.Invoices.CreateInvoice(ctx, "pharmacy-1", dto.CreateInvoiceRequest{
		Kind:  string(entity.InvoiceKindSale),
		Items: []dto.InvoiceItemRequest{{OfferID: best.ID, Quantity: 2}},
	})
	require.NoError(t, err)
	_, err = c.Payments.PostPayment(ctx, dto.CreatePaymentRequest{
		Kind: "sale", UserID: "pharmacy-1", Method: entity.PaymentMethodCash, Amount: decimal.NewFromInt(50),
	})
	require.NoError(t, err)

	return &scenario{store: store, sale: sale, best: best, other: other, checker: c.Checker}
}

func (s *scenario) mutate(t *testing.T, fn func(r repository.Repositories) error) {
	t.Helper()
	require.NoError(t, s.store.Run(context.Background(), fn))
}

func kinds(rep *reconcile.Report) []string {
	out := make([]string, 0, len(rep.Issues))
	for _, is := range rep.Issues {
		out = append(out, is.Kind)
	}
	return out
}

func TestRun_DatosConsistentes(t *testing.T) {
	s := newScenario(t)

	rep, err := s.checker.Run(context.Background())
	require.NoError(t, err)
	assert.True(t, rep.OK(), "%v", rep.Issues)
	assert.Equal(t, 2, rep.Invoices, "venta y compra espejo del vendedor")
	assert.Equal(t, 1, rep.Products)
	assert.Equal(t, 1, rep.Accounts)
}

func TestRun_TotalesDeFacturaCorruptos(t *testing.T) {
	s := newScenario(t)
	ctx := context.Background()
	s.mutate(t, func(r repository.Repositories) error {
		inv, err := r.Invoices.GetByID(ctx, s.sale.ID)
		if err != nil {
			return err
		}
		inv.TotalPrice = inv.TotalPrice.Add(decimal.NewFromInt(1))
		return r.Invoices.Update(ctx, inv)
	})

	rep, err := s.checker.Run(ctx)
	require.NoError(t, err)
	require.False(t, rep.OK())
	assert.Equal(t, []string{"invoice_totals"}, kinds(rep))
	assert.Equal(t, s.sale.ID, rep.Issues[0].ID)
}

func TestRun_BanderaDeMejorOferta(t *testing.T) {
	s := newScenario(t)
	ctx := context.Background()
	s.mutate(t, func(r repository.Repositories) error {
		o, err := r.Offers.GetByID(ctx, s.other.ID)
		if err != nil {
			return err
		}
		o.IsMax = true
		return r.Offers.Update(ctx, o)
	})

	rep, err := s.checker.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"offer_max"}, kinds(rep))
}

func TestRun_SaldoDescuadrado(t *testing.T) {
	s := newScenario(t)
	ctx := context.Background()
	s.mutate(t, func(r repository.Repositories) error {
		acc, err := r.Accounts.GetByUserID(ctx, "pharmacy-1")
		if err != nil {
			return err
		}
		acc.Balance = decimal.NewFromInt(999)
		return r.Accounts.Update(ctx, acc)
	})

	rep, err := s.checker.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"balance"}, kinds(rep))
}
