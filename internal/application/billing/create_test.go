package billing_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/pharma-ledger/internal/application/dto"
	"github.com/jhoicas/pharma-ledger/internal/domain"
	"github.com/jhoicas/pharma-ledger/internal/domain/entity"
)

func TestCreateSale_ReflejaEnCompraDelVendedor(t *testing.T) {
	f := newFixture(t)
	p := f.product(t, "Amoxicilina 500mg")
	o := f.offer(t, seller, p, 10, 10)
	assertMoney(t, "90", o.PurchasePrice)
	assertMoney(t, "92", o.SellingPrice)

	inv := f.sale(t, line(o.ID, 3))

	assert.Equal(t, entity.InvoiceStatusPlaced, inv.Status)
	require.Len(t, inv.Items, 1)
	sold := inv.Items[0]
	assert.Equal(t, entity.ItemStatusPlaced, sold.Status)
	assertMoney(t, "276", sold.SubTotal)
	assertMoney(t, "276", inv.TotalPrice)
	assert.Equal(t, 1, inv.ItemsCount)
	assert.Equal(t, 3, inv.TotalQuantity)
	assert.Equal(t, 7, f.remaining(t, o.ID))

	require.NotNil(t, sold.MirrorItemID)
	mirror := f.item(t, *sold.MirrorItemID)
	require.NotNil(t, mirror.MirrorItemID)
	assert.Equal(t, sold.ID, *mirror.MirrorItemID)
	assert.Equal(t, 3, mirror.Quantity)
	assertMoney(t, "270", mirror.SubTotal)

	purchase := f.invoice(t, mirror.InvoiceID)
	assert.Equal(t, string(entity.InvoiceKindPurchase), purchase.Kind)
	assert.Equal(t, seller, purchase.UserID)
	assertMoney(t, "270", purchase.TotalPrice)

	notes, err := f.c.Notifier.List(f.ctx, seller, 10, 0)
	require.NoError(t, err)
	require.NotEmpty(t, notes)
	assert.Equal(t, purchase.ID, notes[len(notes)-1].Meta["invoice_id"])
}

func TestCreateSale_ReutilizaLaCompraAbiertaDelVendedor(t *testing.T) {
	f := newFixture(t)
	a := f.offer(t, seller, f.product(t, "Ibuprofeno"), 10, 10)
	b := f.offer(t, seller, f.product(t, "Loratadina"), 10, 10)

	first := f.sale(t, line(a.ID, 1))
	second := f.sale(t, line(b.ID, 2))

	m1 := f.item(t, *first.Items[0].MirrorItemID)
	m2 := f.item(t, *second.Items[0].MirrorItemID)
	assert.Equal(t, m1.InvoiceID, m2.InvoiceID)

	purchase := f.invoice(t, m1.InvoiceID)
	assert.Equal(t, 2, purchase.ItemsCount)
	assert.Equal(t, 3, purchase.TotalQuantity)
	assertMoney(t, "270", purchase.TotalPrice)
}

func TestCreateSale_RechazaOfertaQueNoEsLaMejor(t *testing.T) {
	f := newFixture(t)
	p := f.product(t, "Omeprazol")
	best := f.offer(t, seller, p, 10, 15)
	other := f.offer(t, "seller-2", p, 10, 10)
	require.True(t, best.IsMax)

	_, err := f.c.Invoices.CreateInvoice(f.ctx, pharmacy, dto.CreateInvoiceRequest{
		Kind:  "sale",
		Items: []dto.InvoiceItemRequest{line(other.ID, 1)},
	})

	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "items[0].offer_id")
	assert.Equal(t, 10, f.remaining(t, other.ID))
}

func TestCreateSale_CantidadInsuficienteNoMuta(t *testing.T) {
	f := newFixture(t)
	a := f.offer(t, seller, f.product(t, "Metformina"), 5, 10)
	b := f.offer(t, seller, f.product(t, "Losartán"), 5, 10)

	_, err := f.c.Invoices.CreateInvoice(f.ctx, pharmacy, dto.CreateInvoiceRequest{
		Kind:  "sale",
		Items: []dto.InvoiceItemRequest{line(a.ID, 2), line(b.ID, 6)},
	})

	var qerr *domain.InsufficientOfferQuantityError
	require.ErrorAs(t, err, &qerr)
	assert.Equal(t, b.ID, qerr.OfferID)
	assert.Equal(t, 6, qerr.Requested)
	assert.Equal(t, 5, qerr.Remaining)
	assert.True(t, errors.Is(err, domain.ErrConflict))

	assert.Equal(t, 5, f.remaining(t, a.ID), "la primera línea no debe quedar asignada")
	list, err := f.c.Invoices.ListInvoices(f.ctx, pharmacy, dto.InvoiceListRequest{})
	require.NoError(t, err)
	assert.Empty(t, list.Items)
}

func TestCreateInvoice_LineasDuplicadas(t *testing.T) {
	f := newFixture(t)
	o := f.offer(t, seller, f.product(t, "Salbutamol"), 10, 10)

	_, err := f.c.Invoices.CreateInvoice(f.ctx, pharmacy, dto.CreateInvoiceRequest{
		Kind:  "sale",
		Items: []dto.InvoiceItemRequest{line(o.ID, 1), line(o.ID, 2)},
	})

	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "items[1].offer_id")
}

func TestCreateSale_AgotarOfertaCambiaLaMejor(t *testing.T) {
	f := newFixture(t)
	p := f.product(t, "Atorvastatina")
	best := f.offer(t, seller, p, 2, 15)
	next := f.offer(t, "seller-2", p, 10, 10)

	f.sale(t, line(best.ID, 2))

	got, err := f.c.Offers.GetOffer(f.ctx, best.ID)
	require.NoError(t, err)
	assert.False(t, got.IsMax)
	assert.Equal(t, 0, got.RemainingAmount)
	got, err = f.c.Offers.GetOffer(f.ctx, next.ID)
	require.NoError(t, err)
	assert.True(t, got.IsMax)
}

func TestCreatePurchase_OfertaDeOtroVendedor(t *testing.T) {
	f := newFixture(t)
	o := f.offer(t, "seller-2", f.product(t, "Diclofenaco"), 10, 10)

	_, err := f.c.Invoices.CreateInvoice(f.ctx, seller, dto.CreateInvoiceRequest{
		Kind:  "purchase",
		Items: []dto.InvoiceItemRequest{line(o.ID, 1)},
	})

	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "items[0].offer_id")
}

func TestAddItems_FacturaCerradaRechaza(t *testing.T) {
	f := newFixture(t)
	p := f.product(t, "Enalapril")
	o := f.offer(t, seller, p, 10, 10)
	extra := f.offer(t, seller, f.product(t, "Captopril"), 10, 10)
	inv := f.sale(t, line(o.ID, 1))
	f.setStatus(t, inv.Items[0].ID, entity.ItemStatusReceived)
	_, err := f.c.Invoices.CloseInvoice(f.ctx, inv.ID, dto.CloseInvoiceRequest{})
	require.NoError(t, err)

	_, err = f.c.Invoices.AddItems(f.ctx, inv.ID, dto.AddItemsRequest{
		Items: []dto.InvoiceItemRequest{line(extra.ID, 1)},
	})
	assert.ErrorIs(t, err, domain.ErrInvoiceClosed)
	assert.Equal(t, 10, f.remaining(t, extra.ID))
}
