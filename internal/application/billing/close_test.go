package billing_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/pharma-ledger/internal/application/dto"
	"github.com/jhoicas/pharma-ledger/internal/domain"
	"github.com/jhoicas/pharma-ledger/internal/domain/entity"
)

func TestCloseSale_DescuentaInventarioYRegistraAsiento(t *testing.T) {
	f := newFixture(t)
	p := f.product(t, "Amoxicilina 500mg")
	o := f.offer(t, seller, p, 10, 10)
	inv := f.sale(t, line(o.ID, 3))
	sold := inv.Items[0]

	f.setStatus(t, sold.ID, entity.ItemStatusReceived)
	mirror := f.item(t, *sold.MirrorItemID)
	assert.Equal(t, entity.ItemStatusReceived, mirror.Status, "el estado se propaga al espejo")
	assert.Equal(t, 3, f.stock(t, p), "la compra recibida ingresa un lote")

	closed, err := f.c.Invoices.CloseInvoice(f.ctx, inv.ID, dto.CloseInvoiceRequest{})
	require.NoError(t, err)
	assert.Equal(t, entity.InvoiceStatusClosed, closed.Status)
	assert.Equal(t, 0, f.stock(t, p))
	assertMoney(t, "-276", f.balance(t, pharmacy))

	purchase, err := f.c.Invoices.CloseInvoice(f.ctx, mirror.InvoiceID, dto.CloseInvoiceRequest{SupplierInvoiceNumber: "FV-88"})
	require.NoError(t, err)
	assert.Equal(t, "FV-88", purchase.SupplierInvoiceNumber)
	assertMoney(t, "270", f.balance(t, seller))
}

func TestCloseSale_InventarioInsuficienteEsAtomico(t *testing.T) {
	f := newFixture(t)
	p1 := f.product(t, "Ibuprofeno 400mg")
	p2 := f.product(t, "Naproxeno")
	o1 := f.offer(t, seller, p1, 10, 10)
	o2 := f.offer(t, seller, p2, 10, 10)
	inv := f.sale(t, line(o1.ID, 2), line(o2.ID, 4))

	var first, second dto.InvoiceItemResponse
	for _, it := range inv.Items {
		if it.ProductID == p1 {
			first = it
		} else {
			second = it
		}
	}
	// El primero entra a inventario, el segundo se recibe sin tocar la compra.
	f.setStatus(t, first.ID, entity.ItemStatusReceived)
	_, err := f.c.Invoices.UpdateItemState(f.ctx, second.ID, dto.UpdateItemStateRequest{
		Status:          entity.ItemStatusReceived,
		SkipCounterpart: true,
	})
	require.NoError(t, err)
	require.Equal(t, 2, f.stock(t, p1))
	require.Equal(t, 0, f.stock(t, p2))

	_, err = f.c.Invoices.CloseInvoice(f.ctx, inv.ID, dto.CloseInvoiceRequest{})

	var ierr *domain.InsufficientInventoryError
	require.ErrorAs(t, err, &ierr)
	require.Len(t, ierr.Shortages, 1)
	assert.Equal(t, p2, ierr.Shortages[0].ProductID)
	assert.Equal(t, "Naproxeno", ierr.Shortages[0].ProductName)
	assert.Equal(t, 4, ierr.Shortages[0].Required)
	assert.Equal(t, 4, ierr.Shortages[0].Shortage)

	assert.Equal(t, entity.InvoiceStatusPlaced, f.invoice(t, inv.ID).Status)
	assert.Equal(t, 2, f.stock(t, p1), "no se descuenta ningún producto")
	assert.True(t, f.balance(t, pharmacy).IsZero())
}

func TestClosePurchase_ItemsPendientesMantieneLocked(t *testing.T) {
	f := newFixture(t)
	p := f.product(t, "Clonazepam")
	o := f.offer(t, seller, p, 10, 10)
	inv, err := f.c.Invoices.CreateInvoice(f.ctx, seller, dto.CreateInvoiceRequest{
		Kind:  "purchase",
		Items: []dto.InvoiceItemRequest{line(o.ID, 2)},
	})
	require.NoError(t, err)
	assertMoney(t, "180", inv.TotalPrice)

	locked, err := f.c.Invoices.LockInvoice(f.ctx, inv.ID)
	require.NoError(t, err)
	require.Equal(t, entity.InvoiceStatusLocked, locked.Status)

	_, err = f.c.Invoices.CloseInvoice(f.ctx, inv.ID, dto.CloseInvoiceRequest{})

	var perr *domain.PendingItemsError
	require.ErrorAs(t, err, &perr)
	require.Len(t, perr.Items, 1)
	assert.Equal(t, inv.Items[0].ID, perr.Items[0].ItemID)
	assert.Equal(t, "Clonazepam", perr.Items[0].ProductName)
	assert.Equal(t, entity.ItemStatusPlaced, perr.Items[0].CurrentStatus)
	assert.Equal(t, entity.ItemStatusReceived, perr.Items[0].RequiredStatus)
	assert.Equal(t, entity.InvoiceStatusLocked, f.invoice(t, inv.ID).Status)
}

func TestReopen_RevierteSoloElAsiento(t *testing.T) {
	f := newFixture(t)
	p := f.product(t, "Losartán 50mg")
	o := f.offer(t, seller, p, 10, 10)
	inv := f.sale(t, line(o.ID, 3))
	f.setStatus(t, inv.Items[0].ID, entity.ItemStatusReceived)
	_, err := f.c.Invoices.CloseInvoice(f.ctx, inv.ID, dto.CloseInvoiceRequest{})
	require.NoError(t, err)

	reopened, err := f.c.Invoices.ReopenInvoice(f.ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.InvoiceStatusPlaced, reopened.Status)
	assert.True(t, f.balance(t, pharmacy).IsZero())
	assert.Equal(t, 0, f.stock(t, p), "reabrir no repone inventario")

	_, err = f.c.Invoices.CloseInvoice(f.ctx, inv.ID, dto.CloseInvoiceRequest{})
	require.NoError(t, err, "el segundo cierre no vuelve a descontar")
	assertMoney(t, "-276", f.balance(t, pharmacy))

	txs, err := f.c.Accounts.ListTransactions(f.ctx, pharmacy, dto.PageRequest{})
	require.NoError(t, err)
	assert.Len(t, txs.Items, 1)
}

func TestReopenPurchase_VuelveALocked(t *testing.T) {
	f := newFixture(t)
	o := f.offer(t, seller, f.product(t, "Insulina"), 10, 10)
	inv := f.sale(t, line(o.ID, 1))
	f.setStatus(t, inv.Items[0].ID, entity.ItemStatusReceived)
	purchaseID := f.item(t, *inv.Items[0].MirrorItemID).InvoiceID
	_, err := f.c.Invoices.CloseInvoice(f.ctx, purchaseID, dto.CloseInvoiceRequest{})
	require.NoError(t, err)

	reopened, err := f.c.Invoices.ReopenInvoice(f.ctx, purchaseID)
	require.NoError(t, err)
	assert.Equal(t, entity.InvoiceStatusLocked, reopened.Status)
	assert.True(t, f.balance(t, seller).IsZero())

	_, err = f.c.Invoices.ReopenInvoice(f.ctx, purchaseID)
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestLockUnlock(t *testing.T) {
	f := newFixture(t)
	o := f.offer(t, seller, f.product(t, "Paracetamol"), 10, 10)
	inv := f.sale(t, line(o.ID, 1))

	_, err := f.c.Invoices.LockInvoice(f.ctx, inv.ID)
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr, "solo las compras se bloquean")

	purchaseID := f.item(t, *inv.Items[0].MirrorItemID).InvoiceID
	_, err = f.c.Invoices.LockInvoice(f.ctx, purchaseID)
	require.NoError(t, err)
	_, err = f.c.Invoices.LockInvoice(f.ctx, purchaseID)
	assert.ErrorIs(t, err, domain.ErrConflict)

	unlocked, err := f.c.Invoices.UnlockInvoice(f.ctx, purchaseID)
	require.NoError(t, err)
	assert.Equal(t, entity.InvoiceStatusPlaced, unlocked.Status)
	_, err = f.c.Invoices.UnlockInvoice(f.ctx, purchaseID)
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestUnlockClosedPurchase_RevierteAsiento(t *testing.T) {
	f := newFixture(t)
	o := f.offer(t, seller, f.product(t, "Cetirizina"), 10, 10)
	inv := f.sale(t, line(o.ID, 2))
	f.setStatus(t, inv.Items[0].ID, entity.ItemStatusReceived)
	purchaseID := f.item(t, *inv.Items[0].MirrorItemID).InvoiceID
	_, err := f.c.Invoices.CloseInvoice(f.ctx, purchaseID, dto.CloseInvoiceRequest{})
	require.NoError(t, err)
	assertMoney(t, "180", f.balance(t, seller))

	unlocked, err := f.c.Invoices.UnlockInvoice(f.ctx, purchaseID)
	require.NoError(t, err)
	assert.Equal(t, entity.InvoiceStatusPlaced, unlocked.Status)
	assert.True(t, f.balance(t, seller).IsZero())
}

func TestSaleReturn_ReponeInventarioYAbonaSaldo(t *testing.T) {
	f := newFixture(t)
	p := f.product(t, "Azitromicina")
	o := f.offer(t, seller, p, 10, 10)
	sale := f.sale(t, line(o.ID, 3))
	sold := sale.Items[0]
	f.setStatus(t, sold.ID, entity.ItemStatusReceived)
	_, err := f.c.Invoices.CloseInvoice(f.ctx, sale.ID, dto.CloseInvoiceRequest{})
	require.NoError(t, err)

	_, err = f.c.Invoices.CreateInvoice(f.ctx, pharmacy, dto.CreateInvoiceRequest{
		Kind:            "sale_return",
		SourceInvoiceID: sale.ID,
		Items:           []dto.InvoiceItemRequest{{SourceItemID: sold.ID, Quantity: 4}},
	})
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "items[0].quantity")

	ret, err := f.c.Invoices.CreateInvoice(f.ctx, pharmacy, dto.CreateInvoiceRequest{
		Kind:            "sale_return",
		SourceInvoiceID: sale.ID,
		Items:           []dto.InvoiceItemRequest{{SourceItemID: sold.ID, Quantity: 1}},
	})
	require.NoError(t, err)
	require.Len(t, ret.Items, 1)
	assert.Equal(t, entity.ItemStatusReceived, ret.Items[0].Status)
	assertMoney(t, "92", ret.TotalPrice)
	assert.Equal(t, 2, f.item(t, sold.ID).RemainingQuantity)

	_, err = f.c.Invoices.CloseInvoice(f.ctx, ret.ID, dto.CloseInvoiceRequest{})
	require.NoError(t, err)
	assert.Equal(t, 1, f.stock(t, p))
	assertMoney(t, "-184", f.balance(t, pharmacy))
}

func TestReturn_RequiereFacturaOrigenCerrada(t *testing.T) {
	f := newFixture(t)
	o := f.offer(t, seller, f.product(t, "Dexametasona"), 10, 10)
	sale := f.sale(t, line(o.ID, 2))

	_, err := f.c.Invoices.CreateInvoice(f.ctx, pharmacy, dto.CreateInvoiceRequest{
		Kind:            "sale_return",
		SourceInvoiceID: sale.ID,
		Items:           []dto.InvoiceItemRequest{{SourceItemID: sale.Items[0].ID, Quantity: 1}},
	})
	assert.ErrorIs(t, err, domain.ErrConflict)

	_, err = f.c.Invoices.CreateInvoice(f.ctx, pharmacy, dto.CreateInvoiceRequest{
		Kind:  "sale_return",
		Items: []dto.InvoiceItemRequest{{SourceItemID: sale.Items[0].ID, Quantity: 1}},
	})
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "source_invoice_id")
}

func TestPurchaseReturn_DescuentaInventarioYDebitaSaldo(t *testing.T) {
	f := newFixture(t)
	p := f.product(t, "Metformina 850mg")
	o := f.offer(t, seller, p, 5, 10)
	purchase, err := f.c.Invoices.CreateInvoice(f.ctx, seller, dto.CreateInvoiceRequest{
		Kind:  "purchase",
		Items: []dto.InvoiceItemRequest{line(o.ID, 5)},
	})
	require.NoError(t, err)
	bought := purchase.Items[0]
	f.setStatus(t, bought.ID, entity.ItemStatusReceived)
	_, err = f.c.Invoices.CloseInvoice(f.ctx, purchase.ID, dto.CloseInvoiceRequest{})
	require.NoError(t, err)
	assertMoney(t, "450", f.balance(t, seller))
	assert.Equal(t, 5, f.stock(t, p))

	ret, err := f.c.Invoices.CreateInvoice(f.ctx, seller, dto.CreateInvoiceRequest{
		Kind:            "purchase_return",
		SourceInvoiceID: purchase.ID,
		Items:           []dto.InvoiceItemRequest{{SourceItemID: bought.ID, Quantity: 3}},
	})
	require.NoError(t, err)
	require.Len(t, ret.Items, 1)
	assert.Equal(t, 2, f.item(t, bought.ID).RemainingQuantity)

	_, err = f.c.Invoices.ReduceQuantity(f.ctx, ret.Items[0].ID, dto.ReduceQuantityRequest{Quantity: 1})
	require.NoError(t, err)
	assert.Equal(t, 4, f.item(t, bought.ID).RemainingQuantity)
	assertMoney(t, "90", f.invoice(t, ret.ID).TotalPrice)
	assert.Equal(t, 5, f.stock(t, p), "crear la devolución no toca inventario")

	_, err = f.c.Invoices.CloseInvoice(f.ctx, ret.ID, dto.CloseInvoiceRequest{})
	require.NoError(t, err)
	assert.Equal(t, 4, f.stock(t, p))
	assertMoney(t, "360", f.balance(t, seller))

	_, err = f.c.Invoices.ReopenInvoice(f.ctx, ret.ID)
	require.NoError(t, err)
	assertMoney(t, "450", f.balance(t, seller))
	assert.Equal(t, 4, f.stock(t, p), "reabrir no repone inventario")

	_, err = f.c.Invoices.CloseInvoice(f.ctx, ret.ID, dto.CloseInvoiceRequest{})
	require.NoError(t, err)
	assert.Equal(t, 4, f.stock(t, p), "el segundo cierre no vuelve a descontar")
	assertMoney(t, "360", f.balance(t, seller))

	txs, err := f.c.Accounts.ListTransactions(f.ctx, seller, dto.PageRequest{})
	require.NoError(t, err)
	assert.Len(t, txs.Items, 2, "un asiento por la compra y uno por la devolución")
}
