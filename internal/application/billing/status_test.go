package billing_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/pharma-ledger/internal/application/dto"
	"github.com/jhoicas/pharma-ledger/internal/domain"
	"github.com/jhoicas/pharma-ledger/internal/domain/entity"
)

func TestUpdateItemState_TransicionNoPermitida(t *testing.T) {
	f := newFixture(t)
	o := f.offer(t, seller, f.product(t, "Fluoxetina"), 10, 10)
	inv := f.sale(t, line(o.ID, 1))
	id := inv.Items[0].ID

	f.setStatus(t, id, entity.ItemStatusAccepted)
	_, err := f.c.Invoices.UpdateItemState(f.ctx, id, dto.UpdateItemStateRequest{Status: entity.ItemStatusAccepted})
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)

	f.setStatus(t, id, entity.ItemStatusNotReceived)
	_, err = f.c.Invoices.UpdateItemState(f.ctx, id, dto.UpdateItemStateRequest{Status: entity.ItemStatusPlaced})
	require.ErrorAs(t, err, &verr, "NOT_RECEIVED solo retrocede a ACCEPTED o REJECTED")

	f.setStatus(t, id, entity.ItemStatusRejected)
	f.setStatus(t, id, entity.ItemStatusPlaced)
	assert.Equal(t, entity.ItemStatusPlaced, f.item(t, *inv.Items[0].MirrorItemID).Status)
}

func TestUpdateItemState_RechazoLiberaOferta(t *testing.T) {
	f := newFixture(t)
	o := f.offer(t, seller, f.product(t, "Levotiroxina"), 10, 10)
	inv := f.sale(t, line(o.ID, 4))
	require.Equal(t, 6, f.remaining(t, o.ID))

	it, err := f.c.Invoices.UpdateItemState(f.ctx, inv.Items[0].ID, dto.UpdateItemStateRequest{
		Status:      entity.ItemStatusRejected,
		RemoveOffer: true,
	})
	require.NoError(t, err)
	assert.Nil(t, it.OfferID)
	assert.Equal(t, 10, f.remaining(t, o.ID))
	assert.Nil(t, f.item(t, *inv.Items[0].MirrorItemID).OfferID)
}

func TestUpdateItemState_RecibirYDesrecibirCompra(t *testing.T) {
	f := newFixture(t)
	p := f.product(t, "Prednisona")
	o := f.offer(t, seller, p, 10, 10)
	inv := f.sale(t, line(o.ID, 5))
	id := inv.Items[0].ID

	f.setStatus(t, id, entity.ItemStatusReceived)
	assert.Equal(t, 5, f.stock(t, p))
	f.setStatus(t, id, entity.ItemStatusAccepted)
	assert.Equal(t, 0, f.stock(t, p), "el lote intacto se retira")
}

func TestUpdateItemState_ContraparteCerrada(t *testing.T) {
	f := newFixture(t)
	o := f.offer(t, seller, f.product(t, "Warfarina"), 10, 10)
	inv := f.sale(t, line(o.ID, 1))
	sold := inv.Items[0]
	f.setStatus(t, sold.ID, entity.ItemStatusReceived)
	purchaseID := f.item(t, *sold.MirrorItemID).InvoiceID
	_, err := f.c.Invoices.CloseInvoice(f.ctx, purchaseID, dto.CloseInvoiceRequest{})
	require.NoError(t, err)

	_, err = f.c.Invoices.UpdateItemState(f.ctx, sold.ID, dto.UpdateItemStateRequest{Status: entity.ItemStatusAccepted})

	var cerr *domain.CounterpartClosedError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, sold.ID, cerr.ItemID)
	assert.Equal(t, purchaseID, cerr.CounterpartID)
	assert.Equal(t, entity.ItemStatusReceived, f.item(t, sold.ID).Status)
}

func TestUpdateItemStates_TodoONada(t *testing.T) {
	f := newFixture(t)
	p := f.product(t, "Sertralina")
	o := f.offer(t, seller, p, 10, 10)
	inv := f.sale(t, line(o.ID, 2))
	id := inv.Items[0].ID

	_, err := f.c.Invoices.UpdateItemStates(f.ctx, dto.BatchItemStateRequest{Items: []dto.ItemStateChange{
		{ItemID: id, Status: entity.ItemStatusReceived},
		{ItemID: "no-existe", Status: entity.ItemStatusAccepted},
	}})

	var berr *domain.BatchError
	require.ErrorAs(t, err, &berr)
	assert.Contains(t, berr.Items, "no-existe")
	assert.NotContains(t, berr.Items, id)
	assert.ErrorIs(t, berr.Items["no-existe"], domain.ErrNotFound)
	assert.Equal(t, entity.ItemStatusPlaced, f.item(t, id).Status)
	assert.Equal(t, 0, f.stock(t, p))

	resp, err := f.c.Invoices.UpdateItemStates(f.ctx, dto.BatchItemStateRequest{Items: []dto.ItemStateChange{
		{ItemID: id, Status: entity.ItemStatusReceived},
	}})
	require.NoError(t, err)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, entity.ItemStatusReceived, resp.Items[0].Status)
	assert.Equal(t, 2, f.stock(t, p))
}

func TestUpdateItemStates_ItemYEspejoEnElMismoLote(t *testing.T) {
	f := newFixture(t)
	o := f.offer(t, seller, f.product(t, "Risperidona"), 10, 10)
	inv := f.sale(t, line(o.ID, 1))
	sold := inv.Items[0]

	_, err := f.c.Invoices.UpdateItemStates(f.ctx, dto.BatchItemStateRequest{Items: []dto.ItemStateChange{
		{ItemID: sold.ID, Status: entity.ItemStatusAccepted},
		{ItemID: *sold.MirrorItemID, Status: entity.ItemStatusAccepted},
	}})

	var berr *domain.BatchError
	require.ErrorAs(t, err, &berr)
	assert.Len(t, berr.Items, 2)
	details := berr.Details()
	require.Len(t, details, 2)
	assert.Contains(t, details[sold.ID].Detail, "item_id", "los campos de validación viajan como mapa")
	assert.NotEmpty(t, details[sold.ID].Message)
}

func TestUpdateItemStates_ContraparteCerradaEstructurada(t *testing.T) {
	f := newFixture(t)
	o := f.offer(t, seller, f.product(t, "Levotiroxina"), 10, 10)
	inv := f.sale(t, line(o.ID, 1))
	sold := inv.Items[0]
	f.setStatus(t, sold.ID, entity.ItemStatusReceived)
	purchaseID := f.item(t, *sold.MirrorItemID).InvoiceID
	_, err := f.c.Invoices.CloseInvoice(f.ctx, purchaseID, dto.CloseInvoiceRequest{})
	require.NoError(t, err)

	_, err = f.c.Invoices.UpdateItemStates(f.ctx, dto.BatchItemStateRequest{Items: []dto.ItemStateChange{
		{ItemID: sold.ID, Status: entity.ItemStatusAccepted},
	}})

	var berr *domain.BatchError
	require.ErrorAs(t, err, &berr)
	detail, ok := berr.Details()[sold.ID].Detail.(*domain.CounterpartClosedError)
	require.True(t, ok, "el detalle conserva el error estructurado")
	assert.Equal(t, purchaseID, detail.CounterpartID)
}
