package billing_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/pharma-ledger/internal/app"
	"github.com/jhoicas/pharma-ledger/internal/application/dto"
	"github.com/jhoicas/pharma-ledger/internal/domain"
	"github.com/jhoicas/pharma-ledger/internal/domain/entity"
	"github.com/jhoicas/pharma-ledger/internal/domain/repository"
	"github.com/jhoicas/pharma-ledger/internal/infrastructure/memory"
	"github.com/jhoicas/pharma-ledger/pkg/config"
)

// interleavedTx simula escrituras concurrentes entre la lectura sin bloqueo y el bloqueo:
// wrap reemplaza los repositorios que ve cada unidad de trabajo.
type interleavedTx struct {
	inner repository.TxRunner
	wrap  func(r repository.Repositories) repository.Repositories
}

func (t *interleavedTx) Run(ctx context.Context, fn func(r repository.Repositories) error) error {
	return t.inner.Run(ctx, func(r repository.Repositories) error {
		if t.wrap != nil {
			r = t.wrap(r)
		}
		return fn(r)
	})
}

// vanishingItems ítems borrados por otra transacción justo antes de bloquearlos.
type vanishingItems struct {
	repository.InvoiceItemRepository
	gone map[string]bool
}

func (v vanishingItems) ListForUpdate(ctx context.Context, ids []string) ([]*entity.InvoiceItem, error) {
	list, err := v.InvoiceItemRepository.ListForUpdate(ctx, ids)
	if err != nil {
		return nil, err
	}
	kept := list[:0]
	for _, it := range list {
		if !v.gone[it.ID] {
			kept = append(kept, it)
		}
	}
	return kept, nil
}

// staleOffers la lectura sin bloqueo aún ve la oferta como la mejor del producto.
type staleOffers struct {
	repository.OfferRepository
	stale map[string]bool
}

func (s staleOffers) GetByID(ctx context.Context, id string) (*entity.Offer, error) {
	o, err := s.OfferRepository.GetByID(ctx, id)
	if err != nil || o == nil {
		return o, err
	}
	if s.stale[id] {
		cp := *o
		cp.IsMax = true
		return &cp, nil
	}
	return o, nil
}

func newInterleavedFixture(t *testing.T) (*fixture, *interleavedTx) {
	t.Helper()
	store := memory.NewStore()
	b := app.MemoryBackend(store)
	tx := &interleavedTx{inner: b.Tx}
	b.Tx = tx
	c := app.New(b, app.Options{
		Ledger: config.LedgerConfig{ProfitPercentage: decimal.NewFromInt(2)},
	})
	return &fixture{ctx: context.Background(), store: store, c: c}, tx
}

func TestItemBorradoAntesDelBloqueo_EsNoEncontrado(t *testing.T) {
	f, tx := newInterleavedFixture(t)
	o := f.offer(t, seller, f.product(t, "Omeprazol 20mg"), 10, 10)
	inv := f.sale(t, line(o.ID, 2))
	sold := inv.Items[0]

	tx.wrap = func(r repository.Repositories) repository.Repositories {
		r.Items = vanishingItems{InvoiceItemRepository: r.Items, gone: map[string]bool{sold.ID: true}}
		return r
	}

	_, err := f.c.Invoices.UpdateItemState(f.ctx, sold.ID, dto.UpdateItemStateRequest{Status: entity.ItemStatusReceived})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.c.Invoices.UpdateItemStates(f.ctx, dto.BatchItemStateRequest{
		Items: []dto.ItemStateChange{{ItemID: sold.ID, Status: entity.ItemStatusReceived}},
	})
	var berr *domain.BatchError
	require.ErrorAs(t, err, &berr)
	assert.ErrorIs(t, berr.Items[sold.ID], domain.ErrNotFound)

	_, err = f.c.Invoices.ReduceQuantity(f.ctx, sold.ID, dto.ReduceQuantityRequest{Quantity: 1})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.c.Invoices.DeleteItem(f.ctx, sold.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	tx.wrap = nil
	assert.Equal(t, entity.ItemStatusPlaced, f.item(t, sold.ID).Status)
	assert.Equal(t, 2, f.item(t, sold.ID).Quantity)
}

func TestVenta_OfertaQueDejaDeSerLaMejorAntesDelBloqueo(t *testing.T) {
	f, tx := newInterleavedFixture(t)
	p := f.product(t, "Atorvastatina")
	f.offer(t, seller, p, 5, 20)
	other := f.offer(t, "seller-2", p, 5, 10)
	require.False(t, other.IsMax)

	tx.wrap = func(r repository.Repositories) repository.Repositories {
		r.Offers = staleOffers{OfferRepository: r.Offers, stale: map[string]bool{other.ID: true}}
		return r
	}

	_, err := f.c.Invoices.CreateInvoice(f.ctx, pharmacy, dto.CreateInvoiceRequest{
		Kind:  string(entity.InvoiceKindSale),
		Items: []dto.InvoiceItemRequest{line(other.ID, 1)},
	})
	assert.ErrorIs(t, err, domain.ErrConflict)

	tx.wrap = nil
	assert.Equal(t, 5, f.remaining(t, other.ID))
	list, err := f.c.Invoices.ListInvoices(f.ctx, pharmacy, dto.InvoiceListRequest{})
	require.NoError(t, err)
	assert.Empty(t, list.Items)
}
