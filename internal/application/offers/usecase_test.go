package offers_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/pharma-ledger/internal/application/dto"
	"github.com/jhoicas/pharma-ledger/internal/application/events"
	"github.com/jhoicas/pharma-ledger/internal/application/offers"
	"github.com/jhoicas/pharma-ledger/internal/domain"
	"github.com/jhoicas/pharma-ledger/internal/domain/entity"
	"github.com/jhoicas/pharma-ledger/internal/domain/repository"
	"github.com/jhoicas/pharma-ledger/internal/infrastructure/memory"
)

type recordingPublisher struct {
	got []entity.MaxOfferChanged
}

func (p *recordingPublisher) PublishMaxOfferChanged(_ context.Context, ev entity.MaxOfferChanged) error {
	p.got = append(p.got, ev)
	return nil
}

type fixture struct {
	ctx   context.Context
	store *memory.Store
	alloc *offers.Allocator
	uc    *offers.UseCase
	pub   *recordingPublisher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	pub := &recordingPublisher{}
	alloc := offers.NewAllocator()
	uc := offers.NewUseCase(store, store.Repositories().Offers, alloc,
		events.NewDispatcher(pub, nil, nil), decimal.NewFromInt(2), nil)
	return &fixture{ctx: context.Background(), store: store, alloc: alloc, uc: uc, pub: pub}
}

func (f *fixture) product(t *testing.T) string {
	t.Helper()
	p := &entity.Product{ID: "prod-1", Name: "Amoxicilina", PublicPrice: decimal.NewFromInt(250)}
	require.NoError(t, f.store.Repositories().Products.Create(f.ctx, p))
	return p.ID
}

func (f *fixture) create(t *testing.T, owner, productID string, qty int, discount int64) *dto.OfferResponse {
	t.Helper()
	o, err := f.uc.CreateOffer(f.ctx, owner, dto.CreateOfferRequest{
		ProductID:                  productID,
		AvailableAmount:            qty,
		PurchaseDiscountPercentage: decimal.NewFromInt(discount),
	})
	require.NoError(t, err)
	return o
}

func TestCreateOffer_PreciosYMejorOferta(t *testing.T) {
	f := newFixture(t)
	p := f.product(t)

	first := f.create(t, "seller-1", p, 10, 12)
	assert.True(t, first.IsMax)
	assert.Equal(t, 10, first.RemainingAmount)
	assert.True(t, decimal.NewFromInt(10).Equal(first.SellingDiscountPercentage))
	assert.True(t, decimal.NewFromInt(220).Equal(first.PurchasePrice))
	assert.True(t, decimal.NewFromInt(225).Equal(first.SellingPrice))
	require.Len(t, f.pub.got, 1)
	assert.Equal(t, first.ID, f.pub.got[0].NewOfferID)
	assert.Empty(t, f.pub.got[0].PrevOfferID)

	better := f.create(t, "seller-2", p, 5, 20)
	assert.True(t, better.IsMax)
	prev, err := f.uc.GetOffer(f.ctx, first.ID)
	require.NoError(t, err)
	assert.False(t, prev.IsMax)
	require.Len(t, f.pub.got, 2)
	assert.Equal(t, first.ID, f.pub.got[1].PrevOfferID)
	assert.Equal(t, better.ID, f.pub.got[1].NewOfferID)

	worse := f.create(t, "seller-3", p, 5, 5)
	assert.False(t, worse.IsMax)
	assert.Len(t, f.pub.got, 2, "sin cambio de mejor oferta no hay evento")
}

func TestCreateOffer_DescuentoDeVentaExplicitoYLimites(t *testing.T) {
	f := newFixture(t)
	p := f.product(t)

	sell := decimal.NewFromInt(7)
	o, err := f.uc.CreateOffer(f.ctx, "seller-1", dto.CreateOfferRequest{
		ProductID:                  p,
		AvailableAmount:            1,
		PurchaseDiscountPercentage: decimal.NewFromInt(1),
		SellingDiscountPercentage:  &sell,
	})
	require.NoError(t, err)
	assert.True(t, sell.Equal(o.SellingDiscountPercentage))

	low, err := f.uc.CreateOffer(f.ctx, "seller-1", dto.CreateOfferRequest{
		ProductID:                  p,
		AvailableAmount:            1,
		PurchaseDiscountPercentage: decimal.NewFromInt(1),
	})
	require.NoError(t, err)
	assert.True(t, low.SellingDiscountPercentage.IsZero(), "el margen no deja descuentos negativos")

	_, err = f.uc.CreateOffer(f.ctx, "seller-1", dto.CreateOfferRequest{
		ProductID:                  p,
		AvailableAmount:            1,
		PurchaseDiscountPercentage: decimal.NewFromInt(101),
	})
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)

	_, err = f.uc.CreateOffer(f.ctx, "seller-1", dto.CreateOfferRequest{ProductID: "nope", AvailableAmount: 1})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestAllocate_AgotarCambiaLaMejor(t *testing.T) {
	f := newFixture(t)
	p := f.product(t)
	best := f.create(t, "seller-1", p, 3, 20)
	next := f.create(t, "seller-2", p, 10, 10)
	f.pub.got = nil

	out := &events.Outbox{}
	err := f.store.Run(f.ctx, func(r repository.Repositories) error {
		_, err := f.alloc.Allocate(f.ctx, r, out, best.ID, 3)
		return err
	})
	require.NoError(t, err)
	evs := out.MaxOfferEvents()
	require.Len(t, evs, 1)
	assert.Equal(t, best.ID, evs[0].PrevOfferID)
	assert.Equal(t, next.ID, evs[0].NewOfferID)

	got, err := f.uc.GetOffer(f.ctx, next.ID)
	require.NoError(t, err)
	assert.True(t, got.IsMax)

	// Liberar devuelve la oferta agotada a la competencia.
	out = &events.Outbox{}
	err = f.store.Run(f.ctx, func(r repository.Repositories) error {
		_, err := f.alloc.Release(f.ctx, r, out, best.ID, 1)
		return err
	})
	require.NoError(t, err)
	require.Len(t, out.MaxOfferEvents(), 1)
	assert.Equal(t, best.ID, out.MaxOfferEvents()[0].NewOfferID)
}

func TestAllocate_CantidadInsuficiente(t *testing.T) {
	f := newFixture(t)
	o := f.create(t, "seller-1", f.product(t), 2, 10)

	err := f.store.Run(f.ctx, func(r repository.Repositories) error {
		_, err := f.alloc.Allocate(f.ctx, r, &events.Outbox{}, o.ID, 3)
		return err
	})
	var qerr *domain.InsufficientOfferQuantityError
	require.ErrorAs(t, err, &qerr)
	assert.Equal(t, 2, qerr.Remaining)

	err = f.store.Run(f.ctx, func(r repository.Repositories) error {
		_, err := f.alloc.Release(f.ctx, r, &events.Outbox{}, o.ID, 1)
		return err
	})
	assert.ErrorIs(t, err, domain.ErrConflict, "no se libera por encima de lo publicado")
}

func TestUpdateOffer(t *testing.T) {
	f := newFixture(t)
	o := f.create(t, "seller-1", f.product(t), 10, 10)
	require.NoError(t, f.store.Run(f.ctx, func(r repository.Repositories) error {
		_, err := f.alloc.Allocate(f.ctx, r, nil, o.ID, 6)
		return err
	}))

	below := 5
	_, err := f.uc.UpdateOffer(f.ctx, "seller-1", o.ID, dto.UpdateOfferRequest{AvailableAmount: &below})
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "available_amount")

	more := 20
	_, err = f.uc.UpdateOffer(f.ctx, "seller-2", o.ID, dto.UpdateOfferRequest{AvailableAmount: &more})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	pct := decimal.NewFromInt(20)
	got, err := f.uc.UpdateOffer(f.ctx, "", o.ID, dto.UpdateOfferRequest{
		AvailableAmount:            &more,
		PurchaseDiscountPercentage: &pct,
	})
	require.NoError(t, err)
	assert.Equal(t, 20, got.AvailableAmount)
	assert.Equal(t, 14, got.RemainingAmount)
	assert.True(t, decimal.NewFromInt(200).Equal(got.PurchasePrice))
	assert.True(t, decimal.NewFromInt(18).Equal(got.SellingDiscountPercentage))
	assert.True(t, decimal.NewFromInt(205).Equal(got.SellingPrice))
}

func TestUpdateOffer_DescuentoDeVenta(t *testing.T) {
	f := newFixture(t)
	o := f.create(t, "seller-1", f.product(t), 10, 10)

	sell := decimal.NewFromInt(4)
	got, err := f.uc.UpdateOffer(f.ctx, "seller-1", o.ID, dto.UpdateOfferRequest{SellingDiscountPercentage: &sell})
	require.NoError(t, err)
	assert.True(t, sell.Equal(got.SellingDiscountPercentage))
	assert.True(t, decimal.NewFromInt(240).Equal(got.SellingPrice))

	// Solo el descuento de compra: el de venta se deriva otra vez y no baja de cero.
	pct := decimal.NewFromInt(1)
	got, err = f.uc.UpdateOffer(f.ctx, "seller-1", o.ID, dto.UpdateOfferRequest{PurchaseDiscountPercentage: &pct})
	require.NoError(t, err)
	assert.True(t, got.SellingDiscountPercentage.IsZero())
	assert.True(t, decimal.NewFromInt(250).Equal(got.SellingPrice))

	// Sin cambios de descuento el de venta se conserva.
	qty := 12
	got, err = f.uc.UpdateOffer(f.ctx, "seller-1", o.ID, dto.UpdateOfferRequest{AvailableAmount: &qty})
	require.NoError(t, err)
	assert.True(t, got.SellingDiscountPercentage.IsZero())

	neg := decimal.NewFromInt(-1)
	_, err = f.uc.UpdateOffer(f.ctx, "seller-1", o.ID, dto.UpdateOfferRequest{SellingDiscountPercentage: &neg})
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "selling_discount_percentage")
}

func TestAllocateMax_RechazaOfertaQueYaNoEsLaMejor(t *testing.T) {
	f := newFixture(t)
	p := f.product(t)
	best := f.create(t, "seller-1", p, 5, 20)
	other := f.create(t, "seller-2", p, 5, 10)
	require.True(t, best.IsMax)

	err := f.store.Run(f.ctx, func(r repository.Repositories) error {
		_, err := f.alloc.AllocateMax(f.ctx, r, &events.Outbox{}, other.ID, 1)
		return err
	})
	assert.ErrorIs(t, err, domain.ErrConflict)

	got, err := f.uc.GetOffer(f.ctx, other.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, got.RemainingAmount, "no se asigna nada")

	require.NoError(t, f.store.Run(f.ctx, func(r repository.Repositories) error {
		o, err := f.alloc.AllocateMax(f.ctx, r, &events.Outbox{}, best.ID, 2)
		if err != nil {
			return err
		}
		assert.Equal(t, 3, o.RemainingAmount)
		return nil
	}))

	// Allocate no exige la bandera (compras del propio vendedor).
	require.NoError(t, f.store.Run(f.ctx, func(r repository.Repositories) error {
		_, err := f.alloc.Allocate(f.ctx, r, &events.Outbox{}, other.ID, 1)
		return err
	}))
}

func TestRecomputeAll_CorrigeBanderas(t *testing.T) {
	f := newFixture(t)
	p := f.product(t)
	f.create(t, "seller-1", p, 5, 10)
	b := f.create(t, "seller-2", p, 5, 15)

	// Se corrompe la bandera por fuera del asignador.
	require.NoError(t, f.store.Run(f.ctx, func(r repository.Repositories) error {
		ob, err := r.Offers.GetByID(f.ctx, b.ID)
		if err != nil {
			return err
		}
		ob.IsMax = false
		return r.Offers.Update(f.ctx, ob)
	}))

	n, err := f.uc.RecomputeAll(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	list, err := f.uc.ListByProduct(f.ctx, p)
	require.NoError(t, err)
	for _, o := range list {
		assert.Equal(t, o.ID == b.ID, o.IsMax, o.ID)
	}
}
