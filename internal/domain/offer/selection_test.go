package offer_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/pharma-ledger/internal/domain/entity"
	"github.com/jhoicas/pharma-ledger/internal/domain/offer"
)

var base = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func mk(id string, discount int64, remaining int, age time.Duration) *entity.Offer {
	return &entity.Offer{
		ID:                        id,
		ProductID:                 "P",
		SellingDiscountPercentage: decimal.NewFromInt(discount),
		RemainingAmount:           remaining,
		AvailableAmount:           100,
		CreatedAt:                 base.Add(age),
	}
}

func TestSelectMax_IgnoraOfertasAgotadas(t *testing.T) {
	a := mk("A", 10, 0, 0)
	b := mk("B", 8, 50, 0)

	got := offer.SelectMax([]*entity.Offer{a, b})
	require.NotNil(t, got)
	assert.Equal(t, "B", got.ID)
}

func TestSelectMax_EmpateGanaLaMasAntigua(t *testing.T) {
	a := mk("A", 10, 5, time.Hour)
	b := mk("B", 10, 5, 0)

	got := offer.SelectMax([]*entity.Offer{a, b})
	assert.Equal(t, "B", got.ID)
}

func TestSelectMax_SinOfertasVivas(t *testing.T) {
	assert.Nil(t, offer.SelectMax([]*entity.Offer{mk("A", 10, 0, 0)}))
	assert.Nil(t, offer.SelectMax(nil))
}

func TestRecompute_CambiaLaMaximaYReportaCambios(t *testing.T) {
	a := mk("A", 10, 5, 0)
	b := mk("B", 8, 50, 0)
	b.IsMax = true

	res := offer.Recompute([]*entity.Offer{a, b})

	assert.True(t, res.MaxChanged())
	assert.Equal(t, "B", res.Prev.ID)
	assert.Equal(t, "A", res.Next.ID)
	assert.True(t, a.IsMax)
	assert.False(t, b.IsMax)
	assert.Len(t, res.Changed, 2)
}

func TestRecompute_SinCambios(t *testing.T) {
	a := mk("A", 10, 5, 0)
	a.IsMax = true
	b := mk("B", 8, 50, 0)

	res := offer.Recompute([]*entity.Offer{a, b})
	assert.False(t, res.MaxChanged())
	assert.Empty(t, res.Changed)
}

func TestRecompute_UltimaOfertaAgotada(t *testing.T) {
	a := mk("A", 10, 0, 0)
	a.IsMax = true

	res := offer.Recompute([]*entity.Offer{a})
	assert.True(t, res.MaxChanged())
	assert.Nil(t, res.Next)
	assert.False(t, a.IsMax)
}
