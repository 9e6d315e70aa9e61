package inventory_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/pharma-ledger/internal/domain"
	"github.com/jhoicas/pharma-ledger/internal/domain/entity"
	"github.com/jhoicas/pharma-ledger/internal/domain/inventory"
)

func lot(id string, remaining int, expiry *time.Time, received time.Time) *entity.StockLot {
	return &entity.StockLot{ID: id, ProductID: "P", Quantity: remaining, RemainingQuantity: remaining, ProductExpiryDate: expiry, ReceivedAt: received}
}

func TestPlanDeduction_FEFO(t *testing.T) {
	now := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	soon := now.AddDate(0, 1, 0)
	late := now.AddDate(1, 0, 0)

	noExpiry := lot("sin-venc", 10, nil, now.Add(-48*time.Hour))
	lateLot := lot("tarde", 10, &late, now.Add(-72*time.Hour))
	soonLot := lot("pronto", 4, &soon, now)

	plan, err := inventory.PlanDeduction("P", []*entity.StockLot{noExpiry, lateLot, soonLot}, 12)
	require.NoError(t, err)

	require.Len(t, plan, 2)
	assert.Equal(t, "pronto", plan[0].Lot.ID)
	assert.Equal(t, 4, plan[0].Quantity)
	assert.Equal(t, "tarde", plan[1].Lot.ID)
	assert.Equal(t, 8, plan[1].Quantity)
	assert.Equal(t, 10, noExpiry.RemainingQuantity, "el lote sin vencimiento se consume al final")
}

func TestPlanDeduction_MismoVencimientoGanaElMasAntiguo(t *testing.T) {
	now := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	exp := now.AddDate(0, 6, 0)
	newer := lot("nuevo", 5, &exp, now)
	older := lot("viejo", 5, &exp, now.Add(-time.Hour))

	plan, err := inventory.PlanDeduction("P", []*entity.StockLot{newer, older}, 3)
	require.NoError(t, err)
	require.Len(t, plan, 1)
	assert.Equal(t, "viejo", plan[0].Lot.ID)
}

func TestPlanDeduction_Insuficiente(t *testing.T) {
	l := lot("a", 2, nil, time.Now())
	_, err := inventory.PlanDeduction("P", []*entity.StockLot{l}, 3)

	var serr *domain.InsufficientStockError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, 2, serr.Available)
	assert.Equal(t, 2, l.RemainingQuantity, "sin stock suficiente no se toca ningún lote")
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
}
