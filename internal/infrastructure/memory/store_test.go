package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/pharma-ledger/internal/domain/entity"
	"github.com/jhoicas/pharma-ledger/internal/domain/repository"
)

func TestRun_ErrorDescartaCambios(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	boom := errors.New("boom")

	err := s.Run(ctx, func(r repository.Repositories) error {
		if err := r.Products.Create(ctx, &entity.Product{ID: "p1", Name: "Ibuprofeno", PublicPrice: decimal.NewFromInt(10)}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	p, err := s.Repositories().Products.GetByID(ctx, "p1")
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestRun_ConfirmaCambios(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	require.NoError(t, s.Run(ctx, func(r repository.Repositories) error {
		return r.Products.Create(ctx, &entity.Product{ID: "p1", Name: "Ibuprofeno", PublicPrice: decimal.NewFromInt(10)})
	}))

	p, err := s.Repositories().Products.GetByID(ctx, "p1")
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, "Ibuprofeno", p.Name)
}

func TestRun_ContextoCancelado(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	called := false

	err := NewStore().Run(ctx, func(repository.Repositories) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}

func TestPaginate(t *testing.T) {
	in := []int{1, 2, 3, 4, 5}
	assert.Equal(t, in, paginate(in, 0, 0))
	assert.Equal(t, []int{3, 4}, paginate(in, 2, 2))
	assert.Empty(t, paginate(in, 2, 10))
}

func TestDeletedItems_SoloAnexa(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	repo := s.Repositories().DeletedItems

	d := &entity.DeletedItem{ID: "d1", InvoiceID: "inv-1", Quantity: 2}
	require.NoError(t, repo.Create(ctx, d))
	d.Quantity = 99

	list, err := repo.List(ctx, repository.DeletedItemFilter{})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, 2, list[0].Quantity, "la instantánea guardada no cambia con el puntero original")
}
