package audit_test

import (
	"bytes"
	"context"
	"io"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/pharma-ledger/internal/application/audit"
	"github.com/jhoicas/pharma-ledger/internal/application/dto"
	"github.com/jhoicas/pharma-ledger/internal/domain/entity"
	"github.com/jhoicas/pharma-ledger/internal/infrastructure/memory"
)

type captureExporter struct {
	got []*entity.DeletedItem
}

func (e *captureExporter) WriteDeletedItems(w io.Writer, items []*entity.DeletedItem) error {
	e.got = items
	_, err := w.Write([]byte("ok"))
	return err
}

var day = time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

func seed(t *testing.T, store *memory.Store) {
	t.Helper()
	repo := store.Repositories().DeletedItems
	for i, inv := range []string{"inv-1", "inv-1", "inv-2"} {
		require.NoError(t, repo.Create(context.Background(), &entity.DeletedItem{
			ID:          "d" + string(rune('a'+i)),
			InvoiceID:   inv,
			InvoiceKind: entity.InvoiceKindSale,
			ItemID:      "it-" + inv,
			Quantity:    i + 1,
			SubTotal:    decimal.NewFromInt(int64(10 * (i + 1))),
			Action:      entity.DeletedActionDeleted,
			DeletedAt:   day.AddDate(0, 0, i),
		}))
	}
}

func TestList_Filtros(t *testing.T) {
	store := memory.NewStore()
	seed(t, store)
	uc := audit.NewUseCase(store.Repositories().DeletedItems, nil)
	ctx := context.Background()

	out, err := uc.List(ctx, dto.DeletedItemQuery{InvoiceID: "inv-1"})
	require.NoError(t, err)
	assert.Len(t, out.Items, 2)
	assert.Equal(t, 20, out.Page.Limit)

	from := day.AddDate(0, 0, 1)
	out, err = uc.List(ctx, dto.DeletedItemQuery{From: &from})
	require.NoError(t, err)
	require.Len(t, out.Items, 2)
	assert.Equal(t, "db", out.Items[0].ID)

	to := day
	out, err = uc.List(ctx, dto.DeletedItemQuery{From: &from, To: &to})
	require.NoError(t, err)
	assert.Empty(t, out.Items)

	out, err = uc.List(ctx, dto.DeletedItemQuery{PageRequest: dto.PageRequest{Limit: 1, Offset: 2}})
	require.NoError(t, err)
	require.Len(t, out.Items, 1)
	assert.Equal(t, "inv-2", out.Items[0].InvoiceID)
}

func TestExport(t *testing.T) {
	store := memory.NewStore()
	seed(t, store)
	exp := &captureExporter{}
	uc := audit.NewUseCase(store.Repositories().DeletedItems, exp)

	var buf bytes.Buffer
	n, err := uc.Export(context.Background(), &buf, dto.DeletedItemQuery{InvoiceID: "inv-1"})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Len(t, exp.got, 2)
	assert.Equal(t, "ok", buf.String())
}

func TestExport_SinExportador(t *testing.T) {
	uc := audit.NewUseCase(memory.NewStore().Repositories().DeletedItems, nil)
	_, err := uc.Export(context.Background(), io.Discard, dto.DeletedItemQuery{})
	assert.Error(t, err)
}
