package excel

import (
	"bytes"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/jhoicas/pharma-ledger/internal/domain/entity"
)

func TestWriteDeletedItems(t *testing.T) {
	expiry := time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC)
	items := []*entity.DeletedItem{
		{
			InvoiceID:         "inv-1",
			InvoiceKind:       entity.InvoiceKindSale,
			ItemID:            "it-1",
			ProductID:         "prod-1",
			OfferID:           entity.StrPtr("off-1"),
			ProductExpiryDate: &expiry,
			OperatingNumber:   "L-77",
			PurchasePrice:     decimal.RequireFromString("90"),
			SellingPrice:      decimal.RequireFromString("92.5"),
			Quantity:          3,
			SubTotal:          decimal.RequireFromString("277.5"),
			Status:            entity.ItemStatusPlaced,
			Action:            entity.DeletedActionQuantityReduced,
			DeletedAt:         time.Date(2024, 5, 1, 8, 30, 0, 0, time.UTC),
		},
		{
			InvoiceID:   "inv-2",
			InvoiceKind: entity.InvoiceKindPurchase,
			ItemID:      "it-2",
			ProductID:   "prod-2",
			Quantity:    1,
			Action:      entity.DeletedActionDeleted,
			DeletedAt:   time.Date(2024, 5, 2, 8, 30, 0, 0, time.UTC),
		},
	}

	var buf bytes.Buffer
	require.NoError(t, NewDeletedItemsExporter().WriteDeletedItems(&buf, items))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	assert.Equal(t, []string{deletedSheet}, f.GetSheetList())
	rows, err := f.GetRows(deletedSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, deletedHeadings, rows[0])

	assert.Equal(t, entity.DeletedActionQuantityReduced, rows[1][1])
	assert.Equal(t, "inv-1", rows[1][2])
	assert.Equal(t, "sale", rows[1][3])
	assert.Equal(t, "off-1", rows[1][6])
	assert.Equal(t, "L-77", rows[1][7])
	assert.Equal(t, "3", rows[1][9])
	assert.Equal(t, "277.5", rows[1][14])

	assert.Equal(t, "purchase", rows[2][3])
	assert.Equal(t, "", rows[2][6], "sin oferta la celda queda vacía")
}

func TestWriteDeletedItems_SoloEncabezado(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewDeletedItemsExporter().WriteDeletedItems(&buf, nil))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()
	rows, err := f.GetRows(deletedSheet)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}
