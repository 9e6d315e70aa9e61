// Package excel exporta reportes en formato xlsx con excelize.
package excel

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/jhoicas/pharma-ledger/internal/application/ports"
	"github.com/jhoicas/pharma-ledger/internal/domain/entity"
)

var _ ports.DeletedItemExporter = (*DeletedItemsExporter)(nil)

const deletedSheet = "Bitacora"

var deletedHeadings = []string{
	"Fecha", "Acción", "Factura", "Tipo", "Ítem", "Producto", "Oferta",
	"Lote", "Vence", "Cantidad", "P. compra", "Desc. compra %", "P. venta", "Desc. venta %",
	"Subtotal", "Estado",
}

// DeletedItemsExporter escribe la bitácora de ítems eliminados como hoja de cálculo.
type DeletedItemsExporter struct{}

// NewDeletedItemsExporter construye el exportador.
func NewDeletedItemsExporter() *DeletedItemsExporter { return &DeletedItemsExporter{} }

// WriteDeletedItems genera el libro con una fila por instantánea y lo escribe en w.
func (e *DeletedItemsExporter) WriteDeletedItems(w io.Writer, items []*entity.DeletedItem) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", deletedSheet); err != nil {
		return fmt.Errorf("excel: renombrar hoja: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("excel: estilo: %w", err)
	}
	dateStyle, err := f.NewStyle(&excelize.Style{NumFmt: 22}) // m/d/yy h:mm
	if err != nil {
		return fmt.Errorf("excel: estilo: %w", err)
	}

	sw, err := f.NewStreamWriter(deletedSheet)
	if err != nil {
		return fmt.Errorf("excel: stream writer: %w", err)
	}

	header := make([]interface{}, len(deletedHeadings))
	for i, h := range deletedHeadings {
		header[i] = excelize.Cell{Value: h, StyleID: bold}
	}
	if err := sw.SetRow("A1", header); err != nil {
		return fmt.Errorf("excel: encabezado: %w", err)
	}

	for i, d := range items {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		var expiry interface{}
		if d.ProductExpiryDate != nil {
			expiry = excelize.Cell{Value: *d.ProductExpiryDate, StyleID: dateStyle}
		}
		row := []interface{}{
			excelize.Cell{Value: d.DeletedAt, StyleID: dateStyle},
			d.Action,
			d.InvoiceID,
			string(d.InvoiceKind),
			d.ItemID,
			d.ProductID,
			entity.Deref(d.OfferID),
			d.OperatingNumber,
			expiry,
			d.Quantity,
			d.PurchasePrice.InexactFloat64(),
			d.PurchaseDiscountPercentage.InexactFloat64(),
			d.SellingPrice.InexactFloat64(),
			d.SellingDiscountPercentage.InexactFloat64(),
			d.SubTotal.InexactFloat64(),
			d.Status,
		}
		if err := sw.SetRow(cell, row); err != nil {
			return fmt.Errorf("excel: fila %d: %w", i+2, err)
		}
	}
	if err := sw.Flush(); err != nil {
		return fmt.Errorf("excel: flush: %w", err)
	}
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("excel: escribir: %w", err)
	}
	return nil
}
