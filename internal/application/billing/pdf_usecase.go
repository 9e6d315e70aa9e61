package billing

import (
	"context"
	"fmt"

	"github.com/jhoicas/pharma-ledger/internal/domain"
	"github.com/jhoicas/pharma-ledger/internal/domain/repository"
)

// PDFUseCase genera la representación gráfica (PDF) de una factura.
type PDFUseCase struct {
	invoiceRepo repository.InvoiceRepository
	itemRepo    repository.InvoiceItemRepository
	productRepo repository.ProductRepository
	generator   InvoicePDFGenerator
}

// NewPDFUseCase construye el caso de uso inyectando todas sus dependencias.
func NewPDFUseCase(
	invoiceRepo repository.InvoiceRepository,
	itemRepo repository.InvoiceItemRepository,
	productRepo repository.ProductRepository,
	generator InvoicePDFGenerator,
) *PDFUseCase {
	return &PDFUseCase{
		invoiceRepo: invoiceRepo,
		itemRepo:    itemRepo,
		productRepo: productRepo,
		generator:   generator,
	}
}

// DownloadInvoicePDF recupera la factura con sus ítems y genera el PDF.
//
// Retorna:
//   - (pdfBytes, filename, nil)  si todo sale bien.
//   - domain.ErrNotFound         si la factura no existe.
//   - domain.ErrForbidden        si la factura no pertenece al usuario (userID vacío omite el control).
//   - domain.ErrInvalidInput     si la factura no tiene ítems.
func (uc *PDFUseCase) DownloadInvoicePDF(
	ctx context.Context,
	userID, invoiceID string,
) (pdfBytes []byte, filename string, err error) {
	// ── 1. Cargar factura ─────────────────────────────────────────────────────
	inv, err := uc.invoiceRepo.GetByID(ctx, invoiceID)
	if err != nil {
		return nil, "", fmt.Errorf("pdf: obtener factura: %w", err)
	}
	if inv == nil {
		return nil, "", domain.ErrNotFound
	}
	if userID != "" && inv.UserID != userID {
		return nil, "", domain.ErrForbidden
	}

	// ── 2. Cargar ítems + enriquecer con nombre de producto ───────────────────
	items, err := uc.itemRepo.ListByInvoice(ctx, invoiceID)
	if err != nil {
		return nil, "", fmt.Errorf("pdf: obtener ítems: %w", err)
	}
	if len(items) == 0 {
		return nil, "", fmt.Errorf("%w: la factura no tiene ítems", domain.ErrInvalidInput)
	}
	names, err := uc.productRepo.Names(ctx, productIDs(items))
	if err != nil {
		return nil, "", fmt.Errorf("pdf: nombres de producto: %w", err)
	}
	lines := make([]InvoiceLineForPDF, 0, len(items))
	for _, it := range items {
		name, ok := names[it.ProductID]
		if !ok {
			name = "Producto " + it.ProductID // fallback
		}
		lines = append(lines, InvoiceLineForPDF{InvoiceItem: *it, ProductName: name})
	}

	// ── 3. Generar PDF ────────────────────────────────────────────────────────
	pdfBytes, err = uc.generator.GenerateInvoicePDF(ctx, inv, lines)
	if err != nil {
		return nil, "", fmt.Errorf("pdf: generación fallida: %w", err)
	}

	short := inv.ID
	if len(short) > 8 {
		short = short[:8]
	}
	filename = fmt.Sprintf("factura_%s_%s.pdf", inv.Kind, short)
	return pdfBytes, filename, nil
}
