// Package audit consulta y exporta la bitácora de ítems eliminados o reducidos.
package audit

import (
	"context"
	"fmt"
	"io"

	"github.com/jhoicas/pharma-ledger/internal/application/dto"
	"github.com/jhoicas/pharma-ledger/internal/application/ports"
	"github.com/jhoicas/pharma-ledger/internal/domain/entity"
	"github.com/jhoicas/pharma-ledger/internal/domain/repository"
)

const exportPageSize = 500

// UseCase lectura de la bitácora. Las instantáneas nunca se modifican.
type UseCase struct {
	repo     repository.DeletedItemRepository
	exporter ports.DeletedItemExporter
}

// NewUseCase construye el caso de uso; exporter puede ser nil si no se exporta.
func NewUseCase(repo repository.DeletedItemRepository, exporter ports.DeletedItemExporter) *UseCase {
	return &UseCase{repo: repo, exporter: exporter}
}

// List lista instantáneas filtradas por factura y rango de fechas.
func (uc *UseCase) List(ctx context.Context, q dto.DeletedItemQuery) (*dto.DeletedItemListResponse, error) {
	q.DefaultPage()
	list, err := uc.repo.List(ctx, filter(q, q.Limit, q.Offset))
	if err != nil {
		return nil, fmt.Errorf("audit: listar bitácora: %w", err)
	}
	out := &dto.DeletedItemListResponse{
		Items: make([]dto.DeletedItemResponse, 0, len(list)),
		Page:  dto.PageResponse{Limit: q.Limit, Offset: q.Offset},
	}
	for _, d := range list {
		out.Items = append(out.Items, *ToDeletedItemResponse(d))
	}
	return out, nil
}

// Export escribe en w todas las instantáneas que cumplen el filtro, leyéndolas por páginas.
// Devuelve cuántas filas se exportaron.
func (uc *UseCase) Export(ctx context.Context, w io.Writer, q dto.DeletedItemQuery) (int, error) {
	if uc.exporter == nil {
		return 0, fmt.Errorf("audit: exportador no configurado")
	}
	var all []*entity.DeletedItem
	for offset := 0; ; offset += exportPageSize {
		page, err := uc.repo.List(ctx, filter(q, exportPageSize, offset))
		if err != nil {
			return 0, fmt.Errorf("audit: listar bitácora: %w", err)
		}
		all = append(all, page...)
		if len(page) < exportPageSize {
			break
		}
	}
	if err := uc.exporter.WriteDeletedItems(w, all); err != nil {
		return 0, fmt.Errorf("audit: exportar: %w", err)
	}
	return len(all), nil
}

func filter(q dto.DeletedItemQuery, limit, offset int) repository.DeletedItemFilter {
	return repository.DeletedItemFilter{
		InvoiceID: q.InvoiceID,
		From:      q.From,
		To:        q.To,
		Limit:     limit,
		Offset:    offset,
	}
}

// ToDeletedItemResponse mapea una instantánea de auditoría.
func ToDeletedItemResponse(d *entity.DeletedItem) *dto.DeletedItemResponse {
	return &dto.DeletedItemResponse{
		ID:                         d.ID,
		InvoiceID:                  d.InvoiceID,
		InvoiceKind:                string(d.InvoiceKind),
		ItemID:                     d.ItemID,
		ProductID:                  d.ProductID,
		OfferID:                    d.OfferID,
		ProductExpiryDate:          d.ProductExpiryDate,
		OperatingNumber:            d.OperatingNumber,
		PurchaseDiscountPercentage: d.PurchaseDiscountPercentage,
		PurchasePrice:              d.PurchasePrice,
		SellingDiscountPercentage:  d.SellingDiscountPercentage,
		SellingPrice:               d.SellingPrice,
		Quantity:                   d.Quantity,
		RemainingQuantity:          d.RemainingQuantity,
		SubTotal:                   d.SubTotal,
		Status:                     d.Status,
		Action:                     d.Action,
		DeletedAt:                  d.DeletedAt,
	}
}
