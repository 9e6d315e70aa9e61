// Package inventory sincroniza los lotes de inventario con el ciclo de vida de las facturas.
package inventory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/pharma-ledger/internal/domain"
	"github.com/jhoicas/pharma-ledger/internal/domain/entity"
	dinv "github.com/jhoicas/pharma-ledger/internal/domain/inventory"
	"github.com/jhoicas/pharma-ledger/internal/domain/repository"
)

// Synchronizer opera sobre los lotes dentro de la unidad de trabajo del llamador.
// Los lotes de un producto se bloquean (FOR UPDATE) antes de leerlos para descontar.
type Synchronizer struct {
	now func() time.Time
}

// NewSynchronizer construye el sincronizador.
func NewSynchronizer() *Synchronizer {
	return &Synchronizer{now: func() time.Time { return time.Now().UTC() }}
}

// Available unidades restantes del producto.
func (s *Synchronizer) Available(ctx context.Context, r repository.Repositories, productID string) (int, error) {
	n, err := r.StockLots.SumAvailable(ctx, productID)
	if err != nil {
		return 0, fmt.Errorf("inventory: sumar disponible: %w", err)
	}
	return n, nil
}

// Shortages bloquea los lotes de cada producto requerido y devuelve los faltantes.
// needs mapea product_id → unidades; names aporta el nombre para el reporte.
func (s *Synchronizer) Shortages(ctx context.Context, r repository.Repositories, needs map[string]int, names map[string]string) ([]domain.Shortage, error) {
	ids := make([]string, 0, len(needs))
	for id := range needs {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var out []domain.Shortage
	for _, id := range ids {
		required := needs[id]
		if required <= 0 {
			continue
		}
		lots, err := r.StockLots.ListByProductForUpdate(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("inventory: bloquear lotes: %w", err)
		}
		avail := dinv.Available(lots)
		if avail < required {
			out = append(out, domain.Shortage{
				ProductID:   id,
				ProductName: names[id],
				Required:    required,
				Available:   avail,
				Shortage:    required - avail,
			})
		}
	}
	return out, nil
}

// Deduct consume quantity unidades del producto en orden FEFO.
func (s *Synchronizer) Deduct(ctx context.Context, r repository.Repositories, productID string, quantity int) ([]dinv.Consumption, error) {
	if quantity <= 0 {
		return nil, nil
	}
	lots, err := r.StockLots.ListByProductForUpdate(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("inventory: bloquear lotes: %w", err)
	}
	plan, err := dinv.PlanDeduction(productID, lots, quantity)
	if err != nil {
		return nil, err
	}
	for _, c := range plan {
		if err := r.StockLots.Update(ctx, c.Lot); err != nil {
			return nil, fmt.Errorf("inventory: actualizar lote: %w", err)
		}
	}
	return plan, nil
}

// Restore crea un lote nuevo con los metadatos de costo, precio y vencimiento del ítem devuelto.
func (s *Synchronizer) Restore(ctx context.Context, r repository.Repositories, item *entity.InvoiceItem, quantity int) (*entity.StockLot, error) {
	if quantity <= 0 {
		return nil, nil
	}
	lot := lotFromItem(item, quantity, s.now())
	if err := r.StockLots.Create(ctx, lot); err != nil {
		return nil, fmt.Errorf("inventory: crear lote: %w", err)
	}
	return lot, nil
}

// ReceiveItem registra el lote de un ítem de compra recibido. Es idempotente por ítem.
func (s *Synchronizer) ReceiveItem(ctx context.Context, r repository.Repositories, item *entity.InvoiceItem) (*entity.StockLot, error) {
	existing, err := r.StockLots.GetBySourceItem(ctx, item.ID)
	if err != nil {
		return nil, fmt.Errorf("inventory: buscar lote: %w", err)
	}
	if existing != nil {
		return existing, nil
	}
	return s.Restore(ctx, r, item, item.Quantity)
}

// UnreceiveItem elimina el lote de un ítem que deja de estar recibido.
// Si el lote ya fue consumido la operación se rechaza.
func (s *Synchronizer) UnreceiveItem(ctx context.Context, r repository.Repositories, item *entity.InvoiceItem) error {
	lot, err := r.StockLots.GetBySourceItem(ctx, item.ID)
	if err != nil {
		return fmt.Errorf("inventory: buscar lote: %w", err)
	}
	if lot == nil {
		return nil
	}
	if !lot.Untouched() {
		return fmt.Errorf("%w: el lote del ítem %s ya fue consumido (%d de %d restantes)",
			domain.ErrConflict, item.ID, lot.RemainingQuantity, lot.Quantity)
	}
	if err := r.StockLots.Delete(ctx, lot.ID); err != nil {
		return fmt.Errorf("inventory: eliminar lote: %w", err)
	}
	return nil
}

// AdjustReceived retira delta unidades del lote de un ítem recibido cuya cantidad se redujo.
func (s *Synchronizer) AdjustReceived(ctx context.Context, r repository.Repositories, item *entity.InvoiceItem, delta int) error {
	lot, err := r.StockLots.GetBySourceItem(ctx, item.ID)
	if err != nil {
		return fmt.Errorf("inventory: buscar lote: %w", err)
	}
	if lot == nil || delta <= 0 {
		return nil
	}
	if lot.RemainingQuantity < delta {
		return &domain.InsufficientStockError{ProductID: item.ProductID, Requested: delta, Available: lot.RemainingQuantity}
	}
	lot.Quantity -= delta
	lot.RemainingQuantity -= delta
	if lot.Quantity == 0 {
		return r.StockLots.Delete(ctx, lot.ID)
	}
	if err := r.StockLots.Update(ctx, lot); err != nil {
		return fmt.Errorf("inventory: actualizar lote: %w", err)
	}
	return nil
}

func lotFromItem(item *entity.InvoiceItem, quantity int, at time.Time) *entity.StockLot {
	return &entity.StockLot{
		ID:                         uuid.New().String(),
		ProductID:                  item.ProductID,
		SourceItemID:               entity.StrPtr(item.ID),
		ProductExpiryDate:          item.ProductExpiryDate,
		OperatingNumber:            item.OperatingNumber,
		PurchaseDiscountPercentage: item.PurchaseDiscountPercentage,
		PurchasePrice:              item.PurchasePrice,
		SellingDiscountPercentage:  item.SellingDiscountPercentage,
		SellingPrice:               item.SellingPrice,
		Quantity:                   quantity,
		RemainingQuantity:          quantity,
		ReceivedAt:                 at,
	}
}
