package billing

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/jhoicas/pharma-ledger/internal/application/audit"
	"github.com/jhoicas/pharma-ledger/internal/application/dto"
	"github.com/jhoicas/pharma-ledger/internal/application/events"
	"github.com/jhoicas/pharma-ledger/internal/domain"
	"github.com/jhoicas/pharma-ledger/internal/domain/entity"
	"github.com/jhoicas/pharma-ledger/internal/domain/lifecycle"
	"github.com/jhoicas/pharma-ledger/internal/domain/repository"
)

// DeleteItem elimina un ítem y su espejo dejando una instantánea completa de cada uno.
// Libera la oferta (o la cantidad devolvible del ítem origen) y recalcula ambos agregados.
func (uc *InvoiceUseCase) DeleteItem(ctx context.Context, itemID string) (*dto.DeletedItemResponse, error) {
	var snap *entity.DeletedItem
	err := uc.run(ctx, func(r repository.Repositories, out *events.Outbox) error {
		it, inv, m, minv, err := uc.lockForEdit(ctx, r, itemID)
		if err != nil {
			return err
		}
		if returned := returnedQuantity(inv, it); returned > 0 {
			return fmt.Errorf("%w: el ítem %s tiene %d unidades devueltas", domain.ErrConflict, it.ID, returned)
		}
		if m != nil {
			if returned := returnedQuantity(minv, m); returned > 0 {
				return fmt.Errorf("%w: el ítem espejo %s tiene %d unidades devueltas", domain.ErrConflict, m.ID, returned)
			}
		}

		snap, err = uc.removeItem(ctx, r, inv, it)
		if err != nil {
			return err
		}
		if it.OfferID != nil {
			if _, err := uc.offers.Release(ctx, r, out, *it.OfferID, it.Quantity); err != nil {
				return err
			}
		}
		if err := uc.giveBackToSource(ctx, r, it, it.Quantity); err != nil {
			return err
		}
		if m != nil {
			if _, err := uc.removeItem(ctx, r, minv, m); err != nil {
				return err
			}
			if err := uc.refreshTotals(ctx, r, minv); err != nil {
				return err
			}
			out.Notify(minv.UserID, "Ítem eliminado",
				fmt.Sprintf("Se eliminó el ítem %s de la factura %s", m.ID, minv.ID),
				map[string]string{"invoice_id": minv.ID, "item_id": m.ID})
		}
		return uc.refreshTotals(ctx, r, inv)
	})
	if err != nil {
		return nil, err
	}
	return audit.ToDeletedItemResponse(snap), nil
}

// ReduceQuantity baja la cantidad de un ítem a newQty (1 ≤ newQty < actual). Deja una instantánea
// del delta, libera el delta a la oferta o al ítem origen y replica el cambio en el espejo.
func (uc *InvoiceUseCase) ReduceQuantity(ctx context.Context, itemID string, in dto.ReduceQuantityRequest) (*dto.InvoiceItemResponse, error) {
	newQty := in.Quantity
	var updated *entity.InvoiceItem
	err := uc.run(ctx, func(r repository.Repositories, out *events.Outbox) error {
		it, inv, m, minv, err := uc.lockForEdit(ctx, r, itemID)
		if err != nil {
			return err
		}
		if newQty < 1 || newQty >= it.Quantity {
			return domain.NewValidationError("quantity",
				fmt.Sprintf("debe estar entre 1 y %d", it.Quantity-1))
		}
		if returned := returnedQuantity(inv, it); newQty < returned {
			return domain.NewValidationError("quantity",
				fmt.Sprintf("no puede ser menor que las %d unidades ya devueltas", returned))
		}
		delta := it.Quantity - newQty

		if err := uc.shrinkItem(ctx, r, inv, it, newQty); err != nil {
			return err
		}
		if it.OfferID != nil {
			if _, err := uc.offers.Release(ctx, r, out, *it.OfferID, delta); err != nil {
				return err
			}
		}
		if err := uc.giveBackToSource(ctx, r, it, delta); err != nil {
			return err
		}
		if m != nil {
			if returned := returnedQuantity(minv, m); newQty < returned {
				return domain.NewValidationError("quantity",
					fmt.Sprintf("el ítem espejo tiene %d unidades ya devueltas", returned))
			}
			if err := uc.shrinkItem(ctx, r, minv, m, newQty); err != nil {
				return err
			}
			if err := uc.refreshTotals(ctx, r, minv); err != nil {
				return err
			}
			out.Notify(minv.UserID, "Cantidad reducida",
				fmt.Sprintf("El ítem %s de la factura %s bajó a %d unidades", m.ID, minv.ID, newQty),
				map[string]string{"invoice_id": minv.ID, "item_id": m.ID})
		}
		updated = it
		return uc.refreshTotals(ctx, r, inv)
	})
	if err != nil {
		return nil, err
	}
	return ToItemResponse(updated), nil
}

// lockForEdit bloquea el ítem, su espejo y sus facturas, y verifica que ambas admitan cambios.
func (uc *InvoiceUseCase) lockForEdit(ctx context.Context, r repository.Repositories, itemID string) (it *entity.InvoiceItem, inv *entity.Invoice, m *entity.InvoiceItem, minv *entity.Invoice, err error) {
	g, err := uc.lockGraph(ctx, r, []string{itemID})
	if err != nil {
		return nil, nil, nil, nil, err
	}
	if len(g.missing) > 0 {
		return nil, nil, nil, nil, fmt.Errorf("%w: ítem %s", domain.ErrNotFound, itemID)
	}
	it = g.items[itemID]
	inv = g.invoices[it.InvoiceID]
	if err := lifecycle.CanMutateItems(inv); err != nil {
		return nil, nil, nil, nil, err
	}
	m, minv = g.mirror(it)
	if m != nil && minv.Closed() {
		return nil, nil, nil, nil, &domain.CounterpartClosedError{ItemID: it.ID, CounterpartID: minv.ID}
	}
	return it, inv, m, minv, nil
}

// removeItem guarda la instantánea, retira el lote de un ítem de compra recibido y borra el ítem.
func (uc *InvoiceUseCase) removeItem(ctx context.Context, r repository.Repositories, inv *entity.Invoice, it *entity.InvoiceItem) (*entity.DeletedItem, error) {
	snap := entity.SnapshotDeleted(it, inv.Kind, uc.now())
	snap.ID = uuid.New().String()
	if err := r.DeletedItems.Create(ctx, snap); err != nil {
		return nil, fmt.Errorf("billing: guardar instantánea: %w", err)
	}
	if inv.Kind == entity.InvoiceKindPurchase && it.Status == entity.ItemStatusReceived {
		if err := uc.stock.UnreceiveItem(ctx, r, it); err != nil {
			return nil, err
		}
	}
	if err := r.Items.Delete(ctx, it.ID); err != nil {
		return nil, fmt.Errorf("billing: eliminar ítem: %w", err)
	}
	return snap, nil
}

// shrinkItem guarda la instantánea del delta y deja el ítem en newQty con su subtotal recalculado.
func (uc *InvoiceUseCase) shrinkItem(ctx context.Context, r repository.Repositories, inv *entity.Invoice, it *entity.InvoiceItem, newQty int) error {
	delta := it.Quantity - newQty
	snap := entity.SnapshotReduction(it, inv.Kind, delta, uc.now())
	snap.ID = uuid.New().String()
	if err := r.DeletedItems.Create(ctx, snap); err != nil {
		return fmt.Errorf("billing: guardar instantánea: %w", err)
	}
	if inv.Kind == entity.InvoiceKindPurchase && it.Status == entity.ItemStatusReceived {
		if err := uc.stock.AdjustReceived(ctx, r, it, delta); err != nil {
			return err
		}
	}
	returned := returnedQuantity(inv, it)
	it.Quantity = newQty
	it.RemainingQuantity = newQty - returned
	it.Reprice(inv.Kind)
	it.UpdatedAt = uc.now()
	if err := r.Items.Update(ctx, it); err != nil {
		return fmt.Errorf("billing: actualizar ítem: %w", err)
	}
	return nil
}

// giveBackToSource devuelve quantity a la cantidad devolvible del ítem origen de una línea de devolución.
func (uc *InvoiceUseCase) giveBackToSource(ctx context.Context, r repository.Repositories, it *entity.InvoiceItem, quantity int) error {
	if it.SourceItemID == nil {
		return nil
	}
	src, err := r.Items.GetForUpdate(ctx, *it.SourceItemID)
	if err != nil {
		return fmt.Errorf("billing: bloquear ítem origen: %w", err)
	}
	if src == nil {
		return nil
	}
	src.RemainingQuantity += quantity
	if src.RemainingQuantity > src.Quantity {
		src.RemainingQuantity = src.Quantity
	}
	src.UpdatedAt = uc.now()
	if err := r.Items.Update(ctx, src); err != nil {
		return fmt.Errorf("billing: actualizar ítem origen: %w", err)
	}
	return nil
}

// returnedQuantity unidades del ítem ya incluidas en devoluciones.
func returnedQuantity(inv *entity.Invoice, it *entity.InvoiceItem) int {
	if inv.Kind.IsReturn() {
		return 0
	}
	return it.Quantity - it.RemainingQuantity
}
