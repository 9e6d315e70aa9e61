package billing

import (
	"context"
	"fmt"

	"github.com/jhoicas/pharma-ledger/internal/application/dto"
	"github.com/jhoicas/pharma-ledger/internal/application/events"
	"github.com/jhoicas/pharma-ledger/internal/application/validation"
	"github.com/jhoicas/pharma-ledger/internal/domain"
	"github.com/jhoicas/pharma-ledger/internal/domain/entity"
	"github.com/jhoicas/pharma-ledger/internal/domain/lifecycle"
	"github.com/jhoicas/pharma-ledger/internal/domain/repository"
)

// statusChange cambio pedido sobre un ítem.
type statusChange struct {
	itemID          string
	to              string
	removeOffer     bool
	skipCounterpart bool
}

// UpdateItemState cambia el estado de un ítem y lo propaga un paso a su espejo,
// salvo que SkipCounterpart lo suprima.
func (uc *InvoiceUseCase) UpdateItemState(ctx context.Context, itemID string, in dto.UpdateItemStateRequest) (*dto.InvoiceItemResponse, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	ch := statusChange{itemID: itemID, to: in.Status, removeOffer: in.RemoveOffer, skipCounterpart: in.SkipCounterpart}
	var updated *entity.InvoiceItem
	err := uc.run(ctx, func(r repository.Repositories, out *events.Outbox) error {
		g, err := uc.lockGraph(ctx, r, []string{itemID})
		if err != nil {
			return err
		}
		if len(g.missing) > 0 {
			return fmt.Errorf("%w: ítem %s", domain.ErrNotFound, itemID)
		}
		if err := uc.checkStatusChange(g, ch); err != nil {
			return err
		}
		if err := uc.applyStatusChange(ctx, r, out, g, ch); err != nil {
			return err
		}
		updated = g.items[itemID]
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ToItemResponse(updated), nil
}

// UpdateItemStates aplica un lote de cambios: bloquea todos los ítems, valida todos y aplica todos,
// o devuelve *domain.BatchError con el error de cada ítem sin aplicar ninguno.
func (uc *InvoiceUseCase) UpdateItemStates(ctx context.Context, in dto.BatchItemStateRequest) (*dto.BatchItemStateResponse, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	changes := make([]statusChange, 0, len(in.Items))
	ids := make([]string, 0, len(in.Items))
	for _, c := range in.Items {
		changes = append(changes, statusChange{itemID: c.ItemID, to: c.Status, removeOffer: c.RemoveOffer})
		ids = append(ids, c.ItemID)
	}

	resp := &dto.BatchItemStateResponse{}
	err := uc.run(ctx, func(r repository.Repositories, out *events.Outbox) error {
		g, err := uc.lockGraph(ctx, r, ids)
		if err != nil {
			return err
		}
		batchErr := &domain.BatchError{Items: map[string]error{}}
		for _, id := range g.missing {
			batchErr.Items[id] = fmt.Errorf("%w: ítem %s", domain.ErrNotFound, id)
		}
		requested := map[string]int{}
		for _, c := range changes {
			requested[c.itemID]++
		}
		for _, c := range changes {
			if _, failed := batchErr.Items[c.itemID]; failed {
				continue
			}
			if requested[c.itemID] > 1 {
				batchErr.Items[c.itemID] = domain.NewValidationError("item_id", "el ítem aparece más de una vez en el lote")
				continue
			}
			it := g.items[c.itemID]
			if it.MirrorItemID != nil && requested[*it.MirrorItemID] > 0 {
				batchErr.Items[c.itemID] = domain.NewValidationError("item_id",
					fmt.Sprintf("el ítem espejo %s también está en el lote", *it.MirrorItemID))
				continue
			}
			if err := uc.checkStatusChange(g, c); err != nil {
				batchErr.Items[c.itemID] = err
			}
		}
		if len(batchErr.Items) > 0 {
			return batchErr
		}

		for _, c := range changes {
			if err := uc.applyStatusChange(ctx, r, out, g, c); err != nil {
				return &domain.BatchError{Items: map[string]error{c.itemID: err}}
			}
			resp.Items = append(resp.Items, *ToItemResponse(g.items[c.itemID]))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// checkStatusChange valida sin mutar: factura propia abierta, transición permitida y espejo con factura abierta.
func (uc *InvoiceUseCase) checkStatusChange(g *graph, ch statusChange) error {
	it := g.items[ch.itemID]
	inv := g.invoices[it.InvoiceID]
	if inv.Closed() {
		return domain.ErrInvoiceClosed
	}
	if inv.Kind.IsReturn() {
		return domain.NewValidationError("status", "los ítems de devolución no tienen flujo de estados")
	}
	if err := lifecycle.CheckItemTransition(it.Status, ch.to); err != nil {
		return err
	}
	if m, minv := g.mirror(it); m != nil && minv.Closed() {
		return &domain.CounterpartClosedError{ItemID: it.ID, CounterpartID: minv.ID}
	}
	return nil
}

// applyStatusChange aplica el cambio con sus efectos y lo propaga un solo paso al espejo.
func (uc *InvoiceUseCase) applyStatusChange(ctx context.Context, r repository.Repositories, out *events.Outbox, g *graph, ch statusChange) error {
	it := g.items[ch.itemID]
	inv := g.invoices[it.InvoiceID]
	m, minv := g.mirror(it)

	if err := uc.setStatus(ctx, r, inv, it, ch.to); err != nil {
		return err
	}
	if !ch.skipCounterpart && m != nil && m.Status != ch.to {
		title := "Estado de ítem actualizado"
		if lifecycle.IsBackward(m.Status, ch.to) {
			title = "Estado de ítem revertido"
		}
		if err := uc.setStatus(ctx, r, minv, m, ch.to); err != nil {
			return err
		}
		out.Notify(minv.UserID, title,
			fmt.Sprintf("El ítem %s de la factura %s pasó a %s", m.ID, minv.ID, ch.to),
			map[string]string{"invoice_id": minv.ID, "item_id": m.ID, "status": ch.to})
	}

	if ch.to == entity.ItemStatusRejected && ch.removeOffer && it.OfferID != nil {
		if _, err := uc.offers.Release(ctx, r, out, *it.OfferID, it.Quantity); err != nil {
			return err
		}
		it.ClearOffer()
		if err := r.Items.Update(ctx, it); err != nil {
			return fmt.Errorf("billing: actualizar ítem: %w", err)
		}
		if m != nil && m.OfferID != nil {
			m.ClearOffer()
			if err := r.Items.Update(ctx, m); err != nil {
				return fmt.Errorf("billing: actualizar ítem espejo: %w", err)
			}
		}
	}
	return nil
}

// setStatus cambia el estado de un ítem; en compras la entrada y salida de RECEIVED mueve el lote.
func (uc *InvoiceUseCase) setStatus(ctx context.Context, r repository.Repositories, inv *entity.Invoice, it *entity.InvoiceItem, to string) error {
	from := it.Status
	if inv.Kind == entity.InvoiceKindPurchase {
		switch {
		case to == entity.ItemStatusReceived && from != entity.ItemStatusReceived:
			if _, err := uc.stock.ReceiveItem(ctx, r, it); err != nil {
				return err
			}
		case from == entity.ItemStatusReceived && to != entity.ItemStatusReceived:
			if err := uc.stock.UnreceiveItem(ctx, r, it); err != nil {
				return err
			}
		}
	}
	it.Status = to
	it.UpdatedAt = uc.now()
	if err := r.Items.Update(ctx, it); err != nil {
		return fmt.Errorf("billing: actualizar ítem: %w", err)
	}
	return nil
}
