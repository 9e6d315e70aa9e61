package billing

import (
	"context"
	"fmt"

	"github.com/jhoicas/pharma-ledger/internal/application/dto"
	"github.com/jhoicas/pharma-ledger/internal/application/events"
	"github.com/jhoicas/pharma-ledger/internal/application/validation"
	"github.com/jhoicas/pharma-ledger/internal/domain"
	"github.com/jhoicas/pharma-ledger/internal/domain/entity"
	dledger "github.com/jhoicas/pharma-ledger/internal/domain/ledger"
	"github.com/jhoicas/pharma-ledger/internal/domain/lifecycle"
	"github.com/jhoicas/pharma-ledger/internal/domain/repository"
)

// CloseInvoice cierra la factura de forma atómica:
//   - ventas y compras exigen todos los ítems RECEIVED (PendingItemsError);
//   - ventas y devoluciones de compra verifican y descuentan inventario (InsufficientInventoryError);
//   - devoluciones de venta reponen inventario con un lote nuevo por ítem;
//   - se registra un único asiento por el total de la factura.
func (uc *InvoiceUseCase) CloseInvoice(ctx context.Context, invoiceID string, in dto.CloseInvoiceRequest) (*dto.InvoiceResponse, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	err := uc.run(ctx, func(r repository.Repositories, out *events.Outbox) error {
		inv, items, err := uc.lockInvoice(ctx, r, invoiceID)
		if err != nil {
			return err
		}
		if err := lifecycle.CheckClose(inv); err != nil {
			return err
		}
		if len(items) == 0 {
			return domain.NewValidationError("items", "la factura no tiene ítems")
		}
		names, err := r.Products.Names(ctx, productIDs(items))
		if err != nil {
			return fmt.Errorf("billing: nombres de producto: %w", err)
		}
		if !inv.Kind.IsReturn() {
			if pending := lifecycle.PendingItems(items, names); len(pending) > 0 {
				return &domain.PendingItemsError{Items: pending}
			}
		}

		switch inv.Kind {
		case entity.InvoiceKindSale, entity.InvoiceKindPurchaseReturn:
			if err := uc.deductForClose(ctx, r, items, names); err != nil {
				return err
			}
		case entity.InvoiceKindSaleReturn:
			if err := uc.restoreForClose(ctx, r, items); err != nil {
				return err
			}
		case entity.InvoiceKindPurchase:
			if in.SupplierInvoiceNumber != "" {
				inv.SupplierInvoiceNumber = in.SupplierInvoiceNumber
			}
		}

		inv.ApplyTotals(entity.SumItems(items))
		inv.Status = entity.InvoiceStatusClosed
		inv.UpdatedAt = uc.now()
		if err := r.Invoices.Update(ctx, inv); err != nil {
			return fmt.Errorf("billing: actualizar factura: %w", err)
		}
		if _, err := uc.ledger.Post(ctx, r, inv.UserID, inv.Ref(), inv.TotalPrice, inv.UpdatedAt, dledger.OpCreate); err != nil {
			return err
		}
		out.Notify(inv.UserID, "Factura cerrada",
			fmt.Sprintf("La factura %s se cerró por %s", inv.ID, inv.TotalPrice.StringFixed(2)),
			map[string]string{"invoice_id": inv.ID, "kind": string(inv.Kind)})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return uc.GetInvoice(ctx, invoiceID)
}

// deductForClose verifica todos los productos antes de descontar cualquiera.
// Solo se descuenta lo que cierres anteriores no aplicaron.
func (uc *InvoiceUseCase) deductForClose(ctx context.Context, r repository.Repositories, items []*entity.InvoiceItem, names map[string]string) error {
	needs := map[string]int{}
	for _, it := range items {
		if n := it.Quantity - it.StockApplied; n > 0 {
			needs[it.ProductID] += n
		}
	}
	shortages, err := uc.stock.Shortages(ctx, r, needs, names)
	if err != nil {
		return err
	}
	if len(shortages) > 0 {
		return &domain.InsufficientInventoryError{Shortages: shortages}
	}
	for _, it := range items {
		n := it.Quantity - it.StockApplied
		if n <= 0 {
			continue
		}
		if _, err := uc.stock.Deduct(ctx, r, it.ProductID, n); err != nil {
			return err
		}
		it.StockApplied = it.Quantity
		if err := r.Items.Update(ctx, it); err != nil {
			return fmt.Errorf("billing: actualizar ítem: %w", err)
		}
	}
	return nil
}

func (uc *InvoiceUseCase) restoreForClose(ctx context.Context, r repository.Repositories, items []*entity.InvoiceItem) error {
	for _, it := range items {
		n := it.Quantity - it.StockApplied
		if n <= 0 {
			continue
		}
		if _, err := uc.stock.Restore(ctx, r, it, n); err != nil {
			return err
		}
		it.StockApplied = it.Quantity
		if err := r.Items.Update(ctx, it); err != nil {
			return fmt.Errorf("billing: actualizar ítem: %w", err)
		}
	}
	return nil
}

// ReopenInvoice devuelve una factura cerrada a su estado editable y revierte solo su asiento.
// El inventario no se repone: eso ocurre únicamente con facturas de devolución.
func (uc *InvoiceUseCase) ReopenInvoice(ctx context.Context, invoiceID string) (*dto.InvoiceResponse, error) {
	err := uc.run(ctx, func(r repository.Repositories, out *events.Outbox) error {
		inv, _, err := uc.lockInvoice(ctx, r, invoiceID)
		if err != nil {
			return err
		}
		if !inv.Closed() {
			return fmt.Errorf("%w: la factura %s no está cerrada", domain.ErrConflict, inv.ID)
		}
		if err := uc.reverseClose(ctx, r, inv, lifecycle.ReopenStatus(inv.Kind)); err != nil {
			return err
		}
		out.Notify(inv.UserID, "Factura reabierta",
			fmt.Sprintf("La factura %s fue reabierta", inv.ID),
			map[string]string{"invoice_id": inv.ID, "kind": string(inv.Kind)})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return uc.GetInvoice(ctx, invoiceID)
}

// LockInvoice pasa una compra PLACED a LOCKED (en espera de confirmación del vendedor).
func (uc *InvoiceUseCase) LockInvoice(ctx context.Context, invoiceID string) (*dto.InvoiceResponse, error) {
	err := uc.run(ctx, func(r repository.Repositories, _ *events.Outbox) error {
		inv, _, err := uc.lockInvoice(ctx, r, invoiceID)
		if err != nil {
			return err
		}
		if inv.Kind != entity.InvoiceKindPurchase {
			return domain.NewValidationError("kind", "solo las compras admiten el estado LOCKED")
		}
		if inv.Status != entity.InvoiceStatusPlaced {
			return fmt.Errorf("%w: la factura %s está en estado %s", domain.ErrConflict, inv.ID, inv.Status)
		}
		inv.Status = entity.InvoiceStatusLocked
		inv.UpdatedAt = uc.now()
		return r.Invoices.Update(ctx, inv)
	})
	if err != nil {
		return nil, err
	}
	return uc.GetInvoice(ctx, invoiceID)
}

// UnlockInvoice devuelve una compra LOCKED o CLOSED a PLACED; si estaba cerrada revierte su asiento.
func (uc *InvoiceUseCase) UnlockInvoice(ctx context.Context, invoiceID string) (*dto.InvoiceResponse, error) {
	err := uc.run(ctx, func(r repository.Repositories, _ *events.Outbox) error {
		inv, _, err := uc.lockInvoice(ctx, r, invoiceID)
		if err != nil {
			return err
		}
		if inv.Kind != entity.InvoiceKindPurchase {
			return domain.NewValidationError("kind", "solo las compras admiten desbloqueo")
		}
		switch inv.Status {
		case entity.InvoiceStatusClosed:
			return uc.reverseClose(ctx, r, inv, entity.InvoiceStatusPlaced)
		case entity.InvoiceStatusLocked:
			inv.Status = entity.InvoiceStatusPlaced
			inv.UpdatedAt = uc.now()
			return r.Invoices.Update(ctx, inv)
		}
		return fmt.Errorf("%w: la factura %s ya está abierta", domain.ErrConflict, inv.ID)
	})
	if err != nil {
		return nil, err
	}
	return uc.GetInvoice(ctx, invoiceID)
}

func (uc *InvoiceUseCase) reverseClose(ctx context.Context, r repository.Repositories, inv *entity.Invoice, status string) error {
	inv.Status = status
	inv.UpdatedAt = uc.now()
	if err := r.Invoices.Update(ctx, inv); err != nil {
		return fmt.Errorf("billing: actualizar factura: %w", err)
	}
	_, err := uc.ledger.Post(ctx, r, inv.UserID, inv.Ref(), inv.TotalPrice, inv.UpdatedAt, dledger.OpRemove)
	return err
}

// lockInvoice bloquea la cabecera y después sus ítems.
func (uc *InvoiceUseCase) lockInvoice(ctx context.Context, r repository.Repositories, invoiceID string) (*entity.Invoice, []*entity.InvoiceItem, error) {
	inv, err := r.Invoices.GetForUpdate(ctx, invoiceID)
	if err != nil {
		return nil, nil, fmt.Errorf("billing: bloquear factura: %w", err)
	}
	if inv == nil {
		return nil, nil, fmt.Errorf("%w: factura %s", domain.ErrNotFound, invoiceID)
	}
	list, err := r.Items.ListByInvoice(ctx, invoiceID)
	if err != nil {
		return nil, nil, fmt.Errorf("billing: listar ítems: %w", err)
	}
	ids := make([]string, 0, len(list))
	for _, it := range list {
		ids = append(ids, it.ID)
	}
	items, err := r.Items.ListForUpdate(ctx, ids)
	if err != nil {
		return nil, nil, fmt.Errorf("billing: bloquear ítems: %w", err)
	}
	return inv, items, nil
}
