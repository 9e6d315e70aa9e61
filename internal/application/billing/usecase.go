// Package billing mueve facturas e ítems por su ciclo de vida manteniendo en sincronía
// ofertas, totales, inventario y saldo contable dentro de una sola transacción.
package billing

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"time"

	"github.com/jhoicas/pharma-ledger/internal/application/dto"
	"github.com/jhoicas/pharma-ledger/internal/application/events"
	"github.com/jhoicas/pharma-ledger/internal/domain"
	"github.com/jhoicas/pharma-ledger/internal/domain/entity"
	"github.com/jhoicas/pharma-ledger/internal/domain/lifecycle"
	"github.com/jhoicas/pharma-ledger/internal/domain/repository"
	"github.com/jhoicas/pharma-ledger/pkg/logger"
)

// InvoiceUseCase casos de uso del agregado factura.
//
// Orden de bloqueo en todas las operaciones: cabeceras de factura (por id), ítems (por id),
// ofertas del producto, lotes y por último la cuenta.
type InvoiceUseCase struct {
	tx         repository.TxRunner
	repos      repository.Repositories
	offers     OfferAllocator
	stock      InventoryPool
	ledger     LedgerPoster
	dispatcher *events.Dispatcher
	log        *logger.Logger
	now        func() time.Time
}

// NewInvoiceUseCase construye el caso de uso. repos son los repositorios fuera de transacción (lecturas).
func NewInvoiceUseCase(
	tx repository.TxRunner,
	repos repository.Repositories,
	offers OfferAllocator,
	stock InventoryPool,
	ledger LedgerPoster,
	dispatcher *events.Dispatcher,
	log *logger.Logger,
) *InvoiceUseCase {
	if log == nil {
		log = logger.Nop()
	}
	return &InvoiceUseCase{
		tx:         tx,
		repos:      repos,
		offers:     offers,
		stock:      stock,
		ledger:     ledger,
		dispatcher: dispatcher,
		log:        log.WithComponent("billing"),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// run ejecuta fn en una transacción y entrega el outbox solo si hubo commit.
func (uc *InvoiceUseCase) run(ctx context.Context, fn func(r repository.Repositories, out *events.Outbox) error) error {
	out := &events.Outbox{}
	if err := uc.tx.Run(ctx, func(r repository.Repositories) error {
		return fn(r, out)
	}); err != nil {
		return err
	}
	uc.dispatcher.Flush(ctx, out)
	return nil
}

// graph cabeceras e ítems bloqueados de una operación.
type graph struct {
	invoices map[string]*entity.Invoice
	items    map[string]*entity.InvoiceItem
	missing  []string
}

func (g *graph) mirror(it *entity.InvoiceItem) (*entity.InvoiceItem, *entity.Invoice) {
	if it.MirrorItemID == nil {
		return nil, nil
	}
	m, ok := g.items[*it.MirrorItemID]
	if !ok {
		return nil, nil
	}
	return m, g.invoices[m.InvoiceID]
}

// lockGraph bloquea las facturas de los ítems pedidos y de sus espejos y luego los ítems.
// Los ids inexistentes, o que desaparecen antes del bloqueo, quedan en missing.
func (uc *InvoiceUseCase) lockGraph(ctx context.Context, r repository.Repositories, itemIDs []string) (*graph, error) {
	g := &graph{invoices: map[string]*entity.Invoice{}, items: map[string]*entity.InvoiceItem{}}
	invoiceIDs := map[string]bool{}
	all := map[string]bool{}

	peek := func(id string) (*entity.InvoiceItem, error) {
		it, err := r.Items.GetByID(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("billing: obtener ítem: %w", err)
		}
		return it, nil
	}
	for _, id := range itemIDs {
		if all[id] {
			continue
		}
		it, err := peek(id)
		if err != nil {
			return nil, err
		}
		if it == nil {
			g.missing = append(g.missing, id)
			continue
		}
		all[id] = true
		invoiceIDs[it.InvoiceID] = true
		if it.MirrorItemID != nil && !all[*it.MirrorItemID] {
			m, err := peek(*it.MirrorItemID)
			if err != nil {
				return nil, err
			}
			if m != nil {
				all[m.ID] = true
				invoiceIDs[m.InvoiceID] = true
			}
		}
	}

	for _, id := range sortedKeys(invoiceIDs) {
		inv, err := r.Invoices.GetForUpdate(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("billing: bloquear factura: %w", err)
		}
		if inv == nil {
			return nil, fmt.Errorf("%w: factura %s", domain.ErrNotFound, id)
		}
		g.invoices[id] = inv
	}
	locked, err := r.Items.ListForUpdate(ctx, sortedKeys(all))
	if err != nil {
		return nil, fmt.Errorf("billing: bloquear ítems: %w", err)
	}
	for _, it := range locked {
		g.items[it.ID] = it
	}
	// La lectura previa no bloquea: un ítem borrado entre ambas lecturas también es inexistente.
	for _, id := range itemIDs {
		if all[id] && g.items[id] == nil && !slices.Contains(g.missing, id) {
			g.missing = append(g.missing, id)
		}
	}
	return g, nil
}

// refreshTotals recalcula y persiste los agregados de la factura a partir de sus ítems vivos.
func (uc *InvoiceUseCase) refreshTotals(ctx context.Context, r repository.Repositories, inv *entity.Invoice) error {
	items, err := r.Items.ListByInvoice(ctx, inv.ID)
	if err != nil {
		return fmt.Errorf("billing: listar ítems: %w", err)
	}
	inv.ApplyTotals(entity.SumItems(items))
	inv.UpdatedAt = uc.now()
	if err := r.Invoices.Update(ctx, inv); err != nil {
		return fmt.Errorf("billing: actualizar factura: %w", err)
	}
	return nil
}

// GetInvoice obtiene la factura con sus ítems.
func (uc *InvoiceUseCase) GetInvoice(ctx context.Context, id string) (*dto.InvoiceResponse, error) {
	inv, err := uc.repos.Invoices.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("billing: obtener factura: %w", err)
	}
	if inv == nil {
		return nil, domain.ErrNotFound
	}
	items, err := uc.repos.Items.ListByInvoice(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("billing: listar ítems: %w", err)
	}
	return ToInvoiceResponse(inv, items), nil
}

// GetItem obtiene un ítem.
func (uc *InvoiceUseCase) GetItem(ctx context.Context, id string) (*dto.InvoiceItemResponse, error) {
	it, err := uc.repos.Items.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("billing: obtener ítem: %w", err)
	}
	if it == nil {
		return nil, domain.ErrNotFound
	}
	return ToItemResponse(it), nil
}

// ListInvoices lista cabeceras (sin ítems), las más recientes primero.
func (uc *InvoiceUseCase) ListInvoices(ctx context.Context, userID string, in dto.InvoiceListRequest) (*dto.InvoiceListResponse, error) {
	in.DefaultPage()
	list, err := uc.repos.Invoices.List(ctx, repository.InvoiceFilter{
		UserID: userID,
		Kind:   entity.InvoiceKind(in.Kind),
		Status: in.Status,
		Limit:  in.Limit,
		Offset: in.Offset,
	})
	if err != nil {
		return nil, fmt.Errorf("billing: listar facturas: %w", err)
	}
	out := &dto.InvoiceListResponse{
		Items: make([]dto.InvoiceResponse, 0, len(list)),
		Page:  dto.PageResponse{Limit: in.Limit, Offset: in.Offset},
	}
	for _, inv := range list {
		out.Items = append(out.Items, *ToInvoiceResponse(inv, nil))
	}
	return out, nil
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func productIDs(items []*entity.InvoiceItem) []string {
	seen := map[string]bool{}
	for _, it := range items {
		seen[it.ProductID] = true
	}
	return sortedKeys(seen)
}

// ToInvoiceResponse mapea la cabecera y sus ítems.
func ToInvoiceResponse(inv *entity.Invoice, items []*entity.InvoiceItem) *dto.InvoiceResponse {
	out := &dto.InvoiceResponse{
		ID:                    inv.ID,
		Kind:                  string(inv.Kind),
		UserID:                inv.UserID,
		SourceInvoiceID:       inv.SourceInvoiceID,
		SupplierInvoiceNumber: inv.SupplierInvoiceNumber,
		ItemsCount:            inv.ItemsCount,
		TotalQuantity:         inv.TotalQuantity,
		TotalPrice:            inv.TotalPrice,
		Status:                inv.Status,
		CreatedAt:             inv.CreatedAt,
		UpdatedAt:             inv.UpdatedAt,
	}
	for _, it := range items {
		out.Items = append(out.Items, *ToItemResponse(it))
	}
	return out
}

// ToItemResponse mapea un ítem.
func ToItemResponse(it *entity.InvoiceItem) *dto.InvoiceItemResponse {
	fwd, back := lifecycle.AllowedStatusChanges(it.Status)
	return &dto.InvoiceItemResponse{
		ID:                         it.ID,
		InvoiceID:                  it.InvoiceID,
		ProductID:                  it.ProductID,
		OfferID:                    it.OfferID,
		MirrorItemID:               it.MirrorItemID,
		SourceItemID:               it.SourceItemID,
		ProductExpiryDate:          it.ProductExpiryDate,
		OperatingNumber:            it.OperatingNumber,
		PurchaseDiscountPercentage: it.PurchaseDiscountPercentage,
		PurchasePrice:              it.PurchasePrice,
		SellingDiscountPercentage:  it.SellingDiscountPercentage,
		SellingPrice:               it.SellingPrice,
		Quantity:                   it.Quantity,
		RemainingQuantity:          it.RemainingQuantity,
		SubTotal:                   it.SubTotal,
		Status:                     it.Status,
		NextStatuses:               fwd,
		BackStatuses:               back,
	}
}
