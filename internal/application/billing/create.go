package billing

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/pharma-ledger/internal/application/dto"
	"github.com/jhoicas/pharma-ledger/internal/application/events"
	"github.com/jhoicas/pharma-ledger/internal/application/validation"
	"github.com/jhoicas/pharma-ledger/internal/domain"
	"github.com/jhoicas/pharma-ledger/internal/domain/entity"
	"github.com/jhoicas/pharma-ledger/internal/domain/lifecycle"
	"github.com/jhoicas/pharma-ledger/internal/domain/repository"
)

// CreateInvoice crea una factura del usuario owner con sus ítems.
// Ventas y compras consumen ofertas; cada ítem de venta se refleja en la compra abierta del vendedor.
// Las devoluciones descuentan la cantidad devolvible de los ítems de la factura origen.
// Toda la entrada se valida antes de cualquier mutación.
func (uc *InvoiceUseCase) CreateInvoice(ctx context.Context, owner string, in dto.CreateInvoiceRequest) (*dto.InvoiceResponse, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	kind := entity.InvoiceKind(in.Kind)
	if kind.IsReturn() && in.SourceInvoiceID == "" {
		return nil, domain.NewValidationError("source_invoice_id", "campo requerido para devoluciones")
	}
	if err := checkRequestItems(kind, in.Items); err != nil {
		return nil, err
	}

	now := uc.now()
	inv := &entity.Invoice{
		ID:         uuid.New().String(),
		Kind:       kind,
		UserID:     owner,
		TotalPrice: decimal.Zero,
		Status:     entity.InvoiceStatusPlaced,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if kind.IsReturn() {
		inv.SourceInvoiceID = entity.StrPtr(in.SourceInvoiceID)
	}

	err := uc.run(ctx, func(r repository.Repositories, out *events.Outbox) error {
		if err := r.Invoices.Create(ctx, inv); err != nil {
			return fmt.Errorf("billing: crear factura: %w", err)
		}
		return uc.addItems(ctx, r, out, inv, in.Items)
	})
	if err != nil {
		return nil, err
	}
	return uc.GetInvoice(ctx, inv.ID)
}

// AddItems agrega ítems a una factura abierta con las mismas reglas que CreateInvoice.
func (uc *InvoiceUseCase) AddItems(ctx context.Context, invoiceID string, in dto.AddItemsRequest) (*dto.InvoiceResponse, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	err := uc.run(ctx, func(r repository.Repositories, out *events.Outbox) error {
		inv, err := r.Invoices.GetForUpdate(ctx, invoiceID)
		if err != nil {
			return fmt.Errorf("billing: bloquear factura: %w", err)
		}
		if inv == nil {
			return fmt.Errorf("%w: factura %s", domain.ErrNotFound, invoiceID)
		}
		if err := lifecycle.CanMutateItems(inv); err != nil {
			return err
		}
		if err := checkRequestItems(inv.Kind, in.Items); err != nil {
			return err
		}
		return uc.addItems(ctx, r, out, inv, in.Items)
	})
	if err != nil {
		return nil, err
	}
	return uc.GetInvoice(ctx, invoiceID)
}

func (uc *InvoiceUseCase) addItems(ctx context.Context, r repository.Repositories, out *events.Outbox, inv *entity.Invoice, items []dto.InvoiceItemRequest) error {
	var err error
	switch inv.Kind {
	case entity.InvoiceKindSale:
		err = uc.addSaleItems(ctx, r, out, inv, items)
	case entity.InvoiceKindPurchase:
		err = uc.addPurchaseItems(ctx, r, out, inv, items)
	default:
		err = uc.addReturnItems(ctx, r, inv, items)
	}
	if err != nil {
		return err
	}
	return uc.refreshTotals(ctx, r, inv)
}

// checkRequestItems valida la forma de las líneas según el tipo: referencia requerida y sin duplicados.
func checkRequestItems(kind entity.InvoiceKind, items []dto.InvoiceItemRequest) error {
	verr := &domain.ValidationError{Fields: map[string]string{}}
	seen := map[string]int{}
	for i, it := range items {
		field, ref := "offer_id", it.OfferID
		if kind.IsReturn() {
			field, ref = "source_item_id", it.SourceItemID
		}
		key := fmt.Sprintf("items[%d].%s", i, field)
		if ref == "" {
			verr.Fields[key] = "campo requerido"
			continue
		}
		if j, dup := seen[ref]; dup {
			verr.Fields[key] = fmt.Sprintf("duplicado de items[%d]", j)
			continue
		}
		seen[ref] = i
	}
	if len(verr.Fields) > 0 {
		return verr
	}
	return nil
}

type offerLine struct {
	offer *entity.Offer
	qty   int
}

// loadOfferLines lee y valida las ofertas de las líneas sin mutar nada.
// requireMax exige que cada oferta sea la mejor vigente de su producto (ventas).
func (uc *InvoiceUseCase) loadOfferLines(ctx context.Context, r repository.Repositories, inv *entity.Invoice, items []dto.InvoiceItemRequest, requireMax bool) ([]offerLine, error) {
	existing, err := r.Items.ListByInvoice(ctx, inv.ID)
	if err != nil {
		return nil, fmt.Errorf("billing: listar ítems: %w", err)
	}
	inInvoice := map[string]bool{}
	for _, it := range existing {
		if it.OfferID != nil {
			inInvoice[*it.OfferID] = true
		}
	}

	verr := &domain.ValidationError{Fields: map[string]string{}}
	lines := make([]offerLine, 0, len(items))
	total := inv.TotalPrice
	minPurchase := decimal.Zero
	for i, it := range items {
		o, err := r.Offers.GetByID(ctx, it.OfferID)
		if err != nil {
			return nil, fmt.Errorf("billing: obtener oferta: %w", err)
		}
		if o == nil {
			return nil, fmt.Errorf("%w: oferta %s", domain.ErrNotFound, it.OfferID)
		}
		prefix := fmt.Sprintf("items[%d].", i)
		switch {
		case inInvoice[o.ID]:
			verr.Fields[prefix+"offer_id"] = "la oferta ya está en la factura"
		case requireMax && !o.IsMax:
			verr.Fields[prefix+"offer_id"] = "la oferta no es la mejor oferta vigente del producto"
		case !requireMax && o.UserID != inv.UserID:
			verr.Fields[prefix+"offer_id"] = "la oferta no pertenece al titular de la compra"
		case it.Quantity < 1:
			verr.Fields[prefix+"quantity"] = "debe ser al menos 1"
		case o.MaxAmountPerInvoice > 0 && it.Quantity > o.MaxAmountPerInvoice:
			verr.Fields[prefix+"quantity"] = fmt.Sprintf("excede el máximo por factura (%d)", o.MaxAmountPerInvoice)
		}
		unit := o.SellingPrice
		if !requireMax {
			unit = o.PurchasePrice
		}
		total = total.Add(entity.LineTotal(unit, it.Quantity))
		minPurchase = minPurchase.Add(o.MinPurchase)
		lines = append(lines, offerLine{offer: o, qty: it.Quantity})
	}
	if len(verr.Fields) > 0 {
		return nil, verr
	}
	for _, l := range lines {
		if l.qty > l.offer.RemainingAmount {
			return nil, &domain.InsufficientOfferQuantityError{OfferID: l.offer.ID, Requested: l.qty, Remaining: l.offer.RemainingAmount}
		}
	}
	if requireMax && minPurchase.GreaterThan(total) {
		return nil, domain.NewValidationError("items",
			fmt.Sprintf("el total %s no alcanza la compra mínima de las ofertas (%s)", total.StringFixed(2), minPurchase.StringFixed(2)))
	}
	return lines, nil
}

func (uc *InvoiceUseCase) addSaleItems(ctx context.Context, r repository.Repositories, out *events.Outbox, inv *entity.Invoice, items []dto.InvoiceItemRequest) error {
	lines, err := uc.loadOfferLines(ctx, r, inv, items, true)
	if err != nil {
		return err
	}

	// Cabeceras de compra de cada vendedor antes que las ofertas.
	sellers := map[string]bool{}
	for _, l := range lines {
		sellers[l.offer.UserID] = true
	}
	purchases := map[string]*entity.Invoice{}
	for _, seller := range sortedKeys(sellers) {
		p, err := uc.openPurchase(ctx, r, seller)
		if err != nil {
			return err
		}
		purchases[seller] = p
	}

	sort.SliceStable(lines, func(i, j int) bool { return lines[i].offer.ID < lines[j].offer.ID })
	for _, l := range lines {
		o, err := uc.offers.AllocateMax(ctx, r, out, l.offer.ID, l.qty)
		if err != nil {
			return err
		}
		now := uc.now()
		sale := itemFromOffer(o, inv, l.qty, now)
		mirror := itemFromOffer(o, purchases[o.UserID], l.qty, now)
		sale.MirrorItemID = entity.StrPtr(mirror.ID)
		mirror.MirrorItemID = entity.StrPtr(sale.ID)
		if err := r.Items.Create(ctx, sale); err != nil {
			return fmt.Errorf("billing: crear ítem de venta: %w", err)
		}
		if err := r.Items.Create(ctx, mirror); err != nil {
			return fmt.Errorf("billing: crear ítem de compra: %w", err)
		}
	}

	for _, seller := range sortedKeys(sellers) {
		p := purchases[seller]
		if err := uc.refreshTotals(ctx, r, p); err != nil {
			return err
		}
		out.Notify(seller, "Nuevo pedido",
			fmt.Sprintf("Se agregaron productos a la factura de compra %s", p.ID),
			map[string]string{"invoice_id": p.ID, "sale_invoice_id": inv.ID})
	}
	return nil
}

// openPurchase devuelve la compra PLACED más antigua del vendedor, creándola si no existe.
func (uc *InvoiceUseCase) openPurchase(ctx context.Context, r repository.Repositories, seller string) (*entity.Invoice, error) {
	p, err := r.Invoices.GetOpenPurchaseForUpdate(ctx, seller)
	if err != nil {
		return nil, fmt.Errorf("billing: bloquear compra abierta: %w", err)
	}
	if p != nil {
		return p, nil
	}
	now := uc.now()
	p = &entity.Invoice{
		ID:         uuid.New().String(),
		Kind:       entity.InvoiceKindPurchase,
		UserID:     seller,
		TotalPrice: decimal.Zero,
		Status:     entity.InvoiceStatusPlaced,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := r.Invoices.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("billing: crear compra: %w", err)
	}
	return p, nil
}

func (uc *InvoiceUseCase) addPurchaseItems(ctx context.Context, r repository.Repositories, out *events.Outbox, inv *entity.Invoice, items []dto.InvoiceItemRequest) error {
	lines, err := uc.loadOfferLines(ctx, r, inv, items, false)
	if err != nil {
		return err
	}
	sort.SliceStable(lines, func(i, j int) bool { return lines[i].offer.ID < lines[j].offer.ID })
	for _, l := range lines {
		o, err := uc.offers.Allocate(ctx, r, out, l.offer.ID, l.qty)
		if err != nil {
			return err
		}
		if err := r.Items.Create(ctx, itemFromOffer(o, inv, l.qty, uc.now())); err != nil {
			return fmt.Errorf("billing: crear ítem de compra: %w", err)
		}
	}
	return nil
}

func (uc *InvoiceUseCase) addReturnItems(ctx context.Context, r repository.Repositories, inv *entity.Invoice, items []dto.InvoiceItemRequest) error {
	sourceID := entity.Deref(inv.SourceInvoiceID)
	source, err := r.Invoices.GetForUpdate(ctx, sourceID)
	if err != nil {
		return fmt.Errorf("billing: bloquear factura origen: %w", err)
	}
	if source == nil {
		return fmt.Errorf("%w: factura origen %s", domain.ErrNotFound, sourceID)
	}
	if source.Kind != inv.Kind.SourceKind() {
		return domain.NewValidationError("source_invoice_id",
			fmt.Sprintf("una devolución %s requiere una factura %s", inv.Kind, inv.Kind.SourceKind()))
	}
	if source.UserID != inv.UserID {
		return domain.ErrForbidden
	}
	if !source.Closed() {
		return fmt.Errorf("%w: la factura origen %s no está cerrada", domain.ErrConflict, source.ID)
	}

	ids := make([]string, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.SourceItemID)
	}
	locked, err := r.Items.ListForUpdate(ctx, ids)
	if err != nil {
		return fmt.Errorf("billing: bloquear ítems origen: %w", err)
	}
	byID := make(map[string]*entity.InvoiceItem, len(locked))
	for _, it := range locked {
		byID[it.ID] = it
	}

	verr := &domain.ValidationError{Fields: map[string]string{}}
	for i, it := range items {
		src, ok := byID[it.SourceItemID]
		key := fmt.Sprintf("items[%d].", i)
		switch {
		case !ok || src.InvoiceID != source.ID:
			verr.Fields[key+"source_item_id"] = "el ítem no pertenece a la factura origen"
		case it.Quantity > src.RemainingQuantity:
			verr.Fields[key+"quantity"] = fmt.Sprintf("excede la cantidad devolvible (%d)", src.RemainingQuantity)
		}
	}
	if len(verr.Fields) > 0 {
		return verr
	}

	for _, it := range items {
		src := byID[it.SourceItemID]
		src.RemainingQuantity -= it.Quantity
		src.UpdatedAt = uc.now()
		if err := r.Items.Update(ctx, src); err != nil {
			return fmt.Errorf("billing: actualizar ítem origen: %w", err)
		}
		if err := r.Items.Create(ctx, returnItem(src, inv, it.Quantity, uc.now())); err != nil {
			return fmt.Errorf("billing: crear ítem de devolución: %w", err)
		}
	}
	return nil
}

func itemFromOffer(o *entity.Offer, inv *entity.Invoice, qty int, now time.Time) *entity.InvoiceItem {
	it := &entity.InvoiceItem{
		ID:                         uuid.New().String(),
		InvoiceID:                  inv.ID,
		ProductID:                  o.ProductID,
		OfferID:                    entity.StrPtr(o.ID),
		ProductExpiryDate:          o.ProductExpiryDate,
		OperatingNumber:            o.OperatingNumber,
		PurchaseDiscountPercentage: o.PurchaseDiscountPercentage,
		PurchasePrice:              o.PurchasePrice,
		SellingDiscountPercentage:  o.SellingDiscountPercentage,
		SellingPrice:               o.SellingPrice,
		Quantity:                   qty,
		RemainingQuantity:          qty,
		Status:                     entity.ItemStatusPlaced,
		CreatedAt:                  now,
		UpdatedAt:                  now,
	}
	it.Reprice(inv.Kind)
	return it
}

// returnItem las líneas de devolución nacen recibidas: no tienen flujo de estados propio.
func returnItem(src *entity.InvoiceItem, inv *entity.Invoice, qty int, now time.Time) *entity.InvoiceItem {
	it := &entity.InvoiceItem{
		ID:                         uuid.New().String(),
		InvoiceID:                  inv.ID,
		ProductID:                  src.ProductID,
		SourceItemID:               entity.StrPtr(src.ID),
		ProductExpiryDate:          src.ProductExpiryDate,
		OperatingNumber:            src.OperatingNumber,
		PurchaseDiscountPercentage: src.PurchaseDiscountPercentage,
		PurchasePrice:              src.PurchasePrice,
		SellingDiscountPercentage:  src.SellingDiscountPercentage,
		SellingPrice:               src.SellingPrice,
		Quantity:                   qty,
		RemainingQuantity:          qty,
		Status:                     entity.ItemStatusReceived,
		CreatedAt:                  now,
		UpdatedAt:                  now,
	}
	it.Reprice(inv.Kind)
	return it
}
