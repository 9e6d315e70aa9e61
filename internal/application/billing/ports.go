package billing

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/pharma-ledger/internal/application/events"
	appledger "github.com/jhoicas/pharma-ledger/internal/application/ledger"
	"github.com/jhoicas/pharma-ledger/internal/domain"
	"github.com/jhoicas/pharma-ledger/internal/domain/entity"
	dinv "github.com/jhoicas/pharma-ledger/internal/domain/inventory"
	dledger "github.com/jhoicas/pharma-ledger/internal/domain/ledger"
	"github.com/jhoicas/pharma-ledger/internal/domain/repository"
)

// OfferAllocator reserva y libera unidades de ofertas con los repositorios del caller (misma transacción).
type OfferAllocator interface {
	Allocate(ctx context.Context, r repository.Repositories, out *events.Outbox, offerID string, quantity int) (*entity.Offer, error)
	// AllocateMax exige además que la oferta siga marcada como la mejor al bloquearla.
	AllocateMax(ctx context.Context, r repository.Repositories, out *events.Outbox, offerID string, quantity int) (*entity.Offer, error)
	Release(ctx context.Context, r repository.Repositories, out *events.Outbox, offerID string, quantity int) (*entity.Offer, error)
}

// InventoryPool integra facturación con los lotes de inventario.
// Si retorna error (ej: ErrInsufficientStock), el caller debe hacer rollback.
type InventoryPool interface {
	Shortages(ctx context.Context, r repository.Repositories, needs map[string]int, names map[string]string) ([]domain.Shortage, error)
	Deduct(ctx context.Context, r repository.Repositories, productID string, quantity int) ([]dinv.Consumption, error)
	Restore(ctx context.Context, r repository.Repositories, item *entity.InvoiceItem, quantity int) (*entity.StockLot, error)
	ReceiveItem(ctx context.Context, r repository.Repositories, item *entity.InvoiceItem) (*entity.StockLot, error)
	UnreceiveItem(ctx context.Context, r repository.Repositories, item *entity.InvoiceItem) error
	AdjustReceived(ctx context.Context, r repository.Repositories, item *entity.InvoiceItem, delta int) error
}

// LedgerPoster aplica el efecto contable de una factura.
type LedgerPoster interface {
	Post(ctx context.Context, r repository.Repositories, userID string, ref entity.DocumentRef, amount decimal.Decimal, at time.Time, op dledger.Op) (*appledger.Posting, error)
}

// InvoiceLineForPDF ítem enriquecido con el nombre del producto para el PDF.
type InvoiceLineForPDF struct {
	entity.InvoiceItem
	ProductName string
}

// InvoicePDFGenerator genera la representación gráfica de una factura.
type InvoicePDFGenerator interface {
	GenerateInvoicePDF(ctx context.Context, inv *entity.Invoice, lines []InvoiceLineForPDF) ([]byte, error)
}
