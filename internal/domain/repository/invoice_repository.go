package repository

import (
	"context"

	"github.com/jhoicas/pharma-ledger/internal/domain/entity"
)

// InvoiceFilter filtros para listar cabeceras.
type InvoiceFilter struct {
	UserID string
	Kind   entity.InvoiceKind
	Status string
	Limit  int
	Offset int
}

// InvoiceRepository define el puerto de persistencia para cabeceras de factura.
type InvoiceRepository interface {
	Create(ctx context.Context, invoice *entity.Invoice) error
	Update(ctx context.Context, invoice *entity.Invoice) error
	GetByID(ctx context.Context, id string) (*entity.Invoice, error)
	// GetForUpdate bloquea la cabecera antes de leer y reescribir totales o estado.
	GetForUpdate(ctx context.Context, id string) (*entity.Invoice, error)
	// GetOpenPurchaseForUpdate devuelve la compra PLACED más antigua del vendedor, bloqueada.
	GetOpenPurchaseForUpdate(ctx context.Context, userID string) (*entity.Invoice, error)
	List(ctx context.Context, f InvoiceFilter) ([]*entity.Invoice, error)
}

// InvoiceItemRepository define el puerto de persistencia para ítems de factura.
type InvoiceItemRepository interface {
	Create(ctx context.Context, item *entity.InvoiceItem) error
	Update(ctx context.Context, item *entity.InvoiceItem) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*entity.InvoiceItem, error)
	GetForUpdate(ctx context.Context, id string) (*entity.InvoiceItem, error)
	// ListForUpdate bloquea todos los ítems pedidos; los inexistentes se omiten.
	ListForUpdate(ctx context.Context, ids []string) ([]*entity.InvoiceItem, error)
	ListByInvoice(ctx context.Context, invoiceID string) ([]*entity.InvoiceItem, error)
}
