package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/pharma-ledger/internal/domain"
	"github.com/jhoicas/pharma-ledger/internal/domain/entity"
	"github.com/jhoicas/pharma-ledger/internal/domain/repository"
)

var _ repository.InvoiceRepository = (*InvoiceRepo)(nil)

const invoiceColumns = `id, kind, user_id, source_invoice_id, supplier_invoice_number,
	items_count, total_quantity, total_price, status, created_at, updated_at`

// InvoiceRepo implementación de InvoiceRepository (usable con pool o tx).
type InvoiceRepo struct {
	q Querier
}

// NewInvoiceRepository construye el adaptador. Pasar pool o tx (Querier).
func NewInvoiceRepository(q Querier) *InvoiceRepo {
	return &InvoiceRepo{q: q}
}

// Create persiste la cabecera de la factura.
func (r *InvoiceRepo) Create(ctx context.Context, invoice *entity.Invoice) error {
	if invoice.ID == "" {
		invoice.ID = uuid.New().String()
	}
	query := `INSERT INTO invoices (` + invoiceColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := r.q.Exec(ctx, query,
		invoice.ID, string(invoice.Kind), invoice.UserID, invoice.SourceInvoiceID,
		nullIfEmpty(invoice.SupplierInvoiceNumber),
		invoice.ItemsCount, invoice.TotalQuantity, invoice.TotalPrice, invoice.Status,
		invoice.CreatedAt, invoice.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert invoice: %w", err)
	}
	return nil
}

// Update reescribe totales, estado y número del proveedor.
func (r *InvoiceRepo) Update(ctx context.Context, invoice *entity.Invoice) error {
	query := `
		UPDATE invoices
		SET supplier_invoice_number = $2,
		    items_count    = $3,
		    total_quantity = $4,
		    total_price    = $5,
		    status         = $6,
		    updated_at     = $7
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, query,
		invoice.ID, nullIfEmpty(invoice.SupplierInvoiceNumber),
		invoice.ItemsCount, invoice.TotalQuantity, invoice.TotalPrice, invoice.Status,
		invoice.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update invoice: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: factura %s", domain.ErrNotFound, invoice.ID)
	}
	return nil
}

// GetByID obtiene una cabecera por ID.
func (r *InvoiceRepo) GetByID(ctx context.Context, id string) (*entity.Invoice, error) {
	return r.getOne(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE id = $1`, id)
}

// GetForUpdate obtiene la cabecera bloqueando la fila.
func (r *InvoiceRepo) GetForUpdate(ctx context.Context, id string) (*entity.Invoice, error) {
	return r.getOne(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE id = $1 FOR UPDATE`, id)
}

// GetOpenPurchaseForUpdate compra PLACED más antigua del vendedor, bloqueada.
func (r *InvoiceRepo) GetOpenPurchaseForUpdate(ctx context.Context, userID string) (*entity.Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices
		WHERE user_id = $1 AND kind = $2 AND status = $3
		ORDER BY seq LIMIT 1 FOR UPDATE`
	return r.getOne(ctx, query, userID, string(entity.InvoiceKindPurchase), entity.InvoiceStatusPlaced)
}

func (r *InvoiceRepo) getOne(ctx context.Context, query string, args ...any) (*entity.Invoice, error) {
	inv, err := scanInvoice(r.q.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get invoice: %w", err)
	}
	return inv, nil
}

// List lista cabeceras filtradas, las más recientes primero.
func (r *InvoiceRepo) List(ctx context.Context, f repository.InvoiceFilter) ([]*entity.Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices
		WHERE ($1 = '' OR user_id = $1)
		  AND ($2 = '' OR kind = $2)
		  AND ($3 = '' OR status = $3)
		ORDER BY seq DESC
		LIMIT $4 OFFSET $5`
	rows, err := r.q.Query(ctx, query, f.UserID, string(f.Kind), f.Status, limitOrAll(f.Limit), f.Offset)
	if err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}
	defer rows.Close()
	var list []*entity.Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, fmt.Errorf("scan invoice: %w", err)
		}
		list = append(list, inv)
	}
	return list, rows.Err()
}

func scanInvoice(row pgx.Row) (*entity.Invoice, error) {
	var inv entity.Invoice
	var kind string
	var supplier *string
	err := row.Scan(
		&inv.ID, &kind, &inv.UserID, &inv.SourceInvoiceID, &supplier,
		&inv.ItemsCount, &inv.TotalQuantity, &inv.TotalPrice, &inv.Status,
		&inv.CreatedAt, &inv.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	inv.Kind = entity.InvoiceKind(kind)
	inv.SupplierInvoiceNumber = derefStr(supplier)
	return &inv, nil
}
