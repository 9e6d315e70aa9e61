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

var _ repository.InvoiceItemRepository = (*InvoiceItemRepo)(nil)

const itemColumns = `id, invoice_id, product_id, offer_id, mirror_item_id, source_item_id,
	product_expiry_date, operating_number,
	purchase_discount_percentage, purchase_price, selling_discount_percentage, selling_price,
	quantity, remaining_quantity, stock_applied, sub_total, status, created_at, updated_at`

// InvoiceItemRepo implementación de InvoiceItemRepository (usable con pool o tx).
type InvoiceItemRepo struct {
	q Querier
}

// NewInvoiceItemRepository construye el adaptador. Pasar pool o tx (Querier).
func NewInvoiceItemRepository(q Querier) *InvoiceItemRepo {
	return &InvoiceItemRepo{q: q}
}

// Create persiste una línea de factura.
func (r *InvoiceItemRepo) Create(ctx context.Context, it *entity.InvoiceItem) error {
	if it.ID == "" {
		it.ID = uuid.New().String()
	}
	query := `INSERT INTO invoice_items (` + itemColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)`
	_, err := r.q.Exec(ctx, query,
		it.ID, it.InvoiceID, it.ProductID, it.OfferID, it.MirrorItemID, it.SourceItemID,
		it.ProductExpiryDate, it.OperatingNumber,
		it.PurchaseDiscountPercentage, it.PurchasePrice, it.SellingDiscountPercentage, it.SellingPrice,
		it.Quantity, it.RemainingQuantity, it.StockApplied, it.SubTotal, it.Status,
		it.CreatedAt, it.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert invoice item: %w", err)
	}
	return nil
}

// Update reescribe los campos mutables de la línea.
func (r *InvoiceItemRepo) Update(ctx context.Context, it *entity.InvoiceItem) error {
	query := `
		UPDATE invoice_items
		SET offer_id = $2, mirror_item_id = $3,
		    quantity = $4, remaining_quantity = $5, stock_applied = $6,
		    sub_total = $7, status = $8, updated_at = $9
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, query,
		it.ID, it.OfferID, it.MirrorItemID,
		it.Quantity, it.RemainingQuantity, it.StockApplied,
		it.SubTotal, it.Status, it.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update invoice item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: ítem %s", domain.ErrNotFound, it.ID)
	}
	return nil
}

// Delete elimina la línea.
func (r *InvoiceItemRepo) Delete(ctx context.Context, id string) error {
	if _, err := r.q.Exec(ctx, `DELETE FROM invoice_items WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete invoice item: %w", err)
	}
	return nil
}

// GetByID obtiene una línea sin bloquearla.
func (r *InvoiceItemRepo) GetByID(ctx context.Context, id string) (*entity.InvoiceItem, error) {
	return r.get(ctx, id, false)
}

// GetForUpdate obtiene la línea bloqueando la fila.
func (r *InvoiceItemRepo) GetForUpdate(ctx context.Context, id string) (*entity.InvoiceItem, error) {
	return r.get(ctx, id, true)
}

func (r *InvoiceItemRepo) get(ctx context.Context, id string, lock bool) (*entity.InvoiceItem, error) {
	query := forUpdate(`SELECT `+itemColumns+` FROM invoice_items WHERE id = $1`, lock)
	it, err := scanItem(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get invoice item: %w", err)
	}
	return it, nil
}

// ListForUpdate bloquea las líneas pedidas en orden de id.
func (r *InvoiceItemRepo) ListForUpdate(ctx context.Context, ids []string) ([]*entity.InvoiceItem, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query := `SELECT ` + itemColumns + ` FROM invoice_items WHERE id = ANY($1) ORDER BY id FOR UPDATE`
	return r.list(ctx, query, ids)
}

// ListByInvoice líneas de la factura en orden de alta.
func (r *InvoiceItemRepo) ListByInvoice(ctx context.Context, invoiceID string) ([]*entity.InvoiceItem, error) {
	query := `SELECT ` + itemColumns + ` FROM invoice_items WHERE invoice_id = $1 ORDER BY seq`
	return r.list(ctx, query, invoiceID)
}

func (r *InvoiceItemRepo) list(ctx context.Context, query string, args ...any) ([]*entity.InvoiceItem, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list invoice items: %w", err)
	}
	defer rows.Close()
	var list []*entity.InvoiceItem
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan invoice item: %w", err)
		}
		list = append(list, it)
	}
	return list, rows.Err()
}

func scanItem(row pgx.Row) (*entity.InvoiceItem, error) {
	var it entity.InvoiceItem
	err := row.Scan(
		&it.ID, &it.InvoiceID, &it.ProductID, &it.OfferID, &it.MirrorItemID, &it.SourceItemID,
		&it.ProductExpiryDate, &it.OperatingNumber,
		&it.PurchaseDiscountPercentage, &it.PurchasePrice, &it.SellingDiscountPercentage, &it.SellingPrice,
		&it.Quantity, &it.RemainingQuantity, &it.StockApplied, &it.SubTotal, &it.Status,
		&it.CreatedAt, &it.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &it, nil
}
