package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/jhoicas/pharma-ledger/internal/domain/entity"
	"github.com/jhoicas/pharma-ledger/internal/domain/repository"
)

var _ repository.DeletedItemRepository = (*DeletedItemRepo)(nil)

// DeletedItemRepo bitácora de ítems eliminados o reducidos (solo inserción).
type DeletedItemRepo struct {
	q Querier
}

// NewDeletedItemRepository construye el adaptador. Pasar pool o tx (Querier).
func NewDeletedItemRepository(q Querier) *DeletedItemRepo {
	return &DeletedItemRepo{q: q}
}

// Create agrega una entrada a la bitácora.
func (r *DeletedItemRepo) Create(ctx context.Context, d *entity.DeletedItem) error {
	if d.ID == "" {
		d.ID = uuid.New().String()
	}
	query := `
		INSERT INTO deleted_items (id, invoice_id, invoice_kind, item_id, product_id, offer_id,
			mirror_item_id, source_item_id, product_expiry_date, operating_number,
			purchase_discount_percentage, purchase_price, selling_discount_percentage, selling_price,
			quantity, remaining_quantity, sub_total, status, action, deleted_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)`
	_, err := r.q.Exec(ctx, query,
		d.ID, d.InvoiceID, string(d.InvoiceKind), d.ItemID, d.ProductID, d.OfferID,
		d.MirrorItemID, d.SourceItemID, d.ProductExpiryDate, d.OperatingNumber,
		d.PurchaseDiscountPercentage, d.PurchasePrice, d.SellingDiscountPercentage, d.SellingPrice,
		d.Quantity, d.RemainingQuantity, d.SubTotal, d.Status, d.Action, d.DeletedAt,
	)
	if err != nil {
		return fmt.Errorf("insert deleted item: %w", err)
	}
	return nil
}

// List devuelve las entradas filtradas en orden de registro.
func (r *DeletedItemRepo) List(ctx context.Context, f repository.DeletedItemFilter) ([]*entity.DeletedItem, error) {
	query := `
		SELECT id, invoice_id, invoice_kind, item_id, product_id, offer_id,
		       mirror_item_id, source_item_id, product_expiry_date, operating_number,
		       purchase_discount_percentage, purchase_price, selling_discount_percentage, selling_price,
		       quantity, remaining_quantity, sub_total, status, action, deleted_at
		FROM deleted_items
		WHERE ($1 = '' OR invoice_id = $1)
		  AND ($2::timestamptz IS NULL OR deleted_at >= $2)
		  AND ($3::timestamptz IS NULL OR deleted_at <= $3)
		ORDER BY seq
		LIMIT $4 OFFSET $5`
	rows, err := r.q.Query(ctx, query, f.InvoiceID, f.From, f.To, limitOrAll(f.Limit), f.Offset)
	if err != nil {
		return nil, fmt.Errorf("list deleted items: %w", err)
	}
	defer rows.Close()
	var list []*entity.DeletedItem
	for rows.Next() {
		var d entity.DeletedItem
		var kind string
		if err := rows.Scan(
			&d.ID, &d.InvoiceID, &kind, &d.ItemID, &d.ProductID, &d.OfferID,
			&d.MirrorItemID, &d.SourceItemID, &d.ProductExpiryDate, &d.OperatingNumber,
			&d.PurchaseDiscountPercentage, &d.PurchasePrice, &d.SellingDiscountPercentage, &d.SellingPrice,
			&d.Quantity, &d.RemainingQuantity, &d.SubTotal, &d.Status, &d.Action, &d.DeletedAt,
		); err != nil {
			return nil, fmt.Errorf("scan deleted item: %w", err)
		}
		d.InvoiceKind = entity.InvoiceKind(kind)
		list = append(list, &d)
	}
	return list, rows.Err()
}
