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

var _ repository.OfferRepository = (*OfferRepo)(nil)

const offerColumns = `id, product_id, user_id, operating_number, product_expiry_date,
	available_amount, remaining_amount, max_amount_per_invoice, min_purchase,
	purchase_discount_percentage, purchase_price, selling_discount_percentage, selling_price,
	is_max, created_at, updated_at`

// OfferRepo implementación de OfferRepository (usable con pool o tx).
type OfferRepo struct {
	q Querier
}

// NewOfferRepository construye el adaptador. Pasar pool o tx (Querier).
func NewOfferRepository(q Querier) *OfferRepo {
	return &OfferRepo{q: q}
}

// Create persiste una oferta.
func (r *OfferRepo) Create(ctx context.Context, o *entity.Offer) error {
	if o.ID == "" {
		o.ID = uuid.New().String()
	}
	query := `INSERT INTO offers (` + offerColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`
	_, err := r.q.Exec(ctx, query,
		o.ID, o.ProductID, o.UserID, o.OperatingNumber, o.ProductExpiryDate,
		o.AvailableAmount, o.RemainingAmount, o.MaxAmountPerInvoice, o.MinPurchase,
		o.PurchaseDiscountPercentage, o.PurchasePrice, o.SellingDiscountPercentage, o.SellingPrice,
		o.IsMax, o.CreatedAt, o.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert offer: %w", err)
	}
	return nil
}

// Update reescribe cantidades, precios y la bandera IsMax.
func (r *OfferRepo) Update(ctx context.Context, o *entity.Offer) error {
	query := `
		UPDATE offers
		SET operating_number = $2, product_expiry_date = $3,
		    available_amount = $4, remaining_amount = $5, max_amount_per_invoice = $6, min_purchase = $7,
		    purchase_discount_percentage = $8, purchase_price = $9,
		    selling_discount_percentage = $10, selling_price = $11,
		    is_max = $12, updated_at = $13
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, query,
		o.ID, o.OperatingNumber, o.ProductExpiryDate,
		o.AvailableAmount, o.RemainingAmount, o.MaxAmountPerInvoice, o.MinPurchase,
		o.PurchaseDiscountPercentage, o.PurchasePrice, o.SellingDiscountPercentage, o.SellingPrice,
		o.IsMax, o.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update offer: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: oferta %s", domain.ErrNotFound, o.ID)
	}
	return nil
}

// GetByID obtiene una oferta sin bloquearla.
func (r *OfferRepo) GetByID(ctx context.Context, id string) (*entity.Offer, error) {
	return r.get(ctx, id, false)
}

// GetForUpdate obtiene la oferta bloqueando la fila.
func (r *OfferRepo) GetForUpdate(ctx context.Context, id string) (*entity.Offer, error) {
	return r.get(ctx, id, true)
}

func (r *OfferRepo) get(ctx context.Context, id string, lock bool) (*entity.Offer, error) {
	query := forUpdate(`SELECT `+offerColumns+` FROM offers WHERE id = $1`, lock)
	o, err := scanOffer(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get offer: %w", err)
	}
	return o, nil
}

// ListByProduct lista las ofertas del producto ordenadas por id.
func (r *OfferRepo) ListByProduct(ctx context.Context, productID string) ([]*entity.Offer, error) {
	return r.listByProduct(ctx, productID, false)
}

// ListByProductForUpdate bloquea todas las ofertas del producto en orden de id.
func (r *OfferRepo) ListByProductForUpdate(ctx context.Context, productID string) ([]*entity.Offer, error) {
	return r.listByProduct(ctx, productID, true)
}

func (r *OfferRepo) listByProduct(ctx context.Context, productID string, lock bool) ([]*entity.Offer, error) {
	query := forUpdate(`SELECT `+offerColumns+` FROM offers WHERE product_id = $1 ORDER BY id`, lock)
	rows, err := r.q.Query(ctx, query, productID)
	if err != nil {
		return nil, fmt.Errorf("list offers: %w", err)
	}
	defer rows.Close()
	var list []*entity.Offer
	for rows.Next() {
		o, err := scanOffer(rows)
		if err != nil {
			return nil, fmt.Errorf("scan offer: %w", err)
		}
		list = append(list, o)
	}
	return list, rows.Err()
}

// ListProductIDs productos que tienen al menos una oferta.
func (r *OfferRepo) ListProductIDs(ctx context.Context) ([]string, error) {
	rows, err := r.q.Query(ctx, `SELECT DISTINCT product_id FROM offers ORDER BY product_id`)
	if err != nil {
		return nil, fmt.Errorf("list offer products: %w", err)
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan product id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func scanOffer(row pgx.Row) (*entity.Offer, error) {
	var o entity.Offer
	err := row.Scan(
		&o.ID, &o.ProductID, &o.UserID, &o.OperatingNumber, &o.ProductExpiryDate,
		&o.AvailableAmount, &o.RemainingAmount, &o.MaxAmountPerInvoice, &o.MinPurchase,
		&o.PurchaseDiscountPercentage, &o.PurchasePrice, &o.SellingDiscountPercentage, &o.SellingPrice,
		&o.IsMax, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &o, nil
}
