package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/jhoicas/pharma-ledger/internal/domain"
	"github.com/jhoicas/pharma-ledger/internal/domain/entity"
	"github.com/jhoicas/pharma-ledger/internal/domain/repository"
)

var _ repository.CartItemRepository = (*CartItemRepo)(nil)

// CartItemRepo carrito de las farmacias.
type CartItemRepo struct {
	q Querier
}

// NewCartItemRepository construye el adaptador. Pasar pool o tx (Querier).
func NewCartItemRepository(q Querier) *CartItemRepo {
	return &CartItemRepo{q: q}
}

// Create persiste una línea del carrito.
func (r *CartItemRepo) Create(ctx context.Context, c *entity.CartItem) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	query := `
		INSERT INTO cart_items (id, user_id, product_id, offer_id, quantity, unit_price, sold_out, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.q.Exec(ctx, query,
		c.ID, c.UserID, c.ProductID, c.OfferID, c.Quantity, c.UnitPrice, c.SoldOut, c.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert cart item: %w", err)
	}
	return nil
}

// Update reescribe la oferta y el precio de la línea.
func (r *CartItemRepo) Update(ctx context.Context, c *entity.CartItem) error {
	tag, err := r.q.Exec(ctx,
		`UPDATE cart_items SET offer_id = $2, quantity = $3, unit_price = $4, sold_out = $5, updated_at = $6 WHERE id = $1`,
		c.ID, c.OfferID, c.Quantity, c.UnitPrice, c.SoldOut, c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update cart item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: ítem de carrito %s", domain.ErrNotFound, c.ID)
	}
	return nil
}

// ListByProduct página de líneas del producto con id > afterID.
func (r *CartItemRepo) ListByProduct(ctx context.Context, productID, afterID string, limit int) ([]*entity.CartItem, error) {
	query := `
		SELECT id, user_id, product_id, offer_id, quantity, unit_price, sold_out, updated_at
		FROM cart_items
		WHERE product_id = $1 AND id > $2
		ORDER BY id
		LIMIT $3`
	rows, err := r.q.Query(ctx, query, productID, afterID, limitOrAll(limit))
	if err != nil {
		return nil, fmt.Errorf("list cart items: %w", err)
	}
	defer rows.Close()
	var list []*entity.CartItem
	for rows.Next() {
		var c entity.CartItem
		if err := rows.Scan(&c.ID, &c.UserID, &c.ProductID, &c.OfferID, &c.Quantity, &c.UnitPrice, &c.SoldOut, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan cart item: %w", err)
		}
		list = append(list, &c)
	}
	return list, rows.Err()
}
