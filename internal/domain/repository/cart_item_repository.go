package repository

import (
	"context"

	"github.com/jhoicas/pharma-ledger/internal/domain/entity"
)

// CartItemRepository puerto del carrito usado para el reprecio paginado.
type CartItemRepository interface {
	Create(ctx context.Context, item *entity.CartItem) error
	Update(ctx context.Context, item *entity.CartItem) error
	// ListByProduct paginación por cursor: ítems con id > afterID, ordenados por id.
	ListByProduct(ctx context.Context, productID, afterID string, limit int) ([]*entity.CartItem, error)
}

// NotificationRepository persiste avisos para los usuarios.
type NotificationRepository interface {
	Create(ctx context.Context, n *entity.Notification) error
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]*entity.Notification, error)
}
