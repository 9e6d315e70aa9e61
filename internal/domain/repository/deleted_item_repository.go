package repository

import (
	"context"
	"time"

	"github.com/jhoicas/pharma-ledger/internal/domain/entity"
)

// DeletedItemFilter filtros de la bitácora.
type DeletedItemFilter struct {
	InvoiceID string
	From      *time.Time
	To        *time.Time
	Limit     int
	Offset    int
}

// DeletedItemRepository bitácora de solo inserción.
type DeletedItemRepository interface {
	Create(ctx context.Context, item *entity.DeletedItem) error
	List(ctx context.Context, f DeletedItemFilter) ([]*entity.DeletedItem, error)
}
