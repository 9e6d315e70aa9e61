package ports

import (
	"context"
	"io"

	"github.com/jhoicas/pharma-ledger/internal/domain/entity"
)

// EventPublisher puerto de salida para eventos de dominio. Se invoca después del commit.
type EventPublisher interface {
	PublishMaxOfferChanged(ctx context.Context, ev entity.MaxOfferChanged) error
}

// MaxOfferHandler consumidor del evento (reprecio del carrito).
type MaxOfferHandler interface {
	HandleMaxOfferChanged(ctx context.Context, ev entity.MaxOfferChanged) error
}

// NotificationSink entrega avisos a los usuarios. Sus fallos nunca bloquean al núcleo.
type NotificationSink interface {
	Notify(ctx context.Context, userID, title, message string, meta map[string]string) error
}

// DeletedItemExporter escribe la bitácora de ítems eliminados en un formato de reporte.
type DeletedItemExporter interface {
	WriteDeletedItems(w io.Writer, items []*entity.DeletedItem) error
}
