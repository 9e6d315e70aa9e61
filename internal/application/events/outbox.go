// Package events acumula los efectos externos de una unidad de trabajo y los entrega tras el commit.
package events

import (
	"context"
	"time"

	"github.com/jhoicas/pharma-ledger/internal/application/ports"
	"github.com/jhoicas/pharma-ledger/internal/domain/entity"
	"github.com/jhoicas/pharma-ledger/pkg/logger"
)

// Outbox efectos pendientes de una transacción. Se descarta si la transacción falla.
type Outbox struct {
	maxChanges    []entity.MaxOfferChanged
	notifications []entity.Notification
}

// MaxOfferChanged registra un cambio de mejor oferta; conserva solo el último por producto.
func (o *Outbox) MaxOfferChanged(ev entity.MaxOfferChanged) {
	for i := range o.maxChanges {
		if o.maxChanges[i].ProductID == ev.ProductID {
			ev.PrevOfferID = o.maxChanges[i].PrevOfferID
			o.maxChanges[i] = ev
			return
		}
	}
	o.maxChanges = append(o.maxChanges, ev)
}

// Notify registra un aviso para un usuario.
func (o *Outbox) Notify(userID, title, message string, meta map[string]string) {
	if userID == "" {
		return
	}
	o.notifications = append(o.notifications, entity.Notification{
		UserID: userID, Title: title, Message: message, Meta: meta,
	})
}

// MaxOfferEvents eventos pendientes (para tests y diagnóstico).
func (o *Outbox) MaxOfferEvents() []entity.MaxOfferChanged { return o.maxChanges }

// Notifications avisos pendientes.
func (o *Outbox) Notifications() []entity.Notification { return o.notifications }

// Dispatcher entrega el contenido de un Outbox. Los errores se registran y se descartan.
type Dispatcher struct {
	pub  ports.EventPublisher
	sink ports.NotificationSink
	log  *logger.Logger
}

// NewDispatcher construye el despachador; pub y sink pueden ser nil.
func NewDispatcher(pub ports.EventPublisher, sink ports.NotificationSink, log *logger.Logger) *Dispatcher {
	if log == nil {
		log = logger.Nop()
	}
	return &Dispatcher{pub: pub, sink: sink, log: log.WithComponent("events")}
}

// Flush publica eventos y notificaciones. Nunca devuelve error.
func (d *Dispatcher) Flush(ctx context.Context, out *Outbox) {
	if d == nil || out == nil {
		return
	}
	for _, ev := range out.maxChanges {
		if ev.OccurredAt.IsZero() {
			ev.OccurredAt = time.Now().UTC()
		}
		if d.pub == nil {
			continue
		}
		if err := d.pub.PublishMaxOfferChanged(ctx, ev); err != nil {
			d.log.Error().Err(err).
				Str("product_id", ev.ProductID).
				Str("new_offer_id", ev.NewOfferID).
				Msg("publicar MaxOfferChanged")
		}
	}
	for _, n := range out.notifications {
		if d.sink == nil {
			continue
		}
		if err := d.sink.Notify(ctx, n.UserID, n.Title, n.Message, n.Meta); err != nil {
			d.log.Warn().Err(err).
				Str("user_id", n.UserID).
				Str("title", n.Title).
				Msg("notificación descartada")
		}
	}
}

// DirectPublisher entrega el evento al consumidor en el mismo proceso (sin broker).
type DirectPublisher struct {
	Handler ports.MaxOfferHandler
}

// PublishMaxOfferChanged invoca al consumidor de forma síncrona.
func (p DirectPublisher) PublishMaxOfferChanged(ctx context.Context, ev entity.MaxOfferChanged) error {
	if p.Handler == nil {
		return nil
	}
	return p.Handler.HandleMaxOfferChanged(ctx, ev)
}
