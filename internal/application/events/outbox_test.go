package events_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/pharma-ledger/internal/application/events"
	"github.com/jhoicas/pharma-ledger/internal/domain/entity"
)

type recordingPublisher struct {
	got []entity.MaxOfferChanged
	err error
}

func (p *recordingPublisher) PublishMaxOfferChanged(_ context.Context, ev entity.MaxOfferChanged) error {
	p.got = append(p.got, ev)
	return p.err
}

type failingSink struct{ calls int }

func (s *failingSink) Notify(context.Context, string, string, string, map[string]string) error {
	s.calls++
	return errors.New("smtp caído")
}

func TestOutbox_ConservaUltimoCambioPorProducto(t *testing.T) {
	var out events.Outbox
	out.MaxOfferChanged(entity.MaxOfferChanged{ProductID: "P", PrevOfferID: "A", NewOfferID: "B"})
	out.MaxOfferChanged(entity.MaxOfferChanged{ProductID: "P", PrevOfferID: "B", NewOfferID: "C"})
	out.MaxOfferChanged(entity.MaxOfferChanged{ProductID: "Q", NewOfferID: "X"})

	evs := out.MaxOfferEvents()
	require.Len(t, evs, 2)
	assert.Equal(t, "A", evs[0].PrevOfferID, "se conserva la máxima original")
	assert.Equal(t, "C", evs[0].NewOfferID)
}

func TestDispatcher_ErroresSeDescartan(t *testing.T) {
	pub := &recordingPublisher{err: errors.New("redis caído")}
	sink := &failingSink{}
	d := events.NewDispatcher(pub, sink, nil)

	var out events.Outbox
	out.MaxOfferChanged(entity.MaxOfferChanged{ProductID: "P", NewOfferID: "B"})
	out.Notify("u1", "Factura cerrada", "ok", nil)
	out.Notify("", "sin destinatario", "", nil)

	assert.NotPanics(t, func() { d.Flush(context.Background(), &out) })
	require.Len(t, pub.got, 1)
	assert.False(t, pub.got[0].OccurredAt.IsZero())
	assert.Equal(t, 1, sink.calls, "los avisos sin usuario no se registran")
}
