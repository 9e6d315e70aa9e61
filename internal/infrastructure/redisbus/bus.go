// Package redisbus publica y consume MaxOfferChanged sobre Redis Pub/Sub.
// El consumo de cada producto se serializa entre réplicas con un lock distribuido.
package redisbus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"

	"github.com/jhoicas/pharma-ledger/internal/application/ports"
	"github.com/jhoicas/pharma-ledger/internal/domain/entity"
	"github.com/jhoicas/pharma-ledger/pkg/config"
	"github.com/jhoicas/pharma-ledger/pkg/logger"
)

var _ ports.EventPublisher = (*Publisher)(nil)

// NewClient abre el cliente y verifica la conexión.
func NewClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis %s: %w", cfg.Addr, err)
	}
	return client, nil
}

// Publisher implementa ports.EventPublisher.
type Publisher struct {
	client  redis.UniversalClient
	channel string
}

// NewPublisher construye el publicador sobre el canal dado.
func NewPublisher(client redis.UniversalClient, channel string) *Publisher {
	return &Publisher{client: client, channel: channel}
}

// PublishMaxOfferChanged serializa el evento como JSON y lo publica.
func (p *Publisher) PublishMaxOfferChanged(ctx context.Context, ev entity.MaxOfferChanged) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("redisbus: serializar evento: %w", err)
	}
	if err := p.client.Publish(ctx, p.channel, payload).Err(); err != nil {
		return fmt.Errorf("redisbus: publicar en %s: %w", p.channel, err)
	}
	return nil
}

// Subscriber entrega los eventos del canal a un ports.MaxOfferHandler.
type Subscriber struct {
	client  redis.UniversalClient
	locker  *redislock.Client
	channel string
	lockTTL time.Duration
	handler ports.MaxOfferHandler
	log     *logger.Logger
}

// NewSubscriber construye el consumidor. lockTTL ≤ 0 usa 30s.
func NewSubscriber(client redis.UniversalClient, channel string, lockTTL time.Duration, handler ports.MaxOfferHandler, log *logger.Logger) *Subscriber {
	if lockTTL <= 0 {
		lockTTL = 30 * time.Second
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Subscriber{
		client:  client,
		locker:  redislock.New(client),
		channel: channel,
		lockTTL: lockTTL,
		handler: handler,
		log:     log.WithComponent("redisbus"),
	}
}

// Run consume hasta que ctx se cancele.
func (s *Subscriber) Run(ctx context.Context) error {
	sub := s.client.Subscribe(ctx, s.channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("redisbus: suscribir a %s: %w", s.channel, err)
	}
	s.log.Info().Str("channel", s.channel).Msg("suscrito a MaxOfferChanged")

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var ev entity.MaxOfferChanged
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				s.log.Warn().Err(err).Str("payload", msg.Payload).Msg("evento inválido descartado")
				continue
			}
			if err := s.Handle(ctx, ev); err != nil {
				s.log.Error().Err(err).Str("product_id", ev.ProductID).Msg("procesar MaxOfferChanged")
			}
		}
	}
}

// Handle procesa un evento bajo el lock del producto. Si otra réplica tiene el lock, reintenta
// con backoff lineal hasta agotar el TTL.
func (s *Subscriber) Handle(ctx context.Context, ev entity.MaxOfferChanged) error {
	key := "lock:max-offer:" + ev.ProductID
	lock, err := s.locker.Obtain(ctx, key, s.lockTTL, &redislock.Options{
		RetryStrategy: redislock.LimitRetry(redislock.LinearBackoff(200*time.Millisecond), int(s.lockTTL/(200*time.Millisecond))),
	})
	if errors.Is(err, redislock.ErrNotObtained) {
		return fmt.Errorf("redisbus: lock %s ocupado: %w", key, err)
	}
	if err != nil {
		return fmt.Errorf("redisbus: obtener lock %s: %w", key, err)
	}
	defer func() {
		if err := lock.Release(context.WithoutCancel(ctx)); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
			s.log.Warn().Err(err).Str("key", key).Msg("liberar lock")
		}
	}()
	return s.handler.HandleMaxOfferChanged(ctx, ev)
}
