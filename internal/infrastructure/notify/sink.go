// Package notify persiste los avisos a usuarios y los deja en el log estructurado.
package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/pharma-ledger/internal/application/ports"
	"github.com/jhoicas/pharma-ledger/internal/domain/entity"
	"github.com/jhoicas/pharma-ledger/internal/domain/repository"
	"github.com/jhoicas/pharma-ledger/pkg/logger"
)

var _ ports.NotificationSink = (*Sink)(nil)

// Sink implementa ports.NotificationSink sobre un NotificationRepository.
type Sink struct {
	repo repository.NotificationRepository
	log  *logger.Logger
	now  func() time.Time
}

// NewSink construye el sink. repo nil solo registra en el log.
func NewSink(repo repository.NotificationRepository, log *logger.Logger) *Sink {
	if log == nil {
		log = logger.Nop()
	}
	return &Sink{repo: repo, log: log.WithComponent("notify"), now: func() time.Time { return time.Now().UTC() }}
}

// Notify guarda el aviso.
func (s *Sink) Notify(ctx context.Context, userID, title, message string, meta map[string]string) error {
	n := &entity.Notification{
		ID:        uuid.New().String(),
		UserID:    userID,
		Title:     title,
		Message:   message,
		Meta:      meta,
		CreatedAt: s.now(),
	}
	s.log.Info().Str("user_id", userID).Str("title", title).Msg(message)
	if s.repo == nil {
		return nil
	}
	if err := s.repo.Create(ctx, n); err != nil {
		return fmt.Errorf("notify: guardar aviso: %w", err)
	}
	return nil
}

// List avisos del usuario, para el endpoint de consulta.
func (s *Sink) List(ctx context.Context, userID string, limit, offset int) ([]*entity.Notification, error) {
	if s.repo == nil {
		return nil, nil
	}
	return s.repo.ListByUser(ctx, userID, limit, offset)
}
