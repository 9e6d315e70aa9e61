package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/pharma-ledger/internal/application/dto"
	"github.com/jhoicas/pharma-ledger/internal/application/events"
	"github.com/jhoicas/pharma-ledger/internal/application/validation"
	"github.com/jhoicas/pharma-ledger/internal/domain"
	"github.com/jhoicas/pharma-ledger/internal/domain/entity"
	dledger "github.com/jhoicas/pharma-ledger/internal/domain/ledger"
	"github.com/jhoicas/pharma-ledger/internal/domain/repository"
)

// PaymentUseCase alta, ajuste y baja de pagos con su asiento contable.
type PaymentUseCase struct {
	tx         repository.TxRunner
	payments   repository.PaymentRepository
	ledger     *Ledger
	dispatcher *events.Dispatcher
}

// NewPaymentUseCase construye el caso de uso.
func NewPaymentUseCase(tx repository.TxRunner, payments repository.PaymentRepository, ledger *Ledger, dispatcher *events.Dispatcher) *PaymentUseCase {
	return &PaymentUseCase{tx: tx, payments: payments, ledger: ledger, dispatcher: dispatcher}
}

// PostPayment registra un pago nuevo y su asiento.
func (uc *PaymentUseCase) PostPayment(ctx context.Context, in dto.CreatePaymentRequest) (*dto.PaymentResult, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	if !in.Amount.IsPositive() {
		return nil, domain.NewValidationError("amount", "debe ser mayor que cero")
	}
	now := time.Now().UTC()
	p := &entity.Payment{
		ID:        uuid.New().String(),
		Kind:      entity.PaymentKind(in.Kind),
		UserID:    in.UserID,
		Method:    in.Method,
		Amount:    in.Amount,
		At:        now,
		Remarks:   in.Remarks,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if in.At != nil {
		p.At = in.At.UTC()
	}

	var res *Posting
	out := &events.Outbox{}
	err := uc.tx.Run(ctx, func(r repository.Repositories) error {
		if err := r.Payments.Create(ctx, p); err != nil {
			return fmt.Errorf("ledger: crear pago: %w", err)
		}
		var err error
		res, err = uc.ledger.Post(ctx, r, p.UserID, p.Ref(), p.Amount, p.At, dledger.OpCreate)
		if err != nil {
			return err
		}
		out.Notify(p.UserID, "Pago registrado",
			fmt.Sprintf("Se registró un pago de %s (%s)", p.Amount.StringFixed(2), p.Method),
			map[string]string{"payment_id": p.ID, "kind": string(p.Kind)})
		return nil
	})
	if err != nil {
		return nil, err
	}
	uc.dispatcher.Flush(ctx, out)
	return toPaymentResult(p, res), nil
}

// UpdatePayment modifica el pago y ajusta su asiento por la diferencia.
func (uc *PaymentUseCase) UpdatePayment(ctx context.Context, id string, in dto.UpdatePaymentRequest) (*dto.PaymentResult, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	if in.Amount != nil && !in.Amount.IsPositive() {
		return nil, domain.NewValidationError("amount", "debe ser mayor que cero")
	}
	var p *entity.Payment
	var res *Posting
	err := uc.tx.Run(ctx, func(r repository.Repositories) error {
		var err error
		p, err = r.Payments.GetForUpdate(ctx, id)
		if err != nil {
			return fmt.Errorf("ledger: obtener pago: %w", err)
		}
		if p == nil {
			return fmt.Errorf("%w: pago %s", domain.ErrNotFound, id)
		}
		if in.Method != nil {
			p.Method = *in.Method
		}
		if in.Amount != nil {
			p.Amount = *in.Amount
		}
		if in.At != nil {
			p.At = in.At.UTC()
		}
		if in.Remarks != nil {
			p.Remarks = *in.Remarks
		}
		p.UpdatedAt = time.Now().UTC()
		if err := r.Payments.Update(ctx, p); err != nil {
			return fmt.Errorf("ledger: actualizar pago: %w", err)
		}
		res, err = uc.ledger.Post(ctx, r, p.UserID, p.Ref(), p.Amount, p.At, dledger.OpSettle)
		return err
	})
	if err != nil {
		return nil, err
	}
	return toPaymentResult(p, res), nil
}

// DeletePayment elimina el pago y revierte su asiento.
func (uc *PaymentUseCase) DeletePayment(ctx context.Context, id string) (*dto.PaymentResult, error) {
	var res *Posting
	err := uc.tx.Run(ctx, func(r repository.Repositories) error {
		p, err := r.Payments.GetForUpdate(ctx, id)
		if err != nil {
			return fmt.Errorf("ledger: obtener pago: %w", err)
		}
		if p == nil {
			return fmt.Errorf("%w: pago %s", domain.ErrNotFound, id)
		}
		res, err = uc.ledger.Post(ctx, r, p.UserID, p.Ref(), p.Amount, p.At, dledger.OpRemove)
		if err != nil {
			return err
		}
		if err := r.Payments.Delete(ctx, p.ID); err != nil {
			return fmt.Errorf("ledger: eliminar pago: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return toPaymentResult(nil, res), nil
}

// GetPayment obtiene un pago por ID.
func (uc *PaymentUseCase) GetPayment(ctx context.Context, id string) (*dto.PaymentResponse, error) {
	p, err := uc.payments.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("ledger: obtener pago: %w", err)
	}
	if p == nil {
		return nil, domain.ErrNotFound
	}
	return toPaymentResponse(p), nil
}

// ListPayments lista los pagos de un usuario.
func (uc *PaymentUseCase) ListPayments(ctx context.Context, userID string, page dto.PageRequest) ([]dto.PaymentResponse, error) {
	page.DefaultPage()
	list, err := uc.payments.ListByUser(ctx, userID, page.Limit, page.Offset)
	if err != nil {
		return nil, fmt.Errorf("ledger: listar pagos: %w", err)
	}
	out := make([]dto.PaymentResponse, 0, len(list))
	for _, p := range list {
		out = append(out, *toPaymentResponse(p))
	}
	return out, nil
}

func toPaymentResult(p *entity.Payment, res *Posting) *dto.PaymentResult {
	out := &dto.PaymentResult{
		Transaction: ToTransactionResponse(res.Transaction),
		Account:     *ToAccountResponse(res.Account),
	}
	if p != nil {
		out.Payment = toPaymentResponse(p)
	}
	return out
}

func toPaymentResponse(p *entity.Payment) *dto.PaymentResponse {
	return &dto.PaymentResponse{
		ID:      p.ID,
		Kind:    string(p.Kind),
		UserID:  p.UserID,
		Method:  p.Method,
		Amount:  p.Amount,
		At:      p.At,
		Remarks: p.Remarks,
	}
}
