// Package ledger aplica el efecto contable de los documentos sobre las cuentas.
// Es el único lugar donde se modifica Account.Balance.
package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/pharma-ledger/internal/domain/entity"
	dledger "github.com/jhoicas/pharma-ledger/internal/domain/ledger"
	"github.com/jhoicas/pharma-ledger/internal/domain/repository"
)

// Ledger registra asientos dentro de la unidad de trabajo del llamador.
type Ledger struct {
	now func() time.Time
}

// NewLedger construye el libro.
func NewLedger() *Ledger {
	return &Ledger{now: func() time.Time { return time.Now().UTC() }}
}

// Posting resultado de aplicar un documento.
type Posting struct {
	Action      dledger.Action
	Transaction *entity.AccountTransaction // nil si se eliminó o no existía
	Account     *entity.Account
}

// Account obtiene la cuenta del usuario bloqueada, creándola con saldo cero si no existe.
func (l *Ledger) Account(ctx context.Context, r repository.Repositories, userID string) (*entity.Account, error) {
	acc, err := r.Accounts.GetByUserIDForUpdate(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("ledger: bloquear cuenta: %w", err)
	}
	if acc != nil {
		return acc, nil
	}
	now := l.now()
	acc = &entity.Account{
		ID:        uuid.New().String(),
		UserID:    userID,
		Balance:   decimal.Zero,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := r.Accounts.Create(ctx, acc); err != nil {
		return nil, fmt.Errorf("ledger: crear cuenta: %w", err)
	}
	return acc, nil
}

// Post aplica el efecto del documento ref con su monto actual sobre la cuenta de userID.
// at es la fecha efectiva del asiento (cero = ahora). Con OpSettle una fecha distinta
// se aplica aunque el monto no cambie.
func (l *Ledger) Post(ctx context.Context, r repository.Repositories, userID string, ref entity.DocumentRef, amount decimal.Decimal, at time.Time, op dledger.Op) (*Posting, error) {
	acc, err := l.Account(ctx, r, userID)
	if err != nil {
		return nil, err
	}
	typ, _, err := dledger.Rule(ref.Kind)
	if err != nil {
		return nil, err
	}
	existing, err := r.Transactions.GetByDocument(ctx, ref, typ)
	if err != nil {
		return nil, fmt.Errorf("ledger: buscar transacción: %w", err)
	}
	eff, err := dledger.Plan(ref, existing, amount, op)
	if err != nil {
		return nil, err
	}

	now := l.now()
	explicitAt := !at.IsZero()
	if !explicitAt {
		at = now
	}
	res := &Posting{Action: eff.Action, Account: acc, Transaction: existing}
	switch eff.Action {
	case dledger.ActionNone:
		// Mismo monto con otra fecha: el saldo no cambia pero el asiento toma la fecha nueva.
		if op == dledger.OpSettle && existing != nil && explicitAt && !existing.At.Equal(at) {
			existing.At = at
			existing.UpdatedAt = now
			if err := r.Transactions.Update(ctx, existing); err != nil {
				return nil, fmt.Errorf("ledger: actualizar transacción: %w", err)
			}
		}
	case dledger.ActionCreate:
		t := &entity.AccountTransaction{
			ID:        uuid.New().String(),
			AccountID: acc.ID,
			Type:      eff.Type,
			Amount:    eff.Amount,
			Document:  ref,
			At:        at,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := r.Transactions.Create(ctx, t); err != nil {
			return nil, fmt.Errorf("ledger: crear transacción: %w", err)
		}
		res.Transaction = t
	case dledger.ActionUpdate:
		existing.Amount = eff.Amount
		existing.At = at
		existing.UpdatedAt = now
		if err := r.Transactions.Update(ctx, existing); err != nil {
			return nil, fmt.Errorf("ledger: actualizar transacción: %w", err)
		}
	case dledger.ActionDelete:
		if err := r.Transactions.Delete(ctx, existing.ID); err != nil {
			return nil, fmt.Errorf("ledger: eliminar transacción: %w", err)
		}
		res.Transaction = nil
	}

	if !eff.Delta.IsZero() {
		acc.ApplyDelta(eff.Delta)
		acc.UpdatedAt = now
		if err := r.Accounts.Update(ctx, acc); err != nil {
			return nil, fmt.Errorf("ledger: actualizar saldo: %w", err)
		}
	}
	return res, nil
}
