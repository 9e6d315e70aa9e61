package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/pharma-ledger/internal/application/dto"
	"github.com/jhoicas/pharma-ledger/internal/domain"
	"github.com/jhoicas/pharma-ledger/internal/domain/entity"
	dledger "github.com/jhoicas/pharma-ledger/internal/domain/ledger"
	"github.com/jhoicas/pharma-ledger/internal/domain/repository"
)

// AccountUseCase consulta de cuentas, límite de crédito y saldo inicial.
type AccountUseCase struct {
	tx     repository.TxRunner
	repos  repository.Repositories
	ledger *Ledger
}

// NewAccountUseCase construye el caso de uso. repos son los repositorios fuera de transacción.
func NewAccountUseCase(tx repository.TxRunner, repos repository.Repositories, ledger *Ledger) *AccountUseCase {
	return &AccountUseCase{tx: tx, repos: repos, ledger: ledger}
}

// GetAccount devuelve la cuenta del usuario, creándola si aún no existe.
func (uc *AccountUseCase) GetAccount(ctx context.Context, userID string) (*dto.AccountResponse, error) {
	acc, err := uc.repos.Accounts.GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("ledger: obtener cuenta: %w", err)
	}
	if acc == nil {
		err = uc.tx.Run(ctx, func(r repository.Repositories) error {
			acc, err = uc.ledger.Account(ctx, r, userID)
			return err
		})
		if err != nil {
			return nil, err
		}
	}
	return ToAccountResponse(acc), nil
}

// SetCreditLimit fija o elimina (nil) el límite de crédito y recalcula el crédito restante.
func (uc *AccountUseCase) SetCreditLimit(ctx context.Context, userID string, in dto.SetCreditLimitRequest) (*dto.AccountResponse, error) {
	if in.CreditLimit != nil && in.CreditLimit.IsNegative() {
		return nil, domain.NewValidationError("credit_limit", "no puede ser negativo")
	}
	var acc *entity.Account
	err := uc.tx.Run(ctx, func(r repository.Repositories) error {
		var err error
		acc, err = uc.ledger.Account(ctx, r, userID)
		if err != nil {
			return err
		}
		acc.SetCreditLimit(in.CreditLimit)
		acc.UpdatedAt = time.Now().UTC()
		return r.Accounts.Update(ctx, acc)
	})
	if err != nil {
		return nil, err
	}
	return ToAccountResponse(acc), nil
}

// SetInitialBalance registra o ajusta el saldo inicial. Un monto cero elimina el asiento.
func (uc *AccountUseCase) SetInitialBalance(ctx context.Context, userID string, in dto.InitialBalanceRequest) (*dto.PaymentResult, error) {
	if in.Amount.IsNegative() {
		return nil, domain.NewValidationError("amount", "no puede ser negativo")
	}
	var at time.Time
	if in.At != nil {
		at = *in.At
	}
	var res *Posting
	err := uc.tx.Run(ctx, func(r repository.Repositories) error {
		acc, err := uc.ledger.Account(ctx, r, userID)
		if err != nil {
			return err
		}
		op := dledger.OpSettle
		if in.Amount.IsZero() {
			op = dledger.OpRemove
		}
		ref := entity.DocumentRef{Kind: entity.DocumentAccount, ID: acc.ID}
		res, err = uc.ledger.Post(ctx, r, userID, ref, in.Amount, at, op)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &dto.PaymentResult{
		Transaction: ToTransactionResponse(res.Transaction),
		Account:     *ToAccountResponse(res.Account),
	}, nil
}

// ListTransactions lista los asientos de la cuenta del usuario en orden de fecha efectiva.
func (uc *AccountUseCase) ListTransactions(ctx context.Context, userID string, page dto.PageRequest) (*dto.TransactionListResponse, error) {
	page.DefaultPage()
	acc, err := uc.repos.Accounts.GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("ledger: obtener cuenta: %w", err)
	}
	out := &dto.TransactionListResponse{
		Items: []dto.TransactionResponse{},
		Page:  dto.PageResponse{Limit: page.Limit, Offset: page.Offset},
	}
	if acc == nil {
		return out, nil
	}
	list, err := uc.repos.Transactions.ListByAccount(ctx, acc.ID, page.Limit, page.Offset)
	if err != nil {
		return nil, fmt.Errorf("ledger: listar transacciones: %w", err)
	}
	for _, t := range list {
		out.Items = append(out.Items, *ToTransactionResponse(t))
	}
	return out, nil
}

// SignedSum suma con signo los asientos de una cuenta (lo que el saldo debería valer).
func SignedSum(txs []*entity.AccountTransaction) (decimal.Decimal, error) {
	sum := decimal.Zero
	for _, t := range txs {
		_, sign, err := dledger.Rule(t.Document.Kind)
		if err != nil {
			return decimal.Zero, err
		}
		sum = sum.Add(t.Amount.Mul(sign))
	}
	return sum, nil
}

// ToAccountResponse mapea la cuenta a su DTO.
func ToAccountResponse(a *entity.Account) *dto.AccountResponse {
	if a == nil {
		return nil
	}
	return &dto.AccountResponse{
		ID:              a.ID,
		UserID:          a.UserID,
		Balance:         a.Balance,
		CreditLimit:     a.CreditLimit,
		RemainingCredit: a.RemainingCredit,
		UpdatedAt:       a.UpdatedAt,
	}
}

// ToTransactionResponse mapea el asiento a su DTO.
func ToTransactionResponse(t *entity.AccountTransaction) *dto.TransactionResponse {
	if t == nil {
		return nil
	}
	return &dto.TransactionResponse{
		ID:           t.ID,
		AccountID:    t.AccountID,
		Type:         string(t.Type),
		Amount:       t.Amount,
		DocumentKind: string(t.Document.Kind),
		DocumentID:   t.Document.ID,
		At:           t.At,
	}
}
