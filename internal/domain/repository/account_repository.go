package repository

import (
	"context"

	"github.com/jhoicas/pharma-ledger/internal/domain/entity"
)

// AccountRepository define el puerto de persistencia para Account.
type AccountRepository interface {
	Create(ctx context.Context, account *entity.Account) error
	Update(ctx context.Context, account *entity.Account) error
	GetByID(ctx context.Context, id string) (*entity.Account, error)
	GetByUserID(ctx context.Context, userID string) (*entity.Account, error)
	GetByUserIDForUpdate(ctx context.Context, userID string) (*entity.Account, error)
	List(ctx context.Context, limit, offset int) ([]*entity.Account, error)
}

// TransactionRepository define el puerto de persistencia para AccountTransaction.
// (Document, Type) es único.
type TransactionRepository interface {
	Create(ctx context.Context, tx *entity.AccountTransaction) error
	Update(ctx context.Context, tx *entity.AccountTransaction) error
	Delete(ctx context.Context, id string) error
	GetByDocument(ctx context.Context, ref entity.DocumentRef, typ entity.TransactionType) (*entity.AccountTransaction, error)
	ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]*entity.AccountTransaction, error)
}

// PaymentRepository define el puerto de persistencia para Payment.
type PaymentRepository interface {
	Create(ctx context.Context, p *entity.Payment) error
	Update(ctx context.Context, p *entity.Payment) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*entity.Payment, error)
	GetForUpdate(ctx context.Context, id string) (*entity.Payment, error)
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]*entity.Payment, error)
}
