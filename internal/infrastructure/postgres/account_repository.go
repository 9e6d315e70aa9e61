package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/pharma-ledger/internal/domain"
	"github.com/jhoicas/pharma-ledger/internal/domain/entity"
	"github.com/jhoicas/pharma-ledger/internal/domain/repository"
)

var _ repository.AccountRepository = (*AccountRepo)(nil)

const accountColumns = `id, user_id, balance, credit_limit, remaining_credit, created_at, updated_at`

// AccountRepo implementación de AccountRepository (usable con pool o tx).
type AccountRepo struct {
	q Querier
}

// NewAccountRepository construye el adaptador. Pasar pool o tx (Querier).
func NewAccountRepository(q Querier) *AccountRepo {
	return &AccountRepo{q: q}
}

// Create persiste la cuenta de un usuario. Un usuario tiene a lo sumo una cuenta.
func (r *AccountRepo) Create(ctx context.Context, a *entity.Account) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	query := `INSERT INTO accounts (` + accountColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.q.Exec(ctx, query,
		a.ID, a.UserID, a.Balance, a.CreditLimit, a.RemainingCredit, a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert account: %w", err)
	}
	return nil
}

// Update reescribe saldo y crédito.
func (r *AccountRepo) Update(ctx context.Context, a *entity.Account) error {
	query := `
		UPDATE accounts
		SET balance = $2, credit_limit = $3, remaining_credit = $4, updated_at = $5
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, query, a.ID, a.Balance, a.CreditLimit, a.RemainingCredit, a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update account: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: cuenta %s", domain.ErrNotFound, a.ID)
	}
	return nil
}

// GetByID obtiene una cuenta por ID.
func (r *AccountRepo) GetByID(ctx context.Context, id string) (*entity.Account, error) {
	return r.getOne(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id)
}

// GetByUserID obtiene la cuenta del usuario.
func (r *AccountRepo) GetByUserID(ctx context.Context, userID string) (*entity.Account, error) {
	return r.getOne(ctx, `SELECT `+accountColumns+` FROM accounts WHERE user_id = $1`, userID)
}

// GetByUserIDForUpdate obtiene la cuenta del usuario bloqueando la fila.
func (r *AccountRepo) GetByUserIDForUpdate(ctx context.Context, userID string) (*entity.Account, error) {
	return r.getOne(ctx, `SELECT `+accountColumns+` FROM accounts WHERE user_id = $1 FOR UPDATE`, userID)
}

func (r *AccountRepo) getOne(ctx context.Context, query string, args ...any) (*entity.Account, error) {
	a, err := scanAccount(r.q.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get account: %w", err)
	}
	return a, nil
}

// List lista cuentas en orden de creación.
func (r *AccountRepo) List(ctx context.Context, limit, offset int) ([]*entity.Account, error) {
	rows, err := r.q.Query(ctx,
		`SELECT `+accountColumns+` FROM accounts ORDER BY seq LIMIT $1 OFFSET $2`,
		limitOrAll(limit), offset,
	)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()
	var list []*entity.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		list = append(list, a)
	}
	return list, rows.Err()
}

func scanAccount(row pgx.Row) (*entity.Account, error) {
	var a entity.Account
	if err := row.Scan(&a.ID, &a.UserID, &a.Balance, &a.CreditLimit, &a.RemainingCredit, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, err
	}
	return &a, nil
}
