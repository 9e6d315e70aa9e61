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

var _ repository.TransactionRepository = (*TransactionRepo)(nil)

const transactionColumns = `id, account_id, type, amount, document_kind, document_id, at, created_at, updated_at`

// TransactionRepo asientos del libro. La unicidad (documento, tipo) la garantiza un índice único.
type TransactionRepo struct {
	q Querier
}

// NewTransactionRepository construye el adaptador. Pasar pool o tx (Querier).
func NewTransactionRepository(q Querier) *TransactionRepo {
	return &TransactionRepo{q: q}
}

// Create persiste un asiento; si ya existe uno para (documento, tipo) devuelve DuplicateTransactionError.
func (r *TransactionRepo) Create(ctx context.Context, t *entity.AccountTransaction) error {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	query := `INSERT INTO account_transactions (` + transactionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.q.Exec(ctx, query,
		t.ID, t.AccountID, string(t.Type), t.Amount, string(t.Document.Kind), t.Document.ID,
		t.At, t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return &domain.DuplicateTransactionError{
				DocumentKind: string(t.Document.Kind), DocumentID: t.Document.ID, Type: string(t.Type),
			}
		}
		return fmt.Errorf("insert account transaction: %w", err)
	}
	return nil
}

// Update reescribe monto y fecha del asiento.
func (r *TransactionRepo) Update(ctx context.Context, t *entity.AccountTransaction) error {
	tag, err := r.q.Exec(ctx,
		`UPDATE account_transactions SET amount = $2, at = $3, updated_at = $4 WHERE id = $1`,
		t.ID, t.Amount, t.At, t.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update account transaction: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: transacción %s", domain.ErrNotFound, t.ID)
	}
	return nil
}

// Delete elimina el asiento.
func (r *TransactionRepo) Delete(ctx context.Context, id string) error {
	if _, err := r.q.Exec(ctx, `DELETE FROM account_transactions WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete account transaction: %w", err)
	}
	return nil
}

// GetByDocument busca el asiento vivo de (documento, tipo).
func (r *TransactionRepo) GetByDocument(ctx context.Context, ref entity.DocumentRef, typ entity.TransactionType) (*entity.AccountTransaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM account_transactions
		WHERE document_kind = $1 AND document_id = $2 AND type = $3`
	t, err := scanTransaction(r.q.QueryRow(ctx, query, string(ref.Kind), ref.ID, string(typ)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get account transaction: %w", err)
	}
	return t, nil
}

// ListByAccount asientos de la cuenta en orden de registro.
func (r *TransactionRepo) ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]*entity.AccountTransaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM account_transactions
		WHERE account_id = $1 ORDER BY seq LIMIT $2 OFFSET $3`
	rows, err := r.q.Query(ctx, query, accountID, limitOrAll(limit), offset)
	if err != nil {
		return nil, fmt.Errorf("list account transactions: %w", err)
	}
	defer rows.Close()
	var list []*entity.AccountTransaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan account transaction: %w", err)
		}
		list = append(list, t)
	}
	return list, rows.Err()
}

func scanTransaction(row pgx.Row) (*entity.AccountTransaction, error) {
	var t entity.AccountTransaction
	var typ, docKind string
	err := row.Scan(&t.ID, &t.AccountID, &typ, &t.Amount, &docKind, &t.Document.ID, &t.At, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	t.Type = entity.TransactionType(typ)
	t.Document.Kind = entity.DocumentKind(docKind)
	return &t, nil
}
