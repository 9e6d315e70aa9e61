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

var _ repository.PaymentRepository = (*PaymentRepo)(nil)

const paymentColumns = `id, kind, user_id, method, amount, at, remarks, created_at, updated_at`

// PaymentRepo implementación de PaymentRepository (usable con pool o tx).
type PaymentRepo struct {
	q Querier
}

// NewPaymentRepository construye el adaptador. Pasar pool o tx (Querier).
func NewPaymentRepository(q Querier) *PaymentRepo {
	return &PaymentRepo{q: q}
}

// Create persiste un pago.
func (r *PaymentRepo) Create(ctx context.Context, p *entity.Payment) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	query := `INSERT INTO payments (` + paymentColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.q.Exec(ctx, query,
		p.ID, string(p.Kind), p.UserID, p.Method, p.Amount, p.At, p.Remarks, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert payment: %w", err)
	}
	return nil
}

// Update reescribe monto, fecha, método y observaciones.
func (r *PaymentRepo) Update(ctx context.Context, p *entity.Payment) error {
	query := `
		UPDATE payments
		SET method = $2, amount = $3, at = $4, remarks = $5, updated_at = $6
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, query, p.ID, p.Method, p.Amount, p.At, p.Remarks, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update payment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: pago %s", domain.ErrNotFound, p.ID)
	}
	return nil
}

// Delete elimina el pago.
func (r *PaymentRepo) Delete(ctx context.Context, id string) error {
	if _, err := r.q.Exec(ctx, `DELETE FROM payments WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete payment: %w", err)
	}
	return nil
}

// GetByID obtiene un pago sin bloquearlo.
func (r *PaymentRepo) GetByID(ctx context.Context, id string) (*entity.Payment, error) {
	return r.get(ctx, id, false)
}

// GetForUpdate obtiene el pago bloqueando la fila.
func (r *PaymentRepo) GetForUpdate(ctx context.Context, id string) (*entity.Payment, error) {
	return r.get(ctx, id, true)
}

func (r *PaymentRepo) get(ctx context.Context, id string, lock bool) (*entity.Payment, error) {
	query := forUpdate(`SELECT `+paymentColumns+` FROM payments WHERE id = $1`, lock)
	p, err := scanPayment(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get payment: %w", err)
	}
	return p, nil
}

// ListByUser pagos del usuario en orden de registro.
func (r *PaymentRepo) ListByUser(ctx context.Context, userID string, limit, offset int) ([]*entity.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE user_id = $1 ORDER BY seq LIMIT $2 OFFSET $3`
	rows, err := r.q.Query(ctx, query, userID, limitOrAll(limit), offset)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	defer rows.Close()
	var list []*entity.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan payment: %w", err)
		}
		list = append(list, p)
	}
	return list, rows.Err()
}

func scanPayment(row pgx.Row) (*entity.Payment, error) {
	var p entity.Payment
	var kind string
	if err := row.Scan(&p.ID, &kind, &p.UserID, &p.Method, &p.Amount, &p.At, &p.Remarks, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	p.Kind = entity.PaymentKind(kind)
	return &p, nil
}
