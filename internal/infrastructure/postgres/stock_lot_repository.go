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

var _ repository.StockLotRepository = (*StockLotRepo)(nil)

const lotColumns = `id, product_id, source_item_id, product_expiry_date, operating_number,
	purchase_discount_percentage, purchase_price, selling_discount_percentage, selling_price,
	quantity, remaining_quantity, received_at`

// StockLotRepo implementación de StockLotRepository (usable con pool o tx).
type StockLotRepo struct {
	q Querier
}

// NewStockLotRepository construye el adaptador. Pasar pool o tx (Querier).
func NewStockLotRepository(q Querier) *StockLotRepo {
	return &StockLotRepo{q: q}
}

// Create persiste un lote recibido.
func (r *StockLotRepo) Create(ctx context.Context, l *entity.StockLot) error {
	if l.ID == "" {
		l.ID = uuid.New().String()
	}
	query := `INSERT INTO stock_lots (` + lotColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	_, err := r.q.Exec(ctx, query,
		l.ID, l.ProductID, l.SourceItemID, l.ProductExpiryDate, l.OperatingNumber,
		l.PurchaseDiscountPercentage, l.PurchasePrice, l.SellingDiscountPercentage, l.SellingPrice,
		l.Quantity, l.RemainingQuantity, l.ReceivedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert stock lot: %w", err)
	}
	return nil
}

// Update reescribe las cantidades del lote.
func (r *StockLotRepo) Update(ctx context.Context, l *entity.StockLot) error {
	tag, err := r.q.Exec(ctx,
		`UPDATE stock_lots SET quantity = $2, remaining_quantity = $3 WHERE id = $1`,
		l.ID, l.Quantity, l.RemainingQuantity,
	)
	if err != nil {
		return fmt.Errorf("update stock lot: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: lote %s", domain.ErrNotFound, l.ID)
	}
	return nil
}

// Delete elimina el lote.
func (r *StockLotRepo) Delete(ctx context.Context, id string) error {
	if _, err := r.q.Exec(ctx, `DELETE FROM stock_lots WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete stock lot: %w", err)
	}
	return nil
}

// ListByProductForUpdate bloquea en orden de id los lotes del producto con unidades restantes.
func (r *StockLotRepo) ListByProductForUpdate(ctx context.Context, productID string) ([]*entity.StockLot, error) {
	query := `SELECT ` + lotColumns + ` FROM stock_lots
		WHERE product_id = $1 AND remaining_quantity > 0
		ORDER BY id FOR UPDATE`
	rows, err := r.q.Query(ctx, query, productID)
	if err != nil {
		return nil, fmt.Errorf("list stock lots: %w", err)
	}
	defer rows.Close()
	var list []*entity.StockLot
	for rows.Next() {
		l, err := scanLot(rows)
		if err != nil {
			return nil, fmt.Errorf("scan stock lot: %w", err)
		}
		list = append(list, l)
	}
	return list, rows.Err()
}

// SumAvailable unidades disponibles del producto.
func (r *StockLotRepo) SumAvailable(ctx context.Context, productID string) (int, error) {
	var total int
	err := r.q.QueryRow(ctx,
		`SELECT COALESCE(SUM(remaining_quantity), 0)::int FROM stock_lots WHERE product_id = $1`, productID,
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("sum stock: %w", err)
	}
	return total, nil
}

// GetBySourceItem lote originado por el ítem dado.
func (r *StockLotRepo) GetBySourceItem(ctx context.Context, itemID string) (*entity.StockLot, error) {
	l, err := scanLot(r.q.QueryRow(ctx, `SELECT `+lotColumns+` FROM stock_lots WHERE source_item_id = $1 LIMIT 1`, itemID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get stock lot: %w", err)
	}
	return l, nil
}

func scanLot(row pgx.Row) (*entity.StockLot, error) {
	var l entity.StockLot
	err := row.Scan(
		&l.ID, &l.ProductID, &l.SourceItemID, &l.ProductExpiryDate, &l.OperatingNumber,
		&l.PurchaseDiscountPercentage, &l.PurchasePrice, &l.SellingDiscountPercentage, &l.SellingPrice,
		&l.Quantity, &l.RemainingQuantity, &l.ReceivedAt,
	)
	if err != nil {
		return nil, err
	}
	return &l, nil
}
