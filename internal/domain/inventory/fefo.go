package inventory

import (
	"sort"

	"github.com/jhoicas/pharma-ledger/internal/domain"
	"github.com/jhoicas/pharma-ledger/internal/domain/entity"
)

// SortFEFO ordena los lotes: primero el que vence antes (sin vencimiento al final), luego el más antiguo.
func SortFEFO(lots []*entity.StockLot) {
	sort.SliceStable(lots, func(i, j int) bool {
		a, b := lots[i], lots[j]
		switch {
		case a.ProductExpiryDate == nil && b.ProductExpiryDate != nil:
			return false
		case a.ProductExpiryDate != nil && b.ProductExpiryDate == nil:
			return true
		case a.ProductExpiryDate != nil && !a.ProductExpiryDate.Equal(*b.ProductExpiryDate):
			return a.ProductExpiryDate.Before(*b.ProductExpiryDate)
		}
		return a.ReceivedAt.Before(b.ReceivedAt)
	})
}

// Available suma las unidades restantes de los lotes.
func Available(lots []*entity.StockLot) int {
	total := 0
	for _, l := range lots {
		total += l.RemainingQuantity
	}
	return total
}

// Consumption unidades tomadas de un lote.
type Consumption struct {
	Lot      *entity.StockLot
	Quantity int
}

// PlanDeduction reparte quantity entre los lotes en orden FEFO y descuenta RemainingQuantity en memoria.
// Si no alcanza devuelve InsufficientStockError sin tocar los lotes.
func PlanDeduction(productID string, lots []*entity.StockLot, quantity int) ([]Consumption, error) {
	if avail := Available(lots); avail < quantity {
		return nil, &domain.InsufficientStockError{ProductID: productID, Requested: quantity, Available: avail}
	}
	ordered := make([]*entity.StockLot, len(lots))
	copy(ordered, lots)
	SortFEFO(ordered)

	var plan []Consumption
	left := quantity
	for _, l := range ordered {
		if left == 0 {
			break
		}
		if l.RemainingQuantity == 0 {
			continue
		}
		take := l.RemainingQuantity
		if take > left {
			take = left
		}
		l.RemainingQuantity -= take
		left -= take
		plan = append(plan, Consumption{Lot: l, Quantity: take})
	}
	return plan, nil
}
