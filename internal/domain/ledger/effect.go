// Package ledger contiene la tabla de signos y el cálculo puro del efecto contable
// de un documento sobre el saldo de una cuenta.
package ledger

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/pharma-ledger/internal/domain"
	"github.com/jhoicas/pharma-ledger/internal/domain/entity"
)

// rule tipo de transacción y signo fijo de cada documento.
type rule struct {
	typ  entity.TransactionType
	sign int64
}

// Única fuente de verdad del signo contable. Positivo: el saldo del titular sube.
var rules = map[entity.DocumentKind]rule{
	entity.DocumentAccount:         {entity.TxInitialBalance, +1},
	entity.DocumentPurchaseInvoice: {entity.TxInvoice, +1},
	entity.DocumentSaleInvoice:     {entity.TxInvoice, -1},
	entity.DocumentPurchaseReturn:  {entity.TxReturn, -1},
	entity.DocumentSaleReturn:      {entity.TxReturn, +1},
	entity.DocumentPurchasePayment: {entity.TxPayment, -1},
	entity.DocumentSalePayment:     {entity.TxPayment, +1},
	entity.DocumentRefund:          {entity.TxRefund, -1},
}

// Rule devuelve el tipo de transacción y el signo de un documento.
func Rule(kind entity.DocumentKind) (entity.TransactionType, decimal.Decimal, error) {
	r, ok := rules[kind]
	if !ok {
		return "", decimal.Zero, fmt.Errorf("%w: documento contable desconocido %q", domain.ErrInvalidInput, kind)
	}
	return r.typ, decimal.NewFromInt(r.sign), nil
}

// Op intención del llamador sobre el efecto de un documento.
type Op int

const (
	// OpCreate exige que no exista transacción previa.
	OpCreate Op = iota
	// OpSettle crea o ajusta la transacción al monto actual.
	OpSettle
	// OpRemove elimina la transacción y revierte su aporte.
	OpRemove
)

// Action resultado del plan.
type Action int

const (
	ActionNone Action = iota
	ActionCreate
	ActionUpdate
	ActionDelete
)

func (a Action) String() string {
	switch a {
	case ActionCreate:
		return "create"
	case ActionUpdate:
		return "update"
	case ActionDelete:
		return "delete"
	}
	return "none"
}

// Effect qué hacer con la transacción y cuánto mover el saldo.
type Effect struct {
	Action Action
	Type   entity.TransactionType
	Amount decimal.Decimal // monto que queda registrado en la transacción
	Delta  decimal.Decimal // delta con signo a aplicar al saldo
}

// Plan calcula el efecto de un documento a partir de su transacción existente (o nil)
// y de su monto actual. No tiene efectos secundarios.
func Plan(ref entity.DocumentRef, existing *entity.AccountTransaction, amount decimal.Decimal, op Op) (Effect, error) {
	typ, sign, err := Rule(ref.Kind)
	if err != nil {
		return Effect{}, err
	}
	if amount.IsNegative() {
		return Effect{}, domain.NewValidationError("amount", "el monto no puede ser negativo")
	}
	eff := Effect{Type: typ, Delta: decimal.Zero}

	switch op {
	case OpCreate:
		if existing != nil {
			return Effect{}, &domain.DuplicateTransactionError{
				DocumentKind: string(ref.Kind), DocumentID: ref.ID, Type: string(typ),
			}
		}
		eff.Action = ActionCreate
		eff.Amount = amount
		eff.Delta = amount.Mul(sign)
	case OpSettle:
		if existing == nil {
			eff.Action = ActionCreate
			eff.Amount = amount
			eff.Delta = amount.Mul(sign)
			break
		}
		eff.Amount = amount
		if existing.Amount.Equal(amount) {
			eff.Action = ActionNone
			break
		}
		eff.Action = ActionUpdate
		eff.Delta = amount.Sub(existing.Amount).Mul(sign)
	case OpRemove:
		if existing == nil {
			eff.Action = ActionNone
			break
		}
		eff.Action = ActionDelete
		eff.Amount = existing.Amount
		eff.Delta = existing.Amount.Mul(sign).Neg()
	default:
		return Effect{}, fmt.Errorf("%w: operación contable %d", domain.ErrInvalidInput, op)
	}
	return eff, nil
}
