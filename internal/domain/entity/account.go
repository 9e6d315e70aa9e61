package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Account saldo por usuario. Balance solo se modifica a través del libro (ledger).
type Account struct {
	ID              string
	UserID          string
	Balance         decimal.Decimal
	CreditLimit     *decimal.Decimal
	RemainingCredit *decimal.Decimal // CreditLimit − Balance; nil sin límite
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// RecomputeCredit deriva RemainingCredit a partir del límite y el saldo.
func (a *Account) RecomputeCredit() {
	if a.CreditLimit == nil {
		a.RemainingCredit = nil
		return
	}
	rc := a.CreditLimit.Sub(a.Balance)
	a.RemainingCredit = &rc
}

// ApplyDelta suma un delta con signo al saldo y recalcula el crédito.
func (a *Account) ApplyDelta(delta decimal.Decimal) {
	a.Balance = a.Balance.Add(delta)
	a.RecomputeCredit()
}

// SetCreditLimit cambia el límite (nil lo elimina) y recalcula el crédito.
func (a *Account) SetCreditLimit(limit *decimal.Decimal) {
	a.CreditLimit = limit
	a.RecomputeCredit()
}
