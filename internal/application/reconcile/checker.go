// Package reconcile verifica sobre los datos guardados los invariantes entre ofertas, facturas y cuentas.
package reconcile

import (
	"context"
	"fmt"

	"github.com/jhoicas/pharma-ledger/internal/application/ledger"
	"github.com/jhoicas/pharma-ledger/internal/domain/entity"
	"github.com/jhoicas/pharma-ledger/internal/domain/offer"
	"github.com/jhoicas/pharma-ledger/internal/domain/repository"
)

const pageSize = 200

// Issue inconsistencia encontrada.
type Issue struct {
	Kind    string `json:"kind"`
	ID      string `json:"id"`
	Message string `json:"message"`
}

// Report resultado de una verificación.
type Report struct {
	Invoices int     `json:"invoices"`
	Products int     `json:"products"`
	Accounts int     `json:"accounts"`
	Issues   []Issue `json:"issues"`
}

// OK indica si no se encontró ninguna inconsistencia.
func (r *Report) OK() bool { return len(r.Issues) == 0 }

func (r *Report) add(kind, id, format string, args ...any) {
	r.Issues = append(r.Issues, Issue{Kind: kind, ID: id, Message: fmt.Sprintf(format, args...)})
}

// Checker recorre los datos en modo solo lectura.
type Checker struct {
	repos repository.Repositories
}

// NewChecker construye el verificador con repositorios fuera de transacción.
func NewChecker(repos repository.Repositories) *Checker {
	return &Checker{repos: repos}
}

// Run ejecuta todas las verificaciones.
func (c *Checker) Run(ctx context.Context) (*Report, error) {
	rep := &Report{}
	if err := c.checkInvoices(ctx, rep); err != nil {
		return nil, err
	}
	if err := c.checkOffers(ctx, rep); err != nil {
		return nil, err
	}
	if err := c.checkAccounts(ctx, rep); err != nil {
		return nil, err
	}
	return rep, nil
}

func (c *Checker) checkInvoices(ctx context.Context, rep *Report) error {
	for offset := 0; ; offset += pageSize {
		page, err := c.repos.Invoices.List(ctx, repository.InvoiceFilter{Limit: pageSize, Offset: offset})
		if err != nil {
			return fmt.Errorf("reconcile: listar facturas: %w", err)
		}
		for _, inv := range page {
			rep.Invoices++
			items, err := c.repos.Items.ListByInvoice(ctx, inv.ID)
			if err != nil {
				return fmt.Errorf("reconcile: listar ítems: %w", err)
			}
			t := entity.SumItems(items)
			if t.ItemsCount != inv.ItemsCount || t.TotalQuantity != inv.TotalQuantity || !t.TotalPrice.Equal(inv.TotalPrice) {
				rep.add("invoice_totals", inv.ID,
					"cabecera (%d ítems, %d uds, %s) ≠ ítems (%d ítems, %d uds, %s)",
					inv.ItemsCount, inv.TotalQuantity, inv.TotalPrice.StringFixed(2),
					t.ItemsCount, t.TotalQuantity, t.TotalPrice.StringFixed(2))
			}
			for _, it := range items {
				if !it.SubTotal.Equal(entity.LineTotal(it.UnitPrice(inv.Kind), it.Quantity)) {
					rep.add("item_subtotal", it.ID, "subtotal %s no corresponde a %d × precio", it.SubTotal.StringFixed(2), it.Quantity)
				}
			}
		}
		if len(page) < pageSize {
			return nil
		}
	}
}

func (c *Checker) checkOffers(ctx context.Context, rep *Report) error {
	ids, err := c.repos.Offers.ListProductIDs(ctx)
	if err != nil {
		return fmt.Errorf("reconcile: listar productos: %w", err)
	}
	for _, pid := range ids {
		rep.Products++
		list, err := c.repos.Offers.ListByProduct(ctx, pid)
		if err != nil {
			return fmt.Errorf("reconcile: listar ofertas: %w", err)
		}
		maxCount := 0
		for _, o := range list {
			if o.RemainingAmount < 0 || o.RemainingAmount > o.AvailableAmount {
				rep.add("offer_bounds", o.ID, "remaining %d fuera de [0, %d]", o.RemainingAmount, o.AvailableAmount)
			}
			if o.IsMax {
				maxCount++
				if !o.Live() {
					rep.add("offer_max", o.ID, "marcada como mejor oferta sin unidades")
				}
			}
		}
		best := offer.SelectMax(list)
		switch {
		case best == nil && maxCount > 0:
			rep.add("offer_max", pid, "producto sin ofertas vivas con %d marcadas como mejor", maxCount)
		case best != nil && (maxCount != 1 || !best.IsMax):
			rep.add("offer_max", pid, "se esperaba la oferta %s como única mejor (%d marcadas)", best.ID, maxCount)
		}
	}
	return nil
}

func (c *Checker) checkAccounts(ctx context.Context, rep *Report) error {
	for offset := 0; ; offset += pageSize {
		page, err := c.repos.Accounts.List(ctx, pageSize, offset)
		if err != nil {
			return fmt.Errorf("reconcile: listar cuentas: %w", err)
		}
		for _, acc := range page {
			rep.Accounts++
			if acc.CreditLimit != nil {
				want := acc.CreditLimit.Sub(acc.Balance)
				if acc.RemainingCredit == nil || !acc.RemainingCredit.Equal(want) {
					rep.add("remaining_credit", acc.ID, "crédito restante distinto de %s", want.StringFixed(2))
				}
			} else if acc.RemainingCredit != nil {
				rep.add("remaining_credit", acc.ID, "crédito restante sin límite de crédito")
			}

			var txs []*entity.AccountTransaction
			for txOffset := 0; ; txOffset += pageSize {
				tp, err := c.repos.Transactions.ListByAccount(ctx, acc.ID, pageSize, txOffset)
				if err != nil {
					return fmt.Errorf("reconcile: listar transacciones: %w", err)
				}
				txs = append(txs, tp...)
				if len(tp) < pageSize {
					break
				}
			}
			seen := map[string]bool{}
			for _, t := range txs {
				key := t.Document.String() + "/" + string(t.Type)
				if seen[key] {
					rep.add("duplicate_transaction", t.ID, "más de una transacción para %s", key)
				}
				seen[key] = true
			}
			sum, err := ledger.SignedSum(txs)
			if err != nil {
				return err
			}
			if !sum.Equal(acc.Balance) {
				rep.add("balance", acc.ID, "saldo %s ≠ suma de transacciones %s", acc.Balance.StringFixed(2), sum.StringFixed(2))
			}
		}
		if len(page) < pageSize {
			return nil
		}
	}
}
