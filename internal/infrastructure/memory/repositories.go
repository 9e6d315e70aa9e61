package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/jhoicas/pharma-ledger/internal/domain"
	"github.com/jhoicas/pharma-ledger/internal/domain/entity"
	"github.com/jhoicas/pharma-ledger/internal/domain/repository"
)

func paginate[T any](list []T, limit, offset int) []T {
	if offset >= len(list) {
		return nil
	}
	list = list[offset:]
	if limit > 0 && limit < len(list) {
		list = list[:limit]
	}
	return list
}

func bySeq(st *state, ids []string) {
	sort.Slice(ids, func(i, j int) bool { return st.seq[ids[i]] < st.seq[ids[j]] })
}

// ── Product ──────────────────────────────────────────────────────────────────

type productRepo struct{ v view }

func (r *productRepo) Create(_ context.Context, p *entity.Product) error {
	return r.v.with(func(st *state) error {
		if _, ok := st.products[p.ID]; ok {
			return domain.ErrDuplicate
		}
		st.products[p.ID] = *p
		st.stamp(p.ID)
		return nil
	})
}

func (r *productRepo) GetByID(_ context.Context, id string) (*entity.Product, error) {
	var out *entity.Product
	err := r.v.with(func(st *state) error {
		if p, ok := st.products[id]; ok {
			out = &p
		}
		return nil
	})
	return out, err
}

func (r *productRepo) Names(_ context.Context, ids []string) (map[string]string, error) {
	out := make(map[string]string, len(ids))
	err := r.v.with(func(st *state) error {
		for _, id := range ids {
			if p, ok := st.products[id]; ok {
				out[id] = p.Name
			}
		}
		return nil
	})
	return out, err
}

// ── Offer ────────────────────────────────────────────────────────────────────

type offerRepo struct{ v view }

func (r *offerRepo) Create(_ context.Context, o *entity.Offer) error {
	return r.v.with(func(st *state) error {
		if _, ok := st.offers[o.ID]; ok {
			return domain.ErrDuplicate
		}
		st.offers[o.ID] = *o
		st.stamp(o.ID)
		return nil
	})
}

func (r *offerRepo) Update(_ context.Context, o *entity.Offer) error {
	return r.v.with(func(st *state) error {
		if _, ok := st.offers[o.ID]; !ok {
			return fmt.Errorf("%w: oferta %s", domain.ErrNotFound, o.ID)
		}
		st.offers[o.ID] = *o
		return nil
	})
}

func (r *offerRepo) GetByID(_ context.Context, id string) (*entity.Offer, error) {
	var out *entity.Offer
	err := r.v.with(func(st *state) error {
		if o, ok := st.offers[id]; ok {
			out = &o
		}
		return nil
	})
	return out, err
}

func (r *offerRepo) GetForUpdate(ctx context.Context, id string) (*entity.Offer, error) {
	return r.GetByID(ctx, id)
}

func (r *offerRepo) ListByProduct(_ context.Context, productID string) ([]*entity.Offer, error) {
	var out []*entity.Offer
	err := r.v.with(func(st *state) error {
		for _, o := range st.offers {
			if o.ProductID == productID {
				o := o
				out = append(out, &o)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, err
}

func (r *offerRepo) ListByProductForUpdate(ctx context.Context, productID string) ([]*entity.Offer, error) {
	return r.ListByProduct(ctx, productID)
}

func (r *offerRepo) ListProductIDs(_ context.Context) ([]string, error) {
	seen := map[string]bool{}
	var out []string
	err := r.v.with(func(st *state) error {
		for _, o := range st.offers {
			if !seen[o.ProductID] {
				seen[o.ProductID] = true
				out = append(out, o.ProductID)
			}
		}
		return nil
	})
	sort.Strings(out)
	return out, err
}

// ── Invoice ──────────────────────────────────────────────────────────────────

type invoiceRepo struct{ v view }

func (r *invoiceRepo) Create(_ context.Context, inv *entity.Invoice) error {
	return r.v.with(func(st *state) error {
		if _, ok := st.invoices[inv.ID]; ok {
			return domain.ErrDuplicate
		}
		st.invoices[inv.ID] = *inv
		st.stamp(inv.ID)
		return nil
	})
}

func (r *invoiceRepo) Update(_ context.Context, inv *entity.Invoice) error {
	return r.v.with(func(st *state) error {
		if _, ok := st.invoices[inv.ID]; !ok {
			return fmt.Errorf("%w: factura %s", domain.ErrNotFound, inv.ID)
		}
		st.invoices[inv.ID] = *inv
		return nil
	})
}

func (r *invoiceRepo) GetByID(_ context.Context, id string) (*entity.Invoice, error) {
	var out *entity.Invoice
	err := r.v.with(func(st *state) error {
		if inv, ok := st.invoices[id]; ok {
			out = &inv
		}
		return nil
	})
	return out, err
}

func (r *invoiceRepo) GetForUpdate(ctx context.Context, id string) (*entity.Invoice, error) {
	return r.GetByID(ctx, id)
}

func (r *invoiceRepo) GetOpenPurchaseForUpdate(_ context.Context, userID string) (*entity.Invoice, error) {
	var out *entity.Invoice
	err := r.v.with(func(st *state) error {
		var ids []string
		for id, inv := range st.invoices {
			if inv.UserID == userID && inv.Kind == entity.InvoiceKindPurchase && inv.Status == entity.InvoiceStatusPlaced {
				ids = append(ids, id)
			}
		}
		if len(ids) == 0 {
			return nil
		}
		bySeq(st, ids)
		inv := st.invoices[ids[0]]
		out = &inv
		return nil
	})
	return out, err
}

func (r *invoiceRepo) List(_ context.Context, f repository.InvoiceFilter) ([]*entity.Invoice, error) {
	var out []*entity.Invoice
	err := r.v.with(func(st *state) error {
		var ids []string
		for id, inv := range st.invoices {
			if f.UserID != "" && inv.UserID != f.UserID {
				continue
			}
			if f.Kind != "" && inv.Kind != f.Kind {
				continue
			}
			if f.Status != "" && inv.Status != f.Status {
				continue
			}
			ids = append(ids, id)
		}
		// más recientes primero
		sort.Slice(ids, func(i, j int) bool { return st.seq[ids[i]] > st.seq[ids[j]] })
		for _, id := range paginate(ids, f.Limit, f.Offset) {
			inv := st.invoices[id]
			out = append(out, &inv)
		}
		return nil
	})
	return out, err
}

// ── InvoiceItem ──────────────────────────────────────────────────────────────

type itemRepo struct{ v view }

func (r *itemRepo) Create(_ context.Context, it *entity.InvoiceItem) error {
	return r.v.with(func(st *state) error {
		if _, ok := st.items[it.ID]; ok {
			return domain.ErrDuplicate
		}
		st.items[it.ID] = *it
		st.stamp(it.ID)
		return nil
	})
}

func (r *itemRepo) Update(_ context.Context, it *entity.InvoiceItem) error {
	return r.v.with(func(st *state) error {
		if _, ok := st.items[it.ID]; !ok {
			return fmt.Errorf("%w: ítem %s", domain.ErrNotFound, it.ID)
		}
		st.items[it.ID] = *it
		return nil
	})
}

func (r *itemRepo) Delete(_ context.Context, id string) error {
	return r.v.with(func(st *state) error {
		delete(st.items, id)
		return nil
	})
}

func (r *itemRepo) GetByID(_ context.Context, id string) (*entity.InvoiceItem, error) {
	var out *entity.InvoiceItem
	err := r.v.with(func(st *state) error {
		if it, ok := st.items[id]; ok {
			out = &it
		}
		return nil
	})
	return out, err
}

func (r *itemRepo) GetForUpdate(ctx context.Context, id string) (*entity.InvoiceItem, error) {
	return r.GetByID(ctx, id)
}

func (r *itemRepo) ListForUpdate(_ context.Context, ids []string) ([]*entity.InvoiceItem, error) {
	var out []*entity.InvoiceItem
	err := r.v.with(func(st *state) error {
		seen := map[string]bool{}
		for _, id := range ids {
			if seen[id] {
				continue
			}
			seen[id] = true
			if it, ok := st.items[id]; ok {
				out = append(out, &it)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, err
}

func (r *itemRepo) ListByInvoice(_ context.Context, invoiceID string) ([]*entity.InvoiceItem, error) {
	var out []*entity.InvoiceItem
	err := r.v.with(func(st *state) error {
		var ids []string
		for id, it := range st.items {
			if it.InvoiceID == invoiceID {
				ids = append(ids, id)
			}
		}
		bySeq(st, ids)
		for _, id := range ids {
			it := st.items[id]
			out = append(out, &it)
		}
		return nil
	})
	return out, err
}

// ── DeletedItem ──────────────────────────────────────────────────────────────

type deletedRepo struct{ v view }

func (r *deletedRepo) Create(_ context.Context, d *entity.DeletedItem) error {
	return r.v.with(func(st *state) error {
		st.deleted = append(st.deleted, *d)
		return nil
	})
}

func (r *deletedRepo) List(_ context.Context, f repository.DeletedItemFilter) ([]*entity.DeletedItem, error) {
	var out []*entity.DeletedItem
	err := r.v.with(func(st *state) error {
		var match []*entity.DeletedItem
		for i := range st.deleted {
			d := st.deleted[i]
			if f.InvoiceID != "" && d.InvoiceID != f.InvoiceID {
				continue
			}
			if f.From != nil && d.DeletedAt.Before(*f.From) {
				continue
			}
			if f.To != nil && d.DeletedAt.After(*f.To) {
				continue
			}
			match = append(match, &d)
		}
		out = paginate(match, f.Limit, f.Offset)
		return nil
	})
	return out, err
}

// ── Account / Transaction / Payment ──────────────────────────────────────────

type accountRepo struct{ v view }

func (r *accountRepo) Create(_ context.Context, a *entity.Account) error {
	return r.v.with(func(st *state) error {
		for _, other := range st.accounts {
			if other.UserID == a.UserID {
				return fmt.Errorf("%w: cuenta del usuario %s", domain.ErrDuplicate, a.UserID)
			}
		}
		st.accounts[a.ID] = *a
		st.stamp(a.ID)
		return nil
	})
}

func (r *accountRepo) Update(_ context.Context, a *entity.Account) error {
	return r.v.with(func(st *state) error {
		if _, ok := st.accounts[a.ID]; !ok {
			return fmt.Errorf("%w: cuenta %s", domain.ErrNotFound, a.ID)
		}
		st.accounts[a.ID] = *a
		return nil
	})
}

func (r *accountRepo) GetByID(_ context.Context, id string) (*entity.Account, error) {
	var out *entity.Account
	err := r.v.with(func(st *state) error {
		if a, ok := st.accounts[id]; ok {
			out = &a
		}
		return nil
	})
	return out, err
}

func (r *accountRepo) GetByUserID(_ context.Context, userID string) (*entity.Account, error) {
	var out *entity.Account
	err := r.v.with(func(st *state) error {
		for _, a := range st.accounts {
			if a.UserID == userID {
				a := a
				out = &a
				return nil
			}
		}
		return nil
	})
	return out, err
}

func (r *accountRepo) GetByUserIDForUpdate(ctx context.Context, userID string) (*entity.Account, error) {
	return r.GetByUserID(ctx, userID)
}

func (r *accountRepo) List(_ context.Context, limit, offset int) ([]*entity.Account, error) {
	var out []*entity.Account
	err := r.v.with(func(st *state) error {
		ids := make([]string, 0, len(st.accounts))
		for id := range st.accounts {
			ids = append(ids, id)
		}
		bySeq(st, ids)
		for _, id := range paginate(ids, limit, offset) {
			a := st.accounts[id]
			out = append(out, &a)
		}
		return nil
	})
	return out, err
}

type transactionRepo struct{ v view }

func (r *transactionRepo) Create(_ context.Context, t *entity.AccountTransaction) error {
	return r.v.with(func(st *state) error {
		for _, other := range st.txs {
			if other.Document == t.Document && other.Type == t.Type {
				return &domain.DuplicateTransactionError{
					DocumentKind: string(t.Document.Kind), DocumentID: t.Document.ID, Type: string(t.Type),
				}
			}
		}
		st.txs[t.ID] = *t
		st.stamp(t.ID)
		return nil
	})
}

func (r *transactionRepo) Update(_ context.Context, t *entity.AccountTransaction) error {
	return r.v.with(func(st *state) error {
		if _, ok := st.txs[t.ID]; !ok {
			return fmt.Errorf("%w: transacción %s", domain.ErrNotFound, t.ID)
		}
		st.txs[t.ID] = *t
		return nil
	})
}

func (r *transactionRepo) Delete(_ context.Context, id string) error {
	return r.v.with(func(st *state) error {
		delete(st.txs, id)
		return nil
	})
}

func (r *transactionRepo) GetByDocument(_ context.Context, ref entity.DocumentRef, typ entity.TransactionType) (*entity.AccountTransaction, error) {
	var out *entity.AccountTransaction
	err := r.v.with(func(st *state) error {
		for _, t := range st.txs {
			if t.Document == ref && t.Type == typ {
				t := t
				out = &t
				return nil
			}
		}
		return nil
	})
	return out, err
}

func (r *transactionRepo) ListByAccount(_ context.Context, accountID string, limit, offset int) ([]*entity.AccountTransaction, error) {
	var out []*entity.AccountTransaction
	err := r.v.with(func(st *state) error {
		var ids []string
		for id, t := range st.txs {
			if t.AccountID == accountID {
				ids = append(ids, id)
			}
		}
		sort.Slice(ids, func(i, j int) bool {
			a, b := st.txs[ids[i]], st.txs[ids[j]]
			if !a.At.Equal(b.At) {
				return a.At.Before(b.At)
			}
			return st.seq[ids[i]] < st.seq[ids[j]]
		})
		for _, id := range paginate(ids, limit, offset) {
			t := st.txs[id]
			out = append(out, &t)
		}
		return nil
	})
	return out, err
}

type paymentRepo struct{ v view }

func (r *paymentRepo) Create(_ context.Context, p *entity.Payment) error {
	return r.v.with(func(st *state) error {
		if _, ok := st.payments[p.ID]; ok {
			return domain.ErrDuplicate
		}
		st.payments[p.ID] = *p
		st.stamp(p.ID)
		return nil
	})
}

func (r *paymentRepo) Update(_ context.Context, p *entity.Payment) error {
	return r.v.with(func(st *state) error {
		if _, ok := st.payments[p.ID]; !ok {
			return fmt.Errorf("%w: pago %s", domain.ErrNotFound, p.ID)
		}
		st.payments[p.ID] = *p
		return nil
	})
}

func (r *paymentRepo) Delete(_ context.Context, id string) error {
	return r.v.with(func(st *state) error {
		delete(st.payments, id)
		return nil
	})
}

func (r *paymentRepo) GetByID(_ context.Context, id string) (*entity.Payment, error) {
	var out *entity.Payment
	err := r.v.with(func(st *state) error {
		if p, ok := st.payments[id]; ok {
			out = &p
		}
		return nil
	})
	return out, err
}

func (r *paymentRepo) GetForUpdate(ctx context.Context, id string) (*entity.Payment, error) {
	return r.GetByID(ctx, id)
}

func (r *paymentRepo) ListByUser(_ context.Context, userID string, limit, offset int) ([]*entity.Payment, error) {
	var out []*entity.Payment
	err := r.v.with(func(st *state) error {
		var ids []string
		for id, p := range st.payments {
			if p.UserID == userID {
				ids = append(ids, id)
			}
		}
		bySeq(st, ids)
		for _, id := range paginate(ids, limit, offset) {
			p := st.payments[id]
			out = append(out, &p)
		}
		return nil
	})
	return out, err
}

// ── StockLot ─────────────────────────────────────────────────────────────────

type lotRepo struct{ v view }

func (r *lotRepo) Create(_ context.Context, l *entity.StockLot) error {
	return r.v.with(func(st *state) error {
		if _, ok := st.lots[l.ID]; ok {
			return domain.ErrDuplicate
		}
		st.lots[l.ID] = *l
		st.stamp(l.ID)
		return nil
	})
}

func (r *lotRepo) Update(_ context.Context, l *entity.StockLot) error {
	return r.v.with(func(st *state) error {
		if _, ok := st.lots[l.ID]; !ok {
			return fmt.Errorf("%w: lote %s", domain.ErrNotFound, l.ID)
		}
		st.lots[l.ID] = *l
		return nil
	})
}

func (r *lotRepo) Delete(_ context.Context, id string) error {
	return r.v.with(func(st *state) error {
		delete(st.lots, id)
		return nil
	})
}

func (r *lotRepo) ListByProductForUpdate(_ context.Context, productID string) ([]*entity.StockLot, error) {
	var out []*entity.StockLot
	err := r.v.with(func(st *state) error {
		var ids []string
		for id, l := range st.lots {
			if l.ProductID == productID && l.RemainingQuantity > 0 {
				ids = append(ids, id)
			}
		}
		sort.Strings(ids)
		for _, id := range ids {
			l := st.lots[id]
			out = append(out, &l)
		}
		return nil
	})
	return out, err
}

func (r *lotRepo) SumAvailable(_ context.Context, productID string) (int, error) {
	total := 0
	err := r.v.with(func(st *state) error {
		for _, l := range st.lots {
			if l.ProductID == productID {
				total += l.RemainingQuantity
			}
		}
		return nil
	})
	return total, err
}

func (r *lotRepo) GetBySourceItem(_ context.Context, itemID string) (*entity.StockLot, error) {
	var out *entity.StockLot
	err := r.v.with(func(st *state) error {
		for _, l := range st.lots {
			if l.SourceItemID != nil && *l.SourceItemID == itemID {
				l := l
				out = &l
				return nil
			}
		}
		return nil
	})
	return out, err
}

// ── CartItem / Notification ──────────────────────────────────────────────────

type cartRepo struct{ v view }

func (r *cartRepo) Create(_ context.Context, c *entity.CartItem) error {
	return r.v.with(func(st *state) error {
		if _, ok := st.carts[c.ID]; ok {
			return domain.ErrDuplicate
		}
		st.carts[c.ID] = *c
		st.stamp(c.ID)
		return nil
	})
}

func (r *cartRepo) Update(_ context.Context, c *entity.CartItem) error {
	return r.v.with(func(st *state) error {
		if _, ok := st.carts[c.ID]; !ok {
			return fmt.Errorf("%w: ítem de carrito %s", domain.ErrNotFound, c.ID)
		}
		st.carts[c.ID] = *c
		return nil
	})
}

func (r *cartRepo) ListByProduct(_ context.Context, productID, afterID string, limit int) ([]*entity.CartItem, error) {
	var out []*entity.CartItem
	err := r.v.with(func(st *state) error {
		var ids []string
		for id, c := range st.carts {
			if c.ProductID == productID && id > afterID {
				ids = append(ids, id)
			}
		}
		sort.Strings(ids)
		for _, id := range paginate(ids, limit, 0) {
			c := st.carts[id]
			out = append(out, &c)
		}
		return nil
	})
	return out, err
}

type notificationRepo struct{ v view }

func (r *notificationRepo) Create(_ context.Context, n *entity.Notification) error {
	return r.v.with(func(st *state) error {
		st.notifications = append(st.notifications, *n)
		return nil
	})
}

func (r *notificationRepo) ListByUser(_ context.Context, userID string, limit, offset int) ([]*entity.Notification, error) {
	var out []*entity.Notification
	err := r.v.with(func(st *state) error {
		var match []*entity.Notification
		for i := range st.notifications {
			n := st.notifications[i]
			if n.UserID == userID {
				match = append(match, &n)
			}
		}
		out = paginate(match, limit, offset)
		return nil
	})
	return out, err
}
