// Package memory implementa los repositorios sobre un estado en memoria con transacciones
// de copia y reemplazo. Se usa en desarrollo sin base de datos y en los tests de casos de uso.
package memory

import (
	"context"
	"sync"

	"github.com/jhoicas/pharma-ledger/internal/domain/entity"
	"github.com/jhoicas/pharma-ledger/internal/domain/repository"
)

type state struct {
	products      map[string]entity.Product
	offers        map[string]entity.Offer
	invoices      map[string]entity.Invoice
	items         map[string]entity.InvoiceItem
	deleted       []entity.DeletedItem
	accounts      map[string]entity.Account
	txs           map[string]entity.AccountTransaction
	payments      map[string]entity.Payment
	lots          map[string]entity.StockLot
	carts         map[string]entity.CartItem
	notifications []entity.Notification
	seq           map[string]int64 // orden de inserción por id
	next          int64
}

func newState() *state {
	return &state{
		products: map[string]entity.Product{},
		offers:   map[string]entity.Offer{},
		invoices: map[string]entity.Invoice{},
		items:    map[string]entity.InvoiceItem{},
		accounts: map[string]entity.Account{},
		txs:      map[string]entity.AccountTransaction{},
		payments: map[string]entity.Payment{},
		lots:     map[string]entity.StockLot{},
		carts:    map[string]entity.CartItem{},
		seq:      map[string]int64{},
	}
}

func cloneMap[V any](m map[string]V) map[string]V {
	out := make(map[string]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (s *state) clone() *state {
	return &state{
		products:      cloneMap(s.products),
		offers:        cloneMap(s.offers),
		invoices:      cloneMap(s.invoices),
		items:         cloneMap(s.items),
		deleted:       append([]entity.DeletedItem(nil), s.deleted...),
		accounts:      cloneMap(s.accounts),
		txs:           cloneMap(s.txs),
		payments:      cloneMap(s.payments),
		lots:          cloneMap(s.lots),
		carts:         cloneMap(s.carts),
		notifications: append([]entity.Notification(nil), s.notifications...),
		seq:           cloneMap(s.seq),
		next:          s.next,
	}
}

func (s *state) stamp(id string) {
	if _, ok := s.seq[id]; ok {
		return
	}
	s.next++
	s.seq[id] = s.next
}

// view da acceso al estado: dentro de una transacción sin bloqueo adicional, fuera de ella bajo el mutex.
type view interface {
	with(fn func(st *state) error) error
}

type txView struct{ st *state }

func (v txView) with(fn func(st *state) error) error { return fn(v.st) }

type storeView struct{ s *Store }

func (v storeView) with(fn func(st *state) error) error {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	return fn(v.s.data)
}

// Store almacenamiento en memoria. Las transacciones se serializan: el mutex hace el papel
// de los bloqueos de fila y el estado se reemplaza completo solo si fn termina sin error.
type Store struct {
	mu   sync.Mutex
	data *state
}

// NewStore crea un almacenamiento vacío.
func NewStore() *Store {
	return &Store{data: newState()}
}

// Run implementa repository.TxRunner.
func (s *Store) Run(ctx context.Context, fn func(r repository.Repositories) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.data.clone()
	if err := fn(reposFor(txView{st: work})); err != nil {
		return err
	}
	s.data = work
	return nil
}

// Repositories repositorios fuera de transacción (lecturas y escrituras autónomas).
// No deben usarse dentro de Run.
func (s *Store) Repositories() repository.Repositories {
	return reposFor(storeView{s: s})
}

// CartItems repositorio del carrito.
func (s *Store) CartItems() repository.CartItemRepository {
	return &cartRepo{v: storeView{s: s}}
}

// Notifications repositorio de avisos.
func (s *Store) Notifications() repository.NotificationRepository {
	return &notificationRepo{v: storeView{s: s}}
}

func reposFor(v view) repository.Repositories {
	return repository.Repositories{
		Products:     &productRepo{v: v},
		Offers:       &offerRepo{v: v},
		Invoices:     &invoiceRepo{v: v},
		Items:        &itemRepo{v: v},
		DeletedItems: &deletedRepo{v: v},
		Accounts:     &accountRepo{v: v},
		Transactions: &transactionRepo{v: v},
		Payments:     &paymentRepo{v: v},
		StockLots:    &lotRepo{v: v},
	}
}

var _ repository.TxRunner = (*Store)(nil)
