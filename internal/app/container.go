// Package app arma los casos de uso sobre un backend de almacenamiento concreto.
package app

import (
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/pharma-ledger/internal/application/audit"
	"github.com/jhoicas/pharma-ledger/internal/application/billing"
	"github.com/jhoicas/pharma-ledger/internal/application/cart"
	"github.com/jhoicas/pharma-ledger/internal/application/events"
	"github.com/jhoicas/pharma-ledger/internal/application/inventory"
	"github.com/jhoicas/pharma-ledger/internal/application/ledger"
	"github.com/jhoicas/pharma-ledger/internal/application/offers"
	"github.com/jhoicas/pharma-ledger/internal/application/ports"
	"github.com/jhoicas/pharma-ledger/internal/application/reconcile"
	"github.com/jhoicas/pharma-ledger/internal/application/usecase"
	"github.com/jhoicas/pharma-ledger/internal/domain/repository"
	"github.com/jhoicas/pharma-ledger/internal/infrastructure/excel"
	"github.com/jhoicas/pharma-ledger/internal/infrastructure/memory"
	"github.com/jhoicas/pharma-ledger/internal/infrastructure/notify"
	infrapdf "github.com/jhoicas/pharma-ledger/internal/infrastructure/pdf"
	"github.com/jhoicas/pharma-ledger/internal/infrastructure/postgres"
	httpRouter "github.com/jhoicas/pharma-ledger/internal/interfaces/http"
	"github.com/jhoicas/pharma-ledger/pkg/config"
	"github.com/jhoicas/pharma-ledger/pkg/logger"
)

// Backend almacenamiento sobre el que corren los casos de uso.
type Backend struct {
	Tx            repository.TxRunner
	Repos         repository.Repositories // fuera de transacción, para lecturas
	Carts         repository.CartItemRepository
	Notifications repository.NotificationRepository
}

// MemoryBackend backend en memoria (desarrollo y tests).
func MemoryBackend(s *memory.Store) Backend {
	return Backend{
		Tx:            s,
		Repos:         s.Repositories(),
		Carts:         s.CartItems(),
		Notifications: s.Notifications(),
	}
}

// PostgresBackend backend sobre un pool de PostgreSQL.
func PostgresBackend(pool *pgxpool.Pool) Backend {
	return Backend{
		Tx:            postgres.NewTxRunner(pool),
		Repos:         postgres.NewRepositories(pool),
		Carts:         postgres.NewCartItemRepository(pool),
		Notifications: postgres.NewNotificationRepository(pool),
	}
}

// Options parámetros de armado.
type Options struct {
	Ledger config.LedgerConfig
	Issuer string
	// Publisher destino de MaxOfferChanged. Nil entrega al Repricer en el mismo proceso.
	Publisher ports.EventPublisher
	Log       *logger.Logger
}

// Container casos de uso listos para los adaptadores de entrada.
type Container struct {
	Products *usecase.ProductUseCase
	Stock    *inventory.UseCase
	Offers   *offers.UseCase
	Invoices *billing.InvoiceUseCase
	PDF      *billing.PDFUseCase
	Accounts *ledger.AccountUseCase
	Payments *ledger.PaymentUseCase
	Audit    *audit.UseCase
	Cart     *cart.UseCase
	Repricer *cart.Repricer
	Notifier *notify.Sink
	Checker  *reconcile.Checker

	log *logger.Logger
}

// New construye el contenedor.
func New(b Backend, opts Options) *Container {
	log := opts.Log
	if log == nil {
		log = logger.Nop()
	}
	pageSize := opts.Ledger.CartPageSize
	repricer := cart.NewRepricer(b.Carts, b.Repos.Offers, pageSize, log)
	notifier := notify.NewSink(b.Notifications, log)

	pub := opts.Publisher
	if pub == nil {
		pub = events.DirectPublisher{Handler: repricer}
	}
	dispatcher := events.NewDispatcher(pub, notifier, log)

	allocator := offers.NewAllocator()
	book := ledger.NewLedger()

	return &Container{
		Products: usecase.NewProductUseCase(b.Repos.Products),
		Stock:    inventory.NewUseCase(b.Repos.StockLots),
		Offers:   offers.NewUseCase(b.Tx, b.Repos.Offers, allocator, dispatcher, opts.Ledger.ProfitPercentage, log),
		Invoices: billing.NewInvoiceUseCase(b.Tx, b.Repos, allocator, inventory.NewSynchronizer(), book, dispatcher, log),
		PDF: billing.NewPDFUseCase(b.Repos.Invoices, b.Repos.Items, b.Repos.Products,
			infrapdf.NewMarotoPDFGenerator(opts.Issuer)),
		Accounts: ledger.NewAccountUseCase(b.Tx, b.Repos, book),
		Payments: ledger.NewPaymentUseCase(b.Tx, b.Repos.Payments, book, dispatcher),
		Audit:    audit.NewUseCase(b.Repos.DeletedItems, excel.NewDeletedItemsExporter()),
		Cart:     cart.NewUseCase(b.Carts, b.Repos.Offers),
		Repricer: repricer,
		Notifier: notifier,
		Checker:  reconcile.NewChecker(b.Repos),
		log:      log,
	}
}

// RouterDeps dependencias HTTP del contenedor.
func (c *Container) RouterDeps(jwtSecret string) httpRouter.RouterDeps {
	return httpRouter.RouterDeps{
		ProductUC:     c.Products,
		StockUC:       c.Stock,
		OfferUC:       c.Offers,
		InvoiceUC:     c.Invoices,
		PDFUC:         c.PDF,
		AccountUC:     c.Accounts,
		PaymentUC:     c.Payments,
		AuditUC:       c.Audit,
		CartUC:        c.Cart,
		Notifications: c.Notifier,
		Checker:       c.Checker,
		JWTSecret:     jwtSecret,
		Log:           c.log,
	}
}
