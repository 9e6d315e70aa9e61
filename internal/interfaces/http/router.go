package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/pharma-ledger/internal/application/audit"
	"github.com/jhoicas/pharma-ledger/internal/application/billing"
	"github.com/jhoicas/pharma-ledger/internal/application/cart"
	"github.com/jhoicas/pharma-ledger/internal/application/inventory"
	"github.com/jhoicas/pharma-ledger/internal/application/ledger"
	"github.com/jhoicas/pharma-ledger/internal/application/offers"
	"github.com/jhoicas/pharma-ledger/internal/application/reconcile"
	"github.com/jhoicas/pharma-ledger/internal/application/usecase"
	"github.com/jhoicas/pharma-ledger/pkg/jwt"
	"github.com/jhoicas/pharma-ledger/pkg/logger"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	ProductUC     *usecase.ProductUseCase
	StockUC       *inventory.UseCase
	OfferUC       *offers.UseCase
	InvoiceUC     *billing.InvoiceUseCase
	PDFUC         *billing.PDFUseCase
	AccountUC     *ledger.AccountUseCase
	PaymentUC     *ledger.PaymentUseCase
	AuditUC       *audit.UseCase
	CartUC        *cart.UseCase
	Notifications notificationLister
	Checker       *reconcile.Checker
	JWTSecret     string
	Log           *logger.Logger // nil descarta los errores internos
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	log := deps.Log
	if log == nil {
		log = logger.Nop()
	}
	app.Use(withLogger(log.WithComponent("http")))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api")

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))
	admin := RequireRole(jwt.RoleAdmin)

	// Products
	products := protected.Group("/products")
	productHandler := NewProductHandler(deps.ProductUC, deps.StockUC)
	offerHandler := NewOfferHandler(deps.OfferUC)
	products.Post("/", admin, productHandler.Create)
	products.Get("/:id", productHandler.GetByID)
	products.Get("/:id/stock", productHandler.Stock)
	products.Get("/:id/offers", offerHandler.ListByProduct)
	products.Post("/:id/offers/recompute", admin, offerHandler.RecomputeMax)

	// Offers (vendedor o administrador)
	offersGroup := protected.Group("/offers")
	sellers := RequireRole(jwt.RoleSeller, jwt.RoleAdmin)
	offersGroup.Post("/", sellers, offerHandler.Create)
	offersGroup.Patch("/:id", sellers, offerHandler.Update)
	offersGroup.Get("/:id", offerHandler.GetByID)

	// Invoices: alta y consulta para el dueño; transiciones de ciclo de vida solo admin
	invoices := protected.Group("/invoices")
	invoiceHandler := NewInvoiceHandler(deps.InvoiceUC, deps.PDFUC)
	invoices.Post("/", invoiceHandler.Create)
	invoices.Get("/", invoiceHandler.List)
	invoices.Get("/:id", invoiceHandler.GetByID)
	invoices.Get("/:id/pdf", invoiceHandler.DownloadPDF)
	invoices.Post("/:id/items", RequireInvoiceOwner(deps.InvoiceUC), invoiceHandler.AddItems)
	invoices.Post("/:id/close", admin, invoiceHandler.Close)
	invoices.Post("/:id/reopen", admin, invoiceHandler.Reopen)
	invoices.Post("/:id/lock", admin, invoiceHandler.Lock)
	invoices.Post("/:id/unlock", admin, invoiceHandler.Unlock)

	// Invoice items (admin)
	items := protected.Group("/invoice-items", admin)
	itemHandler := NewItemHandler(deps.InvoiceUC)
	items.Patch("/status", itemHandler.BatchStatus)
	items.Get("/:id", itemHandler.GetByID)
	items.Patch("/:id/status", itemHandler.UpdateStatus)
	items.Patch("/:id/quantity", itemHandler.ReduceQuantity)
	items.Delete("/:id", itemHandler.Delete)

	// Ledger
	ledgerHandler := NewLedgerHandler(deps.AccountUC, deps.PaymentUC)
	accounts := protected.Group("/accounts")
	accounts.Get("/:user_id", ledgerHandler.GetAccount)
	accounts.Get("/:user_id/transactions", ledgerHandler.Transactions)
	accounts.Get("/:user_id/payments", ledgerHandler.ListPayments)
	accounts.Put("/:user_id/credit-limit", admin, ledgerHandler.SetCreditLimit)
	accounts.Put("/:user_id/initial-balance", admin, ledgerHandler.SetInitialBalance)

	payments := protected.Group("/payments")
	payments.Post("/", admin, ledgerHandler.CreatePayment)
	payments.Get("/:id", ledgerHandler.GetPayment)
	payments.Patch("/:id", admin, ledgerHandler.UpdatePayment)
	payments.Delete("/:id", admin, ledgerHandler.DeletePayment)

	// Audit (admin)
	auditHandler := NewAuditHandler(deps.AuditUC)
	deleted := protected.Group("/deleted-items", admin)
	deleted.Get("/", auditHandler.List)
	deleted.Get("/export", auditHandler.Export)

	// Cart y avisos (farmacia)
	cartHandler := NewCartHandler(deps.CartUC, deps.Notifications)
	protected.Post("/cart", RequireRole(jwt.RolePharmacy, jwt.RoleAdmin), cartHandler.Add)
	protected.Get("/notifications", cartHandler.Notifications)

	// Mantenimiento (admin)
	adminHandler := NewAdminHandler(deps.Checker, deps.OfferUC)
	maintenance := protected.Group("/admin", admin)
	maintenance.Get("/reconcile", adminHandler.Reconcile)
	maintenance.Post("/offers/recompute", adminHandler.RecomputeAll)
}
