package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/pharma-ledger/internal/application/dto"
	"github.com/jhoicas/pharma-ledger/internal/application/ledger"
	"github.com/jhoicas/pharma-ledger/internal/domain"
)

// LedgerHandler cuentas, asientos y pagos.
type LedgerHandler struct {
	accounts *ledger.AccountUseCase
	payments *ledger.PaymentUseCase
}

// NewLedgerHandler construye el handler.
func NewLedgerHandler(accounts *ledger.AccountUseCase, payments *ledger.PaymentUseCase) *LedgerHandler {
	return &LedgerHandler{accounts: accounts, payments: payments}
}

// GetAccount godoc
// @Summary      Saldo y crédito de un usuario
// @Tags         ledger
// @Security     Bearer
// @Produce      json
// @Param        user_id  path  string  true  "ID del usuario"
// @Success      200  {object}  dto.AccountResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Router       /api/accounts/{user_id} [get]
func (h *LedgerHandler) GetAccount(c *fiber.Ctx) error {
	userID := c.Params("user_id")
	if !canAccess(c, userID) {
		return writeError(c, domain.ErrForbidden)
	}
	out, err := h.accounts.GetAccount(c.Context(), userID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Transactions GET /api/accounts/:user_id/transactions
func (h *LedgerHandler) Transactions(c *fiber.Ctx) error {
	userID := c.Params("user_id")
	if !canAccess(c, userID) {
		return writeError(c, domain.ErrForbidden)
	}
	out, err := h.accounts.ListTransactions(c.Context(), userID, pageQuery(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// SetCreditLimit PUT /api/accounts/:user_id/credit-limit
func (h *LedgerHandler) SetCreditLimit(c *fiber.Ctx) error {
	var in dto.SetCreditLimitRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.accounts.SetCreditLimit(c.Context(), c.Params("user_id"), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// SetInitialBalance PUT /api/accounts/:user_id/initial-balance
func (h *LedgerHandler) SetInitialBalance(c *fiber.Ctx) error {
	var in dto.InitialBalanceRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.accounts.SetInitialBalance(c.Context(), c.Params("user_id"), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// CreatePayment godoc
// @Summary      Registrar pago
// @Tags         ledger
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreatePaymentRequest  true  "Pago"
// @Success      201   {object}  dto.PaymentResult
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/payments [post]
func (h *LedgerHandler) CreatePayment(c *fiber.Ctx) error {
	var in dto.CreatePaymentRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.payments.PostPayment(c.Context(), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// UpdatePayment PATCH /api/payments/:id
func (h *LedgerHandler) UpdatePayment(c *fiber.Ctx) error {
	var in dto.UpdatePaymentRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.payments.UpdatePayment(c.Context(), c.Params("id"), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// DeletePayment DELETE /api/payments/:id
func (h *LedgerHandler) DeletePayment(c *fiber.Ctx) error {
	out, err := h.payments.DeletePayment(c.Context(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// GetPayment GET /api/payments/:id
func (h *LedgerHandler) GetPayment(c *fiber.Ctx) error {
	out, err := h.payments.GetPayment(c.Context(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	if !canAccess(c, out.UserID) {
		return writeError(c, domain.ErrForbidden)
	}
	return c.JSON(out)
}

// ListPayments GET /api/accounts/:user_id/payments
func (h *LedgerHandler) ListPayments(c *fiber.Ctx) error {
	userID := c.Params("user_id")
	if !canAccess(c, userID) {
		return writeError(c, domain.ErrForbidden)
	}
	page := pageQuery(c)
	out, err := h.payments.ListPayments(c.Context(), userID, page)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"items": out, "page": dto.PageResponse{Limit: page.Limit, Offset: page.Offset}})
}
