package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/pharma-ledger/internal/application/dto"
	"github.com/jhoicas/pharma-ledger/internal/domain"
	"github.com/jhoicas/pharma-ledger/pkg/logger"
)

const localLogger = "logger"

// withLogger deja el logger en el contexto de la petición para writeError.
func withLogger(log *logger.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals(localLogger, log)
		return c.Next()
	}
}

func requestLogger(c *fiber.Ctx) *logger.Logger {
	if log, ok := c.Locals(localLogger).(*logger.Logger); ok && log != nil {
		return log
	}
	return logger.Nop()
}

// writeError traduce errores de dominio a respuestas HTTP con código estable.
// Los errores estructurados viajan en Details para que el cliente muestre el detalle.
func writeError(c *fiber.Ctx, err error) error {
	var (
		verr     *domain.ValidationError
		batch    *domain.BatchError
		inv      *domain.InsufficientInventoryError
		stock    *domain.InsufficientStockError
		offerQty *domain.InsufficientOfferQuantityError
		pending  *domain.PendingItemsError
		cpClosed *domain.CounterpartClosedError
		dup      *domain.DuplicateTransactionError
	)
	switch {
	case errors.As(err, &verr):
		return respond(c, fiber.StatusBadRequest, "VALIDATION", err.Error(), verr.Fields)
	case errors.As(err, &batch):
		return respond(c, fiber.StatusUnprocessableEntity, "BATCH_REJECTED", err.Error(), batch.Details())
	case errors.As(err, &inv):
		return respond(c, fiber.StatusConflict, "INSUFFICIENT_INVENTORY", err.Error(), inv)
	case errors.As(err, &stock):
		return respond(c, fiber.StatusConflict, "INSUFFICIENT_STOCK", err.Error(), stock)
	case errors.As(err, &offerQty):
		return respond(c, fiber.StatusConflict, "INSUFFICIENT_OFFER_QUANTITY", err.Error(), offerQty)
	case errors.As(err, &pending):
		return respond(c, fiber.StatusConflict, "PENDING_ITEMS", err.Error(), pending)
	case errors.As(err, &cpClosed):
		return respond(c, fiber.StatusConflict, "COUNTERPART_CLOSED", err.Error(), cpClosed)
	case errors.As(err, &dup):
		return respond(c, fiber.StatusConflict, "DUPLICATE_TRANSACTION", err.Error(), dup)
	case errors.Is(err, domain.ErrNotFound):
		return respond(c, fiber.StatusNotFound, "NOT_FOUND", err.Error(), nil)
	case errors.Is(err, domain.ErrForbidden):
		return respond(c, fiber.StatusForbidden, "FORBIDDEN", "acceso denegado al recurso", nil)
	case errors.Is(err, domain.ErrUnauthorized):
		return respond(c, fiber.StatusUnauthorized, "UNAUTHORIZED", "token inválido", nil)
	case errors.Is(err, domain.ErrInvoiceClosed):
		return respond(c, fiber.StatusConflict, "INVOICE_CLOSED", err.Error(), nil)
	case errors.Is(err, domain.ErrInsufficientStock):
		return respond(c, fiber.StatusConflict, "INSUFFICIENT_STOCK", err.Error(), nil)
	case errors.Is(err, domain.ErrDuplicate):
		return respond(c, fiber.StatusConflict, "DUPLICATE", err.Error(), nil)
	case errors.Is(err, domain.ErrConflict):
		return respond(c, fiber.StatusConflict, "CONFLICT", err.Error(), nil)
	case errors.Is(err, domain.ErrInvalidInput):
		return respond(c, fiber.StatusBadRequest, "VALIDATION", err.Error(), nil)
	}
	// Los errores de infraestructura no salen al cliente: solo al log.
	requestLogger(c).Error().Err(err).
		Str("method", c.Method()).
		Str("path", c.Path()).
		Str("user_id", GetUserID(c)).
		Msg("error interno en la petición")
	return respond(c, fiber.StatusInternalServerError, "INTERNAL", "error interno", nil)
}

func respond(c *fiber.Ctx, status int, code, msg string, details any) error {
	return c.Status(status).JSON(dto.ErrorResponse{Code: code, Message: msg, Details: details})
}

func badBody(c *fiber.Ctx) error {
	return respond(c, fiber.StatusBadRequest, "INVALID_BODY", "cuerpo inválido", nil)
}
