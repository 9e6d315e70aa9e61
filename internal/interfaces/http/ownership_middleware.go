package http

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/pharma-ledger/internal/application/dto"
	"github.com/jhoicas/pharma-ledger/internal/domain"
)

// invoiceGetter es el contrato mínimo que necesita el middleware; lo implementa *billing.InvoiceUseCase.
type invoiceGetter interface {
	GetInvoice(ctx context.Context, id string) (*dto.InvoiceResponse, error)
}

// RequireInvoiceOwner devuelve un middleware Fiber que deja pasar solo al dueño de la factura
// indicada en :id o a un administrador. Debe usarse DESPUÉS de AuthMiddleware.
//
// Comportamiento:
//   - 404 Not Found → la factura no existe.
//   - 403 Forbidden → la factura es de otro usuario.
//   - 503 Service Unavailable → fallo al consultar el almacenamiento.
func RequireInvoiceOwner(invoices invoiceGetter) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if IsAdmin(c) {
			return c.Next()
		}
		userID := GetUserID(c)
		if userID == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Code:    "UNAUTHORIZED",
				Message: "user_id no encontrado en el token",
			})
		}

		inv, err := invoices.GetInvoice(c.Context(), c.Params("id"))
		if errors.Is(err, domain.ErrNotFound) {
			return writeError(c, err)
		}
		if err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(dto.ErrorResponse{
				Code:    "OWNER_CHECK_FAILED",
				Message: "no se pudo verificar la factura, intente más tarde",
			})
		}

		if inv.UserID != userID {
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
				Code:    "FORBIDDEN",
				Message: "la factura pertenece a otro usuario",
			})
		}

		return c.Next()
	}
}
