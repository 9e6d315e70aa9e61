package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/pharma-ledger/internal/application/offers"
	"github.com/jhoicas/pharma-ledger/internal/application/reconcile"
)

// AdminHandler operaciones de mantenimiento de la plataforma.
type AdminHandler struct {
	checker *reconcile.Checker
	offers  *offers.UseCase
}

// NewAdminHandler construye el handler.
func NewAdminHandler(checker *reconcile.Checker, offersUC *offers.UseCase) *AdminHandler {
	return &AdminHandler{checker: checker, offers: offersUC}
}

// Reconcile verifica cabeceras, ofertas y saldos. Responde 409 si hay inconsistencias.
// GET /api/admin/reconcile
func (h *AdminHandler) Reconcile(c *fiber.Ctx) error {
	rep, err := h.checker.Run(c.Context())
	if err != nil {
		return writeError(c, err)
	}
	if !rep.OK() {
		return c.Status(fiber.StatusConflict).JSON(rep)
	}
	return c.JSON(rep)
}

// RecomputeAll recalcula la mejor oferta de todos los productos.
// POST /api/admin/offers/recompute
func (h *AdminHandler) RecomputeAll(c *fiber.Ctx) error {
	n, err := h.offers.RecomputeAll(c.Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"products": n})
}
