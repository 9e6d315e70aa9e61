package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/pharma-ledger/internal/application/billing"
	"github.com/jhoicas/pharma-ledger/internal/application/dto"
)

// ItemHandler operaciones sobre ítems de factura: estados, reducción y eliminación.
type ItemHandler struct {
	uc *billing.InvoiceUseCase
}

// NewItemHandler construye el handler.
func NewItemHandler(uc *billing.InvoiceUseCase) *ItemHandler {
	return &ItemHandler{uc: uc}
}

// GetByID GET /api/invoice-items/:id
func (h *ItemHandler) GetByID(c *fiber.Ctx) error {
	out, err := h.uc.GetItem(c.Context(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// UpdateStatus cambia el estado de un ítem y lo propaga al espejo.
// PATCH /api/invoice-items/:id/status
func (h *ItemHandler) UpdateStatus(c *fiber.Ctx) error {
	var in dto.UpdateItemStateRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.uc.UpdateItemState(c.Context(), c.Params("id"), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// BatchStatus aplica varios cambios de estado de forma atómica.
// PATCH /api/invoice-items/status
func (h *ItemHandler) BatchStatus(c *fiber.Ctx) error {
	var in dto.BatchItemStateRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.uc.UpdateItemStates(c.Context(), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// ReduceQuantity PATCH /api/invoice-items/:id/quantity
func (h *ItemHandler) ReduceQuantity(c *fiber.Ctx) error {
	var in dto.ReduceQuantityRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.uc.ReduceQuantity(c.Context(), c.Params("id"), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Delete elimina el ítem y devuelve la instantánea registrada.
// DELETE /api/invoice-items/:id
func (h *ItemHandler) Delete(c *fiber.Ctx) error {
	out, err := h.uc.DeleteItem(c.Context(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}
