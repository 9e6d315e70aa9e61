package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/pharma-ledger/internal/application/dto"
	"github.com/jhoicas/pharma-ledger/internal/application/offers"
)

// OfferHandler publicación y consulta de ofertas.
type OfferHandler struct {
	uc *offers.UseCase
}

// NewOfferHandler construye el handler.
func NewOfferHandler(uc *offers.UseCase) *OfferHandler {
	return &OfferHandler{uc: uc}
}

// Create godoc
// @Summary      Publicar oferta
// @Tags         offers
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateOfferRequest  true  "Datos de la oferta"
// @Success      201   {object}  dto.OfferResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/offers [post]
func (h *OfferHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateOfferRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.uc.CreateOffer(c.Context(), GetUserID(c), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// Update PATCH /api/offers/:id
func (h *OfferHandler) Update(c *fiber.Ctx) error {
	var in dto.UpdateOfferRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	userID := GetUserID(c)
	if IsAdmin(c) {
		userID = ""
	}
	out, err := h.uc.UpdateOffer(c.Context(), userID, c.Params("id"), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// GetByID GET /api/offers/:id
func (h *OfferHandler) GetByID(c *fiber.Ctx) error {
	out, err := h.uc.GetOffer(c.Context(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// ListByProduct GET /api/products/:id/offers
func (h *OfferHandler) ListByProduct(c *fiber.Ctx) error {
	out, err := h.uc.ListByProduct(c.Context(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// RecomputeMax recalcula la mejor oferta del producto.
// POST /api/products/:id/offers/recompute
func (h *OfferHandler) RecomputeMax(c *fiber.Ctx) error {
	if err := h.uc.RecomputeMax(c.Context(), c.Params("id")); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
