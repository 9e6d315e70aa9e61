package http

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/pharma-ledger/internal/application/cart"
	"github.com/jhoicas/pharma-ledger/internal/application/dto"
	"github.com/jhoicas/pharma-ledger/internal/domain/entity"
)

// notificationLister lo implementa *notify.Sink.
type notificationLister interface {
	List(ctx context.Context, userID string, limit, offset int) ([]*entity.Notification, error)
}

// CartHandler carrito de la farmacia y sus avisos.
type CartHandler struct {
	uc            *cart.UseCase
	notifications notificationLister
}

// NewCartHandler construye el handler. notifications puede ser nil.
func NewCartHandler(uc *cart.UseCase, notifications notificationLister) *CartHandler {
	return &CartHandler{uc: uc, notifications: notifications}
}

// Add godoc
// @Summary      Agregar producto al carrito
// @Tags         cart
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.AddCartItemRequest  true  "Producto y cantidad"
// @Success      201   {object}  dto.CartItemResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/cart [post]
func (h *CartHandler) Add(c *fiber.Ctx) error {
	var in dto.AddCartItemRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.uc.Add(c.Context(), GetUserID(c), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// Notifications avisos del usuario autenticado, más recientes primero.
// GET /api/notifications
func (h *CartHandler) Notifications(c *fiber.Ctx) error {
	page := pageQuery(c)
	items := make([]dto.NotificationResponse, 0)
	if h.notifications != nil {
		list, err := h.notifications.List(c.Context(), GetUserID(c), page.Limit, page.Offset)
		if err != nil {
			return writeError(c, err)
		}
		for _, n := range list {
			items = append(items, dto.NotificationResponse{
				ID: n.ID, Title: n.Title, Message: n.Message, Meta: n.Meta, CreatedAt: n.CreatedAt,
			})
		}
	}
	return c.JSON(fiber.Map{"items": items, "page": dto.PageResponse{Limit: page.Limit, Offset: page.Offset}})
}
