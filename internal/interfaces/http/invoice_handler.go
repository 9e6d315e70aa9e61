package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/pharma-ledger/internal/application/billing"
	"github.com/jhoicas/pharma-ledger/internal/application/dto"
	"github.com/jhoicas/pharma-ledger/internal/domain"
)

// InvoiceHandler maneja el ciclo de vida de las facturas (protegido).
type InvoiceHandler struct {
	uc  *billing.InvoiceUseCase
	pdf *billing.PDFUseCase
}

// NewInvoiceHandler construye el handler. pdf puede ser nil.
func NewInvoiceHandler(uc *billing.InvoiceUseCase, pdf *billing.PDFUseCase) *InvoiceHandler {
	return &InvoiceHandler{uc: uc, pdf: pdf}
}

// Create godoc
// @Summary      Crear factura de compra, venta o devolución
// @Tags         invoices
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateInvoiceRequest  true  "Tipo e ítems"
// @Success      201   {object}  dto.InvoiceResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/invoices [post]
func (h *InvoiceHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateInvoiceRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.uc.CreateInvoice(c.Context(), GetUserID(c), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// AddItems agrega líneas a una factura abierta. La ruta va detrás de RequireInvoiceOwner.
// POST /api/invoices/:id/items
func (h *InvoiceHandler) AddItems(c *fiber.Ctx) error {
	var in dto.AddItemsRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.uc.AddItems(c.Context(), c.Params("id"), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// GetByID obtiene la factura con sus ítems.
// GET /api/invoices/:id
func (h *InvoiceHandler) GetByID(c *fiber.Ctx) error {
	out, err := h.uc.GetInvoice(c.Context(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	if !canAccess(c, out.UserID) {
		return writeError(c, domain.ErrForbidden)
	}
	return c.JSON(out)
}

// List lista las facturas del usuario; un administrador puede filtrar por ?user_id=.
// GET /api/invoices
func (h *InvoiceHandler) List(c *fiber.Ctx) error {
	in := dto.InvoiceListRequest{
		PageRequest: pageQuery(c),
		Kind:        c.Query("kind"),
		Status:      c.Query("status"),
	}
	userID := GetUserID(c)
	if IsAdmin(c) {
		userID = c.Query("user_id")
	}
	out, err := h.uc.ListInvoices(c.Context(), userID, in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Close cierra la factura: descuenta o repone inventario y registra el efecto contable.
// POST /api/invoices/:id/close
func (h *InvoiceHandler) Close(c *fiber.Ctx) error {
	var in dto.CloseInvoiceRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&in); err != nil {
			return badBody(c)
		}
	}
	out, err := h.uc.CloseInvoice(c.Context(), c.Params("id"), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Reopen reabre una factura cerrada y revierte su asiento.
// POST /api/invoices/:id/reopen
func (h *InvoiceHandler) Reopen(c *fiber.Ctx) error {
	out, err := h.uc.ReopenInvoice(c.Context(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Lock pasa una compra a LOCKED.
// POST /api/invoices/:id/lock
func (h *InvoiceHandler) Lock(c *fiber.Ctx) error {
	out, err := h.uc.LockInvoice(c.Context(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Unlock devuelve una compra a PLACED.
// POST /api/invoices/:id/unlock
func (h *InvoiceHandler) Unlock(c *fiber.Ctx) error {
	out, err := h.uc.UnlockInvoice(c.Context(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// DownloadPDF devuelve el comprobante en PDF.
// GET /api/invoices/:id/pdf
func (h *InvoiceHandler) DownloadPDF(c *fiber.Ctx) error {
	if h.pdf == nil {
		return respond(c, fiber.StatusNotImplemented, "PDF_DISABLED", "generación de PDF no configurada", nil)
	}
	userID := GetUserID(c)
	if IsAdmin(c) {
		userID = ""
	}
	data, filename, err := h.pdf.DownloadInvoicePDF(c.Context(), userID, c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	return c.Send(data)
}

// pageQuery lee ?limit= y ?offset=.
func pageQuery(c *fiber.Ctx) dto.PageRequest {
	p := dto.PageRequest{Limit: c.QueryInt("limit", 0), Offset: c.QueryInt("offset", 0)}
	p.DefaultPage()
	return p
}
