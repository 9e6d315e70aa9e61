package http

import (
	"bytes"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/pharma-ledger/internal/application/audit"
	"github.com/jhoicas/pharma-ledger/internal/application/dto"
	"github.com/jhoicas/pharma-ledger/internal/domain"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// AuditHandler consulta y exporta la bitácora de ítems eliminados o reducidos.
type AuditHandler struct {
	uc *audit.UseCase
}

// NewAuditHandler construye el handler.
func NewAuditHandler(uc *audit.UseCase) *AuditHandler {
	return &AuditHandler{uc: uc}
}

// List godoc
// @Summary      Bitácora de ítems eliminados
// @Tags         audit
// @Security     Bearer
// @Produce      json
// @Param        invoice_id  query  string  false  "Factura"
// @Param        from        query  string  false  "Desde (RFC3339)"
// @Param        to          query  string  false  "Hasta (RFC3339)"
// @Success      200  {object}  dto.DeletedItemListResponse
// @Router       /api/deleted-items [get]
func (h *AuditHandler) List(c *fiber.Ctx) error {
	q, err := deletedItemQuery(c)
	if err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.List(c.Context(), q)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Export descarga la bitácora filtrada como hoja de cálculo.
// GET /api/deleted-items/export
func (h *AuditHandler) Export(c *fiber.Ctx) error {
	q, err := deletedItemQuery(c)
	if err != nil {
		return writeError(c, err)
	}
	var buf bytes.Buffer
	if _, err := h.uc.Export(c.Context(), &buf, q); err != nil {
		return writeError(c, err)
	}
	filename := fmt.Sprintf("bitacora_%s.xlsx", time.Now().UTC().Format("20060102"))
	c.Set(fiber.HeaderContentType, xlsxContentType)
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	return c.Send(buf.Bytes())
}

func deletedItemQuery(c *fiber.Ctx) (dto.DeletedItemQuery, error) {
	q := dto.DeletedItemQuery{PageRequest: pageQuery(c), InvoiceID: c.Query("invoice_id")}
	var err error
	if q.From, err = timeQuery(c, "from"); err != nil {
		return q, err
	}
	if q.To, err = timeQuery(c, "to"); err != nil {
		return q, err
	}
	return q, nil
}

// timeQuery acepta RFC3339 o solo fecha (2006-01-02).
func timeQuery(c *fiber.Ctx, key string) (*time.Time, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, time.DateOnly} {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t, nil
		}
	}
	return nil, domain.NewValidationError(key, "fecha inválida, use RFC3339 o AAAA-MM-DD")
}
