package http

import (
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/invoiceaz/billing-api/internal/application/billing"
)

// PublicHandler sirve la vista pública de facturas por share token, sin
// autenticación. Todo fallo (token inexistente, borrador, anulada) se
// presenta igual como 404 para no filtrar la existencia de facturas.
type PublicHandler struct {
	uc *billing.PublicUseCase
}

// NewPublicHandler construye el handler.
func NewPublicHandler(uc *billing.PublicUseCase) *PublicHandler {
	return &PublicHandler{uc: uc}
}

// View muestra la factura y la marca como vista la primera vez.
// GET /api/public/invoices/:token
func (h *PublicHandler) View(c *fiber.Ctx) error {
	out, err := h.uc.View(c.Context(), c.Params("token"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// Pay registra el pago en línea del saldo completo.
// POST /api/public/invoices/:token/pay
func (h *PublicHandler) Pay(c *fiber.Ctx) error {
	out, err := h.uc.Pay(c.Context(), c.Params("token"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// PDF descarga la factura desde el enlace público.
// GET /api/public/invoices/:token/pdf
func (h *PublicHandler) PDF(c *fiber.Ctx) error {
	pdf, number, err := h.uc.PDF(c.Context(), c.Params("token"))
	if err != nil {
		return respondError(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s.pdf"`, number))
	return c.Send(pdf)
}
