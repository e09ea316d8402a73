package http

import (
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/invoiceaz/billing-api/internal/application/billing"
	"github.com/invoiceaz/billing-api/internal/application/dto"
	"github.com/invoiceaz/billing-api/internal/domain/entity"
)

// InvoiceHandler maneja las facturas del negocio activo (protegido).
type InvoiceHandler struct {
	invoiceUC   *billing.InvoiceUseCase
	lifecycleUC *billing.LifecycleUseCase
	paymentUC   *billing.PaymentUseCase
}

// NewInvoiceHandler construye el handler.
func NewInvoiceHandler(invoiceUC *billing.InvoiceUseCase, lifecycleUC *billing.LifecycleUseCase, paymentUC *billing.PaymentUseCase) *InvoiceHandler {
	return &InvoiceHandler{invoiceUC: invoiceUC, lifecycleUC: lifecycleUC, paymentUC: paymentUC}
}

// Create crea una factura en borrador.
// POST /api/invoices
func (h *InvoiceHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateInvoiceRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	out, err := h.invoiceUC.Create(c.Context(), GetActor(c), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// GetByID obtiene la factura completa con líneas y pagos.
// GET /api/invoices/:id
func (h *InvoiceHandler) GetByID(c *fiber.Ctx) error {
	out, err := h.invoiceUC.Get(c.Context(), GetActor(c), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// List lista facturas, opcionalmente filtradas por estado (?status=draft).
// GET /api/invoices
func (h *InvoiceHandler) List(c *fiber.Ctx) error {
	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "paginación inválida"})
	}
	out, err := h.invoiceUC.List(c.Context(), GetActor(c), c.Query("status"), page)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// Update edita una factura; solo los borradores son editables.
// PUT /api/invoices/:id
func (h *InvoiceHandler) Update(c *fiber.Ctx) error {
	var in dto.UpdateInvoiceRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	out, err := h.invoiceUC.Update(c.Context(), GetActor(c), c.Params("id"), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// Delete elimina una factura sin pagos.
// DELETE /api/invoices/:id
func (h *InvoiceHandler) Delete(c *fiber.Ctx) error {
	if err := h.invoiceUC.Delete(c.Context(), GetActor(c), c.Params("id")); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Duplicate copia una factura a un borrador nuevo con número propio.
// POST /api/invoices/:id/duplicate
func (h *InvoiceHandler) Duplicate(c *fiber.Ctx) error {
	out, err := h.invoiceUC.Duplicate(c.Context(), GetActor(c), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// Transition aplica un cambio de estado explícito.
// POST /api/invoices/:id/transition
func (h *InvoiceHandler) Transition(c *fiber.Ctx) error {
	var in dto.TransitionInvoiceRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	inv, err := h.lifecycleUC.Transition(c.Context(), GetActor(c), c.Params("id"), in.Status)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(statusResponse(inv))
}

// Send entrega la factura al cliente por correo y la marca como enviada.
// POST /api/invoices/:id/send
func (h *InvoiceHandler) Send(c *fiber.Ctx) error {
	inv, err := h.lifecycleUC.Send(c.Context(), GetActor(c), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(statusResponse(inv))
}

// MarkSent marca la factura como enviada sin entrega (canal externo).
// POST /api/invoices/:id/mark-sent
func (h *InvoiceHandler) MarkSent(c *fiber.Ctx) error {
	inv, err := h.lifecycleUC.MarkSent(c.Context(), GetActor(c), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(statusResponse(inv))
}

// PDF descarga la representación gráfica de la factura.
// GET /api/invoices/:id/pdf
func (h *InvoiceHandler) PDF(c *fiber.Ctx) error {
	pdf, err := h.lifecycleUC.PDF(c.Context(), GetActor(c), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s.pdf"`, c.Params("id")))
	return c.Send(pdf)
}

// ApplyPayment registra un pago contra la factura.
// POST /api/invoices/:id/payments
func (h *InvoiceHandler) ApplyPayment(c *fiber.Ctx) error {
	var in dto.ApplyPaymentRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	out, err := h.paymentUC.Apply(c.Context(), GetActor(c), c.Params("id"), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// ListPayments lista los pagos de la factura.
// GET /api/invoices/:id/payments
func (h *InvoiceHandler) ListPayments(c *fiber.Ctx) error {
	out, err := h.paymentUC.List(c.Context(), GetActor(c), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// statusResponse resume una factura tras una transición de estado.
func statusResponse(inv *entity.Invoice) fiber.Map {
	return fiber.Map{
		"id":        inv.ID,
		"number":    inv.Number,
		"status":    inv.Status,
		"sent_at":   inv.SentAt,
		"viewed_at": inv.ViewedAt,
		"paid_at":   inv.PaidAt,
	}
}
