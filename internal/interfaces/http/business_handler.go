package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/invoiceaz/billing-api/internal/application/dto"
	"github.com/invoiceaz/billing-api/internal/application/usecase"
)

// BusinessHandler maneja los negocios del usuario. Crear, listar y cambiar
// de negocio operan sobre la identidad del token; el resto requiere el
// negocio activo resuelto (X-Business-ID).
type BusinessHandler struct {
	uc *usecase.BusinessUseCase
}

// NewBusinessHandler construye el handler.
func NewBusinessHandler(uc *usecase.BusinessUseCase) *BusinessHandler {
	return &BusinessHandler{uc: uc}
}

// Create crea un negocio; el caller queda como OWNER.
// POST /api/businesses
func (h *BusinessHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateBusinessRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	out, err := h.uc.Create(c.Context(), GetUserID(c), GetUserPlan(c), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// List devuelve los negocios donde el usuario tiene membresía.
// GET /api/businesses
func (h *BusinessHandler) List(c *fiber.Ctx) error {
	out, err := h.uc.List(c.Context(), GetUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// Get devuelve el negocio activo.
// GET /api/businesses/current
func (h *BusinessHandler) Get(c *fiber.Ctx) error {
	out, err := h.uc.Get(c.Context(), GetActor(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// Update edita la configuración del negocio activo.
// PUT /api/businesses/current
func (h *BusinessHandler) Update(c *fiber.Ctx) error {
	var in dto.UpdateBusinessRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	out, err := h.uc.Update(c.Context(), GetActor(c), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// Delete elimina el negocio activo con todo lo que contiene.
// DELETE /api/businesses/current
func (h *BusinessHandler) Delete(c *fiber.Ctx) error {
	if err := h.uc.Delete(c.Context(), GetActor(c)); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Switch cambia el negocio activo de la sesión.
// POST /api/businesses/:id/switch
func (h *BusinessHandler) Switch(c *fiber.Ctx) error {
	toBusinessID := c.Params("id")
	if toBusinessID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "id requerido"})
	}
	// El negocio anterior (si viene) permite invalidar su caché de sesión.
	fromBusinessID := c.Get(HeaderBusinessID)
	out, err := h.uc.Switch(c.Context(), GetUserID(c), fromBusinessID, toBusinessID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}
