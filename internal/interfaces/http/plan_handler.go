package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/invoiceaz/billing-api/internal/application/usecase"
)

// PlanHandler expone los límites del plan y el uso actual (protegido).
type PlanHandler struct {
	uc *usecase.PlanUseCase
}

// NewPlanHandler construye el handler.
func NewPlanHandler(uc *usecase.PlanUseCase) *PlanHandler {
	return &PlanHandler{uc: uc}
}

// Status devuelve plan, límites y consumo del negocio activo.
// GET /api/plan/status
func (h *PlanHandler) Status(c *fiber.Ctx) error {
	out, err := h.uc.Status(c.Context(), GetActor(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}
