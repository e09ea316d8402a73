package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/invoiceaz/billing-api/internal/application/dto"
	"github.com/invoiceaz/billing-api/internal/domain"
)

// respondError mapea errores de dominio a respuestas HTTP uniformes.
// Los errores estructurados (sobrepago, límite de plan) transportan sus
// datos en la respuesta para que la UI pueda presentarlos.
func respondError(c *fiber.Ctx, err error) error {
	var overpay *domain.OverpaymentError
	if errors.As(err, &overpay) {
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{
			Code:      "OVERPAYMENT",
			Message:   err.Error(),
			Remaining: overpay.Remaining.StringFixed(2),
		})
	}
	var limit *domain.LimitExceededError
	if errors.As(err, &limit) {
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
			Code:    "PLAN_LIMIT",
			Message: err.Error(),
			Limit:   &limit.Limit,
			Current: &limit.Current,
		})
	}

	switch {
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrUserNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: err.Error()})
	case errors.Is(err, domain.ErrInvalidInput), errors.Is(err, domain.ErrInvalidAmount):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
	case errors.Is(err, domain.ErrUnauthorized):
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "credenciales inválidas"})
	case errors.Is(err, domain.ErrForbidden),
		errors.Is(err, domain.ErrNoMembership),
		errors.Is(err, domain.ErrTenantMismatch):
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "FORBIDDEN", Message: "acceso denegado"})
	case errors.Is(err, domain.ErrDuplicate):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "DUPLICATE", Message: err.Error()})
	case errors.Is(err, domain.ErrEmailAlreadyExists):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "EMAIL_EXISTS", Message: err.Error()})
	case errors.Is(err, domain.ErrInvoiceImmutable),
		errors.Is(err, domain.ErrInvalidTransition),
		errors.Is(err, domain.ErrInvoiceHasPayments),
		errors.Is(err, domain.ErrStateConflict):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "STATE_CONFLICT", Message: err.Error()})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
}
