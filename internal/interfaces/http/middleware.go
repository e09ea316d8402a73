package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/invoiceaz/billing-api/internal/application/dto"
	"github.com/invoiceaz/billing-api/internal/application/tenant"
	"github.com/invoiceaz/billing-api/internal/domain"
	"github.com/invoiceaz/billing-api/internal/domain/entity"
	"github.com/invoiceaz/billing-api/pkg/jwt"
	"github.com/invoiceaz/billing-api/pkg/logger"
)

// Locals keys en Fiber.
const (
	LocalUserID    = "user_id"
	LocalUserEmail = "user_email"
	LocalUserPlan  = "user_plan"
	LocalActor     = "tenant_actor"
)

// HeaderBusinessID transporta el negocio activo de la sesión. El token JWT
// identifica solo al usuario; la membresía y el rol se resuelven en cada
// petición contra este header.
const HeaderBusinessID = "X-Business-ID"

// AuthMiddleware valida el Bearer Token JWT y extrae la identidad a c.Locals.
func AuthMiddleware(jwtSecret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "MISSING_TOKEN", Message: "Authorization header requerido"})
		}
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "INVALID_TOKEN", Message: "formato: Bearer <token>"})
		}
		tokenString := strings.TrimSpace(parts[1])
		if tokenString == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "MISSING_TOKEN", Message: "token vacío"})
		}
		userID, email, plan, err := jwt.Parse(jwtSecret, tokenString)
		if err != nil || userID == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "INVALID_TOKEN", Message: "token inválido o expirado"})
		}
		c.Locals(LocalUserID, userID)
		c.Locals(LocalUserEmail, email)
		c.Locals(LocalUserPlan, plan)
		return c.Next()
	}
}

// TenantMiddleware resuelve el negocio activo (X-Business-ID) a un Actor con
// membresía y rol. Sin membresía y negocio de otro tenant se presentan igual
// al caller (403), pero se registran por separado en el log interno.
func TenantMiddleware(resolver *tenant.Resolver, log *logger.Logger) fiber.Handler {
	mlog := log.Component("tenant")
	return func(c *fiber.Ctx) error {
		userID := GetUserID(c)
		businessID := c.Get(HeaderBusinessID)
		if businessID == "" {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "MISSING_BUSINESS", Message: "header X-Business-ID requerido"})
		}
		m, _, err := resolver.Resolve(userID, businessID)
		if err != nil {
			switch err {
			case domain.ErrNoMembership:
				mlog.Warn().Str("user", userID).Str("business", businessID).Msg("acceso sin membresía")
			case domain.ErrTenantMismatch:
				mlog.Warn().Str("user", userID).Str("business", businessID).Msg("acceso cruzado entre tenants")
			default:
				mlog.Error().Err(err).Msg("resolver tenant")
				return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: "error interno"})
			}
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "FORBIDDEN", Message: "acceso denegado al negocio"})
		}
		c.Locals(LocalActor, tenant.Actor{
			UserID:       userID,
			MembershipID: m.ID,
			BusinessID:   businessID,
			Role:         entity.ParseRole(string(m.Role)),
			Plan:         GetUserPlan(c),
		})
		return c.Next()
	}
}

// GetUserID devuelve el UserID del contexto (después del middleware de auth).
func GetUserID(c *fiber.Ctx) string {
	s, _ := c.Locals(LocalUserID).(string)
	return s
}

// GetUserPlan devuelve el plan del usuario autenticado.
func GetUserPlan(c *fiber.Ctx) string {
	s, _ := c.Locals(LocalUserPlan).(string)
	return s
}

// GetActor devuelve el Actor resuelto (después del middleware de tenant).
func GetActor(c *fiber.Ctx) tenant.Actor {
	a, _ := c.Locals(LocalActor).(tenant.Actor)
	return a
}
