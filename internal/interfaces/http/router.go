package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/invoiceaz/billing-api/internal/application/auth"
	"github.com/invoiceaz/billing-api/internal/application/billing"
	"github.com/invoiceaz/billing-api/internal/application/tenant"
	"github.com/invoiceaz/billing-api/internal/application/usecase"
	"github.com/invoiceaz/billing-api/pkg/logger"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	AuthUC      *auth.UseCase
	BusinessUC  *usecase.BusinessUseCase
	TeamUC      *usecase.TeamUseCase
	ClientUC    *usecase.ClientUseCase
	ProductUC   *usecase.ProductUseCase
	ExpenseUC   *usecase.ExpenseUseCase
	PlanUC      *usecase.PlanUseCase
	InvoiceUC   *billing.InvoiceUseCase
	LifecycleUC *billing.LifecycleUseCase
	PaymentUC   *billing.PaymentUseCase
	PublicUC    *billing.PublicUseCase
	Resolver    *tenant.Resolver
	JWTSecret   string
	Log         *logger.Logger
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	// Auth (público)
	authGroup := api.Group("/auth")
	authHandler := NewAuthHandler(deps.AuthUC)
	authGroup.Post("/register", authHandler.Register)
	authGroup.Post("/login", authHandler.Login)

	// Vista pública por share token (sin autenticación)
	publicHandler := NewPublicHandler(deps.PublicUC)
	public := api.Group("/public/invoices")
	public.Get("/:token", publicHandler.View)
	public.Get("/:token/pdf", publicHandler.PDF)
	public.Post("/:token/pay", publicHandler.Pay)

	// Rutas con identidad (Bearer Token)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))

	// Negocios: crear/listar/cambiar no requieren negocio activo
	businessHandler := NewBusinessHandler(deps.BusinessUC)
	businesses := protected.Group("/businesses")
	businesses.Post("/", businessHandler.Create)
	businesses.Get("/", businessHandler.List)
	businesses.Post("/:id/switch", businessHandler.Switch)

	// Rutas con negocio activo (X-Business-ID resuelto a membresía + rol)
	scoped := protected.Group("/", TenantMiddleware(deps.Resolver, deps.Log))

	businessesScoped := scoped.Group("/businesses")
	businessesScoped.Get("/current", businessHandler.Get)
	businessesScoped.Put("/current", businessHandler.Update)
	businessesScoped.Delete("/current", businessHandler.Delete)

	team := scoped.Group("/team")
	teamHandler := NewTeamHandler(deps.TeamUC)
	team.Get("/", teamHandler.List)
	team.Post("/", teamHandler.Invite)
	team.Put("/:id", teamHandler.UpdateRole)
	team.Delete("/:id", teamHandler.Remove)

	clients := scoped.Group("/clients")
	clientHandler := NewClientHandler(deps.ClientUC)
	clients.Post("/", clientHandler.Create)
	clients.Get("/", clientHandler.List)
	clients.Get("/:id", clientHandler.GetByID)
	clients.Put("/:id", clientHandler.Update)
	clients.Delete("/:id", clientHandler.Delete)

	products := scoped.Group("/products")
	productHandler := NewProductHandler(deps.ProductUC)
	products.Post("/", productHandler.Create)
	products.Get("/", productHandler.List)
	products.Get("/:id", productHandler.GetByID)
	products.Put("/:id", productHandler.Update)
	products.Delete("/:id", productHandler.Delete)

	expenses := scoped.Group("/expenses")
	expenseHandler := NewExpenseHandler(deps.ExpenseUC)
	expenses.Post("/", expenseHandler.Create)
	expenses.Get("/", expenseHandler.List)
	expenses.Get("/:id", expenseHandler.GetByID)
	expenses.Put("/:id", expenseHandler.Update)
	expenses.Delete("/:id", expenseHandler.Delete)

	invoices := scoped.Group("/invoices")
	invoiceHandler := NewInvoiceHandler(deps.InvoiceUC, deps.LifecycleUC, deps.PaymentUC)
	invoices.Post("/", invoiceHandler.Create)
	invoices.Get("/", invoiceHandler.List)
	invoices.Get("/:id", invoiceHandler.GetByID)
	invoices.Put("/:id", invoiceHandler.Update)
	invoices.Delete("/:id", invoiceHandler.Delete)
	invoices.Post("/:id/duplicate", invoiceHandler.Duplicate)
	invoices.Post("/:id/transition", invoiceHandler.Transition)
	invoices.Post("/:id/send", invoiceHandler.Send)
	invoices.Post("/:id/mark-sent", invoiceHandler.MarkSent)
	invoices.Get("/:id/pdf", invoiceHandler.PDF)
	invoices.Post("/:id/payments", invoiceHandler.ApplyPayment)
	invoices.Get("/:id/payments", invoiceHandler.ListPayments)

	plan := scoped.Group("/plan")
	planHandler := NewPlanHandler(deps.PlanUC)
	plan.Get("/status", planHandler.Status)
}
