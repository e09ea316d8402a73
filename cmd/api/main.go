package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/invoiceaz/billing-api/internal/application/auth"
	"github.com/invoiceaz/billing-api/internal/application/billing"
	"github.com/invoiceaz/billing-api/internal/application/tenant"
	"github.com/invoiceaz/billing-api/internal/application/usecase"
	infracache "github.com/invoiceaz/billing-api/internal/infrastructure/cache"
	infraemail "github.com/invoiceaz/billing-api/internal/infrastructure/email"
	"github.com/invoiceaz/billing-api/internal/infrastructure/events"
	infrapdf "github.com/invoiceaz/billing-api/internal/infrastructure/pdf"
	"github.com/invoiceaz/billing-api/internal/infrastructure/postgres"
	httpRouter "github.com/invoiceaz/billing-api/internal/interfaces/http"
	"github.com/invoiceaz/billing-api/pkg/config"
	"github.com/invoiceaz/billing-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: "info",
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Msg("iniciando aplicación")

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	userRepo := postgres.NewUserRepository(pool)
	businessRepo := postgres.NewBusinessRepository(pool)
	membershipRepo := postgres.NewMembershipRepository(pool)
	clientRepo := postgres.NewClientRepository(pool)
	productRepo := postgres.NewProductRepository(pool)
	invoiceRepo := postgres.NewInvoiceRepository(pool)
	paymentRepo := postgres.NewPaymentRepository(pool)
	expenseRepo := postgres.NewExpenseRepository(pool)
	eventRepo := postgres.NewEventRepository(pool)
	txRunner := postgres.NewTxRunner(pool)

	tenantCache := infracache.NewTenantCache()
	publisher := events.NewPublisher(eventRepo, log)
	sender := infraemail.NewResendSender(cfg.Email)
	pdfGenerator := infrapdf.NewMarotoGenerator()
	resolver := tenant.NewResolver(membershipRepo, businessRepo, tenantCache)

	authUC := auth.NewUseCase(userRepo, cfg.JWT)
	businessUC := usecase.NewBusinessUseCase(txRunner, businessRepo, membershipRepo, resolver, publisher, tenantCache)
	teamUC := usecase.NewTeamUseCase(membershipRepo, userRepo, publisher, tenantCache)
	clientUC := usecase.NewClientUseCase(clientRepo, membershipRepo, publisher, tenantCache)
	productUC := usecase.NewProductUseCase(productRepo, publisher, tenantCache)
	expenseUC := usecase.NewExpenseUseCase(expenseRepo, clientRepo, businessRepo, publisher, tenantCache)
	planUC := usecase.NewPlanUseCase(invoiceRepo, clientRepo, expenseRepo, businessRepo)

	invoiceUC := billing.NewInvoiceUseCase(txRunner, invoiceRepo, paymentRepo, clientRepo, productRepo, businessRepo, publisher, tenantCache)
	lifecycleUC := billing.NewLifecycleUseCase(txRunner, invoiceRepo, clientRepo, businessRepo, pdfGenerator, sender, publisher, tenantCache, cfg.Billing.PublicBaseURL, log)
	paymentUC := billing.NewPaymentUseCase(txRunner, invoiceRepo, paymentRepo, clientRepo, publisher, tenantCache)
	publicUC := billing.NewPublicUseCase(txRunner, invoiceRepo, clientRepo, businessRepo, pdfGenerator, publisher, tenantCache)
	overdueUC := billing.NewOverdueUseCase(txRunner, invoiceRepo, publisher, tenantCache, log)

	// Barrido periódico que materializa el estado overdue en la base
	go overdueUC.Run(ctx, cfg.Billing.OverdueInterval)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "InvoiceAZ API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		AuthUC:      authUC,
		BusinessUC:  businessUC,
		TeamUC:      teamUC,
		ClientUC:    clientUC,
		ProductUC:   productUC,
		ExpenseUC:   expenseUC,
		PlanUC:      planUC,
		InvoiceUC:   invoiceUC,
		LifecycleUC: lifecycleUC,
		PaymentUC:   paymentUC,
		PublicUC:    publicUC,
		Resolver:    resolver,
		JWTSecret:   cfg.JWT.Secret,
		Log:         log,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
