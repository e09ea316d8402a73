// seed_demo puebla la base con un tenant de demostración completo:
// un usuario, su negocio, clientes, productos, facturas en varios estados
// y un par de gastos. Pensado para entornos locales y de staging.
//
// Uso: go run ./cmd/seed_demo
// Lee la configuración de las mismas variables de entorno que el API
// (DATABASE_URL o DB_HOST/DB_PORT/...). Si el email demo ya existe, aborta
// sin tocar nada.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"

	"github.com/invoiceaz/billing-api/internal/application/auth"
	"github.com/invoiceaz/billing-api/internal/application/billing"
	"github.com/invoiceaz/billing-api/internal/application/dto"
	"github.com/invoiceaz/billing-api/internal/application/tenant"
	"github.com/invoiceaz/billing-api/internal/application/usecase"
	"github.com/invoiceaz/billing-api/internal/domain"
	"github.com/invoiceaz/billing-api/internal/domain/entity"
	infracache "github.com/invoiceaz/billing-api/internal/infrastructure/cache"
	infraemail "github.com/invoiceaz/billing-api/internal/infrastructure/email"
	"github.com/invoiceaz/billing-api/internal/infrastructure/events"
	infrapdf "github.com/invoiceaz/billing-api/internal/infrastructure/pdf"
	"github.com/invoiceaz/billing-api/internal/infrastructure/postgres"
	"github.com/invoiceaz/billing-api/pkg/config"
	"github.com/invoiceaz/billing-api/pkg/logger"
)

const demoEmail = "demo@invoiceaz.com"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fail("cargar configuración", err)
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: "warn"})

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		fail("conexión a PostgreSQL", err)
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
	// Sin API key el sender queda deshabilitado; el seeder nunca envía correos.
	sender := infraemail.NewResendSender(config.EmailConfig{})
	pdfGenerator := infrapdf.NewMarotoGenerator()
	resolver := tenant.NewResolver(membershipRepo, businessRepo, tenantCache)

	authUC := auth.NewUseCase(userRepo, cfg.JWT)
	businessUC := usecase.NewBusinessUseCase(txRunner, businessRepo, membershipRepo, resolver, publisher, tenantCache)
	clientUC := usecase.NewClientUseCase(clientRepo, membershipRepo, publisher, tenantCache)
	productUC := usecase.NewProductUseCase(productRepo, publisher, tenantCache)
	expenseUC := usecase.NewExpenseUseCase(expenseRepo, clientRepo, businessRepo, publisher, tenantCache)
	invoiceUC := billing.NewInvoiceUseCase(txRunner, invoiceRepo, paymentRepo, clientRepo, productRepo, businessRepo, publisher, tenantCache)
	lifecycleUC := billing.NewLifecycleUseCase(txRunner, invoiceRepo, clientRepo, businessRepo, pdfGenerator, sender, publisher, tenantCache, cfg.Billing.PublicBaseURL, log)
	paymentUC := billing.NewPaymentUseCase(txRunner, invoiceRepo, paymentRepo, clientRepo, publisher, tenantCache)

	// 1. Usuario demo
	user, err := authUC.Register(ctx, dto.RegisterRequest{
		Email:    demoEmail,
		Password: "demo1234",
		Name:     "Ayan Mammadov",
		Phone:    "+994 50 123 45 67",
	})
	if errors.Is(err, domain.ErrEmailAlreadyExists) {
		fmt.Printf("El usuario %s ya existe; base ya poblada, nada que hacer.\n", demoEmail)
		return
	}
	if err != nil {
		fail("crear usuario demo", err)
	}

	// 2. Negocio (el creador queda como OWNER)
	active, err := businessUC.Create(ctx, user.ID, user.Plan, dto.CreateBusinessRequest{
		Name:            "Araz Consulting",
		TaxID:           "1234567890",
		Address:         "Nizami küç. 42",
		City:            "Bakú",
		Phone:           "+994 12 555 00 11",
		Email:           "facturas@araz.az",
		BankName:        "Kapital Bank",
		IBAN:            "AZ21NABZ00000000137010001944",
		Swift:           "AIIBAZ2X",
		DefaultCurrency: "AZN",
		DefaultTheme:    entity.ThemeModern,
	})
	if err != nil {
		fail("crear negocio demo", err)
	}
	actor := tenant.Actor{
		UserID:       user.ID,
		MembershipID: active.MembershipID,
		BusinessID:   active.Business.ID,
		Role:         entity.RoleOwner,
		Plan:         user.Plan,
	}

	// 3. Clientes
	clients := make([]*dto.ClientResponse, 0, 3)
	for _, in := range []dto.CreateClientRequest{
		{Name: "Caspian Media MMC", ClientType: "company", ContactPerson: "Leyla Aliyeva", Email: "leyla@caspianmedia.az", TaxID: "5001234567", Address: "28 May küç. 7, Bakú"},
		{Name: "Nurlan Hasanov", ClientType: "individual", Email: "nurlan.h@mail.az", Phone: "+994 55 987 65 43"},
		{Name: "Ganja Textiles", ClientType: "company", Email: "info@ganjatextiles.az", Notes: "Pago habitual a 30 días"},
	} {
		c, err := clientUC.Create(ctx, actor, in)
		if err != nil {
			fail("crear cliente demo", err)
		}
		clients = append(clients, c)
	}

	// 4. Productos y servicios
	products := make([]*dto.ProductResponse, 0, 4)
	for _, in := range []dto.CreateProductRequest{
		{Name: "Consultoría estratégica", SKU: "SRV-001", BasePrice: dec("120.00"), Unit: "hora"},
		{Name: "Diseño de identidad visual", SKU: "SRV-002", BasePrice: dec("850.00"), Unit: "proyecto"},
		{Name: "Mantenimiento web", SKU: "SRV-003", BasePrice: dec("200.00"), Unit: "mes"},
		{Name: "Licencia CRM", SKU: "LIC-001", BasePrice: dec("45.00"), Unit: "unidad", StockQuantity: dec("50"), MinStockLevel: dec("10")},
	} {
		p, err := productUC.Create(ctx, actor, in)
		if err != nil {
			fail("crear producto demo", err)
		}
		products = append(products, p)
	}

	today := time.Now()
	date := func(days int) string { return today.AddDate(0, 0, days).Format("2006-01-02") }

	// 5. Factura en borrador
	draft, err := invoiceUC.Create(ctx, actor, dto.CreateInvoiceRequest{
		ClientID:    clients[0].ID,
		InvoiceDate: date(0),
		DueDate:     date(30),
		Notes:       "Gracias por su confianza.",
		Terms:       "Pago a 30 días por transferencia bancaria.",
		Items: []dto.InvoiceItemRequest{
			{ProductID: products[0].ID, Quantity: dec("12"), TaxRate: dec("18")},
			{ProductID: products[2].ID, Quantity: dec("1"), TaxRate: dec("18")},
		},
	})
	if err != nil {
		fail("crear factura borrador", err)
	}

	// 6. Factura finalizada y enviada
	sent, err := invoiceUC.Create(ctx, actor, dto.CreateInvoiceRequest{
		ClientID:    clients[1].ID,
		InvoiceDate: date(-10),
		DueDate:     date(20),
		Items: []dto.InvoiceItemRequest{
			{ProductID: products[1].ID, Quantity: dec("1"), TaxRate: dec("18")},
		},
	})
	if err != nil {
		fail("crear factura enviada", err)
	}
	if _, err := lifecycleUC.Transition(ctx, actor, sent.ID, string(entity.StatusFinalized)); err != nil {
		fail("finalizar factura", err)
	}
	if _, err := lifecycleUC.MarkSent(ctx, actor, sent.ID); err != nil {
		fail("marcar factura como enviada", err)
	}

	// 7. Factura finalizada y cobrada por completo
	paid, err := invoiceUC.Create(ctx, actor, dto.CreateInvoiceRequest{
		ClientID:    clients[2].ID,
		InvoiceDate: date(-25),
		DueDate:     date(-5),
		Discount:    dec("50.00"),
		Items: []dto.InvoiceItemRequest{
			{ProductID: products[3].ID, Quantity: dec("20"), TaxRate: dec("18")},
		},
	})
	if err != nil {
		fail("crear factura cobrada", err)
	}
	if _, err := lifecycleUC.Transition(ctx, actor, paid.ID, string(entity.StatusFinalized)); err != nil {
		fail("finalizar factura cobrada", err)
	}
	full, err := invoiceUC.Get(ctx, actor, paid.ID)
	if err != nil {
		fail("recargar factura cobrada", err)
	}
	if _, err := paymentUC.Apply(ctx, actor, paid.ID, dto.ApplyPaymentRequest{
		Amount:      full.Total,
		PaymentDate: date(-3),
		Method:      entity.PaymentMethodBankTransfer,
		Reference:   "TRF-2081",
	}); err != nil {
		fail("registrar pago demo", err)
	}

	// 8. Gastos
	for _, in := range []dto.CreateExpenseRequest{
		{Description: "Alquiler de oficina", Vendor: "Port Baku Towers", Amount: dec("1500.00"), Date: date(-15), Category: "rent", Status: "paid", Method: "transfer"},
		{Description: "Suscripción herramientas de diseño", Vendor: "Adobe", Amount: dec("89.99"), Date: date(-7), Category: "software", Status: "paid", Method: "card", ClientID: clients[0].ID},
	} {
		if _, err := expenseUC.Create(ctx, actor, in); err != nil {
			fail("crear gasto demo", err)
		}
	}

	fmt.Printf("Tenant demo creado: usuario %s / demo1234, negocio %q (%s)\n", demoEmail, active.Business.Name, active.Business.ID)
	fmt.Printf("Facturas: %s (draft), %s (sent), %s (paid)\n", draft.Number, sent.Number, paid.Number)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func fail(what string, err error) {
	fmt.Fprintf(os.Stderr, "%s: %v\n", what, err)
	os.Exit(1)
}
