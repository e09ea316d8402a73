package billing

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/invoiceaz/billing-api/internal/application/dto"
	"github.com/invoiceaz/billing-api/internal/application/tenant"
	"github.com/invoiceaz/billing-api/internal/domain/entity"
	invdomain "github.com/invoiceaz/billing-api/internal/domain/invoice"
	"github.com/invoiceaz/billing-api/internal/domain/repository"
	"github.com/invoiceaz/billing-api/pkg/logger"
)

// Dobles en memoria para los casos de uso. El fake de TxRunner serializa
// las transacciones con un mutex, igual que el bloqueo de fila serializa
// los pagos concurrentes en Postgres.

// ─── invoice repo ────────────────────────────────────────────────────────────

type fakeInvoiceRepo struct {
	mu       sync.Mutex
	invoices map[string]*entity.Invoice
	items    map[string][]*entity.InvoiceItem
}

var _ repository.InvoiceRepository = (*fakeInvoiceRepo)(nil)

func newFakeInvoiceRepo() *fakeInvoiceRepo {
	return &fakeInvoiceRepo{
		invoices: make(map[string]*entity.Invoice),
		items:    make(map[string][]*entity.InvoiceItem),
	}
}

func (r *fakeInvoiceRepo) Create(inv *entity.Invoice) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *inv
	r.invoices[inv.ID] = &cp
	return nil
}

func (r *fakeInvoiceRepo) CreateItem(item *entity.InvoiceItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *item
	r.items[item.InvoiceID] = append(r.items[item.InvoiceID], &cp)
	return nil
}

func (r *fakeInvoiceRepo) Update(inv *entity.Invoice) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *inv
	r.invoices[inv.ID] = &cp
	return nil
}

func (r *fakeInvoiceRepo) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.invoices, id)
	return nil
}

func (r *fakeInvoiceRepo) DeleteItems(invoiceID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.items, invoiceID)
	return nil
}

func (r *fakeInvoiceRepo) GetByID(id string) (*entity.Invoice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	inv, ok := r.invoices[id]
	if !ok {
		return nil, nil
	}
	cp := *inv
	return &cp, nil
}

func (r *fakeInvoiceRepo) GetByIDForUpdate(id string) (*entity.Invoice, error) {
	return r.GetByID(id)
}

func (r *fakeInvoiceRepo) GetByShareToken(token string) (*entity.Invoice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, inv := range r.invoices {
		if inv.ShareToken == token {
			cp := *inv
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeInvoiceRepo) ListItems(invoiceID string) ([]*entity.InvoiceItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*entity.InvoiceItem, 0, len(r.items[invoiceID]))
	for _, it := range r.items[invoiceID] {
		cp := *it
		out = append(out, &cp)
	}
	return out, nil
}

func (r *fakeInvoiceRepo) ListByBusiness(businessID string, status entity.InvoiceStatus, limit, offset int) ([]*entity.Invoice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.Invoice
	for _, inv := range r.invoices {
		if inv.BusinessID != businessID {
			continue
		}
		if status != "" && inv.Status != status {
			continue
		}
		cp := *inv
		out = append(out, &cp)
	}
	return out, nil
}

func (r *fakeInvoiceRepo) ListCreatedBy(businessID, membershipID string, limit, offset int) ([]*entity.Invoice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.Invoice
	for _, inv := range r.invoices {
		if inv.BusinessID == businessID && inv.CreatedBy == membershipID {
			cp := *inv
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeInvoiceRepo) LastNumber(businessID string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	last := ""
	for _, inv := range r.invoices {
		if inv.BusinessID == businessID && inv.Number > last {
			last = inv.Number
		}
	}
	return last, nil
}

func (r *fakeInvoiceRepo) CountByBusiness(businessID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, inv := range r.invoices {
		if inv.BusinessID == businessID {
			n++
		}
	}
	return n, nil
}

func (r *fakeInvoiceRepo) CountCreatedInMonth(businessID string, year int, month time.Month) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, inv := range r.invoices {
		if inv.BusinessID == businessID && inv.CreatedAt.Year() == year && inv.CreatedAt.Month() == month {
			n++
		}
	}
	return n, nil
}

func (r *fakeInvoiceRepo) ListOverdueCandidates(now time.Time, limit int) ([]*entity.Invoice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.Invoice
	for _, inv := range r.invoices {
		if !invdomain.OverdueCandidate(inv.Status) || !inv.DueDate.Before(now) {
			continue
		}
		cp := *inv
		out = append(out, &cp)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

// ─── payment repo ────────────────────────────────────────────────────────────

type fakePaymentRepo struct {
	mu       sync.Mutex
	payments map[string][]*entity.Payment
}

var _ repository.PaymentRepository = (*fakePaymentRepo)(nil)

func newFakePaymentRepo() *fakePaymentRepo {
	return &fakePaymentRepo{payments: make(map[string][]*entity.Payment)}
}

func (r *fakePaymentRepo) Create(p *entity.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *p
	r.payments[p.InvoiceID] = append(r.payments[p.InvoiceID], &cp)
	return nil
}

func (r *fakePaymentRepo) ListByInvoice(invoiceID string) ([]*entity.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*entity.Payment, 0, len(r.payments[invoiceID]))
	for _, p := range r.payments[invoiceID] {
		cp := *p
		out = append(out, &cp)
	}
	return out, nil
}

func (r *fakePaymentRepo) SumByInvoice(invoiceID string) (decimal.Decimal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sum := decimal.Zero
	for _, p := range r.payments[invoiceID] {
		sum = sum.Add(p.Amount)
	}
	return sum, nil
}

func (r *fakePaymentRepo) CountByInvoice(invoiceID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.payments[invoiceID]), nil
}

// ─── client / product / business repos ───────────────────────────────────────

type fakeClientRepo struct {
	mu      sync.Mutex
	clients map[string]*entity.Client
}

var _ repository.ClientRepository = (*fakeClientRepo)(nil)

func newFakeClientRepo() *fakeClientRepo {
	return &fakeClientRepo{clients: make(map[string]*entity.Client)}
}

func (r *fakeClientRepo) Create(c *entity.Client) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *c
	r.clients[c.ID] = &cp
	return nil
}

func (r *fakeClientRepo) Update(c *entity.Client) error { return r.Create(c) }

func (r *fakeClientRepo) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.clients, id)
	return nil
}

func (r *fakeClientRepo) GetByID(id string) (*entity.Client, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.clients[id]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (r *fakeClientRepo) ListByBusiness(businessID string, limit, offset int) ([]*entity.Client, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.Client
	for _, c := range r.clients {
		if c.BusinessID == businessID {
			cp := *c
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeClientRepo) ListAssigned(businessID, membershipID string, limit, offset int) ([]*entity.Client, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.Client
	for _, c := range r.clients {
		if c.BusinessID == businessID && c.AssignedTo == membershipID {
			cp := *c
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeClientRepo) CountByOwner(userID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.clients), nil
}

type fakeProductRepo struct {
	mu       sync.Mutex
	products map[string]*entity.Product
}

var _ repository.ProductRepository = (*fakeProductRepo)(nil)

func newFakeProductRepo() *fakeProductRepo {
	return &fakeProductRepo{products: make(map[string]*entity.Product)}
}

func (r *fakeProductRepo) Create(p *entity.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *p
	r.products[p.ID] = &cp
	return nil
}

func (r *fakeProductRepo) Update(p *entity.Product) error { return r.Create(p) }

func (r *fakeProductRepo) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.products, id)
	return nil
}

func (r *fakeProductRepo) GetByID(id string) (*entity.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (r *fakeProductRepo) GetByBusinessAndSKU(businessID, sku string) (*entity.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.products {
		if p.BusinessID == businessID && p.SKU == sku {
			cp := *p
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeProductRepo) ListByBusiness(businessID string, limit, offset int) ([]*entity.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.Product
	for _, p := range r.products {
		if p.BusinessID == businessID {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

type fakeBusinessRepo struct {
	mu         sync.Mutex
	businesses map[string]*entity.Business
}

var _ repository.BusinessRepository = (*fakeBusinessRepo)(nil)

func newFakeBusinessRepo() *fakeBusinessRepo {
	return &fakeBusinessRepo{businesses: make(map[string]*entity.Business)}
}

func (r *fakeBusinessRepo) Create(b *entity.Business) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *b
	r.businesses[b.ID] = &cp
	return nil
}

func (r *fakeBusinessRepo) Update(b *entity.Business) error { return r.Create(b) }

func (r *fakeBusinessRepo) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.businesses, id)
	return nil
}

func (r *fakeBusinessRepo) GetByID(id string) (*entity.Business, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.businesses[id]
	if !ok {
		return nil, nil
	}
	cp := *b
	return &cp, nil
}

func (r *fakeBusinessRepo) ListByUser(userID string) ([]*entity.Business, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.Business
	for _, b := range r.businesses {
		cp := *b
		out = append(out, &cp)
	}
	return out, nil
}

func (r *fakeBusinessRepo) CountOwnedBy(userID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.businesses), nil
}

// ─── colaboradores ───────────────────────────────────────────────────────────

// fakeTxRunner serializa las transacciones con un mutex: equivale al
// bloqueo de fila en la base real a efectos de los tests de concurrencia.
type fakeTxRunner struct {
	mu          sync.Mutex
	invoiceRepo repository.InvoiceRepository
	paymentRepo repository.PaymentRepository
}

var _ TxRunner = (*fakeTxRunner)(nil)

func (t *fakeTxRunner) RunInvoice(ctx context.Context, fn func(repository.InvoiceRepository, repository.PaymentRepository) error) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return fn(t.invoiceRepo, t.paymentRepo)
}

type fakePublisher struct {
	mu     sync.Mutex
	events []*entity.Event
}

var _ EventPublisher = (*fakePublisher)(nil)

func (p *fakePublisher) Publish(evt *entity.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, evt)
}

// lastStatusChange devuelve el status_changed más reciente, o nil.
func (p *fakePublisher) lastStatusChange() *entity.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i := len(p.events) - 1; i >= 0; i-- {
		if p.events[i].Action == entity.EventStatusChanged {
			return p.events[i]
		}
	}
	return nil
}

func (p *fakePublisher) actions() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Action)
	}
	return out
}

type fakeCache struct {
	mu          sync.Mutex
	data        map[string]map[string]interface{}
	invalidated []string
}

var _ tenant.Cache = (*fakeCache)(nil)

func newFakeCache() *fakeCache {
	return &fakeCache{data: make(map[string]map[string]interface{})}
}

func (c *fakeCache) Get(tenantID, key string) (interface{}, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	ns, ok := c.data[tenantID]
	if !ok {
		return nil, false
	}
	v, ok := ns[key]
	return v, ok
}

func (c *fakeCache) Set(tenantID, key string, value interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.data[tenantID] == nil {
		c.data[tenantID] = make(map[string]interface{})
	}
	c.data[tenantID][key] = value
}

func (c *fakeCache) Invalidate(tenantID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, tenantID)
	c.invalidated = append(c.invalidated, tenantID)
}

type fakeSender struct {
	enabled bool
	mu      sync.Mutex
	sent    []string // números de factura enviados
}

var _ DeliverySender = (*fakeSender)(nil)

func (s *fakeSender) Enabled() bool { return s.enabled }

func (s *fakeSender) SendInvoice(ctx context.Context, business *entity.Business, client *entity.Client, inv *entity.Invoice, pdf []byte, publicURL string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, inv.Number)
	return nil
}

type fakePDFGenerator struct{}

var _ InvoicePDFGenerator = (*fakePDFGenerator)(nil)

func (g *fakePDFGenerator) GenerateInvoicePDF(ctx context.Context, inv *entity.Invoice, items []*entity.InvoiceItem, business *entity.Business, client *entity.Client, publicURL string) ([]byte, error) {
	return []byte("%PDF-fake " + inv.Number), nil
}

func testLogger() *logger.Logger {
	return logger.New(logger.Config{Level: "error"})
}

// ─── entorno de pruebas ──────────────────────────────────────────────────────

type testEnv struct {
	invoices  *fakeInvoiceRepo
	payments  *fakePaymentRepo
	clients   *fakeClientRepo
	products  *fakeProductRepo
	business  *fakeBusinessRepo
	publisher *fakePublisher
	cache     *fakeCache
	sender    *fakeSender

	invoiceUC   *InvoiceUseCase
	paymentUC   *PaymentUseCase
	lifecycleUC *LifecycleUseCase
	publicUC    *PublicUseCase
	overdueUC   *OverdueUseCase

	biz    *entity.Business
	client *entity.Client
}

func newTestEnv() *testEnv {
	env := &testEnv{
		invoices:  newFakeInvoiceRepo(),
		payments:  newFakePaymentRepo(),
		clients:   newFakeClientRepo(),
		products:  newFakeProductRepo(),
		business:  newFakeBusinessRepo(),
		publisher: &fakePublisher{},
		cache:     newFakeCache(),
		sender:    &fakeSender{},
	}
	tx := &fakeTxRunner{invoiceRepo: env.invoices, paymentRepo: env.payments}
	log := testLogger()

	env.invoiceUC = NewInvoiceUseCase(tx, env.invoices, env.payments, env.clients, env.products, env.business, env.publisher, env.cache)
	env.paymentUC = NewPaymentUseCase(tx, env.invoices, env.payments, env.clients, env.publisher, env.cache)
	env.lifecycleUC = NewLifecycleUseCase(tx, env.invoices, env.clients, env.business, &fakePDFGenerator{}, env.sender, env.publisher, env.cache, "https://pay.example.com/view", log)
	env.publicUC = NewPublicUseCase(tx, env.invoices, env.clients, env.business, &fakePDFGenerator{}, env.publisher, env.cache)
	env.overdueUC = NewOverdueUseCase(tx, env.invoices, env.publisher, env.cache, log)

	env.biz = &entity.Business{
		ID:              "biz-1",
		Name:            "Araz Market MMC",
		DefaultCurrency: entity.CurrencyAZN,
		DefaultTheme:    entity.ThemeModern,
		IsActive:        true,
	}
	env.business.Create(env.biz)
	env.client = &entity.Client{
		ID:         "cli-1",
		BusinessID: "biz-1",
		Name:       "Kapital Group",
		Email:      "cuentas@kapital.example",
	}
	env.clients.Create(env.client)
	return env
}

func (env *testEnv) owner() tenant.Actor {
	return tenant.Actor{
		UserID:       "user-owner",
		MembershipID: "mem-owner",
		BusinessID:   "biz-1",
		Role:         entity.RoleOwner,
		Plan:         entity.PlanPremium,
	}
}

func (env *testEnv) salesRep() tenant.Actor {
	return tenant.Actor{
		UserID:       "user-rep",
		MembershipID: "mem-rep",
		BusinessID:   "biz-1",
		Role:         entity.RoleSalesRep,
		Plan:         entity.PlanPremium,
	}
}

func (env *testEnv) accountant() tenant.Actor {
	return tenant.Actor{
		UserID:       "user-acc",
		MembershipID: "mem-acc",
		BusinessID:   "biz-1",
		Role:         entity.RoleAccountant,
		Plan:         entity.PlanPremium,
	}
}

// createInvoice crea una factura simple 2 x 10.00 con 18% de impuesto
// (total 23.60) a nombre del actor dado.
func (env *testEnv) createInvoice(t *testing.T, actor tenant.Actor) *dto.InvoiceResponse {
	t.Helper()
	resp, err := env.invoiceUC.Create(context.Background(), actor, dto.CreateInvoiceRequest{
		ClientID:    env.client.ID,
		InvoiceDate: "2026-03-01",
		DueDate:     "2026-03-15",
		Items: []dto.InvoiceItemRequest{{
			Description: "Consultoría",
			Quantity:    decimal.NewFromInt(2),
			UnitPrice:   decimal.NewFromInt(10),
			TaxRate:     decimal.NewFromInt(18),
		}},
	})
	require.NoError(t, err)
	return resp
}
