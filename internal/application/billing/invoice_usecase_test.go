package billing

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/invoiceaz/billing-api/internal/application/dto"
	"github.com/invoiceaz/billing-api/internal/application/tenant"
	"github.com/invoiceaz/billing-api/internal/domain"
	"github.com/invoiceaz/billing-api/internal/domain/entity"
)

func TestInvoiceCreate_AsignaNumeroYMontos(t *testing.T) {
	env := newTestEnv()
	owner := env.owner()

	resp := env.createInvoice(t, owner)

	assert.Equal(t, "INV-1001", resp.Number)
	assert.Equal(t, string(entity.StatusDraft), resp.Status)
	assert.True(t, resp.Subtotal.Equal(decimal.NewFromInt(20)))
	assert.True(t, resp.Total.Equal(decimal.RequireFromString("23.60")), "total %s", resp.Total)
	assert.NotEmpty(t, resp.ShareToken)
	// Moneda y tema heredados del negocio
	assert.Equal(t, entity.CurrencyAZN, resp.Currency)
	assert.Equal(t, entity.ThemeModern, resp.Theme)

	second := env.createInvoice(t, owner)
	assert.Equal(t, "INV-1002", second.Number)
}

func TestInvoiceCreate_CopiaDatosDelProducto(t *testing.T) {
	env := newTestEnv()
	env.products.Create(&entity.Product{
		ID:         "prod-1",
		BusinessID: "biz-1",
		Name:       "Cemento 50kg",
		Unit:       entity.UnitPiece,
		BasePrice:  decimal.RequireFromString("7.50"),
	})

	resp, err := env.invoiceUC.Create(context.Background(), env.owner(), dto.CreateInvoiceRequest{
		ClientID:    env.client.ID,
		InvoiceDate: "2026-03-01",
		DueDate:     "2026-03-15",
		Items: []dto.InvoiceItemRequest{{
			ProductID: "prod-1",
			Quantity:  decimal.NewFromInt(4),
			TaxRate:   decimal.NewFromInt(18),
		}},
	})
	require.NoError(t, err)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, "Cemento 50kg", resp.Items[0].Description)
	assert.True(t, resp.Items[0].UnitPrice.Equal(decimal.RequireFromString("7.50")))

	// Editar el producto después no toca la línea ya congelada
	env.products.Update(&entity.Product{ID: "prod-1", BusinessID: "biz-1", Name: "Cemento 50kg", BasePrice: decimal.NewFromInt(99)})
	items, err := env.invoices.ListItems(resp.ID)
	require.NoError(t, err)
	assert.True(t, items[0].UnitPrice.Equal(decimal.RequireFromString("7.50")))
}

func TestInvoiceCreate_LimiteMensualDelPlan(t *testing.T) {
	env := newTestEnv()
	owner := env.owner()
	owner.Plan = entity.PlanFree // 5 facturas por mes

	for i := 0; i < 5; i++ {
		env.createInvoice(t, owner)
	}
	_, err := env.invoiceUC.Create(context.Background(), owner, dto.CreateInvoiceRequest{
		ClientID:    env.client.ID,
		InvoiceDate: "2026-03-01",
		DueDate:     "2026-03-15",
		Items: []dto.InvoiceItemRequest{{
			Description: "Extra",
			Quantity:    decimal.NewFromInt(1),
			UnitPrice:   decimal.NewFromInt(1),
		}},
	})
	var limitErr *domain.LimitExceededError
	require.ErrorAs(t, err, &limitErr)
	assert.Equal(t, "invoices", limitErr.Resource)
	assert.Equal(t, 5, limitErr.Limit)
	assert.Equal(t, 5, limitErr.Current)
}

func TestInvoiceCreate_RolSinPermiso(t *testing.T) {
	env := newTestEnv()
	inventory := env.owner()
	inventory.Role = entity.RoleInventoryManager

	_, err := env.invoiceUC.Create(context.Background(), inventory, dto.CreateInvoiceRequest{
		ClientID:    env.client.ID,
		InvoiceDate: "2026-03-01",
		DueDate:     "2026-03-15",
		Items:       []dto.InvoiceItemRequest{{Description: "x", Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(1)}},
	})
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestInvoiceCreate_VendedorSoloClientesAsignados(t *testing.T) {
	env := newTestEnv()
	rep := env.salesRep()

	// Cliente sin asignar: denegado
	_, err := env.invoiceUC.Create(context.Background(), rep, dto.CreateInvoiceRequest{
		ClientID:    env.client.ID,
		InvoiceDate: "2026-03-01",
		DueDate:     "2026-03-15",
		Items:       []dto.InvoiceItemRequest{{Description: "x", Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(1)}},
	})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	// Asignado: permitido
	env.client.AssignedTo = rep.MembershipID
	env.clients.Update(env.client)
	resp := env.createInvoice(t, rep)
	assert.Equal(t, rep.MembershipID, resp.CreatedBy)
}

func TestInvoiceList_AlcanceDeVendedor(t *testing.T) {
	env := newTestEnv()
	owner := env.owner()
	rep := env.salesRep()
	env.client.AssignedTo = rep.MembershipID
	env.clients.Update(env.client)

	env.createInvoice(t, owner)
	mine := env.createInvoice(t, rep)

	list, err := env.invoiceUC.List(context.Background(), rep, "", dto.PageRequest{})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, mine.ID, list[0].ID)

	all, err := env.invoiceUC.List(context.Background(), owner, "", dto.PageRequest{})
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestInvoiceGet_OtroTenant(t *testing.T) {
	env := newTestEnv()
	resp := env.createInvoice(t, env.owner())

	intruder := tenant.Actor{
		UserID:       "user-2",
		MembershipID: "mem-2",
		BusinessID:   "biz-2",
		Role:         entity.RoleOwner,
		Plan:         entity.PlanPremium,
	}
	_, err := env.invoiceUC.Get(context.Background(), intruder, resp.ID)
	assert.ErrorIs(t, err, domain.ErrTenantMismatch)
}

func TestInvoiceUpdate_SoloBorrador(t *testing.T) {
	env := newTestEnv()
	owner := env.owner()
	resp := env.createInvoice(t, owner)

	_, err := env.lifecycleUC.Transition(context.Background(), owner, resp.ID, string(entity.StatusFinalized))
	require.NoError(t, err)

	notes := "tarde"
	_, err = env.invoiceUC.Update(context.Background(), owner, resp.ID, dto.UpdateInvoiceRequest{Notes: &notes})
	assert.ErrorIs(t, err, domain.ErrInvoiceImmutable)
}

func TestInvoiceUpdate_ReemplazaLineasYRecalcula(t *testing.T) {
	env := newTestEnv()
	owner := env.owner()
	resp := env.createInvoice(t, owner)

	updated, err := env.invoiceUC.Update(context.Background(), owner, resp.ID, dto.UpdateInvoiceRequest{
		Items: []dto.InvoiceItemRequest{{
			Description: "Servicio mayor",
			Quantity:    decimal.NewFromInt(1),
			UnitPrice:   decimal.NewFromInt(100),
			TaxRate:     decimal.NewFromInt(18),
		}},
	})
	require.NoError(t, err)
	assert.True(t, updated.Total.Equal(decimal.RequireFromString("118.00")), "total %s", updated.Total)
	require.Len(t, updated.Items, 1)
	assert.Equal(t, "Servicio mayor", updated.Items[0].Description)
}

func TestInvoiceUpdate_SinTocarLineas(t *testing.T) {
	env := newTestEnv()
	owner := env.owner()
	resp := env.createInvoice(t, owner)

	notes := "entrega en obra"
	updated, err := env.invoiceUC.Update(context.Background(), owner, resp.ID, dto.UpdateInvoiceRequest{Notes: &notes})
	require.NoError(t, err)
	assert.Equal(t, "entrega en obra", updated.Notes)
	assert.True(t, updated.Total.Equal(resp.Total))
	assert.Len(t, updated.Items, 1)
}

func TestInvoiceDelete_ConPagosNunca(t *testing.T) {
	env := newTestEnv()
	owner := env.owner()
	resp := env.createInvoice(t, owner)

	_, err := env.lifecycleUC.Transition(context.Background(), owner, resp.ID, string(entity.StatusFinalized))
	require.NoError(t, err)
	_, err = env.paymentUC.Apply(context.Background(), owner, resp.ID, dto.ApplyPaymentRequest{
		Amount: decimal.NewFromInt(10),
		Method: entity.PaymentMethodCash,
	})
	require.NoError(t, err)

	err = env.invoiceUC.Delete(context.Background(), owner, resp.ID)
	assert.ErrorIs(t, err, domain.ErrInvoiceHasPayments)

	// Sin pagos sí se elimina
	other := env.createInvoice(t, owner)
	require.NoError(t, env.invoiceUC.Delete(context.Background(), owner, other.ID))
	got, err := env.invoices.GetByID(other.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestInvoiceDelete_VendedorDenegado(t *testing.T) {
	env := newTestEnv()
	rep := env.salesRep()
	env.client.AssignedTo = rep.MembershipID
	env.clients.Update(env.client)
	resp := env.createInvoice(t, rep)

	err := env.invoiceUC.Delete(context.Background(), rep, resp.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestInvoiceDuplicate(t *testing.T) {
	env := newTestEnv()
	owner := env.owner()
	src := env.createInvoice(t, owner)

	_, err := env.lifecycleUC.Transition(context.Background(), owner, src.ID, string(entity.StatusFinalized))
	require.NoError(t, err)
	_, err = env.paymentUC.Apply(context.Background(), owner, src.ID, dto.ApplyPaymentRequest{
		Amount: decimal.RequireFromString("23.60"),
		Method: entity.PaymentMethodCard,
	})
	require.NoError(t, err)

	dup, err := env.invoiceUC.Duplicate(context.Background(), owner, src.ID)
	require.NoError(t, err)
	assert.Equal(t, "INV-1002", dup.Number)
	assert.Equal(t, string(entity.StatusDraft), dup.Status)
	assert.True(t, dup.PaidAmount.IsZero())
	assert.NotEqual(t, src.ShareToken, dup.ShareToken)
	assert.True(t, dup.Total.Equal(src.Total))
	assert.Len(t, dup.Items, len(src.Items))
}

func TestInvoiceCreate_DescuentoExcedeElBruto(t *testing.T) {
	env := newTestEnv()
	req := dto.CreateInvoiceRequest{
		ClientID:    env.client.ID,
		InvoiceDate: "2026-03-01",
		DueDate:     "2026-03-15",
		Discount:    decimal.NewFromInt(100), // bruto 23.60
		Items: []dto.InvoiceItemRequest{{
			Description: "Servicio",
			Quantity:    decimal.NewFromInt(2),
			UnitPrice:   decimal.NewFromInt(10),
			TaxRate:     decimal.NewFromInt(18),
		}},
	}
	_, err := env.invoiceUC.Create(context.Background(), env.owner(), req)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	// Hasta el bruto exacto sí: queda en total cero
	req.Discount = decimal.RequireFromString("23.60")
	resp, err := env.invoiceUC.Create(context.Background(), env.owner(), req)
	require.NoError(t, err)
	assert.True(t, resp.Total.IsZero(), "total %s", resp.Total)
}

func TestInvoiceUpdate_DescuentoExcedeElBruto(t *testing.T) {
	env := newTestEnv()
	owner := env.owner()
	resp := env.createInvoice(t, owner)

	over := decimal.NewFromInt(100)
	_, err := env.invoiceUC.Update(context.Background(), owner, resp.ID, dto.UpdateInvoiceRequest{Discount: &over})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	neg := decimal.NewFromInt(-1)
	_, err = env.invoiceUC.Update(context.Background(), owner, resp.ID, dto.UpdateInvoiceRequest{Discount: &neg})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	// La factura quedó intacta tras los dos rechazos
	got, err := env.invoiceUC.Get(context.Background(), owner, resp.ID)
	require.NoError(t, err)
	assert.True(t, got.Total.Equal(resp.Total))
}

func TestInvoiceDelete_CarreraConPagoConcurrente(t *testing.T) {
	env := newTestEnv()
	owner := env.owner()
	resp := env.createInvoice(t, owner)
	_, err := env.lifecycleUC.Transition(context.Background(), owner, resp.ID, string(entity.StatusFinalized))
	require.NoError(t, err)

	// Pago y borrado disparados a la vez: o el pago entra primero y el
	// borrado ve el conteo dentro de su transacción, o el borrado gana y
	// el pago ya no encuentra la factura. Nunca ambos a la vez.
	payDone := make(chan error, 1)
	delDone := make(chan error, 1)
	go func() {
		_, err := env.paymentUC.Apply(context.Background(), owner, resp.ID, dto.ApplyPaymentRequest{
			Amount: decimal.NewFromInt(10),
			Method: entity.PaymentMethodCash,
		})
		payDone <- err
	}()
	go func() {
		delDone <- env.invoiceUC.Delete(context.Background(), owner, resp.ID)
	}()
	payErr, delErr := <-payDone, <-delDone

	payments, err := env.payments.ListByInvoice(resp.ID)
	require.NoError(t, err)
	got, err := env.invoices.GetByID(resp.ID)
	require.NoError(t, err)

	if got == nil {
		assert.Empty(t, payments, "factura borrada con pago registrado")
	} else {
		assert.NotEmpty(t, payments)
		assert.True(t, errors.Is(payErr, domain.ErrInvoiceHasPayments) || errors.Is(delErr, domain.ErrInvoiceHasPayments),
			"uno de los dos debió rechazar: pago=%v borrado=%v", payErr, delErr)
	}
}

// dupOnceInvoiceRepo simula la colisión de dos primeras facturas creadas a la
// vez: el índice único (business_id, number) rechaza una y el caso de uso debe
// reintentar con el consecutivo ya visible.
type dupOnceInvoiceRepo struct {
	*fakeInvoiceRepo
	collided bool
}

func (r *dupOnceInvoiceRepo) Create(inv *entity.Invoice) error {
	if !r.collided {
		r.collided = true
		return domain.ErrDuplicate
	}
	return r.fakeInvoiceRepo.Create(inv)
}

func TestInvoiceCreate_ReintentaTrasColisionDeNumero(t *testing.T) {
	env := newTestEnv()
	dup := &dupOnceInvoiceRepo{fakeInvoiceRepo: env.invoices}
	tx := &fakeTxRunner{invoiceRepo: dup, paymentRepo: env.payments}
	uc := NewInvoiceUseCase(tx, dup, env.payments, env.clients, env.products, env.business, env.publisher, env.cache)

	resp, err := uc.Create(context.Background(), env.owner(), dto.CreateInvoiceRequest{
		ClientID:    env.client.ID,
		InvoiceDate: "2026-03-01",
		DueDate:     "2026-03-15",
		Items:       []dto.InvoiceItemRequest{{Description: "x", Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(1)}},
	})
	require.NoError(t, err)
	assert.True(t, dup.collided)
	assert.Equal(t, "INV-1001", resp.Number)

	list, err := env.invoices.ListByBusiness("biz-1", "", 0, 0)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestInvoiceCreate_FechasInvalidas(t *testing.T) {
	env := newTestEnv()
	_, err := env.invoiceUC.Create(context.Background(), env.owner(), dto.CreateInvoiceRequest{
		ClientID:    env.client.ID,
		InvoiceDate: "2026-03-15",
		DueDate:     "2026-03-01", // vence antes de emitirse
		Items:       []dto.InvoiceItemRequest{{Description: "x", Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(1)}},
	})
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
}

func TestInvoiceCreate_LineaInvalida(t *testing.T) {
	env := newTestEnv()
	cases := []dto.InvoiceItemRequest{
		{Description: "qty cero", Quantity: decimal.Zero, UnitPrice: decimal.NewFromInt(1)},
		{Description: "precio negativo", Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(-1)},
		{Description: "impuesto fuera de rango", Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(1), TaxRate: decimal.NewFromInt(101)},
	}
	for _, item := range cases {
		_, err := env.invoiceUC.Create(context.Background(), env.owner(), dto.CreateInvoiceRequest{
			ClientID:    env.client.ID,
			InvoiceDate: "2026-03-01",
			DueDate:     "2026-03-15",
			Items:       []dto.InvoiceItemRequest{item},
		})
		assert.ErrorIs(t, err, domain.ErrInvalidInput, item.Description)
	}
}
