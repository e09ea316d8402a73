package billing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/invoiceaz/billing-api/internal/domain"
	"github.com/invoiceaz/billing-api/internal/domain/entity"
)

// sentInvoice crea, finaliza y marca enviada una factura, devolviendo su
// share token.
func sentInvoice(t *testing.T, env *testEnv) (invoiceID, token string) {
	t.Helper()
	owner := env.owner()
	resp := env.createInvoice(t, owner)
	_, err := env.lifecycleUC.Transition(context.Background(), owner, resp.ID, string(entity.StatusFinalized))
	require.NoError(t, err)
	_, err = env.lifecycleUC.MarkSent(context.Background(), owner, resp.ID)
	require.NoError(t, err)
	return resp.ID, resp.ShareToken
}

func TestPublicView_MarcaVistaUnaVez(t *testing.T) {
	env := newTestEnv()
	id, token := sentInvoice(t, env)

	resp, err := env.publicUC.View(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, string(entity.StatusViewed), resp.Status)
	assert.Equal(t, "Araz Market MMC", resp.BusinessName)
	assert.Equal(t, "Kapital Group", resp.ClientName)
	// La vista pública nunca expone el token ni al creador
	assert.NotEmpty(t, resp.Items)

	got, err := env.invoices.GetByID(id)
	require.NoError(t, err)
	require.NotNil(t, got.ViewedAt)
	firstViewed := *got.ViewedAt

	// Segunda apertura: no-op, mismo timestamp
	_, err = env.publicUC.View(context.Background(), token)
	require.NoError(t, err)
	got, err = env.invoices.GetByID(id)
	require.NoError(t, err)
	assert.True(t, firstViewed.Equal(*got.ViewedAt))
}

// La primera apertura registra sent → viewed como evento del sistema,
// con origen y destino.
func TestPublicView_EventoDeTransicion(t *testing.T) {
	env := newTestEnv()
	_, token := sentInvoice(t, env)

	_, err := env.publicUC.View(context.Background(), token)
	require.NoError(t, err)

	evt := env.publisher.lastStatusChange()
	require.NotNil(t, evt)
	assert.Equal(t, string(entity.StatusSent), evt.FromStatus)
	assert.Equal(t, string(entity.StatusViewed), evt.ToStatus)
	assert.Empty(t, evt.ActorID, "la vista pública no tiene membresía")
}

func TestPublicView_TokenDesconocido(t *testing.T) {
	env := newTestEnv()
	_, err := env.publicUC.View(context.Background(), "no-existe")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = env.publicUC.View(context.Background(), "")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestPublicView_BorradorOculto(t *testing.T) {
	env := newTestEnv()
	resp := env.createInvoice(t, env.owner())

	_, err := env.publicUC.View(context.Background(), resp.ShareToken)
	assert.ErrorIs(t, err, domain.ErrNotFound, "un borrador no existe para el mundo exterior")
}

func TestPublicView_CanceladaOculta(t *testing.T) {
	env := newTestEnv()
	owner := env.owner()
	id, token := sentInvoice(t, env)
	_, err := env.lifecycleUC.Transition(context.Background(), owner, id, string(entity.StatusCancelled))
	require.NoError(t, err)

	_, err = env.publicUC.View(context.Background(), token)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestPublicPay_SaldaElPendiente(t *testing.T) {
	env := newTestEnv()
	id, token := sentInvoice(t, env)

	resp, err := env.publicUC.Pay(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, string(entity.StatusPaid), resp.Status)

	got, err := env.invoices.GetByID(id)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusPaid, got.Status)
	assert.True(t, got.PaidAmount.Equal(got.Total))

	payments, err := env.payments.ListByInvoice(id)
	require.NoError(t, err)
	require.Len(t, payments, 1)
	assert.Equal(t, entity.PaymentMethodOnline, payments[0].Method)
	assert.Empty(t, payments[0].RecordedBy)

	// Además del payment_added queda el cambio de estado sent → paid
	assert.Contains(t, env.publisher.actions(), entity.EventPaymentAdded)
	evt := env.publisher.lastStatusChange()
	require.NotNil(t, evt)
	assert.Equal(t, string(entity.StatusSent), evt.FromStatus)
	assert.Equal(t, string(entity.StatusPaid), evt.ToStatus)
}

func TestPublicPay_SinSaldoPendiente(t *testing.T) {
	env := newTestEnv()
	_, token := sentInvoice(t, env)

	_, err := env.publicUC.Pay(context.Background(), token)
	require.NoError(t, err)

	// Una factura saldada ya no acepta el pago público
	_, err = env.publicUC.Pay(context.Background(), token)
	assert.ErrorIs(t, err, domain.ErrStateConflict)
}

func TestPublicPDF(t *testing.T) {
	env := newTestEnv()
	_, token := sentInvoice(t, env)

	pdf, number, err := env.publicUC.PDF(context.Background(), token)
	require.NoError(t, err)
	assert.NotEmpty(t, pdf)
	assert.Equal(t, "INV-1001", number)
}
