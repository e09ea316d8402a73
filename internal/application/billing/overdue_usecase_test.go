package billing

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/invoiceaz/billing-api/internal/application/dto"
	"github.com/invoiceaz/billing-api/internal/domain/entity"
)

func TestOverdueSweep_MarcaVencidas(t *testing.T) {
	env := newTestEnv()
	owner := env.owner()
	resp := env.createInvoice(t, owner) // vence 2026-03-15
	_, err := env.lifecycleUC.Transition(context.Background(), owner, resp.ID, string(entity.StatusFinalized))
	require.NoError(t, err)
	_, err = env.lifecycleUC.MarkSent(context.Background(), owner, resp.ID)
	require.NoError(t, err)

	after := time.Date(2026, 3, 16, 8, 0, 0, 0, time.UTC)
	n, err := env.overdueUC.Sweep(context.Background(), after)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := env.invoices.GetByID(resp.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusOverdue, got.Status)
	assert.Contains(t, env.publisher.actions(), entity.EventStatusChanged)

	// El barrido es del sistema: sin actor, con la transición completa
	evt := env.publisher.lastStatusChange()
	require.NotNil(t, evt)
	assert.Equal(t, string(entity.StatusSent), evt.FromStatus)
	assert.Equal(t, string(entity.StatusOverdue), evt.ToStatus)
	assert.Empty(t, evt.ActorID)

	// Segundo barrido: nada que hacer
	n, err = env.overdueUC.Sweep(context.Background(), after)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestOverdueSweep_IgnoraNoVencidasYTerminales(t *testing.T) {
	env := newTestEnv()
	owner := env.owner()

	draft := env.createInvoice(t, owner)

	current := env.createInvoice(t, owner)
	_, err := env.lifecycleUC.Transition(context.Background(), owner, current.ID, string(entity.StatusFinalized))
	require.NoError(t, err)

	paid := env.createInvoice(t, owner)
	_, err = env.lifecycleUC.Transition(context.Background(), owner, paid.ID, string(entity.StatusFinalized))
	require.NoError(t, err)
	_, err = env.paymentUC.Apply(context.Background(), owner, paid.ID, dto.ApplyPaymentRequest{
		Amount: decimal.RequireFromString("23.60"),
		Method: entity.PaymentMethodCash,
	})
	require.NoError(t, err)

	// Antes del vencimiento nadie cae
	before := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	n, err := env.overdueUC.Sweep(context.Background(), before)
	require.NoError(t, err)
	assert.Zero(t, n)

	// Después solo la finalizada impaga; borrador y pagada quedan intactos
	after := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	n, err = env.overdueUC.Sweep(context.Background(), after)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	gotDraft, _ := env.invoices.GetByID(draft.ID)
	gotPaid, _ := env.invoices.GetByID(paid.ID)
	gotCurrent, _ := env.invoices.GetByID(current.ID)
	assert.Equal(t, entity.StatusDraft, gotDraft.Status)
	assert.Equal(t, entity.StatusPaid, gotPaid.Status)
	assert.Equal(t, entity.StatusOverdue, gotCurrent.Status)
}

func TestOverdue_AceptaPagoYSalda(t *testing.T) {
	env := newTestEnv()
	owner := env.owner()
	resp := env.createInvoice(t, owner)
	_, err := env.lifecycleUC.Transition(context.Background(), owner, resp.ID, string(entity.StatusFinalized))
	require.NoError(t, err)

	_, err = env.overdueUC.Sweep(context.Background(), time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	_, err = env.paymentUC.Apply(context.Background(), owner, resp.ID, dto.ApplyPaymentRequest{
		Amount: decimal.RequireFromString("23.60"),
		Method: entity.PaymentMethodBankTransfer,
	})
	require.NoError(t, err)

	got, err := env.invoices.GetByID(resp.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusPaid, got.Status)
}
