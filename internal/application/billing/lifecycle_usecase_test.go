package billing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/invoiceaz/billing-api/internal/domain"
	"github.com/invoiceaz/billing-api/internal/domain/entity"
)

func TestLifecycleTransition_Finalizar(t *testing.T) {
	env := newTestEnv()
	owner := env.owner()
	resp := env.createInvoice(t, owner)

	inv, err := env.lifecycleUC.Transition(context.Background(), owner, resp.ID, string(entity.StatusFinalized))
	require.NoError(t, err)
	assert.Equal(t, entity.StatusFinalized, inv.Status)
	assert.Contains(t, env.publisher.actions(), entity.EventStatusChanged)
	assert.Contains(t, env.cache.invalidated, "biz-1")
}

// El evento de transición lleva el estado de origen y el de destino,
// no solo la acción.
func TestLifecycleTransition_EventoConEstados(t *testing.T) {
	env := newTestEnv()
	owner := env.owner()
	resp := env.createInvoice(t, owner)

	_, err := env.lifecycleUC.Transition(context.Background(), owner, resp.ID, string(entity.StatusFinalized))
	require.NoError(t, err)

	evt := env.publisher.lastStatusChange()
	require.NotNil(t, evt)
	assert.Equal(t, string(entity.StatusDraft), evt.FromStatus)
	assert.Equal(t, string(entity.StatusFinalized), evt.ToStatus)
	assert.Equal(t, owner.MembershipID, evt.ActorID)
	assert.Equal(t, resp.Number, evt.Detail)
}

func TestLifecycleTransition_SaltoInvalido(t *testing.T) {
	env := newTestEnv()
	owner := env.owner()
	resp := env.createInvoice(t, owner)

	// Un borrador no puede marcarse enviado sin finalizar antes
	_, err := env.lifecycleUC.Transition(context.Background(), owner, resp.ID, string(entity.StatusSent))
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestLifecycleTransition_EstadoDesconocido(t *testing.T) {
	env := newTestEnv()
	owner := env.owner()
	resp := env.createInvoice(t, owner)

	_, err := env.lifecycleUC.Transition(context.Background(), owner, resp.ID, "archived")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestLifecycleMarkSent_IdempotenteTrasViewed(t *testing.T) {
	env := newTestEnv()
	owner := env.owner()
	resp := env.createInvoice(t, owner)

	_, err := env.lifecycleUC.Transition(context.Background(), owner, resp.ID, string(entity.StatusFinalized))
	require.NoError(t, err)
	_, err = env.lifecycleUC.MarkSent(context.Background(), owner, resp.ID)
	require.NoError(t, err)
	_, err = env.lifecycleUC.Transition(context.Background(), owner, resp.ID, string(entity.StatusViewed))
	require.NoError(t, err)

	// Reenviar una factura ya vista no la regresa a sent
	inv, err := env.lifecycleUC.MarkSent(context.Background(), owner, resp.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusViewed, inv.Status)
}

func TestLifecycleMarkSent_PreservaTimestampOriginal(t *testing.T) {
	env := newTestEnv()
	owner := env.owner()
	resp := env.createInvoice(t, owner)

	_, err := env.lifecycleUC.Transition(context.Background(), owner, resp.ID, string(entity.StatusFinalized))
	require.NoError(t, err)
	first, err := env.lifecycleUC.MarkSent(context.Background(), owner, resp.ID)
	require.NoError(t, err)
	require.NotNil(t, first.SentAt)

	second, err := env.lifecycleUC.MarkSent(context.Background(), owner, resp.ID)
	require.NoError(t, err)
	require.NotNil(t, second.SentAt)
	assert.True(t, first.SentAt.Equal(*second.SentAt))
}

func TestLifecycleSend_ConRemitenteActivo(t *testing.T) {
	env := newTestEnv()
	env.sender.enabled = true
	owner := env.owner()
	resp := env.createInvoice(t, owner)

	_, err := env.lifecycleUC.Transition(context.Background(), owner, resp.ID, string(entity.StatusFinalized))
	require.NoError(t, err)

	inv, err := env.lifecycleUC.Send(context.Background(), owner, resp.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusSent, inv.Status)
	assert.Equal(t, []string{resp.Number}, env.sender.sent)
}

func TestLifecycleSend_SinCredencialesMarcaIgual(t *testing.T) {
	env := newTestEnv()
	env.sender.enabled = false
	owner := env.owner()
	resp := env.createInvoice(t, owner)

	_, err := env.lifecycleUC.Transition(context.Background(), owner, resp.ID, string(entity.StatusFinalized))
	require.NoError(t, err)

	inv, err := env.lifecycleUC.Send(context.Background(), owner, resp.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusSent, inv.Status)
	assert.Empty(t, env.sender.sent)
}

func TestLifecycleSend_BorradorRechazado(t *testing.T) {
	env := newTestEnv()
	owner := env.owner()
	resp := env.createInvoice(t, owner)

	_, err := env.lifecycleUC.Send(context.Background(), owner, resp.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestLifecycleTransition_PagadaEsTerminal(t *testing.T) {
	env := newTestEnv()
	owner := env.owner()
	resp := env.createInvoice(t, owner)

	_, err := env.lifecycleUC.Transition(context.Background(), owner, resp.ID, string(entity.StatusFinalized))
	require.NoError(t, err)
	_, err = env.lifecycleUC.Transition(context.Background(), owner, resp.ID, string(entity.StatusPaid))
	require.NoError(t, err)

	_, err = env.lifecycleUC.Transition(context.Background(), owner, resp.ID, string(entity.StatusCancelled))
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestLifecyclePDF(t *testing.T) {
	env := newTestEnv()
	owner := env.owner()
	resp := env.createInvoice(t, owner)

	pdf, err := env.lifecycleUC.PDF(context.Background(), owner, resp.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, pdf)
}
