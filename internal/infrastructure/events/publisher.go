// Package events implementa el publicador del log de actividad sobre la
// tabla events.
package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/invoiceaz/billing-api/internal/application/billing"
	"github.com/invoiceaz/billing-api/internal/domain/entity"
	"github.com/invoiceaz/billing-api/internal/domain/repository"
	"github.com/invoiceaz/billing-api/pkg/logger"
)

var _ billing.EventPublisher = (*Publisher)(nil)

// Publisher persiste eventos del log de actividad. Contrato fire-and-forget:
// se invoca después del commit de la mutación y un fallo al registrar jamás
// la revierte; solo queda constancia en el log de la app.
type Publisher struct {
	repo repository.EventRepository
	log  *logger.Logger
}

// NewPublisher construye el publicador.
func NewPublisher(repo repository.EventRepository, log *logger.Logger) *Publisher {
	return &Publisher{repo: repo, log: log.Component("events")}
}

// Publish completa los campos generados del evento y lo persiste.
func (p *Publisher) Publish(evt *entity.Event) {
	if evt.ID == "" {
		evt.ID = uuid.New().String()
	}
	if evt.OccurredAt.IsZero() {
		evt.OccurredAt = time.Now().UTC()
	}
	if err := p.repo.Create(evt); err != nil {
		p.log.Error().Err(err).
			Str("entity", evt.EntityKind).
			Str("action", evt.Action).
			Msg("no se pudo registrar el evento de actividad")
	}
}
