package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/invoiceaz/billing-api/internal/domain/entity"
	"github.com/invoiceaz/billing-api/internal/domain/repository"
)

var _ repository.EventRepository = (*EventRepo)(nil)

// EventRepo implementación de EventRepository. El log de actividad es
// append-only: solo inserción y lectura.
type EventRepo struct {
	q Querier
}

// NewEventRepository construye el adaptador. Pasar pool o tx (Querier).
func NewEventRepository(q Querier) *EventRepo {
	return &EventRepo{q: q}
}

// Create persiste un evento del log de actividad.
func (r *EventRepo) Create(e *entity.Event) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	query := `
		INSERT INTO events (id, business_id, actor_id, entity_kind, entity_id, action, from_status, to_status, detail, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := r.q.Exec(context.Background(), query,
		e.ID, e.BusinessID, nullIfEmpty(e.ActorID), e.EntityKind, e.EntityID,
		e.Action, e.FromStatus, e.ToStatus, e.Detail, e.OccurredAt,
	)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

// ListByBusiness lista los eventos del negocio, del más reciente al más antiguo.
func (r *EventRepo) ListByBusiness(businessID string, limit, offset int) ([]*entity.Event, error) {
	query := `
		SELECT id, business_id, COALESCE(actor_id, ''), entity_kind, entity_id, action, from_status, to_status, detail, occurred_at
		FROM events WHERE business_id = $1 ORDER BY occurred_at DESC LIMIT $2 OFFSET $3`
	rows, err := r.q.Query(context.Background(), query, businessID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()
	var list []*entity.Event
	for rows.Next() {
		var e entity.Event
		if err := rows.Scan(
			&e.ID, &e.BusinessID, &e.ActorID, &e.EntityKind, &e.EntityID,
			&e.Action, &e.FromStatus, &e.ToStatus, &e.Detail, &e.OccurredAt,
		); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		list = append(list, &e)
	}
	return list, rows.Err()
}
