package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/invoiceaz/billing-api/internal/domain"
	"github.com/invoiceaz/billing-api/internal/domain/entity"
	"github.com/invoiceaz/billing-api/internal/domain/repository"
)

var _ repository.MembershipRepository = (*MembershipRepo)(nil)

// MembershipRepo implementación de MembershipRepository (usable con pool o tx).
type MembershipRepo struct {
	q Querier
}

// NewMembershipRepository construye el adaptador. Pasar pool o tx (Querier).
func NewMembershipRepository(q Querier) *MembershipRepo {
	return &MembershipRepo{q: q}
}

// Create persiste una nueva membresía. El constraint único
// (user_id, business_id) impide membresías duplicadas.
func (r *MembershipRepo) Create(m *entity.Membership) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	query := `
		INSERT INTO memberships (id, user_id, business_id, role, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.q.Exec(context.Background(), query,
		m.ID, m.UserID, m.BusinessID, m.Role, m.CreatedAt, m.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert membership: %w", err)
	}
	return nil
}

// Update actualiza el rol de una membresía.
func (r *MembershipRepo) Update(m *entity.Membership) error {
	query := `UPDATE memberships SET role = $2, updated_at = $3 WHERE id = $1`
	_, err := r.q.Exec(context.Background(), query, m.ID, m.Role, m.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update membership: %w", err)
	}
	return nil
}

// Delete elimina una membresía por ID.
func (r *MembershipRepo) Delete(id string) error {
	_, err := r.q.Exec(context.Background(), `DELETE FROM memberships WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete membership: %w", err)
	}
	return nil
}

// GetByID obtiene una membresía por ID.
func (r *MembershipRepo) GetByID(id string) (*entity.Membership, error) {
	query := `
		SELECT id, user_id, business_id, role, created_at, updated_at
		FROM memberships WHERE id = $1`
	var m entity.Membership
	err := r.q.QueryRow(context.Background(), query, id).Scan(
		&m.ID, &m.UserID, &m.BusinessID, &m.Role, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get membership: %w", err)
	}
	return &m, nil
}

// GetByUserAndBusiness es la consulta del resolver de tenant:
// nil cuando la identidad no tiene membresía en ese negocio.
func (r *MembershipRepo) GetByUserAndBusiness(userID, businessID string) (*entity.Membership, error) {
	query := `
		SELECT id, user_id, business_id, role, created_at, updated_at
		FROM memberships WHERE user_id = $1 AND business_id = $2`
	var m entity.Membership
	err := r.q.QueryRow(context.Background(), query, userID, businessID).Scan(
		&m.ID, &m.UserID, &m.BusinessID, &m.Role, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get membership by user and business: %w", err)
	}
	return &m, nil
}

// ListByBusiness lista las membresías del negocio.
func (r *MembershipRepo) ListByBusiness(businessID string) ([]*entity.Membership, error) {
	query := `
		SELECT id, user_id, business_id, role, created_at, updated_at
		FROM memberships WHERE business_id = $1 ORDER BY created_at`
	rows, err := r.q.Query(context.Background(), query, businessID)
	if err != nil {
		return nil, fmt.Errorf("list memberships: %w", err)
	}
	defer rows.Close()
	var list []*entity.Membership
	for rows.Next() {
		var m entity.Membership
		if err := rows.Scan(&m.ID, &m.UserID, &m.BusinessID, &m.Role, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan membership: %w", err)
		}
		list = append(list, &m)
	}
	return list, rows.Err()
}

// CountByBusiness cuenta las membresías del negocio (límite de equipo).
func (r *MembershipRepo) CountByBusiness(businessID string) (int, error) {
	var count int
	err := r.q.QueryRow(context.Background(),
		`SELECT COUNT(*) FROM memberships WHERE business_id = $1`, businessID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count memberships: %w", err)
	}
	return count, nil
}
