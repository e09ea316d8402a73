package entity

import "time"

// Planes de suscripción (deben coincidir con el CHECK de la tabla users).
const (
	PlanFree    = "free"
	PlanPro     = "pro"
	PlanPremium = "premium"
)

// User representa una identidad autenticable. Un usuario puede tener
// membresías (con roles distintos) en varios negocios a la vez.
type User struct {
	ID           string
	Email        string
	PasswordHash string // bcrypt hash, nunca plano en dominio después de persistir
	Name         string
	Phone        string
	Plan         string // free, pro, premium
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
