package entity

// PlanLimits define los cupos de un plan de suscripción.
// Un valor -1 significa ilimitado.
type PlanLimits struct {
	InvoicesPerMonth int
	Clients          int
	ExpensesPerMonth int
	Businesses       int
	TeamMembers      int
	CustomThemes     bool
	PremiumPDF       bool
}

// Unlimited marca un cupo sin límite.
const Unlimited = -1

var planLimits = map[string]PlanLimits{
	PlanFree: {
		InvoicesPerMonth: 5,
		Clients:          10,
		ExpensesPerMonth: 20,
		Businesses:       1,
		TeamMembers:      0,
	},
	PlanPro: {
		InvoicesPerMonth: 100,
		Clients:          Unlimited,
		ExpensesPerMonth: Unlimited,
		Businesses:       5,
		TeamMembers:      0,
		PremiumPDF:       true,
	},
	PlanPremium: {
		InvoicesPerMonth: Unlimited,
		Clients:          Unlimited,
		ExpensesPerMonth: Unlimited,
		Businesses:       Unlimited,
		TeamMembers:      Unlimited,
		CustomThemes:     true,
		PremiumPDF:       true,
	},
}

// LimitsForPlan devuelve los cupos del plan; un plan desconocido recibe
// los cupos del plan gratuito (el más restrictivo).
func LimitsForPlan(plan string) PlanLimits {
	if l, ok := planLimits[plan]; ok {
		return l
	}
	return planLimits[PlanFree]
}

// Allows indica si un cupo admite un elemento más dado el uso actual.
func (l PlanLimits) Allows(limit, current int) bool {
	return limit == Unlimited || current < limit
}
