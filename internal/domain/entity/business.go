package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Monedas soportadas.
const (
	CurrencyAZN = "AZN"
	CurrencyUSD = "USD"
	CurrencyEUR = "EUR"
)

// Temas de factura disponibles para la representación gráfica.
const (
	ThemeModern  = "modern"
	ThemeClassic = "classic"
	ThemeMinimal = "minimal"
)

// Business representa un negocio/tenant. Es el dueño de sus clientes,
// productos, facturas, pagos y gastos; ninguna fila tenant-owned se lee
// fuera del negocio resuelto para la petición.
type Business struct {
	ID      string
	Name    string
	TaxID   string // VOEN
	Address string
	City    string
	Phone   string
	Email   string
	Website string

	// Datos bancarios (aparecen en la factura)
	BankName string
	IBAN     string
	Swift    string

	// Presupuesto mensual de gastos; al excederlo se emite un evento de aviso
	BudgetLimit decimal.Decimal

	DefaultCurrency string // AZN, USD, EUR
	DefaultTheme    string // modern, classic, minimal

	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ValidCurrency verifica que la moneda esté en el conjunto soportado.
func ValidCurrency(c string) bool {
	switch c {
	case CurrencyAZN, CurrencyUSD, CurrencyEUR:
		return true
	}
	return false
}

// ValidTheme verifica que el tema exista.
func ValidTheme(t string) bool {
	switch t {
	case ThemeModern, ThemeClassic, ThemeMinimal:
		return true
	}
	return false
}
