package invoice

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/invoiceaz/billing-api/internal/domain"
	"github.com/invoiceaz/billing-api/internal/domain/entity"
)

var oneHundred = decimal.NewFromInt(100)

// ValidateItem aplica las invariantes de línea: cantidad > 0,
// precio unitario >= 0, tasa de impuesto en [0,100].
func ValidateItem(it *entity.InvoiceItem) error {
	if !it.Quantity.GreaterThan(decimal.Zero) {
		return fmt.Errorf("cantidad debe ser mayor que cero: %w", domain.ErrInvalidInput)
	}
	if it.UnitPrice.LessThan(decimal.Zero) {
		return fmt.Errorf("precio unitario negativo: %w", domain.ErrInvalidInput)
	}
	if it.TaxRate.LessThan(decimal.Zero) || it.TaxRate.GreaterThan(oneHundred) {
		return fmt.Errorf("tasa de impuesto fuera de [0,100]: %w", domain.ErrInvalidInput)
	}
	return nil
}

// Recalculate es la única función que deriva los montos de una factura a
// partir de sus líneas. Todos los caminos que los necesitan (creación,
// edición, duplicado, PDF) pasan por aquí para que nunca diverjan.
//
//	amount_i  = quantity_i × unit_price_i
//	subtotal  = Σ amount_i
//	tax       = Σ amount_i × tax_rate_i / 100
//	total     = subtotal + tax − discount, redondeado a 2 decimales al final
//
// El redondeo se aplica una sola vez sobre el total, no línea por línea.
func Recalculate(inv *entity.Invoice, items []*entity.InvoiceItem) {
	subtotal := decimal.Zero
	tax := decimal.Zero
	for _, it := range items {
		it.Amount = it.Quantity.Mul(it.UnitPrice)
		subtotal = subtotal.Add(it.Amount)
		tax = tax.Add(it.Amount.Mul(it.TaxRate).Div(oneHundred))
	}
	inv.Subtotal = subtotal.Round(2)
	inv.TaxAmount = tax.Round(2)
	inv.Total = subtotal.Add(tax).Sub(inv.Discount).Round(2)
}

// ValidateDiscount verifica el descuento contra los montos ya recalculados:
// no puede ser negativo ni exceder subtotal + impuestos. Un total negativo
// dejaría al saldo fuera de 0 ≤ pagado ≤ total desde la creación.
func ValidateDiscount(inv *entity.Invoice) error {
	if inv.Discount.IsNegative() {
		return fmt.Errorf("descuento negativo: %w", domain.ErrInvalidInput)
	}
	if inv.Total.IsNegative() {
		return fmt.Errorf("descuento mayor que subtotal más impuestos: %w", domain.ErrInvalidInput)
	}
	return nil
}

// PaidAmount suma los pagos de la factura. Centralizado por la misma razón
// que Recalculate.
func PaidAmount(payments []*entity.Payment) decimal.Decimal {
	sum := decimal.Zero
	for _, p := range payments {
		sum = sum.Add(p.Amount)
	}
	return sum
}

// Remaining devuelve el saldo pendiente (total − pagado), nunca negativo.
func Remaining(inv *entity.Invoice) decimal.Decimal {
	r := inv.Total.Sub(inv.PaidAmount)
	if r.IsNegative() {
		return decimal.Zero
	}
	return r
}

// Settled indica si el monto pagado cubre el total dentro de la tolerancia ε.
func Settled(total, paid decimal.Decimal) bool {
	return total.GreaterThan(decimal.Zero) && paid.GreaterThanOrEqual(total.Sub(Epsilon))
}

// NumberPrefix es el prefijo de numeración de facturas.
const NumberPrefix = "INV-"

// firstNumber es el consecutivo inicial de cada negocio.
const firstNumber = 1001

// NextNumber deriva el siguiente número de factura a partir del último
// asignado en el negocio ("INV-1004" → "INV-1005"). Con lastNumber vacío
// (primer factura) o no parseable, arranca la secuencia desde el fallback:
// firstNumber + la cantidad de facturas existentes.
func NextNumber(lastNumber string, existing int) string {
	if lastNumber != "" {
		parts := strings.Split(lastNumber, "-")
		if n, err := strconv.Atoi(parts[len(parts)-1]); err == nil {
			return fmt.Sprintf("%s%04d", NumberPrefix, n+1)
		}
	}
	return fmt.Sprintf("%s%04d", NumberPrefix, firstNumber+existing)
}
