// Package pdf implementa la representación gráfica de la factura con
// Maroto v2.
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: Negocio + VOEN  │  N° Factura + Fechas + Estado    │
//	│  ─────────────────────────────────────────────────────────  │
//	│  EMISOR: Dirección / Tel / Email                            │
//	│  CLIENTE: Nombre + VOEN + contacto                          │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TABLA: Cant | Descripción | P.Unit | Imp% | Importe        │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TOTALES: Subtotal / Impuestos / Descuento / TOTAL / Saldo  │
//	│  ─────────────────────────────────────────────────────────  │
//	│  DATOS BANCARIOS + QR del enlace público + Notas/Términos   │
//	└─────────────────────────────────────────────────────────────┘
//
// El tema de la factura (modern, classic, minimal) define paleta y fuente.
package pdf

import (
	"context"
	"fmt"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/code"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/invoiceaz/billing-api/internal/application/billing"
	"github.com/invoiceaz/billing-api/internal/domain/entity"
	invdomain "github.com/invoiceaz/billing-api/internal/domain/invoice"
)

var _ billing.InvoicePDFGenerator = (*MarotoGenerator)(nil)

// ── Temas ─────────────────────────────────────────────────────────────────────

// theme define la paleta y fuente de un tema de factura.
type theme struct {
	primary *props.Color
	gray    *props.Color
	font    string
}

var themes = map[string]theme{
	entity.ThemeModern: {
		primary: &props.Color{Red: 37, Green: 99, Blue: 235},
		gray:    &props.Color{Red: 100, Green: 100, Blue: 100},
		font:    "helvetica",
	},
	entity.ThemeClassic: {
		primary: &props.Color{Red: 30, Green: 58, Blue: 50},
		gray:    &props.Color{Red: 90, Green: 90, Blue: 90},
		font:    "times",
	},
	entity.ThemeMinimal: {
		primary: &props.Color{Red: 30, Green: 30, Blue: 30},
		gray:    &props.Color{Red: 120, Green: 120, Blue: 120},
		font:    "helvetica",
	},
}

func themeFor(name string) theme {
	if t, ok := themes[name]; ok {
		return t
	}
	return themes[entity.ThemeModern]
}

// ── Generator ─────────────────────────────────────────────────────────────────

// MarotoGenerator implementa billing.InvoicePDFGenerator usando Maroto v2.
// Función pura del estado de la factura: no escribe nada.
type MarotoGenerator struct{}

// NewMarotoGenerator construye el generador.
func NewMarotoGenerator() *MarotoGenerator { return &MarotoGenerator{} }

// GenerateInvoicePDF genera el PDF y devuelve sus bytes. publicURL vacío
// omite el bloque del QR (vista descargada desde el propio enlace público).
func (g *MarotoGenerator) GenerateInvoicePDF(
	_ context.Context,
	inv *entity.Invoice,
	items []*entity.InvoiceItem,
	business *entity.Business,
	client *entity.Client,
	publicURL string,
) ([]byte, error) {
	t := themeFor(inv.Theme)

	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: t.font, Size: 9}).
		WithTitle("Factura "+inv.Number, true).
		WithAuthor(business.Name, true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow(inv, business, t))
	m.AddRows(line.NewRow(1, props.Line{Color: t.primary, Thickness: 0.5}))
	m.AddRows(issuerRow(business, t))
	m.AddRows(clientRow(client, t))
	m.AddRows(line.NewRow(1, props.Line{Color: t.primary, Thickness: 0.3}))

	m.AddRows(tableHeaderRow(t))
	for _, r := range tableItemRows(items, inv.Currency, t) {
		m.AddRows(r)
	}

	m.AddRows(line.NewRow(1, props.Line{Color: t.primary, Thickness: 0.3}))
	m.AddRows(totalsRow(inv, t))

	m.AddRows(line.NewRow(3))
	m.AddRows(line.NewRow(1, props.Line{Color: t.gray, Thickness: 0.3}))
	for _, r := range footerRows(inv, business, publicURL, t) {
		m.AddRows(r)
	}

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar documento: %w", err)
	}
	return doc.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

// headerRow: nombre del negocio + VOEN (izq) y N° de factura + fechas + estado (der).
func headerRow(inv *entity.Invoice, business *entity.Business, t theme) core.Row {
	return row.New(22).Add(
		col.New(7).Add(
			text.New(business.Name, props.Text{
				Style: fontstyle.Bold, Size: 13, Color: t.primary, Top: 1,
			}),
			text.New("VOEN: "+nonEmpty(business.TaxID, "—"), props.Text{
				Size: 9, Top: 9, Color: t.gray,
			}),
		),
		col.New(5).Add(
			text.New("FACTURA", props.Text{
				Style: fontstyle.Bold, Size: 8, Align: align.Right,
				Color: t.primary, Top: 1,
			}),
			text.New(inv.Number, props.Text{
				Style: fontstyle.Bold, Size: 12, Align: align.Right, Top: 6,
			}),
			text.New(fmt.Sprintf("Fecha: %s   Vence: %s",
				inv.InvoiceDate.Format("02.01.2006"),
				inv.DueDate.Format("02.01.2006"),
			), props.Text{Size: 8, Align: align.Right, Top: 13, Color: t.gray}),
			text.New(statusLabel(inv.Status), props.Text{
				Style: fontstyle.Bold, Size: 8, Align: align.Right, Top: 18, Color: t.primary,
			}),
		),
	)
}

// issuerRow: datos de contacto del negocio emisor.
func issuerRow(business *entity.Business, t theme) core.Row {
	return row.New(12).Add(
		col.New(12).Add(
			text.New("EMISOR", props.Text{
				Style: fontstyle.Bold, Size: 8, Color: t.primary, Top: 1,
			}),
			text.New(fmt.Sprintf("Dirección: %s   |   Tel: %s   |   Email: %s",
				nonEmpty(business.Address, "—"),
				nonEmpty(business.Phone, "—"),
				nonEmpty(business.Email, "—"),
			), props.Text{Size: 8, Top: 7, Color: t.gray}),
		),
	)
}

// clientRow: datos del cliente facturado.
func clientRow(client *entity.Client, t theme) core.Row {
	return row.New(14).Add(
		col.New(12).Add(
			text.New("FACTURAR A", props.Text{
				Style: fontstyle.Bold, Size: 8, Color: t.primary, Top: 1,
			}),
			text.New(client.Name, props.Text{
				Style: fontstyle.Bold, Size: 10, Top: 6,
			}),
			text.New(fmt.Sprintf("VOEN: %s   |   Email: %s   |   Tel: %s",
				nonEmpty(client.TaxID, "—"),
				nonEmpty(client.Email, "—"),
				nonEmpty(client.Phone, "—"),
			), props.Text{Size: 8, Top: 12, Color: t.gray}),
		),
	)
}

var colorWhite = &props.Color{Red: 255, Green: 255, Blue: 255}

// tableHeaderRow: cabecera de la tabla de líneas.
func tableHeaderRow(t theme) core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: a,
			Color: colorWhite, Top: 2, Left: 1, Right: 1,
		}))
	}
	return row.New(8).WithStyle(&props.Cell{BackgroundColor: t.primary}).Add(
		h("Cant.", 2, align.Center),
		h("Descripción", 5, align.Left),
		h("Precio Unit.", 2, align.Right),
		h("Imp.%", 1, align.Center),
		h("Importe", 2, align.Right),
	)
}

// tableItemRows: una fila por línea de la factura.
func tableItemRows(items []*entity.InvoiceItem, cur string, t theme) []core.Row {
	result := make([]core.Row, 0, len(items))
	for _, it := range items {
		qty := it.Quantity.String()
		if it.Unit != "" {
			qty += " " + it.Unit
		}
		result = append(result, row.New(7).Add(
			col.New(2).Add(text.New(qty,
				props.Text{Size: 8, Align: align.Center, Top: 1},
			)),
			col.New(5).Add(text.New(it.Description,
				props.Text{Size: 8, Align: align.Left, Top: 1, Left: 1},
			)),
			col.New(2).Add(text.New(formatAmount(it.UnitPrice, cur),
				props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1},
			)),
			col.New(1).Add(text.New(it.TaxRate.StringFixed(0)+"%",
				props.Text{Size: 8, Align: align.Center, Top: 1},
			)),
			col.New(2).Add(text.New(formatAmount(it.Amount, cur),
				props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1},
			)),
		))
	}
	return result
}

// totalsRow: bloque de totales alineado a la derecha, con saldo pendiente
// cuando hay pagos parciales.
func totalsRow(inv *entity.Invoice, t theme) core.Row {
	label := func(s string) core.Component {
		return text.New(s, props.Text{
			Style: fontstyle.Bold, Size: 9, Align: align.Right, Right: 2,
		})
	}
	value := func(s string) core.Component {
		return text.New(s, props.Text{Size: 9, Align: align.Right, Right: 1})
	}
	grandLabel := func(s string) core.Component {
		return text.New(s, props.Text{
			Style: fontstyle.Bold, Size: 10, Align: align.Right,
			Color: t.primary, Right: 2,
		})
	}
	grandValue := func(s string) core.Component {
		return text.New(s, props.Text{
			Style: fontstyle.Bold, Size: 10, Align: align.Right,
			Color: t.primary, Right: 1,
		})
	}

	labels := []core.Component{label("Subtotal:"), label("Impuestos:")}
	values := []core.Component{
		value(formatAmount(inv.Subtotal, inv.Currency)),
		value(formatAmount(inv.TaxAmount, inv.Currency)),
	}
	if inv.Discount.IsPositive() {
		labels = append(labels, label("Descuento:"))
		values = append(values, value("-"+formatAmount(inv.Discount, inv.Currency)))
	}
	labels = append(labels, grandLabel("TOTAL:"))
	values = append(values, grandValue(formatAmount(inv.Total, inv.Currency)))
	if inv.PaidAmount.IsPositive() {
		labels = append(labels, label("Pagado:"), label("Saldo:"))
		values = append(values,
			value(formatAmount(inv.PaidAmount, inv.Currency)),
			value(formatAmount(invdomain.Remaining(inv), inv.Currency)),
		)
	}

	return row.New(34).Add(
		col.New(4),
		col.New(4).Add(labels...),
		col.New(4).Add(values...),
	)
}

// footerRows: datos bancarios + QR del enlace público + notas y términos.
func footerRows(inv *entity.Invoice, business *entity.Business, publicURL string, t theme) []core.Row {
	var rows []core.Row

	if business.IBAN != "" || business.BankName != "" {
		rows = append(rows, row.New(14).Add(col.New(12).Add(
			text.New("DATOS BANCARIOS", props.Text{
				Style: fontstyle.Bold, Size: 8, Color: t.primary, Top: 1,
			}),
			text.New(fmt.Sprintf("Banco: %s   |   IBAN: %s   |   SWIFT: %s",
				nonEmpty(business.BankName, "—"),
				nonEmpty(business.IBAN, "—"),
				nonEmpty(business.Swift, "—"),
			), props.Text{Size: 8, Top: 7, Color: t.gray}),
		)))
	}

	if publicURL != "" {
		rows = append(rows, row.New(40).Add(
			col.New(3).Add(code.NewQr(publicURL, props.Rect{
				Percent: 90,
				Center:  true,
			})),
			col.New(9).Add(
				text.New("Escanee el código QR para ver y pagar\nesta factura en línea.", props.Text{
					Size: 8, Top: 6, Left: 3, Color: t.gray,
				}),
				text.New(publicURL, props.Text{
					Size: 7, Top: 20, Left: 3, Color: t.primary,
				}),
			),
		))
	}

	if inv.Notes != "" {
		rows = append(rows, row.New(10).Add(col.New(12).Add(
			text.New("Notas: "+inv.Notes, props.Text{Size: 8, Color: t.gray, Top: 2}),
		)))
	}
	if inv.Terms != "" {
		rows = append(rows, row.New(10).Add(col.New(12).Add(
			text.New("Términos: "+inv.Terms, props.Text{Size: 7, Color: t.gray, Top: 2}),
		)))
	}

	return rows
}

// ── helpers ───────────────────────────────────────────────────────────────────

func statusLabel(s entity.InvoiceStatus) string {
	switch s {
	case entity.StatusDraft:
		return "BORRADOR"
	case entity.StatusPaid:
		return "PAGADA"
	case entity.StatusOverdue:
		return "VENCIDA"
	case entity.StatusCancelled:
		return "ANULADA"
	}
	return ""
}

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}

var amountPrinter = message.NewPrinter(language.English)

// formatAmount formatea un monto con su símbolo de moneda y separadores de
// miles, ej. "₼ 1,180.00" o "US$ 23.60".
func formatAmount(amount decimal.Decimal, cur string) string {
	f, _ := amount.Float64()
	unit, err := currency.ParseISO(cur)
	if err != nil {
		return amountPrinter.Sprintf("%s %.2f", cur, f)
	}
	return amountPrinter.Sprintf("%v", currency.Symbol(unit.Amount(f)))
}
