// Package email implementa la entrega de facturas por correo usando Resend.
package email

import (
	"context"
	"fmt"

	"github.com/resend/resend-go/v2"

	"github.com/invoiceaz/billing-api/internal/application/billing"
	"github.com/invoiceaz/billing-api/internal/domain/entity"
	"github.com/invoiceaz/billing-api/pkg/config"
)

var _ billing.DeliverySender = (*ResendSender)(nil)

// ResendSender envía la factura al cliente con el PDF adjunto y el enlace
// público. Sin API key el envío queda deshabilitado: Enabled() devuelve
// false y los casos de uso marcan la factura como enviada sin entrega real.
type ResendSender struct {
	client *resend.Client
	cfg    config.EmailConfig
}

// NewResendSender construye el sender. Con APIKey vacío queda en modo
// deshabilitado (desarrollo).
func NewResendSender(cfg config.EmailConfig) *ResendSender {
	s := &ResendSender{cfg: cfg}
	if cfg.APIKey != "" {
		s.client = resend.NewClient(cfg.APIKey)
	}
	return s
}

// Enabled indica si hay credenciales para entregar correo de verdad.
func (s *ResendSender) Enabled() bool {
	return s.client != nil
}

// SendInvoice entrega la factura al email del cliente.
func (s *ResendSender) SendInvoice(ctx context.Context, business *entity.Business, client *entity.Client, inv *entity.Invoice, pdf []byte, publicURL string) error {
	if s.client == nil {
		return fmt.Errorf("envío de correo deshabilitado: falta RESEND_API_KEY")
	}
	if client.Email == "" {
		return fmt.Errorf("el cliente %s no tiene email", client.Name)
	}

	params := &resend.SendEmailRequest{
		From:    fmt.Sprintf("%s <%s>", business.Name, s.cfg.FromAddress),
		To:      []string{client.Email},
		Subject: fmt.Sprintf("Factura %s de %s", inv.Number, business.Name),
		Html:    invoiceBody(business, client, inv, publicURL),
		Attachments: []*resend.Attachment{
			{
				Filename:    fmt.Sprintf("%s.pdf", inv.Number),
				Content:     pdf,
				ContentType: "application/pdf",
			},
		},
	}
	if s.cfg.ReplyTo != "" {
		params.ReplyTo = s.cfg.ReplyTo
	}

	if _, err := s.client.Emails.SendWithContext(ctx, params); err != nil {
		return fmt.Errorf("enviar factura %s: %w", inv.Number, err)
	}
	return nil
}

func invoiceBody(business *entity.Business, client *entity.Client, inv *entity.Invoice, publicURL string) string {
	return fmt.Sprintf(`
		<p>Hola %s,</p>
		<p>%s le ha enviado la factura <strong>%s</strong> por un total de
		<strong>%s %s</strong>, con vencimiento el %s.</p>
		<p>Puede verla y pagarla en línea aquí:
		<a href="%s">%s</a></p>
		<p>El PDF va adjunto a este correo.</p>`,
		client.Name, business.Name, inv.Number,
		inv.Total.StringFixed(2), inv.Currency,
		inv.DueDate.Format("02.01.2006"),
		publicURL, publicURL,
	)
}
