// Package email envía los correos del servicio (hoy: código de login).
// El envío real sale por SMTP; en dev puede usarse el LogSender.
package email

import (
	"github.com/nu-its/authgate/internal/observability/logger"
)

// Sender envía un email con cuerpo HTML y texto plano.
type Sender interface {
	Send(to, subject, htmlBody, textBody string) error
}

// LogSender no envía nada: loguea el correo. Solo dev/tests.
type LogSender struct{}

func (LogSender) Send(to, subject, htmlBody, textBody string) error {
	logger.Named("email").Info("email (log sender, not delivered)",
		logger.String("to", to),
		logger.String("subject", subject),
		logger.Int("html_bytes", len(htmlBody)),
	)
	return nil
}
