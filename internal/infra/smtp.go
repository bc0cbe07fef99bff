package infra

import (
	"fmt"
	"net/smtp"

	"github.com/jordan-wright/email"

	"github.com/fernandosserra/unython/internal/config"
)

// Mailer sends receipts through the configured SMTP relay.
type Mailer struct {
	host     string
	user     string
	password string
	addr     string
}

func NewMailer(cfg *config.Config) *Mailer {
	return &Mailer{
		host:     cfg.SMTPHost,
		user:     cfg.SMTPUser,
		password: cfg.SMTPPassword,
		addr:     fmt.Sprintf("%s:%d", cfg.SMTPHost, cfg.SMTPPort),
	}
}

// Configured is false when no SMTP host was set; callers skip e-mail then.
func (m *Mailer) Configured() bool { return m != nil && m.host != "" }

// EnviarRecibo mails a receipt, attaching the PDF at anexo when given.
func (m *Mailer) EnviarRecibo(para, assunto, corpo, anexo string) error {
	e := email.NewEmail()
	e.From = m.user
	e.To = []string{para}
	e.Subject = assunto
	e.Text = []byte(corpo)

	if anexo != "" {
		if _, err := e.AttachFile(anexo); err != nil {
			return fmt.Errorf("mailer: attach PDF: %w", err)
		}
	}

	var auth smtp.Auth
	if m.user != "" {
		auth = smtp.PlainAuth("", m.user, m.password, m.host)
	}
	return e.Send(m.addr, auth)
}
