package infra

import (
	"fmt"
	"net/smtp"

	"github.com/jmoris/STPark-sub000/internal/config"

	"github.com/jordan-wright/email"
)

// Mailer sends back-office mail over SMTP. Sending happens from worker
// goroutines only, never on the request path.
type Mailer struct {
	host string
	port int
	user string
	pass string
	from string
}

func NewMailer(cfg *config.Config) *Mailer {
	return &Mailer{
		host: cfg.SMTPHost,
		port: cfg.SMTPPort,
		user: cfg.SMTPUser,
		pass: cfg.SMTPPassword,
		from: cfg.SMTPUser,
	}
}

// Send delivers a message with optional file attachments.
func (m *Mailer) Send(to []string, subject, htmlBody string, attachments []string) error {
	if m.host == "" {
		return fmt.Errorf("smtp not configured")
	}

	e := email.NewEmail()
	e.From = m.from
	e.To = to
	e.Subject = subject
	e.HTML = []byte(htmlBody)
	for _, path := range attachments {
		if _, err := e.AttachFile(path); err != nil {
			return fmt.Errorf("attach %s: %w", path, err)
		}
	}

	addr := fmt.Sprintf("%s:%d", m.host, m.port)
	return e.Send(addr, smtp.PlainAuth("", m.user, m.pass, m.host))
}
