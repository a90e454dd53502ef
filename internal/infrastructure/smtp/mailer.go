package smtp

import (
	"gopkg.in/gomail.v2"

	"github.com/ragno-typhojem/libocculus/internal/config"
)

// Mailer sends HTML emails.
type Mailer interface {
	SendEmail(to, subject, html string) error
}

type mailer struct {
	dialer *gomail.Dialer
	from   string
}

func NewMailer(cfg *config.Config) Mailer {
	d := gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword)
	return &mailer{dialer: d, from: cfg.SMTPFrom}
}

func (m *mailer) SendEmail(to, subject, html string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", html)
	return m.dialer.DialAndSend(msg)
}
