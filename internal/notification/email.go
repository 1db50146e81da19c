package notification

import (
	"fmt"

	"gopkg.in/gomail.v2"

	"opsledger.io/opsledger/internal/config"
)

// EmailSender delivers notification emails over SMTP. It is only
// invoked from queue workers, never from request handlers.
type EmailSender struct {
	dialer *gomail.Dialer
	from   string
}

// NewEmailSender creates an SMTP email sender from configuration.
func NewEmailSender(cfg config.SMTPConfig) *EmailSender {
	return &EmailSender{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
	}
}

// SendMail sends one email to the given recipients. A single dial
// serves all recipients of one notification event.
func (s *EmailSender) SendMail(to []string, subject, body string) error {
	if len(to) == 0 {
		return nil
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to...)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("send mail to %d recipients: %w", len(to), err)
	}
	return nil
}
