// Package mail delivers outgoing email. Senders report failure explicitly so callers can
// decide whether a lost message aborts the request.
package mail

import (
	"context"
	"fmt"

	"github.com/yukikurage/taskhub/internal/config"
	"github.com/yukikurage/taskhub/internal/logger"
	"gopkg.in/gomail.v2"
)

// Message is a plain text email.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Mailer sends a single message.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// DeliveryError is returned when a message could not be handed to the mail server.
type DeliveryError struct {
	Recipient string
	Err       error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("failed to deliver mail to %s: %v", e.Recipient, e.Err)
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}

// New returns an SMTP mailer when a host is configured and a log mailer otherwise.
func New(cfg config.MailConfig) Mailer {
	if cfg.Host == "" {
		logger.Warn("mail host not configured, invitations will only be logged")
		return NewLogMailer(cfg.From)
	}
	return NewSMTPMailer(cfg)
}

// SMTPMailer sends mail through an SMTP relay.
type SMTPMailer struct {
	from   string
	dialer *gomail.Dialer
}

func NewSMTPMailer(cfg config.MailConfig) *SMTPMailer {
	return &SMTPMailer{
		from:   cfg.From,
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
	}
}

func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return &DeliveryError{Recipient: msg.To, Err: err}
	}

	gm := gomail.NewMessage()
	gm.SetHeader("From", m.from)
	gm.SetHeader("To", msg.To)
	gm.SetHeader("Subject", msg.Subject)
	gm.SetBody("text/plain", msg.Body)

	if err := m.dialer.DialAndSend(gm); err != nil {
		return &DeliveryError{Recipient: msg.To, Err: err}
	}

	logger.Info("mail sent", "to", msg.To, "subject", msg.Subject)
	return nil
}

// LogMailer writes messages to the application log instead of sending them.
type LogMailer struct {
	from string
}

func NewLogMailer(from string) *LogMailer {
	return &LogMailer{from: from}
}

func (m *LogMailer) Send(_ context.Context, msg Message) error {
	logger.Info("mail",
		"from", m.from,
		"to", msg.To,
		"subject", msg.Subject,
		"body", msg.Body,
	)
	return nil
}
