package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"
)

// Mailer delivers a single plain-text message.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// SMTPMailer sends mail through a plain SMTP relay, Mailpit in development.
type SMTPMailer struct {
	addr string
	from string
}

// NewSMTPMailer constructs an SMTP mailer. addr is host:port.
func NewSMTPMailer(addr, from string) *SMTPMailer {
	return &SMTPMailer{addr: addr, from: from}
}

// Send delivers one message. The context deadline is not honoured by
// net/smtp; the relay is local so delivery is quick or fails fast.
func (m *SMTPMailer) Send(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s\r\n", m.from)
	fmt.Fprintf(&msg, "To: %s\r\n", to)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("\r\n")
	msg.WriteString(body)
	msg.WriteString("\r\n")

	if err := smtp.SendMail(m.addr, nil, m.from, []string{to}, []byte(msg.String())); err != nil {
		return fmt.Errorf("jobs: send mail to %s: %w", to, err)
	}
	return nil
}

// LogMailer logs instead of sending. Used when no relay is configured.
type LogMailer struct {
	Logger *slog.Logger
}

// Send records the message in the application log.
func (m *LogMailer) Send(ctx context.Context, to, subject, body string) error {
	m.Logger.Info("mail (not sent, no relay configured)",
		slog.String("to", to),
		slog.String("subject", subject),
	)
	return nil
}
