package mail

import (
	"context"
	"errors"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/mcastellan/terravia-backend/pkg/config"
	"github.com/mcastellan/terravia-backend/pkg/logger"
)

// Message is a plain-text email.
type Message struct {
	To      []string
	CC      []string
	Subject string
	Body    string
}

// Sender delivers messages. The notification worker depends on this
// interface so tests can capture outgoing mail.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// SMTPMailer delivers mail over plain SMTP with AUTH when credentials
// are configured.
type SMTPMailer struct {
	cfg  config.SMTPConfig
	logg *logger.Logger
}

func NewSMTPMailer(cfg config.SMTPConfig, logg *logger.Logger) (*SMTPMailer, error) {
	if !cfg.Enabled() {
		return nil, errors.New("smtp host is required")
	}
	if strings.TrimSpace(cfg.From) == "" {
		return nil, errors.New("smtp from address is required")
	}
	return &SMTPMailer{cfg: cfg, logg: logg}, nil
}

func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	if len(msg.To) == 0 {
		return errors.New("at least one recipient is required")
	}

	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}

	recipients := append(append([]string{}, msg.To...), msg.CC...)
	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)

	if err := smtp.SendMail(addr, auth, m.cfg.From, recipients, buildRFC822(m.cfg.From, msg)); err != nil {
		return fmt.Errorf("sending mail: %w", err)
	}

	if m.logg != nil {
		logCtx := m.logg.WithFields(ctx, map[string]any{
			"recipients": len(recipients),
			"subject":    msg.Subject,
		})
		m.logg.Info(logCtx, "email sent")
	}
	return nil
}

func buildRFC822(from string, msg Message) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", strings.Join(msg.To, ", "))
	if len(msg.CC) > 0 {
		fmt.Fprintf(&b, "Cc: %s\r\n", strings.Join(msg.CC, ", "))
	}
	fmt.Fprintf(&b, "Subject: %s\r\n", msg.Subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(msg.Body)
	return []byte(b.String())
}

// NoopMailer drops messages. Used when SMTP is not configured so the
// worker can still record in-app notifications.
type NoopMailer struct{}

func (NoopMailer) Send(context.Context, Message) error { return nil }
