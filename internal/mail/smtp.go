package mail

import (
	"context"
	"fmt"
	"net"
	"net/smtp"
	"strings"
)

// SMTPConfig holds the SMTP relay settings. Auth is skipped when User is
// empty (local relays, mailhog in dev).
type SMTPConfig struct {
	Host        string
	Port        int
	User        string
	Password    string
	From        string // e.g. "taskd <no-reply@taskd.dev>"
	FrontendURL string // linked in email bodies
}

// SMTPMailer sends mail through a plain SMTP relay.
type SMTPMailer struct {
	cfg SMTPConfig
}

func NewSMTPMailer(cfg SMTPConfig) *SMTPMailer {
	return &SMTPMailer{cfg: cfg}
}

func (m *SMTPMailer) SendConfirmation(ctx context.Context, to, name, code string) error {
	body := fmt.Sprintf(
		"Hi %s,\r\n\r\n"+
			"Welcome aboard. Confirm your account with this code:\r\n\r\n"+
			"    %s\r\n\r\n"+
			"Enter it at %s/auth/confirm-account within 10 minutes.\r\n\r\n"+
			"If you did not create this account, ignore this email.\r\n",
		name, code, m.cfg.FrontendURL)

	return m.send(ctx, to, "Confirm your account", body)
}

func (m *SMTPMailer) SendPasswordReset(ctx context.Context, to, name, code string) error {
	body := fmt.Sprintf(
		"Hi %s,\r\n\r\n"+
			"Someone requested a password reset for your account. Use this code:\r\n\r\n"+
			"    %s\r\n\r\n"+
			"Enter it at %s/auth/new-password within 10 minutes.\r\n\r\n"+
			"If you did not request a reset, ignore this email.\r\n",
		name, code, m.cfg.FrontendURL)

	return m.send(ctx, to, "Reset your password", body)
}

func (m *SMTPMailer) send(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := strings.Join([]string{
		"From: " + m.cfg.From,
		"To: " + to,
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=utf-8",
		"",
		body,
	}, "\r\n")

	addr := net.JoinHostPort(m.cfg.Host, fmt.Sprintf("%d", m.cfg.Port))

	var auth smtp.Auth
	if m.cfg.User != "" {
		auth = smtp.PlainAuth("", m.cfg.User, m.cfg.Password, m.cfg.Host)
	}

	if err := smtp.SendMail(addr, auth, envelopeFrom(m.cfg.From), []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("mail: send to %s: %w", to, err)
	}
	return nil
}

// envelopeFrom strips an optional display name from "Name <addr>".
func envelopeFrom(from string) string {
	if i := strings.IndexByte(from, '<'); i >= 0 {
		if j := strings.IndexByte(from[i:], '>'); j > 0 {
			return from[i+1 : i+j]
		}
	}
	return from
}
