package mail

import (
	"context"
	"log/slog"
)

// LogMailer writes emails to the log instead of delivering them. Used in
// dev when no SMTP relay is configured, so the codes are still reachable.
type LogMailer struct {
	Logger *slog.Logger
}

func NewLogMailer(logger *slog.Logger) *LogMailer {
	return &LogMailer{Logger: logger}
}

func (m *LogMailer) SendConfirmation(ctx context.Context, to, name, code string) error {
	m.Logger.Info("confirmation email (log mailer)", "to", to, "name", name, "code", code)
	return nil
}

func (m *LogMailer) SendPasswordReset(ctx context.Context, to, name, code string) error {
	m.Logger.Info("password reset email (log mailer)", "to", to, "name", name, "code", code)
	return nil
}
