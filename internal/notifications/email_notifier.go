package notifications

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"strings"
	"time"

	"gopkg.in/gomail.v2"
)

var ErrEmailConfigMissing = errors.New("email config missing")

type EmailConfig struct {
	SMTPHost  string
	SMTPPort  int
	SMTPUser  string
	SMTPPass  string
	FromEmail string
}

// EmailNotifier delivers password reset links over SMTP.
type EmailNotifier struct {
	cfg    EmailConfig
	logger *slog.Logger
	send   func(m *gomail.Message) error
}

func NewEmailNotifier(cfg EmailConfig, logger *slog.Logger) *EmailNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	d := gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass)

	return &EmailNotifier{
		cfg:    cfg,
		logger: logger,
		send: func(m *gomail.Message) error {
			return d.DialAndSend(m)
		},
	}
}

func (n *EmailNotifier) SendPasswordReset(ctx context.Context, in PasswordResetInput) error {
	if n.cfg.SMTPHost == "" || n.cfg.FromEmail == "" {
		return ErrEmailConfigMissing
	}
	if strings.TrimSpace(in.Email) == "" {
		return fmt.Errorf("empty recipient")
	}

	m := buildResetMessage(n.cfg.FromEmail, in)

	// gomail has no context support; the send keeps running in the
	// background if ctx ends first.
	done := make(chan error, 1)
	go func() {
		done <- n.send(m)
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("send email: %w", err)
		}
	case <-ctx.Done():
		return ctx.Err()
	}

	n.logger.Info("password reset email sent", slog.String("to", in.Email))
	return nil
}

func buildResetMessage(from string, in PasswordResetInput) *gomail.Message {
	m := gomail.NewMessage()
	m.SetHeader("From", from)
	m.SetHeader("To", in.Email)
	m.SetHeader("Subject", "Reset your RoleBoard password")

	name := in.Name
	if name == "" {
		name = "there"
	}

	intro := "Use the link below to choose a new password."
	if ttl := humanDuration(in.ExpiresIn); ttl != "" {
		intro += " It expires in " + ttl + "."
	}

	m.SetBody("text/plain", fmt.Sprintf(
		"Hi %s,\n\n%s\n\n%s\n\nIf you did not ask for this, ignore this email.\n",
		name, intro, in.ResetLink,
	))
	m.AddAlternative("text/html", fmt.Sprintf(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif;">
  <div style="max-width: 520px; margin: 0 auto; padding: 16px;">
    <h2>Password reset</h2>
    <p>Hi %s,</p>
    <p>%s</p>
    <p><a href="%s">Reset password</a></p>
    <p style="font-size: 12px; color: #6b7280;">If you did not ask for this, ignore this email.</p>
  </div>
</body>
</html>`, html.EscapeString(name), html.EscapeString(intro), html.EscapeString(in.ResetLink)))

	return m
}

// humanDuration renders whole hours or minutes, e.g. "10 minutes", "1 hour".
func humanDuration(d time.Duration) string {
	switch {
	case d <= 0:
		return ""
	case d%time.Hour == 0:
		return plural(int(d/time.Hour), "hour")
	case d >= time.Minute:
		return plural(int(d.Round(time.Minute)/time.Minute), "minute")
	default:
		return plural(int(d.Round(time.Second)/time.Second), "second")
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return "1 " + unit
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
