// Package mail sends follow-up emails to saved leads. Drafting is delegated
// to the GenAI client; delivery goes through a plain SMTP relay.
package mail

import (
	"context"
	"fmt"
	"log/slog"
	"net/smtp"
	"os"
	"strings"

	"github.com/genetech/leadchat/internal/util"
)

// Mailer delivers a single plain-text email.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// Opts holds SMTP relay configuration.
type Opts struct {
	Server   string
	Port     int
	Username string
	Password string
	From     string
}

// Option configures the SMTP mailer.
type Option func(*Opts)

// WithServer sets the SMTP server host.
func WithServer(server string) Option {
	return func(o *Opts) { o.Server = server }
}

// WithPort sets the SMTP server port.
func WithPort(port int) Option {
	return func(o *Opts) { o.Port = port }
}

// WithCredentials sets the SMTP auth username and password.
func WithCredentials(username, password string) Option {
	return func(o *Opts) {
		o.Username = username
		o.Password = password
	}
}

// WithFrom sets the envelope and header From address.
func WithFrom(from string) Option {
	return func(o *Opts) { o.From = from }
}

// SMTPMailer sends mail through an authenticated SMTP relay.
type SMTPMailer struct {
	opts Opts
}

// NewSMTPMailer creates a mailer. Unset options fall back to the SMTP_SERVER,
// SMTP_PORT, SMTP_USERNAME, SMTP_PASSWORD, and FROM_EMAIL environment
// variables, with gmail defaults matching the deployed relay.
func NewSMTPMailer(opts ...Option) *SMTPMailer {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Server == "" {
		cfg.Server = os.Getenv("SMTP_SERVER")
	}
	if cfg.Server == "" {
		cfg.Server = "smtp.gmail.com"
	}
	if cfg.Port == 0 {
		cfg.Port = util.ParseIntEnv("SMTP_PORT", 587)
	}
	if cfg.Username == "" {
		cfg.Username = os.Getenv("SMTP_USERNAME")
	}
	if cfg.Password == "" {
		cfg.Password = os.Getenv("SMTP_PASSWORD")
	}
	if cfg.From == "" {
		cfg.From = os.Getenv("FROM_EMAIL")
	}
	if cfg.From == "" {
		cfg.From = "noreply@genetechsolutions.com"
	}
	return &SMTPMailer{opts: cfg}
}

// Send delivers a plain-text email to a single recipient.
func (m *SMTPMailer) Send(ctx context.Context, to, subject, body string) error {
	if to == "" {
		return fmt.Errorf("Send: recipient address is empty")
	}
	addr := fmt.Sprintf("%s:%d", m.opts.Server, m.opts.Port)
	msg := buildMessage(m.opts.From, to, subject, body)

	var auth smtp.Auth
	if m.opts.Username != "" {
		auth = smtp.PlainAuth("", m.opts.Username, m.opts.Password, m.opts.Server)
	}

	slog.Info("SMTPMailer.Send: sending email", "to", to, "subject", subject, "server", addr)
	// smtp.SendMail upgrades to STARTTLS when the server advertises it.
	done := make(chan error, 1)
	go func() {
		done <- smtp.SendMail(addr, auth, m.opts.From, []string{to}, msg)
	}()
	select {
	case <-ctx.Done():
		return fmt.Errorf("Send: %w", ctx.Err())
	case err := <-done:
		if err != nil {
			slog.Error("SMTPMailer.Send: delivery failed", "to", to, "error", err)
			return fmt.Errorf("Send: %w", err)
		}
	}
	slog.Debug("SMTPMailer.Send: delivered", "to", to)
	return nil
}

// buildMessage assembles the RFC 5322 message bytes for a plain-text email.
func buildMessage(from, to, subject, body string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(body)
	return []byte(b.String())
}
