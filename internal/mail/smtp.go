package mail

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net"
	"net/smtp"
	"strconv"
)

// SMTPConfig holds SMTP connection settings.
type SMTPConfig struct {
	Host     string
	Port     string
	User     string
	Password string
}

// SMTPProvider sends mail over plain SMTP or STARTTLS/TLS, depending on the
// port. Port 587 uses STARTTLS, 465 uses TLS from the start, anything else
// is treated as a local relay (MailHog and friends).
type SMTPProvider struct {
	cfg SMTPConfig
}

// NewSMTPProvider creates an SMTP provider from SMTP_* environment
// variables, defaulting to a local MailHog-style relay.
func NewSMTPProvider() *SMTPProvider {
	return NewSMTPProviderWithConfig(SMTPConfig{
		Host:     getEnvOrDefault("SMTP_HOST", "localhost"),
		Port:     getEnvOrDefault("SMTP_PORT", "1025"),
		User:     getEnvOrDefault("SMTP_USER", ""),
		Password: getEnvOrDefault("SMTP_PASSWORD", ""),
	})
}

// NewSMTPProviderWithConfig creates an SMTP provider with explicit settings.
func NewSMTPProviderWithConfig(cfg SMTPConfig) *SMTPProvider {
	return &SMTPProvider{cfg: cfg}
}

// Name returns the provider name.
func (p *SMTPProvider) Name() string {
	return "smtp"
}

// IsConfigured returns true when a host is set.
func (p *SMTPProvider) IsConfigured() bool {
	return p.cfg.Host != ""
}

// Send sends the message over SMTP.
func (p *SMTPProvider) Send(ctx context.Context, msg *Message) error {
	raw, err := buildMIME(msg)
	if err != nil {
		return err
	}

	addr := net.JoinHostPort(p.cfg.Host, p.cfg.Port)
	port, err := strconv.Atoi(p.cfg.Port)
	if err != nil {
		return fmt.Errorf("invalid SMTP port: %s", p.cfg.Port)
	}

	if port == 587 || port == 465 {
		err = p.sendWithTLS(addr, port, msg.From, msg.To, raw)
	} else {
		var auth smtp.Auth
		if p.cfg.User != "" && p.cfg.Password != "" {
			auth = smtp.PlainAuth("", p.cfg.User, p.cfg.Password, p.cfg.Host)
		}
		err = smtp.SendMail(addr, auth, msg.From, msg.To, raw)
	}
	if err != nil {
		slog.Error("SMTP send failed",
			"error", err,
			"smtp_server", addr,
			"to", msg.To,
		)
		return fmt.Errorf("failed to send email via SMTP: %w", err)
	}

	slog.Info("Email sent via SMTP",
		"to", msg.To,
		"subject", msg.Subject,
		"smtp_server", addr,
		"attachments", len(msg.Attachments),
	)
	return nil
}

// sendWithTLS handles the STARTTLS (587) and implicit-TLS (465) paths.
func (p *SMTPProvider) sendWithTLS(addr string, port int, from string, to []string, raw []byte) error {
	var client *smtp.Client

	if port == 465 {
		conn, err := tls.Dial("tcp", addr, &tls.Config{ServerName: p.cfg.Host})
		if err != nil {
			return fmt.Errorf("failed to connect to SMTP server with TLS: %w", err)
		}
		defer conn.Close()

		client, err = smtp.NewClient(conn, p.cfg.Host)
		if err != nil {
			return fmt.Errorf("failed to create SMTP client: %w", err)
		}
	} else {
		conn, err := net.Dial("tcp", addr)
		if err != nil {
			return fmt.Errorf("failed to connect to SMTP server: %w", err)
		}
		defer conn.Close()

		client, err = smtp.NewClient(conn, p.cfg.Host)
		if err != nil {
			return fmt.Errorf("failed to create SMTP client: %w", err)
		}
		if ok, _ := client.Extension("STARTTLS"); ok {
			if err := client.StartTLS(&tls.Config{ServerName: p.cfg.Host}); err != nil {
				return fmt.Errorf("failed to start TLS: %w", err)
			}
		}
	}
	defer client.Close()

	if p.cfg.User != "" && p.cfg.Password != "" {
		auth := smtp.PlainAuth("", p.cfg.User, p.cfg.Password, p.cfg.Host)
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("SMTP authentication failed: %w", err)
		}
	}

	if err := client.Mail(from); err != nil {
		return fmt.Errorf("failed to set sender %s: %w", from, err)
	}
	for _, recipient := range to {
		if err := client.Rcpt(recipient); err != nil {
			return fmt.Errorf("failed to set recipient %s: %w", recipient, err)
		}
	}

	writer, err := client.Data()
	if err != nil {
		return fmt.Errorf("failed to open data writer: %w", err)
	}
	if _, err := writer.Write(raw); err != nil {
		writer.Close()
		return fmt.Errorf("failed to write email data: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to close data writer: %w", err)
	}

	if err := client.Quit(); err != nil {
		slog.Warn("Error during SMTP QUIT", "error", err)
	}
	return nil
}

var _ Provider = (*SMTPProvider)(nil)
