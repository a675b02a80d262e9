package mailer

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"strings"
)

type Config struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
}

// SMTPMailer delivers verification codes over plain SMTP with STARTTLS
type SMTPMailer struct {
	cfg Config
}

func New(cfg Config) (*SMTPMailer, error) {
	if cfg.Host == "" || cfg.Port == "" {
		return nil, errors.New("smtp host and port must be set")
	}
	if cfg.From == "" {
		cfg.From = cfg.Username
	}

	return &SMTPMailer{cfg: cfg}, nil
}

func (m *SMTPMailer) SendCode(ctx context.Context, toEmail string, code string) error {
	msg := buildMessage(m.cfg.From, toEmail, code)
	addr := net.JoinHostPort(m.cfg.Host, m.cfg.Port)
	auth := smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)

	// net/smtp has no context support, so run the dialog in a goroutine
	// and abandon it when the context is done
	done := make(chan error, 1)
	go func() {
		done <- smtp.SendMail(addr, auth, m.cfg.From, []string{toEmail}, msg)
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("error while sending email. Err: %w", err)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func buildMessage(from, to, code string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: Your Verification Code\r\n")
	fmt.Fprintf(&b, "\r\n")
	fmt.Fprintf(&b, "Your verification code is: %s\r\n", code)
	fmt.Fprintf(&b, "\r\n")
	fmt.Fprintf(&b, "This code will expire in 10 minutes.\r\n")
	return []byte(b.String())
}
