// Package smtp delivers alert emails over plain SMTP with optional AUTH.
package smtp

import (
	"context"
	"fmt"
	"net"
	"net/smtp"
	"strings"
)

// Config holds SMTP transport settings.
type Config struct {
	Host     string
	Port     int
	Sender   string
	Password string
}

// Addr returns the SMTP server address in "host:port" format.
func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, fmt.Sprintf("%d", c.Port))
}

// Sender implements notification.Channel over SMTP.
type Sender struct {
	config Config
}

// NewSender creates an SMTP sender.
func NewSender(config Config) *Sender {
	return &Sender{config: config}
}

// Send delivers one email. The context deadline is honored up to the point of
// dialing; net/smtp does not support mid-session cancellation.
func (s *Sender) Send(ctx context.Context, recipient, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if recipient == "" {
		return fmt.Errorf("smtp: recipient is empty")
	}

	msg := buildMessage(s.config.Sender, recipient, subject, body)

	var auth smtp.Auth
	if s.config.Password != "" {
		auth = smtp.PlainAuth("", s.config.Sender, s.config.Password, s.config.Host)
	}

	if err := smtp.SendMail(s.config.Addr(), auth, s.config.Sender, []string{recipient}, msg); err != nil {
		return fmt.Errorf("smtp: send to %s: %w", recipient, err)
	}
	return nil
}

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
