// Package smtp delivers outbound email over plain SMTP with optional
// PLAIN auth. It keeps no connection state; every Send dials fresh.
package smtp

import (
	"context"
	"fmt"
	"mime"
	"net"
	"net/smtp"
	"strings"

	"github.com/mzumbe-ict-club/membership-api/internal/ports/out/mailer"
)

// Config carries SMTP transport settings. Host and From are required for the
// mailer to consider itself configured; Username/Password are optional for
// servers that accept unauthenticated relay (local dev).
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

type Mailer struct {
	cfg Config

	// send is swapped in tests to avoid a live SMTP dial.
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewMailer(cfg Config) *Mailer {
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	return &Mailer{cfg: cfg, send: smtp.SendMail}
}

func (m *Mailer) Configured() bool {
	return m.cfg.Host != "" && m.cfg.From != ""
}

func (m *Mailer) Send(ctx context.Context, msg mailer.Message) error {
	if !m.Configured() {
		return mailer.ErrNotConfigured
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(msg.To) == 0 {
		return fmt.Errorf("smtp: message has no recipients")
	}

	from := msg.From
	if from == "" {
		from = m.cfg.From
	}

	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}

	addr := net.JoinHostPort(m.cfg.Host, fmt.Sprintf("%d", m.cfg.Port))
	if err := m.send(addr, auth, from, msg.To, encode(from, msg)); err != nil {
		return fmt.Errorf("smtp: send to %s: %w", strings.Join(msg.To, ","), err)
	}
	return nil
}

// encode builds the RFC 5322 message. When an HTML body is present the
// message is multipart/alternative with the plain part first.
func encode(from string, msg mailer.Message) []byte {
	var b strings.Builder
	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + strings.Join(msg.To, ", ") + "\r\n")
	b.WriteString("Subject: " + mime.QEncoding.Encode("utf-8", msg.Subject) + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")

	if msg.HTMLBody == "" {
		b.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
		b.WriteString("\r\n")
		b.WriteString(msg.Body)
		return []byte(b.String())
	}

	const boundary = "emailpartboundary"
	b.WriteString(`Content-Type: multipart/alternative; boundary="` + boundary + "\"\r\n\r\n")
	b.WriteString("--" + boundary + "\r\n")
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n\r\n")
	b.WriteString(msg.Body)
	b.WriteString("\r\n--" + boundary + "\r\n")
	b.WriteString("Content-Type: text/html; charset=utf-8\r\n\r\n")
	b.WriteString(msg.HTMLBody)
	b.WriteString("\r\n--" + boundary + "--\r\n")
	return []byte(b.String())
}
