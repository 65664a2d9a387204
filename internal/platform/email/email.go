package email

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"leavedesk/internal/platform/config"
)

const dialTimeout = 10 * time.Second

// Sender delivers plain-text notification mail over SMTP. The sender owns
// its from address and its enabled flag: when delivery is switched off it
// silently drops every message, which keeps callers free of conditionals.
type Sender struct {
	host     string
	port     int
	username string
	password string
	startTLS bool
	from     string
	enabled  bool
}

func NewSender(cfg config.Config) *Sender {
	return &Sender{
		host:     cfg.SMTPHost,
		port:     cfg.SMTPPort,
		username: cfg.SMTPUser,
		password: cfg.SMTPPassword,
		startTLS: cfg.SMTPUseTLS,
		from:     cfg.EmailFrom,
		enabled:  cfg.EmailEnabled && cfg.SMTPHost != "",
	}
}

func (s *Sender) Send(ctx context.Context, to, subject, body string) error {
	if !s.enabled || strings.TrimSpace(to) == "" {
		return nil
	}

	dialer := net.Dialer{Timeout: dialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", net.JoinHostPort(s.host, strconv.Itoa(s.port)))
	if err != nil {
		return fmt.Errorf("dial smtp: %w", err)
	}
	defer conn.Close()
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	client, err := smtp.NewClient(conn, s.host)
	if err != nil {
		return err
	}
	defer client.Close()

	if err := s.handshake(client); err != nil {
		return err
	}
	if err := client.Mail(s.from); err != nil {
		return err
	}
	if err := client.Rcpt(to); err != nil {
		return err
	}
	w, err := client.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(s.message(to, subject, body)); err != nil {
		_ = w.Close()
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return client.Quit()
}

func (s *Sender) handshake(client *smtp.Client) error {
	if s.startTLS {
		if err := client.StartTLS(&tls.Config{ServerName: s.host}); err != nil {
			return err
		}
	}
	if s.username == "" {
		return nil
	}
	return client.Auth(smtp.PlainAuth("", s.username, s.password, s.host))
}

func (s *Sender) message(to, subject, body string) []byte {
	var b bytes.Buffer
	fmt.Fprintf(&b, "From: %s\r\n", s.from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(body)
	return b.Bytes()
}
