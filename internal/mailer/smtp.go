package mailer

import (
	"context"
	"crypto/tls"
	"errors"
	"net"
	"net/smtp"
	"strconv"
	"strings"

	"github.com/jordan-wright/email"
)

// ---- TEST SEAMS ----
var (
	sendPlain = func(e *email.Email, addr string, a smtp.Auth) error {
		return e.Send(addr, a)
	}
	sendTLS = func(e *email.Email, addr string, a smtp.Auth, t *tls.Config) error {
		return e.SendWithTLS(addr, a, t)
	}
)

// SMTPConfig holds relay settings.
type SMTPConfig struct {
	Host string
	Port int
	// Secure selects implicit TLS (SMTPS, usually port 465). When false the
	// connection starts in plain text and upgrades with STARTTLS if offered.
	Secure bool
	User   string
	Pass   string
}

// Addr returns host:port.
func (c SMTPConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// SMTPSender sends through a single relay.
type SMTPSender struct {
	cfg  SMTPConfig
	auth smtp.Auth
}

// NewSMTPSender validates cfg and returns a sender. PLAIN auth is used only
// when a user is configured.
func NewSMTPSender(cfg SMTPConfig) (*SMTPSender, error) {
	if strings.TrimSpace(cfg.Host) == "" {
		return nil, errors.New("smtp host must not be empty")
	}
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return nil, errors.New("smtp port must be in 1..65535")
	}
	s := &SMTPSender{cfg: cfg}
	if cfg.User != "" {
		s.auth = smtp.PlainAuth("", cfg.User, cfg.Pass, cfg.Host)
	}
	return s, nil
}

// Send builds the MIME message and hands it to the relay.
func (s *SMTPSender) Send(ctx context.Context, msg *Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if msg == nil || len(msg.To) == 0 {
		return errors.New("mailer: message has no recipients")
	}

	e := email.NewEmail()
	e.From = msg.From
	e.To = append([]string(nil), msg.To...)
	if msg.ReplyTo != "" {
		e.ReplyTo = []string{msg.ReplyTo}
	}
	e.Subject = msg.Subject
	e.Text = []byte(msg.Text)
	if msg.HTML != "" {
		e.HTML = []byte(msg.HTML)
	}

	if s.cfg.Secure {
		return sendTLS(e, s.cfg.Addr(), s.auth, &tls.Config{ServerName: s.cfg.Host, MinVersion: tls.VersionTLS12})
	}
	return sendPlain(e, s.cfg.Addr(), s.auth)
}
