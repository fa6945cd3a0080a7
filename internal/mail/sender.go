package mail

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"time"

	"github.com/aatumaykin/mailbot/internal/logger"
)

const (
	// ImplicitTLSPort is the SMTPS port; every other port starts in plain text.
	ImplicitTLSPort = 465
	// DefaultTimeout bounds a whole SMTP conversation.
	DefaultTimeout = 30 * time.Second
)

// ErrMissingCredentials is returned at send time when the SMTP login is not
// configured.
var ErrMissingCredentials = errors.New("smtp credentials are not configured")

// Sender delivers one email.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Config holds SMTP connection settings.
type Config struct {
	Server         string
	Port           int
	SenderEmail    string
	SenderPassword string
	UseTLS         bool // STARTTLS on non-465 ports
	Timeout        time.Duration

	// TLSConfig overrides the default TLS settings, for tests.
	TLSConfig *tls.Config
}

// SMTPSender implements Sender with PLAIN auth over TLS or STARTTLS.
type SMTPSender struct {
	cfg    Config
	logger *logger.Logger
	now    func() time.Time
}

// NewSMTPSender creates a sender. Missing credentials are not an error here.
func NewSMTPSender(cfg Config, log *logger.Logger) *SMTPSender {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &SMTPSender{cfg: cfg, logger: log, now: time.Now}
}

// From returns the configured sender address.
func (s *SMTPSender) From() string {
	return s.cfg.SenderEmail
}

// Send composes msg and delivers it. An empty From is filled in with the
// configured sender.
func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	if s.cfg.SenderEmail == "" || s.cfg.SenderPassword == "" {
		return ErrMissingCredentials
	}
	if msg.From == "" {
		msg.From = s.cfg.SenderEmail
	}
	if err := msg.Validate(); err != nil {
		return fmt.Errorf("invalid message: %w", err)
	}

	var buf bytes.Buffer
	attached, err := msg.WriteTo(&buf, s.now(), s.logger)
	if err != nil {
		return fmt.Errorf("failed to compose message: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	if err := s.deliver(ctx, msg.From, msg.To, buf.Bytes()); err != nil {
		return fmt.Errorf("failed to send email to %s: %w", msg.To, err)
	}

	s.logger.InfoCtx(ctx, "email sent",
		logger.Field{Key: "to", Value: msg.To},
		logger.Field{Key: "subject", Value: msg.Subject},
		logger.Field{Key: "attachments", Value: len(attached)},
		logger.Field{Key: "bytes", Value: buf.Len()})
	return nil
}

func (s *SMTPSender) deliver(ctx context.Context, from, to string, data []byte) error {
	conn, err := s.dial(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	c, err := smtp.NewClient(conn, s.cfg.Server)
	if err != nil {
		return fmt.Errorf("smtp handshake: %w", err)
	}
	defer c.Close()

	if s.cfg.Port != ImplicitTLSPort && s.cfg.UseTLS {
		if ok, _ := c.Extension("STARTTLS"); !ok {
			return errors.New("server does not support STARTTLS")
		}
		if err := c.StartTLS(s.tlsConfig()); err != nil {
			return fmt.Errorf("starttls: %w", err)
		}
	}

	auth := smtp.PlainAuth("", s.cfg.SenderEmail, s.cfg.SenderPassword, s.cfg.Server)
	if err := c.Auth(auth); err != nil {
		return fmt.Errorf("smtp auth: %w", err)
	}
	if err := c.Mail(from); err != nil {
		return fmt.Errorf("smtp MAIL FROM: %w", err)
	}
	if err := c.Rcpt(to); err != nil {
		return fmt.Errorf("smtp RCPT TO: %w", err)
	}

	w, err := c.Data()
	if err != nil {
		return fmt.Errorf("smtp DATA: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("smtp write: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("smtp end of data: %w", err)
	}

	return c.Quit()
}

func (s *SMTPSender) dial(ctx context.Context) (net.Conn, error) {
	addr := net.JoinHostPort(s.cfg.Server, strconv.Itoa(s.cfg.Port))
	dialer := &net.Dialer{Timeout: s.cfg.Timeout}

	if s.cfg.Port == ImplicitTLSPort {
		tlsDialer := &tls.Dialer{NetDialer: dialer, Config: s.tlsConfig()}
		conn, err := tlsDialer.DialContext(ctx, "tcp", addr)
		if err != nil {
			return nil, fmt.Errorf("tls dial %s: %w", addr, err)
		}
		return conn, nil
	}

	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}
	return conn, nil
}

func (s *SMTPSender) tlsConfig() *tls.Config {
	if s.cfg.TLSConfig != nil {
		return s.cfg.TLSConfig
	}
	return &tls.Config{ServerName: s.cfg.Server, MinVersion: tls.VersionTLS12}
}
