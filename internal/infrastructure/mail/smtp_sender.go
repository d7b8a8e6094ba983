package mail

import (
	"context"
	"errors"
	"fmt"
	netmail "net/mail"
	"net/textproto"
	"time"

	"gopkg.in/gomail.v2"

	"github.com/recetar/recetar-api/internal/api/metrics"
	"github.com/recetar/recetar-api/internal/core/domain"
)

const defaultSendTimeout = 30 * time.Second

// SMTPConfig holds the outbound mail server settings.
type SMTPConfig struct {
	Host     string
	Port     int
	Secure   bool // implicit TLS; otherwise STARTTLS when offered
	Username string
	Password string
	From     string
	Timeout  time.Duration
}

// SMTPSender delivers mail through an SMTP server with gomail.
type SMTPSender struct {
	from    string
	timeout time.Duration
	send    func(m ...*gomail.Message) error
}

func NewSMTPSender(cfg SMTPConfig) *SMTPSender {
	d := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	d.SSL = cfg.Secure

	from := cfg.From
	if from == "" {
		from = cfg.Username
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultSendTimeout
	}
	return &SMTPSender{from: from, timeout: timeout, send: d.DialAndSend}
}

// Send delivers email, giving up when ctx is done or the send timeout
// elapses. gomail has no context support, so an abandoned delivery keeps
// running in the background until the dialer returns.
func (s *SMTPSender) Send(ctx context.Context, email domain.Email) error {
	if _, err := netmail.ParseAddress(email.To); err != nil {
		return Permanent(fmt.Errorf("invalid recipient %q: %w", email.To, err))
	}

	from := email.From
	if from == "" {
		from = s.from
	}

	m := gomail.NewMessage()
	m.SetHeader("From", from)
	m.SetHeader("To", email.To)
	m.SetHeader("Subject", email.Subject)
	m.SetBody("text/html", email.HTMLBody)

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	done := make(chan error, 1)
	go func() { done <- s.send(m) }()

	select {
	case err := <-done:
		metrics.MailSendDuration.Observe(time.Since(start).Seconds())
		if err != nil {
			return fmt.Errorf("smtp send: %w", err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("smtp send: %w", ctx.Err())
	}
}

type permanentError struct{ err error }

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent marks err as not worth retrying.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// IsPermanent reports whether err was marked Permanent or is an SMTP 5xx
// reply.
func IsPermanent(err error) bool {
	var pe *permanentError
	if errors.As(err, &pe) {
		return true
	}
	var te *textproto.Error
	if errors.As(err, &te) {
		return te.Code >= 500
	}
	return false
}
