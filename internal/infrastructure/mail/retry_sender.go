package mail

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/recetar/recetar-api/internal/api/metrics"
	"github.com/recetar/recetar-api/internal/core/domain"
	"github.com/recetar/recetar-api/internal/core/ports"
)

const (
	defaultAttempts = 3
	defaultBackoff  = time.Second
	maxBackoff      = 30 * time.Second
)

// RetrySender retries transient delivery failures with exponential backoff.
type RetrySender struct {
	next     ports.MailSender
	attempts int
	backoff  time.Duration
	log      zerolog.Logger
}

// NewRetrySender wraps next. attempts <= 0 uses defaultAttempts and
// backoff <= 0 uses defaultBackoff.
func NewRetrySender(next ports.MailSender, attempts int, backoff time.Duration, log zerolog.Logger) *RetrySender {
	if attempts <= 0 {
		attempts = defaultAttempts
	}
	if backoff <= 0 {
		backoff = defaultBackoff
	}
	return &RetrySender{next: next, attempts: attempts, backoff: backoff, log: log}
}

func (s *RetrySender) Send(ctx context.Context, email domain.Email) error {
	wait := s.backoff

	var err error
	for attempt := 1; attempt <= s.attempts; attempt++ {
		if err = s.next.Send(ctx, email); err == nil {
			metrics.MailSentTotal.WithLabelValues(email.Template, "sent").Inc()
			return nil
		}
		if IsPermanent(err) || attempt == s.attempts {
			break
		}

		s.log.Warn().Err(err).
			Str("template", email.Template).
			Int("attempt", attempt).
			Dur("retry_in", wait).
			Msg("mail delivery failed, retrying")

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			metrics.MailSentTotal.WithLabelValues(email.Template, "failed").Inc()
			return ctx.Err()
		case <-timer.C:
		}
		wait = min(wait*2, maxBackoff)
	}

	metrics.MailSentTotal.WithLabelValues(email.Template, "failed").Inc()
	return err
}
