package ports

import (
	"context"

	"github.com/recetar/recetar-api/internal/core/domain"
)

// Notifier sends the transactional mails of the auth flow.
type Notifier interface {
	// NewUser schedules the welcome mail. Delivery is best effort and happens
	// after the call returns.
	NewUser(ctx context.Context, user *domain.User) error
	// PasswordRecovery delivers the recovery link before returning.
	PasswordRecovery(ctx context.Context, user *domain.User, link string) error
}

// MailSender delivers one rendered message.
type MailSender interface {
	Send(ctx context.Context, email domain.Email) error
}

// RecoveryThrottle rate-limits password recovery requests per username.
type RecoveryThrottle interface {
	// Allow reports whether a recovery mail may be sent for username now and,
	// when it may, starts the cooldown.
	Allow(ctx context.Context, username string) (bool, error)
}
