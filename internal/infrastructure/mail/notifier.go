package mail

import (
	"context"
	"fmt"

	"github.com/recetar/recetar-api/internal/core/domain"
	"github.com/recetar/recetar-api/internal/core/ports"
)

const (
	subjectNewUser         = "Nuevo Usuario RecetAR"
	subjectRecoverPassword = "Recuperación de contraseña"
)

// Enqueuer hands a mail to background delivery.
type Enqueuer interface {
	Enqueue(email domain.Email) error
}

// Notifier implements ports.Notifier. Welcome mails go through the queue;
// recovery mails are delivered on the caller's goroutine.
type Notifier struct {
	renderer *Renderer
	queue    Enqueuer
	sender   ports.MailSender
	from     string
}

func NewNotifier(renderer *Renderer, queue Enqueuer, sender ports.MailSender, from string) *Notifier {
	return &Notifier{renderer: renderer, queue: queue, sender: sender, from: from}
}

func (n *Notifier) NewUser(_ context.Context, user *domain.User) error {
	email, err := n.compose(TemplateNewUser, subjectNewUser, user, "")
	if err != nil {
		return err
	}
	return n.queue.Enqueue(email)
}

func (n *Notifier) PasswordRecovery(ctx context.Context, user *domain.User, link string) error {
	email, err := n.compose(TemplateRecoverPassword, subjectRecoverPassword, user, link)
	if err != nil {
		return err
	}
	return n.sender.Send(ctx, email)
}

func (n *Notifier) compose(tpl, subject string, user *domain.User, link string) (domain.Email, error) {
	body, err := n.renderer.Render(tpl, TemplateData{
		Name:     user.BusinessName,
		Username: user.Username,
		URL:      link,
	})
	if err != nil {
		return domain.Email{}, fmt.Errorf("compose %s mail: %w", tpl, err)
	}
	return domain.Email{
		From:     n.from,
		To:       user.Email,
		Subject:  subject,
		HTMLBody: body,
		Template: tpl,
	}, nil
}
