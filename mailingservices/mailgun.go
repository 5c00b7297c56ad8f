package mailingservices

import (
	"context"
	"fmt"
	"time"

	"github.com/mailgun/mailgun-go/v4"
	"github.com/techagentng/firesafe/config"
)

// Mailer sends plain-text e-mail.
type Mailer interface {
	SendMail(ctx context.Context, subject, body, recipient string) error
}

type Mailgun struct {
	client mailgun.Mailgun
	from   string
}

// NewMailgun returns nil when mailgun is not configured; callers skip mail.
func NewMailgun(c *config.Config) *Mailgun {
	if c.MgDomain == "" || c.MailgunApiKey == "" {
		return nil
	}
	return &Mailgun{
		client: mailgun.NewMailgun(c.MgDomain, c.MailgunApiKey),
		from:   c.MgEmailFrom,
	}
}

func (m *Mailgun) SendMail(ctx context.Context, subject, body, recipient string) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	message := m.client.NewMessage(m.from, subject, body, recipient)
	_, _, err := m.client.Send(ctx, message)
	if err != nil {
		return fmt.Errorf("mailgun send to %s: %w", recipient, err)
	}
	return nil
}

// HouseStatusMail renders the review decision sent to a house owner.
func HouseStatusMail(ownerName, address, status, reason string) (string, string) {
	subject := fmt.Sprintf("Your property registration was %s", status)
	body := fmt.Sprintf("Hello %s,\n\nThe registration for %s has been %s.", ownerName, address, status)
	if reason != "" {
		body += fmt.Sprintf("\n\nReason: %s", reason)
	}
	body += "\n\nFire Safety Team"
	return subject, body
}
