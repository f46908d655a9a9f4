package notifier

import (
	"context"
	"errors"

	"github.com/vasapolrittideah/berberpazar/shared/mailer"
)

// EmailSender is the part of mailer.Mailer the email channel needs.
type EmailSender interface {
	Enabled() bool
	SendHTML(to []string, subject, htmlBody, textBody string) error
}

var _ EmailSender = (*mailer.Mailer)(nil)

type emailChannel struct {
	sender EmailSender
}

// NewEmailChannel sends HTML mail with a plain text alternative over SMTP.
func NewEmailChannel(sender EmailSender) Channel {
	return &emailChannel{sender: sender}
}

func (c *emailChannel) Name() string { return ChannelEmail }

func (c *emailChannel) Available() bool { return c.sender != nil && c.sender.Enabled() }

func (c *emailChannel) Send(ctx context.Context, msg Message) error {
	if msg.Email == "" {
		return errors.New("recipient has no email address")
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	return c.sender.SendHTML([]string{msg.Email}, msg.Subject, msg.HTML, msg.Text)
}
