// Package notifier delivers password reset messages over WhatsApp Cloud, Twilio SMS or
// SMTP email.
//
// Channel choice depends only on which channels are configured and on whether the user
// asked with a phone number or an email. A failed send is never retried on another channel.
package notifier

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/vasapolrittideah/berberpazar/services/auth-service/internal/model"
	"github.com/vasapolrittideah/berberpazar/shared/identifier"
)

const (
	ChannelWhatsApp = "whatsapp"
	ChannelSMS      = "sms"
	ChannelEmail    = "email"
)

var ErrNoChannel = errors.New("no delivery channel is available for this user")

// Message is a rendered notification. Phone is in the local 0XXXXXXXXXX form; channels
// convert it to the format their API expects.
type Message struct {
	Email   string
	Phone   string
	Subject string
	Text    string
	HTML    string
}

// Channel is one delivery mechanism.
type Channel interface {
	Name() string
	Available() bool
	Send(ctx context.Context, msg Message) error
}

// Dispatcher picks a channel by fixed priority and sends through it once.
type Dispatcher struct {
	whatsApp Channel
	sms      Channel
	email    Channel
	logger   *zerolog.Logger
}

func NewDispatcher(logger *zerolog.Logger, whatsApp, sms, email Channel) *Dispatcher {
	return &Dispatcher{
		whatsApp: whatsApp,
		sms:      sms,
		email:    email,
		logger:   logger,
	}
}

// Select returns the channel for a user resolved from an identifier of the given kind:
// WhatsApp, then SMS for phone identifiers when the user has a usable phone, then email
// when the user has an address on file.
func (d *Dispatcher) Select(kind identifier.Kind, user *model.User) (Channel, error) {
	hasPhone := false
	if user.Phone != nil {
		_, hasPhone = identifier.LocalPhone(*user.Phone)
	}

	if kind == identifier.KindPhone && hasPhone {
		if available(d.whatsApp) {
			return d.whatsApp, nil
		}
		if available(d.sms) {
			return d.sms, nil
		}
	}

	if user.Email != "" && available(d.email) {
		return d.email, nil
	}

	return nil, ErrNoChannel
}

// Deliver selects a channel and sends msg through it, returning the channel name.
func (d *Dispatcher) Deliver(
	ctx context.Context,
	kind identifier.Kind,
	user *model.User,
	msg Message,
) (string, error) {
	channel, err := d.Select(kind, user)
	if err != nil {
		return "", err
	}

	msg.Email = user.Email
	if user.Phone != nil {
		if local, ok := identifier.LocalPhone(*user.Phone); ok {
			msg.Phone = local
		}
	}

	if err := channel.Send(ctx, msg); err != nil {
		return "", fmt.Errorf("failed to send via %s: %w", channel.Name(), err)
	}

	d.logger.Info().Int64("user_id", user.ID).Str("channel", channel.Name()).Msg("password reset message delivered")

	return channel.Name(), nil
}

func available(c Channel) bool {
	return c != nil && c.Available()
}
