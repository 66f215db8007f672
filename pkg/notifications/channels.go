package notifications

import (
	"context"
	"fmt"

	"github.com/auxeira/realtime/pkg/email"
)

// SecondaryChannel delivers notifications through a path other than the
// realtime connection. Implementations are invoked fire-and-forget; errors
// are logged and never fail the dispatch.
type SecondaryChannel interface {
	// Channel names the delivery path this implementation serves.
	Channel() Channel

	// Send delivers the notification through this channel.
	Send(ctx context.Context, notif Notification) error
}

// AddressBook resolves user ids to contact addresses. Lives outside the
// core (user service lookup).
type AddressBook interface {
	EmailFor(ctx context.Context, userID string) (string, error)
}

// EmailChannel delivers notifications as transactional email.
type EmailChannel struct {
	sender    email.Sender
	addresses AddressBook
}

// NewEmailChannel creates an email secondary channel.
func NewEmailChannel(sender email.Sender, addresses AddressBook) *EmailChannel {
	return &EmailChannel{sender: sender, addresses: addresses}
}

func (c *EmailChannel) Channel() Channel {
	return ChannelEmail
}

func (c *EmailChannel) Send(ctx context.Context, notif Notification) error {
	// A payload-supplied address wins over the address book lookup.
	to, _ := notif.Data["email"].(string)
	if to == "" {
		var err error
		to, err = c.addresses.EmailFor(ctx, notif.UserID)
		if err != nil {
			return fmt.Errorf("resolve recipient address: %w", err)
		}
	}

	body := "<p>" + notif.Message + "</p>"
	if notif.ActionURL != "" {
		body += fmt.Sprintf(`<p><a href=%q>View details</a></p>`, notif.ActionURL)
	}
	return c.sender.Send(ctx, email.Message{
		To:       to,
		Subject:  notif.Title,
		BodyHTML: body,
		Tag:      string(notif.Type),
	})
}

// NoopChannel accepts everything and delivers nothing. Useful in tests and
// for channels not yet configured.
type NoopChannel struct {
	Name Channel
}

func (c NoopChannel) Channel() Channel {
	return c.Name
}

func (c NoopChannel) Send(ctx context.Context, notif Notification) error {
	return nil
}
