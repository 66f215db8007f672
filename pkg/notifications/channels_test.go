package notifications_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/auxeira/realtime/pkg/email"
	"github.com/auxeira/realtime/pkg/notifications"
)

type recordingEmailSender struct {
	sent []email.Message
}

func (s *recordingEmailSender) Send(ctx context.Context, msg email.Message) error {
	s.sent = append(s.sent, msg)
	return nil
}

type staticAddressBook map[string]string

func (b staticAddressBook) EmailFor(ctx context.Context, userID string) (string, error) {
	addr, ok := b[userID]
	if !ok {
		return "", notifications.ErrNoAddress
	}
	return addr, nil
}

func TestEmailChannel(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("resolves recipient from the address book", func(t *testing.T) {
		t.Parallel()

		sender := &recordingEmailSender{}
		ch := notifications.NewEmailChannel(sender, staticAddressBook{"alice": "alice@example.com"})

		err := ch.Send(ctx, notifications.Notification{
			UserID:    "alice",
			Type:      notifications.TypeInvestorInterest,
			Title:     "New investor interest",
			Message:   "An investor wants to connect.",
			ActionURL: "https://app.example.com/investors",
		})
		require.NoError(t, err)

		require.Len(t, sender.sent, 1)
		msg := sender.sent[0]
		assert.Equal(t, "alice@example.com", msg.To)
		assert.Equal(t, "New investor interest", msg.Subject)
		assert.Contains(t, msg.BodyHTML, "An investor wants to connect.")
		assert.Contains(t, msg.BodyHTML, "https://app.example.com/investors")
		assert.Equal(t, string(notifications.TypeInvestorInterest), msg.Tag)
	})

	t.Run("payload address wins over the address book", func(t *testing.T) {
		t.Parallel()

		sender := &recordingEmailSender{}
		ch := notifications.NewEmailChannel(sender, staticAddressBook{"alice": "alice@example.com"})

		err := ch.Send(ctx, notifications.Notification{
			UserID:  "alice",
			Title:   "Receipt",
			Message: "Payment received.",
			Data:    map[string]any{"email": "billing@example.com"},
		})
		require.NoError(t, err)

		require.Len(t, sender.sent, 1)
		assert.Equal(t, "billing@example.com", sender.sent[0].To)
	})

	t.Run("unresolvable recipient fails", func(t *testing.T) {
		t.Parallel()

		sender := &recordingEmailSender{}
		ch := notifications.NewEmailChannel(sender, staticAddressBook{})

		err := ch.Send(ctx, notifications.Notification{
			UserID:  "ghost",
			Title:   "Hello",
			Message: "World",
		})
		assert.ErrorIs(t, err, notifications.ErrNoAddress)
		assert.Empty(t, sender.sent)
	})

	t.Run("channel name", func(t *testing.T) {
		t.Parallel()

		ch := notifications.NewEmailChannel(&recordingEmailSender{}, staticAddressBook{})
		assert.Equal(t, notifications.ChannelEmail, ch.Channel())
	})
}
