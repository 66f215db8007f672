package email_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/auxeira/realtime/pkg/email"
)

func validMessage() email.Message {
	return email.Message{
		To:       "founder@example.com",
		Subject:  "New investor interest",
		BodyHTML: "<p>An investor wants to connect.</p>",
		Tag:      "investor_interest",
	}
}

func TestMessage_Validate(t *testing.T) {
	t.Parallel()

	t.Run("valid", func(t *testing.T) {
		t.Parallel()
		assert.NoError(t, validMessage().Validate())
	})

	tests := []struct {
		name   string
		mutate func(*email.Message)
	}{
		{"missing recipient", func(m *email.Message) { m.To = "" }},
		{"malformed recipient", func(m *email.Message) { m.To = "not-an-email" }},
		{"recipient without tld", func(m *email.Message) { m.To = "user@host" }},
		{"missing subject", func(m *email.Message) { m.Subject = "" }},
		{"missing body", func(m *email.Message) { m.BodyHTML = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			msg := validMessage()
			tt.mutate(&msg)
			assert.ErrorIs(t, msg.Validate(), email.ErrInvalidMessage)
		})
	}
}

func TestDevSender(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("writes html and metadata files", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		sender := email.NewDevSender(filepath.Join(dir, "outbox"))

		msg := validMessage()
		require.NoError(t, sender.Send(ctx, msg))

		entries, err := os.ReadDir(filepath.Join(dir, "outbox"))
		require.NoError(t, err)
		require.Len(t, entries, 2)

		var htmlFile, jsonFile string
		for _, e := range entries {
			switch filepath.Ext(e.Name()) {
			case ".html":
				htmlFile = e.Name()
			case ".json":
				jsonFile = e.Name()
			}
		}
		require.NotEmpty(t, htmlFile)
		require.NotEmpty(t, jsonFile)
		assert.Contains(t, htmlFile, "investor_interest")

		body, err := os.ReadFile(filepath.Join(dir, "outbox", htmlFile))
		require.NoError(t, err)
		assert.Equal(t, msg.BodyHTML, string(body))

		raw, err := os.ReadFile(filepath.Join(dir, "outbox", jsonFile))
		require.NoError(t, err)
		var meta map[string]string
		require.NoError(t, json.Unmarshal(raw, &meta))
		assert.Equal(t, msg.To, meta["to"])
		assert.Equal(t, msg.Subject, meta["subject"])
		assert.Equal(t, msg.Tag, meta["tag"])
	})

	t.Run("sanitizes hostile filenames", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		sender := email.NewDevSender(dir)

		msg := validMessage()
		msg.Tag = "../../etc/passwd " + strings.Repeat("x", 200)
		require.NoError(t, sender.Send(ctx, msg))

		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		require.Len(t, entries, 2)
		for _, e := range entries {
			assert.NotContains(t, e.Name(), "/")
			assert.LessOrEqual(t, len(e.Name()), 130)
		}
	})

	t.Run("rejects invalid messages", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		sender := email.NewDevSender(dir)

		msg := validMessage()
		msg.To = ""
		assert.ErrorIs(t, sender.Send(ctx, msg), email.ErrInvalidMessage)

		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		assert.Empty(t, entries)
	})
}

func TestNewPostmarkSender(t *testing.T) {
	t.Parallel()

	t.Run("requires tokens and valid addresses", func(t *testing.T) {
		t.Parallel()

		_, err := email.NewPostmarkSender(email.Config{})
		assert.ErrorIs(t, err, email.ErrInvalidConfig)

		_, err = email.NewPostmarkSender(email.Config{
			PostmarkServerToken:  "server-token",
			PostmarkAccountToken: "account-token",
			SenderEmail:          "not-an-email",
			SupportEmail:         "support@example.com",
		})
		assert.ErrorIs(t, err, email.ErrInvalidConfig)
	})

	t.Run("valid config", func(t *testing.T) {
		t.Parallel()

		sender, err := email.NewPostmarkSender(email.Config{
			PostmarkServerToken:  "server-token",
			PostmarkAccountToken: "account-token",
			SenderEmail:          "noreply@example.com",
			SupportEmail:         "support@example.com",
		})
		require.NoError(t, err)
		assert.NotNil(t, sender)
	})
}
