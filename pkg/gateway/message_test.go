package gateway_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/auxeira/realtime/pkg/gateway"
)

func TestGateway_SendRoomMessage(t *testing.T) {
	t.Parallel()

	t.Run("fan-out includes sender", func(t *testing.T) {
		t.Parallel()

		g := newTestGateway(t)
		alice := connect(t, g, "alice:startup")
		bob := connect(t, g, "bob:startup")
		require.NoError(t, g.JoinRoom(context.Background(), alice, "demo-day", gateway.KindSession))
		require.NoError(t, g.JoinRoom(context.Background(), bob, "demo-day", gateway.KindSession))

		err := g.SendRoomMessage(context.Background(), alice, "demo-day", gateway.RoomMessage{
			Content: "hello room",
		})
		require.NoError(t, err)

		for _, conn := range []*gateway.Connection{alice, bob} {
			ev := recvEventOfType(t, conn, gateway.EventRoomMessage)
			data := ev.Data.(map[string]any)
			assert.Equal(t, "alice", data["sender_id"])
			assert.Equal(t, "startup", data["sender_role"])
			assert.Equal(t, "hello room", data["content"])
			assert.Equal(t, "text", data["message_type"])
			assert.NotEmpty(t, data["message_id"])
		}
	})

	t.Run("rejects non-member", func(t *testing.T) {
		t.Parallel()

		g := newTestGateway(t)
		alice := connect(t, g, "alice:startup")

		err := g.SendRoomMessage(context.Background(), alice, "demo-day", gateway.RoomMessage{Content: "hi"})
		require.Error(t, err)
		assert.ErrorAs(t, err, &gateway.ErrNotRoomMember{})

		ev := recvEventOfType(t, alice, gateway.EventMessageError)
		assert.Equal(t, "not_room_member", ev.Data.(map[string]any)["code"])
	})

	t.Run("rejects empty content", func(t *testing.T) {
		t.Parallel()

		g := newTestGateway(t)
		alice := connect(t, g, "alice:startup")
		require.NoError(t, g.JoinRoom(context.Background(), alice, "demo-day", gateway.KindSession))

		err := g.SendRoomMessage(context.Background(), alice, "demo-day", gateway.RoomMessage{})
		require.Error(t, err)
		assert.ErrorAs(t, err, &gateway.ErrInvalidMessage{})

		ev := recvEventOfType(t, alice, gateway.EventMessageError)
		assert.Equal(t, "invalid_message", ev.Data.(map[string]any)["code"])
	})

	t.Run("rejects oversized content", func(t *testing.T) {
		t.Parallel()

		g := newTestGateway(t)
		alice := connect(t, g, "alice:startup")
		require.NoError(t, g.JoinRoom(context.Background(), alice, "demo-day", gateway.KindSession))

		err := g.SendRoomMessage(context.Background(), alice, "demo-day", gateway.RoomMessage{
			Content: strings.Repeat("x", gateway.MaxMessageLength+1),
		})
		require.Error(t, err)
		assert.ErrorAs(t, err, &gateway.ErrInvalidMessage{})
	})

	t.Run("content at limit is allowed", func(t *testing.T) {
		t.Parallel()

		g := newTestGateway(t)
		alice := connect(t, g, "alice:startup")
		require.NoError(t, g.JoinRoom(context.Background(), alice, "demo-day", gateway.KindSession))

		err := g.SendRoomMessage(context.Background(), alice, "demo-day", gateway.RoomMessage{
			Content: strings.Repeat("x", gateway.MaxMessageLength),
		})
		require.NoError(t, err)
	})
}
