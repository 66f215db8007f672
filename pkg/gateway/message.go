package gateway

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/auxeira/realtime/pkg/logger"
)

// MaxMessageLength bounds room message content.
const MaxMessageLength = 5000

// RoomMessage is a client-submitted chat message. No history is kept: fan-out
// is the only delivery.
type RoomMessage struct {
	Content     string         `json:"content"`
	MessageType string         `json:"message_type,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

func (m RoomMessage) validate() error {
	if m.Content == "" {
		return ErrInvalidMessage{Reason: "empty content"}
	}
	if len(m.Content) > MaxMessageLength {
		return ErrInvalidMessage{Reason: "content too long"}
	}
	return nil
}

// SendRoomMessage validates and fans a message out to every connection in
// the room, the sender included so all devices see a consistent stream. On
// any validation failure a scoped message_error is queued and nothing is
// mutated.
func (g *Gateway) SendRoomMessage(ctx context.Context, conn *Connection, roomID string, msg RoomMessage) error {
	if !conn.InRoom(roomID) {
		conn.send(NewEvent(EventMessageError, map[string]any{
			"room_id": roomID,
			"code":    "not_room_member",
			"error":   "not a member of this room",
		}))
		return ErrNotRoomMember{RoomID: roomID}
	}

	if err := msg.validate(); err != nil {
		conn.send(NewEvent(EventMessageError, map[string]any{
			"room_id": roomID,
			"code":    "invalid_message",
			"error":   "invalid message format",
		}))
		return err
	}

	messageType := msg.MessageType
	if messageType == "" {
		messageType = "text"
	}

	g.SendToRoom(ctx, roomID, EventRoomMessage, map[string]any{
		"message_id":   uuid.New().String(),
		"room_id":      roomID,
		"sender_id":    conn.UserID,
		"sender_role":  conn.Role,
		"content":      msg.Content,
		"message_type": messageType,
		"metadata":     msg.Metadata,
		"sent_at":      time.Now(),
	})
	conn.Touch()

	g.logger.LogAttrs(ctx, slog.LevelDebug, "room message sent",
		logger.ConnectionID(conn.ID),
		logger.UserID(conn.UserID),
		logger.RoomID(roomID),
		slog.String("message_type", messageType),
	)
	return nil
}
