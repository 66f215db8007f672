package transport

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"

	"github.com/auxeira/realtime/pkg/gateway"
	"github.com/auxeira/realtime/pkg/logger"
	"github.com/auxeira/realtime/pkg/notifications"
)

// client is one websocket session bridged to a gateway connection. All
// socket writes happen on the writePump goroutine; replies to commands go
// through the local out channel so gateway fan-out and direct responses
// never interleave mid-frame.
type client struct {
	ws      *websocket.Conn
	conn    *gateway.Connection
	handler *Handler
	out     chan gateway.Event
}

func newClient(ws *websocket.Conn, conn *gateway.Connection, h *Handler) *client {
	return &client{
		ws:      ws,
		conn:    conn,
		handler: h,
		out:     make(chan gateway.Event, 16),
	}
}

// readPump consumes frames until the socket errors, dispatching each
// decoded command. It owns connection teardown.
func (c *client) readPump() {
	defer func() {
		c.handler.gateway.Disconnect(c.conn, "client_disconnect")
		_ = c.ws.Close()
	}()

	cfg := c.handler.config
	c.ws.SetReadLimit(cfg.ReadLimit)
	_ = c.ws.SetReadDeadline(time.Now().Add(cfg.PongTimeout))
	c.ws.SetPongHandler(func(string) error {
		c.conn.Touch()
		return c.ws.SetReadDeadline(time.Now().Add(cfg.PongTimeout))
	})

	for {
		_, raw, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.handler.logger.LogAttrs(context.Background(), slog.LevelDebug, "websocket read failed",
					logger.ConnectionID(c.conn.ID),
					logger.Error(err),
				)
			}
			return
		}

		var cmd command
		if err := json.Unmarshal(raw, &cmd); err != nil {
			c.reply(gateway.EventError, map[string]any{"message": "malformed command"})
			continue
		}
		c.conn.Touch() // any well-formed client frame counts as activity
		c.handleCommand(context.Background(), cmd)
	}
}

// writePump serializes gateway events and command replies onto the socket
// and keeps the connection alive with pings. Exits when the gateway closes
// the connection's event channel.
func (c *client) writePump() {
	cfg := c.handler.config
	ticker := time.NewTicker(cfg.PingInterval)
	defer func() {
		ticker.Stop()
		_ = c.ws.Close()
	}()

	for {
		select {
		case ev, ok := <-c.conn.Events():
			if !ok {
				deadline := time.Now().Add(cfg.WriteTimeout)
				msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
				_ = c.ws.WriteControl(websocket.CloseMessage, msg, deadline)
				return
			}
			if !c.writeEvent(ev) {
				return
			}
		case ev := <-c.out:
			if !c.writeEvent(ev) {
				return
			}
		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(cfg.WriteTimeout))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *client) writeEvent(ev gateway.Event) bool {
	_ = c.ws.SetWriteDeadline(time.Now().Add(c.handler.config.WriteTimeout))
	if err := c.ws.WriteJSON(ev); err != nil {
		c.handler.logger.LogAttrs(context.Background(), slog.LevelDebug, "websocket write failed",
			logger.ConnectionID(c.conn.ID),
			logger.Error(err),
		)
		return false
	}
	return true
}

// reply queues a direct response to this session. Drops when the session is
// backed up, same as gateway fan-out.
func (c *client) reply(eventType string, data any) {
	select {
	case c.out <- gateway.NewEvent(eventType, data):
	default:
	}
}

func (c *client) handleCommand(ctx context.Context, cmd command) {
	switch cmd.Type {
	case CmdHeartbeat:
		c.handler.gateway.Heartbeat(c.conn)

	case CmdJoinRoom:
		var p joinRoomPayload
		if !c.decode(cmd.Data, &p) {
			return
		}
		// JoinRoom reports failures to the client itself.
		_ = c.handler.gateway.JoinRoom(ctx, c.conn, p.RoomID, p.Kind)

	case CmdLeaveRoom:
		var p leaveRoomPayload
		if !c.decode(cmd.Data, &p) {
			return
		}
		c.handler.gateway.LeaveRoom(ctx, c.conn, p.RoomID)

	case CmdSendMessage:
		var p sendMessagePayload
		if !c.decode(cmd.Data, &p) {
			return
		}
		_ = c.handler.gateway.SendRoomMessage(ctx, c.conn, p.RoomID, gateway.RoomMessage{
			Content:     p.Content,
			MessageType: p.MessageType,
			Metadata:    p.Metadata,
		})

	case CmdNotificationsGet:
		var p notificationsGetPayload
		if !c.decode(cmd.Data, &p) {
			return
		}
		list, err := c.handler.notifier.GetNotifications(ctx, c.conn.UserID, notifications.ListOptions{
			Status:   p.Status,
			Type:     p.Type,
			Category: p.Category,
			Limit:    p.Limit,
			Offset:   p.Offset,
		})
		if err != nil {
			c.replyError("failed to load notifications", err)
			return
		}
		unread, err := c.handler.notifier.CountUnread(ctx, c.conn.UserID)
		if err != nil {
			c.replyError("failed to load notifications", err)
			return
		}
		c.reply(EventNotificationsData, map[string]any{
			"notifications": list,
			"unread":        unread,
		})

	case CmdMarkRead:
		var p notificationIDsPayload
		if !c.decode(cmd.Data, &p) {
			return
		}
		if err := c.handler.notifier.MarkRead(ctx, c.conn.UserID, p.NotificationIDs...); err != nil {
			c.replyError("failed to mark read", err)
		}

	case CmdMarkAllRead:
		if err := c.handler.notifier.MarkAllRead(ctx, c.conn.UserID); err != nil {
			c.replyError("failed to mark all read", err)
		}

	case CmdArchive:
		var p notificationIDsPayload
		if !c.decode(cmd.Data, &p) {
			return
		}
		if err := c.handler.notifier.Archive(ctx, c.conn.UserID, p.NotificationIDs...); err != nil {
			c.replyError("failed to archive", err)
		}

	case CmdDismiss:
		var p notificationIDsPayload
		if !c.decode(cmd.Data, &p) {
			return
		}
		if err := c.handler.notifier.Dismiss(ctx, c.conn.UserID, p.NotificationIDs...); err != nil {
			c.replyError("failed to dismiss", err)
		}

	case CmdPreferencesGet:
		prefs, err := c.handler.notifier.Preferences(ctx, c.conn.UserID)
		if err != nil {
			c.replyError("failed to load preferences", err)
			return
		}
		c.reply(EventPreferencesData, prefs)

	case CmdPreferencesUpdate:
		var prefs notifications.Preferences
		if !c.decode(cmd.Data, &prefs) {
			return
		}
		prefs.UserID = c.conn.UserID // never trust the payload's user id
		if err := c.handler.notifier.UpdatePreferences(ctx, prefs); err != nil {
			c.replyError("failed to update preferences", err)
			return
		}
		c.reply(EventPreferencesData, prefs)

	default:
		c.reply(gateway.EventError, map[string]any{
			"message": "unknown command: " + cmd.Type,
		})
	}
}

func (c *client) decode(raw json.RawMessage, into any) bool {
	if err := json.Unmarshal(raw, into); err != nil {
		c.reply(gateway.EventError, map[string]any{"message": "malformed payload"})
		return false
	}
	return true
}

func (c *client) replyError(msg string, err error) {
	c.handler.logger.LogAttrs(context.Background(), slog.LevelWarn, msg,
		logger.ConnectionID(c.conn.ID),
		logger.UserID(c.conn.UserID),
		logger.Error(err),
	)
	c.reply(gateway.EventError, map[string]any{"message": msg})
}
