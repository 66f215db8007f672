package transport

import (
	"encoding/json"

	"github.com/auxeira/realtime/pkg/gateway"
	"github.com/auxeira/realtime/pkg/notifications"
)

// Client-to-server command names.
const (
	CmdJoinRoom          = "join_room"
	CmdLeaveRoom         = "leave_room"
	CmdSendMessage       = "send_message"
	CmdHeartbeat         = "heartbeat"
	CmdNotificationsGet  = "notifications_get"
	CmdMarkRead          = "notification_mark_read"
	CmdMarkAllRead       = "notifications_mark_all_read"
	CmdArchive           = "notification_archive"
	CmdDismiss           = "notification_dismiss"
	CmdPreferencesGet    = "preferences_get"
	CmdPreferencesUpdate = "preferences_update"
)

// Transport-emitted response events.
const (
	EventNotificationsData = "notifications_data"
	EventPreferencesData   = "preferences_data"
)

// command is the envelope every inbound frame must decode to.
type command struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

type joinRoomPayload struct {
	RoomID string           `json:"room_id"`
	Kind   gateway.RoomKind `json:"kind,omitempty"`
}

type leaveRoomPayload struct {
	RoomID string `json:"room_id"`
}

type sendMessagePayload struct {
	RoomID      string         `json:"room_id"`
	Content     string         `json:"content"`
	MessageType string         `json:"message_type,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

type notificationsGetPayload struct {
	Status   notifications.ReadStatus `json:"status,omitempty"`
	Type     notifications.Type       `json:"type,omitempty"`
	Category notifications.Category   `json:"category,omitempty"`
	Limit    int                      `json:"limit,omitempty"`
	Offset   int                      `json:"offset,omitempty"`
}

type notificationIDsPayload struct {
	NotificationIDs []string `json:"notification_ids"`
}
