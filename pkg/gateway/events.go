package gateway

import (
	"time"
)

// Client-facing event names. These form the wire vocabulary between the
// realtime core and connected clients; producers address clients with the
// same names through SendToUser/SendToRoom.
const (
	EventConnectionEstablished = "connection_established"
	EventRoomJoined            = "room_joined"
	EventRoomJoinError         = "room_join_error"
	EventRoomLeft              = "room_left"
	EventUserJoinedRoom        = "user_joined_room"
	EventUserLeftRoom          = "user_left_room"
	EventUserDisconnected      = "user_disconnected"
	EventRoomMessage           = "room_message"
	EventMessageError          = "message_error"
	EventHeartbeatAck          = "heartbeat_ack"
	EventSystemAlert           = "system_alert"
	EventSystemAlertAdmin      = "system_alert_admin"
	EventServerShutdown        = "server_shutdown"
	EventError                 = "error"

	EventScoreUpdate               = "sse_score_update"
	EventScoreBroadcast            = "sse_score_broadcast"
	EventGamification              = "gamification_event"
	EventGamificationBroadcast     = "gamification_broadcast"
	EventInvestorInterest          = "investor_interest"
	EventInvestorInterestBroadcast = "investor_interest_broadcast"
)

// Event is the envelope delivered to a connection's outbound queue. Data is
// serialized as-is by the transport layer.
type Event struct {
	Type      string    `json:"type"`
	Data      any       `json:"data,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// NewEvent builds an event stamped with the current time.
func NewEvent(eventType string, data any) Event {
	return Event{
		Type:      eventType,
		Data:      data,
		Timestamp: time.Now(),
	}
}
