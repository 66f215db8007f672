package gateway

import (
	"fmt"
)

// ErrAuthenticationFailed is returned by Connect when credential
// verification is rejected. No connection state is created.
type ErrAuthenticationFailed struct {
	Reason string
}

func (e ErrAuthenticationFailed) Error() string {
	return fmt.Sprintf("gateway: authentication failed: %s", e.Reason)
}

// ErrRoomAccessDenied is returned when a connection fails a room kind's
// access predicate.
type ErrRoomAccessDenied struct {
	RoomID string
}

func (e ErrRoomAccessDenied) Error() string {
	return fmt.Sprintf("gateway: access denied to room %s", e.RoomID)
}

// ErrNotRoomMember is returned when a connection sends a message to a room
// it has not joined.
type ErrNotRoomMember struct {
	RoomID string
}

func (e ErrNotRoomMember) Error() string {
	return fmt.Sprintf("gateway: not a member of room %s", e.RoomID)
}

// ErrInvalidMessage is returned for malformed room messages.
type ErrInvalidMessage struct {
	Reason string
}

func (e ErrInvalidMessage) Error() string {
	return fmt.Sprintf("gateway: invalid message: %s", e.Reason)
}

// ErrGatewayClosed is returned when operations are attempted after Shutdown.
type ErrGatewayClosed struct{}

func (e ErrGatewayClosed) Error() string {
	return "gateway: gateway is closed"
}

// ErrConnectionClosed is returned when operating on a closed connection.
type ErrConnectionClosed struct {
	ConnectionID string
}

func (e ErrConnectionClosed) Error() string {
	return fmt.Sprintf("gateway: connection %s is closed", e.ConnectionID)
}
