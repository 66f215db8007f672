package gateway

import (
	"context"
	"strings"
	"time"
)

// RoomKind is the closed set of room variants. Each kind carries its own
// access predicate, dispatched by lookup.
type RoomKind string

const (
	// KindUserPrivate is the persistent per-user room used for direct
	// addressed delivery. Only its owner may join; it is never torn down
	// when empty.
	KindUserPrivate RoomKind = "user_private"
	// KindTopic is a public broadcast channel (score updates, notifications,
	// gamification events, partnership updates, system alerts).
	KindTopic RoomKind = "topic"
	// KindSession is scoped to a specific session (e.g. a mentorship
	// session); access is delegated to an external authorizer.
	KindSession RoomKind = "session"
	// KindInvestorMatching is joinable by investors and startups only.
	KindInvestorMatching RoomKind = "investor_matching"
	// KindAdmin is restricted to the admin role.
	KindAdmin RoomKind = "admin"
)

// Well-known topic rooms.
const (
	RoomScoreUpdates       = "sse_updates"
	RoomNotifications      = "notifications"
	RoomGamification       = "gamification_events"
	RoomPartnershipUpdates = "partnership_updates"
	RoomSystemAlerts       = "system_alerts"
	RoomInvestorMatching   = "investor_matching"
	RoomAdminDashboard     = "admin_dashboard"
)

// Roles recognized by room access predicates.
const (
	RoleStartup  = "startup"
	RoleInvestor = "investor"
	RoleAdmin    = "admin"
)

const privateRoomPrefix = "user_"

// PrivateRoomID returns the id of a user's private room.
func PrivateRoomID(userID string) string {
	return privateRoomPrefix + userID
}

// IsPrivateRoom reports whether roomID names a per-user private room.
func IsPrivateRoom(roomID string) bool {
	return strings.HasPrefix(roomID, privateRoomPrefix)
}

// RoomAuthorizer decides access to session-scoped rooms. Implementations
// live outside the core (e.g. a session service lookup).
type RoomAuthorizer interface {
	Authorize(ctx context.Context, userID, role, roomID string) error
}

// accessPredicate validates that a connection may join a room of a given
// kind. A nil return grants access.
type accessPredicate func(ctx context.Context, conn *Connection, roomID string, authz RoomAuthorizer) error

// accessPredicates is the per-kind dispatch table. Unknown kinds are denied.
var accessPredicates = map[RoomKind]accessPredicate{
	KindUserPrivate: func(_ context.Context, conn *Connection, roomID string, _ RoomAuthorizer) error {
		if roomID != PrivateRoomID(conn.UserID) {
			return ErrRoomAccessDenied{RoomID: roomID}
		}
		return nil
	},
	KindTopic: func(_ context.Context, _ *Connection, _ string, _ RoomAuthorizer) error {
		return nil
	},
	KindSession: func(ctx context.Context, conn *Connection, roomID string, authz RoomAuthorizer) error {
		if authz == nil {
			return ErrRoomAccessDenied{RoomID: roomID}
		}
		if err := authz.Authorize(ctx, conn.UserID, conn.Role, roomID); err != nil {
			return ErrRoomAccessDenied{RoomID: roomID}
		}
		return nil
	},
	KindInvestorMatching: func(_ context.Context, conn *Connection, roomID string, _ RoomAuthorizer) error {
		if conn.Role != RoleInvestor && conn.Role != RoleStartup && conn.Role != RoleAdmin {
			return ErrRoomAccessDenied{RoomID: roomID}
		}
		return nil
	},
	KindAdmin: func(_ context.Context, conn *Connection, roomID string, _ RoomAuthorizer) error {
		if conn.Role != RoleAdmin {
			return ErrRoomAccessDenied{RoomID: roomID}
		}
		return nil
	},
}

// checkRoomAccess runs the kind's predicate for the connection.
func checkRoomAccess(ctx context.Context, conn *Connection, roomID string, kind RoomKind, authz RoomAuthorizer) error {
	predicate, ok := accessPredicates[kind]
	if !ok {
		return ErrRoomAccessDenied{RoomID: roomID}
	}
	return predicate(ctx, conn, roomID, authz)
}

// Room groups connections for fan-out delivery. Participants are tracked by
// user id with a per-user connection count so multi-device presence survives
// a single device disconnecting.
type Room struct {
	ID           string
	Kind         RoomKind
	CreatedAt    time.Time
	lastActivity time.Time
	participants map[string]int         // userID -> live connection count
	conns        map[string]*Connection // connID -> conn
	metadata     map[string]any
}

// Participants returns the user ids currently present in the room.
func (r *Room) Participants() []string {
	users := make([]string, 0, len(r.participants))
	for userID := range r.participants {
		users = append(users, userID)
	}
	return users
}

// persistent rooms survive emptiness; only private per-user rooms qualify.
func (r *Room) persistent() bool {
	return r.Kind == KindUserPrivate
}
