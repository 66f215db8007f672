package gateway

import (
	"sync"
	"time"
)

// State tracks a connection through its lifecycle. Transitions only move
// forward: Connecting -> Active -> Disconnecting -> Closed.
type State string

const (
	StateConnecting    State = "connecting"
	StateActive        State = "active"
	StateDisconnecting State = "disconnecting"
	StateClosed        State = "closed"
)

// Metadata carries client handshake details for diagnostics.
type Metadata struct {
	UserAgent  string `json:"user_agent,omitempty"`
	IPAddress  string `json:"ip_address,omitempty"`
	DeviceType string `json:"device_type,omitempty"`
}

// Connection represents one live client connection. A user may hold several
// simultaneous connections (multi-device), each with its own room
// memberships. Connections are exclusively owned by the gateway's registry;
// external code only reads from Events.
type Connection struct {
	ID          string
	UserID      string
	Role        string
	ConnectedAt time.Time
	Metadata    Metadata

	mu           sync.Mutex
	state        State
	lastActivity time.Time
	rooms        []string // join order preserved

	events    chan Event
	closeOnce sync.Once
}

func newConnection(id, userID, role string, meta Metadata, bufferSize int) *Connection {
	now := time.Now()
	return &Connection{
		ID:           id,
		UserID:       userID,
		Role:         role,
		ConnectedAt:  now,
		Metadata:     meta,
		state:        StateConnecting,
		lastActivity: now,
		events:       make(chan Event, bufferSize),
	}
}

// Events returns the outbound event queue consumed by the transport layer.
// The channel is closed when the connection is closed.
func (c *Connection) Events() <-chan Event {
	return c.events
}

// State returns the current lifecycle state.
func (c *Connection) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Touch records activity, keeping the connection clear of the staleness
// sweep. Called on heartbeat and on every inbound client event.
func (c *Connection) Touch() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateActive {
		c.lastActivity = time.Now()
	}
}

// LastActivity returns the time of the most recent client activity.
func (c *Connection) LastActivity() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastActivity
}

// Rooms returns a copy of the membership list in join order.
func (c *Connection) Rooms() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	rooms := make([]string, len(c.rooms))
	copy(rooms, c.rooms)
	return rooms
}

// InRoom reports whether the connection has joined the given room.
func (c *Connection) InRoom(roomID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, id := range c.rooms {
		if id == roomID {
			return true
		}
	}
	return false
}

// send enqueues an event without blocking. A full buffer drops the event:
// a slow consumer must not stall fan-out to other recipients. The lock is
// held across the enqueue so send never races with close.
func (c *Connection) send(ev Event) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == StateClosed {
		return false
	}

	select {
	case c.events <- ev:
		return true
	default:
		return false
	}
}

func (c *Connection) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

// addRoom appends roomID to the membership list if not already present.
func (c *Connection) addRoom(roomID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, id := range c.rooms {
		if id == roomID {
			return false
		}
	}
	c.rooms = append(c.rooms, roomID)
	return true
}

// removeRoom deletes roomID from the membership list, reporting whether the
// connection was a member. Removing an absent room is a no-op.
func (c *Connection) removeRoom(roomID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, id := range c.rooms {
		if id == roomID {
			c.rooms = append(c.rooms[:i], c.rooms[i+1:]...)
			return true
		}
	}
	return false
}

// close transitions the connection to Closed and closes the event queue.
// Safe to call multiple times.
func (c *Connection) close() {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.state = StateClosed
		close(c.events)
		c.mu.Unlock()
	})
}
