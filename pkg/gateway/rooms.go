package gateway

import (
	"sync"
	"time"
)

// roomManager owns the room -> participant mapping. Rooms are created lazily
// on first join and deleted when the last participant leaves, except for
// persistent private rooms.
type roomManager struct {
	mu    sync.RWMutex
	rooms map[string]*Room
}

func newRoomManager() *roomManager {
	return &roomManager{rooms: make(map[string]*Room)}
}

// join registers the connection in the room, creating it on first use.
// Returns the resulting participant count and whether the user id is new to
// the participant set (first connection of that user in this room).
func (m *roomManager) join(conn *Connection, roomID string, kind RoomKind) (participants int, newUser bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	room, ok := m.rooms[roomID]
	if !ok {
		now := time.Now()
		room = &Room{
			ID:           roomID,
			Kind:         kind,
			CreatedAt:    now,
			lastActivity: now,
			participants: make(map[string]int),
			conns:        make(map[string]*Connection),
			metadata:     make(map[string]any),
		}
		m.rooms[roomID] = room
	}

	if _, already := room.conns[conn.ID]; already {
		return len(room.participants), false
	}

	room.conns[conn.ID] = conn
	newUser = room.participants[conn.UserID] == 0
	room.participants[conn.UserID]++
	room.lastActivity = time.Now()
	return len(room.participants), newUser
}

// leave removes the connection from the room. The user id stays in the
// participant set until their last connection leaves; the room is deleted
// when the set empties unless the room is persistent. Idempotent: leaving
// an unjoined or absent room is a no-op.
func (m *roomManager) leave(conn *Connection, roomID string) (userGone bool, roomGone bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	room, ok := m.rooms[roomID]
	if !ok {
		return false, false
	}
	if _, member := room.conns[conn.ID]; !member {
		return false, false
	}

	delete(room.conns, conn.ID)
	room.participants[conn.UserID]--
	if room.participants[conn.UserID] <= 0 {
		delete(room.participants, conn.UserID)
		userGone = true
	}
	room.lastActivity = time.Now()

	if len(room.participants) == 0 && !room.persistent() {
		delete(m.rooms, roomID)
		roomGone = true
	}
	return userGone, roomGone
}

// get returns the room if it exists.
func (m *roomManager) get(roomID string) (*Room, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	room, ok := m.rooms[roomID]
	return room, ok
}

// connections returns a snapshot of the connections currently joined to the
// room. Fan-out iterates the snapshot so per-recipient delivery never holds
// the room lock.
func (m *roomManager) connections(roomID string) []*Connection {
	m.mu.RLock()
	defer m.mu.RUnlock()

	room, ok := m.rooms[roomID]
	if !ok {
		return nil
	}
	conns := make([]*Connection, 0, len(room.conns))
	for _, conn := range room.conns {
		conns = append(conns, conn)
	}
	return conns
}

// participants returns the user ids present in the room.
func (m *roomManager) participants(roomID string) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	room, ok := m.rooms[roomID]
	if !ok {
		return nil
	}
	return room.Participants()
}

// touch refreshes the room's last-activity timestamp.
func (m *roomManager) touch(roomID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if room, ok := m.rooms[roomID]; ok {
		room.lastActivity = time.Now()
	}
}

func (m *roomManager) count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.rooms)
}

// sizes returns the participant count per room, used for metrics recompute.
func (m *roomManager) sizes() map[string]int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	sizes := make(map[string]int, len(m.rooms))
	for id, room := range m.rooms {
		sizes[id] = len(room.participants)
	}
	return sizes
}
