package gateway

import (
	"sync"
)

// registry tracks live connections by connection id and by user id. It is
// the single owner of Connection lifecycles; all mutation goes through the
// gateway's handlers.
type registry struct {
	mu     sync.RWMutex
	byID   map[string]*Connection
	byUser map[string]map[string]*Connection // userID -> connID -> conn
}

func newRegistry() *registry {
	return &registry{
		byID:   make(map[string]*Connection),
		byUser: make(map[string]map[string]*Connection),
	}
}

func (r *registry) add(conn *Connection) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.byID[conn.ID] = conn
	userConns, ok := r.byUser[conn.UserID]
	if !ok {
		userConns = make(map[string]*Connection)
		r.byUser[conn.UserID] = userConns
	}
	userConns[conn.ID] = conn
}

// remove deletes the connection from both indexes, reporting whether it was
// registered. Removing twice is a no-op.
func (r *registry) remove(connID string) (*Connection, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	conn, ok := r.byID[connID]
	if !ok {
		return nil, false
	}
	delete(r.byID, connID)

	if userConns, ok := r.byUser[conn.UserID]; ok {
		delete(userConns, connID)
		if len(userConns) == 0 {
			delete(r.byUser, conn.UserID)
		}
	}
	return conn, true
}

func (r *registry) get(connID string) (*Connection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	conn, ok := r.byID[connID]
	return conn, ok
}

// connectionsOf returns a snapshot of a user's live connections.
func (r *registry) connectionsOf(userID string) []*Connection {
	r.mu.RLock()
	defer r.mu.RUnlock()

	userConns, ok := r.byUser[userID]
	if !ok {
		return nil
	}
	conns := make([]*Connection, 0, len(userConns))
	for _, conn := range userConns {
		conns = append(conns, conn)
	}
	return conns
}

func (r *registry) isConnected(userID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byUser[userID]) > 0
}

// all returns a snapshot of every live connection.
func (r *registry) all() []*Connection {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conns := make([]*Connection, 0, len(r.byID))
	for _, conn := range r.byID {
		conns = append(conns, conn)
	}
	return conns
}

func (r *registry) count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}

func (r *registry) userCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byUser)
}
