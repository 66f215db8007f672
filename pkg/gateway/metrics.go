package gateway

import (
	"sync"
)

// Metrics is a process-wide snapshot of connection state. Counts are derived
// and recomputed from the registry and room manager on every heartbeat tick;
// only TotalConnections accumulates incrementally.
type Metrics struct {
	TotalConnections  int            `json:"total_connections"`
	ActiveConnections int            `json:"active_connections"`
	ConnectedUsers    int            `json:"connected_users"`
	ActiveRooms       int            `json:"active_rooms"`
	ConnectionsByRole map[string]int `json:"connections_by_role"`
	ConnectionsByRoom map[string]int `json:"connections_by_room"`
}

type metricsTracker struct {
	mu      sync.Mutex
	total   int
	current Metrics
}

func newMetricsTracker() *metricsTracker {
	return &metricsTracker{
		current: Metrics{
			ConnectionsByRole: map[string]int{},
			ConnectionsByRoom: map[string]int{},
		},
	}
}

func (t *metricsTracker) recordConnect() {
	t.mu.Lock()
	t.total++
	t.mu.Unlock()
}

// recompute rebuilds the snapshot from authoritative state. Incremental
// counters drift under concurrent churn, so the sweep recounts everything.
func (t *metricsTracker) recompute(reg *registry, rooms *roomManager) {
	conns := reg.all()
	byRole := make(map[string]int)
	for _, conn := range conns {
		byRole[conn.Role]++
	}

	t.mu.Lock()
	t.current = Metrics{
		TotalConnections:  t.total,
		ActiveConnections: len(conns),
		ConnectedUsers:    reg.userCount(),
		ActiveRooms:       rooms.count(),
		ConnectionsByRole: byRole,
		ConnectionsByRoom: rooms.sizes(),
	}
	t.mu.Unlock()
}

// snapshot returns a copy safe for concurrent readers.
func (t *metricsTracker) snapshot() Metrics {
	t.mu.Lock()
	defer t.mu.Unlock()

	m := t.current
	m.TotalConnections = t.total
	m.ConnectionsByRole = make(map[string]int, len(t.current.ConnectionsByRole))
	for k, v := range t.current.ConnectionsByRole {
		m.ConnectionsByRole[k] = v
	}
	m.ConnectionsByRoom = make(map[string]int, len(t.current.ConnectionsByRoom))
	for k, v := range t.current.ConnectionsByRoom {
		m.ConnectionsByRoom[k] = v
	}
	return m
}
