package gateway

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/auxeira/realtime/pkg/logger"
)

// Credentials carry the client handshake secret, typically a bearer token.
type Credentials struct {
	Token string
}

// Identity is the authenticated principal behind a connection.
type Identity struct {
	UserID string
	Role   string
}

// Authenticator verifies connection credentials. Implementations live
// outside the core (JWT verification, session lookup).
type Authenticator interface {
	Verify(ctx context.Context, creds Credentials) (Identity, error)
}

// Config controls gateway timing and buffering.
type Config struct {
	HeartbeatInterval time.Duration `env:"GATEWAY_HEARTBEAT_INTERVAL" envDefault:"30s"`
	StaleThreshold    time.Duration `env:"GATEWAY_STALE_THRESHOLD" envDefault:"5m"`
	SendBufferSize    int           `env:"GATEWAY_SEND_BUFFER_SIZE" envDefault:"64"`
	ShutdownGrace     time.Duration `env:"GATEWAY_SHUTDOWN_GRACE" envDefault:"1s"`
	ReconnectDelay    time.Duration `env:"GATEWAY_RECONNECT_DELAY" envDefault:"30s"`
}

func (c *Config) applyDefaults() {
	if c.HeartbeatInterval <= 0 {
		c.HeartbeatInterval = 30 * time.Second
	}
	if c.StaleThreshold <= 0 {
		c.StaleThreshold = 5 * time.Minute
	}
	if c.SendBufferSize <= 0 {
		c.SendBufferSize = 64
	}
	if c.ShutdownGrace <= 0 {
		c.ShutdownGrace = time.Second
	}
	if c.ReconnectDelay <= 0 {
		c.ReconnectDelay = 30 * time.Second
	}
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithLogger sets the gateway logger.
func WithLogger(log *slog.Logger) Option {
	return func(g *Gateway) { g.logger = log }
}

// WithRoomAuthorizer sets the authorizer consulted for session-scoped rooms.
func WithRoomAuthorizer(authz RoomAuthorizer) Option {
	return func(g *Gateway) { g.authorizer = authz }
}

// WithConfig overrides the default timing configuration.
func WithConfig(cfg Config) Option {
	return func(g *Gateway) { g.config = cfg }
}

// Gateway is the top-level realtime entry point. It authenticates new
// connections, owns the registry and room manager, runs the staleness sweep,
// and exposes the best-effort send API consumed by external producers.
//
// All sends are fire-and-forget, at most once. An absent target is a silent
// no-op, never an error: this channel supplements the system of record.
type Gateway struct {
	config     Config
	auth       Authenticator
	authorizer RoomAuthorizer
	logger     *slog.Logger

	registry *registry
	rooms    *roomManager
	metrics  *metricsTracker

	mu     sync.Mutex
	closed bool

	sweepCancel context.CancelFunc
	wg          sync.WaitGroup
}

// New creates a gateway and starts its staleness sweeper.
func New(auth Authenticator, opts ...Option) *Gateway {
	g := &Gateway{
		auth:     auth,
		logger:   slog.Default(),
		registry: newRegistry(),
		rooms:    newRoomManager(),
		metrics:  newMetricsTracker(),
	}
	for _, opt := range opts {
		opt(g)
	}
	g.config.applyDefaults()

	ctx, cancel := context.WithCancel(context.Background())
	g.sweepCancel = cancel
	g.wg.Add(1)
	go g.sweepLoop(ctx)

	return g
}

// Connect authenticates credentials and registers a new connection. On
// success the connection is auto-joined to its private room and the default
// topic rooms for its role, and a connection_established event is queued.
func (g *Gateway) Connect(ctx context.Context, creds Credentials, meta Metadata) (*Connection, error) {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return nil, ErrGatewayClosed{}
	}
	g.mu.Unlock()

	identity, err := g.auth.Verify(ctx, creds)
	if err != nil {
		g.logger.LogAttrs(ctx, slog.LevelWarn, "connection rejected",
			logger.Error(err),
		)
		return nil, ErrAuthenticationFailed{Reason: "invalid credentials"}
	}

	conn := newConnection(uuid.New().String(), identity.UserID, identity.Role, meta, g.config.SendBufferSize)
	g.registry.add(conn)
	g.metrics.recordConnect()

	autoRooms := append([]string{PrivateRoomID(conn.UserID)}, defaultRooms(identity.Role)...)
	for _, roomID := range autoRooms {
		g.rooms.join(conn, roomID, KindForRoom(roomID, KindTopic))
		conn.addRoom(roomID)
	}

	conn.setState(StateActive)
	conn.send(NewEvent(EventConnectionEstablished, map[string]any{
		"connection_id": conn.ID,
		"user_id":       conn.UserID,
		"rooms":         conn.Rooms(),
		"features":      featuresForRole(conn.Role),
		"server_time":   time.Now(),
	}))

	g.logger.LogAttrs(ctx, slog.LevelInfo, "connection established",
		logger.ConnectionID(conn.ID),
		logger.UserID(conn.UserID),
		logger.Role(conn.Role),
	)
	return conn, nil
}

// defaultRooms lists the auto-join topic rooms for a role. The private room
// is joined separately during Connect.
func defaultRooms(role string) []string {
	base := []string{RoomScoreUpdates, RoomNotifications, RoomGamification}
	switch role {
	case RoleInvestor:
		return append(base, RoomInvestorMatching)
	case RoleAdmin:
		return append(base, RoomAdminDashboard)
	default:
		return base
	}
}

// featuresForRole mirrors the role-dependent capabilities advertised to
// clients at handshake.
func featuresForRole(role string) []string {
	base := []string{"sse_updates", "notifications", "gamification"}
	switch role {
	case RoleAdmin:
		return append(base, "admin_dashboard", "system_alerts", "user_management")
	case RoleInvestor:
		return append(base, "investor_matching", "deal_flow", "portfolio_updates")
	case RoleStartup:
		return append(base, "investor_interest", "partnership_updates", "mentorship")
	default:
		return base
	}
}

// KindForRoom returns the authoritative kind for reserved room namespaces.
// Clients cannot claim a weaker kind to bypass an access predicate; only
// unreserved ids fall through to the caller's claim.
func KindForRoom(roomID string, claimed RoomKind) RoomKind {
	switch {
	case IsPrivateRoom(roomID):
		return KindUserPrivate
	case roomID == RoomAdminDashboard:
		return KindAdmin
	case roomID == RoomInvestorMatching:
		return KindInvestorMatching
	case roomID == RoomScoreUpdates, roomID == RoomNotifications,
		roomID == RoomGamification, roomID == RoomPartnershipUpdates,
		roomID == RoomSystemAlerts:
		return KindTopic
	default:
		if claimed == "" {
			return KindSession
		}
		return claimed
	}
}

// JoinRoom validates access and adds the connection to the room. On success
// the caller receives a room_joined ack and other participants receive
// user_joined_room; on failure only a scoped room_join_error is queued and
// no state changes.
func (g *Gateway) JoinRoom(ctx context.Context, conn *Connection, roomID string, kind RoomKind) error {
	if conn.State() != StateActive {
		return ErrConnectionClosed{ConnectionID: conn.ID}
	}

	effective := KindForRoom(roomID, kind)
	if err := checkRoomAccess(ctx, conn, roomID, effective, g.authorizer); err != nil {
		conn.send(NewEvent(EventRoomJoinError, map[string]any{
			"room_id": roomID,
			"code":    "room_access_denied",
			"error":   "access denied to room",
		}))
		g.logger.LogAttrs(ctx, slog.LevelWarn, "room join denied",
			logger.ConnectionID(conn.ID),
			logger.UserID(conn.UserID),
			logger.RoomID(roomID),
		)
		return err
	}

	participants, newUser := g.rooms.join(conn, roomID, effective)
	conn.addRoom(roomID)

	if newUser {
		g.fanOutExcept(roomID, conn.ID, NewEvent(EventUserJoinedRoom, map[string]any{
			"room_id": roomID,
			"user_id": conn.UserID,
			"role":    conn.Role,
		}))
	}
	conn.send(NewEvent(EventRoomJoined, map[string]any{
		"room_id":      roomID,
		"room_kind":    effective,
		"participants": participants,
	}))

	g.logger.LogAttrs(ctx, slog.LevelDebug, "room joined",
		logger.ConnectionID(conn.ID),
		logger.UserID(conn.UserID),
		logger.RoomID(roomID),
	)
	return nil
}

// LeaveRoom removes the connection from the room. Leaving twice, or leaving
// an unjoined room, is a no-op.
func (g *Gateway) LeaveRoom(ctx context.Context, conn *Connection, roomID string) {
	if !conn.removeRoom(roomID) {
		return
	}
	userGone, _ := g.rooms.leave(conn, roomID)

	if userGone {
		g.fanOutExcept(roomID, conn.ID, NewEvent(EventUserLeftRoom, map[string]any{
			"room_id": roomID,
			"user_id": conn.UserID,
		}))
	}
	conn.send(NewEvent(EventRoomLeft, map[string]any{"room_id": roomID}))
}

// Heartbeat records client activity and acks with server time.
func (g *Gateway) Heartbeat(conn *Connection) {
	conn.Touch()
	conn.send(NewEvent(EventHeartbeatAck, map[string]any{"server_time": time.Now()}))
}

// Disconnect tears down a connection: every room membership is released
// (with user_left_room/user_disconnected notifications to remaining
// participants), the connection is removed from the registry and its event
// queue closed. Idempotent.
func (g *Gateway) Disconnect(conn *Connection, reason string) {
	state := conn.State()
	if state == StateClosed || state == StateDisconnecting {
		return
	}
	conn.setState(StateDisconnecting)

	for _, roomID := range conn.Rooms() {
		conn.removeRoom(roomID)
		userGone, _ := g.rooms.leave(conn, roomID)
		if userGone {
			g.fanOutExcept(roomID, conn.ID, NewEvent(EventUserDisconnected, map[string]any{
				"room_id": roomID,
				"user_id": conn.UserID,
			}))
		}
	}

	g.registry.remove(conn.ID)
	conn.close()

	g.logger.LogAttrs(context.Background(), slog.LevelInfo, "connection closed",
		logger.ConnectionID(conn.ID),
		logger.UserID(conn.UserID),
		slog.String("reason", reason),
		slog.Duration("session_duration", time.Since(conn.ConnectedAt)),
	)
}

// DisconnectUser force-disconnects every connection of a user. Unknown users
// are a no-op.
func (g *Gateway) DisconnectUser(userID, reason string) {
	for _, conn := range g.registry.connectionsOf(userID) {
		g.Disconnect(conn, reason)
	}
}

// IsConnected reports whether the user has at least one live connection.
func (g *Gateway) IsConnected(userID string) bool {
	return g.registry.isConnected(userID)
}

// SendToUser queues an event to every connection in the user's private
// room. Best effort: an offline user is a silent no-op.
func (g *Gateway) SendToUser(ctx context.Context, userID, eventType string, data any) {
	g.SendToRoom(ctx, PrivateRoomID(userID), eventType, data)
}

// SendToRoom fans an event out to every connection currently joined to the
// room. Recipients are independent: a full buffer on one connection drops
// only that copy.
func (g *Gateway) SendToRoom(ctx context.Context, roomID, eventType string, data any) {
	conns := g.rooms.connections(roomID)
	if len(conns) == 0 {
		return
	}

	ev := NewEvent(eventType, data)
	dropped := 0
	for _, conn := range conns {
		if !conn.send(ev) {
			dropped++
		}
	}
	g.rooms.touch(roomID)

	if dropped > 0 {
		g.logger.LogAttrs(ctx, slog.LevelWarn, "events dropped for slow consumers",
			logger.RoomID(roomID),
			logger.EventType(eventType),
			slog.Int("dropped", dropped),
		)
	}
}

// BroadcastAll queues an event to every live connection.
func (g *Gateway) BroadcastAll(ctx context.Context, eventType string, data any) {
	ev := NewEvent(eventType, data)
	for _, conn := range g.registry.all() {
		conn.send(ev)
	}
}

// fanOutExcept delivers to every room connection except the one identified
// by exceptID, used for join/leave notifications.
func (g *Gateway) fanOutExcept(roomID, exceptID string, ev Event) {
	for _, conn := range g.rooms.connections(roomID) {
		if conn.ID == exceptID {
			continue
		}
		conn.send(ev)
	}
}

// Health is the healthCheck response.
type Health struct {
	Status            string `json:"status"`
	ConnectedUsers    int    `json:"connected_users"`
	ActiveConnections int    `json:"active_connections"`
	ActiveRooms       int    `json:"active_rooms"`
	TotalConnections  int    `json:"total_connections"`
}

// HealthCheck reports gateway liveness and basic occupancy.
func (g *Gateway) HealthCheck() Health {
	g.mu.Lock()
	closed := g.closed
	g.mu.Unlock()

	status := "healthy"
	if closed {
		status = "shutting_down"
	}
	return Health{
		Status:            status,
		ConnectedUsers:    g.registry.userCount(),
		ActiveConnections: g.registry.count(),
		ActiveRooms:       g.rooms.count(),
		TotalConnections:  g.metrics.snapshot().TotalConnections,
	}
}

// Metrics returns the latest recomputed connection metrics.
func (g *Gateway) Metrics() Metrics {
	return g.metrics.snapshot()
}

// Shutdown broadcasts server_shutdown with a reconnect-delay hint, waits a
// bounded grace period, then force-disconnects everything and stops the
// sweeper. Not a drain-to-zero wait.
func (g *Gateway) Shutdown(ctx context.Context) error {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return nil
	}
	g.closed = true
	g.mu.Unlock()

	g.BroadcastAll(ctx, EventServerShutdown, map[string]any{
		"message":            "server is shutting down for maintenance",
		"reconnect_delay_ms": g.config.ReconnectDelay.Milliseconds(),
	})

	select {
	case <-time.After(g.config.ShutdownGrace):
	case <-ctx.Done():
	}

	for _, conn := range g.registry.all() {
		g.Disconnect(conn, "server_shutdown")
	}

	g.sweepCancel()
	g.wg.Wait()
	return nil
}
