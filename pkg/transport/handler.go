package transport

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/auxeira/realtime/pkg/gateway"
	"github.com/auxeira/realtime/pkg/logger"
	"github.com/auxeira/realtime/pkg/notifications"
)

// NotificationService is the notification surface exposed to websocket
// clients. Satisfied by *notifications.Dispatcher.
type NotificationService interface {
	GetNotifications(ctx context.Context, userID string, opts notifications.ListOptions) ([]notifications.Notification, error)
	CountUnread(ctx context.Context, userID string) (int, error)
	MarkRead(ctx context.Context, userID string, notifIDs ...string) error
	MarkAllRead(ctx context.Context, userID string) error
	Archive(ctx context.Context, userID string, notifIDs ...string) error
	Dismiss(ctx context.Context, userID string, notifIDs ...string) error
	Preferences(ctx context.Context, userID string) (notifications.Preferences, error)
	UpdatePreferences(ctx context.Context, prefs notifications.Preferences) error
}

// Config controls websocket framing and keepalive timing. PingInterval must
// be shorter than PongTimeout or idle connections drop between pings.
type Config struct {
	ReadLimit    int64         `env:"WS_READ_LIMIT" envDefault:"65536"`
	WriteTimeout time.Duration `env:"WS_WRITE_TIMEOUT" envDefault:"10s"`
	PongTimeout  time.Duration `env:"WS_PONG_TIMEOUT" envDefault:"60s"`
	PingInterval time.Duration `env:"WS_PING_INTERVAL" envDefault:"54s"`
}

func (c *Config) applyDefaults() {
	if c.ReadLimit <= 0 {
		c.ReadLimit = 65536
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = 10 * time.Second
	}
	if c.PongTimeout <= 0 {
		c.PongTimeout = 60 * time.Second
	}
	if c.PingInterval <= 0 || c.PingInterval >= c.PongTimeout {
		c.PingInterval = c.PongTimeout * 9 / 10
	}
}

// Option configures a Handler.
type Option func(*Handler)

// WithLogger sets the transport logger.
func WithLogger(log *slog.Logger) Option {
	return func(h *Handler) { h.logger = log }
}

// WithConfig overrides framing and keepalive configuration.
func WithConfig(cfg Config) Option {
	return func(h *Handler) { h.config = cfg }
}

// WithCheckOrigin sets the origin policy for the upgrade handshake. The
// default accepts any origin; production deployments should restrict it.
func WithCheckOrigin(check func(r *http.Request) bool) Option {
	return func(h *Handler) { h.upgrader.CheckOrigin = check }
}

// Handler upgrades HTTP requests to websocket connections and bridges them
// to the gateway.
type Handler struct {
	gateway  *gateway.Gateway
	notifier NotificationService
	upgrader websocket.Upgrader
	logger   *slog.Logger
	config   Config
}

// NewHandler creates the websocket handler.
func NewHandler(gw *gateway.Gateway, notifier NotificationService, opts ...Option) *Handler {
	h := &Handler{
		gateway:  gw,
		notifier: notifier,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	h.config.applyDefaults()
	return h
}

// ServeHTTP performs the upgrade and hands the socket to a client session.
// Authentication happens after the upgrade so the client receives a proper
// close frame instead of an opaque handshake failure.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.LogAttrs(r.Context(), slog.LevelWarn, "websocket upgrade failed", logger.Error(err))
		return
	}

	creds := gateway.Credentials{Token: bearerToken(r)}
	meta := gateway.Metadata{
		UserAgent:  r.UserAgent(),
		IPAddress:  ClientIP(r),
		DeviceType: deviceType(r.UserAgent()),
	}

	conn, err := h.gateway.Connect(r.Context(), creds, meta)
	if err != nil {
		h.logger.LogAttrs(r.Context(), slog.LevelInfo, "connection rejected", logger.Error(err))
		deadline := time.Now().Add(h.config.WriteTimeout)
		msg := websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "authentication failed")
		_ = ws.WriteControl(websocket.CloseMessage, msg, deadline)
		_ = ws.Close()
		return
	}

	client := newClient(ws, conn, h)
	go client.writePump()
	client.readPump()
}

// bearerToken pulls the access token from the Authorization header or,
// failing that, the token query parameter browsers are limited to.
func bearerToken(r *http.Request) string {
	if auth := r.Header.Get("Authorization"); auth != "" {
		if token, ok := strings.CutPrefix(auth, "Bearer "); ok {
			return token
		}
	}
	return r.URL.Query().Get("token")
}
