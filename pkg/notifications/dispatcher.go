package notifications

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/auxeira/realtime/pkg/logger"
)

// Events emitted to clients through the realtime sender.
const (
	EventNotification = "notification"
	EventMarkedRead   = "notification_marked_read"
	EventUnreadCount  = "notifications_unread_count"
	EventSystemAlert  = "system_alert"
)

// RealtimeSender is the gateway surface the dispatcher delivers through.
// Satisfied by *gateway.Gateway.
type RealtimeSender interface {
	SendToUser(ctx context.Context, userID, eventType string, data any)
	BroadcastAll(ctx context.Context, eventType string, data any)
	IsConnected(userID string) bool
}

// Input describes a notification to send. Zero-value Category, Priority and
// Channels receive defaults (system, medium, realtime).
type Input struct {
	UserID    string         `json:"user_id"`
	Type      Type           `json:"type"`
	Category  Category       `json:"category"`
	Priority  Priority       `json:"priority"`
	Title     string         `json:"title"`
	Message   string         `json:"message"`
	ActionURL string         `json:"action_url,omitempty"`
	Data      map[string]any `json:"data,omitempty"`
	Channels  []Channel      `json:"channels,omitempty"`
	ExpiresAt *time.Time     `json:"expires_at,omitempty"`
}

// Announcement is a system-wide notice. With explicit targets each recipient
// goes through the full per-user gating; without targets only a realtime
// broadcast is emitted, since there is no recipient set to persist against.
type Announcement struct {
	Title       string     `json:"title"`
	Message     string     `json:"message"`
	Priority    Priority   `json:"priority"`
	ActionURL   string     `json:"action_url,omitempty"`
	TargetUsers []string   `json:"target_users,omitempty"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
}

// Config controls dispatcher batching and the deferred-delivery flush.
type Config struct {
	BatchSize     int           `env:"NOTIFY_BATCH_SIZE" envDefault:"50"`
	BatchPause    time.Duration `env:"NOTIFY_BATCH_PAUSE" envDefault:"100ms"`
	FlushInterval time.Duration `env:"NOTIFY_FLUSH_INTERVAL" envDefault:"1m"`
}

func (c *Config) applyDefaults() {
	if c.BatchSize <= 0 {
		c.BatchSize = 50
	}
	if c.BatchPause <= 0 {
		c.BatchPause = 100 * time.Millisecond
	}
	if c.FlushInterval <= 0 {
		c.FlushInterval = time.Minute
	}
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithLogger sets the dispatcher logger.
func WithLogger(log *slog.Logger) Option {
	return func(d *Dispatcher) { d.logger = log }
}

// WithSecondaryChannels registers secondary delivery channels.
func WithSecondaryChannels(channels ...SecondaryChannel) Option {
	return func(d *Dispatcher) { d.channels = append(d.channels, channels...) }
}

// WithConfig overrides batching and flush configuration.
func WithConfig(cfg Config) Option {
	return func(d *Dispatcher) { d.config = cfg }
}

// WithNowFunc overrides the clock, letting tests pin quiet-hours decisions.
func WithNowFunc(now func() time.Time) Option {
	return func(d *Dispatcher) {
		if now != nil {
			d.now = now
		}
	}
}

// Dispatcher routes, filters, persists and delivers notifications. Every
// send runs the same ordered gates: preference check, quiet hours, realtime
// delivery, persistence, secondary channels. All mutation of the stored
// index goes through the Storage interface; producers never bypass it.
type Dispatcher struct {
	storage  Storage
	prefs    PreferenceStore
	sender   RealtimeSender
	channels []SecondaryChannel
	logger   *slog.Logger
	config   Config
	now      func() time.Time

	mu       sync.Mutex
	closed   bool
	deferred []string // notification ids queued during quiet hours
	defUsers map[string]string

	flushCancel context.CancelFunc
	wg          sync.WaitGroup
}

// NewDispatcher creates a dispatcher and starts its deferred-delivery flush
// loop.
func NewDispatcher(storage Storage, prefs PreferenceStore, sender RealtimeSender, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		storage:  storage,
		prefs:    prefs,
		sender:   sender,
		logger:   slog.Default(),
		now:      time.Now,
		defUsers: make(map[string]string),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.config.applyDefaults()

	ctx, cancel := context.WithCancel(context.Background())
	d.flushCancel = cancel
	d.wg.Add(1)
	go d.flushLoop(ctx)

	return d
}

// Send routes one notification through the dispatch gates and returns its
// id. A preference-blocked notification is persisted but never delivered,
// so later preference changes can surface history. A send inside the
// target's quiet hours is persisted pending and queued for delivery after
// the window. An offline target is not an error: the record stays pending.
func (d *Dispatcher) Send(ctx context.Context, in Input) (string, error) {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return "", ErrDispatcherClosed
	}
	d.mu.Unlock()

	if in.UserID == "" {
		return "", ErrMissingUserID
	}

	notif := d.build(in)

	prefs, err := d.prefs.Get(ctx, notif.UserID)
	if err != nil {
		return "", fmt.Errorf("load preferences: %w", err)
	}

	if !prefs.Allows(notif) {
		if err := d.storage.Create(ctx, notif); err != nil {
			return "", fmt.Errorf("store notification: %w", err)
		}
		d.logger.LogAttrs(ctx, slog.LevelDebug, "notification suppressed by preferences",
			logger.NotificationID(notif.ID),
			logger.UserID(notif.UserID),
			slog.String("type", string(notif.Type)),
		)
		return notif.ID, nil
	}

	if prefs.QuietHours.Contains(d.now()) {
		if err := d.storage.Create(ctx, notif); err != nil {
			return "", fmt.Errorf("store notification: %w", err)
		}
		d.queueDeferred(notif)
		d.logger.LogAttrs(ctx, slog.LevelDebug, "notification deferred for quiet hours",
			logger.NotificationID(notif.ID),
			logger.UserID(notif.UserID),
		)
		return notif.ID, nil
	}

	// Persist before delivery so the record survives a delivery failure.
	if err := d.storage.Create(ctx, notif); err != nil {
		return "", fmt.Errorf("store notification: %w", err)
	}

	d.deliverRealtime(ctx, notif)
	d.dispatchSecondary(ctx, notif, prefs)

	return notif.ID, nil
}

// build fills defaults and stamps the record.
func (d *Dispatcher) build(in Input) Notification {
	if in.Category == "" {
		in.Category = CategorySystem
	}
	if in.Priority == "" {
		in.Priority = PriorityMedium
	}
	if len(in.Channels) == 0 {
		in.Channels = []Channel{ChannelRealtime}
	}
	return Notification{
		ID:             uuid.New().String(),
		UserID:         in.UserID,
		Type:           in.Type,
		Category:       in.Category,
		Priority:       in.Priority,
		Title:          in.Title,
		Message:        in.Message,
		ActionURL:      in.ActionURL,
		Data:           in.Data,
		Channels:       in.Channels,
		DeliveryStatus: DeliveryPending,
		ReadStatus:     ReadUnread,
		CreatedAt:      d.now(),
		ExpiresAt:      in.ExpiresAt,
	}
}

// deliverRealtime attempts immediate delivery, marking the record delivered
// only when the target had a live connection.
func (d *Dispatcher) deliverRealtime(ctx context.Context, notif Notification) {
	if !notif.HasChannel(ChannelRealtime) || !d.sender.IsConnected(notif.UserID) {
		return
	}

	d.sender.SendToUser(ctx, notif.UserID, EventNotification, notif)
	if err := d.storage.SetDeliveryStatus(ctx, notif.UserID, notif.ID, DeliveryDelivered, d.now()); err != nil {
		d.logger.LogAttrs(ctx, slog.LevelWarn, "failed to mark notification delivered",
			logger.NotificationID(notif.ID),
			logger.Error(err),
		)
	}
	d.pushUnreadCount(ctx, notif.UserID)
}

// dispatchSecondary fans out to registered secondary channels the
// notification requested and the user allows. Fire-and-forget: failures are
// logged per channel and never abort the send. SMS is restricted to urgent
// and critical notifications.
func (d *Dispatcher) dispatchSecondary(ctx context.Context, notif Notification, prefs Preferences) {
	for _, ch := range d.channels {
		name := ch.Channel()
		if !notif.HasChannel(name) || !prefs.ChannelEnabled(name) {
			continue
		}
		if name == ChannelSMS && notif.Priority != PriorityUrgent && notif.Priority != PriorityCritical {
			continue
		}

		// Registering under the lock keeps the Add ordered before a
		// concurrent Close's Wait. Once closed, nothing new is dispatched.
		d.mu.Lock()
		if d.closed {
			d.mu.Unlock()
			return
		}
		d.wg.Add(1)
		d.mu.Unlock()
		go func(ch SecondaryChannel) {
			defer d.wg.Done()
			if err := ch.Send(context.WithoutCancel(ctx), notif); err != nil {
				d.logger.LogAttrs(ctx, slog.LevelError, "secondary channel delivery failed",
					logger.NotificationID(notif.ID),
					logger.UserID(notif.UserID),
					slog.String("channel", string(ch.Channel())),
					logger.Error(err),
				)
			}
		}(ch)
	}
}

// queueDeferred queues a quiet-hours notification for the flush loop.
func (d *Dispatcher) queueDeferred(notif Notification) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.deferred = append(d.deferred, notif.ID)
	d.defUsers[notif.ID] = notif.UserID
}

// flushLoop periodically re-attempts deferred deliveries and expires stale
// records.
func (d *Dispatcher) flushLoop(ctx context.Context) {
	defer d.wg.Done()

	ticker := time.NewTicker(d.config.FlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			d.Flush(ctx)
			if _, err := d.storage.PurgeExpired(ctx); err != nil {
				d.logger.LogAttrs(ctx, slog.LevelWarn, "expiry purge failed", logger.Error(err))
			}
		case <-ctx.Done():
			return
		}
	}
}

// Flush delivers deferred notifications whose target's quiet window has
// ended. Exposed for tests and admin tooling; the flush loop calls it on
// every tick.
func (d *Dispatcher) Flush(ctx context.Context) {
	d.mu.Lock()
	pending := d.deferred
	users := d.defUsers
	d.deferred = nil
	d.defUsers = make(map[string]string)
	d.mu.Unlock()

	for _, id := range pending {
		userID := users[id]
		prefs, err := d.prefs.Get(ctx, userID)
		if err != nil || prefs.QuietHours.Contains(d.now()) {
			// Still quiet (or prefs unavailable): keep for the next tick.
			d.mu.Lock()
			d.deferred = append(d.deferred, id)
			d.defUsers[id] = userID
			d.mu.Unlock()
			continue
		}

		notif, err := d.storage.Get(ctx, userID, id)
		if err != nil {
			continue // evicted or expired meanwhile
		}
		if notif.DeliveryStatus != DeliveryPending {
			continue
		}
		d.deliverRealtime(ctx, *notif)
		d.dispatchSecondary(ctx, *notif, prefs)
	}
}

// SendBulk processes notifications in fixed-size batches with a short pause
// between batches to bound burst load. Recipients are independent: one
// failure never aborts the rest. Returns the ids of successful sends and an
// aggregate of per-item errors.
func (d *Dispatcher) SendBulk(ctx context.Context, inputs []Input) ([]string, error) {
	ids := make([]string, 0, len(inputs))
	var errs []error

	for start := 0; start < len(inputs); start += d.config.BatchSize {
		end := min(start+d.config.BatchSize, len(inputs))

		for _, in := range inputs[start:end] {
			id, err := d.Send(ctx, in)
			if err != nil {
				errs = append(errs, fmt.Errorf("send to %s: %w", in.UserID, err))
				continue
			}
			ids = append(ids, id)
		}

		if end < len(inputs) {
			select {
			case <-time.After(d.config.BatchPause):
			case <-ctx.Done():
				return ids, ctx.Err()
			}
		}
	}
	return ids, errors.Join(errs...)
}

// SendSystemAnnouncement notifies the named targets through the full
// per-recipient gating, or emits a realtime-only broadcast when no targets
// are given.
func (d *Dispatcher) SendSystemAnnouncement(ctx context.Context, ann Announcement) ([]string, error) {
	if ann.Priority == "" {
		ann.Priority = PriorityHigh
	}

	if len(ann.TargetUsers) == 0 {
		d.sender.BroadcastAll(ctx, EventSystemAlert, map[string]any{
			"title":      ann.Title,
			"message":    ann.Message,
			"priority":   ann.Priority,
			"action_url": ann.ActionURL,
		})
		return nil, nil
	}

	inputs := make([]Input, len(ann.TargetUsers))
	for i, userID := range ann.TargetUsers {
		inputs[i] = Input{
			UserID:    userID,
			Type:      TypeSystemAlert,
			Category:  CategorySystem,
			Priority:  ann.Priority,
			Title:     ann.Title,
			Message:   ann.Message,
			ActionURL: ann.ActionURL,
			ExpiresAt: ann.ExpiresAt,
		}
	}
	return d.SendBulk(ctx, inputs)
}

// MarkRead transitions notifications to read and pushes the fresh unread
// count. Repeats and unknown ids are no-ops.
func (d *Dispatcher) MarkRead(ctx context.Context, userID string, notifIDs ...string) error {
	if err := d.storage.SetReadStatus(ctx, userID, ReadRead, notifIDs...); err != nil {
		return err
	}
	for _, id := range notifIDs {
		d.sender.SendToUser(ctx, userID, EventMarkedRead, map[string]any{"notification_id": id})
	}
	d.pushUnreadCount(ctx, userID)
	return nil
}

// MarkAllRead marks every unread notification read.
func (d *Dispatcher) MarkAllRead(ctx context.Context, userID string) error {
	unread, err := d.storage.List(ctx, userID, ListOptions{Status: ReadUnread})
	if err != nil {
		return err
	}
	if len(unread) == 0 {
		return nil
	}

	ids := make([]string, len(unread))
	for i, n := range unread {
		ids[i] = n.ID
	}
	if err := d.storage.SetReadStatus(ctx, userID, ReadRead, ids...); err != nil {
		return err
	}
	d.pushUnreadCount(ctx, userID)
	return nil
}

// Archive transitions notifications to archived.
func (d *Dispatcher) Archive(ctx context.Context, userID string, notifIDs ...string) error {
	if err := d.storage.SetReadStatus(ctx, userID, ReadArchived, notifIDs...); err != nil {
		return err
	}
	d.pushUnreadCount(ctx, userID)
	return nil
}

// Dismiss transitions notifications to dismissed.
func (d *Dispatcher) Dismiss(ctx context.Context, userID string, notifIDs ...string) error {
	if err := d.storage.SetReadStatus(ctx, userID, ReadDismissed, notifIDs...); err != nil {
		return err
	}
	d.pushUnreadCount(ctx, userID)
	return nil
}

// GetNotifications lists the user's notifications newest first.
func (d *Dispatcher) GetNotifications(ctx context.Context, userID string, opts ListOptions) ([]Notification, error) {
	return d.storage.List(ctx, userID, opts)
}

// CountUnread returns the user's unread count.
func (d *Dispatcher) CountUnread(ctx context.Context, userID string) (int, error) {
	return d.storage.CountUnread(ctx, userID)
}

// Preferences returns the user's delivery preferences, creating defaults on
// first access.
func (d *Dispatcher) Preferences(ctx context.Context, userID string) (Preferences, error) {
	return d.prefs.Get(ctx, userID)
}

// UpdatePreferences stores the user's delivery preferences.
func (d *Dispatcher) UpdatePreferences(ctx context.Context, prefs Preferences) error {
	return d.prefs.Put(ctx, prefs)
}

// pushUnreadCount emits the fresh unread count to the user's connections.
func (d *Dispatcher) pushUnreadCount(ctx context.Context, userID string) {
	count, err := d.storage.CountUnread(ctx, userID)
	if err != nil {
		d.logger.LogAttrs(ctx, slog.LevelWarn, "unread count lookup failed",
			logger.UserID(userID),
			logger.Error(err),
		)
		return
	}
	d.sender.SendToUser(ctx, userID, EventUnreadCount, map[string]any{"unread": count})
}

// Close stops the flush loop and waits for in-flight secondary dispatches.
// Deferred quiet-hours notifications remain persisted as pending.
func (d *Dispatcher) Close() error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	d.mu.Unlock()

	d.flushCancel()
	d.wg.Wait()
	return nil
}
