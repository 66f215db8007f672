package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	notifKeyPrefix  = "notification:"
	userIndexPrefix = "user_notifications:"
	notifRetention  = 30 * 24 * time.Hour
)

// RedisStorage is a redis-backed Storage. Each notification lives in its own
// key with a retention TTL; a per-user list keeps ids newest first, trimmed
// to the cap.
type RedisStorage struct {
	client  redis.UniversalClient
	userCap int
}

// RedisStorageOption configures a RedisStorage.
type RedisStorageOption func(*RedisStorage)

// WithRedisUserCap overrides the per-user index bound.
func WithRedisUserCap(limit int) RedisStorageOption {
	return func(s *RedisStorage) {
		if limit > 0 {
			s.userCap = limit
		}
	}
}

// NewRedisStorage creates a redis-backed notification store.
func NewRedisStorage(client redis.UniversalClient, opts ...RedisStorageOption) *RedisStorage {
	s := &RedisStorage{
		client:  client,
		userCap: DefaultUserCap,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func notifKey(id string) string      { return notifKeyPrefix + id }
func userIndexKey(uid string) string { return userIndexPrefix + uid }

func (s *RedisStorage) Create(ctx context.Context, notif Notification) error {
	if notif.ID == "" {
		return ErrMissingID
	}
	if notif.UserID == "" {
		return ErrMissingUserID
	}
	if notif.CreatedAt.IsZero() {
		notif.CreatedAt = time.Now()
	}

	raw, err := json.Marshal(notif)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, notifKey(notif.ID), raw, notifRetention)
	pipe.LPush(ctx, userIndexKey(notif.UserID), notif.ID)
	pipe.LTrim(ctx, userIndexKey(notif.UserID), 0, int64(s.userCap-1))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("store notification: %w", err)
	}
	return nil
}

func (s *RedisStorage) Get(ctx context.Context, userID, notifID string) (*Notification, error) {
	raw, err := s.client.Get(ctx, notifKey(notifID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotificationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load notification: %w", err)
	}

	var notif Notification
	if err := json.Unmarshal(raw, &notif); err != nil {
		return nil, fmt.Errorf("decode notification: %w", err)
	}
	if notif.UserID != userID {
		return nil, ErrNotificationNotFound
	}
	return &notif, nil
}

func (s *RedisStorage) List(ctx context.Context, userID string, opts ListOptions) ([]Notification, error) {
	ids, err := s.client.LRange(ctx, userIndexKey(userID), 0, int64(s.userCap-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("load notification index: %w", err)
	}
	if len(ids) == 0 {
		return []Notification{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = notifKey(id)
	}
	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("load notifications: %w", err)
	}

	var filtered []Notification
	for _, v := range values {
		raw, ok := v.(string)
		if !ok {
			continue // evicted by retention TTL
		}
		var n Notification
		if err := json.Unmarshal([]byte(raw), &n); err != nil {
			continue
		}
		if n.DeliveryStatus == DeliveryExpired || n.IsExpired() {
			continue
		}
		if opts.Status != "" && n.ReadStatus != opts.Status {
			continue
		}
		if opts.Type != "" && n.Type != opts.Type {
			continue
		}
		if opts.Category != "" && n.Category != opts.Category {
			continue
		}
		filtered = append(filtered, n)
	}

	start := opts.Offset
	if start > len(filtered) {
		return []Notification{}, nil
	}
	end := len(filtered)
	if opts.Limit > 0 && start+opts.Limit < end {
		end = start + opts.Limit
	}
	return filtered[start:end], nil
}

func (s *RedisStorage) SetDeliveryStatus(ctx context.Context, userID, notifID string, status DeliveryStatus, at time.Time) error {
	notif, err := s.Get(ctx, userID, notifID)
	if errors.Is(err, ErrNotificationNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	if notif.DeliveryStatus == status || !notif.DeliveryStatus.CanTransition(status) {
		return nil
	}
	notif.DeliveryStatus = status
	if status == DeliveryDelivered {
		t := at
		notif.DeliveredAt = &t
	}
	return s.put(ctx, *notif)
}

func (s *RedisStorage) SetReadStatus(ctx context.Context, userID string, status ReadStatus, notifIDs ...string) error {
	for _, id := range notifIDs {
		notif, err := s.Get(ctx, userID, id)
		if errors.Is(err, ErrNotificationNotFound) {
			continue
		}
		if err != nil {
			return err
		}
		if notif.ReadStatus == status || !notif.ReadStatus.CanTransition(status) {
			continue
		}
		notif.ReadStatus = status
		if status == ReadRead && notif.ReadAt == nil {
			now := time.Now()
			notif.ReadAt = &now
		}
		if err := s.put(ctx, *notif); err != nil {
			return err
		}
	}
	return nil
}

func (s *RedisStorage) CountUnread(ctx context.Context, userID string) (int, error) {
	unread, err := s.List(ctx, userID, ListOptions{Status: ReadUnread})
	if err != nil {
		return 0, err
	}
	return len(unread), nil
}

// PurgeExpired walks user indexes via SCAN and expires pending or
// unread-delivered records past their TTL.
func (s *RedisStorage) PurgeExpired(ctx context.Context) (int, error) {
	purged := 0
	iter := s.client.Scan(ctx, 0, userIndexPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		userID := iter.Val()[len(userIndexPrefix):]
		ids, err := s.client.LRange(ctx, iter.Val(), 0, int64(s.userCap-1)).Result()
		if err != nil {
			continue
		}
		for _, id := range ids {
			notif, err := s.Get(ctx, userID, id)
			if err != nil {
				continue
			}
			if !notif.IsExpired() || notif.DeliveryStatus == DeliveryExpired {
				continue
			}
			if notif.DeliveryStatus == DeliveryPending ||
				(notif.DeliveryStatus == DeliveryDelivered && notif.ReadStatus == ReadUnread) {
				notif.DeliveryStatus = DeliveryExpired
				if err := s.put(ctx, *notif); err == nil {
					purged++
				}
			}
		}
	}
	if err := iter.Err(); err != nil {
		return purged, fmt.Errorf("scan notification indexes: %w", err)
	}
	return purged, nil
}

// put rewrites a notification preserving the remaining retention TTL.
func (s *RedisStorage) put(ctx context.Context, notif Notification) error {
	raw, err := json.Marshal(notif)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}
	if err := s.client.Set(ctx, notifKey(notif.ID), raw, redis.KeepTTL).Err(); err != nil {
		return fmt.Errorf("update notification: %w", err)
	}
	return nil
}
