package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const prefKeyPrefix = "notification_preferences:"

// RedisPreferenceStore persists preferences as JSON documents in redis.
// Records have no TTL: preferences survive until explicitly overwritten.
type RedisPreferenceStore struct {
	client redis.UniversalClient
}

// NewRedisPreferenceStore creates a redis-backed preference store.
func NewRedisPreferenceStore(client redis.UniversalClient) *RedisPreferenceStore {
	return &RedisPreferenceStore{client: client}
}

func (s *RedisPreferenceStore) Get(ctx context.Context, userID string) (Preferences, error) {
	raw, err := s.client.Get(ctx, prefKeyPrefix+userID).Bytes()
	if errors.Is(err, redis.Nil) {
		return DefaultPreferences(userID), nil
	}
	if err != nil {
		return Preferences{}, fmt.Errorf("load preferences: %w", err)
	}

	var prefs Preferences
	if err := json.Unmarshal(raw, &prefs); err != nil {
		return Preferences{}, fmt.Errorf("decode preferences: %w", err)
	}
	return prefs, nil
}

func (s *RedisPreferenceStore) Put(ctx context.Context, prefs Preferences) error {
	if prefs.UserID == "" {
		return ErrMissingUserID
	}
	prefs.UpdatedAt = time.Now()

	raw, err := json.Marshal(prefs)
	if err != nil {
		return fmt.Errorf("marshal preferences: %w", err)
	}
	if err := s.client.Set(ctx, prefKeyPrefix+prefs.UserID, raw, 0).Err(); err != nil {
		return fmt.Errorf("store preferences: %w", err)
	}
	return nil
}
