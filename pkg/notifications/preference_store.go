package notifications

import (
	"context"
	"sync"
	"time"

	"github.com/auxeira/realtime/pkg/cache"
)

// MemoryPreferenceStore is an in-memory PreferenceStore suitable for
// development, tests and single-node deployments.
type MemoryPreferenceStore struct {
	mu    sync.RWMutex
	prefs map[string]Preferences
}

// NewMemoryPreferenceStore creates an empty in-memory preference store.
func NewMemoryPreferenceStore() *MemoryPreferenceStore {
	return &MemoryPreferenceStore{prefs: make(map[string]Preferences)}
}

func (s *MemoryPreferenceStore) Get(ctx context.Context, userID string) (Preferences, error) {
	s.mu.RLock()
	prefs, ok := s.prefs[userID]
	s.mu.RUnlock()

	if !ok {
		return DefaultPreferences(userID), nil
	}
	return prefs, nil
}

func (s *MemoryPreferenceStore) Put(ctx context.Context, prefs Preferences) error {
	if prefs.UserID == "" {
		return ErrMissingUserID
	}
	prefs.UpdatedAt = time.Now()

	s.mu.Lock()
	s.prefs[prefs.UserID] = prefs
	s.mu.Unlock()
	return nil
}

// CachedPreferenceStore decorates a PreferenceStore with an LRU cache so the
// dispatch hot path avoids a backend round trip per send.
type CachedPreferenceStore struct {
	backend PreferenceStore
	cache   *cache.LRU[string, Preferences]
}

// NewCachedPreferenceStore wraps backend with a cache of the given capacity.
func NewCachedPreferenceStore(backend PreferenceStore, capacity int) *CachedPreferenceStore {
	return &CachedPreferenceStore{
		backend: backend,
		cache:   cache.NewLRU[string, Preferences](capacity),
	}
}

func (s *CachedPreferenceStore) Get(ctx context.Context, userID string) (Preferences, error) {
	if prefs, ok := s.cache.Get(userID); ok {
		return prefs, nil
	}

	prefs, err := s.backend.Get(ctx, userID)
	if err != nil {
		return Preferences{}, err
	}
	s.cache.Put(userID, prefs)
	return prefs, nil
}

// Put writes through to the backend and refreshes the cache entry.
func (s *CachedPreferenceStore) Put(ctx context.Context, prefs Preferences) error {
	if err := s.backend.Put(ctx, prefs); err != nil {
		return err
	}
	s.cache.Put(prefs.UserID, prefs)
	return nil
}
