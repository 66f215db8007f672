package notifications_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/auxeira/realtime/pkg/notifications"
)

func TestMemoryPreferenceStore(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("miss returns defaults", func(t *testing.T) {
		t.Parallel()

		store := notifications.NewMemoryPreferenceStore()
		prefs, err := store.Get(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, "alice", prefs.UserID)
		assert.False(t, prefs.QuietHours.Enabled)
	})

	t.Run("put then get", func(t *testing.T) {
		t.Parallel()

		store := notifications.NewMemoryPreferenceStore()
		prefs := notifications.DefaultPreferences("alice")
		prefs.QuietHours.Enabled = true
		require.NoError(t, store.Put(ctx, prefs))

		got, err := store.Get(ctx, "alice")
		require.NoError(t, err)
		assert.True(t, got.QuietHours.Enabled)
		assert.False(t, got.UpdatedAt.IsZero())
	})

	t.Run("rejects missing user id", func(t *testing.T) {
		t.Parallel()

		store := notifications.NewMemoryPreferenceStore()
		err := store.Put(ctx, notifications.Preferences{})
		assert.ErrorIs(t, err, notifications.ErrMissingUserID)
	})
}

// countingStore counts backend reads so cache hits are observable.
type countingStore struct {
	mu      sync.Mutex
	backend *notifications.MemoryPreferenceStore
	gets    int
	putErr  error
}

func (s *countingStore) Get(ctx context.Context, userID string) (notifications.Preferences, error) {
	s.mu.Lock()
	s.gets++
	s.mu.Unlock()
	return s.backend.Get(ctx, userID)
}

func (s *countingStore) Put(ctx context.Context, prefs notifications.Preferences) error {
	if s.putErr != nil {
		return s.putErr
	}
	return s.backend.Put(ctx, prefs)
}

func (s *countingStore) getCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gets
}

func TestCachedPreferenceStore(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("caches reads", func(t *testing.T) {
		t.Parallel()

		backend := &countingStore{backend: notifications.NewMemoryPreferenceStore()}
		store := notifications.NewCachedPreferenceStore(backend, 8)

		for range 3 {
			_, err := store.Get(ctx, "alice")
			require.NoError(t, err)
		}
		assert.Equal(t, 1, backend.getCount())
	})

	t.Run("put writes through and refreshes the cache", func(t *testing.T) {
		t.Parallel()

		backend := &countingStore{backend: notifications.NewMemoryPreferenceStore()}
		store := notifications.NewCachedPreferenceStore(backend, 8)

		_, err := store.Get(ctx, "alice")
		require.NoError(t, err)

		prefs := notifications.DefaultPreferences("alice")
		prefs.QuietHours.Enabled = true
		require.NoError(t, store.Put(ctx, prefs))

		got, err := store.Get(ctx, "alice")
		require.NoError(t, err)
		assert.True(t, got.QuietHours.Enabled)
		assert.Equal(t, 1, backend.getCount(), "refresh comes from the write, not a re-read")

		// The backend holds the same state for a cold reader.
		direct, err := backend.Get(ctx, "alice")
		require.NoError(t, err)
		assert.True(t, direct.QuietHours.Enabled)
	})

	t.Run("backend put failure leaves the cache untouched", func(t *testing.T) {
		t.Parallel()

		backend := &countingStore{backend: notifications.NewMemoryPreferenceStore()}
		store := notifications.NewCachedPreferenceStore(backend, 8)

		_, err := store.Get(ctx, "alice")
		require.NoError(t, err)

		backend.putErr = errors.New("backend down")
		prefs := notifications.DefaultPreferences("alice")
		prefs.QuietHours.Enabled = true
		require.Error(t, store.Put(ctx, prefs))

		got, err := store.Get(ctx, "alice")
		require.NoError(t, err)
		assert.False(t, got.QuietHours.Enabled)
	})
}
