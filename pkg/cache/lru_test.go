package cache_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/auxeira/realtime/pkg/cache"
)

func TestLRU(t *testing.T) {
	t.Parallel()

	t.Run("get and put", func(t *testing.T) {
		t.Parallel()

		c := cache.NewLRU[string, int](3)
		c.Put("a", 1)
		c.Put("b", 2)

		v, ok := c.Get("a")
		require.True(t, ok)
		assert.Equal(t, 1, v)

		_, ok = c.Get("missing")
		assert.False(t, ok)
		assert.Equal(t, 2, c.Len())
	})

	t.Run("update keeps a single entry", func(t *testing.T) {
		t.Parallel()

		c := cache.NewLRU[string, int](3)
		c.Put("a", 1)
		c.Put("a", 2)

		v, ok := c.Get("a")
		require.True(t, ok)
		assert.Equal(t, 2, v)
		assert.Equal(t, 1, c.Len())
	})

	t.Run("evicts least recently used", func(t *testing.T) {
		t.Parallel()

		c := cache.NewLRU[string, int](2)
		c.Put("a", 1)
		c.Put("b", 2)

		// Touch "a" so "b" becomes the eviction candidate.
		_, ok := c.Get("a")
		require.True(t, ok)

		c.Put("c", 3)

		_, ok = c.Get("b")
		assert.False(t, ok)
		_, ok = c.Get("a")
		assert.True(t, ok)
		_, ok = c.Get("c")
		assert.True(t, ok)
	})

	t.Run("eviction callback", func(t *testing.T) {
		t.Parallel()

		c := cache.NewLRU[string, int](1)
		var evicted []string
		c.OnEvict(func(key string, _ int) { evicted = append(evicted, key) })

		c.Put("a", 1)
		c.Put("b", 2)
		assert.Equal(t, []string{"a"}, evicted)

		c.Clear()
		assert.Equal(t, []string{"a", "b"}, evicted)
		assert.Zero(t, c.Len())
	})

	t.Run("remove", func(t *testing.T) {
		t.Parallel()

		c := cache.NewLRU[string, int](2)
		c.Put("a", 1)

		assert.True(t, c.Remove("a"))
		assert.False(t, c.Remove("a"))
		assert.Zero(t, c.Len())
	})

	t.Run("invalid capacity panics", func(t *testing.T) {
		t.Parallel()

		assert.Panics(t, func() { cache.NewLRU[string, int](0) })
	})
}
