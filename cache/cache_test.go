package cache

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetSet(t *testing.T) {
	c := New[string, int]()

	_, ok := c.Get("a")
	assert.False(t, ok)

	c.Set("a", 1)
	value, ok := c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 1, value)

	c.Set("a", 2)
	value, _ = c.Get("a")
	assert.Equal(t, 2, value)
	assert.Equal(t, 1, c.Len())
}

func TestGetOrCompute(t *testing.T) {
	c := New[string, string]()
	calls := 0
	compute := func() (string, error) {
		calls++
		return "computed", nil
	}

	value, err := c.GetOrCompute("k", compute)
	require.NoError(t, err)
	assert.Equal(t, "computed", value)

	value, err = c.GetOrCompute("k", compute)
	require.NoError(t, err)
	assert.Equal(t, "computed", value)
	assert.Equal(t, 1, calls)
}

func TestGetOrComputeErrorNotCached(t *testing.T) {
	c := New[string, string]()
	fail := errors.New("boom")
	calls := 0

	_, err := c.GetOrCompute("k", func() (string, error) {
		calls++
		return "", fail
	})
	assert.ErrorIs(t, err, fail)
	assert.Equal(t, 0, c.Len())

	// The next lookup retries.
	value, err := c.GetOrCompute("k", func() (string, error) {
		calls++
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", value)
	assert.Equal(t, 2, calls)
}

func TestStats(t *testing.T) {
	c := New[string, int]()
	c.Set("a", 1)

	c.Get("a")
	c.Get("a")
	c.Get("missing")

	stats := c.Stats()
	assert.Equal(t, 1, stats.Size)
	assert.Equal(t, uint64(2), stats.Hits)
	assert.Equal(t, uint64(1), stats.Misses)
}

func TestConcurrentAccess(t *testing.T) {
	c := New[int, int]()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				key := j % 10
				_, _ = c.GetOrCompute(key, func() (int, error) {
					return key * 2, nil
				})
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 10, c.Len())
	for key := 0; key < 10; key++ {
		value, ok := c.Get(key)
		require.True(t, ok)
		assert.Equal(t, key*2, value)
	}
}
