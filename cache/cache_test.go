package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPutGetInvalidate(t *testing.T) {
	c, err := New[string](100, time.Hour)
	require.NoError(t, err)
	defer c.Close()

	_, ok := c.Get("a")
	assert.False(t, ok)

	require.True(t, c.Put("a", "alpha", 0))
	got, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, "alpha", got)

	c.Invalidate("a")
	_, ok = c.Get("a")
	assert.False(t, ok)
}

func TestExpiration(t *testing.T) {
	c, err := New[int](100, time.Hour)
	require.NoError(t, err)
	defer c.Close()

	require.True(t, c.Put("k", 1, 50*time.Millisecond))
	assert.Eventually(t, func() bool {
		_, ok := c.Get("k")
		return !ok
	}, 3*time.Second, 20*time.Millisecond)
}

func TestNewRejectsEmptyCapacity(t *testing.T) {
	_, err := New[int](0, time.Minute)
	assert.Error(t, err)
}
