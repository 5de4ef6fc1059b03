package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBurstEqualsRate(t *testing.T) {
	l := New("watcher", 20)
	assert.Equal(t, "watcher", l.Name())
	assert.Equal(t, 20, l.Burst())
}

func TestNewWithBurst(t *testing.T) {
	l := NewWithBurst("datasette", 5, 10)
	assert.Equal(t, 10, l.Burst())
}

func TestAllowDrainsBurst(t *testing.T) {
	l := NewWithBurst("test", 1, 2)
	assert.True(t, l.Allow())
	assert.True(t, l.Allow())
	assert.False(t, l.Allow(), "burst of 2 exhausted")
}

func TestWaitHonorsContext(t *testing.T) {
	l := NewWithBurst("test", 1, 1)
	require.NoError(t, l.Wait(context.Background()))

	// Bucket is now empty; a cancelled context must surface as an error.
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	err := l.Wait(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "test rate limit")
}
