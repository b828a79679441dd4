package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLimiter(requests, blockThreshold int) *Limiter {
	return NewLimiter(Config{
		RequestsPerWindow: requests,
		Window:            time.Minute,
		BlockThreshold:    blockThreshold,
		BlockDuration:     time.Minute,
		CleanupInterval:   time.Minute,
	})
}

func TestCheckAllowsWithinWindow(t *testing.T) {
	l := newTestLimiter(3, 10)
	defer l.Close()

	for i := 0; i < 3; i++ {
		require.NoError(t, l.Check("user-1"))
	}
	assert.ErrorIs(t, l.Check("user-1"), ErrRateLimited)
}

func TestCheckIsolatesUsers(t *testing.T) {
	l := newTestLimiter(1, 10)
	defer l.Close()

	require.NoError(t, l.Check("user-1"))
	require.ErrorIs(t, l.Check("user-1"), ErrRateLimited)
	assert.NoError(t, l.Check("user-2"))
}

func TestCheckBlocksRepeatOffenders(t *testing.T) {
	l := newTestLimiter(1, 3)
	defer l.Close()

	require.NoError(t, l.Check("user-1"))
	require.ErrorIs(t, l.Check("user-1"), ErrRateLimited)
	require.ErrorIs(t, l.Check("user-1"), ErrRateLimited)
	assert.ErrorIs(t, l.Check("user-1"), ErrBlocked)
	// Once blocked, every call is rejected.
	assert.ErrorIs(t, l.Check("user-1"), ErrBlocked)
}

func TestCloseIsIdempotent(t *testing.T) {
	l := newTestLimiter(1, 10)
	l.Close()
	l.Close()
}
