package ratelimit_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/xingkaijun/modernnav/ratelimit"
)

// fakeClock lets tests drive the limiter's view of time.
type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func TestLimiterBoundary(t *testing.T) {
	clock := newFakeClock()
	l := ratelimit.New(15, 15*time.Minute, ratelimit.WithNowFunc(clock.Now))

	for i := 0; i < 15; i++ {
		require.True(t, l.Allow("1.2.3.4"), "call %d should be allowed", i+1)
	}
	require.False(t, l.Allow("1.2.3.4"), "16th call within the window should be denied")

	// Crossing the window boundary resets the counter.
	reset, ok := l.ResetTime("1.2.3.4")
	require.True(t, ok)
	clock.now = reset.Add(time.Millisecond)
	require.True(t, l.Allow("1.2.3.4"))

	// And the new window starts from the reset call.
	newReset, ok := l.ResetTime("1.2.3.4")
	require.True(t, ok)
	require.Equal(t, clock.now.Add(15*time.Minute), newReset)
}

func TestLimiterIdentitiesAreIndependent(t *testing.T) {
	clock := newFakeClock()
	l := ratelimit.New(2, time.Minute, ratelimit.WithNowFunc(clock.Now))

	require.True(t, l.Allow("a"))
	require.True(t, l.Allow("a"))
	require.False(t, l.Allow("a"))
	require.True(t, l.Allow("b"))
}

func TestLimiterResetTimeUnknownIdentity(t *testing.T) {
	l := ratelimit.New(1, time.Minute)

	_, ok := l.ResetTime("nobody")
	require.False(t, ok)
}

func TestLimiterOpportunisticCleanup(t *testing.T) {
	clock := newFakeClock()
	l := ratelimit.New(5, time.Minute, ratelimit.WithNowFunc(clock.Now))

	// Populate well past the size threshold.
	for i := 0; i < 200; i++ {
		require.True(t, l.Allow(fmt.Sprintf("client-%d", i)))
	}

	// All windows elapse; the next cleanup-triggering call purges them, so
	// previously exhausted identities get fresh windows.
	clock.Advance(2 * time.Minute)
	for i := 200; i < 1001; i++ {
		l.Allow(fmt.Sprintf("client-%d", i))
	}

	_, ok := l.ResetTime("client-0")
	require.False(t, ok, "elapsed window should have been purged")
}

func TestLimiterWindowResetAtBoundary(t *testing.T) {
	clock := newFakeClock()
	l := ratelimit.New(1, time.Minute, ratelimit.WithNowFunc(clock.Now))

	require.True(t, l.Allow("x"))
	require.False(t, l.Allow("x"))

	// now == resetAt counts as a new window.
	clock.Advance(time.Minute)
	require.True(t, l.Allow("x"))
}
