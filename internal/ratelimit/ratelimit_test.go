package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func newTestLimiter(t *testing.T, limit int, window time.Duration) (*Limiter, *time.Time) {
	t.Helper()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	l := New(limit, window)
	l.now = func() time.Time { return now }
	t.Cleanup(l.Close)
	return l, &now
}

func TestAllow_SlidingWindow(t *testing.T) {
	l, now := newTestLimiter(t, 2, time.Minute)

	assert.True(t, l.Allow("1.2.3.4"))
	assert.True(t, l.Allow("1.2.3.4"))
	assert.False(t, l.Allow("1.2.3.4"))
	assert.True(t, l.Allow("5.6.7.8"), "keys are independent")

	*now = now.Add(61 * time.Second)
	assert.True(t, l.Allow("1.2.3.4"))
}

func TestHitExceededReset(t *testing.T) {
	l, _ := newTestLimiter(t, 3, time.Minute)

	for range 3 {
		assert.False(t, l.Exceeded("ana@example.com"))
		l.Hit("ana@example.com")
	}
	assert.True(t, l.Exceeded("ana@example.com"))

	l.Reset("ana@example.com")
	assert.False(t, l.Exceeded("ana@example.com"))
}

func TestCleanup_DropsStaleKeys(t *testing.T) {
	l, now := newTestLimiter(t, 1, time.Minute)
	l.Hit("old")

	*now = now.Add(3 * time.Minute)
	l.cleanup()

	l.mu.Lock()
	defer l.mu.Unlock()
	assert.NotContains(t, l.events, "old")
}

func TestClose_Idempotent(t *testing.T) {
	l := New(1, time.Second)
	l.Close()
	l.Close()
}
