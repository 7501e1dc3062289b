// Package ratelimit provides the fixed-window admission controller used to
// bound login attempts and config update volume per client IP.
package ratelimit

import (
	"sync"
	"time"
)

const (
	cleanupEvery    = 1000 // opportunistic cleanup cadence, in calls
	cleanupMinSize  = 100  // only clean when the map has grown past this
	cleanupMaxStale = time.Hour
)

type window struct {
	count   int
	resetAt time.Time
}

// Limiter admits up to maxRequests per identity within each window. State is
// in-process only; a restart resets all counters.
type Limiter struct {
	mu          sync.Mutex
	store       map[string]*window
	maxRequests int
	windowDur   time.Duration
	lastCleanup time.Time
	calls       int
	nowFunc     func() time.Time
}

type LimiterOption func(*Limiter)

// WithNowFunc sets the now time function (primarily for testing)
func WithNowFunc(now func() time.Time) LimiterOption {
	return func(l *Limiter) {
		l.nowFunc = now
	}
}

func New(maxRequests int, windowDur time.Duration, options ...LimiterOption) *Limiter {
	l := &Limiter{
		store:       make(map[string]*window),
		maxRequests: maxRequests,
		windowDur:   windowDur,
		nowFunc:     time.Now,
	}
	for _, opt := range options {
		opt(l)
	}
	l.lastCleanup = l.nowFunc()
	return l
}

// Allow reports whether the identity may make another request in its current
// window, counting this call against the quota.
func (l *Limiter) Allow(identity string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.nowFunc()
	l.calls++

	if (l.calls%cleanupEvery == 0 || now.Sub(l.lastCleanup) > cleanupMaxStale) && len(l.store) > cleanupMinSize {
		l.cleanupLocked(now)
	}

	rec, ok := l.store[identity]
	if !ok || !now.Before(rec.resetAt) {
		l.store[identity] = &window{count: 1, resetAt: now.Add(l.windowDur)}
		return true
	}

	if rec.count >= l.maxRequests {
		return false
	}
	rec.count++
	return true
}

// ResetTime returns when the identity's current window expires. The second
// return is false when no window exists.
func (l *Limiter) ResetTime(identity string) (time.Time, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	rec, ok := l.store[identity]
	if !ok {
		return time.Time{}, false
	}
	return rec.resetAt, true
}

// cleanupLocked purges records whose window has already elapsed. Caller holds
// the mutex.
func (l *Limiter) cleanupLocked(now time.Time) {
	for id, rec := range l.store {
		if now.After(rec.resetAt) {
			delete(l.store, id)
		}
	}
	l.lastCleanup = now
}
