// Package ratelimit counts events per key in a sliding window.
package ratelimit

import (
	"sync"
	"time"
)

// Limiter tracks event times per key (client IP, email address).
type Limiter struct {
	mu     sync.Mutex
	events map[string][]time.Time
	limit  int
	window time.Duration
	now    func() time.Time
	done   chan struct{}
	once   sync.Once
}

func New(limit int, window time.Duration) *Limiter {
	l := &Limiter{
		events: make(map[string][]time.Time),
		limit:  limit,
		window: window,
		now:    time.Now,
		done:   make(chan struct{}),
	}

	go l.cleanupLoop()

	return l
}

// Allow records an event for key unless the limit is already reached.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	recent := l.recent(key)
	if len(recent) >= l.limit {
		return false
	}
	l.events[key] = append(recent, l.now())
	return true
}

// Exceeded reports whether key has reached the limit, without recording.
func (l *Limiter) Exceeded(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.recent(key)) >= l.limit
}

// Hit records an event for key unconditionally.
func (l *Limiter) Hit(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events[key] = append(l.recent(key), l.now())
}

// Reset forgets key.
func (l *Limiter) Reset(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.events, key)
}

// Close stops the cleanup loop.
func (l *Limiter) Close() {
	l.once.Do(func() { close(l.done) })
}

// recent drops events outside the window. Caller holds mu.
func (l *Limiter) recent(key string) []time.Time {
	cutoff := l.now().Add(-l.window)
	events := l.events[key]
	kept := events[:0]
	for _, t := range events {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	if len(kept) == 0 {
		delete(l.events, key)
		return nil
	}
	l.events[key] = kept
	return kept
}

func (l *Limiter) cleanupLoop() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			l.cleanup()
		case <-l.done:
			return
		}
	}
}

// cleanup removes keys with no events in the last two windows.
func (l *Limiter) cleanup() {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := l.now().Add(-l.window * 2)
	for key, events := range l.events {
		stale := true
		for _, t := range events {
			if t.After(cutoff) {
				stale = false
				break
			}
		}
		if stale {
			delete(l.events, key)
		}
	}
}
