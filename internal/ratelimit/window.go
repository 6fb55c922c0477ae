// Package ratelimit implements per-client sliding-window admission
// throttling. Only admitted submissions consume a slot; rejected requests
// never count against the window.
package ratelimit

import (
	"sync"
	"time"
)

type Status struct {
	Limit      int
	Remaining  int
	Reset      time.Time
	RetryAfter time.Duration
}

type WindowLimiter struct {
	mu      sync.RWMutex
	clients map[string][]time.Time
	limit   int
	window  time.Duration

	// now is swappable in tests.
	now func() time.Time
}

func NewWindowLimiter(limit int, window time.Duration) *WindowLimiter {
	limiter := &WindowLimiter{
		clients: make(map[string][]time.Time),
		limit:   limit,
		window:  window,
		now:     time.Now,
	}

	go limiter.cleanup()

	return limiter
}

// Allow reports whether the client may submit now and, if so, records the
// submission. On refusal the returned status carries the retry-after hint.
func (l *WindowLimiter) Allow(clientID string) (bool, Status) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	stamps := l.trim(clientID, now)

	if len(stamps) >= l.limit {
		oldest := stamps[0]
		return false, Status{
			Limit:      l.limit,
			Remaining:  0,
			Reset:      oldest.Add(l.window),
			RetryAfter: oldest.Add(l.window).Sub(now),
		}
	}

	stamps = append(stamps, now)
	l.clients[clientID] = stamps
	return true, l.status(stamps, now)
}

// Peek returns the current window status without consuming a slot.
func (l *WindowLimiter) Peek(clientID string) Status {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	return l.status(l.trim(clientID, now), now)
}

func (l *WindowLimiter) status(stamps []time.Time, now time.Time) Status {
	st := Status{
		Limit:     l.limit,
		Remaining: l.limit - len(stamps),
	}
	if len(stamps) > 0 {
		st.Reset = stamps[0].Add(l.window)
	} else {
		st.Reset = now
	}
	if st.Remaining <= 0 {
		st.Remaining = 0
		st.RetryAfter = st.Reset.Sub(now)
	}
	return st
}

// trim drops timestamps that fell out of the window. Caller holds the lock.
func (l *WindowLimiter) trim(clientID string, now time.Time) []time.Time {
	stamps := l.clients[clientID]
	cutoff := now.Add(-l.window)
	i := 0
	for i < len(stamps) && !stamps[i].After(cutoff) {
		i++
	}
	if i > 0 {
		stamps = stamps[i:]
		if len(stamps) == 0 {
			delete(l.clients, clientID)
		} else {
			l.clients[clientID] = stamps
		}
	}
	return stamps
}

func (l *WindowLimiter) cleanup() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		l.mu.Lock()
		now := l.now()
		for clientID := range l.clients {
			l.trim(clientID, now)
		}
		l.mu.Unlock()
	}
}
