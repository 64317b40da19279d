// internal/sms/ratelimit/limiter.go
package ratelimit

import (
	"hash/fnv"
	"sync"
	"time"
)

// Entry is the fixed-window counter for one sender. One active entry per
// sender; a fresh entry replaces it once the window expires.
type Entry struct {
	SenderID    string
	WindowStart time.Time
	Count       int
}

// Result is the outcome of one CheckAndIncrement call.
type Result struct {
	Allowed    bool
	RetryAfter time.Duration
}

const shardCount = 16

type shard struct {
	mu      sync.Mutex
	entries map[string]*Entry
}

// Limiter bounds how many messages a single sender may submit per fixed
// window. State is sharded so senders hashing to different shards never
// serialize against each other; increments for the same sender are
// linearized by the shard lock.
type Limiter struct {
	window time.Duration
	max    int
	shards [shardCount]*shard
}

func NewLimiter(window time.Duration, max int) *Limiter {
	l := &Limiter{window: window, max: max}
	for i := range l.shards {
		l.shards[i] = &shard{entries: make(map[string]*Entry)}
	}
	return l
}

func (l *Limiter) shardFor(senderID string) *shard {
	h := fnv.New32a()
	h.Write([]byte(senderID))
	return l.shards[h.Sum32()%shardCount]
}

// CheckAndIncrement records one message from senderID at time now. Once a
// sender is over the ceiling, further calls within the same window are denied
// without incrementing further.
func (l *Limiter) CheckAndIncrement(senderID string, now time.Time) Result {
	s := l.shardFor(senderID)
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[senderID]
	if !ok || now.Sub(entry.WindowStart) >= l.window {
		s.entries[senderID] = &Entry{SenderID: senderID, WindowStart: now, Count: 1}
		return Result{Allowed: true}
	}

	if entry.Count >= l.max {
		return Result{
			Allowed:    false,
			RetryAfter: entry.WindowStart.Add(l.window).Sub(now),
		}
	}

	entry.Count++
	return Result{Allowed: true}
}

// Status returns a copy of the sender's active entry for diagnostics, or nil
// when the sender has no live window.
func (l *Limiter) Status(senderID string) *Entry {
	s := l.shardFor(senderID)
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[senderID]
	if !ok {
		return nil
	}
	copied := *entry
	return &copied
}

// Cleanup removes all entries whose window has expired as of now.
func (l *Limiter) Cleanup(now time.Time) {
	for _, s := range l.shards {
		s.mu.Lock()
		for id, entry := range s.entries {
			if now.Sub(entry.WindowStart) >= l.window {
				delete(s.entries, id)
			}
		}
		s.mu.Unlock()
	}
}

// StartCleanup sweeps expired windows on the given interval until stop is
// closed.
func (l *Limiter) StartCleanup(interval time.Duration, stop <-chan struct{}) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				l.Cleanup(time.Now())
			case <-stop:
				return
			}
		}
	}()
}
