// internal/sms/conversation/store.go
package conversation

import (
	"hash/fnv"
	"sync"
	"time"
)

// Context is the short-lived memory of "what we were just discussing" with one
// sender. It lets a follow-up like "page 200" apply to the book mentioned a
// message earlier.
type Context struct {
	SenderID   string
	LastBookID int // zero means no book referenced yet
	LastIntent string
	UpdatedAt  time.Time
}

// Update is a partial context write. Nil fields are retained from the stored
// entry; UpdatedAt always refreshes.
type Update struct {
	LastBookID *int
	LastIntent *string
}

const shardCount = 16

type shard struct {
	mu      sync.Mutex
	entries map[string]*Context
}

// Store holds per-sender conversation contexts with TTL eviction. Entries past
// the TTL are treated as absent by Get even before the sweep physically
// removes them. Process-local and non-durable by design: a restart resets
// conversation memory.
type Store struct {
	ttl    time.Duration
	shards [shardCount]*shard
}

func NewStore(ttl time.Duration) *Store {
	s := &Store{ttl: ttl}
	for i := range s.shards {
		s.shards[i] = &shard{entries: make(map[string]*Context)}
	}
	return s
}

func (s *Store) shardFor(senderID string) *shard {
	h := fnv.New32a()
	h.Write([]byte(senderID))
	return s.shards[h.Sum32()%shardCount]
}

// Get returns a copy of the sender's context, or nil when none exists or the
// stored entry has aged past the TTL. An expired entry found here is evicted
// on the spot.
func (s *Store) Get(senderID string) *Context {
	sh := s.shardFor(senderID)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	entry, ok := sh.entries[senderID]
	if !ok {
		return nil
	}
	if time.Since(entry.UpdatedAt) >= s.ttl {
		delete(sh.entries, senderID)
		return nil
	}
	copied := *entry
	return &copied
}

// Apply merges upd into the sender's context, creating it if absent, and
// returns a copy of the result. Unspecified fields keep their stored values.
func (s *Store) Apply(senderID string, upd Update) *Context {
	sh := s.shardFor(senderID)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	entry, ok := sh.entries[senderID]
	if !ok || time.Since(entry.UpdatedAt) >= s.ttl {
		entry = &Context{SenderID: senderID}
		sh.entries[senderID] = entry
	}

	if upd.LastBookID != nil {
		entry.LastBookID = *upd.LastBookID
	}
	if upd.LastIntent != nil {
		entry.LastIntent = *upd.LastIntent
	}
	entry.UpdatedAt = time.Now()

	copied := *entry
	return &copied
}

// Clear drops the sender's context.
func (s *Store) Clear(senderID string) {
	sh := s.shardFor(senderID)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	delete(sh.entries, senderID)
}

// Sweep physically evicts every entry past the TTL as of now.
func (s *Store) Sweep(now time.Time) {
	for _, sh := range s.shards {
		sh.mu.Lock()
		for id, entry := range sh.entries {
			if now.Sub(entry.UpdatedAt) >= s.ttl {
				delete(sh.entries, id)
			}
		}
		sh.mu.Unlock()
	}
}

// StartSweep runs Sweep on the given interval until stop is closed.
func (s *Store) StartSweep(interval time.Duration, stop <-chan struct{}) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.Sweep(time.Now())
			case <-stop:
				return
			}
		}
	}()
}
