package workflow

import (
	"strings"
	"sync"
	"time"
)

type blockEntry struct {
	artist string
	at     time.Time
}

// Blocking holds artists back for a while after they played, so the
// same artist does not dominate the queue. Entries expire in FIFO
// order after the hold duration.
type Blocking struct {
	mu      sync.Mutex
	entries []blockEntry
	hold    time.Duration
	now     func() time.Time
}

// NewBlocking creates a block list with the given hold duration.
func NewBlocking(hold time.Duration) *Blocking {
	return &Blocking{hold: hold, now: time.Now}
}

// Block adds an artist to the block list, restarting its hold if it was
// already blocked.
func (b *Blocking) Block(artist string) {
	artist = strings.ToLower(strings.TrimSpace(artist))
	if artist == "" {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	kept := b.entries[:0]
	for _, entry := range b.entries {
		if entry.artist != artist {
			kept = append(kept, entry)
		}
	}
	b.entries = append(kept, blockEntry{artist: artist, at: b.now()})
}

// Unblock drops entries whose hold has expired.
func (b *Blocking) Unblock() {
	b.mu.Lock()
	defer b.mu.Unlock()
	cutoff := b.now().Add(-b.hold)
	kept := b.entries[:0]
	for _, entry := range b.entries {
		if entry.at.After(cutoff) {
			kept = append(kept, entry)
		}
	}
	b.entries = kept
}

// Blocked returns the set of blocked artists, extended with the given
// artists from songs currently playing or queued.
func (b *Blocking) Blocked(extra []string) map[string]struct{} {
	b.mu.Lock()
	defer b.mu.Unlock()
	blocked := make(map[string]struct{}, len(b.entries)+len(extra))
	for _, entry := range b.entries {
		blocked[entry.artist] = struct{}{}
	}
	for _, artist := range extra {
		blocked[strings.ToLower(strings.TrimSpace(artist))] = struct{}{}
	}
	return blocked
}
