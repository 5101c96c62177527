package game

import (
	"sync"
	"time"
)

// PlayerFrame is one player's state as captured by a snapshot.
type PlayerFrame struct {
	Position Vec3
	Rotation Rotation
	Health   int
}

// Snapshot is an immutable capture of every player present at one tick.
// Players is never modified after the snapshot is recorded.
type Snapshot struct {
	Timestamp time.Time
	Tick      uint64
	Players   map[string]PlayerFrame
}

// Frame returns the captured state of one player.
func (s Snapshot) Frame(playerID string) (PlayerFrame, bool) {
	f, ok := s.Players[playerID]
	return f, ok
}

// History is the rolling record of recent snapshots used for lag
// compensation. Entries are kept in timestamp order.
type History struct {
	mu        sync.RWMutex
	entries   []Snapshot
	window    time.Duration
	tolerance time.Duration
}

// NewHistory creates a history that retains `window` worth of snapshots and
// only answers lookups within `tolerance` of a stored entry.
func NewHistory(window, tolerance time.Duration) *History {
	return &History{
		entries:   make([]Snapshot, 0, 32),
		window:    window,
		tolerance: tolerance,
	}
}

// Record appends a snapshot and drops everything older than the window,
// measured from the newest entry.
func (h *History) Record(s Snapshot) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.entries = append(h.entries, s)
	// Keep timestamp order if a capture arrives late.
	for i := len(h.entries) - 1; i > 0 && h.entries[i].Timestamp.Before(h.entries[i-1].Timestamp); i-- {
		h.entries[i], h.entries[i-1] = h.entries[i-1], h.entries[i]
	}

	newest := h.entries[len(h.entries)-1].Timestamp
	cutoff := newest.Add(-h.window)

	// Zero-allocation in-place filtering
	n := 0
	for _, e := range h.entries {
		if !e.Timestamp.Before(cutoff) {
			h.entries[n] = e
			n++
		}
	}
	for i := n; i < len(h.entries); i++ {
		h.entries[i] = Snapshot{} // release player maps
	}
	h.entries = h.entries[:n]
}

// Lookup returns the snapshot nearest to ts. ok is false when the history is
// empty or the nearest snapshot is further than the tolerance; callers must
// then fall back to live state. No interpolation is performed.
func (h *History) Lookup(ts time.Time) (Snapshot, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if len(h.entries) == 0 {
		return Snapshot{}, false
	}

	best := 0
	bestDiff := absDuration(h.entries[0].Timestamp.Sub(ts))
	for i := 1; i < len(h.entries); i++ {
		if diff := absDuration(h.entries[i].Timestamp.Sub(ts)); diff < bestDiff {
			best = i
			bestDiff = diff
		}
	}

	if bestDiff > h.tolerance {
		return Snapshot{}, false
	}
	return h.entries[best], true
}

// Len returns the number of retained snapshots.
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.entries)
}

// Oldest returns the oldest retained snapshot timestamp.
func (h *History) Oldest() (time.Time, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if len(h.entries) == 0 {
		return time.Time{}, false
	}
	return h.entries[0].Timestamp, true
}

// Reset drops every snapshot.
func (h *History) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = h.entries[:0]
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
