package gcpolicy

import (
	"sync"
	"time"

	"github.com/epochgc/gcpolicy/core"
)

// DefaultHistoryCapacity is the ring size used when none is configured.
const DefaultHistoryCapacity = 256

// History keeps a bounded ring of recent policy events for replay. Each
// appended event gets a monotonically increasing sequence number; once the
// ring is full the oldest entries fall off.
type History struct {
	mu      sync.Mutex
	entries []core.LogEntry
	head    int
	count   int
	nextSeq uint64
}

// NewHistory creates a history ring. capacity <= 0 selects the default.
func NewHistory(capacity int) *History {
	if capacity <= 0 {
		capacity = DefaultHistoryCapacity
	}
	return &History{
		entries: make([]core.LogEntry, capacity),
		nextSeq: 1,
	}
}

// Append records an event under the next sequence number.
func (h *History) Append(event core.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.entries[h.head] = core.LogEntry{
		Seq:   h.nextSeq,
		Time:  time.Now(),
		Event: event,
	}
	h.nextSeq++
	h.head = (h.head + 1) % len(h.entries)
	if h.count < len(h.entries) {
		h.count++
	}
}

// Since returns the recorded entries with sequence numbers greater than seq,
// oldest first. Entries that already fell off the ring are gone; asking from
// before the ring start returns whatever is left.
func (h *History) Since(seq uint64) []core.LogEntry {
	h.mu.Lock()
	defer h.mu.Unlock()

	result := make([]core.LogEntry, 0, h.count)
	for i := 0; i < h.count; i++ {
		entry := h.at(i)
		if entry.Seq > seq {
			result = append(result, entry)
		}
	}
	return result
}

// Recent returns the newest n entries, oldest first.
func (h *History) Recent(n int) []core.LogEntry {
	h.mu.Lock()
	defer h.mu.Unlock()

	if n > h.count {
		n = h.count
	}
	if n <= 0 {
		return nil
	}
	result := make([]core.LogEntry, 0, n)
	for i := h.count - n; i < h.count; i++ {
		result = append(result, h.at(i))
	}
	return result
}

// Len returns the number of entries currently held.
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.count
}

// LastSeq returns the sequence number of the newest entry, zero when empty.
func (h *History) LastSeq() uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.nextSeq - 1
}

// at indexes the ring oldest-first. Callers hold h.mu.
func (h *History) at(i int) core.LogEntry {
	idx := (h.head - h.count + i + len(h.entries)) % len(h.entries)
	return h.entries[idx]
}
