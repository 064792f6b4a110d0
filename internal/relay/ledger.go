package relay

import (
	"strconv"
	"sync"

	"github.com/zeruxbrawl/zeruxbot/internal/store"
)

// Ledger maps a forwarded message id in the staff group back to the actor
// whose message was forwarded. The mapping is written through to disk on
// every insert so a crash right after forwarding never loses the
// correlation needed to route the staff reply.
type Ledger struct {
	mu      sync.Mutex
	entries map[int]int64
	path    string
}

// New creates a ledger backed by the given document path and hydrates it
// from disk. An empty path keeps the ledger in memory only (tests).
func New(path string) *Ledger {
	l := &Ledger{
		entries: make(map[int]int64),
		path:    path,
	}
	if path != "" {
		raw := map[string]int64{}
		store.LoadDocument(path, &raw)
		for idStr, actorID := range raw {
			if id, err := strconv.Atoi(idStr); err == nil {
				l.entries[id] = actorID
			}
		}
	}
	return l
}

// Record stores the forwarded-message correlation, overwriting any prior
// mapping for the same id, and persists the whole ledger synchronously.
func (l *Ledger) Record(messageID int, actorID int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.entries[messageID] = actorID
	if l.path == "" {
		return nil
	}
	snapshot := make(map[string]int64, len(l.entries))
	for id, actor := range l.entries {
		snapshot[strconv.Itoa(id)] = actor
	}
	return store.SaveDocument(l.path, snapshot)
}

// Lookup returns the origin actor for a forwarded message id.
func (l *Ledger) Lookup(messageID int) (int64, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	actorID, ok := l.entries[messageID]
	return actorID, ok
}
