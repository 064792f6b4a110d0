package directory

import (
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"github.com/zeruxbrawl/zeruxbot/internal/store"
)

// Directory maps an actor id to its best-known display handle. It is a
// cache — authoritative identity always comes from the inbound message —
// but it is persisted so news broadcasts and handle lookups survive a
// restart.
type Directory struct {
	mu      sync.RWMutex
	handles map[int64]string
	path    string
}

// New creates a directory backed by the given document path.
// An empty path disables persistence.
func New(path string) *Directory {
	d := &Directory{
		handles: make(map[int64]string),
		path:    path,
	}
	if path != "" {
		raw := map[string]string{}
		store.LoadDocument(path, &raw)
		for idStr, handle := range raw {
			if id, err := strconv.ParseInt(idStr, 10, 64); err == nil {
				d.handles[id] = handle
			}
		}
	}
	return d
}

// Observe updates the actor's display handle from message sender metadata.
// Precedence: @username, then first name, then the stringified id.
// Never fails; persistence errors are logged and swallowed.
func (d *Directory) Observe(id int64, username, firstName string) {
	handle := strconv.FormatInt(id, 10)
	if firstName != "" {
		handle = firstName
	}
	if username != "" {
		handle = "@" + username
	}

	d.mu.Lock()
	changed := d.handles[id] != handle
	d.handles[id] = handle
	var snapshot map[string]string
	if changed && d.path != "" {
		snapshot = make(map[string]string, len(d.handles))
		for k, v := range d.handles {
			snapshot[strconv.FormatInt(k, 10)] = v
		}
	}
	d.mu.Unlock()

	if snapshot != nil {
		if err := store.SaveDocument(d.path, snapshot); err != nil {
			slog.Warn("failed to persist user directory", "error", err)
		}
	}
}

// Resolve returns the last observed handle for id, or the stringified id
// if the actor has never been seen.
func (d *Directory) Resolve(id int64) string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if handle, ok := d.handles[id]; ok {
		return handle
	}
	return strconv.FormatInt(id, 10)
}

// LookupHandle finds the actor id for a handle. Matching ignores case and
// a leading "@", so "/ban_support rico" matches "@Rico".
func (d *Directory) LookupHandle(handle string) (int64, bool) {
	want := normalizeHandle(handle)
	d.mu.RLock()
	defer d.mu.RUnlock()
	for id, h := range d.handles {
		if normalizeHandle(h) == want {
			return id, true
		}
	}
	return 0, false
}

// All returns every actor id ever observed.
func (d *Directory) All() []int64 {
	d.mu.RLock()
	defer d.mu.RUnlock()
	ids := make([]int64, 0, len(d.handles))
	for id := range d.handles {
		ids = append(ids, id)
	}
	return ids
}

func normalizeHandle(h string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(h), "@"))
}
