package realtime

import (
	"sync"

	"github.com/google/uuid"
)

// Connected and Disconnected are the connection lifecycle messages applied
// to a Registry.
type Connected struct {
	UserID  uuid.UUID
	Channel Channel
}

type Disconnected struct {
	UserID  uuid.UUID
	Channel Channel
}

// Registry maps a user to the one channel that receives their pushes. The
// newest connection wins. State is process-local and starts empty.
type Registry struct {
	mu      sync.RWMutex
	entries map[uuid.UUID]Channel
}

func NewRegistry() *Registry {
	return &Registry{entries: make(map[uuid.UUID]Channel)}
}

// Register replaces any previous handle for userID and returns it.
func (r *Registry) Register(userID uuid.UUID, ch Channel) Channel {
	r.mu.Lock()
	defer r.mu.Unlock()
	prev := r.entries[userID]
	r.entries[userID] = ch
	return prev
}

// Unregister removes the entry for userID. Absent users are ignored.
func (r *Registry) Unregister(userID uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, userID)
}

// UnregisterChannel removes the entry only while it still points at ch, so
// an old socket closing does not evict a newer one.
func (r *Registry) UnregisterChannel(userID uuid.UUID, ch Channel) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cur, ok := r.entries[userID]; ok && cur == ch {
		delete(r.entries, userID)
		return true
	}
	return false
}

func (r *Registry) Lookup(userID uuid.UUID) (Channel, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ch, ok := r.entries[userID]
	return ch, ok
}

func (r *Registry) IsOnline(userID uuid.UUID) bool {
	_, ok := r.Lookup(userID)
	return ok
}

// Count is the number of distinct connected users.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Snapshot copies the current entries.
func (r *Registry) Snapshot() map[uuid.UUID]Channel {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[uuid.UUID]Channel, len(r.entries))
	for id, ch := range r.entries {
		out[id] = ch
	}
	return out
}

// Apply consumes a lifecycle message. Unknown messages are ignored.
func (r *Registry) Apply(msg any) {
	switch m := msg.(type) {
	case Connected:
		r.Register(m.UserID, m.Channel)
	case Disconnected:
		if m.Channel == nil {
			r.Unregister(m.UserID)
			return
		}
		r.UnregisterChannel(m.UserID, m.Channel)
	}
}

// CloseAll closes every registered channel that can be closed and drops all
// entries. It returns how many channels were closed.
func (r *Registry) CloseAll() int {
	r.mu.Lock()
	entries := r.entries
	r.entries = make(map[uuid.UUID]Channel)
	r.mu.Unlock()

	closed := 0
	for _, ch := range entries {
		if c, ok := ch.(interface{ Close() }); ok {
			c.Close()
			closed++
		}
	}
	return closed
}

// Reset drops every entry without touching the channels.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = make(map[uuid.UUID]Channel)
}
