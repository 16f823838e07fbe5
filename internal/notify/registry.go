package notify

import (
	"sync"

	"github.com/google/uuid"
)

// Registry tracks which delivery channel, if any, each user currently has.
// A user has at most one channel; registering again replaces the previous
// one, so reconnects silently supersede stale connections. All methods are
// safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	channels map[uuid.UUID]Channel
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		channels: make(map[uuid.UUID]Channel),
	}
}

// Register associates the channel with the user, replacing any channel the
// user had before.
func (r *Registry) Register(userID uuid.UUID, ch Channel) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.channels[userID] = ch
}

// Unregister removes the user whose current channel is ch. Lookup runs by
// channel identity, so a stale connection that was already replaced by a
// newer one cannot evict the newer registration. Unknown channels are a
// silent no-op.
func (r *Registry) Unregister(ch Channel) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for userID, registered := range r.channels {
		if registered == ch {
			delete(r.channels, userID)
			return
		}
	}
}

// Get returns the user's current channel, or false if the user has none.
func (r *Registry) Get(userID uuid.UUID) (Channel, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ch, ok := r.channels[userID]
	return ch, ok
}

// Len returns the number of currently registered users.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.channels)
}

// Clear drops every registration. Used during shutdown.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.channels = make(map[uuid.UUID]Channel)
}
