package runtime

import (
	"sync"

	"task-portal/contract"
)

type Set map[string]struct{}

// Registry is the presence map: it associates a user id with every live
// connection currently open for that user. A user with several tabs or
// devices owns several entries at once, delivery fans out to all of them.
// State is process-lifetime only, clients re-register on reconnect.
type Registry struct {
	mu       sync.RWMutex
	Sessions map[string]contract.EventSink // connection id -> sink
	Users    map[int64]Set                 // user id -> connection ids
	owners   map[string]int64              // connection id -> user id
}

func NewRegistry() *Registry {
	return &Registry{
		Sessions: make(map[string]contract.EventSink),
		Users:    make(map[int64]Set),
		owners:   make(map[string]int64),
	}
}

// Register associates a live connection with a user identity. It adds to the
// user's set, an existing connection of the same user is never replaced.
func (r *Registry) Register(userID int64, connID string, sink contract.EventSink) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.Sessions[connID] = sink
	r.owners[connID] = userID

	if _, ok := r.Users[userID]; !ok {
		r.Users[userID] = make(Set)
	}
	r.Users[userID][connID] = struct{}{}
}

// Unregister removes a connection from whichever user owns it, a no-op for
// unknown connections. Empty user sets are removed to avoid leaking entries.
func (r *Registry) Unregister(connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	userID, ok := r.owners[connID]
	if !ok {
		return
	}
	delete(r.owners, connID)
	delete(r.Sessions, connID)

	if conns, ok := r.Users[userID]; ok {
		delete(conns, connID)
		if len(conns) == 0 {
			delete(r.Users, userID)
		}
	}
}

// SinksFor returns the currently-live sinks of a user, possibly none.
// Callers must tolerate an empty result: an offline user simply misses the
// push and reconciles through the REST snapshot on reconnect.
func (r *Registry) SinksFor(userID int64) []contract.EventSink {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conns, ok := r.Users[userID]
	if !ok {
		return nil
	}
	var sinks []contract.EventSink
	for connID := range conns {
		if sink, exists := r.Sessions[connID]; exists {
			sinks = append(sinks, sink)
		}
	}
	return sinks
}
