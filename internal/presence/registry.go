// Package presence maps logged-in identities to their live realtime
// connections and the channels those connections are subscribed to. It is
// local to one server process; fanning out across processes would need an
// external relay in front of it.
package presence

import (
	"sync"

	"github.com/google/uuid"
)

// Channel naming: one channel per room plus one inbox channel per identity.
// Direct messages are pushed to both participants' inbox channels.
func RoomChannel(name string) string {
	return "room:" + name
}

func UserChannel(username string) string {
	return "user:" + username
}

// Sender is the abstract per-connection transport: push one event with a
// payload to a single connection. The WebSocket client implements it; tests
// substitute fakes.
type Sender interface {
	Send(event string, payload any) error
}

type connEntry struct {
	identity string
	sender   Sender
	channels map[string]struct{}
}

// Registry tracks live connections. Many connections may map to one identity
// (multi-device). All methods are safe under concurrent join/leave from many
// connections; fan-out reads take a consistent snapshot under the read lock.
type Registry struct {
	mu         sync.RWMutex
	conns      map[string]*connEntry
	channels   map[string]map[string]struct{}
	identities map[string]map[string]struct{}
}

func NewRegistry() *Registry {
	return &Registry{
		conns:      make(map[string]*connEntry),
		channels:   make(map[string]map[string]struct{}),
		identities: make(map[string]map[string]struct{}),
	}
}

// Connect registers a live connection under the identity and returns its
// handle. The connection starts subscribed to the identity's inbox channel
// so direct messages reach it without an explicit join.
func (r *Registry) Connect(identity string, sender Sender) string {
	id := uuid.NewString()

	r.mu.Lock()
	defer r.mu.Unlock()

	entry := &connEntry{
		identity: identity,
		sender:   sender,
		channels: make(map[string]struct{}),
	}
	r.conns[id] = entry

	if r.identities[identity] == nil {
		r.identities[identity] = make(map[string]struct{})
	}
	r.identities[identity][id] = struct{}{}

	r.subscribeLocked(id, entry, UserChannel(identity))
	return id
}

// Subscribe adds the connection to a channel. A handle that has already
// disconnected is a silent no-op: the disconnect may race an in-flight join.
func (r *Registry) Subscribe(connID, channel string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.conns[connID]
	if !ok {
		return
	}
	r.subscribeLocked(connID, entry, channel)
}

func (r *Registry) subscribeLocked(connID string, entry *connEntry, channel string) {
	entry.channels[channel] = struct{}{}
	if r.channels[channel] == nil {
		r.channels[channel] = make(map[string]struct{})
	}
	r.channels[channel][connID] = struct{}{}
}

func (r *Registry) Unsubscribe(connID, channel string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.conns[connID]
	if !ok {
		return
	}
	delete(entry.channels, channel)
	r.removeFromChannelLocked(connID, channel)
}

func (r *Registry) removeFromChannelLocked(connID, channel string) {
	if set, ok := r.channels[channel]; ok {
		delete(set, connID)
		if len(set) == 0 {
			delete(r.channels, channel)
		}
	}
}

// Disconnect removes the connection from every channel it joined and
// reports whether this was the identity's last connection (the identity is
// now offline). Unknown handles return false: disconnects are idempotent.
func (r *Registry) Disconnect(connID string) (identity string, offline bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.conns[connID]
	if !ok {
		return "", false
	}
	delete(r.conns, connID)

	for channel := range entry.channels {
		r.removeFromChannelLocked(connID, channel)
	}

	set := r.identities[entry.identity]
	delete(set, connID)
	if len(set) == 0 {
		delete(r.identities, entry.identity)
		return entry.identity, true
	}
	return entry.identity, false
}

// ChannelMembers returns a snapshot of the senders currently subscribed to
// the channel. The snapshot reflects the join/leave state at the time of the
// call; a connection that disconnects after the snapshot may still receive a
// best-effort push, which its transport drops.
func (r *Registry) ChannelMembers(channel string) []Sender {
	r.mu.RLock()
	defer r.mu.RUnlock()

	set := r.channels[channel]
	members := make([]Sender, 0, len(set))
	for connID := range set {
		if entry, ok := r.conns[connID]; ok {
			members = append(members, entry.sender)
		}
	}
	return members
}

// Online reports whether the identity has at least one live connection.
func (r *Registry) Online(identity string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.identities[identity]) > 0
}
