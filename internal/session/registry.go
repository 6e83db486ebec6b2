// Package session maps physical connections to logical users and the
// conversation groups each connection routes messages for.
package session

import (
	"sync"

	"github.com/google/uuid"
)

type session struct {
	userID uuid.UUID
	groups map[uuid.UUID]struct{}
}

// Registry tracks live connections. Group membership is
// connection-scoped: two connections of the same user join and leave
// groups independently. Safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	conns   map[uuid.UUID]*session
	byUser  map[uuid.UUID]map[uuid.UUID]struct{}
	byGroup map[uuid.UUID]map[uuid.UUID]struct{}
}

func NewRegistry() *Registry {
	return &Registry{
		conns:   make(map[uuid.UUID]*session),
		byUser:  make(map[uuid.UUID]map[uuid.UUID]struct{}),
		byGroup: make(map[uuid.UUID]map[uuid.UUID]struct{}),
	}
}

// Register binds a connection to a user for the connection's lifetime.
func (r *Registry) Register(connID, userID uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.conns[connID] = &session{userID: userID, groups: make(map[uuid.UUID]struct{})}
	if r.byUser[userID] == nil {
		r.byUser[userID] = make(map[uuid.UUID]struct{})
	}
	r.byUser[userID][connID] = struct{}{}
}

// Unregister removes the connection and every group membership it held.
func (r *Registry) Unregister(connID uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.conns[connID]
	if !ok {
		return
	}
	delete(r.conns, connID)

	for groupID := range s.groups {
		r.removeFromGroup(groupID, connID)
	}

	if conns := r.byUser[s.userID]; conns != nil {
		delete(conns, connID)
		if len(conns) == 0 {
			delete(r.byUser, s.userID)
		}
	}
}

// JoinGroup subscribes the connection to a conversation group. The
// caller is responsible for verifying the user may join; the registry
// only tracks membership. Unknown connections are ignored.
func (r *Registry) JoinGroup(connID, groupID uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.conns[connID]
	if !ok {
		return
	}
	s.groups[groupID] = struct{}{}
	if r.byGroup[groupID] == nil {
		r.byGroup[groupID] = make(map[uuid.UUID]struct{})
	}
	r.byGroup[groupID][connID] = struct{}{}
}

func (r *Registry) LeaveGroup(connID, groupID uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.conns[connID]
	if !ok {
		return
	}
	delete(s.groups, groupID)
	r.removeFromGroup(groupID, connID)
}

// ConnectionsForGroup returns every connection currently joined to the
// conversation group.
func (r *Registry) ConnectionsForGroup(groupID uuid.UUID) []uuid.UUID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return keys(r.byGroup[groupID])
}

// ConnectionsForUser returns every live connection of the user.
func (r *Registry) ConnectionsForUser(userID uuid.UUID) []uuid.UUID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return keys(r.byUser[userID])
}

// UserFor resolves the user bound to a connection.
func (r *Registry) UserFor(connID uuid.UUID) (uuid.UUID, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.conns[connID]
	if !ok {
		return uuid.Nil, false
	}
	return s.userID, true
}

// caller must hold mu
func (r *Registry) removeFromGroup(groupID, connID uuid.UUID) {
	conns := r.byGroup[groupID]
	if conns == nil {
		return
	}
	delete(conns, connID)
	if len(conns) == 0 {
		delete(r.byGroup, groupID)
	}
}

func keys(set map[uuid.UUID]struct{}) []uuid.UUID {
	if len(set) == 0 {
		return nil
	}
	out := make([]uuid.UUID, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	return out
}
