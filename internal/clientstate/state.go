// Package clientstate implements the LSNP client-state singleton
// (spec.md §4.5): self identity, peers, display names, the follow
// graph, groups, the recent-message store, and revoked tokens. Grounded
// on the teacher's internal/meshage Node locking discipline: one mutex
// per singleton guarding plain Go maps, with every public operation
// acquiring the lock for the duration of the call and no I/O performed
// while it is held.
package clientstate

import (
	"sync"

	"github.com/lsnp/lsnp/internal/types"
)

// Group is a named set of members, tracked either fully (this process is
// a member) or as a known id only (spec.md §3).
type Group struct {
	ID      string
	Name    string
	Members map[types.UserID]struct{}
}

// State is the client-state singleton. The zero value is not usable;
// construct with New.
type State struct {
	mu sync.Mutex

	self types.UserID

	peers        map[types.UserID]struct{}
	displayNames map[types.UserID]string

	followers map[types.UserID]struct{}
	following map[types.UserID]struct{}

	groups    map[string]*Group   // full groups (we are a member)
	knownIDs  map[string]struct{} // group ids seen but not joined

	recentSent     []types.RecentMessage
	recentReceived []types.RecentMessage

	revoked map[string]struct{} // token wire-string set
}

// New returns an initialized, empty State.
func New() *State {
	return &State{
		peers:        map[types.UserID]struct{}{},
		displayNames: map[types.UserID]string{},
		followers:    map[types.UserID]struct{}{},
		following:    map[types.UserID]struct{}{},
		groups:       map[string]*Group{},
		knownIDs:     map[string]struct{}{},
		revoked:      map[string]struct{}{},
	}
}

// SetUserID sets this process's own identity.
func (s *State) SetUserID(u types.UserID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.self = u
}

// GetUserID returns this process's own identity.
func (s *State) GetUserID() types.UserID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.self
}

// AddPeer records u as a known peer. Returns true if u was new.
func (s *State) AddPeer(u types.UserID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.peers[u]; ok {
		return false
	}
	s.peers[u] = struct{}{}
	return true
}

// RemovePeer forgets u.
func (s *State) RemovePeer(u types.UserID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.peers, u)
}

// GetPeers returns every known peer.
func (s *State) GetPeers() []types.UserID {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]types.UserID, 0, len(s.peers))
	for u := range s.peers {
		out = append(out, u)
	}
	return out
}

// UpdatePeerDisplayName sets u's display name; an empty name removes the
// mapping.
func (s *State) UpdatePeerDisplayName(u types.UserID, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if name == "" {
		delete(s.displayNames, u)
		return
	}
	s.displayNames[u] = name
}

// GetPeerDisplayName returns u's display name, if any.
func (s *State) GetPeerDisplayName(u types.UserID) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	name, ok := s.displayNames[u]
	return name, ok
}

// AddFollower records u as following this process.
func (s *State) AddFollower(u types.UserID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.followers[u] = struct{}{}
}

// RemoveFollower forgets u as a follower.
func (s *State) RemoveFollower(u types.UserID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.followers, u)
}

// GetFollowers returns every follower of this process.
func (s *State) GetFollowers() []types.UserID {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]types.UserID, 0, len(s.followers))
	for u := range s.followers {
		out = append(out, u)
	}
	return out
}

// AddFollowing records this process as following u.
func (s *State) AddFollowing(u types.UserID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.following[u] = struct{}{}
}

// RemoveFollowing stops following u.
func (s *State) RemoveFollowing(u types.UserID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.following, u)
}

// IsFollowing reports whether this process follows u.
func (s *State) IsFollowing(u types.UserID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.following[u]
	return ok
}

// GetFollowing returns every peer this process follows.
func (s *State) GetFollowing() []types.UserID {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]types.UserID, 0, len(s.following))
	for u := range s.following {
		out = append(out, u)
	}
	return out
}
