package clientstate

import "github.com/lsnp/lsnp/internal/types"

// CreateGroup installs a full group. Duplicate group ids are dropped
// locally (spec.md §3).
func (s *State) CreateGroup(id, name string, members []types.UserID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, dup := s.groups[id]; dup {
		return false
	}

	set := make(map[types.UserID]struct{}, len(members))
	for _, m := range members {
		set[m] = struct{}{}
	}
	s.groups[id] = &Group{ID: id, Name: name, Members: set}
	return true
}

// RememberGroupID records a group id this process saw created but is not
// a member of.
func (s *State) RememberGroupID(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, dup := s.groups[id]; dup {
		return false
	}
	if _, dup := s.knownIDs[id]; dup {
		return false
	}
	s.knownIDs[id] = struct{}{}
	return true
}

// RemoveGroup forgets a full group.
func (s *State) RemoveGroup(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.groups, id)
	delete(s.knownIDs, id)
}

// GetGroup returns the full group for id, if this process is a member.
func (s *State) GetGroup(id string) (*Group, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.groups[id]
	return g, ok
}

// AddGroupMember adds u to group id's member set.
func (s *State) AddGroupMember(id string, u types.UserID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if g, ok := s.groups[id]; ok {
		g.Members[u] = struct{}{}
	}
}

// RemoveGroupMember removes u from group id's member set.
func (s *State) RemoveGroupMember(id string, u types.UserID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if g, ok := s.groups[id]; ok {
		delete(g.Members, u)
	}
}

// IsGroupMember reports whether u is a member of group id.
func (s *State) IsGroupMember(id string, u types.UserID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.groups[id]
	if !ok {
		return false
	}
	_, member := g.Members[u]
	return member
}

// GetGroupMembers returns group id's members.
func (s *State) GetGroupMembers(id string) []types.UserID {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.groups[id]
	if !ok {
		return nil
	}
	out := make([]types.UserID, 0, len(g.Members))
	for u := range g.Members {
		out = append(out, u)
	}
	return out
}

// GetGroupIDs returns every group id this process knows about, full or
// known-only.
func (s *State) GetGroupIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]string, 0, len(s.groups)+len(s.knownIDs))
	for id := range s.groups {
		out = append(out, id)
	}
	for id := range s.knownIDs {
		out = append(out, id)
	}
	return out
}
